package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

/************************************************
/**** MARK: ORDER STATUS ****/
/************************************************/
const ORDER_STATUS_PENDING = "pending"
const ORDER_STATUS_CONFIRMED = "confirmed"
const ORDER_STATUS_SHIPPED = "shipped"
const ORDER_STATUS_COMPLETED = "completed"
const ORDER_STATUS_CANCELLED = "cancelled"

// Order is created transactionally from the cart at checkout confirmation.
// Items are value snapshots, not references, so later product edits do not
// retroactively change historical orders.
type Order struct {
	ID          int64  `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	TenantID    int64  `gorm:"not null;index" json:"tenant_id"`
	CustomerID  int64  `gorm:"not null;index" json:"customer_id"`
	OrderNumber string `gorm:"not null;unique_index" json:"order_number"`
	Status      string `gorm:"not null;default:'pending';index" json:"status"`

	Subtotal float64 `gorm:"not null;default:0" json:"subtotal"`
	Total    float64 `gorm:"not null;default:0" json:"total"`
	Note     string  `gorm:"type:text" json:"note"`

	Items []OrderItem `json:"items"`

	CreatedAt *time.Time `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

// OrderItem is a frozen cart line copied into the order.
type OrderItem struct {
	ID      int64 `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	OrderID int64 `gorm:"not null;index" json:"order_id"`

	ProductName string  `gorm:"not null" json:"product_name"`
	UnitPrice   float64 `gorm:"not null" json:"unit_price"`
	Quantity    int     `gorm:"not null" json:"quantity"`
	Subtotal    float64 `gorm:"not null" json:"subtotal"`
}

// NewOrderNumber generates a short human-readable order number
// (ORD-XXXXXXXX). Uniqueness is backed by the index on order_number.
func NewOrderNumber() string {
	id := strings.ToUpper(uuid.New().String())
	return fmt.Sprintf("ORD-%s", id[:8])
}
