package models

import "time"

// CartItem is one line of a customer's open cart. One row per
// (tenant, customer, product); adding the same product bumps Quantity.
// The whole set is consumed atomically at checkout confirmation.
type CartItem struct {
	ID         int64 `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	TenantID   int64 `gorm:"not null;index;unique_index:ux_cart_line" json:"tenant_id"`
	CustomerID int64 `gorm:"not null;index;unique_index:ux_cart_line" json:"customer_id"`
	ProductID  int64 `gorm:"not null;unique_index:ux_cart_line" json:"product_id"`

	// Snapshot at add time; checkout re-reads these, not the product row.
	ProductName string  `gorm:"not null" json:"product_name"`
	UnitPrice   float64 `gorm:"not null" json:"unit_price"`
	Quantity    int     `gorm:"not null;default:1" json:"quantity"`

	CreatedAt *time.Time `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

func (i CartItem) Subtotal() float64 {
	return i.UnitPrice * float64(i.Quantity)
}
