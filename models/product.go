package models

import "time"

// Product is one catalog item. Orders snapshot name/price at checkout, so
// edits here never rewrite history.
type Product struct {
	ID          int64  `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	TenantID    int64  `gorm:"not null;index" json:"tenant_id"`
	Name        string `gorm:"not null" json:"name" form:"name"`
	Description string `gorm:"type:text" json:"description" form:"description"`

	Price           float64 `gorm:"not null;default:0" json:"price" form:"price"`
	DiscountPercent float64 `gorm:"default:0" json:"discount_percent" form:"discount_percent"`

	ImageURL string `gorm:"column:image_url;default:''" json:"image_url" form:"image_url"`
	Category string `gorm:"default:'';index" json:"category" form:"category"`
	Active   bool   `gorm:"not null;default:true;index" json:"active" form:"active"`

	CreatedAt *time.Time `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

// EffectivePrice applies the active discount, if any.
func (p Product) EffectivePrice() float64 {
	if p.DiscountPercent <= 0 {
		return p.Price
	}
	return p.Price * (1 - p.DiscountPercent/100)
}
