package models

import "time"

// TenantStat is one day of per-tenant counters, bumped by the engine's
// analytics side-channel. Best-effort: a failed increment is logged and
// dropped, never surfaced to the conversation.
type TenantStat struct {
	ID       int64  `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	TenantID int64  `gorm:"not null;index;unique_index:ux_tenant_day" json:"tenant_id"`
	Day      string `gorm:"not null;unique_index:ux_tenant_day" json:"day"` // YYYY-MM-DD

	MessagesIn  int     `gorm:"default:0" json:"messages_in"`
	MessagesOut int     `gorm:"default:0" json:"messages_out"`
	Orders      int     `gorm:"default:0" json:"orders"`
	Revenue     float64 `gorm:"default:0" json:"revenue"`

	CreatedAt *time.Time `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

// StatDay formats t as a stats bucket key.
func StatDay(t time.Time) string {
	return t.Format("2006-01-02")
}
