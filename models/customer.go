package models

import (
	"encoding/json"
	"strings"
	"time"
)

/************************************************
/**** MARK: CONVERSATION STATES ****/
/************************************************/
const CONVERSATION_STATE_IDLE = "IDLE"
const CONVERSATION_STATE_REGISTERING = "REGISTERING"
const CONVERSATION_STATE_MENU = "MENU"
const CONVERSATION_STATE_BROWSING_CATALOG = "BROWSING_CATALOG"
const CONVERSATION_STATE_CHECKOUT = "CHECKOUT"
const CONVERSATION_STATE_BOOKING_DATE = "BOOKING_DATE"
const CONVERSATION_STATE_BOOKING_CHECKIN = "BOOKING_CHECKIN"
const CONVERSATION_STATE_AI_CHAT = "AI_CHAT"

// Lead score values assigned by the engine.
const LEAD_SCORE_ONBOARDED = 10
const LEAD_SCORE_ORDER_BONUS = 25

// Customer is one person talking to a tenant. Exactly one row per
// (tenant_id, phone), created on the first inbound message and never
// hard-deleted (Blocked is a flag).
type Customer struct {
	ID       int64  `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	TenantID int64  `gorm:"not null;index;unique_index:ux_tenant_phone" json:"tenant_id"`
	Phone    string `gorm:"not null;unique_index:ux_tenant_phone" json:"phone"`
	Name     string `gorm:"default:''" json:"name"`
	Email    string `gorm:"default:''" json:"email"`
	Language string `gorm:"default:''" json:"language"`

	// CRM fields.
	Tags      string `gorm:"type:text" json:"tags"` // JSON array, e.g. ["new","repeat_buyer"]
	LeadScore int    `gorm:"default:0" json:"lead_score"`
	Segment   string `gorm:"default:''" json:"segment"`

	OptIn    bool       `gorm:"default:true" json:"opt_in"`
	OptOutAt *time.Time `json:"opt_out_at"`
	Blocked  bool       `gorm:"default:false" json:"blocked"`

	TotalMessages int     `gorm:"default:0" json:"total_messages"`
	TotalOrders   int     `gorm:"default:0" json:"total_orders"`
	TotalSpent    float64 `gorm:"default:0" json:"total_spent"`

	ConversationState   string `gorm:"not null;default:'IDLE';index" json:"conversation_state"`
	ConversationContext string `gorm:"type:text" json:"conversation_context"` // JSON object, scratch data

	LastSeenAt *time.Time `json:"last_seen_at"`
	CreatedAt  *time.Time `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at"`
}

// TagList decodes the Tags column. An empty or broken column reads as empty.
func (c Customer) TagList() []string {
	var out []string
	if strings.TrimSpace(c.Tags) == "" {
		return out
	}
	_ = json.Unmarshal([]byte(c.Tags), &out)
	return out
}

func (c Customer) HasTag(tag string) bool {
	for _, t := range c.TagList() {
		if t == tag {
			return true
		}
	}
	return false
}

// WithTag returns the Tags column value with tag appended if absent.
func (c Customer) WithTag(tag string) string {
	tags := c.TagList()
	for _, t := range tags {
		if t == tag {
			return c.Tags
		}
	}
	tags = append(tags, tag)
	b, _ := json.Marshal(tags)
	return string(b)
}

// Context decodes ConversationContext. Unknown keys are preserved as-is so
// states can stash arbitrary scratch data.
func (c Customer) Context() map[string]string {
	out := map[string]string{}
	if strings.TrimSpace(c.ConversationContext) == "" {
		return out
	}
	_ = json.Unmarshal([]byte(c.ConversationContext), &out)
	return out
}

// MergeContext shallow-merges kv into the stored context and returns the
// new column value. Existing keys not present in kv are preserved.
func (c Customer) MergeContext(kv map[string]string) string {
	ctx := c.Context()
	for k, v := range kv {
		ctx[k] = v
	}
	b, _ := json.Marshal(ctx)
	return string(b)
}
