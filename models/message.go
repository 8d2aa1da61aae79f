package models

import "time"

/************************************************
/**** MARK: MESSAGE ROLES / STATUS ****/
/************************************************/
const MESSAGE_ROLE_USER = "user"
const MESSAGE_ROLE_ASSISTANT = "assistant"

const MESSAGE_STATUS_SENT = "sent"
const MESSAGE_STATUS_DELIVERED = "delivered"
const MESSAGE_STATUS_READ = "read"
const MESSAGE_STATUS_FAILED = "failed"

const MESSAGE_TYPE_TEXT = "text"
const MESSAGE_TYPE_IMAGE = "image"
const MESSAGE_TYPE_DOCUMENT = "document"
const MESSAGE_TYPE_INTERACTIVE = "interactive"

// Message is the append-only conversation log. Rows are immutable after
// creation except Status, which follows delivery receipts
// (sent -> delivered -> read, or failed).
type Message struct {
	ID         int64  `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	TenantID   int64  `gorm:"not null;index" json:"tenant_id"`
	CustomerID int64  `gorm:"not null;index" json:"customer_id"`
	Role       string `gorm:"not null" json:"role"`
	Type       string `gorm:"not null;default:'text'" json:"type"`
	Content    string `gorm:"type:text" json:"content"`
	MediaURL   string `gorm:"column:media_url;default:''" json:"media_url"`

	// ExternalID is the WhatsApp message id (wamid...), used to apply
	// delivery-status webhooks.
	ExternalID string `gorm:"column:external_id;index" json:"external_id"`
	Status     string `gorm:"not null;default:'sent'" json:"status"`

	BroadcastID *int64 `gorm:"index" json:"broadcast_id"`

	CreatedAt *time.Time `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

// statusRank orders delivery states so late/duplicate receipts never move a
// message backwards (e.g. a "delivered" arriving after "read").
func statusRank(s string) int {
	switch s {
	case MESSAGE_STATUS_SENT:
		return 1
	case MESSAGE_STATUS_DELIVERED:
		return 2
	case MESSAGE_STATUS_READ:
		return 3
	case MESSAGE_STATUS_FAILED:
		return 4
	}
	return 0
}

// CanTransitionTo reports whether a delivery receipt may update Status.
func (m Message) CanTransitionTo(status string) bool {
	return statusRank(status) > statusRank(m.Status)
}
