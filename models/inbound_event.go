package models

import "time"

/************************************************
/**** MARK: EVENT STATUS ****/
/************************************************/
const EVENT_STATUS_PENDING = "pending"
const EVENT_STATUS_PROCESSING = "processing"
const EVENT_STATUS_DONE = "done"
const EVENT_STATUS_FAILED = "failed"

/************************************************
/**** MARK: EVENT TYPES ****/
/************************************************/
const EVENT_TYPE_TEXT = "text"
const EVENT_TYPE_INTERACTIVE = "interactive"
const EVENT_TYPE_IMAGE = "image"
const EVENT_TYPE_VIDEO = "video"
const EVENT_TYPE_AUDIO = "audio"
const EVENT_TYPE_DOCUMENT = "document"

// InboundEvent is one webhook message queued for processing. The webhook
// handler enqueues it as "pending"; the worker claims it with an optimistic
// status update so each event is dispatched into the engine exactly once.
type InboundEvent struct {
	ID       int64  `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	TenantID int64  `gorm:"not null;index" json:"tenant_id"`
	Phone    string `gorm:"not null;index" json:"phone"` // sender (from)

	MessageID string `gorm:"default:''" json:"message_id"` // wamid of the inbound message
	Type      string `gorm:"not null;default:'text'" json:"type"`
	Text      string `gorm:"type:text" json:"text"`
	MediaURL  string `gorm:"column:media_url;default:''" json:"media_url"`

	// Interactive replies carry a machine id and a human title.
	InteractiveID    string `gorm:"column:interactive_id;default:''" json:"interactive_id"`
	InteractiveTitle string `gorm:"column:interactive_title;default:''" json:"interactive_title"`

	Status      string     `gorm:"not null;default:'pending';index" json:"status"`
	ScheduledAt *time.Time `gorm:"index" json:"scheduled_at"`
	ProcessedAt *time.Time `json:"processed_at"`
	Error       string     `gorm:"type:text" json:"error"`

	CreatedAt *time.Time `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}
