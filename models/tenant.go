package models

import "time"

/************************************************
/**** MARK: BUSINESS TYPES ****/
/************************************************/

// BusinessType selects the built-in flow pack a tenant gets.
type BusinessType string

const (
	BUSINESS_TYPE_HOTEL       BusinessType = "hotel"
	BUSINESS_TYPE_RESTAURANT  BusinessType = "restaurant"
	BUSINESS_TYPE_GROCERY     BusinessType = "grocery"
	BUSINESS_TYPE_REAL_ESTATE BusinessType = "real_estate"
	BUSINESS_TYPE_CLINIC      BusinessType = "clinic"
	BUSINESS_TYPE_SALON       BusinessType = "salon"
	BUSINESS_TYPE_TRAVEL      BusinessType = "travel"
	BUSINESS_TYPE_RECRUITMENT BusinessType = "recruitment"
	BUSINESS_TYPE_GENERIC     BusinessType = "generic"
)

// AllBusinessTypes is the closed set used for validation and the
// shortcut/flow dispatch tables.
var AllBusinessTypes = []BusinessType{
	BUSINESS_TYPE_HOTEL,
	BUSINESS_TYPE_RESTAURANT,
	BUSINESS_TYPE_GROCERY,
	BUSINESS_TYPE_REAL_ESTATE,
	BUSINESS_TYPE_CLINIC,
	BUSINESS_TYPE_SALON,
	BUSINESS_TYPE_TRAVEL,
	BUSINESS_TYPE_RECRUITMENT,
	BUSINESS_TYPE_GENERIC,
}

const (
	TENANT_STATUS_ACTIVE  = "active"
	TENANT_STATUS_BLOCKED = "blocked"
)

// Tenant is a business using the platform. All conversation data is scoped
// by tenant. WhatsApp Cloud API credentials live here (one number per
// tenant), same idea as a per-user WhatsAppConfig but folded into the row.
type Tenant struct {
	ID           int64        `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	Name         string       `gorm:"not null" json:"name" form:"name"`
	BusinessType BusinessType `gorm:"not null;default:'generic'" json:"business_type" form:"business_type"`
	Currency     string       `gorm:"not null;default:'USD'" json:"currency" form:"currency"`
	Status       string       `gorm:"not null;default:'active'" json:"status"`

	// Business profile, read by the LOCATION/HOURS/CONTACT commands.
	Location     string `gorm:"type:text" json:"location" form:"location"`
	Hours        string `gorm:"type:text" json:"hours" form:"hours"`
	ContactPhone string `json:"contact_phone" form:"contact_phone"`
	ContactEmail string `json:"contact_email" form:"contact_email"`

	// AI fallback responder.
	AIEnabled      bool   `gorm:"column:ai_enabled;default:false" json:"ai_enabled" form:"ai_enabled"`
	AISystemPrompt string `gorm:"column:ai_system_prompt;type:text" json:"ai_system_prompt" form:"ai_system_prompt"`

	// WhatsApp Cloud API credentials.
	PhoneNumberID      string `gorm:"column:phone_number_id" json:"phone_number_id" form:"phone_number_id"`
	AccessToken        string `gorm:"column:access_token" json:"-" form:"access_token"`
	ApiVersion         string `gorm:"column:api_version;not null;default:'v24.0'" json:"api_version" form:"api_version"`
	AppSecret          string `gorm:"column:app_secret" json:"-" form:"app_secret"`
	WebhookVerifyToken string `gorm:"column:webhook_verify_token" json:"-" form:"webhook_verify_token"`

	// Dashboard API token (Authorization: Bearer <token>).
	ApiToken string `gorm:"column:api_token;unique_index" json:"-"`

	CreatedAt *time.Time `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

func (t Tenant) Active() bool {
	return t.Status == TENANT_STATUS_ACTIVE
}
