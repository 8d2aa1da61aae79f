package controllers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"time"

	dbpkg "botique/db"
	"botique/models"
	"botique/tools"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
	"github.com/sirupsen/logrus"
)

// WebhookPayload is the WhatsApp Cloud API webhook envelope, trimmed to
// what the platform consumes: inbound messages and delivery statuses.
type WebhookPayload struct {
	Object string `json:"object"`
	Entry  []struct {
		ID      string `json:"id"`
		Changes []struct {
			Field string `json:"field"`
			Value struct {
				Messages []webhookMessage `json:"messages"`
				Statuses []struct {
					ID          string `json:"id"`
					Status      string `json:"status"`
					RecipientID string `json:"recipient_id"`
				} `json:"statuses"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type webhookMessage struct {
	From string `json:"from"`
	ID   string `json:"id"`
	Type string `json:"type"`
	Text *struct {
		Body string `json:"body"`
	} `json:"text,omitempty"`
	Interactive *struct {
		Type        string `json:"type"`
		ButtonReply *struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		} `json:"button_reply,omitempty"`
		ListReply *struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		} `json:"list_reply,omitempty"`
	} `json:"interactive,omitempty"`
	Image    *webhookMedia `json:"image,omitempty"`
	Video    *webhookMedia `json:"video,omitempty"`
	Audio    *webhookMedia `json:"audio,omitempty"`
	Document *webhookMedia `json:"document,omitempty"`
}

type webhookMedia struct {
	ID      string `json:"id"`
	Link    string `json:"link"`
	Caption string `json:"caption"`
}

func resolveWebhookTenant(c *gin.Context, db *gorm.DB) (*models.Tenant, bool) {
	id, ok := ParamID(c, "tenantId")
	if !ok {
		return nil, false
	}
	var tenant models.Tenant
	if err := db.First(&tenant, id).Error; err != nil {
		RespondError(c, "tenant not found", http.StatusNotFound)
		return nil, false
	}
	if !tenant.Active() {
		RespondError(c, "tenant is not active", http.StatusForbidden)
		return nil, false
	}
	return &tenant, true
}

// verifyMetaSignature validates the request body against Meta's
// X-Hub-Signature-256 header using the tenant's app secret (env fallback
// WEBHOOK_APP_SECRET). An empty secret skips validation, for local dev.
func verifyMetaSignature(c *gin.Context, tenant *models.Tenant, rawBody []byte) (bool, string) {
	secret := strings.TrimSpace(tenant.AppSecret)
	if secret == "" {
		secret = strings.TrimSpace(os.Getenv("WEBHOOK_APP_SECRET"))
	}
	if secret == "" {
		return true, ""
	}

	sig := strings.TrimSpace(c.GetHeader("X-Hub-Signature-256"))
	if sig == "" {
		return false, "missing X-Hub-Signature-256"
	}
	if !strings.HasPrefix(sig, "sha256=") {
		return false, "invalid X-Hub-Signature-256 format"
	}

	provided, err := hex.DecodeString(strings.TrimPrefix(sig, "sha256="))
	if err != nil {
		return false, "invalid signature hex"
	}

	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(rawBody)
	if !hmac.Equal(provided, mac.Sum(nil)) {
		return false, "signature mismatch"
	}
	return true, ""
}

// GET /webhook/:tenantId
func WebhookVerify(c *gin.Context) {
	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "db not configured in context", http.StatusInternalServerError)
		return
	}
	tenant, ok := resolveWebhookTenant(c, db)
	if !ok {
		return
	}

	verifyToken := strings.TrimSpace(tenant.WebhookVerifyToken)
	if verifyToken == "" {
		verifyToken = strings.TrimSpace(os.Getenv("WEBHOOK_VERIFY_TOKEN"))
	}
	if verifyToken == "" {
		RespondError(c, "webhook verify token not configured", http.StatusInternalServerError)
		return
	}

	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == "subscribe" && token == verifyToken && challenge != "" {
		c.String(http.StatusOK, "%s", challenge)
		return
	}
	RespondError(c, "forbidden", http.StatusForbidden)
}

// POST /webhook/:tenantId
func WebhookUpdate(c *gin.Context) {
	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "db not configured in context", http.StatusInternalServerError)
		return
	}
	tenant, ok := resolveWebhookTenant(c, db)
	if !ok {
		return
	}

	raw, err := c.GetRawData()
	if err != nil {
		RespondError(c, "failed to read body", http.StatusBadRequest)
		return
	}
	if ok, reason := verifyMetaSignature(c, tenant, raw); !ok {
		RespondError(c, "forbidden: "+reason, http.StatusForbidden)
		return
	}

	var payload WebhookPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		RespondError(c, "invalid json", http.StatusBadRequest)
		return
	}

	// Ack fast; processing happens through the event queue.
	c.String(http.StatusOK, "EVENT_RECEIVED")

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			if strings.TrimSpace(change.Field) != "messages" {
				continue
			}
			for _, st := range change.Value.Statuses {
				applyDeliveryStatus(db, tenant, st.ID, st.Status)
			}
			for _, msg := range change.Value.Messages {
				enqueueInbound(db, tenant, msg)
			}
		}
	}
}

// applyDeliveryStatus moves a logged outbound message along
// sent -> delivered -> read (or failed). Out-of-order receipts are ignored.
func applyDeliveryStatus(db *gorm.DB, tenant *models.Tenant, externalID, status string) {
	if externalID == "" || status == "" {
		return
	}
	var msg models.Message
	err := db.Where("tenant_id = ? AND external_id = ?", tenant.ID, externalID).First(&msg).Error
	if err != nil {
		return
	}
	if !msg.CanTransitionTo(status) {
		return
	}
	if err := db.Model(&models.Message{}).Where("id = ?", msg.ID).
		Update("status", status).Error; err != nil {
		logrus.WithError(err).WithField("message", msg.ID).Warn("failed to apply delivery status")
	}
}

// enqueueInbound turns one webhook message into a pending InboundEvent row
// for the worker to claim.
func enqueueInbound(db *gorm.DB, tenant *models.Tenant, msg webhookMessage) {
	phone, err := tools.NormalizePhone(msg.From)
	if err != nil {
		logrus.WithField("from", msg.From).Warn("inbound with unusable sender phone, dropping")
		return
	}

	ev := models.InboundEvent{
		TenantID:  tenant.ID,
		Phone:     phone,
		MessageID: strings.TrimSpace(msg.ID),
		Type:      strings.ToLower(strings.TrimSpace(msg.Type)),
		Status:    models.EVENT_STATUS_PENDING,
	}

	switch ev.Type {
	case models.EVENT_TYPE_TEXT:
		if msg.Text != nil {
			ev.Text = msg.Text.Body
		}
	case models.EVENT_TYPE_INTERACTIVE:
		if msg.Interactive != nil {
			if msg.Interactive.ButtonReply != nil {
				ev.InteractiveID = msg.Interactive.ButtonReply.ID
				ev.InteractiveTitle = msg.Interactive.ButtonReply.Title
			}
			if msg.Interactive.ListReply != nil {
				ev.InteractiveID = msg.Interactive.ListReply.ID
				ev.InteractiveTitle = msg.Interactive.ListReply.Title
			}
		}
	case models.EVENT_TYPE_IMAGE:
		fillMedia(&ev, msg.Image)
	case models.EVENT_TYPE_VIDEO:
		fillMedia(&ev, msg.Video)
	case models.EVENT_TYPE_AUDIO:
		fillMedia(&ev, msg.Audio)
	case models.EVENT_TYPE_DOCUMENT:
		fillMedia(&ev, msg.Document)
	}

	now := time.Now()
	ev.ScheduledAt = &now

	if err := db.Create(&ev).Error; err != nil {
		logrus.WithError(err).Error("failed to enqueue inbound event")
	}
}

func fillMedia(ev *models.InboundEvent, media *webhookMedia) {
	if media == nil {
		return
	}
	ev.Text = media.Caption
	ev.MediaURL = media.Link
	if ev.MediaURL == "" {
		ev.MediaURL = media.ID // media id, resolvable via the Graph API
	}
}
