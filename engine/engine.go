package engine

import (
	"context"
	"time"

	"botique/models"

	"github.com/jinzhu/gorm"
	"github.com/sirupsen/logrus"
)

// Inbound is one normalized transport event, as delivered by the webhook
// layer (one per WhatsApp message).
type Inbound struct {
	TenantID  int64
	Phone     string
	MessageID string
	Type      string
	Text      string
	MediaURL  string

	// Interactive replies (button/list) carry a machine id and a title.
	InteractiveID    string
	InteractiveTitle string
}

// Sender is the outbound transport capability. Implementations return the
// external message id (wamid) on success.
type Sender interface {
	SendText(ctx context.Context, tenant *models.Tenant, to string, text string) (string, error)
	SendImage(ctx context.Context, tenant *models.Tenant, to string, url string, caption string) (string, error)
	SendDocument(ctx context.Context, tenant *models.Tenant, to string, url string, caption string) (string, error)
	SendInteractive(ctx context.Context, tenant *models.Tenant, to string, body string, rows []InteractiveRow) (string, error)
}

// InteractiveRow is one selectable row of an interactive list message.
type InteractiveRow struct {
	ID          string
	Title       string
	Description string
}

// AIReply is the AI collaborator's answer. RequestsHandoff means the model
// asked for the conversation to be escalated to a human.
type AIReply struct {
	Text            string
	RequestsHandoff bool
}

// AIResponder is the black-box AI fallback. Any error is treated as
// "no answer" by the engine; the collaborator owns retry policy.
type AIResponder interface {
	Generate(ctx context.Context, tenant *models.Tenant, customer *models.Customer, history []models.Message, userText string) (AIReply, error)
}

// Engine is the conversation orchestration core: it takes one inbound
// message and decides which responder handles it, what conversation state
// results and which side effects happen.
type Engine struct {
	db      *gorm.DB
	sender  Sender
	ai      AIResponder
	limiter *RateLimiter
	locks   *customerLocks

	aiTimeout time.Duration
	log       *logrus.Entry
}

// Option tweaks engine construction.
type Option func(*Engine)

func WithRateLimit(perMinute int) Option {
	return func(e *Engine) { e.limiter = NewRateLimiter(perMinute, time.Minute) }
}

func WithAITimeout(d time.Duration) Option {
	return func(e *Engine) { e.aiTimeout = d }
}

func New(db *gorm.DB, sender Sender, ai AIResponder, opts ...Option) *Engine {
	e := &Engine{
		db:        db,
		sender:    sender,
		ai:        ai,
		limiter:   NewRateLimiter(20, time.Minute),
		locks:     newCustomerLocks(),
		aiTimeout: 15 * time.Second,
		log:       logrus.WithField("component", "engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ProcessInbound runs one inbound message through the full chain:
// rate limiter -> normalizer -> customer session -> state machine -> router.
// Silent drops (rate limit, unrecognized payload, blocked customer) return
// nil; only infrastructure failures return an error.
func (e *Engine) ProcessInbound(ctx context.Context, in Inbound) error {
	if !e.limiter.Allow(in.TenantID, in.Phone) {
		e.log.WithFields(logrus.Fields{"tenant": in.TenantID, "phone": in.Phone}).
			Warn("rate limit exceeded, dropping message")
		return nil
	}

	var tenant models.Tenant
	if err := e.db.First(&tenant, in.TenantID).Error; err != nil {
		e.log.WithField("tenant", in.TenantID).Warn("inbound for unknown tenant, dropping")
		return nil
	}
	if !tenant.Active() {
		return nil
	}

	m, ok := Normalize(in)
	if !ok {
		return nil
	}

	// All customer reads and writes below happen under the per-customer
	// lock; two concurrent deliveries for the same phone serialize here.
	unlock := e.locks.lock(in.TenantID, in.Phone)
	defer unlock()

	customer, created, err := e.findOrCreateCustomer(&tenant, in.Phone)
	if err != nil {
		return err
	}

	if customer.Blocked {
		return nil
	}
	if !customer.OptIn && !created {
		// Opted-out customers are silent except for the opt-in command,
		// otherwise STOP would be irreversible.
		if optInRe.MatchString(m.Upper) {
			return e.optIn(ctx, &tenant, customer)
		}
		return nil
	}

	if err := e.recordInbound(&tenant, customer, in, m); err != nil {
		return err
	}

	return e.dispatch(ctx, &tenant, customer, created, m)
}

func (e *Engine) findOrCreateCustomer(tenant *models.Tenant, phone string) (*models.Customer, bool, error) {
	var customer models.Customer
	err := e.db.Where("tenant_id = ? AND phone = ?", tenant.ID, phone).First(&customer).Error
	if err == nil {
		return &customer, false, nil
	}
	if !gorm.IsRecordNotFoundError(err) {
		return nil, false, err
	}

	customer = models.Customer{
		TenantID:          tenant.ID,
		Phone:             phone,
		OptIn:             true,
		ConversationState: models.CONVERSATION_STATE_IDLE,
	}
	if err := e.db.Create(&customer).Error; err != nil {
		return nil, false, err
	}
	return &customer, true, nil
}

// recordInbound appends the message row and bumps the per-customer and
// per-tenant counters.
func (e *Engine) recordInbound(tenant *models.Tenant, customer *models.Customer, in Inbound, m Normalized) error {
	msg := models.Message{
		TenantID:   tenant.ID,
		CustomerID: customer.ID,
		Role:       models.MESSAGE_ROLE_USER,
		Type:       in.Type,
		Content:    m.Text,
		MediaURL:   m.MediaURL,
		ExternalID: in.MessageID,
		Status:     models.MESSAGE_STATUS_DELIVERED,
	}
	if err := e.db.Create(&msg).Error; err != nil {
		return err
	}

	now := time.Now()
	if err := e.db.Model(&models.Customer{}).Where("id = ?", customer.ID).Updates(map[string]interface{}{
		"total_messages": gorm.Expr("total_messages + 1"),
		"last_seen_at":   &now,
	}).Error; err != nil {
		return err
	}
	customer.TotalMessages++
	customer.LastSeenAt = &now

	e.countMessageIn(tenant.ID)
	return nil
}

/************************************************
/**** MARK: OUTBOUND HELPERS ****/
/************************************************/

// sendText sends and logs one outbound text. A failed send is recorded as
// a failed Message row; state transitions already applied are not rolled
// back and there is no automatic retry.
func (e *Engine) sendText(ctx context.Context, tenant *models.Tenant, customer *models.Customer, text string) {
	externalID, err := e.sender.SendText(ctx, tenant, customer.Phone, text)
	e.recordOutbound(tenant, customer, models.MESSAGE_TYPE_TEXT, text, "", externalID, err)
}

func (e *Engine) sendImage(ctx context.Context, tenant *models.Tenant, customer *models.Customer, url, caption string) {
	externalID, err := e.sender.SendImage(ctx, tenant, customer.Phone, url, caption)
	e.recordOutbound(tenant, customer, models.MESSAGE_TYPE_IMAGE, caption, url, externalID, err)
}

func (e *Engine) sendDocument(ctx context.Context, tenant *models.Tenant, customer *models.Customer, url, caption string) {
	externalID, err := e.sender.SendDocument(ctx, tenant, customer.Phone, url, caption)
	e.recordOutbound(tenant, customer, models.MESSAGE_TYPE_DOCUMENT, caption, url, externalID, err)
}

func (e *Engine) sendInteractive(ctx context.Context, tenant *models.Tenant, customer *models.Customer, body string, rows []InteractiveRow) {
	externalID, err := e.sender.SendInteractive(ctx, tenant, customer.Phone, body, rows)
	e.recordOutbound(tenant, customer, models.MESSAGE_TYPE_INTERACTIVE, body, "", externalID, err)
}

func (e *Engine) recordOutbound(tenant *models.Tenant, customer *models.Customer, msgType, content, mediaURL, externalID string, sendErr error) {
	status := models.MESSAGE_STATUS_SENT
	if sendErr != nil {
		status = models.MESSAGE_STATUS_FAILED
		e.log.WithError(sendErr).WithFields(logrus.Fields{
			"tenant":   tenant.ID,
			"customer": customer.ID,
		}).Error("outbound send failed")
	}

	msg := models.Message{
		TenantID:   tenant.ID,
		CustomerID: customer.ID,
		Role:       models.MESSAGE_ROLE_ASSISTANT,
		Type:       msgType,
		Content:    content,
		MediaURL:   mediaURL,
		ExternalID: externalID,
		Status:     status,
	}
	if err := e.db.Create(&msg).Error; err != nil {
		e.log.WithError(err).Error("failed to log outbound message")
		return
	}
	if sendErr == nil {
		e.countMessageOut(tenant.ID)
	}
}

/************************************************
/**** MARK: STATE HELPERS ****/
/************************************************/

// setState writes the whole conversation state in one update. Callers are
// responsible for calling it at most once per inbound message.
func (e *Engine) setState(customer *models.Customer, state string) error {
	if err := e.db.Model(&models.Customer{}).Where("id = ?", customer.ID).
		Update("conversation_state", state).Error; err != nil {
		return err
	}
	customer.ConversationState = state
	return nil
}

// mergeContext shallow-merges kv into the stored conversation context:
// new keys overwrite, all others are preserved.
func (e *Engine) mergeContext(customer *models.Customer, kv map[string]string) error {
	merged := customer.MergeContext(kv)
	if err := e.db.Model(&models.Customer{}).Where("id = ?", customer.ID).
		Update("conversation_context", merged).Error; err != nil {
		return err
	}
	customer.ConversationContext = merged
	return nil
}
