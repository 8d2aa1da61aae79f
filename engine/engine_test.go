package engine

import (
	"context"
	"fmt"
	"testing"

	"botique/db"
	"botique/models"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/************************************************
/**** MARK: TEST HARNESS ****/
/************************************************/

type sentMessage struct {
	Kind string // text, image, document, interactive
	To   string
	Body string
	Rows []InteractiveRow
}

type fakeSender struct {
	sent []sentMessage
	fail bool
}

func (f *fakeSender) record(kind, to, body string, rows []InteractiveRow) (string, error) {
	if f.fail {
		return "", fmt.Errorf("fake transport down")
	}
	f.sent = append(f.sent, sentMessage{Kind: kind, To: to, Body: body, Rows: rows})
	return fmt.Sprintf("wamid.fake.%d", len(f.sent)), nil
}

func (f *fakeSender) SendText(_ context.Context, _ *models.Tenant, to, text string) (string, error) {
	return f.record("text", to, text, nil)
}

func (f *fakeSender) SendImage(_ context.Context, _ *models.Tenant, to, url, caption string) (string, error) {
	return f.record("image", to, url+"|"+caption, nil)
}

func (f *fakeSender) SendDocument(_ context.Context, _ *models.Tenant, to, url, caption string) (string, error) {
	return f.record("document", to, url+"|"+caption, nil)
}

func (f *fakeSender) SendInteractive(_ context.Context, _ *models.Tenant, to, body string, rows []InteractiveRow) (string, error) {
	return f.record("interactive", to, body, rows)
}

func (f *fakeSender) lastText() string {
	for i := len(f.sent) - 1; i >= 0; i-- {
		if f.sent[i].Kind == "text" {
			return f.sent[i].Body
		}
	}
	return ""
}

type fakeAI struct {
	reply   AIReply
	err     error
	called  bool
	history []models.Message
}

func (f *fakeAI) Generate(_ context.Context, _ *models.Tenant, _ *models.Customer, history []models.Message, _ string) (AIReply, error) {
	f.called = true
	f.history = history
	return f.reply, f.err
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	database, err := gorm.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	database.DB().SetMaxOpenConns(1)
	db.Migrate(database)
	t.Cleanup(func() { database.Close() })
	return database
}

func newTestEngine(t *testing.T, opts ...Option) (*Engine, *fakeSender, *fakeAI, *gorm.DB) {
	t.Helper()
	database := newTestDB(t)
	sender := &fakeSender{}
	ai := &fakeAI{reply: AIReply{Text: "AI says hi"}}
	eng := New(database, sender, ai, opts...)
	return eng, sender, ai, database
}

func seedTenant(t *testing.T, database *gorm.DB, bt models.BusinessType) *models.Tenant {
	t.Helper()
	tenant := &models.Tenant{
		Name:         "Acme",
		BusinessType: bt,
		Currency:     "USD",
		Status:       models.TENANT_STATUS_ACTIVE,
		ApiVersion:   "v24.0",
	}
	require.NoError(t, database.Create(tenant).Error)
	return tenant
}

func seedCustomer(t *testing.T, database *gorm.DB, tenant *models.Tenant, phone, name, state string) *models.Customer {
	t.Helper()
	customer := &models.Customer{
		TenantID:          tenant.ID,
		Phone:             phone,
		Name:              name,
		OptIn:             true,
		ConversationState: state,
	}
	require.NoError(t, database.Create(customer).Error)
	return customer
}

func seedProduct(t *testing.T, database *gorm.DB, tenant *models.Tenant, name string, price, discount float64) *models.Product {
	t.Helper()
	product := &models.Product{
		TenantID:        tenant.ID,
		Name:            name,
		Price:           price,
		DiscountPercent: discount,
		Active:          true,
	}
	require.NoError(t, database.Create(product).Error)
	return product
}

func textIn(tenant *models.Tenant, phone, text string) Inbound {
	return Inbound{TenantID: tenant.ID, Phone: phone, Type: models.EVENT_TYPE_TEXT, Text: text}
}

func reloadCustomer(t *testing.T, database *gorm.DB, id int64) *models.Customer {
	t.Helper()
	var c models.Customer
	require.NoError(t, database.First(&c, id).Error)
	return &c
}

/************************************************
/**** MARK: SESSION LIFECYCLE ****/
/************************************************/

func TestFirstContactStartsRegistration(t *testing.T) {
	eng, sender, _, database := newTestEngine(t)
	tenant := seedTenant(t, database, models.BUSINESS_TYPE_GENERIC)

	require.NoError(t, eng.ProcessInbound(context.Background(), textIn(tenant, "5511999990000", "hello")))

	var customer models.Customer
	require.NoError(t, database.Where("tenant_id = ? AND phone = ?", tenant.ID, "5511999990000").First(&customer).Error)
	assert.Equal(t, models.CONVERSATION_STATE_REGISTERING, customer.ConversationState)
	assert.Contains(t, sender.lastText(), "what's your name")
}

func TestRegistrationStoresNameAndShowsMenu(t *testing.T) {
	eng, sender, _, database := newTestEngine(t)
	tenant := seedTenant(t, database, models.BUSINESS_TYPE_RESTAURANT)
	customer := seedCustomer(t, database, tenant, "5511999990001", "", models.CONVERSATION_STATE_REGISTERING)

	require.NoError(t, eng.ProcessInbound(context.Background(), textIn(tenant, customer.Phone, "Maria Silva")))

	got := reloadCustomer(t, database, customer.ID)
	assert.Equal(t, "Maria Silva", got.Name)
	assert.Equal(t, models.CONVERSATION_STATE_MENU, got.ConversationState)
	assert.Equal(t, models.LEAD_SCORE_ONBOARDED, got.LeadScore)
	assert.True(t, got.HasTag("new"))
	assert.Contains(t, sender.lastText(), "Thanks, Maria Silva")
	assert.Contains(t, sender.lastText(), "1.")
}

func TestRegistrationRejectsTooShortName(t *testing.T) {
	eng, sender, _, database := newTestEngine(t)
	tenant := seedTenant(t, database, models.BUSINESS_TYPE_GENERIC)
	customer := seedCustomer(t, database, tenant, "5511999990002", "", models.CONVERSATION_STATE_REGISTERING)

	require.NoError(t, eng.ProcessInbound(context.Background(), textIn(tenant, customer.Phone, "J")))

	got := reloadCustomer(t, database, customer.ID)
	assert.Equal(t, "", got.Name)
	assert.Equal(t, models.CONVERSATION_STATE_REGISTERING, got.ConversationState)
	assert.Contains(t, sender.lastText(), "too short")
}

func TestRegistrationKeepsFirstFourWords(t *testing.T) {
	eng, _, _, database := newTestEngine(t)
	tenant := seedTenant(t, database, models.BUSINESS_TYPE_GENERIC)
	customer := seedCustomer(t, database, tenant, "5511999990003", "", models.CONVERSATION_STATE_REGISTERING)

	require.NoError(t, eng.ProcessInbound(context.Background(),
		textIn(tenant, customer.Phone, "Ana Beatriz de Souza Lima Costa")))

	got := reloadCustomer(t, database, customer.ID)
	assert.Equal(t, "Ana Beatriz de Souza", got.Name)
}

func TestBlockedCustomerIsDroppedSilently(t *testing.T) {
	eng, sender, _, database := newTestEngine(t)
	tenant := seedTenant(t, database, models.BUSINESS_TYPE_GENERIC)
	customer := seedCustomer(t, database, tenant, "5511999990004", "Bob", models.CONVERSATION_STATE_MENU)
	require.NoError(t, database.Model(customer).Update("blocked", true).Error)

	require.NoError(t, eng.ProcessInbound(context.Background(), textIn(tenant, customer.Phone, "hello")))

	assert.Empty(t, sender.sent)
	var count int
	database.Model(&models.Message{}).Where("customer_id = ?", customer.ID).Count(&count)
	assert.Equal(t, 0, count)
}

func TestInactiveTenantIsDropped(t *testing.T) {
	eng, sender, _, database := newTestEngine(t)
	tenant := seedTenant(t, database, models.BUSINESS_TYPE_GENERIC)
	require.NoError(t, database.Model(tenant).Update("status", models.TENANT_STATUS_BLOCKED).Error)

	require.NoError(t, eng.ProcessInbound(context.Background(), textIn(tenant, "5511999990005", "hello")))

	assert.Empty(t, sender.sent)
}

/************************************************
/**** MARK: OPT-IN / OPT-OUT ****/
/************************************************/

func TestOptOutRoundTrip(t *testing.T) {
	eng, sender, _, database := newTestEngine(t)
	tenant := seedTenant(t, database, models.BUSINESS_TYPE_GENERIC)
	customer := seedCustomer(t, database, tenant, "5511999990006", "Bob", models.CONVERSATION_STATE_MENU)

	// STOP opts out with one final acknowledgement.
	require.NoError(t, eng.ProcessInbound(context.Background(), textIn(tenant, customer.Phone, "STOP")))
	got := reloadCustomer(t, database, customer.ID)
	assert.False(t, got.OptIn)
	assert.NotNil(t, got.OptOutAt)
	assert.Contains(t, sender.lastText(), "START")

	// Anything but the opt-in command is dropped now.
	before := len(sender.sent)
	require.NoError(t, eng.ProcessInbound(context.Background(), textIn(tenant, customer.Phone, "hello?")))
	assert.Equal(t, before, len(sender.sent))

	// START opts back in.
	require.NoError(t, eng.ProcessInbound(context.Background(), textIn(tenant, customer.Phone, "START")))
	got = reloadCustomer(t, database, customer.ID)
	assert.True(t, got.OptIn)
	assert.Nil(t, got.OptOutAt)
	assert.Contains(t, sender.lastText(), "Welcome back")
}

/************************************************
/**** MARK: RATE LIMIT ****/
/************************************************/

func TestRateLimitDropsExcessMessages(t *testing.T) {
	eng, sender, _, database := newTestEngine(t, WithRateLimit(2))
	tenant := seedTenant(t, database, models.BUSINESS_TYPE_GENERIC)
	customer := seedCustomer(t, database, tenant, "5511999990007", "Bob", models.CONVERSATION_STATE_MENU)

	for i := 0; i < 2; i++ {
		require.NoError(t, eng.ProcessInbound(context.Background(), textIn(tenant, customer.Phone, "HOURS")))
	}
	var before int
	database.Model(&models.Message{}).Where("customer_id = ? AND role = ?", customer.ID, models.MESSAGE_ROLE_USER).Count(&before)
	assert.Equal(t, 2, before)
	sentBefore := len(sender.sent)

	// Over the cap: no message row, no reply.
	require.NoError(t, eng.ProcessInbound(context.Background(), textIn(tenant, customer.Phone, "HOURS")))

	var after int
	database.Model(&models.Message{}).Where("customer_id = ? AND role = ?", customer.ID, models.MESSAGE_ROLE_USER).Count(&after)
	assert.Equal(t, before, after)
	assert.Equal(t, sentBefore, len(sender.sent))
}

func TestRateLimitIsPerSender(t *testing.T) {
	eng, _, _, database := newTestEngine(t, WithRateLimit(1))
	tenant := seedTenant(t, database, models.BUSINESS_TYPE_GENERIC)
	a := seedCustomer(t, database, tenant, "5511999990008", "A", models.CONVERSATION_STATE_MENU)
	b := seedCustomer(t, database, tenant, "5511999990009", "B", models.CONVERSATION_STATE_MENU)

	require.NoError(t, eng.ProcessInbound(context.Background(), textIn(tenant, a.Phone, "HOURS")))
	require.NoError(t, eng.ProcessInbound(context.Background(), textIn(tenant, b.Phone, "HOURS")))

	var countA, countB int
	database.Model(&models.Message{}).Where("customer_id = ? AND role = ?", a.ID, models.MESSAGE_ROLE_USER).Count(&countA)
	database.Model(&models.Message{}).Where("customer_id = ? AND role = ?", b.ID, models.MESSAGE_ROLE_USER).Count(&countB)
	assert.Equal(t, 1, countA)
	assert.Equal(t, 1, countB)
}

/************************************************
/**** MARK: MESSAGE LOG ****/
/************************************************/

func TestInboundAndOutboundAreLogged(t *testing.T) {
	eng, _, _, database := newTestEngine(t)
	tenant := seedTenant(t, database, models.BUSINESS_TYPE_GENERIC)
	customer := seedCustomer(t, database, tenant, "5511999990010", "Bob", models.CONVERSATION_STATE_MENU)

	require.NoError(t, eng.ProcessInbound(context.Background(), textIn(tenant, customer.Phone, "CONTACT")))

	var inbound, outbound models.Message
	require.NoError(t, database.Where("customer_id = ? AND role = ?", customer.ID, models.MESSAGE_ROLE_USER).First(&inbound).Error)
	require.NoError(t, database.Where("customer_id = ? AND role = ?", customer.ID, models.MESSAGE_ROLE_ASSISTANT).First(&outbound).Error)
	assert.Equal(t, "CONTACT", inbound.Content)
	assert.Equal(t, models.MESSAGE_STATUS_DELIVERED, inbound.Status)
	assert.Equal(t, models.MESSAGE_STATUS_SENT, outbound.Status)
	assert.NotEmpty(t, outbound.ExternalID)

	got := reloadCustomer(t, database, customer.ID)
	assert.Equal(t, 1, got.TotalMessages)
	assert.NotNil(t, got.LastSeenAt)
}

func TestFailedSendIsRecordedAsFailed(t *testing.T) {
	eng, sender, _, database := newTestEngine(t)
	sender.fail = true
	tenant := seedTenant(t, database, models.BUSINESS_TYPE_GENERIC)
	customer := seedCustomer(t, database, tenant, "5511999990011", "Bob", models.CONVERSATION_STATE_MENU)

	require.NoError(t, eng.ProcessInbound(context.Background(), textIn(tenant, customer.Phone, "CONTACT")))

	var outbound models.Message
	require.NoError(t, database.Where("customer_id = ? AND role = ?", customer.ID, models.MESSAGE_ROLE_ASSISTANT).First(&outbound).Error)
	assert.Equal(t, models.MESSAGE_STATUS_FAILED, outbound.Status)
	assert.Empty(t, outbound.ExternalID)
}
