package engine

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"botique/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddToCartCreatesAndIncrementsLine(t *testing.T) {
	eng, sender, _, database := newTestEngine(t)
	tenant := seedTenant(t, database, models.BUSINESS_TYPE_GENERIC)
	customer := seedCustomer(t, database, tenant, "5511977770000", "Bob", models.CONVERSATION_STATE_BROWSING_CATALOG)
	product := seedProduct(t, database, tenant, "Widget", 10.00, 0)

	add := fmt.Sprintf("ADD %d", product.ID)
	require.NoError(t, eng.ProcessInbound(context.Background(), textIn(tenant, customer.Phone, add)))
	require.NoError(t, eng.ProcessInbound(context.Background(), textIn(tenant, customer.Phone, add)))

	var item models.CartItem
	require.NoError(t, database.Where("customer_id = ?", customer.ID).First(&item).Error)
	assert.Equal(t, 2, item.Quantity)
	assert.Equal(t, "Widget", item.ProductName)
	assert.Equal(t, 10.00, item.UnitPrice)
	assert.Contains(t, sender.lastText(), "Added Widget")
}

func TestInteractiveProductReplyAddsToCart(t *testing.T) {
	eng, _, _, database := newTestEngine(t)
	tenant := seedTenant(t, database, models.BUSINESS_TYPE_GENERIC)
	customer := seedCustomer(t, database, tenant, "5511977770001", "Bob", models.CONVERSATION_STATE_BROWSING_CATALOG)
	product := seedProduct(t, database, tenant, "Widget", 10.00, 0)

	require.NoError(t, eng.ProcessInbound(context.Background(), Inbound{
		TenantID:      tenant.ID,
		Phone:         customer.Phone,
		Type:          models.EVENT_TYPE_INTERACTIVE,
		InteractiveID: fmt.Sprintf("product:%d", product.ID),
	}))

	var count int
	database.Model(&models.CartItem{}).Where("customer_id = ?", customer.ID).Count(&count)
	assert.Equal(t, 1, count)
}

func TestCartSnapshotsDiscountedPrice(t *testing.T) {
	eng, _, _, database := newTestEngine(t)
	tenant := seedTenant(t, database, models.BUSINESS_TYPE_GENERIC)
	customer := seedCustomer(t, database, tenant, "5511977770002", "Bob", models.CONVERSATION_STATE_MENU)
	product := seedProduct(t, database, tenant, "Deal", 100.00, 25)

	require.NoError(t, eng.ProcessInbound(context.Background(),
		textIn(tenant, customer.Phone, fmt.Sprintf("ADD %d", product.ID))))

	var item models.CartItem
	require.NoError(t, database.Where("customer_id = ?", customer.ID).First(&item).Error)
	assert.InDelta(t, 75.00, item.UnitPrice, 0.001)
}

func TestCheckoutWithEmptyCartDoesNotTransition(t *testing.T) {
	eng, sender, _, database := newTestEngine(t)
	tenant := seedTenant(t, database, models.BUSINESS_TYPE_GENERIC)
	customer := seedCustomer(t, database, tenant, "5511977770003", "Bob", models.CONVERSATION_STATE_MENU)

	require.NoError(t, eng.ProcessInbound(context.Background(), textIn(tenant, customer.Phone, "CHECKOUT")))

	got := reloadCustomer(t, database, customer.ID)
	assert.Equal(t, models.CONVERSATION_STATE_MENU, got.ConversationState)
	assert.Contains(t, sender.lastText(), "cart is empty")
}

func TestCheckoutHappyPath(t *testing.T) {
	eng, sender, _, database := newTestEngine(t)
	tenant := seedTenant(t, database, models.BUSINESS_TYPE_GENERIC)
	customer := seedCustomer(t, database, tenant, "5511977770004", "Bob", models.CONVERSATION_STATE_MENU)
	product := seedProduct(t, database, tenant, "Widget", 10.00, 0)

	add := fmt.Sprintf("ADD %d", product.ID)
	require.NoError(t, eng.ProcessInbound(context.Background(), textIn(tenant, customer.Phone, add)))
	require.NoError(t, eng.ProcessInbound(context.Background(), textIn(tenant, customer.Phone, add)))

	require.NoError(t, eng.ProcessInbound(context.Background(), textIn(tenant, customer.Phone, "CHECKOUT")))
	assert.Equal(t, models.CONVERSATION_STATE_CHECKOUT, reloadCustomer(t, database, customer.ID).ConversationState)
	assert.Contains(t, sender.lastText(), "Widget x2")
	assert.Contains(t, sender.lastText(), "Total: USD 20.00")

	require.NoError(t, eng.ProcessInbound(context.Background(), textIn(tenant, customer.Phone, "CONFIRM")))

	var order models.Order
	require.NoError(t, database.Where("customer_id = ?", customer.ID).First(&order).Error)
	assert.Equal(t, models.ORDER_STATUS_PENDING, order.Status)
	assert.InDelta(t, 20.00, order.Total, 0.001)
	assert.Regexp(t, `^ORD-[A-F0-9]{8}$`, order.OrderNumber)

	var items []models.OrderItem
	require.NoError(t, database.Where("order_id = ?", order.ID).Find(&items).Error)
	require.Len(t, items, 1)
	assert.Equal(t, "Widget", items[0].ProductName)
	assert.Equal(t, 2, items[0].Quantity)
	assert.InDelta(t, 20.00, items[0].Subtotal, 0.001)

	// Cart consumed, customer back on the menu with bumped totals.
	var cartCount int
	database.Model(&models.CartItem{}).Where("customer_id = ?", customer.ID).Count(&cartCount)
	assert.Equal(t, 0, cartCount)

	got := reloadCustomer(t, database, customer.ID)
	assert.Equal(t, models.CONVERSATION_STATE_MENU, got.ConversationState)
	assert.Equal(t, 1, got.TotalOrders)
	assert.InDelta(t, 20.00, got.TotalSpent, 0.001)
	assert.Equal(t, models.LEAD_SCORE_ORDER_BONUS, got.LeadScore)
	assert.True(t, got.HasTag("repeat_buyer"))

	assert.Contains(t, sender.lastText(), order.OrderNumber)

	// Analytics side-channel saw the order.
	var stat models.TenantStat
	require.NoError(t, database.Where("tenant_id = ? AND day = ?", tenant.ID, models.StatDay(time.Now())).First(&stat).Error)
	assert.Equal(t, 1, stat.Orders)
	assert.InDelta(t, 20.00, stat.Revenue, 0.001)
}

func TestCheckoutCancelPreservesCart(t *testing.T) {
	eng, sender, _, database := newTestEngine(t)
	tenant := seedTenant(t, database, models.BUSINESS_TYPE_GENERIC)
	customer := seedCustomer(t, database, tenant, "5511977770005", "Bob", models.CONVERSATION_STATE_MENU)
	product := seedProduct(t, database, tenant, "Widget", 10.00, 0)

	require.NoError(t, eng.ProcessInbound(context.Background(), textIn(tenant, customer.Phone, fmt.Sprintf("ADD %d", product.ID))))
	require.NoError(t, eng.ProcessInbound(context.Background(), textIn(tenant, customer.Phone, "CHECKOUT")))
	require.NoError(t, eng.ProcessInbound(context.Background(), textIn(tenant, customer.Phone, "CANCEL")))

	got := reloadCustomer(t, database, customer.ID)
	assert.Equal(t, models.CONVERSATION_STATE_MENU, got.ConversationState)
	assert.Contains(t, sender.lastText(), "cart is saved")

	var cartCount, orderCount int
	database.Model(&models.CartItem{}).Where("customer_id = ?", customer.ID).Count(&cartCount)
	database.Model(&models.Order{}).Where("customer_id = ?", customer.ID).Count(&orderCount)
	assert.Equal(t, 1, cartCount)
	assert.Equal(t, 0, orderCount)
}

func TestCheckoutFreeTextBecomesOrderNote(t *testing.T) {
	eng, _, _, database := newTestEngine(t)
	tenant := seedTenant(t, database, models.BUSINESS_TYPE_GENERIC)
	customer := seedCustomer(t, database, tenant, "5511977770006", "Bob", models.CONVERSATION_STATE_MENU)
	product := seedProduct(t, database, tenant, "Widget", 10.00, 0)

	require.NoError(t, eng.ProcessInbound(context.Background(), textIn(tenant, customer.Phone, fmt.Sprintf("ADD %d", product.ID))))
	require.NoError(t, eng.ProcessInbound(context.Background(), textIn(tenant, customer.Phone, "CHECKOUT")))
	require.NoError(t, eng.ProcessInbound(context.Background(), textIn(tenant, customer.Phone, "no onions please")))

	got := reloadCustomer(t, database, customer.ID)
	assert.Equal(t, models.CONVERSATION_STATE_CHECKOUT, got.ConversationState)
	assert.Equal(t, "no onions please", got.Context()["order_note"])

	require.NoError(t, eng.ProcessInbound(context.Background(), textIn(tenant, customer.Phone, "CONFIRM")))

	var order models.Order
	require.NoError(t, database.Where("customer_id = ?", customer.ID).First(&order).Error)
	assert.Equal(t, "no onions please", order.Note)
}

func TestConfirmOnEmptiedCartCreatesNothing(t *testing.T) {
	eng, sender, _, database := newTestEngine(t)
	tenant := seedTenant(t, database, models.BUSINESS_TYPE_GENERIC)
	customer := seedCustomer(t, database, tenant, "5511977770007", "Bob", models.CONVERSATION_STATE_CHECKOUT)

	require.NoError(t, eng.ProcessInbound(context.Background(), textIn(tenant, customer.Phone, "CONFIRM")))

	var orderCount int
	database.Model(&models.Order{}).Where("customer_id = ?", customer.ID).Count(&orderCount)
	assert.Equal(t, 0, orderCount)
	assert.Equal(t, models.CONVERSATION_STATE_MENU, reloadCustomer(t, database, customer.ID).ConversationState)
	assert.Contains(t, sender.lastText(), "cart is empty")
}

func TestConcurrentConfirmsCreateOneOrder(t *testing.T) {
	eng, _, _, database := newTestEngine(t)
	tenant := seedTenant(t, database, models.BUSINESS_TYPE_GENERIC)
	customer := seedCustomer(t, database, tenant, "5511977770009", "Bob", models.CONVERSATION_STATE_MENU)
	product := seedProduct(t, database, tenant, "Widget", 10.00, 0)

	add := fmt.Sprintf("ADD %d", product.ID)
	require.NoError(t, eng.ProcessInbound(context.Background(), textIn(tenant, customer.Phone, add)))
	require.NoError(t, eng.ProcessInbound(context.Background(), textIn(tenant, customer.Phone, add)))
	require.NoError(t, eng.ProcessInbound(context.Background(), textIn(tenant, customer.Phone, "CHECKOUT")))

	// Two deliveries of the same confirm racing for one customer: the
	// per-customer lock serializes them, the loser finds the cart empty.
	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- eng.ProcessInbound(context.Background(), textIn(tenant, customer.Phone, "CONFIRM"))
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	var orderCount, cartCount int
	database.Model(&models.Order{}).Where("customer_id = ?", customer.ID).Count(&orderCount)
	database.Model(&models.CartItem{}).Where("customer_id = ?", customer.ID).Count(&cartCount)
	assert.Equal(t, 1, orderCount)
	assert.Equal(t, 0, cartCount)

	got := reloadCustomer(t, database, customer.ID)
	assert.Equal(t, 1, got.TotalOrders)
	assert.InDelta(t, 20.00, got.TotalSpent, 0.001)
	assert.Equal(t, models.CONVERSATION_STATE_MENU, got.ConversationState)
}

func TestOrderLookupCommands(t *testing.T) {
	eng, sender, _, database := newTestEngine(t)
	tenant := seedTenant(t, database, models.BUSINESS_TYPE_GENERIC)
	customer := seedCustomer(t, database, tenant, "5511977770008", "Bob", models.CONVERSATION_STATE_MENU)
	product := seedProduct(t, database, tenant, "Widget", 10.00, 0)

	require.NoError(t, eng.ProcessInbound(context.Background(), textIn(tenant, customer.Phone, fmt.Sprintf("ADD %d", product.ID))))
	require.NoError(t, eng.ProcessInbound(context.Background(), textIn(tenant, customer.Phone, "CHECKOUT")))
	require.NoError(t, eng.ProcessInbound(context.Background(), textIn(tenant, customer.Phone, "CONFIRM")))

	var order models.Order
	require.NoError(t, database.Where("customer_id = ?", customer.ID).First(&order).Error)

	require.NoError(t, eng.ProcessInbound(context.Background(), textIn(tenant, customer.Phone, "ORDERS")))
	assert.Contains(t, sender.lastText(), order.OrderNumber)

	require.NoError(t, eng.ProcessInbound(context.Background(), textIn(tenant, customer.Phone, "ORDER "+order.OrderNumber)))
	assert.Contains(t, sender.lastText(), "Widget x1")
	assert.Contains(t, sender.lastText(), "Total: USD 10.00")

	require.NoError(t, eng.ProcessInbound(context.Background(), textIn(tenant, customer.Phone, "ORDER NOPE-404")))
	assert.Contains(t, sender.lastText(), "couldn't find an order")
}
