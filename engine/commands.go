package engine

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"botique/models"

	"github.com/jinzhu/gorm"
)

var (
	ordersRe      = regexp.MustCompile(`^(ORDERS|MY ORDERS|ORDER STATUS)$`)
	orderLookupRe = regexp.MustCompile(`^(?:ORDER|STATUS|TRACK) +([A-Z0-9-]+)$`)
	cartRe        = regexp.MustCompile(`^(CART|MY CART|VIEW CART)$`)
	clearCartRe   = regexp.MustCompile(`^(CLEAR CART|EMPTY CART)$`)
	offersRe      = regexp.MustCompile(`^(OFFERS?|DEALS?|PROMOS?|PROMOTIONS?|DISCOUNTS?)$`)
	locationRe    = regexp.MustCompile(`^(LOCATION|ADDRESS|WHERE ARE YOU)$`)
	hoursRe       = regexp.MustCompile(`^(HOURS|OPENING HOURS|TIMINGS?|WHEN ARE YOU OPEN)$`)
	contactRe     = regexp.MustCompile(`^(CONTACT|PHONE|EMAIL)$`)
	addItemRe     = regexp.MustCompile(`^(?:PRODUCT:|ADD )(\d+)$`)
)

// routeGlobalCommands is stage 3: tenant-independent keyword commands.
func (e *Engine) routeGlobalCommands(ctx context.Context, tenant *models.Tenant, customer *models.Customer, m Normalized) (bool, error) {
	switch {
	case optOutRe.MatchString(m.Upper):
		return true, e.optOut(ctx, tenant, customer)

	case optInRe.MatchString(m.Upper):
		return true, e.optIn(ctx, tenant, customer)

	case ordersRe.MatchString(m.Upper):
		return true, e.listOrders(ctx, tenant, customer)

	case orderLookupRe.MatchString(m.Upper):
		ref := orderLookupRe.FindStringSubmatch(m.Upper)[1]
		return true, e.lookupOrder(ctx, tenant, customer, ref)

	case addItemRe.MatchString(m.Upper):
		id, _ := strconv.ParseInt(addItemRe.FindStringSubmatch(m.Upper)[1], 10, 64)
		return true, e.addToCart(ctx, tenant, customer, id)

	case cartRe.MatchString(m.Upper):
		return true, e.showCart(ctx, tenant, customer)

	case clearCartRe.MatchString(m.Upper):
		return true, e.clearCart(ctx, tenant, customer)

	case offersRe.MatchString(m.Upper):
		return true, e.listOffers(ctx, tenant, customer)

	case locationRe.MatchString(m.Upper):
		return true, e.profileReply(ctx, tenant, customer, tenant.Location, "We haven't published our address yet.")

	case hoursRe.MatchString(m.Upper):
		return true, e.profileReply(ctx, tenant, customer, tenant.Hours, "We haven't published our opening hours yet.")

	case contactRe.MatchString(m.Upper):
		e.sendText(ctx, tenant, customer, contactText(tenant))
		return true, nil
	}
	return false, nil
}

func (e *Engine) listOrders(ctx context.Context, tenant *models.Tenant, customer *models.Customer) error {
	var orders []models.Order
	if err := e.db.Where("tenant_id = ? AND customer_id = ?", tenant.ID, customer.ID).
		Order("id desc").Limit(5).Find(&orders).Error; err != nil {
		return err
	}
	if len(orders) == 0 {
		e.sendText(ctx, tenant, customer, "You have no orders yet.")
		return nil
	}

	var b strings.Builder
	b.WriteString("Your recent orders:\n")
	for _, o := range orders {
		fmt.Fprintf(&b, "- %s: %s (%s)\n", o.OrderNumber, o.Status, formatPrice(tenant, o.Total))
	}
	e.sendText(ctx, tenant, customer, strings.TrimRight(b.String(), "\n"))
	return nil
}

// lookupOrder finds a single order by (fuzzy) order number.
func (e *Engine) lookupOrder(ctx context.Context, tenant *models.Tenant, customer *models.Customer, ref string) error {
	var order models.Order
	err := e.db.Where("tenant_id = ? AND customer_id = ? AND order_number LIKE ?",
		tenant.ID, customer.ID, "%"+ref+"%").Order("id desc").First(&order).Error
	if gorm.IsRecordNotFoundError(err) {
		e.sendText(ctx, tenant, customer, "We couldn't find an order matching \""+ref+"\".")
		return nil
	}
	if err != nil {
		return err
	}

	var items []models.OrderItem
	if err := e.db.Where("order_id = ?", order.ID).Find(&items).Error; err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Order %s - %s\n", order.OrderNumber, order.Status)
	for _, it := range items {
		fmt.Fprintf(&b, "- %s x%d = %s\n", it.ProductName, it.Quantity, formatPrice(tenant, it.Subtotal))
	}
	fmt.Fprintf(&b, "Total: %s", formatPrice(tenant, order.Total))
	e.sendText(ctx, tenant, customer, b.String())
	return nil
}

// addToCart creates or increments the cart line for the product, keeping a
// name/price snapshot from add time.
func (e *Engine) addToCart(ctx context.Context, tenant *models.Tenant, customer *models.Customer, productID int64) error {
	var product models.Product
	err := e.db.Where("tenant_id = ? AND id = ? AND active = ?", tenant.ID, productID, true).First(&product).Error
	if gorm.IsRecordNotFoundError(err) {
		e.sendText(ctx, tenant, customer, "That item isn't available anymore.")
		return nil
	}
	if err != nil {
		return err
	}

	var item models.CartItem
	err = e.db.Where("tenant_id = ? AND customer_id = ? AND product_id = ?",
		tenant.ID, customer.ID, product.ID).First(&item).Error
	switch {
	case gorm.IsRecordNotFoundError(err):
		item = models.CartItem{
			TenantID:    tenant.ID,
			CustomerID:  customer.ID,
			ProductID:   product.ID,
			ProductName: product.Name,
			UnitPrice:   product.EffectivePrice(),
			Quantity:    1,
		}
		if err := e.db.Create(&item).Error; err != nil {
			return err
		}
	case err != nil:
		return err
	default:
		if err := e.db.Model(&models.CartItem{}).Where("id = ?", item.ID).
			Update("quantity", item.Quantity+1).Error; err != nil {
			return err
		}
	}

	e.sendText(ctx, tenant, customer, fmt.Sprintf(
		"Added %s to your cart. Type CART to review or CHECKOUT to place your order.", product.Name))
	return nil
}

func (e *Engine) showCart(ctx context.Context, tenant *models.Tenant, customer *models.Customer) error {
	var items []models.CartItem
	if err := e.db.Where("tenant_id = ? AND customer_id = ?", tenant.ID, customer.ID).
		Order("id asc").Find(&items).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		e.sendText(ctx, tenant, customer, "Your cart is empty. Browse our catalog to add items!")
		return nil
	}
	e.sendText(ctx, tenant, customer, cartSummary(tenant, items)+"\n\nType CHECKOUT when you're ready.")
	return nil
}

func (e *Engine) clearCart(ctx context.Context, tenant *models.Tenant, customer *models.Customer) error {
	if err := e.db.Where("tenant_id = ? AND customer_id = ?", tenant.ID, customer.ID).
		Delete(&models.CartItem{}).Error; err != nil {
		return err
	}
	e.sendText(ctx, tenant, customer, "Your cart has been cleared.")
	return nil
}

// listOffers shows active products carrying a discount.
func (e *Engine) listOffers(ctx context.Context, tenant *models.Tenant, customer *models.Customer) error {
	var products []models.Product
	if err := e.db.Where("tenant_id = ? AND active = ? AND discount_percent > 0", tenant.ID, true).
		Order("discount_percent desc").Limit(10).Find(&products).Error; err != nil {
		return err
	}
	if len(products) == 0 {
		e.sendText(ctx, tenant, customer, "No active offers right now. Check back soon!")
		return nil
	}

	var b strings.Builder
	b.WriteString("Today's offers:\n")
	for _, p := range products {
		fmt.Fprintf(&b, "- %s: %s (%.0f%% off)\n", p.Name, formatPrice(tenant, p.EffectivePrice()), p.DiscountPercent)
	}
	e.sendText(ctx, tenant, customer, strings.TrimRight(b.String(), "\n"))
	return nil
}

func (e *Engine) profileReply(ctx context.Context, tenant *models.Tenant, customer *models.Customer, value, missing string) error {
	if strings.TrimSpace(value) == "" {
		e.sendText(ctx, tenant, customer, missing)
		return nil
	}
	e.sendText(ctx, tenant, customer, value)
	return nil
}
