package engine

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"botique/models"
)

// businessRule is one built-in responder: a whole-message matcher plus a
// handler. Rules are evaluated in order; the first match wins.
type businessRule struct {
	match   *regexp.Regexp
	respond func(e *Engine, ctx context.Context, tenant *models.Tenant, customer *models.Customer, m Normalized) error
}

// businessFlows is the per-business-type dispatch table. The tenant's
// declared industry selects one ordered rule list; generic is the fallback
// pack. Keeping it a single table makes the set reviewable in one place.
var businessFlows = map[models.BusinessType][]businessRule{
	models.BUSINESS_TYPE_HOTEL: {
		{regexp.MustCompile(`ROOMS?|AVAILABILITY`), catalogResponder("room", models.CONVERSATION_STATE_BROWSING_CATALOG)},
		{regexp.MustCompile(`BOOK|RESERVE|STAY`), bookingResponder("When would you like to check in?", models.CONVERSATION_STATE_BOOKING_CHECKIN)},
	},
	models.BUSINESS_TYPE_RESTAURANT: {
		{regexp.MustCompile(`CATALOG|FOOD|ORDER|EAT|HUNGRY`), catalogResponder("", models.CONVERSATION_STATE_BROWSING_CATALOG)},
		{regexp.MustCompile(`TABLE|RESERVE|RESERVATION`), bookingResponder("For what date and time should we reserve your table?", models.CONVERSATION_STATE_BOOKING_DATE)},
	},
	models.BUSINESS_TYPE_GROCERY: {
		{regexp.MustCompile(`CATALOG|PRODUCTS?|SHOP|BUY`), catalogResponder("", models.CONVERSATION_STATE_BROWSING_CATALOG)},
		{regexp.MustCompile(`DELIVERY|SHIPPING`), textResponder("We deliver daily. Add items to your cart and type CHECKOUT when you're ready.")},
	},
	models.BUSINESS_TYPE_REAL_ESTATE: {
		{regexp.MustCompile(`LISTINGS?|PROPERTY|PROPERTIES|RENT|SALE`), catalogResponder("", models.CONVERSATION_STATE_BROWSING_CATALOG)},
		{regexp.MustCompile(`VISIT|VIEWING|TOUR`), bookingResponder("When would you like to schedule a visit?", models.CONVERSATION_STATE_BOOKING_DATE)},
	},
	models.BUSINESS_TYPE_CLINIC: {
		{regexp.MustCompile(`SERVICES?|TREATMENTS?`), catalogResponder("", models.CONVERSATION_STATE_BROWSING_CATALOG)},
		{regexp.MustCompile(`APPOINTMENT|DOCTOR|CONSULT`), bookingResponder("When would you like to come in?", models.CONVERSATION_STATE_BOOKING_DATE)},
	},
	models.BUSINESS_TYPE_SALON: {
		{regexp.MustCompile(`SERVICES?|PRICES?|TREATMENTS?`), catalogResponder("", models.CONVERSATION_STATE_BROWSING_CATALOG)},
		{regexp.MustCompile(`APPOINTMENT|BOOK`), bookingResponder("When would you like to book your appointment?", models.CONVERSATION_STATE_BOOKING_DATE)},
	},
	models.BUSINESS_TYPE_TRAVEL: {
		{regexp.MustCompile(`PACKAGES?|TRIPS?|TOURS?|DESTINATIONS?`), catalogResponder("", models.CONVERSATION_STATE_BROWSING_CATALOG)},
		{regexp.MustCompile(`BOOK|RESERVE`), bookingResponder("Which dates are you planning to travel?", models.CONVERSATION_STATE_BOOKING_DATE)},
	},
	models.BUSINESS_TYPE_RECRUITMENT: {
		{regexp.MustCompile(`JOBS?|VACANC|POSITIONS?|OPENINGS?`), catalogResponder("", models.CONVERSATION_STATE_BROWSING_CATALOG)},
		{regexp.MustCompile(`APPLY|CV|RESUME`), textResponder("Please send your CV as a document here and tell us which position you're applying for.")},
	},
	models.BUSINESS_TYPE_GENERIC: {
		{regexp.MustCompile(`CATALOG|PRODUCTS?|SERVICES?`), catalogResponder("", models.CONVERSATION_STATE_BROWSING_CATALOG)},
	},
}

// routeBusinessFlows tries the tenant's built-in rule pack.
func (e *Engine) routeBusinessFlows(ctx context.Context, tenant *models.Tenant, customer *models.Customer, m Normalized) (bool, error) {
	rules, ok := businessFlows[tenant.BusinessType]
	if !ok {
		rules = businessFlows[models.BUSINESS_TYPE_GENERIC]
	}
	for _, rule := range rules {
		if !rule.match.MatchString(m.Upper) {
			continue
		}
		return true, rule.respond(e, ctx, tenant, customer, m)
	}
	return false, nil
}

func catalogResponder(category string, state string) func(*Engine, context.Context, *models.Tenant, *models.Customer, Normalized) error {
	return func(e *Engine, ctx context.Context, tenant *models.Tenant, customer *models.Customer, _ Normalized) error {
		if err := e.sendCatalog(ctx, tenant, customer, category); err != nil {
			return err
		}
		if state != "" && customer.ConversationState != state {
			return e.setState(customer, state)
		}
		return nil
	}
}

func bookingResponder(prompt string, state string) func(*Engine, context.Context, *models.Tenant, *models.Customer, Normalized) error {
	return func(e *Engine, ctx context.Context, tenant *models.Tenant, customer *models.Customer, _ Normalized) error {
		if err := e.setState(customer, state); err != nil {
			return err
		}
		e.sendText(ctx, tenant, customer, prompt)
		return nil
	}
}

func textResponder(text string) func(*Engine, context.Context, *models.Tenant, *models.Customer, Normalized) error {
	return func(e *Engine, ctx context.Context, tenant *models.Tenant, customer *models.Customer, _ Normalized) error {
		e.sendText(ctx, tenant, customer, text)
		return nil
	}
}

// sendCatalog lists the tenant's active products (optionally filtered by
// category) as an interactive list. Replies come back as interactive ids
// of the form "product:<id>", which the command stage turns into cart
// additions.
func (e *Engine) sendCatalog(ctx context.Context, tenant *models.Tenant, customer *models.Customer, category string) error {
	q := e.db.Where("tenant_id = ? AND active = ?", tenant.ID, true)
	if category != "" {
		q = q.Where("category = ?", category)
	}
	var products []models.Product
	if err := q.Order("id asc").Limit(10).Find(&products).Error; err != nil {
		return err
	}

	if len(products) == 0 {
		e.sendText(ctx, tenant, customer, "Nothing available right now. Please check back soon!")
		return nil
	}

	rows := make([]InteractiveRow, 0, len(products))
	for _, p := range products {
		rows = append(rows, InteractiveRow{
			ID:          "product:" + strconv.FormatInt(p.ID, 10),
			Title:       p.Name,
			Description: formatPrice(tenant, p.EffectivePrice()),
		})
	}
	e.sendInteractive(ctx, tenant, customer, "Here's what we have. Tap an item to add it to your cart:", rows)
	return nil
}

func formatPrice(tenant *models.Tenant, v float64) string {
	cur := tenant.Currency
	if cur == "" {
		cur = "USD"
	}
	return fmt.Sprintf("%s %.2f", cur, v)
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// cartSummary renders the current cart lines with a total.
func cartSummary(tenant *models.Tenant, items []models.CartItem) string {
	var b strings.Builder
	var total float64
	b.WriteString("Your cart:\n")
	for _, it := range items {
		fmt.Fprintf(&b, "- %s x%d = %s\n", it.ProductName, it.Quantity, formatPrice(tenant, it.Subtotal()))
		total += it.Subtotal()
	}
	fmt.Fprintf(&b, "Total: %s", formatPrice(tenant, total))
	return b.String()
}
