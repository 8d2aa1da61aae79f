package engine

import (
	"context"
	"regexp"
	"strings"
	"time"

	"botique/models"
)

var (
	menuRe     = regexp.MustCompile(`^(MENU|MAIN MENU|HI|HELLO|HEY|HOME|OLA|HOLA)$`)
	agentRe    = regexp.MustCompile(`^(AGENT|HUMAN|ATTENDANT|TALK TO (AN? )?AGENT)$`)
	checkoutRe = regexp.MustCompile(`^(CHECKOUT|PAY|PLACE ORDER)$`)

	optOutRe = regexp.MustCompile(`^(STOP|UNSUBSCRIBE|OPT ?OUT)$`)
	optInRe  = regexp.MustCompile(`^(START|SUBSCRIBE|OPT ?IN)$`)
)

// dispatch is the state-machine entry: transition precedence is evaluated
// top to bottom and the first matching stage wins.
func (e *Engine) dispatch(ctx context.Context, tenant *models.Tenant, customer *models.Customer, created bool, m Normalized) error {
	// 1. Global-state overrides: these states capture every message
	// regardless of content.
	switch customer.ConversationState {
	case models.CONVERSATION_STATE_CHECKOUT:
		return e.handleCheckoutState(ctx, tenant, customer, m)
	case models.CONVERSATION_STATE_BOOKING_CHECKIN:
		return e.handleBookingCheckin(ctx, tenant, customer, m)
	case models.CONVERSATION_STATE_BOOKING_DATE:
		return e.handleBookingDate(ctx, tenant, customer, m)
	}

	// 2. New or unnamed customers go through registration before their
	// message is interpreted.
	if created || (customer.Name == "" && customer.ConversationState != models.CONVERSATION_STATE_REGISTERING) {
		if err := e.setState(customer, models.CONVERSATION_STATE_REGISTERING); err != nil {
			return err
		}
		e.sendText(ctx, tenant, customer, "Hi! Before we start, what's your name?")
		return nil
	}

	// 3. Registration: the message is the customer's name.
	if customer.ConversationState == models.CONVERSATION_STATE_REGISTERING {
		return e.handleRegistration(ctx, tenant, customer, m)
	}

	// 4. Digit shortcut substitution, once, before any routing.
	m = applyMenuShortcut(tenant, m)

	// 5. Global session commands.
	if handled, err := e.handleSessionCommand(ctx, tenant, customer, m); handled || err != nil {
		return err
	}

	// 6. Flow router.
	return e.route(ctx, tenant, customer, m)
}

// handleRegistration stores the customer's name and moves them to MENU.
// Too-short names re-prompt without a state change.
func (e *Engine) handleRegistration(ctx context.Context, tenant *models.Tenant, customer *models.Customer, m Normalized) error {
	name := strings.TrimSpace(m.Text)
	if len(name) < 2 {
		e.sendText(ctx, tenant, customer, "That name looks too short. What should we call you?")
		return nil
	}

	// Keep at most the first 4 words.
	parts := strings.Fields(name)
	if len(parts) > 4 {
		parts = parts[:4]
	}
	name = strings.Join(parts, " ")

	updates := map[string]interface{}{
		"name":       name,
		"lead_score": models.LEAD_SCORE_ONBOARDED,
	}
	if !customer.HasTag("new") {
		updates["tags"] = customer.WithTag("new")
	}
	if err := e.db.Model(&models.Customer{}).Where("id = ?", customer.ID).Updates(updates).Error; err != nil {
		return err
	}
	customer.Name = name

	if err := e.setState(customer, models.CONVERSATION_STATE_MENU); err != nil {
		return err
	}
	e.sendText(ctx, tenant, customer, "Thanks, "+name+"!\n\n"+mainMenuText(tenant))
	return nil
}

// handleSessionCommand handles the tenant-independent session tokens that
// sit above the flow router: menu reset, human handoff and checkout entry.
func (e *Engine) handleSessionCommand(ctx context.Context, tenant *models.Tenant, customer *models.Customer, m Normalized) (bool, error) {
	switch {
	case menuRe.MatchString(m.Upper):
		if err := e.setState(customer, models.CONVERSATION_STATE_MENU); err != nil {
			return true, err
		}
		e.sendText(ctx, tenant, customer, mainMenuText(tenant))
		return true, nil

	case agentRe.MatchString(m.Upper):
		// Handoff: contact info only, no state change.
		e.sendText(ctx, tenant, customer, contactText(tenant))
		return true, nil

	case checkoutRe.MatchString(m.Upper):
		return true, e.startCheckout(ctx, tenant, customer)
	}
	return false, nil
}

// handleBookingCheckin treats the message as the check-in answer and asks
// for the booking date next.
func (e *Engine) handleBookingCheckin(ctx context.Context, tenant *models.Tenant, customer *models.Customer, m Normalized) error {
	if err := e.mergeContext(customer, map[string]string{"booking_checkin": m.Text}); err != nil {
		return err
	}
	if err := e.setState(customer, models.CONVERSATION_STATE_BOOKING_DATE); err != nil {
		return err
	}
	e.sendText(ctx, tenant, customer, "Got it. And for which date?")
	return nil
}

// handleBookingDate stores the booking answer, acknowledges and resets to
// the menu. A human follows up on the recorded request.
func (e *Engine) handleBookingDate(ctx context.Context, tenant *models.Tenant, customer *models.Customer, m Normalized) error {
	if err := e.mergeContext(customer, map[string]string{"booking_date": m.Text}); err != nil {
		return err
	}
	if err := e.setState(customer, models.CONVERSATION_STATE_MENU); err != nil {
		return err
	}
	e.sendText(ctx, tenant, customer, "Thanks! We've noted your request and will confirm shortly.\n\n"+mainMenuText(tenant))
	return nil
}

func (e *Engine) optOut(ctx context.Context, tenant *models.Tenant, customer *models.Customer) error {
	now := time.Now()
	if err := e.db.Model(&models.Customer{}).Where("id = ?", customer.ID).Updates(map[string]interface{}{
		"opt_in":     false,
		"opt_out_at": &now,
	}).Error; err != nil {
		return err
	}
	customer.OptIn = false
	customer.OptOutAt = &now
	e.sendText(ctx, tenant, customer, "You won't receive further messages. Send START to opt back in.")
	return nil
}

func (e *Engine) optIn(ctx context.Context, tenant *models.Tenant, customer *models.Customer) error {
	if err := e.db.Model(&models.Customer{}).Where("id = ?", customer.ID).Updates(map[string]interface{}{
		"opt_in":     true,
		"opt_out_at": nil,
	}).Error; err != nil {
		return err
	}
	customer.OptIn = true
	customer.OptOutAt = nil
	e.sendText(ctx, tenant, customer, "Welcome back! You're subscribed again.\n\n"+mainMenuText(tenant))
	return nil
}

func contactText(tenant *models.Tenant) string {
	var b strings.Builder
	b.WriteString("You can reach us directly:\n")
	if tenant.ContactPhone != "" {
		b.WriteString("Phone: " + tenant.ContactPhone + "\n")
	}
	if tenant.ContactEmail != "" {
		b.WriteString("Email: " + tenant.ContactEmail + "\n")
	}
	if tenant.ContactPhone == "" && tenant.ContactEmail == "" {
		b.WriteString("An agent will get back to you here shortly.\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
