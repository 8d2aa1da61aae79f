package engine

import (
	"context"
	"regexp"

	"botique/models"
)

var (
	confirmRe = regexp.MustCompile(`^(CONFIRM|YES|OK|PLACE ORDER)$`)
	cancelRe  = regexp.MustCompile(`^(CANCEL|NO|BACK)$`)
)

// startCheckout enters the checkout sub-flow. Empty carts never transition:
// the customer is redirected to browse instead.
func (e *Engine) startCheckout(ctx context.Context, tenant *models.Tenant, customer *models.Customer) error {
	var items []models.CartItem
	if err := e.db.Where("tenant_id = ? AND customer_id = ?", tenant.ID, customer.ID).
		Order("id asc").Find(&items).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		e.sendText(ctx, tenant, customer, "Your cart is empty. Browse our catalog and add something first!")
		return nil
	}

	if err := e.setState(customer, models.CONVERSATION_STATE_CHECKOUT); err != nil {
		return err
	}
	e.sendText(ctx, tenant, customer, cartSummary(tenant, items)+
		"\n\nReply CONFIRM to place your order, CANCEL to go back, or send a note for your order.")
	return nil
}

// handleCheckoutState interprets every message while in CHECKOUT: confirm,
// cancel, or free text treated as an order note.
func (e *Engine) handleCheckoutState(ctx context.Context, tenant *models.Tenant, customer *models.Customer, m Normalized) error {
	switch {
	case confirmRe.MatchString(m.Upper):
		return e.confirmOrder(ctx, tenant, customer)

	case cancelRe.MatchString(m.Upper):
		// Cart is preserved on cancel.
		if err := e.setState(customer, models.CONVERSATION_STATE_MENU); err != nil {
			return err
		}
		e.sendText(ctx, tenant, customer, "No problem, your cart is saved.\n\n"+mainMenuText(tenant))
		return nil

	default:
		if err := e.mergeContext(customer, map[string]string{"order_note": m.Text}); err != nil {
			return err
		}
		e.sendText(ctx, tenant, customer, "Noted! Reply CONFIRM to place your order or CANCEL to go back.")
		return nil
	}
}

// confirmOrder turns the cart into an Order in one transaction: snapshot
// items, bump customer totals, clear the cart and leave CHECKOUT. The cart
// is re-read on entry; confirms for the same customer are serialized by
// the per-customer lock, so a second racing confirm finds the cart already
// empty and creates nothing.
func (e *Engine) confirmOrder(ctx context.Context, tenant *models.Tenant, customer *models.Customer) error {
	var items []models.CartItem
	if err := e.db.Where("tenant_id = ? AND customer_id = ?", tenant.ID, customer.ID).
		Order("id asc").Find(&items).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		if err := e.setState(customer, models.CONVERSATION_STATE_MENU); err != nil {
			return err
		}
		e.sendText(ctx, tenant, customer, "Your cart is empty. Browse our catalog and add something first!")
		return nil
	}

	var subtotal float64
	for _, it := range items {
		subtotal += it.Subtotal()
	}

	order := models.Order{
		TenantID:    tenant.ID,
		CustomerID:  customer.ID,
		OrderNumber: models.NewOrderNumber(),
		Status:      models.ORDER_STATUS_PENDING,
		Subtotal:    subtotal,
		Total:       subtotal,
		Note:        customer.Context()["order_note"],
	}

	tx := e.db.Begin()
	if err := tx.Error; err != nil {
		return err
	}

	if err := tx.Create(&order).Error; err != nil {
		tx.Rollback()
		return err
	}
	for _, it := range items {
		oi := models.OrderItem{
			OrderID:     order.ID,
			ProductName: it.ProductName,
			UnitPrice:   it.UnitPrice,
			Quantity:    it.Quantity,
			Subtotal:    it.Subtotal(),
		}
		if err := tx.Create(&oi).Error; err != nil {
			tx.Rollback()
			return err
		}
	}

	updates := map[string]interface{}{
		"total_orders":       customer.TotalOrders + 1,
		"total_spent":        customer.TotalSpent + subtotal,
		"lead_score":         customer.LeadScore + models.LEAD_SCORE_ORDER_BONUS,
		"conversation_state": models.CONVERSATION_STATE_MENU,
	}
	if !customer.HasTag("repeat_buyer") {
		updates["tags"] = customer.WithTag("repeat_buyer")
	}
	if err := tx.Model(&models.Customer{}).Where("id = ?", customer.ID).Updates(updates).Error; err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Where("tenant_id = ? AND customer_id = ?", tenant.ID, customer.ID).
		Delete(&models.CartItem{}).Error; err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit().Error; err != nil {
		tx.Rollback()
		return err
	}

	customer.TotalOrders++
	customer.TotalSpent += subtotal
	customer.LeadScore += models.LEAD_SCORE_ORDER_BONUS
	customer.ConversationState = models.CONVERSATION_STATE_MENU

	e.countOrder(tenant.ID, subtotal)

	e.sendText(ctx, tenant, customer,
		"Thank you! Your order "+order.OrderNumber+" has been placed ("+formatPrice(tenant, subtotal)+"). "+
			"We'll keep you posted here.")
	return nil
}
