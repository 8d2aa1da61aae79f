package engine

import (
	"context"
	"strings"

	"botique/models"
)

// HandoffSentinel is the token the AI collaborator embeds when it wants the
// conversation escalated. The router strips it from the reply before
// sending.
const HandoffSentinel = "[HANDOFF]"

// routeAIFallback is stage 4. It only runs when every earlier stage
// declined. Any AI failure degrades to the main menu; the inbound handler
// never blocks past the configured timeout.
func (e *Engine) routeAIFallback(ctx context.Context, tenant *models.Tenant, customer *models.Customer, m Normalized) error {
	if !tenant.AIEnabled || e.ai == nil {
		e.sendText(ctx, tenant, customer, mainMenuText(tenant))
		return nil
	}

	history, err := e.recentHistory(tenant.ID, customer.ID, 10)
	if err != nil {
		e.log.WithError(err).Warn("failed to load AI history, continuing without it")
	}

	aiCtx, cancel := context.WithTimeout(ctx, e.aiTimeout)
	defer cancel()

	reply, err := e.ai.Generate(aiCtx, tenant, customer, history, m.Text)
	if err != nil {
		e.log.WithError(err).WithField("tenant", tenant.ID).Warn("AI fallback failed, sending menu")
		e.sendText(ctx, tenant, customer, mainMenuText(tenant))
		return nil
	}

	text := reply.Text
	handoff := reply.RequestsHandoff
	if strings.Contains(text, HandoffSentinel) {
		text = strings.TrimSpace(strings.ReplaceAll(text, HandoffSentinel, ""))
		handoff = true
	}

	if text != "" {
		e.sendText(ctx, tenant, customer, text)
	}
	if handoff {
		e.sendText(ctx, tenant, customer, "Connecting you to a human - someone from our team will reply here shortly.")
	}
	return nil
}

func (e *Engine) recentHistory(tenantID, customerID int64, limit int) ([]models.Message, error) {
	var history []models.Message
	if err := e.db.Where("tenant_id = ? AND customer_id = ?", tenantID, customerID).
		Order("id desc").Limit(limit + 1).Find(&history).Error; err != nil {
		return nil, err
	}
	// The newest row is the inbound message being answered (logged before
	// dispatch); the prompt carries it separately, so keep only what came
	// before it.
	if len(history) > 0 {
		history = history[1:]
	}
	// Oldest first for the prompt.
	for i, j := 0, len(history)-1; i < j; i, j = i+1, j-1 {
		history[i], history[j] = history[j], history[i]
	}
	return history, nil
}
