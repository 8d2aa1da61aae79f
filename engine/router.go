package engine

import (
	"context"

	"botique/models"
)

// route is the flow router: four responder stages in strict ascending
// priority, first success wins. A stage that reports handled short-circuits
// everything below it, even if its own send failed.
func (e *Engine) route(ctx context.Context, tenant *models.Tenant, customer *models.Customer, m Normalized) error {
	// 1. Custom tenant AutoFlows.
	if handled, err := e.routeCustomFlows(ctx, tenant, customer, m); handled || err != nil {
		return err
	}

	// 2. Built-in business-type flows.
	if handled, err := e.routeBusinessFlows(ctx, tenant, customer, m); handled || err != nil {
		return err
	}

	// 3. Global keyword commands.
	if handled, err := e.routeGlobalCommands(ctx, tenant, customer, m); handled || err != nil {
		return err
	}

	// 4. AI fallback, or the main menu when AI is disabled.
	return e.routeAIFallback(ctx, tenant, customer, m)
}
