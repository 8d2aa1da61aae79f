package engine

import (
	"context"
	"time"

	"botique/models"
)

// routeCustomFlows evaluates the tenant's active AutoFlows in stored order
// and executes the first one with a matching trigger.
func (e *Engine) routeCustomFlows(ctx context.Context, tenant *models.Tenant, customer *models.Customer, m Normalized) (bool, error) {
	var flows []models.AutoFlow
	if err := e.db.Where("tenant_id = ? AND active = ?", tenant.ID, true).
		Order("position asc, id asc").Find(&flows).Error; err != nil {
		return false, err
	}

	for i := range flows {
		flow := &flows[i]
		if !flow.Matches(m.Text) {
			continue
		}

		if err := e.executeFlow(ctx, tenant, customer, flow); err != nil {
			return true, err
		}

		now := time.Now()
		if err := e.db.Model(&models.AutoFlow{}).Where("id = ?", flow.ID).Updates(map[string]interface{}{
			"trigger_count":     flow.TriggerCount + 1,
			"last_triggered_at": &now,
		}).Error; err != nil {
			e.log.WithError(err).WithField("flow", flow.ID).Warn("failed to bump flow counters")
		}
		return true, nil
	}
	return false, nil
}

// executeFlow runs the flow's action list. Only the first action executes;
// NextActionID chaining is stored but not evaluated yet, matching the
// documented behavior of flow action chains.
func (e *Engine) executeFlow(ctx context.Context, tenant *models.Tenant, customer *models.Customer, flow *models.AutoFlow) error {
	actions := flow.ActionList()
	if len(actions) == 0 {
		return nil
	}
	action := actions[0]

	switch action.Type {
	case models.FLOW_ACTION_SEND_TEXT:
		e.sendText(ctx, tenant, customer, action.Text)

	case models.FLOW_ACTION_SEND_IMAGE:
		e.sendImage(ctx, tenant, customer, action.MediaURL, action.Caption)

	case models.FLOW_ACTION_SEND_DOCUMENT:
		e.sendDocument(ctx, tenant, customer, action.MediaURL, action.Caption)

	case models.FLOW_ACTION_SEND_CATALOG:
		if err := e.sendCatalog(ctx, tenant, customer, action.Category); err != nil {
			return err
		}

	case models.FLOW_ACTION_ASSIGN_AGENT:
		if err := e.mergeContext(customer, map[string]string{"assigned_agent": formatID(action.AgentID)}); err != nil {
			return err
		}
		e.sendText(ctx, tenant, customer, "You've been connected to one of our agents. They'll reply here shortly.")

	case models.FLOW_ACTION_ADD_TAG:
		if action.Tag != "" && !customer.HasTag(action.Tag) {
			tagged := customer.WithTag(action.Tag)
			if err := e.db.Model(&models.Customer{}).Where("id = ?", customer.ID).
				Update("tags", tagged).Error; err != nil {
				return err
			}
			customer.Tags = tagged
		}

	default:
		e.log.WithField("type", action.Type).Warn("unknown flow action type, skipping")
	}

	if action.SetState != "" {
		return e.setState(customer, action.SetState)
	}
	return nil
}
