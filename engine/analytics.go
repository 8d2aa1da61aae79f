package engine

import (
	"time"

	"botique/models"

	"github.com/jinzhu/gorm"
)

// Analytics side-channel: daily per-tenant counters. Every increment is
// best-effort; failures are logged and swallowed so they can never affect
// the reply the customer gets.

func (e *Engine) countMessageIn(tenantID int64) {
	e.bumpStat(tenantID, map[string]interface{}{"messages_in": gorm.Expr("messages_in + 1")})
}

func (e *Engine) countMessageOut(tenantID int64) {
	e.bumpStat(tenantID, map[string]interface{}{"messages_out": gorm.Expr("messages_out + 1")})
}

func (e *Engine) countOrder(tenantID int64, revenue float64) {
	e.bumpStat(tenantID, map[string]interface{}{
		"orders":  gorm.Expr("orders + 1"),
		"revenue": gorm.Expr("revenue + ?", revenue),
	})
}

func (e *Engine) bumpStat(tenantID int64, updates map[string]interface{}) {
	day := models.StatDay(time.Now())

	res := e.db.Model(&models.TenantStat{}).
		Where("tenant_id = ? AND day = ?", tenantID, day).Updates(updates)
	if res.Error != nil {
		e.log.WithError(res.Error).Debug("stat increment failed")
		return
	}
	if res.RowsAffected > 0 {
		return
	}

	// First event of the day; create the row, then retry the increment so
	// a concurrent creator doesn't lose the count.
	if err := e.db.Create(&models.TenantStat{TenantID: tenantID, Day: day}).Error; err != nil {
		// Likely a unique-index race with another creator; fall through.
		e.log.WithError(err).Debug("stat row create raced")
	}
	if err := e.db.Model(&models.TenantStat{}).
		Where("tenant_id = ? AND day = ?", tenantID, day).Updates(updates).Error; err != nil {
		e.log.WithError(err).Debug("stat increment failed")
	}
}
