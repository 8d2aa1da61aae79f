package workers

import (
	"context"
	"time"

	"botique/engine"
	"botique/models"

	"github.com/jinzhu/gorm"
	"github.com/sirupsen/logrus"
)

// StartEventProcessor starts a loop that drains due pending inbound events
// into the engine. Claiming is an optimistic status update, so each event
// is dispatched at most once even when a poll overlaps a slow batch.
// Per-customer serialization lives in the engine and is in-process, so run
// a single instance of this worker.
func StartEventProcessor(db *gorm.DB, eng *engine.Engine) {
	go func() {
		ticker := time.NewTicker(1 * time.Second)
		defer ticker.Stop()

		for range ticker.C {
			processDueEvents(db, eng)
		}
	}()
}

func processDueEvents(db *gorm.DB, eng *engine.Engine) {
	now := time.Now()

	var events []models.InboundEvent
	if err := db.
		Where("status = ?", models.EVENT_STATUS_PENDING).
		Where("scheduled_at IS NOT NULL AND scheduled_at <= ?", now).
		Order("scheduled_at asc, id asc").
		Limit(50).
		Find(&events).Error; err != nil {
		logrus.WithError(err).Error("events worker: query error")
		return
	}

	for _, ev := range events {
		// lock otimista: só processa se conseguir mudar status
		res := db.Model(&models.InboundEvent{}).
			Where("id = ? AND status = ?", ev.ID, models.EVENT_STATUS_PENDING).
			Update("status", models.EVENT_STATUS_PROCESSING)
		if res.Error != nil || res.RowsAffected == 0 {
			continue
		}

		go handleEvent(db, eng, ev.ID)
	}
}

func handleEvent(db *gorm.DB, eng *engine.Engine, eventID int64) {
	var ev models.InboundEvent
	if err := db.First(&ev, eventID).Error; err != nil {
		return
	}
	if ev.Status != models.EVENT_STATUS_PROCESSING {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	err := eng.ProcessInbound(ctx, engine.Inbound{
		TenantID:         ev.TenantID,
		Phone:            ev.Phone,
		MessageID:        ev.MessageID,
		Type:             ev.Type,
		Text:             ev.Text,
		MediaURL:         ev.MediaURL,
		InteractiveID:    ev.InteractiveID,
		InteractiveTitle: ev.InteractiveTitle,
	})

	t := time.Now()
	updates := map[string]interface{}{
		"status":       models.EVENT_STATUS_DONE,
		"processed_at": &t,
	}
	if err != nil {
		logrus.WithError(err).WithField("event", ev.ID).Error("events worker: processing failed")
		updates["status"] = models.EVENT_STATUS_FAILED
		updates["error"] = err.Error()
	}
	if err := db.Model(&models.InboundEvent{}).Where("id = ?", ev.ID).Updates(updates).Error; err != nil {
		logrus.WithError(err).WithField("event", ev.ID).Error("events worker: status update failed")
	}
}
