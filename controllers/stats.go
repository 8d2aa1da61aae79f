package controllers

import (
	"net/http"
	"strconv"
	"time"

	dbpkg "botique/db"
	"botique/models"

	"github.com/gin-gonic/gin"
)

// GET /api/stats?days=7
// Returns the daily counter rows for the window plus aggregated totals.
func GetStats(c *gin.Context) {
	tenant, ok := GetTenantLogged(c)
	if !ok {
		RespondError(c, "unauthorized", http.StatusUnauthorized)
		return
	}
	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "db not configured in context", http.StatusInternalServerError)
		return
	}

	days := 7
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 365 {
			RespondError(c, "days must be between 1 and 365", http.StatusBadRequest)
			return
		}
		days = parsed
	}
	since := models.StatDay(time.Now().AddDate(0, 0, -(days - 1)))

	var stats []models.TenantStat
	if err := db.Where("tenant_id = ? AND day >= ?", tenant.ID, since).
		Order("day asc").Find(&stats).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	var in, out, orders int
	var revenue float64
	for _, s := range stats {
		in += s.MessagesIn
		out += s.MessagesOut
		orders += s.Orders
		revenue += s.Revenue
	}
	totals := gin.H{
		"messages_in":  in,
		"messages_out": out,
		"orders":       orders,
		"revenue":      revenue,
	}

	var customers int
	db.Model(&models.Customer{}).Where("tenant_id = ?", tenant.ID).Count(&customers)

	RespondSuccess(c, gin.H{
		"days":      stats,
		"totals":    totals,
		"customers": customers,
	})
}
