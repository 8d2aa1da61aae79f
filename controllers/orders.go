package controllers

import (
	"net/http"

	dbpkg "botique/db"
	"botique/models"

	"github.com/gin-gonic/gin"
)

var orderStatusFlow = map[string][]string{
	models.ORDER_STATUS_PENDING:   {models.ORDER_STATUS_CONFIRMED, models.ORDER_STATUS_CANCELLED},
	models.ORDER_STATUS_CONFIRMED: {models.ORDER_STATUS_SHIPPED, models.ORDER_STATUS_CANCELLED},
	models.ORDER_STATUS_SHIPPED:   {models.ORDER_STATUS_COMPLETED},
}

// GET /api/orders
func GetOrders(c *gin.Context) {
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

	q := db.Where("tenant_id = ?", tenant.ID)
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}

	var orders []models.Order
	if err := q.Order("id desc").Limit(100).Find(&orders).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	RespondSuccess(c, gin.H{"orders": orders})
}

// GET /api/orders/:id
func GetOrderByID(c *gin.Context) {
	tenant, ok := GetTenantLogged(c)
	if !ok {
		RespondError(c, "unauthorized", http.StatusUnauthorized)
		return
	}
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "db not configured in context", http.StatusInternalServerError)
		return
	}

	var order models.Order
	if err := db.First(&order, id).Error; err != nil {
		RespondError(c, "order not found", http.StatusNotFound)
		return
	}
	if order.TenantID != tenant.ID {
		RespondError(c, "forbidden", http.StatusForbidden)
		return
	}
	if err := db.Where("order_id = ?", order.ID).Find(&order.Items).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	RespondSuccess(c, gin.H{"order": order})
}

// PUT /api/orders/:id/status
// Moves an order along pending -> confirmed -> shipped -> completed, with
// cancellation allowed until shipment.
func UpdateOrderStatus(c *gin.Context) {
	tenant, ok := GetTenantLogged(c)
	if !ok {
		RespondError(c, "unauthorized", http.StatusUnauthorized)
		return
	}
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "db not configured in context", http.StatusInternalServerError)
		return
	}

	var order models.Order
	if err := db.First(&order, id).Error; err != nil {
		RespondError(c, "order not found", http.StatusNotFound)
		return
	}
	if order.TenantID != tenant.ID {
		RespondError(c, "forbidden", http.StatusForbidden)
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	allowed := false
	for _, next := range orderStatusFlow[order.Status] {
		if next == req.Status {
			allowed = true
			break
		}
	}
	if !allowed {
		RespondError(c, "cannot move order from "+order.Status+" to "+req.Status, http.StatusBadRequest)
		return
	}

	if err := db.Model(&order).Update("status", req.Status).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	RespondSuccess(c, gin.H{"order": order})
}
