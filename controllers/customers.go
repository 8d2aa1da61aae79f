package controllers

import (
	"net/http"

	dbpkg "botique/db"
	"botique/models"

	"github.com/gin-gonic/gin"
)

// GET /api/customers
func GetCustomers(c *gin.Context) {
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
	if segment := c.Query("segment"); segment != "" {
		q = q.Where("segment = ?", segment)
	}

	var customers []models.Customer
	if err := q.Order("last_seen_at desc").Limit(200).Find(&customers).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	RespondSuccess(c, gin.H{"customers": customers})
}

// GET /api/customers/:id
func GetCustomerByID(c *gin.Context) {
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

	var customer models.Customer
	if err := db.First(&customer, id).Error; err != nil {
		RespondError(c, "customer not found", http.StatusNotFound)
		return
	}
	if customer.TenantID != tenant.ID {
		RespondError(c, "forbidden", http.StatusForbidden)
		return
	}
	RespondSuccess(c, gin.H{"customer": customer})
}

// PUT /api/customers/:id/block
// Blocking is a flag, never a delete: history and orders stay.
func BlockCustomer(c *gin.Context) {
	setCustomerBlocked(c, true)
}

// PUT /api/customers/:id/unblock
func UnblockCustomer(c *gin.Context) {
	setCustomerBlocked(c, false)
}

func setCustomerBlocked(c *gin.Context, blocked bool) {
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

	var customer models.Customer
	if err := db.First(&customer, id).Error; err != nil {
		RespondError(c, "customer not found", http.StatusNotFound)
		return
	}
	if customer.TenantID != tenant.ID {
		RespondError(c, "forbidden", http.StatusForbidden)
		return
	}

	if err := db.Model(&customer).Update("blocked", blocked).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	RespondSuccess(c, gin.H{"customer": customer})
}
