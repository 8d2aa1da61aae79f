package controllers

import (
	"botique/models"

	"github.com/gin-gonic/gin"
)

const tenantKey = "tenant"

func RespondError(c *gin.Context, msg string, code int) {
	c.JSON(code, gin.H{"error": msg})
}

func RespondSuccess(c *gin.Context, payload any) {
	c.JSON(200, payload)
}

// SetTenantLogged stores the authenticated tenant for downstream handlers.
func SetTenantLogged(c *gin.Context, tenant *models.Tenant) {
	c.Set(tenantKey, tenant)
}

func GetTenantLogged(c *gin.Context) (*models.Tenant, bool) {
	v, ok := c.Get(tenantKey)
	if !ok {
		return nil, false
	}
	tenant, ok := v.(*models.Tenant)
	return tenant, ok
}
