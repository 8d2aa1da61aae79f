package controllers

import (
	"net/http"
	"strings"

	dbpkg "botique/db"
	"botique/models"

	"github.com/gin-gonic/gin"
)

// AuthRequired validates the Bearer API token and loads the tenant from DB
// into context. Dashboard tokens are per-tenant opaque strings, not JWTs.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if !strings.HasPrefix(strings.ToLower(h), "bearer ") {
			RespondError(c, "unauthorized", http.StatusUnauthorized)
			c.Abort()
			return
		}
		token := strings.TrimSpace(h[len("Bearer "):])
		if token == "" {
			RespondError(c, "unauthorized", http.StatusUnauthorized)
			c.Abort()
			return
		}

		db := dbpkg.DBInstance(c)
		if db == nil {
			RespondError(c, "db not configured in context", http.StatusInternalServerError)
			c.Abort()
			return
		}

		var tenant models.Tenant
		if err := db.Where("api_token = ?", token).First(&tenant).Error; err != nil {
			RespondError(c, "unauthorized", http.StatusUnauthorized)
			c.Abort()
			return
		}
		if !tenant.Active() {
			RespondError(c, "tenant is not active", http.StatusForbidden)
			c.Abort()
			return
		}

		SetTenantLogged(c, &tenant)
		c.Next()
	}
}
