package router

import (
	"botique/config"
	"botique/controllers"
	"botique/middleware"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Initialize wires all routes and middlewares: public webhook routes plus
// token-authenticated dashboard routes.
func Initialize(r *gin.Engine, cfg config.Configuration) {
	_ = cfg

	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.String(200, "ok")
	})

	// Webhook (WhatsApp) - multi-tenant: /webhook/:tenantId
	r.GET("/webhook/:tenantId", Logger(), controllers.WebhookVerify)
	r.POST("/webhook/:tenantId", Logger(), controllers.WebhookUpdate)

	// Dashboard API (tenant token required)
	api := r.Group("/api")
	api.Use(controllers.AuthRequired())

	// Flows CRUD
	api.GET("/flows", Logger(), controllers.GetFlows)
	api.GET("/flows/:id", Logger(), controllers.GetFlowByID)
	api.POST("/flows", Logger(), controllers.CreateFlow)
	api.PUT("/flows/:id", Logger(), controllers.UpdateFlow)
	api.DELETE("/flows/:id", Logger(), controllers.DeleteFlow)

	// Products CRUD
	api.GET("/products", Logger(), controllers.GetProducts)
	api.POST("/products", Logger(), controllers.CreateProduct)
	api.PUT("/products/:id", Logger(), controllers.UpdateProduct)
	api.DELETE("/products/:id", Logger(), controllers.DeleteProduct)

	// Orders
	api.GET("/orders", Logger(), controllers.GetOrders)
	api.GET("/orders/:id", Logger(), controllers.GetOrderByID)
	api.PUT("/orders/:id/status", Logger(), controllers.UpdateOrderStatus)

	// Customers
	api.GET("/customers", Logger(), controllers.GetCustomers)
	api.GET("/customers/:id", Logger(), controllers.GetCustomerByID)
	api.PUT("/customers/:id/block", Logger(), controllers.BlockCustomer)
	api.PUT("/customers/:id/unblock", Logger(), controllers.UnblockCustomer)

	// Analytics
	api.GET("/stats", Logger(), controllers.GetStats)

	logrus.Info("routes initialized")
}
