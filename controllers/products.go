package controllers

import (
	"net/http"

	dbpkg "botique/db"
	"botique/models"

	"github.com/gin-gonic/gin"
)

type ProductRequest struct {
	Name            string  `json:"name" form:"name"`
	Description     string  `json:"description" form:"description"`
	Price           float64 `json:"price" form:"price"`
	DiscountPercent float64 `json:"discount_percent" form:"discount_percent"`
	ImageURL        string  `json:"image_url" form:"image_url"`
	Category        string  `json:"category" form:"category"`
	Active          *bool   `json:"active" form:"active"`
}

// GET /api/products
func GetProducts(c *gin.Context) {
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

	var products []models.Product
	if err := db.Where("tenant_id = ?", tenant.ID).Order("id asc").Find(&products).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	RespondSuccess(c, gin.H{"products": products})
}

// POST /api/products
func CreateProduct(c *gin.Context) {
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

	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		RespondError(c, "name is required", http.StatusBadRequest)
		return
	}
	if req.Price < 0 || req.DiscountPercent < 0 || req.DiscountPercent > 100 {
		RespondError(c, "invalid price or discount", http.StatusBadRequest)
		return
	}

	product := models.Product{
		TenantID:        tenant.ID,
		Name:            req.Name,
		Description:     req.Description,
		Price:           req.Price,
		DiscountPercent: req.DiscountPercent,
		ImageURL:        req.ImageURL,
		Category:        req.Category,
		Active:          true,
	}
	if req.Active != nil {
		product.Active = *req.Active
	}
	if err := db.Create(&product).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	RespondSuccess(c, gin.H{"product": product})
}

// PUT /api/products/:id
func UpdateProduct(c *gin.Context) {
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

	var product models.Product
	if err := db.First(&product, id).Error; err != nil {
		RespondError(c, "product not found", http.StatusNotFound)
		return
	}
	if product.TenantID != tenant.ID {
		RespondError(c, "forbidden", http.StatusForbidden)
		return
	}

	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		RespondError(c, "name is required", http.StatusBadRequest)
		return
	}
	if req.Price < 0 || req.DiscountPercent < 0 || req.DiscountPercent > 100 {
		RespondError(c, "invalid price or discount", http.StatusBadRequest)
		return
	}

	updates := map[string]interface{}{
		"name":             req.Name,
		"description":      req.Description,
		"price":            req.Price,
		"discount_percent": req.DiscountPercent,
		"image_url":        req.ImageURL,
		"category":         req.Category,
	}
	if req.Active != nil {
		updates["active"] = *req.Active
	}
	if err := db.Model(&product).Updates(updates).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	RespondSuccess(c, gin.H{"product": product})
}

// DELETE /api/products/:id
func DeleteProduct(c *gin.Context) {
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

	var product models.Product
	if err := db.First(&product, id).Error; err != nil {
		RespondError(c, "product not found", http.StatusNotFound)
		return
	}
	if product.TenantID != tenant.ID {
		RespondError(c, "forbidden", http.StatusForbidden)
		return
	}
	if err := db.Delete(&product).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	RespondSuccess(c, gin.H{"deleted": true})
}
