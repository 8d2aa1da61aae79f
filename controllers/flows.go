package controllers

import (
	"encoding/json"
	"net/http"

	dbpkg "botique/db"
	"botique/models"

	"github.com/gin-gonic/gin"
)

type AutoFlowRequest struct {
	Name     string               `json:"name"`
	Active   *bool                `json:"active"`
	Position int                  `json:"position"`
	Triggers []models.FlowTrigger `json:"triggers"`
	Actions  []models.FlowAction  `json:"actions"`
}

func (r AutoFlowRequest) validate() string {
	if r.Name == "" {
		return "name is required"
	}
	if len(r.Triggers) == 0 {
		return "at least one trigger is required"
	}
	for _, t := range r.Triggers {
		if len(t.Keywords) == 0 {
			return "every trigger needs at least one keyword"
		}
		if t.MatchType != models.FLOW_MATCH_EXACT && t.MatchType != models.FLOW_MATCH_CONTAINS {
			return "trigger match_type must be exact or contains"
		}
	}
	if len(r.Actions) == 0 {
		return "at least one action is required"
	}
	return ""
}

// GET /api/flows
func GetFlows(c *gin.Context) {
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

	var flows []models.AutoFlow
	if err := db.Where("tenant_id = ?", tenant.ID).Order("position asc, id asc").Find(&flows).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	RespondSuccess(c, gin.H{"flows": flows})
}

// GET /api/flows/:id
func GetFlowByID(c *gin.Context) {
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

	var flow models.AutoFlow
	if err := db.First(&flow, id).Error; err != nil {
		RespondError(c, "flow not found", http.StatusNotFound)
		return
	}
	if flow.TenantID != tenant.ID {
		RespondError(c, "forbidden", http.StatusForbidden)
		return
	}
	RespondSuccess(c, gin.H{"flow": flow})
}

// POST /api/flows
func CreateFlow(c *gin.Context) {
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

	var req AutoFlowRequest
	if err := c.Bind(&req); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	if msg := req.validate(); msg != "" {
		RespondError(c, msg, http.StatusBadRequest)
		return
	}

	triggers, _ := json.Marshal(req.Triggers)
	actions, _ := json.Marshal(req.Actions)

	flow := models.AutoFlow{
		TenantID: tenant.ID,
		Name:     req.Name,
		Active:   true,
		Position: req.Position,
		Triggers: string(triggers),
		Actions:  string(actions),
	}
	if req.Active != nil {
		flow.Active = *req.Active
	}
	if err := db.Create(&flow).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	RespondSuccess(c, gin.H{"flow": flow})
}

// PUT /api/flows/:id
func UpdateFlow(c *gin.Context) {
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

	var flow models.AutoFlow
	if err := db.First(&flow, id).Error; err != nil {
		RespondError(c, "flow not found", http.StatusNotFound)
		return
	}
	if flow.TenantID != tenant.ID {
		RespondError(c, "forbidden", http.StatusForbidden)
		return
	}

	var req AutoFlowRequest
	if err := c.Bind(&req); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	if msg := req.validate(); msg != "" {
		RespondError(c, msg, http.StatusBadRequest)
		return
	}

	triggers, _ := json.Marshal(req.Triggers)
	actions, _ := json.Marshal(req.Actions)

	updates := map[string]interface{}{
		"name":     req.Name,
		"position": req.Position,
		"triggers": string(triggers),
		"actions":  string(actions),
	}
	if req.Active != nil {
		updates["active"] = *req.Active
	}
	if err := db.Model(&flow).Updates(updates).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	RespondSuccess(c, gin.H{"flow": flow})
}

// DELETE /api/flows/:id
func DeleteFlow(c *gin.Context) {
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

	var flow models.AutoFlow
	if err := db.First(&flow, id).Error; err != nil {
		RespondError(c, "flow not found", http.StatusNotFound)
		return
	}
	if flow.TenantID != tenant.ID {
		RespondError(c, "forbidden", http.StatusForbidden)
		return
	}
	if err := db.Delete(&flow).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	RespondSuccess(c, gin.H{"deleted": true})
}
