package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fleetops-backend/internal/errs"
	"fleetops-backend/internal/maintenance"
	"fleetops-backend/internal/mw"
)

// ListMaintenance handles GET /api/maintenance.
func (h *Handler) ListMaintenance(c *gin.Context) {
	records, err := h.maint.List(c.Request.Context(), mw.DepotID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": records})
}

// ListMaintenanceDue handles GET /api/maintenance/due: the due-soon and
// overdue alerts for the depot's buses.
func (h *Handler) ListMaintenanceDue(c *gin.Context) {
	alerts, err := h.maint.DueAlerts(c.Request.Context(), mw.DepotID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": alerts})
}

// CreateMaintenance handles POST /api/maintenance.
func (h *Handler) CreateMaintenance(c *gin.Context) {
	var in maintenance.RecordInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, errs.Validation("", "invalid maintenance payload: %v", err))
		return
	}
	record, err := h.maint.Create(c.Request.Context(), mw.DepotID(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": record})
}

// UpdateMaintenance handles PUT /api/maintenance/:id.
func (h *Handler) UpdateMaintenance(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var in maintenance.RecordInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, errs.Validation("", "invalid maintenance payload: %v", err))
		return
	}
	record, err := h.maint.Update(c.Request.Context(), mw.DepotID(c), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": record})
}

// DeleteMaintenance handles DELETE /api/maintenance/:id.
func (h *Handler) DeleteMaintenance(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.maint.Delete(c.Request.Context(), mw.DepotID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "maintenance record deleted"})
}
