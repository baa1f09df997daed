package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"fleetops-backend/internal/errs"
	"fleetops-backend/internal/model"
)

type routeInput struct {
	Name              string  `json:"name" binding:"required"`
	StartLocation     string  `json:"startLocation" binding:"required"`
	EndLocation       string  `json:"endLocation" binding:"required"`
	DistanceKm        float64 `json:"distanceKm"`
	EstimatedDuration int     `json:"estimatedDuration"`
}

// ListRoutes handles GET /api/routes. Routes are shared reference data, not
// depot-scoped.
func (h *Handler) ListRoutes(c *gin.Context) {
	var routes []model.Route
	if err := h.db.Order("name").Find(&routes).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": routes})
}

// CreateRoute handles POST /api/routes.
func (h *Handler) CreateRoute(c *gin.Context) {
	var in routeInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, errs.Validation("", "invalid route payload: %v", err))
		return
	}
	route := model.Route{
		Name:              in.Name,
		StartLocation:     in.StartLocation,
		EndLocation:       in.EndLocation,
		DistanceKm:        in.DistanceKm,
		EstimatedDuration: in.EstimatedDuration,
	}
	if err := h.db.Create(&route).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": route})
}

// UpdateRoute handles PUT /api/routes/:id.
func (h *Handler) UpdateRoute(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var in routeInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, errs.Validation("", "invalid route payload: %v", err))
		return
	}
	var route model.Route
	if err := h.db.First(&route, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, errs.NotFound("route", id))
		} else {
			respondError(c, err)
		}
		return
	}
	route.Name = in.Name
	route.StartLocation = in.StartLocation
	route.EndLocation = in.EndLocation
	route.DistanceKm = in.DistanceKm
	route.EstimatedDuration = in.EstimatedDuration
	if err := h.db.Save(&route).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": route})
}

// DeleteRoute handles DELETE /api/routes/:id.
func (h *Handler) DeleteRoute(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	res := h.db.Delete(&model.Route{}, id)
	if res.Error != nil {
		respondError(c, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		respondError(c, errs.NotFound("route", id))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "route deleted"})
}
