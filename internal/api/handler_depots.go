package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"fleetops-backend/internal/errs"
	"fleetops-backend/internal/model"
)

type depotInput struct {
	Name          string `json:"name" binding:"required"`
	Location      string `json:"location"`
	City          string `json:"city"`
	ContactNumber string `json:"contactNumber"`
}

// ListDepots handles GET /api/depots.
func (h *Handler) ListDepots(c *gin.Context) {
	var depots []model.Depot
	if err := h.db.Order("name").Find(&depots).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": depots})
}

// CreateDepot handles POST /api/depots.
func (h *Handler) CreateDepot(c *gin.Context) {
	var in depotInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, errs.Validation("", "invalid depot payload: %v", err))
		return
	}
	depot := model.Depot{
		Name:          in.Name,
		Location:      in.Location,
		City:          in.City,
		ContactNumber: in.ContactNumber,
	}
	if err := h.db.Create(&depot).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": depot})
}

// UpdateDepot handles PUT /api/depots/:id.
func (h *Handler) UpdateDepot(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var in depotInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, errs.Validation("", "invalid depot payload: %v", err))
		return
	}
	var depot model.Depot
	if err := h.db.First(&depot, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, errs.NotFound("depot", id))
		} else {
			respondError(c, err)
		}
		return
	}
	depot.Name = in.Name
	depot.Location = in.Location
	depot.City = in.City
	depot.ContactNumber = in.ContactNumber
	if err := h.db.Save(&depot).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": depot})
}

// DeleteDepot handles DELETE /api/depots/:id.
func (h *Handler) DeleteDepot(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	res := h.db.Delete(&model.Depot{}, id)
	if res.Error != nil {
		respondError(c, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		respondError(c, errs.NotFound("depot", id))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "depot deleted"})
}
