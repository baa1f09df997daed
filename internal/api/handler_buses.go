package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"fleetops-backend/internal/errs"
	"fleetops-backend/internal/model"
	"fleetops-backend/internal/mw"
	"fleetops-backend/internal/schedule"
)

type busInput struct {
	Number               string  `json:"number" binding:"required"`
	RegistrationNumber   string  `json:"registrationNumber" binding:"required"`
	Model                string  `json:"model"`
	Mileage              float64 `json:"mileage"`
	DailyFuelConsumption float64 `json:"dailyFuelConsumption"`
	DailyRevenue         float64 `json:"dailyRevenue"`
	MaintenanceCost      float64 `json:"maintenanceCost"`
	Status               string  `json:"status"`
	LastServiceDate      *string `json:"lastServiceDate"`
	NextServiceDue       *string `json:"nextServiceDue"`
}

func (in *busInput) apply(bus *model.Bus) error {
	bus.Number = in.Number
	bus.RegistrationNumber = in.RegistrationNumber
	bus.Model = in.Model
	bus.Mileage = in.Mileage
	bus.DailyFuelConsumption = in.DailyFuelConsumption
	bus.DailyRevenue = in.DailyRevenue
	bus.MaintenanceCost = in.MaintenanceCost
	if in.Status != "" {
		status := model.BusStatus(in.Status)
		if !status.Valid() {
			return errs.Validation("status", "unknown bus status %q", in.Status)
		}
		bus.Status = status
	}
	for _, f := range []struct {
		raw   *string
		field string
		dst   **model.ISODate
	}{
		{in.LastServiceDate, "lastServiceDate", &bus.LastServiceDate},
		{in.NextServiceDue, "nextServiceDue", &bus.NextServiceDue},
	} {
		if f.raw == nil || *f.raw == "" {
			continue
		}
		d, err := model.ParseISODate(*f.raw)
		if err != nil {
			return errs.Validation(f.field, "%v", err)
		}
		*f.dst = &d
	}
	return nil
}

// ListBuses handles GET /api/buses.
func (h *Handler) ListBuses(c *gin.Context) {
	var buses []model.Bus
	if err := h.db.Where("depot_id = ?", mw.DepotID(c)).Order("number").Find(&buses).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": buses})
}

// ListAssignableBuses handles GET /api/buses/assignable.
func (h *Handler) ListAssignableBuses(c *gin.Context) {
	buses, err := h.reg.AssignableBuses(c.Request.Context(), mw.DepotID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": buses})
}

// CreateBus handles POST /api/buses.
func (h *Handler) CreateBus(c *gin.Context) {
	var in busInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, errs.Validation("", "invalid bus payload: %v", err))
		return
	}
	bus := model.Bus{Status: model.BusStatusActive, DepotID: mw.DepotID(c)}
	if err := in.apply(&bus); err != nil {
		respondError(c, err)
		return
	}
	if err := h.db.Create(&bus).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": bus})
}

// UpdateBus handles PUT /api/buses/:id. When the update moves the bus out of
// active status, every dependent future schedule is flagged for reassignment
// within the same transaction; the bus reference is kept so the operator can
// see what the schedule used to run with.
func (h *Handler) UpdateBus(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var in busInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, errs.Validation("", "invalid bus payload: %v", err))
		return
	}

	var bus model.Bus
	var flagged map[int64]int64
	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND depot_id = ?", id, mw.DepotID(c)).First(&bus).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.NotFound("bus", id)
			}
			return err
		}
		wasAssignable := bus.Status.Assignable()
		if err := in.apply(&bus); err != nil {
			return err
		}
		if err := tx.Save(&bus).Error; err != nil {
			return err
		}
		if wasAssignable && !bus.Status.Assignable() {
			var err error
			flagged, err = schedule.FlagForResource(c.Request.Context(), tx, schedule.KindBus, bus.ID, false, model.DateOf(time.Now()))
			return err
		}
		return nil
	})
	if err != nil {
		respondError(c, err)
		return
	}
	h.notifyFlagged(flagged)
	c.JSON(http.StatusOK, gin.H{"data": bus})
}

// DeleteBus handles DELETE /api/buses/:id. Deletion nulls the bus reference
// on dependent future schedules and flags them, atomically with the delete.
func (h *Handler) DeleteBus(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var flagged map[int64]int64
	err := h.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND depot_id = ?", id, mw.DepotID(c)).Delete(&model.Bus{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errs.NotFound("bus", id)
		}
		var err error
		flagged, err = schedule.FlagForResource(c.Request.Context(), tx, schedule.KindBus, id, true, model.DateOf(time.Now()))
		return err
	})
	if err != nil {
		respondError(c, err)
		return
	}
	h.notifyFlagged(flagged)
	c.JSON(http.StatusOK, gin.H{"message": "bus deleted"})
}

// GetBusMaintenanceStatus handles GET /api/buses/:id/maintenance-status.
func (h *Handler) GetBusMaintenanceStatus(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	assessment, err := h.maint.AssessBus(c.Request.Context(), mw.DepotID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": assessment})
}
