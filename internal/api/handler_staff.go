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

type driverInput struct {
	Name          string  `json:"name" binding:"required"`
	LicenseNumber string  `json:"licenseNumber" binding:"required"`
	LicenseExpiry *string `json:"licenseExpiry"`
	ContactNumber string  `json:"contactNumber"`
	Availability  string  `json:"availability"`
}

type conductorInput struct {
	Name          string `json:"name" binding:"required"`
	ContactNumber string `json:"contactNumber"`
	Availability  string `json:"availability"`
}

func parseAvailability(raw string) (model.Availability, error) {
	if raw == "" {
		return model.AvailabilityAvailable, nil
	}
	a := model.Availability(raw)
	if !a.Valid() {
		return "", errs.Validation("availability", "unknown availability %q", raw)
	}
	return a, nil
}

// ListDrivers handles GET /api/drivers.
func (h *Handler) ListDrivers(c *gin.Context) {
	var drivers []model.Driver
	if err := h.db.Where("depot_id = ?", mw.DepotID(c)).Order("name").Find(&drivers).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": drivers})
}

// ListAssignableDrivers handles GET /api/drivers/assignable.
func (h *Handler) ListAssignableDrivers(c *gin.Context) {
	drivers, err := h.reg.AssignableDrivers(c.Request.Context(), mw.DepotID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": drivers})
}

// CreateDriver handles POST /api/drivers.
func (h *Handler) CreateDriver(c *gin.Context) {
	var in driverInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, errs.Validation("", "invalid driver payload: %v", err))
		return
	}
	availability, err := parseAvailability(in.Availability)
	if err != nil {
		respondError(c, err)
		return
	}
	driver := model.Driver{
		Name:          in.Name,
		LicenseNumber: in.LicenseNumber,
		ContactNumber: in.ContactNumber,
		Availability:  availability,
		DepotID:       mw.DepotID(c),
	}
	if in.LicenseExpiry != nil && *in.LicenseExpiry != "" {
		d, err := model.ParseISODate(*in.LicenseExpiry)
		if err != nil {
			respondError(c, errs.Validation("licenseExpiry", "%v", err))
			return
		}
		driver.LicenseExpiry = &d
	}
	if err := h.db.Create(&driver).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": driver})
}

// UpdateDriver handles PUT /api/drivers/:id. Moving a driver out of the
// available state flags every dependent future schedule within the same
// transaction.
func (h *Handler) UpdateDriver(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var in driverInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, errs.Validation("", "invalid driver payload: %v", err))
		return
	}
	availability, err := parseAvailability(in.Availability)
	if err != nil {
		respondError(c, err)
		return
	}

	var driver model.Driver
	var flagged map[int64]int64
	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND depot_id = ?", id, mw.DepotID(c)).First(&driver).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.NotFound("driver", id)
			}
			return err
		}
		wasAssignable := driver.Availability.Assignable()
		driver.Name = in.Name
		driver.LicenseNumber = in.LicenseNumber
		driver.ContactNumber = in.ContactNumber
		driver.Availability = availability
		if in.LicenseExpiry != nil && *in.LicenseExpiry != "" {
			d, err := model.ParseISODate(*in.LicenseExpiry)
			if err != nil {
				return errs.Validation("licenseExpiry", "%v", err)
			}
			driver.LicenseExpiry = &d
		}
		if err := tx.Save(&driver).Error; err != nil {
			return err
		}
		if wasAssignable && !driver.Availability.Assignable() {
			var err error
			flagged, err = schedule.FlagForResource(c.Request.Context(), tx, schedule.KindDriver, driver.ID, false, model.DateOf(time.Now()))
			return err
		}
		return nil
	})
	if err != nil {
		respondError(c, err)
		return
	}
	h.notifyFlagged(flagged)
	c.JSON(http.StatusOK, gin.H{"data": driver})
}

// DeleteDriver handles DELETE /api/drivers/:id. Dependent future schedules
// lose their driver reference and are flagged, atomically with the delete.
func (h *Handler) DeleteDriver(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var flagged map[int64]int64
	err := h.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND depot_id = ?", id, mw.DepotID(c)).Delete(&model.Driver{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errs.NotFound("driver", id)
		}
		var err error
		flagged, err = schedule.FlagForResource(c.Request.Context(), tx, schedule.KindDriver, id, true, model.DateOf(time.Now()))
		return err
	})
	if err != nil {
		respondError(c, err)
		return
	}
	h.notifyFlagged(flagged)
	c.JSON(http.StatusOK, gin.H{"message": "driver deleted"})
}

// ListConductors handles GET /api/conductors.
func (h *Handler) ListConductors(c *gin.Context) {
	var conductors []model.Conductor
	if err := h.db.Where("depot_id = ?", mw.DepotID(c)).Order("name").Find(&conductors).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": conductors})
}

// ListAssignableConductors handles GET /api/conductors/assignable.
func (h *Handler) ListAssignableConductors(c *gin.Context) {
	conductors, err := h.reg.AssignableConductors(c.Request.Context(), mw.DepotID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": conductors})
}

// CreateConductor handles POST /api/conductors.
func (h *Handler) CreateConductor(c *gin.Context) {
	var in conductorInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, errs.Validation("", "invalid conductor payload: %v", err))
		return
	}
	availability, err := parseAvailability(in.Availability)
	if err != nil {
		respondError(c, err)
		return
	}
	conductor := model.Conductor{
		Name:          in.Name,
		ContactNumber: in.ContactNumber,
		Availability:  availability,
		DepotID:       mw.DepotID(c),
	}
	if err := h.db.Create(&conductor).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": conductor})
}

// UpdateConductor handles PUT /api/conductors/:id, with the same flagging
// semantics as UpdateDriver.
func (h *Handler) UpdateConductor(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var in conductorInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, errs.Validation("", "invalid conductor payload: %v", err))
		return
	}
	availability, err := parseAvailability(in.Availability)
	if err != nil {
		respondError(c, err)
		return
	}

	var conductor model.Conductor
	var flagged map[int64]int64
	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND depot_id = ?", id, mw.DepotID(c)).First(&conductor).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.NotFound("conductor", id)
			}
			return err
		}
		wasAssignable := conductor.Availability.Assignable()
		conductor.Name = in.Name
		conductor.ContactNumber = in.ContactNumber
		conductor.Availability = availability
		if err := tx.Save(&conductor).Error; err != nil {
			return err
		}
		if wasAssignable && !conductor.Availability.Assignable() {
			var err error
			flagged, err = schedule.FlagForResource(c.Request.Context(), tx, schedule.KindConductor, conductor.ID, false, model.DateOf(time.Now()))
			return err
		}
		return nil
	})
	if err != nil {
		respondError(c, err)
		return
	}
	h.notifyFlagged(flagged)
	c.JSON(http.StatusOK, gin.H{"data": conductor})
}

// DeleteConductor handles DELETE /api/conductors/:id.
func (h *Handler) DeleteConductor(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var flagged map[int64]int64
	err := h.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND depot_id = ?", id, mw.DepotID(c)).Delete(&model.Conductor{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errs.NotFound("conductor", id)
		}
		var err error
		flagged, err = schedule.FlagForResource(c.Request.Context(), tx, schedule.KindConductor, id, true, model.DateOf(time.Now()))
		return err
	})
	if err != nil {
		respondError(c, err)
		return
	}
	h.notifyFlagged(flagged)
	c.JSON(http.StatusOK, gin.H{"message": "conductor deleted"})
}
