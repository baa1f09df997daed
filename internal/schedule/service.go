// Package schedule implements the assignment and conflict-resolution engine:
// deciding whether a bus, driver and conductor can be committed to a route
// for a time window, tracking trip progress, and flagging schedules whose
// resources disappear from under them.
package schedule

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fleetops-backend/internal/errs"
	"fleetops-backend/internal/model"
	"fleetops-backend/internal/registry"
)

// Service owns the schedule lifecycle. Every write runs the availability and
// conflict checks inside the same transaction as the persist, so the
// check-then-act section cannot race another request for the same resource
// and date.
type Service struct {
	db  *gorm.DB
	reg *registry.Registry
}

// NewService creates the lifecycle manager over the given database handle.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db, reg: registry.New(db)}
}

// CreateInput is a request to commit a full assignment. All three resources
// are required at creation; schedules only lose resources later, through
// deletion or deactivation of the resource itself.
type CreateInput struct {
	RouteID       int64  `json:"routeId" binding:"required"`
	BusID         int64  `json:"busId" binding:"required"`
	DriverID      int64  `json:"driverId" binding:"required"`
	ConductorID   int64  `json:"conductorId" binding:"required"`
	Date          string `json:"date" binding:"required"`
	DepartureTime string `json:"departureTime" binding:"required"`
	ArrivalTime   string `json:"arrivalTime" binding:"required"`
	TripsTotal    int    `json:"tripsTotal" binding:"required"`
}

// Create validates the assignment, runs the conflict check and persists the
// schedule. New schedules always start scheduled, unflagged, with zero trips
// done.
func (s *Service) Create(ctx context.Context, depotID int64, in CreateInput) (*model.Schedule, error) {
	if depotID <= 0 {
		return nil, errs.Validation("depotId", "depot scope is required")
	}
	window, err := NewTimeWindow(in.DepartureTime, in.ArrivalTime)
	if err != nil {
		return nil, err
	}
	date, err := model.ParseISODate(in.Date)
	if err != nil {
		return nil, errs.Validation("date", "%v", err)
	}
	if in.TripsTotal < 1 {
		return nil, errs.Validation("tripsTotal", "must be at least 1")
	}

	sched := model.Schedule{
		RouteID:       in.RouteID,
		BusID:         model.Assigned(in.BusID),
		DriverID:      model.Assigned(in.DriverID),
		ConductorID:   model.Assigned(in.ConductorID),
		Date:          date,
		DepartureTime: window.Departure,
		ArrivalTime:   window.Arrival,
		Status:        model.ScheduleStatusScheduled,
		TripsTotal:    in.TripsTotal,
		DepotID:       depotID,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reg := s.reg.WithTx(tx)
		if _, err := reg.RouteByID(ctx, in.RouteID); err != nil {
			return err
		}
		if err := verifyAssignable(ctx, reg, sched.BusID, sched.DriverID, sched.ConductorID); err != nil {
			return err
		}
		if err := verifyNoConflicts(ctx, tx, &sched, 0); err != nil {
			return err
		}
		return tx.Create(&sched).Error
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"schedule": sched.ID,
		"depot":    depotID,
		"date":     sched.Date,
		"window":   window.String(),
	}).Info("schedule created")
	return s.Get(ctx, depotID, sched.ID)
}

// UpdateInput is a partial schedule mutation. Nil fields are untouched.
type UpdateInput struct {
	RouteID       *int64                `json:"routeId"`
	BusID         *int64                `json:"busId"`
	DriverID      *int64                `json:"driverId"`
	ConductorID   *int64                `json:"conductorId"`
	Date          *string               `json:"date"`
	DepartureTime *string               `json:"departureTime"`
	ArrivalTime   *string               `json:"arrivalTime"`
	Status        *model.ScheduleStatus `json:"status"`
	TripsTotal    *int                  `json:"tripsTotal"`
	TripsDone     *int                  `json:"tripsDone"`
}

// assignmentChanged reports whether the patch touches any field that alters
// who or when: those updates re-enter the full validation and conflict path.
// Progress-only patches (status, trip counters) skip it.
func (in *UpdateInput) assignmentChanged() bool {
	return in.RouteID != nil || in.BusID != nil || in.DriverID != nil || in.ConductorID != nil ||
		in.Date != nil || in.DepartureTime != nil || in.ArrivalTime != nil
}

// Update applies a patch to a schedule. Resource or time changes re-run the
// same availability and conflict checks as Create; progress-only changes are
// validated against the trip counters and the status state machine only.
func (s *Service) Update(ctx context.Context, depotID, id int64, in UpdateInput) (*model.Schedule, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sched, err := lockSchedule(ctx, tx, depotID, id)
		if err != nil {
			return err
		}

		if in.Status != nil {
			if !in.Status.Valid() {
				return errs.Validation("status", "unknown status %q", *in.Status)
			}
			if !sched.Status.CanTransitionTo(*in.Status) {
				return errs.Validation("status", "cannot transition from %s to %s", sched.Status, *in.Status)
			}
			sched.Status = *in.Status
		}
		if in.TripsTotal != nil {
			if *in.TripsTotal < 1 {
				return errs.Validation("tripsTotal", "must be at least 1")
			}
			sched.TripsTotal = *in.TripsTotal
		}
		if in.TripsDone != nil {
			if *in.TripsDone < 0 {
				return errs.Validation("tripsDone", "must not be negative")
			}
			sched.TripsDone = *in.TripsDone
		}
		if sched.TripsDone > sched.TripsTotal {
			return errs.Validation("tripsDone", "trips done (%d) cannot exceed trips total (%d)", sched.TripsDone, sched.TripsTotal)
		}

		if in.assignmentChanged() {
			if err := applyAssignmentPatch(sched, in); err != nil {
				return err
			}
			reg := s.reg.WithTx(tx)
			if in.RouteID != nil {
				if _, err := reg.RouteByID(ctx, *in.RouteID); err != nil {
					return err
				}
			}
			if err := verifyAssignable(ctx, reg,
				patchedRef(in.BusID), patchedRef(in.DriverID), patchedRef(in.ConductorID)); err != nil {
				return err
			}
			if err := verifyNoConflicts(ctx, tx, sched, sched.ID); err != nil {
				return err
			}
		}

		return tx.Save(sched).Error
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, depotID, id)
}

// ReassignInput replaces some or all of a schedule's resources.
type ReassignInput struct {
	BusID       *int64 `json:"busId"`
	DriverID    *int64 `json:"driverId"`
	ConductorID *int64 `json:"conductorId"`
}

// Reassign is Update restricted to resource fields. It demands that the
// schedule ends up fully staffed: every resource, replaced or kept, must be
// assignable, and the whole assignment passes the same conflict check as
// Create. On success the reassignment flag is cleared.
func (s *Service) Reassign(ctx context.Context, depotID, id int64, in ReassignInput) (*model.Schedule, error) {
	if in.BusID == nil && in.DriverID == nil && in.ConductorID == nil {
		return nil, errs.Validation("", "at least one resource must be supplied")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sched, err := lockSchedule(ctx, tx, depotID, id)
		if err != nil {
			return err
		}
		if !sched.Active() {
			return errs.Validation("status", "cannot reassign a %s schedule", sched.Status)
		}

		if in.BusID != nil {
			sched.BusID = model.Assigned(*in.BusID)
		}
		if in.DriverID != nil {
			sched.DriverID = model.Assigned(*in.DriverID)
		}
		if in.ConductorID != nil {
			sched.ConductorID = model.Assigned(*in.ConductorID)
		}
		for _, r := range []struct {
			kind ResourceKind
			ref  model.ResourceRef
		}{
			{KindBus, sched.BusID}, {KindDriver, sched.DriverID}, {KindConductor, sched.ConductorID},
		} {
			if !r.ref.Assigned {
				return errs.Validation(string(r.kind)+"Id", "a %s assignment is required to clear the reassignment flag", r.kind)
			}
		}

		reg := s.reg.WithTx(tx)
		if err := verifyAssignable(ctx, reg, sched.BusID, sched.DriverID, sched.ConductorID); err != nil {
			return err
		}
		if err := verifyNoConflicts(ctx, tx, sched, sched.ID); err != nil {
			return err
		}

		sched.FlaggedForReassignment = false
		return tx.Save(sched).Error
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{"schedule": id, "depot": depotID}).Info("schedule reassigned")
	return s.Get(ctx, depotID, id)
}

// Delete removes a schedule outright. No cascade: the only downstream effect
// is that the resources' commitments stop counting in future conflict checks.
func (s *Service) Delete(ctx context.Context, depotID, id int64) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND depot_id = ?", id, depotID).
		Delete(&model.Schedule{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete schedule %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return errs.NotFound("schedule", id)
	}
	return nil
}

// Get fetches one schedule scoped to the depot.
func (s *Service) Get(ctx context.Context, depotID, id int64) (*model.Schedule, error) {
	var sched model.Schedule
	err := s.db.WithContext(ctx).Preload("Route").
		Where("id = ? AND depot_id = ?", id, depotID).
		First(&sched).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errs.NotFound("schedule", id)
		}
		return nil, fmt.Errorf("failed to fetch schedule %d: %w", id, err)
	}
	return &sched, nil
}

// List returns the depot's schedules ordered by date and departure.
func (s *Service) List(ctx context.Context, depotID int64) ([]model.Schedule, error) {
	var schedules []model.Schedule
	err := s.db.WithContext(ctx).Preload("Route").
		Where("depot_id = ?", depotID).
		Order("date, departure_time").
		Find(&schedules).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	return schedules, nil
}

// lockSchedule loads a schedule under a row lock (postgres) so concurrent
// mutations of the same schedule serialize.
func lockSchedule(ctx context.Context, tx *gorm.DB, depotID, id int64) (*model.Schedule, error) {
	q := tx.WithContext(ctx).Where("id = ? AND depot_id = ?", id, depotID)
	if tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var sched model.Schedule
	if err := q.First(&sched).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errs.NotFound("schedule", id)
		}
		return nil, fmt.Errorf("failed to fetch schedule %d: %w", id, err)
	}
	return &sched, nil
}

// applyAssignmentPatch folds the patch's who/when fields into the working
// copy, validating formats as it goes.
func applyAssignmentPatch(sched *model.Schedule, in UpdateInput) error {
	if in.RouteID != nil {
		sched.RouteID = *in.RouteID
	}
	if in.BusID != nil {
		sched.BusID = model.Assigned(*in.BusID)
	}
	if in.DriverID != nil {
		sched.DriverID = model.Assigned(*in.DriverID)
	}
	if in.ConductorID != nil {
		sched.ConductorID = model.Assigned(*in.ConductorID)
	}
	if in.Date != nil {
		date, err := model.ParseISODate(*in.Date)
		if err != nil {
			return errs.Validation("date", "%v", err)
		}
		sched.Date = date
	}
	if in.DepartureTime != nil {
		sched.DepartureTime = *in.DepartureTime
	}
	if in.ArrivalTime != nil {
		sched.ArrivalTime = *in.ArrivalTime
	}
	if _, err := NewTimeWindow(sched.DepartureTime, sched.ArrivalTime); err != nil {
		return err
	}
	return nil
}

// patchedRef wraps an optional id from a patch; nil means "not changed" and
// therefore not re-verified.
func patchedRef(id *int64) model.ResourceRef {
	if id == nil {
		return model.Unassigned()
	}
	return model.Assigned(*id)
}

// verifyAssignable checks existence and assignability for each supplied
// reference. Resource state is enforced at write time only; it is not
// re-checked continuously afterwards.
func verifyAssignable(ctx context.Context, reg *registry.Registry, busID, driverID, conductorID model.ResourceRef) error {
	if busID.Assigned {
		bus, err := reg.BusByID(ctx, busID.ID)
		if err != nil {
			return err
		}
		if !bus.Status.Assignable() {
			return errs.Unavailable("bus", bus.ID, string(bus.Status))
		}
	}
	if driverID.Assigned {
		driver, err := reg.DriverByID(ctx, driverID.ID)
		if err != nil {
			return err
		}
		if !driver.Availability.Assignable() {
			return errs.Unavailable("driver", driver.ID, string(driver.Availability))
		}
	}
	if conductorID.Assigned {
		conductor, err := reg.ConductorByID(ctx, conductorID.ID)
		if err != nil {
			return err
		}
		if !conductor.Availability.Assignable() {
			return errs.Unavailable("conductor", conductor.ID, string(conductor.Availability))
		}
	}
	return nil
}

// verifyNoConflicts runs the conflict check for the schedule's assignment and
// converts findings into a ConflictError.
func verifyNoConflicts(ctx context.Context, tx *gorm.DB, sched *model.Schedule, excludeID int64) error {
	window, err := NewTimeWindow(sched.DepartureTime, sched.ArrivalTime)
	if err != nil {
		return err
	}
	conflicts, err := CheckConflicts(ctx, tx, proposal{
		BusID:       sched.BusID,
		DriverID:    sched.DriverID,
		ConductorID: sched.ConductorID,
		Date:        sched.Date,
		Window:      window,
	}, excludeID)
	if err != nil {
		return err
	}
	if len(conflicts) > 0 {
		return &errs.ConflictError{Conflicts: conflicts}
	}
	return nil
}
