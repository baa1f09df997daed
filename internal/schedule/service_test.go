package schedule

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"fleetops-backend/internal/db"
	"fleetops-backend/internal/errs"
	"fleetops-backend/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gormDB, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gormDB))
	return gormDB
}

type fixture struct {
	depot     model.Depot
	route     model.Route
	route2    model.Route
	bus       model.Bus
	bus2      model.Bus
	driver    model.Driver
	driver2   model.Driver
	conductor model.Conductor
	cond2     model.Conductor
}

func seed(t *testing.T, gormDB *gorm.DB) fixture {
	t.Helper()
	f := fixture{
		depot:     model.Depot{Name: "Central Depot", City: "Colombo"},
		route:     model.Route{Name: "Route 138", StartLocation: "Pettah", EndLocation: "Homagama", DistanceKm: 24, EstimatedDuration: 90},
		route2:    model.Route{Name: "Route 177", StartLocation: "Kaduwela", EndLocation: "Kollupitiya", DistanceKm: 18, EstimatedDuration: 75},
		bus:       model.Bus{Number: "NB-1234", RegistrationNumber: "WP-NA-1234", Status: model.BusStatusActive},
		bus2:      model.Bus{Number: "NB-5678", RegistrationNumber: "WP-NA-5678", Status: model.BusStatusActive},
		driver:    model.Driver{Name: "Nimal Perera", LicenseNumber: "B1234567", Availability: model.AvailabilityAvailable},
		driver2:   model.Driver{Name: "Sunil Silva", LicenseNumber: "B7654321", Availability: model.AvailabilityAvailable},
		conductor: model.Conductor{Name: "Kamal Fernando", Availability: model.AvailabilityAvailable},
		cond2:     model.Conductor{Name: "Ruwan Jayasuriya", Availability: model.AvailabilityAvailable},
	}
	require.NoError(t, gormDB.Create(&f.depot).Error)
	for _, r := range []*model.Route{&f.route, &f.route2} {
		require.NoError(t, gormDB.Create(r).Error)
	}
	for _, b := range []*model.Bus{&f.bus, &f.bus2} {
		b.DepotID = f.depot.ID
		require.NoError(t, gormDB.Create(b).Error)
	}
	for _, d := range []*model.Driver{&f.driver, &f.driver2} {
		d.DepotID = f.depot.ID
		require.NoError(t, gormDB.Create(d).Error)
	}
	for _, co := range []*model.Conductor{&f.conductor, &f.cond2} {
		co.DepotID = f.depot.ID
		require.NoError(t, gormDB.Create(co).Error)
	}
	return f
}

func (f fixture) createInput() CreateInput {
	return CreateInput{
		RouteID:       f.route.ID,
		BusID:         f.bus.ID,
		DriverID:      f.driver.ID,
		ConductorID:   f.conductor.ID,
		Date:          "2024-06-01",
		DepartureTime: "08:00",
		ArrivalTime:   "10:00",
		TripsTotal:    4,
	}
}

func TestServiceCreate(t *testing.T) {
	gormDB := newTestDB(t)
	f := seed(t, gormDB)
	svc := NewService(gormDB)
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		sched, err := svc.Create(ctx, f.depot.ID, f.createInput())
		require.NoError(t, err)
		assert.Equal(t, model.ScheduleStatusScheduled, sched.Status)
		assert.Equal(t, 0, sched.TripsDone)
		assert.Equal(t, 4, sched.TripsRemaining())
		assert.False(t, sched.FlaggedForReassignment)
		assert.True(t, sched.BusID.Is(f.bus.ID))
		assert.Equal(t, "Route 138", sched.Route.Name)
		require.NoError(t, svc.Delete(ctx, f.depot.ID, sched.ID))
	})

	t.Run("unknown route", func(t *testing.T) {
		in := f.createInput()
		in.RouteID = 9999
		_, err := svc.Create(ctx, f.depot.ID, in)
		var nfErr *errs.NotFoundError
		require.ErrorAs(t, err, &nfErr)
		assert.Equal(t, "route", nfErr.Resource)
	})

	t.Run("invalid window", func(t *testing.T) {
		in := f.createInput()
		in.ArrivalTime = "07:00"
		_, err := svc.Create(ctx, f.depot.ID, in)
		var vErr *errs.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "arrivalTime", vErr.Field)
	})

	t.Run("zero trips", func(t *testing.T) {
		in := f.createInput()
		in.TripsTotal = 0
		_, err := svc.Create(ctx, f.depot.ID, in)
		var vErr *errs.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "tripsTotal", vErr.Field)
	})

	t.Run("inactive bus is unavailable, never a conflict", func(t *testing.T) {
		require.NoError(t, gormDB.Model(&model.Bus{}).Where("id = ?", f.bus.ID).
			Update("status", model.BusStatusMaintenance).Error)
		defer gormDB.Model(&model.Bus{}).Where("id = ?", f.bus.ID).
			Update("status", model.BusStatusActive)

		_, err := svc.Create(ctx, f.depot.ID, f.createInput())
		var ruErr *errs.ResourceUnavailableError
		require.ErrorAs(t, err, &ruErr)
		assert.Equal(t, "bus", ruErr.ResourceType)
		assert.Equal(t, f.bus.ID, ruErr.ResourceID)
		var cErr *errs.ConflictError
		assert.False(t, errors.As(err, &cErr))
	})

	t.Run("staff on leave is unavailable", func(t *testing.T) {
		require.NoError(t, gormDB.Model(&model.Driver{}).Where("id = ?", f.driver.ID).
			Update("availability", model.AvailabilityLeave).Error)
		defer gormDB.Model(&model.Driver{}).Where("id = ?", f.driver.ID).
			Update("availability", model.AvailabilityAvailable)

		_, err := svc.Create(ctx, f.depot.ID, f.createInput())
		var ruErr *errs.ResourceUnavailableError
		require.ErrorAs(t, err, &ruErr)
		assert.Equal(t, "driver", ruErr.ResourceType)
	})
}

func TestServiceCreateConflicts(t *testing.T) {
	gormDB := newTestDB(t)
	f := seed(t, gormDB)
	svc := NewService(gormDB)
	ctx := context.Background()

	// Bus NB-1234 booked on Route 138, 2024-06-01, 08:00-10:00.
	_, err := svc.Create(ctx, f.depot.ID, f.createInput())
	require.NoError(t, err)

	t.Run("overlapping window on the same bus", func(t *testing.T) {
		in := f.createInput()
		in.RouteID = f.route2.ID
		in.DriverID = f.driver2.ID
		in.ConductorID = f.cond2.ID
		in.DepartureTime = "09:00"
		in.ArrivalTime = "11:00"
		_, err := svc.Create(ctx, f.depot.ID, in)

		var cErr *errs.ConflictError
		require.ErrorAs(t, err, &cErr)
		require.Len(t, cErr.Conflicts, 1)
		assert.Equal(t, "Bus NB-1234 is already scheduled on Route 138 from 08:00 to 10:00", cErr.Conflicts[0])
	})

	t.Run("adjacent window does not conflict", func(t *testing.T) {
		in := f.createInput()
		in.RouteID = f.route2.ID
		in.DriverID = f.driver2.ID
		in.ConductorID = f.cond2.ID
		in.DepartureTime = "10:00"
		in.ArrivalTime = "12:00"
		sched, err := svc.Create(ctx, f.depot.ID, in)
		require.NoError(t, err)
		require.NoError(t, svc.Delete(ctx, f.depot.ID, sched.ID))
	})

	t.Run("same window on a different date does not conflict", func(t *testing.T) {
		in := f.createInput()
		in.RouteID = f.route2.ID
		in.DriverID = f.driver2.ID
		in.ConductorID = f.cond2.ID
		in.Date = "2024-06-02"
		sched, err := svc.Create(ctx, f.depot.ID, in)
		require.NoError(t, err)
		require.NoError(t, svc.Delete(ctx, f.depot.ID, sched.ID))
	})

	t.Run("overlapping driver on a different bus", func(t *testing.T) {
		in := f.createInput()
		in.RouteID = f.route2.ID
		in.BusID = f.bus2.ID
		in.ConductorID = f.cond2.ID
		in.DepartureTime = "09:30"
		in.ArrivalTime = "11:00"
		_, err := svc.Create(ctx, f.depot.ID, in)

		var cErr *errs.ConflictError
		require.ErrorAs(t, err, &cErr)
		require.Len(t, cErr.Conflicts, 1)
		assert.Contains(t, cErr.Conflicts[0], "Driver Nimal Perera")
		assert.Contains(t, cErr.Conflicts[0], "from 08:00 to 10:00")
	})

	t.Run("every overlapping resource is reported", func(t *testing.T) {
		in := f.createInput()
		in.RouteID = f.route2.ID
		in.DepartureTime = "08:30"
		in.ArrivalTime = "09:30"
		_, err := svc.Create(ctx, f.depot.ID, in)

		var cErr *errs.ConflictError
		require.ErrorAs(t, err, &cErr)
		assert.Len(t, cErr.Conflicts, 3) // bus, driver and conductor all double-booked
	})
}

func TestServiceUpdate(t *testing.T) {
	gormDB := newTestDB(t)
	f := seed(t, gormDB)
	svc := NewService(gormDB)
	ctx := context.Background()

	sched, err := svc.Create(ctx, f.depot.ID, f.createInput())
	require.NoError(t, err)

	t.Run("progress-only update skips the conflict path", func(t *testing.T) {
		// Force an overlap behind the service's back; a progress update must
		// not notice it.
		in2 := f.createInput()
		in2.RouteID = f.route2.ID
		in2.BusID = f.bus2.ID
		in2.DriverID = f.driver2.ID
		in2.ConductorID = f.cond2.ID
		other, err := svc.Create(ctx, f.depot.ID, in2)
		require.NoError(t, err)
		require.NoError(t, gormDB.Model(&model.Schedule{}).Where("id = ?", other.ID).
			Update("bus_id", f.bus.ID).Error)

		done := 2
		status := model.ScheduleStatusInProgress
		updated, err := svc.Update(ctx, f.depot.ID, other.ID, UpdateInput{TripsDone: &done, Status: &status})
		require.NoError(t, err)
		assert.Equal(t, 2, updated.TripsDone)
		assert.Equal(t, model.ScheduleStatusInProgress, updated.Status)

		// Touching the window re-enters the conflict path and now fails.
		newArrival := "09:30"
		_, err = svc.Update(ctx, f.depot.ID, other.ID, UpdateInput{ArrivalTime: &newArrival})
		var cErr *errs.ConflictError
		require.ErrorAs(t, err, &cErr)

		require.NoError(t, svc.Delete(ctx, f.depot.ID, other.ID))
	})

	t.Run("trips done cannot exceed trips total", func(t *testing.T) {
		done := 5
		_, err := svc.Update(ctx, f.depot.ID, sched.ID, UpdateInput{TripsDone: &done})
		var vErr *errs.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "tripsDone", vErr.Field)

		done = 4
		updated, err := svc.Update(ctx, f.depot.ID, sched.ID, UpdateInput{TripsDone: &done})
		require.NoError(t, err)
		assert.Equal(t, 0, updated.TripsRemaining())
	})

	t.Run("status must follow the progression", func(t *testing.T) {
		completed := model.ScheduleStatusCompleted
		_, err := svc.Update(ctx, f.depot.ID, sched.ID, UpdateInput{Status: &completed})
		var vErr *errs.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "status", vErr.Field)

		inProgress := model.ScheduleStatusInProgress
		_, err = svc.Update(ctx, f.depot.ID, sched.ID, UpdateInput{Status: &inProgress})
		require.NoError(t, err)
		_, err = svc.Update(ctx, f.depot.ID, sched.ID, UpdateInput{Status: &completed})
		require.NoError(t, err)

		// Completed is terminal.
		scheduled := model.ScheduleStatusScheduled
		_, err = svc.Update(ctx, f.depot.ID, sched.ID, UpdateInput{Status: &scheduled})
		require.ErrorAs(t, err, &vErr)
	})

	t.Run("cancel from scheduled", func(t *testing.T) {
		in := f.createInput()
		in.Date = "2024-06-03"
		s, err := svc.Create(ctx, f.depot.ID, in)
		require.NoError(t, err)

		cancelled := model.ScheduleStatusCancelled
		updated, err := svc.Update(ctx, f.depot.ID, s.ID, UpdateInput{Status: &cancelled})
		require.NoError(t, err)
		assert.Equal(t, model.ScheduleStatusCancelled, updated.Status)

		// Cancelled is terminal too.
		inProgress := model.ScheduleStatusInProgress
		_, err = svc.Update(ctx, f.depot.ID, s.ID, UpdateInput{Status: &inProgress})
		var vErr *errs.ValidationError
		require.ErrorAs(t, err, &vErr)
	})

	t.Run("changing a resource re-validates it", func(t *testing.T) {
		in := f.createInput()
		in.Date = "2024-06-04"
		s, err := svc.Create(ctx, f.depot.ID, in)
		require.NoError(t, err)

		require.NoError(t, gormDB.Model(&model.Bus{}).Where("id = ?", f.bus2.ID).
			Update("status", model.BusStatusBreakdown).Error)
		_, err = svc.Update(ctx, f.depot.ID, s.ID, UpdateInput{BusID: &f.bus2.ID})
		var ruErr *errs.ResourceUnavailableError
		require.ErrorAs(t, err, &ruErr)
		require.NoError(t, gormDB.Model(&model.Bus{}).Where("id = ?", f.bus2.ID).
			Update("status", model.BusStatusActive).Error)
	})

	t.Run("unknown schedule", func(t *testing.T) {
		done := 1
		_, err := svc.Update(ctx, f.depot.ID, 9999, UpdateInput{TripsDone: &done})
		var nfErr *errs.NotFoundError
		require.ErrorAs(t, err, &nfErr)
	})
}

func TestServiceReassign(t *testing.T) {
	gormDB := newTestDB(t)
	f := seed(t, gormDB)
	svc := NewService(gormDB)
	ctx := context.Background()

	sched, err := svc.Create(ctx, f.depot.ID, f.createInput())
	require.NoError(t, err)

	// Simulate a deleted driver: flag the schedule and null the reference.
	require.NoError(t, gormDB.Model(&model.Schedule{}).Where("id = ?", sched.ID).
		Updates(map[string]any{"flagged_for_reassignment": true, "driver_id": nil}).Error)

	t.Run("requires a full assignment", func(t *testing.T) {
		_, err := svc.Reassign(ctx, f.depot.ID, sched.ID, ReassignInput{BusID: &f.bus2.ID})
		var vErr *errs.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "driverId", vErr.Field)
	})

	t.Run("empty input is rejected", func(t *testing.T) {
		_, err := svc.Reassign(ctx, f.depot.ID, sched.ID, ReassignInput{})
		var vErr *errs.ValidationError
		require.ErrorAs(t, err, &vErr)
	})

	t.Run("success clears the flag", func(t *testing.T) {
		updated, err := svc.Reassign(ctx, f.depot.ID, sched.ID, ReassignInput{DriverID: &f.driver2.ID})
		require.NoError(t, err)
		assert.False(t, updated.FlaggedForReassignment)
		assert.True(t, updated.DriverID.Is(f.driver2.ID))
		assert.True(t, updated.BusID.Is(f.bus.ID), "untouched resources keep their assignment")
	})

	t.Run("reassignment passes through the conflict check", func(t *testing.T) {
		// Another schedule occupies bus2 over the same window.
		in := f.createInput()
		in.RouteID = f.route2.ID
		in.BusID = f.bus2.ID
		in.DriverID = f.driver.ID
		in.ConductorID = f.cond2.ID
		_, err := svc.Create(ctx, f.depot.ID, in)
		require.NoError(t, err)

		_, err = svc.Reassign(ctx, f.depot.ID, sched.ID, ReassignInput{BusID: &f.bus2.ID})
		var cErr *errs.ConflictError
		require.ErrorAs(t, err, &cErr)
		require.Len(t, cErr.Conflicts, 1)
		assert.Contains(t, cErr.Conflicts[0], "Bus NB-5678")
	})

	t.Run("unavailable replacement is rejected", func(t *testing.T) {
		require.NoError(t, gormDB.Model(&model.Driver{}).Where("id = ?", f.driver2.ID).
			Update("availability", model.AvailabilityOff).Error)
		_, err := svc.Reassign(ctx, f.depot.ID, sched.ID, ReassignInput{DriverID: &f.driver2.ID})
		var ruErr *errs.ResourceUnavailableError
		require.ErrorAs(t, err, &ruErr)
	})
}

func TestServiceDelete(t *testing.T) {
	gormDB := newTestDB(t)
	f := seed(t, gormDB)
	svc := NewService(gormDB)
	ctx := context.Background()

	sched, err := svc.Create(ctx, f.depot.ID, f.createInput())
	require.NoError(t, err)

	t.Run("wrong depot cannot see the schedule", func(t *testing.T) {
		_, err := svc.Get(ctx, f.depot.ID+1, sched.ID)
		var nfErr *errs.NotFoundError
		require.ErrorAs(t, err, &nfErr)
		err = svc.Delete(ctx, f.depot.ID+1, sched.ID)
		require.ErrorAs(t, err, &nfErr)
	})

	t.Run("delete frees the window", func(t *testing.T) {
		require.NoError(t, svc.Delete(ctx, f.depot.ID, sched.ID))
		_, err := svc.Get(ctx, f.depot.ID, sched.ID)
		var nfErr *errs.NotFoundError
		require.ErrorAs(t, err, &nfErr)

		// The same assignment can be created again.
		_, err = svc.Create(ctx, f.depot.ID, f.createInput())
		require.NoError(t, err)
	})

	t.Run("unknown schedule", func(t *testing.T) {
		err := svc.Delete(ctx, f.depot.ID, 9999)
		var nfErr *errs.NotFoundError
		require.ErrorAs(t, err, &nfErr)
	})
}
