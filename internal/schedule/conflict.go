package schedule

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fleetops-backend/internal/model"
)

// proposal is the assignment a caller wants to commit: up to three resources
// on one date within one time window.
type proposal struct {
	BusID       model.ResourceRef
	DriverID    model.ResourceRef
	ConductorID model.ResourceRef
	Date        model.ISODate
	Window      TimeWindow
}

// resourceColumn maps a resource kind to the schedules column holding its id.
var resourceColumn = map[ResourceKind]string{
	KindBus:       "bus_id",
	KindDriver:    "driver_id",
	KindConductor: "conductor_id",
}

// CheckConflicts returns one human-readable description per overlapping
// commitment found for the proposed assignment. An empty slice means the
// proposal is conflict-free. The check is resource-scoped, not depot-scoped:
// a bus or a person cannot be in two places regardless of which depot booked
// it. Candidate rows are locked (postgres) so a concurrent request for the
// same resource and date serializes behind this transaction until the
// caller's write commits; the check and the write form one critical section.
//
// Volumes are small (per-resource, per-day schedule counts), so a linear scan
// over the day's schedules beats maintaining an interval tree.
func CheckConflicts(ctx context.Context, tx *gorm.DB, p proposal, excludeID int64) ([]string, error) {
	var conflicts []string

	type checked struct {
		kind ResourceKind
		ref  model.ResourceRef
	}
	for _, c := range []checked{
		{KindBus, p.BusID},
		{KindDriver, p.DriverID},
		{KindConductor, p.ConductorID},
	} {
		if !c.ref.Assigned {
			continue
		}
		found, err := conflictsForResource(ctx, tx, c.kind, c.ref.ID, p, excludeID)
		if err != nil {
			return nil, err
		}
		conflicts = append(conflicts, found...)
	}
	return conflicts, nil
}

// conflictsForResource scans one resource's same-date schedules for window
// overlaps.
func conflictsForResource(ctx context.Context, tx *gorm.DB, kind ResourceKind, id int64, p proposal, excludeID int64) ([]string, error) {
	q := tx.WithContext(ctx).
		Preload("Route").
		Where(resourceColumn[kind]+" = ? AND date = ?", id, p.Date).
		Where("status IN ?", []model.ScheduleStatus{model.ScheduleStatusScheduled, model.ScheduleStatusInProgress})
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var existing []model.Schedule
	if err := q.Find(&existing).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch %s schedules for conflict check: %w", kind, err)
	}
	if len(existing) == 0 {
		return nil, nil
	}

	label, err := resourceLabel(ctx, tx, kind, id)
	if err != nil {
		return nil, err
	}

	var conflicts []string
	for _, s := range existing {
		window, err := NewTimeWindow(s.DepartureTime, s.ArrivalTime)
		if err != nil {
			return nil, fmt.Errorf("schedule %d has a corrupt time window: %w", s.ID, err)
		}
		if !p.Window.Overlaps(window) {
			continue
		}
		conflicts = append(conflicts, fmt.Sprintf("%s %s is already scheduled on %s from %s to %s",
			kind.Label(), label, s.Route.Name, s.DepartureTime, s.ArrivalTime))
	}
	return conflicts, nil
}

// resourceLabel resolves the display name used in conflict messages: the bus
// number, or the staff member's name.
func resourceLabel(ctx context.Context, tx *gorm.DB, kind ResourceKind, id int64) (string, error) {
	var label string
	var err error
	switch kind {
	case KindBus:
		err = tx.WithContext(ctx).Model(&model.Bus{}).Select("number").Where("id = ?", id).Scan(&label).Error
	case KindDriver:
		err = tx.WithContext(ctx).Model(&model.Driver{}).Select("name").Where("id = ?", id).Scan(&label).Error
	case KindConductor:
		err = tx.WithContext(ctx).Model(&model.Conductor{}).Select("name").Where("id = ?", id).Scan(&label).Error
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s %d label: %w", kind, id, err)
	}
	if label == "" {
		label = fmt.Sprintf("#%d", id)
	}
	return label, nil
}
