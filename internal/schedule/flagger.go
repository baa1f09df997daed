package schedule

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"fleetops-backend/internal/model"
)

// ResourceKind names one of the three schedulable resource types.
type ResourceKind string

const (
	KindBus       ResourceKind = "bus"
	KindDriver    ResourceKind = "driver"
	KindConductor ResourceKind = "conductor"
)

// Label returns the capitalized form used in messages shown to operators.
func (k ResourceKind) Label() string {
	switch k {
	case KindBus:
		return "Bus"
	case KindDriver:
		return "Driver"
	case KindConductor:
		return "Conductor"
	}
	return string(k)
}

// FlagForResource marks every schedule that depends on a resource which just
// became unassignable. It must run inside the same transaction as the
// resource mutation: a window where stale assignments look valid would leave
// double-booked or orphaned schedules invisible to the operator.
//
// Only schedules that still represent pending work are touched: status
// scheduled or in_progress, date today or later. Past and terminal schedules
// keep their historical assignment. When removed is true (the resource was
// deleted) the reference column is nulled as well; a deactivated resource
// keeps its reference so the operator can see what the schedule used to run
// with.
//
// Returns the number of schedules flagged per depot, so the caller can notify
// those depots' operators after the transaction commits.
func FlagForResource(ctx context.Context, tx *gorm.DB, kind ResourceKind, resourceID int64, removed bool, today model.ISODate) (map[int64]int64, error) {
	column, ok := resourceColumn[kind]
	if !ok {
		return nil, fmt.Errorf("unknown resource kind %q", kind)
	}

	// Count before updating, and only the not-yet-flagged rows: the counts
	// feed "N schedules need reassignment" notifications, which must not
	// re-report schedules flagged by an earlier transition.
	var depotIDs []int64
	err := tx.WithContext(ctx).Model(&model.Schedule{}).
		Where(column+" = ? AND date >= ?", resourceID, today).
		Where("status IN ?", []model.ScheduleStatus{model.ScheduleStatusScheduled, model.ScheduleStatusInProgress}).
		Where("flagged_for_reassignment = ?", false).
		Pluck("depot_id", &depotIDs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to scan schedules for %s %d: %w", kind, resourceID, err)
	}
	counts := make(map[int64]int64, len(depotIDs))
	for _, id := range depotIDs {
		counts[id]++
	}

	// The update itself stays idempotent over the full match set, so a
	// deletion still clears the reference on schedules flagged earlier.
	updates := map[string]any{"flagged_for_reassignment": true}
	if removed {
		updates[column] = nil
	}

	res := tx.WithContext(ctx).Model(&model.Schedule{}).
		Where(column+" = ? AND date >= ?", resourceID, today).
		Where("status IN ?", []model.ScheduleStatus{model.ScheduleStatusScheduled, model.ScheduleStatusInProgress}).
		Updates(updates)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to flag schedules for %s %d: %w", kind, resourceID, res.Error)
	}

	logrus.WithFields(logrus.Fields{
		"resource": string(kind),
		"id":       resourceID,
		"removed":  removed,
		"flagged":  res.RowsAffected,
	}).Info("flagged schedules for reassignment")

	return counts, nil
}
