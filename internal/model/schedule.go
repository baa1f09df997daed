package model

import "time"

// ScheduleStatus tracks a schedule through its life. Progression is
// scheduled -> in_progress -> completed, with cancelled reachable from any
// non-terminal state. Completed and cancelled are terminal.
type ScheduleStatus string

const (
	ScheduleStatusScheduled  ScheduleStatus = "scheduled"
	ScheduleStatusInProgress ScheduleStatus = "in_progress"
	ScheduleStatusCompleted  ScheduleStatus = "completed"
	ScheduleStatusCancelled  ScheduleStatus = "cancelled"
)

// Valid reports whether s is one of the recognized schedule statuses.
func (s ScheduleStatus) Valid() bool {
	switch s {
	case ScheduleStatusScheduled, ScheduleStatusInProgress, ScheduleStatusCompleted, ScheduleStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are allowed out of s.
func (s ScheduleStatus) Terminal() bool {
	return s == ScheduleStatusCompleted || s == ScheduleStatusCancelled
}

// CanTransitionTo reports whether moving from s to next is a legal step.
func (s ScheduleStatus) CanTransitionTo(next ScheduleStatus) bool {
	if s == next {
		return true
	}
	if s.Terminal() {
		return false
	}
	switch next {
	case ScheduleStatusCancelled:
		return true
	case ScheduleStatusInProgress:
		return s == ScheduleStatusScheduled
	case ScheduleStatusCompleted:
		return s == ScheduleStatusInProgress
	}
	return false
}

// Schedule commits a bus, driver and conductor to a route for a time window
// on a single date. The resource references are optional because a resource
// may be deleted after the schedule was created; such schedules carry the
// reassignment flag until an operator fixes them.
type Schedule struct {
	ID                     int64          `gorm:"primaryKey" json:"id"`
	RouteID                int64          `gorm:"index;not null" json:"routeId"`
	BusID                  ResourceRef    `gorm:"index;type:bigint" json:"busId"`
	DriverID               ResourceRef    `gorm:"index;type:bigint" json:"driverId"`
	ConductorID            ResourceRef    `gorm:"index;type:bigint" json:"conductorId"`
	Date                   ISODate        `gorm:"type:date;not null;index" json:"date"`
	DepartureTime          string         `gorm:"size:5;not null" json:"departureTime"` // "HH:MM"
	ArrivalTime            string         `gorm:"size:5;not null" json:"arrivalTime"`   // "HH:MM"
	Status                 ScheduleStatus `gorm:"size:16;not null;default:scheduled;index" json:"status"`
	TripsTotal             int            `gorm:"not null" json:"tripsTotal"`
	TripsDone              int            `gorm:"not null;default:0" json:"tripsDone"`
	FlaggedForReassignment bool           `gorm:"not null;default:false;index" json:"flaggedForReassignment"`
	DepotID                int64          `gorm:"index;not null" json:"depotId"`
	CreatedAt              time.Time      `gorm:"not null" json:"-"`
	UpdatedAt              time.Time      `gorm:"not null" json:"-"`

	// Associations
	Route Route `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
}

// TripsRemaining is derived, never stored.
func (s *Schedule) TripsRemaining() int {
	if r := s.TripsTotal - s.TripsDone; r > 0 {
		return r
	}
	return 0
}

// Active reports whether the schedule still represents pending or ongoing
// work. Only active schedules participate in conflict checks and in the
// reassignment-flagging scan.
func (s *Schedule) Active() bool {
	return s.Status == ScheduleStatusScheduled || s.Status == ScheduleStatusInProgress
}
