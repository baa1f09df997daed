package model

import "time"

// MaintenanceType classifies why a bus is in the workshop.
type MaintenanceType string

const (
	MaintenanceTypeRoutine   MaintenanceType = "routine"
	MaintenanceTypeRepair    MaintenanceType = "repair"
	MaintenanceTypeBreakdown MaintenanceType = "breakdown"
)

// Valid reports whether t is one of the recognized maintenance types.
func (t MaintenanceType) Valid() bool {
	switch t {
	case MaintenanceTypeRoutine, MaintenanceTypeRepair, MaintenanceTypeBreakdown:
		return true
	}
	return false
}

// MaintenanceStatus tracks a maintenance record's progress.
type MaintenanceStatus string

const (
	MaintenanceStatusScheduled  MaintenanceStatus = "scheduled"
	MaintenanceStatusInProgress MaintenanceStatus = "in_progress"
	MaintenanceStatusCompleted  MaintenanceStatus = "completed"
)

// Valid reports whether s is one of the recognized maintenance statuses.
func (s MaintenanceStatus) Valid() bool {
	switch s {
	case MaintenanceStatusScheduled, MaintenanceStatusInProgress, MaintenanceStatusCompleted:
		return true
	}
	return false
}

// MaintenanceRecord is one workshop visit for exactly one bus. CompletedDate,
// when present, is never earlier than ScheduledDate.
type MaintenanceRecord struct {
	ID            int64             `gorm:"primaryKey" json:"id"`
	BusID         int64             `gorm:"index;not null" json:"busId"`
	Type          MaintenanceType   `gorm:"size:16;not null" json:"type"`
	Status        MaintenanceStatus `gorm:"size:16;not null;default:scheduled" json:"status"`
	Description   string            `gorm:"size:512" json:"description"`
	ScheduledDate ISODate           `gorm:"type:date;not null" json:"scheduledDate"`
	CompletedDate *ISODate          `gorm:"type:date" json:"completedDate"`
	Cost          float64           `json:"cost"`
	DepotID       int64             `gorm:"index;not null" json:"depotId"`
	CreatedAt     time.Time         `gorm:"not null" json:"-"`
	UpdatedAt     time.Time         `gorm:"not null" json:"-"`

	// Associations
	Bus Bus `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
