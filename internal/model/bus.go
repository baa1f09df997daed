package model

import "time"

// BusStatus is the operational state of a bus. Transitions are caller-driven;
// only an active bus may be attached to a schedule.
type BusStatus string

const (
	BusStatusActive      BusStatus = "active"
	BusStatusInactive    BusStatus = "inactive"
	BusStatusMaintenance BusStatus = "maintenance"
	BusStatusBreakdown   BusStatus = "breakdown"
)

// Valid reports whether s is one of the recognized bus statuses.
func (s BusStatus) Valid() bool {
	switch s {
	case BusStatusActive, BusStatusInactive, BusStatusMaintenance, BusStatusBreakdown:
		return true
	}
	return false
}

// Assignable reports whether a bus in this status may take new schedules.
func (s BusStatus) Assignable() bool {
	return s == BusStatusActive
}

// Bus represents a vehicle owned by a depot.
type Bus struct {
	ID                   int64     `gorm:"primaryKey" json:"id"`
	Number               string    `gorm:"uniqueIndex;size:32;not null" json:"number"`
	RegistrationNumber   string    `gorm:"size:32;not null" json:"registrationNumber"`
	Model                string    `gorm:"size:128" json:"model"`
	Mileage              float64   `json:"mileage"`
	DailyFuelConsumption float64   `json:"dailyFuelConsumption"`
	DailyRevenue         float64   `json:"dailyRevenue"`
	MaintenanceCost      float64   `json:"maintenanceCost"`
	Status               BusStatus `gorm:"size:16;not null;default:active;index" json:"status"`
	LastServiceDate      *ISODate  `gorm:"type:date" json:"lastServiceDate"`
	NextServiceDue       *ISODate  `gorm:"type:date" json:"nextServiceDue"`
	DepotID              int64     `gorm:"index;not null" json:"depotId"`
	CreatedAt            time.Time `gorm:"not null" json:"-"`
	UpdatedAt            time.Time `gorm:"not null" json:"-"`

	// Associations
	Depot Depot `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
