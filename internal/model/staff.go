package model

import "time"

// Availability is the duty state of a driver or conductor. Only available
// staff may be attached to a schedule.
type Availability string

const (
	AvailabilityAvailable Availability = "available"
	AvailabilityOnDuty    Availability = "on_duty"
	AvailabilityOff       Availability = "off"
	AvailabilityLeave     Availability = "leave"
)

// Valid reports whether a is one of the recognized availability states.
func (a Availability) Valid() bool {
	switch a {
	case AvailabilityAvailable, AvailabilityOnDuty, AvailabilityOff, AvailabilityLeave:
		return true
	}
	return false
}

// Assignable reports whether staff in this state may take new schedules.
func (a Availability) Assignable() bool {
	return a == AvailabilityAvailable
}

// Driver represents a bus driver employed by a depot.
type Driver struct {
	ID            int64        `gorm:"primaryKey" json:"id"`
	Name          string       `gorm:"size:128;not null" json:"name"`
	LicenseNumber string       `gorm:"size:64;not null" json:"licenseNumber"`
	LicenseExpiry *ISODate     `gorm:"type:date" json:"licenseExpiry"`
	ContactNumber string       `gorm:"size:32" json:"contactNumber"`
	Availability  Availability `gorm:"size:16;not null;default:available;index" json:"availability"`
	DepotID       int64        `gorm:"index;not null" json:"depotId"`
	CreatedAt     time.Time    `gorm:"not null" json:"-"`
	UpdatedAt     time.Time    `gorm:"not null" json:"-"`

	// Associations
	Depot Depot `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// Conductor represents a bus conductor employed by a depot. Structurally a
// driver without licensing details.
type Conductor struct {
	ID            int64        `gorm:"primaryKey" json:"id"`
	Name          string       `gorm:"size:128;not null" json:"name"`
	ContactNumber string       `gorm:"size:32" json:"contactNumber"`
	Availability  Availability `gorm:"size:16;not null;default:available;index" json:"availability"`
	DepotID       int64        `gorm:"index;not null" json:"depotId"`
	CreatedAt     time.Time    `gorm:"not null" json:"-"`
	UpdatedAt     time.Time    `gorm:"not null" json:"-"`

	// Associations
	Depot Depot `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
