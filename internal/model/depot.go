package model

import "time"

// Depot represents an operational unit owning buses, staff and schedules.
type Depot struct {
	ID            int64     `gorm:"primaryKey" json:"id"`
	Name          string    `gorm:"uniqueIndex;size:128;not null" json:"name"`
	Location      string    `gorm:"size:256" json:"location"`
	City          string    `gorm:"size:128" json:"city"`
	ContactNumber string    `gorm:"size:32" json:"contactNumber"`
	CreatedAt     time.Time `gorm:"not null" json:"-"`
	UpdatedAt     time.Time `gorm:"not null" json:"-"`

	// Associations
	Buses      []Bus       `gorm:"foreignKey:DepotID" json:"-"`
	Drivers    []Driver    `gorm:"foreignKey:DepotID" json:"-"`
	Conductors []Conductor `gorm:"foreignKey:DepotID" json:"-"`
}
