package model

import "time"

// Route is immutable reference data describing a service path between two
// locations. Routes are owned by the admin scope and shared across depots.
type Route struct {
	ID                int64     `gorm:"primaryKey" json:"id"`
	Name              string    `gorm:"uniqueIndex;size:128;not null" json:"name"`
	StartLocation     string    `gorm:"size:256;not null" json:"startLocation"`
	EndLocation       string    `gorm:"size:256;not null" json:"endLocation"`
	DistanceKm        float64   `json:"distanceKm"`
	EstimatedDuration int       `json:"estimatedDuration"` // minutes
	CreatedAt         time.Time `gorm:"not null" json:"-"`
	UpdatedAt         time.Time `gorm:"not null" json:"-"`
}
