// Package maintenance derives service-due state from bus service dates and
// manages workshop records. The evaluator is advisory: an overdue bus stays
// technically assignable until an operator explicitly moves it to
// maintenance or breakdown status.
package maintenance

import (
	"time"

	"fleetops-backend/internal/model"
)

// DefaultDueSoonDays is the advisory window used when no configuration is
// supplied.
const DefaultDueSoonDays = 30

// Assessment is the derived service-due state of one bus. Pure data, no side
// effects; consumed by dashboards and shown as an advisory during schedule
// creation.
type Assessment struct {
	BusID              int64           `json:"busId"`
	BusNumber          string          `json:"busNumber"`
	RegistrationNumber string          `json:"registrationNumber"`
	Status             model.BusStatus `json:"status"`
	LastServiceDate    *model.ISODate  `json:"lastServiceDate,omitempty"`
	NextServiceDue     *model.ISODate  `json:"nextServiceDue,omitempty"`
	IsOverdue          bool            `json:"isOverdue"`
	IsDueSoon          bool            `json:"isDueSoon"`
	DaysUntilDue       *int            `json:"daysUntilDue,omitempty"`
	DaysSinceDue       *int            `json:"daysSinceDue,omitempty"`
}

// Evaluate computes the service-due state of a bus as of today. A bus with no
// next-service date is never due or overdue. Due soon means the due date lies
// within [today, today+dueSoonDays]; overdue means it has passed.
func Evaluate(bus *model.Bus, today time.Time, dueSoonDays int) Assessment {
	if dueSoonDays <= 0 {
		dueSoonDays = DefaultDueSoonDays
	}

	a := Assessment{
		BusID:              bus.ID,
		BusNumber:          bus.Number,
		RegistrationNumber: bus.RegistrationNumber,
		Status:             bus.Status,
		LastServiceDate:    bus.LastServiceDate,
		NextServiceDue:     bus.NextServiceDue,
	}
	if bus.NextServiceDue == nil {
		return a
	}

	due, err := bus.NextServiceDue.Time()
	if err != nil {
		return a
	}
	todayDate, _ := model.DateOf(today).Time()

	days := int(due.Sub(todayDate).Hours() / 24)
	if days < 0 {
		a.IsOverdue = true
		since := -days
		a.DaysSinceDue = &since
	} else {
		a.IsDueSoon = days <= dueSoonDays
		until := days
		a.DaysUntilDue = &until
	}
	return a
}
