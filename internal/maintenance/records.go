package maintenance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"fleetops-backend/internal/errs"
	"fleetops-backend/internal/model"
	"fleetops-backend/internal/registry"
)

// Service manages maintenance records and the due-alert projection.
type Service struct {
	db          *gorm.DB
	reg         *registry.Registry
	dueSoonDays int
}

// NewService creates the maintenance service. dueSoonDays tunes the advisory
// window; zero means the default.
func NewService(db *gorm.DB, dueSoonDays int) *Service {
	if dueSoonDays <= 0 {
		dueSoonDays = DefaultDueSoonDays
	}
	return &Service{db: db, reg: registry.New(db), dueSoonDays: dueSoonDays}
}

// RecordInput is a create or update request for a maintenance record.
type RecordInput struct {
	BusID         int64   `json:"busId" binding:"required"`
	Type          string  `json:"type" binding:"required"`
	Status        string  `json:"status"`
	Description   string  `json:"description"`
	ScheduledDate string  `json:"scheduledDate" binding:"required"`
	CompletedDate *string `json:"completedDate"`
	Cost          float64 `json:"cost"`
}

func (s *Service) validate(ctx context.Context, depotID int64, in RecordInput) (*model.MaintenanceRecord, error) {
	mtype := model.MaintenanceType(in.Type)
	if !mtype.Valid() {
		return nil, errs.Validation("type", "unknown maintenance type %q", in.Type)
	}
	status := model.MaintenanceStatusScheduled
	if in.Status != "" {
		status = model.MaintenanceStatus(in.Status)
		if !status.Valid() {
			return nil, errs.Validation("status", "unknown maintenance status %q", in.Status)
		}
	}
	scheduled, err := model.ParseISODate(in.ScheduledDate)
	if err != nil {
		return nil, errs.Validation("scheduledDate", "%v", err)
	}
	var completed *model.ISODate
	if in.CompletedDate != nil && *in.CompletedDate != "" {
		c, err := model.ParseISODate(*in.CompletedDate)
		if err != nil {
			return nil, errs.Validation("completedDate", "%v", err)
		}
		if c.Before(scheduled) {
			return nil, errs.Validation("completedDate", "completed date %s cannot precede scheduled date %s", c, scheduled)
		}
		completed = &c
	}

	bus, err := s.reg.BusByID(ctx, in.BusID)
	if err != nil {
		return nil, err
	}
	if bus.DepotID != depotID {
		return nil, errs.NotFound("bus", in.BusID)
	}

	return &model.MaintenanceRecord{
		BusID:         bus.ID,
		Type:          mtype,
		Status:        status,
		Description:   in.Description,
		ScheduledDate: scheduled,
		CompletedDate: completed,
		Cost:          in.Cost,
		DepotID:       bus.DepotID,
	}, nil
}

// Create validates and persists a maintenance record. Creating a record does
// not change the bus's status; sending a bus to the workshop is an explicit
// caller decision on the bus itself.
func (s *Service) Create(ctx context.Context, depotID int64, in RecordInput) (*model.MaintenanceRecord, error) {
	record, err := s.validate(ctx, depotID, in)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, fmt.Errorf("failed to create maintenance record: %w", err)
	}
	return record, nil
}

// Update replaces a record's fields after the same validation as Create.
// Records are only reachable within their own depot scope.
func (s *Service) Update(ctx context.Context, depotID, id int64, in RecordInput) (*model.MaintenanceRecord, error) {
	var existing model.MaintenanceRecord
	if err := s.db.WithContext(ctx).Where("id = ? AND depot_id = ?", id, depotID).First(&existing).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("maintenance record", id)
		}
		return nil, fmt.Errorf("failed to fetch maintenance record %d: %w", id, err)
	}
	record, err := s.validate(ctx, depotID, in)
	if err != nil {
		return nil, err
	}
	record.ID = existing.ID
	record.CreatedAt = existing.CreatedAt
	if err := s.db.WithContext(ctx).Save(record).Error; err != nil {
		return nil, fmt.Errorf("failed to update maintenance record %d: %w", id, err)
	}
	return record, nil
}

// Delete removes a record within the depot scope.
func (s *Service) Delete(ctx context.Context, depotID, id int64) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND depot_id = ?", id, depotID).
		Delete(&model.MaintenanceRecord{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete maintenance record %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return errs.NotFound("maintenance record", id)
	}
	return nil
}

// List returns a depot's maintenance records, most recently scheduled first.
func (s *Service) List(ctx context.Context, depotID int64) ([]model.MaintenanceRecord, error) {
	var records []model.MaintenanceRecord
	err := s.db.WithContext(ctx).
		Where("depot_id = ?", depotID).
		Order("scheduled_date DESC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list maintenance records: %w", err)
	}
	return records, nil
}

// AssessBus evaluates one bus's service-due state as of now. Buses outside
// the depot scope are not visible.
func (s *Service) AssessBus(ctx context.Context, depotID, busID int64) (*Assessment, error) {
	bus, err := s.reg.BusByID(ctx, busID)
	if err != nil {
		return nil, err
	}
	if bus.DepotID != depotID {
		return nil, errs.NotFound("bus", busID)
	}
	a := Evaluate(bus, time.Now(), s.dueSoonDays)
	return &a, nil
}

// DueAlerts evaluates every depot bus that has a next-service date and
// returns the ones due soon or overdue, feeding dashboard alerts.
func (s *Service) DueAlerts(ctx context.Context, depotID int64) ([]Assessment, error) {
	var buses []model.Bus
	err := s.db.WithContext(ctx).
		Where("depot_id = ? AND next_service_due IS NOT NULL", depotID).
		Order("next_service_due").
		Find(&buses).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list buses for due alerts: %w", err)
	}

	now := time.Now()
	alerts := make([]Assessment, 0, len(buses))
	for i := range buses {
		a := Evaluate(&buses[i], now, s.dueSoonDays)
		if a.IsOverdue || a.IsDueSoon {
			alerts = append(alerts, a)
		}
	}
	return alerts, nil
}
