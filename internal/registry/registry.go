// Package registry is a read-only view over the current state of buses,
// drivers and conductors. It filters entity state at the moment of a
// scheduling decision; it never caches and never mutates.
package registry

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"fleetops-backend/internal/errs"
	"fleetops-backend/internal/model"
)

// Registry supplies resource snapshots for scheduling decisions.
type Registry struct {
	db *gorm.DB
}

// New creates a registry over the given database handle.
func New(db *gorm.DB) *Registry {
	return &Registry{db: db}
}

// WithTx returns a registry bound to a transaction, so lookups made during a
// check-then-act section observe the same snapshot the write will use.
func (r *Registry) WithTx(tx *gorm.DB) *Registry {
	return &Registry{db: tx}
}

// AssignableBuses lists the depot's buses eligible for new schedules.
func (r *Registry) AssignableBuses(ctx context.Context, depotID int64) ([]model.Bus, error) {
	var buses []model.Bus
	err := r.db.WithContext(ctx).
		Where("depot_id = ? AND status = ?", depotID, model.BusStatusActive).
		Order("number").
		Find(&buses).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list assignable buses: %w", err)
	}
	return buses, nil
}

// AssignableDrivers lists the depot's drivers eligible for new schedules.
func (r *Registry) AssignableDrivers(ctx context.Context, depotID int64) ([]model.Driver, error) {
	var drivers []model.Driver
	err := r.db.WithContext(ctx).
		Where("depot_id = ? AND availability = ?", depotID, model.AvailabilityAvailable).
		Order("name").
		Find(&drivers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list assignable drivers: %w", err)
	}
	return drivers, nil
}

// AssignableConductors lists the depot's conductors eligible for new schedules.
func (r *Registry) AssignableConductors(ctx context.Context, depotID int64) ([]model.Conductor, error) {
	var conductors []model.Conductor
	err := r.db.WithContext(ctx).
		Where("depot_id = ? AND availability = ?", depotID, model.AvailabilityAvailable).
		Order("name").
		Find(&conductors).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list assignable conductors: %w", err)
	}
	return conductors, nil
}

// BusByID fetches a bus regardless of status.
func (r *Registry) BusByID(ctx context.Context, id int64) (*model.Bus, error) {
	var bus model.Bus
	if err := r.db.WithContext(ctx).First(&bus, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("bus", id)
		}
		return nil, fmt.Errorf("failed to fetch bus %d: %w", id, err)
	}
	return &bus, nil
}

// DriverByID fetches a driver regardless of availability.
func (r *Registry) DriverByID(ctx context.Context, id int64) (*model.Driver, error) {
	var driver model.Driver
	if err := r.db.WithContext(ctx).First(&driver, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("driver", id)
		}
		return nil, fmt.Errorf("failed to fetch driver %d: %w", id, err)
	}
	return &driver, nil
}

// ConductorByID fetches a conductor regardless of availability.
func (r *Registry) ConductorByID(ctx context.Context, id int64) (*model.Conductor, error) {
	var conductor model.Conductor
	if err := r.db.WithContext(ctx).First(&conductor, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("conductor", id)
		}
		return nil, fmt.Errorf("failed to fetch conductor %d: %w", id, err)
	}
	return &conductor, nil
}

// RouteByID fetches a route.
func (r *Registry) RouteByID(ctx context.Context, id int64) (*model.Route, error) {
	var route model.Route
	if err := r.db.WithContext(ctx).First(&route, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("route", id)
		}
		return nil, fmt.Errorf("failed to fetch route %d: %w", id, err)
	}
	return &route, nil
}
