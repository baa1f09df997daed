package db

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"fleetops-backend/config"
	"fleetops-backend/internal/model"
)

// Init initializes the database connection and runs migrations.
func Init(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)

	if err := Migrate(db); err != nil {
		return nil, err
	}

	if cfg.EnableConflictGuard {
		logrus.Info("applying conflict-guard DDL")
		if err := applyConflictGuardDDL(db); err != nil {
			return nil, err
		}
	}

	logrus.Info("database initialization complete")
	return db, nil
}

// Migrate runs the schema migrations for every entity. Exposed separately so
// tests can migrate an in-memory database.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Depot{},
		&model.Route{},
		&model.Bus{},
		&model.Driver{},
		&model.Conductor{},
		&model.Schedule{},
		&model.MaintenanceRecord{},
		&model.PushSubscription{},
	); err != nil {
		return fmt.Errorf("automigrate failed: %w", err)
	}
	return nil
}

// applyConflictGuardDDL adds the postgres-side support for the conflict
// checker: GiST indexes over (resource, date, time range) so the same-date
// lookups inside the check-then-act transaction stay cheap, plus a sanity
// check that departure precedes arrival. The transaction-plus-row-locks path
// in the schedule service is the primary defense against double booking; this
// DDL is the storage-side second line.
func applyConflictGuardDDL(db *gorm.DB) error {
	ddls := []string{
		"CREATE EXTENSION IF NOT EXISTS btree_gist;",

		"ALTER TABLE schedules DROP CONSTRAINT IF EXISTS schedules_window_valid;",
		"ALTER TABLE schedules ADD CONSTRAINT schedules_window_valid CHECK (departure_time < arrival_time);",

		"CREATE INDEX IF NOT EXISTS idx_schedules_bus_window ON schedules " +
			"USING GIST (bus_id, date, tsrange(date + departure_time::time, date + arrival_time::time, '[)')) " +
			"WHERE bus_id IS NOT NULL;",
		"CREATE INDEX IF NOT EXISTS idx_schedules_driver_window ON schedules " +
			"USING GIST (driver_id, date, tsrange(date + departure_time::time, date + arrival_time::time, '[)')) " +
			"WHERE driver_id IS NOT NULL;",
		"CREATE INDEX IF NOT EXISTS idx_schedules_conductor_window ON schedules " +
			"USING GIST (conductor_id, date, tsrange(date + departure_time::time, date + arrival_time::time, '[)')) " +
			"WHERE conductor_id IS NOT NULL;",
	}

	for _, ddl := range ddls {
		if err := db.Exec(ddl).Error; err != nil {
			return fmt.Errorf("DDL failed on %q: %w", ddl, err)
		}
	}
	return nil
}
