// Package datastore owns the local SQLite database holding alert history.
package datastore

import (
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gorm_logger "gorm.io/gorm/logger"

	"github.com/herdwatch/herdwatch-go/internal/datastore/entities"
	"github.com/herdwatch/herdwatch-go/internal/errors"
	"github.com/herdwatch/herdwatch-go/internal/logger"
)

// Manager owns the database handle and schema lifecycle.
type Manager struct {
	db  *gorm.DB
	log logger.Logger
}

// Open opens (or creates) the database at path, ensures the schema exists,
// and seeds the default alerts when the alerts table is created for the
// first time. Open failure is the only storage error that is fatal to
// startup.
func Open(path string, log logger.Logger) (*Manager, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gorm_logger.Default.LogMode(gorm_logger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(err).
			Component("datastore").
			Category(errors.CategoryStorage).
			Context("path", path).
			Build()
	}

	m := &Manager{db: db, log: log}

	firstRun := !db.Migrator().HasTable(&entities.Alert{})
	if err := db.AutoMigrate(&entities.Alert{}); err != nil {
		return nil, errors.Wrap(err).
			Component("datastore").
			Category(errors.CategoryStorage).
			Context("operation", "migrate").
			Build()
	}

	if firstRun {
		if err := m.seedDefaultAlerts(); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// DB exposes the underlying handle for repositories.
func (m *Manager) DB() *gorm.DB {
	return m.db
}

// Close releases the underlying connection.
func (m *Manager) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// seedDefaultAlerts populates the freshly created table with the starter
// history shown on first launch.
func (m *Manager) seedDefaultAlerts() error {
	now := time.Now()
	defaults := []entities.Alert{
		{
			Type:    entities.TypePresence,
			Message: "Détection de mouvement dans l'enclos",
			Date:    entities.Timestamp(now.Add(-30 * time.Minute)),
		},
		{
			Type:    entities.TypeCamera,
			Message: "Perte de connexion avec la caméra de l'enclos",
			Date:    entities.Timestamp(now.Add(-2 * time.Hour)),
		},
		{
			Type:    entities.TypeGeneric,
			Message: "Il manque un boeuf dans l'enclos",
			Date:    entities.Timestamp(now.Add(-5 * time.Hour)),
		},
		{
			Type:    entities.TypePresence,
			Message: "Mouvement suspect détecté près de la barrière principale",
			Date:    entities.Timestamp(now.Add(-24 * time.Hour)),
		},
	}

	if err := m.db.Create(&defaults).Error; err != nil {
		return errors.Wrap(err).
			Component("datastore").
			Category(errors.CategoryStorage).
			Context("operation", "seed_defaults").
			Build()
	}
	m.log.Info("seeded default alerts", logger.Int("count", len(defaults)))
	return nil
}
