package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/herdwatch/herdwatch-go/internal/datastore/entities"
	"github.com/herdwatch/herdwatch-go/internal/errors"
)

// alertRepository implements AlertRepository on GORM.
type alertRepository struct {
	db *gorm.DB
}

// NewAlertRepository creates a new AlertRepository.
func NewAlertRepository(db *gorm.DB) AlertRepository {
	return &alertRepository{db: db}
}

// storageErr wraps an underlying engine failure so callers can route it by
// category.
func storageErr(op string, err error) error {
	return errors.Wrap(err).
		Component("datastore").
		Category(errors.CategoryStorage).
		Context("operation", op).
		Build()
}

// Insert creates a new alert row. The assigned ID is written back to alert.
func (r *alertRepository) Insert(ctx context.Context, alert *entities.Alert) error {
	if alert.Date == "" {
		alert.Date = entities.Now()
	}
	alert.Type = entities.NormalizeType(alert.Type)
	if err := r.db.WithContext(ctx).Create(alert).Error; err != nil {
		return storageErr("insert", err)
	}
	return nil
}

// GetAll returns all alerts, most recent first. Equal dates are broken by
// insertion order, newest first.
func (r *alertRepository) GetAll(ctx context.Context) ([]entities.Alert, error) {
	var alerts []entities.Alert
	if err := r.db.WithContext(ctx).Order("date DESC, id DESC").Find(&alerts).Error; err != nil {
		return nil, storageErr("get_all", err)
	}
	return alerts, nil
}

// GetByID returns a single alert, or ErrAlertNotFound.
func (r *alertRepository) GetByID(ctx context.Context, id uint) (*entities.Alert, error) {
	var alert entities.Alert
	if err := r.db.WithContext(ctx).First(&alert, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAlertNotFound
		}
		return nil, storageErr("get_by_id", err)
	}
	return &alert, nil
}

// DeleteByID removes one alert and reports whether a row was actually removed.
func (r *alertRepository) DeleteByID(ctx context.Context, id uint) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&entities.Alert{}, id)
	if result.Error != nil {
		return false, storageErr("delete_by_id", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// DeleteAll removes every alert. Deleting from an empty store is a no-op
// success.
func (r *alertRepository) DeleteAll(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).Where("1 = 1").Delete(&entities.Alert{})
	if result.Error != nil {
		return 0, storageErr("delete_all", result.Error)
	}
	return result.RowsAffected, nil
}

// MarkAsRead sets the read flag. Marking an already-read alert succeeds.
// Returns ErrAlertNotFound for a missing ID.
func (r *alertRepository) MarkAsRead(ctx context.Context, id uint) error {
	var alert entities.Alert
	if err := r.db.WithContext(ctx).Select("id", "read").First(&alert, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAlertNotFound
		}
		return storageErr("mark_as_read", err)
	}
	if alert.Read {
		return nil
	}
	if err := r.db.WithContext(ctx).Model(&entities.Alert{}).
		Where("id = ?", id).Update("read", true).Error; err != nil {
		return storageErr("mark_as_read", err)
	}
	return nil
}

// CountUnread returns the number of alerts with read = false.
func (r *alertRepository) CountUnread(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entities.Alert{}).
		Where("read = ?", false).Count(&count).Error; err != nil {
		return 0, storageErr("count_unread", err)
	}
	return count, nil
}
