// Package repository provides data access for persisted alerts.
package repository

import (
	"context"

	"github.com/herdwatch/herdwatch-go/internal/datastore/entities"
	"github.com/herdwatch/herdwatch-go/internal/errors"
)

// ErrAlertNotFound is returned when an alert ID does not exist.
var ErrAlertNotFound = errors.New("alert not found")

// AlertRepository handles alert history persistence.
//
// GetAll returns alerts most recent first (date DESC, id DESC tiebreak).
// MarkAsRead is idempotent: marking an already-read alert succeeds without
// effect. DeleteAll succeeds on an empty store.
type AlertRepository interface {
	Insert(ctx context.Context, alert *entities.Alert) error
	GetAll(ctx context.Context) ([]entities.Alert, error)
	GetByID(ctx context.Context, id uint) (*entities.Alert, error)
	DeleteByID(ctx context.Context, id uint) (bool, error)
	DeleteAll(ctx context.Context) (int64, error)
	MarkAsRead(ctx context.Context, id uint) error
	CountUnread(ctx context.Context) (int64, error)
}
