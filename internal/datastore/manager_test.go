package datastore

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herdwatch/herdwatch-go/internal/datastore/entities"
	"github.com/herdwatch/herdwatch-go/internal/datastore/repository"
	"github.com/herdwatch/herdwatch-go/internal/logger"
)

func testLogger() logger.Logger {
	return logger.NewSlogLogger(io.Discard, logger.LogLevelError, nil)
}

func TestOpen_FirstRunSeedsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alerts.db")

	m, err := Open(path, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	repo := repository.NewAlertRepository(m.DB())
	alerts, err := repo.GetAll(t.Context())
	require.NoError(t, err)
	require.Len(t, alerts, 4, "first run should seed exactly 4 default alerts")

	for _, a := range alerts {
		assert.False(t, a.Read, "seeded alerts start unread")
		assert.NotEmpty(t, a.Date)
	}

	// Most recent default first (-30m, then -2h, -5h, -24h)
	assert.Equal(t, entities.TypePresence, alerts[0].Type)
	assert.Equal(t, "Détection de mouvement dans l'enclos", alerts[0].Message)
	assert.Equal(t, "Mouvement suspect détecté près de la barrière principale", alerts[3].Message)

	unread, err := repo.CountUnread(t.Context())
	require.NoError(t, err)
	assert.Equal(t, int64(4), unread)
}

func TestOpen_ReopenDoesNotReseed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alerts.db")

	m, err := Open(path, testLogger())
	require.NoError(t, err)

	repo := repository.NewAlertRepository(m.DB())
	deleted, err := repo.DeleteAll(t.Context())
	require.NoError(t, err)
	require.Equal(t, int64(4), deleted)
	require.NoError(t, m.Close())

	// Table already exists, so a reopen must not seed again even though the
	// store is empty.
	m2, err := Open(path, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = m2.Close() })

	alerts, err := repository.NewAlertRepository(m2.DB()).GetAll(t.Context())
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestOpen_BadPathFails(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing", "nested", "alerts.db"), testLogger())
	assert.Error(t, err)
}
