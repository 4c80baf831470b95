package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gorm_logger "gorm.io/gorm/logger"

	"github.com/herdwatch/herdwatch-go/internal/datastore/entities"
)

// setupTestDB creates an in-memory SQLite database for alert tests.
// Uses shared-cache mode with a single connection so all operations see the
// same in-memory database.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: gorm_logger.Default.LogMode(gorm_logger.Silent),
	})
	require.NoError(t, err, "failed to open in-memory database")

	sqlDB, err := db.DB()
	require.NoError(t, err, "failed to get sql.DB")
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&entities.Alert{}), "failed to migrate alerts table")
	return db
}

func insertTestAlert(t *testing.T, repo AlertRepository, typ, message string, date time.Time) *entities.Alert {
	t.Helper()
	alert := &entities.Alert{
		Type:    typ,
		Message: message,
		Date:    entities.Timestamp(date),
	}
	require.NoError(t, repo.Insert(t.Context(), alert))
	return alert
}

func TestAlertRepository_InsertAssignsID(t *testing.T) {
	repo := NewAlertRepository(setupTestDB(t))

	alert := insertTestAlert(t, repo, entities.TypePresence, "Détection de mouvement dans l'enclos", time.Now())
	assert.NotZero(t, alert.ID)

	got, err := repo.GetByID(t.Context(), alert.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.TypePresence, got.Type)
	assert.Equal(t, "Détection de mouvement dans l'enclos", got.Message)
	assert.False(t, got.Read)
	assert.Nil(t, got.VideoURI)
	assert.Nil(t, got.ScreenshotURI)
}

func TestAlertRepository_InsertNormalizesLegacyType(t *testing.T) {
	repo := NewAlertRepository(setupTestDB(t))

	alert := insertTestAlert(t, repo, "supplis", "ALERTE: SURPLUS !", time.Now())

	got, err := repo.GetByID(t.Context(), alert.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.TypeSurplus, got.Type)
}

func TestAlertRepository_GetAllOrderedByDateDesc(t *testing.T) {
	repo := NewAlertRepository(setupTestDB(t))
	now := time.Now()

	oldest := insertTestAlert(t, repo, entities.TypeGeneric, "oldest", now.Add(-3*time.Hour))
	newest := insertTestAlert(t, repo, entities.TypeGeneric, "newest", now)
	middle := insertTestAlert(t, repo, entities.TypeGeneric, "middle", now.Add(-1*time.Hour))

	alerts, err := repo.GetAll(t.Context())
	require.NoError(t, err)
	require.Len(t, alerts, 3)
	assert.Equal(t, newest.ID, alerts[0].ID)
	assert.Equal(t, middle.ID, alerts[1].ID)
	assert.Equal(t, oldest.ID, alerts[2].ID)
}

func TestAlertRepository_GetAllTieBrokenByInsertionOrder(t *testing.T) {
	repo := NewAlertRepository(setupTestDB(t))
	date := time.Now()

	first := insertTestAlert(t, repo, entities.TypeGeneric, "first", date)
	second := insertTestAlert(t, repo, entities.TypeGeneric, "second", date)

	alerts, err := repo.GetAll(t.Context())
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	assert.Equal(t, second.ID, alerts[0].ID, "later insert wins the tiebreak")
	assert.Equal(t, first.ID, alerts[1].ID)
}

func TestAlertRepository_GetByID_NotFound(t *testing.T) {
	repo := NewAlertRepository(setupTestDB(t))

	_, err := repo.GetByID(t.Context(), 9999)
	require.ErrorIs(t, err, ErrAlertNotFound)
}

func TestAlertRepository_DeleteByID(t *testing.T) {
	repo := NewAlertRepository(setupTestDB(t))

	alert := insertTestAlert(t, repo, entities.TypeGeneric, "to delete", time.Now())

	removed, err := repo.DeleteByID(t.Context(), alert.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	_, err = repo.GetByID(t.Context(), alert.ID)
	require.ErrorIs(t, err, ErrAlertNotFound)

	removed, err = repo.DeleteByID(t.Context(), alert.ID)
	require.NoError(t, err)
	assert.False(t, removed, "second delete should report no row removed")
}

func TestAlertRepository_DeleteAll(t *testing.T) {
	repo := NewAlertRepository(setupTestDB(t))
	now := time.Now()

	for i := range 5 {
		insertTestAlert(t, repo, entities.TypeGeneric, "bulk", now.Add(time.Duration(-i)*time.Minute))
	}

	deleted, err := repo.DeleteAll(t.Context())
	require.NoError(t, err)
	assert.Equal(t, int64(5), deleted)

	alerts, err := repo.GetAll(t.Context())
	require.NoError(t, err)
	assert.Empty(t, alerts)

	unread, err := repo.CountUnread(t.Context())
	require.NoError(t, err)
	assert.Equal(t, int64(0), unread)

	// Idempotent on empty store
	deleted, err = repo.DeleteAll(t.Context())
	require.NoError(t, err)
	assert.Equal(t, int64(0), deleted)
}

func TestAlertRepository_MarkAsReadIdempotent(t *testing.T) {
	repo := NewAlertRepository(setupTestDB(t))

	alert := insertTestAlert(t, repo, entities.TypeShortage, "ALERTE: MANQUE !", time.Now())

	unread, err := repo.CountUnread(t.Context())
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)

	require.NoError(t, repo.MarkAsRead(t.Context(), alert.ID))

	unread, err = repo.CountUnread(t.Context())
	require.NoError(t, err)
	assert.Equal(t, int64(0), unread)

	// Second mark is a no-op success; count does not go negative.
	require.NoError(t, repo.MarkAsRead(t.Context(), alert.ID))

	got, err := repo.GetByID(t.Context(), alert.ID)
	require.NoError(t, err)
	assert.True(t, got.Read)

	unread, err = repo.CountUnread(t.Context())
	require.NoError(t, err)
	assert.Equal(t, int64(0), unread)
}

func TestAlertRepository_MarkAsRead_NotFound(t *testing.T) {
	repo := NewAlertRepository(setupTestDB(t))

	err := repo.MarkAsRead(t.Context(), 12345)
	require.ErrorIs(t, err, ErrAlertNotFound)
}

func TestAlertRepository_CountUnreadTransitions(t *testing.T) {
	repo := NewAlertRepository(setupTestDB(t))
	now := time.Now()

	a := insertTestAlert(t, repo, entities.TypeShortage, "ALERTE: MANQUE !\nDistance: 42cm", now)
	insertTestAlert(t, repo, entities.TypePresence, "mouvement", now)

	unread, err := repo.CountUnread(t.Context())
	require.NoError(t, err)
	assert.Equal(t, int64(2), unread)

	require.NoError(t, repo.MarkAsRead(t.Context(), a.ID))

	unread, err = repo.CountUnread(t.Context())
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)
}
