package notification

import (
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herdwatch/herdwatch-go/internal/logger"
)

func testLogger() logger.Logger {
	return logger.NewSlogLogger(io.Discard, logger.LogLevelError, nil)
}

func TestService_CreateBroadcastsToSubscribers(t *testing.T) {
	svc := NewService(&ServiceConfig{Enabled: true}, testLogger())

	ch, cancel := svc.Subscribe()
	defer cancel()

	n, err := svc.Create(TypeAlert, PriorityHigh, "Alerte manque", "ALERTE: MANQUE !")
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.NotEmpty(t, n.ID)

	select {
	case got := <-ch:
		assert.Equal(t, n.ID, got.ID)
		assert.Equal(t, "Alerte manque", got.Title)
		assert.Equal(t, PriorityHigh, got.Priority)
	case <-time.After(time.Second):
		t.Fatal("subscriber did not receive notification")
	}
}

func TestService_DisabledIsSilentNoOp(t *testing.T) {
	svc := NewService(&ServiceConfig{Enabled: false}, testLogger())

	ch, cancel := svc.Subscribe()
	defer cancel()

	n, err := svc.Create(TypeAlert, PriorityHigh, "title", "message")
	require.NoError(t, err)
	assert.Nil(t, n, "disabled service should not create notifications")

	svc.SendAlert("manque", "ALERTE: MANQUE !", nil)

	select {
	case <-ch:
		t.Fatal("disabled service must not broadcast")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestService_SendAlertAttachesMetadata(t *testing.T) {
	svc := NewService(&ServiceConfig{Enabled: true}, testLogger())

	ch, cancel := svc.Subscribe()
	defer cancel()

	svc.SendAlert("manque", "ALERTE: MANQUE !", map[string]any{"severity": "high"})

	select {
	case got := <-ch:
		assert.Equal(t, TypeAlert, got.Type)
		assert.Equal(t, "manque", got.Metadata["alertType"])
		assert.Equal(t, "high", got.Metadata["severity"])
		assert.NotEmpty(t, got.Metadata["timestamp"])
	case <-time.After(time.Second):
		t.Fatal("subscriber did not receive alert notification")
	}
}

func TestService_UnsubscribeStopsDelivery(t *testing.T) {
	svc := NewService(&ServiceConfig{Enabled: true}, testLogger())

	ch, cancel := svc.Subscribe()
	cancel()

	_, err := svc.Create(TypeSystem, PriorityLow, "t", "m")
	require.NoError(t, err)

	_, open := <-ch
	assert.False(t, open, "channel should be closed after unsubscribe")
}

func TestService_InvalidPushURLKeepsBroadcastWorking(t *testing.T) {
	svc := NewService(&ServiceConfig{
		Enabled:  true,
		PushURLs: []string{"not-a-valid-scheme://nope"},
	}, testLogger())

	ch, cancel := svc.Subscribe()
	defer cancel()

	_, err := svc.Create(TypeAlert, PriorityHigh, "title", "message")
	require.NoError(t, err)

	select {
	case got := <-ch:
		assert.Equal(t, "title", got.Title)
	case <-time.After(time.Second):
		t.Fatal("broadcast should survive a bad push URL")
	}
}

func TestSetServiceForTesting(t *testing.T) {
	t.Cleanup(func() { _ = SetServiceForTesting(nil) })

	svc := NewService(&ServiceConfig{Enabled: true}, testLogger())
	require.NoError(t, SetServiceForTesting(svc))
	assert.True(t, IsInitialized())
	assert.Same(t, svc, GetService())

	err := SetServiceForTesting(NewService(&ServiceConfig{}, testLogger()))
	assert.Error(t, err, "second set must be rejected while initialized")
}
