package peripheral

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herdwatch/herdwatch-go/internal/logger"
)

const testBaseURL = "http://192.168.1.50:80"

func testLogger() logger.Logger {
	return logger.NewSlogLogger(io.Discard, logger.LogLevelError, nil)
}

// newMockedClient returns a client whose transport is intercepted by httpmock.
func newMockedClient(t *testing.T) *Client {
	t.Helper()
	c := NewClient(testBaseURL, 2*time.Second, testLogger())
	httpmock.ActivateNonDefault(c.http)
	t.Cleanup(httpmock.DeactivateAndReset)
	return c
}

func TestCheckConnectivity_Success(t *testing.T) {
	c := newMockedClient(t)
	httpmock.RegisterResponder(http.MethodGet, testBaseURL+"/status",
		httpmock.NewStringResponder(http.StatusOK, "OK"))

	assert.True(t, c.CheckConnectivity(t.Context()))
}

func TestCheckConnectivity_NonSuccessStatus(t *testing.T) {
	c := newMockedClient(t)
	httpmock.RegisterResponder(http.MethodGet, testBaseURL+"/status",
		httpmock.NewStringResponder(http.StatusServiceUnavailable, "busy"))

	assert.False(t, c.CheckConnectivity(t.Context()))
}

func TestCheckConnectivity_TransportError(t *testing.T) {
	c := newMockedClient(t)
	httpmock.RegisterResponder(http.MethodGet, testBaseURL+"/status",
		httpmock.NewErrorResponder(errors.New("connection refused")))

	assert.False(t, c.CheckConnectivity(t.Context()))
}

func TestCheckConnectivity_PackageLevelTimeout(t *testing.T) {
	// A server that never answers within the probe timeout.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	assert.False(t, CheckConnectivity(t.Context(), srv.URL, 50*time.Millisecond))
	assert.True(t, CheckConnectivity(t.Context(), srv.URL, 2*time.Second))
}

func TestFetchAlerts_BareArrayPayload(t *testing.T) {
	c := newMockedClient(t)
	httpmock.RegisterResponder(http.MethodGet, testBaseURL+"/alerts",
		httpmock.NewStringResponder(http.StatusOK,
			`[{"type":"présence","message":"Détection de mouvement"},{"type":"manque","message":"ALERTE: MANQUE !","videoUri":"file:///clips/1.mp4"}]`))

	alerts, err := c.FetchAlerts(t.Context())
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	assert.Equal(t, "présence", alerts[0].Type)
	assert.Nil(t, alerts[0].VideoURI)
	require.NotNil(t, alerts[1].VideoURI)
	assert.Equal(t, "file:///clips/1.mp4", *alerts[1].VideoURI)
}

func TestFetchAlerts_WrappedObjectPayload(t *testing.T) {
	c := newMockedClient(t)
	httpmock.RegisterResponder(http.MethodGet, testBaseURL+"/alerts",
		httpmock.NewStringResponder(http.StatusOK,
			`{"alerts":[{"type":"surplus","message":"ALERTE: SURPLUS !"}]}`))

	alerts, err := c.FetchAlerts(t.Context())
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "surplus", alerts[0].Type)
}

func TestFetchAlerts_SkipsMalformedEntries(t *testing.T) {
	c := newMockedClient(t)
	httpmock.RegisterResponder(http.MethodGet, testBaseURL+"/alerts",
		httpmock.NewStringResponder(http.StatusOK,
			`[{"type":"manque","message":"ALERTE: MANQUE !"},"garbage",{"type":"x"}]`))

	alerts, err := c.FetchAlerts(t.Context())
	require.NoError(t, err)
	require.Len(t, alerts, 1, "entries without a message are dropped")
	assert.Equal(t, "ALERTE: MANQUE !", alerts[0].Message)
}

func TestFetchActiveAlert_NoneIs404(t *testing.T) {
	c := newMockedClient(t)
	httpmock.RegisterResponder(http.MethodGet, testBaseURL+"/alert",
		httpmock.NewStringResponder(http.StatusNotFound, "no alert"))

	alert, err := c.FetchActiveAlert(t.Context())
	require.NoError(t, err)
	assert.Nil(t, alert)
}

func TestFetchActiveAlert_Active(t *testing.T) {
	c := newMockedClient(t)
	httpmock.RegisterResponder(http.MethodGet, testBaseURL+"/alert",
		httpmock.NewStringResponder(http.StatusOK,
			`{"type":"manque","message":"ALERTE: MANQUE !","timestamp":"2025-06-01T12:00:00Z","objectCount":4,"expectedCount":5,"active":true}`))

	alert, err := c.FetchActiveAlert(t.Context())
	require.NoError(t, err)
	require.NotNil(t, alert)
	assert.True(t, alert.Active)
	assert.Equal(t, 4, alert.ObjectCount)
	assert.Equal(t, 5, alert.ExpectedCount)
}

func TestFetchRadar_Sample(t *testing.T) {
	c := newMockedClient(t)
	httpmock.RegisterResponder(http.MethodGet, testBaseURL+"/radar",
		httpmock.NewStringResponder(http.StatusOK,
			`{"angle":90,"distance":120.5,"objectCount":3,"timestamp":"2025-06-01T12:00:00Z"}`))

	sample, err := c.FetchRadar(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 90, sample.Angle)
	assert.InDelta(t, 120.5, sample.Distance, 0.001)
	assert.Equal(t, 3, sample.ObjectCount)
}

func TestFetchRadar_InBandError(t *testing.T) {
	c := newMockedClient(t)
	httpmock.RegisterResponder(http.MethodGet, testBaseURL+"/radar",
		httpmock.NewStringResponder(http.StatusOK, `{"error":"sensor not ready"}`))

	_, err := c.FetchRadar(t.Context())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sensor not ready")
}

func TestFetchRadar_NegativeDistanceRejected(t *testing.T) {
	c := newMockedClient(t)
	httpmock.RegisterResponder(http.MethodGet, testBaseURL+"/radar",
		httpmock.NewStringResponder(http.StatusOK,
			`{"angle":10,"distance":-5,"objectCount":1}`))

	_, err := c.FetchRadar(t.Context())
	assert.Error(t, err)
}

func TestConfigRoundTrip(t *testing.T) {
	c := newMockedClient(t)
	httpmock.RegisterResponder(http.MethodGet, testBaseURL+"/config",
		httpmock.NewStringResponder(http.StatusOK,
			`{"expectedCount":5,"detectionThreshold":50}`))
	httpmock.RegisterResponder(http.MethodPost, testBaseURL+"/config",
		httpmock.NewStringResponder(http.StatusOK, "{}"))

	cfg, err := c.GetConfig(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.ExpectedCount)
	assert.InDelta(t, 50.0, cfg.DetectionThreshold, 0.001)

	cfg.ExpectedCount = 6
	require.NoError(t, c.UpdateConfig(t.Context(), cfg))

	info := httpmock.GetCallCountInfo()
	assert.Equal(t, 1, info["POST "+testBaseURL+"/config"])
}

func TestRunDiagnostics_ReportsPerEndpoint(t *testing.T) {
	c := newMockedClient(t)
	httpmock.RegisterResponder(http.MethodGet, testBaseURL+"/status",
		httpmock.NewStringResponder(http.StatusOK, "OK"))
	httpmock.RegisterResponder(http.MethodGet, testBaseURL+"/radar",
		httpmock.NewErrorResponder(errors.New("connection refused")))
	httpmock.RegisterResponder(http.MethodGet, testBaseURL+"/config",
		httpmock.NewStringResponder(http.StatusOK, `{"expectedCount":5,"detectionThreshold":50}`))

	results := c.RunDiagnostics(t.Context())
	require.Len(t, results, 3)

	assert.True(t, results[0].OK)
	assert.Equal(t, "/status", results[0].Endpoint)
	assert.False(t, results[1].OK)
	assert.NotEmpty(t, results[1].Error)
	assert.True(t, results[2].OK)
}
