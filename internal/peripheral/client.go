package peripheral

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/antonholmquist/jason"

	"github.com/herdwatch/herdwatch-go/internal/errors"
	"github.com/herdwatch/herdwatch-go/internal/logger"
)

// maxResponseBytes caps peripheral response bodies. The firmware serves tiny
// JSON documents; anything larger is a misbehaving endpoint.
const maxResponseBytes = 64 * 1024

// Client is an HTTP client for one peripheral unit.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
	log     logger.Logger
}

// NewClient creates a client for the peripheral at baseURL with a bounded
// per-request timeout.
func NewClient(baseURL string, timeout time.Duration, log logger.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		timeout: timeout,
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

// BaseURL returns the peripheral base URL this client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// CheckConnectivity probes {baseURL}/status with a bounded timeout. True only
// on an HTTP success status; timeouts, refused connections, and DNS failures
// all map to false. Retry policy belongs to the caller.
func CheckConnectivity(ctx context.Context, baseURL string, timeout time.Duration) bool {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/status", nil)
	if err != nil {
		return false
	}
	resp, err := (&http.Client{Timeout: timeout}).Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// CheckConnectivity probes this client's peripheral.
func (c *Client) CheckConnectivity(ctx context.Context) bool {
	_, err := c.get(ctx, "/status", false)
	return err == nil
}

func (c *Client) netErr(op, endpoint string, err error) error {
	return errors.Wrap(err).
		Component("peripheral").
		Category(errors.CategoryNetwork).
		Context("operation", op).
		Context("endpoint", endpoint).
		Build()
}

// get issues a bounded GET and returns the response body. A non-2xx status
// is an error except when allowNotFound is set and the status is 404, in
// which case (nil, nil) is returned.
func (c *Client) get(ctx context.Context, endpoint string, allowNotFound bool) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return nil, c.netErr("get", endpoint, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.netErr("get", endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if allowNotFound && resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.netErr("get", endpoint,
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, c.netErr("get", endpoint, err)
	}
	return body, nil
}

// FetchAlerts retrieves the batch of pending alerts from GET /alerts.
// The firmware has shipped two payload shapes — a bare JSON array and an
// object wrapping it under "alerts" — so both are accepted.
func (c *Client) FetchAlerts(ctx context.Context) ([]AlertPayload, error) {
	body, err := c.get(ctx, "/alerts", false)
	if err != nil {
		return nil, err
	}

	value, err := jason.NewValueFromBytes(body)
	if err != nil {
		return nil, c.netErr("fetch_alerts", "/alerts", err)
	}

	items, err := value.Array()
	if err != nil {
		obj, objErr := value.Object()
		if objErr != nil {
			return nil, c.netErr("fetch_alerts", "/alerts",
				fmt.Errorf("payload is neither array nor object: %w", err))
		}
		wrapped, wrapErr := obj.GetValueArray("alerts")
		if wrapErr != nil {
			return nil, c.netErr("fetch_alerts", "/alerts",
				fmt.Errorf("object payload missing alerts array: %w", wrapErr))
		}
		items = wrapped
	}

	alerts := make([]AlertPayload, 0, len(items))
	for _, item := range items {
		obj, err := item.Object()
		if err != nil {
			continue // skip malformed entries, keep the rest of the batch
		}
		var a AlertPayload
		a.Type, _ = obj.GetString("type")
		a.Message, _ = obj.GetString("message")
		if uri, err := obj.GetString("videoUri"); err == nil && uri != "" {
			a.VideoURI = &uri
		}
		if uri, err := obj.GetString("screenshotUri"); err == nil && uri != "" {
			a.ScreenshotURI = &uri
		}
		if a.Message == "" {
			continue
		}
		alerts = append(alerts, a)
	}
	return alerts, nil
}

// FetchActiveAlert retrieves the single latest alert condition from
// GET /alert. Returns (nil, nil) when the peripheral reports none (404).
func (c *Client) FetchActiveAlert(ctx context.Context) (*ActiveAlert, error) {
	body, err := c.get(ctx, "/alert", true)
	if err != nil {
		return nil, err
	}
	if body == nil {
		return nil, nil
	}

	var alert ActiveAlert
	if err := json.Unmarshal(body, &alert); err != nil {
		return nil, c.netErr("fetch_active_alert", "/alert", err)
	}
	return &alert, nil
}

// FetchRadar retrieves the latest telemetry sample from GET /radar.
// The firmware reports failures in-band as {"error": "..."}.
func (c *Client) FetchRadar(ctx context.Context) (*RadarSample, error) {
	body, err := c.get(ctx, "/radar", false)
	if err != nil {
		return nil, err
	}

	obj, err := jason.NewObjectFromBytes(body)
	if err != nil {
		return nil, c.netErr("fetch_radar", "/radar", err)
	}
	if msg, err := obj.GetString("error"); err == nil && msg != "" {
		return nil, errors.Newf("radar reported error: %s", msg).
			Component("peripheral").
			Category(errors.CategoryNetwork).
			Context("endpoint", "/radar").
			Build()
	}

	var sample RadarSample
	if angle, err := obj.GetInt64("angle"); err == nil {
		sample.Angle = int(angle)
	}
	if distance, err := obj.GetFloat64("distance"); err == nil {
		sample.Distance = distance
	}
	if count, err := obj.GetInt64("objectCount"); err == nil {
		sample.ObjectCount = int(count)
	}
	sample.Timestamp, _ = obj.GetString("timestamp")
	if sample.Timestamp == "" {
		sample.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	if sample.Distance < 0 || sample.ObjectCount < 0 {
		return nil, errors.Newf("invalid radar sample: negative distance or count").
			Component("peripheral").
			Category(errors.CategoryValidation).
			Context("distance", sample.Distance).
			Context("object_count", sample.ObjectCount).
			Build()
	}
	return &sample, nil
}

// GetConfig retrieves the peripheral detection configuration.
func (c *Client) GetConfig(ctx context.Context) (*Config, error) {
	body, err := c.get(ctx, "/config", false)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(body, &cfg); err != nil {
		return nil, c.netErr("get_config", "/config", err)
	}
	return &cfg, nil
}

// UpdateConfig pushes a new detection configuration via POST /config.
func (c *Client) UpdateConfig(ctx context.Context, cfg *Config) error {
	payload, err := json.Marshal(cfg)
	if err != nil {
		return c.netErr("update_config", "/config", err)
	}
	return c.post(ctx, "/config", payload)
}

// Reset asks the peripheral to reset its detection state via POST /reset.
func (c *Client) Reset(ctx context.Context) error {
	return c.post(ctx, "/reset", nil)
}

// Restart reboots the peripheral via GET /restart.
func (c *Client) Restart(ctx context.Context) error {
	_, err := c.get(ctx, "/restart", false)
	return err
}

func (c *Client) post(ctx context.Context, endpoint string, payload []byte) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, body)
	if err != nil {
		return c.netErr("post", endpoint, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return c.netErr("post", endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.netErr("post", endpoint,
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
	return nil
}
