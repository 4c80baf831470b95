package monitor

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"github.com/herdwatch/herdwatch-go/internal/errors"
	"github.com/herdwatch/herdwatch-go/internal/logger"
	"github.com/herdwatch/herdwatch-go/internal/peripheral"
)

// transport is the strategy for receiving alert batches from the peripheral.
// Receive blocks until the next batch, an error, or ctx cancellation.
type transport interface {
	Receive(ctx context.Context) ([]peripheral.AlertPayload, error)
	Close() error
	Name() string
}

// pollTransport fetches pending alerts on a fixed interval.
type pollTransport struct {
	source   AlertSource
	interval time.Duration
}

func newPollTransport(source AlertSource, interval time.Duration) *pollTransport {
	return &pollTransport{source: source, interval: interval}
}

func (t *pollTransport) Name() string { return "poll" }

func (t *pollTransport) Receive(ctx context.Context) ([]peripheral.AlertPayload, error) {
	timer := time.NewTimer(t.interval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}
	return t.source.FetchAlerts(ctx)
}

func (t *pollTransport) Close() error { return nil }

// socketTransport receives pushed alerts over a WebSocket connection. The
// peripheral may send a single alert object or a batch under "alerts".
type socketTransport struct {
	url    string
	dialer *websocket.Dialer
	log    logger.Logger

	conn *websocket.Conn
}

func newSocketTransport(url string, log logger.Logger) *socketTransport {
	return &socketTransport{
		url: url,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
		log: log,
	}
}

func (t *socketTransport) Name() string { return "socket" }

func (t *socketTransport) Receive(ctx context.Context) ([]peripheral.AlertPayload, error) {
	if t.conn == nil {
		conn, _, err := t.dialer.DialContext(ctx, t.url, nil)
		if err != nil {
			return nil, errors.Wrap(err).
				Component("monitor").
				Category(errors.CategoryNetwork).
				Context("url", t.url).
				Build()
		}
		t.conn = conn
		// Unblock the pending read when the listener is stopped. Closing an
		// already-closed connection is harmless.
		go func(c *websocket.Conn) {
			<-ctx.Done()
			_ = c.Close()
		}(conn)
		t.log.Info("websocket connected", logger.String("url", t.url))
	}

	_, raw, err := t.conn.ReadMessage()
	if err != nil {
		_ = t.conn.Close()
		t.conn = nil
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.Wrap(err).
			Component("monitor").
			Category(errors.CategoryNetwork).
			Context("url", t.url).
			Build()
	}
	return decodeSocketMessage(raw)
}

// decodeSocketMessage accepts either {"alerts":[...]} or a bare alert object.
func decodeSocketMessage(raw []byte) ([]peripheral.AlertPayload, error) {
	var batch struct {
		Alerts []peripheral.AlertPayload `json:"alerts"`
	}
	if err := json.Unmarshal(raw, &batch); err == nil && len(batch.Alerts) > 0 {
		return batch.Alerts, nil
	}

	var single peripheral.AlertPayload
	if err := json.Unmarshal(raw, &single); err != nil {
		return nil, errors.Wrap(err).
			Component("monitor").
			Category(errors.CategoryValidation).
			Context("operation", "decode_socket_message").
			Build()
	}
	if single.Message == "" {
		return nil, nil
	}
	return []peripheral.AlertPayload{single}, nil
}

func (t *socketTransport) Close() error {
	if t.conn == nil {
		return nil
	}
	_ = t.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	err := t.conn.Close()
	t.conn = nil
	return err
}
