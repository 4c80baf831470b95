// Package monitor maintains the live connection to the radar peripheral:
// the alert listener with its reconnect policy and duplicate suppression,
// and the independent radar telemetry poller.
package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/herdwatch/herdwatch-go/internal/conf"
	"github.com/herdwatch/herdwatch-go/internal/logger"
	"github.com/herdwatch/herdwatch-go/internal/peripheral"
)

// State is the listener connection state.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateBackoff      State = "backoff"
	StateOffline      State = "offline"
)

func (s State) gaugeValue() float64 {
	switch s {
	case StateConnecting:
		return 1
	case StateConnected:
		return 2
	case StateBackoff:
		return 3
	case StateOffline:
		return 4
	default:
		return 0
	}
}

// AlertSource is the peripheral surface the listener needs.
type AlertSource interface {
	CheckConnectivity(ctx context.Context) bool
	FetchAlerts(ctx context.Context) ([]peripheral.AlertPayload, error)
}

// AlertHandler consumes a dispatched alert. Implementations persist the alert
// before any notification side effect.
type AlertHandler interface {
	HandleIncomingAlert(ctx context.Context, payload *peripheral.AlertPayload) error
}

// ListenerConfig holds the connection and suppression policy.
type ListenerConfig struct {
	Transport            string
	WebSocketURL         string
	PollInterval         time.Duration
	ReconnectDelay       time.Duration
	MaxReconnectAttempts int
	DebounceWindow       time.Duration
	OfflineMode          bool
}

// ListenerConfigFromSettings maps the runtime configuration onto the listener.
func ListenerConfigFromSettings(s *conf.Settings) ListenerConfig {
	return ListenerConfig{
		Transport:            s.Monitor.Transport,
		WebSocketURL:         s.Radar.WebSocketURL(),
		PollInterval:         s.Monitor.PollInterval.Std(),
		ReconnectDelay:       s.Radar.ReconnectDelay.Std(),
		MaxReconnectAttempts: s.Radar.MaxReconnectAttempts,
		DebounceWindow:       s.Monitor.DebounceWindow.Std(),
		OfflineMode:          s.Monitor.OfflineMode,
	}
}

// Listener owns the peripheral connection lifecycle: probe, fetch, dedup,
// dispatch, reconnect with a bounded attempt budget, and the offline latch.
type Listener struct {
	cfg       ListenerConfig
	source    AlertSource
	handler   AlertHandler
	transport transport
	metrics   *Metrics
	log       logger.Logger

	// clock is swapped in tests to drive the debounce window.
	clock func() time.Time

	mu         sync.Mutex
	state      State
	running    bool
	generation uint64
	cancel     context.CancelFunc
	wg         sync.WaitGroup

	dedupMu      sync.Mutex
	lastMessage  string
	lastDispatch time.Time
}

// NewListener creates a stopped listener. Call Start to begin monitoring.
func NewListener(cfg ListenerConfig, source AlertSource, handler AlertHandler, metrics *Metrics, log logger.Logger) *Listener {
	l := &Listener{
		cfg:     cfg,
		source:  source,
		handler: handler,
		metrics: metrics,
		log:     log,
		clock:   time.Now,
		state:   StateDisconnected,
	}
	switch cfg.Transport {
	case conf.TransportSocket:
		l.transport = newSocketTransport(cfg.WebSocketURL, log)
	default:
		l.transport = newPollTransport(source, cfg.PollInterval)
	}
	return l
}

// State returns the current connection state.
func (l *Listener) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

func (l *Listener) setState(s State) {
	l.mu.Lock()
	l.state = s
	l.mu.Unlock()
	l.metrics.ConnectionState.Set(s.gaugeValue())
}

// Start begins monitoring. It is idempotent: starting a running listener is a
// no-op. With offline mode configured the listener latches Offline and makes
// no network attempts until reconfigured.
func (l *Listener) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running {
		return nil
	}
	if l.cfg.OfflineMode {
		l.state = StateOffline
		l.metrics.ConnectionState.Set(StateOffline.gaugeValue())
		l.log.Info("offline mode enabled, listener not started")
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.running = true
	l.generation++
	gen := l.generation

	l.wg.Add(1)
	go l.run(runCtx, gen)

	l.log.Info("alert listener started",
		logger.String("transport", l.transport.Name()),
		logger.Int("max_reconnect_attempts", l.cfg.MaxReconnectAttempts))
	return nil
}

// Stop halts monitoring and waits for in-flight work to finish. Results that
// arrive after Stop are discarded.
func (l *Listener) Stop() {
	l.mu.Lock()
	cancel := l.cancel
	l.cancel = nil
	l.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	l.wg.Wait()
	_ = l.transport.Close()

	l.mu.Lock()
	l.running = false
	if l.state != StateOffline {
		l.state = StateDisconnected
		l.metrics.ConnectionState.Set(StateDisconnected.gaugeValue())
	}
	l.mu.Unlock()
}

// run is the connection loop. Each cycle probes the peripheral before
// fetching; consecutive probe failures beyond the attempt budget latch the
// listener offline with no further retries until Start is called again.
func (l *Listener) run(ctx context.Context, gen uint64) {
	defer l.wg.Done()
	failures := 0

	for ctx.Err() == nil {
		l.setState(StateConnecting)
		if !l.source.CheckConnectivity(ctx) {
			if ctx.Err() != nil {
				return
			}
			failures++
			l.metrics.ProbeFailures.Inc()
			l.log.Warn("peripheral probe failed",
				logger.Int("attempt", failures),
				logger.Int("budget", l.cfg.MaxReconnectAttempts))

			if failures >= l.cfg.MaxReconnectAttempts {
				l.goOffline(gen)
				return
			}
			l.setState(StateBackoff)
			if !sleepCtx(ctx, l.cfg.ReconnectDelay) {
				return
			}
			l.metrics.Reconnects.Inc()
			continue
		}

		failures = 0
		l.setState(StateConnected)

		batch, err := l.transport.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			l.log.Warn("alert receive failed", logger.Error(err))
			l.setState(StateDisconnected)
			l.metrics.Reconnects.Inc()
			if !sleepCtx(ctx, l.cfg.ReconnectDelay) {
				return
			}
			continue
		}
		l.process(ctx, batch)
	}
}

// goOffline latches the offline state and releases the run loop.
func (l *Listener) goOffline(gen uint64) {
	l.mu.Lock()
	if l.generation == gen {
		l.running = false
		l.cancel = nil
	}
	l.state = StateOffline
	l.mu.Unlock()
	l.metrics.ConnectionState.Set(StateOffline.gaugeValue())
	l.log.Warn("reconnect budget exhausted, listener offline")
}

// process dispatches a batch through the duplicate-suppression cursor.
// The handler persists before notifying, so a dispatched alert is durable
// by the time any notification goes out.
func (l *Listener) process(ctx context.Context, batch []peripheral.AlertPayload) {
	for i := range batch {
		if ctx.Err() != nil {
			return
		}
		payload := &batch[i]
		if payload.Message == "" {
			continue
		}
		if !l.shouldDispatch(payload.Message) {
			l.metrics.AlertsSuppressed.Inc()
			l.log.Debug("duplicate alert suppressed",
				logger.String("message", payload.Message))
			continue
		}
		if err := l.handler.HandleIncomingAlert(ctx, payload); err != nil {
			l.log.Error("alert dispatch failed",
				logger.String("type", payload.Type),
				logger.Error(err))
			continue
		}
		l.metrics.AlertsDispatched.Inc()
	}
}

// shouldDispatch suppresses a message identical to the last dispatched one
// while the debounce window is open. Any dispatch resets the cursor.
func (l *Listener) shouldDispatch(message string) bool {
	now := l.clock()
	l.dedupMu.Lock()
	defer l.dedupMu.Unlock()

	if message == l.lastMessage && now.Sub(l.lastDispatch) < l.cfg.DebounceWindow {
		return false
	}
	l.lastMessage = message
	l.lastDispatch = now
	return true
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
