package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/herdwatch/herdwatch-go/internal/logger"
	"github.com/herdwatch/herdwatch-go/internal/peripheral"
)

// RadarSource is the peripheral surface the telemetry poller needs.
type RadarSource interface {
	FetchRadar(ctx context.Context) (*peripheral.RadarSample, error)
}

// sampleBuffer is the per-subscriber channel capacity. Slow subscribers miss
// samples; telemetry is a status indicator, not a record.
const sampleBuffer = 8

// RadarPoller fetches radar telemetry on a fixed interval. It is a separate
// failure domain from the alert listener: fetch failures are counted and
// logged but never stop the poller or touch the listener state.
type RadarPoller struct {
	source   RadarSource
	interval time.Duration
	metrics  *Metrics
	log      logger.Logger

	mu          sync.RWMutex
	latest      *peripheral.RadarSample
	running     bool
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	subscribers map[uint64]chan *peripheral.RadarSample
	nextSubID   uint64
}

// NewRadarPoller creates a stopped poller.
func NewRadarPoller(source RadarSource, interval time.Duration, metrics *Metrics, log logger.Logger) *RadarPoller {
	return &RadarPoller{
		source:      source,
		interval:    interval,
		metrics:     metrics,
		log:         log,
		subscribers: make(map[uint64]chan *peripheral.RadarSample),
	}
}

// Start begins polling. Idempotent.
func (p *RadarPoller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.running = true
	p.wg.Add(1)
	go p.run(runCtx)
}

// Stop halts polling and waits for the loop to exit.
func (p *RadarPoller) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	p.cancel = nil
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	p.wg.Wait()

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()
}

// Latest returns the most recent sample, or nil before the first success.
func (p *RadarPoller) Latest() *peripheral.RadarSample {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.latest
}

// Subscribe registers a telemetry consumer. The cancel function removes the
// subscription and closes the channel.
func (p *RadarPoller) Subscribe() (<-chan *peripheral.RadarSample, func()) {
	ch := make(chan *peripheral.RadarSample, sampleBuffer)
	p.mu.Lock()
	id := p.nextSubID
	p.nextSubID++
	p.subscribers[id] = ch
	p.mu.Unlock()

	cancel := func() {
		p.mu.Lock()
		if sub, ok := p.subscribers[id]; ok {
			delete(p.subscribers, id)
			close(sub)
		}
		p.mu.Unlock()
	}
	return ch, cancel
}

func (p *RadarPoller) run(ctx context.Context) {
	defer p.wg.Done()
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		sample, err := p.source.FetchRadar(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.metrics.RadarFailures.Inc()
			p.log.Debug("radar fetch failed", logger.Error(err))
			continue
		}
		p.metrics.RadarSamples.Inc()
		p.publish(sample)
	}
}

func (p *RadarPoller) publish(sample *peripheral.RadarSample) {
	p.mu.Lock()
	p.latest = sample
	subs := make([]chan *peripheral.RadarSample, 0, len(p.subscribers))
	for _, ch := range p.subscribers {
		subs = append(subs, ch)
	}
	p.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- sample:
		default:
			// Subscriber buffer full, drop for this consumer.
		}
	}
}
