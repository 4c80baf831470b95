// Package mqtt republishes dispatched alerts and radar telemetry to an MQTT
// broker so barn-side dashboards and automations can consume them.
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/herdwatch/herdwatch-go/internal/conf"
	"github.com/herdwatch/herdwatch-go/internal/errors"
	"github.com/herdwatch/herdwatch-go/internal/logger"
	"github.com/herdwatch/herdwatch-go/internal/notification"
	"github.com/herdwatch/herdwatch-go/internal/peripheral"
)

const publishTimeout = 5 * time.Second

// alertMessage is the wire shape published on the alert topic.
type alertMessage struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Priority  string         `json:"priority"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Timestamp string         `json:"timestamp"`
}

func encodeAlert(n *notification.Notification) ([]byte, error) {
	return json.Marshal(alertMessage{
		ID:        n.ID,
		Type:      string(n.Type),
		Title:     n.Title,
		Message:   n.Message,
		Priority:  string(n.Priority),
		Metadata:  n.Metadata,
		Timestamp: n.Timestamp.UTC().Format(time.RFC3339),
	})
}

// Publisher forwards notifications and radar samples to the configured
// topics. Reconnection is delegated to paho's auto-reconnect; publishes
// while disconnected are dropped with a log line rather than queued.
type Publisher struct {
	settings *conf.MQTTSettings
	client   pahomqtt.Client
	log      logger.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPublisher builds a disconnected publisher from settings.
func NewPublisher(settings *conf.MQTTSettings, log logger.Logger) *Publisher {
	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", settings.Broker, settings.Port))
	opts.SetClientID(settings.ClientID)
	opts.SetConnectTimeout(settings.ConnectTimeout.Std())
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)
	if settings.Username != "" {
		opts.SetUsername(settings.Username)
		opts.SetPassword(settings.Password)
	}
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		log.Warn("mqtt connection lost", logger.Error(err))
	})
	opts.SetOnConnectHandler(func(pahomqtt.Client) {
		log.Info("mqtt connected",
			logger.String("broker", settings.Broker),
			logger.Int("port", settings.Port))
	})

	return &Publisher{
		settings: settings,
		client:   pahomqtt.NewClient(opts),
		log:      log,
	}
}

// Connect establishes the broker session.
func (p *Publisher) Connect(ctx context.Context) error {
	token := p.client.Connect()
	if !token.WaitTimeout(p.settings.ConnectTimeout.Std()) {
		return errors.Newf("mqtt connect timeout after %s", p.settings.ConnectTimeout.Std()).
			Component("mqtt").
			Category(errors.CategoryNetwork).
			Context("broker", p.settings.Broker).
			Build()
	}
	if err := token.Error(); err != nil {
		return errors.Wrap(err).
			Component("mqtt").
			Category(errors.CategoryNetwork).
			Context("broker", p.settings.Broker).
			Build()
	}
	return nil
}

// Run consumes the notification and telemetry channels until ctx is done or
// both channels close. It returns immediately; consumption happens in the
// background.
func (p *Publisher) Run(ctx context.Context, notifications <-chan *notification.Notification, samples <-chan *peripheral.RadarSample) {
	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		for {
			select {
			case <-runCtx.Done():
				return
			case n, ok := <-notifications:
				if !ok {
					notifications = nil
					if samples == nil {
						return
					}
					continue
				}
				p.PublishAlert(n)
			case s, ok := <-samples:
				if !ok {
					samples = nil
					if notifications == nil {
						return
					}
					continue
				}
				p.PublishRadar(s)
			}
		}
	}()
}

// PublishAlert publishes one notification on the alert topic at QoS 1.
func (p *Publisher) PublishAlert(n *notification.Notification) {
	payload, err := encodeAlert(n)
	if err != nil {
		p.log.Error("failed to encode alert for mqtt", logger.Error(err))
		return
	}
	p.publish(p.settings.AlertTopic, 1, payload)
}

// PublishRadar publishes one telemetry sample on the radar topic at QoS 0.
// Telemetry is a live indicator; a lost sample is replaced by the next one.
func (p *Publisher) PublishRadar(sample *peripheral.RadarSample) {
	payload, err := json.Marshal(sample)
	if err != nil {
		p.log.Error("failed to encode radar sample for mqtt", logger.Error(err))
		return
	}
	p.publish(p.settings.RadarTopic, 0, payload)
}

func (p *Publisher) publish(topic string, qos byte, payload []byte) {
	if !p.client.IsConnected() {
		p.log.Debug("mqtt disconnected, dropping message",
			logger.String("topic", topic))
		return
	}
	token := p.client.Publish(topic, qos, p.settings.Retain, payload)
	if !token.WaitTimeout(publishTimeout) {
		p.log.Warn("mqtt publish timeout", logger.String("topic", topic))
		return
	}
	if err := token.Error(); err != nil {
		p.log.Error("mqtt publish failed",
			logger.String("topic", topic),
			logger.Error(err))
	}
}

// Close stops consumption and disconnects from the broker.
func (p *Publisher) Close() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	if p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}
