// Package notification delivers alert notifications to in-process
// subscribers and to external push services.
package notification

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nicholas-fedor/shoutrrr"
	"github.com/nicholas-fedor/shoutrrr/pkg/router"
	"github.com/nicholas-fedor/shoutrrr/pkg/types"

	"github.com/herdwatch/herdwatch-go/internal/errors"
	"github.com/herdwatch/herdwatch-go/internal/logger"
)

// Type categorizes a notification.
type Type string

const (
	TypeAlert  Type = "alert"
	TypeSystem Type = "system"
)

// Priority indicates notification urgency.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// subscriberBuffer is the per-subscriber channel capacity. Slow subscribers
// drop notifications rather than blocking dispatch.
const subscriberBuffer = 16

// Notification is a single dispatched message.
type Notification struct {
	ID        string         `json:"id"`
	Type      Type           `json:"type"`
	Priority  Priority       `json:"priority"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// ServiceConfig configures the notification service.
type ServiceConfig struct {
	// Enabled gates all dispatch. A disabled service accepts calls and
	// silently drops them; this is the moral equivalent of the mobile app
	// running without notification permission.
	Enabled bool
	// PushURLs are shoutrrr service URLs for external delivery. Empty means
	// in-process broadcast only.
	PushURLs []string
}

// Service creates notifications and fans them out. All dispatch failures are
// logged and contained; they never propagate to the caller of SendAlert.
type Service struct {
	config *ServiceConfig
	log    logger.Logger

	sender *router.ServiceRouter

	mu          sync.RWMutex
	subscribers map[uint64]chan *Notification
	nextSubID   uint64
}

// NewService creates the notification service. An invalid push URL disables
// external delivery but keeps in-process broadcast working.
func NewService(config *ServiceConfig, log logger.Logger) *Service {
	s := &Service{
		config:      config,
		log:         log,
		subscribers: make(map[uint64]chan *Notification),
	}
	if config.Enabled && len(config.PushURLs) > 0 {
		sender, err := shoutrrr.CreateSender(config.PushURLs...)
		if err != nil {
			log.Error("failed to create push sender, external delivery disabled",
				logger.Error(err))
		} else {
			s.sender = sender
		}
	}
	return s
}

// Subscribe registers an in-process consumer. The returned cancel function
// removes the subscription and closes the channel.
func (s *Service) Subscribe() (<-chan *Notification, func()) {
	ch := make(chan *Notification, subscriberBuffer)
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = ch
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if sub, ok := s.subscribers[id]; ok {
			delete(s.subscribers, id)
			close(sub)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// Create builds a notification and broadcasts it. Returns the notification
// for callers that need the assigned ID.
func (s *Service) Create(typ Type, priority Priority, title, message string) (*Notification, error) {
	return s.CreateWithMetadata(typ, priority, title, message, nil)
}

// CreateWithMetadata builds a notification carrying extra metadata and
// broadcasts it.
func (s *Service) CreateWithMetadata(typ Type, priority Priority, title, message string, metadata map[string]any) (*Notification, error) {
	if !s.config.Enabled {
		s.log.Debug("notification service disabled, dropping",
			logger.String("title", title))
		return nil, nil
	}

	n := &Notification{
		ID:        uuid.New().String(),
		Type:      typ,
		Priority:  priority,
		Title:     title,
		Message:   message,
		Metadata:  metadata,
		Timestamp: time.Now(),
	}

	s.broadcast(n)

	if err := s.push(n); err != nil {
		return n, err
	}
	return n, nil
}

// CreateAndBroadcast is the convenience used by alert dispatch paths.
func (s *Service) CreateAndBroadcast(title, message string) error {
	_, err := s.Create(TypeSystem, PriorityHigh, title, message)
	return err
}

// SendAlert dispatches an alert notification. It never returns an error:
// a disabled service or a delivery failure is logged and swallowed so alert
// persistence is never blocked by notification trouble.
func (s *Service) SendAlert(alertType, message string, metadata map[string]any) {
	if !s.config.Enabled {
		s.log.Info("notifications disabled, alert not dispatched",
			logger.String("alert_type", alertType))
		return
	}

	meta := map[string]any{
		"type":      "alert",
		"alertType": alertType,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range metadata {
		meta[k] = v
	}

	title := "Alerte " + alertType
	if _, err := s.CreateWithMetadata(TypeAlert, PriorityHigh, title, message, meta); err != nil {
		s.log.Error("alert notification dispatch failed",
			logger.String("alert_type", alertType),
			logger.Error(err))
	}
}

// broadcast fans the notification out to subscribers without blocking.
func (s *Service) broadcast(n *Notification) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.subscribers {
		select {
		case ch <- n:
		default:
			// Subscriber buffer full, drop for this consumer.
		}
	}
}

// push delivers via the configured external services.
func (s *Service) push(n *Notification) error {
	if s.sender == nil {
		return nil
	}
	params := types.Params{"title": n.Title}
	errs := s.sender.Send(n.Message, &params)
	var failed []error
	for _, err := range errs {
		if err != nil {
			failed = append(failed, err)
		}
	}
	if len(failed) > 0 {
		return errors.Wrap(errors.Join(failed...)).
			Component("notification").
			Category(errors.CategoryNotification).
			Build()
	}
	return nil
}
