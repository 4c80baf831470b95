// Package alerting is the façade over alert ingestion: it formats, persists,
// and then notifies. Persistence always happens before notification, so a
// notification failure can never lose an alert.
package alerting

import (
	"context"
	"strconv"

	"github.com/herdwatch/herdwatch-go/internal/datastore/entities"
	"github.com/herdwatch/herdwatch-go/internal/datastore/repository"
	"github.com/herdwatch/herdwatch-go/internal/logger"
	"github.com/herdwatch/herdwatch-go/internal/notification"
	"github.com/herdwatch/herdwatch-go/internal/peripheral"
)

// Service persists alerts and dispatches notifications for them.
type Service struct {
	repo     repository.AlertRepository
	notifier *notification.Service
	log      logger.Logger
}

// NewService wires the façade over the alert repository and the notification
// service.
func NewService(repo repository.AlertRepository, notifier *notification.Service, log logger.Logger) *Service {
	return &Service{repo: repo, notifier: notifier, log: log}
}

// HandleIncomingAlert persists an alert received from the peripheral and then
// dispatches a notification for it. If persistence fails no notification goes
// out.
func (s *Service) HandleIncomingAlert(ctx context.Context, payload *peripheral.AlertPayload) error {
	alert := &entities.Alert{
		Type:          entities.NormalizeType(payload.Type),
		Message:       payload.Message,
		Date:          entities.Now(),
		VideoURI:      payload.VideoURI,
		ScreenshotURI: payload.ScreenshotURI,
	}
	if err := s.repo.Insert(ctx, alert); err != nil {
		return err
	}

	s.log.Info("alert persisted",
		logger.Uint64("id", uint64(alert.ID)),
		logger.String("type", alert.Type))

	s.notifier.SendAlert(alert.Type, alert.Message, map[string]any{
		"alertID": alert.ID,
	})
	return nil
}

// HandleRadarAlert materializes a count-mismatch alert from radar readings:
// a shortage when fewer objects than expected are detected, a surplus when
// more. The message carries the full reading so history remains useful
// without the live feed.
func (s *Service) HandleRadarAlert(ctx context.Context, kind string, distance float64, objectCount, expectedCount int) (*entities.Alert, error) {
	alertType := entities.NormalizeType(kind)
	message := formatRadarMessage(alertType, distance, objectCount, expectedCount)

	alert := &entities.Alert{
		Type:    alertType,
		Message: message,
		Date:    entities.Now(),
	}
	if err := s.repo.Insert(ctx, alert); err != nil {
		return nil, err
	}

	s.notifier.SendAlert(alertType, message, map[string]any{
		"type":          "radar",
		"severity":      "high",
		"alertID":       alert.ID,
		"distance":      distance,
		"objectCount":   objectCount,
		"expectedCount": expectedCount,
	})
	return alert, nil
}

// MarkRead marks one alert as read.
func (s *Service) MarkRead(ctx context.Context, id uint) error {
	return s.repo.MarkAsRead(ctx, id)
}

// formatRadarMessage builds the French alert text the history screen and the
// push channel both display.
func formatRadarMessage(alertType string, distance float64, objectCount, expectedCount int) string {
	var headline string
	switch alertType {
	case entities.TypeShortage:
		headline = "ALERTE: MANQUE !"
	case entities.TypeSurplus:
		headline = "ALERTE: SURPLUS !"
	default:
		headline = "ALERTE !"
	}
	return headline +
		"\nDistance: " + strconv.FormatFloat(distance, 'f', -1, 64) + "cm" +
		"\nObjets détectés: " + strconv.Itoa(objectCount) +
		"\nObjets attendus: " + strconv.Itoa(expectedCount)
}
