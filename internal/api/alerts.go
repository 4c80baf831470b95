package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/herdwatch/herdwatch-go/internal/datastore/repository"
	"github.com/herdwatch/herdwatch-go/internal/errors"
	"github.com/herdwatch/herdwatch-go/internal/logger"
)

// ListAlerts returns the full alert history, most recent first.
func (c *Controller) ListAlerts(ctx echo.Context) error {
	alerts, err := c.repo.GetAll(ctx.Request().Context())
	if err != nil {
		c.log.Error("failed to list alerts", logger.Error(err))
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to list alerts"})
	}
	return ctx.JSON(http.StatusOK, map[string]any{
		"alerts": alerts,
		"count":  len(alerts),
	})
}

// CountUnread returns the unread alert count for the badge.
func (c *Controller) CountUnread(ctx echo.Context) error {
	count, err := c.repo.CountUnread(ctx.Request().Context())
	if err != nil {
		c.log.Error("failed to count unread alerts", logger.Error(err))
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to count unread alerts"})
	}
	return ctx.JSON(http.StatusOK, map[string]int64{"unread": count})
}

// GetAlert returns a single alert by ID.
func (c *Controller) GetAlert(ctx echo.Context) error {
	id, err := parseUintParam(ctx, "id")
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid alert ID"})
	}

	alert, err := c.repo.GetByID(ctx.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrAlertNotFound) {
			return ctx.JSON(http.StatusNotFound, map[string]string{"error": "Alert not found"})
		}
		c.log.Error("failed to get alert", logger.Error(err))
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to get alert"})
	}
	return ctx.JSON(http.StatusOK, alert)
}

// DeleteAlert deletes one alert.
func (c *Controller) DeleteAlert(ctx echo.Context) error {
	id, err := parseUintParam(ctx, "id")
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid alert ID"})
	}

	deleted, err := c.repo.DeleteByID(ctx.Request().Context(), id)
	if err != nil {
		c.log.Error("failed to delete alert", logger.Error(err))
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to delete alert"})
	}
	if !deleted {
		return ctx.JSON(http.StatusNotFound, map[string]string{"error": "Alert not found"})
	}
	return ctx.NoContent(http.StatusNoContent)
}

// DeleteAllAlerts clears the alert history.
func (c *Controller) DeleteAllAlerts(ctx echo.Context) error {
	deleted, err := c.repo.DeleteAll(ctx.Request().Context())
	if err != nil {
		c.log.Error("failed to clear alerts", logger.Error(err))
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to clear alerts"})
	}
	return ctx.JSON(http.StatusOK, map[string]int64{"deleted": deleted})
}

// MarkAlertRead marks one alert as read. Idempotent.
func (c *Controller) MarkAlertRead(ctx echo.Context) error {
	id, err := parseUintParam(ctx, "id")
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid alert ID"})
	}

	if err := c.repo.MarkAsRead(ctx.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrAlertNotFound) {
			return ctx.JSON(http.StatusNotFound, map[string]string{"error": "Alert not found"})
		}
		c.log.Error("failed to mark alert read", logger.Error(err))
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to mark alert read"})
	}
	return ctx.JSON(http.StatusOK, map[string]any{"id": id, "read": true})
}

// parseUintParam parses a uint route parameter.
func parseUintParam(ctx echo.Context, name string) (uint, error) {
	v, err := strconv.ParseUint(ctx.Param(name), 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(v), nil
}
