package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/herdwatch/herdwatch-go/internal/logger"
	"github.com/herdwatch/herdwatch-go/internal/monitor"
	"github.com/herdwatch/herdwatch-go/internal/peripheral"
)

// LatestRadar returns the most recent telemetry sample, or 404 before the
// first successful fetch.
func (c *Controller) LatestRadar(ctx echo.Context) error {
	sample := c.radar.Latest()
	if sample == nil {
		return ctx.JSON(http.StatusNotFound, map[string]string{"error": "No radar sample yet"})
	}
	return ctx.JSON(http.StatusOK, sample)
}

// Status reports the listener connection state and camera reachability.
// The camera probe result is cached briefly so UI polling does not hammer
// the peripheral.
func (c *Controller) Status(ctx echo.Context) error {
	cameraOnline := false
	if c.camera != nil {
		if cached, found := c.cache.Get(cacheKeyCamera); found {
			cameraOnline = cached.(bool)
		} else {
			cameraOnline = c.camera(ctx.Request().Context())
			c.cache.Set(cacheKeyCamera, cameraOnline, cameraCacheTTL)
		}
	}

	state := c.listener.State()
	return ctx.JSON(http.StatusOK, map[string]any{
		"state":        string(state),
		"connected":    state == monitor.StateConnected,
		"cameraOnline": cameraOnline,
	})
}

// GetPeripheralConfig proxies the peripheral detection configuration, cached
// with a short TTL.
func (c *Controller) GetPeripheralConfig(ctx echo.Context) error {
	if cached, found := c.cache.Get(cacheKeyConfig); found {
		return ctx.JSON(http.StatusOK, cached.(*peripheral.Config))
	}

	cfg, err := c.periph.GetConfig(ctx.Request().Context())
	if err != nil {
		c.log.Error("failed to fetch peripheral config", logger.Error(err))
		return ctx.JSON(http.StatusBadGateway, map[string]string{"error": "Peripheral unreachable"})
	}
	c.cache.Set(cacheKeyConfig, cfg, configCacheTTL)
	return ctx.JSON(http.StatusOK, cfg)
}

// UpdatePeripheralConfig pushes a new detection configuration to the
// peripheral and invalidates the cached copy.
func (c *Controller) UpdatePeripheralConfig(ctx echo.Context) error {
	var cfg peripheral.Config
	if err := ctx.Bind(&cfg); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if cfg.ExpectedCount < 0 || cfg.DetectionThreshold < 0 {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "Counts and thresholds must not be negative"})
	}

	if err := c.periph.UpdateConfig(ctx.Request().Context(), &cfg); err != nil {
		c.log.Error("failed to update peripheral config", logger.Error(err))
		return ctx.JSON(http.StatusBadGateway, map[string]string{"error": "Peripheral unreachable"})
	}
	c.cache.Delete(cacheKeyConfig)
	return ctx.JSON(http.StatusOK, cfg)
}

// RunDiagnostics runs the peripheral endpoint checks and returns their
// results.
func (c *Controller) RunDiagnostics(ctx echo.Context) error {
	results := c.periph.RunDiagnostics(ctx.Request().Context())
	ok := true
	for i := range results {
		if !results[i].OK {
			ok = false
			break
		}
	}
	return ctx.JSON(http.StatusOK, map[string]any{
		"ok":      ok,
		"results": results,
	})
}
