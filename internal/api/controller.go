// Package api serves the local HTTP surface: alert history, radar telemetry,
// connectivity status, and a proxy to the peripheral configuration.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	gocache "github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/herdwatch/herdwatch-go/internal/datastore/repository"
	"github.com/herdwatch/herdwatch-go/internal/logger"
	"github.com/herdwatch/herdwatch-go/internal/monitor"
	"github.com/herdwatch/herdwatch-go/internal/peripheral"
)

// Cache keys and TTLs for the peripheral proxy endpoints. The peripheral is
// a small microcontroller; the cache keeps UI refreshes from hammering it.
const (
	cacheKeyConfig = "peripheral-config"
	cacheKeyCamera = "camera-online"

	configCacheTTL = 30 * time.Second
	cameraCacheTTL = 5 * time.Second
)

// ConnectionStatus reports the alert listener state.
type ConnectionStatus interface {
	State() monitor.State
}

// RadarFeed exposes the latest telemetry sample.
type RadarFeed interface {
	Latest() *peripheral.RadarSample
}

// PeripheralGateway is the peripheral surface proxied by the API.
type PeripheralGateway interface {
	GetConfig(ctx context.Context) (*peripheral.Config, error)
	UpdateConfig(ctx context.Context, cfg *peripheral.Config) error
	RunDiagnostics(ctx context.Context) []peripheral.DiagnosticResult
}

// CameraProbe checks whether the camera peripheral answers its status
// endpoint.
type CameraProbe func(ctx context.Context) bool

// Controller wires the HTTP handlers to the repositories and the monitor.
type Controller struct {
	repo     repository.AlertRepository
	listener ConnectionStatus
	radar    RadarFeed
	periph   PeripheralGateway
	camera   CameraProbe
	cache    *gocache.Cache
	registry *prometheus.Registry
	log      logger.Logger
}

// NewController creates the API controller. registry may be nil to disable
// the /metrics endpoint.
func NewController(repo repository.AlertRepository, listener ConnectionStatus, radar RadarFeed, periph PeripheralGateway, camera CameraProbe, registry *prometheus.Registry, log logger.Logger) *Controller {
	return &Controller{
		repo:     repo,
		listener: listener,
		radar:    radar,
		periph:   periph,
		camera:   camera,
		cache:    gocache.New(configCacheTTL, time.Minute),
		registry: registry,
		log:      log,
	}
}

// Register attaches all routes to e.
func (c *Controller) Register(e *echo.Echo) {
	e.Use(middleware.Recover())

	v1 := e.Group("/api/v1")

	v1.GET("/alerts", c.ListAlerts)
	v1.GET("/alerts/unread/count", c.CountUnread)
	v1.GET("/alerts/:id", c.GetAlert)
	v1.DELETE("/alerts/:id", c.DeleteAlert)
	v1.DELETE("/alerts", c.DeleteAllAlerts)
	v1.PATCH("/alerts/:id/read", c.MarkAlertRead)

	v1.GET("/radar", c.LatestRadar)
	v1.GET("/status", c.Status)

	v1.GET("/peripheral/config", c.GetPeripheralConfig)
	v1.PUT("/peripheral/config", c.UpdatePeripheralConfig)
	v1.POST("/peripheral/diagnostics", c.RunDiagnostics)

	if c.registry != nil {
		e.GET("/metrics", echo.WrapHandler(
			promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})))
	}
}

// Server runs the API on its own echo instance.
type Server struct {
	e    *echo.Echo
	addr string
	log  logger.Logger
}

// NewServer builds an echo server with the controller's routes registered.
func NewServer(addr string, ctrl *Controller, log logger.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	ctrl.Register(e)
	return &Server{e: e, addr: addr, log: log}
}

// Start serves until Shutdown. It blocks; run it in a goroutine.
func (s *Server) Start() error {
	s.log.Info("http api listening", logger.String("addr", s.addr))
	err := s.e.Start(s.addr)
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}
