package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/herdwatch/herdwatch-go/internal/alerting"
	"github.com/herdwatch/herdwatch-go/internal/api"
	"github.com/herdwatch/herdwatch-go/internal/conf"
	"github.com/herdwatch/herdwatch-go/internal/datastore"
	"github.com/herdwatch/herdwatch-go/internal/datastore/repository"
	"github.com/herdwatch/herdwatch-go/internal/logger"
	"github.com/herdwatch/herdwatch-go/internal/monitor"
	"github.com/herdwatch/herdwatch-go/internal/mqtt"
	"github.com/herdwatch/herdwatch-go/internal/notification"
	"github.com/herdwatch/herdwatch-go/internal/peripheral"
)

const shutdownTimeout = 10 * time.Second

func serveCommand() *cobra.Command {
	var configPath string
	var debug bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the monitoring gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath, debug)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")
	cmd.Flags().BoolVar(&debug, "debug", false, "enable debug logging")
	return cmd
}

func runServe(configPath string, debug bool) error {
	level := logger.LogLevelInfo
	if debug {
		level = logger.LogLevelDebug
	}
	log := logger.NewSlogLogger(os.Stderr, level, nil)

	settings, err := conf.Load(configPath)
	if err != nil {
		return err
	}

	manager, err := datastore.Open(settings.Store.Path, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := manager.Close(); err != nil {
			log.Error("failed to close database", logger.Error(err))
		}
	}()
	log.Info("alert store open", logger.String("path", settings.Store.Path))

	repo := repository.NewAlertRepository(manager.DB())

	notification.Initialize(&notification.ServiceConfig{
		Enabled:  settings.Notification.Enabled,
		PushURLs: settings.Notification.URLs,
	}, log)
	notifier := notification.GetService()

	radarClient := peripheral.NewClient(settings.Radar.BaseURL(),
		settings.Radar.HTTPTimeout.Std(), log)

	alertService := alerting.NewService(repo, notifier, log)

	registry := prometheus.NewRegistry()
	metrics := monitor.NewMetrics(registry)

	listener := monitor.NewListener(monitor.ListenerConfigFromSettings(settings),
		radarClient, alertService, metrics, log)
	radarPoller := monitor.NewRadarPoller(radarClient,
		settings.Monitor.RadarInterval.Std(), metrics, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := listener.Start(ctx); err != nil {
		return err
	}
	defer listener.Stop()

	radarPoller.Start(ctx)
	defer radarPoller.Stop()

	var publisher *mqtt.Publisher
	if settings.MQTT.Enabled {
		publisher = mqtt.NewPublisher(&settings.MQTT, log)
		if err := publisher.Connect(ctx); err != nil {
			// The gateway is useful without the broker; keep running and let
			// paho reconnect in the background.
			log.Warn("mqtt broker unavailable at startup", logger.Error(err))
		}
		notifications, cancelNotifications := notifier.Subscribe()
		samples, cancelSamples := radarPoller.Subscribe()
		publisher.Run(ctx, notifications, samples)
		defer func() {
			publisher.Close()
			cancelNotifications()
			cancelSamples()
		}()
	}

	var server *api.Server
	if settings.HTTP.Enabled {
		cameraBase := settings.Camera.BaseURL()
		cameraProbe := func(ctx context.Context) bool {
			return peripheral.CheckConnectivity(ctx, cameraBase,
				settings.Radar.HTTPTimeout.Std())
		}
		ctrl := api.NewController(repo, listener, radarPoller, radarClient,
			cameraProbe, registry, log)
		server = api.NewServer(settings.HTTP.Addr, ctrl, log)
		go func() {
			if err := server.Start(); err != nil {
				log.Error("http server failed", logger.Error(err))
				stop()
			}
		}()
	}

	log.Info("herdwatch gateway running",
		logger.String("radar", settings.Radar.BaseURL()),
		logger.String("transport", settings.Monitor.Transport))

	<-ctx.Done()
	log.Info("shutdown signal received")

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("http shutdown error", logger.Error(err))
		}
	}
	return nil
}
