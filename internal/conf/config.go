// Package conf holds the runtime configuration for herdwatch-go: peripheral
// addresses, connection policy, storage, notification, MQTT, and HTTP API
// settings. Values come from a YAML config file with environment overrides.
package conf

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Transport strategies for the alert listener.
const (
	TransportPoll   = "poll"
	TransportSocket = "socket"
)

// Settings is the root configuration tree.
type Settings struct {
	Radar        RadarSettings        `mapstructure:"radar"`
	Camera       CameraSettings       `mapstructure:"camera"`
	Monitor      MonitorSettings      `mapstructure:"monitor"`
	Store        StoreSettings        `mapstructure:"store"`
	Notification NotificationSettings `mapstructure:"notification"`
	MQTT         MQTTSettings         `mapstructure:"mqtt"`
	HTTP         HTTPSettings         `mapstructure:"http"`
}

// RadarSettings addresses the ESP8266 radar peripheral and its connection
// policy.
type RadarSettings struct {
	Host                 string   `mapstructure:"host"`
	Port                 int      `mapstructure:"port"`
	WebSocketPath        string   `mapstructure:"websocket_path"`
	HTTPTimeout          Duration `mapstructure:"http_timeout"`
	ReconnectDelay       Duration `mapstructure:"reconnect_delay"`
	MaxReconnectAttempts int      `mapstructure:"max_reconnect_attempts"`
}

// BaseURL returns the peripheral's HTTP base URL, e.g. "http://192.168.1.50:80".
func (r *RadarSettings) BaseURL() string {
	return "http://" + net.JoinHostPort(r.Host, strconv.Itoa(r.Port))
}

// WebSocketURL returns the push-transport endpoint, e.g. "ws://192.168.1.50:80/ws".
func (r *RadarSettings) WebSocketURL() string {
	return "ws://" + net.JoinHostPort(r.Host, strconv.Itoa(r.Port)) + r.WebSocketPath
}

// CameraSettings addresses the ESP32-CAM peripheral. The video pipeline itself
// is external; only the addresses and the status probe are used here.
type CameraSettings struct {
	Host       string `mapstructure:"host"`
	StreamPort int    `mapstructure:"stream_port"`
}

// StreamURL returns the MJPEG stream endpoint.
func (c *CameraSettings) StreamURL() string {
	return "http://" + net.JoinHostPort(c.Host, strconv.Itoa(c.StreamPort)) + "/stream"
}

// BaseURL returns the camera's HTTP base URL on the default port.
func (c *CameraSettings) BaseURL() string {
	return "http://" + c.Host
}

// StatusURL returns the camera health probe endpoint.
func (c *CameraSettings) StatusURL() string {
	return c.BaseURL() + "/status"
}

// MonitorSettings controls the alert listener and the radar telemetry poller.
type MonitorSettings struct {
	Transport      string   `mapstructure:"transport"`
	PollInterval   Duration `mapstructure:"poll_interval"`
	RadarInterval  Duration `mapstructure:"radar_interval"`
	DebounceWindow Duration `mapstructure:"debounce_window"`
	OfflineMode    bool     `mapstructure:"offline_mode"`
}

// StoreSettings locates the local alert database.
type StoreSettings struct {
	Path string `mapstructure:"path"`
}

// NotificationSettings controls push notification delivery. URLs are
// shoutrrr service URLs; an empty list with Enabled=true means in-process
// broadcast only.
type NotificationSettings struct {
	Enabled bool     `mapstructure:"enabled"`
	URLs    []string `mapstructure:"urls"`
}

// MQTTSettings controls republishing of alerts and radar samples to a broker.
type MQTTSettings struct {
	Enabled        bool     `mapstructure:"enabled"`
	Broker         string   `mapstructure:"broker"`
	Port           int      `mapstructure:"port"`
	ClientID       string   `mapstructure:"client_id"`
	Username       string   `mapstructure:"username"`
	Password       string   `mapstructure:"password"`
	AlertTopic     string   `mapstructure:"alert_topic"`
	RadarTopic     string   `mapstructure:"radar_topic"`
	Retain         bool     `mapstructure:"retain"`
	ConnectTimeout Duration `mapstructure:"connect_timeout"`
}

// HTTPSettings controls the local HTTP API.
type HTTPSettings struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// setDefaults registers every default value on the given viper instance.
// Timing defaults mirror the peripheral firmware expectations: 5s probe
// timeout, 30s reconnect delay, 3 attempts, 2s alert poll, 3s radar poll,
// 60s dedup window.
func setDefaults(v *viper.Viper) {
	v.SetDefault("radar.host", "192.168.1.50")
	v.SetDefault("radar.port", 80)
	v.SetDefault("radar.websocket_path", "/ws")
	v.SetDefault("radar.http_timeout", "5s")
	v.SetDefault("radar.reconnect_delay", "30s")
	v.SetDefault("radar.max_reconnect_attempts", 3)

	v.SetDefault("camera.host", "192.168.1.51")
	v.SetDefault("camera.stream_port", 81)

	v.SetDefault("monitor.transport", TransportPoll)
	v.SetDefault("monitor.poll_interval", "2s")
	v.SetDefault("monitor.radar_interval", "3s")
	v.SetDefault("monitor.debounce_window", "60s")
	v.SetDefault("monitor.offline_mode", false)

	v.SetDefault("store.path", "herdwatch.db")

	v.SetDefault("notification.enabled", true)
	v.SetDefault("notification.urls", []string{})

	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "127.0.0.1")
	v.SetDefault("mqtt.port", 1883)
	v.SetDefault("mqtt.client_id", "herdwatch")
	v.SetDefault("mqtt.alert_topic", "herdwatch/alerts")
	v.SetDefault("mqtt.radar_topic", "herdwatch/radar")
	v.SetDefault("mqtt.retain", false)
	v.SetDefault("mqtt.connect_timeout", "10s")

	v.SetDefault("http.enabled", true)
	v.SetDefault("http.addr", ":8090")
}

// Load reads settings from the given config file path (optional, "" to rely
// on defaults and environment) and the HERDWATCH_* environment.
func Load(configPath string) (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("herdwatch")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
	}

	var settings Settings
	if err := v.Unmarshal(&settings, viper.DecodeHook(DurationDecodeHook())); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return &settings, nil
}

// Validate checks cross-field constraints that viper cannot express.
func (s *Settings) Validate() error {
	if s.Radar.Host == "" {
		return fmt.Errorf("radar.host must not be empty")
	}
	if s.Radar.Port < 1 || s.Radar.Port > 65535 {
		return fmt.Errorf("radar.port %d out of range", s.Radar.Port)
	}
	if s.Radar.MaxReconnectAttempts < 1 {
		return fmt.Errorf("radar.max_reconnect_attempts must be at least 1")
	}
	if s.Radar.HTTPTimeout.Std() <= 0 {
		return fmt.Errorf("radar.http_timeout must be positive")
	}
	switch s.Monitor.Transport {
	case TransportPoll, TransportSocket:
	default:
		return fmt.Errorf("monitor.transport %q: must be %q or %q",
			s.Monitor.Transport, TransportPoll, TransportSocket)
	}
	if s.Monitor.PollInterval.Std() < 100*time.Millisecond {
		return fmt.Errorf("monitor.poll_interval %s too short", s.Monitor.PollInterval.Std())
	}
	if s.Monitor.RadarInterval.Std() < 100*time.Millisecond {
		return fmt.Errorf("monitor.radar_interval %s too short", s.Monitor.RadarInterval.Std())
	}
	if s.Monitor.DebounceWindow.Std() < 0 {
		return fmt.Errorf("monitor.debounce_window must not be negative")
	}
	if s.Store.Path == "" {
		return fmt.Errorf("store.path must not be empty")
	}
	return nil
}
