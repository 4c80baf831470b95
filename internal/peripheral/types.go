// Package peripheral talks to the microcontroller units over their local
// HTTP surface: the ESP8266 radar unit and the ESP32-CAM health probe.
package peripheral

import "time"

// AlertPayload is one pending alert as reported by GET /alerts.
type AlertPayload struct {
	Type          string  `json:"type"`
	Message       string  `json:"message"`
	VideoURI      *string `json:"videoUri,omitempty"`
	ScreenshotURI *string `json:"screenshotUri,omitempty"`
}

// ActiveAlert is the single latest alert condition from GET /alert.
// It is transient: it only decides whether a persisted alert materializes.
type ActiveAlert struct {
	Type          string `json:"type"`
	Message       string `json:"message"`
	Timestamp     string `json:"timestamp"`
	ObjectCount   int    `json:"objectCount"`
	ExpectedCount int    `json:"expectedCount"`
	Active        bool   `json:"active"`
}

// RadarSample is one transient distance/object-count/angle reading from
// GET /radar. Not persisted.
type RadarSample struct {
	Angle       int     `json:"angle"`
	Distance    float64 `json:"distance"`
	ObjectCount int     `json:"objectCount"`
	Timestamp   string  `json:"timestamp"`
}

// Config is the peripheral detection configuration exposed by GET/POST /config.
type Config struct {
	ExpectedCount      int     `json:"expectedCount"`
	DetectionThreshold float64 `json:"detectionThreshold"`
}

// DiagnosticResult is one endpoint check from a diagnostics run.
type DiagnosticResult struct {
	Name     string        `json:"name"`
	Endpoint string        `json:"endpoint"`
	OK       bool          `json:"ok"`
	Latency  time.Duration `json:"latency"`
	Error    string        `json:"error,omitempty"`
}
