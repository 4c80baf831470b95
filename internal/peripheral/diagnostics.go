package peripheral

import (
	"context"
	"time"
)

// RunDiagnostics checks the radar unit's endpoints one by one and reports
// per-endpoint latency and outcome. Checks run sequentially so a slow
// endpoint cannot mask a fast one's result.
func (c *Client) RunDiagnostics(ctx context.Context) []DiagnosticResult {
	checks := []struct {
		name     string
		endpoint string
		run      func(context.Context) error
	}{
		{
			name:     "Connectivité",
			endpoint: "/status",
			run: func(ctx context.Context) error {
				_, err := c.get(ctx, "/status", false)
				return err
			},
		},
		{
			name:     "Données radar",
			endpoint: "/radar",
			run: func(ctx context.Context) error {
				_, err := c.FetchRadar(ctx)
				return err
			},
		},
		{
			name:     "Configuration",
			endpoint: "/config",
			run: func(ctx context.Context) error {
				_, err := c.GetConfig(ctx)
				return err
			},
		},
	}

	results := make([]DiagnosticResult, 0, len(checks))
	for _, check := range checks {
		start := time.Now()
		err := check.run(ctx)
		result := DiagnosticResult{
			Name:     check.name,
			Endpoint: check.endpoint,
			OK:       err == nil,
			Latency:  time.Since(start),
		}
		if err != nil {
			result.Error = err.Error()
		}
		results = append(results, result)
	}
	return results
}
