package telemetry

import (
	"context"
	"testing"

	"github.com/vestnik-bot/vestnik/internal/config"
)

func TestSetupDisabledWithoutEndpoint(t *testing.T) {
	t.Parallel()

	for _, cfg := range []*config.TelemetryConfig{nil, {}} {
		shutdown, err := Setup(context.Background(), cfg, "test")
		if err != nil {
			t.Fatalf("Setup() error: %v", err)
		}
		if err := shutdown(context.Background()); err != nil {
			t.Errorf("shutdown error: %v", err)
		}
	}
}
