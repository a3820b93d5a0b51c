package observability

import (
	"context"
	"testing"

	"github.com/riskibarqy/clash-tables/internal/config"
	"github.com/riskibarqy/clash-tables/internal/platform/logging"
)

func TestStart_DisabledIsNoop(t *testing.T) {
	cfg := config.Config{
		ServiceName:    "clash-tables",
		ServiceVersion: "dev",
		AppEnv:         config.EnvDev,
	}

	shutdown, err := Start(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("start observability: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown observability: %v", err)
	}
}

func TestStart_UptraceWithoutDSNIsNoop(t *testing.T) {
	cfg := config.Config{UptraceEnabled: true, ServiceName: "clash-tables", AppEnv: config.EnvDev}

	shutdown, err := Start(cfg, nil)
	if err != nil {
		t.Fatalf("start observability: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown observability: %v", err)
	}
}
