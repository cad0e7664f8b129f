package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/vshulcz/Cubeship/internal/adapters/collector/runtime"
	"github.com/vshulcz/Cubeship/internal/adapters/counter"
	"github.com/vshulcz/Cubeship/internal/adapters/publisher/cube"
	"github.com/vshulcz/Cubeship/internal/adapters/status"
	"github.com/vshulcz/Cubeship/internal/config"
	"github.com/vshulcz/Cubeship/internal/domain"
	"github.com/vshulcz/Cubeship/internal/encoder"
	agentsvc "github.com/vshulcz/Cubeship/internal/services/agent"
	"github.com/vshulcz/Cubeship/internal/services/snapshot"
	"github.com/vshulcz/Cubeship/internal/timefmt"
)

const (
	memoryThreshold = 90
	goroutineLimit  = 10000
)

// postLatency is the agent's own transport counter.
var postLatency = domain.Role{Name: "transport", Unit: "ms"}

func run(ctx context.Context, args []string, logger *zap.Logger) error {
	cfg, err := config.LoadAgentConfig(args, os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to parse flags: %w", err)
	}

	tlsCfg, err := cfg.TLSConfig()
	if err != nil {
		return fmt.Errorf("failed to load tls settings: %w", err)
	}

	client := cube.New(cube.Endpoint{
		Collector:  cfg.Collector,
		Marker:     cfg.Marker,
		ProxyHost:  cfg.ProxyHost,
		ProxyPort:  cfg.ProxyPort,
		AuthHeader: authHeader(cfg),
		Key:        cfg.Key,
		TLS:        tlsCfg,
		Timeout:    cfg.Timeout,
	}, logger)

	registry := counter.NewRegistry(counter.NonNegative)
	latency := registry.Get("post", postLatency)

	snap := snapshot.New(encoder.New(cfg.Marker, timefmt.NewPool(0)))
	src := agentsvc.Sources{
		Gauges:   runtime.New(),
		Counters: registry,
		Status: status.NewChecker(
			status.MemoryValidation(memoryThreshold),
			status.GoroutineValidation(goroutineLimit),
		),
	}
	svc := agentsvc.New(cfg, snap, src, client,
		agentsvc.WithPostLatency(latency),
		agentsvc.WithLogger(logger),
	)

	logger.Info("agent started",
		zap.String("collector", cfg.Collector),
		zap.String("marker", cfg.Marker),
		zap.Duration("poll", cfg.PollInterval),
		zap.Duration("report", cfg.ReportInterval),
		zap.Int("limit", cfg.RateLimit),
		zap.Bool("enabled", client.Enabled()),
	)
	if err := svc.Run(ctx); err != nil {
		return err
	}
	logger.Info("agent stopped")
	return nil
}

// authHeader prefers the raw header value over basic credentials.
func authHeader(cfg config.AgentConfig) string {
	if cfg.AuthHeader != "" {
		return cfg.AuthHeader
	}
	if cfg.BasicAuth == "" {
		return ""
	}
	user, pass, _ := strings.Cut(cfg.BasicAuth, ":")
	return cube.BasicAuthHeader(user, pass)
}
