// Package main runs the wallet stats API server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	apihttp "github.com/avzcrypto/pharos-stats/internal/adapters/inbound/http"
	"github.com/avzcrypto/pharos-stats/internal/adapters/outbound/pharos"
	redisadapter "github.com/avzcrypto/pharos-stats/internal/adapters/outbound/redis"
	"github.com/avzcrypto/pharos-stats/internal/adapters/outbound/telemetry"
	"github.com/avzcrypto/pharos-stats/internal/application"
	"github.com/avzcrypto/pharos-stats/internal/pkg/env"
	"github.com/avzcrypto/pharos-stats/internal/pkg/proxypool"
	"github.com/avzcrypto/pharos-stats/internal/ports/outbound"
	"github.com/avzcrypto/pharos-stats/internal/services/leaderboard"
)

// Build-time variables - can be set via ldflags, otherwise populated from Go's build info.
var (
	GitCommit string
	BuildTime string
)

func init() {
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			switch setting.Key {
			case "vcs.revision":
				if GitCommit == "" {
					GitCommit = setting.Value
				}
			case "vcs.time":
				if BuildTime == "" {
					BuildTime = setting.Value
				}
			}
		}
	}
}

func main() {
	addr := flag.String("addr", env.Get("LISTEN_ADDR", ":8080"), "HTTP listen address")
	showVersion := flag.Bool("version", false, "Show version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("statsd\n")
		fmt.Printf("  Commit:     %s\n", GitCommit)
		fmt.Printf("  Build Time: %s\n", BuildTime)
		os.Exit(0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: env.ParseLogLevel(slog.LevelInfo),
	}))
	slog.SetDefault(logger)

	logger.Info("starting statsd", "commit", GitCommit, "addr", *addr)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx, logger, *addr); err != nil {
		logger.Error("failed", "error", err)
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}

func run(ctx context.Context, logger *slog.Logger, addr string) error {
	meterShutdown, err := telemetry.InitMeterProvider(ctx, telemetry.MeterConfig{
		ServiceName:    "pharos-stats",
		ServiceVersion: GitCommit,
		Environment:    env.Get("ENVIRONMENT", "production"),
		OTLPEndpoint:   env.Get("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	})
	if err != nil {
		return fmt.Errorf("initializing meter provider: %w", err)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := meterShutdown(shutdownCtx); err != nil {
			logger.Warn("failed to flush metrics", "error", err)
		}
	}()

	var metrics outbound.MetricsRecorder
	metrics, err = telemetry.NewMetrics("pharos-stats")
	if err != nil {
		logger.Warn("telemetry disabled", "error", err)
		metrics = outbound.NoopMetrics{}
	}

	redisCfg := redisadapter.ConfigDefaults()
	redisCfg.URL = env.Get("REDIS_URL", "")
	redisCfg.Addr = env.Get("REDIS_ADDR", redisCfg.Addr)
	redisCfg.TTL = env.GetDuration("CACHE_TTL", redisCfg.TTL)

	client, err := redisadapter.Open(redisCfg)
	if err != nil {
		return fmt.Errorf("opening redis: %w", err)
	}

	cache, err := redisadapter.NewStatsCache(client, redisCfg, logger, metrics)
	if err != nil {
		return fmt.Errorf("creating stats cache: %w", err)
	}
	defer func() {
		if err := cache.Close(); err != nil {
			logger.Warn("failed to close redis client", "error", err)
		}
	}()

	population, err := redisadapter.NewPopulationStore(client, redisCfg, logger)
	if err != nil {
		return fmt.Errorf("creating population store: %w", err)
	}

	// The service stays up without Redis; it just serves uncached and
	// unranked until the store comes back.
	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	if err := cache.Ping(pingCtx); err != nil {
		logger.Warn("redis unreachable at startup, degrading to uncached mode", "error", err)
	}
	pingCancel()

	proxies := proxypool.Load(env.Get("PROXY_LIST", ""), logger)

	points, err := pharos.NewClient(pharos.ClientConfig{
		BaseURL:         env.Get("PHAROS_API_URL", ""),
		BearerToken:     env.Get("PHAROS_BEARER_TOKEN", ""),
		RateLimitPerMin: env.GetInt("API_RATE_LIMIT_PER_MIN", 0),
		Proxies:         proxies,
		Logger:          logger,
		Metrics:         metrics,
	})
	if err != nil {
		return fmt.Errorf("creating points client: %w", err)
	}

	ranks, err := leaderboard.NewService(leaderboard.ServiceConfig{
		Logger:  logger,
		Metrics: metrics,
	}, population, cache)
	if err != nil {
		return fmt.Errorf("creating leaderboard service: %w", err)
	}

	service, err := application.NewStatsService(application.ServiceConfig{
		Logger: logger,
	}, cache, population, points, ranks)
	if err != nil {
		return fmt.Errorf("creating stats service: %w", err)
	}

	handler := apihttp.NewHandler(service, apihttp.HandlerConfig{
		Version:    GitCommit,
		ProxyCount: proxies.Size(),
		Logger:     logger,
	})

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	server := &http.Server{
		Addr:         addr,
		Handler:      apihttp.WithCORS(mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	return nil
}
