package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"nutvest/config"
	"nutvest/core"
	"nutvest/gateway/middleware"
	"nutvest/gateway/routes"
	"nutvest/observability/logging"
	telemetry "nutvest/observability/otel"
	"nutvest/storage"
	"nutvest/storage/proofs"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "./config.toml", "path to node configuration")
	flag.Parse()

	if err := run(cfgPath); err != nil {
		slog.Error("vestd stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	env := strings.TrimSpace(cfg.Environment)
	if override := strings.TrimSpace(os.Getenv("NUTVEST_ENV")); override != "" {
		env = override
	}
	logger := logging.SetupLevel("vestd", env, logging.FileConfig{Path: cfg.LogFile}, logging.ParseLevel(cfg.LogLevel))

	shutdownTelemetry, err := telemetry.Init(context.Background(), telemetry.NewConfig(
		"vestd", env, cfg.Telemetry.Endpoint, cfg.Telemetry.Insecure, cfg.Telemetry.Headers,
	))
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			logger.Warn("telemetry shutdown", slog.Any("error", err))
		}
	}()

	genesis, err := genesisFromConfig(cfg)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return err
	}
	db, err := storage.NewLevelDB(filepath.Join(cfg.DataDir, "state"))
	if err != nil {
		return err
	}
	defer db.Close()

	node, err := core.NewNode(db, genesis)
	if err != nil {
		return err
	}
	node.SetLogger(logger)
	journal := core.NewJournal(512)
	node.SetEmitter(core.MultiEmitter{journal, core.NewLogEmitter(logger)})

	index, err := proofs.Open(cfg.ProofIndexPath)
	if err != nil {
		return err
	}
	defer index.Close()

	if err := bootstrapDistributions(context.Background(), node, index, genesis.Admin, cfg.Distributions, logger); err != nil {
		return err
	}

	handler := routes.New(routes.Config{
		Backend: node,
		Proofs:  index,
		Events:  journal,
		Authenticator: middleware.NewAuthenticator(middleware.AuthConfig{
			HMACSecret: cfg.Auth.HMACSecret,
			Issuer:     cfg.Auth.Issuer,
			Audience:   cfg.Auth.Audience,
		}, logger),
		RateLimiter: middleware.NewRateLimiter(map[string]middleware.RateLimit{
			routes.LimitClaims:  {RequestsPerMinute: cfg.RateLimit.ClaimsPerMinute, Burst: cfg.RateLimit.Burst},
			routes.LimitVesting: {RequestsPerMinute: cfg.RateLimit.ClaimsPerMinute, Burst: cfg.RateLimit.Burst},
		}, logger),
		Observability: middleware.NewObservability(middleware.ObservabilityConfig{
			ServiceName: "vestd",
			LogRequests: true,
		}, logger),
		CORS:   middleware.CORSConfig{AllowedOrigins: cfg.AllowedOrigins},
		Logger: logger,
	})
	if strings.TrimSpace(cfg.Auth.HMACSecret) == "" {
		logger.Warn("Auth.HMACSecret is empty; authenticated routes will reject every request")
	}

	server := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		// No Read/WriteTimeout: they would cut /v1/events/stream. Stream
		// writes carry their own deadline.
		IdleTimeout: 60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	listener, err := net.Listen("tcp", cfg.ListenAddress)
	if err != nil {
		return err
	}
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("listening", slog.String("address", listener.Addr().String()))
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return err
		}
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", slog.Any("error", err))
	}
	return nil
}
