package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/dbd-character-picker/internal/config"
	"github.com/DoyleJ11/dbd-character-picker/internal/engine"
	"github.com/DoyleJ11/dbd-character-picker/internal/httpapi"
	"github.com/DoyleJ11/dbd-character-picker/internal/hub"
	"github.com/DoyleJ11/dbd-character-picker/internal/logging"
	"github.com/DoyleJ11/dbd-character-picker/internal/metrics"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadServer()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	settings, err := config.Load(cfg.SettingsPath, logger)
	if err != nil {
		return err
	}
	// Every session builds its own engine; fail now rather than on the first request.
	if _, err := engine.New(settings.EngineConfig()); err != nil {
		return fmt.Errorf("invalid settings in %s: %w", cfg.SettingsPath, err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	h := hub.NewHub(ctx, logger, m)

	// Build the router *with* the hub injected
	srv := &http.Server{
		Addr: cfg.Addr,
		Handler: httpapi.SetupRoutes(httpapi.Deps{
			Hub:      h,
			Settings: settings,
			Logger:   logger,
			Gatherer: reg,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		h.Send(hub.ShutdownHub{})
		<-h.Done()
		return err
	})
	return g.Wait()
}
