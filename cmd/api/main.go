package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"harvestmind/advisory"
	"harvestmind/auth"
	"harvestmind/config"
	"harvestmind/dataset"
	"harvestmind/db"
	"harvestmind/logging"
	"harvestmind/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := logging.New(cfg.Logging)

	boltStore, err := auth.OpenBoltStore(filepath.Join(cfg.Storage.DataDir, "harvestmind.db"), auth.StoreOptions{
		HashSecrets: cfg.Auth.HashSecrets,
	})
	if err != nil {
		log.Fatalf("open auth store: %v", err)
	}
	defer boltStore.Close()

	// The registry moves to PostgreSQL when configured; the
	// current-session record always stays local.
	var credentials auth.CredentialStore = boltStore
	if cfg.Storage.DatabaseURL != "" {
		pool, err := db.NewPool(ctx, cfg.Storage.DatabaseURL)
		if err != nil {
			log.Fatalf("bootstrap database pool: %v", err)
		}
		defer pool.Close()
		credentials = auth.NewPGStore(pool, auth.StoreOptions{HashSecrets: cfg.Auth.HashSecrets})
		logger.Info("user registry backed by postgres")
	}

	datasets, err := dataset.Open(filepath.Join(cfg.Storage.DataDir, "datasets.db"))
	if err != nil {
		log.Fatalf("open dataset store: %v", err)
	}
	defer datasets.Close()

	sessions := auth.NewManager(auth.Config{
		Store:             credentials,
		Sessions:          boltStore,
		Logger:            logger,
		Metrics:           auth.NewMetrics(),
		CheckLatency:      cfg.Auth.CheckLatency,
		ReserveDemoEmails: cfg.Auth.ReserveDemoEmails,
	})
	if err := sessions.Restore(ctx); err != nil {
		log.Fatalf("restore session: %v", err)
	}

	handler := server.NewRouter(logger, server.Dependencies{
		Sessions:       sessions,
		Tokens:         auth.NewTokenIssuer(cfg.Auth.JWTSigningKey),
		Predictions:    advisory.NewSimulated(cfg.Advisory.PredictionLatency, nil),
		Datasets:       datasets,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("api listening", "addr", cfg.HTTP.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("server exited: %v", err)
	}
	logger.Info("shutdown complete")
}
