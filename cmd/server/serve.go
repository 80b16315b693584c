package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	web "rollcall/internal/adapters/http"
	"rollcall/internal/adapters/http/perf"
	"rollcall/internal/adapters/storage"
	attendanceStore "rollcall/internal/adapters/storage/attendance"
	cadetStore "rollcall/internal/adapters/storage/cadet"
	eventStore "rollcall/internal/adapters/storage/event"
	flightStore "rollcall/internal/adapters/storage/flight"
	scheduleConfigStore "rollcall/internal/adapters/storage/scheduleconfig"
	userStore "rollcall/internal/adapters/storage/user"
	waiverStore "rollcall/internal/adapters/storage/waiver"
	"rollcall/internal/application/orchestrators"
	"rollcall/internal/config"
)

const shutdownTimeout = 15 * time.Second

func newStores(db *storage.TimedDB) *web.Stores {
	return &web.Stores{
		UserStore:           userStore.NewSQLiteStore(db),
		CadetStore:          cadetStore.NewSQLiteStore(db),
		FlightStore:         flightStore.NewSQLiteStore(db),
		EventStore:          eventStore.NewSQLiteStore(db),
		AttendanceStore:     attendanceStore.NewSQLiteStore(db),
		WaiverStore:         waiverStore.NewSQLiteStore(db),
		ScheduleConfigStore: scheduleConfigStore.NewSQLiteStore(db),
		DB:                  db,
	}
}

func serveRun(ctx context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := perf.NewCollector(registry)

	db, timedDB, err := openDatabase(ctx, cfg, collector)
	if err != nil {
		return err
	}
	defer db.Close()

	stores := newStores(timedDB)

	if cfg.AdminPassword != "" {
		if _, err := orchestrators.ExecuteEnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword, orchestrators.EnsureAdminDeps{
			UserStore:  stores.UserStore,
			GenerateID: uuid.NewString,
			Now:        time.Now,
		}); err != nil {
			return err
		}
	} else {
		slog.Warn("ROLLCALL_ADMIN_PASSWORD not set, skipping bootstrap admin")
	}

	if cfg.SeedFile != "" {
		if err := seedFromFile(ctx, cfg.SeedFile, stores); err != nil {
			return err
		}
	}

	csrfKey, err := cfg.CSRFKeyBytes()
	if err != nil {
		return err
	}
	handler := web.NewMux(stores, web.Options{
		CSRFKey:        csrfKey,
		SecureCookies:  cfg.IsProduction(),
		TrustedOrigins: cfg.TrustedOrigins,
		SessionTTL:     cfg.SessionTTL,
		RateLimit:      cfg.RateLimit,
		SlowRequest:    cfg.SlowRequest(),
		Collector:      collector,
		Gatherer:       registry,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server_started",
			"addr", cfg.Addr,
			"version", version,
			"env", cfg.Env,
			"schema", storage.LatestSchemaVersion(),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("server_stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	slog.Info("server_stopped")
	return nil
}

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serveRun(cmd.Context(), configFrom(cmd))
		},
	}
}
