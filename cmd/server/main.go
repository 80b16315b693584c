package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"rollcall/internal/adapters/http/perf"
	"rollcall/internal/adapters/storage"
	"rollcall/internal/config"
)

const programName = "rollcall"

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

var (
	globalFlags = struct {
		debug bool
	}{}
	configFile string
	dotenvFile string
)

func setupLogger() *slog.Logger {
	level := slog.LevelInfo
	addSource := false
	if globalFlags.debug {
		level = slog.LevelDebug
		addSource = true
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: addSource,
		Level:     level,
	}))
	slog.SetDefault(logger)
	return logger
}

// openDatabase opens and migrates the configured database.
// POST: the returned TimedDB wraps db and reports into collector
func openDatabase(ctx context.Context, cfg *config.Config, collector *perf.Collector) (*sql.DB, *storage.TimedDB, error) {
	db, err := storage.Open(ctx, cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	if err := storage.MigrateDB(db, cfg.DBPath); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrate database: %w", err)
	}
	return db, storage.NewTimedDB(db, collector, cfg.SlowQuery()), nil
}

func configFrom(cmd *cobra.Command) *config.Config {
	cfg := config.FromContext(cmd.Context())
	if cfg == nil {
		slog.Error("no config found in context")
		os.Exit(1)
	}
	return cfg
}

func main() {
	rootCmd := &cobra.Command{
		Use:           programName,
		Short:         "Attendance and waiver tracking for a cadet training unit",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serveRun(cmd.Context(), configFrom(cmd))
		},
	}

	rootCmd.PersistentFlags().
		BoolVarP(&globalFlags.debug, "debug", "D", false, "enable debug logging")
	rootCmd.PersistentFlags().
		StringVar(&configFile, "config", "", "path to YAML config file")
	rootCmd.PersistentFlags().
		StringVar(&dotenvFile, "env-file", ".env", "path to dotenv file, ignored when missing")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		setupLogger()
		if cmd.Name() == "version" {
			return nil
		}
		cfg, err := config.Load(configFile, dotenvFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	}

	rootCmd.AddCommand(serveCommand())
	rootCmd.AddCommand(migrateCommand())
	rootCmd.AddCommand(seedCommand())
	rootCmd.AddCommand(versionCommand())

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		slog.Error(err.Error(), "component", programName)
		os.Exit(1)
	}
}
