package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	web "rollcall/internal/adapters/http"
	"rollcall/internal/application/orchestrators"
)

// seedFromFile loads a YAML fixture into the stores.
func seedFromFile(ctx context.Context, path string, stores *web.Stores) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}
	fixture, err := orchestrators.ParseSeedFixture(data)
	if err != nil {
		return err
	}
	result, err := orchestrators.ExecuteSeed(ctx, fixture, orchestrators.SeedDeps{
		UserStore:       stores.UserStore,
		CadetStore:      stores.CadetStore,
		FlightStore:     stores.FlightStore,
		EventStore:      stores.EventStore,
		AttendanceStore: stores.AttendanceStore,
		GenerateID:      uuid.NewString,
		Now:             time.Now,
	})
	if err != nil {
		return err
	}
	slog.Info("seed_complete",
		"file", path,
		"users", result.Users,
		"cadets", result.Cadets,
		"flights", result.Flights,
		"events", result.Events,
		"attendance", result.Attendance,
	)
	return nil
}

func seedCommand() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load demo users, flights, events and attendance from a YAML fixture",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configFrom(cmd)
			if file == "" {
				file = cfg.SeedFile
			}
			if file == "" {
				return fmt.Errorf("seed: --file or ROLLCALL_SEED_FILE is required")
			}
			db, timedDB, err := openDatabase(cmd.Context(), cfg, nil)
			if err != nil {
				return err
			}
			defer db.Close()
			return seedFromFile(cmd.Context(), file, newStores(timedDB))
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "path to seed fixture")
	return cmd
}
