package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"rollcall/internal/adapters/storage"
)

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configFrom(cmd)
			db, _, err := openDatabase(cmd.Context(), cfg, nil)
			if err != nil {
				return err
			}
			defer db.Close()
			v, err := storage.SchemaVersion(db)
			if err != nil {
				return err
			}
			slog.Info("schema_current", "version", v, "path", cfg.DBPath)
			return nil
		},
	}
}
