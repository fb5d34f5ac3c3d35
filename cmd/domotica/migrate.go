package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nerrad567/domotica-core/internal/infrastructure/database"
)

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDatabase(cmd.Context(), opts, func(ctx context.Context, db *database.DB) error {
				if err := db.Migrate(ctx); err != nil {
					return err
				}
				return printMigrationStatus(ctx, db, cmd.OutOrStdout())
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recently applied migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDatabase(cmd.Context(), opts, func(ctx context.Context, db *database.DB) error {
				if err := db.MigrateDown(ctx); err != nil {
					return err
				}
				return printMigrationStatus(ctx, db, cmd.OutOrStdout())
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "List applied and pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDatabase(cmd.Context(), opts, func(ctx context.Context, db *database.DB) error {
				return printMigrationStatus(ctx, db, cmd.OutOrStdout())
			})
		},
	})

	return cmd
}

// withDatabase opens the configured database for the duration of fn.
func withDatabase(ctx context.Context, opts *rootOptions, fn func(context.Context, *database.DB) error) error {
	cfg, _, err := opts.loadConfig()
	if err != nil {
		return err
	}

	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	return fn(ctx, db)
}

func printMigrationStatus(ctx context.Context, db *database.DB, out io.Writer) error {
	applied, pending, err := db.GetMigrationStatus(ctx)
	if err != nil {
		return fmt.Errorf("reading migration status: %w", err)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VERSION\tSTATUS\tAPPLIED AT")
	for _, m := range applied {
		fmt.Fprintf(w, "%s\tapplied\t%s\n", m.Version, m.AppliedAt.Format("2006-01-02 15:04:05"))
	}
	for _, m := range pending {
		fmt.Fprintf(w, "%s\tpending\t-\n", m.Version)
	}
	return w.Flush()
}
