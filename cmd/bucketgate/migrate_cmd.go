package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/bucketgate/migrations"
	"github.com/dmitrymomot/bucketgate/pkg/db"
	"github.com/dmitrymomot/bucketgate/pkg/job"
)

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations (audit events and the job queue)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			pool, cfg, closePool, err := openDatabase(ctx)
			defer closePool()
			if err != nil {
				return err
			}
			log := commandLogger(cmd.ErrOrStderr())

			applied, err := db.Migrate(ctx, pool, migrations.FS, cfg.MigrationsTable, log)
			if err != nil {
				return err
			}
			queue, err := job.Migrate(ctx, pool)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "applied %d schema and %d job queue migrations\n", len(applied), len(queue))
			return err
		},
	}
	cmd.AddCommand(newMigrateStatusCommand())
	return cmd
}

func newMigrateStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "List schema migrations and whether they are applied",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			pool, cfg, closePool, err := openDatabase(ctx)
			defer closePool()
			if err != nil {
				return err
			}

			statuses, err := db.Status(ctx, pool, migrations.FS, cfg.MigrationsTable)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "VERSION\tMIGRATION\tAPPLIED")
			for _, s := range statuses {
				applied := "pending"
				if s.Applied {
					applied = humanize.Time(s.AppliedAt)
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\n", s.Version, s.Path, applied)
			}
			return tw.Flush()
		},
	}
}
