package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/bucketgate/pkg/audit"
	"github.com/dmitrymomot/bucketgate/pkg/tenancy"
)

func newAuditCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect persisted audit events",
	}
	cmd.AddCommand(newAuditTailCommand())
	return cmd
}

func newAuditTailCommand() *cobra.Command {
	var (
		tenant string
		limit  int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Print the most recent audit events, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if tenant != "" {
				if err := tenancy.ValidateTenantID(tenant); err != nil {
					return err
				}
			}
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive, got %d", limit)
			}

			ctx := cmd.Context()
			pool, _, closePool, err := openDatabase(ctx)
			defer closePool()
			if err != nil {
				return err
			}

			events, err := audit.NewStore(pool).Recent(ctx, tenant, limit)
			if err != nil {
				return err
			}
			if asJSON {
				return writeEventsJSON(cmd.OutOrStdout(), events)
			}
			return writeEventsTable(cmd.OutOrStdout(), events)
		},
	}
	cmd.Flags().StringVar(&tenant, "tenant", "", "only events for this tenant")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of events")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print one JSON object per line")
	return cmd
}

func writeEventsJSON(w io.Writer, events []audit.Event) error {
	enc := json.NewEncoder(w)
	for _, e := range events {
		if err := enc.Encode(e); err != nil {
			return err
		}
	}
	return nil
}

func writeEventsTable(w io.Writer, events []audit.Event) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tTENANT\tACTION\tOUTCOME\tRESOURCE")
	for _, e := range events {
		tenant := e.TenantID
		if tenant == "" {
			tenant = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", humanize.Time(e.Time), tenant, e.Action, e.Outcome, e.Resource)
	}
	return tw.Flush()
}
