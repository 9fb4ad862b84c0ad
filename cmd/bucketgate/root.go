package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bucketgate",
		Short: "Multi-tenant gateway to a shared S3 bucket",
		Long: `bucketgate confines every tenant to users/{tenant}/ in one shared bucket.
It serves the object and credentials API and runs the maintenance jobs that
keep the bucket tidy. All settings come from the environment.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(
		newServeCommand(),
		newMigrateCommand(),
		newConfigCommand(),
		newAuditCommand(),
		newTokenCommand(),
	)
	return cmd
}
