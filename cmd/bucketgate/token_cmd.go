package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/bucketgate/internal/config"
	"github.com/dmitrymomot/bucketgate/pkg/jwt"
	"github.com/dmitrymomot/bucketgate/pkg/tenancy"
)

func newTokenCommand() *cobra.Command {
	var (
		tenant string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for a tenant (development only)",
		Long: `Signs a token with JWT_SECRET whose subject is the tenant ID.
Production tokens are issued by the identity provider in front of the gateway.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if tenant == "" {
				return errors.New("--tenant is required")
			}
			if err := tenancy.ValidateTenantID(tenant); err != nil {
				return err
			}
			cfg, err := config.Section[jwt.Config]()
			if err != nil {
				return err
			}
			svc, err := jwt.New(cfg)
			if err != nil {
				return err
			}
			token, err := svc.Generate(tenant, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&tenant, "tenant", "", "tenant ID placed in the token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	return cmd
}
