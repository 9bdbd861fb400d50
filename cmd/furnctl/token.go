package main

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"furniture-assistant/internal/config"
	"furniture-assistant/internal/service"

	"github.com/spf13/cobra"
)

var errMissingSecret = errors.New("AUTH_JWT_SECRET is not set")

func newTokenCmd(load func() *config.Config) *cobra.Command {
	var (
		subject string
		role    string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token for the analytics dashboard",
		Long: `Issue a signed access token for the analytics routes.

The token is signed with AUTH_JWT_SECRET, the same secret the API server
verifies with, and printed to stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := load()
			if cfg.Auth.JWTSecret == "" {
				return errMissingSecret
			}
			if !slices.Contains([]string{service.RoleAdmin, service.RoleAnalyst}, role) {
				return fmt.Errorf("unknown role %q: want %s or %s", role, service.RoleAdmin, service.RoleAnalyst)
			}

			token, err := service.NewTokenService(cfg.Auth.JWTSecret).IssueToken(subject, role, ttl)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "Token subject, usually the operator name (required)")
	cmd.Flags().StringVar(&role, "role", service.RoleAnalyst, "Role claim: admin or analyst")
	cmd.Flags().DurationVar(&ttl, "ttl", service.DefaultTokenExpiration, "Token lifetime")
	_ = cmd.MarkFlagRequired("subject")

	return cmd
}
