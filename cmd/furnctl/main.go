// Command furnctl is the operator CLI for the furniture assistant: it issues
// analytics access tokens and applies database migrations.
package main

import (
	"fmt"
	"os"

	"furniture-assistant/internal/config"
	"furniture-assistant/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// newRootCmd builds the command tree. load supplies configuration so tests
// can run commands without touching the process environment.
func newRootCmd(load func() *config.Config) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "furnctl",
		Short:         "Operate the furniture assistant API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newTokenCmd(load))
	rootCmd.AddCommand(newMigrateCmd(load))
	return rootCmd
}

func newLogger(cfg *config.Config) *zap.Logger {
	log, err := logger.New(cfg.Server.Env, cfg.Server.LogLevel)
	if err != nil {
		return zap.NewNop()
	}
	return log
}

func main() {
	if err := newRootCmd(config.Load).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
