// Package main provides the entry point for the faultdesk admin CLI tool.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"faultdesk/cmd/adm/commands"
	"faultdesk/internal/config"
	"faultdesk/internal/database"
	"faultdesk/internal/di"
	"faultdesk/internal/observability"
	"faultdesk/internal/version"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if os.Getenv(config.ConfigFileEnv) == "" {
		for _, path := range []string{"config.yaml", "../config.yaml", "../../config.yaml"} {
			if _, err := os.Stat(path); err == nil {
				_ = os.Setenv(config.ConfigFileEnv, path)
				break
			}
		}
	}

	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	cfg.Server.LogLevel = "error"
	// the CLI is short lived and must not block on a collector
	cfg.OpenTelemetry.EnableTracing = false
	cfg.OpenTelemetry.EnableMetrics = false
	cfg.OpenTelemetry.EnableLogging = false
	cfg.Server.MetricsEnabled = false
	cfg.AI.Enabled = false
	cfg.Voice.Enabled = false

	tp, mp, logger, err := observability.SetupObservability(&cfg.OpenTelemetry, "faultdesk-adm")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize observability: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if tp != nil {
			_ = tp.Shutdown(context.Background())
		}
		if mp != nil {
			_ = mp.Shutdown(context.Background())
		}
	}()

	container := di.NewServiceContainer(cfg, logger)
	defer func() {
		if err := container.Shutdown(context.Background()); err != nil {
			logger.Warn(ctx, "Error closing service container", map[string]interface{}{"error": err.Error()})
		}
	}()

	deps := &commands.Deps{
		Config: cfg,
		Logger: logger,
		Out:    os.Stdout,
		ReadPassword: func() ([]byte, error) {
			return term.ReadPassword(int(os.Stdin.Fd()))
		},
	}

	rootCmd := newRootCommand(cfg, deps, database.NewManager(logger), func(ctx context.Context) error {
		if err := container.Initialize(ctx); err != nil {
			return err
		}
		deps.Stores = container.Stores()
		deps.Auth = container.AuthService()
		deps.Users = container.UserService()
		deps.Audit = container.AuditService()
		return nil
	})

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand(cfg *config.Config, deps *commands.Deps, migrator commands.Migrator, initServices func(context.Context) error) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "adm",
		Short:   "Faultdesk administration tool",
		Long:    `Administrative commands for faultdesk: user management, audit trail inspection and schema migrations.`,
		Version: version.Current("faultdesk-adm").String(),
	}

	userCmd := commands.UserCommands(deps)
	auditCmd := commands.AuditCommands(deps)
	for _, c := range []*cobra.Command{userCmd, auditCmd} {
		c.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
			return initServices(cmd.Context())
		}
	}

	rootCmd.AddCommand(userCmd, auditCmd, commands.DatabaseCommands(migrator, cfg.Database, deps))
	return rootCmd
}
