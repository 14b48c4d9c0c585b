package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"faultdesk/internal/config"
	contextutils "faultdesk/internal/utils"
)

// DatabaseCommands returns the schema migration commands
func DatabaseCommands(migrator Migrator, cfg config.DatabaseConfig, deps *Deps) *cobra.Command {
	dbCmd := &cobra.Command{
		Use:   "db",
		Short: "Database management commands",
		Long: `Database management commands.

Available commands:
  migrate  - Apply all pending migrations
  down     - Roll back migrations
  version  - Show the current schema version`,
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if steps < 1 {
				return contextutils.WrapError(contextutils.ErrInvalidInput, "--steps must be at least 1")
			}
			if err := migrator.MigrateDown(cmd.Context(), cfg, steps); err != nil {
				return contextutils.WrapError(err, "rollback failed")
			}
			fmt.Fprintf(deps.Out, "Rolled back %d migration(s)\n", steps)
			return nil
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	dbCmd.AddCommand(
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				deps.Logger.Info(cmd.Context(), "Running migrations", map[string]interface{}{
					"database_url": maskDatabaseURL(cfg.URL),
				})
				if err := migrator.MigrateUp(cmd.Context(), cfg); err != nil {
					return contextutils.WrapError(err, "migration failed")
				}
				fmt.Fprintln(deps.Out, "Migrations applied")
				return nil
			},
		},
		down,
		&cobra.Command{
			Use:   "version",
			Short: "Show the current schema version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				v, dirty, err := migrator.Version(cmd.Context(), cfg)
				if err != nil {
					return contextutils.WrapError(err, "failed to read schema version")
				}
				fmt.Fprintf(deps.Out, "version=%d dirty=%t\n", v, dirty)
				return nil
			},
		},
	)
	return dbCmd
}
