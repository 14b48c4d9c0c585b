package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	contextutils "faultdesk/internal/utils"
)

// AuditCommands returns the audit trail commands
func AuditCommands(deps *Deps) *cobra.Command {
	var limit int

	tail := &cobra.Command{
		Use:   "tail",
		Short: "Show the most recent audit entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logs, err := deps.Audit.List(cmd.Context(), SystemActor)
			if err != nil {
				return contextutils.WrapError(err, "failed to list audit logs")
			}
			if limit > 0 && len(logs) > limit {
				logs = logs[:limit]
			}

			w := tabwriter.NewWriter(deps.Out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tUSER\tROLE\tACTION\tDETAILS")
			for _, l := range logs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", l.Timestamp.Format(time.RFC3339), l.UserName, l.UserRole, l.Action, l.Details)
			}
			return w.Flush()
		},
	}
	tail.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries to show")

	auditCmd := &cobra.Command{
		Use:   "audit",
		Short: "Audit trail commands",
	}
	auditCmd.AddCommand(tail)
	return auditCmd
}
