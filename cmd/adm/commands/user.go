package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"faultdesk/internal/models"
	contextutils "faultdesk/internal/utils"
)

// UserCommands returns the user management commands
func UserCommands(deps *Deps) *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "User management commands",
		Long: `User management commands.

Available commands:
  list            - List all users
  reset-password  - Reset password for a user
  set-role        - Change a user's role
  approve         - Approve a pending signup`,
	}

	userCmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List all users",
			Args:  cobra.NoArgs,
			RunE:  runListUsers(deps),
		},
		&cobra.Command{
			Use:   "reset-password [username]",
			Short: "Reset password for a user",
			Long:  `Reset the password for a user. The new password is read twice from the terminal without echo.`,
			Args:  cobra.ExactArgs(1),
			RunE:  runResetPassword(deps),
		},
		&cobra.Command{
			Use:   "set-role [username] [USER|MANAGER|ADMIN]",
			Short: "Change a user's role",
			Args:  cobra.ExactArgs(2),
			RunE:  runSetRole(deps),
		},
		&cobra.Command{
			Use:   "approve [username]",
			Short: "Approve a pending signup",
			Args:  cobra.ExactArgs(1),
			RunE:  runApprove(deps),
		},
	)
	return userCmd
}

func runListUsers(deps *Deps) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		deps.Logger.Info(ctx, "Admin command diagnostics", map[string]interface{}{
			"database_url": maskDatabaseURL(deps.Config.Database.URL),
		})

		users, err := deps.Users.List(ctx, SystemActor)
		if err != nil {
			return contextutils.WrapError(err, "failed to list users")
		}
		if len(users) == 0 {
			fmt.Fprintln(deps.Out, "No users found")
			return nil
		}

		w := tabwriter.NewWriter(deps.Out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "USERNAME\tNAME\tROLE\tAPPROVED\tMANAGER\tCREATED")
		for _, u := range users {
			approved := "no"
			if u.IsApproved {
				approved = "yes"
			}
			manager := "-"
			if u.ManagerID != nil {
				manager = *u.ManagerID
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", u.Username, u.Name, u.Role, approved, manager, u.CreatedAt.Format("2006-01-02"))
		}
		return w.Flush()
	}
}

func runResetPassword(deps *Deps) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		user, err := deps.lookup(ctx, args[0])
		if err != nil {
			return contextutils.WrapErrorf(err, "failed to find user '%s'", args[0])
		}

		fmt.Fprint(deps.Out, "Enter new password: ")
		first, err := deps.ReadPassword()
		fmt.Fprintln(deps.Out)
		if err != nil {
			return contextutils.WrapError(err, "failed to read password")
		}
		fmt.Fprint(deps.Out, "Confirm new password: ")
		second, err := deps.ReadPassword()
		fmt.Fprintln(deps.Out)
		if err != nil {
			return contextutils.WrapError(err, "failed to read password confirmation")
		}
		if string(first) != string(second) {
			return contextutils.WrapError(contextutils.ErrInvalidInput, "passwords do not match")
		}

		if err := deps.Auth.ResetPassword(ctx, user.ID, string(first)); err != nil {
			return contextutils.WrapErrorf(err, "failed to update password for user '%s'", user.Username)
		}
		deps.Logger.Info(ctx, "Password reset from admin CLI", map[string]interface{}{"user_id": user.ID, "username": user.Username})
		fmt.Fprintf(deps.Out, "Password reset for user '%s'\n", user.Username)
		return nil
	}
}

func runSetRole(deps *Deps) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		role, ok := models.ParseRole(args[1])
		if !ok {
			return contextutils.WrapErrorf(contextutils.ErrInvalidInput, "unknown role %q", args[1])
		}
		user, err := withUser(ctx, deps, args[0], func(ctx context.Context, id string) (*models.User, error) {
			return deps.Users.SetRole(ctx, SystemActor, id, role)
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(deps.Out, "User '%s' is now %s\n", user.Username, user.Role)
		return nil
	}
}

func runApprove(deps *Deps) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		user, err := withUser(cmd.Context(), deps, args[0], func(ctx context.Context, id string) (*models.User, error) {
			return deps.Users.Approve(ctx, SystemActor, id)
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(deps.Out, "User '%s' approved\n", user.Username)
		return nil
	}
}

func withUser(ctx context.Context, deps *Deps, username string, fn func(context.Context, string) (*models.User, error)) (*models.User, error) {
	user, err := deps.lookup(ctx, username)
	if err != nil {
		return nil, contextutils.WrapErrorf(err, "failed to find user '%s'", username)
	}
	return fn(ctx, user.ID)
}
