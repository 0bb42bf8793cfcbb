package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/tasksync/pkg/model"
	"github.com/harrisonrobin/tasksync/pkg/session"
)

func newGuestCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "guest",
		Short: "Keep tasks on this machine without an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.wire(); err != nil {
				return err
			}
			if err := app.session.StartGuest(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Guest mode: tasks are stored in %s\n", app.Config.DataDir)
			return nil
		},
	}
}

func newLoginCommand(app *App) *cobra.Command {
	var (
		token string
		user  session.User
		id    string
	)
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Use an API token issued by the task server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.wire(); err != nil {
				return err
			}
			user.ID = model.ID(id)
			if err := app.session.SignIn(user, token); err != nil {
				return err
			}
			name := user.Name
			if name == "" {
				name = "user"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s on %s\n", name, app.Config.BaseURL)
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "bearer token")
	cmd.Flags().StringVar(&user.Name, "user", "", "display name")
	cmd.Flags().StringVar(&user.Email, "email", "", "account email")
	cmd.Flags().StringVar(&id, "id", "", "account id")
	_ = cmd.MarkFlagRequired("token")
	return cmd
}

func newLogoutCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the token and leave guest mode",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.wire(); err != nil {
				return err
			}
			if err := app.session.End(cmd.Context(), app.remote); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		},
	}
}
