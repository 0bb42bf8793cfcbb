package cli

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/harrisonrobin/tasksync/pkg/config"
)

func newConfigCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change settings",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective settings",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				out, err := yaml.Marshal(app.Config)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "# %s\n%s", app.ConfigPath, out)
				return nil
			},
		},
		&cobra.Command{
			Use:   "set-url <url>",
			Short: "Set the task server API URL",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				u, err := url.Parse(args[0])
				if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
					return fmt.Errorf("invalid URL %q: want http(s)://host/path", args[0])
				}
				app.Config.BaseURL = u.String()
				if err := config.SaveFile(app.ConfigPath, app.Config); err != nil {
					return fmt.Errorf("error saving config: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Task server set to: %s\n", app.Config.BaseURL)
				return nil
			},
		},
	)
	return cmd
}
