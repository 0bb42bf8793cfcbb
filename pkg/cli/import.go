package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/tasksync/pkg/model"
	"github.com/harrisonrobin/tasksync/pkg/taskwarrior"
)

func newImportCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "import [file]",
		Short:   "Import a Taskwarrior export (reads stdin without a file)",
		Example: "  task export | tasksync import",
		Args:    cobra.MaximumNArgs(1),
		PreRunE: app.requireSession,
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			twTasks, err := taskwarrior.ParseTasks(in)
			if err != nil {
				return err
			}

			var imported, skipped int
			for _, tw := range twTasks {
				if !taskwarrior.Importable(tw) {
					skipped++
					continue
				}
				draft, status := taskwarrior.ToDraft(tw)
				app.store.Add(cmd.Context(), draft)
				if err := app.storeErr(); err != nil {
					return fmt.Errorf("imported %d of %d tasks: %w", imported, len(twTasks), err)
				}
				if status != model.PENDING {
					created := app.store.Tasks()[0]
					app.store.Edit(cmd.Context(), created.ID, model.Patch{Status: &status})
					if err := app.storeErr(); err != nil {
						return fmt.Errorf("imported %d of %d tasks: %w", imported, len(twTasks), err)
					}
				}
				app.Logger.Debug("imported task", "uuid", tw.UUID, "status", status)
				imported++
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d tasks (%d skipped)\n", imported, skipped)
			return nil
		},
	}
}
