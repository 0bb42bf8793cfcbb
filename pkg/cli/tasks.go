package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/tasksync/pkg/model"
	"github.com/harrisonrobin/tasksync/pkg/util"
)

func newListCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show all tasks",
		Args:    cobra.NoArgs,
		PreRunE: app.requireSession,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app.store.Fetch(cmd.Context())
			if err := app.storeErr(); err != nil {
				return err
			}
			app.Logger.Debug("listed tasks", "source", app.modeName())
			fmt.Fprintln(cmd.OutOrStdout(), util.FormatTasks(app.store.Tasks(), app.store.IsProvisional))
			return nil
		},
	}
}

func newAddCommand(app *App) *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:     "add <title>",
		Short:   "Create a task",
		Args:    cobra.ExactArgs(1),
		PreRunE: app.requireSession,
		RunE: func(cmd *cobra.Command, args []string) error {
			app.store.Add(cmd.Context(), model.Draft{Title: args[0], Description: description})
			if err := app.storeErr(); err != nil {
				return err
			}
			// The created task takes the provisional entry's place at the head.
			created := app.store.Tasks()[0]
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s\n", util.FormatTask(created, app.store.IsProvisional(created.ID)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "task description")
	return cmd
}

func newEditCommand(app *App) *cobra.Command {
	var title, description, status string
	cmd := &cobra.Command{
		Use:     "edit <id>",
		Short:   "Change a task's title, description or status",
		Args:    cobra.ExactArgs(1),
		PreRunE: app.requireSession,
		RunE: func(cmd *cobra.Command, args []string) error {
			var p model.Patch
			if cmd.Flags().Changed("title") {
				p.Title = &title
			}
			if cmd.Flags().Changed("description") {
				p.Description = &description
			}
			if cmd.Flags().Changed("status") {
				s, err := util.ParseStatus(status)
				if err != nil {
					return err
				}
				p.Status = &s
			}
			if p.IsEmpty() {
				return errors.New("nothing to change: pass --title, --description or --status")
			}
			return app.edit(cmd, model.ID(args[0]), p)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&description, "description", "", "new description")
	cmd.Flags().StringVar(&status, "status", "", "pending or done")
	return cmd
}

func newDoneCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "done <id>",
		Short:   "Mark a task done",
		Args:    cobra.ExactArgs(1),
		PreRunE: app.requireSession,
		RunE: func(cmd *cobra.Command, args []string) error {
			done := model.DONE
			return app.edit(cmd, model.ID(args[0]), model.Patch{Status: &done})
		},
	}
}

func newRemoveCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		PreRunE: app.requireSession,
		RunE: func(cmd *cobra.Command, args []string) error {
			id := model.ID(args[0])
			if err := app.fetchContaining(cmd, id); err != nil {
				return err
			}
			app.store.Remove(cmd.Context(), id)
			if err := app.storeErr(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
			return nil
		},
	}
}

func newClearCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "clear",
		Short:   "Delete every guest task",
		Args:    cobra.NoArgs,
		PreRunE: app.requireSession,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ok, err := app.service.ClearAllTasks(cmd.Context())
			if err != nil {
				return err
			}
			if !ok {
				return errors.New("clear is only available in guest mode")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Cleared all guest tasks.")
			return nil
		},
	}
}

func (a *App) edit(cmd *cobra.Command, id model.ID, p model.Patch) error {
	if err := a.fetchContaining(cmd, id); err != nil {
		return err
	}
	a.store.Edit(cmd.Context(), id, p)
	if err := a.storeErr(); err != nil {
		return err
	}
	tasks := a.store.Tasks()
	i := model.IndexOf(tasks, id)
	if i == -1 {
		// A concurrent change dropped the task from the list.
		fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", id)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", util.FormatTask(tasks[i], false))
	return nil
}

// fetchContaining loads the list and checks that id is on it; the store
// ignores edits and removals of ids it does not hold.
func (a *App) fetchContaining(cmd *cobra.Command, id model.ID) error {
	a.store.Fetch(cmd.Context())
	if err := a.storeErr(); err != nil {
		return err
	}
	if model.IndexOf(a.store.Tasks(), id) == -1 {
		return fmt.Errorf("task %s: %w", id, model.ErrNotFound)
	}
	return nil
}
