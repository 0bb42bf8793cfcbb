// Package cli is the tasksync command line. Every task command goes through
// the task store, so the terminal sees the same optimistic behavior a UI would.
package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/tasksync/pkg/config"
	"github.com/harrisonrobin/tasksync/pkg/local"
	"github.com/harrisonrobin/tasksync/pkg/mode"
	"github.com/harrisonrobin/tasksync/pkg/remote"
	"github.com/harrisonrobin/tasksync/pkg/session"
	"github.com/harrisonrobin/tasksync/pkg/storage"
	"github.com/harrisonrobin/tasksync/pkg/tasks"
	"github.com/harrisonrobin/tasksync/pkg/taskstore"
)

var errNoSession = errors.New("not signed in: run `tasksync guest` or `tasksync login` first")

// App carries the components the commands share. Zero fields are filled in
// from the loaded configuration on first use.
type App struct {
	ConfigPath string
	Config     *config.Config
	Storage    storage.Storage
	Transport  http.RoundTripper
	Logger     *slog.Logger

	session *session.Session
	remote  *remote.Client
	service *tasks.Service
	store   *taskstore.Store
}

func Execute() int {
	if err := NewRootCommand(&App{}).Execute(); err != nil {
		return 1
	}
	return 0
}

func NewRootCommand(app *App) *cobra.Command {
	var (
		verbose bool
		baseURL string
	)
	root := &cobra.Command{
		Use:          "tasksync",
		Short:        "Manage tasks as a guest on this machine or on a task server",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.load(verbose, baseURL)
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output to stderr")
	root.PersistentFlags().StringVar(&baseURL, "base-url", "", "task server API URL (overrides config)")

	root.AddCommand(
		newGuestCommand(app),
		newLoginCommand(app),
		newLogoutCommand(app),
		newListCommand(app),
		newAddCommand(app),
		newEditCommand(app),
		newDoneCommand(app),
		newRemoveCommand(app),
		newClearCommand(app),
		newImportCommand(app),
		newConfigCommand(app),
	)
	return root
}

func (a *App) load(verbose bool, baseURL string) error {
	if a.Logger == nil {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		a.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	}
	if a.ConfigPath == "" {
		a.ConfigPath = config.GetConfigPath()
	}
	if a.Config == nil {
		cfg, err := config.LoadFile(a.ConfigPath)
		if err != nil {
			return err
		}
		a.Config = cfg
	}
	if baseURL != "" {
		a.Config.BaseURL = baseURL
	}
	return nil
}

// wire builds the task stack once. Commands that only touch configuration
// never call it, so a broken base URL can still be fixed.
func (a *App) wire() error {
	if a.store != nil {
		return nil
	}
	if a.Storage == nil {
		a.Storage = storage.NewOSFiles(a.Config.DataDir)
	}
	a.session = session.New(a.Storage, session.WithLogger(a.Logger))

	opts := []remote.Option{remote.WithLogger(a.Logger), remote.WithTimeout(a.Config.Timeout)}
	if a.Transport != nil {
		opts = append(opts, remote.WithTransport(a.Transport))
	}
	rc, err := remote.NewClient(a.Config.BaseURL, a.session, opts...)
	if err != nil {
		return err
	}
	a.remote = rc

	repo := local.NewRepository(a.Storage, local.WithLogger(a.Logger))
	a.service = tasks.NewService(mode.NewSessionSelector(a.session), repo, rc, tasks.WithLogger(a.Logger))
	a.store = taskstore.New(a.service,
		taskstore.WithLogger(a.Logger),
		taskstore.WithObserver(func(st taskstore.State) {
			a.Logger.Debug("task store changed", "tasks", len(st.Tasks), "loading", st.Loading, "error", st.Err)
		}),
	)
	return nil
}

// requireSession wires the stack and rejects task commands before the user
// has chosen guest mode or signed in.
func (a *App) requireSession(_ *cobra.Command, _ []string) error {
	if err := a.wire(); err != nil {
		return err
	}
	if !a.session.IsGuest() && !a.session.IsAuthenticated() {
		return errNoSession
	}
	return nil
}

// storeErr turns the store's last failure into a command error.
func (a *App) storeErr() error {
	if msg := a.store.Err(); msg != "" {
		return errors.New(msg)
	}
	return nil
}

func (a *App) modeName() string {
	if a.session.IsGuest() {
		return fmt.Sprintf("guest (%s)", a.Config.DataDir)
	}
	return a.Config.BaseURL
}
