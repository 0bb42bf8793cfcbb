// Package tasks is the single entry point for task operations. It hides whether
// the session's tasks live in local guest storage or on the remote service.
package tasks

import (
	"context"
	"log/slog"

	"github.com/harrisonrobin/tasksync/pkg/mode"
	"github.com/harrisonrobin/tasksync/pkg/model"
)

// Backend is one place tasks can live. Both the guest repository and the
// remote client implement it.
type Backend interface {
	List(ctx context.Context) ([]model.Task, error)
	Add(ctx context.Context, d model.Draft) (model.Task, error)
	Update(ctx context.Context, id model.ID, p model.Patch) (model.Task, error)
	Delete(ctx context.Context, id model.ID) (bool, error)
	Clear(ctx context.Context) (bool, error)
}

type Option func(*Service)

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// Service dispatches each call to the backend the selector names at the time
// of the call. It keeps no state of its own.
type Service struct {
	selector mode.Selector
	local    Backend
	remote   Backend
	logger   *slog.Logger
}

func NewService(selector mode.Selector, local, remote Backend, opts ...Option) *Service {
	s := &Service{
		selector: selector,
		local:    local,
		remote:   remote,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// backend reads the mode once; the caller uses the result for the whole operation.
func (s *Service) backend() (mode.Mode, Backend) {
	m := s.selector.CurrentMode()
	if m == mode.Local {
		return m, s.local
	}
	return m, s.remote
}

func (s *Service) GetTasks(ctx context.Context) ([]model.Task, error) {
	m, b := s.backend()
	tasks, err := b.List(ctx)
	if err != nil {
		s.logger.Error("error fetching tasks", "mode", m, "error", err)
		return nil, err
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	return tasks, nil
}

func (s *Service) AddTask(ctx context.Context, d model.Draft) (model.Task, error) {
	m, b := s.backend()
	task, err := b.Add(ctx, d)
	if err != nil {
		s.logger.Error("error adding task", "mode", m, "error", err)
		return model.Task{}, err
	}
	return task, nil
}

func (s *Service) UpdateTask(ctx context.Context, id model.ID, p model.Patch) (model.Task, error) {
	m, b := s.backend()
	task, err := b.Update(ctx, id, p)
	if err != nil {
		s.logger.Error("error updating task", "mode", m, "id", id, "error", err)
		return model.Task{}, err
	}
	return task, nil
}

func (s *Service) DeleteTask(ctx context.Context, id model.ID) (bool, error) {
	m, b := s.backend()
	ok, err := b.Delete(ctx, id)
	if err != nil {
		s.logger.Error("error deleting task", "mode", m, "id", id, "error", err)
		return false, err
	}
	return ok, nil
}

// ClearAllTasks empties the guest list. In remote mode nothing is touched and
// false is returned without an error, so callers may invoke it unconditionally.
func (s *Service) ClearAllTasks(ctx context.Context) (bool, error) {
	m, b := s.backend()
	if m != mode.Local {
		s.logger.Warn("clearing all tasks is only supported in guest mode")
		return false, nil
	}
	ok, err := b.Clear(ctx)
	if err != nil {
		s.logger.Error("error clearing tasks", "mode", m, "error", err)
		return false, err
	}
	return ok, nil
}
