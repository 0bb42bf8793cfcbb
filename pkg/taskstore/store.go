// Package taskstore holds the task list a UI renders and keeps it consistent
// with the authoritative backend.
//
// Mutations are optimistic: the list changes as soon as an action starts, the
// backend call runs, and the change is then either confirmed with the
// backend's record or rolled back to the value captured before the action.
// The backend call is the only point where an action waits, and the lock is
// not held while it does, so observers may see the speculative list.
//
// Actions are not serialized. When two actions on the same id overlap, the one
// that resolves last decides the final value.
package taskstore

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/harrisonrobin/tasksync/pkg/model"
)

// Messages recorded in State.Err when an action fails.
const (
	FetchFailed  = "Failed to fetch tasks."
	AddFailed    = "Failed to add task."
	UpdateFailed = "Failed to update task."
	DeleteFailed = "Failed to delete task."
)

// TempIDPrefix starts every provisional id the default generator draws.
const TempIDPrefix = "tmp-"

// TaskService is the backend-agnostic task API the store drives.
type TaskService interface {
	GetTasks(ctx context.Context) ([]model.Task, error)
	AddTask(ctx context.Context, d model.Draft) (model.Task, error)
	UpdateTask(ctx context.Context, id model.ID, p model.Patch) (model.Task, error)
	DeleteTask(ctx context.Context, id model.ID) (bool, error)
}

// State is a point-in-time copy of what the store exposes.
type State struct {
	Tasks   []model.Task
	Loading bool
	// Err is the message of the most recent failure, or "".
	Err string
}

type Option func(*Store)

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithObserver registers fn to receive the state after every change. fn runs
// without the store's lock held.
func WithObserver(fn func(State)) Option {
	return func(s *Store) { s.observers = append(s.observers, fn) }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithTempIDGenerator overrides how provisional ids are drawn. Candidates
// equal to an id already in the list are discarded.
func WithTempIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newTempID = gen }
}

type Store struct {
	svc TaskService

	mu      sync.Mutex
	tasks   []model.Task
	loading bool
	err     string
	// provisional holds the temporary ids of adds not yet confirmed.
	provisional map[model.ID]struct{}

	observers []func(State)
	logger    *slog.Logger
	now       func() time.Time
	newTempID func() string
}

func New(svc TaskService, opts ...Option) *Store {
	s := &Store{
		svc:         svc,
		tasks:       []model.Task{},
		provisional: make(map[model.ID]struct{}),
		logger:      slog.Default(),
		now:         time.Now,
		newTempID:   func() string { return TempIDPrefix + uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Store) Tasks() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.Clone(s.tasks)
}

func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// IsProvisional reports whether id was made up by the store for an add the
// backend has not confirmed.
func (s *Store) IsProvisional(id model.ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.provisional[id]
	return ok
}

func (s *Store) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Fetch replaces the list with the backend's. On failure the list is kept and
// the error recorded. Loading is set for the duration of the call.
func (s *Store) Fetch(ctx context.Context) {
	s.mu.Lock()
	s.loading = true
	s.err = ""
	s.unlockAndNotify()

	tasks, err := s.svc.GetTasks(ctx)

	s.mu.Lock()
	if err != nil {
		s.logger.Error("failed to fetch tasks", "error", err)
		s.err = FetchFailed
	} else {
		s.tasks = model.Clone(tasks)
		if s.tasks == nil {
			s.tasks = []model.Task{}
		}
		s.provisional = make(map[model.ID]struct{})
	}
	s.loading = false
	s.unlockAndNotify()
}

// Add puts a provisional task at the head of the list and replaces it with
// the created task once the backend answers. A failed call removes the
// provisional task. A created task without an id leaves the provisional entry
// in place, and IsProvisional keeps reporting it.
func (s *Store) Add(ctx context.Context, d model.Draft) {
	s.mu.Lock()
	s.err = ""
	now := s.now().UTC()
	tempID := s.tempIDLocked()
	provisional := model.Task{
		ID:          tempID,
		Title:       d.Title,
		Description: d.Description,
		Status:      model.PENDING,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.tasks = append([]model.Task{provisional}, s.tasks...)
	s.provisional[tempID] = struct{}{}
	s.unlockAndNotify()

	created, err := s.svc.AddTask(ctx, d)

	s.mu.Lock()
	switch {
	case err != nil:
		s.logger.Error("failed to add task", "error", err)
		s.err = AddFailed
		s.removeLocked(tempID)
		delete(s.provisional, tempID)
	case created.ID == "":
		s.logger.Warn("backend returned a task without an id, keeping provisional entry", "temp_id", tempID)
	case created.ID != tempID && model.IndexOf(s.tasks, created.ID) != -1:
		// A fetch that completed meanwhile already listed the created task.
		s.removeLocked(tempID)
		delete(s.provisional, tempID)
	default:
		if i := model.IndexOf(s.tasks, tempID); i != -1 {
			s.tasks[i] = created
		}
		delete(s.provisional, tempID)
	}
	s.unlockAndNotify()
}

// Edit applies p to the listed task right away and then stores the backend's
// result, or restores the previous value if the call fails. A result carrying
// a different id is not trusted and the local edit stays. Unknown ids are
// ignored.
func (s *Store) Edit(ctx context.Context, id model.ID, p model.Patch) {
	s.mu.Lock()
	s.err = ""
	i := model.IndexOf(s.tasks, id)
	if i == -1 {
		s.unlockAndNotify()
		return
	}
	snapshot := s.tasks[i]
	s.tasks[i] = p.Apply(snapshot)
	s.unlockAndNotify()

	updated, err := s.svc.UpdateTask(ctx, id, p)

	s.mu.Lock()
	j := model.IndexOf(s.tasks, id)
	switch {
	case err != nil:
		s.logger.Error("failed to update task", "id", id, "error", err)
		s.err = UpdateFailed
		if j != -1 {
			s.tasks[j] = snapshot
		}
	case updated.ID != id:
		s.logger.Warn("backend returned a task with another id, keeping local edit", "id", id, "returned_id", updated.ID)
	case j != -1:
		s.tasks[j] = updated
	}
	s.unlockAndNotify()
}

// Remove drops the listed task right away and puts it back at its old
// position if the backend call fails. Unknown ids are ignored.
func (s *Store) Remove(ctx context.Context, id model.ID) {
	s.mu.Lock()
	s.err = ""
	i := model.IndexOf(s.tasks, id)
	if i == -1 {
		s.unlockAndNotify()
		return
	}
	removed := s.tasks[i]
	s.tasks = append(s.tasks[:i:i], s.tasks[i+1:]...)
	s.unlockAndNotify()

	_, err := s.svc.DeleteTask(ctx, id)

	s.mu.Lock()
	if err != nil {
		s.logger.Error("failed to delete task", "id", id, "error", err)
		s.err = DeleteFailed
		if model.IndexOf(s.tasks, id) == -1 {
			s.insertLocked(min(i, len(s.tasks)), removed)
		}
	} else {
		delete(s.provisional, id)
	}
	s.unlockAndNotify()
}

func (s *Store) tempIDLocked() model.ID {
	for {
		id := model.ID(s.newTempID())
		if id != "" && model.IndexOf(s.tasks, id) == -1 {
			return id
		}
	}
}

func (s *Store) removeLocked(id model.ID) {
	if i := model.IndexOf(s.tasks, id); i != -1 {
		s.tasks = append(s.tasks[:i:i], s.tasks[i+1:]...)
	}
}

func (s *Store) insertLocked(i int, t model.Task) {
	out := make([]model.Task, 0, len(s.tasks)+1)
	out = append(out, s.tasks[:i]...)
	out = append(out, t)
	s.tasks = append(out, s.tasks[i:]...)
}

func (s *Store) stateLocked() State {
	return State{
		Tasks:   model.Clone(s.tasks),
		Loading: s.loading,
		Err:     s.err,
	}
}

// unlockAndNotify releases the lock and hands the new state to observers.
func (s *Store) unlockAndNotify() {
	st := s.stateLocked()
	observers := s.observers
	s.mu.Unlock()
	for _, fn := range observers {
		fn(st)
	}
}
