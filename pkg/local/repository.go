// Package local keeps the guest task list in durable key/value storage.
package local

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/harrisonrobin/tasksync/pkg/model"
	"github.com/harrisonrobin/tasksync/pkg/storage"
)

// TasksKey is the storage key holding the whole guest task list.
const TasksKey = "guestTasks"

type Option func(*Repository)

func WithLogger(l *slog.Logger) Option {
	return func(r *Repository) { r.logger = l }
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

// WithIDGenerator overrides how candidate identifiers are produced. Candidates
// that collide with a stored id are discarded and a new one is drawn.
func WithIDGenerator(gen func() string) Option {
	return func(r *Repository) { r.newID = gen }
}

// Repository stores guest tasks as one serialized list. Every mutation is a
// full read-modify-write of that list.
type Repository struct {
	store  storage.Storage
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

func NewRepository(store storage.Storage, opts ...Option) *Repository {
	r := &Repository{
		store:  store,
		logger: slog.Default(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// List returns the stored tasks in insertion order. A payload that cannot be
// decoded is treated as an empty list.
func (r *Repository) List(_ context.Context) ([]model.Task, error) {
	return r.load()
}

// Add stores a new pending task built from d.
func (r *Repository) Add(_ context.Context, d model.Draft) (model.Task, error) {
	tasks, err := r.load()
	if err != nil {
		return model.Task{}, err
	}

	now := r.now().UTC()
	task := model.Task{
		ID:          r.uniqueID(tasks),
		Title:       d.Title,
		Description: d.Description,
		Status:      model.PENDING,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	tasks = append(tasks, task)
	if err := r.save(tasks); err != nil {
		return model.Task{}, err
	}
	return task, nil
}

// Update merges p over the stored task. The id and creation time are kept and
// the update time is refreshed.
func (r *Repository) Update(_ context.Context, id model.ID, p model.Patch) (model.Task, error) {
	tasks, err := r.load()
	if err != nil {
		return model.Task{}, err
	}

	i := model.IndexOf(tasks, id)
	if i == -1 {
		return model.Task{}, fmt.Errorf("local: update task %s: %w", id, model.ErrNotFound)
	}

	orig := tasks[i]
	updated := p.Apply(orig)
	updated.ID = orig.ID
	updated.CreatedAt = orig.CreatedAt
	updated.UpdatedAt = r.now().UTC()

	tasks[i] = updated
	if err := r.save(tasks); err != nil {
		return model.Task{}, err
	}
	return updated, nil
}

// Delete removes the task with the given id. An absent id is logged and still
// reported as success.
func (r *Repository) Delete(_ context.Context, id model.ID) (bool, error) {
	tasks, err := r.load()
	if err != nil {
		return false, err
	}

	kept := tasks[:0:0]
	for _, t := range tasks {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	if len(kept) == len(tasks) {
		r.logger.Warn("task not found for deletion", "id", id)
	}

	if err := r.save(kept); err != nil {
		return false, err
	}
	return true, nil
}

// Clear drops the whole guest list.
func (r *Repository) Clear(_ context.Context) (bool, error) {
	if err := r.store.Remove(TasksKey); err != nil {
		return false, fmt.Errorf("local: clear tasks: %w", err)
	}
	return true, nil
}

func (r *Repository) uniqueID(tasks []model.Task) model.ID {
	taken := make(map[model.ID]bool, len(tasks))
	for _, t := range tasks {
		taken[t.ID] = true
	}
	for {
		id := model.ID(r.newID())
		if id != "" && !taken[id] {
			return id
		}
	}
}

func (r *Repository) load() ([]model.Task, error) {
	b, ok, err := r.store.Get(TasksKey)
	if err != nil {
		return nil, fmt.Errorf("local: read tasks: %w", err)
	}
	if !ok {
		return []model.Task{}, nil
	}

	var tasks []model.Task
	if err := json.Unmarshal(b, &tasks); err != nil {
		r.logger.Warn("stored guest tasks are unreadable, starting empty", "error", err)
		return []model.Task{}, nil
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	return tasks, nil
}

func (r *Repository) save(tasks []model.Task) error {
	b, err := json.Marshal(tasks)
	if err != nil {
		return fmt.Errorf("local: encode tasks: %w", err)
	}
	if err := r.store.Set(TasksKey, b); err != nil {
		return fmt.Errorf("local: write tasks: %w", err)
	}
	return nil
}
