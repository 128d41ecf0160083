// Package board keeps the client's synchronized view of the task collection.
//
// The board never filters or patches locally. Every change of filter and
// every successful mutation is followed by a full re-fetch from the
// collaborator, and the response replaces the collection wholesale.
package board

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"taskdesk/internal/access"
	"taskdesk/internal/logging"
	"taskdesk/internal/service"
)

// Row is a task paired with the actions offered on it.
type Row struct {
	Task service.Task
	Caps access.Capabilities
}

// Board is the synchronized task view. It is safe for concurrent use.
type Board struct {
	svc service.Service
	log *slog.Logger

	mu      sync.Mutex
	filter  service.Filter
	tasks   []service.Task
	roster  []service.Identity
	message string
	loaded  bool

	// issued counts refresh requests; applied is the newest one whose
	// response has been stored. Responses older than applied are dropped.
	issued  uint64
	applied uint64
}

// New creates an empty board showing FilterAll.
func New(svc service.Service, log *slog.Logger) *Board {
	if log == nil {
		log = logging.Discard()
	}
	return &Board{svc: svc, log: log, filter: service.FilterAll}
}

// Filter returns the active filter.
func (b *Board) Filter() service.Filter {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.filter
}

// Tasks returns a copy of the local collection.
func (b *Board) Tasks() []service.Task {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]service.Task, len(b.tasks))
	copy(out, b.tasks)
	return out
}

// Roster returns a copy of the eligible assignees.
func (b *Board) Roster() []service.Identity {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]service.Identity, len(b.roster))
	copy(out, b.roster)
	return out
}

// Message returns the last user-facing error, or "".
func (b *Board) Message() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.message
}

// ClearMessage dismisses the user-facing error.
func (b *Board) ClearMessage() {
	b.mu.Lock()
	b.message = ""
	b.mu.Unlock()
}

// Rows pairs each task with the capabilities of who.
func (b *Board) Rows(who service.Identity) []Row {
	tasks := b.Tasks()
	rows := make([]Row, len(tasks))
	for i, t := range tasks {
		rows[i] = Row{Task: t, Caps: access.Check(who, t)}
	}
	return rows
}

// Reset empties the board and restores FilterAll.
// Any refresh still in flight is discarded when it returns.
func (b *Board) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.filter = service.FilterAll
	b.tasks = nil
	b.roster = nil
	b.message = ""
	b.loaded = false
	b.applied = b.issued
}

// Loaded reports whether a refresh has completed since the last reset.
func (b *Board) Loaded() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loaded
}

// Refresh re-fetches the collection for the active filter.
// On failure the error is logged and returned and the previous collection
// stays visible.
func (b *Board) Refresh(ctx context.Context) error {
	b.mu.Lock()
	filter := b.filter
	b.issued++
	seq := b.issued
	b.mu.Unlock()

	return b.fetch(ctx, filter, seq)
}

// Select switches the active filter without fetching. The listing is
// emptied if the filter changes, so the next Refresh loads it.
func (b *Board) Select(filter service.Filter) error {
	if !filter.Valid() {
		return fmt.Errorf("invalid filter: %s", filter)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if filter == b.filter {
		return nil
	}
	b.filter = filter
	b.tasks = nil
	b.loaded = false
	b.applied = b.issued
	return nil
}

// SetFilter switches the active filter and re-fetches.
func (b *Board) SetFilter(ctx context.Context, filter service.Filter) error {
	if !filter.Valid() {
		return fmt.Errorf("invalid filter: %s", filter)
	}
	b.mu.Lock()
	b.filter = filter
	b.issued++
	seq := b.issued
	b.mu.Unlock()

	return b.fetch(ctx, filter, seq)
}

func (b *Board) fetch(ctx context.Context, filter service.Filter, seq uint64) error {
	tasks, err := b.svc.ListTasks(ctx, filter)
	if err != nil {
		b.log.Error("refresh tasks failed", "filter", filter, "error", err)
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if seq <= b.applied || filter != b.filter {
		// A newer refresh already landed, the filter moved on, or the
		// board was reset.
		b.log.Debug("dropping stale task response", "filter", filter, "seq", seq, "applied", b.applied)
		return nil
	}
	b.tasks = tasks
	b.loaded = true
	b.applied = seq
	b.log.Debug("tasks refreshed", "filter", filter, "count", len(tasks))
	return nil
}

// LoadRoster fetches the identity roster and keeps the entries caller may
// assign to. On failure the previous roster stays.
func (b *Board) LoadRoster(ctx context.Context, caller service.Identity) error {
	users, err := b.svc.ListUsers(ctx)
	if err != nil {
		b.log.Error("load users failed", "error", err)
		return err
	}
	eligible := access.EligibleAssignees(caller, users)

	b.mu.Lock()
	b.roster = eligible
	b.mu.Unlock()
	return nil
}

// Create submits a new task, then re-fetches.
func (b *Board) Create(ctx context.Context, task service.NewTask) error {
	if err := task.Validate(); err != nil {
		return err
	}
	return b.mutate(ctx, "create", func() error {
		_, err := b.svc.CreateTask(ctx, task)
		return err
	})
}

// UpdateStatus changes a task's status, then re-fetches.
func (b *Board) UpdateStatus(ctx context.Context, taskID string, status service.Status) error {
	if !status.Valid() {
		return fmt.Errorf("invalid status: %s", status)
	}
	return b.mutate(ctx, "update status", func() error {
		_, err := b.svc.UpdateStatus(ctx, taskID, status)
		return err
	})
}

// Delete removes a task, then re-fetches.
func (b *Board) Delete(ctx context.Context, taskID string) error {
	return b.mutate(ctx, "delete", func() error {
		return b.svc.DeleteTask(ctx, taskID)
	})
}

// mutate runs one request. A rejection becomes the user-facing message; a
// transport failure is only logged. Either way local state is unchanged.
// Success always re-fetches with the current filter.
func (b *Board) mutate(ctx context.Context, op string, call func() error) error {
	if err := call(); err != nil {
		if msg, ok := service.Rejection(err); ok {
			b.mu.Lock()
			b.message = msg
			b.mu.Unlock()
		}
		b.log.Error(op+" failed", "error", err)
		return err
	}

	b.ClearMessage()
	if err := b.Refresh(ctx); err != nil {
		return fmt.Errorf("%s succeeded but refresh failed: %w", op, err)
	}
	return nil
}

// ErrTaskNotFound is returned by Lookup when no visible task matches.
var ErrTaskNotFound = errors.New("task not found")

// Lookup returns the task with id from the local collection.
func (b *Board) Lookup(id string) (service.Task, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, t := range b.tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return service.Task{}, ErrTaskNotFound
}
