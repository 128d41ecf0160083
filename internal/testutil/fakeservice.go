// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"taskdesk/internal/service"
)

// Rejections returned by FakeService, shaped like the collaborator's.
var (
	ErrForbidden       = &service.RejectedError{StatusCode: http.StatusForbidden, Message: "forbidden"}
	ErrBadCredentials  = &service.RejectedError{StatusCode: http.StatusUnauthorized, Message: "invalid credentials"}
	ErrUnauthenticated = &service.RejectedError{StatusCode: http.StatusUnauthorized, Message: "unauthorized"}
	ErrTaskNotFound    = &service.RejectedError{StatusCode: http.StatusNotFound, Message: "task not found"}
)

// FakeService is an in-memory collaborator for testing.
// It evaluates filters and enforces the role rules server-side, the way the
// real collaborator does, so tests can exercise rejections.
type FakeService struct {
	mu        sync.RWMutex
	users     []service.Identity
	passwords map[string]string // username -> password
	usernames map[string]string // username -> identity ID
	tasks     []service.Task
	caller    string // identity ID of the authenticated caller
	nextID    int

	// Calls counts invocations per method name.
	Calls map[string]int

	// Error injection for testing
	LoginErr        error
	ListUsersErr    error
	ListTasksErr    error
	CreateTaskErr   error
	UpdateStatusErr error
	DeleteTaskErr   error

	// ListTasksHook, if set, runs before ListTasks reads the collection.
	ListTasksHook func(ctx context.Context, filter service.Filter)
}

// NewFakeService creates an empty FakeService.
func NewFakeService() *FakeService {
	return &FakeService{
		passwords: make(map[string]string),
		usernames: make(map[string]string),
		Calls:     make(map[string]int),
	}
}

// AddUser registers an identity that can log in with username/password.
func (f *FakeService) AddUser(ident service.Identity, username, password string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users = append(f.users, ident)
	f.passwords[username] = password
	f.usernames[username] = ident.ID
}

// AddTask adds a task as-is. An empty ID is generated.
func (f *FakeService) AddTask(task service.Task) service.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	if task.ID == "" {
		task.ID = f.newID()
	}
	if task.Status == "" {
		task.Status = service.StatusPending
	}
	if task.Priority == "" {
		task.Priority = service.PriorityNormal
	}
	f.tasks = append(f.tasks, task)
	return task
}

// ActAs makes subsequent calls run as the identity with id, as if a token for
// that identity were presented.
func (f *FakeService) ActAs(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.caller = id
}

// AllTasks returns every stored task regardless of caller.
func (f *FakeService) AllTasks() []service.Task {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]service.Task, len(f.tasks))
	copy(out, f.tasks)
	return out
}

func (f *FakeService) newID() string {
	f.nextID++
	return fmt.Sprintf("t%d", f.nextID)
}

// CallCount returns how many times method name was invoked.
func (f *FakeService) CallCount(name string) int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.Calls[name]
}

func (f *FakeService) count(name string) {
	f.mu.Lock()
	f.Calls[name]++
	f.mu.Unlock()
}

// callerLocked returns the authenticated identity. Callers hold f.mu.
func (f *FakeService) callerLocked() (service.Identity, bool) {
	for _, u := range f.users {
		if u.ID == f.caller {
			return u, true
		}
	}
	return service.Identity{}, false
}

func (f *FakeService) refLocked(id string) service.IdentityRef {
	for _, u := range f.users {
		if u.ID == id {
			return service.IdentityRef{ID: u.ID, Name: u.Name}
		}
	}
	return service.IdentityRef{ID: id}
}

// Login implements service.Authenticator.
func (f *FakeService) Login(ctx context.Context, username, password string) (service.Session, error) {
	f.count("Login")
	if f.LoginErr != nil {
		return service.Session{}, f.LoginErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	pw, ok := f.passwords[username]
	if !ok || pw != password {
		return service.Session{}, ErrBadCredentials
	}
	f.caller = f.usernames[username]
	user, _ := f.callerLocked()
	return service.Session{Token: "token-" + user.ID, User: user}, nil
}

// ListUsers implements service.Service. Like the collaborator it returns
// every identity; eligibility is the client's concern.
func (f *FakeService) ListUsers(ctx context.Context) ([]service.Identity, error) {
	f.count("ListUsers")
	if f.ListUsersErr != nil {
		return nil, f.ListUsersErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	if _, ok := f.callerLocked(); !ok {
		return nil, ErrUnauthenticated
	}
	out := make([]service.Identity, len(f.users))
	copy(out, f.users)
	return out, nil
}

// ListTasks implements service.Service.
func (f *FakeService) ListTasks(ctx context.Context, filter service.Filter) ([]service.Task, error) {
	f.count("ListTasks")
	if f.ListTasksHook != nil {
		f.ListTasksHook(ctx, filter)
	}
	if f.ListTasksErr != nil {
		return nil, f.ListTasksErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	caller, ok := f.callerLocked()
	if !ok {
		return nil, ErrUnauthenticated
	}

	var out []service.Task
	for _, t := range f.tasks {
		switch filter {
		case service.FilterAssigned:
			if t.AssignedTo.ID != caller.ID {
				continue
			}
		case service.FilterCreated:
			if t.CreatedBy.ID != caller.ID {
				continue
			}
		}
		out = append(out, t)
	}
	return out, nil
}

// CreateTask implements service.Service. Only admins may create.
func (f *FakeService) CreateTask(ctx context.Context, nt service.NewTask) (service.Task, error) {
	f.count("CreateTask")
	if f.CreateTaskErr != nil {
		return service.Task{}, f.CreateTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	caller, ok := f.callerLocked()
	if !ok {
		return service.Task{}, ErrUnauthenticated
	}
	if !caller.Role.IsAdmin() {
		return service.Task{}, ErrForbidden
	}
	if strings.TrimSpace(nt.Title) == "" {
		return service.Task{}, &service.RejectedError{StatusCode: http.StatusBadRequest, Message: "title required"}
	}

	self := service.IdentityRef{ID: caller.ID, Name: caller.Name}
	task := service.Task{
		ID:            f.newID(),
		Title:         nt.Title,
		Description:   nt.Description,
		AssignedTo:    f.refLocked(nt.AssignedTo),
		CreatedBy:     self,
		LastUpdatedBy: self,
		Priority:      nt.Priority,
		Status:        service.StatusPending,
	}
	f.tasks = append(f.tasks, task)
	return task, nil
}

// UpdateStatus implements service.Service. Only the assignee may update.
func (f *FakeService) UpdateStatus(ctx context.Context, taskID string, status service.Status) (service.Task, error) {
	f.count("UpdateStatus")
	if f.UpdateStatusErr != nil {
		return service.Task{}, f.UpdateStatusErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	caller, ok := f.callerLocked()
	if !ok {
		return service.Task{}, ErrUnauthenticated
	}
	for i, t := range f.tasks {
		if t.ID != taskID {
			continue
		}
		if t.AssignedTo.ID != caller.ID {
			return service.Task{}, ErrForbidden
		}
		f.tasks[i].Status = status
		f.tasks[i].LastUpdatedBy = service.IdentityRef{ID: caller.ID, Name: caller.Name}
		return f.tasks[i], nil
	}
	return service.Task{}, ErrTaskNotFound
}

// DeleteTask implements service.Service. Only admins may delete.
func (f *FakeService) DeleteTask(ctx context.Context, taskID string) error {
	f.count("DeleteTask")
	if f.DeleteTaskErr != nil {
		return f.DeleteTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	caller, ok := f.callerLocked()
	if !ok {
		return ErrUnauthenticated
	}
	if !caller.Role.IsAdmin() {
		return ErrForbidden
	}
	for i, t := range f.tasks {
		if t.ID == taskID {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			return nil
		}
	}
	return ErrTaskNotFound
}
