// Package service defines the backend-agnostic interface for task operations.
package service

import "context"

// Authenticator exchanges credentials for a session.
type Authenticator interface {
	// Login authenticates username/password and returns the new session.
	Login(ctx context.Context, username, password string) (Session, error)
}

// Service defines the interface for task backend operations.
// All collaborator calls go through this interface.
// Commands never import the transport directly.
type Service interface {
	Authenticator

	// ListUsers returns every identity the collaborator exposes for assignment.
	// Eligibility filtering happens client-side (see package access).
	ListUsers(ctx context.Context) ([]Identity, error)

	// ListTasks returns the tasks visible under filter, in API order.
	// Visibility is evaluated by the collaborator, never locally.
	ListTasks(ctx context.Context, filter Filter) ([]Task, error)

	// CreateTask creates a new task and returns it.
	CreateTask(ctx context.Context, task NewTask) (Task, error)

	// UpdateStatus changes the status of a task.
	UpdateStatus(ctx context.Context, taskID string, status Status) (Task, error)

	// DeleteTask deletes a task.
	DeleteTask(ctx context.Context, taskID string) error
}
