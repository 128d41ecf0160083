// Package exitcode defines exit codes for the CLI.
package exitcode

const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates a user error: bad arguments, unknown references,
	// or a request the collaborator refused.
	UserError = 1

	// AuthError indicates a missing or rejected session.
	AuthError = 2

	// BackendError indicates a network or collaborator failure.
	BackendError = 3
)
