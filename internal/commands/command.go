// Package commands provides the command interface and implementations.
package commands

import (
	"context"
	"flag"
	"io"

	"taskdesk/internal/app"
	"taskdesk/internal/config"
)

// Requirement is what a command needs before it can run.
type Requirement int

const (
	// NeedsNothing commands run without an app (help, version).
	NeedsNothing Requirement = iota
	// NeedsApp commands get an app whether or not a session exists (login, logout).
	NeedsApp
	// NeedsSession commands get an app with a restored session.
	NeedsSession
)

// Command defines the interface for CLI commands.
type Command interface {
	// Name returns the primary command name.
	Name() string

	// Aliases returns alternative names for the command.
	Aliases() []string

	// Synopsis returns a short description for help output.
	Synopsis() string

	// Usage returns the usage string for help output.
	Usage() string

	// Requires reports what the dispatcher must set up before Run.
	Requires() Requirement

	// RegisterFlags registers command-specific flags.
	// It is called before every run, so flag defaults reset command state.
	RegisterFlags(fs *flag.FlagSet)

	// Run executes the command.
	// cfg is always provided.
	// a is nil for NeedsNothing commands and is shared across runs in the shell.
	// args contains positional arguments after flag parsing.
	// Returns exit code.
	Run(ctx context.Context, cfg *config.Config, a *app.App, args []string, out, errOut io.Writer) int
}
