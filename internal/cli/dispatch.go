// Package cli parses the command line and dispatches to commands.
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"taskdesk/internal/app"
	"taskdesk/internal/commands"
	"taskdesk/internal/config"
	"taskdesk/internal/exitcode"
)

// AppFactory builds the app for one invocation (or one shell session).
// The returned cleanup releases what the factory opened.
type AppFactory func(ctx context.Context, cfg *config.Config) (*app.App, func(), error)

// Dispatcher handles command-line parsing and dispatch.
type Dispatcher struct {
	registry *commands.Registry
	factory  AppFactory
	in       io.Reader
}

// NewDispatcher creates a new dispatcher with the given registry and app factory.
func NewDispatcher(registry *commands.Registry, factory AppFactory) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		factory:  factory,
	}
}

// SetInput sets the prompt input stream (for testing). Nil means os.Stdin.
func (d *Dispatcher) SetInput(r io.Reader) {
	d.in = r
}

// Run parses arguments and dispatches to the appropriate command.
// Returns the exit code.
func (d *Dispatcher) Run(ctx context.Context, args []string, out, errOut io.Writer) int {
	// No args -> dispatch to "list" command with no args
	if len(args) == 0 {
		return d.dispatch(ctx, "list", nil, out, errOut)
	}

	cmdName := args[0]

	// If first token starts with -, it's an error (flags require a command)
	if strings.HasPrefix(cmdName, "-") {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}

	if strings.EqualFold(cmdName, shellName) {
		return d.runShell(ctx, args[1:], out, errOut)
	}

	return d.dispatch(ctx, cmdName, args[1:], out, errOut)
}

func (d *Dispatcher) dispatch(ctx context.Context, cmdName string, args []string, out, errOut io.Writer) int {
	cmd, ok := d.registry.Find(cmdName)
	if !ok {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}
	return d.dispatchCommand(ctx, cmd, args, out, errOut, nil)
}

// commonFlags are accepted by every command.
type commonFlags struct {
	configDir string
	quiet     bool
	debug     bool
	lang      string
}

// parseFlags parses common and command-specific flags. On failure it prints
// the error and returns false.
func parseFlags(name string, register func(*flag.FlagSet), args []string, errOut io.Writer) (commonFlags, []string, bool) {
	// Create flag set with custom error handling
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard) // We handle errors ourselves

	var cf commonFlags
	fs.StringVar(&cf.configDir, "config", "", "")
	fs.BoolVar(&cf.quiet, "quiet", false, "")
	fs.BoolVar(&cf.debug, "debug", false, "")
	fs.StringVar(&cf.lang, "lang", "", "")

	if register != nil {
		register(fs)
	}

	if err := fs.Parse(args); err != nil {
		errStr := err.Error()

		// Check for missing flag value
		if strings.HasPrefix(errStr, "flag needs an argument:") {
			flagName := strings.TrimSpace(strings.TrimPrefix(errStr, "flag needs an argument:"))
			fmt.Fprintf(errOut, "error: flag needs an argument: %s\n", flagName)
			return cf, nil, false
		}

		// Check for unknown flag
		if strings.HasPrefix(errStr, "flag provided but not defined:") {
			flagName := strings.TrimSpace(strings.TrimPrefix(errStr, "flag provided but not defined:"))
			fmt.Fprintf(errOut, "error: unknown flag: %s\n", flagName)
			return cf, nil, false
		}

		fmt.Fprintf(errOut, "error: %s\n", errStr)
		return cf, nil, false
	}

	// Check if first positional arg starts with - (should have been parsed as flag)
	positional := fs.Args()
	if len(positional) > 0 && strings.HasPrefix(positional[0], "-") && positional[0] != "-" {
		fmt.Fprintf(errOut, "error: unknown flag: %s\n", positional[0])
		return cf, nil, false
	}
	return cf, positional, true
}

// loadConfig reads the environment and applies the common flags.
func (d *Dispatcher) loadConfig(cf commonFlags) (*config.Config, error) {
	cfg, err := config.Load(cf.configDir)
	if err != nil {
		return nil, err
	}
	cfg.Quiet = cf.quiet
	cfg.Debug = cf.debug
	cfg.In = d.in
	if cf.lang != "" {
		cfg.Lang = cf.lang
	}
	return cfg, nil
}

// shellState is shared by every command run inside one shell.
type shellState struct {
	cfg *config.Config
	app *app.App
}

func (d *Dispatcher) dispatchCommand(ctx context.Context, cmd commands.Command, args []string, out, errOut io.Writer, sh *shellState) int {
	cf, positional, ok := parseFlags(cmd.Name(), cmd.RegisterFlags, args, errOut)
	if !ok {
		return exitcode.UserError
	}

	var cfg *config.Config
	if sh != nil {
		if cf.configDir != "" || cf.lang != "" || cf.debug {
			fmt.Fprintln(errOut, "error: --config, --lang and --debug cannot be changed inside the shell")
			return exitcode.UserError
		}
		c := *sh.cfg
		c.Quiet = c.Quiet || cf.quiet
		cfg = &c
	} else {
		var err error
		cfg, err = d.loadConfig(cf)
		if err != nil {
			fmt.Fprintf(errOut, "error: %s\n", err)
			return exitcode.UserError
		}
	}

	if cmd.Requires() == commands.NeedsNothing {
		return cmd.Run(ctx, cfg, nil, positional, out, errOut)
	}

	var a *app.App
	if sh != nil {
		a = sh.app
	} else {
		var cleanup func()
		var code int
		a, cleanup, code = d.buildApp(ctx, cfg, cmd.Requires() == commands.NeedsSession, errOut)
		if a == nil {
			return code
		}
		defer cleanup()
	}

	if cmd.Requires() == commands.NeedsSession && a.View() != app.ViewBoard {
		fmt.Fprintln(errOut, "error: not logged in (run: taskdesk login)")
		return exitcode.AuthError
	}

	// Run command
	return cmd.Run(ctx, cfg, a, positional, out, errOut)
}

// buildApp creates the app and restores any persisted session. A session
// that cannot be read is fatal only when strict is set; otherwise the app
// starts in the login view. On failure it prints the error and returns a nil
// app with the exit code.
func (d *Dispatcher) buildApp(ctx context.Context, cfg *config.Config, strict bool, errOut io.Writer) (*app.App, func(), int) {
	if d.factory == nil {
		fmt.Fprintln(errOut, "error: backend error: no backend configured")
		return nil, nil, exitcode.BackendError
	}
	a, cleanup, err := d.factory(ctx, cfg)
	if err != nil {
		fmt.Fprintf(errOut, "error: backend error: %s\n", err)
		return nil, nil, exitcode.BackendError
	}
	if cleanup == nil {
		cleanup = func() {}
	}
	if _, err := a.Restore(ctx); err != nil {
		if strict {
			cleanup()
			fmt.Fprintf(errOut, "error: failed to load session: %v\n", err)
			return nil, nil, exitcode.AuthError
		}
		if !cfg.Quiet {
			fmt.Fprintf(errOut, "warning: failed to load session: %v\n", err)
		}
	}
	return a, cleanup, exitcode.Success
}
