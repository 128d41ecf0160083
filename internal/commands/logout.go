package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskdesk/internal/app"
	"taskdesk/internal/config"
	"taskdesk/internal/exitcode"
	"taskdesk/internal/i18n"
)

func init() {
	Register(&LogoutCmd{})
}

// LogoutCmd implements the logout command.
type LogoutCmd struct{}

func (c *LogoutCmd) Name() string          { return "logout" }
func (c *LogoutCmd) Aliases() []string     { return nil }
func (c *LogoutCmd) Synopsis() string      { return "Sign out and forget the session" }
func (c *LogoutCmd) Usage() string         { return "taskdesk logout [common flags]" }
func (c *LogoutCmd) Requires() Requirement { return NeedsApp }

func (c *LogoutCmd) RegisterFlags(fs *flag.FlagSet) {}

// Run clears stored credentials even when they could not be restored, so a
// damaged session can always be removed.
func (c *LogoutCmd) Run(ctx context.Context, cfg *config.Config, a *app.App, args []string, out, errOut io.Writer) int {
	wasLoggedIn := a.View() == app.ViewBoard

	if err := a.Logout(ctx); err != nil {
		fmt.Fprintf(errOut, "error: failed to clear session: %v\n", err)
		return exitcode.AuthError
	}

	if !cfg.Quiet {
		switch {
		case wasLoggedIn && cfg.Interactive:
			fmt.Fprintln(out, a.Printer().Sprintf(i18n.KeyLoggedOut))
		case wasLoggedIn:
			fmt.Fprintln(out, "ok")
		default:
			fmt.Fprintln(out, "not logged in")
		}
	}
	return exitcode.Success
}
