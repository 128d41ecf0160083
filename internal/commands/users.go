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
	"taskdesk/internal/output"
)

func init() {
	Register(&UsersCmd{})
}

// UsersCmd implements the users command: the identities the caller may
// assign tasks to.
type UsersCmd struct{}

func (c *UsersCmd) Name() string          { return "users" }
func (c *UsersCmd) Aliases() []string     { return nil }
func (c *UsersCmd) Synopsis() string      { return "List eligible assignees" }
func (c *UsersCmd) Usage() string         { return "taskdesk users" }
func (c *UsersCmd) Requires() Requirement { return NeedsSession }

func (c *UsersCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *UsersCmd) Run(ctx context.Context, cfg *config.Config, a *app.App, args []string, out, errOut io.Writer) int {
	sess, _ := a.Session()
	b := a.Board()
	if err := b.LoadRoster(ctx, sess.User); err != nil {
		return fail(errOut, err)
	}

	roster := b.Roster()
	if len(roster) == 0 {
		if !cfg.Quiet {
			fmt.Fprintln(out, a.Printer().Sprintf(i18n.KeyRosterEmpty))
		}
		return exitcode.Success
	}
	for _, ident := range roster {
		output.FormatIdentity(out, ident)
	}
	return exitcode.Success
}
