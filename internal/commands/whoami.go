package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"time"

	"taskdesk/internal/app"
	"taskdesk/internal/config"
	"taskdesk/internal/exitcode"
	"taskdesk/internal/output"
	"taskdesk/internal/session"
)

func init() {
	Register(&WhoamiCmd{})
}

// WhoamiCmd implements the whoami command.
type WhoamiCmd struct {
	now func() time.Time
}

func (c *WhoamiCmd) Name() string          { return "whoami" }
func (c *WhoamiCmd) Aliases() []string     { return nil }
func (c *WhoamiCmd) Synopsis() string      { return "Show the signed-in identity" }
func (c *WhoamiCmd) Usage() string         { return "taskdesk whoami" }
func (c *WhoamiCmd) Requires() Requirement { return NeedsSession }

func (c *WhoamiCmd) RegisterFlags(fs *flag.FlagSet) {}

// SetClock sets the time source (for testing).
func (c *WhoamiCmd) SetClock(now func() time.Time) {
	c.now = now
}

func (c *WhoamiCmd) Run(ctx context.Context, cfg *config.Config, a *app.App, args []string, out, errOut io.Writer) int {
	sess, _ := a.Session()
	output.FormatIdentity(out, sess.User)

	now := time.Now
	if c.now != nil {
		now = c.now
	}
	exp, ok := session.ExpiresAt(sess.Token)
	switch {
	case !ok:
		fmt.Fprintln(out, "token expiry: unknown")
	case exp.Before(now()):
		fmt.Fprintf(out, "token expired: %s\n", exp.UTC().Format(time.RFC3339))
	default:
		fmt.Fprintf(out, "token expires: %s\n", exp.UTC().Format(time.RFC3339))
	}
	return exitcode.Success
}
