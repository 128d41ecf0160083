package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskdesk/internal/app"
	"taskdesk/internal/config"
	"taskdesk/internal/exitcode"
	"taskdesk/internal/output"
	"taskdesk/internal/service"
)

func init() {
	Register(&ListCmd{})
}

// ListCmd implements the list command.
// Handles both `taskdesk` (no args) and `taskdesk list`.
type ListCmd struct {
	filter string
	format string
}

func (c *ListCmd) Name() string      { return "list" }
func (c *ListCmd) Aliases() []string { return []string{"ls"} }
func (c *ListCmd) Synopsis() string  { return "List tasks" }
func (c *ListCmd) Usage() string {
	return "taskdesk list [--filter all|assigned|created] [--format text|json|yaml]"
}
func (c *ListCmd) Requires() Requirement { return NeedsSession }

func (c *ListCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.filter, "filter", "", "")
	fs.StringVar(&c.filter, "f", "", "")
	fs.StringVar(&c.format, "format", "text", "")
}

// Run re-fetches the listing. Without --filter the active filter is kept,
// which in a fresh process is the one last chosen with this session.
func (c *ListCmd) Run(ctx context.Context, cfg *config.Config, a *app.App, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		return userError(errOut, "unexpected argument: %s", args[0])
	}
	format, err := output.ParseFormat(c.format)
	if err != nil {
		return userError(errOut, "%v", err)
	}

	b := a.Board()
	if c.filter != "" {
		filter, err := service.ParseFilter(c.filter)
		if err != nil {
			return userError(errOut, "%v", err)
		}
		if err := a.SetFilter(ctx, filter); err != nil {
			return fail(errOut, err)
		}
	} else if err := b.Refresh(ctx); err != nil {
		return fail(errOut, err)
	}

	if err := printList(out, a, format); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	return exitcode.Success
}
