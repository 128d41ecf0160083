package commands

import (
	"context"
	"flag"
	"io"

	"taskdesk/internal/access"
	"taskdesk/internal/app"
	"taskdesk/internal/config"
)

func init() {
	Register(&RmCmd{})
}

// RmCmd implements the rm command.
type RmCmd struct{}

func (c *RmCmd) Name() string          { return "rm" }
func (c *RmCmd) Aliases() []string     { return []string{"delete"} }
func (c *RmCmd) Synopsis() string      { return "Delete a task (admin)" }
func (c *RmCmd) Usage() string         { return "taskdesk rm <ref>" }
func (c *RmCmd) Requires() Requirement { return NeedsSession }

func (c *RmCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *RmCmd) Run(ctx context.Context, cfg *config.Config, a *app.App, args []string, out, errOut io.Writer) int {
	// Parse task reference
	ref, err := ParseTaskRef(args)
	if err != nil {
		return userError(errOut, "%v", err)
	}
	if len(args) > 1 {
		return userError(errOut, "unexpected argument: %s", args[1])
	}

	b := a.Board()
	task, err := ResolveTask(ctx, b, ref)
	if err != nil {
		if isRefError(err) {
			return userError(errOut, "%v", err)
		}
		return fail(errOut, err)
	}

	sess, _ := a.Session()
	if !access.Check(sess.User, task).CanDelete {
		return userError(errOut, "only admins can delete tasks")
	}

	if err := b.Delete(ctx, task.ID); err != nil {
		return fail(errOut, err)
	}
	return afterMutation(out, errOut, a, cfg.Quiet)
}
