package commands

import (
	"context"
	"flag"
	"io"

	"taskdesk/internal/access"
	"taskdesk/internal/app"
	"taskdesk/internal/config"
	"taskdesk/internal/service"
)

func init() {
	Register(&StatusCmd{})
}

// StatusCmd implements the status command.
type StatusCmd struct{}

func (c *StatusCmd) Name() string      { return "status" }
func (c *StatusCmd) Aliases() []string { return nil }
func (c *StatusCmd) Synopsis() string  { return "Change a task's status (assignee)" }
func (c *StatusCmd) Usage() string {
	return "taskdesk status <ref> <pending|in-progress|done>"
}
func (c *StatusCmd) Requires() Requirement { return NeedsSession }

func (c *StatusCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *StatusCmd) Run(ctx context.Context, cfg *config.Config, a *app.App, args []string, out, errOut io.Writer) int {
	ref, err := ParseTaskRef(args)
	if err != nil {
		return userError(errOut, "%v", err)
	}
	if len(args) < 2 {
		return userError(errOut, "status required")
	}
	if len(args) > 2 {
		return userError(errOut, "unexpected argument: %s", args[2])
	}
	status, err := service.ParseStatus(args[1])
	if err != nil {
		return userError(errOut, "%v", err)
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
	if !access.Check(sess.User, task).CanEdit {
		return userError(errOut, "only the assignee can change the status of this task")
	}

	if err := b.UpdateStatus(ctx, task.ID, status); err != nil {
		return fail(errOut, err)
	}
	return afterMutation(out, errOut, a, cfg.Quiet)
}

