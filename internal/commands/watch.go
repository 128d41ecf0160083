package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"sync"

	"taskdesk/internal/app"
	"taskdesk/internal/config"
	"taskdesk/internal/exitcode"
	"taskdesk/internal/i18n"
	"taskdesk/internal/notify"
	"taskdesk/internal/output"
)

func init() {
	Register(&WatchCmd{})
}

// WatchCmd implements the watch command.
type WatchCmd struct{}

func (c *WatchCmd) Name() string          { return "watch" }
func (c *WatchCmd) Aliases() []string     { return nil }
func (c *WatchCmd) Synopsis() string      { return "Announce new tasks until interrupted" }
func (c *WatchCmd) Usage() string         { return "taskdesk watch" }
func (c *WatchCmd) Requires() Requirement { return NeedsSession }

func (c *WatchCmd) RegisterFlags(fs *flag.FlagSet) {}

// Run subscribes to the push channel and prints one line per new task.
// It returns when ctx is cancelled or the channel drops.
func (c *WatchCmd) Run(ctx context.Context, cfg *config.Config, a *app.App, args []string, out, errOut io.Writer) int {
	if cfg.Interactive {
		return userError(errOut, "new tasks are already announced inside the shell")
	}
	if len(args) > 0 {
		return userError(errOut, "unexpected argument: %s", args[0])
	}

	p := a.Printer()
	var mu sync.Mutex
	sink := func(ev notify.Event) {
		mu.Lock()
		defer mu.Unlock()
		output.FormatEvent(out, p, ev)
	}

	if err := a.Listen(ctx, sink); err != nil {
		if errors.Is(err, app.ErrNoPushChannel) {
			return userError(errOut, "%v", err)
		}
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return exitcode.BackendError
	}
	defer a.StopListening()

	if !cfg.Quiet {
		fmt.Fprintln(errOut, p.Sprintf(i18n.KeyWatching))
	}

	sub := a.Subscription()
	if sub == nil {
		return exitcode.Success
	}
	select {
	case <-ctx.Done():
		return exitcode.Success
	case <-sub.Done():
		if err := sub.Err(); err != nil {
			fmt.Fprintf(errOut, "error: backend error: push channel closed: %v\n", err)
			return exitcode.BackendError
		}
		return exitcode.Success
	}
}
