package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"taskdesk/internal/app"
	"taskdesk/internal/config"
	"taskdesk/internal/exitcode"
)

func init() {
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string          { return "help" }
func (c *HelpCmd) Aliases() []string     { return nil }
func (c *HelpCmd) Synopsis() string      { return "Print usage" }
func (c *HelpCmd) Usage() string         { return "taskdesk help [command]" }
func (c *HelpCmd) Requires() Requirement { return NeedsNothing }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, a *app.App, args []string, out, errOut io.Writer) int {
	if len(args) > 1 {
		return userError(errOut, "unexpected argument: %s", args[1])
	}
	if len(args) == 1 {
		cmd, ok := DefaultRegistry.Find(args[0])
		if !ok {
			return userError(errOut, "unknown command: %s", args[0])
		}
		fmt.Fprintf(out, "%s\n\nUsage:\n  %s\n", cmd.Synopsis(), cmd.Usage())
		if aliases := cmd.Aliases(); len(aliases) > 0 {
			fmt.Fprintf(out, "\nAliases: %s\n", strings.Join(aliases, ", "))
		}
		return exitcode.Success
	}

	fmt.Fprint(out, helpText)
	fmt.Fprintln(out, "\nCommands:")
	for _, cmd := range DefaultRegistry.All() {
		fmt.Fprintf(out, "  %-8s %s\n", cmd.Name(), cmd.Synopsis())
	}
	return exitcode.Success
}

const helpText = `Usage:
  taskdesk                                  List tasks (same as: taskdesk list)
  taskdesk list [common flags] [--filter all|assigned|created] [--format text|json|yaml]
  taskdesk ls [common flags] [--filter <filter>]
  taskdesk add [common flags] --assignee <name|id> --description <text> [--priority low|normal|high] <title...>
  taskdesk create [common flags] --assignee <name|id> --description <text> <title...>
  taskdesk status [common flags] <ref> <pending|in-progress|done>
  taskdesk rm [common flags] <ref>
  taskdesk users [common flags]
  taskdesk watch [common flags]
  taskdesk shell [common flags]
  taskdesk login [common flags] [--username <name>] [--password-stdin]
  taskdesk logout [common flags]
  taskdesk whoami [common flags]
  taskdesk help
  taskdesk version

Task references:
  <n>          1-based number in the current listing
  <id>         task id (prefix with id: if the id is all digits)

Common flags:
  --config <dir>   Override config directory
  --lang <tag>     Display language (en, tr)
  --quiet          Suppress informational output
  --debug          Print debug logs to stderr

Environment:
  TASKDESK_API_URL        REST base address (default http://localhost:3000/api)
  TASKDESK_SOCKET_URL     Push channel address (default http://localhost:3000)
  TASKDESK_CONFIG_DIR     Config directory
  TASKDESK_STORE          Session store: file or sqlite (default file)
  TASKDESK_LANG           Display language (default en)
  TASKDESK_SOUND_COMMAND  Command run for each new task (default: terminal bell)
  TASKDESK_HTTP_TIMEOUT   Per-request timeout, e.g. 10s (default: none)
`
