package commands

import (
	"context"
	"flag"
	"io"
	"strings"

	"taskdesk/internal/access"
	"taskdesk/internal/app"
	"taskdesk/internal/config"
	"taskdesk/internal/service"
)

func init() {
	Register(&AddCmd{})
}

// AddCmd implements the add command.
type AddCmd struct {
	assignee    string
	priority    string
	description string
}

func (c *AddCmd) Name() string      { return "add" }
func (c *AddCmd) Aliases() []string { return []string{"create"} }
func (c *AddCmd) Synopsis() string  { return "Create a task (admin)" }
func (c *AddCmd) Usage() string {
	return "taskdesk add --assignee <name|id> --description <text> [--priority low|normal|high] <title...>"
}
func (c *AddCmd) Requires() Requirement { return NeedsSession }

func (c *AddCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.assignee, "assignee", "", "")
	fs.StringVar(&c.assignee, "a", "", "")
	fs.StringVar(&c.priority, "priority", "", "")
	fs.StringVar(&c.priority, "p", "", "")
	fs.StringVar(&c.description, "description", "", "")
	fs.StringVar(&c.description, "d", "", "")
}

func (c *AddCmd) Run(ctx context.Context, cfg *config.Config, a *app.App, args []string, out, errOut io.Writer) int {
	// Join args to form title
	title := strings.TrimSpace(strings.Join(args, " "))
	if title == "" {
		return userError(errOut, "title required")
	}
	if strings.TrimSpace(c.description) == "" {
		return userError(errOut, "description required (--description <text>)")
	}

	priority := service.PriorityNormal
	if c.priority != "" {
		p, err := service.ParsePriority(c.priority)
		if err != nil {
			return userError(errOut, "%v", err)
		}
		priority = p
	}

	sess, _ := a.Session()
	if !access.CanCreate(sess.User) {
		return userError(errOut, "only admins can create tasks")
	}

	b := a.Board()
	if err := b.LoadRoster(ctx, sess.User); err != nil {
		return fail(errOut, err)
	}
	assignee, err := ResolveAssignee(b.Roster(), c.assignee)
	if err != nil {
		return userError(errOut, "%v", err)
	}

	err = b.Create(ctx, service.NewTask{
		Title:       title,
		Description: strings.TrimSpace(c.description),
		AssignedTo:  assignee.ID,
		Priority:    priority,
	})
	if err != nil {
		return fail(errOut, err)
	}
	return afterMutation(out, errOut, a, cfg.Quiet)
}
