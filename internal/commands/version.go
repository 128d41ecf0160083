package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"runtime"

	"taskdesk/internal/app"
	"taskdesk/internal/config"
	"taskdesk/internal/exitcode"
	"taskdesk/internal/i18n"
)

// Version is the application version. Set at build time.
var Version = "0.1.0"

func init() {
	Register(&VersionCmd{})
}

// VersionCmd implements the version command.
type VersionCmd struct {
	verbose bool
}

func (c *VersionCmd) Name() string          { return "version" }
func (c *VersionCmd) Aliases() []string     { return nil }
func (c *VersionCmd) Synopsis() string      { return "Print version" }
func (c *VersionCmd) Usage() string         { return "taskdesk version [--verbose]" }
func (c *VersionCmd) Requires() Requirement { return NeedsNothing }

func (c *VersionCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.verbose, "verbose", false, "")
	fs.BoolVar(&c.verbose, "v", false, "")
}

// Run prints the version. With --verbose it also prints the effective
// settings, which is the quickest way to see which collaborator is in use.
func (c *VersionCmd) Run(ctx context.Context, cfg *config.Config, a *app.App, args []string, out, errOut io.Writer) int {
	fmt.Fprintf(out, "taskdesk %s\n", Version)
	if !c.verbose {
		return exitcode.Success
	}

	fmt.Fprintf(out, "go:      %s\n", runtime.Version())
	fmt.Fprintf(out, "api:     %s\n", cfg.APIURL)
	fmt.Fprintf(out, "socket:  %s\n", cfg.SocketURL)
	fmt.Fprintf(out, "config:  %s\n", cfg.Dir)
	fmt.Fprintf(out, "store:   %s\n", cfg.Store)
	fmt.Fprintf(out, "lang:    %s\n", i18n.Tag(cfg.Lang))
	return exitcode.Success
}
