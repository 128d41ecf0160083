package commands

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"taskdesk/internal/app"
	"taskdesk/internal/config"
	"taskdesk/internal/exitcode"
	"taskdesk/internal/i18n"
)

func init() {
	Register(&LoginCmd{})
}

// LoginCmd implements the login command.
type LoginCmd struct {
	username      string
	passwordStdin bool
}

func (c *LoginCmd) Name() string      { return "login" }
func (c *LoginCmd) Aliases() []string { return nil }
func (c *LoginCmd) Synopsis() string  { return "Sign in" }
func (c *LoginCmd) Usage() string {
	return "taskdesk login [--username <name>] [--password-stdin]"
}
func (c *LoginCmd) Requires() Requirement { return NeedsApp }

func (c *LoginCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.username, "username", "", "")
	fs.StringVar(&c.username, "u", "", "")
	fs.BoolVar(&c.passwordStdin, "password-stdin", false, "")
}

// Run prompts for missing credentials on stderr and reads them from the
// configured input. A password is read without echo when input is a terminal.
func (c *LoginCmd) Run(ctx context.Context, cfg *config.Config, a *app.App, args []string, out, errOut io.Writer) int {
	username := c.username
	switch {
	case len(args) > 1:
		return userError(errOut, "unexpected argument: %s", args[1])
	case len(args) == 1 && username == "":
		username = args[0]
	case len(args) == 1:
		return userError(errOut, "unexpected argument: %s", args[0])
	}

	r := bufio.NewReader(cfg.Input())
	if strings.TrimSpace(username) == "" {
		fmt.Fprint(errOut, "Username: ")
		line, err := readLine(r)
		if err != nil {
			return userError(errOut, "read username: %v", err)
		}
		username = line
	}

	var password string
	var err error
	if c.passwordStdin {
		password, err = readLine(r)
	} else {
		password, err = readPassword(cfg.Term, r, errOut)
	}
	if err != nil {
		return userError(errOut, "read password: %v", err)
	}

	if err := a.Login(ctx, username, password); err != nil {
		return fail(errOut, err)
	}

	if !cfg.Quiet {
		sess, _ := a.Session()
		fmt.Fprintln(out, a.Printer().Sprintf(i18n.KeyWelcome, sess.User.Name, sess.User.Role))
	}
	return exitcode.Success
}

// readLine reads one line without its terminator. A final line without a
// newline is accepted.
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if errors.Is(err, io.EOF) && line == "" {
		return "", errors.New("no input")
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func readPassword(tty *os.File, r *bufio.Reader, errOut io.Writer) (string, error) {
	fmt.Fprint(errOut, "Password: ")
	if tty != nil && term.IsTerminal(int(tty.Fd())) {
		b, err := term.ReadPassword(int(tty.Fd()))
		fmt.Fprintln(errOut)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	return readLine(r)
}
