package commands

import (
	"errors"
	"fmt"
	"io"

	"taskdesk/internal/app"
	"taskdesk/internal/exitcode"
	"taskdesk/internal/i18n"
	"taskdesk/internal/output"
	"taskdesk/internal/service"
	"taskdesk/internal/session"
)

// fail prints err and returns the matching exit code.
// Collaborator rejections are printed verbatim: a 401 is an auth error,
// anything else the collaborator refused is a user error. Everything
// that is not a rejection is a backend error.
func fail(errOut io.Writer, err error) int {
	var lerr *app.LoginError
	if errors.As(err, &lerr) {
		fmt.Fprintf(errOut, "error: %s\n", lerr.Message)
		switch {
		case errors.Is(err, session.ErrCredentialsRequired):
			return exitcode.UserError
		case lerr.Rejected():
			return exitcode.AuthError
		}
		return exitcode.BackendError
	}

	if errors.Is(err, service.ErrNoSession) {
		fmt.Fprintln(errOut, "error: not logged in (run: taskdesk login)")
		return exitcode.AuthError
	}

	var rej *service.RejectedError
	if errors.As(err, &rej) {
		fmt.Fprintf(errOut, "error: %s\n", rej.Error())
		if rej.Unauthorized() {
			return exitcode.AuthError
		}
		return exitcode.UserError
	}

	fmt.Fprintf(errOut, "error: backend error: %v\n", err)
	return exitcode.BackendError
}

func userError(errOut io.Writer, format string, args ...any) int {
	fmt.Fprintf(errOut, "error: "+format+"\n", args...)
	return exitcode.UserError
}

// printList renders the board for the signed-in identity.
func printList(out io.Writer, a *app.App, format output.Format) error {
	sess, _ := a.Session()
	b := a.Board()
	rows := b.Rows(sess.User)

	if format == output.FormatJSON || format == output.FormatYAML {
		listing := output.Listing{Filter: b.Filter(), Tasks: make([]output.TaskRecord, 0, len(rows))}
		for i, row := range rows {
			listing.Tasks = append(listing.Tasks, output.NewRecord(i+1, row.Task, row.Caps))
		}
		return output.Write(out, format, listing)
	}

	p := a.Printer()
	output.FormatListHeader(out, i18n.Filter(p, b.Filter()))
	if len(rows) == 0 {
		output.FormatEmpty(out, p)
		return nil
	}
	for i, row := range rows {
		output.FormatTask(out, p, i+1, row.Task, row.Caps)
	}
	return nil
}

// afterMutation prints the re-fetched listing unless quiet.
func afterMutation(out, errOut io.Writer, a *app.App, quiet bool) int {
	if quiet {
		return exitcode.Success
	}
	if err := printList(out, a, output.FormatText); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	return exitcode.Success
}
