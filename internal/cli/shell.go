package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"taskdesk/internal/exitcode"
	"taskdesk/internal/i18n"
	"taskdesk/internal/notify"
	"taskdesk/internal/output"
)

const (
	shellName   = "shell"
	shellPrompt = "taskdesk> "
)

// runShell reads commands line by line and runs them against one app.
// The filter and listing persist between lines, so task numbers refer to
// the last listing shown. The push channel is open while a session exists:
// it follows login and logout and is closed when the shell exits.
func (d *Dispatcher) runShell(ctx context.Context, args []string, out, errOut io.Writer) int {
	cf, positional, ok := parseFlags(shellName, nil, args, errOut)
	if !ok {
		return exitcode.UserError
	}
	if len(positional) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", positional[0])
		return exitcode.UserError
	}
	cfg, err := d.loadConfig(cf)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}
	cfg.Interactive = true

	// Events arrive on another goroutine.
	sout := &syncWriter{w: out}
	serr := &syncWriter{w: errOut}

	a, cleanup, code := d.buildApp(ctx, cfg, false, serr)
	if a == nil {
		return code
	}
	defer cleanup()
	defer a.StopListening()

	p := a.Printer()
	if !cfg.Quiet {
		fmt.Fprintln(sout, p.Sprintf(i18n.KeyTitle))
	}
	a.SetEventSink(func(ev notify.Event) {
		output.FormatEvent(sout, p, ev)
	})
	if _, ok := a.Session(); ok {
		if err := a.Listen(ctx, nil); err != nil && !cfg.Quiet {
			fmt.Fprintf(serr, "warning: push channel unavailable: %v\n", err)
		}
	}

	// Commands that prompt (login) read from the same buffered input.
	in := bufio.NewReader(cfg.Input())
	cfg.In = in
	sh := &shellState{cfg: cfg, app: a}

	for {
		if ctx.Err() != nil {
			return exitcode.Success
		}
		if !cfg.Quiet {
			fmt.Fprint(sout, shellPrompt)
		}
		line, err := in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			fmt.Fprintf(serr, "error: read input: %v\n", err)
			return exitcode.UserError
		}
		eof := err != nil

		if done := d.shellLine(ctx, line, sh, sout, serr); done {
			return exitcode.Success
		}
		if eof {
			if !cfg.Quiet {
				fmt.Fprintln(sout)
			}
			return exitcode.Success
		}
	}
}

// shellLine runs one input line and reports whether the shell should exit.
func (d *Dispatcher) shellLine(ctx context.Context, line string, sh *shellState, out, errOut io.Writer) bool {
	fields, err := SplitLine(line)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return false
	}
	if len(fields) == 0 {
		return false
	}

	name := strings.ToLower(fields[0])
	switch name {
	case "exit", "quit":
		return true
	case shellName:
		fmt.Fprintln(errOut, "error: already in the shell")
		return false
	}

	cmd, ok := d.registry.Find(name)
	if !ok {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", fields[0])
		return false
	}
	d.dispatchCommand(ctx, cmd, fields[1:], out, errOut, sh)
	return false
}

// SplitLine splits a shell line into words. Single and double quotes group
// words; a backslash escapes the next character outside single quotes.
func SplitLine(line string) ([]string, error) {
	var (
		words   []string
		cur     strings.Builder
		inWord  bool
		quote   rune
		escaped bool
	)
	for _, r := range line {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\' && quote != '\'':
			escaped = true
			inWord = true
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote = r
			inWord = true
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			if inWord {
				words = append(words, cur.String())
				cur.Reset()
				inWord = false
			}
		default:
			cur.WriteRune(r)
			inWord = true
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated %c quote", quote)
	}
	if escaped {
		return nil, errors.New("trailing backslash")
	}
	if inWord {
		words = append(words, cur.String())
	}
	return words, nil
}

type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
