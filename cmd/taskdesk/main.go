// Package main is the entry point for the taskdesk CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"taskdesk/internal/app"
	"taskdesk/internal/backend/rest"
	"taskdesk/internal/cli"
	"taskdesk/internal/commands"
	"taskdesk/internal/config"
	"taskdesk/internal/i18n"
	"taskdesk/internal/logging"
	"taskdesk/internal/notify"
	"taskdesk/internal/session"
	"taskdesk/internal/store"
)

func main() {
	// Create context that cancels on interrupt
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, newApp)

	// Run and exit with code
	code := dispatcher.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	os.Exit(code)
}

// newApp wires the REST client, the session store and the push channel.
func newApp(ctx context.Context, cfg *config.Config) (*app.App, func(), error) {
	log := logging.New(os.Stderr, cfg.Debug)

	if cfg.In == nil && term.IsTerminal(int(os.Stdin.Fd())) {
		cfg.Term = os.Stdin
	}

	st, err := store.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := st.Close(); err != nil {
			log.Warn("close store failed", "error", err)
		}
	}

	sessions := session.NewManager(st, log)
	client, err := rest.New(cfg.APIURL, sessions,
		rest.WithTimeout(cfg.HTTPTimeout),
		rest.WithLogger(log),
	)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	dialer, err := notify.NewDialer(cfg.SocketURL,
		notify.WithLogger(log),
		notify.WithTaskDecoder(rest.DecodeTask),
	)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	var cue notify.Cue = notify.Bell{W: os.Stderr}
	if cfg.SoundCommand != "" {
		cmdCue, err := notify.NewCommandCue(cfg.SoundCommand)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("sound command: %w", err)
		}
		cue = cmdCue
	}

	a, err := app.New(app.Options{
		Service:       client,
		Sessions:      sessions,
		Subscribe:     app.FromDialer(dialer),
		Cue:           cue,
		ListenOnLogin: cfg.Interactive,
		Printer:       i18n.Printer(cfg.Lang),
		Logger:        log,
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return a, cleanup, nil
}
