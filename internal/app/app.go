// Package app is the view controller for the single task page.
//
// An App is either in the login view or in the board view. Logging in moves
// it to the board view, loads the roster and the unfiltered collection, and
// optionally opens the push channel. Logging out closes the push channel,
// empties the board and forgets the session.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/text/message"

	"taskdesk/internal/board"
	"taskdesk/internal/i18n"
	"taskdesk/internal/logging"
	"taskdesk/internal/notify"
	"taskdesk/internal/service"
	"taskdesk/internal/session"
)

// View is the page currently shown.
type View int

const (
	ViewLogin View = iota
	ViewBoard
)

func (v View) String() string {
	if v == ViewBoard {
		return "board"
	}
	return "login"
}

// Subscription is an open push channel.
type Subscription interface {
	Close() error
	Done() <-chan struct{}
	Err() error
}

// SubscribeFunc opens a push channel delivering events to h.
type SubscribeFunc func(ctx context.Context, h notify.Handler) (Subscription, error)

// FromDialer adapts d to a SubscribeFunc.
func FromDialer(d *notify.Dialer) SubscribeFunc {
	return func(ctx context.Context, h notify.Handler) (Subscription, error) {
		sub, err := d.Subscribe(ctx, h)
		if err != nil {
			return nil, err
		}
		return sub, nil
	}
}

// DefaultCueTimeout bounds a cue that does not finish on its own.
const DefaultCueTimeout = 5 * time.Second

// ErrNoPushChannel is returned by Listen when no push channel is configured.
var ErrNoPushChannel = errors.New("push channel not configured")

// LoginError is a failed login. Message is what the login view shows.
type LoginError struct {
	Message string
	Err     error
}

func (e *LoginError) Error() string { return e.Message }
func (e *LoginError) Unwrap() error { return e.Err }

// Rejected reports whether the collaborator refused the credentials, as
// opposed to the request failing.
func (e *LoginError) Rejected() bool {
	_, ok := service.Rejection(e.Err)
	return ok
}

// Options configures an App.
type Options struct {
	Service  service.Service
	Sessions *session.Manager

	// Subscribe opens the push channel. Nil disables listening.
	Subscribe SubscribeFunc
	// Cue is played for each new-task event. Nil plays nothing.
	Cue notify.Cue
	// CueTimeout bounds one cue. Zero means DefaultCueTimeout.
	CueTimeout time.Duration
	// ListenOnLogin opens the push channel after every successful login.
	ListenOnLogin bool
	// OnEvent receives new-task events after the cue, unless Listen is
	// given its own sink.
	OnEvent func(notify.Event)

	Printer *message.Printer
	Logger  *slog.Logger
}

// App holds the session, the board and the push channel for one user.
type App struct {
	svc       service.Service
	sessions  *session.Manager
	board     *board.Board
	subscribe SubscribeFunc
	cue       notify.Cue
	cueWait   time.Duration
	listen    bool
	p         *message.Printer
	log       *slog.Logger

	mu      sync.Mutex
	message string
	sub     Subscription
	sink    func(notify.Event)
}

// New creates an App in the login view.
func New(opts Options) (*App, error) {
	if opts.Service == nil {
		return nil, errors.New("app: service is required")
	}
	if opts.Sessions == nil {
		return nil, errors.New("app: session manager is required")
	}
	a := &App{
		svc:       opts.Service,
		sessions:  opts.Sessions,
		subscribe: opts.Subscribe,
		cue:       opts.Cue,
		cueWait:   opts.CueTimeout,
		listen:    opts.ListenOnLogin,
		sink:      opts.OnEvent,
		p:         opts.Printer,
		log:       opts.Logger,
	}
	if a.cue == nil {
		a.cue = notify.Silent{}
	}
	if a.cueWait <= 0 {
		a.cueWait = DefaultCueTimeout
	}
	if a.p == nil {
		a.p = i18n.Printer("en")
	}
	if a.log == nil {
		a.log = logging.Discard()
	}
	a.board = board.New(a.svc, a.log)
	return a, nil
}

// View returns the page to show: the board when a session exists.
func (a *App) View() View {
	if _, ok := a.sessions.Current(); ok {
		return ViewBoard
	}
	return ViewLogin
}

// Session returns the current session.
func (a *App) Session() (service.Session, bool) {
	return a.sessions.Current()
}

// Board returns the task board.
func (a *App) Board() *board.Board {
	return a.board
}

// Printer returns the display printer.
func (a *App) Printer() *message.Printer {
	return a.p
}

// Message returns the error shown on the current view, or "".
func (a *App) Message() string {
	if a.View() == ViewBoard {
		return a.board.Message()
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.message
}

// Restore resumes a persisted session and the filter chosen with it.
// It reports whether a session was found. Nothing is fetched; call Load
// for that.
func (a *App) Restore(ctx context.Context) (bool, error) {
	_, ok, err := a.sessions.Restore(ctx)
	if err != nil || !ok {
		return false, err
	}
	if filter, saved := a.sessions.SavedFilter(ctx); saved {
		if err := a.board.Select(filter); err != nil {
			return false, err
		}
	}
	return true, nil
}

// SetFilter switches the board to filter, re-fetches, and remembers the
// choice for the next Restore.
func (a *App) SetFilter(ctx context.Context, filter service.Filter) error {
	if !filter.Valid() {
		return fmt.Errorf("invalid filter: %s", filter)
	}
	if err := a.sessions.SaveFilter(ctx, filter); err != nil {
		a.log.Warn("filter not remembered", "error", err)
	}
	return a.board.SetFilter(ctx, filter)
}

// Load fetches the roster and the collection for the active filter.
// A roster failure is logged and does not stop the task refresh.
func (a *App) Load(ctx context.Context) error {
	sess, ok := a.sessions.Current()
	if !ok {
		return service.ErrNoSession
	}
	if err := a.board.LoadRoster(ctx, sess.User); err != nil {
		a.log.Warn("roster unavailable", "error", err)
	}
	return a.board.Refresh(ctx)
}

// Login authenticates and switches to the board view.
// On failure the view stays on login and Message explains why: the
// collaborator's own reason if it gave one, a generic "login failed" if it
// refused without one, or a generic error if the request failed.
func (a *App) Login(ctx context.Context, username, password string) error {
	sess, err := a.sessions.Authenticate(ctx, a.svc, username, password)
	if err != nil {
		lerr := &LoginError{Message: a.loginMessage(err), Err: err}
		a.mu.Lock()
		a.message = lerr.Message
		a.mu.Unlock()
		a.log.Error("login failed", "user", username, "error", err)
		return lerr
	}

	a.mu.Lock()
	a.message = ""
	a.mu.Unlock()

	a.board.Reset()
	if err := a.board.LoadRoster(ctx, sess.User); err != nil {
		a.log.Warn("roster unavailable", "error", err)
	}
	if err := a.SetFilter(ctx, service.FilterAll); err != nil {
		a.log.Warn("initial task load failed", "error", err)
	}

	if a.listen && a.subscribe != nil {
		if err := a.Listen(ctx, nil); err != nil {
			a.log.Warn("push channel unavailable", "error", err)
		}
	}
	return nil
}

func (a *App) loginMessage(err error) string {
	if msg, ok := service.Rejection(err); ok {
		if msg == "" {
			return a.p.Sprintf(i18n.KeyLoginFailed)
		}
		return msg
	}
	if errors.Is(err, session.ErrCredentialsRequired) {
		return err.Error()
	}
	return a.p.Sprintf(i18n.KeyLoginError)
}

// Logout closes the push channel, empties the board and clears the session.
// The app is in the login view afterwards even if clearing storage fails.
func (a *App) Logout(ctx context.Context) error {
	a.StopListening()
	a.board.Reset()
	a.mu.Lock()
	a.message = ""
	a.mu.Unlock()
	if err := a.sessions.Logout(ctx); err != nil {
		a.log.Error("logout failed", "error", err)
		return err
	}
	return nil
}

// Listen opens the push channel. Every new-task event plays the cue and is
// then passed to the sink. A nil sink keeps the current one. Events never
// touch the board. Listening while already listening only swaps the sink;
// a channel that has ended is replaced by a new one.
func (a *App) Listen(ctx context.Context, sink func(notify.Event)) error {
	if a.subscribe == nil {
		return ErrNoPushChannel
	}
	a.mu.Lock()
	if sink != nil {
		a.sink = sink
	}
	if a.sub != nil && ended(a.sub) {
		a.log.Info("push channel ended, subscribing again", "error", a.sub.Err())
		a.sub = nil
	}
	open := a.sub != nil
	a.mu.Unlock()
	if open {
		return nil
	}

	sub, err := a.subscribe(ctx, func(ev notify.Event) {
		a.playCue(ctx)
		if s := a.currentSink(); s != nil {
			s(ev)
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.sub != nil && !ended(a.sub) {
		// Lost a race with a concurrent Listen.
		_ = sub.Close()
		return nil
	}
	a.sub = sub
	return nil
}

func (a *App) playCue(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, a.cueWait)
	defer cancel()
	if err := a.cue.Play(ctx); err != nil {
		a.log.Warn("notification cue failed", "error", err)
	}
}

func ended(sub Subscription) bool {
	select {
	case <-sub.Done():
		return true
	default:
		return false
	}
}

// SetEventSink replaces the receiver of new-task events.
func (a *App) SetEventSink(fn func(notify.Event)) {
	a.mu.Lock()
	a.sink = fn
	a.mu.Unlock()
}

func (a *App) currentSink() func(notify.Event) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sink
}

// Subscription returns the open push channel, or nil.
func (a *App) Subscription() Subscription {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sub
}

// StopListening closes the push channel if one is open.
func (a *App) StopListening() {
	a.mu.Lock()
	sub := a.sub
	a.sub = nil
	a.mu.Unlock()
	if sub != nil {
		_ = sub.Close()
	}
}
