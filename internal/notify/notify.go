// Package notify subscribes to the collaborator's push channel and plays an
// audible cue when a new task is announced.
//
// The channel is socket.io (Engine.IO v4) over a websocket. Only the parts of
// the protocol a listening client needs are implemented: the open handshake,
// namespace connect, heartbeats and event packets. There is no reconnect; a
// dropped subscription stays dropped until the caller subscribes again.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/websocket"

	"taskdesk/internal/logging"
	"taskdesk/internal/service"
)

// EventNewTask is the only event delivered to handlers.
const EventNewTask = "new-task"

const handshakeTimeout = 10 * time.Second

// eventBacklog is how many events may wait for a busy handler before new
// ones are dropped.
const eventBacklog = 16

// ErrDisconnected is reported when the server closes the subscription.
var ErrDisconnected = errors.New("disconnected by server")

// Event is one push notification.
type Event struct {
	Name     string
	Payload  json.RawMessage
	Received time.Time

	// Task is the payload decoded as a task, or nil if it is not one.
	Task *service.Task
}

// Handler receives events in order on a goroutine of its own, so a slow
// handler never holds up heartbeats. It may call Close on its subscription.
// A call in progress can still be running when Close returns.
type Handler func(Event)

// TaskDecoder turns an event payload into a task.
type TaskDecoder func([]byte) (service.Task, error)

// Option configures a Dialer.
type Option func(*Dialer)

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(d *Dialer) { d.log = log }
}

// WithTaskDecoder sets how payloads are decoded for display.
func WithTaskDecoder(fn TaskDecoder) Option {
	return func(d *Dialer) { d.decode = fn }
}

// Dialer opens subscriptions to one push channel host.
type Dialer struct {
	endpoint string
	origin   string
	log      *slog.Logger
	decode   TaskDecoder
}

// NewDialer returns a Dialer for the socket.io server at socketURL
// (an http, https, ws or wss address).
func NewDialer(socketURL string, opts ...Option) (*Dialer, error) {
	u, err := url.Parse(strings.TrimSpace(socketURL))
	if err != nil {
		return nil, fmt.Errorf("invalid socket url: %w", err)
	}
	origin := *u
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
		origin.Scheme = "http"
	case "https", "wss":
		u.Scheme = "wss"
		origin.Scheme = "https"
	default:
		return nil, fmt.Errorf("invalid socket url: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid socket url: missing host")
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/socket.io/"
	u.RawQuery = url.Values{"EIO": {"4"}, "transport": {"websocket"}}.Encode()
	origin.Path, origin.RawQuery = "", ""

	d := &Dialer{endpoint: u.String(), origin: origin.String(), log: logging.Discard()}
	for _, opt := range opts {
		opt(d)
	}
	if d.log == nil {
		d.log = logging.Discard()
	}
	return d, nil
}

// Endpoint returns the websocket address the dialer connects to.
func (d *Dialer) Endpoint() string {
	return d.endpoint
}

// Subscribe connects, completes the handshake and starts delivering
// new-task events to h. The subscription ends when ctx is cancelled,
// Close is called, or the connection fails.
func (d *Dialer) Subscribe(ctx context.Context, h Handler) (*Subscription, error) {
	cfg, err := websocket.NewConfig(d.endpoint, d.origin)
	if err != nil {
		return nil, fmt.Errorf("websocket config: %w", err)
	}
	dialCtx, cancel := context.WithTimeout(ctx, handshakeTimeout)
	defer cancel()
	conn, err := cfg.DialContext(dialCtx)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", d.endpoint, err)
	}

	hs, err := d.handshake(conn)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	d.log.Debug("push channel connected", "sid", hs.SID, "read_timeout", hs.readTimeout())

	s := &Subscription{
		conn:    conn,
		log:     d.log,
		decode:  d.decode,
		handler: h,
		timeout: hs.readTimeout(),
		events:  make(chan Event, eventBacklog),
		done:    make(chan struct{}),
	}
	go s.run()
	go s.deliver()
	go func() {
		select {
		case <-ctx.Done():
			_ = s.Close()
		case <-s.done:
		}
	}()
	return s, nil
}

func (d *Dialer) handshake(conn *websocket.Conn) (handshake, error) {
	_ = conn.SetDeadline(time.Now().Add(handshakeTimeout))
	defer func() { _ = conn.SetDeadline(time.Time{}) }()

	var msg string
	if err := websocket.Message.Receive(conn, &msg); err != nil {
		return handshake{}, fmt.Errorf("read open packet: %w", err)
	}
	hs, err := parseOpen(msg)
	if err != nil {
		return handshake{}, err
	}
	if err := websocket.Message.Send(conn, string([]byte{packetMessage, sioConnect})); err != nil {
		return handshake{}, fmt.Errorf("send connect: %w", err)
	}

	for {
		if err := websocket.Message.Receive(conn, &msg); err != nil {
			return handshake{}, fmt.Errorf("read connect ack: %w", err)
		}
		switch {
		case len(msg) >= 2 && msg[0] == packetMessage && msg[1] == sioConnect:
			return hs, nil
		case len(msg) >= 2 && msg[0] == packetMessage && msg[1] == sioConnectError:
			return handshake{}, connectError(msg[2:])
		case msg != "" && msg[0] == packetPing:
			if err := websocket.Message.Send(conn, string(packetPong)); err != nil {
				return handshake{}, fmt.Errorf("send pong: %w", err)
			}
		case msg != "" && msg[0] == packetClose:
			return handshake{}, ErrDisconnected
		}
	}
}

// Subscription is an open push channel. It is owned by whoever subscribed
// and must be closed by them.
type Subscription struct {
	conn    *websocket.Conn
	log     *slog.Logger
	decode  TaskDecoder
	handler Handler
	timeout time.Duration
	events  chan Event

	done      chan struct{}
	closeOnce sync.Once
	mu        sync.Mutex
	closing   bool
	err       error
}

// Done is closed when the subscription has ended.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Err returns why the subscription ended. It is nil while the subscription
// is open and after a local Close.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close ends the subscription and waits for the connection reader to exit.
// It is safe to call more than once, including from a Handler.
func (s *Subscription) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closing = true
		s.mu.Unlock()
		_ = s.conn.Close()
	})
	<-s.done
	return nil
}

func (s *Subscription) run() {
	defer close(s.done)
	defer close(s.events)
	for {
		_ = s.conn.SetReadDeadline(time.Now().Add(s.timeout))
		var msg string
		if err := websocket.Message.Receive(s.conn, &msg); err != nil {
			s.finish(fmt.Errorf("read: %w", err))
			return
		}
		if stop := s.handle(msg); stop {
			return
		}
	}
}

// handle processes one frame and reports whether the subscription ended.
func (s *Subscription) handle(msg string) bool {
	if msg == "" {
		return false
	}
	switch msg[0] {
	case packetPing:
		if err := websocket.Message.Send(s.conn, string(packetPong)); err != nil {
			s.finish(fmt.Errorf("send pong: %w", err))
			return true
		}
	case packetClose:
		s.finish(ErrDisconnected)
		return true
	case packetNoop, packetPong:
	case packetMessage:
		if len(msg) < 2 {
			return false
		}
		switch msg[1] {
		case sioDisconnect:
			s.finish(ErrDisconnected)
			return true
		case sioEvent:
			s.dispatch(msg[2:])
		}
	}
	return false
}

func (s *Subscription) dispatch(body string) {
	name, payload, err := parseEvent(body)
	if err != nil {
		s.log.Debug("ignoring malformed event", "error", err)
		return
	}
	if name != EventNewTask {
		s.log.Debug("ignoring event", "name", name)
		return
	}
	ev := Event{Name: name, Payload: payload, Received: time.Now()}
	if s.decode != nil && len(payload) > 0 {
		if task, err := s.decode(payload); err == nil {
			ev.Task = &task
		} else {
			s.log.Debug("event payload is not a task", "error", err)
		}
	}
	s.log.Debug("push event", "name", name)
	if s.handler == nil {
		return
	}
	select {
	case s.events <- ev:
	default:
		s.log.Warn("dropping push event, handler is behind", "name", name)
	}
}

// deliver runs the handler for queued events until the reader exits.
// Events still queued after a local Close are discarded.
func (s *Subscription) deliver() {
	for ev := range s.events {
		if s.isClosing() {
			continue
		}
		s.handler(ev)
	}
}

func (s *Subscription) isClosing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closing
}

// finish records err unless the subscription is being closed locally.
func (s *Subscription) finish(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return
	}
	s.err = err
	s.log.Warn("push channel closed", "error", err)
	_ = s.conn.Close()
}
