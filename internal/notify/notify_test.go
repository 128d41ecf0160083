package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/net/websocket"

	"taskdesk/internal/service"
)

func decodePlainTask(data []byte) (service.Task, error) {
	var task service.Task
	err := json.Unmarshal(data, &task)
	return task, err
}

// serve starts a websocket server running script for each connection and
// returns a dialer pointed at it.
func serve(t *testing.T, script func(conn *websocket.Conn)) *Dialer {
	t.Helper()
	srv := httptest.NewServer(websocket.Handler(func(conn *websocket.Conn) {
		q := conn.Request().URL.Query()
		if conn.Request().URL.Path != "/socket.io/" || q.Get("EIO") != "4" || q.Get("transport") != "websocket" {
			t.Errorf("unexpected upgrade request %s", conn.Request().URL)
			return
		}
		script(conn)
	}))
	t.Cleanup(srv.Close)

	d, err := NewDialer(srv.URL, WithTaskDecoder(decodePlainTask))
	if err != nil {
		t.Fatalf("NewDialer() error = %v", err)
	}
	return d
}

func send(t *testing.T, conn *websocket.Conn, msg string) {
	t.Helper()
	if err := websocket.Message.Send(conn, msg); err != nil {
		t.Errorf("server send %q: %v", msg, err)
	}
}

func recv(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg string
	if err := websocket.Message.Receive(conn, &msg); err != nil {
		t.Errorf("server receive: %v", err)
	}
	return msg
}

// accept performs the server side of the open and namespace handshake.
func accept(t *testing.T, conn *websocket.Conn, pingInterval, pingTimeout int) {
	t.Helper()
	send(t, conn, fmt.Sprintf(`0{"sid":"s1","upgrades":[],"pingInterval":%d,"pingTimeout":%d,"maxPayload":1000000}`, pingInterval, pingTimeout))
	if got := recv(t, conn); got != "40" {
		t.Errorf("client connect packet = %q, want 40", got)
	}
	send(t, conn, `40{"sid":"n1"}`)
}

// drain reads until the client goes away.
func drain(conn *websocket.Conn) {
	for {
		var msg string
		if err := websocket.Message.Receive(conn, &msg); err != nil {
			return
		}
	}
}

func waitDone(t *testing.T, s *Subscription) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(3 * time.Second):
		t.Fatal("subscription did not end")
	}
}

func TestNewDialer_Endpoint(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"http://localhost:3000", "ws://localhost:3000/socket.io/?EIO=4&transport=websocket"},
		{"https://tasks.example.com/", "wss://tasks.example.com/socket.io/?EIO=4&transport=websocket"},
		{"ws://10.0.0.2:3000/push", "ws://10.0.0.2:3000/push/socket.io/?EIO=4&transport=websocket"},
	}
	for _, tt := range tests {
		d, err := NewDialer(tt.in)
		if err != nil {
			t.Errorf("NewDialer(%q) error = %v", tt.in, err)
			continue
		}
		if got := d.Endpoint(); got != tt.want {
			t.Errorf("NewDialer(%q).Endpoint() = %q, want %q", tt.in, got, tt.want)
		}
	}

	for _, bad := range []string{"", "ftp://host", "http://"} {
		if _, err := NewDialer(bad); err == nil {
			t.Errorf("NewDialer(%q) expected error", bad)
		}
	}
}

func TestSubscribe_DeliversNewTaskEvents(t *testing.T) {
	release := make(chan struct{})
	d := serve(t, func(conn *websocket.Conn) {
		accept(t, conn, 25000, 20000)
		send(t, conn, `42["task-updated",{"id":"t0"}]`)
		send(t, conn, `42["new-task",{"id":"t1","title":"Hello"}]`)
		send(t, conn, `4217["new-task","not a task"]`)
		<-release
		drain(conn)
	})
	defer close(release)

	events := make(chan Event, 4)
	sub, err := d.Subscribe(context.Background(), func(ev Event) { events <- ev })
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	defer sub.Close()

	var got []Event
	for len(got) < 2 {
		select {
		case ev := <-events:
			got = append(got, ev)
		case <-time.After(3 * time.Second):
			t.Fatalf("received %d events, want 2", len(got))
		}
	}

	if got[0].Name != EventNewTask || got[0].Task == nil || got[0].Task.Title != "Hello" {
		t.Errorf("first event = %+v", got[0])
	}
	if got[1].Task != nil {
		t.Errorf("second event Task = %+v, want nil", got[1].Task)
	}
	if string(got[1].Payload) != `"not a task"` {
		t.Errorf("second event payload = %s", got[1].Payload)
	}
}

func TestSubscribe_AnswersPing(t *testing.T) {
	pong := make(chan string, 1)
	d := serve(t, func(conn *websocket.Conn) {
		accept(t, conn, 25000, 20000)
		send(t, conn, "2")
		pong <- recv(t, conn)
		drain(conn)
	})

	sub, err := d.Subscribe(context.Background(), nil)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	defer sub.Close()

	select {
	case got := <-pong:
		if got != "3" {
			t.Errorf("reply to ping = %q, want 3", got)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no pong")
	}
}

func TestSubscribe_SlowHandlerDoesNotDelayPong(t *testing.T) {
	pong := make(chan string, 1)
	d := serve(t, func(conn *websocket.Conn) {
		accept(t, conn, 25000, 20000)
		send(t, conn, `42["new-task",{"id":"t1"}]`)
		send(t, conn, "2")
		pong <- recv(t, conn)
		drain(conn)
	})

	release := make(chan struct{})
	handled := make(chan struct{})
	sub, err := d.Subscribe(context.Background(), func(Event) {
		<-release
		close(handled)
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	defer sub.Close()

	select {
	case got := <-pong:
		if got != "3" {
			t.Errorf("reply to ping = %q, want 3", got)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no pong while the handler was busy")
	}
	close(release)
	select {
	case <-handled:
	case <-time.After(3 * time.Second):
		t.Fatal("handler never finished")
	}
}

func TestSubscription_CloseFromHandler(t *testing.T) {
	d := serve(t, func(conn *websocket.Conn) {
		accept(t, conn, 25000, 20000)
		send(t, conn, `42["new-task",{"id":"t1"}]`)
		drain(conn)
	})

	subc := make(chan *Subscription, 1)
	closed := make(chan error, 1)
	sub, err := d.Subscribe(context.Background(), func(Event) {
		closed <- (<-subc).Close()
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	subc <- sub

	select {
	case err := <-closed:
		if err != nil {
			t.Errorf("Close() error = %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Close() from the handler did not return")
	}
	waitDone(t, sub)
	if sub.Err() != nil {
		t.Errorf("Err() = %v, want nil after local Close", sub.Err())
	}
}

func TestSubscribe_ConnectError(t *testing.T) {
	d := serve(t, func(conn *websocket.Conn) {
		send(t, conn, `0{"sid":"s1","pingInterval":25000,"pingTimeout":20000}`)
		recv(t, conn)
		send(t, conn, `44{"message":"Authentication error"}`)
		drain(conn)
	})

	_, err := d.Subscribe(context.Background(), nil)
	if err == nil {
		t.Fatal("Subscribe() expected error")
	}
	if !strings.Contains(err.Error(), "Authentication error") {
		t.Errorf("error = %q, want server reason", err)
	}
}

func TestSubscribe_NotEngineIO(t *testing.T) {
	d := serve(t, func(conn *websocket.Conn) {
		send(t, conn, "hello")
		drain(conn)
	})
	if _, err := d.Subscribe(context.Background(), nil); err == nil {
		t.Fatal("Subscribe() expected error")
	}
}

func TestSubscription_ServerDisconnect(t *testing.T) {
	for _, packet := range []string{"41", "1"} {
		t.Run(packet, func(t *testing.T) {
			d := serve(t, func(conn *websocket.Conn) {
				accept(t, conn, 25000, 20000)
				send(t, conn, packet)
				drain(conn)
			})
			sub, err := d.Subscribe(context.Background(), nil)
			if err != nil {
				t.Fatalf("Subscribe() error = %v", err)
			}
			waitDone(t, sub)
			if !errors.Is(sub.Err(), ErrDisconnected) {
				t.Errorf("Err() = %v, want ErrDisconnected", sub.Err())
			}
		})
	}
}

func TestSubscription_Close(t *testing.T) {
	d := serve(t, func(conn *websocket.Conn) {
		accept(t, conn, 25000, 20000)
		drain(conn)
	})
	sub, err := d.Subscribe(context.Background(), nil)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	if err := sub.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	waitDone(t, sub)
	if sub.Err() != nil {
		t.Errorf("Err() after Close = %v, want nil", sub.Err())
	}
	if err := sub.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestSubscription_ContextCancel(t *testing.T) {
	d := serve(t, func(conn *websocket.Conn) {
		accept(t, conn, 25000, 20000)
		drain(conn)
	})
	ctx, cancel := context.WithCancel(context.Background())
	sub, err := d.Subscribe(ctx, nil)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	cancel()
	waitDone(t, sub)
	if sub.Err() != nil {
		t.Errorf("Err() = %v, want nil", sub.Err())
	}
}

func TestSubscription_DeadPeer(t *testing.T) {
	d := serve(t, func(conn *websocket.Conn) {
		// Announce a short heartbeat, then never ping.
		accept(t, conn, 30, 30)
		drain(conn)
	})
	sub, err := d.Subscribe(context.Background(), nil)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	waitDone(t, sub)
	if sub.Err() == nil {
		t.Error("Err() = nil, want read timeout")
	}
}

func TestParseEvent(t *testing.T) {
	tests := []struct {
		body    string
		name    string
		payload string
		wantErr bool
	}{
		{`["new-task",{"id":"t1"}]`, "new-task", `{"id":"t1"}`, false},
		{`12["new-task",{"id":"t1"}]`, "new-task", `{"id":"t1"}`, false},
		{`/admin,["new-task",1]`, "new-task", `1`, false},
		{`/admin,3["ping"]`, "ping", ``, false},
		{`[]`, "", "", true},
		{`[42]`, "", "", true},
		{`{"a":1}`, "", "", true},
		{`/broken`, "", "", true},
	}
	for _, tt := range tests {
		name, payload, err := parseEvent(tt.body)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseEvent(%q) error = %v, wantErr %v", tt.body, err, tt.wantErr)
			continue
		}
		if tt.wantErr {
			continue
		}
		if name != tt.name || string(payload) != tt.payload {
			t.Errorf("parseEvent(%q) = %q, %s; want %q, %s", tt.body, name, payload, tt.name, tt.payload)
		}
	}
}

func TestHandshakeReadTimeout(t *testing.T) {
	if got := (handshake{PingInterval: 25000, PingTimeout: 20000}).readTimeout(); got != 45*time.Second {
		t.Errorf("readTimeout() = %v, want 45s", got)
	}
	if got := (handshake{}).readTimeout(); got != defaultPingInterval+defaultPingTimeout {
		t.Errorf("readTimeout() with zero values = %v", got)
	}
}

func TestBell(t *testing.T) {
	var buf bytes.Buffer
	if err := (Bell{W: &buf}).Play(context.Background()); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	if buf.String() != "\a" {
		t.Errorf("Bell wrote %q, want BEL", buf.String())
	}
}

func TestNewCommandCue(t *testing.T) {
	c, err := NewCommandCue("  paplay   /tmp/notification.mp3 ")
	if err != nil {
		t.Fatalf("NewCommandCue() error = %v", err)
	}
	if len(c.Args) != 2 || c.Args[0] != "paplay" || c.Args[1] != "/tmp/notification.mp3" {
		t.Errorf("Args = %q", c.Args)
	}
	if _, err := NewCommandCue("   "); err == nil {
		t.Error("expected error for blank command")
	}
}
