package notify

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Engine.IO v4 packet types, and the socket.io packet types carried inside
// Engine.IO message packets.
const (
	packetOpen    = '0'
	packetClose   = '1'
	packetPing    = '2'
	packetPong    = '3'
	packetMessage = '4'
	packetNoop    = '6'

	sioConnect      = '0'
	sioDisconnect   = '1'
	sioEvent        = '2'
	sioConnectError = '4'
)

const (
	defaultPingInterval = 25 * time.Second
	defaultPingTimeout  = 20 * time.Second
)

// handshake is the payload of the Engine.IO open packet.
type handshake struct {
	SID          string `json:"sid"`
	PingInterval int64  `json:"pingInterval"` // ms
	PingTimeout  int64  `json:"pingTimeout"`  // ms
}

// readTimeout is how long the peer may stay silent before it is considered gone.
func (h handshake) readTimeout() time.Duration {
	interval := time.Duration(h.PingInterval) * time.Millisecond
	if interval <= 0 {
		interval = defaultPingInterval
	}
	timeout := time.Duration(h.PingTimeout) * time.Millisecond
	if timeout <= 0 {
		timeout = defaultPingTimeout
	}
	return interval + timeout
}

func parseOpen(msg string) (handshake, error) {
	if msg == "" || msg[0] != packetOpen {
		return handshake{}, fmt.Errorf("expected open packet, got %q", truncate(msg))
	}
	var h handshake
	if err := json.Unmarshal([]byte(msg[1:]), &h); err != nil {
		return handshake{}, fmt.Errorf("decode open packet: %w", err)
	}
	return h, nil
}

// connectError extracts the reason from a socket.io CONNECT_ERROR payload.
func connectError(payload string) error {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal([]byte(payload), &body); err == nil && body.Message != "" {
		return fmt.Errorf("connect refused: %s", body.Message)
	}
	return errors.New("connect refused")
}

// parseEvent decodes the body of a socket.io EVENT packet (everything after
// "42"): an optional namespace, an optional ack id, then a JSON array whose
// first element is the event name.
func parseEvent(body string) (string, json.RawMessage, error) {
	if strings.HasPrefix(body, "/") {
		i := strings.IndexByte(body, ',')
		if i < 0 {
			return "", nil, fmt.Errorf("malformed event: %q", truncate(body))
		}
		body = body[i+1:]
	}
	body = strings.TrimLeft(body, "0123456789")

	var parts []json.RawMessage
	if err := json.Unmarshal([]byte(body), &parts); err != nil {
		return "", nil, fmt.Errorf("decode event: %w", err)
	}
	if len(parts) == 0 {
		return "", nil, errors.New("decode event: empty array")
	}
	var name string
	if err := json.Unmarshal(parts[0], &name); err != nil {
		return "", nil, fmt.Errorf("decode event name: %w", err)
	}
	var payload json.RawMessage
	if len(parts) > 1 {
		payload = parts[1]
	}
	return name, payload, nil
}

func truncate(s string) string {
	const max = 64
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
