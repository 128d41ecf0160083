package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// Cue plays the audible notification.
type Cue interface {
	Play(ctx context.Context) error
}

// Bell rings the terminal bell on W.
type Bell struct {
	W io.Writer
}

// Play writes BEL.
func (b Bell) Play(context.Context) error {
	_, err := io.WriteString(b.W, "\a")
	return err
}

// CommandCue runs an external player, e.g. "paplay /usr/share/sounds/notification.oga".
type CommandCue struct {
	Args []string
}

// NewCommandCue splits command on whitespace.
func NewCommandCue(command string) (*CommandCue, error) {
	args := strings.Fields(command)
	if len(args) == 0 {
		return nil, errors.New("empty sound command")
	}
	return &CommandCue{Args: args}, nil
}

// Play runs the command and waits for it to finish.
func (c *CommandCue) Play(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, c.Args[0], c.Args[1:]...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("sound command: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Silent plays nothing.
type Silent struct{}

// Play does nothing.
func (Silent) Play(context.Context) error { return nil }
