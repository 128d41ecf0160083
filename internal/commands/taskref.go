package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"taskdesk/internal/board"
	"taskdesk/internal/service"
)

// idPrefix forces a reference to be read as a task id.
const idPrefix = "id:"

// TaskRef represents a parsed task reference.
type TaskRef struct {
	Number int    // 1-based position in the current listing, 0 if ID is set
	ID     string // task id
}

var (
	// ErrTaskRefRequired indicates no task reference was provided.
	ErrTaskRefRequired = errors.New("task reference required")

	// ErrTaskNumberOutOfRange indicates a number past the end of the listing.
	ErrTaskNumberOutOfRange = errors.New("task number out of range")

	// ErrTaskNotVisible indicates an id that is not in the current listing.
	ErrTaskNotVisible = errors.New("task not found")
)

// ParseTaskRef parses a task reference from args.
//
// Parsing rules:
//  1. All digits: a 1-based number in the listing of the active filter
//  2. "id:<id>": a task id, whatever it looks like
//  3. Anything else: a task id
func ParseTaskRef(args []string) (TaskRef, error) {
	if len(args) == 0 {
		return TaskRef{}, ErrTaskRefRequired
	}
	arg := strings.TrimSpace(args[0])
	if arg == "" {
		return TaskRef{}, ErrTaskRefRequired
	}

	if isAllDigits(arg) {
		num, err := strconv.Atoi(arg)
		if err != nil {
			return TaskRef{}, fmt.Errorf("invalid task reference: %s", arg)
		}
		if num < 1 {
			return TaskRef{}, fmt.Errorf("%w: %d", ErrTaskNumberOutOfRange, num)
		}
		return TaskRef{Number: num}, nil
	}

	if strings.HasPrefix(arg, idPrefix) {
		id := strings.TrimSpace(strings.TrimPrefix(arg, idPrefix))
		if id == "" {
			return TaskRef{}, fmt.Errorf("invalid task reference: %s", arg)
		}
		return TaskRef{ID: id}, nil
	}
	return TaskRef{ID: arg}, nil
}

// isAllDigits returns true if s consists only of ASCII digits and is non-empty.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// ResolveTask finds the task ref points at in the board's listing,
// fetching the listing first if it has not been loaded.
func ResolveTask(ctx context.Context, b *board.Board, ref TaskRef) (service.Task, error) {
	if !b.Loaded() {
		if err := b.Refresh(ctx); err != nil {
			return service.Task{}, err
		}
	}

	if ref.ID != "" {
		task, err := b.Lookup(ref.ID)
		if errors.Is(err, board.ErrTaskNotFound) {
			return service.Task{}, fmt.Errorf("%w: %s", ErrTaskNotVisible, ref.ID)
		}
		return task, err
	}

	tasks := b.Tasks()
	if ref.Number < 1 || ref.Number > len(tasks) {
		return service.Task{}, fmt.Errorf("%w: %d", ErrTaskNumberOutOfRange, ref.Number)
	}
	return tasks[ref.Number-1], nil
}

// isRefError reports whether err came from a bad reference rather than the
// collaborator.
func isRefError(err error) bool {
	return errors.Is(err, ErrTaskNumberOutOfRange) || errors.Is(err, ErrTaskNotVisible)
}
