package board

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrInvalid     = errors.New("invalid")
	ErrPartialMove = errors.New("partial move")
)

// NotFoundError names an anchor that could not be resolved. It satisfies
// errors.Is(err, ErrNotFound).
type NotFoundError struct {
	What      string // "section", "category", "day", ...
	Name      string
	Available []string
}

func (e *NotFoundError) Error() string {
	msg := fmt.Sprintf("%s %q not found", e.What, e.Name)
	if len(e.Available) > 0 {
		msg += " (available: " + strings.Join(e.Available, ", ") + ")"
	}
	return msg
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// PartialMoveError reports a move whose copy was created but whose source
// could not be deleted. Both blocks exist until the delete is retried.
type PartialMoveError struct {
	MoveID    string
	SourceID  string
	NewNodeID string
	Err       error
}

func (e *PartialMoveError) Error() string {
	return fmt.Sprintf("partial move: created %s but failed to delete source %s: %v", e.NewNodeID, e.SourceID, e.Err)
}

func (e *PartialMoveError) Is(target error) bool {
	return target == ErrPartialMove
}

func (e *PartialMoveError) Unwrap() error { return e.Err }

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...)
}
