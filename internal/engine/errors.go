package engine

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownBreakdown = errors.New("unknown breakdown")
	ErrUnknownItem      = errors.New("unknown item")
	ErrEmptySelection   = errors.New("empty item selection")
	ErrInvalidPrice     = errors.New("price must be positive")
	ErrNotFound         = errors.New("not found")

	// ErrRoundSuperseded rejects a retraction that would reopen a complete
	// round while the breakdown already has a newer open one.
	ErrRoundSuperseded = errors.New("round superseded by a newer open round")
)

// ConflictError reports that some requested items were already claimed in
// the current open round. Items holds only the contested names, sorted.
type ConflictError struct {
	Items []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("items already claimed: %s", strings.Join(e.Items, ", "))
}
