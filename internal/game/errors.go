package game

import (
	"errors"
	"fmt"
)

var (
	ErrInsufficientStamina   = errors.New("not enough stamina")
	ErrInsufficientCurrency  = errors.New("not enough currency")
	ErrNotFound              = errors.New("not found")
	ErrQuestClosed           = errors.New("quest is not active")
	ErrAlreadyCompletedToday = errors.New("daily quest already completed today")
	ErrPersistence           = errors.New("persistence failure")
)

// PersistenceError reports a store read or write that failed. In-memory state
// is left as it was before the failed write.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() []error {
	return []error{ErrPersistence, e.Err}
}

func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}

// NotFound wraps ErrNotFound with the kind and id that were looked up.
func NotFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
}

// GateError indicates a feature is locked behind a required level.
type GateError struct {
	Feature       string
	RequiredLevel int
}

func (e GateError) Error() string {
	if e.RequiredLevel <= 0 {
		return fmt.Sprintf("feature '%s' is locked", e.Feature)
	}
	return fmt.Sprintf("feature '%s' unlocks at level %d", e.Feature, e.RequiredLevel)
}
