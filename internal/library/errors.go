package library

import (
	"errors"
	"fmt"
)

// Sentinel errors for store operations.
var (
	ErrNotFound         = errors.New("not found")
	ErrUnknownAttribute = errors.New("unknown attribute")
	ErrCascade          = errors.New("cascade failed")
	ErrInvalidDocument  = errors.New("invalid document")
)

// AttributeError reports a Set call that received a key outside the whitelist
// of the node kind.
type AttributeError struct {
	Kind Kind
	Key  string
}

func (e *AttributeError) Error() string {
	return fmt.Sprintf("unknown %s parameter %q", e.Kind, e.Key)
}

func (e *AttributeError) Unwrap() error { return ErrUnknownAttribute }

// CascadeError reports a Remove call whose child removal failed. The parent is
// left in place.
type CascadeError struct {
	Kind  Kind
	ID    string
	Child string
	Err   error
}

func (e *CascadeError) Error() string {
	return fmt.Sprintf("remove %s %s: child %s: %v", e.Kind, e.ID, e.Child, e.Err)
}

func (e *CascadeError) Is(target error) bool { return target == ErrCascade }

func (e *CascadeError) Unwrap() error { return e.Err }

func notFound(kind Kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
}
