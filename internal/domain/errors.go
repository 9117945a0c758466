package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidValue marks a status or field value outside its enumerated set.
	ErrInvalidValue = errors.New("invalid value")
	// ErrInvalidTransition marks a status change the lifecycle rules forbid.
	ErrInvalidTransition = errors.New("invalid transition")
)

// ValueError reports a value outside its allowed set.
type ValueError struct {
	Field   string
	Value   string
	Allowed []string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("invalid %s %q: must be one of %s", e.Field, e.Value, strings.Join(e.Allowed, ", "))
}

func (e *ValueError) Unwrap() error { return ErrInvalidValue }

// TransitionError reports a rejected status change.
type TransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot change order status from %s to %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }
