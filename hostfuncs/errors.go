package hostfuncs

import (
	"fmt"
)

// NotFoundError is returned when invoking an unregistered native function.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return "unknown host function: " + e.Name
}

// ArityError is returned when a call's argument or result count does not
// match the function signature.
type ArityError struct {
	Name string
	Kind string // "args" or "results"
	Want int
	Got  int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("host function %s: want %d %s, got %d", e.Name, e.Want, e.Kind, e.Got)
}

// PanicError carries a panic recovered from a native function.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	var msg string
	if err, ok := e.Value.(error); ok {
		msg = err.Error()
	} else if s, ok := e.Value.(string); ok {
		msg = s
	} else {
		msg = "panic recovered"
	}
	return "panic: " + msg
}

// Unwrap returns the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
