package action

import (
	"errors"
	"fmt"
	"runtime/debug"
)

// CommandError reports a failure raised by a mail or by the default action.
// The processor loop treats it as fatal.
type CommandError struct {
	Description string
	Err         error
}

func (e *CommandError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("command failed: %v", e.Err)
	}
	return fmt.Sprintf("command %q failed: %v", e.Description, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// WrapIfNecessary returns err unchanged when it already is a *CommandError,
// nil for nil, and a new *CommandError otherwise.
func WrapIfNecessary(description string, err error) error {
	if err == nil {
		return nil
	}
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return err
	}
	return &CommandError{Description: description, Err: err}
}

// PanicError carries a value recovered from a panicking command.
type PanicError struct {
	Value interface{}
	Stack []byte
}

func newPanicError(value interface{}) *PanicError {
	return &PanicError{Value: value, Stack: debug.Stack()}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("command panicked: %v", e.Value)
}

// Unwrap exposes the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
