package types

import "fmt"

// InternalError reports malformed input to the type model. It aborts the unit.
type InternalError struct {
	Op  string
	Msg string
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("types: internal error in %s: %s", e.Op, e.Msg)
}

func internalf(op, format string, args ...any) error {
	return &InternalError{Op: op, Msg: fmt.Sprintf(format, args...)}
}
