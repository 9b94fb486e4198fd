package sema

import "fmt"

// Result is the outcome of checking one subtree. Values are ordered by
// severity so that folding keeps the worst outcome.
type Result uint8

const (
	// Continue means the subtree is fine.
	Continue Result = iota
	// Stop means the subtree is fine but its children must not be visited.
	Stop
	// SoftError means diagnostics were reported; siblings still run.
	SoftError
	// Fatal aborts the unit.
	Fatal
)

func (r Result) String() string {
	switch r {
	case Continue:
		return "continue"
	case Stop:
		return "stop"
	case SoftError:
		return "soft-error"
	case Fatal:
		return "fatal"
	default:
		return fmt.Sprintf("Result(%d)", r)
	}
}

// Join folds a child outcome into r.
func (r Result) Join(child Result) Result {
	if child > r {
		return child
	}
	return r
}

func (r Result) Failed() bool { return r >= SoftError }
