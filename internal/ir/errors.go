package ir

import "errors"

var (
	// ErrNoValue is returned when asking a block or typedef object for a value.
	ErrNoValue = errors.New("object carries no value")
	// ErrBlockTerminated is returned when emitting into a block whose exit is set.
	ErrBlockTerminated = errors.New("block already has an exit")
	// ErrDuplicateObject is returned when a name is already bound in the target map.
	ErrDuplicateObject = errors.New("object name already bound")
	// ErrUnresolved is returned when a name is bound neither locally nor globally.
	ErrUnresolved = errors.New("unresolved object name")
	// ErrTypeMismatch is returned when a value cannot be converted to the required type.
	ErrTypeMismatch = errors.New("type mismatch")
	// ErrFailedUnit is returned when lowering a unit that has semantic errors.
	ErrFailedUnit = errors.New("unit failed semantic analysis")
	// ErrUnsupported marks source constructs lowering does not handle.
	ErrUnsupported = errors.New("unsupported construct")
)
