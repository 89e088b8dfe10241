package core

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedType = errors.New("unsupported field type")
	ErrInvalidState    = errors.New("invalid builder state")
	ErrConnection      = errors.New("connection error")
)

// ExecutionError wraps a failure reported by the database engine. The
// engine's error is kept as is and reachable through errors.As/Unwrap.
type ExecutionError struct {
	Statement string
	Err       error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execution failed: %v (statement: %s)", e.Err, e.Statement)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}
