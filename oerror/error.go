package oerror

import "fmt"

// ReckonError is raised when an internal invariant of the engine is violated. It is a
// distinct type so that recovered panics can be told apart from runtime errors.
type ReckonError struct {
	Err string
}

// New creates a new ReckonError from the format string and arguments passed.
func New(format string, args ...interface{}) *ReckonError {
	return &ReckonError{Err: fmt.Sprintf(format, args...)}
}

func (e *ReckonError) Error() string {
	return e.Err
}
