package petri

import (
	"errors"
	"fmt"
)

// StructuralError reports a malformed net description: a dangling id, an
// unknown arc type, an inhibitor arc not oriented place -> transition, or a
// selected transition id that matches nothing. Transports surface these to
// the client.
type StructuralError struct {
	Reason string
}

func (e *StructuralError) Error() string { return e.Reason }

func Structuralf(format string, args ...interface{}) error {
	return &StructuralError{Reason: fmt.Sprintf(format, args...)}
}

// IsStructural reports whether err is a StructuralError.
func IsStructural(err error) bool {
	var se *StructuralError
	return errors.As(err, &se)
}

// InvariantError reports a marking violation during firing. Unreachable when
// enablement is checked correctly; it indicates a bug, not bad input.
type InvariantError struct {
	TransitionID string
	PlaceID      string
	Reason       string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("firing %s: place %s: %s", e.TransitionID, e.PlaceID, e.Reason)
}

// IsInvariant reports whether err is an InvariantError.
func IsInvariant(err error) bool {
	var ie *InvariantError
	return errors.As(err, &ie)
}
