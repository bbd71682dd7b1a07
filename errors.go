package depot

import (
	"errors"
	"fmt"

	"github.com/rotisserie/eris"
)

type LockedWorldError struct{}

func (e LockedWorldError) Error() string {
	return "world is currently locked"
}

type EntityNotFoundError struct {
	ID EntityID
}

func (e EntityNotFoundError) Error() string {
	return fmt.Sprintf("entity %v does not exist", e.ID)
}

// InvariantViolationError reports a broken precondition of an archetype
// operation. It signals a sequencing bug in the caller and is not meant to be
// recovered from.
type InvariantViolationError struct {
	Op          string
	ArchetypeID ArchetypeID
	Entity      EntityID
	Reason      string
}

func (e InvariantViolationError) Error() string {
	return fmt.Sprintf("invariant violation: %s entity %v on archetype %d: %s", e.Op, e.Entity, e.ArchetypeID, e.Reason)
}

// IsInvariantViolation reports whether err carries an InvariantViolationError
func IsInvariantViolation(err error) bool {
	var violation InvariantViolationError
	return errors.As(err, &violation)
}

func violation(op string, a *Archetype, e *Entity, reason string) error {
	v := InvariantViolationError{Op: op, Reason: reason}
	if a != nil {
		v.ArchetypeID = a.id
	}
	if e != nil {
		v.Entity = e.id
	}
	return eris.Wrap(v, op)
}
