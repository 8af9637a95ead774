package newsletter

import "fmt"

// ErrNotFound is returned when an operation references a newsletter or block
// id that does not exist.
type ErrNotFound struct {
	Entity string
	ID     string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// NewNotFound builds an ErrNotFound for the given entity and id.
func NewNotFound(entity, id string) error {
	return &ErrNotFound{Entity: entity, ID: id}
}

// ErrInvalidState is returned when an operation is disallowed by the
// newsletter's current status, or a schedule time is not in the future.
type ErrInvalidState struct {
	Reason string
}

func (e *ErrInvalidState) Error() string {
	return e.Reason
}

// NewInvalidState builds an ErrInvalidState with a human-readable reason.
func NewInvalidState(reason string) error {
	return &ErrInvalidState{Reason: reason}
}

// ErrValidation is returned for malformed input caught before it reaches
// the database.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidation builds an ErrValidation for the given field.
func NewValidation(field, message string) error {
	return &ErrValidation{Field: field, Message: message}
}
