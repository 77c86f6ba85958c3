package domain

import "strings"

// NodeRef identifies an artist node in the graph. ID is the Spotify artist id.
type NodeRef struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

func (n NodeRef) String() string {
	if n.Name == "" {
		return n.ID
	}
	return n.Name + " (" + n.ID + ")"
}

func (n NodeRef) Validate() error {
	if strings.TrimSpace(n.ID) == "" {
		return NewValidationError("node", "id cannot be empty")
	}
	return nil
}

type ValidationError struct {
	Entity  string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Entity + ": " + e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

func NewValidationError(entity, message string) *ValidationError {
	return &ValidationError{Entity: entity, Message: message}
}
