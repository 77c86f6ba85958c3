package domain

import (
	"errors"
	"fmt"
)

var (
	ErrAlreadyStarted      = errors.New("component already started")
	ErrNotStarted          = errors.New("component not started")
	ErrNotFound            = errors.New("resource not found")
	ErrInvalidConfig       = errors.New("invalid configuration")
	ErrInvalidInput        = errors.New("invalid input")
	ErrInvalidTransition   = errors.New("invalid run state transition")
	ErrAcquisitionInFlight = errors.New("access token acquisition already in flight")
	ErrTokenUnavailable    = errors.New("access token unavailable")
	ErrStoreClosed         = errors.New("token store closed")
)

// ComponentError attributes a failure to the component and operation that produced it.
type ComponentError struct {
	Component string
	Op        string
	Err       error
}

func (e *ComponentError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Component, e.Op, e.Err)
}

func (e *ComponentError) Unwrap() error {
	return e.Err
}

func NewComponentError(component, op string, err error) *ComponentError {
	return &ComponentError{
		Component: component,
		Op:        op,
		Err:       err,
	}
}

// AcquisitionError is reported when the token exchange with the provider fails.
// The cache stays empty and callers degrade to unauthenticated requests.
type AcquisitionError struct {
	Err error
}

func (e *AcquisitionError) Error() string {
	return "error fetching token from server: " + e.Err.Error()
}

func (e *AcquisitionError) Unwrap() error {
	return e.Err
}

func NewAcquisitionError(err error) *AcquisitionError {
	return &AcquisitionError{Err: err}
}

func IsComponentError(err error) bool {
	var componentErr *ComponentError
	return errors.As(err, &componentErr)
}

func IsAcquisitionError(err error) bool {
	var acqErr *AcquisitionError
	return errors.As(err, &acqErr)
}

func IsAlreadyStarted(err error) bool {
	return errors.Is(err, ErrAlreadyStarted)
}

func IsNotStarted(err error) bool {
	return errors.Is(err, ErrNotStarted)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsInvalidConfig(err error) bool {
	return errors.Is(err, ErrInvalidConfig)
}

// IsRefusal reports whether err is the "try again later" answer given while another
// acquisition is in flight. It is not a failure.
func IsRefusal(err error) bool {
	return errors.Is(err, ErrAcquisitionInFlight)
}
