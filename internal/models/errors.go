package models

import (
	"errors"
	"fmt"
)

// ErrUnavailable marks a capability that is not configured or not loaded.
var ErrUnavailable = errors.New("capability unavailable")

// NewUnavailableError returns an error wrapping ErrUnavailable for the named capability.
func NewUnavailableError(capability, reason string) error {
	return fmt.Errorf("%s: %s: %w", capability, reason, ErrUnavailable)
}

// IsUnavailable reports whether err signals an unavailable capability.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// InputReason classifies why an input document was rejected.
type InputReason string

const (
	InputTooLarge     InputReason = "too_large"
	InputTooManyPages InputReason = "too_many_pages"
	InputCorrupt      InputReason = "corrupt"
	InputEncrypted    InputReason = "encrypted"
	InputUnsupported  InputReason = "unsupported"
	InputEmpty        InputReason = "empty_upload"
)

// InputError rejects a document before any processing starts. It is never retried.
type InputError struct {
	Reason InputReason
	Detail string
	Err    error
}

// NewInputError builds an InputError; err may be nil.
func NewInputError(reason InputReason, detail string, err error) *InputError {
	return &InputError{Reason: reason, Detail: detail, Err: err}
}

func (e *InputError) Error() string {
	msg := "invalid input (" + string(e.Reason) + ")"
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *InputError) Unwrap() error { return e.Err }

// StageError is a failure of a loaded capability on a specific input.
type StageError struct {
	Stage   Stage
	Timeout bool
	Err     error
}

func (e *StageError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("%s: timeout", e.Stage)
	}
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// SystemError aborts a whole request, e.g. when scratch space cannot be allocated.
type SystemError struct {
	Op  string
	Err error
}

func (e *SystemError) Error() string {
	return fmt.Sprintf("system failure during %s: %v", e.Op, e.Err)
}

func (e *SystemError) Unwrap() error { return e.Err }
