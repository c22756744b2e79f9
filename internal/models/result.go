package models

// Status is the terminal state of an analysis stage.
type Status string

const (
	StatusSuccess     Status = "success"
	StatusUnavailable Status = "unavailable"
	StatusFailed      Status = "failed"
)

// ExtractionResult is the outcome of one stage: exactly one of success (with a value),
// unavailable (with a reason) or failed (with an error). The zero value means the stage
// was not requested.
type ExtractionResult[T any] struct {
	status Status
	value  T
	reason string
	err    error
}

// Success wraps a stage value.
func Success[T any](v T) ExtractionResult[T] {
	return ExtractionResult[T]{status: StatusSuccess, value: v}
}

// Unavailable records that the stage's capability is not loaded.
func Unavailable[T any](reason string) ExtractionResult[T] {
	return ExtractionResult[T]{status: StatusUnavailable, reason: reason}
}

// Failed records that the capability errored on this input.
func Failed[T any](err error) ExtractionResult[T] {
	r := ExtractionResult[T]{status: StatusFailed, err: err}
	if err != nil {
		r.reason = err.Error()
	}
	return r
}

// Status returns the stage status, or "" when the stage did not run.
func (r ExtractionResult[T]) Status() Status {
	return r.status
}

// Ran reports whether the stage was executed at all.
func (r ExtractionResult[T]) Ran() bool {
	return r.status != ""
}

// Value returns the stage value; ok is false unless the stage succeeded.
func (r ExtractionResult[T]) Value() (v T, ok bool) {
	if r.status != StatusSuccess {
		return v, false
	}
	return r.value, true
}

// Reason is the unavailability reason or failure message.
func (r ExtractionResult[T]) Reason() string {
	return r.reason
}

// Err returns the failure error for failed stages.
func (r ExtractionResult[T]) Err() error {
	return r.err
}
