package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz definition could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrAttemptNotFound is returned when an attempt id is unknown or expired out of the store.
	ErrAttemptNotFound = errors.New("attempt not found")
	// ErrAlreadyAttempted is returned when a user who already holds a result tries again.
	ErrAlreadyAttempted = errors.New("quiz already attempted")
	// ErrAttemptSubmitted is returned for actions on an attempt that already reached its terminal state.
	ErrAttemptSubmitted = errors.New("attempt already submitted")
	// ErrResultNotFound indicates no persisted result for the user/quiz pair.
	ErrResultNotFound = errors.New("quiz result not found")
	// ErrCourseNotFound indicates the course roadmap is unknown.
	ErrCourseNotFound = errors.New("course not found")
	// ErrNodeNotFound is returned for an out-of-range week or task path.
	ErrNodeNotFound = errors.New("progress node not found")
	// ErrWeekLocked is returned when a student touches a week that is still locked.
	ErrWeekLocked = errors.New("week is locked")
	// ErrSubmissionNotFound indicates the assignment submission is unknown.
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrInvalidInput marks malformed request data (missing fields, bad indices).
	ErrInvalidInput = errors.New("invalid input")
)

// ConflictError carries the pre-existing record alongside a uniqueness
// violation so callers can decide whether to treat the call as idempotent.
type ConflictError struct {
	Err      error
	Existing any
}

func (e *ConflictError) Error() string { return e.Err.Error() }

func (e *ConflictError) Unwrap() error { return e.Err }
