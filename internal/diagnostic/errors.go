package diagnostic

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means an ID chain could not be resolved inside a draft or session.
	ErrNotFound = errors.New("not found")
	// ErrIndexOutOfRange means an option index does not exist on the exercise.
	ErrIndexOutOfRange = errors.New("option index out of range")
	// ErrInvalidResult means the grading collaborator returned a malformed response.
	ErrInvalidResult = errors.New("invalid grading result")
	// ErrCollaboratorUnavailable is matched by every *CollaboratorError.
	ErrCollaboratorUnavailable = errors.New("collaborator unavailable")

	ErrInvalidKind        = errors.New("invalid exercise kind")
	ErrUnknownField       = errors.New("unknown field")
	ErrValidation         = errors.New("validation failed")
	ErrSubmitNotAllowed   = errors.New("submission not allowed")
	ErrSubmissionInFlight = errors.New("submission already in flight")
)

// CollaboratorError wraps a failed call to the persistence or grading service.
// These failures are operational and retryable; nothing in memory is modified.
type CollaboratorError struct {
	Op      string // e.g. "create test", "submit answers"
	Status  int    // HTTP status, 0 when the request never completed
	Message string // server supplied message, if any
	Err     error
}

func (e *CollaboratorError) Error() string {
	switch {
	case e.Message != "" && e.Status != 0:
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.Status, e.Message)
	case e.Status != 0:
		return fmt.Sprintf("%s: status %d", e.Op, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return e.Op + ": collaborator unavailable"
	}
}

func (e *CollaboratorError) Unwrap() error { return e.Err }

func (e *CollaboratorError) Is(target error) bool { return target == ErrCollaboratorUnavailable }

// UserMessage is the text shown to the user. It prefers the server message
// and falls back to a generic retry hint.
func (e *CollaboratorError) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("could not %s, please try again", e.Op)
}

// UserMessage returns a message suitable for display for any error produced
// by this module. Collaborator errors keep their server message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var ce *CollaboratorError
	if errors.As(err, &ce) {
		return ce.UserMessage()
	}
	return err.Error()
}

func notFound(what string, id ID) error {
	return fmt.Errorf("%w: %s %q", ErrNotFound, what, id.String())
}
