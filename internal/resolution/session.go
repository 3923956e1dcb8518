package resolution

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/mind-engage/diagquest/internal/diagnostic"
	"github.com/mind-engage/diagquest/internal/wire"
)

// Grader is the remote grading service.
type Grader interface {
	SubmitAnswers(ctx context.Context, req wire.SubmitRequest) (json.RawMessage, error)
}

// ResultSource serves graded results for review.
type ResultSource interface {
	FetchResult(ctx context.Context, testID, studentID string) (json.RawMessage, error)
}

// SubmitPolicy decides whether unanswered exercises block submission.
type SubmitPolicy int

const (
	AllowPartial SubmitPolicy = iota
	RequireAllAnswered
)

// ParseSubmitPolicy accepts "allow_partial" and "require_all".
func ParseSubmitPolicy(s string) (SubmitPolicy, error) {
	switch s {
	case "", "allow_partial":
		return AllowPartial, nil
	case "require_all":
		return RequireAllAnswered, nil
	default:
		return 0, fmt.Errorf("unknown submit policy %q", s)
	}
}

type Option func(*Session)

func WithSubmitPolicy(p SubmitPolicy) Option { return func(s *Session) { s.policy = p } }

// Session is one respondent's attempt at a test: a position in the flattened
// exercise sequence, the answers given so far and the submission state.
//
// While a submission is in flight navigation is a no-op and a second Submit
// fails with ErrSubmissionInFlight. A failed submission leaves the session on
// the last exercise with its answers intact so it can be retried.
type Session struct {
	mu sync.Mutex

	testID    string
	studentID string
	exercises []diagnostic.Exercise
	index     int
	answers   map[string]string
	policy    SubmitPolicy

	submitting bool
	result     *diagnostic.SubmissionResult
	lastErr    error
}

// NewSession starts at the first exercise of t.
func NewSession(t diagnostic.Test, studentID string, opts ...Option) *Session {
	s := &Session{
		testID:    t.ID.String(),
		studentID: studentID,
		exercises: diagnostic.Exercises(t),
		answers:   map[string]string{},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Len is the number of exercises.
func (s *Session) Len() int { return len(s.exercises) }

func (s *Session) Index() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

// Current returns the exercise being viewed; false when the test is empty.
func (s *Session) Current() (diagnostic.Exercise, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.exercises) == 0 {
		return diagnostic.Exercise{}, false
	}
	return s.exercises[s.index], true
}

// Exercises returns the flattened sequence.
func (s *Session) Exercises() []diagnostic.Exercise {
	out := make([]diagnostic.Exercise, len(s.exercises))
	copy(out, s.exercises)
	return out
}

// Next moves forward unless on the last exercise or submitting.
func (s *Session) Next() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitting || s.index >= len(s.exercises)-1 {
		return false
	}
	s.index++
	return true
}

// Previous moves back unless on the first exercise or submitting.
func (s *Session) Previous() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitting || s.index == 0 {
		return false
	}
	s.index--
	return true
}

// Jump moves to index when it is in range and nothing is submitting.
func (s *Session) Jump(index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitting || index < 0 || index >= len(s.exercises) {
		return false
	}
	s.index = index
	return true
}

// SelectAnswer records the text of the chosen option as the answer to the
// exercise, replacing any earlier choice.
func (s *Session) SelectAnswer(exerciseID, optionID diagnostic.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.exercises {
		if e.ID != exerciseID {
			continue
		}
		o, ok := e.Option(optionID)
		if !ok {
			return fmt.Errorf("%w: option %q in exercise %q", diagnostic.ErrNotFound, optionID, exerciseID)
		}
		s.answers[exerciseID.String()] = o.Text
		return nil
	}
	return fmt.Errorf("%w: exercise %q", diagnostic.ErrNotFound, exerciseID)
}

// Answer returns the recorded answer text.
func (s *Session) Answer(exerciseID diagnostic.ID) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.answers[exerciseID.String()]
	return a, ok
}

func (s *Session) AllAnswered() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.allAnsweredLocked()
}

func (s *Session) allAnsweredLocked() bool {
	for _, e := range s.exercises {
		if _, ok := s.answers[e.ID.String()]; !ok {
			return false
		}
	}
	return true
}

// Progress is the share of the sequence reached, in [0, 1].
func (s *Session) Progress() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.exercises) == 0 {
		return 0
	}
	return float64(s.index+1) / float64(len(s.exercises))
}

func (s *Session) Submitting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitting
}

// CanSubmit reports whether Submit would be attempted now.
func (s *Session) CanSubmit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canSubmitLocked() == nil
}

func (s *Session) canSubmitLocked() error {
	n := len(s.exercises)
	switch {
	case s.submitting:
		return diagnostic.ErrSubmissionInFlight
	case n == 0:
		return fmt.Errorf("%w: test has no exercises", diagnostic.ErrSubmitNotAllowed)
	case s.index != n-1:
		return fmt.Errorf("%w: last exercise not reached", diagnostic.ErrSubmitNotAllowed)
	case s.policy == RequireAllAnswered && !s.allAnsweredLocked():
		return fmt.Errorf("%w: unanswered exercises", diagnostic.ErrSubmitNotAllowed)
	}
	return nil
}

// Assemble lists one answer per exercise in sequence order; unanswered
// exercises carry a null response.
func (s *Session) Assemble() []diagnostic.StudentAnswer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.assembleLocked()
}

func (s *Session) assembleLocked() []diagnostic.StudentAnswer {
	out := make([]diagnostic.StudentAnswer, len(s.exercises))
	for i, e := range s.exercises {
		out[i].ExerciseID = e.ID.String()
		if a, ok := s.answers[e.ID.String()]; ok {
			out[i].Response = diagnostic.TextValue(a)
		}
	}
	return out
}

// Submit sends every answer to the grader in one request and interprets the
// response. The session lock is not held during the call.
func (s *Session) Submit(ctx context.Context, g Grader) (diagnostic.SubmissionResult, error) {
	s.mu.Lock()
	if err := s.canSubmitLocked(); err != nil {
		s.mu.Unlock()
		return diagnostic.SubmissionResult{}, err
	}
	if s.studentID == "" {
		s.mu.Unlock()
		return diagnostic.SubmissionResult{}, fmt.Errorf("%w: student id missing", diagnostic.ErrValidation)
	}
	req := wire.ToSubmitRequest(s.studentID, s.testID, s.assembleLocked())
	s.submitting = true
	s.lastErr = nil
	s.mu.Unlock()

	raw, err := g.SubmitAnswers(ctx, req)
	var res diagnostic.SubmissionResult
	if err != nil {
		err = asCollaboratorError("submit answers", err)
	} else {
		res, err = Interpret(raw)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitting = false
	if err != nil {
		s.lastErr = err
		return diagnostic.SubmissionResult{}, err
	}
	s.result = &res
	return res, nil
}

// Result is the last successful submission result.
func (s *Session) Result() (diagnostic.SubmissionResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return diagnostic.SubmissionResult{}, false
	}
	return *s.result, true
}

// LastError is the user-visible message of the last failed submission.
func (s *Session) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return diagnostic.UserMessage(s.lastErr)
}

func asCollaboratorError(op string, err error) error {
	var ce *diagnostic.CollaboratorError
	if errors.As(err, &ce) {
		return err
	}
	return &diagnostic.CollaboratorError{Op: op, Err: err}
}
