package diagnostic

import "slices"

type Option struct {
	ID       ID
	Text     string
	Correct  bool
	Feedback string
}

type Exercise struct {
	ID      ID
	Kind    Kind
	Prompt  string
	Options []Option

	// TrueFalseAnswer is the legacy standalone correctness field of TrueFalse
	// exercises. Options are authoritative; this is only kept until reconciled.
	TrueFalseAnswer *bool
}

type Competency struct {
	ID          ID
	Name        string
	Description string
	Exercises   []Exercise
}

// Test is the assessment instrument. ID is zero until persisted.
type Test struct {
	ID           ID
	Title        string
	Description  string
	ClassID      string
	DisciplineID string
	Competencies []Competency
}

// StudentAnswer pairs an exercise with the submitted value. A null Response
// means the exercise was never answered.
type StudentAnswer struct {
	ExerciseID string
	Response   Value
}

// AnswerDetail is the grading service's verdict on one exercise.
type AnswerDetail struct {
	ExerciseID    string
	StudentAnswer Value
	CorrectAnswer Value
	Correct       bool
}

// SubmissionResult is display state built from the grading response.
type SubmissionResult struct {
	TotalScore     float64
	CorrectAnswers int
	TotalExercises int
	SubmittedAt    string
	Details        []AnswerDetail
}

// Percent is the share of correct answers, 0 when nothing was graded.
func (r SubmissionResult) Percent() float64 {
	if r.TotalExercises == 0 {
		return 0
	}
	return float64(r.CorrectAnswers) / float64(r.TotalExercises) * 100
}

// CorrectIndex returns the index of the correct option or -1.
func (e Exercise) CorrectIndex() int {
	for i, o := range e.Options {
		if o.Correct {
			return i
		}
	}
	return -1
}

// Option looks an option up by ID.
func (e Exercise) Option(id ID) (Option, bool) {
	for _, o := range e.Options {
		if o.ID == id {
			return o, true
		}
	}
	return Option{}, false
}

// Clone returns a deep copy of the test.
func (t Test) Clone() Test {
	out := t
	if t.Competencies == nil {
		return out
	}
	out.Competencies = make([]Competency, len(t.Competencies))
	for i, c := range t.Competencies {
		out.Competencies[i] = c.clone()
	}
	return out
}

func (c Competency) clone() Competency {
	out := c
	if c.Exercises == nil {
		return out
	}
	out.Exercises = make([]Exercise, len(c.Exercises))
	for i, e := range c.Exercises {
		out.Exercises[i] = e.clone()
	}
	return out
}

func (e Exercise) clone() Exercise {
	out := e
	out.Options = slices.Clone(e.Options)
	if e.TrueFalseAnswer != nil {
		v := *e.TrueFalseAnswer
		out.TrueFalseAnswer = &v
	}
	return out
}
