package grading

import (
	"context"
	"errors"
	"math"

	"github.com/mind-engage/diagquest/internal/diagnostic"
)

// Choice is one option of an exercise as stored by the test bank.
type Choice struct {
	Text    string
	Correct bool
}

// Q is the view of an exercise needed for grading.
type Q struct {
	Kind      string
	Choices   []Choice
	TrueFalse *bool // standalone answer of a VERDADEIRO_FALSO exercise
}

// Result is the outcome of grading a single response.
type Result struct {
	Correct       bool
	CorrectAnswer diagnostic.Value
	Feedback      []string
}

// Strategy grades one exercise kind.
type Strategy interface {
	Grade(ctx context.Context, q Q, response diagnostic.Value) (Result, error)
}

// Grader routes by exercise kind to the correct Strategy.
type Grader interface {
	Grade(ctx context.Context, q Q, response diagnostic.Value) (Result, error)
}

type defaultGrader struct {
	strategies map[string]Strategy
}

func (g *defaultGrader) Grade(ctx context.Context, q Q, response diagnostic.Value) (Result, error) {
	kind := q.Kind
	if kind == "" {
		kind = string(diagnostic.MultipleChoice)
	}
	s, ok := g.strategies[kind]
	if !ok {
		return Result{Feedback: []string{"no strategy available"}}, nil
	}
	return s.Grade(ctx, q, response)
}

// Engine options

type Option func(*config)

type config struct {
	MaxEditDistance int // tolerated typos when matching option text
}

func WithMaxEditDistance(n int) Option { return func(c *config) { c.MaxEditDistance = n } }

// NewDefaultGrader installs built-in strategies.
func NewDefaultGrader(opts ...Option) Grader {
	cfg := &config{}
	for _, o := range opts {
		o(cfg)
	}
	return &defaultGrader{
		strategies: map[string]Strategy{
			string(diagnostic.MultipleChoice): multipleChoiceStrategy{maxEdit: cfg.MaxEditDistance},
			string(diagnostic.TrueFalse):      trueFalseStrategy{},
		},
	}
}

// Score is correct/total on a 0-10 scale, rounded to two decimals.
func Score(correct, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(correct)/float64(total)*10*100) / 100
}

// --- Strategies ---

type multipleChoiceStrategy struct{ maxEdit int }

func (s multipleChoiceStrategy) Grade(_ context.Context, q Q, response diagnostic.Value) (Result, error) {
	var res Result
	idx := correctChoice(q.Choices)
	if idx < 0 {
		res.Feedback = append(res.Feedback, "no correct option configured")
		return res, nil
	}
	key := q.Choices[idx].Text
	res.CorrectAnswer = diagnostic.TextValue(key)
	if response.IsNull() {
		return res, nil
	}
	text, ok := response.Text()
	if !ok {
		return res, errors.New("response must be text")
	}
	nk, nr := normalize(key), normalize(text)
	switch {
	case nk == nr:
		res.Correct = true
	case s.maxEdit > 0 && levenshtein(nk, nr) <= s.maxEdit:
		res.Correct = true
		res.Feedback = append(res.Feedback, "close match (fuzzy)")
	}
	return res, nil
}

type trueFalseStrategy struct{}

func (trueFalseStrategy) Grade(_ context.Context, q Q, response diagnostic.Value) (Result, error) {
	var res Result
	want, ok := trueFalseKey(q)
	if !ok {
		res.Feedback = append(res.Feedback, "no correct answer configured")
		return res, nil
	}
	res.CorrectAnswer = diagnostic.BoolValue(want)
	if response.IsNull() {
		return res, nil
	}
	got, ok := trueFalseResponse(q, response)
	if !ok {
		res.Feedback = append(res.Feedback, "unrecognised answer")
		return res, nil
	}
	res.Correct = got == want
	return res, nil
}

// trueFalseKey prefers the option flags (True is option 0) over the
// standalone field.
func trueFalseKey(q Q) (bool, bool) {
	if idx := correctChoice(q.Choices); idx == 0 || idx == 1 {
		return idx == 0, true
	}
	if q.TrueFalse != nil {
		return *q.TrueFalse, true
	}
	return false, false
}

func trueFalseResponse(q Q, v diagnostic.Value) (bool, bool) {
	if b, ok := v.Bool(); ok {
		return b, true
	}
	text, _ := v.Text()
	switch normalize(text) {
	case "true", "verdadeiro", "v":
		return true, true
	case "false", "falso", "f":
		return false, true
	}
	for i, c := range q.Choices {
		if i > 1 {
			break
		}
		if normalize(c.Text) == normalize(text) {
			return i == 0, true
		}
	}
	return false, false
}

func correctChoice(cs []Choice) int {
	for i, c := range cs {
		if c.Correct {
			return i
		}
	}
	return -1
}
