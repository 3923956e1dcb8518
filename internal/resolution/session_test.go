package resolution

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/diagquest/internal/diagnostic"
	"github.com/mind-engage/diagquest/internal/wire"
)

// twoCompetencies builds C1:[E1,E2], C2:[E3].
func twoCompetencies() diagnostic.Test {
	ex := func(id string, texts ...string) diagnostic.Exercise {
		e := diagnostic.Exercise{ID: diagnostic.ConfirmedID(id), Kind: diagnostic.MultipleChoice}
		for _, t := range texts {
			e.Options = append(e.Options, diagnostic.Option{ID: diagnostic.NewEphemeralID(), Text: t})
		}
		return e
	}
	return diagnostic.Test{
		ID: diagnostic.ConfirmedID("t-1"),
		Competencies: []diagnostic.Competency{
			{ID: diagnostic.ConfirmedID("C1"), Exercises: []diagnostic.Exercise{ex("E1", "A", "B"), ex("E2", "C", "D")}},
			{ID: diagnostic.ConfirmedID("C2"), Exercises: []diagnostic.Exercise{ex("E3", "X", "Y")}},
		},
	}
}

type fakeGrader struct {
	got   []wire.SubmitRequest
	resp  string
	err   error
	block chan struct{}
}

func (f *fakeGrader) SubmitAnswers(_ context.Context, req wire.SubmitRequest) (json.RawMessage, error) {
	f.got = append(f.got, req)
	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return nil, f.err
	}
	return json.RawMessage(f.resp), nil
}

func TestNavigation(t *testing.T) {
	s := NewSession(twoCompetencies(), "a-1")
	require.Equal(t, 3, s.Len())

	cur, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "E1", cur.ID.String())

	assert.False(t, s.Previous(), "previous on first is a no-op")
	assert.Equal(t, 0, s.Index())

	assert.True(t, s.Next())
	assert.True(t, s.Next())
	assert.False(t, s.Next(), "next on last is a no-op")
	assert.Equal(t, 2, s.Index())
	assert.InDelta(t, 1.0, s.Progress(), 1e-9)

	assert.False(t, s.Jump(3))
	assert.True(t, s.Jump(1))
	cur, _ = s.Current()
	assert.Equal(t, "E2", cur.ID.String())
}

func TestEmptySession(t *testing.T) {
	s := NewSession(diagnostic.Test{}, "a-1")
	_, ok := s.Current()
	assert.False(t, ok)
	assert.False(t, s.Next())
	assert.False(t, s.CanSubmit())
	assert.Zero(t, s.Progress())

	_, err := s.Submit(context.Background(), &fakeGrader{})
	assert.ErrorIs(t, err, diagnostic.ErrSubmitNotAllowed)
}

func TestSelectAnswer(t *testing.T) {
	tt := twoCompetencies()
	s := NewSession(tt, "a-1")
	e1 := tt.Competencies[0].Exercises[0]

	require.NoError(t, s.SelectAnswer(e1.ID, e1.Options[1].ID))
	require.NoError(t, s.SelectAnswer(e1.ID, e1.Options[1].ID))
	a, ok := s.Answer(e1.ID)
	require.True(t, ok)
	assert.Equal(t, "B", a)

	require.NoError(t, s.SelectAnswer(e1.ID, e1.Options[0].ID))
	a, _ = s.Answer(e1.ID)
	assert.Equal(t, "A", a, "later selection replaces earlier")

	err := s.SelectAnswer(diagnostic.ConfirmedID("nope"), e1.Options[0].ID)
	assert.ErrorIs(t, err, diagnostic.ErrNotFound)
	err = s.SelectAnswer(e1.ID, diagnostic.NewEphemeralID())
	assert.ErrorIs(t, err, diagnostic.ErrNotFound)
}

func TestAssemble(t *testing.T) {
	tt := diagnostic.Test{Competencies: []diagnostic.Competency{{
		ID: diagnostic.ConfirmedID("C1"),
		Exercises: []diagnostic.Exercise{
			{ID: diagnostic.ConfirmedID("E1"), Options: []diagnostic.Option{{ID: diagnostic.ConfirmedID("o1"), Text: "A"}}},
			{ID: diagnostic.ConfirmedID("E2")},
		},
	}}}
	s := NewSession(tt, "a-1")
	require.NoError(t, s.SelectAnswer(diagnostic.ConfirmedID("E1"), diagnostic.ConfirmedID("o1")))

	got := s.Assemble()
	assert.Equal(t, []diagnostic.StudentAnswer{
		{ExerciseID: "E1", Response: diagnostic.TextValue("A")},
		{ExerciseID: "E2"},
	}, got)
	assert.True(t, got[1].Response.IsNull())
}

func TestSubmit(t *testing.T) {
	tt := twoCompetencies()
	s := NewSession(tt, "a-1")
	g := &fakeGrader{resp: `{"valor_total": 8.5, "respostas_corretas": 3, "total_exercicios": 4, "detalhes_respostas": []}`}

	_, err := s.Submit(context.Background(), g)
	require.ErrorIs(t, err, diagnostic.ErrSubmitNotAllowed, "not on the last exercise")
	assert.Empty(t, g.got)

	e3 := tt.Competencies[1].Exercises[0]
	require.NoError(t, s.SelectAnswer(e3.ID, e3.Options[0].ID))
	s.Jump(2)
	require.True(t, s.CanSubmit())

	res, err := s.Submit(context.Background(), g)
	require.NoError(t, err)
	assert.Equal(t, 8.5, res.TotalScore)
	assert.Equal(t, 3, res.CorrectAnswers)
	assert.Equal(t, 4, res.TotalExercises)
	assert.Empty(t, res.Details)
	assert.InDelta(t, 75.0, res.Percent(), 1e-9)

	require.Len(t, g.got, 1)
	req := g.got[0]
	assert.Equal(t, "a-1", req.AlunoID)
	assert.Equal(t, "t-1", req.TesteID)
	require.Len(t, req.Respostas, 3)
	assert.Nil(t, req.Respostas[0].Resposta)
	require.NotNil(t, req.Respostas[2].Resposta)
	assert.Equal(t, "X", req.Respostas[2].Resposta.String())

	stored, ok := s.Result()
	require.True(t, ok)
	assert.Equal(t, res, stored)
}

func TestSubmit_RequireAllAnswered(t *testing.T) {
	tt := twoCompetencies()
	s := NewSession(tt, "a-1", WithSubmitPolicy(RequireAllAnswered))
	s.Jump(2)
	assert.False(t, s.CanSubmit())

	for _, e := range diagnostic.Exercises(tt) {
		require.NoError(t, s.SelectAnswer(e.ID, e.Options[0].ID))
	}
	assert.True(t, s.AllAnswered())
	assert.True(t, s.CanSubmit())
}

func TestSubmit_MissingStudent(t *testing.T) {
	s := NewSession(twoCompetencies(), "")
	s.Jump(2)
	_, err := s.Submit(context.Background(), &fakeGrader{})
	assert.ErrorIs(t, err, diagnostic.ErrValidation)
}

func TestSubmit_CollaboratorFailureKeepsState(t *testing.T) {
	tt := twoCompetencies()
	s := NewSession(tt, "a-1")
	e1 := tt.Competencies[0].Exercises[0]
	require.NoError(t, s.SelectAnswer(e1.ID, e1.Options[1].ID))
	s.Jump(2)

	_, err := s.Submit(context.Background(), &fakeGrader{err: errors.New("connection refused")})
	require.ErrorIs(t, err, diagnostic.ErrCollaboratorUnavailable)
	assert.Equal(t, "could not submit answers, please try again", s.LastError())

	assert.Equal(t, 2, s.Index())
	assert.False(t, s.Submitting())
	a, _ := s.Answer(e1.ID)
	assert.Equal(t, "B", a)
	_, ok := s.Result()
	assert.False(t, ok)

	_, err = s.Submit(context.Background(), &fakeGrader{err: &diagnostic.CollaboratorError{Op: "submit answers", Status: 400, Message: "Teste encerrado"}})
	require.Error(t, err)
	assert.Equal(t, "Teste encerrado", s.LastError())
}

func TestSubmit_InvalidResult(t *testing.T) {
	s := NewSession(twoCompetencies(), "a-1")
	s.Jump(2)
	_, err := s.Submit(context.Background(), &fakeGrader{resp: `{"respostas_corretas": 1}`})
	assert.ErrorIs(t, err, diagnostic.ErrInvalidResult)
	assert.True(t, s.CanSubmit(), "retry stays possible")
}

func TestSubmit_InFlightGuard(t *testing.T) {
	s := NewSession(twoCompetencies(), "a-1")
	s.Jump(2)
	g := &fakeGrader{resp: `{"valor_total": 10}`, block: make(chan struct{})}

	done := make(chan error, 1)
	go func() {
		_, err := s.Submit(context.Background(), g)
		done <- err
	}()
	require.Eventually(t, s.Submitting, time.Second, time.Millisecond)

	_, err := s.Submit(context.Background(), g)
	assert.ErrorIs(t, err, diagnostic.ErrSubmissionInFlight)
	assert.False(t, s.Previous(), "navigation is frozen while submitting")
	assert.False(t, s.Jump(0))

	close(g.block)
	require.NoError(t, <-done)
	assert.Len(t, g.got, 1)
	assert.True(t, s.Previous())
}
