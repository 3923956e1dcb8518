package resolution

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/diagquest/internal/diagnostic"
)

func TestInterpret(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    diagnostic.SubmissionResult
		wantErr bool
	}{
		{
			name: "full summary",
			raw:  `{"valor_total": 8.5, "respostas_corretas": 3, "total_exercicios": 4, "detalhes_respostas": []}`,
			want: diagnostic.SubmissionResult{TotalScore: 8.5, CorrectAnswers: 3, TotalExercises: 4, Details: []diagnostic.AnswerDetail{}},
		},
		{
			name: "only score",
			raw:  `{"valor_total": 0}`,
			want: diagnostic.SubmissionResult{Details: []diagnostic.AnswerDetail{}},
		},
		{
			name: "details pass through",
			raw: `{"valor_total": 5, "respostas_corretas": 1, "total_exercicios": 2, "detalhes_respostas": [
				{"exercicio_id": "E1", "resposta_aluno": "A", "resposta_correta": "A", "correta": true},
				{"exercicio_id": "E2", "resposta_aluno": null, "resposta_correta": true, "correta": false}]}`,
			want: diagnostic.SubmissionResult{TotalScore: 5, CorrectAnswers: 1, TotalExercises: 2, Details: []diagnostic.AnswerDetail{
				{ExerciseID: "E1", StudentAnswer: diagnostic.TextValue("A"), CorrectAnswer: diagnostic.TextValue("A"), Correct: true},
				{ExerciseID: "E2", CorrectAnswer: diagnostic.BoolValue(true)},
			}},
		},
		{
			name: "integral counts written as decimals",
			raw:  `{"valor_total": 8.5, "respostas_corretas": 3.0, "total_exercicios": 4.0}`,
			want: diagnostic.SubmissionResult{TotalScore: 8.5, CorrectAnswers: 3, TotalExercises: 4, Details: []diagnostic.AnswerDetail{}},
		},
		{name: "fractional count", raw: `{"valor_total": 1, "respostas_corretas": 2.5}`, wantErr: true},
		{name: "missing score", raw: `{"respostas_corretas": 3}`, wantErr: true},
		{name: "score as string", raw: `{"valor_total": "8.5"}`, wantErr: true},
		{name: "not json", raw: `<html>`, wantErr: true},
		{name: "negative count", raw: `{"valor_total": 1, "total_exercicios": -1}`, wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Interpret([]byte(tc.raw))
			if tc.wantErr {
				assert.ErrorIs(t, err, diagnostic.ErrInvalidResult)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestInterpretDetailed_RequiresCounts(t *testing.T) {
	_, err := InterpretDetailed([]byte(`{"valor_total": 8.5}`))
	assert.ErrorIs(t, err, diagnostic.ErrInvalidResult)

	r, err := InterpretDetailed([]byte(`{"valor_total": 10, "respostas_corretas": 1, "total_exercicios": 1,
		"data_submissao": "2024-05-01T10:00:00Z", "detalhes_respostas": []}`))
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01T10:00:00Z", r.SubmittedAt)
}

type resultSourceFunc func(ctx context.Context, testID, studentID string) (json.RawMessage, error)

func (f resultSourceFunc) FetchResult(ctx context.Context, testID, studentID string) (json.RawMessage, error) {
	return f(ctx, testID, studentID)
}

func TestFetchResult(t *testing.T) {
	src := resultSourceFunc(func(_ context.Context, testID, studentID string) (json.RawMessage, error) {
		assert.Equal(t, "t-1", testID)
		assert.Equal(t, "a-1", studentID)
		return json.RawMessage(`{"valor_total": 7.5, "respostas_corretas": 3, "total_exercicios": 4, "detalhes_respostas": []}`), nil
	})
	r, err := FetchResult(context.Background(), src, "t-1", "a-1")
	require.NoError(t, err)
	assert.Equal(t, 7.5, r.TotalScore)

	failing := resultSourceFunc(func(context.Context, string, string) (json.RawMessage, error) {
		return nil, errors.New("timeout")
	})
	_, err = FetchResult(context.Background(), failing, "t-1", "a-1")
	assert.ErrorIs(t, err, diagnostic.ErrCollaboratorUnavailable)
}
