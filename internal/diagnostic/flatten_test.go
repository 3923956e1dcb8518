package diagnostic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTest() Test {
	ex := func(id string) Exercise {
		return Exercise{ID: ConfirmedID(id), Kind: MultipleChoice, Options: freshOptions(MultipleChoice)}
	}
	return Test{
		ID:    ConfirmedID("t1"),
		Title: "Quest",
		Competencies: []Competency{
			{ID: ConfirmedID("c1"), Exercises: []Exercise{ex("e1"), ex("e2")}},
			{ID: ConfirmedID("c2")},
			{ID: ConfirmedID("c3"), Exercises: []Exercise{ex("e3")}},
		},
	}
}

func ids(exs []Exercise) []string {
	out := make([]string, len(exs))
	for i, e := range exs {
		out[i] = e.ID.String()
	}
	return out
}

func TestFlatten_Order(t *testing.T) {
	tt := sampleTest()
	assert.Equal(t, []string{"e1", "e2", "e3"}, ids(Exercises(tt)))
	assert.Equal(t, 3, ExerciseCount(tt))

	// restartable
	assert.Equal(t, ids(Exercises(tt)), ids(Exercises(tt)))
}

func TestFlatten_EarlyStop(t *testing.T) {
	var seen []string
	for e := range Flatten(sampleTest()) {
		seen = append(seen, e.ID.String())
		if len(seen) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"e1", "e2"}, seen)
}

func TestFlatten_Empty(t *testing.T) {
	assert.Empty(t, Exercises(Test{}))
	assert.Equal(t, 0, ExerciseCount(Test{}))
}

func TestFlatten_LengthStableUnderTextEdits(t *testing.T) {
	d := DraftFrom(sampleTest())
	before := ExerciseCount(d.Test())

	d, err := d.UpdateExerciseField(ConfirmedID("c1"), ConfirmedID("e2"), ExercisePrompt, "new prompt")
	require.NoError(t, err)
	d, err = d.UpdateCompetencyField(ConfirmedID("c3"), CompetencyName, "Listening")
	require.NoError(t, err)
	d, err = d.MarkOptionCorrect(ConfirmedID("c3"), ConfirmedID("e3"), 3)
	require.NoError(t, err)

	assert.Equal(t, before, ExerciseCount(d.Test()))
	assert.Equal(t, before, len(Exercises(d.Test())))
	assert.Equal(t, []string{"e1", "e2", "e3"}, ids(Exercises(d.Test())))

	d, err = d.AddExercise(ConfirmedID("c2"))
	require.NoError(t, err)
	assert.Equal(t, before+1, len(Exercises(d.Test())))
}

func TestNumber(t *testing.T) {
	tt := sampleTest()
	n, ok := Number(tt, ConfirmedID("e3"))
	require.True(t, ok)
	assert.Equal(t, 3, n)

	_, ok = Number(tt, ConfirmedID("nope"))
	assert.False(t, ok)
}
