package diagnostic

import (
	"fmt"
	"slices"
)

type CompetencyField int

const (
	CompetencyName CompetencyField = iota
	CompetencyDescription
)

type ExerciseField int

const (
	ExerciseKind ExerciseField = iota
	ExercisePrompt
)

type OptionField int

const (
	OptionText OptionField = iota
	OptionFeedback
)

// DraftTree is the authoring form of a Test. It is a value: every operation
// returns a new tree and leaves the receiver untouched, so older trees can be
// kept for undo or compared for changes. Subtrees that an operation does not
// touch are shared between the old and new tree and are never written to.
//
// Operations that cannot resolve their IDs return the receiver unchanged
// together with an error wrapping ErrNotFound or ErrIndexOutOfRange.
type DraftTree struct {
	t Test
}

// NewDraft starts an empty test.
func NewDraft() DraftTree { return DraftTree{} }

// DraftFrom wraps a copy of t.
func DraftFrom(t Test) DraftTree { return DraftTree{t: t.Clone()} }

// Test returns a deep copy of the tree.
func (d DraftTree) Test() Test { return d.t.Clone() }

func (d DraftTree) ID() ID { return d.t.ID }

func (d DraftTree) Title() string { return d.t.Title }

func (d DraftTree) SetTitle(title string) DraftTree {
	d.t.Title = title
	return d
}

func (d DraftTree) SetDescription(desc string) DraftTree {
	d.t.Description = desc
	return d
}

// SetClass changes the class and clears the discipline, which belongs to a class.
func (d DraftTree) SetClass(classID string) DraftTree {
	d.t.ClassID = classID
	d.t.DisciplineID = ""
	return d
}

func (d DraftTree) SetDiscipline(disciplineID string) DraftTree {
	d.t.DisciplineID = disciplineID
	return d
}

// AddCompetency appends an empty competency with an ephemeral ID.
func (d DraftTree) AddCompetency() DraftTree {
	comps := make([]Competency, len(d.t.Competencies), len(d.t.Competencies)+1)
	copy(comps, d.t.Competencies)
	d.t.Competencies = append(comps, Competency{ID: NewEphemeralID()})
	return d
}

func (d DraftTree) RemoveCompetency(competencyID ID) (DraftTree, error) {
	i, err := d.competencyIndex(competencyID)
	if err != nil {
		return d, err
	}
	d.t.Competencies = slices.Delete(slices.Clone(d.t.Competencies), i, i+1)
	return d, nil
}

func (d DraftTree) UpdateCompetencyField(competencyID ID, field CompetencyField, value string) (DraftTree, error) {
	return d.withCompetency(competencyID, func(c Competency) (Competency, error) {
		switch field {
		case CompetencyName:
			c.Name = value
		case CompetencyDescription:
			c.Description = value
		default:
			return c, fmt.Errorf("%w: competency field %d", ErrUnknownField, field)
		}
		return c, nil
	})
}

// AddExercise appends a MultipleChoice exercise with the default options.
func (d DraftTree) AddExercise(competencyID ID) (DraftTree, error) {
	return d.withCompetency(competencyID, func(c Competency) (Competency, error) {
		exs := make([]Exercise, len(c.Exercises), len(c.Exercises)+1)
		copy(exs, c.Exercises)
		c.Exercises = append(exs, Exercise{
			ID:      NewEphemeralID(),
			Kind:    MultipleChoice,
			Options: freshOptions(MultipleChoice),
		})
		return c, nil
	})
}

func (d DraftTree) RemoveExercise(competencyID, exerciseID ID) (DraftTree, error) {
	return d.withCompetency(competencyID, func(c Competency) (Competency, error) {
		j := slices.IndexFunc(c.Exercises, func(e Exercise) bool { return e.ID == exerciseID })
		if j < 0 {
			return c, notFound("exercise", exerciseID)
		}
		c.Exercises = slices.Delete(slices.Clone(c.Exercises), j, j+1)
		return c, nil
	})
}

// UpdateExerciseField sets the prompt or the kind. Setting the kind, even to
// the current one, replaces the options with the kind's defaults and clears
// the standalone TrueFalse answer.
func (d DraftTree) UpdateExerciseField(competencyID, exerciseID ID, field ExerciseField, value string) (DraftTree, error) {
	return d.withExercise(competencyID, exerciseID, func(e Exercise) (Exercise, error) {
		switch field {
		case ExercisePrompt:
			e.Prompt = value
		case ExerciseKind:
			k, err := ParseKind(value)
			if err != nil {
				return e, err
			}
			e.Kind = k
			e.Options = freshOptions(k)
			e.TrueFalseAnswer = nil
		default:
			return e, fmt.Errorf("%w: exercise field %d", ErrUnknownField, field)
		}
		return e, nil
	})
}

// MarkOptionCorrect makes the option at index the only correct one.
func (d DraftTree) MarkOptionCorrect(competencyID, exerciseID ID, index int) (DraftTree, error) {
	return d.withExercise(competencyID, exerciseID, func(e Exercise) (Exercise, error) {
		if index < 0 || index >= len(e.Options) {
			return e, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, index, len(e.Options))
		}
		opts := slices.Clone(e.Options)
		for i := range opts {
			opts[i].Correct = i == index
		}
		e.Options = opts
		return e, nil
	})
}

func (d DraftTree) UpdateOptionField(competencyID, exerciseID, optionID ID, field OptionField, value string) (DraftTree, error) {
	return d.withExercise(competencyID, exerciseID, func(e Exercise) (Exercise, error) {
		k := slices.IndexFunc(e.Options, func(o Option) bool { return o.ID == optionID })
		if k < 0 {
			return e, notFound("option", optionID)
		}
		opts := slices.Clone(e.Options)
		switch field {
		case OptionText:
			opts[k].Text = value
		case OptionFeedback:
			opts[k].Feedback = value
		default:
			return e, fmt.Errorf("%w: option field %d", ErrUnknownField, field)
		}
		e.Options = opts
		return e, nil
	})
}

func (d DraftTree) competencyIndex(id ID) (int, error) {
	i := slices.IndexFunc(d.t.Competencies, func(c Competency) bool { return c.ID == id })
	if i < 0 {
		return -1, notFound("competency", id)
	}
	return i, nil
}

func (d DraftTree) withCompetency(id ID, fn func(Competency) (Competency, error)) (DraftTree, error) {
	i, err := d.competencyIndex(id)
	if err != nil {
		return d, err
	}
	c, err := fn(d.t.Competencies[i])
	if err != nil {
		return d, err
	}
	out := d
	out.t.Competencies = slices.Clone(d.t.Competencies)
	out.t.Competencies[i] = c
	return out, nil
}

func (d DraftTree) withExercise(competencyID, exerciseID ID, fn func(Exercise) (Exercise, error)) (DraftTree, error) {
	return d.withCompetency(competencyID, func(c Competency) (Competency, error) {
		j := slices.IndexFunc(c.Exercises, func(e Exercise) bool { return e.ID == exerciseID })
		if j < 0 {
			return c, notFound("exercise", exerciseID)
		}
		e, err := fn(c.Exercises[j])
		if err != nil {
			return c, err
		}
		c.Exercises = slices.Clone(c.Exercises)
		c.Exercises[j] = e
		return c, nil
	})
}
