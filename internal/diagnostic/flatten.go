package diagnostic

import (
	"iter"
	"slices"
)

// Flatten yields the exercises of t in competency order, then exercise order
// within each competency. The position in this sequence is the exercise
// number shown to authors and respondents. The sequence can be ranged over
// any number of times.
func Flatten(t Test) iter.Seq[Exercise] {
	return func(yield func(Exercise) bool) {
		for _, c := range t.Competencies {
			for _, e := range c.Exercises {
				if !yield(e) {
					return
				}
			}
		}
	}
}

// Exercises collects Flatten(t).
func Exercises(t Test) []Exercise {
	return slices.Collect(Flatten(t))
}

// ExerciseCount is the length of the flattened sequence.
func ExerciseCount(t Test) int {
	n := 0
	for _, c := range t.Competencies {
		n += len(c.Exercises)
	}
	return n
}

// Number returns the 1-based position of an exercise in the flattened
// sequence ("Challenge N").
func Number(t Test, exerciseID ID) (int, bool) {
	n := 0
	for e := range Flatten(t) {
		n++
		if e.ID == exerciseID {
			return n, true
		}
	}
	return 0, false
}
