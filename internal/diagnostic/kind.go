package diagnostic

import "fmt"

// Kind is the exercise gameplay. The string values are the wire values.
type Kind string

const (
	MultipleChoice Kind = "MULTIPLA_ESCOLHA"
	TrueFalse      Kind = "VERDADEIRO_FALSO"
)

// Fixed labels of the two TrueFalse options, in order.
const (
	TrueLabel  = "True"
	FalseLabel = "False"
)

const multipleChoiceOptionCount = 4

func (k Kind) Valid() bool { return k == MultipleChoice || k == TrueFalse }

// ParseKind accepts the wire value of a kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
	}
	return k, nil
}

// DefaultOptionsFor returns the option template of a kind: four blank
// options for MultipleChoice, True/False for TrueFalse. No option is correct
// and no option carries an ID; the caller assigns IDs. Unknown kinds get no
// options.
func DefaultOptionsFor(k Kind) []Option {
	switch k {
	case MultipleChoice:
		return make([]Option, multipleChoiceOptionCount)
	case TrueFalse:
		return []Option{{Text: TrueLabel}, {Text: FalseLabel}}
	default:
		return nil
	}
}

// freshOptions is DefaultOptionsFor with ephemeral IDs assigned.
func freshOptions(k Kind) []Option {
	opts := DefaultOptionsFor(k)
	for i := range opts {
		opts[i].ID = NewEphemeralID()
	}
	return opts
}
