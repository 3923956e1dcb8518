package diagnostic

import "github.com/google/uuid"

// ID identifies a test, competency, exercise or option.
//
// An ID is either ephemeral (minted in memory, never returned by the
// persistence service) or confirmed (issued by the persistence service).
// Two IDs with the same text but different origin are not equal.
type ID struct {
	value     string
	confirmed bool
}

// NewEphemeralID mints a fresh client-side ID.
func NewEphemeralID() ID { return ID{value: uuid.NewString()} }

// ConfirmedID wraps an ID issued by the persistence service.
// An empty value yields the zero ID.
func ConfirmedID(v string) ID {
	if v == "" {
		return ID{}
	}
	return ID{value: v, confirmed: true}
}

func (id ID) String() string { return id.value }

func (id ID) IsZero() bool { return id.value == "" }

func (id ID) IsEphemeral() bool { return id.value != "" && !id.confirmed }

func (id ID) IsConfirmed() bool { return id.confirmed }
