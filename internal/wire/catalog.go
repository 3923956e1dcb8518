package wire

import (
	"encoding/json"
	"fmt"
)

// Class is a school year, e.g. "1ª Classe".
type Class struct {
	ID   string `json:"id"`
	Name string `json:"name" validate:"notblank"`
}

// BaseDiscipline is a subject independent of any class, e.g. "Matemática".
type BaseDiscipline struct {
	ID   string `json:"id"`
	Nome string `json:"nome" validate:"notblank"`
}

// Discipline is a base discipline taught in a class. Tests point at it
// through disciplina_id.
type Discipline struct {
	ID               string         `json:"id"`
	ClasseID         string         `json:"classe_id"`
	DisciplinaBaseID string         `json:"disciplina_base_id"`
	Descricao        string         `json:"descricao,omitempty"`
	Classe           Class          `json:"classe"`
	DisciplinaBase   BaseDiscipline `json:"disciplina_base"`
	UpdatedAt        string         `json:"updated_at"`
}

// Name is the display name of the discipline.
func (d Discipline) Name() string { return d.DisciplinaBase.Nome }

// DisciplineRequest creates or edits a discipline. The description travels
// as "description" on the way in and comes back as "descricao".
type DisciplineRequest struct {
	ClasseID         string `json:"classe_id" validate:"required"`
	DisciplinaBaseID string `json:"disciplina_base_id" validate:"required"`
	Description      string `json:"description,omitempty"`
}

// DecodeList reads a catalogue listing, which arrives either wrapped as
// {"data": [...]} or as a bare array.
func DecodeList[T any](raw []byte) ([]T, error) {
	var wrapped struct {
		Data []T `json:"data"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Data != nil {
		return wrapped.Data, nil
	}
	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode list: %w", err)
	}
	return out, nil
}
