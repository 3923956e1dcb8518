// Package authoring loads tests for editing and saves drafts through the
// persistence collaborator.
package authoring

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/mind-engage/diagquest/internal/diagnostic"
	"github.com/mind-engage/diagquest/internal/wire"
)

// TestStore is the persistence collaborator.
type TestStore interface {
	CreateTest(ctx context.Context, p wire.TestPayload) (wire.TestRecord, error)
	UpdateTest(ctx context.Context, id string, p wire.TestPayload) (wire.TestRecord, error)
	GetTest(ctx context.Context, id string) (wire.TestRecord, error)
	ListTests(ctx context.Context, classID string) ([]wire.TestRecord, error)
}

// Summary is one row of a test listing.
type Summary struct {
	ID             string
	Title          string
	ClassID        string
	ClassName      string
	DisciplineName string
	Status         string
	Competencies   int
	Exercises      int
}

// Catalog lists the classes and disciplines a test can be filed under.
type Catalog interface {
	Classes(ctx context.Context) ([]wire.Class, error)
	Disciplines(ctx context.Context, classID string) ([]wire.Discipline, error)
}

type Service struct {
	store   TestStore
	catalog Catalog
}

type Option func(*Service)

// WithCatalog makes Save check the draft's class and discipline first.
func WithCatalog(c Catalog) Option { return func(s *Service) { s.catalog = c } }

func NewService(store TestStore, opts ...Option) *Service {
	s := &Service{store: store}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Classes lists the classes a test can be filed under.
func (s *Service) Classes(ctx context.Context) ([]wire.Class, error) {
	if s.catalog == nil {
		return nil, nil
	}
	cs, err := s.catalog.Classes(ctx)
	if err != nil {
		return nil, collaboratorErr("load classes", err)
	}
	return cs, nil
}

// DisciplinesFor lists the disciplines taught in a class.
func (s *Service) DisciplinesFor(ctx context.Context, classID string) ([]wire.Discipline, error) {
	if s.catalog == nil || classID == "" {
		return nil, nil
	}
	ds, err := s.catalog.Disciplines(ctx, classID)
	if err != nil {
		return nil, collaboratorErr("load disciplines", err)
	}
	return ds, nil
}

// checkCatalog rejects a class or discipline the catalogue does not know.
// A discipline must be one of the class's.
func (s *Service) checkCatalog(ctx context.Context, t diagnostic.Test) error {
	if s.catalog == nil || (t.ClassID == "" && t.DisciplineID == "") {
		return nil
	}
	if t.ClassID != "" {
		cs, err := s.Classes(ctx)
		if err != nil {
			return err
		}
		if !slices.ContainsFunc(cs, func(c wire.Class) bool { return c.ID == t.ClassID }) {
			return fmt.Errorf("%w: unknown classe_id %q", diagnostic.ErrValidation, t.ClassID)
		}
	}
	if t.DisciplineID == "" {
		return nil
	}
	if t.ClassID == "" {
		return fmt.Errorf("%w: disciplina_id %q needs a classe_id", diagnostic.ErrValidation, t.DisciplineID)
	}
	ds, err := s.DisciplinesFor(ctx, t.ClassID)
	if err != nil {
		return err
	}
	if !slices.ContainsFunc(ds, func(d wire.Discipline) bool { return d.ID == t.DisciplineID }) {
		return fmt.Errorf("%w: disciplina_id %q is not taught in classe_id %q", diagnostic.ErrValidation, t.DisciplineID, t.ClassID)
	}
	return nil
}

// Load fetches a persisted test and returns it as a draft ready for editing.
func (s *Service) Load(ctx context.Context, testID string) (diagnostic.DraftTree, error) {
	rec, err := s.store.GetTest(ctx, testID)
	if err != nil {
		return diagnostic.DraftTree{}, collaboratorErr("load test", err)
	}
	return diagnostic.DraftFrom(wire.FromRecord(rec)), nil
}

// Save creates the test when it has no ID yet and replaces it otherwise.
// The returned draft is rebuilt from the collaborator's response, so server
// IDs replace ephemeral ones. On failure d is still the caller's draft.
func (s *Service) Save(ctx context.Context, d diagnostic.DraftTree, authorID string) (diagnostic.DraftTree, error) {
	t := d.Test()
	p := wire.ToPayload(t, authorID)
	if err := wire.Validate(p); err != nil {
		return d, err
	}
	if err := s.checkCatalog(ctx, t); err != nil {
		return d, err
	}

	var (
		rec wire.TestRecord
		err error
	)
	if t.ID.IsZero() {
		rec, err = s.store.CreateTest(ctx, p)
		if err != nil {
			return d, collaboratorErr("create test", err)
		}
	} else {
		rec, err = s.store.UpdateTest(ctx, t.ID.String(), p)
		if err != nil {
			return d, collaboratorErr("update test", err)
		}
	}
	if rec.ID == "" {
		return d, &diagnostic.CollaboratorError{Op: "save test", Message: "response carried no test id"}
	}
	return diagnostic.DraftFrom(wire.FromRecord(rec)), nil
}

// List returns the tests of a class, or every test when classID is empty.
func (s *Service) List(ctx context.Context, classID string) ([]Summary, error) {
	recs, err := s.store.ListTests(ctx, classID)
	if err != nil {
		return nil, collaboratorErr("list tests", err)
	}
	out := make([]Summary, 0, len(recs))
	for _, r := range recs {
		out = append(out, Summary{
			ID:             r.ID,
			Title:          r.Titulo,
			ClassID:        r.ClasseID,
			ClassName:      deref(r.NomeClasse),
			DisciplineName: deref(r.NomeDisciplina),
			Status:         r.Status,
			Competencies:   r.NumeroCompetencias,
			Exercises:      r.NumeroExercicios,
		})
	}
	return out, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func collaboratorErr(op string, err error) error {
	var ce *diagnostic.CollaboratorError
	if errors.As(err, &ce) {
		return err
	}
	if errors.Is(err, diagnostic.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return &diagnostic.CollaboratorError{Op: op, Err: err}
}
