// Package testbank is the reference persistence and grading service for
// diagnostic tests: it stores authored tests, grades submitted answers and
// keeps one result per student and test.
package testbank

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/mind-engage/diagquest/internal/wire"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")
)

type Store interface {
	PutTest(ctx context.Context, rec wire.TestRecord) error
	GetTest(ctx context.Context, id string) (wire.TestRecord, error)
	// ListTests returns newest first; an empty classID lists every test.
	ListTests(ctx context.Context, classID string) ([]wire.TestRecord, error)

	// PutSubmission replaces any earlier result of the same student and test.
	PutSubmission(ctx context.Context, r wire.Result) error
	GetSubmission(ctx context.Context, testID, studentID string) (wire.Result, error)
}

type submissionKey struct{ testID, studentID string }

type memoryStore struct {
	mu          sync.RWMutex
	tests       map[string]wire.TestRecord
	submissions map[submissionKey]wire.Result
}

func NewInMemoryStore() Store {
	return &memoryStore{
		tests:       map[string]wire.TestRecord{},
		submissions: map[submissionKey]wire.Result{},
	}
}

func (m *memoryStore) PutTest(_ context.Context, rec wire.TestRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tests[rec.ID] = rec
	return nil
}

func (m *memoryStore) GetTest(_ context.Context, id string) (wire.TestRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.tests[id]
	if !ok {
		return wire.TestRecord{}, ErrNotFound
	}
	return rec, nil
}

func (m *memoryStore) ListTests(_ context.Context, classID string) ([]wire.TestRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]wire.TestRecord, 0, len(m.tests))
	for _, rec := range m.tests {
		if classID == "" || rec.ClasseID == classID {
			out = append(out, rec)
		}
	}
	slices.SortFunc(out, func(a, b wire.TestRecord) int {
		if c := cmp.Compare(b.DataCriacao, a.DataCriacao); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (m *memoryStore) PutSubmission(_ context.Context, r wire.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tests[r.TesteID]; !ok {
		return ErrNotFound
	}
	m.submissions[submissionKey{r.TesteID, r.AlunoID}] = r
	return nil
}

func (m *memoryStore) GetSubmission(_ context.Context, testID, studentID string) (wire.Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.submissions[submissionKey{testID, studentID}]
	if !ok {
		return wire.Result{}, ErrNotFound
	}
	return r, nil
}
