package authoring

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/diagquest/internal/diagnostic"
	"github.com/mind-engage/diagquest/internal/wire"
)

type fakeStore struct {
	created []wire.TestPayload
	updated map[string]wire.TestPayload
	records map[string]wire.TestRecord
	err     error
}

func newFakeStore() *fakeStore {
	return &fakeStore{updated: map[string]wire.TestPayload{}, records: map[string]wire.TestRecord{}}
}

// assignIDs mimics the server: everything gets a server ID.
func (f *fakeStore) assignIDs(id string, p wire.TestPayload) wire.TestRecord {
	for i := range p.Competencias {
		p.Competencias[i].ID = "srv-c" + string(rune('0'+i))
		for j := range p.Competencias[i].Exercicios {
			p.Competencias[i].Exercicios[j].ID = p.Competencias[i].ID + "-e" + string(rune('0'+j))
		}
	}
	rec := wire.TestRecord{ID: id, TestPayload: p, Status: "Ativo", NumeroCompetencias: len(p.Competencias)}
	f.records[id] = rec
	return rec
}

func (f *fakeStore) CreateTest(_ context.Context, p wire.TestPayload) (wire.TestRecord, error) {
	if f.err != nil {
		return wire.TestRecord{}, f.err
	}
	f.created = append(f.created, p)
	return f.assignIDs("t-new", p), nil
}

func (f *fakeStore) UpdateTest(_ context.Context, id string, p wire.TestPayload) (wire.TestRecord, error) {
	if f.err != nil {
		return wire.TestRecord{}, f.err
	}
	f.updated[id] = p
	return f.assignIDs(id, p), nil
}

func (f *fakeStore) GetTest(_ context.Context, id string) (wire.TestRecord, error) {
	if f.err != nil {
		return wire.TestRecord{}, f.err
	}
	r, ok := f.records[id]
	if !ok {
		return wire.TestRecord{}, diagnostic.ErrNotFound
	}
	return r, nil
}

func (f *fakeStore) ListTests(_ context.Context, classID string) ([]wire.TestRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []wire.TestRecord
	for _, r := range f.records {
		if classID == "" || r.ClasseID == classID {
			out = append(out, r)
		}
	}
	return out, nil
}

func draftWithExercise(t *testing.T) diagnostic.DraftTree {
	t.Helper()
	d := diagnostic.NewDraft().SetTitle("Quest").SetClass("cls-1").AddCompetency()
	d, err := d.AddExercise(d.Test().Competencies[0].ID)
	require.NoError(t, err)
	return d
}

func TestSave_CreateThenUpdate(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)

	saved, err := svc.Save(context.Background(), draftWithExercise(t), "prof-1")
	require.NoError(t, err)
	require.Len(t, store.created, 1)
	assert.Equal(t, "prof-1", store.created[0].CriadoPor)

	assert.Equal(t, diagnostic.ConfirmedID("t-new"), saved.ID())
	c := saved.Test().Competencies[0]
	assert.Equal(t, diagnostic.ConfirmedID("srv-c0"), c.ID)
	assert.Equal(t, diagnostic.ConfirmedID("srv-c0-e0"), c.Exercises[0].ID)

	edited := saved.SetTitle("Quest 2")
	_, err = svc.Save(context.Background(), edited, "prof-1")
	require.NoError(t, err)
	assert.Len(t, store.created, 1, "second save is an update")
	assert.Equal(t, "Quest 2", store.updated["t-new"].Titulo)
}

func TestSave_BlankTitleNeverReachesStore(t *testing.T) {
	store := newFakeStore()
	d := draftWithExercise(t).SetTitle("  ")
	got, err := NewService(store).Save(context.Background(), d, "prof-1")
	require.ErrorIs(t, err, diagnostic.ErrValidation)
	assert.Empty(t, store.created)
	assert.Equal(t, d, got)
}

func TestSave_CollaboratorFailureKeepsDraft(t *testing.T) {
	store := newFakeStore()
	store.err = errors.New("dial tcp: refused")
	d := draftWithExercise(t)

	got, err := NewService(store).Save(context.Background(), d, "prof-1")
	require.ErrorIs(t, err, diagnostic.ErrCollaboratorUnavailable)
	assert.Equal(t, "could not create test, please try again", diagnostic.UserMessage(err))
	assert.Equal(t, d, got)
	assert.True(t, got.ID().IsZero())
}

func TestLoadAndList(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	_, err := svc.Save(context.Background(), draftWithExercise(t), "prof-1")
	require.NoError(t, err)

	d, err := svc.Load(context.Background(), "t-new")
	require.NoError(t, err)
	assert.Equal(t, "Quest", d.Title())
	assert.Equal(t, 1, diagnostic.ExerciseCount(d.Test()))

	_, err = svc.Load(context.Background(), "missing")
	assert.ErrorIs(t, err, diagnostic.ErrNotFound)

	list, err := svc.List(context.Background(), "cls-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, Summary{ID: "t-new", Title: "Quest", ClassID: "cls-1", Status: "Ativo", Competencies: 1}, list[0])

	list, err = svc.List(context.Background(), "other")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSave_UndoNeverReachesBehindASave(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := NewService(store)

	h := diagnostic.NewHistory(diagnostic.NewDraft())
	h.Apply(h.Current().SetTitle("Quest"))
	h.Apply(h.Current().AddCompetency())

	saved, err := svc.Save(ctx, h.Current(), "prof-1")
	require.NoError(t, err)
	h.MarkSaved(saved)
	assert.False(t, h.Dirty())
	assert.False(t, h.Undo(), "the saved tree is the new root")

	// Edits after the save can be undone, but only back to the saved tree.
	h.Apply(h.Current().SetDescription("draft note"))
	require.True(t, h.Undo())
	assert.False(t, h.Undo())
	assert.Equal(t, diagnostic.ConfirmedID("t-new"), h.Current().ID())
	assert.True(t, h.Current().Test().Competencies[0].ID.IsConfirmed())

	h.Apply(h.Current().SetTitle("Quest 2"))
	again, err := svc.Save(ctx, h.Current(), "prof-1")
	require.NoError(t, err)
	h.MarkSaved(again)

	assert.Len(t, store.created, 1, "one test, never a duplicate")
	assert.Len(t, store.updated, 1)
	assert.Equal(t, "Quest 2", store.updated["t-new"].Titulo)
}

type fakeCatalog struct {
	classes     []wire.Class
	disciplines map[string][]wire.Discipline
	err         error
}

func (f fakeCatalog) Classes(context.Context) ([]wire.Class, error) { return f.classes, f.err }

func (f fakeCatalog) Disciplines(_ context.Context, classID string) ([]wire.Discipline, error) {
	return f.disciplines[classID], f.err
}

func TestSave_ChecksClassAndDiscipline(t *testing.T) {
	ctx := context.Background()
	cat := fakeCatalog{
		classes: []wire.Class{{ID: "cl-1", Name: "1ª Classe"}, {ID: "cl-2", Name: "2ª Classe"}},
		disciplines: map[string][]wire.Discipline{
			"cl-1": {{ID: "d-1", ClasseID: "cl-1"}},
		},
	}
	base := diagnostic.NewDraft().SetTitle("Quest").AddCompetency()

	for name, tc := range map[string]struct {
		draft diagnostic.DraftTree
		ok    bool
	}{
		"no class":                  {base, true},
		"class only":                {base.SetClass("cl-2"), true},
		"class and discipline":      {base.SetClass("cl-1").SetDiscipline("d-1"), true},
		"unknown class":             {base.SetClass("ghost"), false},
		"discipline of other class": {base.SetClass("cl-2").SetDiscipline("d-1"), false},
		"discipline without class":  {base.SetDiscipline("d-1"), false},
	} {
		t.Run(name, func(t *testing.T) {
			store := newFakeStore()
			_, err := NewService(store, WithCatalog(cat)).Save(ctx, tc.draft, "prof-1")
			if tc.ok {
				require.NoError(t, err)
				assert.Len(t, store.created, 1)
				return
			}
			assert.ErrorIs(t, err, diagnostic.ErrValidation)
			assert.Empty(t, store.created, "rejected drafts never reach the store")
		})
	}
}

func TestSave_CatalogUnavailable(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, WithCatalog(fakeCatalog{err: errors.New("connection refused")}))
	_, err := svc.Save(context.Background(), diagnostic.NewDraft().SetTitle("Quest").SetClass("cl-1"), "prof-1")
	assert.ErrorIs(t, err, diagnostic.ErrCollaboratorUnavailable)
	assert.Empty(t, store.created)
}

func TestDisciplinesFor(t *testing.T) {
	cat := fakeCatalog{disciplines: map[string][]wire.Discipline{"cl-1": {{ID: "d-1"}}}}
	svc := NewService(newFakeStore(), WithCatalog(cat))

	ds, err := svc.DisciplinesFor(context.Background(), "cl-1")
	require.NoError(t, err)
	assert.Len(t, ds, 1)

	ds, err = svc.DisciplinesFor(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, ds)

	ds, err = NewService(newFakeStore()).DisciplinesFor(context.Background(), "cl-1")
	require.NoError(t, err)
	assert.Empty(t, ds)
}
