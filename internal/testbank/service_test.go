package testbank

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/diagquest/internal/catalog"
	"github.com/mind-engage/diagquest/internal/db"
	"github.com/mind-engage/diagquest/internal/diagnostic"
	syncx "github.com/mind-engage/diagquest/internal/sync"
	"github.com/mind-engage/diagquest/internal/wire"
)

type recordingSink struct {
	mu     sync.Mutex
	events []syncx.Event
}

func (r *recordingSink) Append(_ context.Context, e syncx.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func stores(t *testing.T) map[string]Store {
	t.Helper()
	conn, err := db.Open(context.Background(), db.DriverSQLite, "file::memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return map[string]Store{
		"memory": NewInMemoryStore(),
		"sql":    NewSQLStore(conn),
	}
}

func samplePayload() wire.TestPayload {
	yes := true
	return wire.TestPayload{
		Titulo:   "Aventura",
		ClasseID: "cls-1",
		Competencias: []wire.Competencia{{
			ID:   "ephemeral-c",
			Nome: "Leitura",
			Exercicios: []wire.Exercicio{
				{
					ID:           "ephemeral-e1",
					Jogabilidade: string(diagnostic.MultipleChoice),
					Enunciado:    "Capital of France?",
					Opcoes: []wire.Opcao{
						{TextoOpcao: "Lisbon"}, {TextoOpcao: "Paris", Correta: true},
						{TextoOpcao: "Rome"}, {TextoOpcao: "Madrid"},
					},
				},
				{
					ID:                      "ephemeral-e2",
					Jogabilidade:            string(diagnostic.TrueFalse),
					Enunciado:               "Water is wet",
					Opcoes:                  []wire.Opcao{{TextoOpcao: "True", Correta: true}, {TextoOpcao: "False"}},
					RespostaVerdadeiroFalso: &yes,
				},
				{ID: "ephemeral-e3", Enunciado: "Unanswered", Opcoes: []wire.Opcao{{TextoOpcao: "a", Correta: true}}},
			},
		}},
	}
}

var fixedNow = func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC) }

func TestService_CreateAssignsServerIDs(t *testing.T) {
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			sink := &recordingSink{}
			svc := NewService(st, WithEvents(sink), WithClock(fixedNow))
			ctx := context.Background()

			rec, err := svc.Create(ctx, samplePayload(), Author{ID: "prof-1", Email: "p@x"})
			require.NoError(t, err)
			assert.NotEmpty(t, rec.ID)
			assert.Equal(t, "prof-1", rec.CriadoPorID)
			assert.Equal(t, "2024-05-01T10:00:00Z", rec.DataCriacao)
			assert.Equal(t, 1, rec.NumeroCompetencias)
			assert.Equal(t, 3, rec.NumeroExercicios)
			assert.NotEqual(t, "ephemeral-c", rec.Competencias[0].ID)
			assert.NotEqual(t, "ephemeral-e1", rec.Competencias[0].Exercicios[0].ID)
			assert.Equal(t, string(diagnostic.MultipleChoice), rec.Competencias[0].Exercicios[2].Jogabilidade)

			got, err := svc.Get(ctx, rec.ID)
			require.NoError(t, err)
			assert.Equal(t, rec, got)

			require.Len(t, sink.events, 1)
			assert.Equal(t, syncx.EventTestSaved, sink.events[0].Type)
		})
	}
}

func TestService_UpdateKeepsKnownIDs(t *testing.T) {
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			svc := NewService(st)
			ctx := context.Background()
			author := Author{ID: "prof-1"}
			rec, err := svc.Create(ctx, samplePayload(), author)
			require.NoError(t, err)

			p := rec.TestPayload
			p.Titulo = "Aventura 2"
			p.Competencias = append([]wire.Competencia(nil), p.Competencias...)
			p.Competencias = append(p.Competencias, wire.Competencia{ID: "client-new", Nome: "Escrita"})

			upd, err := svc.Update(ctx, rec.ID, p, author)
			require.NoError(t, err)
			assert.Equal(t, rec.ID, upd.ID)
			assert.Equal(t, "Aventura 2", upd.Titulo)
			assert.Equal(t, rec.Competencias[0].ID, upd.Competencias[0].ID)
			assert.Equal(t, rec.Competencias[0].Exercicios[1].ID, upd.Competencias[0].Exercicios[1].ID)
			assert.NotEqual(t, "client-new", upd.Competencias[1].ID)
			assert.Equal(t, 2, upd.NumeroCompetencias)
			assert.Equal(t, rec.DataCriacao, upd.DataCriacao)

			_, err = svc.Update(ctx, rec.ID, p, Author{ID: "other"})
			assert.ErrorIs(t, err, ErrForbidden)
			_, err = svc.Update(ctx, rec.ID, p, Author{ID: "root", Admin: true})
			assert.NoError(t, err)

			_, err = svc.Update(ctx, "missing", p, author)
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestService_CreateRejectsBlankTitle(t *testing.T) {
	p := samplePayload()
	p.Titulo = ""
	_, err := NewService(NewInMemoryStore()).Create(context.Background(), p, Author{ID: "prof-1"})
	assert.ErrorIs(t, err, diagnostic.ErrValidation)
}

func TestService_List(t *testing.T) {
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			svc := NewService(st)
			ctx := context.Background()
			_, err := svc.Create(ctx, samplePayload(), Author{ID: "prof-1"})
			require.NoError(t, err)
			other := samplePayload()
			other.ClasseID = "cls-2"
			_, err = svc.Create(ctx, other, Author{ID: "prof-1"})
			require.NoError(t, err)

			all, err := svc.List(ctx, "")
			require.NoError(t, err)
			assert.Len(t, all, 2)

			one, err := svc.List(ctx, "cls-2")
			require.NoError(t, err)
			require.Len(t, one, 1)
			assert.Equal(t, "cls-2", one[0].ClasseID)

			none, err := svc.List(ctx, "cls-9")
			require.NoError(t, err)
			assert.Empty(t, none)
		})
	}
}

func TestService_SubmitAndResult(t *testing.T) {
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			sink := &recordingSink{}
			svc := NewService(st, WithEvents(sink), WithClock(fixedNow))
			ctx := context.Background()
			rec, err := svc.Create(ctx, samplePayload(), Author{ID: "prof-1"})
			require.NoError(t, err)
			exs := rec.Competencias[0].Exercicios

			paris := diagnostic.TextValue(" paris ")
			yes := diagnostic.BoolValue(true)
			res, err := svc.Submit(ctx, wire.SubmitRequest{
				AlunoID: "a-1",
				TesteID: rec.ID,
				Respostas: []wire.Resposta{
					{ExercicioID: exs[0].ID, Resposta: &paris},
					{ExercicioID: exs[1].ID, Resposta: &yes},
					{ExercicioID: exs[2].ID},
					{ExercicioID: "unknown", Resposta: &paris},
				},
			})
			require.NoError(t, err)
			assert.Equal(t, 2, res.RespostasCorretas)
			assert.Equal(t, 3, res.TotalExercicios)
			assert.Equal(t, 6.67, res.ValorTotal)
			require.Len(t, res.DetalhesRespostas, 3)
			assert.Equal(t, diagnostic.TextValue("Paris"), res.DetalhesRespostas[0].RespostaCorreta)
			assert.Equal(t, diagnostic.BoolValue(true), res.DetalhesRespostas[1].RespostaCorreta)
			assert.True(t, res.DetalhesRespostas[2].RespostaAluno.IsNull())
			assert.False(t, res.DetalhesRespostas[2].Correta)

			stored, err := svc.Result(ctx, rec.ID, "a-1")
			require.NoError(t, err)
			assert.Equal(t, res.ValorTotal, stored.ValorTotal)
			assert.Equal(t, res.DetalhesRespostas, stored.DetalhesRespostas)
			assert.Equal(t, "2024-05-01T10:00:00Z", stored.DataSubmissao)

			// resubmission replaces the stored result
			_, err = svc.Submit(ctx, wire.SubmitRequest{AlunoID: "a-1", TesteID: rec.ID})
			require.NoError(t, err)
			stored, err = svc.Result(ctx, rec.ID, "a-1")
			require.NoError(t, err)
			assert.Zero(t, stored.RespostasCorretas)

			_, err = svc.Result(ctx, rec.ID, "a-2")
			assert.ErrorIs(t, err, ErrNotFound)
			_, err = svc.Submit(ctx, wire.SubmitRequest{AlunoID: "a-1", TesteID: "missing"})
			assert.ErrorIs(t, err, ErrNotFound)
			_, err = svc.Submit(ctx, wire.SubmitRequest{TesteID: rec.ID})
			assert.ErrorIs(t, err, diagnostic.ErrValidation)

			var submitted int
			for _, e := range sink.events {
				if e.Type == syncx.EventAnswersSubmitted {
					submitted++
				}
			}
			assert.Equal(t, 2, submitted)
		})
	}
}

func TestCreateUpdate_CatalogReferences(t *testing.T) {
	ctx := context.Background()
	conn, err := db.Open(ctx, db.DriverSQLite, "file::memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	cat := catalog.NewRepo(conn)
	require.NoError(t, cat.Seed(ctx, []string{"cls-1=1ª Classe", "cls-2=2ª Classe"}))
	mat, err := cat.CreateBaseDiscipline(ctx, wire.BaseDiscipline{Nome: "Matemática"})
	require.NoError(t, err)
	d1, err := cat.CreateDiscipline(ctx, wire.DisciplineRequest{ClasseID: "cls-1", DisciplinaBaseID: mat.ID}, "prof")
	require.NoError(t, err)

	svc := NewService(NewSQLStore(conn), WithCatalog(cat))
	author := Author{ID: "prof"}

	p := samplePayload()
	p.DisciplinaID = d1.ID
	rec, err := svc.Create(ctx, p, author)
	require.NoError(t, err)
	require.NotNil(t, rec.NomeClasse)
	require.NotNil(t, rec.NomeDisciplina)
	assert.Equal(t, "1ª Classe", *rec.NomeClasse)
	assert.Equal(t, "Matemática", *rec.NomeDisciplina)

	p = samplePayload()
	p.ClasseID = ""
	p.DisciplinaID = d1.ID
	rec2, err := svc.Create(ctx, p, author)
	require.NoError(t, err)
	assert.Equal(t, "cls-1", rec2.ClasseID, "class taken from the discipline")

	for name, mutate := range map[string]func(*wire.TestPayload){
		"unknown class":             func(p *wire.TestPayload) { p.ClasseID = "ghost" },
		"unknown discipline":        func(p *wire.TestPayload) { p.DisciplinaID = "ghost" },
		"discipline of other class": func(p *wire.TestPayload) { p.ClasseID = "cls-2"; p.DisciplinaID = d1.ID },
	} {
		t.Run(name, func(t *testing.T) {
			p := samplePayload()
			mutate(&p)
			_, err := svc.Create(ctx, p, author)
			assert.ErrorIs(t, err, diagnostic.ErrValidation)

			_, err = svc.Update(ctx, rec.ID, p, author)
			assert.ErrorIs(t, err, diagnostic.ErrValidation)
		})
	}

	stored, err := svc.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, d1.ID, stored.DisciplinaID, "rejected updates leave the test alone")

	p = samplePayload()
	updated, err := svc.Update(ctx, rec.ID, p, author)
	require.NoError(t, err)
	assert.Nil(t, updated.NomeDisciplina, "dropping the discipline clears its name")
	assert.Equal(t, "1ª Classe", *updated.NomeClasse)
}
