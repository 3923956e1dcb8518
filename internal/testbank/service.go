package testbank

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/diagquest/internal/catalog"
	"github.com/mind-engage/diagquest/internal/diagnostic"
	"github.com/mind-engage/diagquest/internal/grading"
	syncx "github.com/mind-engage/diagquest/internal/sync"
	"github.com/mind-engage/diagquest/internal/wire"
)

// EventSink receives TestSaved and AnswersSubmitted events.
type EventSink interface {
	Append(ctx context.Context, e syncx.Event) error
}

// Author is the authenticated user saving a test.
type Author struct {
	ID    string
	Email string
	Admin bool
}

// Catalog resolves the class and discipline a test is filed under.
type Catalog interface {
	Class(ctx context.Context, id string) (wire.Class, error)
	Discipline(ctx context.Context, id string) (wire.Discipline, error)
}

type Service struct {
	store   Store
	grader  grading.Grader
	events  EventSink
	catalog Catalog
	now     func() time.Time
}

type ServiceOption func(*Service)

func WithEvents(s EventSink) ServiceOption         { return func(svc *Service) { svc.events = s } }
func WithGrader(g grading.Grader) ServiceOption    { return func(svc *Service) { svc.grader = g } }
func WithClock(now func() time.Time) ServiceOption { return func(svc *Service) { svc.now = now } }

// WithCatalog makes Create and Update reject unknown classe_id and
// disciplina_id values and fill in their display names.
func WithCatalog(c Catalog) ServiceOption { return func(svc *Service) { svc.catalog = c } }

func NewService(store Store, opts ...ServiceOption) *Service {
	s := &Service{store: store, grader: grading.NewDefaultGrader(), now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Create stores a new test. The server issues the test ID and an ID for
// every competency and exercise.
func (s *Service) Create(ctx context.Context, p wire.TestPayload, author Author) (wire.TestRecord, error) {
	if err := wire.Validate(p); err != nil {
		return wire.TestRecord{}, err
	}
	rec := wire.TestRecord{
		ID:             uuid.NewString(),
		CriadoPorID:    author.ID,
		CriadoPorEmail: author.Email,
		Status:         "Ativo",
		DataCriacao:    s.now().UTC().Format(time.RFC3339),
	}
	rec.TestPayload = normalizePayload(p, nil)
	rec.CriadoPor = author.ID
	if err := s.resolveCatalog(ctx, &rec); err != nil {
		return wire.TestRecord{}, err
	}
	fillCounts(&rec)
	if err := s.store.PutTest(ctx, rec); err != nil {
		return wire.TestRecord{}, err
	}
	s.emit(ctx, syncx.EventTestSaved, rec.ID, map[string]any{"titulo": rec.Titulo, "criado_por": author.ID, "created": true})
	log.Printf("test %s created by %s (%d exercises)", rec.ID, author.ID, rec.NumeroExercicios)
	return rec, nil
}

// Update replaces the content of a test. Competency and exercise IDs that
// the test already had are kept; any other ID is reissued. Only the author
// or an admin may update.
func (s *Service) Update(ctx context.Context, id string, p wire.TestPayload, author Author) (wire.TestRecord, error) {
	if err := wire.Validate(p); err != nil {
		return wire.TestRecord{}, err
	}
	cur, err := s.store.GetTest(ctx, id)
	if err != nil {
		return wire.TestRecord{}, err
	}
	if !author.Admin && cur.CriadoPorID != "" && cur.CriadoPorID != author.ID {
		return wire.TestRecord{}, fmt.Errorf("%w: test %s belongs to another author", ErrForbidden, id)
	}
	rec := cur
	rec.TestPayload = normalizePayload(p, knownIDs(cur.TestPayload))
	rec.CriadoPor = cur.CriadoPorID
	if err := s.resolveCatalog(ctx, &rec); err != nil {
		return wire.TestRecord{}, err
	}
	fillCounts(&rec)
	if err := s.store.PutTest(ctx, rec); err != nil {
		return wire.TestRecord{}, err
	}
	s.emit(ctx, syncx.EventTestSaved, rec.ID, map[string]any{"titulo": rec.Titulo, "criado_por": author.ID, "created": false})
	log.Printf("test %s updated by %s", rec.ID, author.ID)
	return rec, nil
}

// resolveCatalog checks the class and discipline references of rec and
// sets their names. A discipline must belong to the test's class; a test
// filed under a discipline alone takes the discipline's class.
func (s *Service) resolveCatalog(ctx context.Context, rec *wire.TestRecord) error {
	rec.NomeClasse, rec.NomeDisciplina = nil, nil
	if s.catalog == nil {
		return nil
	}
	if rec.DisciplinaID != "" {
		d, err := s.catalog.Discipline(ctx, rec.DisciplinaID)
		if err != nil {
			return catalogRefError("disciplina_id", rec.DisciplinaID, err)
		}
		if rec.ClasseID == "" {
			rec.ClasseID = d.ClasseID
		}
		if d.ClasseID != rec.ClasseID {
			return fmt.Errorf("%w: disciplina_id %q is not taught in classe_id %q", diagnostic.ErrValidation, rec.DisciplinaID, rec.ClasseID)
		}
		name := d.Name()
		rec.NomeDisciplina = &name
	}
	if rec.ClasseID != "" {
		c, err := s.catalog.Class(ctx, rec.ClasseID)
		if err != nil {
			return catalogRefError("classe_id", rec.ClasseID, err)
		}
		rec.NomeClasse = &c.Name
	}
	return nil
}

func catalogRefError(field, id string, err error) error {
	if errors.Is(err, catalog.ErrNotFound) {
		return fmt.Errorf("%w: unknown %s %q", diagnostic.ErrValidation, field, id)
	}
	return err
}

func (s *Service) Get(ctx context.Context, id string) (wire.TestRecord, error) {
	return s.store.GetTest(ctx, id)
}

func (s *Service) List(ctx context.Context, classID string) ([]wire.TestRecord, error) {
	return s.store.ListTests(ctx, classID)
}

// Submit grades a full answer set and stores it as the student's result.
// Exercises without an answer count as wrong; answers to unknown exercises
// are ignored.
func (s *Service) Submit(ctx context.Context, req wire.SubmitRequest) (wire.Result, error) {
	if err := wire.Validate(req); err != nil {
		return wire.Result{}, err
	}
	rec, err := s.store.GetTest(ctx, req.TesteID)
	if err != nil {
		return wire.Result{}, err
	}

	answers := make(map[string]diagnostic.Value, len(req.Respostas))
	for _, r := range req.Respostas {
		if r.Resposta != nil {
			answers[r.ExercicioID] = *r.Resposta
		}
	}

	res := wire.Result{
		AlunoID:           req.AlunoID,
		TesteID:           req.TesteID,
		DataSubmissao:     s.now().UTC().Format(time.RFC3339),
		DetalhesRespostas: []wire.DetalheResposta{},
	}
	for _, c := range rec.Competencias {
		for _, e := range c.Exercicios {
			given := answers[e.ID]
			g, err := s.grader.Grade(ctx, questionFor(e), given)
			if err != nil {
				g = grading.Result{CorrectAnswer: g.CorrectAnswer}
			}
			res.TotalExercicios++
			if g.Correct {
				res.RespostasCorretas++
			}
			res.DetalhesRespostas = append(res.DetalhesRespostas, wire.DetalheResposta{
				ExercicioID:     e.ID,
				RespostaAluno:   given,
				RespostaCorreta: g.CorrectAnswer,
				Correta:         g.Correct,
			})
		}
	}
	res.ValorTotal = grading.Score(res.RespostasCorretas, res.TotalExercicios)

	if err := s.store.PutSubmission(ctx, res); err != nil {
		return wire.Result{}, err
	}
	s.emit(ctx, syncx.EventAnswersSubmitted, req.TesteID+"/"+req.AlunoID, map[string]any{
		"valor_total":        res.ValorTotal,
		"respostas_corretas": res.RespostasCorretas,
		"total_exercicios":   res.TotalExercicios,
	})
	log.Printf("graded %s for %s: %.2f (%d/%d)", req.TesteID, req.AlunoID, res.ValorTotal, res.RespostasCorretas, res.TotalExercicios)
	return res, nil
}

// Result returns the stored result of a student's last submission.
func (s *Service) Result(ctx context.Context, testID, studentID string) (wire.Result, error) {
	return s.store.GetSubmission(ctx, testID, studentID)
}

func (s *Service) emit(ctx context.Context, typ, key string, data any) {
	if s.events == nil {
		return
	}
	e, err := syncx.NewEvent(typ, key, data)
	if err == nil {
		err = s.events.Append(ctx, e)
	}
	if err != nil {
		log.Printf("event %s %s: %v", typ, key, err)
	}
}

func questionFor(e wire.Exercicio) grading.Q {
	q := grading.Q{Kind: e.Jogabilidade, TrueFalse: e.RespostaVerdadeiroFalso}
	for _, o := range e.Opcoes {
		q.Choices = append(q.Choices, grading.Choice{Text: o.TextoOpcao, Correct: o.Correta})
	}
	return q
}

func knownIDs(p wire.TestPayload) map[string]bool {
	ids := map[string]bool{}
	for _, c := range p.Competencias {
		ids[c.ID] = true
		for _, e := range c.Exercicios {
			ids[e.ID] = true
		}
	}
	return ids
}

// normalizePayload copies p, reissuing every competency and exercise ID not
// in known and defaulting a missing kind.
func normalizePayload(p wire.TestPayload, known map[string]bool) wire.TestPayload {
	out := p
	out.Competencias = make([]wire.Competencia, len(p.Competencias))
	seen := map[string]bool{}
	keep := func(id string) string {
		if id != "" && known[id] && !seen[id] {
			seen[id] = true
			return id
		}
		return uuid.NewString()
	}
	for i, c := range p.Competencias {
		c.ID = keep(c.ID)
		exs := make([]wire.Exercicio, len(c.Exercicios))
		for j, e := range c.Exercicios {
			e.ID = keep(e.ID)
			if e.Jogabilidade == "" {
				e.Jogabilidade = string(diagnostic.MultipleChoice)
			}
			if e.Opcoes == nil {
				e.Opcoes = []wire.Opcao{}
			}
			exs[j] = e
		}
		c.Exercicios = exs
		out.Competencias[i] = c
	}
	return out
}

func fillCounts(rec *wire.TestRecord) {
	rec.NumeroCompetencias = len(rec.Competencias)
	rec.NumeroExercicios = 0
	for _, c := range rec.Competencias {
		rec.NumeroExercicios += len(c.Exercicios)
	}
}
