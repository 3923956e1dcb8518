package wire

import (
	"github.com/mind-engage/diagquest/internal/diagnostic"
)

// FromRecord rebuilds a test loaded from the service.
//
// Competency and exercise IDs become confirmed IDs. Options never come back
// with IDs, so each one gets a fresh ephemeral ID. An empty option list is
// filled with the kind's defaults and a missing or unknown kind means
// MultipleChoice.
// A TrueFalse exercise with no correct option takes its correctness from
// resposta_verdadeiro_falso when present.
func FromRecord(r TestRecord) diagnostic.Test {
	t := FromPayload(r.TestPayload)
	t.ID = diagnostic.ConfirmedID(r.ID)
	return t
}

func FromPayload(p TestPayload) diagnostic.Test {
	t := diagnostic.Test{
		Title:        p.Titulo,
		Description:  p.Descricao,
		ClassID:      p.ClasseID,
		DisciplineID: p.DisciplinaID,
		Competencies: make([]diagnostic.Competency, 0, len(p.Competencias)),
	}
	for _, c := range p.Competencias {
		comp := diagnostic.Competency{
			ID:          idFromWire(c.ID),
			Name:        c.Nome,
			Description: c.Descricao,
			Exercises:   make([]diagnostic.Exercise, 0, len(c.Exercicios)),
		}
		for _, e := range c.Exercicios {
			comp.Exercises = append(comp.Exercises, exerciseFromWire(e))
		}
		t.Competencies = append(t.Competencies, comp)
	}
	return t
}

func exerciseFromWire(e Exercicio) diagnostic.Exercise {
	kind, err := diagnostic.ParseKind(e.Jogabilidade)
	if err != nil {
		kind = diagnostic.MultipleChoice
	}
	ex := diagnostic.Exercise{
		ID:     idFromWire(e.ID),
		Kind:   kind,
		Prompt: e.Enunciado,
	}
	if len(e.Opcoes) == 0 {
		ex.Options = diagnostic.DefaultOptionsFor(kind)
	} else {
		ex.Options = make([]diagnostic.Option, len(e.Opcoes))
		for i, o := range e.Opcoes {
			ex.Options[i] = diagnostic.Option{Text: o.TextoOpcao, Correct: o.Correta}
		}
	}
	for i := range ex.Options {
		ex.Options[i].ID = diagnostic.NewEphemeralID()
	}
	if e.RespostaVerdadeiroFalso != nil {
		v := *e.RespostaVerdadeiroFalso
		ex.TrueFalseAnswer = &v
	}
	reconcileTrueFalse(&ex)
	return ex
}

// reconcileTrueFalse moves the standalone answer into the option flags.
// Option 0 is True and option 1 is False.
func reconcileTrueFalse(e *diagnostic.Exercise) {
	if e.Kind != diagnostic.TrueFalse || e.TrueFalseAnswer == nil || len(e.Options) < 2 {
		return
	}
	if e.CorrectIndex() < 0 {
		idx := 1
		if *e.TrueFalseAnswer {
			idx = 0
		}
		e.Options[idx].Correct = true
	}
	e.TrueFalseAnswer = nil
}

func idFromWire(s string) diagnostic.ID {
	if s == "" {
		return diagnostic.NewEphemeralID()
	}
	return diagnostic.ConfirmedID(s)
}

// ToPayload builds the create/update body. Option IDs and feedback are not
// part of the contract and are dropped. TrueFalse exercises carry
// resposta_verdadeiro_falso derived from their correct option.
func ToPayload(t diagnostic.Test, authorID string) TestPayload {
	p := TestPayload{
		Titulo:       t.Title,
		Descricao:    t.Description,
		ClasseID:     t.ClassID,
		DisciplinaID: t.DisciplineID,
		CriadoPor:    authorID,
		Competencias: make([]Competencia, 0, len(t.Competencies)),
	}
	for _, c := range t.Competencies {
		comp := Competencia{
			ID:         c.ID.String(),
			Nome:       c.Name,
			Descricao:  c.Description,
			Exercicios: make([]Exercicio, 0, len(c.Exercises)),
		}
		for _, e := range c.Exercises {
			ex := Exercicio{
				ID:           e.ID.String(),
				Jogabilidade: string(e.Kind),
				Enunciado:    e.Prompt,
				Opcoes:       make([]Opcao, len(e.Options)),
			}
			for i, o := range e.Options {
				ex.Opcoes[i] = Opcao{TextoOpcao: o.Text, Correta: o.Correct}
			}
			if e.Kind == diagnostic.TrueFalse {
				if idx := e.CorrectIndex(); idx >= 0 {
					v := idx == 0
					ex.RespostaVerdadeiroFalso = &v
				}
			}
			comp.Exercicios = append(comp.Exercicios, ex)
		}
		p.Competencias = append(p.Competencias, comp)
	}
	return p
}

// ToSubmitRequest keeps the order of answers; null responses are omitted
// from the JSON.
func ToSubmitRequest(studentID, testID string, answers []diagnostic.StudentAnswer) SubmitRequest {
	req := SubmitRequest{
		AlunoID:   studentID,
		TesteID:   testID,
		Respostas: make([]Resposta, len(answers)),
	}
	for i, a := range answers {
		req.Respostas[i].ExercicioID = a.ExerciseID
		if !a.Response.IsNull() {
			v := a.Response
			req.Respostas[i].Resposta = &v
		}
	}
	return req
}

// ToSubmissionResult converts a decoded result. It does no validation;
// callers validate the raw JSON first.
func ToSubmissionResult(r Result) diagnostic.SubmissionResult {
	out := diagnostic.SubmissionResult{
		TotalScore:     r.ValorTotal,
		CorrectAnswers: r.RespostasCorretas,
		TotalExercises: r.TotalExercicios,
		SubmittedAt:    r.DataSubmissao,
		Details:        make([]diagnostic.AnswerDetail, len(r.DetalhesRespostas)),
	}
	for i, d := range r.DetalhesRespostas {
		out.Details[i] = diagnostic.AnswerDetail{
			ExerciseID:    d.ExercicioID,
			StudentAnswer: d.RespostaAluno,
			CorrectAnswer: d.RespostaCorreta,
			Correct:       d.Correta,
		}
	}
	return out
}
