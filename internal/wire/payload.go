// Package wire holds the JSON shapes exchanged with the persistence and
// grading service. Field names are part of the contract.
package wire

import "github.com/mind-engage/diagquest/internal/diagnostic"

type Opcao struct {
	TextoOpcao string `json:"texto_opcao"`
	Correta    bool   `json:"correta"`
}

type Exercicio struct {
	ID                      string  `json:"id"`
	Jogabilidade            string  `json:"jogabilidade" validate:"omitempty,oneof=MULTIPLA_ESCOLHA VERDADEIRO_FALSO"`
	Enunciado               string  `json:"enunciado"`
	Opcoes                  []Opcao `json:"opcoes"`
	RespostaVerdadeiroFalso *bool   `json:"resposta_verdadeiro_falso,omitempty"`
}

type Competencia struct {
	ID         string      `json:"id"`
	Nome       string      `json:"nome"`
	Descricao  string      `json:"descricao"`
	Exercicios []Exercicio `json:"exercicios" validate:"dive"`
}

// TestPayload is the body of a create or update request.
type TestPayload struct {
	Titulo       string        `json:"titulo" validate:"notblank"`
	Descricao    string        `json:"descricao"`
	ClasseID     string        `json:"classe_id"`
	DisciplinaID string        `json:"disciplina_id"`
	CriadoPor    string        `json:"criado_por,omitempty"`
	Competencias []Competencia `json:"competencias" validate:"dive"`
}

// TestRecord is a persisted test as returned by the service.
type TestRecord struct {
	ID string `json:"id"`
	TestPayload
	NomeClasse         *string `json:"nome_classe"`
	NomeDisciplina     *string `json:"nome_disciplina"`
	CriadoPorID        string  `json:"criado_por_id,omitempty"`
	CriadoPorEmail     string  `json:"criado_por_email,omitempty"`
	Status             string  `json:"status,omitempty"`
	DataCriacao        string  `json:"data_criacao,omitempty"`
	NumeroCompetencias int     `json:"numero_competencias"`
	NumeroExercicios   int     `json:"numero_exercicios"`
}

type ListResponse struct {
	Data []TestRecord `json:"data"`
}

type Resposta struct {
	ExercicioID string            `json:"exercicio_id" validate:"required"`
	Resposta    *diagnostic.Value `json:"resposta,omitempty"`
}

type SubmitRequest struct {
	AlunoID   string     `json:"aluno_id" validate:"required"`
	TesteID   string     `json:"teste_id" validate:"required"`
	Respostas []Resposta `json:"respostas" validate:"dive"`
}

type DetalheResposta struct {
	ExercicioID     string           `json:"exercicio_id"`
	RespostaAluno   diagnostic.Value `json:"resposta_aluno"`
	RespostaCorreta diagnostic.Value `json:"resposta_correta"`
	Correta         bool             `json:"correta"`
}

// Result covers both the submit response and the result-review response.
type Result struct {
	AlunoID           string            `json:"aluno_id,omitempty"`
	TesteID           string            `json:"teste_id,omitempty"`
	ValorTotal        float64           `json:"valor_total"`
	RespostasCorretas int               `json:"respostas_corretas"`
	TotalExercicios   int               `json:"total_exercicios"`
	DataSubmissao     string            `json:"data_submissao,omitempty"`
	DetalhesRespostas []DetalheResposta `json:"detalhes_respostas"`
}

// ErrorBody is what the service sends with a non-2xx status.
type ErrorBody struct {
	Message string `json:"message"`
}
