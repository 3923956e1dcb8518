package resolution

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/mind-engage/diagquest/internal/diagnostic"
	"github.com/mind-engage/diagquest/internal/wire"
)

const detailItemSchema = `{
  "type": "object",
  "required": ["exercicio_id", "correta"],
  "properties": {
    "exercicio_id": {"type": "string"},
    "resposta_aluno": {"type": ["string", "boolean", "null"]},
    "resposta_correta": {"type": ["string", "boolean", "null"]},
    "correta": {"type": "boolean"}
  }
}`

// summarySchema accepts the submit response, where only valor_total is required.
var summarySchema = `{
  "type": "object",
  "required": ["valor_total"],
  "properties": {
    "valor_total": {"type": "number"},
    "respostas_corretas": {"type": "integer", "minimum": 0},
    "total_exercicios": {"type": "integer", "minimum": 0},
    "detalhes_respostas": {"type": "array", "items": ` + detailItemSchema + `}
  }
}`

// detailSchema accepts the result-review response.
var detailSchema = `{
  "type": "object",
  "required": ["valor_total", "respostas_corretas", "total_exercicios", "detalhes_respostas"],
  "properties": {
    "valor_total": {"type": "number"},
    "respostas_corretas": {"type": "integer", "minimum": 0},
    "total_exercicios": {"type": "integer", "minimum": 0},
    "detalhes_respostas": {"type": "array", "items": ` + detailItemSchema + `}
  }
}`

var schemaCache sync.Map // name -> *jsonschema.Schema

func compiled(name, src string) (*jsonschema.Schema, error) {
	if s, ok := schemaCache.Load(name); ok {
		return s.(*jsonschema.Schema), nil
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader([]byte(src)))
	if err != nil {
		return nil, fmt.Errorf("parse schema %s: %w", name, err)
	}
	c := jsonschema.NewCompiler()
	url := "schema://" + name + ".json"
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("add schema %s: %w", name, err)
	}
	s, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}
	schemaCache.Store(name, s)
	return s, nil
}

// Interpret reads a submit response. Only valor_total is required; the
// values are passed through unchanged.
func Interpret(raw []byte) (diagnostic.SubmissionResult, error) {
	return interpret("submission-summary", summarySchema, raw)
}

// InterpretDetailed reads a result-review response, which must carry the
// counts and the per-exercise details.
func InterpretDetailed(raw []byte) (diagnostic.SubmissionResult, error) {
	return interpret("submission-detail", detailSchema, raw)
}

func interpret(name, src string, raw []byte) (diagnostic.SubmissionResult, error) {
	schema, err := compiled(name, src)
	if err != nil {
		return diagnostic.SubmissionResult{}, err
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return diagnostic.SubmissionResult{}, fmt.Errorf("%w: %v", diagnostic.ErrInvalidResult, err)
	}
	if err := schema.Validate(inst); err != nil {
		return diagnostic.SubmissionResult{}, fmt.Errorf("%w: %v", diagnostic.ErrInvalidResult, err)
	}
	// The schema admits integral numbers such as 3.0 for the counts, which
	// encoding/json will not put into an int.
	var doc struct {
		wire.Result
		RespostasCorretas float64 `json:"respostas_corretas"`
		TotalExercicios   float64 `json:"total_exercicios"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return diagnostic.SubmissionResult{}, fmt.Errorf("%w: %v", diagnostic.ErrInvalidResult, err)
	}
	r := doc.Result
	r.RespostasCorretas = int(doc.RespostasCorretas)
	r.TotalExercicios = int(doc.TotalExercicios)
	return wire.ToSubmissionResult(r), nil
}

// FetchResult loads the graded result of a student's attempt for review.
func FetchResult(ctx context.Context, src ResultSource, testID, studentID string) (diagnostic.SubmissionResult, error) {
	raw, err := src.FetchResult(ctx, testID, studentID)
	if err != nil {
		return diagnostic.SubmissionResult{}, asCollaboratorError("fetch result", err)
	}
	return InterpretDetailed(raw)
}
