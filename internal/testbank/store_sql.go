package testbank

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/mind-engage/diagquest/internal/wire"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) PutTest(ctx context.Context, rec wire.TestRecord) error {
	rj, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	now := time.Now().Unix()
	_, err = s.db.ExecContext(ctx, `INSERT INTO tests (id,titulo,classe_id,disciplina_id,criado_por,status,record_json,created_at,updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (id) DO UPDATE SET titulo=EXCLUDED.titulo, classe_id=EXCLUDED.classe_id,
			disciplina_id=EXCLUDED.disciplina_id, status=EXCLUDED.status,
			record_json=EXCLUDED.record_json, updated_at=EXCLUDED.updated_at`,
		rec.ID, rec.Titulo, rec.ClasseID, rec.DisciplinaID, rec.CriadoPorID, rec.Status, string(rj), now, now)
	return err
}

func (s *SQLStore) GetTest(ctx context.Context, id string) (wire.TestRecord, error) {
	var rj string
	err := s.db.QueryRowContext(ctx, `SELECT record_json FROM tests WHERE id=$1`, id).Scan(&rj)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return wire.TestRecord{}, ErrNotFound
		}
		return wire.TestRecord{}, err
	}
	var rec wire.TestRecord
	if err := json.Unmarshal([]byte(rj), &rec); err != nil {
		return wire.TestRecord{}, err
	}
	return rec, nil
}

func (s *SQLStore) ListTests(ctx context.Context, classID string) ([]wire.TestRecord, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if classID == "" {
		rows, err = s.db.QueryContext(ctx, `SELECT record_json FROM tests ORDER BY created_at DESC, id`)
	} else {
		rows, err = s.db.QueryContext(ctx, `SELECT record_json FROM tests WHERE classe_id=$1 ORDER BY created_at DESC, id`, classID)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []wire.TestRecord{}
	for rows.Next() {
		var rj string
		if err := rows.Scan(&rj); err != nil {
			return nil, err
		}
		var rec wire.TestRecord
		if err := json.Unmarshal([]byte(rj), &rec); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLStore) PutSubmission(ctx context.Context, r wire.Result) error {
	dj, err := json.Marshal(r.DetalhesRespostas)
	if err != nil {
		return err
	}
	submitted := time.Now()
	if t, err := time.Parse(time.RFC3339, r.DataSubmissao); err == nil {
		submitted = t
	}
	var exists int
	if err := s.db.QueryRowContext(ctx, `SELECT 1 FROM tests WHERE id=$1`, r.TesteID).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO submissions (teste_id,aluno_id,valor_total,respostas_corretas,total_exercicios,detalhes_json,submitted_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (teste_id,aluno_id) DO UPDATE SET valor_total=EXCLUDED.valor_total,
			respostas_corretas=EXCLUDED.respostas_corretas, total_exercicios=EXCLUDED.total_exercicios,
			detalhes_json=EXCLUDED.detalhes_json, submitted_at=EXCLUDED.submitted_at`,
		r.TesteID, r.AlunoID, r.ValorTotal, r.RespostasCorretas, r.TotalExercicios, string(dj), submitted.Unix())
	return err
}

func (s *SQLStore) GetSubmission(ctx context.Context, testID, studentID string) (wire.Result, error) {
	row := s.db.QueryRowContext(ctx, `SELECT valor_total,respostas_corretas,total_exercicios,detalhes_json,submitted_at
		FROM submissions WHERE teste_id=$1 AND aluno_id=$2`, testID, studentID)
	r := wire.Result{TesteID: testID, AlunoID: studentID}
	var (
		dj        string
		submitted int64
	)
	if err := row.Scan(&r.ValorTotal, &r.RespostasCorretas, &r.TotalExercicios, &dj, &submitted); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return wire.Result{}, ErrNotFound
		}
		return wire.Result{}, err
	}
	if err := json.Unmarshal([]byte(dj), &r.DetalhesRespostas); err != nil {
		return wire.Result{}, err
	}
	r.DataSubmissao = time.Unix(submitted, 0).UTC().Format(time.RFC3339)
	return r, nil
}
