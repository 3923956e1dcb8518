// Package catalog stores the classes and disciplines that tests are filed
// under.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mind-engage/diagquest/internal/diagnostic"
	"github.com/mind-engage/diagquest/internal/wire"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

type Repo struct{ db *sql.DB }

func NewRepo(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) CreateClass(ctx context.Context, c wire.Class) (wire.Class, error) {
	if err := wire.Validate(c); err != nil {
		return wire.Class{}, err
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.Name = strings.TrimSpace(c.Name)
	err := r.insert(ctx, `INSERT INTO classes (id,name,created_at) VALUES ($1,$2,$3)`, c.ID, c.Name, time.Now().Unix())
	if err != nil {
		return wire.Class{}, fmt.Errorf("class %q: %w", c.Name, err)
	}
	return c, nil
}

func (r *Repo) ListClasses(ctx context.Context) ([]wire.Class, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id,name FROM classes ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []wire.Class{}
	for rows.Next() {
		var c wire.Class
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repo) Class(ctx context.Context, id string) (wire.Class, error) {
	c := wire.Class{ID: id}
	err := r.db.QueryRowContext(ctx, `SELECT name FROM classes WHERE id=$1`, id).Scan(&c.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return wire.Class{}, fmt.Errorf("%w: class %s", ErrNotFound, id)
	}
	return c, err
}

// ClassName returns "" for unknown classes.
func (r *Repo) ClassName(ctx context.Context, id string) (string, error) {
	c, err := r.Class(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return c.Name, err
}

func (r *Repo) CreateBaseDiscipline(ctx context.Context, b wire.BaseDiscipline) (wire.BaseDiscipline, error) {
	if err := wire.Validate(b); err != nil {
		return wire.BaseDiscipline{}, err
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	b.Nome = strings.TrimSpace(b.Nome)
	err := r.insert(ctx, `INSERT INTO disciplinas_base (id,nome,created_at) VALUES ($1,$2,$3)`, b.ID, b.Nome, time.Now().Unix())
	if err != nil {
		return wire.BaseDiscipline{}, fmt.Errorf("base discipline %q: %w", b.Nome, err)
	}
	return b, nil
}

func (r *Repo) ListBaseDisciplines(ctx context.Context) ([]wire.BaseDiscipline, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id,nome FROM disciplinas_base ORDER BY nome`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []wire.BaseDiscipline{}
	for rows.Next() {
		var b wire.BaseDiscipline
		if err := rows.Scan(&b.ID, &b.Nome); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// CreateDiscipline files a base discipline under a class. Each pair exists
// once; both references must exist.
func (r *Repo) CreateDiscipline(ctx context.Context, req wire.DisciplineRequest, createdBy string) (wire.Discipline, error) {
	if err := r.checkRefs(ctx, req); err != nil {
		return wire.Discipline{}, err
	}
	id := uuid.NewString()
	err := r.insert(ctx, `INSERT INTO disciplinas (id,classe_id,disciplina_base_id,descricao,created_by,updated_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		id, req.ClasseID, req.DisciplinaBaseID, req.Description, createdBy, time.Now().Unix())
	if err != nil {
		return wire.Discipline{}, fmt.Errorf("discipline: %w", err)
	}
	return r.Discipline(ctx, id)
}

func (r *Repo) UpdateDiscipline(ctx context.Context, id string, req wire.DisciplineRequest) (wire.Discipline, error) {
	if _, err := r.Discipline(ctx, id); err != nil {
		return wire.Discipline{}, err
	}
	if err := r.checkRefs(ctx, req); err != nil {
		return wire.Discipline{}, err
	}
	_, err := r.db.ExecContext(ctx, `UPDATE disciplinas SET classe_id=$1, disciplina_base_id=$2, descricao=$3, updated_at=$4 WHERE id=$5`,
		req.ClasseID, req.DisciplinaBaseID, req.Description, time.Now().Unix(), id)
	if err != nil {
		if isUniqueViolation(err) {
			return wire.Discipline{}, fmt.Errorf("discipline %s: %w", id, ErrConflict)
		}
		return wire.Discipline{}, err
	}
	return r.Discipline(ctx, id)
}

const disciplineSelect = `SELECT d.id, d.classe_id, d.disciplina_base_id, d.descricao, d.updated_at, c.name, b.nome
	  FROM disciplinas d
	  JOIN classes c ON c.id = d.classe_id
	  JOIN disciplinas_base b ON b.id = d.disciplina_base_id`

// ListDisciplines lists the disciplines of one class, or of every class when
// classID is empty.
func (r *Repo) ListDisciplines(ctx context.Context, classID string) ([]wire.Discipline, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if classID == "" {
		rows, err = r.db.QueryContext(ctx, disciplineSelect+` ORDER BY c.name, b.nome`)
	} else {
		rows, err = r.db.QueryContext(ctx, disciplineSelect+` WHERE d.classe_id=$1 ORDER BY b.nome`, classID)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []wire.Discipline{}
	for rows.Next() {
		d, err := scanDiscipline(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *Repo) Discipline(ctx context.Context, id string) (wire.Discipline, error) {
	d, err := scanDiscipline(r.db.QueryRowContext(ctx, disciplineSelect+` WHERE d.id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return wire.Discipline{}, fmt.Errorf("%w: discipline %s", ErrNotFound, id)
	}
	return d, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDiscipline(s scanner) (wire.Discipline, error) {
	var (
		d       wire.Discipline
		updated int64
	)
	err := s.Scan(&d.ID, &d.ClasseID, &d.DisciplinaBaseID, &d.Descricao, &updated, &d.Classe.Name, &d.DisciplinaBase.Nome)
	if err != nil {
		return wire.Discipline{}, err
	}
	d.Classe.ID = d.ClasseID
	d.DisciplinaBase.ID = d.DisciplinaBaseID
	d.UpdatedAt = time.Unix(updated, 0).UTC().Format(time.RFC3339)
	return d, nil
}

func (r *Repo) checkRefs(ctx context.Context, req wire.DisciplineRequest) error {
	if err := wire.Validate(req); err != nil {
		return err
	}
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM classes WHERE id=$1`, req.ClasseID).Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: unknown classe_id %q", diagnostic.ErrValidation, req.ClasseID)
	}
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM disciplinas_base WHERE id=$1`, req.DisciplinaBaseID).Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: unknown disciplina_base_id %q", diagnostic.ErrValidation, req.DisciplinaBaseID)
	}
	return nil
}

func (r *Repo) insert(ctx context.Context, q string, args ...any) error {
	_, err := r.db.ExecContext(ctx, q, args...)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}

// Seed creates classes from "id=name" specs, skipping ids that exist.
func (r *Repo) Seed(ctx context.Context, specs []string) error {
	for _, spec := range specs {
		id, name, ok := strings.Cut(strings.TrimSpace(spec), "=")
		if !ok || id == "" || strings.TrimSpace(name) == "" {
			return fmt.Errorf("seed class %q: want id=name", spec)
		}
		if _, err := r.Class(ctx, id); err == nil {
			continue
		}
		if _, err := r.CreateClass(ctx, wire.Class{ID: id, Name: name}); err != nil {
			return fmt.Errorf("seed class %q: %w", spec, err)
		}
	}
	return nil
}
