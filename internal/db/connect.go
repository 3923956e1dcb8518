package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Open opens a DB and ensures schema exists.
func Open(ctx context.Context, driver Driver, dsn string) (*sql.DB, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite" // modernc driver
		if dsn == "" {
			dsn = "file:diagquest.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
		}
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			dsn = "postgres://localhost:5432/diagquest?sslmode=disable"
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, err
	}
	if driver == DriverSQLite {
		// in-memory databases are per connection
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	if err := ensureSchema(ctx, db, driver); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return db, nil
}

func ensureSchema(ctx context.Context, db *sql.DB, driver Driver) error {
	var schema string
	switch driver {
	case DriverSQLite:
		schema = schemaSQLite
	case DriverPostgres:
		schema = schemaPostgres
	}
	_, err := db.ExecContext(ctx, schema)
	return err
}

const schemaSQLite = `
PRAGMA foreign_keys=ON;

CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL DEFAULT '',
  role TEXT NOT NULL,
  aluno_id TEXT NOT NULL DEFAULT '',
  codigo TEXT NOT NULL DEFAULT '',           -- student sign-in code
  nome_completo TEXT NOT NULL DEFAULT '',
  classe_id TEXT NOT NULL DEFAULT '',
  created_at INTEGER NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS users_codigo_idx ON users(codigo) WHERE codigo <> '';

CREATE TABLE IF NOT EXISTS classes (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS disciplinas_base (
  id TEXT PRIMARY KEY,
  nome TEXT NOT NULL UNIQUE,
  created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS disciplinas (
  id TEXT PRIMARY KEY,
  classe_id TEXT NOT NULL REFERENCES classes(id),
  disciplina_base_id TEXT NOT NULL REFERENCES disciplinas_base(id),
  descricao TEXT NOT NULL DEFAULT '',
  created_by TEXT NOT NULL DEFAULT '',
  updated_at INTEGER NOT NULL,
  UNIQUE (classe_id, disciplina_base_id)
);

CREATE TABLE IF NOT EXISTS tests (
  id TEXT PRIMARY KEY,
  titulo TEXT NOT NULL,
  classe_id TEXT NOT NULL DEFAULT '',
  disciplina_id TEXT NOT NULL DEFAULT '',
  criado_por TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT 'Ativo',
  record_json TEXT NOT NULL,
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS tests_classe_idx ON tests(classe_id);

CREATE TABLE IF NOT EXISTS submissions (
  teste_id TEXT NOT NULL REFERENCES tests(id) ON DELETE CASCADE,
  aluno_id TEXT NOT NULL,
  valor_total REAL NOT NULL,
  respostas_corretas INTEGER NOT NULL,
  total_exercicios INTEGER NOT NULL,
  detalhes_json TEXT NOT NULL,
  submitted_at INTEGER NOT NULL,
  PRIMARY KEY (teste_id, aluno_id)
);

CREATE TABLE IF NOT EXISTS event_log (
  seq INTEGER PRIMARY KEY AUTOINCREMENT,
  site_id TEXT NOT NULL DEFAULT 'local',
  typ TEXT NOT NULL,                         -- TestSaved | AnswersSubmitted
  key TEXT NOT NULL,
  data TEXT NOT NULL,                        -- JSON payload
  created_at INTEGER NOT NULL
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL DEFAULT '',
  role TEXT NOT NULL,
  aluno_id TEXT NOT NULL DEFAULT '',
  codigo TEXT NOT NULL DEFAULT '',           -- student sign-in code
  nome_completo TEXT NOT NULL DEFAULT '',
  classe_id TEXT NOT NULL DEFAULT '',
  created_at BIGINT NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS users_codigo_idx ON users(codigo) WHERE codigo <> '';

CREATE TABLE IF NOT EXISTS classes (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS disciplinas_base (
  id TEXT PRIMARY KEY,
  nome TEXT NOT NULL UNIQUE,
  created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS disciplinas (
  id TEXT PRIMARY KEY,
  classe_id TEXT NOT NULL REFERENCES classes(id),
  disciplina_base_id TEXT NOT NULL REFERENCES disciplinas_base(id),
  descricao TEXT NOT NULL DEFAULT '',
  created_by TEXT NOT NULL DEFAULT '',
  updated_at BIGINT NOT NULL,
  UNIQUE (classe_id, disciplina_base_id)
);

CREATE TABLE IF NOT EXISTS tests (
  id TEXT PRIMARY KEY,
  titulo TEXT NOT NULL,
  classe_id TEXT NOT NULL DEFAULT '',
  disciplina_id TEXT NOT NULL DEFAULT '',
  criado_por TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT 'Ativo',
  record_json TEXT NOT NULL,
  created_at BIGINT NOT NULL,
  updated_at BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS tests_classe_idx ON tests(classe_id);

CREATE TABLE IF NOT EXISTS submissions (
  teste_id TEXT NOT NULL REFERENCES tests(id) ON DELETE CASCADE,
  aluno_id TEXT NOT NULL,
  valor_total DOUBLE PRECISION NOT NULL,
  respostas_corretas INTEGER NOT NULL,
  total_exercicios INTEGER NOT NULL,
  detalhes_json TEXT NOT NULL,
  submitted_at BIGINT NOT NULL,
  PRIMARY KEY (teste_id, aluno_id)
);

CREATE TABLE IF NOT EXISTS event_log (
  seq BIGSERIAL PRIMARY KEY,
  site_id TEXT NOT NULL DEFAULT 'local',
  typ TEXT NOT NULL,
  key TEXT NOT NULL,
  data TEXT NOT NULL,
  created_at BIGINT NOT NULL
);
`
