package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/diagquest/internal/rbac"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type User struct {
	ID           string
	Email        string
	PasswordHash string
	Role         string
	AlunoID      string
	Codigo       string
	NomeCompleto string
	ClasseID     string
}

type UserRepo struct{ db *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

const userColumns = `id,email,password_hash,role,aluno_id,codigo,nome_completo,classe_id`

// Upsert inserts the user or updates every field but the id of an existing
// email.
func (r *UserRepo) Upsert(ctx context.Context, u User) (User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO users (`+userColumns+`,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (email) DO UPDATE SET password_hash=EXCLUDED.password_hash, role=EXCLUDED.role,
			aluno_id=EXCLUDED.aluno_id, codigo=EXCLUDED.codigo, nome_completo=EXCLUDED.nome_completo,
			classe_id=EXCLUDED.classe_id`,
		u.ID, u.Email, u.PasswordHash, u.Role, u.AlunoID, u.Codigo, u.NomeCompleto, u.ClasseID, time.Now().Unix())
	if err != nil {
		return User{}, err
	}
	return r.FindByEmail(ctx, u.Email)
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (User, error) {
	return r.find(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1`, email)
}

func (r *UserRepo) FindByID(ctx context.Context, id string) (User, error) {
	return r.find(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
}

func (r *UserRepo) find(ctx context.Context, q, arg string) (User, error) {
	var u User
	err := r.db.QueryRowContext(ctx, q, arg).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role,
		&u.AlunoID, &u.Codigo, &u.NomeCompleto, &u.ClasseID)
	if err != nil {
		return User{}, err
	}
	return u, nil
}

// Authenticate checks the password against the stored bcrypt hash. Users
// without a password (students) cannot sign in this way.
func (r *UserRepo) Authenticate(ctx context.Context, email, password string) (User, error) {
	u, err := r.FindByEmail(ctx, email)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, err
	}
	if u.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

// AuthenticateStudent finds the student holding a sign-in code.
func (r *UserRepo) AuthenticateStudent(ctx context.Context, codigo string) (User, error) {
	if strings.TrimSpace(codigo) == "" {
		return User{}, ErrInvalidCredentials
	}
	u, err := r.find(ctx, `SELECT `+userColumns+` FROM users WHERE codigo=$1`, codigo)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, err
	}
	if u.Role != rbac.RoleAluno {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

const seedFormat = "email:password:role[:alunoId[:codigo[:classeId[:nome]]]]"

// Seed upserts users from "email:password:role[:alunoId[:codigo[:classeId[:nome]]]]"
// specs. Students may leave the password empty and sign in with their codigo.
func (r *UserRepo) Seed(ctx context.Context, specs []string) error {
	for _, spec := range specs {
		parts := strings.Split(strings.TrimSpace(spec), ":")
		if len(parts) < 3 || len(parts) > 7 || parts[0] == "" {
			return fmt.Errorf("seed user %q: want %s", spec, seedFormat)
		}
		for len(parts) < 7 {
			parts = append(parts, "")
		}
		u := User{
			Email:        parts[0],
			Role:         parts[2],
			AlunoID:      parts[3],
			Codigo:       parts[4],
			ClasseID:     parts[5],
			NomeCompleto: parts[6],
		}
		if !rbac.ValidRole(u.Role) {
			return fmt.Errorf("seed user %q: unknown role %q", u.Email, u.Role)
		}
		switch {
		case parts[1] != "":
			hash, err := bcrypt.GenerateFromPassword([]byte(parts[1]), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("seed user %q: %w", u.Email, err)
			}
			u.PasswordHash = string(hash)
		case u.Role != rbac.RoleAluno || u.Codigo == "":
			return fmt.Errorf("seed user %q: password required unless a student signs in with a codigo", u.Email)
		}
		if _, err := r.Upsert(ctx, u); err != nil {
			return fmt.Errorf("seed user %q: %w", u.Email, err)
		}
	}
	return nil
}
