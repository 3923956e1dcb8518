package auth

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mind-engage/diagquest/internal/rbac"
	"github.com/mind-engage/diagquest/internal/wire"
)

type AuthService struct {
	hmac []byte
	ttl  time.Duration
}

func NewAuthService(secret string, ttl time.Duration) *AuthService {
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &AuthService{hmac: []byte(secret), ttl: ttl}
}

type Claims struct {
	Sub     string `json:"sub"`
	Role    string `json:"role"` // "professor", "aluno" or "admin"
	AlunoID string `json:"aluno_id,omitempty"`
	jwt.RegisteredClaims
}

func (a *AuthService) IssueJWT(sub, role, alunoID string) (string, error) {
	now := time.Now()
	claims := &Claims{
		Sub:     sub,
		Role:    role,
		AlunoID: alunoID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "diagquest",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(a.hmac)
}

func (a *AuthService) Parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return a.hmac, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	c, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return c, nil
}

const tokenType = "bearer"

// POST /login  { "email": "...", "password": "..." }
func LoginHandler(a *AuthService, users *UserRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req wire.LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad json")
			return
		}
		if err := wire.Validate(req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		u, err := users.Authenticate(r.Context(), req.Email, req.Password)
		if err != nil {
			writeLoginError(w, err)
			return
		}
		tok, err := a.IssueJWT(u.ID, u.Role, u.AlunoID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "issue token")
			return
		}
		writeJSON(w, http.StatusOK, wire.LoginResponse{User: sessionUser(u), AccessToken: tok, TokenType: tokenType})
	}
}

// POST /login-aluno-codigo  { "codigo": "..." }
func StudentCodeLoginHandler(a *AuthService, users *UserRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req wire.StudentLoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad json")
			return
		}
		if err := wire.Validate(req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		u, err := users.AuthenticateStudent(r.Context(), req.Codigo)
		if err != nil {
			writeLoginError(w, err)
			return
		}
		tok, err := a.IssueJWT(u.ID, u.Role, u.AlunoID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "issue token")
			return
		}
		writeJSON(w, http.StatusOK, wire.StudentLoginResponse{
			User:        sessionUser(u),
			Aluno:       wire.StudentProfile{ID: u.AlunoID, NomeCompleto: u.NomeCompleto, Codigo: u.Codigo},
			AccessToken: tok,
			TokenType:   tokenType,
		})
	}
}

func writeLoginError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrInvalidCredentials) {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	writeError(w, http.StatusInternalServerError, "login failed")
}

func sessionUser(u User) wire.SessionUser {
	return wire.SessionUser{ID: u.ID, Email: u.Email, Role: u.Role}
}

// ClassNamer resolves a class id to its display name.
type ClassNamer interface {
	ClassName(ctx context.Context, id string) (string, error)
}

// GET /me
//
// The profile comes from the users table. Subjects missing from it (offline
// tokens) get what the token carried. classes may be nil.
func MeHandler(users *UserRepo, classes ClassNamer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := IdentityFromContext(r.Context())
		if id.Subject == "" {
			writeError(w, http.StatusUnauthorized, "not signed in")
			return
		}
		me := wire.Me{ID: id.Subject, Role: id.Role, AlunoID: id.AlunoID}
		u, err := users.FindByID(r.Context(), id.Subject)
		switch {
		case err == nil:
			me = wire.Me{
				ID:           u.ID,
				Email:        u.Email,
				Role:         u.Role,
				AlunoID:      u.AlunoID,
				NomeCompleto: u.NomeCompleto,
				Codigo:       u.Codigo,
			}
			if u.ClasseID != "" {
				me.Classe = &wire.Class{ID: u.ClasseID}
				if classes != nil {
					name, err := classes.ClassName(r.Context(), u.ClasseID)
					if err != nil {
						log.Printf("me: class %s: %v", u.ClasseID, err)
					}
					me.Classe.Name = name
				}
			}
		case !errors.Is(err, sql.ErrNoRows):
			writeError(w, http.StatusInternalServerError, "identity lookup failed")
			return
		}
		writeJSON(w, http.StatusOK, wire.MeResponse{User: me})
	}
}

// JWTMiddleware verifies the bearer token and puts subject, role and aluno
// id into the request context.
func JWTMiddleware(a *AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if !strings.HasPrefix(h, "Bearer ") {
				writeError(w, http.StatusUnauthorized, "missing bearer")
				return
			}
			c, err := a.Parse(strings.TrimPrefix(h, "Bearer "))
			if err != nil {
				writeError(w, http.StatusUnauthorized, "bad token")
				return
			}
			ctx := rbac.WithSubject(r.Context(), c.Sub)
			ctx = rbac.WithRole(ctx, c.Role)
			ctx = rbac.WithStudentID(ctx, c.AlunoID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}
