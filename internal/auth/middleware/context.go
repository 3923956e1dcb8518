package auth

import (
	"context"

	"github.com/mind-engage/diagquest/internal/rbac"
)

// Identity is what JWTMiddleware learned about the caller.
type Identity struct {
	Subject string
	Role    string
	AlunoID string
}

func IdentityFromContext(ctx context.Context) Identity {
	return Identity{
		Subject: rbac.SubjectFromContext(ctx),
		Role:    rbac.RoleFromContext(ctx),
		AlunoID: rbac.StudentIDFromContext(ctx),
	}
}

// IsStudent reports whether the caller answers tests as aluno id.
func (i Identity) IsStudent(alunoID string) bool {
	if i.Role != rbac.RoleAluno {
		return false
	}
	if i.AlunoID != "" {
		return i.AlunoID == alunoID
	}
	return i.Subject == alunoID
}
