package wire

// SessionUser is the user block of the login responses.
type SessionUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// LoginRequest is the email/password sign-in used by professors and admins.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	User        SessionUser `json:"user"`
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
}

// StudentLoginRequest signs a student in with the code printed on their card.
type StudentLoginRequest struct {
	Codigo string `json:"codigo" validate:"required"`
}

type StudentProfile struct {
	ID           string `json:"id"`
	NomeCompleto string `json:"nome_completo"`
	Codigo       string `json:"codigo"`
}

type StudentLoginResponse struct {
	User        SessionUser    `json:"user"`
	Aluno       StudentProfile `json:"aluno"`
	AccessToken string         `json:"access_token"`
	TokenType   string         `json:"token_type"`
}

// Me is the user block of GET me. Classe is set for students enrolled in a
// class.
type Me struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	AlunoID      string `json:"alunoId,omitempty"`
	NomeCompleto string `json:"nome_completo,omitempty"`
	Codigo       string `json:"codigo,omitempty"`
	Classe       *Class `json:"classe,omitempty"`
}

type MeResponse struct {
	User Me `json:"user"`
}
