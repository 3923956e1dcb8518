package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	auth "github.com/mind-engage/diagquest/internal/auth/middleware"
	"github.com/mind-engage/diagquest/internal/rbac"
	"github.com/mind-engage/diagquest/internal/testbank"
	"github.com/mind-engage/diagquest/internal/wire"
)

// POST /responder
//
// Students may only answer as themselves.
func SubmitAnswersHandler(svc *testbank.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req wire.SubmitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad json")
			return
		}
		id := auth.IdentityFromContext(r.Context())
		if id.Role == rbac.RoleAluno && !id.IsStudent(req.AlunoID) {
			writeError(w, http.StatusForbidden, "cannot answer for another student")
			return
		}
		res, err := svc.Submit(r.Context(), req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// GET /resultados/{testeID}/{alunoID}
func GetResultHandler(svc *testbank.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := svc.Result(r.Context(), chi.URLParam(r, "testeID"), chi.URLParam(r, "alunoID"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// isResultOwner matches the {alunoID} path segment against the caller.
func isResultOwner(r *http.Request) bool {
	return auth.IdentityFromContext(r.Context()).IsStudent(chi.URLParam(r, "alunoID"))
}
