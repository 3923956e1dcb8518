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

func authorFrom(r *http.Request) testbank.Author {
	id := auth.IdentityFromContext(r.Context())
	return testbank.Author{ID: id.Subject, Admin: id.Role == rbac.RoleAdmin}
}

// POST /testes_diagnosticos
func CreateTestHandler(svc *testbank.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p wire.TestPayload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			writeError(w, http.StatusBadRequest, "bad json")
			return
		}
		rec, err := svc.Create(r.Context(), p, authorFrom(r))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, rec)
	}
}

// PUT /testes_diagnosticos/{id}
func UpdateTestHandler(svc *testbank.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p wire.TestPayload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			writeError(w, http.StatusBadRequest, "bad json")
			return
		}
		rec, err := svc.Update(r.Context(), chi.URLParam(r, "id"), p, authorFrom(r))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

// GET /testes_diagnosticos/{id}
func GetTestHandler(svc *testbank.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := svc.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

// GET /testes_diagnosticos?classe_id=
func ListTestsHandler(svc *testbank.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recs, err := svc.List(r.Context(), r.URL.Query().Get("classe_id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, wire.ListResponse{Data: recs})
	}
}
