package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	auth "github.com/mind-engage/diagquest/internal/auth/middleware"
	"github.com/mind-engage/diagquest/internal/catalog"
	"github.com/mind-engage/diagquest/internal/wire"
)

// GET /classes
func ListClassesHandler(repo *catalog.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := repo.ListClasses(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": out})
	}
}

// POST /classes  { "name": "..." }
func CreateClassHandler(repo *catalog.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var c wire.Class
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			writeError(w, http.StatusBadRequest, "bad json")
			return
		}
		c.ID = ""
		out, err := repo.CreateClass(r.Context(), c)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, out)
	}
}

// GET /disciplinas-base
func ListBaseDisciplinesHandler(repo *catalog.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := repo.ListBaseDisciplines(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": out})
	}
}

// POST /disciplinas-base  { "nome": "..." }
func CreateBaseDisciplineHandler(repo *catalog.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var b wire.BaseDiscipline
		if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
			writeError(w, http.StatusBadRequest, "bad json")
			return
		}
		b.ID = ""
		out, err := repo.CreateBaseDiscipline(r.Context(), b)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, out)
	}
}

// GET /disciplinas?classe_id=
func ListDisciplinesHandler(repo *catalog.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := repo.ListDisciplines(r.Context(), r.URL.Query().Get("classe_id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": out})
	}
}

// POST /disciplinas
func CreateDisciplineHandler(repo *catalog.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req wire.DisciplineRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad json")
			return
		}
		out, err := repo.CreateDiscipline(r.Context(), req, auth.IdentityFromContext(r.Context()).Subject)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, out)
	}
}

// PUT /disciplinas/{id}
func UpdateDisciplineHandler(repo *catalog.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req wire.DisciplineRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad json")
			return
		}
		out, err := repo.UpdateDiscipline(r.Context(), chi.URLParam(r, "id"), req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}
