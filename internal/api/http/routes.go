package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	auth "github.com/mind-engage/diagquest/internal/auth/middleware"
	"github.com/mind-engage/diagquest/internal/catalog"
	"github.com/mind-engage/diagquest/internal/rbac"
	"github.com/mind-engage/diagquest/internal/testbank"
)

type Deps struct {
	Tests *testbank.Service
	Auth  *auth.AuthService
	Users *auth.UserRepo
	// Catalog holds classes and disciplines; Tests should validate
	// against the same repo.
	Catalog *catalog.Repo
	// AllowClaimFallback trusts token roles for users missing from the
	// users table.
	AllowClaimFallback bool
}

// Routes builds the collaborator API. Mount it under the client's base URL.
func Routes(d Deps) chi.Router {
	r := chi.NewRouter()
	r.Post("/login", auth.LoginHandler(d.Auth, d.Users))
	r.Post("/login-aluno-codigo", auth.StudentCodeLoginHandler(d.Auth, d.Users))

	// Protected API (JWT → role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(d.Auth))
		pr.Use(auth.AttachRoleFromDB(d.Users, d.AllowClaimFallback))

		pr.Get("/me", auth.MeHandler(d.Users, d.Catalog))

		pr.Route("/classes", func(cr chi.Router) {
			cr.With(rbac.Require("catalog:view")).Get("/", ListClassesHandler(d.Catalog))
			cr.With(rbac.Require("catalog:manage")).Post("/", CreateClassHandler(d.Catalog))
		})
		pr.Route("/disciplinas-base", func(br chi.Router) {
			br.With(rbac.Require("catalog:view")).Get("/", ListBaseDisciplinesHandler(d.Catalog))
			br.With(rbac.Require("catalog:manage")).Post("/", CreateBaseDisciplineHandler(d.Catalog))
		})
		pr.Route("/disciplinas", func(dr chi.Router) {
			dr.With(rbac.Require("catalog:view")).Get("/", ListDisciplinesHandler(d.Catalog))
			dr.With(rbac.Require("discipline:manage")).Post("/", CreateDisciplineHandler(d.Catalog))
			dr.With(rbac.Require("discipline:manage")).Put("/{id}", UpdateDisciplineHandler(d.Catalog))
		})

		pr.Route("/testes_diagnosticos", func(tr chi.Router) {
			tr.With(rbac.Require("test:view")).Get("/", ListTestsHandler(d.Tests))
			tr.With(rbac.Require("test:create")).Post("/", CreateTestHandler(d.Tests))
			tr.With(rbac.Require("test:view")).Get("/{id}", GetTestHandler(d.Tests))
			tr.With(rbac.Require("test:update")).Put("/{id}", UpdateTestHandler(d.Tests))
		})

		pr.With(rbac.Require("answers:submit")).
			Post("/responder", SubmitAnswersHandler(d.Tests))
		pr.With(rbac.RequireOwnerOr("result:view-all", "result:view-own", isResultOwner)).
			Get("/resultados/{testeID}/{alunoID}", GetResultHandler(d.Tests))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	return r
}
