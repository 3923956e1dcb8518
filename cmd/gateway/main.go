package main

import (
	"context"
	"log"
	"net/http"
	"time"

	api "github.com/mind-engage/diagquest/internal/api/http"
	auth "github.com/mind-engage/diagquest/internal/auth/middleware"
	"github.com/mind-engage/diagquest/internal/catalog"
	"github.com/mind-engage/diagquest/internal/config"
	"github.com/mind-engage/diagquest/internal/db"
	syncx "github.com/mind-engage/diagquest/internal/sync"
	"github.com/mind-engage/diagquest/internal/testbank"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	classes := catalog.NewRepo(dbh)
	if err := classes.Seed(ctx, cfg.SeedClasses); err != nil {
		log.Fatalf("seed classes: %v", err)
	}
	tests := testbank.NewService(testbank.NewSQLStore(dbh),
		testbank.WithEvents(syncx.NewEventRepo(dbh)),
		testbank.WithCatalog(classes))

	// --- Auth ---
	users := auth.NewUserRepo(dbh)
	if err := users.Seed(ctx, cfg.SeedUsers); err != nil {
		log.Fatalf("seed users: %v", err)
	}
	authSvc := auth.NewAuthService(cfg.AuthHMACSecret, cfg.TokenTTL)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Mount("/api", api.Routes(api.Deps{
		Tests:              tests,
		Auth:               authSvc,
		Users:              users,
		Catalog:            classes,
		AllowClaimFallback: cfg.Mode == config.ModeOffline,
	}))
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := dbh.PingContext(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	log.Printf("listening on %s (mode=%s, db=%s)", cfg.HTTPAddr, cfg.Mode, cfg.DBDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
