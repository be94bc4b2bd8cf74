package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	auth "github.com/mind-engage/mindengage-extract/internal/auth/middleware"
	"github.com/mind-engage/mindengage-extract/internal/exam"
	"github.com/mind-engage/mindengage-extract/internal/practice"
	"github.com/mind-engage/mindengage-extract/internal/rbac"
)

// Pinger reports backend readiness; *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Deps struct {
	Auth        *auth.AuthService
	Exams       *exam.Service
	Practice    *practice.Service
	DB          Pinger
	CORSOrigins []string
	LocalLogin  bool
}

func NewRouter(d Deps) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "If-Match"},
		ExposedHeaders:   []string{"Content-Length", "ETag", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if d.LocalLogin {
		r.Post("/auth/login", auth.LoginHandler(d.Auth))
	}

	store := d.Exams.Store()

	// Protected API (JWT → role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(d.Auth))

		pr.With(rbac.Require("exam:extract")).
			Post("/extract", ExtractHandler(d.Exams.Extractor()))

		pr.With(rbac.Require("exam:create")).
			Post("/exams", CreateExamHandler(d.Exams))
		pr.With(rbac.Require("exam:view")).
			Get("/exams", ListExamsHandler(store))
		pr.With(rbac.Require("exam:view")).
			Get("/exams/{examID}", GetExamHandler(store))
		pr.With(rbac.Require("exam:export")).
			Get("/exams/{examID}/export", ExportExamHandler(store))
		pr.With(rbac.Require("exam:edit")).
			Post("/exams/{examID}/reextract", ReextractHandler(d.Exams))
		pr.With(rbac.Require("exam:edit")).
			Put("/exams/{examID}/questions/{index}", ReviseQuestionHandler(d.Exams))
		pr.With(rbac.Require("exam:edit")).
			Delete("/exams/{examID}/questions/{index}", DeleteQuestionHandler(d.Exams))
		pr.With(rbac.Require("exam:delete")).
			Delete("/exams/{examID}", DeleteExamHandler(d.Exams))

		// Practice flow
		pr.With(rbac.Require("practice:start")).
			Post("/practice", StartPracticeHandler(d.Practice))
		pr.With(rbac.Require("practice:view")).
			Get("/practice/{sessionID}", GetPracticeHandler(d.Practice))
		pr.With(rbac.Require("practice:answer")).
			Post("/practice/{sessionID}/answers", AnswerPracticeHandler(d.Practice))
		pr.With(rbac.Require("practice:view")).
			Post("/practice/{sessionID}/navigate", NavigatePracticeHandler(d.Practice))
		pr.With(rbac.Require("practice:view")).
			Get("/practice/{sessionID}/summary", PracticeSummaryHandler(d.Practice))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if d.DB != nil {
			if err := d.DB.PingContext(r.Context()); err != nil {
				http.Error(w, "db unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(200)
	})
	return r
}
