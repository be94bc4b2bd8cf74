package main

import (
	"context"
	"log"
	"net/http"
	"time"

	api "github.com/mind-engage/mindengage-extract/internal/api/http"
	auth "github.com/mind-engage/mindengage-extract/internal/auth/middleware"
	"github.com/mind-engage/mindengage-extract/internal/config"
	"github.com/mind-engage/mindengage-extract/internal/db"
	"github.com/mind-engage/mindengage-extract/internal/exam"
	"github.com/mind-engage/mindengage-extract/internal/extract"
	"github.com/mind-engage/mindengage-extract/internal/practice"
	"github.com/mind-engage/mindengage-extract/internal/storage"
	syncx "github.com/mind-engage/mindengage-extract/internal/sync"
)

func main() {
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	store := exam.NewSQLStore(dbh, cfg.DBDriver)
	events := syncx.NewEventRepo(dbh)

	bs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}

	// --- Extraction ---
	noise, err := extract.LoadNoiseFilterFile(cfg.NoiseRulesFile)
	if err != nil {
		log.Fatalf("noise rules: %v", err)
	}
	ex := extract.New(
		extract.WithLineTolerance(cfg.LineTolerance),
		extract.WithNoiseFilter(noise),
		extract.WithLogger(log.Default()),
	)

	// --- Auth (local JWT) ---
	authSvc := auth.NewAuthService(cfg.AuthSecret).WithAdmin(cfg.AdminUser, cfg.AdminPassHash)

	r := api.NewRouter(api.Deps{
		Auth:        authSvc,
		Exams:       exam.NewService(store, bs, events, ex),
		Practice:    practice.NewService(store, practice.NewSQLStore(dbh), events),
		DB:          dbh,
		CORSOrigins: cfg.CORSOrigins(),
		LocalLogin:  cfg.EnableLocalAuth,
	})

	log.Printf("listening on %s (mode=%s, db=%s, tolerance=%.1f)", cfg.HTTPAddr, cfg.Mode, cfg.DBDriver, cfg.LineTolerance)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
