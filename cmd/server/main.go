package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ShadowYIG/hctf-backend/internal/config"
	"github.com/ShadowYIG/hctf-backend/internal/handlers"
	"github.com/ShadowYIG/hctf-backend/internal/services"
	"github.com/ShadowYIG/hctf-backend/internal/storage"
)

func main() {
	cfg := config.Load()
	loc := cfg.Location()

	db, err := storage.Open(cfg.DBDriver, cfg.DatabaseDSN, cfg.DatabaseDebug)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}

	// Audit trail: structured log always, MongoDB when configured
	auditors := services.MultiAuditor{
		services.NewSlogAuditor(slog.New(slog.NewJSONHandler(os.Stdout, nil))),
	}
	if cfg.MongoURI != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		mongoAudit, err := services.NewMongoAuditService(ctx, cfg.MongoURI, cfg.MongoDB)
		cancel()
		if err != nil {
			log.Printf("Warning: failed to connect audit store, continuing without it: %v", err)
		} else {
			defer mongoAudit.Close(context.Background())
			auditors = append(auditors, mongoAudit)
		}
	}

	// Initialize services
	levelService := services.NewLevelService(db)
	teamService := services.NewTeamService(db, loc)
	tokenService := services.NewTokenService(teamService, cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTExpiration)

	r := newRouter(routerDeps{
		levels:         handlers.NewLevelHandler(levelService, auditors, loc),
		teams:          handlers.NewTeamHandler(teamService, tokenService, auditors, loc),
		tokens:         tokenService,
		teamLookup:     teamService,
		allowedOrigins: cfg.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	if err := serve(srv, quit); err != nil {
		log.Printf("Server failed: %v", err)
	}
	log.Println("Server exited")
}

// serve runs srv until a signal arrives on quit, then drains in-flight
// requests. It returns instead of exiting so deferred cleanup still runs.
func serve(srv *http.Server, quit <-chan os.Signal) error {
	errCh := make(chan error, 1)
	go func() {
		log.Printf("HCTF API server starting on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
