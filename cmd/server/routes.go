package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ShadowYIG/hctf-backend/internal/handlers"
	appMiddleware "github.com/ShadowYIG/hctf-backend/internal/middleware"
)

type routerDeps struct {
	levels         *handlers.LevelHandler
	teams          *handlers.TeamHandler
	tokens         appMiddleware.TokenParser
	teamLookup     appMiddleware.TeamLookup
	allowedOrigins []string
}

func newRouter(deps routerDeps) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/team", func(r chi.Router) {
			r.Post("/login", deps.teams.Login)
			r.Post("/register", deps.teams.Register)
			r.Get("/ranking", deps.teams.GetRanking)
			r.Post("/public", deps.teams.PublicListTeams)

			r.With(appMiddleware.JWTAuth(deps.tokens)).Get("/me", deps.teams.GetAuthInfo)
		})

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Use(appMiddleware.JWTAuth(deps.tokens))
			r.Use(appMiddleware.RequireAdmin(deps.teamLookup))

			r.Route("/teams", func(r chi.Router) {
				r.Get("/", deps.teams.ListTeams)
				r.Post("/ban", deps.teams.BanTeam)
				r.Post("/unban", deps.teams.UnbanTeam)
				r.Post("/admin", deps.teams.SetAdmin)
				r.Post("/reset-password", deps.teams.ForceResetPassword)
			})

			r.Route("/levels", func(r chi.Router) {
				r.Post("/", deps.levels.Create)
				r.Get("/info", deps.levels.Info)
				r.Post("/name", deps.levels.SetName)
				r.Post("/release-time", deps.levels.SetReleaseTime)
				r.Post("/rules", deps.levels.SetRules)
				r.Post("/delete", deps.levels.DeleteLevel)
			})
		})
	})

	return r
}
