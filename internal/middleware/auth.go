package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/ShadowYIG/hctf-backend/internal/models"
	"github.com/ShadowYIG/hctf-backend/internal/services"
)

type contextKey string

const TeamIDKey contextKey = "teamID"

// TokenParser resolves a bearer token to the team it was issued for.
type TokenParser interface {
	Parse(token string) (uint, error)
}

type TeamLookup interface {
	GetByID(ctx context.Context, teamID uint) (*models.Team, error)
}

// JWTAuth rejects requests without a valid bearer token and stores the team ID in the context.
func JWTAuth(tokens TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse(models.CodeUnauthorized, "Authorization header required"))
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
				writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse(models.CodeUnauthorized, "Invalid authorization header format"))
				return
			}

			teamID, err := tokens.Parse(parts[1])
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse(models.CodeUnauthorized, "Invalid or expired token"))
				return
			}

			ctx := context.WithValue(r.Context(), TeamIDKey, teamID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin must run after JWTAuth. Banned admins are refused too.
func RequireAdmin(teams TeamLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			teamID := GetTeamID(r.Context())
			if teamID == 0 {
				writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse(models.CodeUnauthorized, "Unauthorized"))
				return
			}

			team, err := teams.GetByID(r.Context(), teamID)
			if err != nil {
				if errors.Is(err, services.ErrTeamNotFound) {
					writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse(models.CodeUnauthorized, "Unauthorized"))
					return
				}
				log.Printf("[RequireAdmin] Failed to load team %d: %v", teamID, err)
				writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse(models.CodeDatabaseError, "Database error"))
				return
			}

			if !team.Admin || team.Banned {
				writeJSON(w, http.StatusForbidden, models.NewErrorResponse(models.CodePermissionDenied, "Permission denied"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetTeamID extracts the authenticated team ID from context, or 0.
func GetTeamID(ctx context.Context) uint {
	teamID, ok := ctx.Value(TeamIDKey).(uint)
	if !ok {
		return 0
	}
	return teamID
}

// WithTeamID returns a copy of ctx carrying teamID, as JWTAuth would.
func WithTeamID(ctx context.Context, teamID uint) context.Context {
	return context.WithValue(ctx, TeamIDKey, teamID)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
