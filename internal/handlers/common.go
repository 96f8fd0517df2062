package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/ShadowYIG/hctf-backend/internal/middleware"
	"github.com/ShadowYIG/hctf-backend/internal/models"
	"github.com/ShadowYIG/hctf-backend/internal/services"
	"github.com/ShadowYIG/hctf-backend/internal/validation"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code string, message interface{}) {
	writeJSON(w, status, models.NewErrorResponse(code, message))
}

// readInput parses the request fields, answering invalid_parameters itself on a malformed body.
func readInput(w http.ResponseWriter, r *http.Request) (validation.Input, bool) {
	in, err := validation.FromRequest(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse([]string{"Invalid request body"}))
		return nil, false
	}
	return in, true
}

func failValidation(w http.ResponseWriter, v *validation.Validator) bool {
	if !v.Fails() {
		return false
	}
	writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(v.Errors()))
	return true
}

// writeServiceError maps a service sentinel to its response. Anything unknown is a database_error.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, services.ErrCategoryNotFound):
		writeError(w, http.StatusNotFound, models.CodeCategoryNotFound, "Category not found")
	case errors.Is(err, services.ErrLevelNotFound):
		writeError(w, http.StatusNotFound, models.CodeLevelNotFound, "Level not found")
	case errors.Is(err, services.ErrLevelNotEmpty):
		writeError(w, http.StatusForbidden, models.CodeLevelNotEmpty, "Level still has challenges")
	case errors.Is(err, services.ErrTeamNotFound):
		writeError(w, http.StatusNotFound, models.CodeTeamNotFound, "Team not found")
	case errors.Is(err, services.ErrTeamNameExists):
		writeError(w, http.StatusConflict, models.CodeTeamNameExists, "Team name already registered")
	case errors.Is(err, services.ErrEmailExists):
		writeError(w, http.StatusConflict, models.CodeEmailExists, "Email already registered")
	case errors.Is(err, services.ErrTeamExists):
		writeError(w, http.StatusConflict, models.CodeEmailOrTeamExists, "Email or team name already registered")
	case errors.Is(err, services.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, models.CodeInvalidEmailOrPassword, "Invalid email or password")
	case errors.Is(err, services.ErrTokenCreation):
		log.Printf("[%s] Token error: %v", op, err)
		writeError(w, http.StatusInternalServerError, models.CodeFailedToCreateToken, "Failed to create token")
	default:
		log.Printf("[%s] Service error: %v", op, err)
		writeError(w, http.StatusInternalServerError, models.CodeDatabaseError, "Database error")
	}
}

// audit records one event for the authenticated actor. Failures carry the error text as detail.
func audit(ctx context.Context, auditor services.Auditor, action string, targets []uint, err error, detail string) {
	if auditor == nil {
		return
	}
	outcome := models.OutcomeSuccess
	if err != nil {
		outcome = models.OutcomeFailure
		detail = err.Error()
	}
	auditor.Record(ctx, services.NewAuditEvent(action, middleware.GetTeamID(ctx), targets, outcome, detail))
}
