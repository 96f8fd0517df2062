package handlers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/ShadowYIG/hctf-backend/internal/middleware"
	"github.com/ShadowYIG/hctf-backend/internal/models"
	"github.com/ShadowYIG/hctf-backend/internal/services"
	"github.com/ShadowYIG/hctf-backend/internal/validation"
)

const welcomeMessage = "Welcome to HCTF!"

// Authenticator exchanges credentials for a bearer token.
type Authenticator interface {
	Attempt(ctx context.Context, email, password string) (string, error)
}

type TeamHandler struct {
	teams   services.TeamService
	tokens  Authenticator
	auditor services.Auditor
	loc     *time.Location
}

func NewTeamHandler(teams services.TeamService, tokens Authenticator, auditor services.Auditor, loc *time.Location) *TeamHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &TeamHandler{
		teams:   teams,
		tokens:  tokens,
		auditor: auditor,
		loc:     loc,
	}
}

func (h *TeamHandler) Login(w http.ResponseWriter, r *http.Request) {
	in, ok := readInput(w, r)
	if !ok {
		return
	}

	v := validation.New(in, h.loc).
		Required("email", "email is required").
		String("email", "email must be a string").
		Required("password", "password is required").
		String("password", "password must be a string")
	if failValidation(w, v) {
		return
	}

	token, err := h.tokens.Attempt(r.Context(), in.String("email"), in.String("password"))
	if err != nil {
		writeServiceError(w, "Login", err)
		return
	}

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(models.AuthResponse{AccessToken: token}))
}

func (h *TeamHandler) Register(w http.ResponseWriter, r *http.Request) {
	in, ok := readInput(w, r)
	if !ok {
		return
	}

	v := validation.New(in, h.loc).
		Required("teamName", "teamName is required").
		String("teamName", "teamName must be a string").
		Required("email", "email is required").
		String("email", "email must be a string").
		Required("password", "password is required").
		String("password", "password must be a string")
	if failValidation(w, v) {
		return
	}

	team, err := h.teams.Register(r.Context(), &models.RegisterRequest{
		TeamName: in.String("teamName"),
		Email:    in.String("email"),
		Password: in.String("password"),
	})
	if err != nil {
		audit(r.Context(), h.auditor, services.ActionTeamRegister, nil, err, "")
		writeServiceError(w, "Register", err)
		return
	}

	log.Printf("[Register] Team %q (%d) registered", team.TeamName, team.TeamID)
	audit(r.Context(), h.auditor, services.ActionTeamRegister, []uint{team.TeamID}, nil, "team "+team.TeamName)
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(map[string]string{"msg": welcomeMessage}))
}

// GetAuthInfo returns the caller's own record and refreshes its last login time.
func (h *TeamHandler) GetAuthInfo(w http.ResponseWriter, r *http.Request) {
	teamID := middleware.GetTeamID(r.Context())
	if teamID == 0 {
		writeError(w, http.StatusUnauthorized, models.CodeUnauthorized, "Unauthorized")
		return
	}

	team, err := h.teams.TouchLastLogin(r.Context(), teamID)
	if err != nil {
		writeServiceError(w, "GetAuthInfo", err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(team))
}

func (h *TeamHandler) ListTeams(w http.ResponseWriter, r *http.Request) {
	in, ok := readInput(w, r)
	if !ok {
		return
	}

	page := 1
	if n, ok := in.Int("page"); ok && n > 0 {
		page = int(n)
	}

	result, err := h.teams.List(r.Context(), page)
	if err != nil {
		writeServiceError(w, "ListTeams", err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(result))
}

func (h *TeamHandler) PublicListTeams(w http.ResponseWriter, r *http.Request) {
	in, ok := readInput(w, r)
	if !ok {
		return
	}

	ids, ok := h.teamIDs(w, in)
	if !ok {
		return
	}

	teams, err := h.teams.PublicList(r.Context(), ids)
	if err != nil {
		writeServiceError(w, "PublicListTeams", err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(teams))
}

func (h *TeamHandler) BanTeam(w http.ResponseWriter, r *http.Request) {
	h.setBanned(w, r, true)
}

func (h *TeamHandler) UnbanTeam(w http.ResponseWriter, r *http.Request) {
	h.setBanned(w, r, false)
}

func (h *TeamHandler) setBanned(w http.ResponseWriter, r *http.Request, banned bool) {
	op, action := "UnbanTeam", services.ActionTeamUnban
	if banned {
		op, action = "BanTeam", services.ActionTeamBan
	}

	in, ok := readInput(w, r)
	if !ok {
		return
	}
	ids, ok := h.teamIDs(w, in)
	if !ok {
		return
	}

	n, err := h.teams.SetBanned(r.Context(), ids, banned)
	if err != nil {
		audit(r.Context(), h.auditor, action, ids, err, "")
		writeServiceError(w, op, err)
		return
	}

	log.Printf("[%s] %d of %d teams updated by team %d", op, n, len(ids), middleware.GetTeamID(r.Context()))
	audit(r.Context(), h.auditor, action, ids, nil, fmt.Sprintf("%d teams updated", n))
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(nil))
}

func (h *TeamHandler) SetAdmin(w http.ResponseWriter, r *http.Request) {
	in, ok := readInput(w, r)
	if !ok {
		return
	}
	ids, ok := h.teamIDs(w, in)
	if !ok {
		return
	}

	n, err := h.teams.SetAdmin(r.Context(), ids)
	if err != nil {
		audit(r.Context(), h.auditor, services.ActionTeamSetAdmin, ids, err, "")
		writeServiceError(w, "SetAdmin", err)
		return
	}

	log.Printf("[SetAdmin] %d of %d teams promoted by team %d", n, len(ids), middleware.GetTeamID(r.Context()))
	audit(r.Context(), h.auditor, services.ActionTeamSetAdmin, ids, nil, fmt.Sprintf("%d teams promoted", n))
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(nil))
}

// ForceResetPassword hands the new plaintext back exactly once. It is never logged.
func (h *TeamHandler) ForceResetPassword(w http.ResponseWriter, r *http.Request) {
	in, ok := readInput(w, r)
	if !ok {
		return
	}

	v := validation.New(in, h.loc).
		Required("teamId", "teamId is required").
		Integer("teamId", "teamId must be an integer")
	if failValidation(w, v) {
		return
	}

	teamID, ok := in.Uint("teamId")
	if !ok {
		audit(r.Context(), h.auditor, services.ActionTeamResetPassword, nil, services.ErrTeamNotFound, "")
		writeError(w, http.StatusNotFound, models.CodeTeamNotFound, "Team not found")
		return
	}

	password, err := h.teams.ResetPassword(r.Context(), teamID)
	if err != nil {
		audit(r.Context(), h.auditor, services.ActionTeamResetPassword, []uint{teamID}, err, "")
		writeServiceError(w, "ForceResetPassword", err)
		return
	}

	log.Printf("[ForceResetPassword] Password of team %d reset", teamID)
	audit(r.Context(), h.auditor, services.ActionTeamResetPassword, []uint{teamID}, nil, "")
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(map[string]string{"newPassword": password}))
}

func (h *TeamHandler) GetRanking(w http.ResponseWriter, r *http.Request) {
	ranking, err := h.teams.Ranking(r.Context())
	if err != nil {
		writeServiceError(w, "GetRanking", err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(ranking))
}

func (h *TeamHandler) teamIDs(w http.ResponseWriter, in validation.Input) ([]uint, bool) {
	v := validation.New(in, h.loc).
		Required("teamId", "teamId is required").
		Array("teamId", "teamId must be an array").
		IDs("teamId", "teamId must only contain team IDs")
	if failValidation(w, v) {
		return nil, false
	}
	ids, _ := in.UintSlice("teamId")
	return ids, true
}
