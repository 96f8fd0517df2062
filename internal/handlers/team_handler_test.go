package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ShadowYIG/hctf-backend/internal/models"
	"github.com/ShadowYIG/hctf-backend/internal/services"
	"github.com/ShadowYIG/hctf-backend/internal/testutil"
)

type teamFixture struct {
	handler *TeamHandler
	db      *gorm.DB
	teams   *services.GormTeamService
	tokens  *services.TokenService
	auditor *recordingAuditor
}

func newTeamFixture(t *testing.T) *teamFixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	teams := services.NewTeamService(db, shanghai)
	tokens := services.NewTokenService(teams, "test-secret", "hctf", time.Hour)
	auditor := &recordingAuditor{}
	return &teamFixture{
		handler: NewTeamHandler(teams, tokens, auditor, shanghai),
		db:      db,
		teams:   teams,
		tokens:  tokens,
		auditor: auditor,
	}
}

func (f *teamFixture) register(t *testing.T, name, email, password string) uint {
	t.Helper()
	rec, _ := call(t, f.handler.Register, 0, map[string]interface{}{
		"teamName": name,
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var team models.Team
	require.NoError(t, f.db.Where("email = ?", email).First(&team).Error)
	return team.TeamID
}

type failingAuthenticator struct{}

func (failingAuthenticator) Attempt(context.Context, string, string) (string, error) {
	return "", errors.Join(services.ErrTokenCreation, errors.New("signing key unavailable"))
}

func TestTeamHandler_RegisterAndLogin(t *testing.T) {
	f := newTeamFixture(t)

	rec, env := call(t, f.handler.Register, 0, map[string]interface{}{
		"teamName": "alpha",
		"email":    "a@hctf.io",
		"password": "hunter22",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"msg":"Welcome to HCTF!"}`, string(env.Data))
	assert.NotContains(t, rec.Body.String(), "hunter22")

	event := f.auditor.last(t)
	assert.Equal(t, services.ActionTeamRegister, event.Action)
	assert.NotContains(t, event.Detail, "hunter22")

	rec, env = call(t, f.handler.Login, 0, map[string]interface{}{"email": "a@hctf.io", "password": "hunter22"})
	require.Equal(t, http.StatusOK, rec.Code)

	var auth models.AuthResponse
	require.NoError(t, json.Unmarshal(env.Data, &auth))
	teamID, err := f.tokens.Parse(auth.AccessToken)
	require.NoError(t, err)
	assert.NotZero(t, teamID)
}

func TestTeamHandler_RegisterDuplicates(t *testing.T) {
	f := newTeamFixture(t)
	f.register(t, "alpha", "a@hctf.io", "hunter22")

	rec, env := call(t, f.handler.Register, 0, map[string]interface{}{"teamName": "alpha", "email": "new@hctf.io", "password": "x"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, models.CodeTeamNameExists, env.Code)

	rec, env = call(t, f.handler.Register, 0, map[string]interface{}{"teamName": "beta", "email": "a@hctf.io", "password": "x"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, models.CodeEmailExists, env.Code)
	assert.Equal(t, models.OutcomeFailure, f.auditor.last(t).Outcome)
}

func TestTeamHandler_RegisterValidation(t *testing.T) {
	f := newTeamFixture(t)

	rec, env := call(t, f.handler.Register, 0, map[string]interface{}{"teamName": 12, "email": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, []string{
		"teamName must be a string",
		"email is required",
		"password is required",
	}, messages(t, env))
}

func TestTeamHandler_LoginFailures(t *testing.T) {
	f := newTeamFixture(t)
	f.register(t, "alpha", "a@hctf.io", "hunter22")

	for name, body := range map[string]map[string]interface{}{
		"wrong password": {"email": "a@hctf.io", "password": "nope"},
		"unknown email":  {"email": "who@hctf.io", "password": "hunter22"},
	} {
		rec, env := call(t, f.handler.Login, 0, body)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, name)
		assert.Equal(t, models.CodeInvalidEmailOrPassword, env.Code, name)
	}

	rec, env := call(t, f.handler.Login, 0, map[string]interface{}{"email": "a@hctf.io"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, []string{"password is required"}, messages(t, env))
}

func TestTeamHandler_LoginTokenFailure(t *testing.T) {
	f := newTeamFixture(t)
	h := NewTeamHandler(f.teams, failingAuthenticator{}, f.auditor, shanghai)

	rec, env := call(t, h.Login, 0, map[string]interface{}{"email": "a@hctf.io", "password": "x"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, models.CodeFailedToCreateToken, env.Code)
}

func TestTeamHandler_GetAuthInfoRefreshesLastLogin(t *testing.T) {
	f := newTeamFixture(t)
	team := testutil.CreateTeam(t, f.db, "alpha", "a@hctf.io", false)
	before := team.LastLoginTime

	time.Sleep(10 * time.Millisecond)
	rec, env := call(t, f.handler.GetAuthInfo, team.TeamID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "alpha", got["team_name"])
	assert.NotContains(t, got, "password")

	stored, err := f.teams.GetByID(context.Background(), team.TeamID)
	require.NoError(t, err)
	assert.True(t, stored.LastLoginTime.After(before))

	rec, _ = call(t, f.handler.GetAuthInfo, 0, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTeamHandler_ListTeamsPaginates(t *testing.T) {
	f := newTeamFixture(t)
	for i := 0; i < 23; i++ {
		testutil.CreateTeam(t, f.db, fmt.Sprintf("team-%02d", i), fmt.Sprintf("t%02d@hctf.io", i), false)
	}

	tests := []struct {
		query string
		count int
	}{
		{"", 20},
		{"?page=2", 3},
		{"?page=-4", 20},
		{"?page=abc", 20},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/"+tt.query, nil)
		rec, env := serve(t, f.handler.ListTeams, req)
		require.Equal(t, http.StatusOK, rec.Code, tt.query)

		var page struct {
			Total int64             `json:"total"`
			Teams []json.RawMessage `json:"teams"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &page))
		assert.Equal(t, int64(23), page.Total, tt.query)
		assert.Len(t, page.Teams, tt.count, tt.query)
	}
}

func TestTeamHandler_PublicListTeamsHidesPrivateFields(t *testing.T) {
	f := newTeamFixture(t)
	team := testutil.CreateTeam(t, f.db, "alpha", "a@hctf.io", false)
	testutil.CreateLog(t, f.db, team.TeamID, models.LogStatusCorrect, 100, time.Now())
	testutil.CreateLog(t, f.db, team.TeamID, models.LogStatusWrong, 0, time.Now())

	rec, env := call(t, f.handler.PublicListTeams, 0, map[string]interface{}{"teamId": []uint{team.TeamID}})
	require.Equal(t, http.StatusOK, rec.Code)

	body := string(env.Data)
	assert.Contains(t, body, `"team_name":"alpha"`)
	for _, field := range []string{`"flag"`, `"email"`, `"admin"`, `"banned"`, `"created_at"`, `"updated_at"`, `"signUpTime"`, `"lastLoginTime"`, "hctf{secret}"} {
		assert.NotContains(t, body, field)
	}

	var teams []models.PublicTeam
	require.NoError(t, json.Unmarshal(env.Data, &teams))
	require.Len(t, teams, 1)
	require.Len(t, teams[0].Logs, 1)
	assert.Equal(t, models.LogStatusCorrect, teams[0].Logs[0].Status)
}

func TestTeamHandler_PublicListTeamsValidation(t *testing.T) {
	f := newTeamFixture(t)

	tests := []struct {
		name string
		body map[string]interface{}
		want string
	}{
		{"missing", map[string]interface{}{}, "teamId is required"},
		{"scalar", map[string]interface{}{"teamId": 3}, "teamId must be an array"},
		{"bad element", map[string]interface{}{"teamId": []interface{}{1, "x"}}, "teamId must only contain team IDs"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := call(t, f.handler.PublicListTeams, 0, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, []string{tt.want}, messages(t, env))
		})
	}
}

func TestTeamHandler_BanThenUnban(t *testing.T) {
	f := newTeamFixture(t)
	admin := testutil.CreateTeam(t, f.db, "root", "root@hctf.io", true)
	a := testutil.CreateTeam(t, f.db, "alpha", "a@hctf.io", false)
	b := testutil.CreateTeam(t, f.db, "beta", "b@hctf.io", false)
	ids := []uint{a.TeamID, b.TeamID}

	rec, _ := call(t, f.handler.BanTeam, admin.TeamID, map[string]interface{}{"teamId": ids})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"success","data":null}`, rec.Body.String())

	event := f.auditor.last(t)
	assert.Equal(t, services.ActionTeamBan, event.Action)
	assert.Equal(t, admin.TeamID, event.ActorID)
	assert.Equal(t, ids, event.Targets)
	assert.Equal(t, models.OutcomeSuccess, event.Outcome)

	for _, id := range ids {
		team, err := f.teams.GetByID(context.Background(), id)
		require.NoError(t, err)
		assert.True(t, team.Banned)
	}

	rec, _ = call(t, f.handler.UnbanTeam, admin.TeamID, map[string]interface{}{"teamId": ids})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, services.ActionTeamUnban, f.auditor.last(t).Action)

	for _, id := range ids {
		team, err := f.teams.GetByID(context.Background(), id)
		require.NoError(t, err)
		assert.False(t, team.Banned)
	}
}

func TestTeamHandler_SetAdmin(t *testing.T) {
	f := newTeamFixture(t)
	a := testutil.CreateTeam(t, f.db, "alpha", "a@hctf.io", false)

	rec, _ := call(t, f.handler.SetAdmin, 1, map[string]interface{}{"teamId": []string{fmt.Sprint(a.TeamID)}})
	require.Equal(t, http.StatusOK, rec.Code)

	team, err := f.teams.GetByID(context.Background(), a.TeamID)
	require.NoError(t, err)
	assert.True(t, team.Admin)
	assert.Equal(t, services.ActionTeamSetAdmin, f.auditor.last(t).Action)
}

func TestTeamHandler_ForceResetPassword(t *testing.T) {
	f := newTeamFixture(t)
	teamID := f.register(t, "alpha", "a@hctf.io", "old-password")

	rec, env := call(t, f.handler.ForceResetPassword, 1, map[string]interface{}{"teamId": teamID})
	require.Equal(t, http.StatusOK, rec.Code)

	var reset struct {
		NewPassword string `json:"newPassword"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &reset))
	assert.Len(t, reset.NewPassword, services.ResetPasswordLen)

	event := f.auditor.last(t)
	assert.Equal(t, services.ActionTeamResetPassword, event.Action)
	assert.NotContains(t, event.Detail, reset.NewPassword)

	rec, _ = call(t, f.handler.Login, 0, map[string]interface{}{"email": "a@hctf.io", "password": reset.NewPassword})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = call(t, f.handler.Login, 0, map[string]interface{}{"email": "a@hctf.io", "password": "old-password"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTeamHandler_ForceResetPasswordErrors(t *testing.T) {
	f := newTeamFixture(t)

	rec, env := call(t, f.handler.ForceResetPassword, 1, map[string]interface{}{"teamId": 404})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, models.CodeTeamNotFound, env.Code)
	assert.Equal(t, models.OutcomeFailure, f.auditor.last(t).Outcome)

	rec, env = call(t, f.handler.ForceResetPassword, 1, map[string]interface{}{"teamId": "one"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, []string{"teamId must be an integer"}, messages(t, env))
}

func TestTeamHandler_GetRanking(t *testing.T) {
	f := newTeamFixture(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	admin := testutil.CreateTeam(t, f.db, "root", "root@hctf.io", true)
	testutil.CreateLog(t, f.db, admin.TeamID, models.LogStatusCorrect, 1000, base)
	low := testutil.CreateTeam(t, f.db, "low", "low@hctf.io", false)
	testutil.CreateLog(t, f.db, low.TeamID, models.LogStatusCorrect, 10, base)
	high := testutil.CreateTeam(t, f.db, "high", "high@hctf.io", false)
	testutil.CreateLog(t, f.db, high.TeamID, models.LogStatusCorrect, 50, base)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec, env := serve(t, f.handler.GetRanking, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var ranking []map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &ranking))
	require.Len(t, ranking, 2)
	assert.Equal(t, "high", ranking[0]["team_name"])
	assert.Equal(t, float64(1), ranking[0]["rank"])
	assert.Equal(t, "low", ranking[1]["team_name"])
	for _, row := range ranking {
		assert.NotContains(t, row, "score")
		assert.NotContains(t, row, "email")
	}
}

func TestTeamHandler_EmptyLogsRenderAsArray(t *testing.T) {
	f := newTeamFixture(t)
	team := testutil.CreateTeam(t, f.db, "alpha", "a@hctf.io", false)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec, env := serve(t, f.handler.ListTeams, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"logs":[]`)

	rec, env = call(t, f.handler.GetAuthInfo, team.TeamID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"logs":[]`)
}

func TestTeamHandler_GetAuthInfoIncludesOwnLogs(t *testing.T) {
	f := newTeamFixture(t)
	team := testutil.CreateTeam(t, f.db, "alpha", "a@hctf.io", false)
	testutil.CreateLog(t, f.db, team.TeamID, models.LogStatusCorrect, 100, time.Now())

	rec, env := call(t, f.handler.GetAuthInfo, team.TeamID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		Logs []json.RawMessage `json:"logs"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Len(t, got.Logs, 1)
}
