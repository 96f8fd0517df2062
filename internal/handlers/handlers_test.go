package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ShadowYIG/hctf-backend/internal/middleware"
	"github.com/ShadowYIG/hctf-backend/internal/models"
)

var shanghai = time.FixedZone("Asia/Shanghai", 8*3600)

type recordingAuditor struct {
	mu     sync.Mutex
	events []models.AuditEvent
}

func (a *recordingAuditor) Record(_ context.Context, event models.AuditEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, event)
}

func (a *recordingAuditor) last(t *testing.T) models.AuditEvent {
	t.Helper()
	a.mu.Lock()
	defer a.mu.Unlock()
	require.NotEmpty(t, a.events, "no audit event recorded")
	return a.events[len(a.events)-1]
}

type envelope struct {
	Status  string          `json:"status"`
	Code    string          `json:"code"`
	Message json.RawMessage `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// call runs handler on a JSON request made by actor (0 for anonymous).
func call(t *testing.T, handler http.HandlerFunc, actor uint, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(http.MethodPost, "/", reader)
	req.Header.Set("Content-Type", "application/json")
	if actor != 0 {
		req = req.WithContext(middleware.WithTeamID(req.Context(), actor))
	}
	return serve(t, handler, req)
}

func serve(t *testing.T, handler http.HandlerFunc, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	handler(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func messages(t *testing.T, env envelope) []string {
	t.Helper()
	var out []string
	require.NoError(t, json.Unmarshal(env.Message, &out))
	return out
}

func jsonBody(s string) io.Reader {
	return strings.NewReader(s)
}
