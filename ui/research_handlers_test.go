package ui

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"ideascope/internal/api"
	"ideascope/internal/errors"
	"ideascope/internal/research"
	"ideascope/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSelector answers every phase call with well-formed JSON. A non-nil gate
// channel blocks calls until it is closed.
type fakeSelector struct {
	gate chan struct{}
}

func (f *fakeSelector) GenerateWithFallback(ctx context.Context, prompt string, opts models.GenerateOptions, kinds []models.ProviderKind) (string, models.ProviderKind, error) {
	if f.gate != nil {
		<-f.gate
	}
	if strings.Contains(prompt, "strategic option") {
		return `{"title": "Focus", "description": "Go narrow.", "approach": "niche", "feasibility": 7, "impact": 7, "risk": 2}`, models.KindOpenAI, nil
	}
	if strings.Contains(prompt, "Synthesize") {
		return `{"summary": "Launch.", "next_steps": ["Ship"], "confidence": 0.7}`, models.KindOpenAI, nil
	}
	return `{"insights": [{"category": "", "title": "Finding", "content": "Detail.", "confidence": 0.9}]}`, models.KindOpenAI, nil
}

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]models.ResearchSession
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[uuid.UUID]models.ResearchSession)}
}

func (r *fakeSessionRepo) CreateSession(ctx context.Context, session *models.ResearchSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ID] = *session
	return nil
}

func (r *fakeSessionRepo) LoadSession(ctx context.Context, id uuid.UUID) (*models.ResearchSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if !ok {
		return nil, errors.NotFound("research session")
	}
	return &session, nil
}

func (r *fakeSessionRepo) SaveSession(ctx context.Context, session *models.ResearchSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ID] = *session
	return nil
}

func (r *fakeSessionRepo) ListSessions(ctx context.Context, userID uuid.UUID) ([]*models.ResearchSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.ResearchSession
	for id := range r.sessions {
		session := r.sessions[id]
		if session.UserID == userID {
			out = append(out, &session)
		}
	}
	return out, nil
}

type fakeResearchRepo struct {
	mu       sync.Mutex
	insights []models.Insight
	options  []models.Option
}

func (r *fakeResearchRepo) SaveInsight(ctx context.Context, insight *models.Insight) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.insights = append(r.insights, *insight)
	return nil
}

func (r *fakeResearchRepo) SaveOption(ctx context.Context, option *models.Option) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.options = append(r.options, *option)
	return nil
}

func (r *fakeResearchRepo) ListInsights(ctx context.Context, sessionID uuid.UUID) ([]models.Insight, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Insight
	for _, in := range r.insights {
		if in.SessionID == sessionID {
			out = append(out, in)
		}
	}
	return out, nil
}

func (r *fakeResearchRepo) ListOptions(ctx context.Context, sessionID uuid.UUID) ([]models.Option, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Option
	for _, op := range r.options {
		if op.SessionID == sessionID {
			out = append(out, op)
		}
	}
	return out, nil
}

func newTestServer(t *testing.T, selector *fakeSelector) (*Server, *fakeSessionRepo, *fakeResearchRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	sessions := newFakeSessionRepo()
	researchRepo := &fakeResearchRepo{}
	runner := research.NewStrategyRunner(research.NewPhaseExecutor(selector), sessions, researchRepo)
	hub := api.NewProgressHub()
	sched := research.NewScheduler(runner, sessions, hub, 2, 8)

	ctx, cancel := context.WithCancel(context.Background())
	sched.Start(ctx)
	t.Cleanup(func() {
		cancel()
		sched.Stop()
	})

	return NewServer(sched, sessions, researchRepo, hub), sessions, researchRepo
}

func doJSON(t *testing.T, server *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func waitForSessionStatus(t *testing.T, server *Server, sessionID string, status models.SessionStatus) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		rec := doJSON(t, server, http.MethodGet, "/api/research/sessions/"+sessionID+"/progress", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		if decodeBody(t, rec)["status"] == string(status) {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("session %s never reached %s", sessionID, status)
}

func TestApproachesEndpoint(t *testing.T) {
	server, _, _ := newTestServer(t, &fakeSelector{})

	rec := doJSON(t, server, http.MethodGet, "/api/research/approaches", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	approaches := body["approaches"].([]interface{})
	assert.Len(t, approaches, 3)
}

func TestInitiateValidation(t *testing.T) {
	server, _, _ := newTestServer(t, &fakeSelector{})

	rec := doJSON(t, server, http.MethodPost, "/api/research/sessions", map[string]string{
		"idea_title": "No approach",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, server, http.MethodPost, "/api/research/sessions", map[string]string{
		"idea_title": "Bad approach",
		"approach":   "overnight_unicorn",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInitiateAndExecuteLifecycle(t *testing.T) {
	server, _, _ := newTestServer(t, &fakeSelector{})

	rec := doJSON(t, server, http.MethodPost, "/api/research/sessions", map[string]string{
		"idea_title":       "Cat and Mouse Game",
		"idea_description": "A mobile game for cats.",
		"approach":         "quick_validation",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeBody(t, rec)
	sessionID := created["id"].(string)
	assert.Equal(t, "pending", created["status"])

	rec = doJSON(t, server, http.MethodPost, "/api/research/sessions/"+sessionID+"/execute", nil)
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.NotEmpty(t, decodeBody(t, rec)["task_id"])

	waitForSessionStatus(t, server, sessionID, models.StatusCompleted)

	rec = doJSON(t, server, http.MethodGet, "/api/research/sessions/"+sessionID+"/results", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	results := decodeBody(t, rec)
	assert.NotEmpty(t, results["insights"])
	assert.NotEmpty(t, results["options"])
}

func TestExecuteIsIdempotentWhileRunning(t *testing.T) {
	gate := make(chan struct{})
	server, _, _ := newTestServer(t, &fakeSelector{gate: gate})

	rec := doJSON(t, server, http.MethodPost, "/api/research/sessions", map[string]string{
		"idea_title": "Idea",
		"approach":   "quick_validation",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	sessionID := decodeBody(t, rec)["id"].(string)

	first := doJSON(t, server, http.MethodPost, "/api/research/sessions/"+sessionID+"/execute", nil)
	require.Equal(t, http.StatusAccepted, first.Code)
	firstTask := decodeBody(t, first)["task_id"]

	second := doJSON(t, server, http.MethodPost, "/api/research/sessions/"+sessionID+"/execute", nil)
	require.Equal(t, http.StatusAccepted, second.Code)
	assert.Equal(t, firstTask, decodeBody(t, second)["task_id"])

	close(gate)
	waitForSessionStatus(t, server, sessionID, models.StatusCompleted)
}

func TestExecuteTerminalSessionConflicts(t *testing.T) {
	server, _, _ := newTestServer(t, &fakeSelector{})

	rec := doJSON(t, server, http.MethodPost, "/api/research/sessions", map[string]string{
		"idea_title": "Idea",
		"approach":   "quick_validation",
	})
	sessionID := decodeBody(t, rec)["id"].(string)

	rec = doJSON(t, server, http.MethodPost, "/api/research/sessions/"+sessionID+"/execute", nil)
	require.Equal(t, http.StatusAccepted, rec.Code)
	waitForSessionStatus(t, server, sessionID, models.StatusCompleted)

	rec = doJSON(t, server, http.MethodPost, "/api/research/sessions/"+sessionID+"/execute", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestResultsUnavailableBeforeCompletion(t *testing.T) {
	server, _, _ := newTestServer(t, &fakeSelector{})

	rec := doJSON(t, server, http.MethodPost, "/api/research/sessions", map[string]string{
		"idea_title": "Idea",
		"approach":   "quick_validation",
	})
	sessionID := decodeBody(t, rec)["id"].(string)

	rec = doJSON(t, server, http.MethodGet, "/api/research/sessions/"+sessionID+"/results", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestUnknownSessionAndTask(t *testing.T) {
	server, _, _ := newTestServer(t, &fakeSelector{})
	missing := uuid.NewString()

	rec := doJSON(t, server, http.MethodGet, "/api/research/sessions/"+missing, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, server, http.MethodGet, "/api/research/tasks/"+missing, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, server, http.MethodPost, "/api/research/tasks/"+missing+"/cancel", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, server, http.MethodGet, "/api/research/sessions/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEventsRequiresGroup(t *testing.T) {
	server, _, _ := newTestServer(t, &fakeSelector{})

	rec := doJSON(t, server, http.MethodGet, "/api/events", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, server, http.MethodGet, "/api/events?session_id=nope", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
