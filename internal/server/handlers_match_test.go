package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akirakaori/lakshya-match/internal/analysis"
	"github.com/akirakaori/lakshya-match/internal/db"
)

// fakeMatchService records calls and returns canned results.
type fakeMatchService struct {
	analysis  *db.MatchAnalysis
	cached    *analysis.CachedAnalysis
	batch     map[string]analysis.BatchScore
	err       error
	gotUser   uuid.UUID
	gotJob    uuid.UUID
	gotJobIDs []uuid.UUID
	computes  int
}

func (f *fakeMatchService) GetOrCompute(_ context.Context, userID, jobID uuid.UUID) (*db.MatchAnalysis, error) {
	f.gotUser, f.gotJob = userID, jobID
	f.computes++
	return f.analysis, f.err
}

func (f *fakeMatchService) Recompute(_ context.Context, userID, jobID uuid.UUID) (*db.MatchAnalysis, error) {
	f.gotUser, f.gotJob = userID, jobID
	f.computes++
	return f.analysis, f.err
}

func (f *fakeMatchService) CachedWithStaleness(_ context.Context, userID, jobID uuid.UUID) (*analysis.CachedAnalysis, error) {
	f.gotUser, f.gotJob = userID, jobID
	return f.cached, f.err
}

func (f *fakeMatchService) BatchScores(_ context.Context, userID uuid.UUID, jobIDs []uuid.UUID) (map[string]analysis.BatchScore, error) {
	f.gotUser, f.gotJobIDs = userID, jobIDs
	return f.batch, f.err
}

func sampleAnalysis(userID, jobID uuid.UUID) *db.MatchAnalysis {
	return &db.MatchAnalysis{
		UserID:            userID,
		JobID:             jobID,
		MatchScore:        72,
		SkillScorePercent: 67,
		SemanticPercent:   80,
		MatchedSkills:     []string{"go", "sql"},
		MissingSkills:     []string{"kubernetes"},
		Suggestions:       []string{"a", "b", "c"},
		SummaryRewrite:    "Polished.",
		SuggestionSource:  db.SuggestionSourceLLM,
		AnalyzedAt:        time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		Version:           db.AnalysisVersion,
	}
}

// authedRequest builds a request that already passed the auth middleware.
func authedRequest(method, target string, body io.Reader, userID uuid.UUID) *http.Request {
	r := httptest.NewRequest(method, target, body)
	return r.WithContext(context.WithValue(r.Context(), userIDKey, userID))
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestHandleGetJobMatch(t *testing.T) {
	userID := uuid.New()
	jobID := uuid.New()
	fake := &fakeMatchService{analysis: sampleAnalysis(userID, jobID)}
	s := &Server{matches: fake}

	r := authedRequest(http.MethodGet, "/jobs/"+jobID.String()+"/match", nil, userID)
	r.SetPathValue("job_id", jobID.String())
	w := httptest.NewRecorder()

	s.handleGetJobMatch(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, userID, fake.gotUser)
	assert.Equal(t, jobID, fake.gotJob)

	env := decodeEnvelope(t, w)
	assert.True(t, env.Success)

	var data MatchResponse
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, 72, data.MatchScore)
	assert.Equal(t, []string{"kubernetes"}, data.MissingSkills)
	assert.Equal(t, db.SuggestionSourceLLM, data.SuggestionSource)
}

func TestHandleGetJobMatch_InvalidJobID(t *testing.T) {
	s := &Server{matches: &fakeMatchService{}}

	r := authedRequest(http.MethodGet, "/jobs/not-a-uuid/match", nil, uuid.New())
	r.SetPathValue("job_id", "not-a-uuid")
	w := httptest.NewRecorder()

	s.handleGetJobMatch(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, decodeEnvelope(t, w).Success)
}

func TestHandleGetJobMatch_MissingUserContext(t *testing.T) {
	s := &Server{matches: &fakeMatchService{}}

	r := httptest.NewRequest(http.MethodGet, "/jobs/x/match", nil)
	r.SetPathValue("job_id", uuid.New().String())
	w := httptest.NewRecorder()

	s.handleGetJobMatch(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandleGetJobMatch_ServiceErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{
			name:       "not found",
			err:        &analysis.NotFoundError{Resource: "job", ID: uuid.New()},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "validation",
			err:        &analysis.ValidationError{Message: "bad input"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "storage failure",
			err:        errors.New("connection reset"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Server{matches: &fakeMatchService{err: tt.err}}

			jobID := uuid.New()
			r := authedRequest(http.MethodGet, "/jobs/"+jobID.String()+"/match", nil, uuid.New())
			r.SetPathValue("job_id", jobID.String())
			w := httptest.NewRecorder()

			s.handleGetJobMatch(w, r)

			assert.Equal(t, tt.wantStatus, w.Code)
			env := decodeEnvelope(t, w)
			assert.False(t, env.Success)
			if tt.wantStatus == http.StatusInternalServerError {
				// Internal details stay out of the response body.
				assert.Equal(t, "Internal server error", env.Message)
			}
		})
	}
}

func TestHandleGetJobMatchStatus(t *testing.T) {
	userID := uuid.New()
	jobID := uuid.New()
	fake := &fakeMatchService{
		cached: &analysis.CachedAnalysis{
			Analysis:   sampleAnalysis(userID, jobID),
			IsOutdated: true,
		},
	}
	s := &Server{matches: fake}

	r := authedRequest(http.MethodGet, "/jobs/"+jobID.String()+"/match/status", nil, userID)
	r.SetPathValue("job_id", jobID.String())
	w := httptest.NewRecorder()

	s.handleGetJobMatchStatus(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, fake.computes)

	var data MatchStatusResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &data))
	assert.True(t, data.IsOutdated)
	require.NotNil(t, data.Analysis)
	assert.Equal(t, 72, data.Analysis.MatchScore)
}

func TestHandleGetJobMatchStatus_NoCachedAnalysis(t *testing.T) {
	fake := &fakeMatchService{cached: &analysis.CachedAnalysis{}}
	s := &Server{matches: fake}

	jobID := uuid.New()
	r := authedRequest(http.MethodGet, "/jobs/"+jobID.String()+"/match/status", nil, uuid.New())
	r.SetPathValue("job_id", jobID.String())
	w := httptest.NewRecorder()

	s.handleGetJobMatchStatus(w, r)

	assert.Equal(t, http.StatusOK, w.Code)

	var data MatchStatusResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &data))
	assert.Nil(t, data.Analysis)
	assert.False(t, data.IsOutdated)
}

func TestHandleRefreshJobMatch(t *testing.T) {
	userID := uuid.New()
	jobID := uuid.New()
	fake := &fakeMatchService{analysis: sampleAnalysis(userID, jobID)}
	s := &Server{matches: fake}

	r := authedRequest(http.MethodPost, "/jobs/"+jobID.String()+"/match/refresh", nil, userID)
	r.SetPathValue("job_id", jobID.String())
	w := httptest.NewRecorder()

	s.handleRefreshJobMatch(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, fake.computes)
	assert.Contains(t, decodeEnvelope(t, w).Message, "refreshed")
}

func TestHandleBatchMatchScores(t *testing.T) {
	userID := uuid.New()
	jobID1 := uuid.New()
	jobID2 := uuid.New()

	score := 64
	analyzedAt := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	fake := &fakeMatchService{
		batch: map[string]analysis.BatchScore{
			jobID1.String(): {MatchScore: &score, AnalyzedAt: &analyzedAt, Source: analysis.BatchSourceCache},
			jobID2.String(): {Source: analysis.BatchSourceMissing},
		},
	}
	s := &Server{matches: fake}

	body := strings.NewReader(`{"jobIds":["` + jobID1.String() + `","` + jobID2.String() + `"]}`)
	r := authedRequest(http.MethodPost, "/jobs/match-scores", body, userID)
	w := httptest.NewRecorder()

	s.handleBatchMatchScores(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []uuid.UUID{jobID1, jobID2}, fake.gotJobIDs)

	var data map[string]analysis.BatchScore
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &data))
	require.Len(t, data, 2)
	assert.Equal(t, analysis.BatchSourceCache, data[jobID1.String()].Source)
	require.NotNil(t, data[jobID1.String()].MatchScore)
	assert.Equal(t, 64, *data[jobID1.String()].MatchScore)
	assert.Equal(t, analysis.BatchSourceMissing, data[jobID2.String()].Source)
	assert.Nil(t, data[jobID2.String()].MatchScore)
}

func TestHandleBatchMatchScores_BadRequests(t *testing.T) {
	oversized := make([]string, 101)
	for i := range oversized {
		oversized[i] = `"` + uuid.New().String() + `"`
	}

	tests := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{"jobIds":`},
		{name: "missing jobIds", body: `{}`},
		{name: "empty jobIds", body: `{"jobIds":[]}`},
		{name: "blank element", body: `{"jobIds":[""]}`},
		{name: "invalid uuid", body: `{"jobIds":["not-a-uuid"]}`},
		{name: "oversized batch", body: `{"jobIds":[` + strings.Join(oversized, ",") + `]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeMatchService{}
			s := &Server{matches: fake}

			r := authedRequest(http.MethodPost, "/jobs/match-scores", strings.NewReader(tt.body), uuid.New())
			w := httptest.NewRecorder()

			s.handleBatchMatchScores(w, r)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Nil(t, fake.gotJobIDs)
		})
	}
}

func TestBatchScoresRequestValidate(t *testing.T) {
	ids := make([]string, 100)
	for i := range ids {
		ids[i] = uuid.New().String()
	}

	assert.NoError(t, (&BatchScoresRequest{JobIDs: ids}).Validate())
	assert.Error(t, (&BatchScoresRequest{}).Validate())
	assert.Error(t, (&BatchScoresRequest{JobIDs: append(ids, uuid.New().String())}).Validate())
}
