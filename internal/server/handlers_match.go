package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/akirakaori/lakshya-match/internal/db"
)

// MatchResponse is the analysis payload returned for a single job match.
type MatchResponse struct {
	MatchScore        int       `json:"matchScore"`
	SkillScorePercent int       `json:"skillScorePercent"`
	SemanticPercent   int       `json:"semanticPercent"`
	MatchedSkills     []string  `json:"matchedSkills"`
	MissingSkills     []string  `json:"missingSkills"`
	Suggestions       []string  `json:"suggestions"`
	SummaryRewrite    string    `json:"summaryRewrite"`
	SuggestionSource  string    `json:"suggestionSource"`
	AnalyzedAt        time.Time `json:"analyzedAt"`
}

func newMatchResponse(a *db.MatchAnalysis) *MatchResponse {
	return &MatchResponse{
		MatchScore:        a.MatchScore,
		SkillScorePercent: a.SkillScorePercent,
		SemanticPercent:   a.SemanticPercent,
		MatchedSkills:     a.MatchedSkills,
		MissingSkills:     a.MissingSkills,
		Suggestions:       a.Suggestions,
		SummaryRewrite:    a.SummaryRewrite,
		SuggestionSource:  a.SuggestionSource,
		AnalyzedAt:        a.AnalyzedAt,
	}
}

// MatchStatusResponse is the read-only cache view with staleness flag.
type MatchStatusResponse struct {
	Analysis   *MatchResponse `json:"analysis"`
	IsOutdated bool           `json:"isOutdated"`
}

// BatchScoresRequest is the body of POST /jobs/match-scores.
type BatchScoresRequest struct {
	JobIDs []string `json:"jobIds" validate:"required,min=1,max=100,dive,required"`
}

// Validate validates the BatchScoresRequest using the validator.
func (r *BatchScoresRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// jobIDFromPath parses the {job_id} path value.
func jobIDFromPath(r *http.Request) (uuid.UUID, bool) {
	jobID, err := uuid.Parse(r.PathValue("job_id"))
	return jobID, err == nil
}

// handleGetJobMatch returns the match analysis for the authenticated user
// and the given job, computing and caching it when needed.
func (s *Server) handleGetJobMatch(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	jobID, ok := jobIDFromPath(r)
	if !ok {
		s.errorResponse(w, http.StatusBadRequest, "Invalid job ID")
		return
	}

	result, err := s.matches.GetOrCompute(r.Context(), userID, jobID)
	if err != nil {
		s.serviceErrorResponse(w, err)
		return
	}

	s.successResponse(w, http.StatusOK, "Match analysis retrieved", newMatchResponse(result))
}

// handleGetJobMatchStatus reports the cached analysis (if any) together
// with a staleness verdict; it never triggers computation.
func (s *Server) handleGetJobMatchStatus(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	jobID, ok := jobIDFromPath(r)
	if !ok {
		s.errorResponse(w, http.StatusBadRequest, "Invalid job ID")
		return
	}

	cached, err := s.matches.CachedWithStaleness(r.Context(), userID, jobID)
	if err != nil {
		s.serviceErrorResponse(w, err)
		return
	}

	status := MatchStatusResponse{IsOutdated: cached.IsOutdated}
	if cached.Analysis != nil {
		status.Analysis = newMatchResponse(cached.Analysis)
	}

	s.successResponse(w, http.StatusOK, "Match status retrieved", status)
}

// handleRefreshJobMatch forces a fresh computation, replacing any cached
// analysis for the pair.
func (s *Server) handleRefreshJobMatch(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	jobID, ok := jobIDFromPath(r)
	if !ok {
		s.errorResponse(w, http.StatusBadRequest, "Invalid job ID")
		return
	}

	result, err := s.matches.Recompute(r.Context(), userID, jobID)
	if err != nil {
		s.serviceErrorResponse(w, err)
		return
	}

	s.successResponse(w, http.StatusOK, "Match analysis refreshed", newMatchResponse(result))
}

// handleBatchMatchScores returns cached match scores for many jobs in one
// round trip. Read-only: jobs without a cached analysis are reported as
// missing, never computed.
func (s *Server) handleBatchMatchScores(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req BatchScoresRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "jobIds must contain between 1 and 100 job ids")
		return
	}

	jobIDs := make([]uuid.UUID, 0, len(req.JobIDs))
	for _, idStr := range req.JobIDs {
		jobID, err := uuid.Parse(idStr)
		if err != nil {
			s.errorResponse(w, http.StatusBadRequest, "Invalid job ID: "+idStr)
			return
		}
		jobIDs = append(jobIDs, jobID)
	}

	scores, err := s.matches.BatchScores(r.Context(), userID, jobIDs)
	if err != nil {
		s.serviceErrorResponse(w, err)
		return
	}

	s.successResponse(w, http.StatusOK, "Match scores retrieved", scores)
}
