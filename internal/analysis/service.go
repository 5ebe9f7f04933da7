package analysis

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/akirakaori/lakshya-match/internal/db"
)

// DefaultCacheTTL is how long a cached analysis stays reusable when the
// candidate's resume has not changed in the meantime.
const DefaultCacheTTL = 7 * 24 * time.Hour

// MaxBatchSize caps one batch score request.
const MaxBatchSize = 100

// Store is the persistence surface the service needs: candidate and job
// lookups plus the analysis cache keyed on (user, job). *db.DB implements it.
type Store interface {
	GetCandidateProfile(ctx context.Context, userID uuid.UUID) (*db.CandidateProfile, error)
	GetJobPosting(ctx context.Context, jobID uuid.UUID) (*db.JobPosting, error)
	GetMatchAnalysis(ctx context.Context, userID, jobID uuid.UUID) (*db.MatchAnalysis, error)
	UpsertMatchAnalysis(ctx context.Context, a *db.MatchAnalysis) (*db.MatchAnalysis, error)
	ListMatchAnalyses(ctx context.Context, userID uuid.UUID, jobIDs []uuid.UUID) ([]db.MatchAnalysis, error)
}

// Service owns the analysis cache: it decides freshness, recomputes through
// the Analyzer, and answers read-only staleness and batch score queries.
type Service struct {
	store    Store
	analyzer *Analyzer
	ttl      time.Duration
	now      func() time.Time

	// computeGroup serializes concurrent recomputation per (user, job)
	// key so simultaneous requests share one upstream round trip instead
	// of racing duplicate computations to the upsert.
	computeGroup singleflight.Group
}

// NewService creates the cache service. A zero ttl uses DefaultCacheTTL.
func NewService(store Store, analyzer *Analyzer, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Service{
		store:    store,
		analyzer: analyzer,
		ttl:      ttl,
		now:      time.Now,
	}
}

// GetOrCompute returns the cached analysis for the pair when it is still
// fresh, otherwise computes a new one and upserts it. A cached entry is
// fresh only if it is younger than the TTL AND the candidate's resume has
// not been re-parsed since it was computed.
func (s *Service) GetOrCompute(ctx context.Context, userID, jobID uuid.UUID) (*db.MatchAnalysis, error) {
	profile, job, err := s.fetchPair(ctx, userID, jobID)
	if err != nil {
		return nil, err
	}

	cached, err := s.store.GetMatchAnalysis(ctx, userID, jobID)
	if err != nil {
		return nil, err
	}
	if cached != nil && s.isFresh(cached, profile) {
		log.Printf("[match-cache] hit for user=%s job=%s", userID, jobID)
		return cached, nil
	}

	log.Printf("[match-cache] computing fresh analysis for user=%s job=%s", userID, jobID)
	return s.computeAndStore(ctx, profile, job)
}

// Recompute forces a fresh computation and upsert for the pair, ignoring
// any cached entry. Concurrent calls for the same key are collapsed into
// one computation whose result all callers share.
func (s *Service) Recompute(ctx context.Context, userID, jobID uuid.UUID) (*db.MatchAnalysis, error) {
	profile, job, err := s.fetchPair(ctx, userID, jobID)
	if err != nil {
		return nil, err
	}
	return s.computeAndStore(ctx, profile, job)
}

// CachedAnalysis is the read-only cache view with its staleness verdict.
type CachedAnalysis struct {
	Analysis   *db.MatchAnalysis `json:"analysis"`
	IsOutdated bool              `json:"isOutdated"`
}

// CachedWithStaleness returns the cached analysis (nil when none exists)
// and whether the candidate's profile or resume has changed since it was
// computed. It never recomputes; the verdict is informational, so a UI can
// prompt for re-analysis. An untracked dimension (the profile carries a
// timestamp the cached entry never snapshotted) counts as stale.
func (s *Service) CachedWithStaleness(ctx context.Context, userID, jobID uuid.UUID) (*CachedAnalysis, error) {
	profile, err := s.store.GetCandidateProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, &NotFoundError{Resource: "candidate", ID: userID}
	}

	cached, err := s.store.GetMatchAnalysis(ctx, userID, jobID)
	if err != nil {
		return nil, err
	}
	if cached == nil {
		return &CachedAnalysis{}, nil
	}

	outdated := newerThanSnapshot(profile.ProfileUpdatedAt, cached.ProfileUpdatedAtUsed) ||
		newerThanSnapshot(profile.ResumeParsedAt, cached.ResumeParsedAtUsed)

	return &CachedAnalysis{Analysis: cached, IsOutdated: outdated}, nil
}

// Batch score sources.
const (
	BatchSourceCache   = "cache"
	BatchSourceMissing = "missing"
)

// BatchScore is one entry of a batch score lookup.
type BatchScore struct {
	MatchScore *int       `json:"matchScore"`
	AnalyzedAt *time.Time `json:"analyzedAt"`
	Source     string     `json:"source"`
}

// BatchScores returns cached match scores for many jobs at once. It never
// computes: jobs without a cached analysis come back as "missing". Empty
// or oversized batches are rejected before any I/O.
func (s *Service) BatchScores(ctx context.Context, userID uuid.UUID, jobIDs []uuid.UUID) (map[string]BatchScore, error) {
	if len(jobIDs) == 0 {
		return nil, &ValidationError{Message: "jobIds must not be empty"}
	}
	if len(jobIDs) > MaxBatchSize {
		return nil, &ValidationError{Message: fmt.Sprintf("at most %d jobIds allowed per request", MaxBatchSize)}
	}

	analyses, err := s.store.ListMatchAnalyses(ctx, userID, jobIDs)
	if err != nil {
		return nil, err
	}

	result := make(map[string]BatchScore, len(jobIDs))
	for _, jobID := range jobIDs {
		result[jobID.String()] = BatchScore{Source: BatchSourceMissing}
	}
	for i := range analyses {
		a := &analyses[i]
		score := a.MatchScore
		analyzedAt := a.AnalyzedAt
		result[a.JobID.String()] = BatchScore{
			MatchScore: &score,
			AnalyzedAt: &analyzedAt,
			Source:     BatchSourceCache,
		}
	}
	return result, nil
}

// fetchPair loads the candidate profile and job posting concurrently;
// neither lookup depends on the other.
func (s *Service) fetchPair(ctx context.Context, userID, jobID uuid.UUID) (*db.CandidateProfile, *db.JobPosting, error) {
	var (
		profile *db.CandidateProfile
		job     *db.JobPosting
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		profile, err = s.store.GetCandidateProfile(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		job, err = s.store.GetJobPosting(gctx, jobID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	if profile == nil {
		return nil, nil, &NotFoundError{Resource: "candidate", ID: userID}
	}
	if job == nil {
		return nil, nil, &NotFoundError{Resource: "job", ID: jobID}
	}
	return profile, job, nil
}

// computeAndStore runs the analyzer and upserts the result, collapsing
// concurrent callers for the same pair into a single flight.
func (s *Service) computeAndStore(ctx context.Context, profile *db.CandidateProfile, job *db.JobPosting) (*db.MatchAnalysis, error) {
	key := profile.ID.String() + "|" + job.ID.String()
	v, err, _ := s.computeGroup.Do(key, func() (any, error) {
		computed := s.analyzer.ComputeMatch(ctx, profile, job)
		return s.store.UpsertMatchAnalysis(ctx, computed)
	})
	if err != nil {
		return nil, err
	}
	return v.(*db.MatchAnalysis), nil
}

// isFresh applies the reuse policy for GetOrCompute: within TTL and not
// invalidated by a newer resume parse.
func (s *Service) isFresh(cached *db.MatchAnalysis, profile *db.CandidateProfile) bool {
	if s.now().Sub(cached.AnalyzedAt) >= s.ttl {
		return false
	}
	if profile.ResumeParsedAt != nil && profile.ResumeParsedAt.After(cached.AnalyzedAt) {
		return false
	}
	return true
}

// newerThanSnapshot reports whether the current timestamp invalidates the
// recorded snapshot: strictly newer, or present where no snapshot exists.
func newerThanSnapshot(current, snapshot *time.Time) bool {
	if current == nil {
		return false
	}
	if snapshot == nil {
		return true
	}
	return current.After(*snapshot)
}
