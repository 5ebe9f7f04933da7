package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// The match_analyses table carries a compound unique key on
// (user_id, job_id), one live analysis per pair, plus an index on
// (job_id, match_score DESC) for recruiter-side sorting.

const matchAnalysisColumns = `user_id, job_id, match_score, skill_score, semantic_score,
	skill_score_percent, semantic_percent, matched_skills, missing_skills,
	suggestions, summary_rewrite, suggestion_source, analyzed_at,
	profile_updated_at_used, resume_parsed_at_used, version, created_at, updated_at`

func scanMatchAnalysis(row pgx.Row) (*MatchAnalysis, error) {
	var a MatchAnalysis
	err := row.Scan(&a.UserID, &a.JobID, &a.MatchScore, &a.SkillScore, &a.SemanticScore,
		&a.SkillScorePercent, &a.SemanticPercent, &a.MatchedSkills, &a.MissingSkills,
		&a.Suggestions, &a.SummaryRewrite, &a.SuggestionSource, &a.AnalyzedAt,
		&a.ProfileUpdatedAtUsed, &a.ResumeParsedAtUsed, &a.Version, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetMatchAnalysis retrieves the cached analysis for a (user, job) pair.
// Returns (nil, nil) when no analysis has been computed for the pair.
func (db *DB) GetMatchAnalysis(ctx context.Context, userID, jobID uuid.UUID) (*MatchAnalysis, error) {
	a, err := scanMatchAnalysis(db.pool.QueryRow(ctx,
		`SELECT `+matchAnalysisColumns+`
		 FROM match_analyses WHERE user_id = $1 AND job_id = $2`,
		userID, jobID,
	))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get match analysis: %w", err)
	}
	return a, nil
}

// UpsertMatchAnalysis inserts or replaces the analysis for its (user, job)
// pair. Replacement is wholesale; concurrent upserts for the same key race
// under last-write-wins, with row atomicity provided by Postgres.
func (db *DB) UpsertMatchAnalysis(ctx context.Context, a *MatchAnalysis) (*MatchAnalysis, error) {
	saved, err := scanMatchAnalysis(db.pool.QueryRow(ctx,
		`INSERT INTO match_analyses (user_id, job_id, match_score, skill_score, semantic_score,
		        skill_score_percent, semantic_percent, matched_skills, missing_skills,
		        suggestions, summary_rewrite, suggestion_source, analyzed_at,
		        profile_updated_at_used, resume_parsed_at_used, version)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		 ON CONFLICT (user_id, job_id) DO UPDATE SET
		        match_score = $3, skill_score = $4, semantic_score = $5,
		        skill_score_percent = $6, semantic_percent = $7,
		        matched_skills = $8, missing_skills = $9,
		        suggestions = $10, summary_rewrite = $11, suggestion_source = $12,
		        analyzed_at = $13, profile_updated_at_used = $14,
		        resume_parsed_at_used = $15, version = $16, updated_at = NOW()
		 RETURNING `+matchAnalysisColumns,
		a.UserID, a.JobID, a.MatchScore, a.SkillScore, a.SemanticScore,
		a.SkillScorePercent, a.SemanticPercent, a.MatchedSkills, a.MissingSkills,
		a.Suggestions, a.SummaryRewrite, a.SuggestionSource, a.AnalyzedAt,
		a.ProfileUpdatedAtUsed, a.ResumeParsedAtUsed, a.Version,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert match analysis: %w", err)
	}
	return saved, nil
}

// ListMatchAnalyses retrieves cached analyses for one user across many jobs.
// Jobs with no cached analysis are simply absent from the result.
func (db *DB) ListMatchAnalyses(ctx context.Context, userID uuid.UUID, jobIDs []uuid.UUID) ([]MatchAnalysis, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+matchAnalysisColumns+`
		 FROM match_analyses WHERE user_id = $1 AND job_id = ANY($2)`,
		userID, jobIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list match analyses: %w", err)
	}
	defer rows.Close()

	var analyses []MatchAnalysis
	for rows.Next() {
		a, err := scanMatchAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match analysis: %w", err)
		}
		analyses = append(analyses, *a)
	}
	return analyses, rows.Err()
}
