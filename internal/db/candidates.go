package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// GetCandidateProfile retrieves a candidate profile by user ID.
// Returns (nil, nil) when no profile exists.
func (db *DB) GetCandidateProfile(ctx context.Context, userID uuid.UUID) (*CandidateProfile, error) {
	var p CandidateProfile

	err := db.pool.QueryRow(ctx,
		`SELECT id, title, bio, summary, experience, education, skills,
		        profile_updated_at, resume_parsed_at, created_at, updated_at
		 FROM candidate_profiles WHERE id = $1`,
		userID,
	).Scan(&p.ID, &p.Title, &p.Bio, &p.Summary, &p.Experience, &p.Education,
		&p.Skills, &p.ProfileUpdatedAt, &p.ResumeParsedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get candidate profile: %w", err)
	}

	return &p, nil
}
