package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// GetJobPosting retrieves a job posting by ID.
// Returns (nil, nil) when no posting exists.
func (db *DB) GetJobPosting(ctx context.Context, jobID uuid.UUID) (*JobPosting, error) {
	var j JobPosting

	err := db.pool.QueryRow(ctx,
		`SELECT id, title, description, requirements, skills_required,
		        created_at, updated_at
		 FROM job_postings WHERE id = $1`,
		jobID,
	).Scan(&j.ID, &j.Title, &j.Description, &j.Requirements, &j.SkillsRequired,
		&j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get job posting: %w", err)
	}

	return &j, nil
}
