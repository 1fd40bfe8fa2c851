package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/xxkhanxx77/aura-poc-llm/internal/repository"
)

// FeedbackRepo implements repository.FeedbackRepository
type FeedbackRepo struct {
	db *DB
}

// NewFeedbackRepo creates a new feedback repository
func NewFeedbackRepo(db *DB) *FeedbackRepo {
	return &FeedbackRepo{db: db}
}

// Create appends one review of a screening result. Feedback is never
// updated or deleted; each review action is its own row.
func (r *FeedbackRepo) Create(ctx context.Context, feedback *repository.ScreeningFeedback) error {
	query := `
		INSERT INTO screening_feedback (id, tenant_id, result_id, rating, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.Pool.Exec(ctx, query,
		feedback.ID, feedback.TenantID, feedback.ResultID,
		feedback.Rating, feedback.Notes, feedback.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create feedback: %w", err)
	}
	return nil
}

// ListByResult retrieves all feedback for a result, oldest first
func (r *FeedbackRepo) ListByResult(ctx context.Context, tenantID, resultID uuid.UUID) ([]*repository.ScreeningFeedback, error) {
	query := `
		SELECT id, tenant_id, result_id, rating, COALESCE(notes, ''), created_at
		FROM screening_feedback
		WHERE result_id = $1 AND tenant_id = $2
		ORDER BY created_at ASC
	`
	rows, err := r.db.Pool.Query(ctx, query, resultID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	defer rows.Close()

	var feedbacks []*repository.ScreeningFeedback
	for rows.Next() {
		var fb repository.ScreeningFeedback
		if err := rows.Scan(&fb.ID, &fb.TenantID, &fb.ResultID,
			&fb.Rating, &fb.Notes, &fb.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}
		feedbacks = append(feedbacks, &fb)
	}

	return feedbacks, nil
}

// Ensure FeedbackRepo implements the interface
var _ repository.FeedbackRepository = (*FeedbackRepo)(nil)
