package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-portal-api/internal/models"
)

// MarkRepository reads exam results.
type MarkRepository struct {
	db *sqlx.DB
}

// NewMarkRepository constructs the repository.
func NewMarkRepository(db *sqlx.DB) *MarkRepository {
	return &MarkRepository{db: db}
}

// ListByStudent returns the most recent marks of a student.
func (r *MarkRepository) ListByStudent(ctx context.Context, studentID string, limit int) ([]models.Mark, error) {
	if limit <= 0 {
		limit = 10
	}
	const query = `SELECT id, student_id, subject, exam_name, exam_date, marks_obtained, total_marks, grade, created_at
FROM marks WHERE student_id = $1 ORDER BY exam_date DESC NULLS LAST, created_at DESC LIMIT $2`
	var marks []models.Mark
	if err := r.db.SelectContext(ctx, &marks, query, studentID, limit); err != nil {
		return nil, fmt.Errorf("list marks: %w", err)
	}
	return marks, nil
}
