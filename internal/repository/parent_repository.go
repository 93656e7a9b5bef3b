package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-portal-api/internal/models"
)

// ParentRepository reads parent profiles and their student links.
type ParentRepository struct {
	db *sqlx.DB
}

// NewParentRepository constructs a parent repository.
func NewParentRepository(db *sqlx.DB) *ParentRepository {
	return &ParentRepository{db: db}
}

// FindByUserID returns the parent profile for a login account.
func (r *ParentRepository) FindByUserID(ctx context.Context, userID string) (*models.Parent, error) {
	const query = `SELECT id, user_id, full_name, phone, relation, created_at FROM parents WHERE user_id = $1`
	var parent models.Parent
	if err := r.db.GetContext(ctx, &parent, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find parent: %w", err)
	}
	return &parent, nil
}

// Count returns the number of parent profiles.
func (r *ParentRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM parents`); err != nil {
		return 0, fmt.Errorf("count parents: %w", err)
	}
	return total, nil
}
