package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-portal-api/internal/models"
)

// TimetableRepository reads class schedules.
type TimetableRepository struct {
	db *sqlx.DB
}

// NewTimetableRepository constructs the repository.
func NewTimetableRepository(db *sqlx.DB) *TimetableRepository {
	return &TimetableRepository{db: db}
}

// ForClass lists a class's periods ordered by weekday then period. A nil
// section matches every section of the class.
func (r *TimetableRepository) ForClass(ctx context.Context, class string, section *string) ([]models.TimetableEntry, error) {
	const query = `SELECT t.id, t.class, t.section, t.day_of_week, t.period_number, t.subject, u.full_name AS teacher_name, t.room_number,
to_char(t.start_time, 'HH24:MI') AS start_time, to_char(t.end_time, 'HH24:MI') AS end_time
FROM timetable t LEFT JOIN users u ON u.id = t.teacher_id
WHERE t.class = $1 AND ($2::text IS NULL OR t.section = $2)
ORDER BY t.day_of_week, t.period_number`
	var entries []models.TimetableEntry
	if err := r.db.SelectContext(ctx, &entries, query, class, section); err != nil {
		return nil, fmt.Errorf("list timetable: %w", err)
	}
	return entries, nil
}
