package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/school-portal-api/internal/models"
)

const studentColumns = `id, user_id, student_id, full_name, class, section, roll_number, date_of_birth, gender, blood_group, address, phone, admission_date, photo_url, created_at, updated_at`

// StudentRepository handles persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a new repository instance.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns students matching filter with the total count.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	baseQuery := `FROM students WHERE 1=1`
	var args []interface{}
	if filter.Class != "" {
		args = append(args, filter.Class)
		baseQuery += fmt.Sprintf(" AND class = $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		baseQuery += fmt.Sprintf(" AND (LOWER(full_name) LIKE $%d OR LOWER(student_id) LIKE $%d)", len(args), len(args))
	}

	limit, offset := pageBounds(filter.Page, filter.PageSize)
	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY class ASC, roll_number ASC NULLS LAST, full_name ASC LIMIT %d OFFSET %d", studentColumns, baseQuery, limit, offset)

	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+baseQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// FindByID returns a student by primary key.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find student: %w", err)
	}
	return &student, nil
}

// FindByUserID returns the student record linked to a login account.
func (r *StudentRepository) FindByUserID(ctx context.Context, userID string) (*models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE user_id = $1 LIMIT 1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find student by user: %w", err)
	}
	return &student, nil
}

// ExistsByStudentID checks whether the business key is taken, ignoring excludeID.
func (r *StudentRepository) ExistsByStudentID(ctx context.Context, studentID, excludeID string) (bool, error) {
	var exists bool
	const query = `SELECT EXISTS(SELECT 1 FROM students WHERE student_id = $1 AND ($2 = '' OR id::text <> $2))`
	if err := r.db.GetContext(ctx, &exists, query, studentID, excludeID); err != nil {
		return false, fmt.Errorf("check student id: %w", err)
	}
	return exists, nil
}

// ExistingIDs returns the subset of ids that reference stored students.
func (r *StudentRepository) ExistingIDs(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	const query = `SELECT id FROM students WHERE id = ANY($1::uuid[])`
	var found []string
	if err := r.db.SelectContext(ctx, &found, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("check student ids: %w", err)
	}
	return found, nil
}

// Create inserts a student. Duplicate student_id yields ErrDuplicate.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	return insertStudent(ctx, r.db, student)
}

// Update overwrites mutable fields. Returns sql.ErrNoRows when id is unknown.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET student_id = :student_id, full_name = :full_name, class = :class, section = :section,
roll_number = :roll_number, date_of_birth = :date_of_birth, gender = :gender, blood_group = :blood_group, address = :address,
phone = :phone, admission_date = :admission_date, photo_url = :photo_url, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, student)
	if err != nil {
		return wrapWrite("update student", err)
	}
	return expectAffected(res, "update student")
}

// Delete removes a student. Returns sql.ErrNoRows when id is unknown.
func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	return expectAffected(res, "delete student")
}

// Count returns the number of students.
func (r *StudentRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM students`); err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return total, nil
}

// Roster returns the slim projection of a class ordered by roll number.
func (r *StudentRepository) Roster(ctx context.Context, class string) ([]models.RosterStudent, error) {
	const query = `SELECT id, student_id, full_name, roll_number, photo_url FROM students WHERE class = $1 ORDER BY roll_number ASC NULLS LAST, full_name ASC`
	var roster []models.RosterStudent
	if err := r.db.SelectContext(ctx, &roster, query, class); err != nil {
		return nil, fmt.Errorf("class roster: %w", err)
	}
	return roster, nil
}

// ChildrenOfParentUser returns students linked to the parent owning userID.
func (r *StudentRepository) ChildrenOfParentUser(ctx context.Context, userID string) ([]models.Student, error) {
	query := `SELECT ` + prefixed("s", studentColumns) + ` FROM students s
JOIN student_parents sp ON sp.student_id = s.id
JOIN parents p ON p.id = sp.parent_id
WHERE p.user_id = $1
ORDER BY s.full_name ASC`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, userID); err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	return students, nil
}

func insertStudent(ctx context.Context, db sqlx.ExtContext, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	student.CreatedAt = now
	student.UpdatedAt = now
	const query = `INSERT INTO students (` + studentColumns + `) VALUES (:id, :user_id, :student_id, :full_name, :class, :section, :roll_number,
:date_of_birth, :gender, :blood_group, :address, :phone, :admission_date, :photo_url, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, db, query, student); err != nil {
		return wrapWrite("create student", err)
	}
	return nil
}

func expectAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func prefixed(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
