package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-portal-api/internal/models"
)

// RegistrationRepository creates a login account together with its profile
// rows in one transaction, so a failure never leaves an orphaned account.
type RegistrationRepository struct {
	db *sqlx.DB
}

// NewRegistrationRepository constructs a registration repository.
func NewRegistrationRepository(db *sqlx.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// CreateStudentAccount inserts the user and its linked student record.
func (r *RegistrationRepository) CreateStudentAccount(ctx context.Context, user *models.User, student *models.Student) error {
	return inTx(ctx, r.db, "register student", func(tx *sqlx.Tx) error {
		if err := insertUser(ctx, tx, user); err != nil {
			return err
		}
		student.UserID = &user.ID
		return insertStudent(ctx, tx, student)
	})
}

// CreateParentAccount inserts the user, the parent profile and, when link is
// non-nil, the student_parents row.
func (r *RegistrationRepository) CreateParentAccount(ctx context.Context, user *models.User, parent *models.Parent, link *models.StudentParent) error {
	return inTx(ctx, r.db, "register parent", func(tx *sqlx.Tx) error {
		if err := insertUser(ctx, tx, user); err != nil {
			return err
		}
		if parent.ID == "" {
			parent.ID = uuid.NewString()
		}
		parent.UserID = user.ID
		parent.CreatedAt = time.Now().UTC()
		const parentQuery = `INSERT INTO parents (id, user_id, full_name, phone, relation, created_at) VALUES (:id, :user_id, :full_name, :phone, :relation, :created_at)`
		if _, err := sqlx.NamedExecContext(ctx, tx, parentQuery, parent); err != nil {
			return wrapWrite("create parent", err)
		}
		if link == nil {
			return nil
		}
		link.ParentID = parent.ID
		const linkQuery = `INSERT INTO student_parents (student_id, parent_id, relation) VALUES (:student_id, :parent_id, :relation)`
		if _, err := sqlx.NamedExecContext(ctx, tx, linkQuery, link); err != nil {
			return wrapWrite("link parent to student", err)
		}
		return nil
	})
}
