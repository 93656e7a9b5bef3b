package models

import "time"

// Student is a school-owned record, optionally linked to a student login.
type Student struct {
	ID            string    `db:"id" json:"id"`
	UserID        *string   `db:"user_id" json:"user_id,omitempty"`
	StudentID     string    `db:"student_id" json:"student_id"`
	FullName      string    `db:"full_name" json:"full_name"`
	Class         string    `db:"class" json:"class"`
	Section       *string   `db:"section" json:"section,omitempty"`
	RollNumber    *string   `db:"roll_number" json:"roll_number,omitempty"`
	DateOfBirth   *Date     `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Gender        *string   `db:"gender" json:"gender,omitempty"`
	BloodGroup    *string   `db:"blood_group" json:"blood_group,omitempty"`
	Address       *string   `db:"address" json:"address,omitempty"`
	Phone         *string   `db:"phone" json:"phone,omitempty"`
	AdmissionDate *Date     `db:"admission_date" json:"admission_date,omitempty"`
	PhotoURL      *string   `db:"photo_url" json:"photo_url,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// StudentFilter captures list filters.
type StudentFilter struct {
	Class    string
	Search   string
	Page     int
	PageSize int
}

// Parent is a guardian account linked to zero or more students.
type Parent struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	FullName  string    `db:"full_name" json:"full_name"`
	Phone     *string   `db:"phone" json:"phone,omitempty"`
	Relation  *string   `db:"relation" json:"relation,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// StudentParent links a parent to a student.
type StudentParent struct {
	StudentID string  `db:"student_id" json:"student_id"`
	ParentID  string  `db:"parent_id" json:"parent_id"`
	Relation  *string `db:"relation" json:"relation,omitempty"`
}
