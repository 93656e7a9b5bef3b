package models

import "time"

// AttendanceStatus is the closed set of daily attendance outcomes.
type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "present"
	AttendanceStatusAbsent  AttendanceStatus = "absent"
	AttendanceStatusLate    AttendanceStatus = "late"
	AttendanceStatusExcused AttendanceStatus = "excused"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceStatusPresent, AttendanceStatusAbsent, AttendanceStatusLate, AttendanceStatusExcused:
		return true
	default:
		return false
	}
}

// AttendanceRecord is one stored row; at most one exists per (student_id, date).
type AttendanceRecord struct {
	ID        string           `db:"id" json:"id"`
	StudentID string           `db:"student_id" json:"student_id"`
	Date      Date             `db:"date" json:"date"`
	Status    AttendanceStatus `db:"status" json:"status"`
	Notes     *string          `db:"notes" json:"notes"`
	MarkedBy  *string          `db:"marked_by" json:"marked_by,omitempty"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt time.Time        `db:"updated_at" json:"updated_at"`
}

// AttendanceEntry is a validated upsert input row.
type AttendanceEntry struct {
	StudentID string
	Date      Date
	Status    AttendanceStatus
	Notes     *string
	MarkedBy  string
}

// AttendanceHistoryRow joins an attendance row with the student's identity.
type AttendanceHistoryRow struct {
	AttendanceRecord
	StudentCode string  `db:"student_code" json:"student_code"`
	StudentName string  `db:"student_name" json:"student_name"`
	Class       string  `db:"class" json:"class"`
	RollNumber  *string `db:"roll_number" json:"roll_number,omitempty"`
}

// AttendanceHistoryFilter bounds a history query. Both dates are inclusive.
type AttendanceHistoryFilter struct {
	StartDate Date
	EndDate   Date
	Class     string
	StudentID string
}

// RosterStudent is the slim student projection used on the marking screen.
type RosterStudent struct {
	ID         string  `db:"id" json:"id"`
	StudentID  string  `db:"student_id" json:"student_id"`
	FullName   string  `db:"full_name" json:"full_name"`
	RollNumber *string `db:"roll_number" json:"roll_number,omitempty"`
	PhotoURL   *string `db:"photo_url" json:"photo_url,omitempty"`
}

// ClassRoster is the marking screen payload for one class and date.
type ClassRoster struct {
	Students           []RosterStudent    `json:"students"`
	ExistingAttendance []AttendanceRecord `json:"existingAttendance"`
}

// AttendanceSummary aggregates a student's attendance.
type AttendanceSummary struct {
	Present    int `json:"present"`
	Absent     int `json:"absent"`
	Late       int `json:"late"`
	Excused    int `json:"excused"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}
