package models

import (
	"time"

	"github.com/lib/pq"
)

// Audience is a target group for announcements.
type Audience string

const (
	AudienceAll      Audience = "all"
	AudienceStudents Audience = "students"
	AudienceParents  Audience = "parents"
	AudienceTeachers Audience = "teachers"
)

// Valid reports whether a is a known audience.
func (a Audience) Valid() bool {
	switch a {
	case AudienceAll, AudienceStudents, AudienceParents, AudienceTeachers:
		return true
	}
	return false
}

// AudienceFor maps a role to the announcement audience it reads.
func AudienceFor(role Role) Audience {
	switch role {
	case RoleParent:
		return AudienceParents
	case RoleStudent:
		return AudienceStudents
	case RoleTeacher:
		return AudienceTeachers
	}
	return AudienceAll
}

// AnnouncementPriority orders announcements for display.
type AnnouncementPriority string

const (
	PriorityLow    AnnouncementPriority = "low"
	PriorityMedium AnnouncementPriority = "medium"
	PriorityHigh   AnnouncementPriority = "high"
	PriorityUrgent AnnouncementPriority = "urgent"
)

// Announcement is a school notice targeted at one or more audiences.
type Announcement struct {
	ID             string               `db:"id" json:"id"`
	Title          string               `db:"title" json:"title"`
	Content        string               `db:"content" json:"content"`
	Priority       AnnouncementPriority `db:"priority" json:"priority"`
	TargetAudience pq.StringArray       `db:"target_audience" json:"target_audience"`
	Published      bool                 `db:"published" json:"published"`
	PublishDate    *time.Time           `db:"publish_date" json:"publish_date,omitempty"`
	AuthorID       *string              `db:"author_id" json:"author_id,omitempty"`
	CreatedAt      time.Time            `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time            `db:"updated_at" json:"updated_at"`
}

// AnnouncementFilter captures listing filters.
type AnnouncementFilter struct {
	Audience      *Audience
	PublishedOnly bool
	Limit         int
	Offset        int
}
