package models

import "time"

// User is a login-capable account stored in the users table.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	Role         Role       `db:"role" json:"role"`
	Active       bool       `db:"active" json:"active"`
	LastLoginAt  *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Principal is the authenticated identity attached to a request.
type Principal struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     Role   `json:"role"`
}

// Principal projects the stored user into a request principal.
func (u User) Principal() Principal {
	return Principal{ID: u.ID, Email: u.Email, FullName: u.FullName, Role: u.Role}
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role     *Role
	Search   string
	Page     int
	PageSize int
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// NewPagination normalises page inputs.
func NewPagination(page, size, total int) Pagination {
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	return Pagination{Page: page, PageSize: size, TotalCount: total}
}
