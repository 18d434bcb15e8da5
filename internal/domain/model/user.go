package model

import (
	"time"
)

const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	FullName  string    `json:"full_name"`
	Email     *string   `json:"email,omitempty"`
	IsBlocked bool      `json:"is_blocked"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"created_at"`
}

// CurrentUser is the caller identity bundle decoded from a verified token.
// It is trusted as-is; only ID, Roles, Permissions and Blocked drive access.
type CurrentUser struct {
	ID          string   `json:"id"`
	Username    string   `json:"username"`
	FullName    string   `json:"full_name"`
	Email       string   `json:"email,omitempty"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
	Blocked     bool     `json:"blocked"`
}

type UserBasicInfo struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
}

type UserData struct {
	ID            string   `json:"id"`
	Username      string   `json:"username"`
	FullName      string   `json:"full_name"`
	Email         *string  `json:"email,omitempty"`
	IsBlocked     bool     `json:"is_blocked"`
	Roles         []string `json:"roles"`
	CoursesCount  int      `json:"courses_count"`
	AttemptsCount int      `json:"attempts_count"`
}
