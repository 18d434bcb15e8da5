package model

import "time"

const (
	NotificationCourseEnrolled   = "course_enrolled"
	NotificationCourseUnenrolled = "course_unenrolled"
	NotificationTestActive       = "test_active"
)

type Notification struct {
	ID        string                 `json:"id"`
	UserID    string                 `json:"user_id"`
	Message   string                 `json:"message"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}
