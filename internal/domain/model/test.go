package model

import "time"

type Test struct {
	ID        string    `json:"id"`
	CourseID  string    `json:"course_id"`
	Title     string    `json:"title"`
	IsActive  bool      `json:"is_active"`
	IsDeleted bool      `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// TestQuestion links a question into a test. Positions are dense, 0..n-1.
type TestQuestion struct {
	TestID     string `json:"test_id"`
	QuestionID string `json:"question_id"`
	Position   int    `json:"position"`
}
