package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type TestResultUser struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
}

type TestGrade struct {
	AttemptID  string              `json:"attempt_id"`
	UserID     string              `json:"user_id"`
	FinishedAt *time.Time          `json:"finished_at"`
	Score      decimal.NullDecimal `json:"score"`
}

type TestAnswerItem struct {
	AnswerID          string `json:"answer_id"`
	QuestionID        string `json:"question_id"`
	QuestionVersionID string `json:"question_version_id"`
	Value             int    `json:"value"`
	CorrectIndex      int    `json:"correct_index"`
	IsCorrect         bool   `json:"is_correct"`
}

type TestAttemptAnswers struct {
	TestGrade
	Answers []TestAnswerItem `json:"answers"`
}
