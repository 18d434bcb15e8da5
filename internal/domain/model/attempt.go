package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptFinished   AttemptStatus = "finished"
)

// AnswerUnanswered is the value of an answer slot nobody has filled.
const AnswerUnanswered = -1

type Attempt struct {
	ID         string              `json:"id"`
	UserID     string              `json:"user_id"`
	TestID     string              `json:"test_id"`
	Status     AttemptStatus       `json:"status"`
	StartedAt  time.Time           `json:"started_at"`
	FinishedAt *time.Time          `json:"finished_at,omitempty"`
	Score      decimal.NullDecimal `json:"score"`
}

func (a *Attempt) IsFinished() bool { return a.Status == AttemptFinished }

// AttemptQuestion freezes the version a question had when the attempt began.
type AttemptQuestion struct {
	AttemptID         string `json:"attempt_id"`
	QuestionID        string `json:"question_id"`
	QuestionVersionID string `json:"question_version_id"`
	Position          int    `json:"position"`
}

type Answer struct {
	ID                string `json:"id"`
	AttemptID         string `json:"attempt_id"`
	QuestionID        string `json:"question_id"`
	QuestionVersionID string `json:"question_version_id"`
	Value             int    `json:"value"`
}

// AttemptItem is one frozen question of an attempt together with its answer
// slot. The correct index is never part of it.
type AttemptItem struct {
	Position          int      `json:"position"`
	QuestionID        string   `json:"question_id"`
	QuestionVersionID string   `json:"question_version_id"`
	Version           int      `json:"version"`
	Title             string   `json:"title"`
	Text              string   `json:"text"`
	Options           []string `json:"options"`
	AnswerID          string   `json:"answer_id"`
	Value             int      `json:"value"`
}

type AttemptDetails struct {
	Attempt
	Items []AttemptItem `json:"items"`
}
