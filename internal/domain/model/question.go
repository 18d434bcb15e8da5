package model

import "time"

type Question struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	IsDeleted bool      `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// QuestionVersion is an immutable revision of a question. Attempts pin
// version rows, so rows are never updated or deleted once written.
type QuestionVersion struct {
	ID           string    `json:"id"`
	QuestionID   string    `json:"question_id"`
	Version      int       `json:"version"`
	Title        string    `json:"title"`
	Text         string    `json:"text"`
	Options      []string  `json:"options"`
	CorrectIndex int       `json:"correct_index"`
	CreatedAt    time.Time `json:"created_at"`
}

// ValidOption reports whether idx addresses one of the version's options.
func (v *QuestionVersion) ValidOption(idx int) bool {
	return idx >= 0 && idx < len(v.Options)
}

// QuestionDetails is a version as served to readers. CorrectIndex is nil
// when the reader may see the content but not the key.
type QuestionDetails struct {
	ID           string    `json:"id"`
	QuestionID   string    `json:"question_id"`
	Version      int       `json:"version"`
	AuthorID     string    `json:"author_id"`
	Title        string    `json:"title"`
	Text         string    `json:"text"`
	Options      []string  `json:"options"`
	CorrectIndex *int      `json:"correct_index,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func NewQuestionDetails(q *Question, v *QuestionVersion, withKey bool) *QuestionDetails {
	d := &QuestionDetails{
		ID:         v.ID,
		QuestionID: q.ID,
		Version:    v.Version,
		AuthorID:   q.AuthorID,
		Title:      v.Title,
		Text:       v.Text,
		Options:    append([]string(nil), v.Options...),
		CreatedAt:  v.CreatedAt,
	}
	if withKey {
		idx := v.CorrectIndex
		d.CorrectIndex = &idx
	}
	return d
}
