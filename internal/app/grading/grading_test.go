package grading

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/7rockstarmade/LogicModule/internal/domain/model"
)

func versions(keys ...int) map[string]*model.QuestionVersion {
	out := map[string]*model.QuestionVersion{}
	for i, k := range keys {
		id := string(rune('a' + i))
		out[id] = &model.QuestionVersion{ID: id, Options: []string{"x", "y", "z"}, CorrectIndex: k}
	}
	return out
}

func answers(values ...int) []model.Answer {
	out := make([]model.Answer, len(values))
	for i, v := range values {
		out[i] = model.Answer{ID: "ans" + string(rune('a'+i)), QuestionVersionID: string(rune('a' + i)), Value: v}
	}
	return out
}

func TestScore(t *testing.T) {
	tests := []struct {
		name    string
		answers []model.Answer
		keys    []int
		want    string
	}{
		{"three of four", answers(0, 1, 2, 0), []int{0, 1, 2, 1}, "75"},
		{"all correct", answers(2, 2), []int{2, 2}, "100"},
		{"unanswered is wrong", answers(-1, -1), []int{0, 0}, "0"},
		{"one of three", answers(1, 0, 0), []int{1, 2, 2}, "33.3333333333333333"},
		{"empty", nil, nil, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.answers, versions(tt.keys...))
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestScoreMissingVersionCountsWrong(t *testing.T) {
	got := Score(answers(0, 0), map[string]*model.QuestionVersion{
		"a": {ID: "a", Options: []string{"x", "y"}, CorrectIndex: 0},
	})
	assert.True(t, decimal.NewFromInt(50).Equal(got))
}

func TestIsCorrect(t *testing.T) {
	v := &model.QuestionVersion{Options: []string{"x", "y"}, CorrectIndex: 1}
	assert.True(t, IsCorrect(model.Answer{Value: 1}, v))
	assert.False(t, IsCorrect(model.Answer{Value: 0}, v))
	assert.False(t, IsCorrect(model.Answer{Value: model.AnswerUnanswered}, v))
	assert.False(t, IsCorrect(model.Answer{Value: 1}, nil))
}
