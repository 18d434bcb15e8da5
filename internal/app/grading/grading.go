// Package grading scores finished attempts.
package grading

import (
	"github.com/shopspring/decimal"

	"github.com/7rockstarmade/LogicModule/internal/domain/model"
)

var hundred = decimal.NewFromInt(100)

// IsCorrect reports whether a matches the key of the version it was frozen
// against. Unanswered slots are never correct.
func IsCorrect(a model.Answer, v *model.QuestionVersion) bool {
	return v != nil && a.Value != model.AnswerUnanswered && a.Value == v.CorrectIndex
}

// Score returns correct*100/total as an exact decimal. versions is keyed by
// question version id; an answer whose version is missing counts as wrong.
// An empty answer set scores zero.
func Score(answers []model.Answer, versions map[string]*model.QuestionVersion) decimal.Decimal {
	if len(answers) == 0 {
		return decimal.Zero
	}
	correct := 0
	for _, a := range answers {
		if IsCorrect(a, versions[a.QuestionVersionID]) {
			correct++
		}
	}
	return decimal.NewFromInt(int64(correct)).Mul(hundred).Div(decimal.NewFromInt(int64(len(answers))))
}
