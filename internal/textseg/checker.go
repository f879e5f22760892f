package textseg

import (
	"strings"

	"github.com/hmtran/audiolesson/domain"
	"github.com/hmtran/audiolesson/domain/entities"
)

// GradeResult is the outcome of grading one attempt against a challenge.
type GradeResult struct {
	AllCorrect   bool                    `json:"all_correct"`
	WordResults  []domain.PositionResult `json:"word_results"`
	TotalWords   int                     `json:"total_words"`
	CorrectWords int                     `json:"correct_words"`
}

// Grade scores user answers position by position against acceptable-answer
// sets. The iteration deliberately runs to the longer of the two lists so
// feedback can point at exactly which positions are missing or extra: a
// missing user answer is reported incorrect with an empty answer, an extra
// user answer is reported incorrect with an empty acceptable set. AllCorrect
// holds only when both lists have equal length and every position matches.
func Grade(sets []entities.AnswerSet, userAnswers []string) GradeResult {
	result := GradeResult{
		AllCorrect: true,
		TotalWords: len(sets),
	}

	n := len(sets)
	if len(userAnswers) > n {
		n = len(userAnswers)
	}

	for i := 0; i < n; i++ {
		pos := domain.PositionResult{Index: i}
		if i < len(userAnswers) {
			pos.UserAnswer = userAnswers[i]
		}

		if i < len(sets) {
			pos.AcceptableAnswers = sets[i].Answers
			answer := strings.TrimSpace(pos.UserAnswer)
			for _, acceptable := range sets[i].Answers {
				if strings.EqualFold(acceptable, answer) {
					pos.Correct = true
					break
				}
			}
			if !pos.Correct {
				result.AllCorrect = false
			}
		} else {
			pos.AcceptableAnswers = []string{}
			result.AllCorrect = false
		}

		if pos.Correct {
			result.CorrectWords++
		}
		result.WordResults = append(result.WordResults, pos)
	}

	return result
}
