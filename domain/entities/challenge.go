package entities

import "errors"

// PassState tracks whether a user has attempted a challenge.
type PassState int

const (
	PassStateUntried PassState = 0
	PassStatePassed  PassState = 1
	PassStateFailed  PassState = -1
)

// AnswerSet is the set of acceptable strings for one token position of a
// sentence. Index is the token position; Answers always contains at least
// the literal token.
type AnswerSet struct {
	Index   int      `json:"index" bson:"index"`
	Answers []string `json:"acceptable_answers" bson:"acceptable_answers"`
}

// Challenge is one target sentence within a lesson. StartTimeMs/EndTimeMs
// are written only by a successful alignment run.
type Challenge struct {
	ID           string      `json:"id" bson:"challenge_id"`
	LessonID     string      `json:"lesson_id" bson:"lesson_id"`
	OrderIndex   int         `json:"order_index" bson:"order_index"`
	FullSentence string      `json:"full_sentence" bson:"full_sentence"`
	WordData     []AnswerSet `json:"word_data" bson:"word_data"`
	StartTimeMs  int         `json:"start_time_ms" bson:"start_time_ms"`
	EndTimeMs    int         `json:"end_time_ms" bson:"end_time_ms"`
	PassState    PassState   `json:"pass_state" bson:"pass_state"`
}

func (c *Challenge) Validate() error {
	if c.LessonID == "" {
		return errors.New("lesson id is required")
	}
	if c.FullSentence == "" {
		return errors.New("full sentence is required")
	}
	if c.OrderIndex < 1 {
		return errors.New("order index must be positive")
	}
	return nil
}
