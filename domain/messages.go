package domain

import "github.com/hmtran/audiolesson/domain/entities"

// Topic names for the partitioned broker.
const (
	TopicTranscriptionRequests  = "transcription-requests"
	TopicTranscriptionCompleted = "transcription-completed"
	TopicAnswerGraded           = "answer-graded"
)

// TranscriptionRequestMessage asks a worker to transcribe one audio URL.
// Keyed by TranscriptionJobID.
type TranscriptionRequestMessage struct {
	TranscriptionJobID string `json:"transcription_job_id"`
	AudioURL           string `json:"audio_url"`
	LessonID           string `json:"lesson_id"`
	AlignmentJobID     string `json:"alignment_job_id"`
}

// TranscriptionCompletedMessage carries the raw transcript to the alignment
// worker. Keyed by the alignment job id.
type TranscriptionCompletedMessage struct {
	Text  string                    `json:"text"`
	Words []entities.TranscriptWord `json:"words"`
}

// AnswerGradedMessage is emitted after grading for progress tracking.
// Keyed by a random id.
type AnswerGradedMessage struct {
	ChallengeID  string             `json:"challenge_id"`
	LessonID     string             `json:"lesson_id"`
	FullSentence string             `json:"full_sentence"`
	AllCorrect   bool               `json:"all_correct"`
	WordResults  []PositionResult   `json:"word_results"`
	PassState    entities.PassState `json:"pass_state"`
	Username     string             `json:"username"`
}

// PositionResult is the grading outcome for a single token position.
type PositionResult struct {
	Index             int      `json:"index"`
	UserAnswer        string   `json:"user_answer"`
	AcceptableAnswers []string `json:"acceptable_answers"`
	Correct           bool     `json:"correct"`
}
