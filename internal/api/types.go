package api

// SubmitTranscriptRequest starts the transcription pipeline for one lesson
// audio track.
type SubmitTranscriptRequest struct {
	AudioURL string `json:"audio_url"`
	LessonID string `json:"lesson_id"`
}

// SubmitTranscriptResponse returns both pre-allocated job ids.
type SubmitTranscriptResponse struct {
	TranscriptionJobID string `json:"transcription_job_id"`
	AlignmentJobID     string `json:"alignment_job_id"`
}

// JobStatusResponse reports the state of one job.
type JobStatusResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// AddChallengesRequest carries a lesson answer key, one numbered line per
// challenge.
type AddChallengesRequest struct {
	AnswerKey string `json:"answer_key"`
}

// CheckRequest grades a user's dictation attempt for one challenge.
type CheckRequest struct {
	LessonID    string   `json:"lesson_id"`
	OrderIndex  int      `json:"order_index"`
	UserAnswers []string `json:"user_answers"`
}

// TokenRequest issues a signed token for a username.
type TokenRequest struct {
	Username string `json:"username"`
}

// ErrorResponse is the common error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
