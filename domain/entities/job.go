package entities

import (
	"errors"
	"time"
)

// JobKind distinguishes the two chained job records of the pipeline.
type JobKind string

const (
	JobKindTranscription JobKind = "transcription"
	JobKindAlignment     JobKind = "alignment"
)

// JobStatus is the lifecycle state of an async job.
type JobStatus string

const (
	JobStatusPending    JobStatus = "PENDING"
	JobStatusProcessing JobStatus = "PROCESSING"
	JobStatusCompleted  JobStatus = "COMPLETED"
	// JobStatusError is the terminal failure state of a transcription job.
	JobStatusError JobStatus = "ERROR"
	// JobStatusFailed is the terminal failure state of an alignment job.
	JobStatusFailed JobStatus = "FAILED"
)

// IsTerminal reports whether a job in this status can never transition again.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusError || s == JobStatusFailed
}

// Job is a durable record tracking one asynchronous unit of work. Both job
// kinds share the same transition shape (PENDING -> PROCESSING -> terminal),
// so a single record carries either a transcription job (AudioURL, Result)
// or an alignment job (RawPayload, ProcessedAt).
type Job struct {
	JobID       string     `json:"job_id" bson:"job_id"`
	Kind        JobKind    `json:"kind" bson:"kind"`
	LessonID    string     `json:"lesson_id" bson:"lesson_id"`
	AudioURL    string     `json:"audio_url,omitempty" bson:"audio_url,omitempty"`
	Status      JobStatus  `json:"status" bson:"status"`
	Result      string     `json:"result,omitempty" bson:"result,omitempty"`
	RawPayload  []byte     `json:"raw_payload,omitempty" bson:"raw_payload,omitempty"`
	Error       string     `json:"error,omitempty" bson:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" bson:"updated_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty" bson:"processed_at,omitempty"`
}

// NewTranscriptionJob creates a pending transcription job for an audio URL.
func NewTranscriptionJob(jobID, lessonID, audioURL string) *Job {
	now := time.Now()
	return &Job{
		JobID:     jobID,
		Kind:      JobKindTranscription,
		LessonID:  lessonID,
		AudioURL:  audioURL,
		Status:    JobStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewAlignmentJob creates a pending alignment job carrying the raw
// transcript payload produced by the transcription step.
func NewAlignmentJob(jobID, lessonID string, payload []byte) *Job {
	now := time.Now()
	return &Job{
		JobID:      jobID,
		Kind:       JobKindAlignment,
		LessonID:   lessonID,
		Status:     JobStatusPending,
		RawPayload: payload,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func (j *Job) Validate() error {
	if j.JobID == "" {
		return errors.New("job id is required")
	}
	if j.Kind != JobKindTranscription && j.Kind != JobKindAlignment {
		return errors.New("unknown job kind")
	}
	return nil
}

// CanTransition reports whether moving to next is a legal status change.
// Terminal states absorb every further transition.
func (j *Job) CanTransition(next JobStatus) bool {
	if j.Status.IsTerminal() {
		return false
	}
	switch j.Status {
	case JobStatusPending:
		return next == JobStatusProcessing || next.IsTerminal()
	case JobStatusProcessing:
		return next.IsTerminal()
	}
	return false
}
