package usecase

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hmtran/audiolesson/domain"
	"github.com/hmtran/audiolesson/domain/entities"
	"github.com/hmtran/audiolesson/domain/repositories"
)

// StatusNotifier receives job status transitions, e.g. for the websocket
// feed. Implementations must not block.
type StatusNotifier interface {
	NotifyJobStatus(jobID string, kind entities.JobKind, status entities.JobStatus)
}

// TranscriptionService owns the first pipeline hop: it accepts submissions
// on the request path and consumes transcription-requests on a worker.
type TranscriptionService struct {
	jobs        repositories.JobRepository
	transcriber repositories.Transcriber
	publisher   repositories.Publisher
	notifier    StatusNotifier
	logger      *zap.Logger
}

// NewTranscriptionService creates the transcription coordinator. notifier
// may be nil.
func NewTranscriptionService(
	jobs repositories.JobRepository,
	transcriber repositories.Transcriber,
	publisher repositories.Publisher,
	notifier StatusNotifier,
	logger *zap.Logger,
) *TranscriptionService {
	return &TranscriptionService{
		jobs:        jobs,
		transcriber: transcriber,
		publisher:   publisher,
		notifier:    notifier,
		logger:      logger,
	}
}

// Submit creates a pending transcription job, pre-allocates the alignment
// job id, and publishes the request message. Returns both job ids.
func (s *TranscriptionService) Submit(ctx context.Context, lessonID, audioURL string) (string, string, error) {
	transcriptionJobID := uuid.NewString()
	alignmentJobID := uuid.NewString()

	job := entities.NewTranscriptionJob(transcriptionJobID, lessonID, audioURL)
	if err := s.jobs.Create(ctx, job); err != nil {
		return "", "", err
	}
	s.notify(transcriptionJobID, entities.JobKindTranscription, entities.JobStatusPending)

	payload, err := json.Marshal(domain.TranscriptionRequestMessage{
		TranscriptionJobID: transcriptionJobID,
		AudioURL:           audioURL,
		LessonID:           lessonID,
		AlignmentJobID:     alignmentJobID,
	})
	if err != nil {
		return "", "", err
	}

	if err := s.publisher.Publish(domain.TopicTranscriptionRequests, transcriptionJobID, payload); err != nil {
		failErr := s.jobs.Fail(ctx, transcriptionJobID, entities.JobStatusError,
			"failed to publish transcription request: "+err.Error())
		if failErr != nil {
			s.logger.Error("Failed to record publish failure",
				zap.String("jobID", transcriptionJobID), zap.Error(failErr))
		}
		return "", "", err
	}

	s.logger.Info("Transcription job submitted",
		zap.String("transcriptionJobID", transcriptionJobID),
		zap.String("alignmentJobID", alignmentJobID),
		zap.String("audioURL", audioURL))

	return transcriptionJobID, alignmentJobID, nil
}

// GetStatus returns the job record for a status query.
func (s *TranscriptionService) GetStatus(ctx context.Context, jobID string) (*entities.Job, error) {
	return s.jobs.GetByJobID(ctx, jobID)
}

// GetResult returns the transcript text of a completed job, or empty when
// the job has not completed.
func (s *TranscriptionService) GetResult(ctx context.Context, jobID string) (string, error) {
	job, err := s.jobs.GetByJobID(ctx, jobID)
	if err != nil {
		return "", err
	}
	if job.Status != entities.JobStatusCompleted {
		return "", nil
	}
	return job.Result, nil
}

// HandleRequest consumes one transcription-requests message. The atomic
// PENDING->PROCESSING transition is the idempotency guard: redelivered
// copies lose the conditional update and are dropped without touching the
// record.
func (s *TranscriptionService) HandleRequest(key string, value []byte) {
	ctx := context.Background()

	var msg domain.TranscriptionRequestMessage
	if err := json.Unmarshal(value, &msg); err != nil {
		s.logger.Error("Failed to decode transcription request",
			zap.String("jobID", key), zap.Error(err))
		return
	}

	won, err := s.jobs.MarkProcessing(ctx, key)
	if err != nil {
		if errors.Is(err, entities.ErrJobNotFound) {
			s.logger.Warn("Transcription request for unknown job", zap.String("jobID", key))
			return
		}
		s.logger.Error("Failed to claim transcription job",
			zap.String("jobID", key), zap.Error(err))
		return
	}
	if !won {
		s.logger.Info("Dropping redelivered transcription request", zap.String("jobID", key))
		return
	}
	s.notify(key, entities.JobKindTranscription, entities.JobStatusProcessing)

	transcript, err := s.transcriber.Transcribe(ctx, msg.AudioURL)
	if err != nil {
		s.failJob(ctx, key, entities.JobKindTranscription, entities.JobStatusError, err.Error())
		return
	}

	payload, err := json.Marshal(domain.TranscriptionCompletedMessage{
		Text:  transcript.Text,
		Words: transcript.Words,
	})
	if err != nil {
		s.failJob(ctx, key, entities.JobKindTranscription, entities.JobStatusError,
			"failed to encode transcript payload: "+err.Error())
		return
	}

	alignmentJob := entities.NewAlignmentJob(msg.AlignmentJobID, msg.LessonID, payload)
	if err := s.jobs.Create(ctx, alignmentJob); err != nil {
		s.failJob(ctx, key, entities.JobKindTranscription, entities.JobStatusError,
			"failed to create alignment job: "+err.Error())
		return
	}
	s.notify(msg.AlignmentJobID, entities.JobKindAlignment, entities.JobStatusPending)

	if err := s.publisher.Publish(domain.TopicTranscriptionCompleted, msg.AlignmentJobID, payload); err != nil {
		// The alignment job was already created; without its message it
		// would sit PENDING forever, so fail it along with this one.
		s.failJob(ctx, msg.AlignmentJobID, entities.JobKindAlignment, entities.JobStatusFailed,
			"transcript was never delivered: "+err.Error())
		s.failJob(ctx, key, entities.JobKindTranscription, entities.JobStatusError,
			"failed to publish transcript: "+err.Error())
		return
	}

	if err := s.jobs.Complete(ctx, key, transcript.Text); err != nil {
		s.logger.Error("Failed to complete transcription job",
			zap.String("jobID", key), zap.Error(err))
		return
	}
	s.notify(key, entities.JobKindTranscription, entities.JobStatusCompleted)

	s.logger.Info("Transcription job completed",
		zap.String("jobID", key),
		zap.Int("words", len(transcript.Words)))
}

func (s *TranscriptionService) failJob(ctx context.Context, jobID string, kind entities.JobKind, status entities.JobStatus, errMsg string) {
	if err := s.jobs.Fail(ctx, jobID, status, errMsg); err != nil {
		s.logger.Error("Failed to record job failure",
			zap.String("jobID", jobID), zap.Error(err))
		return
	}
	s.notify(jobID, kind, status)
	s.logger.Warn("Job failed",
		zap.String("jobID", jobID),
		zap.String("status", string(status)),
		zap.String("error", errMsg))
}

func (s *TranscriptionService) notify(jobID string, kind entities.JobKind, status entities.JobStatus) {
	if s.notifier != nil {
		s.notifier.NotifyJobStatus(jobID, kind, status)
	}
}
