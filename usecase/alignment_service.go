package usecase

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/hmtran/audiolesson/domain"
	"github.com/hmtran/audiolesson/domain/entities"
	"github.com/hmtran/audiolesson/domain/repositories"
	"github.com/hmtran/audiolesson/internal/align"
)

// AlignmentService owns the second pipeline hop: it consumes
// transcription-completed messages and writes per-challenge timings.
type AlignmentService struct {
	jobs       repositories.JobRepository
	challenges repositories.ChallengeRepository
	notifier   StatusNotifier
	logger     *zap.Logger
}

// NewAlignmentService creates the alignment consumer. notifier may be nil.
func NewAlignmentService(
	jobs repositories.JobRepository,
	challenges repositories.ChallengeRepository,
	notifier StatusNotifier,
	logger *zap.Logger,
) *AlignmentService {
	return &AlignmentService{
		jobs:       jobs,
		challenges: challenges,
		notifier:   notifier,
		logger:     logger,
	}
}

// HandleTranscriptionCompleted consumes one transcription-completed message,
// keyed by the alignment job id. The aligner runs against the payload stored
// on the job record rather than the message body, so a redelivered message
// and the stored record can never disagree.
func (s *AlignmentService) HandleTranscriptionCompleted(key string, value []byte) {
	ctx := context.Background()

	job, err := s.jobs.GetByJobID(ctx, key)
	if err != nil {
		if errors.Is(err, entities.ErrJobNotFound) {
			s.logger.Warn("Transcript for unknown alignment job", zap.String("jobID", key))
			return
		}
		s.logger.Error("Failed to load alignment job", zap.String("jobID", key), zap.Error(err))
		return
	}

	won, err := s.jobs.MarkProcessing(ctx, key)
	if err != nil {
		s.logger.Error("Failed to claim alignment job", zap.String("jobID", key), zap.Error(err))
		return
	}
	if !won {
		s.logger.Info("Dropping redelivered transcript", zap.String("jobID", key))
		return
	}
	s.notify(key, entities.JobStatusProcessing)

	var transcript domain.TranscriptionCompletedMessage
	if err := json.Unmarshal(job.RawPayload, &transcript); err != nil {
		s.fail(ctx, key, "failed to decode transcript payload: "+err.Error())
		return
	}

	challenges, err := s.challenges.GetByLessonID(ctx, job.LessonID)
	if err != nil {
		s.fail(ctx, key, "failed to load challenges: "+err.Error())
		return
	}
	if len(challenges) == 0 {
		s.fail(ctx, key, "no challenges found for lesson "+job.LessonID)
		return
	}

	sentences := make([]string, len(challenges))
	for i, challenge := range challenges {
		sentences[i] = challenge.FullSentence
	}

	matches := align.Sentences(sentences, transcript.Words)

	matched := 0
	firstUnmatched := ""
	for _, challenge := range challenges {
		match, ok := matches[challenge.FullSentence]
		if !ok {
			if firstUnmatched == "" {
				firstUnmatched = challenge.FullSentence
			}
			continue
		}
		if err := s.challenges.UpdateTiming(ctx, challenge.ID, match.StartMs, match.EndMs); err != nil {
			s.logger.Error("Failed to persist challenge timing",
				zap.String("challengeID", challenge.ID), zap.Error(err))
			continue
		}
		matched++
	}

	if matched == 0 {
		s.fail(ctx, key, "no match found for sentence: "+firstUnmatched)
		return
	}

	if err := s.jobs.Complete(ctx, key, ""); err != nil {
		s.logger.Error("Failed to complete alignment job", zap.String("jobID", key), zap.Error(err))
		return
	}
	s.notify(key, entities.JobStatusCompleted)

	s.logger.Info("Alignment job completed",
		zap.String("jobID", key),
		zap.String("lessonID", job.LessonID),
		zap.Int("matched", matched),
		zap.Int("unmatched", len(challenges)-matched))
}

func (s *AlignmentService) fail(ctx context.Context, jobID, errMsg string) {
	if err := s.jobs.Fail(ctx, jobID, entities.JobStatusFailed, errMsg); err != nil {
		s.logger.Error("Failed to record alignment failure",
			zap.String("jobID", jobID), zap.Error(err))
		return
	}
	s.notify(jobID, entities.JobStatusFailed)
	s.logger.Warn("Alignment job failed",
		zap.String("jobID", jobID),
		zap.String("error", errMsg))
}

func (s *AlignmentService) notify(jobID string, status entities.JobStatus) {
	if s.notifier != nil {
		s.notifier.NotifyJobStatus(jobID, entities.JobKindAlignment, status)
	}
}
