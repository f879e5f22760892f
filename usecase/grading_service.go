package usecase

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hmtran/audiolesson/domain"
	"github.com/hmtran/audiolesson/domain/entities"
	"github.com/hmtran/audiolesson/domain/repositories"
	"github.com/hmtran/audiolesson/internal/textseg"
)

// GradeOutcome is the full grading response for one attempt.
type GradeOutcome struct {
	ChallengeID  string `json:"challenge_id"`
	LessonID     string `json:"lesson_id"`
	FullSentence string `json:"full_sentence"`
	textseg.GradeResult
	PassState entities.PassState `json:"pass_state"`
}

// GradingService grades free-text dictation attempts. Grading runs
// synchronously on the request path; only the progress event is async.
type GradingService struct {
	challenges repositories.ChallengeRepository
	publisher  repositories.Publisher
	logger     *zap.Logger
}

func NewGradingService(
	challenges repositories.ChallengeRepository,
	publisher repositories.Publisher,
	logger *zap.Logger,
) *GradingService {
	return &GradingService{
		challenges: challenges,
		publisher:  publisher,
		logger:     logger,
	}
}

// Check grades user answers against the challenge's stored acceptable-answer
// sets.
func (s *GradingService) Check(ctx context.Context, lessonID string, orderIndex int, userAnswers []string) (*GradeOutcome, error) {
	challenge, err := s.challenges.GetByLessonAndOrder(ctx, lessonID, orderIndex)
	if err != nil {
		return nil, err
	}

	result := textseg.Grade(challenge.WordData, userAnswers)

	passState := entities.PassStateFailed
	if result.AllCorrect {
		passState = entities.PassStatePassed
	}

	return &GradeOutcome{
		ChallengeID:  challenge.ID,
		LessonID:     lessonID,
		FullSentence: challenge.FullSentence,
		GradeResult:  result,
		PassState:    passState,
	}, nil
}

// CheckForUser grades on behalf of an authenticated user and emits the
// graded event for progress tracking, keyed by a fresh random id. A publish
// failure is logged but does not fail the grading response.
func (s *GradingService) CheckForUser(ctx context.Context, lessonID string, orderIndex int, userAnswers []string, username string) (*GradeOutcome, error) {
	outcome, err := s.Check(ctx, lessonID, orderIndex, userAnswers)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(domain.AnswerGradedMessage{
		ChallengeID:  outcome.ChallengeID,
		LessonID:     outcome.LessonID,
		FullSentence: outcome.FullSentence,
		AllCorrect:   outcome.AllCorrect,
		WordResults:  outcome.WordResults,
		PassState:    outcome.PassState,
		Username:     username,
	})
	if err != nil {
		return nil, err
	}

	if err := s.publisher.Publish(domain.TopicAnswerGraded, uuid.NewString(), payload); err != nil {
		s.logger.Error("Failed to publish graded event",
			zap.String("challengeID", outcome.ChallengeID),
			zap.String("username", username),
			zap.Error(err))
	}

	return outcome, nil
}
