package usecase

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hmtran/audiolesson/domain/entities"
	"github.com/hmtran/audiolesson/domain/repositories"
	"github.com/hmtran/audiolesson/internal/textseg"
)

// linePattern matches one answer-key line: "<orderIndex>. <sentence>".
var linePattern = regexp.MustCompile(`^(\d+)\.\s*(.*)$`)

// ChallengeService manages a lesson's challenges: batch creation from an
// answer key and navigation.
type ChallengeService struct {
	challenges repositories.ChallengeRepository
	logger     *zap.Logger
}

func NewChallengeService(challenges repositories.ChallengeRepository, logger *zap.Logger) *ChallengeService {
	return &ChallengeService{
		challenges: challenges,
		logger:     logger,
	}
}

// AddChallenges parses an answer key into challenges, one numbered line per
// challenge. The batch is all-or-nothing: any non-blank line that does not
// match the format rejects the whole key. Acceptable-answer sets are
// computed here and persisted with each challenge.
func (s *ChallengeService) AddChallenges(ctx context.Context, lessonID, answerKey string) ([]*entities.Challenge, error) {
	if lessonID == "" {
		return nil, errors.New("lesson id is required")
	}

	var created []*entities.Challenge
	for _, line := range strings.Split(answerKey, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		groups := linePattern.FindStringSubmatch(line)
		if groups == nil {
			return nil, fmt.Errorf("invalid challenge format: %q", line)
		}

		orderIndex, err := strconv.Atoi(groups[1])
		if err != nil {
			return nil, fmt.Errorf("invalid challenge order in %q: %w", line, err)
		}
		sentence := strings.TrimSpace(groups[2])

		created = append(created, &entities.Challenge{
			ID:           uuid.NewString(),
			LessonID:     lessonID,
			OrderIndex:   orderIndex,
			FullSentence: sentence,
			WordData:     textseg.Segment(sentence),
			PassState:    entities.PassStateUntried,
		})
	}

	if len(created) == 0 {
		return nil, errors.New("answer key contains no challenges")
	}

	if err := s.challenges.CreateAll(ctx, created); err != nil {
		return nil, err
	}

	s.logger.Info("Challenges created",
		zap.String("lessonID", lessonID),
		zap.Int("count", len(created)))

	return created, nil
}

// List returns a lesson's challenges ordered by orderIndex.
func (s *ChallengeService) List(ctx context.Context, lessonID string) ([]*entities.Challenge, error) {
	challenges, err := s.challenges.GetByLessonID(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	if len(challenges) == 0 {
		return nil, entities.ErrChallengeNotFound
	}
	return challenges, nil
}

// First returns the lesson's first challenge.
func (s *ChallengeService) First(ctx context.Context, lessonID string) (*entities.Challenge, error) {
	return s.challenges.GetByLessonAndOrder(ctx, lessonID, 1)
}

// Next returns the challenge after the given order index.
func (s *ChallengeService) Next(ctx context.Context, lessonID string, orderIndex int) (*entities.Challenge, error) {
	return s.challenges.GetByLessonAndOrder(ctx, lessonID, orderIndex+1)
}

// Previous returns the challenge before the given order index.
func (s *ChallengeService) Previous(ctx context.Context, lessonID string, orderIndex int) (*entities.Challenge, error) {
	return s.challenges.GetByLessonAndOrder(ctx, lessonID, orderIndex-1)
}
