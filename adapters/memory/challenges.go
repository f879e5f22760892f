package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/hmtran/audiolesson/domain/entities"
	"github.com/hmtran/audiolesson/domain/repositories"
)

type ChallengeRepository struct {
	mu         sync.RWMutex
	challenges map[string]*entities.Challenge
}

var _ repositories.ChallengeRepository = (*ChallengeRepository)(nil)

func NewChallengeRepository() *ChallengeRepository {
	return &ChallengeRepository{
		challenges: make(map[string]*entities.Challenge),
	}
}

func (r *ChallengeRepository) CreateAll(ctx context.Context, challenges []*entities.Challenge) error {
	if len(challenges) == 0 {
		return errors.New("no challenges to create")
	}
	for _, challenge := range challenges {
		if err := challenge.Validate(); err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, challenge := range challenges {
		clone := *challenge
		r.challenges[challenge.ID] = &clone
	}
	return nil
}

func (r *ChallengeRepository) GetByID(ctx context.Context, id string) (*entities.Challenge, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	challenge, exists := r.challenges[id]
	if !exists {
		return nil, entities.ErrChallengeNotFound
	}
	clone := *challenge
	return &clone, nil
}

func (r *ChallengeRepository) GetByLessonID(ctx context.Context, lessonID string) ([]*entities.Challenge, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*entities.Challenge
	for _, challenge := range r.challenges {
		if challenge.LessonID == lessonID {
			clone := *challenge
			result = append(result, &clone)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].OrderIndex < result[j].OrderIndex
	})
	return result, nil
}

func (r *ChallengeRepository) GetByLessonAndOrder(ctx context.Context, lessonID string, orderIndex int) (*entities.Challenge, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, challenge := range r.challenges {
		if challenge.LessonID == lessonID && challenge.OrderIndex == orderIndex {
			clone := *challenge
			return &clone, nil
		}
	}
	return nil, entities.ErrChallengeNotFound
}

func (r *ChallengeRepository) UpdateTiming(ctx context.Context, id string, startMs, endMs int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	challenge, exists := r.challenges[id]
	if !exists {
		return entities.ErrChallengeNotFound
	}
	challenge.StartTimeMs = startMs
	challenge.EndTimeMs = endMs
	return nil
}
