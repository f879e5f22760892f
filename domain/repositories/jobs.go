package repositories

import (
	"context"

	"github.com/hmtran/audiolesson/domain/entities"
)

// JobRepository defines data access for async job records.
type JobRepository interface {
	Create(ctx context.Context, job *entities.Job) error
	GetByJobID(ctx context.Context, jobID string) (*entities.Job, error)
	// MarkProcessing atomically moves a job from PENDING to PROCESSING and
	// reports whether this caller won the transition. Redelivered messages
	// observe false and must drop.
	MarkProcessing(ctx context.Context, jobID string) (bool, error)
	// Complete sets a terminal or result-carrying status with the result text.
	Complete(ctx context.Context, jobID string, result string) error
	// Fail sets the given terminal failure status with the captured error.
	Fail(ctx context.Context, jobID string, status entities.JobStatus, errMsg string) error
}

// ChallengeRepository defines data access for challenges.
type ChallengeRepository interface {
	CreateAll(ctx context.Context, challenges []*entities.Challenge) error
	GetByID(ctx context.Context, id string) (*entities.Challenge, error)
	GetByLessonID(ctx context.Context, lessonID string) ([]*entities.Challenge, error)
	GetByLessonAndOrder(ctx context.Context, lessonID string, orderIndex int) (*entities.Challenge, error)
	// UpdateTiming persists the aligned start/end timestamps of a challenge.
	UpdateTiming(ctx context.Context, id string, startMs, endMs int) error
}
