package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/hmtran/audiolesson/domain/entities"
	"github.com/hmtran/audiolesson/domain/repositories"
)

type JobRepository struct {
	collection *mongo.Collection
}

// NewJobRepository creates a MongoDB-backed job repository.
func NewJobRepository(db *mongo.Database) repositories.JobRepository {
	return &JobRepository{
		collection: db.Collection("jobs"),
	}
}

// Create implements repositories.JobRepository
func (r *JobRepository) Create(ctx context.Context, job *entities.Job) error {
	if job == nil {
		return errors.New("job cannot be nil")
	}
	if err := job.Validate(); err != nil {
		return err
	}

	now := time.Now()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	if job.UpdatedAt.IsZero() {
		job.UpdatedAt = now
	}

	if _, err := r.collection.InsertOne(ctx, job); err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

// GetByJobID implements repositories.JobRepository
func (r *JobRepository) GetByJobID(ctx context.Context, jobID string) (*entities.Job, error) {
	if jobID == "" {
		return nil, errors.New("job ID cannot be empty")
	}

	var job entities.Job
	err := r.collection.FindOne(ctx, bson.M{"job_id": jobID}).Decode(&job)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, entities.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job %s: %w", jobID, err)
	}
	return &job, nil
}

// MarkProcessing implements repositories.JobRepository with a conditional
// update: the status filter makes the PENDING check and the PROCESSING write
// a single atomic operation, so only one of two redelivered messages can win.
func (r *JobRepository) MarkProcessing(ctx context.Context, jobID string) (bool, error) {
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"job_id": jobID, "status": entities.JobStatusPending},
		bson.M{"$set": bson.M{
			"status":     entities.JobStatusProcessing,
			"updated_at": time.Now(),
		}},
	)
	if err != nil {
		return false, fmt.Errorf("failed to mark job %s processing: %w", jobID, err)
	}
	return result.ModifiedCount == 1, nil
}

// Complete implements repositories.JobRepository
func (r *JobRepository) Complete(ctx context.Context, jobID string, resultText string) error {
	now := time.Now()
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"job_id": jobID},
		bson.M{"$set": bson.M{
			"status":       entities.JobStatusCompleted,
			"result":       resultText,
			"updated_at":   now,
			"processed_at": now,
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to complete job %s: %w", jobID, err)
	}
	if result.MatchedCount == 0 {
		return entities.ErrJobNotFound
	}
	return nil
}

// Fail implements repositories.JobRepository
func (r *JobRepository) Fail(ctx context.Context, jobID string, status entities.JobStatus, errMsg string) error {
	if !status.IsTerminal() {
		return fmt.Errorf("status %s is not terminal", status)
	}
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"job_id": jobID},
		bson.M{"$set": bson.M{
			"status":     status,
			"error":      errMsg,
			"updated_at": time.Now(),
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to fail job %s: %w", jobID, err)
	}
	if result.MatchedCount == 0 {
		return entities.ErrJobNotFound
	}
	return nil
}
