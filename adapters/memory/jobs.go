// Package memory provides in-memory repository implementations used by
// tests and brokerless local runs.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hmtran/audiolesson/domain/entities"
	"github.com/hmtran/audiolesson/domain/repositories"
)

type JobRepository struct {
	mu   sync.RWMutex
	jobs map[string]*entities.Job
}

var _ repositories.JobRepository = (*JobRepository)(nil)

func NewJobRepository() *JobRepository {
	return &JobRepository{
		jobs: make(map[string]*entities.Job),
	}
}

func (r *JobRepository) Create(ctx context.Context, job *entities.Job) error {
	if err := job.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.jobs[job.JobID]; exists {
		return fmt.Errorf("job %s already exists", job.JobID)
	}
	clone := *job
	r.jobs[job.JobID] = &clone
	return nil
}

func (r *JobRepository) GetByJobID(ctx context.Context, jobID string) (*entities.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, exists := r.jobs[jobID]
	if !exists {
		return nil, entities.ErrJobNotFound
	}
	clone := *job
	return &clone, nil
}

// MarkProcessing performs the PENDING check and the PROCESSING write under
// one lock, the in-memory equivalent of a conditional update.
func (r *JobRepository) MarkProcessing(ctx context.Context, jobID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, exists := r.jobs[jobID]
	if !exists {
		return false, entities.ErrJobNotFound
	}
	if job.Status != entities.JobStatusPending {
		return false, nil
	}
	job.Status = entities.JobStatusProcessing
	job.UpdatedAt = time.Now()
	return true, nil
}

func (r *JobRepository) Complete(ctx context.Context, jobID string, result string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, exists := r.jobs[jobID]
	if !exists {
		return entities.ErrJobNotFound
	}
	now := time.Now()
	job.Status = entities.JobStatusCompleted
	job.Result = result
	job.UpdatedAt = now
	job.ProcessedAt = &now
	return nil
}

func (r *JobRepository) Fail(ctx context.Context, jobID string, status entities.JobStatus, errMsg string) error {
	if !status.IsTerminal() {
		return fmt.Errorf("status %s is not terminal", status)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	job, exists := r.jobs[jobID]
	if !exists {
		return entities.ErrJobNotFound
	}
	job.Status = status
	job.Error = errMsg
	job.UpdatedAt = time.Now()
	return nil
}
