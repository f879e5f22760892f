package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/hmtran/audiolesson/adapters/memory"
	"github.com/hmtran/audiolesson/domain"
	"github.com/hmtran/audiolesson/domain/entities"
)

type fakeTranscriber struct {
	transcript *entities.Transcript
	err        error
	calls      int
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audioURL string) (*entities.Transcript, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.transcript, nil
}

type published struct {
	Topic string
	Key   string
	Value []byte
}

type capturingPublisher struct {
	mu       sync.Mutex
	err      error
	failOn   string // when set, err applies only to this topic
	messages []published
}

func (p *capturingPublisher) Publish(topic string, key string, value []byte) error {
	if p.err != nil && (p.failOn == "" || p.failOn == topic) {
		return p.err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, published{Topic: topic, Key: key, Value: value})
	return nil
}

func (p *capturingPublisher) byTopic(topic string) []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []published
	for _, m := range p.messages {
		if m.Topic == topic {
			out = append(out, m)
		}
	}
	return out
}

func sampleTranscript() *entities.Transcript {
	return &entities.Transcript{
		Text: "The quick brown fox.",
		Words: []entities.TranscriptWord{
			{Text: "The", StartMs: 0, EndMs: 200, Confidence: 0.99},
			{Text: "quick", StartMs: 250, EndMs: 500, Confidence: 0.98},
			{Text: "brown", StartMs: 550, EndMs: 800, Confidence: 0.97},
			{Text: "fox.", StartMs: 850, EndMs: 1100, Confidence: 0.96},
		},
	}
}

func TestSubmitCreatesPendingJob(t *testing.T) {
	jobs := memory.NewJobRepository()
	publisher := &capturingPublisher{}
	service := NewTranscriptionService(jobs, &fakeTranscriber{}, publisher, nil, zaptest.NewLogger(t))

	transcriptionID, alignmentID, err := service.Submit(context.Background(), "lesson-1", "https://cdn.example.com/a.mp3")
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if transcriptionID == "" || alignmentID == "" {
		t.Fatal("Expected both job ids to be set")
	}
	if transcriptionID == alignmentID {
		t.Error("Expected distinct job ids")
	}

	job, err := jobs.GetByJobID(context.Background(), transcriptionID)
	if err != nil {
		t.Fatalf("GetByJobID failed: %v", err)
	}
	if job.Status != entities.JobStatusPending {
		t.Errorf("Expected PENDING, got %s", job.Status)
	}
	if job.Kind != entities.JobKindTranscription {
		t.Errorf("Expected transcription kind, got %s", job.Kind)
	}
	if job.LessonID != "lesson-1" {
		t.Errorf("Expected lesson-1, got %s", job.LessonID)
	}

	requests := publisher.byTopic(domain.TopicTranscriptionRequests)
	if len(requests) != 1 {
		t.Fatalf("Expected 1 request message, got %d", len(requests))
	}
	if requests[0].Key != transcriptionID {
		t.Errorf("Expected message keyed by transcription job id")
	}

	var msg domain.TranscriptionRequestMessage
	if err := json.Unmarshal(requests[0].Value, &msg); err != nil {
		t.Fatalf("Failed to decode request message: %v", err)
	}
	if msg.AlignmentJobID != alignmentID {
		t.Errorf("Expected alignment job id %s in message, got %s", alignmentID, msg.AlignmentJobID)
	}
	if msg.AudioURL != "https://cdn.example.com/a.mp3" || msg.LessonID != "lesson-1" {
		t.Errorf("Unexpected message contents: %+v", msg)
	}
}

func TestSubmitPublishFailureMarksError(t *testing.T) {
	jobs := memory.NewJobRepository()
	publisher := &capturingPublisher{err: errors.New("broker down")}
	service := NewTranscriptionService(jobs, &fakeTranscriber{}, publisher, nil, zaptest.NewLogger(t))

	transcriptionID, _, err := service.Submit(context.Background(), "lesson-1", "https://cdn.example.com/a.mp3")
	if err == nil {
		t.Fatal("Expected Submit to fail when publish fails")
	}
	if transcriptionID != "" {
		t.Error("Expected empty id on failure")
	}
}

func TestHandleRequestCompletesJobAndChainsAlignment(t *testing.T) {
	jobs := memory.NewJobRepository()
	publisher := &capturingPublisher{}
	transcriber := &fakeTranscriber{transcript: sampleTranscript()}
	service := NewTranscriptionService(jobs, transcriber, publisher, nil, zaptest.NewLogger(t))

	ctx := context.Background()
	transcriptionID, alignmentID, err := service.Submit(ctx, "lesson-1", "https://cdn.example.com/a.mp3")
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	request := publisher.byTopic(domain.TopicTranscriptionRequests)[0]
	service.HandleRequest(request.Key, request.Value)

	job, err := jobs.GetByJobID(ctx, transcriptionID)
	if err != nil {
		t.Fatalf("GetByJobID failed: %v", err)
	}
	if job.Status != entities.JobStatusCompleted {
		t.Errorf("Expected COMPLETED, got %s", job.Status)
	}
	if job.Result != "The quick brown fox." {
		t.Errorf("Expected transcript text as result, got %q", job.Result)
	}

	alignmentJob, err := jobs.GetByJobID(ctx, alignmentID)
	if err != nil {
		t.Fatalf("Expected alignment job to exist: %v", err)
	}
	if alignmentJob.Status != entities.JobStatusPending {
		t.Errorf("Expected alignment job PENDING, got %s", alignmentJob.Status)
	}
	if alignmentJob.Kind != entities.JobKindAlignment {
		t.Errorf("Expected alignment kind, got %s", alignmentJob.Kind)
	}

	var payload domain.TranscriptionCompletedMessage
	if err := json.Unmarshal(alignmentJob.RawPayload, &payload); err != nil {
		t.Fatalf("Failed to decode stored payload: %v", err)
	}
	if payload.Text != "The quick brown fox." || len(payload.Words) != 4 {
		t.Errorf("Unexpected stored payload: %+v", payload)
	}

	completed := publisher.byTopic(domain.TopicTranscriptionCompleted)
	if len(completed) != 1 {
		t.Fatalf("Expected 1 completed message, got %d", len(completed))
	}
	if completed[0].Key != alignmentID {
		t.Errorf("Expected completed message keyed by alignment job id")
	}
}

func TestHandleRequestDropsRedelivery(t *testing.T) {
	jobs := memory.NewJobRepository()
	publisher := &capturingPublisher{}
	transcriber := &fakeTranscriber{transcript: sampleTranscript()}
	service := NewTranscriptionService(jobs, transcriber, publisher, nil, zaptest.NewLogger(t))

	ctx := context.Background()
	transcriptionID, _, err := service.Submit(ctx, "lesson-1", "https://cdn.example.com/a.mp3")
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	request := publisher.byTopic(domain.TopicTranscriptionRequests)[0]
	service.HandleRequest(request.Key, request.Value)
	service.HandleRequest(request.Key, request.Value)

	if transcriber.calls != 1 {
		t.Errorf("Expected 1 transcriber call, got %d", transcriber.calls)
	}
	if got := len(publisher.byTopic(domain.TopicTranscriptionCompleted)); got != 1 {
		t.Errorf("Expected 1 completed message, got %d", got)
	}

	job, err := jobs.GetByJobID(ctx, transcriptionID)
	if err != nil {
		t.Fatalf("GetByJobID failed: %v", err)
	}
	if job.Status != entities.JobStatusCompleted {
		t.Errorf("Redelivery changed job status to %s", job.Status)
	}
}

func TestHandleRequestTranscriberFailureMarksError(t *testing.T) {
	jobs := memory.NewJobRepository()
	publisher := &capturingPublisher{}
	transcriber := &fakeTranscriber{err: errors.New("provider unreachable")}
	service := NewTranscriptionService(jobs, transcriber, publisher, nil, zaptest.NewLogger(t))

	ctx := context.Background()
	transcriptionID, alignmentID, err := service.Submit(ctx, "lesson-1", "https://cdn.example.com/a.mp3")
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	request := publisher.byTopic(domain.TopicTranscriptionRequests)[0]
	service.HandleRequest(request.Key, request.Value)

	job, err := jobs.GetByJobID(ctx, transcriptionID)
	if err != nil {
		t.Fatalf("GetByJobID failed: %v", err)
	}
	if job.Status != entities.JobStatusError {
		t.Errorf("Expected ERROR, got %s", job.Status)
	}
	if job.Error == "" {
		t.Error("Expected error message recorded on job")
	}

	if _, err := jobs.GetByJobID(ctx, alignmentID); !errors.Is(err, entities.ErrJobNotFound) {
		t.Error("Expected no alignment job after transcription failure")
	}
}

func TestHandleRequestPublishFailureFailsBothJobs(t *testing.T) {
	jobs := memory.NewJobRepository()
	publisher := &capturingPublisher{
		err:    errors.New("broker down"),
		failOn: domain.TopicTranscriptionCompleted,
	}
	transcriber := &fakeTranscriber{transcript: sampleTranscript()}
	service := NewTranscriptionService(jobs, transcriber, publisher, nil, zaptest.NewLogger(t))

	ctx := context.Background()
	transcriptionID, alignmentID, err := service.Submit(ctx, "lesson-1", "https://cdn.example.com/a.mp3")
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	request := publisher.byTopic(domain.TopicTranscriptionRequests)[0]
	service.HandleRequest(request.Key, request.Value)

	job, err := jobs.GetByJobID(ctx, transcriptionID)
	if err != nil {
		t.Fatalf("GetByJobID failed: %v", err)
	}
	if job.Status != entities.JobStatusError {
		t.Errorf("Expected transcription job ERROR, got %s", job.Status)
	}

	alignmentJob, err := jobs.GetByJobID(ctx, alignmentID)
	if err != nil {
		t.Fatalf("Expected alignment job to exist: %v", err)
	}
	if alignmentJob.Status != entities.JobStatusFailed {
		t.Errorf("Expected alignment job FAILED, not stranded %s", alignmentJob.Status)
	}
	if alignmentJob.Error == "" {
		t.Error("Expected failure reason recorded on the alignment job")
	}
}

func TestHandleRequestUnknownJobIsDropped(t *testing.T) {
	jobs := memory.NewJobRepository()
	publisher := &capturingPublisher{}
	transcriber := &fakeTranscriber{transcript: sampleTranscript()}
	service := NewTranscriptionService(jobs, transcriber, publisher, nil, zaptest.NewLogger(t))

	value, _ := json.Marshal(domain.TranscriptionRequestMessage{
		TranscriptionJobID: "ghost",
		AudioURL:           "https://cdn.example.com/a.mp3",
		LessonID:           "lesson-1",
		AlignmentJobID:     "ghost-align",
	})
	service.HandleRequest("ghost", value)

	if transcriber.calls != 0 {
		t.Errorf("Expected no transcriber calls, got %d", transcriber.calls)
	}
}

func TestGetResultOnlyForCompletedJobs(t *testing.T) {
	jobs := memory.NewJobRepository()
	publisher := &capturingPublisher{}
	service := NewTranscriptionService(jobs, &fakeTranscriber{transcript: sampleTranscript()}, publisher, nil, zaptest.NewLogger(t))

	ctx := context.Background()
	transcriptionID, _, err := service.Submit(ctx, "lesson-1", "https://cdn.example.com/a.mp3")
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	result, err := service.GetResult(ctx, transcriptionID)
	if err != nil {
		t.Fatalf("GetResult failed: %v", err)
	}
	if result != "" {
		t.Errorf("Expected empty result while pending, got %q", result)
	}

	request := publisher.byTopic(domain.TopicTranscriptionRequests)[0]
	service.HandleRequest(request.Key, request.Value)

	result, err = service.GetResult(ctx, transcriptionID)
	if err != nil {
		t.Fatalf("GetResult failed: %v", err)
	}
	if result != "The quick brown fox." {
		t.Errorf("Expected transcript text, got %q", result)
	}

	if _, err := service.GetResult(ctx, "missing"); !errors.Is(err, entities.ErrJobNotFound) {
		t.Errorf("Expected ErrJobNotFound, got %v", err)
	}
}
