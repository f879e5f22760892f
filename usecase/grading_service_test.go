package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/hmtran/audiolesson/adapters/memory"
	"github.com/hmtran/audiolesson/domain"
	"github.com/hmtran/audiolesson/domain/entities"
)

func gradingFixture(t *testing.T) (*GradingService, *capturingPublisher) {
	t.Helper()
	repo := memory.NewChallengeRepository()
	if _, err := NewChallengeService(repo, zaptest.NewLogger(t)).AddChallenges(
		context.Background(), "lesson-1", "1. I can't count to 23"); err != nil {
		t.Fatalf("Failed to seed challenge: %v", err)
	}
	publisher := &capturingPublisher{}
	return NewGradingService(repo, publisher, zaptest.NewLogger(t)), publisher
}

func TestCheckAllCorrectPasses(t *testing.T) {
	service, _ := gradingFixture(t)

	outcome, err := service.Check(context.Background(), "lesson-1", 1,
		[]string{"i", "cannot", "count", "to", "twenty-three"})
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if !outcome.AllCorrect {
		t.Errorf("Expected all correct, results: %+v", outcome.WordResults)
	}
	if outcome.PassState != entities.PassStatePassed {
		t.Errorf("Expected passed state, got %d", outcome.PassState)
	}
	if outcome.FullSentence != "I can't count to 23" {
		t.Errorf("Unexpected sentence: %s", outcome.FullSentence)
	}
	if outcome.CorrectWords != outcome.TotalWords {
		t.Errorf("Expected %d/%d correct", outcome.TotalWords, outcome.TotalWords)
	}
}

func TestCheckWrongAnswerFails(t *testing.T) {
	service, _ := gradingFixture(t)

	outcome, err := service.Check(context.Background(), "lesson-1", 1,
		[]string{"I", "can't", "count", "to", "24"})
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if outcome.AllCorrect {
		t.Error("Expected a wrong answer to fail")
	}
	if outcome.PassState != entities.PassStateFailed {
		t.Errorf("Expected failed state, got %d", outcome.PassState)
	}

	last := outcome.WordResults[len(outcome.WordResults)-1]
	if last.Correct {
		t.Error("Expected last position incorrect")
	}
	if last.UserAnswer != "24" {
		t.Errorf("Expected raw user answer 24, got %s", last.UserAnswer)
	}
}

func TestCheckUnknownChallenge(t *testing.T) {
	service, _ := gradingFixture(t)

	_, err := service.Check(context.Background(), "lesson-1", 99, []string{"x"})
	if !errors.Is(err, entities.ErrChallengeNotFound) {
		t.Errorf("Expected ErrChallengeNotFound, got %v", err)
	}
}

func TestCheckForUserPublishesGradedEvent(t *testing.T) {
	service, publisher := gradingFixture(t)

	outcome, err := service.CheckForUser(context.Background(), "lesson-1", 1,
		[]string{"I", "can't", "count", "to", "23"}, "alice")
	if err != nil {
		t.Fatalf("CheckForUser failed: %v", err)
	}
	if !outcome.AllCorrect {
		t.Errorf("Expected all correct, results: %+v", outcome.WordResults)
	}

	events := publisher.byTopic(domain.TopicAnswerGraded)
	if len(events) != 1 {
		t.Fatalf("Expected 1 graded event, got %d", len(events))
	}

	var msg domain.AnswerGradedMessage
	if err := json.Unmarshal(events[0].Value, &msg); err != nil {
		t.Fatalf("Failed to decode graded event: %v", err)
	}
	if msg.Username != "alice" {
		t.Errorf("Expected username alice, got %s", msg.Username)
	}
	if msg.ChallengeID != outcome.ChallengeID || msg.LessonID != "lesson-1" {
		t.Errorf("Unexpected event contents: %+v", msg)
	}
	if !msg.AllCorrect || msg.PassState != entities.PassStatePassed {
		t.Errorf("Expected passing event, got %+v", msg)
	}
}

func TestCheckForUserPublishFailureStillGrades(t *testing.T) {
	repo := memory.NewChallengeRepository()
	if _, err := NewChallengeService(repo, zaptest.NewLogger(t)).AddChallenges(
		context.Background(), "lesson-1", "1. hello world"); err != nil {
		t.Fatalf("Failed to seed challenge: %v", err)
	}
	publisher := &capturingPublisher{err: errors.New("broker down")}
	service := NewGradingService(repo, publisher, zaptest.NewLogger(t))

	outcome, err := service.CheckForUser(context.Background(), "lesson-1", 1,
		[]string{"hello", "world"}, "bob")
	if err != nil {
		t.Fatalf("Expected grading to survive a publish failure: %v", err)
	}
	if !outcome.AllCorrect {
		t.Error("Expected all correct")
	}
}
