package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hmtran/audiolesson/domain/entities"
	"github.com/hmtran/audiolesson/domain/repositories"
)

type ChallengeRepository struct {
	collection *mongo.Collection
}

// NewChallengeRepository creates a MongoDB-backed challenge repository.
func NewChallengeRepository(db *mongo.Database) repositories.ChallengeRepository {
	return &ChallengeRepository{
		collection: db.Collection("challenges"),
	}
}

// CreateAll implements repositories.ChallengeRepository
func (r *ChallengeRepository) CreateAll(ctx context.Context, challenges []*entities.Challenge) error {
	if len(challenges) == 0 {
		return errors.New("no challenges to create")
	}

	docs := make([]interface{}, len(challenges))
	for i, challenge := range challenges {
		if err := challenge.Validate(); err != nil {
			return fmt.Errorf("invalid challenge at order %d: %w", challenge.OrderIndex, err)
		}
		docs[i] = challenge
	}

	if _, err := r.collection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to create challenges: %w", err)
	}
	return nil
}

// GetByID implements repositories.ChallengeRepository
func (r *ChallengeRepository) GetByID(ctx context.Context, id string) (*entities.Challenge, error) {
	var challenge entities.Challenge
	err := r.collection.FindOne(ctx, bson.M{"challenge_id": id}).Decode(&challenge)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, entities.ErrChallengeNotFound
		}
		return nil, fmt.Errorf("failed to get challenge %s: %w", id, err)
	}
	return &challenge, nil
}

// GetByLessonID implements repositories.ChallengeRepository
func (r *ChallengeRepository) GetByLessonID(ctx context.Context, lessonID string) ([]*entities.Challenge, error) {
	opts := options.Find().SetSort(bson.M{"order_index": 1})
	cursor, err := r.collection.Find(ctx, bson.M{"lesson_id": lessonID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list challenges for lesson %s: %w", lessonID, err)
	}
	defer cursor.Close(ctx)

	var challenges []*entities.Challenge
	if err := cursor.All(ctx, &challenges); err != nil {
		return nil, fmt.Errorf("failed to decode challenges: %w", err)
	}
	return challenges, nil
}

// GetByLessonAndOrder implements repositories.ChallengeRepository
func (r *ChallengeRepository) GetByLessonAndOrder(ctx context.Context, lessonID string, orderIndex int) (*entities.Challenge, error) {
	var challenge entities.Challenge
	err := r.collection.FindOne(ctx, bson.M{"lesson_id": lessonID, "order_index": orderIndex}).Decode(&challenge)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, entities.ErrChallengeNotFound
		}
		return nil, fmt.Errorf("failed to get challenge %d of lesson %s: %w", orderIndex, lessonID, err)
	}
	return &challenge, nil
}

// UpdateTiming implements repositories.ChallengeRepository
func (r *ChallengeRepository) UpdateTiming(ctx context.Context, id string, startMs, endMs int) error {
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"challenge_id": id},
		bson.M{"$set": bson.M{
			"start_time_ms": startMs,
			"end_time_ms":   endMs,
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to update timing for challenge %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return entities.ErrChallengeNotFound
	}
	return nil
}
