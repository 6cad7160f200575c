package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/ArowuTest/padel-arena-backend/internal/models"
	"github.com/ArowuTest/padel-arena-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EligibilityRepository implements repositories.EligibilityRepository
type EligibilityRepository struct {
	collection *mongo.Collection
}

// NewEligibilityRepository creates a new EligibilityRepository
func NewEligibilityRepository(db *mongo.Database) repositories.EligibilityRepository {
	return &EligibilityRepository{
		collection: db.Collection("eligibility_windows"),
	}
}

// Find returns the window of a participant for a draw type
func (r *EligibilityRepository) Find(ctx context.Context, participantID string, drawType models.DrawType) (*models.EligibilityWindow, error) {
	var window models.EligibilityWindow
	err := r.collection.FindOne(ctx, bson.M{"_id": models.EligibilityKey(participantID, drawType)}).Decode(&window)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &window, nil
}

// Claim moves the window to `at`. An existing window newer than the cutoff
// does not match, so the upsert collides with its _id and the claim fails.
func (r *EligibilityRepository) Claim(ctx context.Context, participantID string, drawType models.DrawType, at time.Time, period time.Duration) error {
	filter := bson.M{
		"_id":        models.EligibilityKey(participantID, drawType),
		"lastDrawAt": bson.M{"$lte": at.Add(-period)},
	}
	update := bson.M{
		"$set": bson.M{
			"participantId": participantID,
			"drawType":      drawType,
			"lastDrawAt":    at,
			"updatedAt":     at,
		},
	}
	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		return repositories.ErrWindowActive
	}
	return err
}
