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

// FeatureToggleRepository implements repositories.FeatureToggleRepository
type FeatureToggleRepository struct {
	collection *mongo.Collection
}

// NewFeatureToggleRepository creates a new FeatureToggleRepository
func NewFeatureToggleRepository(db *mongo.Database) repositories.FeatureToggleRepository {
	return &FeatureToggleRepository{
		collection: db.Collection("draw_settings"),
	}
}

// Get retrieves the toggle of a draw type; draws are enabled until switched off
func (r *FeatureToggleRepository) Get(ctx context.Context, drawType models.DrawType) (*models.FeatureToggle, error) {
	var toggle models.FeatureToggle
	err := r.collection.FindOne(ctx, bson.M{"_id": drawType}).Decode(&toggle)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.DefaultFeatureToggle(drawType), nil
	}
	if err != nil {
		return nil, err
	}
	return &toggle, nil
}

// Set switches a draw type on or off
func (r *FeatureToggleRepository) Set(ctx context.Context, drawType models.DrawType, enabled bool, updatedBy string) error {
	update := bson.M{
		"$set": bson.M{
			"enabled":   enabled,
			"updatedAt": time.Now(),
			"updatedBy": updatedBy,
		},
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": drawType}, update, options.Update().SetUpsert(true))
	return err
}
