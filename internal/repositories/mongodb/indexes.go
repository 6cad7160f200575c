package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the draw relies on. It is idempotent.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	byCollection := map[string][]mongo.IndexModel{
		"prizes": {
			{Keys: bson.D{{Key: "drawType", Value: 1}, {Key: "active", Value: 1}, {Key: "position", Value: 1}}},
		},
		"spins": {
			{Keys: bson.D{{Key: "requestId", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "participantId", Value: 1}, {Key: "drawType", Value: 1}, {Key: "spinAt", Value: -1}}},
			{Keys: bson.D{{Key: "drawType", Value: 1}, {Key: "spinAt", Value: -1}}},
		},
		"admin_users": {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		"reservations": {
			{Keys: bson.D{{Key: "userId", Value: 1}}},
		},
	}
	for name, idx := range byCollection {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", name, err)
		}
	}
	return nil
}
