package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/ArowuTest/padel-arena-backend/internal/models"
	"github.com/ArowuTest/padel-arena-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// InventoryRepository implements repositories.InventoryRepository
type InventoryRepository struct {
	collection *mongo.Collection
}

// NewInventoryRepository creates a new InventoryRepository
func NewInventoryRepository(db *mongo.Database) repositories.InventoryRepository {
	return &InventoryRepository{
		collection: db.Collection("prize_inventory"),
	}
}

// FindByPrizeID returns the inventory of one prize
func (r *InventoryRepository) FindByPrizeID(ctx context.Context, prizeID primitive.ObjectID) (*models.PrizeInventory, error) {
	var inv models.PrizeInventory
	err := r.collection.FindOne(ctx, bson.M{"_id": prizeID}).Decode(&inv)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// FindByPrizeIDs returns inventories keyed by prize; untracked prizes are absent
func (r *InventoryRepository) FindByPrizeIDs(ctx context.Context, prizeIDs []primitive.ObjectID) (map[primitive.ObjectID]*models.PrizeInventory, error) {
	result := make(map[primitive.ObjectID]*models.PrizeInventory, len(prizeIDs))
	if len(prizeIDs) == 0 {
		return result, nil
	}
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": prizeIDs}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var inventories []*models.PrizeInventory
	if err := cursor.All(ctx, &inventories); err != nil {
		return nil, err
	}
	for _, inv := range inventories {
		result[inv.PrizeID] = inv
	}
	return result, nil
}

// SetQuantity upserts the quantity. The filter only matches while reserved <= quantity,
// so a lower quantity falls through to the upsert and trips the _id unique index.
func (r *InventoryRepository) SetQuantity(ctx context.Context, prizeID primitive.ObjectID, quantity int) error {
	filter := bson.M{"_id": prizeID, "reserved": bson.M{"$lte": quantity}}
	update := bson.M{
		"$set":         bson.M{"quantity": quantity, "updatedAt": time.Now()},
		"$setOnInsert": bson.M{"reserved": 0},
	}
	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		return repositories.ErrQuantityBelowReserved
	}
	return err
}

// Reserve takes one unit if any is left
func (r *InventoryRepository) Reserve(ctx context.Context, prizeID primitive.ObjectID) error {
	filter := bson.M{
		"_id":   prizeID,
		"$expr": bson.M{"$lt": bson.A{"$reserved", "$quantity"}},
	}
	update := bson.M{
		"$inc": bson.M{"reserved": 1},
		"$set": bson.M{"updatedAt": time.Now()},
	}
	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repositories.ErrInventoryExhausted
	}
	return nil
}

// Delete removes the inventory record of a prize
func (r *InventoryRepository) Delete(ctx context.Context, prizeID primitive.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": prizeID})
	return err
}
