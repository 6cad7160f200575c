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

// PrizeRepository implements repositories.PrizeRepository
type PrizeRepository struct {
	collection *mongo.Collection
}

// NewPrizeRepository creates a new PrizeRepository
func NewPrizeRepository(db *mongo.Database) repositories.PrizeRepository {
	return &PrizeRepository{
		collection: db.Collection("prizes"),
	}
}

// Create inserts a prize
func (r *PrizeRepository) Create(ctx context.Context, prize *models.Prize) error {
	if prize.ID.IsZero() {
		prize.ID = primitive.NewObjectID()
	}
	now := time.Now()
	if prize.CreatedAt.IsZero() {
		prize.CreatedAt = now
	}
	prize.UpdatedAt = now
	_, err := r.collection.InsertOne(ctx, prize)
	return err
}

// FindByID finds a prize by ID
func (r *PrizeRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Prize, error) {
	var prize models.Prize
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&prize)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &prize, nil
}

// Update replaces a prize document
func (r *PrizeRepository) Update(ctx context.Context, prize *models.Prize) error {
	prize.UpdatedAt = time.Now()
	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": prize.ID}, prize)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Delete removes a prize
func (r *PrizeRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// FindByDrawType finds prizes of a draw type in display order
func (r *PrizeRepository) FindByDrawType(ctx context.Context, drawType models.DrawType, activeOnly bool) ([]*models.Prize, error) {
	filter := bson.M{"drawType": drawType}
	if activeOnly {
		filter["active"] = true
	}
	opts := options.Find().SetSort(bson.D{{Key: "position", Value: 1}, {Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var prizes []*models.Prize
	if err := cursor.All(ctx, &prizes); err != nil {
		return nil, err
	}
	if prizes == nil {
		prizes = []*models.Prize{}
	}
	return prizes, nil
}
