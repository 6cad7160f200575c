package mongodb

import (
	"context"
	"errors"

	"github.com/ArowuTest/padel-arena-backend/internal/models"
	"github.com/ArowuTest/padel-arena-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SpinRepository implements the repositories.SpinRepository interface
type SpinRepository struct {
	collection *mongo.Collection
}

// NewSpinRepository creates a new SpinRepository
func NewSpinRepository(db *mongo.Database) repositories.SpinRepository {
	return &SpinRepository{
		collection: db.Collection("spins"),
	}
}

// Create inserts a spin record
func (r *SpinRepository) Create(ctx context.Context, spin *models.SpinRecord) error {
	_, err := r.collection.InsertOne(ctx, spin)
	if mongo.IsDuplicateKeyError(err) {
		return repositories.ErrDuplicateRequest
	}
	return err
}

// FindByRequestID finds the spin a participant recorded under requestID
func (r *SpinRepository) FindByRequestID(ctx context.Context, participantID, requestID string) (*models.SpinRecord, error) {
	return r.findOne(ctx, bson.M{"participantId": participantID, "requestId": requestID}, nil)
}

// FindLatest finds the most recent spin of a participant for a draw type
func (r *SpinRepository) FindLatest(ctx context.Context, participantID string, drawType models.DrawType) (*models.SpinRecord, error) {
	opts := options.FindOne().SetSort(bson.M{"spinAt": -1})
	return r.findOne(ctx, bson.M{"participantId": participantID, "drawType": drawType}, opts)
}

func (r *SpinRepository) findOne(ctx context.Context, filter bson.M, opts *options.FindOneOptions) (*models.SpinRecord, error) {
	var spin models.SpinRecord
	var err error
	if opts != nil {
		err = r.collection.FindOne(ctx, filter, opts).Decode(&spin)
	} else {
		err = r.collection.FindOne(ctx, filter).Decode(&spin)
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &spin, nil
}

// FindByParticipant finds spins of a participant with pagination
func (r *SpinRepository) FindByParticipant(ctx context.Context, participantID string, page, limit int) ([]*models.SpinRecord, error) {
	return r.findPage(ctx, bson.M{"participantId": participantID}, page, limit)
}

// FindByDrawType finds spins of a draw type with pagination
func (r *SpinRepository) FindByDrawType(ctx context.Context, drawType models.DrawType, page, limit int) ([]*models.SpinRecord, error) {
	return r.findPage(ctx, bson.M{"drawType": drawType}, page, limit)
}

func (r *SpinRepository) findPage(ctx context.Context, filter bson.M, page, limit int) ([]*models.SpinRecord, error) {
	opts := options.Find().
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit)).
		SetSort(bson.M{"spinAt": -1}) // newest first

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var spins []*models.SpinRecord
	if err := cursor.All(ctx, &spins); err != nil {
		return nil, err
	}
	if spins == nil {
		spins = []*models.SpinRecord{}
	}
	return spins, nil
}

// CountByDrawType counts all spins of a draw type
func (r *SpinRepository) CountByDrawType(ctx context.Context, drawType models.DrawType) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"drawType": drawType})
}
