package mongodb

import (
	"context"

	"github.com/ArowuTest/padel-arena-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// ReservationRepository reads the bookings collection written by the booking app.
type ReservationRepository struct {
	collection *mongo.Collection
}

// NewReservationRepository creates a new ReservationRepository
func NewReservationRepository(db *mongo.Database) repositories.ReservationRepository {
	return &ReservationRepository{
		collection: db.Collection("reservations"),
	}
}

// CountByUser counts the bookings of a user
func (r *ReservationRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"userId": userID})
}
