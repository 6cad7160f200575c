package mongodb

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ArowuTest/padel-arena-backend/internal/models"
	"github.com/ArowuTest/padel-arena-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Ensure adminUserRepository implements repositories.AdminUserRepository
var _ repositories.AdminUserRepository = (*adminUserRepository)(nil)

type adminUserRepository struct {
	collection *mongo.Collection
}

// NewAdminUserRepository creates a new repository for admin users
func NewAdminUserRepository(db *mongo.Database) repositories.AdminUserRepository {
	return &adminUserRepository{
		collection: db.Collection("admin_users"),
	}
}

// Create inserts a new admin user into the database
func (r *adminUserRepository) Create(ctx context.Context, adminUser *models.AdminUser) (*models.AdminUser, error) {
	adminUser.ID = primitive.NewObjectID()
	adminUser.Email = strings.ToLower(adminUser.Email)
	now := time.Now()
	adminUser.CreatedAt, adminUser.UpdatedAt = now, now
	_, err := r.collection.InsertOne(ctx, adminUser)
	if mongo.IsDuplicateKeyError(err) {
		return nil, repositories.ErrDuplicateEmail
	}
	if err != nil {
		return nil, err
	}
	return adminUser, nil
}

// FindByEmail finds an admin user by their email address
func (r *adminUserRepository) FindByEmail(ctx context.Context, email string) (*models.AdminUser, error) {
	return r.findOne(ctx, bson.M{"email": strings.ToLower(email)})
}

// FindByID finds an admin user by their ID
func (r *adminUserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.AdminUser, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *adminUserRepository) findOne(ctx context.Context, filter bson.M) (*models.AdminUser, error) {
	var adminUser models.AdminUser
	err := r.collection.FindOne(ctx, filter).Decode(&adminUser)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &adminUser, nil
}
