package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles carried in access tokens.
const (
	RoleAdmin       = "admin"
	RoleParticipant = "authenticated"
)

// LoginRequest defines the structure for login requests
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse is returned after a successful admin login
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
}

// AdminUser represents a club staff account that manages the reward draws.
type AdminUser struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	FirstName string             `bson:"firstName" json:"firstName"`
	LastName  string             `bson:"lastName" json:"lastName"`
	Email     string             `bson:"email" json:"email"`
	Password  string             `bson:"password" json:"-"`
	Role      string             `bson:"role" json:"role"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}
