package services

import (
	"context"
	"io"

	"github.com/ArowuTest/padel-arena-backend/internal/fidelity"
	"github.com/ArowuTest/padel-arena-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DrawService defines the participant facing draw operations
type DrawService interface {
	// CheckEligibility reports whether the participant may draw now. It never mutates state.
	CheckEligibility(ctx context.Context, participantID string, drawType models.DrawType) (*models.Eligibility, error)

	// ExecuteDraw selects, reserves and records a prize in one transaction.
	// Repeating a requestID returns the outcome already recorded for it.
	ExecuteDraw(ctx context.Context, participantID string, drawType models.DrawType, requestID string) (*models.DrawOutcome, error)

	// FindDraw resolves a draw by request id after an ambiguous failure
	FindDraw(ctx context.Context, participantID string, drawType models.DrawType, requestID string) (*models.DrawOutcome, error)

	// ListActivePrizes returns the drawable prizes in render order
	ListActivePrizes(ctx context.Context, drawType models.DrawType) ([]*models.Prize, error)

	// GetFeatureToggle returns whether the draw type is offered at all
	GetFeatureToggle(ctx context.Context, drawType models.DrawType) (*models.FeatureToggle, error)

	// ListParticipantSpins returns a participant's own history, newest first
	ListParticipantSpins(ctx context.Context, participantID string, page, limit int) ([]*models.SpinRecord, error)
}

// PrizeService defines the admin catalog operations
type PrizeService interface {
	ListPrizes(ctx context.Context, drawType models.DrawType) ([]*models.PrizeView, error)
	CreatePrize(ctx context.Context, drawType models.DrawType, input PrizeInput) (*models.PrizeView, error)
	UpdatePrize(ctx context.Context, id primitive.ObjectID, input PrizeInput) (*models.PrizeView, error)
	SetPrizeActive(ctx context.Context, id primitive.ObjectID, active bool) (*models.PrizeView, error)
	DeletePrize(ctx context.Context, id primitive.ObjectID) error
	SetQuantity(ctx context.Context, id primitive.ObjectID, quantity int) (*models.PrizeView, error)
	ImportPrizes(ctx context.Context, drawType models.DrawType, r io.Reader) (*ImportResult, error)

	GetFeatureToggle(ctx context.Context, drawType models.DrawType) (*models.FeatureToggle, error)
	SetFeatureToggle(ctx context.Context, drawType models.DrawType, enabled bool, updatedBy string) (*models.FeatureToggle, error)

	Stats(ctx context.Context, drawType models.DrawType) (*models.DrawStats, error)
	ListSpins(ctx context.Context, drawType models.DrawType, page, limit int) ([]*models.SpinRecord, error)
}

// AuthService defines the admin authentication operations
type AuthService interface {
	Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error)
	CreateAdmin(ctx context.Context, email, password, firstName, lastName string) (*models.AdminUser, error)
}

// FidelityService defines the loyalty operations
type FidelityService interface {
	Summary(ctx context.Context, participantID string) (*fidelity.Summary, error)
}
