package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/ArowuTest/padel-arena-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrInventoryExhausted is returned by Reserve when reserved has reached quantity.
	ErrInventoryExhausted = errors.New("prize inventory exhausted")
	// ErrWindowActive is returned by Claim when the last draw is still inside the period.
	ErrWindowActive = errors.New("eligibility window still active")
	// ErrQuantityBelowReserved refuses a quantity lower than what is already reserved.
	ErrQuantityBelowReserved = errors.New("quantity cannot be lower than reserved units")
	// ErrDuplicateRequest is returned when a spin with the same request id exists.
	ErrDuplicateRequest = errors.New("spin request already recorded")
	// ErrDuplicateEmail is returned when an admin user with the email exists.
	ErrDuplicateEmail = errors.New("admin email already registered")
)

// Transactor runs fn atomically. Repository calls made with the ctx passed to
// fn take part in the transaction; if fn returns an error nothing is kept.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// PrizeRepository defines the interface for prize catalog operations
type PrizeRepository interface {
	Create(ctx context.Context, prize *models.Prize) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Prize, error)
	Update(ctx context.Context, prize *models.Prize) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	// FindByDrawType returns prizes in display order (see models.SortPrizes).
	FindByDrawType(ctx context.Context, drawType models.DrawType, activeOnly bool) ([]*models.Prize, error)
}

// InventoryRepository defines the interface for prize stock operations
type InventoryRepository interface {
	FindByPrizeID(ctx context.Context, prizeID primitive.ObjectID) (*models.PrizeInventory, error)
	FindByPrizeIDs(ctx context.Context, prizeIDs []primitive.ObjectID) (map[primitive.ObjectID]*models.PrizeInventory, error)
	// SetQuantity creates or updates the record, keeping reserved untouched.
	SetQuantity(ctx context.Context, prizeID primitive.ObjectID, quantity int) error
	// Reserve increments reserved by one only while reserved < quantity.
	Reserve(ctx context.Context, prizeID primitive.ObjectID) error
	Delete(ctx context.Context, prizeID primitive.ObjectID) error
}

// SpinRepository defines the interface for spin history operations
type SpinRepository interface {
	Create(ctx context.Context, spin *models.SpinRecord) error
	FindByRequestID(ctx context.Context, participantID, requestID string) (*models.SpinRecord, error)
	FindLatest(ctx context.Context, participantID string, drawType models.DrawType) (*models.SpinRecord, error)
	FindByParticipant(ctx context.Context, participantID string, page, limit int) ([]*models.SpinRecord, error)
	FindByDrawType(ctx context.Context, drawType models.DrawType, page, limit int) ([]*models.SpinRecord, error)
	CountByDrawType(ctx context.Context, drawType models.DrawType) (int64, error)
}

// EligibilityRepository defines the interface for draw window operations
type EligibilityRepository interface {
	Find(ctx context.Context, participantID string, drawType models.DrawType) (*models.EligibilityWindow, error)
	// Claim records a draw at `at` unless the previous draw is newer than at-period.
	Claim(ctx context.Context, participantID string, drawType models.DrawType, at time.Time, period time.Duration) error
}

// FeatureToggleRepository defines the interface for draw toggles
type FeatureToggleRepository interface {
	// Get returns the stored toggle or the enabled default.
	Get(ctx context.Context, drawType models.DrawType) (*models.FeatureToggle, error)
	Set(ctx context.Context, drawType models.DrawType, enabled bool, updatedBy string) error
}

// AdminUserRepository defines the interface for admin accounts
type AdminUserRepository interface {
	Create(ctx context.Context, adminUser *models.AdminUser) (*models.AdminUser, error)
	FindByEmail(ctx context.Context, email string) (*models.AdminUser, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.AdminUser, error)
}

// ReservationRepository reads court bookings owned by the booking system.
type ReservationRepository interface {
	CountByUser(ctx context.Context, userID string) (int64, error)
}
