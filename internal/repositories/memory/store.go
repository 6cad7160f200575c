// Package memory keeps every repository in process. It backs the API in
// mock mode and the service tests.
package memory

import (
	"context"
	"sync"

	"github.com/ArowuTest/padel-arena-backend/internal/models"
	"github.com/ArowuTest/padel-arena-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type txKey struct{}

// Store holds all collections behind one lock. Transactions hold the lock for
// their whole duration and restore a snapshot when the callback fails.
type Store struct {
	mu sync.Mutex

	prizes       map[primitive.ObjectID]models.Prize
	inventory    map[primitive.ObjectID]models.PrizeInventory
	spins        []models.SpinRecord
	windows      map[string]models.EligibilityWindow
	toggles      map[models.DrawType]models.FeatureToggle
	admins       map[primitive.ObjectID]models.AdminUser
	reservations map[string]int64
}

// NewStore creates an empty Store
func NewStore() *Store {
	return &Store{
		prizes:       map[primitive.ObjectID]models.Prize{},
		inventory:    map[primitive.ObjectID]models.PrizeInventory{},
		windows:      map[string]models.EligibilityWindow{},
		toggles:      map[models.DrawType]models.FeatureToggle{},
		admins:       map[primitive.ObjectID]models.AdminUser{},
		reservations: map[string]int64{},
	}
}

// lock acquires the store lock unless ctx already runs inside a transaction.
func (s *Store) lock(ctx context.Context) func() {
	if ctx.Value(txKey{}) == s {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

type snapshot struct {
	prizes    map[primitive.ObjectID]models.Prize
	inventory map[primitive.ObjectID]models.PrizeInventory
	spins     []models.SpinRecord
	windows   map[string]models.EligibilityWindow
	toggles   map[models.DrawType]models.FeatureToggle
}

func (s *Store) snapshot() snapshot {
	return snapshot{
		prizes:    cloneMap(s.prizes),
		inventory: cloneMap(s.inventory),
		spins:     append([]models.SpinRecord(nil), s.spins...),
		windows:   cloneMap(s.windows),
		toggles:   cloneMap(s.toggles),
	}
}

func (s *Store) restore(snap snapshot) {
	s.prizes = snap.prizes
	s.inventory = snap.inventory
	s.spins = snap.spins
	s.windows = snap.windows
	s.toggles = snap.toggles
}

// WithTransaction implements repositories.Transactor
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) == s {
		return fn(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// SetReservations seeds the booking count of a user.
func (s *Store) SetReservations(userID string, count int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reservations[userID] = count
}

// Prizes returns the prize repository view of the store
func (s *Store) Prizes() repositories.PrizeRepository { return &prizeRepository{s} }

// Inventory returns the inventory repository view of the store
func (s *Store) Inventory() repositories.InventoryRepository { return &inventoryRepository{s} }

// Spins returns the spin repository view of the store
func (s *Store) Spins() repositories.SpinRepository { return &spinRepository{s} }

// Eligibility returns the eligibility repository view of the store
func (s *Store) Eligibility() repositories.EligibilityRepository { return &eligibilityRepository{s} }

// Toggles returns the feature toggle repository view of the store
func (s *Store) Toggles() repositories.FeatureToggleRepository { return &toggleRepository{s} }

// Admins returns the admin user repository view of the store
func (s *Store) Admins() repositories.AdminUserRepository { return &adminRepository{s} }

// Reservations returns the reservation repository view of the store
func (s *Store) Reservations() repositories.ReservationRepository { return &reservationRepository{s} }

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
