package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/ArowuTest/padel-arena-backend/internal/models"
	"github.com/ArowuTest/padel-arena-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type prizeRepository struct{ s *Store }

func (r *prizeRepository) Create(ctx context.Context, prize *models.Prize) error {
	defer r.s.lock(ctx)()
	if prize.ID.IsZero() {
		prize.ID = primitive.NewObjectID()
	}
	now := time.Now()
	if prize.CreatedAt.IsZero() {
		prize.CreatedAt = now
	}
	prize.UpdatedAt = now
	r.s.prizes[prize.ID] = clonePrize(*prize)
	return nil
}

func (r *prizeRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Prize, error) {
	defer r.s.lock(ctx)()
	p, ok := r.s.prizes[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	c := clonePrize(p)
	return &c, nil
}

func (r *prizeRepository) Update(ctx context.Context, prize *models.Prize) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.prizes[prize.ID]; !ok {
		return models.ErrNotFound
	}
	prize.UpdatedAt = time.Now()
	r.s.prizes[prize.ID] = clonePrize(*prize)
	return nil
}

func (r *prizeRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.prizes[id]; !ok {
		return models.ErrNotFound
	}
	delete(r.s.prizes, id)
	return nil
}

func (r *prizeRepository) FindByDrawType(ctx context.Context, drawType models.DrawType, activeOnly bool) ([]*models.Prize, error) {
	defer r.s.lock(ctx)()
	prizes := []*models.Prize{}
	for _, p := range r.s.prizes {
		if p.DrawType != drawType || (activeOnly && !p.Active) {
			continue
		}
		c := clonePrize(p)
		prizes = append(prizes, &c)
	}
	models.SortPrizes(prizes)
	return prizes, nil
}

func clonePrize(p models.Prize) models.Prize {
	if p.Wheel != nil {
		w := *p.Wheel
		p.Wheel = &w
	}
	if p.Jackpot != nil {
		j := *p.Jackpot
		p.Jackpot = &j
	}
	return p
}

type inventoryRepository struct{ s *Store }

func (r *inventoryRepository) FindByPrizeID(ctx context.Context, prizeID primitive.ObjectID) (*models.PrizeInventory, error) {
	defer r.s.lock(ctx)()
	inv, ok := r.s.inventory[prizeID]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &inv, nil
}

func (r *inventoryRepository) FindByPrizeIDs(ctx context.Context, prizeIDs []primitive.ObjectID) (map[primitive.ObjectID]*models.PrizeInventory, error) {
	defer r.s.lock(ctx)()
	result := make(map[primitive.ObjectID]*models.PrizeInventory, len(prizeIDs))
	for _, id := range prizeIDs {
		if inv, ok := r.s.inventory[id]; ok {
			inv := inv
			result[id] = &inv
		}
	}
	return result, nil
}

func (r *inventoryRepository) SetQuantity(ctx context.Context, prizeID primitive.ObjectID, quantity int) error {
	defer r.s.lock(ctx)()
	inv := r.s.inventory[prizeID]
	if quantity < inv.Reserved {
		return repositories.ErrQuantityBelowReserved
	}
	inv.PrizeID = prizeID
	inv.Quantity = quantity
	inv.UpdatedAt = time.Now()
	r.s.inventory[prizeID] = inv
	return nil
}

func (r *inventoryRepository) Reserve(ctx context.Context, prizeID primitive.ObjectID) error {
	defer r.s.lock(ctx)()
	inv, ok := r.s.inventory[prizeID]
	if !ok || inv.Reserved >= inv.Quantity {
		return repositories.ErrInventoryExhausted
	}
	inv.Reserved++
	inv.UpdatedAt = time.Now()
	r.s.inventory[prizeID] = inv
	return nil
}

func (r *inventoryRepository) Delete(ctx context.Context, prizeID primitive.ObjectID) error {
	defer r.s.lock(ctx)()
	delete(r.s.inventory, prizeID)
	return nil
}

type spinRepository struct{ s *Store }

func (r *spinRepository) Create(ctx context.Context, spin *models.SpinRecord) error {
	defer r.s.lock(ctx)()
	for _, existing := range r.s.spins {
		if existing.RequestID == spin.RequestID {
			return repositories.ErrDuplicateRequest
		}
	}
	if spin.ID.IsZero() {
		spin.ID = primitive.NewObjectID()
	}
	r.s.spins = append(r.s.spins, *spin)
	return nil
}

func (r *spinRepository) FindByRequestID(ctx context.Context, participantID, requestID string) (*models.SpinRecord, error) {
	defer r.s.lock(ctx)()
	for _, spin := range r.s.spins {
		if spin.ParticipantID == participantID && spin.RequestID == requestID {
			spin := spin
			return &spin, nil
		}
	}
	return nil, models.ErrNotFound
}

func (r *spinRepository) FindLatest(ctx context.Context, participantID string, drawType models.DrawType) (*models.SpinRecord, error) {
	spins := r.filter(ctx, func(s models.SpinRecord) bool {
		return s.ParticipantID == participantID && s.DrawType == drawType
	})
	if len(spins) == 0 {
		return nil, models.ErrNotFound
	}
	return spins[0], nil
}

func (r *spinRepository) FindByParticipant(ctx context.Context, participantID string, page, limit int) ([]*models.SpinRecord, error) {
	spins := r.filter(ctx, func(s models.SpinRecord) bool { return s.ParticipantID == participantID })
	return paginate(spins, page, limit), nil
}

func (r *spinRepository) FindByDrawType(ctx context.Context, drawType models.DrawType, page, limit int) ([]*models.SpinRecord, error) {
	spins := r.filter(ctx, func(s models.SpinRecord) bool { return s.DrawType == drawType })
	return paginate(spins, page, limit), nil
}

func (r *spinRepository) CountByDrawType(ctx context.Context, drawType models.DrawType) (int64, error) {
	spins := r.filter(ctx, func(s models.SpinRecord) bool { return s.DrawType == drawType })
	return int64(len(spins)), nil
}

// filter returns matching spins newest first.
func (r *spinRepository) filter(ctx context.Context, keep func(models.SpinRecord) bool) []*models.SpinRecord {
	defer r.s.lock(ctx)()
	out := []*models.SpinRecord{}
	for _, spin := range r.s.spins {
		if keep(spin) {
			spin := spin
			out = append(out, &spin)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SpinAt.After(out[j].SpinAt) })
	return out
}

func paginate(spins []*models.SpinRecord, page, limit int) []*models.SpinRecord {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		return spins
	}
	start := (page - 1) * limit
	if start >= len(spins) {
		return []*models.SpinRecord{}
	}
	end := start + limit
	if end > len(spins) {
		end = len(spins)
	}
	return spins[start:end]
}

type eligibilityRepository struct{ s *Store }

func (r *eligibilityRepository) Find(ctx context.Context, participantID string, drawType models.DrawType) (*models.EligibilityWindow, error) {
	defer r.s.lock(ctx)()
	w, ok := r.s.windows[models.EligibilityKey(participantID, drawType)]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &w, nil
}

func (r *eligibilityRepository) Claim(ctx context.Context, participantID string, drawType models.DrawType, at time.Time, period time.Duration) error {
	defer r.s.lock(ctx)()
	key := models.EligibilityKey(participantID, drawType)
	if w, ok := r.s.windows[key]; ok && w.LastDrawAt.After(at.Add(-period)) {
		return repositories.ErrWindowActive
	}
	r.s.windows[key] = models.EligibilityWindow{
		ID:            key,
		ParticipantID: participantID,
		DrawType:      drawType,
		LastDrawAt:    at,
		UpdatedAt:     at,
	}
	return nil
}

type toggleRepository struct{ s *Store }

func (r *toggleRepository) Get(ctx context.Context, drawType models.DrawType) (*models.FeatureToggle, error) {
	defer r.s.lock(ctx)()
	t, ok := r.s.toggles[drawType]
	if !ok {
		return models.DefaultFeatureToggle(drawType), nil
	}
	return &t, nil
}

func (r *toggleRepository) Set(ctx context.Context, drawType models.DrawType, enabled bool, updatedBy string) error {
	defer r.s.lock(ctx)()
	r.s.toggles[drawType] = models.FeatureToggle{
		DrawType:  drawType,
		Enabled:   enabled,
		UpdatedAt: time.Now(),
		UpdatedBy: updatedBy,
	}
	return nil
}

type adminRepository struct{ s *Store }

func (r *adminRepository) Create(ctx context.Context, adminUser *models.AdminUser) (*models.AdminUser, error) {
	defer r.s.lock(ctx)()
	email := strings.ToLower(adminUser.Email)
	for _, a := range r.s.admins {
		if a.Email == email {
			return nil, repositories.ErrDuplicateEmail
		}
	}
	adminUser.ID = primitive.NewObjectID()
	adminUser.Email = email
	now := time.Now()
	adminUser.CreatedAt, adminUser.UpdatedAt = now, now
	r.s.admins[adminUser.ID] = *adminUser
	return adminUser, nil
}

func (r *adminRepository) FindByEmail(ctx context.Context, email string) (*models.AdminUser, error) {
	defer r.s.lock(ctx)()
	email = strings.ToLower(email)
	for _, a := range r.s.admins {
		if a.Email == email {
			a := a
			return &a, nil
		}
	}
	return nil, models.ErrNotFound
}

func (r *adminRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.AdminUser, error) {
	defer r.s.lock(ctx)()
	a, ok := r.s.admins[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &a, nil
}

type reservationRepository struct{ s *Store }

func (r *reservationRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	defer r.s.lock(ctx)()
	return r.s.reservations[userID], nil
}
