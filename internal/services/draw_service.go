package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ArowuTest/padel-arena-backend/internal/cache"
	"github.com/ArowuTest/padel-arena-backend/internal/models"
	"github.com/ArowuTest/padel-arena-backend/internal/notify"
	"github.com/ArowuTest/padel-arena-backend/internal/repositories"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Compile-time check to ensure DrawServiceImpl implements DrawService
var _ DrawService = (*DrawServiceImpl)(nil)

const notifyTimeout = 10 * time.Second

// DrawDeps groups what DrawServiceImpl needs. Catalog, Latch, Notifier,
// Selector, Logger and Now fall back to in-process defaults when nil.
type DrawDeps struct {
	Tx          repositories.Transactor
	Prizes      repositories.PrizeRepository
	Inventory   repositories.InventoryRepository
	Spins       repositories.SpinRepository
	Eligibility repositories.EligibilityRepository
	Toggles     repositories.FeatureToggleRepository
	Catalog     cache.PrizeCatalog
	Latch       cache.DrawLatch
	Notifier    notify.Notifier
	Selector    *Selector
	Period      time.Duration
	Logger      *slog.Logger
	Now         func() time.Time
}

// DrawServiceImpl runs the weekly reward draws
type DrawServiceImpl struct {
	tx              repositories.Transactor
	prizeRepo       repositories.PrizeRepository
	inventoryRepo   repositories.InventoryRepository
	spinRepo        repositories.SpinRepository
	eligibilityRepo repositories.EligibilityRepository
	toggleRepo      repositories.FeatureToggleRepository
	catalog         cache.PrizeCatalog
	latch           cache.DrawLatch
	notifier        notify.Notifier
	selector        *Selector
	period          time.Duration
	logger          *slog.Logger
	now             func() time.Time
}

// NewDrawService creates a new DrawServiceImpl
func NewDrawService(deps DrawDeps) *DrawServiceImpl {
	s := &DrawServiceImpl{
		tx:              deps.Tx,
		prizeRepo:       deps.Prizes,
		inventoryRepo:   deps.Inventory,
		spinRepo:        deps.Spins,
		eligibilityRepo: deps.Eligibility,
		toggleRepo:      deps.Toggles,
		catalog:         deps.Catalog,
		latch:           deps.Latch,
		notifier:        deps.Notifier,
		selector:        deps.Selector,
		period:          deps.Period,
		logger:          deps.Logger,
		now:             deps.Now,
	}
	if s.catalog == nil {
		s.catalog = cache.NopPrizeCatalog{}
	}
	if s.latch == nil {
		s.latch = cache.NewLocalDrawLatch()
	}
	if s.notifier == nil {
		s.notifier = notify.Nop{}
	}
	if s.selector == nil {
		s.selector = NewSelector(nil)
	}
	if s.period <= 0 {
		s.period = models.DefaultEligibilityPeriod
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.logger = s.logger.With("component", "draw")
	return s
}

// CheckEligibility reads the toggle and the participant's window
func (s *DrawServiceImpl) CheckEligibility(ctx context.Context, participantID string, drawType models.DrawType) (*models.Eligibility, error) {
	if !drawType.Valid() {
		return nil, fmt.Errorf("%w: unknown draw type %q", models.ErrInvalidInput, drawType)
	}
	toggle, err := s.toggleRepo.Get(ctx, drawType)
	if err != nil {
		return nil, fmt.Errorf("failed to load feature toggle: %w", err)
	}
	result := &models.Eligibility{DrawType: drawType, Enabled: toggle.Enabled, Eligible: toggle.Enabled}

	window, err := s.eligibilityRepo.Find(ctx, participantID, drawType)
	if errors.Is(err, models.ErrNotFound) {
		return result, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load eligibility window: %w", err)
	}
	last := window.LastDrawAt
	next := last.Add(s.period)
	result.LastDrawAt = &last
	result.NextEligibleAt = &next
	result.Eligible = toggle.Enabled && !s.now().Before(next)
	return result, nil
}

// ExecuteDraw runs one draw for participantID
func (s *DrawServiceImpl) ExecuteDraw(ctx context.Context, participantID string, drawType models.DrawType, requestID string) (*models.DrawOutcome, error) {
	if !drawType.Valid() {
		return nil, fmt.Errorf("%w: unknown draw type %q", models.ErrInvalidInput, drawType)
	}
	if participantID == "" {
		return nil, fmt.Errorf("%w: participant id is required", models.ErrInvalidInput)
	}
	if requestID == "" {
		requestID = uuid.NewString()
	} else if _, err := uuid.Parse(requestID); err != nil {
		return nil, fmt.Errorf("%w: request id must be a uuid", models.ErrInvalidInput)
	}

	// A retried request returns what was committed the first time.
	if outcome, err := s.FindDraw(ctx, participantID, drawType, requestID); err == nil {
		s.logger.Info("Draw request replayed", "participantId", participantID, "requestId", requestID)
		return outcome, nil
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, &models.DrawTransactionError{Err: err}
	}

	release, err := s.latch.Acquire(ctx, participantID, drawType)
	if err != nil {
		if errors.Is(err, models.ErrDrawInProgress) {
			return nil, err
		}
		s.logger.Error("Failed to acquire draw latch", "error", err, "participantId", participantID)
		return nil, &models.DrawTransactionError{Err: err}
	}
	defer release()

	var spin *models.SpinRecord
	var reserved bool
	err = s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		var txErr error
		spin, reserved, txErr = s.draw(txCtx, participantID, drawType, requestID)
		return txErr
	})
	if err != nil {
		var ineligible *models.IneligibleError
		switch {
		case errors.As(err, &ineligible):
			s.logger.Info("Draw refused", "participantId", participantID, "drawType", drawType, "reason", ineligible.Reason)
			return nil, ineligible
		case errors.Is(err, models.ErrNoPrizeAvailable):
			s.logger.Warn("Draw found no prize available", "participantId", participantID, "drawType", drawType)
			return nil, models.ErrNoPrizeAvailable
		default:
			s.logger.Error("Draw transaction failed", "error", err, "participantId", participantID, "drawType", drawType, "requestId", requestID)
			return nil, &models.DrawTransactionError{Err: err}
		}
	}

	if reserved {
		if err := s.catalog.Invalidate(ctx, drawType); err != nil {
			s.logger.Warn("Failed to invalidate prize catalog", "error", err, "drawType", drawType)
		}
	}
	if spin.PrizeCategory != models.PrizeCategoryNoWin {
		go s.notifyWin(context.WithoutCancel(ctx), spin)
	}

	s.logger.Info("Draw executed", "participantId", participantID, "drawType", drawType, "prizeId", spin.PrizeID.Hex(), "category", spin.PrizeCategory, "requestId", requestID)
	return models.OutcomeFromSpin(spin, s.period), nil
}

// draw is the transactional body of ExecuteDraw. It may run more than once
// when the store retries a transient transaction error.
func (s *DrawServiceImpl) draw(ctx context.Context, participantID string, drawType models.DrawType, requestID string) (*models.SpinRecord, bool, error) {
	now := s.now()

	toggle, err := s.toggleRepo.Get(ctx, drawType)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load feature toggle: %w", err)
	}
	if !toggle.Enabled {
		return nil, false, &models.IneligibleError{DrawType: drawType, Reason: models.ReasonDisabled}
	}

	// Read first: a failed write aborts a Mongo transaction, so the
	// common refusal path must not depend on Claim failing.
	window, err := s.eligibilityRepo.Find(ctx, participantID, drawType)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, false, fmt.Errorf("failed to load eligibility window: %w", err)
	}
	if window != nil && now.Before(window.LastDrawAt.Add(s.period)) {
		next := window.LastDrawAt.Add(s.period)
		return nil, false, &models.IneligibleError{DrawType: drawType, Reason: models.ReasonAlreadyDrawn, NextEligibleAt: &next}
	}
	if err := s.eligibilityRepo.Claim(ctx, participantID, drawType, now, s.period); err != nil {
		if errors.Is(err, repositories.ErrWindowActive) {
			return nil, false, &models.IneligibleError{DrawType: drawType, Reason: models.ReasonAlreadyDrawn}
		}
		return nil, false, fmt.Errorf("failed to claim eligibility window: %w", err)
	}

	prizes, err := s.prizeRepo.FindByDrawType(ctx, drawType, true)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load prizes: %w", err)
	}
	inventories, err := s.inventoryRepo.FindByPrizeIDs(ctx, lo.Map(prizes, func(p *models.Prize, _ int) primitive.ObjectID { return p.ID }))
	if err != nil {
		return nil, false, fmt.Errorf("failed to load inventory: %w", err)
	}

	candidates := Drawable(prizes, inventories)
	for {
		prize, err := s.selector.Pick(candidates)
		if err != nil {
			return nil, false, err
		}

		_, tracked := inventories[prize.ID]
		reserve := tracked && !prize.IsNoWin()
		if reserve {
			if err := s.inventoryRepo.Reserve(ctx, prize.ID); err != nil {
				if errors.Is(err, repositories.ErrInventoryExhausted) {
					// Taken by a concurrent draw since we read it.
					candidates = lo.Reject(candidates, func(p *models.Prize, _ int) bool { return p.ID == prize.ID })
					continue
				}
				return nil, false, fmt.Errorf("failed to reserve prize: %w", err)
			}
		}

		spin := models.NewSpinRecord(participantID, prize, requestID, now)
		if err := s.spinRepo.Create(ctx, spin); err != nil {
			return nil, false, fmt.Errorf("failed to record spin: %w", err)
		}
		return spin, reserve, nil
	}
}

func (s *DrawServiceImpl) notifyWin(ctx context.Context, spin *models.SpinRecord) {
	ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()
	if err := s.notifier.PrizeWon(ctx, spin); err != nil {
		s.logger.Error("Failed to notify prize win", "error", err, "spinId", spin.ID.Hex())
	}
}

// FindDraw looks up a committed draw by its request id
func (s *DrawServiceImpl) FindDraw(ctx context.Context, participantID string, drawType models.DrawType, requestID string) (*models.DrawOutcome, error) {
	spin, err := s.spinRepo.FindByRequestID(ctx, participantID, requestID)
	if err != nil {
		return nil, err
	}
	if spin.DrawType != drawType {
		return nil, models.ErrNotFound
	}
	return models.OutcomeFromSpin(spin, s.period), nil
}

// ListActivePrizes returns the drawable prizes, served from the catalog cache when possible
func (s *DrawServiceImpl) ListActivePrizes(ctx context.Context, drawType models.DrawType) ([]*models.Prize, error) {
	if !drawType.Valid() {
		return nil, fmt.Errorf("%w: unknown draw type %q", models.ErrInvalidInput, drawType)
	}
	if prizes, ok, err := s.catalog.Get(ctx, drawType); err != nil {
		s.logger.Warn("Prize catalog read failed", "error", err, "drawType", drawType)
	} else if ok {
		return prizes, nil
	}

	prizes, err := s.prizeRepo.FindByDrawType(ctx, drawType, true)
	if err != nil {
		return nil, fmt.Errorf("failed to load prizes: %w", err)
	}
	inventories, err := s.inventoryRepo.FindByPrizeIDs(ctx, lo.Map(prizes, func(p *models.Prize, _ int) primitive.ObjectID { return p.ID }))
	if err != nil {
		return nil, fmt.Errorf("failed to load inventory: %w", err)
	}
	drawable := Drawable(prizes, inventories)

	if err := s.catalog.Set(ctx, drawType, drawable); err != nil {
		s.logger.Warn("Prize catalog write failed", "error", err, "drawType", drawType)
	}
	return drawable, nil
}

// GetFeatureToggle returns the toggle of a draw type
func (s *DrawServiceImpl) GetFeatureToggle(ctx context.Context, drawType models.DrawType) (*models.FeatureToggle, error) {
	if !drawType.Valid() {
		return nil, fmt.Errorf("%w: unknown draw type %q", models.ErrInvalidInput, drawType)
	}
	return s.toggleRepo.Get(ctx, drawType)
}

// ListParticipantSpins returns the participant's own spins
func (s *DrawServiceImpl) ListParticipantSpins(ctx context.Context, participantID string, page, limit int) ([]*models.SpinRecord, error) {
	page, limit = normalizePage(page, limit)
	return s.spinRepo.FindByParticipant(ctx, participantID, page, limit)
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
