package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/ArowuTest/padel-arena-backend/internal/cache"
	"github.com/ArowuTest/padel-arena-backend/internal/models"
	"github.com/ArowuTest/padel-arena-backend/internal/repositories"
	"github.com/ArowuTest/padel-arena-backend/internal/utils"
	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Compile-time check to ensure PrizeServiceImpl implements PrizeService
var _ PrizeService = (*PrizeServiceImpl)(nil)

const (
	defaultWheelColor    = "#3B82F6"
	defaultWheelQuantity = 1
	defaultJackpotEmoji  = "🎁"
)

// PrizeInput is the admin payload for creating or editing a prize. Nil
// pointers keep the current value on update and take defaults on create.
type PrizeInput struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Category    string `json:"category" binding:"required"`
	Weight      *int   `json:"weight"`
	Active      *bool  `json:"active"`
	Position    *int   `json:"position"`
	Color       string `json:"color"`
	Icon        string `json:"icon"`
	Emoji       string `json:"emoji"`
	Quantity    *int   `json:"quantity"`
}

// ImportResult summarises a CSV import.
type ImportResult struct {
	Imported int              `json:"imported"`
	Failed   []utils.RowError `json:"failed"`
}

// PrizeServiceImpl manages the prize catalog, stock and toggles
type PrizeServiceImpl struct {
	tx            repositories.Transactor
	prizeRepo     repositories.PrizeRepository
	inventoryRepo repositories.InventoryRepository
	spinRepo      repositories.SpinRepository
	toggleRepo    repositories.FeatureToggleRepository
	catalog       cache.PrizeCatalog
	logger        *slog.Logger
}

// NewPrizeService creates a new PrizeServiceImpl
func NewPrizeService(
	tx repositories.Transactor,
	prizeRepo repositories.PrizeRepository,
	inventoryRepo repositories.InventoryRepository,
	spinRepo repositories.SpinRepository,
	toggleRepo repositories.FeatureToggleRepository,
	catalog cache.PrizeCatalog,
	logger *slog.Logger,
) *PrizeServiceImpl {
	if catalog == nil {
		catalog = cache.NopPrizeCatalog{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PrizeServiceImpl{
		tx:            tx,
		prizeRepo:     prizeRepo,
		inventoryRepo: inventoryRepo,
		spinRepo:      spinRepo,
		toggleRepo:    toggleRepo,
		catalog:       catalog,
		logger:        logger.With("component", "prizes"),
	}
}

// ListPrizes returns every prize of a draw type with its stock
func (s *PrizeServiceImpl) ListPrizes(ctx context.Context, drawType models.DrawType) ([]*models.PrizeView, error) {
	prizes, err := s.prizeRepo.FindByDrawType(ctx, drawType, false)
	if err != nil {
		return nil, fmt.Errorf("failed to load prizes: %w", err)
	}
	inventories, err := s.inventoryRepo.FindByPrizeIDs(ctx, lo.Map(prizes, func(p *models.Prize, _ int) primitive.ObjectID { return p.ID }))
	if err != nil {
		return nil, fmt.Errorf("failed to load inventory: %w", err)
	}
	return lo.Map(prizes, func(p *models.Prize, _ int) *models.PrizeView {
		return newPrizeView(p, inventories[p.ID])
	}), nil
}

func newPrizeView(p *models.Prize, inv *models.PrizeInventory) *models.PrizeView {
	view := &models.PrizeView{Prize: p, Inventory: inv}
	if inv != nil {
		view.Available = lo.ToPtr(inv.Available())
	}
	return view
}

// CreatePrize adds a prize and, for stocked prizes, its inventory record
func (s *PrizeServiceImpl) CreatePrize(ctx context.Context, drawType models.DrawType, input PrizeInput) (*models.PrizeView, error) {
	prize, err := applyPrizeInput(&models.Prize{DrawType: drawType, Active: true}, input, true)
	if err != nil {
		return nil, err
	}

	quantity := input.Quantity
	if quantity == nil && drawType == models.DrawTypeWheel && !prize.IsNoWin() {
		quantity = lo.ToPtr(defaultWheelQuantity)
	}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.prizeRepo.Create(ctx, prize); err != nil {
			return fmt.Errorf("failed to create prize: %w", err)
		}
		if quantity != nil && !prize.IsNoWin() {
			if err := s.inventoryRepo.SetQuantity(ctx, prize.ID, *quantity); err != nil {
				return fmt.Errorf("failed to create inventory: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to create prize", "error", err, "drawType", drawType)
		return nil, err
	}
	s.invalidate(ctx, drawType)
	s.logger.Info("Prize created", "prizeId", prize.ID.Hex(), "drawType", drawType, "name", prize.Name)
	return s.view(ctx, prize)
}

// UpdatePrize edits a prize; its draw type cannot change
func (s *PrizeServiceImpl) UpdatePrize(ctx context.Context, id primitive.ObjectID, input PrizeInput) (*models.PrizeView, error) {
	existing, err := s.prizeRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	wasNoWin := existing.IsNoWin()
	prize, err := applyPrizeInput(existing, input, false)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.prizeRepo.Update(ctx, prize); err != nil {
			return fmt.Errorf("failed to update prize: %w", err)
		}
		if prize.IsNoWin() {
			return nil
		}
		if input.Quantity != nil {
			return s.setQuantity(ctx, prize.ID, *input.Quantity)
		}
		if wasNoWin && prize.DrawType == models.DrawTypeWheel {
			// A real wheel prize is always tracked, as on create.
			_, err := s.inventoryRepo.FindByPrizeID(ctx, prize.ID)
			if errors.Is(err, models.ErrNotFound) {
				return s.setQuantity(ctx, prize.ID, defaultWheelQuantity)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, prize.DrawType)
	s.logger.Info("Prize updated", "prizeId", id.Hex(), "drawType", prize.DrawType)
	return s.view(ctx, prize)
}

// SetPrizeActive switches a prize in or out of the draw
func (s *PrizeServiceImpl) SetPrizeActive(ctx context.Context, id primitive.ObjectID, active bool) (*models.PrizeView, error) {
	prize, err := s.prizeRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	prize.Active = active
	if err := s.prizeRepo.Update(ctx, prize); err != nil {
		return nil, fmt.Errorf("failed to update prize: %w", err)
	}
	s.invalidate(ctx, prize.DrawType)
	return s.view(ctx, prize)
}

// DeletePrize removes a prize and its stock. Recorded spins keep their snapshot.
func (s *PrizeServiceImpl) DeletePrize(ctx context.Context, id primitive.ObjectID) error {
	prize, err := s.prizeRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.prizeRepo.Delete(ctx, id); err != nil {
			return err
		}
		return s.inventoryRepo.Delete(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("failed to delete prize: %w", err)
	}
	s.invalidate(ctx, prize.DrawType)
	s.logger.Info("Prize deleted", "prizeId", id.Hex(), "drawType", prize.DrawType)
	return nil
}

// SetQuantity changes total stock, never below what is already reserved
func (s *PrizeServiceImpl) SetQuantity(ctx context.Context, id primitive.ObjectID, quantity int) (*models.PrizeView, error) {
	prize, err := s.prizeRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if prize.IsNoWin() {
		return nil, fmt.Errorf("%w: no-win prizes have no stock", models.ErrInvalidInput)
	}
	if err := s.setQuantity(ctx, id, quantity); err != nil {
		return nil, err
	}
	s.invalidate(ctx, prize.DrawType)
	return s.view(ctx, prize)
}

func (s *PrizeServiceImpl) setQuantity(ctx context.Context, id primitive.ObjectID, quantity int) error {
	if quantity < 0 {
		return fmt.Errorf("%w: quantity cannot be negative", models.ErrInvalidInput)
	}
	err := s.inventoryRepo.SetQuantity(ctx, id, quantity)
	if errors.Is(err, repositories.ErrQuantityBelowReserved) {
		return fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}
	return err
}

// ImportPrizes creates one prize per valid CSV row
func (s *PrizeServiceImpl) ImportPrizes(ctx context.Context, drawType models.DrawType, r io.Reader) (*ImportResult, error) {
	rows, rowErrors, err := utils.ReadPrizeRows(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}
	result := &ImportResult{Failed: rowErrors}
	for _, row := range rows {
		input := PrizeInput{
			Name:        row.Name,
			Description: row.Description,
			Category:    row.Category,
			Weight:      row.Weight,
			Position:    row.Position,
			Color:       row.Color,
			Icon:        row.Icon,
			Emoji:       row.Emoji,
			Quantity:    row.Quantity,
		}
		if _, err := s.CreatePrize(ctx, drawType, input); err != nil {
			result.Failed = append(result.Failed, utils.RowError{Line: row.Line, Err: err.Error()})
			continue
		}
		result.Imported++
	}
	if result.Failed == nil {
		result.Failed = []utils.RowError{}
	}
	s.logger.Info("Prize import finished", "drawType", drawType, "imported", result.Imported, "failed", len(result.Failed))
	return result, nil
}

// GetFeatureToggle returns the toggle of a draw type
func (s *PrizeServiceImpl) GetFeatureToggle(ctx context.Context, drawType models.DrawType) (*models.FeatureToggle, error) {
	return s.toggleRepo.Get(ctx, drawType)
}

// SetFeatureToggle switches a draw type on or off
func (s *PrizeServiceImpl) SetFeatureToggle(ctx context.Context, drawType models.DrawType, enabled bool, updatedBy string) (*models.FeatureToggle, error) {
	if err := s.toggleRepo.Set(ctx, drawType, enabled, updatedBy); err != nil {
		s.logger.Error("Failed to update feature toggle", "error", err, "drawType", drawType)
		return nil, fmt.Errorf("failed to update feature toggle: %w", err)
	}
	s.logger.Info("Feature toggle updated", "drawType", drawType, "enabled", enabled, "updatedBy", updatedBy)
	return s.toggleRepo.Get(ctx, drawType)
}

// Stats summarises the catalog and spin count of a draw type
func (s *PrizeServiceImpl) Stats(ctx context.Context, drawType models.DrawType) (*models.DrawStats, error) {
	views, err := s.ListPrizes(ctx, drawType)
	if err != nil {
		return nil, err
	}
	spins, err := s.spinRepo.CountByDrawType(ctx, drawType)
	if err != nil {
		return nil, fmt.Errorf("failed to count spins: %w", err)
	}
	toggle, err := s.toggleRepo.Get(ctx, drawType)
	if err != nil {
		return nil, fmt.Errorf("failed to load feature toggle: %w", err)
	}

	stats := &models.DrawStats{DrawType: drawType, TotalPrizes: len(views), TotalSpins: spins, Enabled: toggle.Enabled}
	for _, v := range views {
		if v.Active {
			stats.ActivePrizes++
		}
		if v.IsNoWin() {
			stats.NoWinPrizes++
		} else {
			stats.RealPrizes++
		}
		if v.Inventory != nil {
			stats.TotalQuantity += v.Inventory.Quantity
			stats.TotalReserved += v.Inventory.Reserved
		}
	}
	return stats, nil
}

// ListSpins returns the spin audit trail of a draw type
func (s *PrizeServiceImpl) ListSpins(ctx context.Context, drawType models.DrawType, page, limit int) ([]*models.SpinRecord, error) {
	page, limit = normalizePage(page, limit)
	return s.spinRepo.FindByDrawType(ctx, drawType, page, limit)
}

func (s *PrizeServiceImpl) view(ctx context.Context, prize *models.Prize) (*models.PrizeView, error) {
	inv, err := s.inventoryRepo.FindByPrizeID(ctx, prize.ID)
	if errors.Is(err, models.ErrNotFound) {
		return newPrizeView(prize, nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load inventory: %w", err)
	}
	return newPrizeView(prize, inv), nil
}

func (s *PrizeServiceImpl) invalidate(ctx context.Context, drawType models.DrawType) {
	if err := s.catalog.Invalidate(ctx, drawType); err != nil {
		s.logger.Warn("Failed to invalidate prize catalog", "error", err, "drawType", drawType)
	}
}

// applyPrizeInput copies input onto prize and enforces the per draw type rules:
// wheel prizes always weigh 1, jackpot weights are clamped to at least 1.
func applyPrizeInput(prize *models.Prize, input PrizeInput, creating bool) (*models.Prize, error) {
	category, err := models.ParsePrizeCategory(input.Category)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}
	prize.Name = strings.TrimSpace(input.Name)
	prize.Description = strings.TrimSpace(input.Description)
	prize.Category = category
	if input.Active != nil {
		prize.Active = *input.Active
	}
	if input.Position != nil {
		prize.Position = *input.Position
	}

	switch prize.DrawType {
	case models.DrawTypeWheel:
		prize.Weight = models.WheelWeight
		face := prize.Wheel
		if face == nil {
			face = &models.WheelFace{Color: defaultWheelColor}
		}
		if input.Color != "" {
			face.Color = input.Color
		}
		if input.Icon != "" {
			face.Icon = input.Icon
		}
		prize.Wheel = face
	case models.DrawTypeJackpot:
		switch {
		case input.Weight != nil:
			prize.Weight = max(*input.Weight, 1)
		case creating:
			prize.Weight = models.DefaultJackpotWeight
		}
		face := prize.Jackpot
		if face == nil {
			face = &models.JackpotFace{Emoji: defaultJackpotEmoji}
		}
		if input.Emoji != "" {
			face.Emoji = input.Emoji
		}
		prize.Jackpot = face
	}

	if err := prize.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}
	return prize, nil
}
