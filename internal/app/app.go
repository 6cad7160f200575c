// Package app wires the configured store, caches and services together for
// the API server and the padelctl tool.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ArowuTest/padel-arena-backend/internal/cache"
	"github.com/ArowuTest/padel-arena-backend/internal/config"
	"github.com/ArowuTest/padel-arena-backend/internal/notify"
	"github.com/ArowuTest/padel-arena-backend/internal/repositories"
	"github.com/ArowuTest/padel-arena-backend/internal/repositories/memory"
	mongorepo "github.com/ArowuTest/padel-arena-backend/internal/repositories/mongodb"
	"github.com/ArowuTest/padel-arena-backend/internal/services"
	"github.com/ArowuTest/padel-arena-backend/pkg/jwt"
	"github.com/ArowuTest/padel-arena-backend/pkg/mongodb"
	"github.com/redis/go-redis/v9"
)

// Stores holds one implementation of every repository.
type Stores struct {
	Tx           repositories.Transactor
	Prizes       repositories.PrizeRepository
	Inventory    repositories.InventoryRepository
	Spins        repositories.SpinRepository
	Eligibility  repositories.EligibilityRepository
	Toggles      repositories.FeatureToggleRepository
	Admins       repositories.AdminUserRepository
	Reservations repositories.ReservationRepository

	closers []func(ctx context.Context) error
}

// OpenStores connects the store selected by cfg.Draw.StoreMode.
func OpenStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Stores, error) {
	if cfg.Draw.StoreMode == config.StoreMemory {
		logger.Warn("Using the in-memory store, data is lost on restart")
		store := memory.NewStore()
		return &Stores{
			Tx:           store,
			Prizes:       store.Prizes(),
			Inventory:    store.Inventory(),
			Spins:        store.Spins(),
			Eligibility:  store.Eligibility(),
			Toggles:      store.Toggles(),
			Admins:       store.Admins(),
			Reservations: store.Reservations(),
		}, nil
	}

	client, err := mongodb.NewClient(ctx, cfg.MongoDB.URI)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	db := client.Database(cfg.MongoDB.Database)
	if err := mongorepo.EnsureIndexes(ctx, db); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}
	logger.Info("Connected to MongoDB", "database", cfg.MongoDB.Database)

	return &Stores{
		Tx:           mongorepo.NewTransactor(client.Mongo()),
		Prizes:       mongorepo.NewPrizeRepository(db),
		Inventory:    mongorepo.NewInventoryRepository(db),
		Spins:        mongorepo.NewSpinRepository(db),
		Eligibility:  mongorepo.NewEligibilityRepository(db),
		Toggles:      mongorepo.NewFeatureToggleRepository(db),
		Admins:       mongorepo.NewAdminUserRepository(db),
		Reservations: mongorepo.NewReservationRepository(db),
		closers:      []func(ctx context.Context) error{client.Disconnect},
	}, nil
}

// Close releases the store connections.
func (s *Stores) Close(ctx context.Context) error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c(ctx))
	}
	return errors.Join(errs...)
}

// Services is the full service layer.
type Services struct {
	Tokens   *jwt.TokenService
	Draw     *services.DrawServiceImpl
	Prizes   *services.PrizeServiceImpl
	Auth     services.AuthService
	Fidelity services.FidelityService

	redis *redis.Client
}

// NewServices builds the services on top of stores. Redis and Telegram are
// used when configured; otherwise in-process defaults take their place.
func NewServices(ctx context.Context, cfg *config.Config, stores *Stores, logger *slog.Logger) (*Services, error) {
	tokens, err := jwt.NewTokenService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.TokenTTL())
	if err != nil {
		return nil, err
	}

	svc := &Services{Tokens: tokens}
	var (
		catalog cache.PrizeCatalog = cache.NopPrizeCatalog{}
		latch   cache.DrawLatch    = cache.NewLocalDrawLatch()
	)
	if cfg.Redis.Enabled {
		rdb, err := cache.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		svc.redis = rdb
		catalog = cache.NewRedisPrizeCatalog(rdb, cfg.CatalogTTL())
		latch = cache.NewRedisDrawLatch(rdb, cfg.LockTTL(), logger)
		logger.Info("Redis prize catalog and draw latch enabled", "addr", cfg.Redis.Addr)
	}

	var notifier notify.Notifier = notify.Nop{}
	if cfg.Telegram.BotToken != "" && cfg.Telegram.AdminChatID != 0 {
		tg, err := notify.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.AdminChatID, logger)
		if err != nil {
			logger.Error("Telegram notifier disabled", "error", err)
		} else {
			notifier = tg
		}
	}

	svc.Draw = services.NewDrawService(services.DrawDeps{
		Tx:          stores.Tx,
		Prizes:      stores.Prizes,
		Inventory:   stores.Inventory,
		Spins:       stores.Spins,
		Eligibility: stores.Eligibility,
		Toggles:     stores.Toggles,
		Catalog:     catalog,
		Latch:       latch,
		Notifier:    notifier,
		Period:      cfg.EligibilityPeriod(),
		Logger:      logger,
	})
	svc.Prizes = services.NewPrizeService(stores.Tx, stores.Prizes, stores.Inventory, stores.Spins, stores.Toggles, catalog, logger)
	svc.Auth = services.NewAuthService(stores.Admins, tokens)
	svc.Fidelity = services.NewFidelityService(stores.Reservations)
	return svc, nil
}

// SeedAdmin creates the configured admin unless it already exists.
func (s *Services) SeedAdmin(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if cfg.Admin.Email == "" || cfg.Admin.Password == "" {
		return nil
	}
	_, err := s.Auth.CreateAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password, "Club", "Admin")
	if errors.Is(err, repositories.ErrDuplicateEmail) {
		return nil
	}
	if err != nil {
		return err
	}
	logger.Info("Seeded admin account", "email", cfg.Admin.Email)
	return nil
}

// Close releases the Redis connection, if any.
func (s *Services) Close() error {
	if s.redis != nil {
		return s.redis.Close()
	}
	return nil
}
