package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ArowuTest/padel-arena-backend/internal/models"
	"github.com/ArowuTest/padel-arena-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestWithTransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	prizeID := primitive.NewObjectID()
	if err := store.Inventory().SetQuantity(ctx, prizeID, 2); err != nil {
		t.Fatal(err)
	}

	boom := errors.New("boom")
	err := store.WithTransaction(ctx, func(ctx context.Context) error {
		if err := store.Inventory().Reserve(ctx, prizeID); err != nil {
			return err
		}
		if err := store.Eligibility().Claim(ctx, "p1", models.DrawTypeWheel, time.Now(), time.Hour); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithTransaction() error = %v, want %v", err, boom)
	}

	inv, _ := store.Inventory().FindByPrizeID(ctx, prizeID)
	if inv.Reserved != 0 {
		t.Errorf("Reserved = %d after rollback, want 0", inv.Reserved)
	}
	if _, err := store.Eligibility().Find(ctx, "p1", models.DrawTypeWheel); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Find() after rollback error = %v, want not found", err)
	}
}

func TestClaimRollingWindow(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repo := store.Eligibility()
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	period := 7 * 24 * time.Hour

	tests := []struct {
		name string
		at   time.Time
		want error
	}{
		{"first draw", start, nil},
		{"a day later", start.Add(24 * time.Hour), repositories.ErrWindowActive},
		{"one second early", start.Add(period - time.Second), repositories.ErrWindowActive},
		{"exactly one period later", start.Add(period), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := repo.Claim(ctx, "p1", models.DrawTypeJackpot, tt.at, period); !errors.Is(err, tt.want) {
				t.Errorf("Claim() error = %v, want %v", err, tt.want)
			}
		})
	}
	if err := repo.Claim(ctx, "p1", models.DrawTypeWheel, start.Add(time.Hour), period); err != nil {
		t.Errorf("Claim() on another draw type error = %v", err)
	}
}

func TestReserveStopsAtQuantity(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	prizeID := primitive.NewObjectID()
	if err := store.Inventory().Reserve(ctx, prizeID); !errors.Is(err, repositories.ErrInventoryExhausted) {
		t.Errorf("Reserve() without record error = %v", err)
	}
	_ = store.Inventory().SetQuantity(ctx, prizeID, 1)
	if err := store.Inventory().Reserve(ctx, prizeID); err != nil {
		t.Fatalf("Reserve() error = %v", err)
	}
	if err := store.Inventory().Reserve(ctx, prizeID); !errors.Is(err, repositories.ErrInventoryExhausted) {
		t.Errorf("Reserve() past quantity error = %v", err)
	}
	if err := store.Inventory().SetQuantity(ctx, prizeID, 0); !errors.Is(err, repositories.ErrQuantityBelowReserved) {
		t.Errorf("SetQuantity(0) error = %v", err)
	}
}

func TestSpinsNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	prize := &models.Prize{ID: primitive.NewObjectID(), DrawType: models.DrawTypeWheel, Name: "Balls", Category: models.PrizeCategoryPhysical}
	base := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		if err := store.Spins().Create(ctx, models.NewSpinRecord("p1", prize, id, base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatal(err)
		}
	}
	if err := store.Spins().Create(ctx, models.NewSpinRecord("p1", prize, "a", base)); !errors.Is(err, repositories.ErrDuplicateRequest) {
		t.Errorf("duplicate Create() error = %v", err)
	}

	latest, err := store.Spins().FindLatest(ctx, "p1", models.DrawTypeWheel)
	if err != nil || latest.RequestID != "c" {
		t.Fatalf("FindLatest() = %v, %v", latest, err)
	}
	page, _ := store.Spins().FindByParticipant(ctx, "p1", 2, 2)
	if len(page) != 1 || page[0].RequestID != "a" {
		t.Errorf("FindByParticipant(page 2) = %v", page)
	}
}
