package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ArowuTest/padel-arena-backend/internal/models"
	"github.com/ArowuTest/padel-arena-backend/internal/repositories/memory"
)

func newPrizeFixture() (*PrizeServiceImpl, *memory.Store, *recordingCatalog) {
	store := memory.NewStore()
	catalog := &recordingCatalog{}
	svc := NewPrizeService(store, store.Prizes(), store.Inventory(), store.Spins(), store.Toggles(), catalog, nil)
	return svc, store, catalog
}

func TestCreatePrizeRules(t *testing.T) {
	ctx := context.Background()
	svc, _, catalog := newPrizeFixture()

	t.Run("wheel weight is fixed and stock defaults to one", func(t *testing.T) {
		view, err := svc.CreatePrize(ctx, models.DrawTypeWheel, PrizeInput{Name: "Grip", Category: "physical", Weight: intPtr(9), Color: "#ff0000"})
		if err != nil {
			t.Fatalf("CreatePrize() error = %v", err)
		}
		if view.Weight != models.WheelWeight {
			t.Errorf("Weight = %d, want %d", view.Weight, models.WheelWeight)
		}
		if view.Wheel == nil || view.Wheel.Color != "#ff0000" || view.Jackpot != nil {
			t.Errorf("faces = %+v / %+v", view.Wheel, view.Jackpot)
		}
		if view.Inventory == nil || view.Inventory.Quantity != 1 {
			t.Errorf("Inventory = %+v, want quantity 1", view.Inventory)
		}
	})

	t.Run("jackpot weight defaults and clamps", func(t *testing.T) {
		def, err := svc.CreatePrize(ctx, models.DrawTypeJackpot, PrizeInput{Name: "Cap", Category: "DIGITAL"})
		if err != nil {
			t.Fatalf("CreatePrize() error = %v", err)
		}
		if def.Weight != models.DefaultJackpotWeight || def.Inventory != nil {
			t.Errorf("default jackpot prize = weight %d inventory %+v", def.Weight, def.Inventory)
		}
		if def.Jackpot == nil || def.Jackpot.Emoji == "" {
			t.Errorf("Jackpot face = %+v, want default emoji", def.Jackpot)
		}

		clamped, err := svc.CreatePrize(ctx, models.DrawTypeJackpot, PrizeInput{Name: "Shirt", Category: "physical", Weight: intPtr(-3), Quantity: intPtr(4)})
		if err != nil {
			t.Fatalf("CreatePrize() error = %v", err)
		}
		if clamped.Weight != 1 {
			t.Errorf("Weight = %d, want 1", clamped.Weight)
		}
		if clamped.Available == nil || *clamped.Available != 4 {
			t.Errorf("Available = %v, want 4", clamped.Available)
		}
	})

	t.Run("no-win prizes carry no stock", func(t *testing.T) {
		view, err := svc.CreatePrize(ctx, models.DrawTypeWheel, PrizeInput{Name: "Try again", Category: "no_win", Quantity: intPtr(10)})
		if err != nil {
			t.Fatalf("CreatePrize() error = %v", err)
		}
		if view.Inventory != nil {
			t.Errorf("Inventory = %+v, want none", view.Inventory)
		}
	})

	t.Run("invalid category", func(t *testing.T) {
		_, err := svc.CreatePrize(ctx, models.DrawTypeWheel, PrizeInput{Name: "Bad", Category: "voucher"})
		if !errors.Is(err, models.ErrInvalidInput) {
			t.Errorf("CreatePrize() error = %v, want %v", err, models.ErrInvalidInput)
		}
	})

	if len(catalog.invalidated) != 4 {
		t.Errorf("catalog invalidations = %d, want 4", len(catalog.invalidated))
	}
}

func TestSetQuantityKeepsReserved(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newPrizeFixture()
	view, err := svc.CreatePrize(ctx, models.DrawTypeWheel, PrizeInput{Name: "Balls", Category: "physical", Quantity: intPtr(3)})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		if err := store.Inventory().Reserve(ctx, view.ID); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := svc.SetQuantity(ctx, view.ID, 1); !errors.Is(err, models.ErrInvalidInput) {
		t.Errorf("SetQuantity(1) error = %v, want %v", err, models.ErrInvalidInput)
	}
	updated, err := svc.SetQuantity(ctx, view.ID, 10)
	if err != nil {
		t.Fatalf("SetQuantity(10) error = %v", err)
	}
	if updated.Inventory.Quantity != 10 || updated.Inventory.Reserved != 2 || *updated.Available != 8 {
		t.Errorf("Inventory = %+v available %d", updated.Inventory, *updated.Available)
	}
}

func TestUpdateAndDeletePrize(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newPrizeFixture()
	view, err := svc.CreatePrize(ctx, models.DrawTypeJackpot, PrizeInput{Name: "Cap", Category: "digital", Emoji: "🧢"})
	if err != nil {
		t.Fatal(err)
	}

	updated, err := svc.UpdatePrize(ctx, view.ID, PrizeInput{Name: "Team cap", Category: "physical", Weight: intPtr(7)})
	if err != nil {
		t.Fatalf("UpdatePrize() error = %v", err)
	}
	if updated.Name != "Team cap" || updated.Weight != 7 || updated.Jackpot.Emoji != "🧢" || updated.DrawType != models.DrawTypeJackpot {
		t.Errorf("UpdatePrize() = %+v", updated.Prize)
	}

	inactive, err := svc.SetPrizeActive(ctx, view.ID, false)
	if err != nil || inactive.Active {
		t.Fatalf("SetPrizeActive() = %+v, %v", inactive, err)
	}

	if err := svc.DeletePrize(ctx, view.ID); err != nil {
		t.Fatalf("DeletePrize() error = %v", err)
	}
	if _, err := store.Prizes().FindByID(ctx, view.ID); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("FindByID() after delete error = %v", err)
	}
	if err := svc.DeletePrize(ctx, view.ID); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("second DeletePrize() error = %v, want not found", err)
	}
}

func TestUpdateNoWinToRealPrizeTracksStock(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newPrizeFixture()
	view, err := svc.CreatePrize(ctx, models.DrawTypeWheel, PrizeInput{Name: "Try again", Category: "no_win"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.Inventory().FindByPrizeID(ctx, view.ID); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("no-win prize has inventory, error = %v", err)
	}

	updated, err := svc.UpdatePrize(ctx, view.ID, PrizeInput{Name: "Overgrip", Category: "physical"})
	if err != nil {
		t.Fatalf("UpdatePrize() error = %v", err)
	}
	if updated.Inventory == nil || updated.Inventory.Quantity != 1 || updated.Inventory.Reserved != 0 {
		t.Errorf("Inventory = %+v, want quantity 1", updated.Inventory)
	}

	if err := store.Inventory().Reserve(ctx, view.ID); err != nil {
		t.Fatal(err)
	}
	updated, err = svc.UpdatePrize(ctx, view.ID, PrizeInput{Name: "Overgrip pack", Category: "physical"})
	if err != nil {
		t.Fatalf("second UpdatePrize() error = %v", err)
	}
	if updated.Inventory == nil || updated.Inventory.Quantity != 1 || updated.Inventory.Reserved != 1 {
		t.Errorf("Inventory = %+v, want the existing record untouched", updated.Inventory)
	}
}

func TestStatsAndToggle(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newPrizeFixture()
	mustCreate := func(in PrizeInput) {
		t.Helper()
		if _, err := svc.CreatePrize(ctx, models.DrawTypeWheel, in); err != nil {
			t.Fatal(err)
		}
	}
	mustCreate(PrizeInput{Name: "Balls", Category: "physical", Quantity: intPtr(5)})
	mustCreate(PrizeInput{Name: "Hour", Category: "digital", Quantity: intPtr(2), Active: boolPtr(false)})
	mustCreate(PrizeInput{Name: "Try again", Category: "no_win"})
	spin := models.NewSpinRecord("p1", &models.Prize{DrawType: models.DrawTypeWheel, Name: "Try again", Category: models.PrizeCategoryNoWin}, "r1", time.Now())
	if err := store.Spins().Create(ctx, spin); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.SetFeatureToggle(ctx, models.DrawTypeWheel, false, "staff@club.test"); err != nil {
		t.Fatal(err)
	}

	stats, err := svc.Stats(ctx, models.DrawTypeWheel)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	want := models.DrawStats{
		DrawType:      models.DrawTypeWheel,
		TotalPrizes:   3,
		ActivePrizes:  2,
		RealPrizes:    2,
		NoWinPrizes:   1,
		TotalQuantity: 7,
		TotalReserved: 0,
		TotalSpins:    1,
		Enabled:       false,
	}
	if *stats != want {
		t.Errorf("Stats() = %+v, want %+v", *stats, want)
	}
}

func TestImportPrizes(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newPrizeFixture()
	csv := "name,category,weight,quantity,emoji\nCourt hour,digital,3,,🎾\nRacket,physical,1,2,🏓\nMystery,voucher,1,,\n"

	result, err := svc.ImportPrizes(ctx, models.DrawTypeJackpot, strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ImportPrizes() error = %v", err)
	}
	if result.Imported != 2 || len(result.Failed) != 1 || result.Failed[0].Line != 4 {
		t.Errorf("ImportPrizes() = %+v", result)
	}

	views, _ := svc.ListPrizes(ctx, models.DrawTypeJackpot)
	if len(views) != 2 {
		t.Fatalf("ListPrizes() = %d prizes, want 2", len(views))
	}
}

func boolPtr(b bool) *bool { return &b }
