package app

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/ArowuTest/padel-arena-backend/internal/config"
	"github.com/ArowuTest/padel-arena-backend/internal/models"
)

func TestMemoryWiring(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{
		JWT:   config.JWTConfig{Secret: "test-secret", ExpiresIn: 3600, Issuer: "padel-arena"},
		Draw:  config.DrawConfig{EligibilityDays: 7, StoreMode: config.StoreMemory},
		Admin: config.AdminConfig{Email: "admin@club.test", Password: "supersecret"},
	}

	stores, err := OpenStores(ctx, cfg, logger)
	if err != nil {
		t.Fatalf("OpenStores: %v", err)
	}
	defer stores.Close(ctx)

	svc, err := NewServices(ctx, cfg, stores, logger)
	if err != nil {
		t.Fatalf("NewServices: %v", err)
	}
	defer svc.Close()

	for i := 0; i < 2; i++ {
		if err := svc.SeedAdmin(ctx, cfg, logger); err != nil {
			t.Fatalf("SeedAdmin run %d: %v", i+1, err)
		}
	}
	resp, err := svc.Auth.Login(ctx, &models.LoginRequest{Email: cfg.Admin.Email, Password: cfg.Admin.Password})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	claims, err := svc.Tokens.Parse(resp.Token)
	if err != nil || claims.Role != models.RoleAdmin {
		t.Fatalf("claims = %+v, err %v", claims, err)
	}

	toggle, err := svc.Draw.GetFeatureToggle(ctx, models.DrawTypeJackpot)
	if err != nil || !toggle.Enabled {
		t.Fatalf("toggle = %+v, err %v", toggle, err)
	}
}
