package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ArowuTest/padel-arena-backend/internal/config"
	"github.com/ArowuTest/padel-arena-backend/internal/handlers"
	"github.com/ArowuTest/padel-arena-backend/internal/models"
	"github.com/ArowuTest/padel-arena-backend/internal/repositories/memory"
	"github.com/ArowuTest/padel-arena-backend/internal/services"
	"github.com/ArowuTest/padel-arena-backend/pkg/jwt"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	adminEmail    = "admin@club.test"
	adminPassword = "supersecret"
	playerID      = "player-1"
)

type apiFixture struct {
	t      *testing.T
	router *gin.Engine
	store  *memory.Store
	tokens *jwt.TokenService
	player string
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.NewStore()
	tokens, err := jwt.NewTokenService("test-secret", "padel-arena", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	drawService := services.NewDrawService(services.DrawDeps{
		Tx:          store,
		Prizes:      store.Prizes(),
		Inventory:   store.Inventory(),
		Spins:       store.Spins(),
		Eligibility: store.Eligibility(),
		Toggles:     store.Toggles(),
		Logger:      logger,
	})
	prizeService := services.NewPrizeService(store, store.Prizes(), store.Inventory(), store.Spins(), store.Toggles(), nil, logger)
	authService := services.NewAuthService(store.Admins(), tokens)
	if _, err := authService.CreateAdmin(context.Background(), adminEmail, adminPassword, "Ada", "Admin"); err != nil {
		t.Fatalf("CreateAdmin: %v", err)
	}

	cfg := &config.Config{Server: config.ServerConfig{Mode: gin.TestMode, AllowedHosts: []string{"*"}}}
	router := SetupRouter(cfg, HandlerDependencies{
		Tokens:            tokens,
		Logger:            logger,
		AuthHandler:       handlers.NewAuthHandler(authService),
		DrawHandler:       handlers.NewDrawHandler(drawService),
		StreamHandler:     handlers.NewStreamHandler(drawService, handlers.StreamOptions{Logger: logger}),
		FidelityHandler:   handlers.NewFidelityHandler(services.NewFidelityService(store.Reservations())),
		PrizeAdminHandler: handlers.NewPrizeAdminHandler(prizeService),
	})

	player, _, err := tokens.Issue(playerID, "player@club.test", models.RoleParticipant)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return &apiFixture{t: t, router: router, store: store, tokens: tokens, player: player}
}

func (f *apiFixture) do(method, path, token string, body any) *httptest.ResponseRecorder {
	f.t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			f.t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *apiFixture) adminToken() string {
	f.t.Helper()
	w := f.do(http.MethodPost, "/api/v1/auth/login", "", models.LoginRequest{Email: adminEmail, Password: adminPassword})
	if w.Code != http.StatusOK {
		f.t.Fatalf("login status = %d, body %s", w.Code, w.Body.String())
	}
	var resp models.LoginResponse
	decode(f.t, w, &resp)
	return resp.Token
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("status = %d, want %d (body %s)", w.Code, status, w.Body.String())
	}
	if code == "" {
		return
	}
	var body map[string]any
	decode(t, w, &body)
	if body["code"] != code {
		t.Fatalf("code = %v, want %s", body["code"], code)
	}
}

func TestHealth(t *testing.T) {
	f := newAPIFixture(t)
	w := f.do(http.MethodGet, "/api/v1/health", "", nil)
	expectStatus(t, w, http.StatusOK, "")
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	f := newAPIFixture(t)
	w := f.do(http.MethodPost, "/api/v1/auth/login", "", models.LoginRequest{Email: adminEmail, Password: "wrong-password"})
	expectStatus(t, w, http.StatusUnauthorized, models.CodeUnauthorized)
}

func TestAccessControl(t *testing.T) {
	f := newAPIFixture(t)
	tests := []struct {
		name   string
		path   string
		token  string
		status int
		code   string
	}{
		{"no token", "/api/v1/draws/wheel/eligibility", "", http.StatusUnauthorized, models.CodeUnauthorized},
		{"garbage token", "/api/v1/draws/wheel/eligibility", "not-a-jwt", http.StatusUnauthorized, models.CodeUnauthorized},
		{"participant on admin route", "/api/v1/admin/draws/wheel/prizes", f.player, http.StatusForbidden, models.CodeForbidden},
		{"unknown draw type", "/api/v1/draws/roulette/eligibility", f.player, http.StatusBadRequest, models.CodeBadRequest},
		{"participant allowed", "/api/v1/draws/jackpot/eligibility", f.player, http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectStatus(t, f.do(http.MethodGet, tt.path, tt.token, nil), tt.status, tt.code)
		})
	}
}

func TestAdminCatalogAndParticipantDraw(t *testing.T) {
	f := newAPIFixture(t)
	admin := f.adminToken()

	w := f.do(http.MethodPost, "/api/v1/admin/draws/wheel/prizes", admin, services.PrizeInput{
		Name:     "Free court hour",
		Category: "physical",
		Color:    "#16a34a",
		Quantity: intPtr(3),
	})
	expectStatus(t, w, http.StatusCreated, "")
	var created models.PrizeView
	decode(t, w, &created)
	if created.Weight != models.WheelWeight || created.Inventory == nil || created.Inventory.Quantity != 3 {
		t.Fatalf("created = %+v", created)
	}

	w = f.do(http.MethodGet, "/api/v1/draws/wheel/prizes", f.player, nil)
	expectStatus(t, w, http.StatusOK, "")
	var prizes []*models.Prize
	decode(t, w, &prizes)
	if len(prizes) != 1 || prizes[0].ID != created.ID {
		t.Fatalf("prizes = %+v", prizes)
	}

	w = f.do(http.MethodPost, "/api/v1/draws/wheel/spins", f.player, handlers.SpinRequest{RequestID: "not-a-uuid"})
	expectStatus(t, w, http.StatusBadRequest, models.CodeBadRequest)

	requestID := uuid.NewString()
	w = f.do(http.MethodPost, "/api/v1/draws/wheel/spins", f.player, handlers.SpinRequest{RequestID: requestID})
	expectStatus(t, w, http.StatusOK, "")
	var outcome models.DrawOutcome
	decode(t, w, &outcome)
	if outcome.PrizeID != created.ID || outcome.RequestID != requestID {
		t.Fatalf("outcome = %+v", outcome)
	}

	// Same request id replays the committed outcome.
	w = f.do(http.MethodPost, "/api/v1/draws/wheel/spins", f.player, handlers.SpinRequest{RequestID: requestID})
	expectStatus(t, w, http.StatusOK, "")

	w = f.do(http.MethodPost, "/api/v1/draws/wheel/spins", f.player, handlers.SpinRequest{RequestID: uuid.NewString()})
	expectStatus(t, w, http.StatusConflict, models.CodeIneligible)
	var refused map[string]any
	decode(t, w, &refused)
	if refused["reason"] != models.ReasonAlreadyDrawn || refused["nextEligibleAt"] == nil {
		t.Fatalf("refusal = %v", refused)
	}

	w = f.do(http.MethodGet, "/api/v1/draws/wheel/spins/"+requestID, f.player, nil)
	expectStatus(t, w, http.StatusOK, "")
	w = f.do(http.MethodGet, "/api/v1/draws/wheel/spins/"+uuid.NewString(), f.player, nil)
	expectStatus(t, w, http.StatusNotFound, models.CodeNotFound)

	w = f.do(http.MethodGet, "/api/v1/draws/wheel/eligibility", f.player, nil)
	expectStatus(t, w, http.StatusOK, "")
	var eligibility models.Eligibility
	decode(t, w, &eligibility)
	if eligibility.Eligible || eligibility.NextEligibleAt == nil {
		t.Fatalf("eligibility = %+v", eligibility)
	}

	// The jackpot window is independent of the wheel.
	w = f.do(http.MethodGet, "/api/v1/draws/jackpot/eligibility", f.player, nil)
	decode(t, w, &eligibility)
	if !eligibility.Eligible {
		t.Fatalf("jackpot eligibility = %+v", eligibility)
	}

	w = f.do(http.MethodGet, "/api/v1/me/spins", f.player, nil)
	expectStatus(t, w, http.StatusOK, "")
	var history struct {
		Spins []*models.SpinRecord `json:"spins"`
	}
	decode(t, w, &history)
	if len(history.Spins) != 1 || history.Spins[0].PrizeName != "Free court hour" {
		t.Fatalf("history = %+v", history.Spins)
	}

	w = f.do(http.MethodGet, "/api/v1/admin/draws/wheel/stats", admin, nil)
	expectStatus(t, w, http.StatusOK, "")
	var stats models.DrawStats
	decode(t, w, &stats)
	if stats.TotalSpins != 1 || stats.TotalReserved != 1 || stats.TotalQuantity != 3 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestNoPrizeAvailable(t *testing.T) {
	f := newAPIFixture(t)
	w := f.do(http.MethodPost, "/api/v1/draws/jackpot/spins", f.player, handlers.SpinRequest{RequestID: uuid.NewString()})
	expectStatus(t, w, http.StatusUnprocessableEntity, models.CodeNoPrizeAvailable)

	// The refused draw did not use up the week.
	w = f.do(http.MethodGet, "/api/v1/draws/jackpot/eligibility", f.player, nil)
	var eligibility models.Eligibility
	decode(t, w, &eligibility)
	if !eligibility.Eligible {
		t.Fatalf("eligibility = %+v", eligibility)
	}
}

func TestToggleDisablesDraw(t *testing.T) {
	f := newAPIFixture(t)
	admin := f.adminToken()

	w := f.do(http.MethodPut, "/api/v1/admin/draws/jackpot/toggle", admin, map[string]bool{"enabled": false})
	expectStatus(t, w, http.StatusOK, "")
	var toggle models.FeatureToggle
	decode(t, w, &toggle)
	if toggle.Enabled || toggle.UpdatedBy != adminEmail {
		t.Fatalf("toggle = %+v", toggle)
	}

	w = f.do(http.MethodGet, "/api/v1/draws/jackpot/toggle", f.player, nil)
	decode(t, w, &toggle)
	if toggle.Enabled {
		t.Fatal("participant sees jackpot enabled")
	}

	w = f.do(http.MethodPost, "/api/v1/draws/jackpot/spins", f.player, handlers.SpinRequest{RequestID: uuid.NewString()})
	expectStatus(t, w, http.StatusConflict, models.CodeIneligible)
	var refused map[string]any
	decode(t, w, &refused)
	if refused["reason"] != models.ReasonDisabled {
		t.Fatalf("reason = %v", refused["reason"])
	}

	w = f.do(http.MethodPut, "/api/v1/admin/draws/jackpot/toggle", admin, map[string]any{})
	expectStatus(t, w, http.StatusBadRequest, models.CodeBadRequest)
}

func TestPrizeEditing(t *testing.T) {
	f := newAPIFixture(t)
	admin := f.adminToken()

	w := f.do(http.MethodPost, "/api/v1/admin/draws/jackpot/prizes", admin, services.PrizeInput{
		Name:     "Racket",
		Category: "PHYSICAL",
		Weight:   intPtr(0),
		Emoji:    "🎾",
		Quantity: intPtr(1),
	})
	expectStatus(t, w, http.StatusCreated, "")
	var prize models.PrizeView
	decode(t, w, &prize)
	if prize.Weight != 1 {
		t.Fatalf("weight = %d, want clamped to 1", prize.Weight)
	}
	base := "/api/v1/admin/prizes/" + prize.ID.Hex()

	w = f.do(http.MethodPut, base+"/quantity", admin, map[string]int{"quantity": -1})
	expectStatus(t, w, http.StatusBadRequest, models.CodeBadRequest)
	w = f.do(http.MethodPut, base+"/quantity", admin, map[string]int{"quantity": 4})
	expectStatus(t, w, http.StatusOK, "")
	decode(t, w, &prize)
	if prize.Available == nil || *prize.Available != 4 {
		t.Fatalf("available = %v", prize.Available)
	}

	w = f.do(http.MethodPut, base+"/active", admin, map[string]bool{"active": false})
	expectStatus(t, w, http.StatusOK, "")
	w = f.do(http.MethodGet, "/api/v1/draws/jackpot/prizes", f.player, nil)
	var active []*models.Prize
	decode(t, w, &active)
	if len(active) != 0 {
		t.Fatalf("inactive prize listed: %+v", active)
	}

	w = f.do(http.MethodPut, base, admin, services.PrizeInput{Name: "Pro racket", Category: "PHYSICAL", Weight: intPtr(7)})
	expectStatus(t, w, http.StatusOK, "")
	decode(t, w, &prize)
	if prize.Name != "Pro racket" || prize.Weight != 7 {
		t.Fatalf("updated = %+v", prize.Prize)
	}

	expectStatus(t, f.do(http.MethodPut, "/api/v1/admin/prizes/xyz/active", admin, map[string]bool{"active": true}), http.StatusBadRequest, models.CodeBadRequest)

	expectStatus(t, f.do(http.MethodDelete, base, admin, nil), http.StatusOK, "")
	expectStatus(t, f.do(http.MethodDelete, base, admin, nil), http.StatusNotFound, models.CodeNotFound)
}

func TestImportPrizes(t *testing.T) {
	f := newAPIFixture(t)
	admin := f.adminToken()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "prizes.csv")
	if err != nil {
		t.Fatal(err)
	}
	io.WriteString(part, "name,category,weight,emoji,quantity\nRacket,physical,3,🎾,2\nTry again,no_win,10,🎲,\n,physical,1,,\n")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/draws/jackpot/prizes/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+admin)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	expectStatus(t, w, http.StatusOK, "")
	var result services.ImportResult
	decode(t, w, &result)
	if result.Imported != 2 || len(result.Failed) != 1 {
		t.Fatalf("result = %+v", result)
	}

	w = f.do(http.MethodGet, "/api/v1/admin/draws/jackpot/prizes", admin, nil)
	var views []*models.PrizeView
	decode(t, w, &views)
	if len(views) != 2 {
		t.Fatalf("len(views) = %d", len(views))
	}
}

func TestFidelityQuote(t *testing.T) {
	f := newAPIFixture(t)
	f.store.SetReservations(playerID, 5)

	w := f.do(http.MethodGet, "/api/v1/me/fidelity?price=20", f.player, nil)
	expectStatus(t, w, http.StatusOK, "")
	var resp handlers.FidelityResponse
	decode(t, w, &resp)
	if !resp.HasDiscount || resp.TotalXP != 500 {
		t.Fatalf("summary = %+v", resp.Summary)
	}
	if resp.DiscountedPrice == nil || !resp.DiscountedPrice.Equal(decimal.NewFromInt(18)) {
		t.Fatalf("discounted = %v", resp.DiscountedPrice)
	}

	expectStatus(t, f.do(http.MethodGet, "/api/v1/me/fidelity?price=abc", f.player, nil), http.StatusBadRequest, models.CodeBadRequest)
}

func intPtr(v int) *int { return &v }
