package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ArowuTest/padel-arena-backend/internal/animation"
	"github.com/ArowuTest/padel-arena-backend/internal/middleware"
	"github.com/ArowuTest/padel-arena-backend/internal/models"
	"github.com/ArowuTest/padel-arena-backend/internal/play"
	"github.com/ArowuTest/padel-arena-backend/internal/reveal"
	"github.com/ArowuTest/padel-arena-backend/internal/repositories/memory"
	"github.com/ArowuTest/padel-arena-backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// instantAnimator lands immediately instead of animating.
type instantAnimator struct {
	mu     sync.Mutex
	prizes []*models.Prize
	cb     play.Callbacks
	state  animation.State
}

func (a *instantAnimator) Begin() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state.Busy() {
		return animation.ErrBusy
	}
	a.state = animation.StateRequestingPrize
	return nil
}

func (a *instantAnimator) Abort() {
	a.mu.Lock()
	a.state = animation.StateIdle
	a.mu.Unlock()
}

func (a *instantAnimator) Land(prizeID primitive.ObjectID) error {
	a.mu.Lock()
	var found *models.Prize
	for _, p := range a.prizes {
		if p.ID == prizeID {
			found = p
		}
	}
	if found == nil {
		a.state = animation.StateIdle
		a.mu.Unlock()
		return &models.AlignmentError{PrizeID: prizeID}
	}
	a.state = animation.StateSettled
	a.mu.Unlock()
	a.cb.OnComplete(found)
	return nil
}

func (a *instantAnimator) SetPrizes(prizes []*models.Prize) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.prizes = prizes
	return nil
}

func (a *instantAnimator) State() animation.State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *instantAnimator) Teardown() {}

func newStreamServer(t *testing.T, seed func(ctx context.Context, prizes *services.PrizeServiceImpl)) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.NewStore()
	drawService := services.NewDrawService(services.DrawDeps{
		Tx:          store,
		Prizes:      store.Prizes(),
		Inventory:   store.Inventory(),
		Spins:       store.Spins(),
		Eligibility: store.Eligibility(),
		Toggles:     store.Toggles(),
		Logger:      logger,
	})
	if seed != nil {
		seed(context.Background(), services.NewPrizeService(store, store.Prizes(), store.Inventory(), store.Spins(), store.Toggles(), nil, logger))
	}

	h := NewStreamHandler(drawService, StreamOptions{
		HandoffDelay: 5 * time.Millisecond,
		Logger:       logger,
		NewAnimator: func(_ models.DrawType, prizes []*models.Prize, cb play.Callbacks) play.Animator {
			return &instantAnimator{prizes: prizes, cb: cb}
		},
	})
	router := gin.New()
	router.GET("/draws/:drawType/stream", func(c *gin.Context) {
		c.Set(middleware.ContextUserID, "player-1")
		c.Next()
	}, h.Stream)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func dialStream(t *testing.T, srv *httptest.Server, drawType string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/draws/" + drawType + "/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) StreamMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg StreamMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}

func TestStreamSpinRevealsPrize(t *testing.T) {
	srv := newStreamServer(t, func(ctx context.Context, prizes *services.PrizeServiceImpl) {
		if _, err := prizes.CreatePrize(ctx, models.DrawTypeWheel, services.PrizeInput{Name: "Free court hour", Category: "PHYSICAL", Icon: "🎾"}); err != nil {
			t.Fatalf("CreatePrize: %v", err)
		}
	})
	conn := dialStream(t, srv, "wheel")

	first := readMessage(t, conn)
	if first.Type != MessageView || first.View == nil || !first.View.CanDraw || len(first.View.Prizes) != 1 {
		t.Fatalf("first message = %+v", first)
	}

	if err := conn.WriteJSON(StreamCommand{Action: ActionSpin}); err != nil {
		t.Fatal(err)
	}
	var outcome *models.DrawOutcome
	var shown *reveal.Reveal
	for outcome == nil || shown == nil {
		msg := readMessage(t, conn)
		switch msg.Type {
		case MessageOutcome:
			outcome = msg.Outcome
		case MessageReveal:
			shown = msg.Reveal
		case MessageError:
			t.Fatalf("unexpected error %v", msg.Error)
		}
	}
	if outcome.PrizeName != "Free court hour" {
		t.Errorf("outcome = %+v", outcome)
	}
	if shown.Headline != reveal.HeadlineWin || shown.Glyph != "🎾" || shown.ClaimInstruction == "" {
		t.Errorf("reveal = %+v", shown)
	}

	if err := conn.WriteJSON(StreamCommand{Action: ActionSpin}); err != nil {
		t.Fatal(err)
	}
	for {
		msg := readMessage(t, conn)
		if msg.Type != MessageError {
			continue
		}
		if msg.Error["code"] != models.CodeIneligible || msg.Error["reason"] != models.ReasonAlreadyDrawn {
			t.Fatalf("error = %v", msg.Error)
		}
		break
	}
}

func TestStreamReportsProblems(t *testing.T) {
	srv := newStreamServer(t, nil)
	conn := dialStream(t, srv, "jackpot")
	if msg := readMessage(t, conn); msg.Type != MessageView {
		t.Fatalf("first message = %+v", msg)
	}

	tests := []struct {
		name    string
		payload string
		code    string
	}{
		{"not json", "spin please", models.CodeBadRequest},
		{"unknown action", `{"action":"cheat"}`, models.CodeBadRequest},
		{"empty catalog", `{"action":"spin"}`, models.CodeNoPrizeAvailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(tt.payload)); err != nil {
				t.Fatal(err)
			}
			msg := readMessage(t, conn)
			if msg.Type != MessageError || msg.Error["code"] != tt.code {
				t.Fatalf("got %+v, want error %s", msg, tt.code)
			}
		})
	}
}

func TestStreamUnknownDrawType(t *testing.T) {
	srv := newStreamServer(t, nil)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/draws/roulette/stream"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("dial succeeded for unknown draw type")
	}
	if resp == nil || resp.StatusCode != 400 {
		t.Fatalf("response = %v", resp)
	}
}
