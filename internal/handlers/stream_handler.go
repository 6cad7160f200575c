package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ArowuTest/padel-arena-backend/internal/animation"
	"github.com/ArowuTest/padel-arena-backend/internal/middleware"
	"github.com/ArowuTest/padel-arena-backend/internal/models"
	"github.com/ArowuTest/padel-arena-backend/internal/play"
	"github.com/ArowuTest/padel-arena-backend/internal/reveal"
	"github.com/ArowuTest/padel-arena-backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/samber/lo"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 256
)

// Stream message types sent to the client.
const (
	MessageView    = "view"
	MessageFrame   = "frame"
	MessageOutcome = "outcome"
	MessageReveal  = "reveal"
	MessageError   = "error"
)

// Stream actions accepted from the client.
const (
	ActionSpin    = "spin"
	ActionRefresh = "refresh"
)

// StreamMessage is one JSON message written to the socket.
type StreamMessage struct {
	Type    string              `json:"type"`
	View    *play.View          `json:"view,omitempty"`
	Frame   *animation.Frame    `json:"frame,omitempty"`
	Outcome *models.DrawOutcome `json:"outcome,omitempty"`
	Reveal  *reveal.Reveal      `json:"reveal,omitempty"`
	Error   gin.H               `json:"error,omitempty"`
}

// StreamCommand is one JSON message read from the socket.
type StreamCommand struct {
	Action string `json:"action"`
}

// StreamOptions configures a StreamHandler
type StreamOptions struct {
	// AllowedOrigins lists accepted Origin headers; empty or "*" accepts all.
	AllowedOrigins []string
	HandoffDelay   time.Duration
	Scheduler      animation.Scheduler
	// NewAnimator overrides the wheel and jackpot engines.
	NewAnimator    play.AnimatorFactory
	Logger         *slog.Logger
}

// StreamHandler runs a draw session over a websocket. The server animates
// the draw and streams every frame, then the reveal.
type StreamHandler struct {
	drawService services.DrawService
	opts        StreamOptions
	upgrader    websocket.Upgrader
	logger      *slog.Logger
}

// NewStreamHandler creates a new StreamHandler
func NewStreamHandler(drawService services.DrawService, opts StreamOptions) *StreamHandler {
	if opts.Scheduler == nil {
		opts.Scheduler = animation.RealScheduler{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	h := &StreamHandler{
		drawService: drawService,
		opts:        opts,
		logger:      opts.Logger.With("component", "draw_stream"),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *StreamHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.opts.AllowedOrigins) == 0 {
		return true
	}
	return lo.Contains(h.opts.AllowedOrigins, "*") || lo.Contains(h.opts.AllowedOrigins, origin)
}

// Stream handles GET /draws/:drawType/stream
func (h *StreamHandler) Stream(c *gin.Context) {
	drawType, ok := drawTypeParam(c)
	if !ok {
		return
	}
	participantID := middleware.UserID(c)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	sc := &streamConn{
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		done:   ctx.Done(),
		logger: h.logger.With("participantId", participantID, "drawType", drawType),
	}

	sink := animation.SinkFunc(func(f animation.Frame) {
		sc.enqueue(StreamMessage{Type: MessageFrame, Frame: &f}, true)
	})
	session := play.NewSession(&serviceRemote{svc: h.drawService, participantID: participantID}, play.Options{
		DrawType:     drawType,
		HandoffDelay: h.opts.HandoffDelay,
		Scheduler:    h.opts.Scheduler,
		Sink:         sink,
		NewAnimator:  h.opts.NewAnimator,
		Presenter: reveal.PresenterFunc(func(prize *models.Prize) error {
			r := reveal.Compose(prize)
			sc.enqueue(StreamMessage{Type: MessageReveal, Reveal: &r}, false)
			return nil
		}),
		OnError: sc.sendError,
		Logger:  sc.logger,
	})

	go sc.writePump()
	sc.readPump(ctx, session)

	cancel()
	session.Close()
}

// streamConn owns one socket. Only writePump writes to conn.
type streamConn struct {
	conn   *websocket.Conn
	send   chan []byte
	done   <-chan struct{}
	logger *slog.Logger
}

// enqueue queues msg for writePump. Frames are dropped when the client
// reads too slowly; other messages wait until the connection closes.
func (sc *streamConn) enqueue(msg StreamMessage, droppable bool) {
	data, err := json.Marshal(msg)
	if err != nil {
		sc.logger.Error("failed to encode stream message", "error", err, "type", msg.Type)
		return
	}
	if droppable {
		select {
		case sc.send <- data:
		case <-sc.done:
		default:
		}
		return
	}
	select {
	case sc.send <- data:
	case <-sc.done:
	}
}

func (sc *streamConn) sendError(err error) {
	_, body := errorBody(err)
	sc.enqueue(StreamMessage{Type: MessageError, Error: body}, false)
}

func (sc *streamConn) sendView(view play.View) {
	sc.enqueue(StreamMessage{Type: MessageView, View: &view}, false)
}

func (sc *streamConn) readPump(ctx context.Context, session *play.Session) {
	defer sc.conn.Close()
	sc.conn.SetReadLimit(maxMessageSize)
	sc.conn.SetReadDeadline(time.Now().Add(pongWait))
	sc.conn.SetPongHandler(func(string) error { sc.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	if view, err := session.Open(ctx); err != nil {
		sc.logger.Error("failed to open draw session", "error", err)
		sc.sendError(err)
	} else {
		sc.sendView(view)
	}

	for {
		_, data, err := sc.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				sc.logger.Warn("read pump failed", "error", err)
			}
			return
		}
		var cmd StreamCommand
		if err := json.Unmarshal(data, &cmd); err != nil {
			sc.sendError(fmt.Errorf("%w: %v", models.ErrInvalidInput, err))
			continue
		}

		switch cmd.Action {
		case ActionSpin:
			outcome, err := session.Spin(ctx)
			if outcome != nil {
				sc.enqueue(StreamMessage{Type: MessageOutcome, Outcome: outcome}, false)
			}
			if err != nil {
				sc.sendError(err)
			}
			sc.sendView(session.View())
		case ActionRefresh:
			view, err := session.Open(ctx)
			if err != nil {
				sc.sendError(err)
				continue
			}
			sc.sendView(view)
		default:
			sc.sendError(fmt.Errorf("%w: unknown action %q", models.ErrInvalidInput, cmd.Action))
		}
	}
}

func (sc *streamConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		sc.conn.Close()
	}()
	for {
		select {
		case message := <-sc.send:
			sc.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sc.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				sc.logger.Warn("write pump failed", "error", err)
				return
			}
		case <-ticker.C:
			sc.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sc.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				sc.logger.Warn("write pump failed on sending ping", "error", err)
				return
			}
		case <-sc.done:
			sc.conn.SetWriteDeadline(time.Now().Add(writeWait))
			sc.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// serviceRemote binds the draw service to the participant of a socket.
type serviceRemote struct {
	svc           services.DrawService
	participantID string
}

var _ play.Remote = (*serviceRemote)(nil)

func (r *serviceRemote) CheckEligibility(ctx context.Context, drawType models.DrawType) (*models.Eligibility, error) {
	return r.svc.CheckEligibility(ctx, r.participantID, drawType)
}

func (r *serviceRemote) ExecuteDraw(ctx context.Context, drawType models.DrawType, requestID string) (*models.DrawOutcome, error) {
	return r.svc.ExecuteDraw(ctx, r.participantID, drawType, requestID)
}

func (r *serviceRemote) FindDraw(ctx context.Context, drawType models.DrawType, requestID string) (*models.DrawOutcome, error) {
	return r.svc.FindDraw(ctx, r.participantID, drawType, requestID)
}

func (r *serviceRemote) ListActivePrizes(ctx context.Context, drawType models.DrawType) ([]*models.Prize, error) {
	return r.svc.ListActivePrizes(ctx, drawType)
}

func (r *serviceRemote) GetFeatureToggle(ctx context.Context, drawType models.DrawType) (*models.FeatureToggle, error) {
	return r.svc.GetFeatureToggle(ctx, drawType)
}
