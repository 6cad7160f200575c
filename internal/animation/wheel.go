package animation

import (
	"log/slog"
	"sync"
	"time"

	"github.com/ArowuTest/padel-arena-backend/internal/models"
	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WheelOptions configures a Wheel. Zero values take the defaults.
type WheelOptions struct {
	Duration      time.Duration
	FullTurns     int
	FrameInterval time.Duration
	PointerAngle  float64
	Scheduler     Scheduler
	Sink          Sink
	OnComplete    func(prize *models.Prize)
	// OnError receives a *models.AlignmentError when the wheel settles off
	// the winning segment. OnComplete is not called in that case.
	OnError func(err error)
	Logger  *slog.Logger
}

const (
	DefaultWheelDuration = 5 * time.Second
	DefaultFullTurns     = 5
	DefaultFrameInterval = 16 * time.Millisecond
	minFrameInterval     = time.Millisecond
)

func (o WheelOptions) withDefaults() WheelOptions {
	if o.Duration <= 0 {
		o.Duration = DefaultWheelDuration
	}
	if o.FullTurns <= 0 {
		o.FullTurns = DefaultFullTurns
	}
	if o.FrameInterval < minFrameInterval {
		o.FrameInterval = DefaultFrameInterval
	}
	if o.Scheduler == nil {
		o.Scheduler = RealScheduler{}
	}
	if o.Sink == nil {
		o.Sink = nopSink{}
	}
	if o.OnComplete == nil {
		o.OnComplete = func(*models.Prize) {}
	}
	if o.OnError == nil {
		o.OnError = func(error) {}
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Wheel spins a segmented wheel so that the prize chosen by the server ends
// under the pointer. Segment i is prizes[i]; the order must match the list
// the server returned for the draw type.
type Wheel struct {
	mu     sync.Mutex
	fire   sync.Mutex // held while OnComplete or OnError runs
	opts   WheelOptions
	logger *slog.Logger

	prizes   []*models.Prize
	state    State
	closed   bool
	gen      uint64
	rotation float64

	winner *models.Prize
	index  int
	start  time.Time
	from   float64
	to     float64
	timer  Timer
}

// NewWheel creates a Wheel over prizes in render order
func NewWheel(prizes []*models.Prize, opts WheelOptions) *Wheel {
	opts = opts.withDefaults()
	return &Wheel{
		opts:   opts,
		logger: opts.Logger.With("engine", "wheel"),
		prizes: append([]*models.Prize(nil), prizes...),
	}
}

// State returns the current lifecycle state
func (w *Wheel) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Rotation returns the current absolute rotation in degrees
func (w *Wheel) Rotation() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rotation
}

// Prizes returns the segments in order
func (w *Wheel) Prizes() []*models.Prize {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]*models.Prize(nil), w.prizes...)
}

// SetPrizes replaces the segments. Refused while a draw is running so the
// segment order cannot move under a pending result.
func (w *Wheel) SetPrizes(prizes []*models.Prize) error {
	w.mu.Lock()
	if w.state.Busy() {
		w.mu.Unlock()
		return ErrBusy
	}
	w.prizes = append([]*models.Prize(nil), prizes...)
	frame := w.frameLocked()
	w.mu.Unlock()

	w.opts.Sink.Frame(frame)
	return nil
}

// Begin marks a draw as requested. Only one draw can run at a time.
func (w *Wheel) Begin() error {
	w.mu.Lock()
	switch {
	case w.closed:
		w.mu.Unlock()
		return ErrClosed
	case w.state.Busy():
		w.mu.Unlock()
		return ErrBusy
	}
	w.state = StateRequestingPrize
	frame := w.frameLocked()
	w.mu.Unlock()

	w.opts.Sink.Frame(frame)
	return nil
}

// Abort returns to Idle after the draw request failed. No animation runs.
func (w *Wheel) Abort() {
	w.mu.Lock()
	if w.state != StateRequestingPrize {
		w.mu.Unlock()
		return
	}
	w.state = StateIdle
	frame := w.frameLocked()
	w.mu.Unlock()

	w.opts.Sink.Frame(frame)
}

// Land starts the spin towards prizeID. A prize that is not one of the
// segments is an alignment failure: nothing animates and the wheel goes idle.
func (w *Wheel) Land(prizeID primitive.ObjectID) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrClosed
	}
	if w.state != StateRequestingPrize {
		w.mu.Unlock()
		return ErrBusy
	}
	prize, index, ok := lo.FindIndexOf(w.prizes, func(p *models.Prize) bool { return p.ID == prizeID })
	if !ok {
		w.state = StateIdle
		segments := len(w.prizes)
		frame := w.frameLocked()
		w.mu.Unlock()

		w.logger.Error("Winning prize is not on the wheel", "prizeId", prizeID.Hex(), "segments", segments)
		w.opts.Sink.Frame(frame)
		return &models.AlignmentError{PrizeID: prizeID}
	}

	n := len(w.prizes)
	w.gen++
	w.state = StateSpinning
	w.winner = prize
	w.index = index
	w.start = w.opts.Scheduler.Now()
	w.from = Normalize(w.rotation)
	w.to = FinalRotation(n, index, w.opts.FullTurns, w.opts.PointerAngle)
	w.rotation = w.from
	w.schedule(w.gen, w.opts.FrameInterval)
	target := w.to
	frame := w.frameLocked()
	w.mu.Unlock()

	w.logger.Debug("Wheel spin started", "prizeId", prizeID.Hex(), "index", index, "target", target)
	w.opts.Sink.Frame(frame)
	return nil
}

// Teardown stops every pending timer. The completion callback never fires
// after Teardown returns; OnComplete must not call Teardown itself.
func (w *Wheel) Teardown() {
	w.mu.Lock()
	w.closed = true
	w.gen++
	stopTimer(w.timer)
	w.timer = nil
	if w.state.Busy() {
		w.state = StateIdle
	}
	w.mu.Unlock()

	w.fire.Lock()
	w.fire.Unlock()
}

func (w *Wheel) schedule(gen uint64, d time.Duration) {
	w.timer = w.opts.Scheduler.AfterFunc(d, func() { w.tick(gen) })
}

func (w *Wheel) tick(gen uint64) {
	w.mu.Lock()
	if gen != w.gen || w.state != StateSpinning {
		w.mu.Unlock()
		return
	}

	elapsed := w.opts.Scheduler.Now().Sub(w.start)
	if elapsed < w.opts.Duration {
		progress := float64(elapsed) / float64(w.opts.Duration)
		w.rotation = w.from + (w.to-w.from)*EaseOutCubic(progress)
		w.schedule(gen, min(w.opts.FrameInterval, w.opts.Duration-elapsed))
		frame := w.frameLocked()
		w.mu.Unlock()

		w.opts.Sink.Frame(frame)
		return
	}

	w.rotation = w.to
	w.timer = nil
	prize, index := w.winner, w.index
	w.winner = nil
	got := SegmentAt(len(w.prizes), w.rotation, w.opts.PointerAngle)
	if got != index {
		w.state = StateIdle
	} else {
		w.state = StateSettled
	}
	frame := w.frameLocked()
	w.fire.Lock()
	defer w.fire.Unlock()
	w.mu.Unlock()

	w.opts.Sink.Frame(frame)
	if got != index {
		w.logger.Error("Wheel settled on the wrong segment", "want", index, "got", got, "prizeId", prize.ID.Hex())
		w.opts.OnError(&models.AlignmentError{PrizeID: prize.ID})
		return
	}
	w.opts.OnComplete(prize)
}

func (w *Wheel) frameLocked() Frame {
	return Frame{Kind: FrameWheel, State: w.state, Rotation: w.rotation}
}
