package animation

import (
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/ArowuTest/padel-arena-backend/internal/models"
	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// JackpotOptions configures a Jackpot. Zero values take the defaults.
type JackpotOptions struct {
	Reels         int
	ReelDuration  time.Duration
	Stagger       time.Duration
	SettleDelay   time.Duration
	FrameInterval time.Duration
	Scheduler     Scheduler
	Sink          Sink
	Rand          *rand.Rand
	OnComplete    func(prize *models.Prize)
	OnError       func(err error)
	Logger        *slog.Logger
}

const (
	DefaultReels        = 3
	DefaultReelDuration = time.Second
	DefaultStagger      = 300 * time.Millisecond
	DefaultSettleDelay  = 500 * time.Millisecond
)

func (o JackpotOptions) withDefaults() JackpotOptions {
	if o.Reels <= 0 {
		o.Reels = DefaultReels
	}
	if o.ReelDuration <= 0 {
		o.ReelDuration = DefaultReelDuration
	}
	if o.Stagger < 0 {
		o.Stagger = 0
	} else if o.Stagger == 0 {
		o.Stagger = DefaultStagger
	}
	if o.SettleDelay <= 0 {
		o.SettleDelay = DefaultSettleDelay
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

// Jackpot spins a row of reels that cycle through random prizes and lock,
// left to right, on the prize chosen by the server.
type Jackpot struct {
	mu     sync.Mutex
	fire   sync.Mutex // held while OnComplete or OnError runs
	opts   JackpotOptions
	logger *slog.Logger

	prizes []*models.Prize
	state  State
	closed bool
	gen    uint64

	winner *models.Prize
	index  int
	start  time.Time
	reels  []int
	locked []bool

	frameTimer Timer
	stepTimer  Timer
}

// NewJackpot creates a Jackpot over prizes
func NewJackpot(prizes []*models.Prize, opts JackpotOptions) *Jackpot {
	opts = opts.withDefaults()
	return &Jackpot{
		opts:   opts,
		logger: opts.Logger.With("engine", "jackpot"),
		prizes: append([]*models.Prize(nil), prizes...),
		reels:  make([]int, opts.Reels),
		locked: make([]bool, opts.Reels),
	}
}

// State returns the current lifecycle state
func (j *Jackpot) State() State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

// Prizes returns the prizes the reels cycle through
func (j *Jackpot) Prizes() []*models.Prize {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]*models.Prize(nil), j.prizes...)
}

// Reels returns the prize index shown on each reel
func (j *Jackpot) Reels() []int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]int(nil), j.reels...)
}

// SetPrizes replaces the prize list. While spinning the new list must still
// hold the winning prize; otherwise the animation is cancelled, the engine
// resets and OnError receives models.ErrPrizeUnavailable.
func (j *Jackpot) SetPrizes(prizes []*models.Prize) error {
	j.mu.Lock()
	if j.state != StateSpinning {
		j.prizes = append([]*models.Prize(nil), prizes...)
		j.mu.Unlock()
		return nil
	}

	_, index, ok := lo.FindIndexOf(prizes, func(p *models.Prize) bool { return p.ID == j.winner.ID })
	if ok {
		j.prizes = append([]*models.Prize(nil), prizes...)
		j.index = index
		for r, l := range j.locked {
			if l {
				j.reels[r] = index
			} else {
				j.reels[r] = 0
			}
		}
		j.mu.Unlock()
		return nil
	}

	prizeID := j.winner.ID
	j.prizes = append([]*models.Prize(nil), prizes...)
	j.resetLocked()
	frame := j.frameLocked()
	j.fire.Lock()
	defer j.fire.Unlock()
	j.mu.Unlock()

	j.logger.Error("Winning prize removed during the draw", "prizeId", prizeID.Hex())
	j.opts.Sink.Frame(frame)
	j.opts.OnError(models.ErrPrizeUnavailable)
	return models.ErrPrizeUnavailable
}

// Begin marks a draw as requested. Only one draw can run at a time.
func (j *Jackpot) Begin() error {
	j.mu.Lock()
	switch {
	case j.closed:
		j.mu.Unlock()
		return ErrClosed
	case j.state.Busy():
		j.mu.Unlock()
		return ErrBusy
	}
	j.state = StateRequestingPrize
	frame := j.frameLocked()
	j.mu.Unlock()

	j.opts.Sink.Frame(frame)
	return nil
}

// Abort returns to Idle after the draw request failed.
func (j *Jackpot) Abort() {
	j.mu.Lock()
	if j.state != StateRequestingPrize {
		j.mu.Unlock()
		return
	}
	j.state = StateIdle
	frame := j.frameLocked()
	j.mu.Unlock()

	j.opts.Sink.Frame(frame)
}

// Land starts the reels towards prizeID.
func (j *Jackpot) Land(prizeID primitive.ObjectID) error {
	j.mu.Lock()
	if j.closed {
		j.mu.Unlock()
		return ErrClosed
	}
	if j.state != StateRequestingPrize {
		j.mu.Unlock()
		return ErrBusy
	}
	prize, index, ok := lo.FindIndexOf(j.prizes, func(p *models.Prize) bool { return p.ID == prizeID })
	if !ok {
		j.state = StateIdle
		frame := j.frameLocked()
		j.mu.Unlock()

		j.logger.Error("Winning prize is not on the reels", "prizeId", prizeID.Hex())
		j.opts.Sink.Frame(frame)
		return &models.AlignmentError{PrizeID: prizeID}
	}

	j.gen++
	j.state = StateSpinning
	j.winner = prize
	j.index = index
	j.start = j.opts.Scheduler.Now()
	for r := range j.reels {
		j.reels[r] = 0
		j.locked[r] = false
	}
	gen := j.gen
	j.frameTimer = j.opts.Scheduler.AfterFunc(j.opts.FrameInterval, func() { j.cycle(gen) })
	j.stepTimer = j.opts.Scheduler.AfterFunc(j.lockDeadline(0), func() { j.lock(gen, 0) })
	frame := j.frameLocked()
	j.mu.Unlock()

	j.logger.Debug("Jackpot spin started", "prizeId", prizeID.Hex(), "index", index)
	j.opts.Sink.Frame(frame)
	return nil
}

// Teardown stops every pending timer. No callback fires after it returns;
// callbacks must not call Teardown themselves.
func (j *Jackpot) Teardown() {
	j.mu.Lock()
	j.closed = true
	if j.state.Busy() {
		j.resetLocked()
	} else {
		j.gen++
	}
	j.mu.Unlock()

	j.fire.Lock()
	j.fire.Unlock()
}

// lockDeadline is when reel r locks, relative to the start of the spin.
func (j *Jackpot) lockDeadline(r int) time.Duration {
	return time.Duration(r)*j.opts.Stagger + j.opts.ReelDuration
}

// cycle shows a random prize on every reel that has started and not locked.
func (j *Jackpot) cycle(gen uint64) {
	j.mu.Lock()
	if gen != j.gen || j.state != StateSpinning {
		j.mu.Unlock()
		return
	}
	elapsed := j.opts.Scheduler.Now().Sub(j.start)
	for r := range j.reels {
		if j.locked[r] || elapsed < time.Duration(r)*j.opts.Stagger {
			continue
		}
		j.reels[r] = j.randomIndex()
	}
	j.frameTimer = j.opts.Scheduler.AfterFunc(j.opts.FrameInterval, func() { j.cycle(gen) })
	frame := j.frameLocked()
	j.mu.Unlock()

	j.opts.Sink.Frame(frame)
}

// lock stops reel r on the winner and chains the next reel, so reels lock in
// order even when their deadlines coincide.
func (j *Jackpot) lock(gen uint64, r int) {
	j.mu.Lock()
	if gen != j.gen || j.state != StateSpinning {
		j.mu.Unlock()
		return
	}
	j.reels[r] = j.index
	j.locked[r] = true

	if next := r + 1; next < len(j.reels) {
		elapsed := j.opts.Scheduler.Now().Sub(j.start)
		wait := max(j.lockDeadline(next)-elapsed, 0)
		j.stepTimer = j.opts.Scheduler.AfterFunc(wait, func() { j.lock(gen, next) })
	} else {
		stopTimer(j.frameTimer)
		j.frameTimer = nil
		j.stepTimer = j.opts.Scheduler.AfterFunc(j.opts.SettleDelay, func() { j.settle(gen) })
	}
	frame := j.frameLocked()
	j.mu.Unlock()

	j.opts.Sink.Frame(frame)
}

func (j *Jackpot) settle(gen uint64) {
	j.mu.Lock()
	if gen != j.gen || j.state != StateSpinning {
		j.mu.Unlock()
		return
	}
	j.state = StateSettled
	j.stepTimer = nil
	prize := j.winner
	frame := j.frameLocked()
	j.fire.Lock()
	defer j.fire.Unlock()
	j.mu.Unlock()

	j.opts.Sink.Frame(frame)
	j.opts.OnComplete(prize)
}

// resetLocked cancels the running draw and returns to Idle.
func (j *Jackpot) resetLocked() {
	j.gen++
	stopTimer(j.frameTimer)
	stopTimer(j.stepTimer)
	j.frameTimer, j.stepTimer = nil, nil
	j.state = StateIdle
	j.winner = nil
	for r := range j.reels {
		j.reels[r] = 0
		j.locked[r] = false
	}
}

func (j *Jackpot) randomIndex() int {
	if len(j.prizes) == 0 {
		return 0
	}
	if j.opts.Rand != nil {
		return j.opts.Rand.IntN(len(j.prizes))
	}
	return rand.IntN(len(j.prizes))
}

func (j *Jackpot) frameLocked() Frame {
	return Frame{
		Kind:   FrameJackpot,
		State:  j.state,
		Reels:  append([]int(nil), j.reels...),
		Locked: append([]bool(nil), j.locked...),
	}
}
