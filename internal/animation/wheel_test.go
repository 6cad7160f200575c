package animation

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ArowuTest/padel-arena-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type frameRecorder struct {
	mu     sync.Mutex
	frames []Frame
}

func (r *frameRecorder) Frame(f Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, f)
}

func (r *frameRecorder) all() []Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Frame(nil), r.frames...)
}

type completions struct {
	mu     sync.Mutex
	prizes []*models.Prize
}

func (c *completions) record(p *models.Prize) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prizes = append(c.prizes, p)
}

func (c *completions) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.prizes)
}

func testPrizes(n int) []*models.Prize {
	prizes := make([]*models.Prize, n)
	for i := range prizes {
		prizes[i] = &models.Prize{ID: primitive.NewObjectID(), Name: string(rune('A' + i)), Position: i}
	}
	return prizes
}

type wheelFixture struct {
	wheel  *Wheel
	sched  *ManualScheduler
	frames *frameRecorder
	done   *completions
	prizes []*models.Prize
}

func newWheelFixture(n int) *wheelFixture {
	f := &wheelFixture{
		sched:  NewManualScheduler(time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)),
		frames: &frameRecorder{},
		done:   &completions{},
		prizes: testPrizes(n),
	}
	f.wheel = NewWheel(f.prizes, WheelOptions{Scheduler: f.sched, Sink: f.frames, OnComplete: f.done.record})
	return f
}

func TestWheelLandsOnWinningSegment(t *testing.T) {
	f := newWheelFixture(6)
	winner := f.prizes[4]

	if err := f.wheel.Begin(); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	if err := f.wheel.Land(winner.ID); err != nil {
		t.Fatalf("Land() error = %v", err)
	}
	if got := f.wheel.State(); got != StateSpinning {
		t.Fatalf("State() = %v, want spinning", got)
	}

	f.sched.Advance(DefaultWheelDuration - time.Millisecond)
	if f.done.count() != 0 {
		t.Fatal("completed before the spin duration elapsed")
	}
	f.sched.Advance(time.Millisecond)

	if got := f.wheel.State(); got != StateSettled {
		t.Fatalf("State() = %v, want settled", got)
	}
	if f.done.count() != 1 || f.done.prizes[0] != winner {
		t.Fatalf("completions = %v, want exactly the winner", f.done.prizes)
	}
	want := FinalRotation(6, 4, DefaultFullTurns, 0)
	if got := f.wheel.Rotation(); got != want {
		t.Errorf("Rotation() = %v, want %v", got, want)
	}
	if got := SegmentAt(6, f.wheel.Rotation(), 0); got != 4 {
		t.Errorf("SegmentAt(final) = %d, want 4", got)
	}

	f.sched.Advance(10 * time.Second)
	if f.done.count() != 1 {
		t.Errorf("completions = %d after settling, want 1", f.done.count())
	}
	if f.sched.Pending() != 0 {
		t.Errorf("Pending() = %d after settling, want 0", f.sched.Pending())
	}
}

func TestWheelFramesDecelerate(t *testing.T) {
	f := newWheelFixture(4)
	_ = f.wheel.Begin()
	_ = f.wheel.Land(f.prizes[1].ID)
	f.sched.Advance(DefaultWheelDuration)

	var spinning []Frame
	for _, fr := range f.frames.all() {
		if fr.State == StateSpinning {
			spinning = append(spinning, fr)
		}
	}
	if len(spinning) < 100 {
		t.Fatalf("got %d spinning frames, want a frame every %v", len(spinning), DefaultFrameInterval)
	}
	for i := 1; i < len(spinning); i++ {
		if spinning[i].Rotation < spinning[i-1].Rotation {
			t.Fatalf("rotation went backwards at frame %d: %v -> %v", i, spinning[i-1].Rotation, spinning[i].Rotation)
		}
	}
	firstStep := spinning[1].Rotation - spinning[0].Rotation
	lastStep := spinning[len(spinning)-1].Rotation - spinning[len(spinning)-2].Rotation
	if lastStep >= firstStep {
		t.Errorf("last step %v not slower than first step %v", lastStep, firstStep)
	}
}

func TestWheelRejectsReentry(t *testing.T) {
	f := newWheelFixture(4)
	if err := f.wheel.Begin(); err != nil {
		t.Fatal(err)
	}
	if err := f.wheel.Begin(); !errors.Is(err, ErrBusy) {
		t.Errorf("second Begin() error = %v, want %v", err, ErrBusy)
	}
	if err := f.wheel.SetPrizes(testPrizes(3)); !errors.Is(err, ErrBusy) {
		t.Errorf("SetPrizes() while requesting error = %v, want %v", err, ErrBusy)
	}
	_ = f.wheel.Land(f.prizes[0].ID)
	if err := f.wheel.Begin(); !errors.Is(err, ErrBusy) {
		t.Errorf("Begin() while spinning error = %v, want %v", err, ErrBusy)
	}
	f.sched.Advance(DefaultWheelDuration)
	if err := f.wheel.Begin(); err != nil {
		t.Errorf("Begin() after settling error = %v", err)
	}
}

func TestWheelAlignmentFailure(t *testing.T) {
	f := newWheelFixture(4)
	_ = f.wheel.Begin()
	stranger := primitive.NewObjectID()

	err := f.wheel.Land(stranger)
	var alignErr *models.AlignmentError
	if !errors.As(err, &alignErr) || alignErr.PrizeID != stranger {
		t.Fatalf("Land() error = %v, want alignment error for %s", err, stranger.Hex())
	}
	if !errors.Is(err, models.ErrAlignment) {
		t.Errorf("errors.Is(%v, ErrAlignment) = false", err)
	}
	if got := f.wheel.State(); got != StateIdle {
		t.Errorf("State() = %v, want idle", got)
	}
	f.sched.Advance(time.Minute)
	if f.done.count() != 0 || f.sched.Pending() != 0 {
		t.Errorf("completions = %d pending = %d, want nothing to run", f.done.count(), f.sched.Pending())
	}
}

func TestWheelSettlingOffTheWinnerFails(t *testing.T) {
	f := newWheelFixture(4)
	var errs []error
	f.wheel.opts.OnError = func(err error) { errs = append(errs, err) }
	winner := f.prizes[1]

	_ = f.wheel.Begin()
	if err := f.wheel.Land(winner.ID); err != nil {
		t.Fatalf("Land() error = %v", err)
	}
	f.wheel.mu.Lock()
	f.wheel.to += SegmentAngle(4)
	f.wheel.mu.Unlock()

	f.sched.Advance(DefaultWheelDuration)

	if f.done.count() != 0 {
		t.Fatalf("completions = %v, want none after settling off the winner", f.done.prizes)
	}
	if len(errs) != 1 {
		t.Fatalf("OnError calls = %v, want 1", errs)
	}
	var alignErr *models.AlignmentError
	if !errors.As(errs[0], &alignErr) || alignErr.PrizeID != winner.ID {
		t.Errorf("OnError(%v), want alignment error for %s", errs[0], winner.ID.Hex())
	}
	if got := f.wheel.State(); got != StateIdle {
		t.Errorf("State() = %v, want idle", got)
	}
	if err := f.wheel.Begin(); err != nil {
		t.Errorf("Begin() after the failure error = %v", err)
	}
}

func TestWheelAbort(t *testing.T) {
	f := newWheelFixture(4)
	_ = f.wheel.Begin()
	f.wheel.Abort()
	if got := f.wheel.State(); got != StateIdle {
		t.Errorf("State() = %v, want idle", got)
	}
	if err := f.wheel.Land(f.prizes[0].ID); !errors.Is(err, ErrBusy) {
		t.Errorf("Land() without Begin error = %v, want %v", err, ErrBusy)
	}
}

func TestWheelTeardownSuppressesCompletion(t *testing.T) {
	f := newWheelFixture(4)
	_ = f.wheel.Begin()
	_ = f.wheel.Land(f.prizes[2].ID)
	f.sched.Advance(time.Second)

	f.wheel.Teardown()
	f.sched.Advance(time.Minute)

	if f.done.count() != 0 {
		t.Errorf("completions = %d after teardown, want 0", f.done.count())
	}
	if f.sched.Pending() != 0 {
		t.Errorf("Pending() = %d after teardown, want 0", f.sched.Pending())
	}
	if err := f.wheel.Begin(); !errors.Is(err, ErrClosed) {
		t.Errorf("Begin() after teardown error = %v, want %v", err, ErrClosed)
	}
}

func TestWheelSecondSpinStartsFromRestingAngle(t *testing.T) {
	f := newWheelFixture(5)
	_ = f.wheel.Begin()
	_ = f.wheel.Land(f.prizes[1].ID)
	f.sched.Advance(DefaultWheelDuration)

	if err := f.wheel.SetPrizes(f.prizes); err != nil {
		t.Fatalf("SetPrizes() after settling error = %v", err)
	}
	_ = f.wheel.Begin()
	_ = f.wheel.Land(f.prizes[3].ID)
	if got, want := f.wheel.Rotation(), Normalize(FinalRotation(5, 1, DefaultFullTurns, 0)); got != want {
		t.Errorf("second spin starts at %v, want %v", got, want)
	}
	f.sched.Advance(DefaultWheelDuration)
	if f.done.count() != 2 || f.done.prizes[1] != f.prizes[3] {
		t.Fatalf("completions = %v", f.done.prizes)
	}
	if got := SegmentAt(5, f.wheel.Rotation(), 0); got != 3 {
		t.Errorf("SegmentAt(final) = %d, want 3", got)
	}
}
