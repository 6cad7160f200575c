package play

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ArowuTest/padel-arena-backend/internal/animation"
	"github.com/ArowuTest/padel-arena-backend/internal/models"
	"github.com/ArowuTest/padel-arena-backend/internal/reveal"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultRequestTimeout = 15 * time.Second
	DefaultHandoffDelay   = 500 * time.Millisecond
)

// ErrClosed is returned once the session is closed.
var ErrClosed = errors.New("play: session closed")

// Options configures a Session
type Options struct {
	DrawType       models.DrawType
	RequestTimeout time.Duration
	HandoffDelay   time.Duration
	Scheduler      animation.Scheduler
	Sink           animation.Sink
	NewAnimator    AnimatorFactory
	Presenter      reveal.Presenter
	// OnError receives failures that happen after Spin returned: the prize
	// leaving the catalog mid animation, or the presenter failing.
	OnError func(err error)
	Logger  *slog.Logger
}

// View is what the draw screen renders.
type View struct {
	DrawType       models.DrawType `json:"drawType"`
	Offered        bool            `json:"offered"`
	CanDraw        bool            `json:"canDraw"`
	DaysRemaining  int             `json:"daysRemaining"`
	NextEligibleAt *time.Time      `json:"nextEligibleAt,omitempty"`
	Prizes         []*models.Prize `json:"prizes"`
}

// Session drives one participant's draw screen for one draw type.
type Session struct {
	remote Remote
	opts   Options
	logger *slog.Logger

	mu       sync.Mutex
	animator Animator
	view     View
	outcome  *models.DrawOutcome
	handoff  animation.Timer
	gen      uint64
	closed   bool
}

// NewSession creates a Session. Open must be called before Spin.
func NewSession(remote Remote, opts Options) *Session {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = DefaultRequestTimeout
	}
	if opts.HandoffDelay <= 0 {
		opts.HandoffDelay = DefaultHandoffDelay
	}
	if opts.Scheduler == nil {
		opts.Scheduler = animation.RealScheduler{}
	}
	if opts.NewAnimator == nil {
		opts.NewAnimator = Engines(opts.Scheduler, opts.Sink)
	}
	if opts.Presenter == nil {
		opts.Presenter = reveal.PresenterFunc(func(*models.Prize) error { return nil })
	}
	if opts.OnError == nil {
		opts.OnError = func(error) {}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Session{
		remote: remote,
		opts:   opts,
		logger: opts.Logger.With("drawType", opts.DrawType),
		view:   View{DrawType: opts.DrawType},
	}
}

// Open loads the toggle, eligibility and prizes concurrently and renders the
// view. Calling it again refreshes the view and the engine's prizes.
func (s *Session) Open(ctx context.Context) (View, error) {
	var (
		toggle      *models.FeatureToggle
		eligibility *models.Eligibility
		prizes      []*models.Prize
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		toggle, err = s.remote.GetFeatureToggle(gctx, s.opts.DrawType)
		return err
	})
	g.Go(func() error {
		var err error
		eligibility, err = s.remote.CheckEligibility(gctx, s.opts.DrawType)
		return err
	})
	g.Go(func() error {
		var err error
		prizes, err = s.remote.ListActivePrizes(gctx, s.opts.DrawType)
		return err
	})
	if err := g.Wait(); err != nil {
		return View{}, fmt.Errorf("failed to load draw: %w", err)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return View{}, ErrClosed
	}
	animator := s.animator
	if animator == nil {
		s.animator = s.opts.NewAnimator(s.opts.DrawType, prizes, Callbacks{OnComplete: s.complete, OnError: s.fail})
		s.view.Prizes = prizes
	}
	s.mu.Unlock()

	// The view keeps the list the engine renders. A wheel mid draw refuses
	// the new list and its rotation stays relative to the old segments.
	accepted := animator == nil
	if animator != nil {
		err := animator.SetPrizes(prizes)
		accepted = !errors.Is(err, animation.ErrBusy)
		switch {
		case !accepted:
			s.logger.Debug("Prize list refresh skipped while a draw runs")
		case err != nil:
			s.logger.Warn("Prize list changed during a draw", "error", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return View{}, ErrClosed
	}
	if accepted {
		s.view.Prizes = prizes
	}
	s.applyEligibilityLocked(eligibility)
	s.view.Offered = s.view.Offered && toggle.Enabled
	s.view.CanDraw = s.view.CanDraw && toggle.Enabled
	return s.view, nil
}

// View returns the last rendered view
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// Spin re-checks eligibility, requests a prize and starts the animation
// towards it. It returns once the animation is running; the presenter is
// called after the engine settles and the handoff delay passes.
func (s *Session) Spin(ctx context.Context) (*models.DrawOutcome, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	animator := s.animator
	s.mu.Unlock()
	if animator == nil {
		return nil, errors.New("play: session not opened")
	}

	eligibility, err := s.remote.CheckEligibility(ctx, s.opts.DrawType)
	if err != nil {
		return nil, fmt.Errorf("failed to check eligibility: %w", err)
	}
	s.mu.Lock()
	s.applyEligibilityLocked(eligibility)
	s.mu.Unlock()
	if !eligibility.Enabled {
		return nil, &models.IneligibleError{DrawType: s.opts.DrawType, Reason: models.ReasonDisabled}
	}
	if !eligibility.Eligible {
		return nil, &models.IneligibleError{DrawType: s.opts.DrawType, Reason: models.ReasonAlreadyDrawn, NextEligibleAt: eligibility.NextEligibleAt}
	}

	if err := animator.Begin(); err != nil {
		return nil, err
	}

	requestID := uuid.NewString()
	outcome, err := s.execute(ctx, requestID)
	if err != nil {
		animator.Abort()
		return nil, err
	}

	s.mu.Lock()
	s.outcome = outcome
	s.view.CanDraw = false
	next := outcome.NextEligibleAt
	s.view.NextEligibleAt = &next
	s.view.DaysRemaining = models.DaysUntilEligible(next, s.opts.Scheduler.Now(), 0)
	s.mu.Unlock()

	if err := animator.Land(outcome.PrizeID); err != nil {
		s.logger.Error("Drawn prize cannot be shown", "error", err, "requestId", requestID)
		return outcome, err
	}
	return outcome, nil
}

// execute runs the draw request. Failures that leave the outcome unknown are
// resolved by looking the request id up before giving up.
func (s *Session) execute(ctx context.Context, requestID string) (*models.DrawOutcome, error) {
	reqCtx, cancel := context.WithTimeout(ctx, s.opts.RequestTimeout)
	outcome, err := s.remote.ExecuteDraw(reqCtx, s.opts.DrawType, requestID)
	cancel()
	if err == nil {
		return outcome, nil
	}
	if errors.Is(err, models.ErrNoPrizeAvailable) || errors.Is(err, models.ErrIneligible) || errors.Is(err, models.ErrDrawInProgress) {
		return nil, err
	}

	var drawErr *models.DrawTransactionError
	if !errors.As(err, &drawErr) {
		drawErr = &models.DrawTransactionError{Err: err}
	}
	s.logger.Warn("Draw request failed, resolving", "error", err, "requestId", requestID)

	findCtx, cancel := context.WithTimeout(ctx, s.opts.RequestTimeout)
	defer cancel()
	outcome, findErr := s.remote.FindDraw(findCtx, s.opts.DrawType, requestID)
	if findErr != nil {
		if !errors.Is(findErr, models.ErrNotFound) {
			s.logger.Error("Failed to resolve draw", "error", findErr, "requestId", requestID)
		}
		return nil, drawErr
	}
	s.logger.Info("Draw resolved after failure", "requestId", requestID, "prizeId", outcome.PrizeID.Hex())
	return outcome, nil
}

// complete is called by the engine once it settles on the prize.
func (s *Session) complete(prize *models.Prize) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	shown := *prize
	if o := s.outcome; o != nil && o.PrizeID == prize.ID {
		shown.Name = o.PrizeName
		shown.Description = o.PrizeDescription
		shown.Category = o.PrizeCategory
	}
	s.outcome = nil
	s.gen++
	gen := s.gen
	s.handoff = s.opts.Scheduler.AfterFunc(s.opts.HandoffDelay, func() { s.present(gen, &shown) })
	s.mu.Unlock()
}

func (s *Session) present(gen uint64, prize *models.Prize) {
	s.mu.Lock()
	if s.closed || gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.handoff = nil
	s.mu.Unlock()

	if err := s.opts.Presenter.Show(prize); err != nil {
		s.logger.Error("Failed to present prize", "error", err)
		s.opts.OnError(err)
	}
}

// fail is called by the engine when it abandons an animation.
func (s *Session) fail(err error) {
	s.mu.Lock()
	s.outcome = nil
	s.mu.Unlock()
	s.logger.Error("Draw animation failed", "error", err)
	s.opts.OnError(err)
}

func (s *Session) applyEligibilityLocked(e *models.Eligibility) {
	s.view.Offered = e.Enabled
	s.view.CanDraw = e.Enabled && e.Eligible
	s.view.NextEligibleAt = e.NextEligibleAt
	s.view.DaysRemaining = 0
	if e.NextEligibleAt != nil && !e.Eligible {
		s.view.DaysRemaining = models.DaysUntilEligible(*e.NextEligibleAt, s.opts.Scheduler.Now(), 0)
	}
}

// Close tears the engine down and cancels a pending reveal.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.gen++
	if s.handoff != nil {
		s.handoff.Stop()
		s.handoff = nil
	}
	animator := s.animator
	s.mu.Unlock()

	if animator != nil {
		animator.Teardown()
	}
}
