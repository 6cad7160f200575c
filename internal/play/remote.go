// Package play runs a participant's draw session: it loads what the draw
// offers, asks the server for a prize, animates it and hands it to a presenter.
package play

import (
	"context"

	"github.com/ArowuTest/padel-arena-backend/internal/animation"
	"github.com/ArowuTest/padel-arena-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Remote is the draw service as seen by one authenticated participant.
type Remote interface {
	CheckEligibility(ctx context.Context, drawType models.DrawType) (*models.Eligibility, error)
	// ExecuteDraw must not be retried blindly; resolve failures with FindDraw.
	ExecuteDraw(ctx context.Context, drawType models.DrawType, requestID string) (*models.DrawOutcome, error)
	// FindDraw returns models.ErrNotFound when requestID never committed.
	FindDraw(ctx context.Context, drawType models.DrawType, requestID string) (*models.DrawOutcome, error)
	ListActivePrizes(ctx context.Context, drawType models.DrawType) ([]*models.Prize, error)
	GetFeatureToggle(ctx context.Context, drawType models.DrawType) (*models.FeatureToggle, error)
}

// Animator is a draw animation engine. Both animation.Wheel and
// animation.Jackpot satisfy it.
type Animator interface {
	Begin() error
	Abort()
	Land(prizeID primitive.ObjectID) error
	SetPrizes(prizes []*models.Prize) error
	State() animation.State
	Teardown()
}

// Callbacks are the engine events a session listens to.
type Callbacks struct {
	OnComplete func(prize *models.Prize)
	OnError    func(err error)
}

// AnimatorFactory builds the engine for a draw type.
type AnimatorFactory func(drawType models.DrawType, prizes []*models.Prize, cb Callbacks) Animator

// Engines returns a factory building a Wheel for wheel draws and a Jackpot
// for jackpot draws, sharing one scheduler and sink.
func Engines(scheduler animation.Scheduler, sink animation.Sink) AnimatorFactory {
	return func(drawType models.DrawType, prizes []*models.Prize, cb Callbacks) Animator {
		if drawType == models.DrawTypeJackpot {
			return animation.NewJackpot(prizes, animation.JackpotOptions{
				Scheduler:  scheduler,
				Sink:       sink,
				OnComplete: cb.OnComplete,
				OnError:    cb.OnError,
			})
		}
		return animation.NewWheel(prizes, animation.WheelOptions{
			Scheduler:  scheduler,
			Sink:       sink,
			OnComplete: cb.OnComplete,
			OnError:    cb.OnError,
		})
	}
}
