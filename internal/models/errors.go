package models

import (
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Ineligibility reasons.
const (
	ReasonAlreadyDrawn = "ALREADY_DRAWN"
	ReasonDisabled     = "DISABLED"
)

var (
	// ErrIneligible matches every *IneligibleError.
	ErrIneligible = errors.New("participant is not eligible to draw")
	// ErrNoPrizeAvailable means no active prize with stock and positive weight exists.
	ErrNoPrizeAvailable = errors.New("no prize available, try again later")
	// ErrDrawInProgress rejects a second concurrent draw for the same participant.
	ErrDrawInProgress = errors.New("a draw is already in progress")
	// ErrDrawFailed matches every *DrawTransactionError.
	ErrDrawFailed = errors.New("draw could not be completed")
	// ErrAlignment matches every *AlignmentError.
	ErrAlignment = errors.New("prize is not in the rendered set")
	// ErrPrizeUnavailable means the winning prize left the rendered set mid animation.
	ErrPrizeUnavailable = errors.New("winning prize is no longer available")
	// ErrNotFound is returned for unknown prizes, spins and users.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput wraps validation failures on admin and participant input.
	ErrInvalidInput = errors.New("invalid input")
)

// IneligibleError is returned when a draw is refused by the eligibility gate.
type IneligibleError struct {
	DrawType       DrawType
	Reason         string
	NextEligibleAt *time.Time
}

func (e *IneligibleError) Error() string {
	if e.Reason == ReasonDisabled {
		return fmt.Sprintf("%s draw is disabled", e.DrawType.Slug())
	}
	if e.NextEligibleAt != nil {
		return fmt.Sprintf("already drew the %s, next draw available at %s", e.DrawType.Slug(), e.NextEligibleAt.Format(time.RFC3339))
	}
	return fmt.Sprintf("already drew the %s this week", e.DrawType.Slug())
}

func (e *IneligibleError) Is(target error) bool { return target == ErrIneligible }

// DrawTransactionError is an ambiguous draw failure. The draw may or may not
// have committed, so the caller must re-check eligibility before retrying.
type DrawTransactionError struct {
	Err error
}

func (e *DrawTransactionError) Error() string {
	return fmt.Sprintf("draw transaction failed: %v", e.Err)
}

func (e *DrawTransactionError) Unwrap() error { return e.Err }

func (e *DrawTransactionError) Is(target error) bool { return target == ErrDrawFailed }

// AlignmentError means the server picked a prize the renderer does not know.
type AlignmentError struct {
	PrizeID primitive.ObjectID
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("prize %s is not in the rendered set", e.PrizeID.Hex())
}

func (e *AlignmentError) Is(target error) bool { return target == ErrAlignment }

// Error codes carried in API error bodies.
const (
	CodeIneligible       = "INELIGIBLE"
	CodeDrawInProgress   = "DRAW_IN_PROGRESS"
	CodeNoPrizeAvailable = "NO_PRIZE_AVAILABLE"
	CodeDrawFailed       = "DRAW_FAILED"
	CodePrizeUnavailable = "PRIZE_UNAVAILABLE"
	CodeNotFound         = "NOT_FOUND"
	CodeBadRequest       = "BAD_REQUEST"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeForbidden        = "FORBIDDEN"
	CodeInternal         = "INTERNAL"
)
