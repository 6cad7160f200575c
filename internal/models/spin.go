package models

import (
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultEligibilityPeriod is the rolling window between two draws of the same type.
const DefaultEligibilityPeriod = 7 * 24 * time.Hour

// Claim statuses for a recorded spin.
const (
	ClaimStatusPending       = "PENDING"
	ClaimStatusNotApplicable = "NOT_APPLICABLE"
)

// SpinRecord is the immutable record of one draw. The prize fields are a
// snapshot taken at draw time so later catalog edits do not rewrite history.
type SpinRecord struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ParticipantID    string             `bson:"participantId" json:"participantId"`
	DrawType         DrawType           `bson:"drawType" json:"drawType"`
	PrizeID          primitive.ObjectID `bson:"prizeId" json:"prizeId"`
	PrizeName        string             `bson:"prizeName" json:"prizeName"`
	PrizeDescription string             `bson:"prizeDescription" json:"prizeDescription"`
	PrizeCategory    PrizeCategory      `bson:"prizeCategory" json:"prizeCategory"`
	PrizeGlyph       string             `bson:"prizeGlyph" json:"prizeGlyph"`
	RequestID        string             `bson:"requestId" json:"requestId"`
	PeriodKey        string             `bson:"periodKey" json:"periodKey"`
	ClaimStatus      string             `bson:"claimStatus" json:"claimStatus"`
	SpinAt           time.Time          `bson:"spinAt" json:"spinAt"`
}

// NewSpinRecord snapshots prize into a record for participantID.
func NewSpinRecord(participantID string, prize *Prize, requestID string, at time.Time) *SpinRecord {
	status := ClaimStatusPending
	if prize.IsNoWin() {
		status = ClaimStatusNotApplicable
	}
	return &SpinRecord{
		ID:               primitive.NewObjectID(),
		ParticipantID:    participantID,
		DrawType:         prize.DrawType,
		PrizeID:          prize.ID,
		PrizeName:        prize.Name,
		PrizeDescription: prize.Description,
		PrizeCategory:    prize.Category,
		PrizeGlyph:       prize.Glyph(),
		RequestID:        requestID,
		PeriodKey:        at.UTC().Format("2006-01-02"),
		ClaimStatus:      status,
		SpinAt:           at,
	}
}

// EligibilityWindow remembers the last draw of a participant for one draw type.
type EligibilityWindow struct {
	ID            string    `bson:"_id" json:"-"`
	ParticipantID string    `bson:"participantId" json:"participantId"`
	DrawType      DrawType  `bson:"drawType" json:"drawType"`
	LastDrawAt    time.Time `bson:"lastDrawAt" json:"lastDrawAt"`
	UpdatedAt     time.Time `bson:"updatedAt" json:"updatedAt"`
}

// EligibilityKey is the storage key of a participant's window.
func EligibilityKey(participantID string, drawType DrawType) string {
	return participantID + ":" + string(drawType)
}

// Eligibility is what a participant is told before drawing.
type Eligibility struct {
	DrawType       DrawType   `json:"drawType"`
	Enabled        bool       `json:"enabled"`
	Eligible       bool       `json:"eligible"`
	LastDrawAt     *time.Time `json:"lastDrawAt,omitempty"`
	NextEligibleAt *time.Time `json:"nextEligibleAt,omitempty"`
}

// DaysUntilEligible returns ceil((last+period-now)/24h), never negative.
func DaysUntilEligible(last, now time.Time, period time.Duration) int {
	remaining := last.Add(period).Sub(now)
	if remaining <= 0 {
		return 0
	}
	return int(math.Ceil(remaining.Hours() / 24))
}

// DrawOutcome is returned to the participant after a committed draw.
type DrawOutcome struct {
	PrizeID          primitive.ObjectID `json:"prizeId"`
	PrizeName        string             `json:"prizeName"`
	PrizeDescription string             `json:"prizeDescription"`
	PrizeCategory    PrizeCategory      `json:"prizeCategory"`
	PrizeGlyph       string             `json:"prizeGlyph"`
	DrawType         DrawType           `json:"drawType"`
	RequestID        string             `json:"requestId"`
	SpinAt           time.Time          `json:"spinAt"`
	NextEligibleAt   time.Time          `json:"nextEligibleAt"`
}

// OutcomeFromSpin builds the participant facing outcome of a stored spin.
func OutcomeFromSpin(spin *SpinRecord, period time.Duration) *DrawOutcome {
	return &DrawOutcome{
		PrizeID:          spin.PrizeID,
		PrizeName:        spin.PrizeName,
		PrizeDescription: spin.PrizeDescription,
		PrizeCategory:    spin.PrizeCategory,
		PrizeGlyph:       spin.PrizeGlyph,
		DrawType:         spin.DrawType,
		RequestID:        spin.RequestID,
		SpinAt:           spin.SpinAt,
		NextEligibleAt:   spin.SpinAt.Add(period),
	}
}
