package models

import "time"

// FeatureToggle switches one draw type on or off for every participant.
type FeatureToggle struct {
	DrawType  DrawType  `bson:"_id" json:"drawType"`
	Enabled   bool      `bson:"enabled" json:"enabled"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
	UpdatedBy string    `bson:"updatedBy,omitempty" json:"updatedBy,omitempty"`
}

// DefaultFeatureToggle is used when no toggle has been stored yet.
func DefaultFeatureToggle(drawType DrawType) *FeatureToggle {
	return &FeatureToggle{DrawType: drawType, Enabled: true}
}
