// Package fidelity computes the loyalty status earned through court bookings.
package fidelity

import (
	"github.com/shopspring/decimal"
)

const (
	XPPerBooking        = 100
	BookingsForDiscount = 5
	DiscountPercent     = 10
)

// Level is the loyalty tier of a participant.
type Level string

const (
	LevelRookie   Level = "Rookie"
	LevelBronze   Level = "Bronze"
	LevelSilver   Level = "Silver"
	LevelGold     Level = "Gold"
	LevelPlatinum Level = "Platinum"
)

// LevelFor maps a booking count to its tier.
func LevelFor(bookings int) Level {
	switch {
	case bookings <= 0:
		return LevelRookie
	case bookings < 5:
		return LevelBronze
	case bookings < 10:
		return LevelSilver
	case bookings < 20:
		return LevelGold
	default:
		return LevelPlatinum
	}
}

// Summary is the loyalty state shown next to the reward draws.
type Summary struct {
	TotalBookings         int     `json:"totalBookings"`
	TotalXP               int     `json:"totalXp"`
	XPPerBooking          int     `json:"xpPerBooking"`
	BookingsUntilDiscount int     `json:"bookingsUntilDiscount"`
	DiscountProgress      float64 `json:"discountProgress"`
	HasDiscount           bool    `json:"hasDiscount"`
	Level                 Level   `json:"level"`
	DiscountPercentage    int     `json:"discountPercentage"`
}

// Summarize builds the summary for a booking count.
func Summarize(bookings int) Summary {
	if bookings < 0 {
		bookings = 0
	}
	s := Summary{
		TotalBookings: bookings,
		TotalXP:       bookings * XPPerBooking,
		XPPerBooking:  XPPerBooking,
		HasDiscount:   bookings >= BookingsForDiscount,
		Level:         LevelFor(bookings),
	}
	if left := BookingsForDiscount - bookings; left > 0 {
		s.BookingsUntilDiscount = left
	}
	s.DiscountProgress = float64(bookings) / BookingsForDiscount * 100
	if s.DiscountProgress > 100 {
		s.DiscountProgress = 100
	}
	if s.HasDiscount {
		s.DiscountPercentage = DiscountPercent
	}
	return s
}

// Apply returns price after the unlocked discount, rounded to cents.
func (s Summary) Apply(price decimal.Decimal) decimal.Decimal {
	if s.DiscountPercentage == 0 {
		return price.Round(2)
	}
	factor := decimal.NewFromInt(int64(100 - s.DiscountPercentage)).Div(decimal.NewFromInt(100))
	return price.Mul(factor).Round(2)
}
