package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DrawType identifies one of the independent reward draws.
type DrawType string

const (
	DrawTypeWheel   DrawType = "WHEEL"
	DrawTypeJackpot DrawType = "JACKPOT"
)

// DrawTypes lists every draw type in display order.
var DrawTypes = []DrawType{DrawTypeWheel, DrawTypeJackpot}

// Valid reports whether t is a known draw type.
func (t DrawType) Valid() bool {
	return t == DrawTypeWheel || t == DrawTypeJackpot
}

// Slug is the lower-case form used in URLs.
func (t DrawType) Slug() string {
	return strings.ToLower(string(t))
}

// ParseDrawType accepts "wheel", "WHEEL", "jackpot" and so on.
func ParseDrawType(s string) (DrawType, error) {
	t := DrawType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown draw type %q", s)
	}
	return t, nil
}

// PrizeCategory classifies what a prize is.
type PrizeCategory string

const (
	PrizeCategoryPhysical PrizeCategory = "PHYSICAL"
	PrizeCategoryDigital  PrizeCategory = "DIGITAL"
	PrizeCategoryNoWin    PrizeCategory = "NO_WIN"
)

// Valid reports whether c is a known category.
func (c PrizeCategory) Valid() bool {
	switch c {
	case PrizeCategoryPhysical, PrizeCategoryDigital, PrizeCategoryNoWin:
		return true
	}
	return false
}

// ParsePrizeCategory accepts both the stored and the lower-case form ("no_win").
func ParsePrizeCategory(s string) (PrizeCategory, error) {
	c := PrizeCategory(strings.ToUpper(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("unknown prize category %q", s)
	}
	return c, nil
}

const (
	// DefaultJackpotWeight is applied when an admin does not set one.
	DefaultJackpotWeight = 5
	// WheelWeight is the fixed weight of every wheel prize.
	WheelWeight = 1

	defaultGlyph = "🎁"
	noWinGlyph   = "🎲"
)

// WheelFace holds how a prize is painted on the wheel.
type WheelFace struct {
	Color string `bson:"color" json:"color"`
	Icon  string `bson:"icon,omitempty" json:"icon,omitempty"`
}

// JackpotFace holds how a prize is shown on a reel.
type JackpotFace struct {
	Emoji string `bson:"emoji" json:"emoji"`
}

// Prize is a reward that can be drawn. Exactly one face is set and it
// must match DrawType.
type Prize struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	DrawType    DrawType           `bson:"drawType" json:"drawType"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description" json:"description"`
	Category    PrizeCategory      `bson:"category" json:"category"`
	Weight      int                `bson:"weight" json:"weight"`
	Active      bool               `bson:"active" json:"active"`
	Position    int                `bson:"position" json:"position"`
	Wheel       *WheelFace         `bson:"wheel,omitempty" json:"wheel,omitempty"`
	Jackpot     *JackpotFace       `bson:"jackpot,omitempty" json:"jackpot,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// IsNoWin reports whether the prize is a consolation outcome.
func (p *Prize) IsNoWin() bool {
	return p.Category == PrizeCategoryNoWin
}

// Glyph returns the symbol shown for the prize: emoji, then icon, then a default.
func (p *Prize) Glyph() string {
	if p.Jackpot != nil && p.Jackpot.Emoji != "" {
		return p.Jackpot.Emoji
	}
	if p.Wheel != nil && p.Wheel.Icon != "" {
		return p.Wheel.Icon
	}
	if p.IsNoWin() {
		return noWinGlyph
	}
	return defaultGlyph
}

// Validate checks the prize shape before it is stored.
func (p *Prize) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("prize name is required")
	}
	if !p.DrawType.Valid() {
		return fmt.Errorf("invalid draw type %q", p.DrawType)
	}
	if !p.Category.Valid() {
		return fmt.Errorf("invalid prize category %q", p.Category)
	}
	if p.Weight < 0 {
		return errors.New("prize weight cannot be negative")
	}
	switch p.DrawType {
	case DrawTypeWheel:
		if p.Wheel == nil || p.Jackpot != nil {
			return errors.New("wheel prize must carry only a wheel face")
		}
	case DrawTypeJackpot:
		if p.Jackpot == nil || p.Wheel != nil {
			return errors.New("jackpot prize must carry only a jackpot face")
		}
	}
	return nil
}

// SortPrizes orders prizes by position, then creation time, then id.
// Both the server and every renderer rely on this order.
func SortPrizes(prizes []*Prize) {
	sort.SliceStable(prizes, func(i, j int) bool {
		a, b := prizes[i], prizes[j]
		if a.Position != b.Position {
			return a.Position < b.Position
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID.Hex() < b.ID.Hex()
	})
}
