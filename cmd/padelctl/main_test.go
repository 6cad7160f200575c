package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/ArowuTest/padel-arena-backend/internal/animation"
	"github.com/ArowuTest/padel-arena-backend/internal/models"
)

func TestRenderFrame(t *testing.T) {
	prizes := []*models.Prize{
		{Name: "Racket", Category: models.PrizeCategoryPhysical, Jackpot: &models.JackpotFace{Emoji: "🎾"}},
		{Name: "Try again", Category: models.PrizeCategoryNoWin, Jackpot: &models.JackpotFace{}},
	}
	tests := []struct {
		name  string
		frame animation.Frame
		want  string
	}{
		{
			name:  "jackpot mid spin",
			frame: animation.Frame{Kind: animation.FrameJackpot, Reels: []int{0, 1, 5}, Locked: []bool{true, false, false}},
			want:  "[🎾] 🎲  ? ",
		},
		{
			name:  "wheel",
			frame: animation.Frame{Kind: animation.FrameWheel, Rotation: 90, State: animation.StateSpinning},
			want:  "wheel   90.0°  spinning",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := renderFrame(tt.frame, prizes); got != tt.want {
				t.Errorf("renderFrame() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPrintEligibility(t *testing.T) {
	next := time.Now().Add(36 * time.Hour)
	tests := []struct {
		name string
		in   models.Eligibility
		want string
	}{
		{"disabled", models.Eligibility{DrawType: models.DrawTypeJackpot}, "jackpot  off"},
		{"ready", models.Eligibility{DrawType: models.DrawTypeWheel, Enabled: true, Eligible: true}, "wheel    ready to draw"},
		{"waiting", models.Eligibility{DrawType: models.DrawTypeWheel, Enabled: true, NextEligibleAt: &next}, "next draw in 2 day(s)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			printEligibility(&buf, &tt.in)
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("printEligibility() = %q, want it to contain %q", buf.String(), tt.want)
			}
		})
	}
}
