// Package reveal turns a drawn prize into the message shown to the participant.
package reveal

import (
	"fmt"
	"io"
	"strings"

	"github.com/ArowuTest/padel-arena-backend/internal/models"
)

const (
	HeadlineWin      = "Congratulations!"
	HeadlineNoWin    = "Better Luck Next Time!"
	ClaimInstruction = "Your prize has been recorded. Please contact the admin to claim it."
)

// Reveal is what the participant sees once the animation settles.
type Reveal struct {
	Headline         string `json:"headline"`
	PrizeName        string `json:"prizeName"`
	Description      string `json:"description,omitempty"`
	Glyph            string `json:"glyph"`
	ClaimInstruction string `json:"claimInstruction,omitempty"`
	Consolation      bool   `json:"consolation"`
}

// Compose builds the reveal for prize. No-win prizes get the consolation
// headline and no claim instruction.
func Compose(prize *models.Prize) Reveal {
	r := Reveal{
		PrizeName:   prize.Name,
		Description: strings.TrimSpace(prize.Description),
		Glyph:       prize.Glyph(),
		Consolation: prize.IsNoWin(),
	}
	if r.Consolation {
		r.Headline = HeadlineNoWin
		return r
	}
	r.Headline = HeadlineWin
	r.ClaimInstruction = ClaimInstruction
	return r
}

// Presenter shows a reveal. It only ever receives the prize, never the engine
// that animated it.
type Presenter interface {
	Show(prize *models.Prize) error
}

// PresenterFunc adapts a function to Presenter.
type PresenterFunc func(prize *models.Prize) error

func (f PresenterFunc) Show(prize *models.Prize) error { return f(prize) }

// TextPresenter writes reveals as plain text, for terminals.
type TextPresenter struct {
	w io.Writer
}

// NewTextPresenter creates a TextPresenter writing to w
func NewTextPresenter(w io.Writer) *TextPresenter {
	return &TextPresenter{w: w}
}

func (p *TextPresenter) Show(prize *models.Prize) error {
	r := Compose(prize)
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", r.Glyph, r.Headline)
	fmt.Fprintf(&b, "%s\n", r.PrizeName)
	if r.Description != "" {
		fmt.Fprintf(&b, "%s\n", r.Description)
	}
	if r.ClaimInstruction != "" {
		fmt.Fprintf(&b, "\n%s\n", r.ClaimInstruction)
	}
	_, err := io.WriteString(p.w, b.String())
	return err
}
