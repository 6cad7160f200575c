// Package notify tells club staff about prizes waiting to be claimed.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ArowuTest/padel-arena-backend/internal/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Notifier is called after a draw commits.
type Notifier interface {
	PrizeWon(ctx context.Context, spin *models.SpinRecord) error
}

// Nop drops every notification.
type Nop struct{}

func (Nop) PrizeWon(context.Context, *models.SpinRecord) error { return nil }

// TelegramNotifier posts claim alerts to the staff chat.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger *slog.Logger
}

// NewTelegramNotifier authorises the bot token against the Telegram API.
func NewTelegramNotifier(token string, chatID int64, logger *slog.Logger) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to authorise telegram bot: %w", err)
	}
	logger.Info("Telegram notifier ready", "account", bot.Self.UserName)
	return &TelegramNotifier{bot: bot, chatID: chatID, logger: logger}, nil
}

// PrizeWon sends one message per real prize. No-win spins are ignored.
func (n *TelegramNotifier) PrizeWon(_ context.Context, spin *models.SpinRecord) error {
	if spin.PrizeCategory == models.PrizeCategoryNoWin {
		return nil
	}
	msg := tgbotapi.NewMessage(n.chatID, FormatPrizeWon(spin))
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}

// FormatPrizeWon renders the staff message for a spin.
func FormatPrizeWon(spin *models.SpinRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s New %s prize to claim\n", spin.PrizeGlyph, strings.ToLower(string(spin.DrawType)))
	fmt.Fprintf(&b, "Prize: %s\n", spin.PrizeName)
	if spin.PrizeDescription != "" {
		fmt.Fprintf(&b, "Details: %s\n", spin.PrizeDescription)
	}
	fmt.Fprintf(&b, "Participant: %s\n", spin.ParticipantID)
	fmt.Fprintf(&b, "Won at: %s", spin.SpinAt.Format("2006-01-02 15:04 MST"))
	return b.String()
}
