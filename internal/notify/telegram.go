package notify

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/tutoring_toolbox/internal/repository"
)

// MessageSender is the part of *bot.Bot used for delivery.
type MessageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// TelegramNotifier sends the event text to the recipient's linked chat.
// Recipients without a Telegram id are skipped.
type TelegramNotifier struct {
	sender MessageSender
	users  repository.UserRepo
	logger *zap.Logger
}

func NewTelegramNotifier(sender MessageSender, users repository.UserRepo, logger *zap.Logger) *TelegramNotifier {
	return &TelegramNotifier{sender: sender, users: users, logger: logger}
}

func (n *TelegramNotifier) Notify(ctx context.Context, ev Event) error {
	user, err := n.users.GetByID(ctx, ev.RecipientID)
	if err != nil {
		return fmt.Errorf("get recipient: %w", err)
	}
	if user == nil || user.TelegramID == nil {
		n.logger.Debug("Recipient has no telegram chat",
			zap.Int64("recipient_id", ev.RecipientID),
			zap.String("kind", string(ev.Kind)))
		return nil
	}

	_, err = n.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: *user.TelegramID,
		Text:   ev.Text,
	})
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}
