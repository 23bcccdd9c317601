package bot

import (
	"context"
	"strconv"
	"strings"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// Данные callback: req_accept:123, req_decline:123
const (
	callbackAccept  = "req_accept:"
	callbackDecline = "req_decline:"
)

// HandleCallback обрабатывает нажатие inline кнопки и возвращает текст ответа.
func (c *Controller) HandleCallback(ctx context.Context, telegramID int64, data string) string {
	var accept bool
	switch {
	case strings.HasPrefix(data, callbackAccept):
		accept = true
	case strings.HasPrefix(data, callbackDecline):
	default:
		c.logger.Warn("Unknown callback data", zap.String("data", data))
		return "🤔 Unknown action."
	}

	_, rawID, _ := strings.Cut(data, ":")
	if _, err := strconv.ParseInt(rawID, 10, 64); err != nil {
		return "🤔 Unknown action."
	}

	caller, reply := c.resolve(ctx, telegramID)
	if caller == nil {
		return reply
	}
	return c.respond(ctx, *caller, []string{rawID}, accept)
}

func (c *Controller) handleCallbackQuery(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	cq := update.CallbackQuery
	if cq == nil {
		return
	}

	reply := c.HandleCallback(ctx, cq.From.ID, cq.Data)

	if _, err := b.AnswerCallbackQuery(ctx, &tgbot.AnswerCallbackQueryParams{
		CallbackQueryID: cq.ID,
		Text:            reply,
	}); err != nil {
		c.logger.Warn("Failed to answer callback", zap.Error(err))
	}

	msg := cq.Message.Message
	if msg == nil {
		return
	}
	// кнопки больше не нужны
	if _, err := b.EditMessageReplyMarkup(ctx, &tgbot.EditMessageReplyMarkupParams{
		ChatID:    msg.Chat.ID,
		MessageID: msg.ID,
	}); err != nil {
		c.logger.Debug("Failed to clear keyboard", zap.Error(err))
	}
	c.send(ctx, b, msg.Chat.ID, Reply{Text: reply})
}
