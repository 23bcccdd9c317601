// Package bot обслуживает туторов и студентов в Telegram.
package bot

import (
	"context"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/tutoring_toolbox/internal/service"
)

type Controller struct {
	bot       *tgbot.Bot
	requests  *service.RequestService
	sessions  *service.SessionService
	directory *service.DirectoryService
	loc       *time.Location
	now       func() time.Time
	logger    *zap.Logger
}

func NewController(
	botInstance *tgbot.Bot,
	requests *service.RequestService,
	sessions *service.SessionService,
	directory *service.DirectoryService,
	loc *time.Location,
	logger *zap.Logger,
) *Controller {
	if loc == nil {
		loc = time.UTC
	}
	return &Controller{
		bot:       botInstance,
		requests:  requests,
		sessions:  sessions,
		directory: directory,
		loc:       loc,
		now:       time.Now,
		logger:    logger.Named("bot"),
	}
}

// RegisterHandlers регистрирует обработчики команд и меню.
func (c *Controller) RegisterHandlers(ctx context.Context) error {
	for _, cmd := range []string{"/start", "/help", "/requests", "/pending", "/sessions", "/quota"} {
		c.bot.RegisterHandler(tgbot.HandlerTypeMessageText, cmd, tgbot.MatchTypeExact, c.handleMessage)
	}
	c.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/accept", tgbot.MatchTypePrefix, c.handleMessage)
	c.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/decline", tgbot.MatchTypePrefix, c.handleMessage)

	// Обработчик нажатий на inline кнопки
	c.bot.RegisterHandler(tgbot.HandlerTypeCallbackQueryData, "req_", tgbot.MatchTypePrefix, c.handleCallbackQuery)

	return c.setCommands(ctx)
}

func (c *Controller) setCommands(ctx context.Context) error {
	commands := []models.BotCommand{
		{Command: "start", Description: "🚀 Link check and overview"},
		{Command: "help", Description: "❓ Command reference"},
		{Command: "requests", Description: "📚 My tutoring requests"},
		{Command: "pending", Description: "📥 Requests waiting for my answer (tutor)"},
		{Command: "accept", Description: "✅ Accept a request: /accept <id>"},
		{Command: "decline", Description: "❌ Decline a request: /decline <id>"},
		{Command: "sessions", Description: "📅 My upcoming sessions"},
		{Command: "quota", Description: "⏱ My weekly hours (tutor)"},
	}

	_, err := c.bot.SetMyCommands(ctx, &tgbot.SetMyCommandsParams{Commands: commands})
	if err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return err
	}

	c.logger.Info("✅ Bot commands menu set")
	return nil
}

// Start блокируется до отмены ctx.
func (c *Controller) Start(ctx context.Context) {
	c.logger.Info("Starting bot...")
	c.bot.Start(ctx)
}

func (c *Controller) handleMessage(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	reply := c.HandleCommand(ctx, update.Message.From.ID, update.Message.Text)
	c.send(ctx, b, update.Message.Chat.ID, reply)
}

func (c *Controller) send(ctx context.Context, b *tgbot.Bot, chatID int64, reply Reply) {
	params := &tgbot.SendMessageParams{
		ChatID: chatID,
		Text:   reply.Text,
	}
	if reply.Keyboard != nil {
		params.ReplyMarkup = reply.Keyboard
	}

	if _, err := b.SendMessage(ctx, params); err != nil {
		c.logger.Error("Failed to send reply",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	}
}
