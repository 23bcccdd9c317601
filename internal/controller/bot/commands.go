package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/tutoring_toolbox/internal/model"
	"github.com/Freeeeeet/tutoring_toolbox/internal/service"
)

const helpText = "Commands:\n" +
	"/requests - my tutoring requests\n" +
	"/sessions - my upcoming sessions\n\n" +
	"For tutors:\n" +
	"/pending - requests waiting for my answer\n" +
	"/accept <id> - accept a request\n" +
	"/decline <id> - decline a request\n" +
	"/quota - hours booked this week"

const notLinkedText = "❌ Your Telegram account is not linked to a tutoring profile. Ask an administrator to link it."

// Reply ответ бота на команду.
type Reply struct {
	Text     string
	Keyboard *models.InlineKeyboardMarkup
}

func text(s string) Reply { return Reply{Text: s} }

// HandleCommand находит пользователя по Telegram ID и собирает ответ.
func (c *Controller) HandleCommand(ctx context.Context, telegramID int64, message string) Reply {
	fields := strings.Fields(message)
	if len(fields) == 0 {
		return text(helpText)
	}
	// "/accept@tutoring_bot 5" в группах
	cmd, _, _ := strings.Cut(fields[0], "@")
	args := fields[1:]

	caller, reply := c.resolve(ctx, telegramID)
	if caller == nil {
		return text(reply)
	}

	switch cmd {
	case "/start":
		return text(c.start(caller))
	case "/help":
		return text(helpText)
	case "/requests":
		return text(c.myRequests(ctx, *caller))
	case "/pending":
		return c.pending(ctx, *caller)
	case "/accept":
		return text(c.respond(ctx, *caller, args, true))
	case "/decline":
		return text(c.respond(ctx, *caller, args, false))
	case "/sessions":
		return text(c.upcomingSessions(ctx, *caller))
	case "/quota":
		return text(c.quota(ctx, *caller))
	default:
		return text("🤔 Unknown command.\n\n" + helpText)
	}
}

// resolve возвращает nil и текст ответа, если пользователь не может действовать.
func (c *Controller) resolve(ctx context.Context, telegramID int64) (*model.Caller, string) {
	caller, err := c.directory.CallerByTelegramID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return nil, notLinkedText
		}
		c.logger.Error("Failed to resolve telegram user", zap.Int64("telegram_id", telegramID), zap.Error(err))
		return nil, "❌ Something went wrong. Try again later."
	}
	return caller, ""
}

func (c *Controller) start(caller *model.Caller) string {
	role := "student"
	switch {
	case caller.IsAdmin():
		role = "administrator"
	case caller.HasRole(string(model.RoleTutor)):
		role = "tutor"
	}
	return fmt.Sprintf("👋 Hi! You are linked as user #%d (%s).\n\n%s", caller.ID, role, helpText)
}

func (c *Controller) myRequests(ctx context.Context, caller model.Caller) string {
	me := caller.ID
	requests, err := c.requests.List(ctx, caller, model.RequestFilter{StudentID: &me})
	if err != nil {
		return c.failure(err)
	}
	if len(requests) == 0 {
		return "📚 You have no tutoring requests."
	}

	var sb strings.Builder
	sb.WriteString("📚 Your requests:\n")
	for _, req := range requests {
		sb.WriteString("\n")
		sb.WriteString(formatRequest(req))
	}
	return sb.String()
}

// pending показывает заявки, ждущие ответа тутора, с кнопками accept/decline.
func (c *Controller) pending(ctx context.Context, caller model.Caller) Reply {
	if !caller.HasRole(string(model.RoleTutor)) {
		return text("❌ This command is for tutors.")
	}

	me := caller.ID
	status := model.RequestStatusPendingTutor
	requests, err := c.requests.List(ctx, caller, model.RequestFilter{Status: &status, RequestedTutorID: &me})
	if err != nil {
		return text(c.failure(err))
	}
	if len(requests) == 0 {
		return text("📥 Nothing is waiting for your answer.")
	}

	var sb strings.Builder
	kb := newKeyboard()
	sb.WriteString("📥 Waiting for your answer:\n")
	for _, req := range requests {
		sb.WriteString("\n")
		sb.WriteString(formatRequest(req))

		id := strconv.FormatInt(req.ID, 10)
		kb.Row(
			button("✅ Accept #"+id, callbackAccept+id),
			button("❌ Decline #"+id, callbackDecline+id),
		)
	}
	sb.WriteString("\n\nReply with /accept <id> or /decline <id>.")
	return Reply{Text: sb.String(), Keyboard: kb.Build()}
}

func (c *Controller) respond(ctx context.Context, caller model.Caller, args []string, accept bool) string {
	verb := "decline"
	if accept {
		verb = "accept"
	}
	if len(args) != 1 {
		return fmt.Sprintf("Usage: /%s <request id>", verb)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return fmt.Sprintf("❌ %q is not a request id.", args[0])
	}

	req, err := c.requests.TutorRespond(ctx, caller, id, accept)
	if err != nil {
		return c.failure(err)
	}
	if accept {
		return fmt.Sprintf("✅ Request #%d accepted. You can now schedule sessions for it.", req.ID)
	}
	return fmt.Sprintf("↩️ Request #%d declined and returned to the administrators.", req.ID)
}

func (c *Controller) upcomingSessions(ctx context.Context, caller model.Caller) string {
	sessions, err := c.sessions.List(ctx, caller, model.SessionFilter{})
	if err != nil {
		return c.failure(err)
	}

	now := c.now()
	var sb strings.Builder
	count := 0
	for _, s := range sessions {
		// идущее сейчас занятие тоже показываем
		if s.Status != model.SessionStatusScheduled || !s.EndTime.After(now) {
			continue
		}
		if count == 0 {
			sb.WriteString("📅 Upcoming sessions:\n")
		}
		count++
		role := "student"
		if s.TutorID == caller.ID {
			role = "tutor"
		}
		fmt.Fprintf(&sb, "\n#%d request #%d, %s (you are the %s)",
			s.ID, s.RequestID, formatSlot(s.StartTime, s.EndTime, c.loc), role)
	}
	if count == 0 {
		return "📅 No upcoming sessions."
	}
	return sb.String()
}

func (c *Controller) quota(ctx context.Context, caller model.Caller) string {
	if !caller.HasRole(string(model.RoleTutor)) {
		return "❌ This command is for tutors."
	}

	usage, err := c.sessions.WeeklyUsage(ctx, caller, caller.ID)
	if err != nil {
		return c.failure(err)
	}
	return fmt.Sprintf("⏱ Week of %s: %.1f of %d hours booked, %.1f left.",
		formatDate(usage.WeekStart, c.loc),
		usage.HoursUsed, usage.WeeklyLimit, usage.Remaining())
}

// failure превращает ошибку сервиса в понятную пользователю строку.
func (c *Controller) failure(err error) string {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return "❌ Not found."
	case errors.Is(err, service.ErrForbidden):
		return "❌ You are not allowed to do that."
	case errors.Is(err, service.ErrInvalidTransition), errors.Is(err, service.ErrInvalidState):
		return "⚠️ The request is no longer in a state that allows this."
	case errors.Is(err, service.ErrValidation):
		return "❌ " + err.Error()
	default:
		c.logger.Error("Bot command failed", zap.Error(err))
		return "❌ Something went wrong. Try again later."
	}
}
