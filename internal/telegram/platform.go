package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"meal-prep-companion/internal/notify"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Sender is the part of *tgbotapi.BotAPI the package uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetMe() (tgbotapi.User, error)
}

// Platform delivers notifications as Markdown messages to one chat.
type Platform struct {
	api     Sender
	chatID  int64
	limiter *rate.Limiter
	logger  *zap.Logger

	mu         sync.Mutex
	permission notify.Permission
}

// NewPlatform creates a Telegram notification platform. Messages are throttled
// to ratePerSecond; a non-positive rate disables throttling.
func NewPlatform(api Sender, chatID int64, ratePerSecond float64, logger *zap.Logger) *Platform {
	limit := rate.Inf
	if ratePerSecond > 0 {
		limit = rate.Limit(ratePerSecond)
	}
	return &Platform{
		api:        api,
		chatID:     chatID,
		limiter:    rate.NewLimiter(limit, 1),
		logger:     logger,
		permission: notify.PermissionDefault,
	}
}

func (p *Platform) Permission(context.Context) notify.Permission {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.permission
}

// RequestPermission grants delivery when the bot token is valid and a chat is
// configured. A missing chat or a token Telegram rejects is a denial; any other
// failure leaves the permission undecided so a later request can succeed.
func (p *Platform) RequestPermission(context.Context) (notify.Permission, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.chatID == 0 {
		p.permission = notify.PermissionDenied
		return p.permission, errors.New("telegram chat id is not configured")
	}
	me, err := p.api.GetMe()
	if err != nil {
		if isRefusal(err) {
			p.permission = notify.PermissionDenied
		}
		return p.permission, fmt.Errorf("failed to verify telegram bot: %w", err)
	}

	p.logger.Info("Telegram notifications enabled", zap.String("bot", me.UserName), zap.Int64("chat_id", p.chatID))
	p.permission = notify.PermissionGranted
	return p.permission, nil
}

// isRefusal reports whether Telegram rejected the bot itself, as opposed to
// the request failing on the way.
func isRefusal(err error) bool {
	var apiErr *tgbotapi.Error
	if !errors.As(err, &apiErr) {
		var valErr tgbotapi.Error
		if !errors.As(err, &valErr) {
			return false
		}
		apiErr = &valErr
	}
	switch apiErr.Code {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return true
	}
	return false
}

// Show sends the notification once the rate limiter allows it.
func (p *Platform) Show(ctx context.Context, n notify.Notification) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("failed to wait for telegram rate limit: %w", err)
	}

	msg := tgbotapi.NewMessage(p.chatID, FormatNotification(n))
	msg.ParseMode = tgbotapi.ModeMarkdown
	if len(n.Actions) > 0 {
		msg.ReplyMarkup = actionKeyboard(n.Actions)
	}
	if _, err := p.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram notification %q: %w", n.Tag, err)
	}
	return nil
}

// FormatNotification renders a notification as a Markdown message.
func FormatNotification(n notify.Notification) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("*%s*", tgbotapi.EscapeText(tgbotapi.ModeMarkdown, n.Title)))
	if n.Body != "" {
		sb.WriteString("\n")
		sb.WriteString(tgbotapi.EscapeText(tgbotapi.ModeMarkdown, n.Body))
	}
	if n.RequireInteraction {
		sb.WriteString("\n\n_Needs your attention_")
	}
	return sb.String()
}

func actionKeyboard(actions []notify.Action) tgbotapi.InlineKeyboardMarkup {
	row := make([]tgbotapi.InlineKeyboardButton, 0, len(actions))
	for _, a := range actions {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(a.Title, a.ID))
	}
	return tgbotapi.NewInlineKeyboardMarkup(row)
}
