package telegram

import (
	"context"
	"fmt"
	"strings"

	"meal-prep-companion/internal/analytics"
	"meal-prep-companion/internal/metrics"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Callback data of the daily reminder buttons.
const (
	ActionStartCooking = "start-cooking"
	ActionDismiss      = "dismiss"
)

// StatsSource provides the analytics summary. Reload is called before every
// summary so events recorded by other processes are included.
type StatsSource interface {
	Reload(ctx context.Context)
	Summary() analytics.Summary
}

// HealthFunc reports process and storage health.
type HealthFunc func(ctx context.Context) (metrics.SysHealth, error)

// Bot answers commands and reminder buttons from the configured chat.
type Bot struct {
	api    Sender
	chatID int64
	stats  StatsSource
	health HealthFunc
	logger *zap.Logger
}

// NewBot creates the update handler.
func NewBot(api Sender, chatID int64, stats StatsSource, health HealthFunc, logger *zap.Logger) *Bot {
	return &Bot{
		api:    api,
		chatID: chatID,
		stats:  stats,
		health: health,
		logger: logger,
	}
}

// Run handles updates until ctx is cancelled or the channel is closed.
func (b *Bot) Run(ctx context.Context, updates <-chan tgbotapi.Update) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate dispatches one update. Updates from other chats are dropped.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		b.handleCallbackQuery(update.CallbackQuery)
		return
	}
	if update.Message == nil {
		return
	}

	msg := update.Message
	if msg.Chat == nil || msg.Chat.ID != b.chatID {
		var from string
		if msg.From != nil {
			from = msg.From.UserName
		}
		b.logger.Warn("Unauthorized access attempt", zap.String("from", from))
		return
	}

	switch msg.Command() {
	case "stats":
		b.stats.Reload(ctx)
		b.reply(formatSummary(b.stats.Summary()))
	case "health":
		b.handleHealth(ctx)
	case "start", "help":
		b.reply(helpText)
	default:
		b.logger.Debug("Ignoring message", zap.String("text", msg.Text))
	}
}

const helpText = "🍳 *Meal Prep Companion*\n\n" +
	"I send your meal prep and cooking reminders.\n\n" +
	"/stats - cooking summary\n" +
	"/health - storage and process health"

func (b *Bot) handleCallbackQuery(query *tgbotapi.CallbackQuery) {
	if query.Message == nil || query.Message.Chat == nil || query.Message.Chat.ID != b.chatID {
		return
	}

	// Answer callback to remove spinner
	if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		b.logger.Warn("Failed to answer callback", zap.Error(err))
	}

	var text string
	switch query.Data {
	case ActionStartCooking:
		text = "🍳 *Let's cook!*\nOpen your meal plan and tap Start Cooking to pick up where you left off."
	case ActionDismiss:
		text = "⏰ *Later it is.*\nI'll remind you again next week."
	default:
		return
	}

	edit := tgbotapi.NewEditMessageText(query.Message.Chat.ID, query.Message.MessageID, text)
	edit.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(edit); err != nil {
		b.logger.Warn("Failed to update reminder message", zap.Error(err))
	}
}

func (b *Bot) handleHealth(ctx context.Context) {
	health, err := b.health(ctx)
	if err != nil {
		b.logger.Error("Failed to collect health", zap.Error(err))
		b.reply("❌ Error fetching health report.")
		return
	}
	b.reply(formatHealth(health))
}

func (b *Bot) reply(text string) {
	msg := tgbotapi.NewMessage(b.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send reply", zap.Error(err))
	}
}

func formatSummary(s analytics.Summary) string {
	var sb strings.Builder
	sb.WriteString("📊 *Cooking Summary*\n\n")
	sb.WriteString(fmt.Sprintf("🔥 *Streak:* %d days\n", s.CurrentStreak))
	sb.WriteString(fmt.Sprintf("🍽 *This week:* %d meals\n", s.MealsThisWeek))
	sb.WriteString(fmt.Sprintf("✅ *Sessions:* %d of %d completed\n", s.CompletedCookingSessions, s.TotalCookingSessions))
	if s.AverageRating > 0 {
		sb.WriteString(fmt.Sprintf("⭐ *Average rating:* %.1f\n", s.AverageRating))
	} else {
		sb.WriteString("⭐ *Average rating:* _no ratings yet_\n")
	}
	sb.WriteString(fmt.Sprintf("👀 *Plan views:* %d\n", s.TotalViews))
	sb.WriteString(fmt.Sprintf("🛒 *Shopping lists checked:* %d\n", s.ShoppingListsChecked))
	return sb.String()
}

func formatHealth(h metrics.SysHealth) string {
	var sb strings.Builder
	sb.WriteString("🧠 *System Health*\n")
	sb.WriteString(fmt.Sprintf("• RAM: %dMB (Alloc) / %dMB (Sys)\n", h.AllocMB, h.SysMB))
	sb.WriteString(fmt.Sprintf("• Goroutines: %d\n", h.Goroutines))
	sb.WriteString(fmt.Sprintf("• Disk Data: %s\n", h.DataDiskSize))
	sb.WriteString(fmt.Sprintf("• Storage: %s of %s (%.0f%%)\n", h.Storage.Used(), h.Storage.Quota(), h.Storage.Percent()))
	return sb.String()
}
