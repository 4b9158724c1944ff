// Package bot routes Telegram commands to the analyzer API.
package bot

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Vodeneev/parlaybot/internal/analyzer/analyzer"
	"github.com/Vodeneev/parlaybot/internal/pkg/format"
	"github.com/Vodeneev/parlaybot/internal/pkg/models"
	"github.com/Vodeneev/parlaybot/internal/pkg/storage"
)

const (
	defaultProfileLimit = 5
	maxProfileLimit     = 20
	requestTimeout      = 5 * time.Minute
	tipsCallbackPrefix  = "tips:"
)

const helpText = `🤖 *Parlay Prediction Bot*

*Available Commands:*

/profile [limit] - Statistical profile of today's upcoming fixtures
  Example: /profile 3

/recommend - Today's picks with handicap lines

/tips [today|tomorrow] - Public tips list for a day

/help - Show this help message

*Note:* Limit must be between 1 and 20. Default is 5.`

// Analyzer is the part of the analyzer API the bot calls.
type Analyzer interface {
	Reports(ctx context.Context, limit int) ([]analyzer.Report, error)
	Tips(ctx context.Context, day string) (string, []models.Tip, error)
	RegisterUser(ctx context.Context, user storage.BotUser) (bool, error)
}

// Sender is the part of tgbotapi.BotAPI the bot needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type Config struct {
	AdminIDs       []int64
	AllowedUserIDs []int64 // empty means everyone
	Location       *time.Location
}

type Bot struct {
	api     Sender
	client  Analyzer
	cfg     Config
	allowed map[int64]bool
	now     func() time.Time
}

func New(api Sender, client Analyzer, cfg Config) *Bot {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	allowed := make(map[int64]bool, len(cfg.AllowedUserIDs))
	for _, id := range cfg.AllowedUserIDs {
		allowed[id] = true
	}
	return &Bot{api: api, client: client, cfg: cfg, allowed: allowed, now: time.Now}
}

// Run handles updates until ctx is done or the channel is closed, then waits for
// the handlers still running. Each update is handled in its own goroutine.
func (b *Bot) Run(ctx context.Context, updates <-chan tgbotapi.Update) {
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				slog.Info("Updates channel closed")
				return
			}
			wg.Add(1)
			// Scraping tips takes a while; don't hold up other chats.
			go func() {
				defer wg.Done()
				b.HandleUpdate(ctx, update)
			}()
		}
	}
}

// HandleUpdate dispatches one update; it blocks until all replies are sent.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		if update.Message.From != nil && !b.isAllowed(update.Message.From.ID) {
			b.reply(update.Message.Chat.ID, "Access denied. You are not authorized to use this bot.", false)
			return
		}
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) isAllowed(userID int64) bool {
	return len(b.allowed) == 0 || b.allowed[userID]
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	text := strings.TrimSpace(message.Text)
	if !strings.HasPrefix(text, "/") {
		return
	}

	parts := strings.Fields(text)
	// Commands in groups arrive as /cmd@BotName.
	command, _, _ := strings.Cut(strings.ToLower(parts[0]), "@")
	args := parts[1:]
	chatID := message.Chat.ID

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	switch command {
	case "/start":
		b.handleStart(ctx, message)
	case "/help":
		b.reply(chatID, helpText, true)
	case "/profile", "/prediksi":
		limit := defaultProfileLimit
		if len(args) > 0 {
			if n, err := strconv.Atoi(args[0]); err == nil && n > 0 && n <= maxProfileLimit {
				limit = n
			}
		}
		b.sendProfiles(ctx, chatID, limit)
	case "/recommend", "/rekomendasi":
		b.sendRecommendations(ctx, chatID)
	case "/tips":
		if len(args) == 0 {
			b.askTipsDay(chatID)
			return
		}
		b.sendTips(ctx, chatID, strings.ToLower(args[0]))
	default:
		b.reply(chatID, "Unknown command. Use /help to see available commands.", false)
	}
}

func (b *Bot) handleStart(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	username := ""
	if message.From != nil {
		username = message.From.UserName
	}

	created, err := b.client.RegisterUser(ctx, storage.BotUser{ChatID: chatID, Username: username})
	if err != nil {
		slog.Warn("Failed to register user", "chat_id", chatID, "error", err)
	} else if created {
		slog.Info("New bot user", "chat_id", chatID, "username", username)
		for _, admin := range b.cfg.AdminIDs {
			b.reply(admin, format.NewUser(chatID, username), true)
		}
	}

	b.reply(chatID, "🤖 Prediction bot is active\nUse /profile, /recommend or /tips", false)
}

func (b *Bot) sendProfiles(ctx context.Context, chatID int64, limit int) {
	b.typing(chatID)

	reports, err := b.client.Reports(ctx, limit)
	if err != nil {
		b.replyError(chatID, "profile", err)
		return
	}
	if len(reports) == 0 {
		b.reply(chatID, "📊 No upcoming fixtures to analyse today.", false)
		return
	}
	for _, r := range reports {
		b.reply(chatID, format.Profile(r.Entry, b.cfg.Location), true)
	}
}

func (b *Bot) sendRecommendations(ctx context.Context, chatID int64) {
	b.typing(chatID)

	reports, err := b.client.Reports(ctx, 0)
	if err != nil {
		b.replyError(chatID, "recommend", err)
		return
	}
	entries := make([]format.Entry, 0, len(reports))
	for _, r := range reports {
		entries = append(entries, r.Entry)
	}
	for _, text := range format.Recommendations(b.now().In(b.cfg.Location), entries) {
		b.reply(chatID, text, true)
	}
}

func (b *Bot) askTipsDay(chatID int64) {
	msg := tgbotapi.NewMessage(chatID, "Pick a prediction date:")
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📅 Today", tipsCallbackPrefix+"today"),
			tgbotapi.NewInlineKeyboardButtonData("📅 Tomorrow", tipsCallbackPrefix+"tomorrow"),
		),
	)
	if _, err := b.api.Send(msg); err != nil {
		slog.Error("Telegram send failed", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(q.ID, "")); err != nil {
		slog.Warn("Failed to answer callback", "error", err)
	}
	if q.Message == nil || q.From == nil || !b.isAllowed(q.From.ID) {
		return
	}
	day, ok := strings.CutPrefix(q.Data, tipsCallbackPrefix)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	b.sendTips(ctx, q.Message.Chat.ID, day)
}

func (b *Bot) sendTips(ctx context.Context, chatID int64, day string) {
	if day != "today" && day != "tomorrow" {
		b.reply(chatID, "Usage: /tips today or /tips tomorrow", false)
		return
	}
	b.typing(chatID)
	b.reply(chatID, "⏳ Fetching predictions, this can take a minute...", false)

	label, tips, err := b.client.Tips(ctx, day)
	if err != nil {
		b.replyError(chatID, "tips", err)
		return
	}
	for _, text := range format.Tips(label, tips) {
		b.reply(chatID, text, true)
	}
}

func (b *Bot) typing(chatID int64) {
	if _, err := b.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		slog.Debug("Failed to send chat action", "error", err)
	}
}

func (b *Bot) replyError(chatID int64, command string, err error) {
	slog.Error("Command failed", "command", command, "chat_id", chatID, "error", err)
	log.Printf("bot: /%s failed: %v", command, err)
	b.reply(chatID, fmt.Sprintf("⚠️ Error: %s. Try again later.", err), false)
}

func (b *Bot) reply(chatID int64, text string, markdown bool) {
	msg := tgbotapi.NewMessage(chatID, text)
	if markdown {
		msg.ParseMode = tgbotapi.ModeMarkdown
	}
	if _, err := b.api.Send(msg); err != nil {
		slog.Error("Telegram send failed", "chat_id", chatID, "error", err)
	}
}
