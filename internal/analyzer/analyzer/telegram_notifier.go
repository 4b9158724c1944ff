package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"
)

// Min interval between any two Telegram messages to the same chat to avoid 429 Too Many Requests (~30/min limit).
const telegramSendInterval = 2 * time.Second

const telegramQueueSize = 100

// messageSender is the part of tgbotapi.BotAPI the notifier needs.
type messageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier queues Markdown messages for one chat and sends them
// from a background goroutine, paced by telegramSendInterval.
type TelegramNotifier struct {
	bot     messageSender
	chatID  int64
	limiter *rate.Limiter

	queue     chan string
	queueDone chan struct{}
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
}

var _ Notifier = (*TelegramNotifier)(nil)

// NewTelegramNotifier connects to the Bot API and starts the sender.
func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	bot.Debug = false

	slog.Info("Telegram notifier initialized", "chat_id", chatID, "bot", bot.Self.UserName)
	return newTelegramNotifier(bot, chatID, telegramSendInterval), nil
}

func newTelegramNotifier(bot messageSender, chatID int64, interval time.Duration) *TelegramNotifier {
	ctx, cancel := context.WithCancel(context.Background())
	n := &TelegramNotifier{
		bot:       bot,
		chatID:    chatID,
		limiter:   rate.NewLimiter(rate.Every(interval), 1),
		queue:     make(chan string, telegramQueueSize),
		queueDone: make(chan struct{}),
		ctx:       ctx,
		cancel:    cancel,
	}

	n.wg.Add(1)
	go n.messageSender()
	return n
}

// Send queues a message (non-blocking).
func (n *TelegramNotifier) Send(ctx context.Context, text string) error {
	if n == nil || n.bot == nil {
		return fmt.Errorf("telegram notifier not initialized")
	}
	if n.ctx.Err() != nil {
		return fmt.Errorf("notifier stopped")
	}

	select {
	case <-n.ctx.Done():
		return fmt.Errorf("notifier stopped")
	case <-ctx.Done():
		return ctx.Err()
	case n.queue <- text:
		return nil
	default:
		slog.Warn("Telegram message queue is full, dropping message", "message_preview", truncateString(text, 50))
		return fmt.Errorf("message queue is full")
	}
}

// QueueLen returns current number of messages in the send queue (for logging).
func (n *TelegramNotifier) QueueLen() int {
	if n == nil {
		return 0
	}
	return len(n.queue)
}

func (n *TelegramNotifier) messageSender() {
	defer n.wg.Done()
	defer close(n.queueDone)

	for {
		select {
		case <-n.ctx.Done():
			// Drain remaining messages before exit
			for {
				select {
				case text := <-n.queue:
					n.send(context.Background(), text)
				default:
					return
				}
			}
		case text := <-n.queue:
			n.send(n.ctx, text)
		}
	}
}

func (n *TelegramNotifier) send(ctx context.Context, text string) {
	if err := n.limiter.Wait(ctx); err != nil {
		slog.Warn("Telegram send: cancelled during wait", "error", err)
		return
	}

	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown

	start := time.Now()
	if _, err := n.bot.Send(msg); err != nil {
		slog.Error("Telegram send: failed", "error", err, "message_preview", truncateString(text, 50))
		return
	}
	slog.Info("Telegram send: success",
		"send_duration", time.Since(start),
		"queue_length", len(n.queue),
		"message_preview", truncateString(text, 50))
}

// Stop stops the notifier and waits for all queued messages to be sent
func (n *TelegramNotifier) Stop() {
	if n == nil {
		return
	}
	slog.Info("Telegram notifier stopping", "queue_length", n.QueueLen())
	n.cancel()
	<-n.queueDone
	n.wg.Wait()
}

// truncateString truncates a string to maxLen bytes
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
