package bot

import (
	"context"
	"errors"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vodeneev/parlaybot/internal/analyzer/analyzer"
	"github.com/Vodeneev/parlaybot/internal/pkg/format"
	"github.com/Vodeneev/parlaybot/internal/pkg/models"
	"github.com/Vodeneev/parlaybot/internal/pkg/storage"
)

type fakeSender struct {
	messages []tgbotapi.MessageConfig
	requests []tgbotapi.Chattable
}

func (s *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		s.messages = append(s.messages, m)
	}
	return tgbotapi.Message{}, nil
}

func (s *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	s.requests = append(s.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (s *fakeSender) textsTo(chatID int64) []string {
	var out []string
	for _, m := range s.messages {
		if m.ChatID == chatID {
			out = append(out, m.Text)
		}
	}
	return out
}

type fakeAnalyzer struct {
	reports  []analyzer.Report
	err      error
	limits   []int
	tipDays  []string
	users    []storage.BotUser
	created  bool
	tips     []models.Tip
	tipLabel string
}

func (f *fakeAnalyzer) Reports(_ context.Context, limit int) ([]analyzer.Report, error) {
	f.limits = append(f.limits, limit)
	if f.err != nil {
		return nil, f.err
	}
	if limit > 0 && limit < len(f.reports) {
		return f.reports[:limit], nil
	}
	return f.reports, nil
}

func (f *fakeAnalyzer) Tips(_ context.Context, day string) (string, []models.Tip, error) {
	f.tipDays = append(f.tipDays, day)
	if f.err != nil {
		return "", nil, f.err
	}
	return f.tipLabel, f.tips, nil
}

func (f *fakeAnalyzer) RegisterUser(_ context.Context, user storage.BotUser) (bool, error) {
	f.users = append(f.users, user)
	return f.created, f.err
}

func report(id int, home, away string) analyzer.Report {
	return analyzer.Report{Entry: format.Entry{Fixture: models.Fixture{
		ID:      id,
		Home:    home,
		Away:    away,
		Kickoff: time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC),
	}}}
}

func command(chatID, userID int64, username, text string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Text: text,
		Chat: &tgbotapi.Chat{ID: chatID},
		From: &tgbotapi.User{ID: userID, UserName: username},
	}}
}

func newTestBot(client *fakeAnalyzer, cfg Config) (*Bot, *fakeSender) {
	sender := &fakeSender{}
	b := New(sender, client, cfg)
	b.now = func() time.Time { return time.Date(2026, 10, 18, 1, 0, 0, 0, time.UTC) }
	return b, sender
}

func TestStart_NotifiesAdminsOfNewUser(t *testing.T) {
	tests := []struct {
		name        string
		created     bool
		err         error
		adminNotice bool
	}{
		{name: "new user", created: true, adminNotice: true},
		{name: "known user", created: false},
		{name: "storage down", err: errors.New("no storage")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeAnalyzer{created: tt.created, err: tt.err}
			b, sender := newTestBot(client, Config{AdminIDs: []int64{900, 901}})

			b.HandleUpdate(context.Background(), command(10, 10, "ayu", "/start"))

			require.Len(t, client.users, 1)
			assert.Equal(t, storage.BotUser{ChatID: 10, Username: "ayu"}, client.users[0])

			require.Len(t, sender.textsTo(10), 1)
			assert.Contains(t, sender.textsTo(10)[0], "Prediction bot is active")

			if tt.adminNotice {
				require.Len(t, sender.textsTo(900), 1)
				assert.Contains(t, sender.textsTo(900)[0], "@ayu")
				assert.Len(t, sender.textsTo(901), 1)
			} else {
				assert.Empty(t, sender.textsTo(900))
			}
		})
	}
}

func TestProfile(t *testing.T) {
	client := &fakeAnalyzer{reports: []analyzer.Report{
		report(1, "Arsenal", "Burnley"),
		report(2, "Lyon", "Nantes"),
		report(3, "Sevilla", "Betis"),
	}}
	b, sender := newTestBot(client, Config{})

	b.HandleUpdate(context.Background(), command(10, 10, "", "/profile 2"))
	assert.Equal(t, []int{2}, client.limits)
	texts := sender.textsTo(10)
	require.Len(t, texts, 2)
	assert.Contains(t, texts[0], "Arsenal vs Burnley")
	assert.Contains(t, texts[1], "Lyon vs Nantes")
	assert.Equal(t, tgbotapi.ModeMarkdown, sender.messages[0].ParseMode)
	require.Len(t, sender.requests, 1, "typing action")

	b.HandleUpdate(context.Background(), command(10, 10, "", "/prediksi 500"))
	assert.Equal(t, []int{2, defaultProfileLimit}, client.limits)
}

func TestProfile_Empty(t *testing.T) {
	b, sender := newTestBot(&fakeAnalyzer{}, Config{})
	b.HandleUpdate(context.Background(), command(10, 10, "", "/profile"))
	assert.Equal(t, []string{"📊 No upcoming fixtures to analyse today."}, sender.textsTo(10))
}

func TestRecommend(t *testing.T) {
	client := &fakeAnalyzer{reports: []analyzer.Report{report(1, "Arsenal", "Burnley")}}
	wita := time.FixedZone("WITA", 8*3600)
	b, sender := newTestBot(client, Config{Location: wita})

	b.HandleUpdate(context.Background(), command(10, 10, "", "/rekomendasi@ParlayBot"))
	assert.Equal(t, []int{0}, client.limits)
	texts := sender.textsTo(10)
	require.Len(t, texts, 1)
	assert.Contains(t, texts[0], "18 October 2026")
	assert.Contains(t, texts[0], "1. *Arsenal vs Burnley*")
}

func TestCommandError(t *testing.T) {
	client := &fakeAnalyzer{err: errors.New("analyzer: failed to evaluate fixtures")}
	b, sender := newTestBot(client, Config{})

	b.HandleUpdate(context.Background(), command(10, 10, "", "/recommend"))
	texts := sender.textsTo(10)
	require.Len(t, texts, 1)
	assert.Contains(t, texts[0], "failed to evaluate fixtures")
}

func TestTips(t *testing.T) {
	client := &fakeAnalyzer{
		tipLabel: "Tomorrow (19 October 2026)",
		tips:     []models.Tip{{League: "Premier League", Time: "15:00", Home: "Arsenal", Away: "Chelsea", Prediction: "Home Win"}},
	}
	b, sender := newTestBot(client, Config{})

	b.HandleUpdate(context.Background(), command(10, 10, "", "/tips Tomorrow"))
	assert.Equal(t, []string{"tomorrow"}, client.tipDays)
	texts := sender.textsTo(10)
	require.Len(t, texts, 2)
	assert.Contains(t, texts[1], "Arsenal vs Chelsea: Home Win")

	b.HandleUpdate(context.Background(), command(10, 10, "", "/tips someday"))
	assert.Len(t, client.tipDays, 1)
	assert.Contains(t, sender.textsTo(10)[2], "Usage")
}

func TestTips_Keyboard(t *testing.T) {
	client := &fakeAnalyzer{tipLabel: "Today (18 October 2026)"}
	b, sender := newTestBot(client, Config{})

	b.HandleUpdate(context.Background(), command(10, 10, "", "/tips"))
	require.Len(t, sender.messages, 1)
	markup, ok := sender.messages[0].ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, markup.InlineKeyboard, 1)
	require.Len(t, markup.InlineKeyboard[0], 2)
	assert.Equal(t, "tips:today", *markup.InlineKeyboard[0][0].CallbackData)

	b.HandleUpdate(context.Background(), tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb1",
		From:    &tgbotapi.User{ID: 10},
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 10}},
		Data:    "tips:today",
	}})
	assert.Equal(t, []string{"today"}, client.tipDays)
	texts := sender.textsTo(10)
	assert.Contains(t, texts[len(texts)-1], "No matches found")
}

func TestAccessControl(t *testing.T) {
	client := &fakeAnalyzer{}
	b, sender := newTestBot(client, Config{AllowedUserIDs: []int64{1}})

	b.HandleUpdate(context.Background(), command(20, 20, "", "/profile"))
	assert.Empty(t, client.limits)
	assert.Equal(t, []string{"Access denied. You are not authorized to use this bot."}, sender.textsTo(20))

	b.HandleUpdate(context.Background(), command(1, 1, "", "/help"))
	require.Len(t, sender.textsTo(1), 1)
	assert.Contains(t, sender.textsTo(1)[0], "/profile")
}

func TestUnknownAndPlainText(t *testing.T) {
	b, sender := newTestBot(&fakeAnalyzer{}, Config{})

	b.HandleUpdate(context.Background(), command(10, 10, "", "hello"))
	assert.Empty(t, sender.messages)

	b.HandleUpdate(context.Background(), command(10, 10, "", "/dance"))
	assert.Equal(t, []string{"Unknown command. Use /help to see available commands."}, sender.textsTo(10))
}

func TestRun_ReturnsWhenUpdatesClosed(t *testing.T) {
	b, sender := newTestBot(&fakeAnalyzer{}, Config{})
	updates := make(chan tgbotapi.Update, 1)
	updates <- command(10, 10, "", "/help")
	close(updates)

	done := make(chan struct{})
	go func() {
		b.Run(context.Background(), updates)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after the updates channel was closed")
	}
	require.Len(t, sender.textsTo(10), 1)
	assert.Contains(t, sender.textsTo(10)[0], "Available Commands")
}

func TestRun_StopsOnCancel(t *testing.T) {
	b, sender := newTestBot(&fakeAnalyzer{}, Config{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		b.Run(ctx, make(chan tgbotapi.Update))
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Empty(t, sender.messages)
}
