package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Vodeneev/parlaybot/internal/pkg/apisports"
	"github.com/Vodeneev/parlaybot/internal/pkg/config"
	"github.com/Vodeneev/parlaybot/internal/pkg/engine"
	"github.com/Vodeneev/parlaybot/internal/pkg/format"
	"github.com/Vodeneev/parlaybot/internal/pkg/models"
	"github.com/Vodeneev/parlaybot/internal/pkg/storage"
)

const dayLayout = "2006-01-02"

// PredictionAPI is the upstream source of fixtures and prediction payloads.
type PredictionAPI interface {
	Fixtures(ctx context.Context, day string) ([]models.Fixture, error)
	Prediction(ctx context.Context, fixtureID int) (*models.PredictionPayload, error)
}

// TipSource returns the public tips listed for a day.
type TipSource interface {
	Tips(ctx context.Context, day time.Time) ([]models.Tip, error)
}

// Notifier delivers Markdown messages to the alert chat.
type Notifier interface {
	Send(ctx context.Context, text string) error
}

// Deps are the collaborators of an Analyzer. Everything except API is optional.
type Deps struct {
	API      PredictionAPI
	Cache    storage.Cache
	Reports  storage.ReportStorage
	Tips     TipSource
	Notifier Notifier
}

// Report is the evaluation of one upcoming fixture.
type Report struct {
	format.Entry
	EvaluatedAt time.Time `json:"evaluated_at"`
}

// Analyzer selects the day's fixtures, obtains their prediction payloads through the cache
// and runs them through the engine. It can also evaluate periodically and push alerts.
type Analyzer struct {
	api      PredictionAPI
	cache    storage.Cache
	reports  storage.ReportStorage
	tips     TipSource
	notifier Notifier

	engine  *engine.Engine
	cfg     config.AnalyzerConfig
	cacheFx config.CacheConfig
	loc     *time.Location
	allowed map[int]bool
	now     func() time.Time

	asyncTicker  *time.Ticker
	asyncMu      sync.RWMutex
	asyncStopped bool
	asyncBase    context.Context
	asyncCancel  context.CancelFunc
}

func New(cfg *config.Config, deps Deps) (*Analyzer, error) {
	if deps.API == nil {
		return nil, fmt.Errorf("prediction API client is required")
	}
	loc, err := cfg.API.Location()
	if err != nil {
		return nil, err
	}
	if err := cfg.Engine.Validate(); err != nil {
		return nil, err
	}

	allowed := make(map[int]bool, len(cfg.API.AllowedLeagues))
	for _, id := range cfg.API.AllowedLeagues {
		allowed[id] = true
	}

	return &Analyzer{
		api:      deps.API,
		cache:    deps.Cache,
		reports:  deps.Reports,
		tips:     deps.Tips,
		notifier: deps.Notifier,
		engine:   engine.New(cfg.Engine),
		cfg:      cfg.Analyzer,
		cacheFx:  cfg.Cache,
		loc:      loc,
		allowed:  allowed,
		now:      time.Now,
	}, nil
}

// Location is the timezone fixture days and kickoff times are shown in.
func (a *Analyzer) Location() *time.Location {
	return a.loc
}

func (a *Analyzer) Start(ctx context.Context) error {
	if a.cfg.AsyncEnabled {
		a.asyncMu.Lock()
		a.asyncBase = ctx
		a.asyncMu.Unlock()

		if err := a.StartAsync(); err != nil {
			return err
		}
	} else {
		log.Println("analyzer: async processing disabled, running in on-demand mode")
	}

	<-ctx.Done()

	a.StopAsync()
	return nil
}

// Today returns midnight of the current day in the analyzer timezone.
func (a *Analyzer) Today() time.Time {
	y, m, d := a.now().In(a.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, a.loc)
}

// Fixtures returns today's fixtures of the allowed leagues, sorted by kickoff.
// The list is cached per day.
func (a *Analyzer) Fixtures(ctx context.Context) ([]models.Fixture, error) {
	day := a.Today().Format(dayLayout)

	if a.cache != nil {
		fixtures, err := a.cache.GetFixtures(ctx, day)
		if err == nil {
			return fixtures, nil
		}
		if !errors.Is(err, storage.ErrCacheMiss) {
			slog.Warn("analyzer: fixture cache read failed", "day", day, "error", err)
		}
	}

	all, err := a.api.Fixtures(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch fixtures for %s: %w", day, err)
	}

	fixtures := make([]models.Fixture, 0, len(all))
	for _, f := range all {
		if len(a.allowed) > 0 && !a.allowed[f.LeagueID] {
			continue
		}
		fixtures = append(fixtures, f)
	}
	sort.SliceStable(fixtures, func(i, j int) bool {
		return fixtures[i].Kickoff.Before(fixtures[j].Kickoff)
	})

	if a.cache != nil {
		if err := a.cache.PutFixtures(ctx, day, fixtures, a.cacheFx.FixtureTTL); err != nil {
			slog.Warn("analyzer: fixture cache write failed", "day", day, "error", err)
		}
	}

	slog.Info("analyzer: fixtures loaded", "day", day, "total", len(all), "allowed", len(fixtures))
	return fixtures, nil
}

// prediction returns a fixture's payload, cached until kickoff minus the prediction lead.
func (a *Analyzer) prediction(ctx context.Context, f models.Fixture) (*models.PredictionPayload, error) {
	if a.cache != nil {
		p, err := a.cache.GetPrediction(ctx, f.ID)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, storage.ErrCacheMiss) {
			slog.Warn("analyzer: prediction cache read failed", "fixture_id", f.ID, "error", err)
		}
	}

	p, err := a.api.Prediction(ctx, f.ID)
	if err != nil {
		return nil, err
	}

	if a.cache != nil {
		expiresAt := f.Kickoff.Add(-a.cacheFx.PredictionLead)
		if err := a.cache.PutPrediction(ctx, f.ID, p, expiresAt); err != nil {
			slog.Warn("analyzer: prediction cache write failed", "fixture_id", f.ID, "error", err)
		}
	}
	return p, nil
}

// Evaluate scores a single payload.
func (a *Analyzer) Evaluate(p *models.PredictionPayload) engine.Evaluation {
	return a.engine.Evaluate(p)
}

// Reports evaluates up to limit fixtures of today that have not kicked off yet.
// limit <= 0 means all of them. Fixtures without a prediction are skipped.
func (a *Analyzer) Reports(ctx context.Context, limit int) ([]Report, error) {
	fixtures, err := a.Fixtures(ctx)
	if err != nil {
		return nil, err
	}

	now := a.now()
	reports := make([]Report, 0, len(fixtures))
	for _, f := range fixtures {
		if limit > 0 && len(reports) >= limit {
			break
		}
		if f.Started(now) {
			continue
		}
		if ctx.Err() != nil {
			return reports, ctx.Err()
		}

		p, err := a.prediction(ctx, f)
		if errors.Is(err, apisports.ErrNoPrediction) {
			slog.Debug("analyzer: no prediction", "fixture_id", f.ID, "match", f.Name())
			continue
		}
		if err != nil {
			slog.Error("analyzer: failed to fetch prediction", "fixture_id", f.ID, "match", f.Name(), "error", err)
			continue
		}

		reports = append(reports, a.evaluateFixture(ctx, f, p, now))
	}
	return reports, nil
}

func (a *Analyzer) evaluateFixture(ctx context.Context, f models.Fixture, p *models.PredictionPayload, now time.Time) Report {
	ev := a.engine.Evaluate(p)
	if ev.Hdp.Degraded() {
		slog.Warn("analyzer: handicap model degraded",
			"fixture_id", f.ID,
			"match", f.Name(),
			"model", ev.Hdp.Model,
			"reason", ev.Hdp.DegradedReason)
	}

	if a.reports != nil {
		if err := a.reports.StoreEvaluation(ctx, f, ev, now); err != nil {
			slog.Error("analyzer: failed to store evaluation", "fixture_id", f.ID, "error", err)
		}
	}

	return Report{
		Entry:       format.Entry{Fixture: f, Evaluation: ev},
		EvaluatedAt: now,
	}
}

// Tips returns the tips of day ("today" or "tomorrow") with a display label.
func (a *Analyzer) Tips(ctx context.Context, which string) (string, []models.Tip, error) {
	if a.tips == nil {
		return "", nil, errTipsDisabled
	}

	day := a.Today()
	label := "Today"
	switch which {
	case "", "today":
	case "tomorrow":
		day = day.AddDate(0, 0, 1)
		label = "Tomorrow"
	default:
		return "", nil, fmt.Errorf("%w: %q", errBadDay, which)
	}

	tips, err := a.tips.Tips(ctx, day)
	if err != nil {
		return "", nil, fmt.Errorf("failed to scrape tips: %w", err)
	}
	if day.Equal(a.Today()) {
		a.linkTips(ctx, tips)
	}
	return fmt.Sprintf("%s (%s)", label, day.Format("02 January 2006")), tips, nil
}

// linkTips sets FixtureID on tips whose pairing is among today's fixtures.
func (a *Analyzer) linkTips(ctx context.Context, tips []models.Tip) {
	if len(tips) == 0 {
		return
	}
	fixtures, err := a.Fixtures(ctx)
	if err != nil {
		slog.Warn("analyzer: tips not linked to fixtures", "error", err)
		return
	}

	byKey := make(map[string]int, len(fixtures))
	for _, f := range fixtures {
		byKey[models.MatchKey(f.Home, f.Away)] = f.ID
	}
	linked := 0
	for i := range tips {
		if id, ok := byKey[models.MatchKey(tips[i].Home, tips[i].Away)]; ok {
			tips[i].FixtureID = id
			linked++
		}
	}
	slog.Debug("analyzer: tips linked", "tips", len(tips), "linked", linked)
}

// RegisterUser stores a bot user; it returns true for a first contact.
func (a *Analyzer) RegisterUser(ctx context.Context, user storage.BotUser) (bool, error) {
	if a.reports == nil {
		return false, errNoStorage
	}
	if user.FirstSeen.IsZero() {
		user.FirstSeen = a.now()
	}
	return a.reports.RegisterUser(ctx, user)
}

var (
	errTipsDisabled = errors.New("tips source is not configured")
	errNoStorage    = errors.New("report storage is not configured")
	errBadDay       = errors.New("day must be today or tomorrow")
)
