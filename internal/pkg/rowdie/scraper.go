package rowdie

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/Vodeneev/parlaybot/internal/pkg/config"
	"github.com/Vodeneev/parlaybot/internal/pkg/models"
)

const (
	userAgent      = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/142.0.0.0 Safari/537.36"
	firstRowWait   = 15 * time.Second
	spinnerWait    = 15 * time.Second
	spinnerPollGap = 300 * time.Millisecond
)

// Scraper loads the predictions page in headless Chrome, presses "load more"
// until the requested day is fully listed and parses the result.
type Scraper struct {
	url         string
	timeout     time.Duration
	maxLoadMore int
	pageLoc     *time.Location
	now         func() time.Time
}

// NewScraper creates a scraper for a page that prints kickoffs in pageLoc.
// A nil pageLoc means the page uses the location of the requested day.
func NewScraper(cfg config.RowdieConfig, pageLoc *time.Location) *Scraper {
	return &Scraper{
		url:         cfg.URL,
		timeout:     cfg.Timeout,
		maxLoadMore: cfg.MaxLoadMore,
		pageLoc:     pageLoc,
		now:         time.Now,
	}
}

// Tips returns the upcoming matches listed for day. Kickoff and Time are
// reported in day's location.
func (s *Scraper) Tips(ctx context.Context, day time.Time) ([]models.Tip, error) {
	html, err := s.fetchHTML(ctx, DateLabel(day))
	if err != nil {
		return nil, err
	}
	tips, err := ParseTips(html, pageDay(day, s.pageLoc), s.now())
	if err != nil {
		return nil, err
	}
	return localize(tips, day.Location()), nil
}

// pageDay is the calendar date of day at midnight in the page's timezone.
func pageDay(day time.Time, pageLoc *time.Location) time.Time {
	if pageLoc == nil {
		return day
	}
	y, m, d := day.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, pageLoc)
}

func localize(tips []models.Tip, loc *time.Location) []models.Tip {
	for i := range tips {
		if tips[i].Kickoff.Location() == loc {
			continue
		}
		tips[i].Kickoff = tips[i].Kickoff.In(loc)
		tips[i].Time = tips[i].Kickoff.Format("15:04")
	}
	return tips
}

func (s *Scraper) fetchHTML(ctx context.Context, dateLabel string) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.UserAgent(userAgent),
	)

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, args ...any) {
		slog.Debug(fmt.Sprintf(format, args...), "component", "rowdie")
	}))
	defer cancel()

	if err := chromedp.Run(browserCtx, chromedp.Navigate(s.url)); err != nil {
		return "", fmt.Errorf("failed to open %s: %w", s.url, err)
	}

	waitCtx, cancelWait := context.WithTimeout(browserCtx, firstRowWait)
	err := chromedp.Run(waitCtx, chromedp.WaitReady(selDate, chromedp.ByQuery))
	cancelWait()
	if err != nil {
		return "", fmt.Errorf("predictions list did not load: %w", err)
	}

	s.loadAll(browserCtx, dateLabel)

	var html string
	if err := chromedp.Run(browserCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to read page: %w", err)
	}
	return html, nil
}

// loadAll clicks "load more" until the count of rows dated dateLabel stops growing,
// the button disappears or maxLoadMore clicks were made. Errors end the loop quietly;
// whatever is loaded by then is parsed.
func (s *Scraper) loadAll(ctx context.Context, dateLabel string) {
	countJS := fmt.Sprintf(`Array.from(document.querySelectorAll(%s)).filter(e => e.innerText.trim() === %s).length`,
		strconv.Quote(selDate), strconv.Quote(dateLabel))
	visibleJS := fmt.Sprintf(`(() => { const b = document.querySelector(%s); return !!b && b.offsetParent !== null; })()`,
		strconv.Quote(selLoadMore))
	clickJS := fmt.Sprintf(`(() => { document.querySelector(%s).click(); return true; })()`,
		strconv.Quote(selLoadMore))

	prev := -1
	for i := 0; i < s.maxLoadMore; i++ {
		var count int
		if err := chromedp.Run(ctx, chromedp.Evaluate(countJS, &count)); err != nil {
			slog.Warn("rowdie: failed to count rows", "error", err)
			return
		}
		if count == prev && count > 0 {
			return
		}
		prev = count

		var visible, clicked bool
		if err := chromedp.Run(ctx, chromedp.Evaluate(visibleJS, &visible)); err != nil || !visible {
			return
		}
		if err := chromedp.Run(ctx, chromedp.Evaluate(clickJS, &clicked)); err != nil {
			slog.Warn("rowdie: load more click failed", "error", err)
			return
		}
		if err := s.waitSpinner(ctx); err != nil {
			slog.Warn("rowdie: spinner did not settle", "error", err)
			return
		}
	}
}

func (s *Scraper) waitSpinner(ctx context.Context) error {
	hiddenJS := fmt.Sprintf(`(() => { const s = document.querySelector(%s); return !s || s.offsetParent === null; })()`,
		strconv.Quote(selSpinner))

	deadline := time.Now().Add(spinnerWait)
	for {
		var hidden bool
		if err := chromedp.Run(ctx, chromedp.Sleep(spinnerPollGap), chromedp.Evaluate(hiddenJS, &hidden)); err != nil {
			return err
		}
		if hidden {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("spinner still visible after %s", spinnerWait)
		}
	}
}
