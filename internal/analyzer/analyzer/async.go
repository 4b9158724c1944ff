package analyzer

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"time"

	"github.com/Vodeneev/parlaybot/internal/pkg/engine"
	"github.com/Vodeneev/parlaybot/internal/pkg/format"
)

const (
	defaultAsyncInterval        = 30 * time.Minute
	defaultAlertCooldownMinutes = 180
)

// StartAsync starts or restarts the periodic evaluation.
func (a *Analyzer) StartAsync() error {
	a.asyncMu.Lock()
	defer a.asyncMu.Unlock()

	if !a.cfg.AsyncEnabled {
		return fmt.Errorf("async processing is not enabled in config")
	}

	// If already running, don't restart
	if a.asyncTicker != nil && !a.asyncStopped {
		log.Println("analyzer: async processing is already running")
		return nil
	}

	if a.asyncCancel != nil {
		a.asyncCancel()
	}
	parent := a.asyncBase
	if parent == nil {
		parent = context.Background()
	}
	var ctx context.Context
	ctx, a.asyncCancel = context.WithCancel(parent)

	interval := a.cfg.AsyncInterval
	if interval <= 0 {
		interval = defaultAsyncInterval
		log.Printf("analyzer: invalid async_interval, using default %v", interval)
	}

	a.asyncStopped = false
	if a.asyncTicker != nil {
		a.asyncTicker.Stop()
	}
	a.asyncTicker = time.NewTicker(interval)

	log.Printf("analyzer: starting async processing with interval %v", interval)
	go a.runAsyncProcessing(ctx, a.asyncTicker)

	return nil
}

func (a *Analyzer) runAsyncProcessing(ctx context.Context, ticker *time.Ticker) {
	// Run immediately on start
	a.processFixturesAsync(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Println("analyzer: stopping async processing")
			return
		case <-ticker.C:
			if !a.IsAsyncRunning() {
				log.Println("analyzer: async processing stopped by user")
				return
			}
			a.processFixturesAsync(ctx)
		}
	}
}

// processFixturesAsync evaluates the upcoming fixtures and alerts on ideal handicaps,
// at most once per fixture within the cooldown window.
func (a *Analyzer) processFixturesAsync(ctx context.Context) {
	if a.reports == nil {
		log.Printf("analyzer: async: report storage not configured, skipping")
		return
	}

	log.Println("analyzer: async: evaluating fixtures...")
	reports, err := a.Reports(ctx, 0)
	if err != nil {
		log.Printf("analyzer: async: failed to evaluate fixtures: %v", err)
		return
	}

	cooldownMinutes := a.cfg.AlertCooldownMinutes
	if cooldownMinutes <= 0 {
		cooldownMinutes = defaultAlertCooldownMinutes
	}
	cooldown := time.Duration(cooldownMinutes) * time.Minute

	alertCount := 0
	for _, r := range reports {
		if r.Evaluation.Sync.Tag != engine.SyncIdealHandicap || a.notifier == nil {
			continue
		}
		f := r.Fixture

		lastAlert, err := a.reports.GetLastAlert(ctx, f.ID)
		if err != nil {
			// Better a duplicate than a missed alert
			log.Printf("analyzer: async: failed to get last alert for %s: %v", f.Name(), err)
		} else if !lastAlert.IsZero() && a.now().Sub(lastAlert) < cooldown {
			slog.Debug("analyzer: async: alert cooldown active", "match", f.Name(), "last_alert", lastAlert)
			continue
		}

		if err := a.notifier.Send(ctx, format.Alert(r.Entry, a.loc)); err != nil {
			log.Printf("analyzer: async: failed to send alert for %s: %v", f.Name(), err)
			continue
		}
		if err := a.reports.MarkAlerted(ctx, f.ID, a.now()); err != nil {
			log.Printf("analyzer: async: failed to mark alert for %s: %v", f.Name(), err)
		}
		alertCount++
		log.Printf("analyzer: async: sent alert for %s (hdp %s %s, score %d)",
			f.Name(), r.Evaluation.Hdp.BestHdpSide, r.Evaluation.Hdp.BestHdp, r.Evaluation.HdpConfidence.Score)
	}

	log.Printf("analyzer: async: processing complete. Evaluated %d fixtures, sent %d alerts", len(reports), alertCount)
}

// StopAsync stops the periodic evaluation.
func (a *Analyzer) StopAsync() {
	a.asyncMu.Lock()
	defer a.asyncMu.Unlock()

	if !a.asyncStopped && a.asyncTicker != nil {
		a.asyncStopped = true
		a.asyncTicker.Stop()
		if a.asyncCancel != nil {
			a.asyncCancel()
		}
		log.Println("analyzer: async processing stopped")
	}
}

// IsAsyncRunning returns true if async processing is currently running
func (a *Analyzer) IsAsyncRunning() bool {
	a.asyncMu.RLock()
	defer a.asyncMu.RUnlock()
	return a.asyncTicker != nil && !a.asyncStopped
}
