package engine

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Vodeneev/parlaybot/internal/pkg/models"
)

// LineDNB is the draw-no-bet line.
const LineDNB = "0 (DNB)"

// Estimate is a handicap estimate at full precision.
type Estimate struct {
	Model Model
	// Degraded holds the primary model failure when Model is ModelFallback.
	Degraded error

	HomeProb float64
	DrawProb float64
	AwayProb float64
	HomeXG   float64
	AwayXG   float64

	HdpHome string
	HdpAway string

	HomeCover float64
	AwayCover float64
	BestSide  models.Side
	BestHdp   string
	CoverProb float64
}

// HdpSuggestion is the external handicap record. Probabilities are rounded to 3 decimals,
// expected goals to 2.
type HdpSuggestion struct {
	Model          Model       `json:"model"`
	DegradedReason string      `json:"degraded_reason,omitempty"`
	HomeProb       float64     `json:"home_prob"`
	DrawProb       float64     `json:"draw_prob"`
	AwayProb       float64     `json:"away_prob"`
	HdpHome        string      `json:"hdp_home"`
	HdpAway        string      `json:"hdp_away"`
	HomeXG         float64     `json:"home_xg"`
	AwayXG         float64     `json:"away_xg"`
	BestHdpSide    models.Side `json:"best_hdp_side"`
	BestHdp        string      `json:"best_hdp"`
	CoverProb      float64     `json:"cover_prob"`
}

// Degraded reports whether the suggestion came from the fallback engine.
func (s HdpSuggestion) Degraded() bool {
	return s.Model == ModelFallback
}

// Suggestion rounds the estimate into its external record.
func (est Estimate) Suggestion() HdpSuggestion {
	s := HdpSuggestion{
		Model:       est.Model,
		HomeProb:    Round(est.HomeProb, 3),
		DrawProb:    Round(est.DrawProb, 3),
		AwayProb:    Round(est.AwayProb, 3),
		HdpHome:     est.HdpHome,
		HdpAway:     est.HdpAway,
		HomeXG:      Round(est.HomeXG, 2),
		AwayXG:      Round(est.AwayXG, 2),
		BestHdpSide: est.BestSide,
		BestHdp:     est.BestHdp,
		CoverProb:   Round(est.CoverProb, 3),
	}
	if est.Degraded != nil {
		s.DegradedReason = est.Degraded.Error()
	}
	return s
}

// BaseHdpFromProb maps the favourite's win probability onto a handicap line size.
// It is non-decreasing in p.
func (e *Engine) BaseHdpFromProb(p float64) float64 {
	for _, step := range e.cfg.Poisson.LineSteps {
		if p < step.Below {
			return step.Line
		}
	}
	return e.cfg.Poisson.TopLine
}

// FormatLine renders a signed line: "-0.5", "+0.75", "-1.0". A zero line is draw-no-bet.
func FormatLine(line float64) string {
	if line == 0 {
		return LineDNB
	}
	sign := "+"
	if line < 0 {
		sign = "-"
	}
	abs := math.Abs(line)
	if abs == math.Trunc(abs) {
		return sign + strconv.FormatFloat(abs, 'f', 1, 64)
	}
	return sign + strconv.FormatFloat(abs, 'f', -1, 64)
}

// ParseLine reads a line produced by FormatLine.
func ParseLine(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == LineDNB || strings.HasSuffix(s, "(DNB)") {
		return 0, nil
	}
	v, err := strconv.ParseFloat(strings.TrimPrefix(s, "+"), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid handicap line %q: %w", s, err)
	}
	return v, nil
}

// favoriteUnderdogLines gives the favourite "-L" (draw-no-bet when L is 0) and the
// underdog "+(L+UnderdogStep)".
func (e *Engine) favoriteUnderdogLines(line float64) (favorite, underdog string) {
	return FormatLine(-line), FormatLine(line + e.cfg.Poisson.UnderdogStep)
}

// primaryLines picks both sides' lines from the normalised probabilities.
func (e *Engine) primaryLines(home, draw, away float64) (hdpHome, hdpAway string) {
	cfg := e.cfg.Poisson
	if math.Abs(home-away) < cfg.AmbiguityGap && draw > cfg.AmbiguityDraw {
		return LineDNB, LineDNB
	}
	if home >= away {
		return e.favoriteUnderdogLines(e.BaseHdpFromProb(home))
	}
	fav, dog := e.favoriteUnderdogLines(e.BaseHdpFromProb(away))
	return dog, fav
}

// CoverProb estimates the probability that a side covers line. egd is the side's own
// expected-goal differential (own xG minus opponent xG); win and draw are the side's
// win and draw probabilities. The result is in [0, 1].
func (e *Engine) CoverProb(line string, egd, win, draw float64) float64 {
	cfg := e.cfg.Cover
	value, err := ParseLine(line)
	if err != nil || math.IsNaN(egd) || math.IsNaN(win) || math.IsNaN(draw) {
		return 0
	}
	margin := math.Abs(value)

	var p float64
	switch {
	case margin == 0:
		// draw-no-bet: a draw refunds the stake
		p = win + cfg.QuarterDrawShare*draw
	case value < 0:
		switch {
		case margin <= 0.25:
			p = win + cfg.QuarterDrawShare*draw
		case margin <= 0.5:
			p = win
		default:
			p = win
			gap := Clamp(egd-margin, -cfg.MarginGapLimit, cfg.MarginGapLimit)
			if gap < 0 {
				p -= math.Abs(gap) * cfg.FavoritePenalty
			}
		}
	default:
		switch {
		case margin <= 0.25:
			p = win + cfg.QuarterDrawShare*draw
		case margin <= 0.5:
			p = win + draw
		default:
			p = win + draw
			// own differential is negative for an underdog; the line absorbs up to margin goals
			gap := Clamp(egd+margin, -cfg.MarginGapLimit, cfg.MarginGapLimit)
			p += math.Max(0, gap) * cfg.UnderdogBonus
		}
	}
	return Clamp(p, 0, 1)
}

// withCover fills both sides' cover probabilities and the best side.
func (e *Engine) withCover(est Estimate) Estimate {
	egd := est.HomeXG - est.AwayXG
	est.HomeCover = e.CoverProb(est.HdpHome, egd, est.HomeProb, est.DrawProb)
	est.AwayCover = e.CoverProb(est.HdpAway, -egd, est.AwayProb, est.DrawProb)

	if est.AwayCover > est.HomeCover {
		est.BestSide, est.BestHdp, est.CoverProb = models.Away, est.HdpAway, est.AwayCover
	} else {
		est.BestSide, est.BestHdp, est.CoverProb = models.Home, est.HdpHome, est.HomeCover
	}
	return est
}
