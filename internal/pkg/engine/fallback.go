package engine

import (
	"math"

	"github.com/Vodeneev/parlaybot/internal/pkg/models"
)

// FallbackModel derives a coarse estimate from the aggregate comparison share alone.
// It never fails; reason is recorded as the degradation cause.
func (e *Engine) FallbackModel(p *models.PredictionPayload, reason error) Estimate {
	if p == nil {
		p = &models.PredictionPayload{}
	}
	var total models.SidePair
	if p.Comparison != nil {
		total = p.Comparison.Total
	}
	h, a := Pct(total.Home), Pct(total.Away)

	home, draw, away := 1.0/3, 1.0/3, 1.0/3
	if h+a > 0 {
		home, away = h/100, a/100
		n, d, w, err := normalizeTriple(home, math.Max(0, 1-home-away), away)
		if err == nil {
			home, draw, away = n, d, w
		}
	}

	line := 0.0
	if math.Abs(home-away) > e.cfg.Poisson.FallbackGap {
		line = 0.25
	}

	est := Estimate{
		Model:    ModelFallback,
		Degraded: reason,
		HomeProb: home,
		DrawProb: draw,
		AwayProb: away,
		HomeXG:   e.expectedGoalsLenient(p.Teams.Home, models.Home),
		AwayXG:   e.expectedGoalsLenient(p.Teams.Away, models.Away),
	}
	fav, dog := e.favoriteUnderdogLines(line)
	if home >= away {
		est.HdpHome, est.HdpAway = fav, dog
	} else {
		est.HdpHome, est.HdpAway = dog, fav
	}
	return e.withCover(est)
}
