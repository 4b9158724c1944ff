package engine

import (
	"math"

	"github.com/Vodeneev/parlaybot/internal/pkg/models"
)

// Handicap confidence labels.
const (
	HdpSpeculative = "speculative"
	HdpAcceptable  = "acceptable"
	HdpStrong      = "strong"
	HdpVeryStrong  = "very-strong"
)

// HdpConfidence scores how safe the best handicap side is.
type HdpConfidence struct {
	Score     int         `json:"score"`
	BestSide  models.Side `json:"best_side"`
	CoverProb float64     `json:"cover_prob"`
	Label     string      `json:"label"`
}

// HandicapConfidence combines cover probability, goal-differential support and draw safety,
// minus a penalty growing with the line size.
func (e *Engine) HandicapConfidence(est Estimate) HdpConfidence {
	cfg := e.cfg.Confidence
	line, err := ParseLine(est.BestHdp)
	if err != nil {
		line = 0
	}
	egd := math.Abs(est.HomeXG - est.AwayXG)

	score := est.CoverProb*100*cfg.CoverWeight +
		math.Min(egd*cfg.GoalDiffScale, cfg.GoalDiffCap)*cfg.GoalDiffWeight +
		(1-est.DrawProb)*100*cfg.DrawSafetyWeight -
		math.Abs(line)*cfg.LinePenalty
	if math.IsNaN(score) {
		score = 0
	}
	s := int(math.Round(Clamp(score, 0, 100)))

	return HdpConfidence{
		Score:     s,
		BestSide:  est.BestSide,
		CoverProb: Round(est.CoverProb, 3),
		Label:     hdpLabel(s, cfg),
	}
}

func hdpLabel(score int, cfg ConfidenceConfig) string {
	switch {
	case score < cfg.AcceptableAt:
		return HdpSpeculative
	case score < cfg.StrongAt:
		return HdpAcceptable
	case score < cfg.VeryStrongAt:
		return HdpStrong
	default:
		return HdpVeryStrong
	}
}
