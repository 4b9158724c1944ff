package engine

import (
	"fmt"
	"math"
	"strings"

	"github.com/Vodeneev/parlaybot/internal/pkg/models"
)

// DrawPick is the pick when neither side is clearly stronger.
const DrawPick = "DRAW / DOUBLE CHANCE"

// Risk labels of the win confidence.
const (
	RiskLow    = "low-risk"
	RiskMedium = "medium-risk"
	RiskHigh   = "high-risk"
)

// PickDraw is the PickSide of a draw / double chance pick.
const PickDraw = "draw"

// Decision is the pick derived from the two power indices.
type Decision struct {
	HomeScore         float64 `json:"home_score"`
	AwayScore         float64 `json:"away_score"`
	Difference        float64 `json:"difference"`
	Pick              string  `json:"pick"`
	PickSide          string  `json:"pick_side"`
	Confidence        string  `json:"confidence"`
	ConfidenceLabel   string  `json:"confidence_label"`
	ConfidencePercent int     `json:"confidence_percent"`
	Note              string  `json:"note"`
}

// insightPhrases attribute a factor advantage to a team; %s is the team, %d the gap.
var insightPhrases = []struct {
	factor string
	format string
}{
	{FactorAttack, "%s has the sharper attack (+%d)"},
	{FactorDefense, "%s defends more solidly (+%d)"},
	{FactorLast5Form, "%s is in better recent form (+%d)"},
	{FactorGoalsFor, "%s scores more freely (+%d)"},
	{FactorLeagueForm, "%s is steadier in the league (+%d)"},
}

const (
	balancedNote   = "Teams are evenly matched, outcome variance is high"
	slimMarginNote = "Edge comes from the aggregate, no single factor stands out"
)

// FinalScore is the power index of one side at full precision.
func (e *Engine) FinalScore(f FactorScoreSet, side models.Side) float64 {
	score := f.Weighted(e.cfg.Decision.Weights)
	if side == models.Home {
		score -= e.cfg.Decision.HomeCorrection
	}
	return score
}

// Decide derives the pick, confidence and insight note of a fixture.
func (e *Engine) Decide(p *models.PredictionPayload) Decision {
	if p == nil {
		p = &models.PredictionPayload{}
	}
	home := e.Factors(p, models.Home)
	away := e.Factors(p, models.Away)
	return e.decide(home, away, p.Teams.Home.Name, p.Teams.Away.Name)
}

func (e *Engine) decide(home, away FactorScoreSet, homeName, awayName string) Decision {
	return e.decideFromScores(e.FinalScore(home, models.Home), e.FinalScore(away, models.Away), home, away, homeName, awayName)
}

func (e *Engine) decideFromScores(homeScore, awayScore float64, home, away FactorScoreSet, homeName, awayName string) Decision {
	cfg := e.cfg.Decision
	// The gate sees the same two-decimal scores the record publishes.
	homeScore, awayScore = Round(homeScore, 2), Round(awayScore, 2)
	diff := Round(math.Abs(homeScore-awayScore), 2)

	d := Decision{
		HomeScore:  homeScore,
		AwayScore:  awayScore,
		Difference: diff,
	}

	switch {
	case diff < cfg.DrawGate:
		d.Pick, d.PickSide = DrawPick, PickDraw
	case homeScore > awayScore:
		d.Pick, d.PickSide = homeName, string(models.Home)
	default:
		d.Pick, d.PickSide = awayName, string(models.Away)
	}

	d.ConfidencePercent = int(math.Round(Clamp(cfg.ConfidenceBase+diff*cfg.ConfidenceSlope, cfg.ConfidenceMin, cfg.ConfidenceMax)))
	d.ConfidenceLabel = riskLabel(d.ConfidencePercent, cfg)
	d.Confidence = fmt.Sprintf("%s (%d%%)", d.ConfidenceLabel, d.ConfidencePercent)

	if diff < cfg.DrawGate {
		d.Note = balancedNote
	} else {
		d.Note = e.insight(home, away, homeName, awayName)
	}
	return d
}

func riskLabel(pct int, cfg DecisionConfig) string {
	switch {
	case pct >= cfg.LowRiskAt:
		return RiskLow
	case pct >= cfg.MediumRiskAt:
		return RiskMedium
	default:
		return RiskHigh
	}
}

// insight names up to InsightMaxPhrases factors where one side leads by at least InsightGate.
func (e *Engine) insight(home, away FactorScoreSet, homeName, awayName string) string {
	cfg := e.cfg.Decision
	var phrases []string
	for _, ip := range insightPhrases {
		if len(phrases) >= cfg.InsightMaxPhrases {
			break
		}
		gap := home.Get(ip.factor) - away.Get(ip.factor)
		if math.Abs(gap) < cfg.InsightGate {
			continue
		}
		leader := homeName
		if gap < 0 {
			leader = awayName
		}
		phrases = append(phrases, fmt.Sprintf(ip.format, leader, int(math.Round(math.Abs(gap)))))
	}
	if len(phrases) == 0 {
		return slimMarginNote
	}
	return strings.Join(phrases, " & ")
}
