package engine

import (
	"strings"

	"github.com/Vodeneev/parlaybot/internal/pkg/models"
)

// neutralScore is used wherever a factor has nothing to compare.
const neutralScore = 50.0

// Factor names, in aggregation order.
const (
	FactorPercent      = "percent"
	FactorLast5Form    = "last5_form"
	FactorAttack       = "attack"
	FactorDefense      = "defense"
	FactorGoalsFor     = "goals_for"
	FactorGoalsAgainst = "goals_against"
	FactorLeagueForm   = "league_form"
	FactorH2H          = "h2h"
)

// FactorNames lists every factor in aggregation order.
var FactorNames = []string{
	FactorPercent, FactorLast5Form, FactorAttack, FactorDefense,
	FactorGoalsFor, FactorGoalsAgainst, FactorLeagueForm, FactorH2H,
}

// FactorScoreSet holds one side's factor scores, each in [0, 100].
type FactorScoreSet struct {
	Percent      float64 `json:"percent"`
	Last5Form    float64 `json:"last5_form"`
	Attack       float64 `json:"attack"`
	Defense      float64 `json:"defense"`
	GoalsFor     float64 `json:"goals_for"`
	GoalsAgainst float64 `json:"goals_against"`
	LeagueForm   float64 `json:"league_form"`
	H2H          float64 `json:"h2h"`
}

// Get returns a factor by name; unknown names give 0.
func (s FactorScoreSet) Get(name string) float64 {
	switch name {
	case FactorPercent:
		return s.Percent
	case FactorLast5Form:
		return s.Last5Form
	case FactorAttack:
		return s.Attack
	case FactorDefense:
		return s.Defense
	case FactorGoalsFor:
		return s.GoalsFor
	case FactorGoalsAgainst:
		return s.GoalsAgainst
	case FactorLeagueForm:
		return s.LeagueForm
	case FactorH2H:
		return s.H2H
	default:
		return 0
	}
}

// Weighted returns the weighted sum of the factors, accumulated in FactorNames order.
func (s FactorScoreSet) Weighted(w Weights) float64 {
	total := 0.0
	total += s.Percent * w.Percent
	total += s.Last5Form * w.Last5Form
	total += s.Attack * w.Attack
	total += s.Defense * w.Defense
	total += s.GoalsFor * w.GoalsFor
	total += s.GoalsAgainst * w.GoalsAgainst
	total += s.LeagueForm * w.LeagueForm
	total += s.H2H * w.H2H
	return total
}

// Rounded returns a copy with every factor rounded to 2 decimals.
func (s FactorScoreSet) Rounded() FactorScoreSet {
	return FactorScoreSet{
		Percent:      Round(s.Percent, 2),
		Last5Form:    Round(s.Last5Form, 2),
		Attack:       Round(s.Attack, 2),
		Defense:      Round(s.Defense, 2),
		GoalsFor:     Round(s.GoalsFor, 2),
		GoalsAgainst: Round(s.GoalsAgainst, 2),
		LeagueForm:   Round(s.LeagueForm, 2),
		H2H:          Round(s.H2H, 2),
	}
}

// RelativeScore is a's share of a+b on the 0-100 scale, or neutral when both are zero.
func RelativeScore(a, b float64) float64 {
	if a+b > 0 {
		return 100 * a / (a + b)
	}
	return neutralScore
}

// LeagueFormScore averages a W/D/L form string (W=100, D=50, L=0).
// Other characters are ignored; a string without results is neutral.
func LeagueFormScore(form string) float64 {
	total, n := 0.0, 0
	for _, c := range strings.ToUpper(form) {
		switch c {
		case 'W':
			total += 100
		case 'D':
			total += 50
		case 'L':
		default:
			continue
		}
		n++
	}
	if n == 0 {
		return neutralScore
	}
	return total / float64(n)
}

// Factors builds the factor scores of one side. Missing or malformed fields fall back to
// their neutral or zero value.
func (e *Engine) Factors(p *models.PredictionPayload, side models.Side) FactorScoreSet {
	if p == nil {
		p = &models.PredictionPayload{}
	}
	team := p.Team(side)
	opp := p.Team(side.Opponent())
	scale := e.cfg.Decision.GoalScale

	return FactorScoreSet{
		Percent:      clamp100(Pct(p.Predictions.Percent.Get(side))),
		Last5Form:    clamp100(Pct(team.Last5.Form)),
		Attack:       clamp100(RelativeScore(Pct(team.Last5.Att), Pct(opp.Last5.Def))),
		Defense:      clamp100(RelativeScore(Pct(team.Last5.Def), Pct(opp.Last5.Att))),
		GoalsFor:     clamp100(Pct(team.Last5.Goals.For.Average) * scale),
		GoalsAgainst: clamp100(100 - Pct(team.Last5.Goals.Against.Average)*scale),
		LeagueForm:   LeagueFormScore(team.League.Form),
		H2H:          clamp100(Pct(p.H2H(side))),
	}
}
