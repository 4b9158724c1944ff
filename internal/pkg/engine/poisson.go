package engine

import (
	"errors"
	"fmt"
	"math"

	"github.com/Vodeneev/parlaybot/internal/pkg/models"
)

// Model tags which estimator produced a handicap suggestion.
type Model string

const (
	ModelPrimary  Model = "primary"
	ModelFallback Model = "fallback"
)

// Poisson model failures. Any of them sends the fixture to the fallback engine.
var (
	ErrMissingComparison      = errors.New("comparison block is missing")
	ErrEmptyComparison        = errors.New("comparison block has no goals/att/def shares")
	ErrMalformedComparison    = errors.New("comparison share is malformed")
	ErrMissingGoalData        = errors.New("no usable goal average")
	ErrDegenerateDistribution = errors.New("outcome distribution is degenerate")
)

// Poisson returns P(X = k) for a Poisson distribution with rate lambda.
func Poisson(lambda float64, k int) float64 {
	if k < 0 || lambda < 0 {
		return 0
	}
	lg, _ := math.Lgamma(float64(k + 1))
	if lambda == 0 {
		if k == 0 {
			return 1
		}
		return 0
	}
	return math.Exp(-lambda + float64(k)*math.Log(lambda) - lg)
}

// ScoreMatrix returns P(home scores h, away scores a) for h, a in [0, maxGoals].
func ScoreMatrix(homeXG, awayXG float64, maxGoals int) [][]float64 {
	homeProbs := make([]float64, maxGoals+1)
	awayProbs := make([]float64, maxGoals+1)
	for k := 0; k <= maxGoals; k++ {
		homeProbs[k] = Poisson(homeXG, k)
		awayProbs[k] = Poisson(awayXG, k)
	}

	matrix := make([][]float64, maxGoals+1)
	for h := range matrix {
		matrix[h] = make([]float64, maxGoals+1)
		for a := range matrix[h] {
			matrix[h][a] = homeProbs[h] * awayProbs[a]
		}
	}
	return matrix
}

// OutcomeProbabilities folds the truncated score matrix into home/draw/away mass.
// The three values are not renormalised.
func OutcomeProbabilities(homeXG, awayXG float64, maxGoals int) (home, draw, away float64) {
	for h, row := range ScoreMatrix(homeXG, awayXG, maxGoals) {
		for a, p := range row {
			switch {
			case h > a:
				home += p
			case h == a:
				draw += p
			default:
				away += p
			}
		}
	}
	return home, draw, away
}

// ExpectedGoals returns a side's scoring rate: the league average at the side's venue,
// else the last-5 average, clamped to [MinXG, MaxXG].
func (e *Engine) ExpectedGoals(team models.Team, side models.Side) (float64, error) {
	xg, present, err := parseLeaf(team.League.Goals.For.Average.Get(side))
	if err != nil || !present {
		xg, present, err = parseLeaf(team.Last5.Goals.For.Average)
		if err != nil || !present {
			return 0, fmt.Errorf("%s: %w", side, ErrMissingGoalData)
		}
	}
	return Clamp(xg, e.cfg.Poisson.MinXG, e.cfg.Poisson.MaxXG), nil
}

// expectedGoalsLenient never fails; absent data clamps to MinXG.
func (e *Engine) expectedGoalsLenient(team models.Team, side models.Side) float64 {
	if xg, err := e.ExpectedGoals(team, side); err == nil {
		return xg
	}
	return Clamp(Pct(team.Last5.Goals.For.Average), e.cfg.Poisson.MinXG, e.cfg.Poisson.MaxXG)
}

// comparisonDim is one comparison dimension with its adjustment weight.
type comparisonDim struct {
	name   string
	shares models.SidePair
	weight float64
}

// adjustedProb scales base by how far own's share of own+opp sits from parity.
// The adjustment is invalid when there is nothing to compare or the result is not positive.
func adjustedProb(base, own, opp, weight float64) (float64, bool) {
	total := own + opp
	if total <= 0 {
		return 0, false
	}
	adj := base * (1 + (own/total-0.5)*weight)
	return adj, adj > 0
}

// adjustSide averages the valid comparison adjustments of base for side.
func adjustSide(base float64, side models.Side, dims []comparisonDim) (float64, error) {
	sum, n := 0.0, 0
	for _, d := range dims {
		own, _, err := parseLeaf(d.shares.Get(side))
		if err != nil {
			return 0, fmt.Errorf("%s.%s: %w", d.name, side, ErrMalformedComparison)
		}
		opp, _, err := parseLeaf(d.shares.Get(side.Opponent()))
		if err != nil {
			return 0, fmt.Errorf("%s.%s: %w", d.name, side.Opponent(), ErrMalformedComparison)
		}
		if adj, ok := adjustedProb(base, own, opp, d.weight); ok {
			sum += adj
			n++
		}
	}
	if n == 0 {
		return base, nil
	}
	return sum / float64(n), nil
}

// PoissonModel is the primary estimator. It returns an error instead of a partial result
// when any input it depends on is missing or malformed.
func (e *Engine) PoissonModel(p *models.PredictionPayload) (Estimate, error) {
	if p == nil || p.Comparison == nil {
		return Estimate{}, ErrMissingComparison
	}
	comp := p.Comparison
	cfg := e.cfg.Poisson
	dims := []comparisonDim{
		{"goals", comp.Goals, cfg.Comparison.Goals},
		{"att", comp.Att, cfg.Comparison.Attack},
		{"def", comp.Def, cfg.Comparison.Defense},
	}
	if comp.Goals.IsNull() && comp.Att.IsNull() && comp.Def.IsNull() {
		return Estimate{}, ErrEmptyComparison
	}

	homeXG, err := e.ExpectedGoals(p.Teams.Home, models.Home)
	if err != nil {
		return Estimate{}, err
	}
	awayXG, err := e.ExpectedGoals(p.Teams.Away, models.Away)
	if err != nil {
		return Estimate{}, err
	}

	pHome, _, pAway := OutcomeProbabilities(homeXG, awayXG, cfg.MaxGoals)

	homeAdj, err := adjustSide(pHome, models.Home, dims)
	if err != nil {
		return Estimate{}, err
	}
	awayAdj, err := adjustSide(pAway, models.Away, dims)
	if err != nil {
		return Estimate{}, err
	}

	drawCap := math.Max(cfg.DrawCapFloor, cfg.DrawCapBase-math.Abs(homeXG-awayXG)*cfg.DrawCapSlope)
	drawAdj := Clamp(1-homeAdj-awayAdj, 0, drawCap)

	home, draw, away, err := normalizeTriple(homeAdj, drawAdj, awayAdj)
	if err != nil {
		return Estimate{}, err
	}

	est := Estimate{
		Model:    ModelPrimary,
		HomeProb: home,
		DrawProb: draw,
		AwayProb: away,
		HomeXG:   homeXG,
		AwayXG:   awayXG,
	}
	est.HdpHome, est.HdpAway = e.primaryLines(home, draw, away)
	return e.withCover(est), nil
}

// normalizeTriple rescales three non-negative masses to sum to 1.
func normalizeTriple(home, draw, away float64) (float64, float64, float64, error) {
	home, draw, away = math.Max(home, 0), math.Max(draw, 0), math.Max(away, 0)
	total := home + draw + away
	if total <= 0 || math.IsNaN(total) || math.IsInf(total, 0) {
		return 0, 0, 0, ErrDegenerateDistribution
	}
	return home / total, draw / total, away / total, nil
}
