package engine

import (
	"fmt"
	"math"
)

// Weights is the per-factor weight vector of the power index.
// The default vector sums to 0.83; the remainder is not redistributed.
type Weights struct {
	Percent      float64 `yaml:"percent" json:"percent"`
	Last5Form    float64 `yaml:"last5_form" json:"last5_form"`
	Attack       float64 `yaml:"attack" json:"attack"`
	Defense      float64 `yaml:"defense" json:"defense"`
	GoalsFor     float64 `yaml:"goals_for" json:"goals_for"`
	GoalsAgainst float64 `yaml:"goals_against" json:"goals_against"`
	LeagueForm   float64 `yaml:"league_form" json:"league_form"`
	H2H          float64 `yaml:"h2h" json:"h2h"`
}

// Sum returns the total weight.
func (w Weights) Sum() float64 {
	return w.Percent + w.Last5Form + w.Attack + w.Defense + w.GoalsFor + w.GoalsAgainst + w.LeagueForm + w.H2H
}

// DecisionConfig tunes the aggregator and the pick/confidence derivation.
type DecisionConfig struct {
	Weights Weights `yaml:"weights"`
	// HomeCorrection is subtracted from the home power index. Empirically tuned.
	HomeCorrection float64 `yaml:"home_correction"`
	// GoalScale maps an average of goals per match onto the 0-100 factor scale (2.5 goals = 50).
	GoalScale float64 `yaml:"goal_scale"`
	// DrawGate: a power index difference below it picks draw / double chance.
	DrawGate float64 `yaml:"draw_gate"`

	ConfidenceBase  float64 `yaml:"confidence_base"`
	ConfidenceSlope float64 `yaml:"confidence_slope"`
	ConfidenceMin   float64 `yaml:"confidence_min"`
	ConfidenceMax   float64 `yaml:"confidence_max"`
	LowRiskAt       int     `yaml:"low_risk_at"`
	MediumRiskAt    int     `yaml:"medium_risk_at"`

	// InsightGate is the minimum factor gap that earns an insight phrase.
	InsightGate       float64 `yaml:"insight_gate"`
	InsightMaxPhrases int     `yaml:"insight_max_phrases"`
}

// ComparisonWeights scale the comparison-ratio adjustment per dimension.
type ComparisonWeights struct {
	Goals   float64 `yaml:"goals"`
	Attack  float64 `yaml:"attack"`
	Defense float64 `yaml:"defense"`
}

// LineStep maps a favourite probability strictly below Below onto Line.
type LineStep struct {
	Below float64 `yaml:"below"`
	Line  float64 `yaml:"line"`
}

// PoissonConfig tunes the goal-distribution model and the line selection.
type PoissonConfig struct {
	MaxGoals   int               `yaml:"max_goals"`
	MinXG      float64           `yaml:"min_xg"`
	MaxXG      float64           `yaml:"max_xg"`
	Comparison ComparisonWeights `yaml:"comparison"`

	// Draw probability cap: max(DrawCapFloor, DrawCapBase - |xg gap| * DrawCapSlope).
	DrawCapFloor float64 `yaml:"draw_cap_floor"`
	DrawCapBase  float64 `yaml:"draw_cap_base"`
	DrawCapSlope float64 `yaml:"draw_cap_slope"`

	LineSteps []LineStep `yaml:"line_steps"`
	TopLine   float64    `yaml:"top_line"`
	// UnderdogStep is added to the favourite line to get the underdog line.
	UnderdogStep float64 `yaml:"underdog_step"`

	// Both sides get draw-no-bet when the win gap is below AmbiguityGap and the draw is above AmbiguityDraw.
	AmbiguityGap  float64 `yaml:"ambiguity_gap"`
	AmbiguityDraw float64 `yaml:"ambiguity_draw"`

	// FallbackGap splits the fallback engine's two line tiers.
	FallbackGap float64 `yaml:"fallback_gap"`
}

// CoverConfig tunes the cover-probability estimator.
type CoverConfig struct {
	QuarterDrawShare float64 `yaml:"quarter_draw_share"`
	MarginGapLimit   float64 `yaml:"margin_gap_limit"`
	FavoritePenalty  float64 `yaml:"favorite_penalty"`
	UnderdogBonus    float64 `yaml:"underdog_bonus"`
}

// ConfidenceConfig tunes the handicap confidence score and its labels.
type ConfidenceConfig struct {
	CoverWeight      float64 `yaml:"cover_weight"`
	GoalDiffScale    float64 `yaml:"goal_diff_scale"`
	GoalDiffCap      float64 `yaml:"goal_diff_cap"`
	GoalDiffWeight   float64 `yaml:"goal_diff_weight"`
	DrawSafetyWeight float64 `yaml:"draw_safety_weight"`
	LinePenalty      float64 `yaml:"line_penalty"`

	AcceptableAt int `yaml:"acceptable_at"`
	StrongAt     int `yaml:"strong_at"`
	VeryStrongAt int `yaml:"very_strong_at"`
}

// SyncConfig holds the synchronizer thresholds.
type SyncConfig struct {
	WinnerHigh int `yaml:"winner_high"`
	WinnerLow  int `yaml:"winner_low"`
	HdpHigh    int `yaml:"hdp_high"`
	HdpLow     int `yaml:"hdp_low"`
}

// Config carries every weight and threshold of the engine.
type Config struct {
	Decision   DecisionConfig   `yaml:"decision"`
	Poisson    PoissonConfig    `yaml:"poisson"`
	Cover      CoverConfig      `yaml:"cover"`
	Confidence ConfidenceConfig `yaml:"confidence"`
	Sync       SyncConfig       `yaml:"sync"`
}

// DefaultConfig returns the tuned production values.
func DefaultConfig() Config {
	return Config{
		Decision: DecisionConfig{
			Weights: Weights{
				Percent:      0.09,
				Last5Form:    0.14,
				Attack:       0.12,
				Defense:      0.12,
				GoalsFor:     0.12,
				GoalsAgainst: 0.12,
				LeagueForm:   0.07,
				H2H:          0.05,
			},
			HomeCorrection:    1.8,
			GoalScale:         20,
			DrawGate:          5,
			ConfidenceBase:    50,
			ConfidenceSlope:   2.2,
			ConfidenceMin:     50,
			ConfidenceMax:     85,
			LowRiskAt:         80,
			MediumRiskAt:      65,
			InsightGate:       8,
			InsightMaxPhrases: 2,
		},
		Poisson: PoissonConfig{
			MaxGoals: 5,
			MinXG:    0.6,
			MaxXG:    3.0,
			Comparison: ComparisonWeights{
				Goals:   0.20,
				Attack:  0.15,
				Defense: 0.10,
			},
			DrawCapFloor: 0.25,
			DrawCapBase:  0.45,
			DrawCapSlope: 0.10,
			LineSteps: []LineStep{
				{Below: 0.44, Line: 0},
				{Below: 0.50, Line: 0.25},
				{Below: 0.56, Line: 0.5},
				{Below: 0.64, Line: 0.75},
				{Below: 0.68, Line: 1.0},
			},
			TopLine:       1.25,
			UnderdogStep:  0.25,
			AmbiguityGap:  0.06,
			AmbiguityDraw: 0.28,
			FallbackGap:   0.06,
		},
		Cover: CoverConfig{
			QuarterDrawShare: 0.5,
			MarginGapLimit:   1.5,
			FavoritePenalty:  0.30,
			UnderdogBonus:    0.20,
		},
		Confidence: ConfidenceConfig{
			CoverWeight:      0.6,
			GoalDiffScale:    20,
			GoalDiffCap:      20,
			GoalDiffWeight:   0.2,
			DrawSafetyWeight: 0.15,
			LinePenalty:      5,
			AcceptableAt:     60,
			StrongAt:         73,
			VeryStrongAt:     80,
		},
		Sync: SyncConfig{
			WinnerHigh: 80,
			WinnerLow:  70,
			HdpHigh:    75,
			HdpLow:     65,
		},
	}
}

// Validate rejects configurations the engine cannot evaluate with.
func (c Config) Validate() error {
	finite := map[string]float64{
		"decision.home_correction": c.Decision.HomeCorrection,
		"decision.goal_scale":      c.Decision.GoalScale,
		"decision.draw_gate":       c.Decision.DrawGate,
		"decision.confidence_base": c.Decision.ConfidenceBase,
		"decision.weights":         c.Decision.Weights.Sum(),
		"poisson.min_xg":           c.Poisson.MinXG,
		"poisson.max_xg":           c.Poisson.MaxXG,
		"poisson.top_line":         c.Poisson.TopLine,
	}
	for name, v := range finite {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("engine config: %s must be finite", name)
		}
	}

	if c.Decision.ConfidenceMin > c.Decision.ConfidenceMax {
		return fmt.Errorf("engine config: confidence_min %.2f > confidence_max %.2f", c.Decision.ConfidenceMin, c.Decision.ConfidenceMax)
	}
	if c.Decision.MediumRiskAt > c.Decision.LowRiskAt {
		return fmt.Errorf("engine config: medium_risk_at %d > low_risk_at %d", c.Decision.MediumRiskAt, c.Decision.LowRiskAt)
	}
	if c.Poisson.MaxGoals < 1 {
		return fmt.Errorf("engine config: max_goals must be at least 1, got %d", c.Poisson.MaxGoals)
	}
	if c.Poisson.MinXG <= 0 || c.Poisson.MinXG > c.Poisson.MaxXG {
		return fmt.Errorf("engine config: xg range [%.2f, %.2f] is invalid", c.Poisson.MinXG, c.Poisson.MaxXG)
	}
	for i := 1; i < len(c.Poisson.LineSteps); i++ {
		prev, cur := c.Poisson.LineSteps[i-1], c.Poisson.LineSteps[i]
		if cur.Below < prev.Below || cur.Line < prev.Line {
			return fmt.Errorf("engine config: line_steps must be ascending (step %d)", i)
		}
	}
	if n := len(c.Poisson.LineSteps); n > 0 && c.Poisson.TopLine < c.Poisson.LineSteps[n-1].Line {
		return fmt.Errorf("engine config: top_line %.2f below last step line", c.Poisson.TopLine)
	}
	if !(c.Confidence.AcceptableAt <= c.Confidence.StrongAt && c.Confidence.StrongAt <= c.Confidence.VeryStrongAt) {
		return fmt.Errorf("engine config: confidence labels must be ascending")
	}
	return nil
}
