package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecideFromScores(t *testing.T) {
	e := Default()
	even := FactorScoreSet{}

	tests := []struct {
		name       string
		home, away float64
		pick       string
		side       string
		pct        int
		label      string
	}{
		{"narrow gap is a draw", 62.0, 58.5, DrawPick, PickDraw, 58, RiskHigh},
		{"home edge", 70, 60, "Home FC", "home", 72, RiskMedium},
		{"away edge", 40, 55, "Away FC", "away", 83, RiskLow},
		{"capped", 90, 20, "Home FC", "home", 85, RiskLow},
		{"exactly at gate", 55, 50, "Home FC", "home", 61, RiskHigh},
		{"gate applied to rounded scores", 62.006, 57.0104, "Home FC", "home", 61, RiskHigh},
		{"gate applied to rounded scores, away", 57.0104, 62.006, "Away FC", "away", 61, RiskHigh},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := e.decideFromScores(tt.home, tt.away, even, even, "Home FC", "Away FC")
			assert.Equal(t, tt.pick, d.Pick)
			assert.Equal(t, tt.side, d.PickSide)
			assert.Equal(t, tt.pct, d.ConfidencePercent)
			assert.Equal(t, tt.label, d.ConfidenceLabel)
		})
	}
}

func TestDecideFromScores_DifferenceMatchesPick(t *testing.T) {
	e := Default()
	for _, scores := range [][2]float64{{62.006, 57.0104}, {57.0104, 62.006}, {60.004, 55.0}, {60.0, 55.004}} {
		d := e.decideFromScores(scores[0], scores[1], FactorScoreSet{}, FactorScoreSet{}, "A", "B")
		assert.Equal(t, Round(math.Abs(d.HomeScore-d.AwayScore), 2), d.Difference)
		assert.Equal(t, d.Difference < e.cfg.Decision.DrawGate, d.Pick == DrawPick, "scores %v", scores)
	}
}

func TestDecideFromScores_DrawScenario(t *testing.T) {
	d := Default().decideFromScores(62.0, 58.5, FactorScoreSet{}, FactorScoreSet{}, "A", "B")

	assert.Equal(t, 3.5, d.Difference)
	assert.Equal(t, "high-risk (58%)", d.Confidence)
	assert.Equal(t, balancedNote, d.Note)
}

func TestInsight(t *testing.T) {
	e := Default()
	home := FactorScoreSet{Attack: 70, Defense: 65, Last5Form: 60, GoalsFor: 30}
	away := FactorScoreSet{Attack: 50, Defense: 50, Last5Form: 50, GoalsFor: 50}

	d := e.decideFromScores(70, 60, home, away, "Home FC", "Away FC")
	assert.Equal(t, "Home FC has the sharper attack (+20) & Home FC defends more solidly (+15)", d.Note)

	cfg := DefaultConfig()
	cfg.Decision.InsightMaxPhrases = 5
	d = New(cfg).decideFromScores(70, 60, home, away, "Home FC", "Away FC")
	assert.Contains(t, d.Note, "Home FC is in better recent form (+10)")
	assert.Contains(t, d.Note, "Away FC scores more freely (+20)")

	d = e.decideFromScores(70, 60, away, away, "Home FC", "Away FC")
	assert.Equal(t, slimMarginNote, d.Note)
}

func TestFinalScore_HomeCorrection(t *testing.T) {
	e := Default()
	f := FactorScoreSet{Percent: 50, Last5Form: 50, Attack: 50, Defense: 50, GoalsFor: 50, GoalsAgainst: 50, LeagueForm: 50, H2H: 50}

	home := e.FinalScore(f, "home")
	away := e.FinalScore(f, "away")
	assert.InDelta(t, 41.5-1.8, home, 1e-9)
	assert.InDelta(t, 41.5, away, 1e-9)
}
