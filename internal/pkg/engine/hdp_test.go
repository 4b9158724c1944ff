package engine

import (
	"testing"

	"github.com/Vodeneev/parlaybot/internal/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseHdpFromProb(t *testing.T) {
	e := Default()
	tests := []struct {
		p    float64
		want float64
	}{
		{0.30, 0},
		{0.4399, 0},
		{0.44, 0.25},
		{0.50, 0.5},
		{0.55, 0.5},
		{0.56, 0.75},
		{0.64, 1.0},
		{0.68, 1.25},
		{0.95, 1.25},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, e.BaseHdpFromProb(tt.p), "p=%v", tt.p)
	}
}

func TestBaseHdpFromProb_Monotonic(t *testing.T) {
	e := Default()
	prev := e.BaseHdpFromProb(0)
	for i := 1; i <= 1000; i++ {
		cur := e.BaseHdpFromProb(float64(i) / 1000)
		require.GreaterOrEqual(t, cur, prev, "p=%v", float64(i)/1000)
		prev = cur
	}
}

func TestFormatLine(t *testing.T) {
	tests := []struct {
		line float64
		want string
	}{
		{0, LineDNB},
		{-0.25, "-0.25"},
		{-0.5, "-0.5"},
		{0.75, "+0.75"},
		{-1, "-1.0"},
		{1.25, "+1.25"},
		{1.5, "+1.5"},
	}
	for _, tt := range tests {
		got := FormatLine(tt.line)
		assert.Equal(t, tt.want, got)

		back, err := ParseLine(got)
		require.NoError(t, err)
		assert.Equal(t, tt.line, back)
	}

	_, err := ParseLine("minus one")
	assert.Error(t, err)
}

func TestCoverProb(t *testing.T) {
	e := Default()
	tests := []struct {
		name      string
		line      string
		egd       float64
		win, draw float64
		want      float64
	}{
		{"dnb refunds the draw", LineDNB, 0.2, 0.4, 0.3, 0.55},
		{"favourite quarter line", "-0.25", 0.5, 0.5, 0.3, 0.65},
		{"favourite half line", "-0.5", 0.5, 0.5, 0.3, 0.5},
		{"favourite short of the margin", "-1.0", 0.5, 0.6, 0.2, 0.45},
		{"favourite clears the margin", "-1.0", 2.0, 0.6, 0.2, 0.6},
		{"favourite gap is capped", "-1.25", -3, 0.6, 0.2, 0.15},
		{"underdog quarter line", "+0.25", -0.3, 0.2, 0.3, 0.35},
		{"underdog half line", "+0.5", -0.3, 0.2, 0.3, 0.5},
		{"underdog bonus", "+0.75", -0.5, 0.2, 0.3, 0.55},
		{"underdog outclassed", "+0.75", -2.0, 0.2, 0.3, 0.5},
		{"clamped to one", "+1.25", 1, 0.7, 0.3, 1},
		{"unparsable line", "??", 0, 0.5, 0.3, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, e.CoverProb(tt.line, tt.egd, tt.win, tt.draw), 1e-9)
		})
	}
}

func TestCoverProb_Bounded(t *testing.T) {
	e := Default()
	lines := []string{LineDNB, "-0.25", "-0.5", "-0.75", "-1.0", "-1.25", "+0.25", "+0.5", "+0.75", "+1.0", "+1.5"}
	values := []float64{-1, 0, 0.1, 0.33, 0.5, 0.9, 1, 1.5}
	egds := []float64{-10, -2.4, -0.5, 0, 0.5, 2.4, 10}

	for _, line := range lines {
		for _, egd := range egds {
			for _, win := range values {
				for _, draw := range values {
					p := e.CoverProb(line, egd, win, draw)
					require.GreaterOrEqual(t, p, 0.0)
					require.LessOrEqual(t, p, 1.0)
				}
			}
		}
	}
}

func TestWithCover_BestSide(t *testing.T) {
	e := Default()

	est := e.withCover(Estimate{
		HomeProb: 0.55, DrawProb: 0.25, AwayProb: 0.20,
		HomeXG: 1.8, AwayXG: 1.0,
		HdpHome: "-0.5", HdpAway: "+0.75",
	})
	assert.InDelta(t, 0.55, est.HomeCover, 1e-9)
	assert.InDelta(t, 0.45, est.AwayCover, 1e-9)
	assert.Equal(t, models.Home, est.BestSide)
	assert.Equal(t, "-0.5", est.BestHdp)

	tie := e.withCover(Estimate{HomeProb: 0.3, DrawProb: 0.4, AwayProb: 0.3, HdpHome: LineDNB, HdpAway: LineDNB})
	assert.Equal(t, models.Home, tie.BestSide)
}

func TestEstimate_Suggestion(t *testing.T) {
	s := Estimate{
		Model:    ModelFallback,
		Degraded: ErrMissingComparison,
		HomeProb: 0.55555, DrawProb: 0.22222, AwayProb: 0.22223,
		HomeXG: 1.456, AwayXG: 0.999,
		HdpHome: "-0.5", HdpAway: "+0.75",
		BestSide: models.Home, BestHdp: "-0.5", CoverProb: 0.55555,
	}.Suggestion()

	assert.Equal(t, 0.556, s.HomeProb)
	assert.Equal(t, 0.222, s.DrawProb)
	assert.Equal(t, 1.46, s.HomeXG)
	assert.Equal(t, 1.0, s.AwayXG)
	assert.Equal(t, 0.556, s.CoverProb)
	assert.Equal(t, ErrMissingComparison.Error(), s.DegradedReason)
	assert.True(t, s.Degraded())
}
