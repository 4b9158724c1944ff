package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v3"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"nan correction", func(c *Config) { c.Decision.HomeCorrection = math.NaN() }, true},
		{"inverted confidence range", func(c *Config) { c.Decision.ConfidenceMin = 90 }, true},
		{"inverted risk labels", func(c *Config) { c.Decision.MediumRiskAt = 90 }, true},
		{"no goals", func(c *Config) { c.Poisson.MaxGoals = 0 }, true},
		{"zero min xg", func(c *Config) { c.Poisson.MinXG = 0 }, true},
		{"descending steps", func(c *Config) { c.Poisson.LineSteps[1].Line = -1 }, true},
		{"top line below steps", func(c *Config) { c.Poisson.TopLine = 0.5 }, true},
		{"inverted hdp labels", func(c *Config) { c.Confidence.StrongAt = 90 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_YAMLOverride(t *testing.T) {
	cfg := DefaultConfig()
	doc := `
decision:
  home_correction: 0
  draw_gate: 4
sync:
  hdp_high: 70
`
	assert.NoError(t, yaml.Unmarshal([]byte(doc), &cfg))

	assert.Equal(t, 0.0, cfg.Decision.HomeCorrection)
	assert.Equal(t, 4.0, cfg.Decision.DrawGate)
	assert.Equal(t, 70, cfg.Sync.HdpHigh)
	assert.Equal(t, 0.09, cfg.Decision.Weights.Percent, "untouched keys keep defaults")
	assert.Len(t, cfg.Poisson.LineSteps, 5)
	assert.NoError(t, cfg.Validate())
}
