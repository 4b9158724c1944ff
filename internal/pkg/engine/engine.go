package engine

import (
	"github.com/Vodeneev/parlaybot/internal/pkg/models"
)

// Engine evaluates prediction payloads with a fixed Config. It holds no other state.
type Engine struct {
	cfg Config
}

// New creates an engine. The config is copied.
func New(cfg Config) *Engine {
	steps := make([]LineStep, len(cfg.Poisson.LineSteps))
	copy(steps, cfg.Poisson.LineSteps)
	cfg.Poisson.LineSteps = steps
	return &Engine{cfg: cfg}
}

// Default creates an engine with DefaultConfig.
func Default() *Engine {
	return New(DefaultConfig())
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() Config {
	cfg := e.cfg
	cfg.Poisson.LineSteps = append([]LineStep(nil), e.cfg.Poisson.LineSteps...)
	return cfg
}

// Estimate runs the Poisson model and falls back to the comparison-only model when it fails.
func (e *Engine) Estimate(p *models.PredictionPayload) Estimate {
	est, err := e.PoissonModel(p)
	if err != nil {
		return e.FallbackModel(p, err)
	}
	return est
}

// Evaluation is every output record of one fixture.
type Evaluation struct {
	HomeFactors   FactorScoreSet `json:"home_factors"`
	AwayFactors   FactorScoreSet `json:"away_factors"`
	Decision      Decision       `json:"decision"`
	Hdp           HdpSuggestion  `json:"hdp"`
	HdpConfidence HdpConfidence  `json:"hdp_confidence"`
	Sync          SyncResult     `json:"sync"`
}

// Evaluate scores a payload end to end. It always returns a result; a Poisson failure
// shows up as Hdp.Model == ModelFallback.
func (e *Engine) Evaluate(p *models.PredictionPayload) Evaluation {
	if p == nil {
		p = &models.PredictionPayload{}
	}
	home := e.Factors(p, models.Home)
	away := e.Factors(p, models.Away)
	decision := e.decide(home, away, p.Teams.Home.Name, p.Teams.Away.Name)

	est := e.Estimate(p)
	conf := e.HandicapConfidence(est)

	return Evaluation{
		HomeFactors:   home.Rounded(),
		AwayFactors:   away.Rounded(),
		Decision:      decision,
		Hdp:           est.Suggestion(),
		HdpConfidence: conf,
		Sync:          e.Synchronize(decision.ConfidencePercent, conf.Score),
	}
}
