package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Overrides are environment settings layered over the YAML files.
type Overrides struct {
	Seed           int64    `env:"ATB_SEED"`
	Tick           float64  `env:"ATB_TICK"`
	QTESuccessRate *float64 `env:"ATB_QTE_SUCCESS_RATE"`
	Deck           string   `env:"ATB_DECK"`
	LogLevel       string   `env:"ATB_LOG_LEVEL" envDefault:"info"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Apply copies every set override onto bc.
func (o Overrides) Apply(bc *BattleConfig) {
	if bc == nil {
		return
	}
	if o.Seed != 0 {
		bc.Seed = o.Seed
	}
	if o.Tick > 0 {
		bc.Tick = o.Tick
	}
	if o.QTESuccessRate != nil {
		rate := *o.QTESuccessRate
		if rate < 0 {
			rate = 0
		}
		if rate > 1 {
			rate = 1
		}
		bc.QTE.SuccessRate = rate
	}
}
