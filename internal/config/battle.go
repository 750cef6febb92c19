package config

// BattleConfig holds scheduler and choreography tuning. Durations are seconds.
type BattleConfig struct {
	Seed           int64         `yaml:"seed"`
	Tick           float64       `yaml:"tick"`
	GaugeThreshold float64       `yaml:"gauge_threshold"`
	PlayerAdvance  Vec2Def       `yaml:"player_advance"`
	EnemyAdvance   Vec2Def       `yaml:"enemy_advance"`
	FollowUpOffset Vec2Def       `yaml:"follow_up_offset"`
	Damage         DamageConfig  `yaml:"damage"`
	Chances        ChanceConfig  `yaml:"chances"`
	Pacing         PacingConfig  `yaml:"pacing"`
	Assault        AssaultConfig `yaml:"assault"`
	QTE            QTEConfig     `yaml:"qte"`
	Note           string        `yaml:"note"`
}

type Vec2Def struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// RangeDef is an inclusive integer range.
type RangeDef struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

type DamageConfig struct {
	Basic    RangeDef `yaml:"basic"`
	FollowUp RangeDef `yaml:"follow_up"`
	Counter  RangeDef `yaml:"counter"`
}

type ChanceConfig struct {
	FollowUp int `yaml:"follow_up"`
	Defense  int `yaml:"defense"`
}

type PacingConfig struct {
	Approach         float64 `yaml:"approach"`
	Impulse          float64 `yaml:"impulse"`
	Recover          float64 `yaml:"recover"`
	PhaseDelay       float64 `yaml:"phase_delay"`
	StatusTick       float64 `yaml:"status_tick"`
	ForcedDelay      float64 `yaml:"forced_delay"`
	CounterWindup    float64 `yaml:"counter_windup"`
	Knockback        float64 `yaml:"knockback"`
	CounterRecover   float64 `yaml:"counter_recover"`
	StrikeRecover    float64 `yaml:"strike_recover"`
	RapidStep        float64 `yaml:"rapid_step"`
	TeamFinish       float64 `yaml:"team_finish"`
	PresentationCap  float64 `yaml:"presentation_cap"`
	PresentationPoll float64 `yaml:"presentation_poll"`
}

type AssaultConfig struct {
	WaitingOffset     Vec2Def   `yaml:"waiting_offset"`
	WaitingSpacing    float64   `yaml:"waiting_spacing"`
	FanRadius         float64   `yaml:"fan_radius"`
	MaxAssisters      int       `yaml:"max_assisters"`
	KnockbackDistance float64   `yaml:"knockback_distance"`
	TeamOffsets       []Vec2Def `yaml:"team_offsets"`
}

type QTEConfig struct {
	SuccessRate float64   `yaml:"success_rate"`
	Timing      TimingDef `yaml:"timing"`
	Rapid       RapidDef  `yaml:"rapid"`
}

type TimingDef struct {
	Duration     float64 `yaml:"duration"`
	SuccessStart float64 `yaml:"success_start"`
	SuccessEnd   float64 `yaml:"success_end"`
	Grace        float64 `yaml:"grace"`
}

type RapidDef struct {
	Duration float64 `yaml:"duration"`
	Required int     `yaml:"required"`
}

// DefaultBattle returns the stock tuning.
func DefaultBattle() *BattleConfig {
	bc := &BattleConfig{}
	bc.FillDefaults()
	return bc
}

// FillDefaults replaces zero-valued tuning with stock values. It is meant
// for configs built in code, where an unset field reads as zero; files go
// through LoadBattle instead.
func (bc *BattleConfig) FillDefaults() {
	if bc.Seed == 0 {
		bc.Seed = 12345
	}
	if bc.Tick <= 0 {
		bc.Tick = 1.0 / 60.0
	}
	if bc.GaugeThreshold <= 0 {
		bc.GaugeThreshold = 100
	}
	if bc.PlayerAdvance == (Vec2Def{}) {
		bc.PlayerAdvance = Vec2Def{X: -1.5, Y: 0}
	}
	if bc.EnemyAdvance == (Vec2Def{}) {
		bc.EnemyAdvance = Vec2Def{X: 1.5, Y: 0}
	}
	if bc.FollowUpOffset == (Vec2Def{}) {
		bc.FollowUpOffset = Vec2Def{X: 0, Y: -0.8}
	}
	fillRange(&bc.Damage.Basic, 1, 4)
	fillRange(&bc.Damage.FollowUp, 1, 4)
	fillRange(&bc.Damage.Counter, 3, 7)

	p := &bc.Pacing
	fillFloat(&p.Approach, 0.1)
	fillFloat(&p.Impulse, 0.3)
	fillFloat(&p.Recover, 0.7)
	fillFloat(&p.PhaseDelay, 0.3)
	fillFloat(&p.StatusTick, 0.3)
	fillFloat(&p.ForcedDelay, 0.5)
	fillFloat(&p.CounterWindup, 0.1)
	fillFloat(&p.Knockback, 0.2)
	fillFloat(&p.CounterRecover, 0.5)
	fillFloat(&p.StrikeRecover, 0.3)
	fillFloat(&p.RapidStep, 0.02)
	fillFloat(&p.TeamFinish, 0.5)
	fillFloat(&p.PresentationCap, 2.0)
	fillFloat(&p.PresentationPoll, 1.0/60.0)

	a := &bc.Assault
	if a.WaitingOffset == (Vec2Def{}) {
		a.WaitingOffset = Vec2Def{X: -2, Y: 0}
	}
	fillFloat(&a.WaitingSpacing, 0.7)
	fillFloat(&a.FanRadius, 1.0)
	if a.MaxAssisters <= 0 {
		a.MaxAssisters = 3
	}
	fillFloat(&a.KnockbackDistance, 1.5)
	if len(a.TeamOffsets) == 0 {
		a.TeamOffsets = []Vec2Def{{X: 0, Y: 1.5}, {X: 0.5, Y: 1.0}, {X: -0.5, Y: 1.0}}
	}

	q := &bc.QTE
	if q.SuccessRate <= 0 {
		q.SuccessRate = 0.8
	}
	if q.SuccessRate > 1 {
		q.SuccessRate = 1
	}
	fillFloat(&q.Timing.Duration, 0.5)
	fillFloat(&q.Timing.SuccessStart, 0.4)
	fillFloat(&q.Timing.SuccessEnd, 0.5)
	fillFloat(&q.Timing.Grace, 0.1)
	fillFloat(&q.Rapid.Duration, 3.0)
	if q.Rapid.Required <= 0 {
		q.Rapid.Required = 10
	}
}

// normalize repairs values the scheduler cannot run with and keeps every
// other explicit setting, zeros included.
func (bc *BattleConfig) normalize() {
	def := DefaultBattle()
	if bc.Tick <= 0 {
		bc.Tick = def.Tick
	}
	if bc.GaugeThreshold <= 0 {
		bc.GaugeThreshold = def.GaugeThreshold
	}
	for _, r := range []*RangeDef{&bc.Damage.Basic, &bc.Damage.FollowUp, &bc.Damage.Counter} {
		r.Min = max(r.Min, 0)
		r.Max = max(r.Max, r.Min)
	}

	p := &bc.Pacing
	for _, v := range []*float64{
		&p.Approach, &p.Impulse, &p.Recover, &p.PhaseDelay, &p.StatusTick,
		&p.ForcedDelay, &p.CounterWindup, &p.Knockback, &p.CounterRecover,
		&p.StrikeRecover, &p.RapidStep, &p.TeamFinish, &p.PresentationCap,
	} {
		*v = max(*v, 0)
	}
	if p.PresentationPoll <= 0 {
		p.PresentationPoll = def.Pacing.PresentationPoll
	}

	a := &bc.Assault
	if a.MaxAssisters <= 0 {
		a.MaxAssisters = def.Assault.MaxAssisters
	}
	if len(a.TeamOffsets) == 0 {
		a.TeamOffsets = def.Assault.TeamOffsets
	}

	q := &bc.QTE
	q.SuccessRate = min(max(q.SuccessRate, 0), 1)
	if q.Rapid.Required <= 0 {
		q.Rapid.Required = def.QTE.Rapid.Required
	}
}

func fillFloat(v *float64, def float64) {
	if *v <= 0 {
		*v = def
	}
}

func fillRange(r *RangeDef, min, max int) {
	if r.Min == 0 && r.Max == 0 {
		r.Min, r.Max = min, max
	}
	if r.Max < r.Min {
		r.Max = r.Min
	}
}
