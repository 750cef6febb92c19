package combat

import (
	"context"

	"atb_battle/internal/qte"
)

type SkillKind int

const (
	Active SkillKind = iota
	Passive
)

func (k SkillKind) String() string {
	if k == Passive {
		return "passive"
	}
	return "active"
}

// Cast is the explicit handle a running skill passes to its hooks.
type Cast struct {
	Battle *Battle
	Caster *Actor
	Skill  *Skill
	Seq    *Sequence
}

// PhaseEffect runs after a phase's damage and status on one target. It may
// suspend; a non-nil error is a cancellation.
type PhaseEffect func(ctx context.Context, c *Cast, target *Actor) error

// OnSkillEnd runs once when a skill stops: completed is false when a QTE
// failure cut it short.
type OnSkillEnd func(c *Cast, completed bool)

type OnEquip func(a *Actor)

// AttackPhase is an immutable step template. Status is copied into each
// target's store, never shared.
type AttackPhase struct {
	Damage      int
	Status      *StatusEffect
	RequiresQTE bool
	QTE         qte.Kind
	Effect      PhaseEffect
	EffectName  string
	Delay       float64
}

type Skill struct {
	ID              string
	Name            string
	Kind            SkillKind
	CooldownTurns   int
	CurrentCooldown int
	Area            bool
	Phases          []AttackPhase
	OnEquip         OnEquip
	OnEnd           OnSkillEnd
	Note            string
}

func (s *Skill) CanUse() bool { return s.CurrentCooldown <= 0 }

func (s *Skill) label() string {
	if s.Name != "" {
		return s.Name
	}
	return s.ID
}

// effectNames lists the distinct phase effects in phase order.
func (s *Skill) effectNames() []string {
	var out []string
	seen := map[string]bool{}
	for _, p := range s.Phases {
		if p.EffectName == "" || seen[p.EffectName] {
			continue
		}
		seen[p.EffectName] = true
		out = append(out, p.EffectName)
	}
	return out
}
