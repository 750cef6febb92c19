package combat

import (
	"context"
	"errors"
	"fmt"

	"atb_battle/internal/config"
	"atb_battle/internal/qte"
)

var (
	ErrUnknownSkill  = errors.New("unknown skill")
	ErrUnknownEffect = errors.New("unknown effect")
)

// Named hooks skills.yaml can refer to.
var (
	phaseEffects = map[string]func(ref config.EffectRef) PhaseEffect{
		"poison_compress": func(config.EffectRef) PhaseEffect { return compressPoison },
		"burn_detonate":   detonateBurn,
		"assault_engage":  engageAssault,
		"assault_strike":  func(config.EffectRef) PhaseEffect { return strikeWithWaitingAlly },
		"assault_rapid":   rapidTeamAssault,
		"assault_team":    func(config.EffectRef) PhaseEffect { return teamAssault },
		"assault_forced":  func(config.EffectRef) PhaseEffect { return forcedAssist },
		"rally":           rally,
		"mend":            mend,
		"haste":           haste,
	}
	endHooks = map[string]OnSkillEnd{
		"assault_release": releaseAssault,
	}
	equipEffects = map[string]func(ref config.EffectRef) OnEquip{
		"attack_boost": func(ref config.EffectRef) OnEquip {
			return func(a *Actor) { a.BasicAttackBonus += ref.Amount }
		},
		"double_attack": func(ref config.EffectRef) OnEquip {
			return func(a *Actor) { a.DoubleAttackChance = clampPercent(ref.Amount) }
		},
		"teamwork_boost": func(ref config.EffectRef) OnEquip {
			return func(a *Actor) { a.FollowUpChance = clampPercent(a.FollowUpChance + ref.Amount) }
		},
	}
)

// SkillBook turns skill templates into fresh skill instances.
type SkillBook struct {
	templates  map[string]config.Skill
	phaseDelay float64
}

// NewSkillBook checks every template up front so a bad id fails at load.
func NewSkillBook(cfg *config.SkillsConfig, phaseDelay float64) (*SkillBook, error) {
	sb := &SkillBook{templates: map[string]config.Skill{}, phaseDelay: phaseDelay}
	if cfg == nil {
		return sb, nil
	}
	for _, t := range cfg.Skills {
		if _, err := sb.build(t); err != nil {
			return nil, fmt.Errorf("skill %s: %w", t.ID, err)
		}
		sb.templates[t.ID] = t
	}
	return sb, nil
}

func (sb *SkillBook) Has(id string) bool {
	_, ok := sb.templates[id]
	return ok
}

// Instantiate builds one new skill per id, each with its own cooldown.
func (sb *SkillBook) Instantiate(ids ...string) ([]*Skill, error) {
	out := make([]*Skill, 0, len(ids))
	for _, id := range ids {
		t, ok := sb.templates[id]
		if !ok {
			return nil, fmt.Errorf("%w %q", ErrUnknownSkill, id)
		}
		s, err := sb.build(t)
		if err != nil {
			return nil, fmt.Errorf("skill %s: %w", id, err)
		}
		out = append(out, s)
	}
	return out, nil
}

func (sb *SkillBook) build(t config.Skill) (*Skill, error) {
	s := &Skill{
		ID:            t.ID,
		Name:          t.Name,
		CooldownTurns: t.Cooldown,
		Area:          t.Area,
		Note:          t.Note,
	}
	switch t.Kind {
	case "", "active":
		s.Kind = Active
	case "passive":
		s.Kind = Passive
	default:
		return nil, fmt.Errorf("unknown kind %q", t.Kind)
	}
	if t.OnEquip != nil {
		mk, ok := equipEffects[t.OnEquip.ID]
		if !ok {
			return nil, fmt.Errorf("%w %q", ErrUnknownEffect, t.OnEquip.ID)
		}
		s.OnEquip = mk(*t.OnEquip)
	}
	if t.OnEnd != "" {
		hook, ok := endHooks[t.OnEnd]
		if !ok {
			return nil, fmt.Errorf("%w %q", ErrUnknownEffect, t.OnEnd)
		}
		s.OnEnd = hook
	}
	for i, p := range t.Phases {
		phase, err := sb.buildPhase(p)
		if err != nil {
			return nil, fmt.Errorf("phase %d: %w", i+1, err)
		}
		repeat := max(p.Repeat, 1)
		for n := 0; n < repeat; n++ {
			s.Phases = append(s.Phases, phase)
		}
	}
	return s, nil
}

func (sb *SkillBook) buildPhase(p config.Phase) (AttackPhase, error) {
	phase := AttackPhase{Damage: p.Damage, Delay: sb.phaseDelay}
	if p.Delay != nil {
		phase.Delay = *p.Delay
	}
	if p.Status != nil {
		typ, err := ParseStatusEffectType(p.Status.Type)
		if err != nil {
			return phase, err
		}
		tick, err := ParseTickType(p.Status.Tick)
		if err != nil {
			return phase, err
		}
		phase.Status = &StatusEffect{
			Type:  typ,
			Power: p.Status.Power,
			Stack: p.Status.Stack,
			Tick:  tick,
			Buff:  p.Status.Buff,
		}
	}
	if p.QTE != "" {
		kind, err := qte.ParseKind(p.QTE)
		if err != nil {
			return phase, err
		}
		phase.RequiresQTE = true
		phase.QTE = kind
	}
	if p.Effect != nil {
		mk, ok := phaseEffects[p.Effect.ID]
		if !ok {
			return phase, fmt.Errorf("%w %q", ErrUnknownEffect, p.Effect.ID)
		}
		phase.Effect = mk(*p.Effect)
		phase.EffectName = p.Effect.ID
	}
	return phase, nil
}

// compressPoison doubles a target's poison power and halves its stack.
func compressPoison(_ context.Context, c *Cast, target *Actor) error {
	if target.Status.Update(Poison, func(e *StatusEffect) {
		e.Power *= 2
		e.Stack = max(1, e.Stack/2)
	}) {
		c.Battle.logLine(c.Caster.Name, "%s compresses the poison on %s", c.Caster.Name, target.Name)
	}
	return nil
}

// detonateBurn consumes a target's burn for power x stack x amount damage.
func detonateBurn(ref config.EffectRef) PhaseEffect {
	mult := max(ref.Amount, 1)
	return func(_ context.Context, c *Cast, target *Actor) error {
		burn, ok := target.Status.Get(Burn)
		if !ok || !target.Alive() {
			return nil
		}
		target.Status.Remove(Burn)
		c.Battle.emitStatus(EvRemoveStatus, target, burn)
		dmg := burn.Power * burn.Stack * mult
		c.Battle.logLine(c.Caster.Name, "%s detonates the burn on %s", c.Caster.Name, target.Name)
		c.Battle.applyDamage(c.Caster, target, dmg, SourceStatus, Burn)
		return nil
	}
}

// rally grants TeamworkUp to every living ally of the caster.
func rally(ref config.EffectRef) PhaseEffect {
	return func(_ context.Context, c *Cast, _ *Actor) error {
		for _, a := range livingOf(c.Battle.sideOf(c.Caster)) {
			e := StatusEffect{Type: TeamworkUp, Power: ref.Amount, Stack: 2, Tick: EndOfTurn, Buff: true}
			a.Status.Apply(e)
			c.Battle.emitStatus(EvApplyStatus, a, e)
		}
		return nil
	}
}

// mend gives the caster a heal over time and a small shield.
func mend(ref config.EffectRef) PhaseEffect {
	return func(_ context.Context, c *Cast, _ *Actor) error {
		for _, e := range []StatusEffect{
			{Type: HealOverTime, Power: ref.Amount, Stack: 3, Tick: EndOfTurn},
			{Type: Shield, Power: ref.Amount, Stack: 1, Tick: EndOfTurn},
		} {
			c.Caster.Status.Apply(e)
			c.Battle.emitStatus(EvApplyStatus, c.Caster, e)
		}
		return nil
	}
}

// haste speeds up the caster's gauge for two turns.
func haste(ref config.EffectRef) PhaseEffect {
	return func(_ context.Context, c *Cast, _ *Actor) error {
		e := StatusEffect{Type: SpeedUp, Power: ref.Amount, Stack: 2, Tick: EndOfTurn, Buff: true}
		c.Caster.Status.Apply(e)
		c.Battle.emitStatus(EvApplyStatus, c.Caster, e)
		return nil
	}
}
