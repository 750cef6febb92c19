package combat

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// executeSkill runs a skill for caster and winds the turn down. Must hold mu.
func (b *Battle) executeSkill(ctx context.Context, caster *Actor, skill *Skill) error {
	if !caster.Alive() {
		return nil
	}
	if !skill.CanUse() {
		b.emit(EvSkillRejected, map[string]any{"caster": caster.Name, "skill": skill.ID, "cooldown": skill.CurrentCooldown})
		b.logLine(caster.Name, "%s is still on cooldown (%d turns)", skill.label(), skill.CurrentCooldown)
		return nil
	}
	cast := &Cast{Battle: b, Caster: caster, Skill: skill, Seq: b.active}
	b.emit(EvCast, map[string]any{"caster": caster.Name, "skill": skill.ID, "area": skill.Area, "effects": skill.effectNames()})
	b.logLine(caster.Name, "%s uses %s", caster.Name, skill.label())

	if skill.Area && !caster.Locked() {
		b.move(caster, b.advancePoint(caster.Side))
	}

	completed, err := b.runPhases(ctx, cast)
	if err != nil {
		return err
	}
	if !completed && skill.OnEnd != nil {
		skill.OnEnd(cast, false)
	}
	if err := b.endOfTurn(ctx, caster); err != nil {
		return err
	}
	if !caster.Locked() {
		b.restore(caster)
	}
	caster.ReduceSkillCooldowns(skill)
	skill.CurrentCooldown = skill.CooldownTurns
	if completed && skill.OnEnd != nil {
		skill.OnEnd(cast, true)
	}
	b.emit(EvUIRefresh, map[string]any{"actor": caster.Name})
	return nil
}

// runPhases executes the phases in order. It reports false when a QTE
// failure stopped the skill; effects already applied stay applied.
func (b *Battle) runPhases(ctx context.Context, c *Cast) (bool, error) {
	for i, phase := range c.Skill.Phases {
		if !c.Caster.Alive() {
			return true, nil
		}
		targets := b.resolveTargets(c.Caster, c.Skill)
		if len(targets) == 0 {
			b.log.Debug("no targets left", zap.String("skill", c.Skill.ID), zap.Int("phase", i+1))
			return true, nil
		}
		label := fmt.Sprintf("%s phase %d", c.Skill.ID, i+1)
		for _, t := range targets {
			if !t.Alive() {
				continue
			}
			b.applyDamage(c.Caster, t, phase.Damage, SourceDirect, StatusNone)
			if phase.Status != nil && phase.Status.Type != StatusNone && t.Alive() {
				e := *phase.Status
				t.Status.Apply(e)
				b.emitStatus(EvApplyStatus, t, e)
			}
			if phase.Effect != nil {
				if err := phase.Effect(ctx, c, t); err != nil {
					return false, err
				}
			}
		}
		if phase.RequiresQTE {
			ok, err := b.requestQTE(ctx, phase.QTE, label)
			if err != nil {
				return false, err
			}
			if !ok {
				b.logLine(c.Caster.Name, "%s stops after a failed QTE", c.Skill.label())
				return false, nil
			}
		}
		if err := b.suspend(ctx, phase.Delay, label); err != nil {
			return false, err
		}
	}
	return true, nil
}

// resolveTargets picks every living opponent for area skills, otherwise the
// caster's designated target or the first living opponent.
func (b *Battle) resolveTargets(caster *Actor, s *Skill) []*Actor {
	opponents := b.opponentsOf(caster)
	if s.Area {
		return livingOf(opponents)
	}
	var t *Actor
	if caster.IsEnemy() {
		t = firstLiving(opponents)
	} else {
		t = b.validateTarget()
	}
	if t == nil {
		return nil
	}
	return []*Actor{t}
}
