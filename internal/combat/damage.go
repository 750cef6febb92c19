package combat

import (
	"context"

	"go.uber.org/zap"
)

// applyDamage resolves one hit on target. Damaging on-hit effects fire
// first, then the shield soaks what it can. Returns hp actually lost.
func (b *Battle) applyDamage(src, target *Actor, amount int, source DamageSource, kind StatusEffectType) int {
	if !target.Alive() {
		return 0
	}
	total := 0
	for _, e := range target.Status.ConsumeOnHit() {
		_, dealt := target.takeDamage(e.Power)
		total += dealt
		b.number(target, e.Power, NumberStatus, e.Type)
		b.emitHit(src, target, dealt, SourceStatus, e.Type)
		if !target.Alive() {
			break
		}
	}
	if target.Alive() {
		absorbed, dealt := target.takeDamage(amount)
		total += dealt
		switch {
		case source == SourceStatus:
			b.number(target, amount, NumberStatus, kind)
		case amount > 0:
			b.number(target, amount, NumberDamage, kind)
		}
		if absorbed > 0 {
			b.number(target, absorbed, NumberShield, Shield)
		}
		if amount > 0 {
			b.emitHit(src, target, dealt, source, kind)
		}
	}
	if !target.Alive() {
		b.emit(EvDeath, map[string]any{"id": target.Name})
		b.logLine("system", "%s is defeated", target.Name)
		b.log.Debug("actor down", zap.String("actor", target.Name), zap.String("side", target.Side.String()))
	}
	return total
}

func (b *Battle) emitHit(src, target *Actor, dealt int, source DamageSource, kind StatusEffectType) {
	from := ""
	if src != nil {
		from = src.Name
	}
	origin := "direct"
	if source == SourceStatus {
		origin = "status"
	}
	b.emit(EvHit, map[string]any{
		"source": from, "target": target.Name, "dmg": dealt, "hp": target.HP,
		"origin": origin, "kind": kind.String(),
	})
}

func (b *Battle) applyHeal(target *Actor, amount int, kind StatusEffectType) int {
	n := target.heal(amount)
	if n > 0 {
		b.number(target, n, NumberHeal, kind)
	}
	return n
}

// endOfTurn resolves the actor's end-of-turn effects, pacing each one.
func (b *Battle) endOfTurn(ctx context.Context, a *Actor) error {
	if !a.Alive() {
		return nil
	}
	for _, e := range a.Status.TickEndOfTurn() {
		if !a.Alive() {
			break
		}
		switch {
		case e.Type.Damaging():
			b.applyDamage(nil, a, e.Power, SourceStatus, e.Type)
		case e.Type == HealOverTime:
			b.applyHeal(a, e.Power, e.Type)
		case e.Type == Shield:
			a.Shield += e.Power
			b.number(a, e.Power, NumberShield, e.Type)
		default:
			continue
		}
		if err := b.suspend(ctx, b.cfg.Pacing.StatusTick, "status "+e.Type.String()); err != nil {
			return err
		}
	}
	return nil
}
