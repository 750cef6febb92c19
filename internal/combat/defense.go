package combat

import (
	"context"

	"atb_battle/internal/qte"
)

// resolveDefense gives a living defender the chance to counter an incoming
// basic attack. It reports true when the counter replaced the hit. Must
// hold mu.
func (b *Battle) resolveDefense(ctx context.Context, attacker, defender *Actor) (bool, error) {
	if !defender.Alive() || !b.rng.Percent(defender.DefenseChance) {
		return false, nil
	}
	ok, err := b.requestQTE(ctx, qte.TimingWindow, "defense")
	if err != nil {
		return false, err
	}
	if !ok {
		b.logLine(defender.Name, "%s fails to defend", defender.Name)
		return false, nil
	}
	return true, b.counterAttack(ctx, defender, attacker)
}

// counterAttack knocks the attacker back and hits it. The attacker stays
// where it was knocked to; the defender returns to rest.
func (b *Battle) counterAttack(ctx context.Context, defender, attacker *Actor) error {
	p := b.cfg.Pacing
	b.logLine(defender.Name, "%s counters %s", defender.Name, attacker.Name)
	b.emit(EvCounter, map[string]any{"defender": defender.Name, "attacker": attacker.Name})
	if err := b.suspend(ctx, p.CounterWindup, "counter windup"); err != nil {
		return err
	}
	b.emit(EvScreenShake, map[string]any{"duration": 0.2, "magnitude": 0.1})

	dir := attacker.Position.Sub(defender.Position).Norm()
	if !attacker.Locked() {
		b.move(attacker, attacker.Position.Add(dir.Scale(b.cfg.Assault.KnockbackDistance)))
		attacker.knockedBack = true
	}
	if err := b.suspend(ctx, p.Knockback, "knockback"); err != nil {
		return err
	}
	r := b.cfg.Damage.Counter
	b.applyDamage(defender, attacker, b.rng.Range(r.Min, r.Max), SourceDirect, StatusNone)
	if err := b.suspend(ctx, p.CounterRecover, "counter recover"); err != nil {
		return err
	}
	if !defender.Locked() {
		b.restore(defender)
	}
	return nil
}
