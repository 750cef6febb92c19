package combat

import "context"

// basicAttack is the default action of an actor whose gauge filled. Must
// hold mu.
func (b *Battle) basicAttack(ctx context.Context, attacker, target *Actor) error {
	if !attacker.Alive() {
		return nil
	}
	if !target.Alive() {
		if attacker.IsEnemy() {
			target = b.randomLiving(b.allies)
		} else {
			target = b.validateTarget()
		}
		if target == nil {
			return nil
		}
	}
	p := b.cfg.Pacing

	if !attacker.Locked() {
		b.move(attacker, b.advancePoint(attacker.Side))
	}
	if !target.Locked() {
		b.move(target, b.advancePoint(target.Side))
	}
	b.focus(attacker, target)
	if err := b.suspend(ctx, p.Approach, "approach"); err != nil {
		return err
	}
	if err := b.suspend(ctx, p.Impulse, "impulse"); err != nil {
		return err
	}

	dmg := b.basicDamage(attacker)
	countered := false
	if attacker.IsEnemy() && target.Alive() {
		var err error
		countered, err = b.resolveDefense(ctx, attacker, target)
		if err != nil {
			return err
		}
	}
	if !countered {
		b.applyDamage(attacker, target, dmg, SourceDirect, StatusNone)
	}
	// A counter replaces the whole attack, second hit included.
	if !countered && attacker.Alive() && target.Alive() && b.rng.Percent(attacker.DoubleAttackChance) {
		b.logLine(attacker.Name, "%s strikes again", attacker.Name)
		if err := b.suspend(ctx, p.Impulse, "double attack"); err != nil {
			return err
		}
		b.applyDamage(attacker, target, b.basicDamage(attacker), SourceDirect, StatusNone)
	}
	if !attacker.IsEnemy() && attacker.Alive() && target.Alive() {
		if err := b.tryFollowUp(ctx, attacker, target); err != nil {
			return err
		}
	}
	if err := b.suspend(ctx, p.Recover, "recover"); err != nil {
		return err
	}
	if err := b.endOfTurn(ctx, attacker); err != nil {
		return err
	}
	if err := b.waitPresentation(ctx); err != nil {
		return err
	}

	if !attacker.Locked() && !attacker.knockedBack {
		b.restore(attacker)
	}
	attacker.knockedBack = false
	if !target.Locked() {
		b.restore(target)
	}
	attacker.ReduceSkillCooldowns(nil)
	b.emit(EvUIRefresh, map[string]any{"actor": attacker.Name})
	b.emit(EvCameraZoomOut, nil)
	return nil
}

// basicDamage rolls the basic range and applies the attacker's bonus percent.
func (b *Battle) basicDamage(a *Actor) int {
	r := b.cfg.Damage.Basic
	dmg := b.rng.Range(r.Min, r.Max)
	if a.BasicAttackBonus != 0 {
		dmg = dmg * (100 + a.BasicAttackBonus) / 100
	}
	return max(dmg, 0)
}
