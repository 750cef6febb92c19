package combat

import (
	"context"

	"atb_battle/internal/config"
	"atb_battle/internal/qte"
)

// tryFollowUp rolls the attacker's follow-up chance after an ally's basic
// attack; a passed QTE sends a random other ally in. Must hold mu.
func (b *Battle) tryFollowUp(ctx context.Context, attacker, target *Actor) error {
	if attacker.IsEnemy() || !target.Alive() || !b.rng.Percent(attacker.FollowUpChance) {
		return nil
	}
	ok, err := b.requestQTE(ctx, qte.TimingWindow, "follow-up")
	if err != nil || !ok {
		return err
	}
	ally := b.randomAllyExcept(attacker)
	if ally == nil || !target.Alive() {
		return nil
	}
	return b.followUpAttack(ctx, ally, target)
}

// followUpAttack is a scripted strike by attacker on target from the
// advance points. Positions are put back afterwards unless locked.
func (b *Battle) followUpAttack(ctx context.Context, attacker, target *Actor) error {
	if !attacker.Alive() || !target.Alive() {
		return nil
	}
	p := b.cfg.Pacing
	fromA, fromT := attacker.Position, target.Position
	offset := vec(b.cfg.FollowUpOffset)

	b.emit(EvFollowUp, map[string]any{"attacker": attacker.Name, "target": target.Name})
	b.logLine(attacker.Name, "%s follows up on %s", attacker.Name, target.Name)
	b.move(attacker, b.advancePoint(attacker.Side).Add(offset))
	b.move(target, b.advancePoint(target.Side).Add(offset))
	b.focus(attacker, target)
	if err := b.suspend(ctx, p.Approach, "follow-up approach"); err != nil {
		return err
	}
	if err := b.suspend(ctx, p.Impulse, "follow-up impulse"); err != nil {
		return err
	}
	if attacker.Alive() && target.Alive() {
		r := b.cfg.Damage.FollowUp
		b.applyDamage(attacker, target, b.rng.Range(r.Min, r.Max), SourceDirect, StatusNone)
	}
	if err := b.suspend(ctx, p.Recover, "follow-up recover"); err != nil {
		return err
	}
	attacker.ReduceSkillCooldowns(nil)
	if !attacker.Locked() {
		b.move(attacker, fromA)
	}
	if !target.Locked() {
		b.move(target, fromT)
	}
	b.emit(EvCameraZoomOut, nil)
	return nil
}

// forcedAssist waits a beat and then sends a random other ally at the
// target. It gives up while the deck is changing.
func forcedAssist(ctx context.Context, c *Cast, target *Actor) error {
	b := c.Battle
	if b.changingDeck || c.Caster == nil || target == nil || !c.Caster.Alive() || !target.Alive() {
		return nil
	}
	if err := b.suspend(ctx, b.cfg.Pacing.ForcedDelay, "forced assist"); err != nil {
		return err
	}
	if b.changingDeck {
		return nil
	}
	ally := b.randomAllyExcept(c.Caster)
	if ally == nil || !target.Alive() {
		return nil
	}
	return b.followUpAttack(ctx, ally, target)
}

// engageAssault locks the caster, its target and up to ref.Count allies into
// a chain assault and lines the allies up behind the caster.
func engageAssault(ref config.EffectRef) PhaseEffect {
	count := max(ref.Count, 1)
	return func(ctx context.Context, c *Cast, target *Actor) error {
		b := c.Battle
		if !target.Alive() || !c.Caster.Alive() {
			return nil
		}
		var helpers []*Actor
		for _, a := range livingOf(b.sideOf(c.Caster)) {
			if a == c.Caster || a.Locked() {
				continue
			}
			helpers = append(helpers, a)
			if len(helpers) == count {
				break
			}
		}
		c.Caster.UnderAssault = true
		target.UnderAssault = true
		mainPos := b.advancePoint(c.Caster.Side)
		b.move(c.Caster, mainPos)
		b.move(target, b.advancePoint(target.Side))

		as := b.cfg.Assault
		base := mainPos.Add(vec(as.WaitingOffset))
		for i, a := range helpers {
			a.WaitingForAssault = true
			b.move(a, base.Add(Vec2{Y: -as.WaitingSpacing * float64(i)}))
		}
		b.focus(c.Caster, target)
		b.logLine(c.Caster.Name, "%s opens a chain assault with %d allies", c.Caster.Name, len(helpers))
		if err := b.suspend(ctx, b.cfg.Pacing.Impulse, "assault engage"); err != nil {
			return err
		}
		return b.suspend(ctx, b.cfg.Pacing.StrikeRecover, "assault engage recover")
	}
}

func (b *Battle) waitingAllies(main *Actor) []*Actor {
	var out []*Actor
	for _, a := range livingOf(b.sideOf(main)) {
		if a != main && a.WaitingForAssault {
			out = append(out, a)
		}
	}
	return out
}

// strikeWithWaitingAlly sends one random waiting ally from its slot to the
// caster's spot to hit the target, then back to the slot.
func strikeWithWaitingAlly(ctx context.Context, c *Cast, target *Actor) error {
	b := c.Battle
	waiting := b.waitingAllies(c.Caster)
	if len(waiting) == 0 || !target.Alive() {
		return nil
	}
	a := waiting[b.rng.Pick(len(waiting))]
	slot := a.Position
	b.move(a, c.Caster.Position)
	if err := b.suspend(ctx, b.cfg.Pacing.Knockback, "assault strike approach"); err != nil {
		return err
	}
	if a.Alive() && target.Alive() {
		r := b.cfg.Damage.FollowUp
		b.applyDamage(a, target, b.rng.Range(r.Min, r.Max), SourceDirect, StatusNone)
	}
	if err := b.suspend(ctx, b.cfg.Pacing.StrikeRecover, "assault strike recover"); err != nil {
		return err
	}
	b.move(a, slot)
	return nil
}

// rapidTeamAssault fans the waiting allies around the caster and has them
// land ref.Hits quick strikes, each by a random one of them.
func rapidTeamAssault(ref config.EffectRef) PhaseEffect {
	hits := max(ref.Hits, 1)
	return func(ctx context.Context, c *Cast, target *Actor) error {
		b := c.Battle
		allies := b.waitingAllies(c.Caster)
		if len(allies) == 0 || !target.Alive() {
			return nil
		}
		center := c.Caster.Position
		step := 180.0 / float64(len(allies)+1)
		fan := make([]Vec2, len(allies))
		for i := range allies {
			fan[i] = center.Add(Polar(b.cfg.Assault.FanRadius, -90+float64(i+1)*step))
		}
		b.logLine(c.Caster.Name, "%s calls a rapid team assault", c.Caster.Name)
		for n := 0; n < hits; n++ {
			if !target.Alive() {
				break
			}
			i := b.rng.Pick(len(allies))
			a := allies[i]
			if !a.Alive() {
				continue
			}
			slot := a.Position
			b.move(a, fan[i])
			r := b.cfg.Damage.FollowUp
			b.applyDamage(a, target, b.rng.Range(r.Min, r.Max), SourceDirect, StatusNone)
			b.move(a, slot)
			if err := b.suspend(ctx, b.cfg.Pacing.RapidStep, "rapid assault"); err != nil {
				return err
			}
		}
		return b.suspend(ctx, b.cfg.Pacing.TeamFinish, "rapid assault finish")
	}
}

// teamAssault has up to MaxAssisters living allies strike in turn from
// fixed offsets around the caster.
func teamAssault(ctx context.Context, c *Cast, target *Actor) error {
	b := c.Battle
	as := b.cfg.Assault
	var assisters []*Actor
	for _, a := range livingOf(b.sideOf(c.Caster)) {
		if a == c.Caster {
			continue
		}
		assisters = append(assisters, a)
		if len(assisters) == as.MaxAssisters {
			break
		}
	}
	if len(assisters) == 0 {
		b.logLine(c.Caster.Name, "no allies can join the team assault")
		return nil
	}
	b.logLine(c.Caster.Name, "%s launches a team assault", c.Caster.Name)
	for i, a := range assisters {
		if !target.Alive() {
			break
		}
		if !a.Alive() {
			continue
		}
		from := a.Position
		b.move(a, c.Caster.Position.Add(vec(as.TeamOffsets[i%len(as.TeamOffsets)])))
		if err := b.suspend(ctx, b.cfg.Pacing.Impulse, "team assault strike"); err != nil {
			return err
		}
		r := b.cfg.Damage.FollowUp
		b.applyDamage(a, target, b.rng.Range(r.Min, r.Max), SourceDirect, StatusNone)
		if err := b.suspend(ctx, b.cfg.Pacing.StrikeRecover, "team assault recover"); err != nil {
			return err
		}
		if !a.Locked() {
			b.move(a, from)
		}
	}
	return b.suspend(ctx, b.cfg.Pacing.TeamFinish, "team assault finish")
}

// releaseAssault clears every position lock and sends each participant
// home. It runs whether or not the skill completed.
func releaseAssault(c *Cast, _ bool) {
	c.Battle.releaseLocks()
}

// releaseLocks must be called with mu held.
func (b *Battle) releaseLocks() {
	for _, side := range [][]*Actor{b.allies, b.enemies} {
		for _, a := range side {
			if !a.Locked() {
				continue
			}
			a.UnderAssault = false
			a.WaitingForAssault = false
			b.restore(a)
		}
	}
}
