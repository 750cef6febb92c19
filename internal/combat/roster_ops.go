package combat

import (
	"fmt"

	"go.uber.org/zap"
)

// SpawnActor creates an actor from spec, equips its passives and starts its
// action loop.
func (b *Battle) SpawnActor(spec ActorSpec) (*Actor, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}
	return b.spawn(spec), nil
}

func (b *Battle) spawn(spec ActorSpec) *Actor {
	a := newActor(spec)
	a.equipPassives()
	if a.IsEnemy() {
		b.enemies = append(b.enemies, a)
	} else {
		b.allies = append(b.allies, a)
	}
	b.emit(EvSpawn, map[string]any{
		"id": a.Name, "side": a.Side.String(), "x": a.Position.X, "y": a.Position.Y,
		"hp": a.HP, "max_hp": a.MaxHP, "speed": a.Speed,
	})
	b.logLine(a.Side.String(), "%s spawns: HP %d, Speed %.0f", a.Name, a.HP, a.Speed)

	ep := b.epoch
	ep.group.Go(func() error { return b.actorLoop(ep.ctx, a) })
	return a
}

// CancelAllTasks stops every queued and running task, then clears the
// acting flag, position locks, status stores and queues. It must not be
// called from inside a task.
func (b *Battle) CancelAllTasks() {
	b.opMu.Lock()
	defer b.opMu.Unlock()
	b.cancelAll(true)
}

// cancelAll requires opMu. With restart set, surviving actors get fresh
// loops in a new epoch.
func (b *Battle) cancelAll(restart bool) {
	b.mu.Lock()
	ep := b.epoch
	b.mu.Unlock()

	ep.cancel()
	b.qte.Cancel()
	_ = ep.group.Wait()

	b.mu.Lock()
	defer b.mu.Unlock()
	b.acting = nil
	b.requests = nil
	for _, side := range [][]*Actor{b.allies, b.enemies} {
		for _, a := range side {
			a.acting = false
			a.knockedBack = false
			a.UnderAssault = false
			a.WaitingForAssault = false
			b.restore(a)
			a.Status.Clear()
			a.queue.Clear()
		}
	}
	b.pending = 0
	if b.idle != nil {
		close(b.idle)
		b.idle = nil
	}
	b.epoch = newEpoch()
	if !restart {
		return
	}
	for _, side := range [][]*Actor{b.allies, b.enemies} {
		for _, a := range side {
			a := a
			ep := b.epoch
			ep.group.Go(func() error { return b.actorLoop(ep.ctx, a) })
		}
	}
}

// ClearField cancels everything in flight and removes every actor.
func (b *Battle) ClearField() {
	b.opMu.Lock()
	defer b.opMu.Unlock()
	b.clearField()
}

func (b *Battle) clearField() {
	b.cancelAll(false)
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, side := range [][]*Actor{b.allies, b.enemies} {
		for _, a := range side {
			a.Skills = nil
			a.Gauge = 0
			a.SpeedMultiplier = 1
			b.emit(EvDespawn, map[string]any{"id": a.Name})
		}
	}
	b.allies = nil
	b.enemies = nil
	b.currentTarget = nil
}

// SwitchDeck replaces the field with the roster's lineup for deckID. An
// unknown deck is reported and leaves the current battle untouched.
func (b *Battle) SwitchDeck(deckID string) error {
	b.opMu.Lock()
	defer b.opMu.Unlock()
	if b.isClosed() {
		return ErrClosed
	}
	if b.roster == nil {
		err := fmt.Errorf("switch deck %q: no roster", deckID)
		b.log.Error("switch deck", zap.Error(err))
		return err
	}
	lineup, err := b.roster.Lineup(deckID)
	if err != nil {
		b.log.Error("switch deck", zap.String("deck", deckID), zap.Error(err))
		return fmt.Errorf("switch deck %q: %w", deckID, err)
	}

	b.mu.Lock()
	b.changingDeck = true
	b.mu.Unlock()

	b.clearField()

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, spec := range lineup.Allies {
		spec.Side = Ally
		b.spawn(spec)
	}
	for _, spec := range lineup.Enemies {
		spec.Side = Enemy
		b.spawn(spec)
	}
	b.deck = deckID
	b.changingDeck = false
	b.validateTarget()
	b.emit(EvDeckSwitched, map[string]any{"deck": deckID})
	b.logLine("system", "deck switched to %s", deckID)
	return nil
}

// Shutdown stops every actor loop. The battle cannot be reused.
func (b *Battle) Shutdown() {
	b.opMu.Lock()
	defer b.opMu.Unlock()
	if b.isClosed() {
		return
	}
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.cancelAll(false)
}

func (b *Battle) isClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}
