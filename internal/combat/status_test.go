package combat

import "testing"

func newHolder() *Actor {
	return newActor(ActorSpec{Name: "holder", MaxHP: 100})
}

func TestStatusApplyMergesSameType(t *testing.T) {
	a := newHolder()
	a.Status.Apply(StatusEffect{Type: Poison, Power: 3, Stack: 3})
	a.Status.Apply(StatusEffect{Type: Poison, Power: 2, Stack: 1})

	if a.Status.Len() != 1 {
		t.Fatalf("expected a single poison entry, got %d", a.Status.Len())
	}
	got, ok := a.Status.Get(Poison)
	if !ok || got.Power != 5 || got.Stack != 4 {
		t.Fatalf("merge: got %+v", got)
	}
}

func TestStatusApplyIgnoresNone(t *testing.T) {
	a := newHolder()
	a.Status.Apply(StatusEffect{Type: StatusNone, Power: 9, Stack: 9})
	if a.Status.Len() != 0 {
		t.Fatalf("none should not be stored")
	}
}

func TestStatusEntriesKeepApplicationOrder(t *testing.T) {
	a := newHolder()
	for _, typ := range []StatusEffectType{Burn, Poison, Shock} {
		a.Status.Apply(StatusEffect{Type: typ, Power: 1, Stack: 1})
	}
	a.Status.Apply(StatusEffect{Type: Burn, Power: 1, Stack: 1})
	var order []StatusEffectType
	for _, e := range a.Status.Entries() {
		order = append(order, e.Type)
	}
	want := []StatusEffectType{Burn, Poison, Shock}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order %v, want %v", order, want)
		}
	}
}

func TestTeamworkUpCappedAndReverted(t *testing.T) {
	a := newHolder()
	a.FollowUpChance = 0
	buff := StatusEffect{Type: TeamworkUp, Power: 70, Stack: 2, Buff: true}
	a.Status.Apply(buff)
	a.Status.Apply(buff)

	got, _ := a.Status.Get(TeamworkUp)
	if got.Power != 100 || got.Stack != 4 {
		t.Fatalf("teamwork: got %+v", got)
	}
	if a.FollowUpChance != 100 {
		t.Fatalf("follow-up chance %d, want 100", a.FollowUpChance)
	}
	a.Status.Remove(TeamworkUp)
	if a.FollowUpChance != 0 {
		t.Fatalf("follow-up chance after removal %d, want 0", a.FollowUpChance)
	}
}

func TestTeamworkUpRevertsOnlyWhatItGranted(t *testing.T) {
	a := newHolder()
	a.FollowUpChance = 40
	a.Status.Apply(StatusEffect{Type: TeamworkUp, Power: 80, Stack: 1, Buff: true})
	if a.FollowUpChance != 100 {
		t.Fatalf("follow-up chance %d, want 100", a.FollowUpChance)
	}
	a.Status.TickEndOfTurn()
	if a.Status.Has(TeamworkUp) {
		t.Fatalf("buff should expire after its only stack")
	}
	if a.FollowUpChance != 40 {
		t.Fatalf("follow-up chance %d, want 40", a.FollowUpChance)
	}
}

func TestSpeedUpExpiresAtEndOfTurn(t *testing.T) {
	a := newHolder()
	a.Status.Apply(StatusEffect{Type: SpeedUp, Power: 50, Stack: 2, Buff: true})
	if a.SpeedMultiplier != 1.5 {
		t.Fatalf("multiplier %v, want 1.5", a.SpeedMultiplier)
	}
	if fired := a.Status.TickEndOfTurn(); len(fired) != 0 {
		t.Fatalf("buffs should not fire: %+v", fired)
	}
	if a.SpeedMultiplier != 1.5 {
		t.Fatalf("multiplier changed before expiry: %v", a.SpeedMultiplier)
	}
	a.Status.TickEndOfTurn()
	if a.Status.Has(SpeedUp) || a.SpeedMultiplier != 1 {
		t.Fatalf("after expiry: has=%v multiplier=%v", a.Status.Has(SpeedUp), a.SpeedMultiplier)
	}
}

func TestTickEndOfTurnFiresAndExpires(t *testing.T) {
	a := newHolder()
	a.Status.Apply(StatusEffect{Type: Poison, Power: 3, Stack: 2})
	a.Status.Apply(StatusEffect{Type: Shock, Power: 4, Stack: 2, Tick: OnHitTaken})

	fired := a.Status.TickEndOfTurn()
	if len(fired) != 1 || fired[0].Type != Poison || fired[0].Power != 3 {
		t.Fatalf("first tick fired %+v", fired)
	}
	if p, _ := a.Status.Get(Poison); p.Stack != 1 {
		t.Fatalf("poison stack %d, want 1", p.Stack)
	}
	a.Status.TickEndOfTurn()
	if a.Status.Has(Poison) {
		t.Fatalf("poison should be gone")
	}
	if s, _ := a.Status.Get(Shock); s.Stack != 2 {
		t.Fatalf("on-hit entries must not tick at end of turn: %+v", s)
	}
}

func TestConsumeOnHit(t *testing.T) {
	a := newHolder()
	a.Status.Apply(StatusEffect{Type: Shock, Power: 4, Stack: 2, Tick: OnHitTaken})

	for i := 0; i < 2; i++ {
		fired := a.Status.ConsumeOnHit()
		if len(fired) != 1 || fired[0].Power != 4 {
			t.Fatalf("hit %d fired %+v", i+1, fired)
		}
	}
	if a.Status.Has(Shock) {
		t.Fatalf("shock should be consumed")
	}
	if fired := a.Status.ConsumeOnHit(); len(fired) != 0 {
		t.Fatalf("nothing left to fire, got %+v", fired)
	}
}

func TestUpdateCompressesAndDropsEmpty(t *testing.T) {
	a := newHolder()
	a.Status.Apply(StatusEffect{Type: Poison, Power: 3, Stack: 5})
	a.Status.Update(Poison, func(e *StatusEffect) {
		e.Power *= 2
		e.Stack = max(1, e.Stack/2)
	})
	if p, _ := a.Status.Get(Poison); p.Power != 6 || p.Stack != 2 {
		t.Fatalf("compressed poison %+v", p)
	}
	a.Status.Update(Poison, func(e *StatusEffect) { e.Stack = 0 })
	if a.Status.Has(Poison) {
		t.Fatalf("empty entry should be removed")
	}
	if a.Status.Update(Burn, func(*StatusEffect) {}) {
		t.Fatalf("update of a missing entry should report false")
	}
}

func TestClearRevertsBuffs(t *testing.T) {
	a := newHolder()
	a.Status.Apply(StatusEffect{Type: SpeedUp, Power: 25, Stack: 3, Buff: true})
	a.Status.Apply(StatusEffect{Type: Burn, Power: 2, Stack: 2})
	a.Status.Clear()
	if a.Status.Len() != 0 || a.SpeedMultiplier != 1 {
		t.Fatalf("clear: len=%d multiplier=%v", a.Status.Len(), a.SpeedMultiplier)
	}
}

func TestParseStatusEffectType(t *testing.T) {
	cases := map[string]StatusEffectType{
		"poison":     Poison,
		"Shock":      Shock,
		"hot":        HealOverTime,
		"speed-up":   SpeedUp,
		"teamwork":   TeamworkUp,
		"":           StatusNone,
		" bleed ":    Bleed,
		"TeamworkUp": TeamworkUp,
	}
	for in, want := range cases {
		got, err := ParseStatusEffectType(in)
		if err != nil || got != want {
			t.Fatalf("parse %q: got %v err %v, want %v", in, got, err, want)
		}
	}
	if _, err := ParseStatusEffectType("frostbite"); err == nil {
		t.Fatalf("expected error for unknown type")
	}
}
