package combat

import (
	"errors"
	"testing"

	"atb_battle/internal/config"
	"atb_battle/internal/qte"
)

func chainSkill() *Skill {
	return &Skill{
		ID:            "chain",
		CooldownTurns: 3,
		OnEnd:         releaseAssault,
		Phases: []AttackPhase{
			{Damage: 1, Effect: engageAssault(config.EffectRef{Count: 2}), RequiresQTE: true, Delay: 0.3},
			{Damage: 0, Effect: strikeWithWaitingAlly, Delay: 0.2},
		},
	}
}

type assaultField struct {
	lead, left, right, foe *Actor
}

func (f assaultField) all() []*Actor { return []*Actor{f.lead, f.left, f.right, f.foe} }

func spawnAssaultField(t *testing.T, b *Battle, sk *Skill) assaultField {
	t.Helper()
	return assaultField{
		lead:  mustSpawn(t, b, ActorSpec{Name: "lead", Side: Ally, Position: Vec2{-4, 2}, Skills: []*Skill{sk}}),
		left:  mustSpawn(t, b, ActorSpec{Name: "left", Side: Ally, Position: Vec2{-4, 0.7}}),
		right: mustSpawn(t, b, ActorSpec{Name: "right", Side: Ally, Position: Vec2{-4, -0.6}}),
		foe:   mustSpawn(t, b, ActorSpec{Name: "foe", Side: Enemy, Position: Vec2{4, 2}}),
	}
}

func TestChainAssaultCompletesAndReleases(t *testing.T) {
	b, _ := newTestBattle(t, Deps{QTE: qte.NewScripted(true)})
	f := spawnAssaultField(t, b, chainSkill())

	b.RequestSkillUse(0, 0)
	b.Tick(0.01)
	waitIdle(t, b)

	b.Inspect(func() {
		if f.foe.HP != 97 {
			t.Fatalf("foe hp %d, want 97", f.foe.HP)
		}
		for _, a := range f.all() {
			if a.Locked() || a.Position != a.OriginalPosition {
				t.Fatalf("%s left locked=%v at %+v", a.Name, a.Locked(), a.Position)
			}
		}
	})
}

func TestChainAssaultReleasedOnQTEFailure(t *testing.T) {
	b, _ := newTestBattle(t, Deps{QTE: qte.NewScripted(false)})
	sk := chainSkill()
	f := spawnAssaultField(t, b, sk)

	b.RequestSkillUse(0, 0)
	b.Tick(0.01)
	waitIdle(t, b)

	b.Inspect(func() {
		if f.foe.HP != 99 {
			t.Fatalf("strike phase ran after a failed qte: foe hp %d", f.foe.HP)
		}
		for _, a := range f.all() {
			if a.Locked() || a.Position != a.OriginalPosition {
				t.Fatalf("%s left locked=%v at %+v", a.Name, a.Locked(), a.Position)
			}
		}
	})
	if sk.CurrentCooldown != 3 {
		t.Fatalf("cooldown %d", sk.CurrentCooldown)
	}
}

func TestDeckSwitchMidAssault(t *testing.T) {
	m := newManualQTE()
	roster := fakeRoster{"next": Lineup{
		Allies:  []ActorSpec{{Name: "N1", MaxHP: 10, Speed: 100, Position: Vec2{-4, 2}}},
		Enemies: []ActorSpec{{Name: "M1", MaxHP: 10, Position: Vec2{4, 2}}},
	}}
	b, events := newTestBattle(t, Deps{QTE: m, Roster: roster})
	f := spawnAssaultField(t, b, chainSkill())

	b.RequestSkillUse(0, 0)
	b.Tick(0.01)
	if _, err := m.WaitPending(testContext(t)); err != nil {
		t.Fatalf("wait pending: %v", err)
	}
	b.Inspect(func() {
		if !f.lead.UnderAssault || !f.foe.UnderAssault || !f.left.WaitingForAssault || !f.right.WaitingForAssault {
			t.Fatalf("assault locks not taken")
		}
		if f.lead.Position == f.lead.OriginalPosition {
			t.Fatalf("lead should have moved in")
		}
	})
	seq := b.ActiveSequence()

	if err := b.SwitchDeck("next"); err != nil {
		t.Fatalf("switch deck: %v", err)
	}
	for _, a := range f.all() {
		if a.Locked() || a.Position != a.OriginalPosition || a.Status.Len() != 0 || a.QueueLen() != 0 {
			t.Fatalf("%s not reset: locked=%v pos=%+v", a.Name, a.Locked(), a.Position)
		}
	}
	if seq.State() != SeqAborted {
		t.Fatalf("interrupted sequence state %s", seq.State())
	}
	if b.Busy() || b.Acting() != nil {
		t.Fatalf("battle busy after switch")
	}
	allies := b.Allies()
	if len(allies) != 1 || allies[0].Name != "N1" || b.Deck() != "next" {
		t.Fatalf("new lineup not spawned: %d allies, deck %q", len(allies), b.Deck())
	}
	if events.Count(EvDespawn) != 4 || events.Count(EvDeckSwitched) != 1 {
		t.Fatalf("despawn=%d switched=%d", events.Count(EvDespawn), events.Count(EvDeckSwitched))
	}
	if b.CurrentTarget() == nil || b.CurrentTarget().Name != "M1" {
		t.Fatalf("target should point at the new lineup")
	}

	b.Tick(1)
	waitIdle(t, b)
	if got := hpOf(b, b.Enemies()[0]); got != 8 {
		t.Fatalf("new lineup did not fight: M1 hp %d", got)
	}
}

func TestSwitchToUnknownDeckLeavesBattle(t *testing.T) {
	b, events := newTestBattle(t, Deps{Roster: fakeRoster{}})
	hero := mustSpawn(t, b, ActorSpec{Name: "hero", Side: Ally})
	mustSpawn(t, b, ActorSpec{Name: "foe", Side: Enemy})

	err := b.SwitchDeck("missing")
	if !errors.Is(err, errNoDeck) {
		t.Fatalf("expected wrapped roster error, got %v", err)
	}
	if allies := b.Allies(); len(allies) != 1 || allies[0] != hero {
		t.Fatalf("allies replaced after a failed switch")
	}
	if events.Count(EvDespawn) != 0 {
		t.Fatalf("field cleared after a failed switch")
	}
}

func TestSwitchDeckWithoutRoster(t *testing.T) {
	b, _ := newTestBattle(t, Deps{})
	if err := b.SwitchDeck("poison"); err == nil {
		t.Fatalf("expected error without a roster")
	}
}

func TestTeamAssaultUsesAllies(t *testing.T) {
	b, events := newTestBattle(t, Deps{})
	sk := &Skill{ID: "team", Phases: []AttackPhase{{Damage: 1, Effect: teamAssault}}}
	mustSpawn(t, b, ActorSpec{Name: "lead", Side: Ally, Skills: []*Skill{sk}})
	mustSpawn(t, b, ActorSpec{Name: "a", Side: Ally})
	mustSpawn(t, b, ActorSpec{Name: "b", Side: Ally})
	foe := mustSpawn(t, b, ActorSpec{Name: "foe", Side: Enemy})

	b.RequestSkillUse(0, 0)
	b.Tick(0.01)
	waitIdle(t, b)

	if got := hpOf(b, foe); got != 95 {
		t.Fatalf("foe hp %d, want 95", got)
	}
	sources := map[string]bool{}
	for _, ev := range events.OfType(EvHit) {
		sources[ev.Payload["source"].(string)] = true
	}
	if !sources["a"] || !sources["b"] {
		t.Fatalf("assisters did not strike: %v", sources)
	}
}

func TestRapidTeamAssaultLandsEveryHit(t *testing.T) {
	b, _ := newTestBattle(t, Deps{})
	sk := &Skill{ID: "rapid", OnEnd: releaseAssault, Phases: []AttackPhase{
		{Damage: 0, Effect: engageAssault(config.EffectRef{Count: 2})},
		{Damage: 0, Effect: rapidTeamAssault(config.EffectRef{Hits: 5})},
	}}
	f := spawnAssaultField(t, b, sk)

	b.RequestSkillUse(0, 0)
	b.Tick(0.01)
	waitIdle(t, b)

	b.Inspect(func() {
		if f.foe.HP != 90 {
			t.Fatalf("foe hp %d, want 90 after five hits", f.foe.HP)
		}
		if f.left.Locked() || f.right.Locked() {
			t.Fatalf("locks not released")
		}
	})
}

func TestForcedAssistSendsAnotherAlly(t *testing.T) {
	b, events := newTestBattle(t, Deps{})
	sk := &Skill{ID: "call", Phases: []AttackPhase{{Damage: 1, Effect: forcedAssist}}}
	mustSpawn(t, b, ActorSpec{Name: "lead", Side: Ally, Skills: []*Skill{sk}})
	mustSpawn(t, b, ActorSpec{Name: "buddy", Side: Ally})
	foe := mustSpawn(t, b, ActorSpec{Name: "foe", Side: Enemy})

	b.RequestSkillUse(0, 0)
	b.Tick(0.01)
	waitIdle(t, b)

	if got := hpOf(b, foe); got != 97 {
		t.Fatalf("foe hp %d, want 97", got)
	}
	follow := events.OfType(EvFollowUp)
	if len(follow) != 1 || follow[0].Payload["attacker"] != "buddy" {
		t.Fatalf("follow-ups %+v", follow)
	}
}
