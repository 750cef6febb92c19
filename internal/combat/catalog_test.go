package combat

import (
	"context"
	"errors"
	"testing"

	"atb_battle/internal/config"
	"atb_battle/internal/qte"
)

func floatPtr(v float64) *float64 { return &v }

func testSkills() *config.SkillsConfig {
	return &config.SkillsConfig{Skills: []config.Skill{
		{
			ID: "flurry", Name: "Flurry", Cooldown: 3, Area: true,
			Phases: []config.Phase{
				{Damage: 2, Status: &config.AppliedStatus{Type: "shock", Power: 1, Stack: 2, Tick: "on_hit"}, Repeat: 3},
				{Damage: 5, QTE: "rapid", Delay: floatPtr(0.1)},
			},
		},
		{
			ID: "chain", Cooldown: 4, OnEnd: "assault_release",
			Phases: []config.Phase{{Damage: 1, Effect: &config.EffectRef{ID: "assault_engage", Count: 2}, QTE: "timing"}},
		},
		{ID: "sharp", Kind: "passive", OnEquip: &config.EffectRef{ID: "attack_boost", Amount: 50}},
	}}
}

func TestSkillBookExpandsRepeats(t *testing.T) {
	book, err := NewSkillBook(testSkills(), 0.3)
	if err != nil {
		t.Fatalf("new skill book: %v", err)
	}
	skills, err := book.Instantiate("flurry")
	if err != nil {
		t.Fatalf("instantiate: %v", err)
	}
	s := skills[0]
	if len(s.Phases) != 4 || !s.Area || s.CooldownTurns != 3 || s.Kind != Active {
		t.Fatalf("flurry: %d phases area=%v cooldown=%d", len(s.Phases), s.Area, s.CooldownTurns)
	}
	first := s.Phases[0]
	if first.Delay != 0.3 || first.Status == nil || first.Status.Type != Shock || first.Status.Tick != OnHitTaken {
		t.Fatalf("first phase %+v", first)
	}
	last := s.Phases[3]
	if !last.RequiresQTE || last.QTE != qte.RapidInput || last.Delay != 0.1 {
		t.Fatalf("last phase %+v", last)
	}
}

func TestSkillBookInstancesAreIndependent(t *testing.T) {
	book, err := NewSkillBook(testSkills(), 0.3)
	if err != nil {
		t.Fatalf("new skill book: %v", err)
	}
	a, _ := book.Instantiate("chain")
	b, _ := book.Instantiate("chain")
	a[0].CurrentCooldown = 4
	if b[0].CurrentCooldown != 0 {
		t.Fatalf("instances share cooldown state")
	}
	if a[0].OnEnd == nil || a[0].Phases[0].Effect == nil || a[0].Phases[0].EffectName != "assault_engage" {
		t.Fatalf("hooks not bound: %+v", a[0])
	}
}

func TestSkillBookPassiveEquip(t *testing.T) {
	book, err := NewSkillBook(testSkills(), 0.3)
	if err != nil {
		t.Fatalf("new skill book: %v", err)
	}
	skills, err := book.Instantiate("sharp")
	if err != nil {
		t.Fatalf("instantiate: %v", err)
	}
	a := newActor(ActorSpec{Name: "a", MaxHP: 10, Skills: skills})
	a.equipPassives()
	if a.BasicAttackBonus != 50 {
		t.Fatalf("bonus %d, want 50", a.BasicAttackBonus)
	}
}

func TestSkillBookErrors(t *testing.T) {
	book, err := NewSkillBook(testSkills(), 0.3)
	if err != nil {
		t.Fatalf("new skill book: %v", err)
	}
	if _, err := book.Instantiate("flurry", "nope"); !errors.Is(err, ErrUnknownSkill) {
		t.Fatalf("expected ErrUnknownSkill, got %v", err)
	}

	bad := &config.SkillsConfig{Skills: []config.Skill{
		{ID: "x", Phases: []config.Phase{{Effect: &config.EffectRef{ID: "teleport"}}}},
	}}
	if _, err := NewSkillBook(bad, 0.3); !errors.Is(err, ErrUnknownEffect) {
		t.Fatalf("expected ErrUnknownEffect, got %v", err)
	}

	for _, sk := range []config.Skill{
		{ID: "kind", Kind: "reactive"},
		{ID: "status", Phases: []config.Phase{{Status: &config.AppliedStatus{Type: "frost"}}}},
		{ID: "qte", Phases: []config.Phase{{QTE: "dance"}}},
		{ID: "end", OnEnd: "explode"},
	} {
		if _, err := NewSkillBook(&config.SkillsConfig{Skills: []config.Skill{sk}}, 0.3); err == nil {
			t.Fatalf("skill %s: expected error", sk.ID)
		}
	}
}

func TestDetonateBurnConsumesStacks(t *testing.T) {
	b, _ := newTestBattle(t, Deps{})
	sk := &Skill{ID: "boom", Phases: []AttackPhase{{Damage: 0, Effect: detonateBurn(config.EffectRef{Amount: 2})}}}
	mustSpawn(t, b, ActorSpec{Name: "hero", Side: Ally, Skills: []*Skill{sk}})
	foe := mustSpawn(t, b, ActorSpec{Name: "foe", Side: Enemy})
	b.Inspect(func() { foe.Status.Apply(StatusEffect{Type: Burn, Power: 3, Stack: 2}) })

	b.RequestSkillUse(0, 0)
	b.Tick(0.01)
	waitIdle(t, b)

	b.Inspect(func() {
		if foe.HP != 88 || foe.Status.Has(Burn) {
			t.Fatalf("hp %d burn %v", foe.HP, foe.Status.Has(Burn))
		}
	})
}

func TestSupportEffects(t *testing.T) {
	b, _ := newTestBattle(t, Deps{})
	sk := &Skill{ID: "support", Phases: []AttackPhase{{
		Damage: 0,
		Effect: func(ctx context.Context, c *Cast, target *Actor) error {
			for _, e := range []PhaseEffect{rally(config.EffectRef{Amount: 30}), haste(config.EffectRef{Amount: 50})} {
				if err := e(ctx, c, target); err != nil {
					return err
				}
			}
			return nil
		},
	}}}
	hero := mustSpawn(t, b, ActorSpec{Name: "hero", Side: Ally, Skills: []*Skill{sk}})
	buddy := mustSpawn(t, b, ActorSpec{Name: "buddy", Side: Ally, FollowUpChance: 10})
	mustSpawn(t, b, ActorSpec{Name: "foe", Side: Enemy})

	b.RequestSkillUse(0, 0)
	b.Tick(0.01)
	waitIdle(t, b)

	b.Inspect(func() {
		if buddy.FollowUpChance != 40 || !buddy.Status.Has(TeamworkUp) {
			t.Fatalf("rally: chance %d", buddy.FollowUpChance)
		}
		// The caster's end of turn ticks its own buffs once.
		if e, _ := hero.Status.Get(SpeedUp); e.Stack != 1 || hero.SpeedMultiplier != 1.5 {
			t.Fatalf("haste: %+v multiplier %v", e, hero.SpeedMultiplier)
		}
	})
}

func TestMendHealsAndShields(t *testing.T) {
	b, _ := newTestBattle(t, Deps{})
	sk := &Skill{ID: "mend", Phases: []AttackPhase{{Damage: 0, Effect: mend(config.EffectRef{Amount: 4})}}}
	hero := mustSpawn(t, b, ActorSpec{Name: "hero", Side: Ally, Skills: []*Skill{sk}})
	mustSpawn(t, b, ActorSpec{Name: "foe", Side: Enemy})
	b.Inspect(func() { hero.takeDamage(10) })

	b.RequestSkillUse(0, 0)
	b.Tick(0.01)
	waitIdle(t, b)

	b.Inspect(func() {
		if hero.HP != 94 || hero.Shield != 4 {
			t.Fatalf("hp %d shield %d", hero.HP, hero.Shield)
		}
		if e, _ := hero.Status.Get(HealOverTime); e.Stack != 2 {
			t.Fatalf("heal over time %+v", e)
		}
		if hero.Status.Has(Shield) {
			t.Fatalf("single-stack shield should be spent")
		}
	})
}

func TestCastAnnouncesPhaseEffects(t *testing.T) {
	book, err := NewSkillBook(testSkills(), 0.3)
	if err != nil {
		t.Fatalf("new skill book: %v", err)
	}
	chain, err := book.Instantiate("chain")
	if err != nil {
		t.Fatalf("instantiate: %v", err)
	}
	b, events := newTestBattle(t, Deps{QTE: qte.NewScripted(true)})
	mustSpawn(t, b, ActorSpec{Name: "lead", Side: Ally, Position: Vec2{-4, 2}, Skills: chain})
	mustSpawn(t, b, ActorSpec{Name: "left", Side: Ally, Position: Vec2{-4, 0.7}})
	mustSpawn(t, b, ActorSpec{Name: "foe", Side: Enemy, Position: Vec2{4, 2}})

	b.RequestSkillUse(0, 0)
	b.Tick(0.01)
	waitIdle(t, b)

	casts := events.OfType(EvCast)
	if len(casts) != 1 {
		t.Fatalf("casts: %d", len(casts))
	}
	effects, _ := casts[0].Payload["effects"].([]string)
	if len(effects) != 1 || effects[0] != "assault_engage" {
		t.Fatalf("cast effects %v", casts[0].Payload["effects"])
	}
}
