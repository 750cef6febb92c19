package combat

import (
	"fmt"
	"strings"
)

type StatusEffectType int

const (
	StatusNone StatusEffectType = iota
	Poison
	Bleed
	Burn
	Shock
	HealOverTime
	Shield
	SpeedUp
	TeamworkUp
)

var statusNames = [...]string{
	StatusNone:   "none",
	Poison:       "poison",
	Bleed:        "bleed",
	Burn:         "burn",
	Shock:        "shock",
	HealOverTime: "heal_over_time",
	Shield:       "shield",
	SpeedUp:      "speed_up",
	TeamworkUp:   "teamwork_up",
}

func (t StatusEffectType) String() string {
	if t >= 0 && int(t) < len(statusNames) {
		return statusNames[t]
	}
	return fmt.Sprintf("StatusEffectType(%d)", int(t))
}

// ParseStatusEffectType accepts the names used in skills.yaml.
func ParseStatusEffectType(s string) (StatusEffectType, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.ReplaceAll(key, "-", "_")
	switch key {
	case "", "none":
		return StatusNone, nil
	case "hot", "regen", "healovertime":
		return HealOverTime, nil
	case "speedup", "haste":
		return SpeedUp, nil
	case "teamworkup", "teamwork":
		return TeamworkUp, nil
	}
	for i, name := range statusNames {
		if name == key {
			return StatusEffectType(i), nil
		}
	}
	return StatusNone, fmt.Errorf("unknown status effect %q", s)
}

// Damaging reports whether the effect hurts its holder when it fires.
func (t StatusEffectType) Damaging() bool {
	switch t {
	case Poison, Bleed, Burn, Shock:
		return true
	}
	return false
}

type TickType int

const (
	EndOfTurn TickType = iota
	OnHitTaken
)

func (t TickType) String() string {
	if t == OnHitTaken {
		return "on_hit"
	}
	return "end_of_turn"
}

func ParseTickType(s string) (TickType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "end_of_turn", "endofturn", "turn":
		return EndOfTurn, nil
	case "on_hit", "onhit", "on_hit_taken", "onhittaken":
		return OnHitTaken, nil
	}
	return EndOfTurn, fmt.Errorf("unknown tick type %q", s)
}

// StatusEffect is one stacking entry. Stack counts remaining triggers; Power
// is the magnitude of each trigger.
type StatusEffect struct {
	Type  StatusEffectType
	Power int
	Stack int
	Tick  TickType
	Buff  bool

	// applied is the side effect currently granted to the holder by a buff.
	// Removal takes back exactly this much.
	applied float64
}

// StatusStore holds at most one entry per type, in first-application order.
type StatusStore struct {
	owner   *Actor
	entries map[StatusEffectType]*StatusEffect
	order   []StatusEffectType
}

func NewStatusStore(owner *Actor) *StatusStore {
	return &StatusStore{owner: owner, entries: map[StatusEffectType]*StatusEffect{}}
}

// Apply merges e into the store. An existing entry of the same type gains
// e's power and stack; otherwise a copy of e is inserted.
func (s *StatusStore) Apply(e StatusEffect) {
	if e.Type == StatusNone {
		return
	}
	cur, ok := s.entries[e.Type]
	oldPower := 0
	if ok {
		oldPower = cur.Power
		cur.Power += e.Power
		cur.Stack += e.Stack
	} else {
		c := e
		c.applied = 0
		cur = &c
		s.entries[c.Type] = cur
		s.order = append(s.order, c.Type)
	}
	if cur.Type == TeamworkUp {
		cur.Power = clampPercent(cur.Power)
	}
	if cur.Buff {
		s.grant(cur, cur.Power-oldPower)
	}
}

// Get returns a copy of the entry for t.
func (s *StatusStore) Get(t StatusEffectType) (StatusEffect, bool) {
	cur, ok := s.entries[t]
	if !ok {
		return StatusEffect{}, false
	}
	return *cur, true
}

func (s *StatusStore) Has(t StatusEffectType) bool {
	_, ok := s.entries[t]
	return ok
}

// Update mutates the entry for t in place. Buff side effects follow the
// power change, and an entry left with no stack is removed.
func (s *StatusStore) Update(t StatusEffectType, fn func(e *StatusEffect)) bool {
	cur, ok := s.entries[t]
	if !ok {
		return false
	}
	oldPower := cur.Power
	fn(cur)
	cur.Type = t
	if t == TeamworkUp {
		cur.Power = clampPercent(cur.Power)
	}
	if cur.Buff && cur.Power != oldPower {
		s.grant(cur, cur.Power-oldPower)
	}
	if cur.Stack <= 0 {
		s.Remove(t)
	}
	return true
}

// Remove deletes the entry for t and reverses its buff side effect.
func (s *StatusStore) Remove(t StatusEffectType) bool {
	cur, ok := s.entries[t]
	if !ok {
		return false
	}
	if cur.Buff {
		s.revoke(cur)
	}
	delete(s.entries, t)
	for i, v := range s.order {
		if v == t {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

func (s *StatusStore) Clear() {
	for _, t := range append([]StatusEffectType(nil), s.order...) {
		s.Remove(t)
	}
}

func (s *StatusStore) Len() int { return len(s.order) }

// Entries snapshots the store in application order.
func (s *StatusStore) Entries() []StatusEffect {
	out := make([]StatusEffect, 0, len(s.order))
	for _, t := range s.order {
		out = append(out, *s.entries[t])
	}
	return out
}

// TickEndOfTurn decrements every end-of-turn entry and drops the expired
// ones. It returns the non-buff entries that fired, with their power at the
// time of firing, for the caller to resolve.
func (s *StatusStore) TickEndOfTurn() []StatusEffect {
	var fired []StatusEffect
	var expired []StatusEffectType
	for _, t := range s.order {
		cur := s.entries[t]
		if cur.Tick != EndOfTurn {
			continue
		}
		if !cur.Buff {
			fired = append(fired, *cur)
		}
		cur.Stack--
		if cur.Stack <= 0 {
			expired = append(expired, t)
		}
	}
	for _, t := range expired {
		s.Remove(t)
	}
	return fired
}

// ConsumeOnHit fires every damaging on-hit entry once, ahead of an incoming
// hit. Each fired entry loses a stack and is removed when none remain.
func (s *StatusStore) ConsumeOnHit() []StatusEffect {
	var fired []StatusEffect
	var expired []StatusEffectType
	for _, t := range s.order {
		cur := s.entries[t]
		if cur.Tick != OnHitTaken || cur.Buff || !t.Damaging() || cur.Stack <= 0 {
			continue
		}
		fired = append(fired, *cur)
		cur.Stack--
		if cur.Stack <= 0 {
			expired = append(expired, t)
		}
	}
	for _, t := range expired {
		s.Remove(t)
	}
	return fired
}

func (s *StatusStore) grant(cur *StatusEffect, delta int) {
	a := s.owner
	if a == nil || delta == 0 {
		return
	}
	switch cur.Type {
	case SpeedUp:
		before := a.SpeedMultiplier
		a.SpeedMultiplier += float64(delta) / 100
		if a.SpeedMultiplier < 0 {
			a.SpeedMultiplier = 0
		}
		cur.applied += a.SpeedMultiplier - before
	case TeamworkUp:
		before := a.FollowUpChance
		a.FollowUpChance = clampPercent(before + delta)
		cur.applied += float64(a.FollowUpChance - before)
	}
}

func (s *StatusStore) revoke(cur *StatusEffect) {
	a := s.owner
	if a == nil || cur.applied == 0 {
		return
	}
	switch cur.Type {
	case SpeedUp:
		a.SpeedMultiplier -= cur.applied
		if a.SpeedMultiplier < 0 {
			a.SpeedMultiplier = 0
		}
	case TeamworkUp:
		a.FollowUpChance = clampPercent(a.FollowUpChance - int(cur.applied))
	}
	cur.applied = 0
}

func clampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
