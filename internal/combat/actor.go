package combat

import "github.com/google/uuid"

// ActorSpec is what the roster hands the battle to create an actor.
type ActorSpec struct {
	Name           string
	Side           Side
	MaxHP          int
	HP             int
	Speed          float64
	FollowUpChance int
	DefenseChance  int
	Position       Vec2
	Skills         []*Skill
}

type Actor struct {
	ID   string
	Name string
	Side Side

	HP    int
	MaxHP int

	Speed           float64
	Gauge           float64
	SpeedMultiplier float64

	BasicAttackBonus   int
	DoubleAttackChance int
	FollowUpChance     int
	DefenseChance      int
	Shield             int

	// Position locks: a locked actor is left where a multi-actor sequence
	// put it until the sequence releases it.
	UnderAssault      bool
	WaitingForAssault bool

	Position         Vec2
	OriginalPosition Vec2

	Skills []*Skill
	Status *StatusStore

	queue       *actionQueue
	acting      bool
	knockedBack bool
}

func newActor(spec ActorSpec) *Actor {
	a := &Actor{
		ID:               uuid.NewString(),
		Name:             spec.Name,
		Side:             spec.Side,
		MaxHP:            spec.MaxHP,
		HP:               spec.HP,
		Speed:            spec.Speed,
		SpeedMultiplier:  1,
		FollowUpChance:   clampPercent(spec.FollowUpChance),
		DefenseChance:    clampPercent(spec.DefenseChance),
		Position:         spec.Position,
		OriginalPosition: spec.Position,
		Skills:           spec.Skills,
		queue:            newActionQueue(),
	}
	if a.MaxHP < 0 {
		a.MaxHP = 0
	}
	if a.HP <= 0 || a.HP > a.MaxHP {
		a.HP = a.MaxHP
	}
	a.Status = NewStatusStore(a)
	return a
}

func (a *Actor) Alive() bool   { return a != nil && a.HP > 0 }
func (a *Actor) IsEnemy() bool { return a.Side == Enemy }

// Locked reports whether a multi-actor sequence holds the actor in place.
func (a *Actor) Locked() bool { return a.UnderAssault || a.WaitingForAssault }

// Acting reports whether one of the actor's tasks is running.
func (a *Actor) Acting() bool { return a.acting }

// QueueLen is the number of tasks waiting in the actor's queue.
func (a *Actor) QueueLen() int { return a.queue.Len() }

// Restore puts the actor back on its resting position.
func (a *Actor) Restore() { a.Position = a.OriginalPosition }

// ReduceSkillCooldowns ticks every skill except the given one down by a turn.
func (a *Actor) ReduceSkillCooldowns(except *Skill) {
	for _, s := range a.Skills {
		if s == except {
			continue
		}
		if s.CurrentCooldown > 0 {
			s.CurrentCooldown--
		}
	}
}

// SkillAt returns the skill at i, or nil when out of range.
func (a *Actor) SkillAt(i int) *Skill {
	if i < 0 || i >= len(a.Skills) {
		return nil
	}
	return a.Skills[i]
}

// takeDamage removes amount from the shield first and then from hp. It
// returns what the shield absorbed and what hp actually lost.
func (a *Actor) takeDamage(amount int) (absorbed, dealt int) {
	if amount <= 0 || a.HP <= 0 {
		return 0, 0
	}
	if a.Shield > 0 {
		absorbed = min(a.Shield, amount)
		a.Shield -= absorbed
		amount -= absorbed
	}
	dealt = min(a.HP, amount)
	a.HP -= dealt
	return absorbed, dealt
}

// heal restores up to amount hp and returns what was restored.
func (a *Actor) heal(amount int) int {
	if amount <= 0 || a.HP <= 0 {
		return 0
	}
	n := min(a.MaxHP-a.HP, amount)
	a.HP += n
	return n
}

func (a *Actor) equipPassives() {
	for _, s := range a.Skills {
		if s.Kind == Passive && s.OnEquip != nil {
			s.OnEquip(a)
		}
	}
}

func livingOf(actors []*Actor) []*Actor {
	var out []*Actor
	for _, a := range actors {
		if a.Alive() {
			out = append(out, a)
		}
	}
	return out
}

func firstLiving(actors []*Actor) *Actor {
	for _, a := range actors {
		if a.Alive() {
			return a
		}
	}
	return nil
}
