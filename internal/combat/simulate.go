package combat

import (
	"context"
	"encoding/json"
	"fmt"
)

// SimOptions drive a headless run.
type SimOptions struct {
	Deck  string
	Limit float64
	// SkillInterval, when positive, requests a random usable active skill of
	// a random living ally every that many seconds of battle time.
	SkillInterval float64
	Record        bool
}

type SimResult struct {
	Win           bool           `json:"win"`
	Outcome       string         `json:"outcome"`
	Deck          string         `json:"deck"`
	Duration      float64        `json:"duration"`
	Ticks         int            `json:"ticks"`
	DamageByActor map[string]int `json:"damage_by_actor"`
	DamageTaken   map[string]int `json:"damage_taken"`
	StatusDamage  map[string]int `json:"status_damage,omitempty"`
	Casts         map[string]int `json:"casts,omitempty"`
	QTE           SimQTE         `json:"qte"`
	FollowUps     int            `json:"follow_ups"`
	Counters      int            `json:"counters"`
	Events        []Event        `json:"events,omitempty"`
	Meta          SimMeta        `json:"meta"`
}

type SimQTE struct {
	Requested int `json:"requested"`
	Succeeded int `json:"succeeded"`
}

type SimMeta struct {
	Allies  []SimActorMeta `json:"allies"`
	Enemies []SimActorMeta `json:"enemies"`
	Notes   []string       `json:"notes,omitempty"`
}

type SimActorMeta struct {
	Name   string   `json:"name"`
	MaxHP  int      `json:"max_hp"`
	HP     int      `json:"hp"`
	Speed  float64  `json:"speed"`
	Skills []string `json:"skills,omitempty"`
}

// RunSingle switches b to opts.Deck and ticks it until one side is down or
// the time limit passes, waiting for every action between ticks. The
// battle's presenter must be an *EventLog for the damage tallies.
func RunSingle(ctx context.Context, b *Battle, opts SimOptions) (SimResult, error) {
	if opts.Deck != "" {
		if err := b.SwitchDeck(opts.Deck); err != nil {
			return SimResult{}, err
		}
	}
	if opts.Limit <= 0 {
		opts.Limit = 120
	}
	events, _ := b.pres.(*EventLog)
	skip := 0
	if events != nil {
		skip = len(events.Events())
	}

	res := SimResult{Deck: b.Deck()}
	nextSkill := opts.SkillInterval
	for b.Time() < opts.Limit && b.Outcome() == Ongoing {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if opts.SkillInterval > 0 && b.Time() >= nextSkill {
			b.requestRandomSkill()
			nextSkill = b.Time() + opts.SkillInterval
		}
		b.Tick(b.cfg.Tick)
		res.Ticks++
		if err := b.WaitIdle(ctx); err != nil {
			return res, fmt.Errorf("wait idle: %w", err)
		}
	}

	outcome := b.Outcome()
	res.Outcome = outcome.String()
	res.Win = outcome == AlliesWin
	res.Duration = b.Time()
	res.Meta = b.meta()
	if events != nil {
		all := events.Events()[skip:]
		fold(&res, all)
		if opts.Record {
			res.Events = all
		}
	}
	return res, nil
}

func (b *Battle) requestRandomSkill() {
	type pick struct{ actor, skill int }
	var picks []pick
	b.Inspect(func() {
		for i, a := range b.allies {
			if !a.Alive() {
				continue
			}
			for j, s := range a.Skills {
				if s.Kind == Active && s.CanUse() {
					picks = append(picks, pick{i, j})
				}
			}
		}
	})
	if i := b.rng.Pick(len(picks)); i >= 0 {
		b.RequestSkillUse(picks[i].actor, picks[i].skill)
	}
}

func (b *Battle) meta() SimMeta {
	b.mu.Lock()
	defer b.mu.Unlock()
	var m SimMeta
	describe := func(a *Actor) SimActorMeta {
		am := SimActorMeta{Name: a.Name, MaxHP: a.MaxHP, HP: a.HP, Speed: a.Speed}
		for _, s := range a.Skills {
			am.Skills = append(am.Skills, s.ID)
			if s.Note != "" {
				m.Notes = append(m.Notes, a.Name+": "+s.label()+": "+s.Note)
			}
		}
		return am
	}
	for _, a := range b.allies {
		m.Allies = append(m.Allies, describe(a))
	}
	for _, a := range b.enemies {
		m.Enemies = append(m.Enemies, describe(a))
	}
	return m
}

func fold(res *SimResult, events []Event) {
	res.DamageByActor = map[string]int{}
	res.DamageTaken = map[string]int{}
	res.StatusDamage = map[string]int{}
	res.Casts = map[string]int{}
	for _, ev := range events {
		switch ev.Type {
		case EvHit:
			dmg, _ := ev.Payload["dmg"].(int)
			target, _ := ev.Payload["target"].(string)
			res.DamageTaken[target] += dmg
			if src, _ := ev.Payload["source"].(string); src != "" {
				res.DamageByActor[src] += dmg
			}
			if origin, _ := ev.Payload["origin"].(string); origin == "status" {
				kind, _ := ev.Payload["kind"].(string)
				res.StatusDamage[kind] += dmg
			}
		case EvCast:
			skill, _ := ev.Payload["skill"].(string)
			res.Casts[skill]++
		case EvQTERequested:
			res.QTE.Requested++
		case EvQTEResolved:
			if ok, _ := ev.Payload["success"].(bool); ok {
				res.QTE.Succeeded++
			}
		case EvFollowUp:
			res.FollowUps++
		case EvCounter:
			res.Counters++
		}
	}
}

func MarshalPretty(v any) []byte {
	b, _ := json.MarshalIndent(v, "", "  ")
	return b
}
