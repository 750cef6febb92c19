// Package roster builds battle lineups from deck definitions.
package roster

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"atb_battle/internal/combat"
	"atb_battle/internal/config"
	"atb_battle/internal/util"
)

var ErrUnknownDeck = errors.New("unknown deck")

// Resting layout used when a deck does not place its members.
var (
	allyColumn  = combat.Vec2{X: -4, Y: 2}
	enemyColumn = combat.Vec2{X: 4, Y: 2}
	rowSpacing  = 1.3
)

// Decks implements combat.Roster over decks.yaml.
type Decks struct {
	cfg    *config.DecksConfig
	book   *combat.SkillBook
	rng    *util.Roller
	log    *zap.Logger
	chance config.ChanceConfig
}

func New(cfg *config.DecksConfig, book *combat.SkillBook, chances config.ChanceConfig, rng *util.Roller, log *zap.Logger) *Decks {
	if rng == nil {
		rng = util.NewRoller(1)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Decks{cfg: cfg, book: book, rng: rng, log: log, chance: chances}
}

// IDs lists the configured deck ids in file order.
func (d *Decks) IDs() []string {
	if d.cfg == nil {
		return nil
	}
	ids := make([]string, 0, len(d.cfg.Decks))
	for _, dk := range d.cfg.Decks {
		ids = append(ids, dk.ID)
	}
	return ids
}

func (d *Decks) Lineup(deckID string) (combat.Lineup, error) {
	deck, ok := d.cfg.Deck(deckID)
	if !ok {
		return combat.Lineup{}, fmt.Errorf("%w %q", ErrUnknownDeck, deckID)
	}
	var lu combat.Lineup
	for i, m := range deck.Members {
		spec, err := d.member(i, m)
		if err != nil {
			return combat.Lineup{}, fmt.Errorf("deck %s: %w", deckID, err)
		}
		lu.Allies = append(lu.Allies, spec)
	}
	enemies, err := d.enemies(deck.Enemies)
	if err != nil {
		return combat.Lineup{}, fmt.Errorf("deck %s: %w", deckID, err)
	}
	lu.Enemies = enemies
	d.log.Debug("lineup built", zap.String("deck", deckID),
		zap.Int("allies", len(lu.Allies)), zap.Int("enemies", len(lu.Enemies)))
	return lu, nil
}

func (d *Decks) member(i int, m config.MemberDef) (combat.ActorSpec, error) {
	skills, err := d.book.Instantiate(m.Skills...)
	if err != nil {
		return combat.ActorSpec{}, fmt.Errorf("member %s: %w", m.Name, err)
	}
	speed := float64(m.Speed)
	if speed <= 0 {
		speed = float64(d.roll(m.SpeedRange, 5, 19))
	}
	spec := combat.ActorSpec{
		Name:           m.Name,
		Side:           combat.Ally,
		MaxHP:          orDefault(m.MaxHP, 100),
		Speed:          speed,
		FollowUpChance: d.chance.FollowUp,
		DefenseChance:  d.chance.Defense,
		Position:       slot(allyColumn, i),
		Skills:         skills,
	}
	if m.FollowUpChance != nil {
		spec.FollowUpChance = *m.FollowUpChance
	}
	if m.DefenseChance != nil {
		spec.DefenseChance = *m.DefenseChance
	}
	if m.Spawn != (config.Vec2Def{}) {
		spec.Position = combat.Vec2{X: m.Spawn.X, Y: m.Spawn.Y}
	}
	return spec, nil
}

func (d *Decks) enemies(e config.EnemyDef) ([]combat.ActorSpec, error) {
	count := orDefault(e.Count, 4)
	prefix := e.NamePrefix
	if prefix == "" {
		prefix = "Enemy"
	}
	out := make([]combat.ActorSpec, 0, count)
	for i := 0; i < count; i++ {
		skills, err := d.book.Instantiate(e.Skills...)
		if err != nil {
			return nil, fmt.Errorf("enemies: %w", err)
		}
		out = append(out, combat.ActorSpec{
			Name:     fmt.Sprintf("%s %d", prefix, i+1),
			Side:     combat.Enemy,
			MaxHP:    orDefault(e.MaxHP, 100),
			Speed:    float64(d.roll(e.SpeedRange, 5, 19)),
			Position: slot(enemyColumn, i),
			Skills:   skills,
		})
	}
	return out, nil
}

func (d *Decks) roll(r config.RangeDef, lo, hi int) int {
	if r.Min == 0 && r.Max == 0 {
		r = config.RangeDef{Min: lo, Max: hi}
	}
	return d.rng.Range(r.Min, r.Max)
}

func slot(base combat.Vec2, i int) combat.Vec2 {
	return base.Add(combat.Vec2{Y: -rowSpacing * float64(i)})
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
