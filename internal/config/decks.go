package config

type DecksConfig struct {
	Decks []DeckDef `yaml:"decks"`
}

type DeckDef struct {
	ID      string      `yaml:"id"`
	Name    string      `yaml:"name"`
	Members []MemberDef `yaml:"members"`
	Enemies EnemyDef    `yaml:"enemies"`
	Note    string      `yaml:"note"`
}

// MemberDef describes one ally. Speed wins over SpeedRange when set.
type MemberDef struct {
	Name           string   `yaml:"name"`
	MaxHP          int      `yaml:"max_hp"`
	Speed          int      `yaml:"speed"`
	SpeedRange     RangeDef `yaml:"speed_range"`
	Skills         []string `yaml:"skills"`
	FollowUpChance *int     `yaml:"follow_up_chance"`
	DefenseChance  *int     `yaml:"defense_chance"`
	Spawn          Vec2Def  `yaml:"spawn"`
	Note           string   `yaml:"note"`
}

type EnemyDef struct {
	Count      int      `yaml:"count"`
	NamePrefix string   `yaml:"name_prefix"`
	MaxHP      int      `yaml:"max_hp"`
	SpeedRange RangeDef `yaml:"speed_range"`
	Skills     []string `yaml:"skills"`
}

// Deck looks a deck up by id.
func (dc *DecksConfig) Deck(id string) (*DeckDef, bool) {
	if dc == nil {
		return nil, false
	}
	for i := range dc.Decks {
		if dc.Decks[i].ID == id {
			return &dc.Decks[i], true
		}
	}
	return nil, false
}
