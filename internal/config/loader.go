package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Bundle is everything a battle needs from disk.
type Bundle struct {
	Battle *BattleConfig
	Decks  *DecksConfig
	Skills *SkillsConfig
}

func loadYAML(path string, out any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(b, out)
}

// LoadBattle reads battle tuning over the stock values, so keys absent from
// the file keep their default and explicit zeros are honoured. A missing
// file yields the defaults.
func LoadBattle(path string) (*BattleConfig, error) {
	bc := DefaultBattle()
	if err := loadYAML(path, bc); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	bc.normalize()
	return bc, nil
}

func LoadAll(dir string) (*Bundle, error) {
	bc, err := LoadBattle(filepath.Join(dir, "battle.yaml"))
	if err != nil {
		return nil, err
	}
	var dc DecksConfig
	if err := loadYAML(filepath.Join(dir, "decks.yaml"), &dc); err != nil {
		return nil, fmt.Errorf("load decks: %w", err)
	}
	var sc SkillsConfig
	if err := loadYAML(filepath.Join(dir, "skills.yaml"), &sc); err != nil {
		return nil, fmt.Errorf("load skills: %w", err)
	}
	if err := validate(&dc, &sc); err != nil {
		return nil, err
	}
	return &Bundle{Battle: bc, Decks: &dc, Skills: &sc}, nil
}

func validate(dc *DecksConfig, sc *SkillsConfig) error {
	skills := map[string]struct{}{}
	for _, s := range sc.Skills {
		if s.ID == "" {
			return fmt.Errorf("skills: entry %q missing id", s.Name)
		}
		if _, dup := skills[s.ID]; dup {
			return fmt.Errorf("skills: duplicate id %q", s.ID)
		}
		skills[s.ID] = struct{}{}
	}
	decks := map[string]struct{}{}
	for _, d := range dc.Decks {
		if d.ID == "" {
			return fmt.Errorf("decks: entry %q missing id", d.Name)
		}
		if _, dup := decks[d.ID]; dup {
			return fmt.Errorf("decks: duplicate id %q", d.ID)
		}
		decks[d.ID] = struct{}{}
		for _, m := range d.Members {
			for _, id := range m.Skills {
				if _, ok := skills[id]; !ok {
					return fmt.Errorf("deck %s: member %s references unknown skill %q", d.ID, m.Name, id)
				}
			}
		}
		for _, id := range d.Enemies.Skills {
			if _, ok := skills[id]; !ok {
				return fmt.Errorf("deck %s: enemies reference unknown skill %q", d.ID, id)
			}
		}
	}
	return nil
}
