package config

type SkillsConfig struct {
	Skills []Skill `yaml:"skills"`
}

type Skill struct {
	ID       string     `yaml:"id"`
	Name     string     `yaml:"name"`
	Kind     string     `yaml:"kind"`
	Cooldown int        `yaml:"cooldown"`
	Area     bool       `yaml:"area"`
	Phases   []Phase    `yaml:"phases"`
	OnEquip  *EffectRef `yaml:"on_equip"`
	OnEnd    string     `yaml:"on_end"`
	Note     string     `yaml:"note"`
}

// Phase is one scripted hit. Repeat > 1 expands into identical copies.
type Phase struct {
	Damage int            `yaml:"damage"`
	Status *AppliedStatus `yaml:"status"`
	QTE    string         `yaml:"qte"`
	Effect *EffectRef     `yaml:"effect"`
	Delay  *float64       `yaml:"delay"`
	Repeat int            `yaml:"repeat"`
}

type AppliedStatus struct {
	Type  string `yaml:"type"`
	Power int    `yaml:"power"`
	Stack int    `yaml:"stack"`
	Tick  string `yaml:"tick"`
	Buff  bool   `yaml:"buff"`
}

// EffectRef names a registered custom effect and its parameters.
type EffectRef struct {
	ID     string `yaml:"id"`
	Count  int    `yaml:"count"`
	Hits   int    `yaml:"hits"`
	Amount int    `yaml:"amount"`
}
