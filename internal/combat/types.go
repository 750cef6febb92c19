package combat

// Event is a presentation-bridge notification. The core never reads them back.
type Event struct {
	T       float64        `json:"t"`
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
}

const (
	EvSpawn         = "Spawn"
	EvDespawn       = "Despawn"
	EvMove          = "Move"
	EvRestore       = "Restore"
	EvCameraFocus   = "CameraFocus"
	EvCameraZoomOut = "CameraZoomOut"
	EvScreenShake   = "ScreenShake"
	EvNumber        = "Number"
	EvHit           = "Hit"
	EvDeath         = "Death"
	EvCast          = "Cast"
	EvSkillRejected = "SkillRejected"
	EvApplyStatus   = "ApplyStatus"
	EvRemoveStatus  = "RemoveStatus"
	EvQTERequested  = "QTERequested"
	EvQTEResolved   = "QTEResolved"
	EvFollowUp      = "FollowUp"
	EvCounter       = "Counter"
	EvTargetChanged = "TargetChanged"
	EvDeckSwitched  = "DeckSwitched"
	EvUIRefresh     = "UIRefresh"
	EvLogLine       = "LogLine"
)

// Number categories carried in EvNumber payloads.
const (
	NumberDamage = "damage"
	NumberStatus = "status"
	NumberHeal   = "heal"
	NumberShield = "shield"
)

// DamageSource tells presentation how a hit was produced.
type DamageSource int

const (
	SourceDirect DamageSource = iota
	SourceStatus
)

type Side int

const (
	Ally Side = iota
	Enemy
)

func (s Side) String() string {
	if s == Enemy {
		return "enemy"
	}
	return "ally"
}

// Outcome of a battle as seen by the scheduler.
type Outcome int

const (
	Ongoing Outcome = iota
	AlliesWin
	EnemiesWin
)

func (o Outcome) String() string {
	switch o {
	case AlliesWin:
		return "allies_win"
	case EnemiesWin:
		return "enemies_win"
	}
	return "ongoing"
}
