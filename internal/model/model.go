package model

import (
	"fmt"
	"strings"
	"time"
)

// Side represents which role a team plays in a round.
type Side string

const (
	SideT  Side = "T"
	SideCT Side = "CT"
)

// ParseSide maps a raw side label onto a Side. Labels are case-insensitive.
func ParseSide(s string) (Side, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "T", "TERRORIST":
		return SideT, nil
	case "CT", "COUNTER_TERRORIST", "COUNTERTERRORIST":
		return SideCT, nil
	}
	return "", fmt.Errorf("unknown side %q", s)
}

func (s Side) String() string { return string(s) }

// Weapon classes as they appear in the telemetry inventory.
const (
	ClassPistol    = "Pistol"
	ClassSMG       = "SMG"
	ClassHeavy     = "Heavy"
	ClassRifle     = "Rifle"
	ClassEquipment = "Equipment"
	ClassGrenade   = "Grenade"
)

// Position is a 3D world-space position in Hammer units.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Item is one held inventory entry.
type Item struct {
	WeaponClass string `json:"weapon_class"`
	WeaponName  string `json:"weapon_name,omitempty"`
}

// Sample is one telemetry row: a player's state at one elapsed second.
type Sample struct {
	Team      string
	Side      Side
	Player    string
	Pos       Position
	AreaName  string
	Seconds   int // elapsed round time; resets to 0 on round restart
	IsAlive   bool
	Inventory []Item
}

// PrimaryClass returns the weapon class of the first inventory entry, or "" when empty.
func (s *Sample) PrimaryClass() string {
	if len(s.Inventory) == 0 {
		return ""
	}
	return s.Inventory[0].WeaponClass
}

// Key identifies a team playing one side.
type Key struct {
	Team string `json:"team"`
	Side Side   `json:"side"`
}

func (k Key) String() string { return k.Team + "/" + string(k.Side) }

// Less orders keys by team, then side.
func (k Key) Less(o Key) bool {
	if k.Team != o.Team {
		return k.Team < o.Team
	}
	return k.Side < o.Side
}

// Interval is an inclusive span of contiguous elapsed seconds.
type Interval struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

func (iv Interval) String() string { return fmt.Sprintf("%d-%d", iv.Start, iv.End) }

// Centroid is a floored mean position.
type Centroid struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

func (c Centroid) String() string { return fmt.Sprintf("(%d, %d, %d)", c.X, c.Y, c.Z) }

// ---- Stored records ----

// Dataset is a lightweight record for list/show commands.
type Dataset struct {
	ID          string // sha256 of the source file
	Name        string
	MapName     string // empty for tabular imports without map metadata
	SourcePath  string
	SampleCount int
	ImportedAt  time.Time
}

// Analysis kinds recorded in analysis_runs.
const (
	RunDominance = "dominance"
	RunEntryTime = "entry-time"
	RunHeatmap   = "heatmap"
)

// AnalysisRun is one recorded query and its outcome.
type AnalysisRun struct {
	ID        string
	DatasetID string
	Kind      string
	Team      string
	Side      string
	Area      string
	Result    string
	Err       string // non-empty when the query returned a domain error
	CreatedAt time.Time
}
