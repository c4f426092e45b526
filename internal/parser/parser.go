// Package parser turns CS2 demos into per-second telemetry samples.
package parser

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	demoinfocs "github.com/markus-wa/demoinfocs-golang/v4/pkg/demoinfocs"
	common "github.com/markus-wa/demoinfocs-golang/v4/pkg/demoinfocs/common"
	"github.com/markus-wa/demoinfocs-golang/v4/pkg/demoinfocs/events"
	"github.com/rs/zerolog"

	"github.com/pable/go-cs-zones/internal/model"
)

// Demo is the sampled content of one demo file.
type Demo struct {
	Hash    string // sha256 of the file, used as the dataset ID
	MapName string
	Rounds  int
	Samples []model.Sample
}

// ParseDemo parses the demo at path and samples every playing participant
// once per elapsed second of live round time.
func ParseDemo(path string, log zerolog.Logger) (*Demo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open demo: %w", err)
	}
	defer f.Close()

	// Hash file for idempotency key.
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return nil, fmt.Errorf("hash demo: %w", err)
	}
	demo := &Demo{Hash: fmt.Sprintf("%x", h.Sum(nil))}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek demo: %w", err)
	}

	p := demoinfocs.NewParser(f)
	defer p.Close()

	var (
		live       bool
		freezeEnd  time.Duration
		lastSecond int
	)
	labels := newTeamLabels()

	p.RegisterEventHandler(func(e events.RoundStart) {
		live = false
	})

	p.RegisterEventHandler(func(e events.RoundFreezetimeEnd) {
		if p.GameState().IsWarmupPeriod() {
			return
		}
		demo.Rounds++
		live = true
		freezeEnd = p.CurrentTime()
		lastSecond = -1
	})

	p.RegisterEventHandler(func(e events.RoundEnd) {
		live = false
	})

	p.RegisterEventHandler(func(e events.FrameDone) {
		if !live {
			return
		}
		sec := int((p.CurrentTime() - freezeEnd) / time.Second)
		if sec <= lastSecond {
			return
		}
		lastSecond = sec

		gs := p.GameState()
		for _, pl := range gs.Participants().Playing() {
			if pl == nil {
				continue
			}
			side, ok := sideFromTeam(pl.Team)
			if !ok {
				continue
			}
			clan := ""
			if ts := gs.Team(pl.Team); ts != nil {
				clan = ts.ClanName()
			}
			pos := pl.Position()
			demo.Samples = append(demo.Samples, model.Sample{
				Team:      labels.label(pl.Name, clan, side),
				Side:      side,
				Player:    pl.Name,
				Pos:       model.Position{X: pos.X, Y: pos.Y, Z: pos.Z},
				AreaName:  pl.LastPlaceName(),
				Seconds:   sec,
				IsAlive:   pl.IsAlive(),
				Inventory: inventory(pl.ActiveWeapon(), pl.Weapons()),
			})
		}
	})

	if err := p.ParseToEnd(); err != nil {
		return nil, fmt.Errorf("parse demo: %w", err)
	}
	demo.MapName = p.Header().MapName

	log.Debug().Str("map", demo.MapName).Int("rounds", demo.Rounds).Int("samples", len(demo.Samples)).Msg("demo sampled")
	return demo, nil
}

func sideFromTeam(t common.Team) (model.Side, bool) {
	switch t {
	case common.TeamTerrorists:
		return model.SideT, true
	case common.TeamCounterTerrorists:
		return model.SideCT, true
	default:
		return "", false
	}
}

// teamLabels names teams by clan when the server sets one. Without clan
// names, players are labelled by the side they were first seen on:
// Team1 for the starting CT side, Team2 for the starting T side.
type teamLabels struct {
	firstSide map[string]model.Side
}

func newTeamLabels() *teamLabels {
	return &teamLabels{firstSide: make(map[string]model.Side)}
}

func (l *teamLabels) label(player, clan string, side model.Side) string {
	if _, ok := l.firstSide[player]; !ok {
		l.firstSide[player] = side
	}
	if clan != "" {
		return clan
	}
	if l.firstSide[player] == model.SideCT {
		return "Team1"
	}
	return "Team2"
}

func weaponClass(c common.EquipmentClass) string {
	switch c {
	case common.EqClassPistols:
		return model.ClassPistol
	case common.EqClassSMG:
		return model.ClassSMG
	case common.EqClassHeavy:
		return model.ClassHeavy
	case common.EqClassRifle:
		return model.ClassRifle
	case common.EqClassEquipment:
		return model.ClassEquipment
	case common.EqClassGrenade:
		return model.ClassGrenade
	default:
		return ""
	}
}

// inventory lists held equipment with the active weapon first. The rest are
// ordered by class then name, since Weapons() has no stable order.
func inventory(active *common.Equipment, held []*common.Equipment) []model.Item {
	var items []model.Item
	toItem := func(eq *common.Equipment) (model.Item, bool) {
		if eq == nil || eq.Type == common.EqUnknown {
			return model.Item{}, false
		}
		class := weaponClass(eq.Type.Class())
		if class == "" {
			return model.Item{}, false
		}
		return model.Item{WeaponClass: class, WeaponName: eq.Type.String()}, true
	}

	if it, ok := toItem(active); ok {
		items = append(items, it)
	}
	var rest []model.Item
	for _, eq := range held {
		if eq == nil || eq == active {
			continue
		}
		if it, ok := toItem(eq); ok {
			rest = append(rest, it)
		}
	}
	sort.Slice(rest, func(i, j int) bool {
		if rest[i].WeaponClass != rest[j].WeaponClass {
			return rest[i].WeaponClass < rest[j].WeaponClass
		}
		return rest[i].WeaponName < rest[j].WeaponName
	})
	return append(items, rest...)
}
