package aggregator

import (
	"github.com/rs/zerolog"

	"github.com/pable/go-cs-zones/internal/model"
)

// Default analysis parameters.
const (
	DefaultZMin = 285.0
	DefaultZMax = 421.0
)

// DefaultEntryClasses are the weapon classes that qualify a sample for entry timing.
var DefaultEntryClasses = []string{model.ClassRifle, model.ClassSMG}

type settings struct {
	zMin, zMax   float64
	entrySide    model.Side
	heatmapSide  model.Side
	entryClasses []string
	log          zerolog.Logger
}

func defaultSettings() settings {
	return settings{
		zMin:         DefaultZMin,
		zMax:         DefaultZMax,
		entrySide:    model.SideT,
		heatmapSide:  model.SideCT,
		entryClasses: DefaultEntryClasses,
		log:          zerolog.Nop(),
	}
}

// Option configures an Analyzer.
type Option func(*settings)

// WithZBand sets the accepted vertical band for the roster and dominance points.
func WithZBand(zMin, zMax float64) Option {
	return func(s *settings) {
		s.zMin, s.zMax = zMin, zMax
	}
}

// WithEntrySide sets the side label samples must carry for entry timing,
// regardless of the side being queried. Defaults to T.
func WithEntrySide(side model.Side) Option {
	return func(s *settings) {
		if side != "" {
			s.entrySide = side
		}
	}
}

// WithHeatmapSide sets the side label samples must carry for the heat
// centroid, regardless of the side being queried. Defaults to CT.
func WithHeatmapSide(side model.Side) Option {
	return func(s *settings) {
		if side != "" {
			s.heatmapSide = side
		}
	}
}

// WithEntryClasses sets the weapon classes that qualify a sample for entry timing.
func WithEntryClasses(classes ...string) Option {
	return func(s *settings) {
		if len(classes) > 0 {
			s.entryClasses = append([]string(nil), classes...)
		}
	}
}

// WithLogger attaches a logger for debug tracing of per-player extraction.
func WithLogger(l zerolog.Logger) Option {
	return func(s *settings) {
		s.log = l
	}
}
