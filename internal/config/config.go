// Package config loads layered settings: defaults, an optional config file,
// CSZONES_* environment variables and bound command-line flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pable/go-cs-zones/internal/aggregator"
	"github.com/pable/go-cs-zones/internal/geometry"
	"github.com/pable/go-cs-zones/internal/model"
)

// EnvPrefix namespaces environment overrides, e.g. CSZONES_ROSTER_Z_MIN.
const EnvPrefix = "CSZONES"

// Config is the resolved, validated configuration.
type Config struct {
	DB       string
	LogLevel string

	Chokepoint   geometry.Polygon
	ZMin, ZMax   float64
	EntrySide    model.Side
	EntryClasses []string
	HeatmapSide  model.Side

	ServeAddr string
	AskModel  string
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"db":        "db",
	"log-level": "log_level",
	"addr":      "serve.addr",
	"model":     "ask.model",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("db", filepath.Join(userHome(), ".cszones", "zones.db"))
	v.SetDefault("log_level", "info")

	v.SetDefault("chokepoint.wkt", "")
	v.SetDefault("roster.z_min", aggregator.DefaultZMin)
	v.SetDefault("roster.z_max", aggregator.DefaultZMax)

	v.SetDefault("entry.side", string(model.SideT))
	v.SetDefault("entry.weapon_classes", aggregator.DefaultEntryClasses)
	v.SetDefault("heatmap.side", string(model.SideCT))

	v.SetDefault("serve.addr", "127.0.0.1:8080")
	v.SetDefault("ask.model", "claude-sonnet-4-5")
}

// Load resolves configuration. file may be empty, in which case no config
// file is read; its format follows the extension. flags may be nil.
func Load(file string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		DB:        v.GetString("db"),
		LogLevel:  v.GetString("log_level"),
		ZMin:      v.GetFloat64("roster.z_min"),
		ZMax:      v.GetFloat64("roster.z_max"),
		ServeAddr: v.GetString("serve.addr"),
		AskModel:  v.GetString("ask.model"),
	}

	if wkt := strings.TrimSpace(v.GetString("chokepoint.wkt")); wkt != "" {
		poly, err := geometry.ParseWKT(wkt)
		if err != nil {
			return nil, fmt.Errorf("chokepoint.wkt: %w", err)
		}
		cfg.Chokepoint = poly
	} else {
		cfg.Chokepoint = geometry.MustDefault()
	}

	if cfg.ZMin > cfg.ZMax {
		return nil, fmt.Errorf("roster z band inverted: z_min %g > z_max %g", cfg.ZMin, cfg.ZMax)
	}

	var err error
	if cfg.EntrySide, err = model.ParseSide(v.GetString("entry.side")); err != nil {
		return nil, fmt.Errorf("entry.side: %w", err)
	}
	if cfg.HeatmapSide, err = model.ParseSide(v.GetString("heatmap.side")); err != nil {
		return nil, fmt.Errorf("heatmap.side: %w", err)
	}

	// Env values arrive as one string; accept comma-separated lists there.
	for _, item := range v.GetStringSlice("entry.weapon_classes") {
		for _, c := range strings.Split(item, ",") {
			if c = strings.TrimSpace(c); c != "" {
				cfg.EntryClasses = append(cfg.EntryClasses, c)
			}
		}
	}
	if len(cfg.EntryClasses) == 0 {
		return nil, fmt.Errorf("entry.weapon_classes: at least one class required")
	}

	if _, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel)); err != nil {
		return nil, fmt.Errorf("log_level: %w", err)
	}
	return cfg, nil
}

// AnalyzerOptions translates the analysis settings into aggregator options.
func (c *Config) AnalyzerOptions(log zerolog.Logger) []aggregator.Option {
	return []aggregator.Option{
		aggregator.WithZBand(c.ZMin, c.ZMax),
		aggregator.WithEntrySide(c.EntrySide),
		aggregator.WithHeatmapSide(c.HeatmapSide),
		aggregator.WithEntryClasses(c.EntryClasses...),
		aggregator.WithLogger(log),
	}
}

func userHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
