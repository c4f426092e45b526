package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pable/go-cs-zones/internal/analysis"
	"github.com/pable/go-cs-zones/internal/config"
	"github.com/pable/go-cs-zones/internal/logging"
	"github.com/pable/go-cs-zones/internal/storage"
)

var (
	cfgFile string
	noColor bool

	cfg *config.Config
	log = zerolog.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "cszones",
	Short: "CS match telemetry zone analytics",
	Long: "Import CS match telemetry and answer zone questions: who holds the chokepoint,\n" +
		"when a side enters a site, and where it waits inside one.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(cfgFile, cmd.Flags())
		if err != nil {
			return err
		}
		cfg = c
		log = logging.New(os.Stderr, cfg.LogLevel, noColor)
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML, JSON or TOML)")
	rootCmd.PersistentFlags().String("db", "", "path to SQLite database (default ~/.cszones/zones.db)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: trace, debug, info, warn, error, off")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored log output")

	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(dominanceCmd)
	rootCmd.AddCommand(entryTimeCmd)
	rootCmd.AddCommand(heatmapCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(shellCmd)
	rootCmd.AddCommand(sqlCmd)
	rootCmd.AddCommand(dropCmd)
}

// openStore opens the configured database, creating its directory if needed.
func openStore() (*storage.DB, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.DB), 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := storage.Open(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	return db, nil
}

// newService builds an analysis service over db using the configured
// chokepoint and analyzer settings.
func newService(db *storage.DB, opts ...analysis.Option) *analysis.Service {
	opts = append([]analysis.Option{
		analysis.WithLogger(log),
		analysis.WithAnalyzerOptions(cfg.AnalyzerOptions(log)...),
	}, opts...)
	return analysis.NewService(db, cfg.Chokepoint, opts...)
}
