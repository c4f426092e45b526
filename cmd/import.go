package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pable/go-cs-zones/internal/model"
	"github.com/pable/go-cs-zones/internal/parser"
	"github.com/pable/go-cs-zones/internal/report"
	"github.com/pable/go-cs-zones/internal/telemetry"
)

var (
	importName  string
	importMap   string
	importForce bool
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a telemetry export or a .dem demo as a dataset",
	Long: `Import telemetry and store it as a dataset keyed by the file's sha256.

Accepted inputs:
  .jsonl / .json            one row per sample, or a JSON array of rows
  .gz / .bz2 / .zst         any of the above, compressed
  .dem                      a CS demo, sampled once per round second after freeze time`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&importName, "name", "", "dataset name (default: file name)")
	importCmd.Flags().StringVar(&importMap, "map", "", "map name for exports without map metadata")
	importCmd.Flags().BoolVarP(&importForce, "force", "f", false, "re-import even if the dataset is already stored")
}

func runImport(cmd *cobra.Command, args []string) error {
	path := args[0]

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	start := time.Now()
	ds := model.Dataset{
		Name:       importName,
		MapName:    importMap,
		SourcePath: path,
	}
	if ds.Name == "" {
		ds.Name = datasetName(path)
	}

	var samples []model.Sample
	if strings.EqualFold(filepath.Ext(path), ".dem") {
		log.Info().Str("file", path).Msg("parsing demo")
		demo, err := parser.ParseDemo(path, log)
		if err != nil {
			return fmt.Errorf("parse demo: %w", err)
		}
		ds.ID = demo.Hash
		samples = demo.Samples
		if ds.MapName == "" {
			ds.MapName = demo.MapName
		}
		log.Debug().Int("rounds", demo.Rounds).Msg("demo parsed")
	} else {
		if !telemetry.IsTabular(path) {
			return fmt.Errorf("unsupported input %s: expected .jsonl, .json (optionally compressed) or .dem", path)
		}
		samples, ds.ID, err = telemetry.LoadFile(path)
		if err != nil {
			return fmt.Errorf("load telemetry: %w", err)
		}
	}

	exists, err := db.DatasetExists(ds.ID)
	if err != nil {
		return fmt.Errorf("check dataset: %w", err)
	}
	if exists && !importForce {
		fmt.Fprintf(os.Stdout, "Dataset %s already stored. Use --force to re-import.\n", report.ShortID(ds.ID))
		return nil
	}

	if err := db.InsertDataset(ds, samples); err != nil {
		return fmt.Errorf("insert dataset: %w", err)
	}
	log.Info().Str("dataset", report.ShortID(ds.ID)).Int("samples", len(samples)).
		Dur("took", time.Since(start)).Msg("dataset imported")

	stored, err := db.GetDatasetByPrefix(ds.ID)
	if err != nil {
		return fmt.Errorf("reload dataset: %w", err)
	}
	if stored == nil {
		return fmt.Errorf("dataset %s missing after insert", report.ShortID(ds.ID))
	}
	report.PrintDatasetSummary(os.Stdout, *stored)
	return nil
}

// datasetName strips directories and every extension from path.
func datasetName(path string) string {
	name := filepath.Base(path)
	if i := strings.IndexByte(name, '.'); i > 0 {
		name = name[:i]
	}
	return name
}
