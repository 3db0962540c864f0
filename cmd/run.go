package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rvanraamsdonk/r2r-financial-close-blackline-light-sub000/internal/artifact"
	"github.com/rvanraamsdonk/r2r-financial-close-blackline-light-sub000/internal/detect"
	"github.com/rvanraamsdonk/r2r-financial-close-blackline-light-sub000/internal/engine"
	"github.com/rvanraamsdonk/r2r-financial-close-blackline-light-sub000/internal/evidence"
	"github.com/rvanraamsdonk/r2r-financial-close-blackline-light-sub000/internal/ingest"
	"github.com/rvanraamsdonk/r2r-financial-close-blackline-light-sub000/internal/model"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full close for one period",
	Long: `Loads every data source in the data directory, runs all detectors,
records provenance to the audit log, writes versioned artifacts, and prints
the gatekeeping decision.

Examples:
  # Full close for June 2025, all entities
  closectl run --period 2025-06

  # Single entity, parallel detectors, FX coverage confirmed failed
  closectl run --period 2025-06 --entity E2 --parallel --fx-coverage-ok=false`,
	RunE: runClose,
}

func init() {
	f := runCmd.Flags()
	f.String("period", "", "accounting period YYYY-MM (required)")
	f.String("entity", "ALL", "entity code to scope the run, or ALL")
	f.String("data", "", "data directory (overrides config)")
	f.String("out", "", "artifact output directory (overrides config)")
	f.Bool("parallel", false, "run detectors concurrently")
	f.Bool("fx-coverage-ok", true, "whether FX rate coverage is complete")
	f.Float64("auto-journal-total", 0, "absolute total of auto-approved adjusting entries")
	_ = runCmd.MarkFlagRequired("period")

	rootCmd.AddCommand(runCmd)
}

func runClose(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cfg.Validate(); err != nil {
		return err
	}

	periodStr, _ := cmd.Flags().GetString("period")
	period, err := model.ParsePeriod(periodStr)
	if err != nil {
		return err
	}
	entity, _ := cmd.Flags().GetString("entity")
	parallel, _ := cmd.Flags().GetBool("parallel")
	fxOK, _ := cmd.Flags().GetBool("fx-coverage-ok")
	autoTotal, _ := cmd.Flags().GetFloat64("auto-journal-total")

	dataDir := cfg.Data.Dir
	if v, _ := cmd.Flags().GetString("data"); v != "" {
		dataDir = v
	}
	outDir := cfg.Data.OutDir
	if v, _ := cmd.Flags().GetString("out"); v != "" {
		outDir = v
	}

	loaded, err := ingest.LoadDir(dataDir)
	if err != nil {
		return eris.Wrap(err, "run: load data")
	}
	zap.L().Info("data loaded",
		zap.Int("sources", len(loaded.Sources)),
		zap.Int("failed_domains", len(loaded.Failures)),
	)

	recorder, err := evidence.NewRecorder(cfg.Data.AuditLog)
	if err != nil {
		return err
	}
	writer, err := artifact.NewWriter(outDir)
	if err != nil {
		return err
	}

	eng := engine.New(recorder, writer, detect.All(cfg.DetectFor()))
	result, err := eng.Run(ctx, loaded.Records, engine.Options{
		Period:           period,
		Scope:            model.EntityFilter(entity),
		Detect:           cfg.DetectFor(),
		Materiality:      cfg.MaterialityFor(),
		Gate:             cfg.GateFor(),
		Parallel:         parallel,
		FXCoverageOK:     &fxOK,
		AutoJournalTotal: decimal.NewFromFloat(autoTotal),
		Sources:          loaded.Sources,
		Failures:         loaded.Failures,
	})
	if err != nil {
		return eris.Wrap(err, "run: close")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result.Decision)
}
