package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/rvanraamsdonk/r2r-financial-close-blackline-light-sub000/internal/detect"
	"github.com/rvanraamsdonk/r2r-financial-close-blackline-light-sub000/internal/engine"
	"github.com/rvanraamsdonk/r2r-financial-close-blackline-light-sub000/internal/ingest"
	"github.com/rvanraamsdonk/r2r-financial-close-blackline-light-sub000/internal/materiality"
	"github.com/rvanraamsdonk/r2r-financial-close-blackline-light-sub000/internal/model"
)

var detectCmd = &cobra.Command{
	Use:   "detect <domain>",
	Short: "Run a single detector and print its exceptions",
	Long: `Runs one detector against the data directory without writing
artifacts or touching the audit log. Useful for iterating on rule
parameters.

Domains: bank, payables, receivables, intercompany, trial_balance,
journal_entries, accruals, flux.`,
	Args: cobra.ExactArgs(1),
	RunE: runDetect,
}

func init() {
	f := detectCmd.Flags()
	f.String("period", "", "accounting period YYYY-MM (required)")
	f.String("entity", "ALL", "entity code to scope the run, or ALL")
	f.String("data", "", "data directory (overrides config)")
	_ = detectCmd.MarkFlagRequired("period")

	rootCmd.AddCommand(detectCmd)
}

func runDetect(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	periodStr, _ := cmd.Flags().GetString("period")
	period, err := model.ParsePeriod(periodStr)
	if err != nil {
		return err
	}
	entity, _ := cmd.Flags().GetString("entity")
	dataDir := cfg.Data.Dir
	if v, _ := cmd.Flags().GetString("data"); v != "" {
		dataDir = v
	}

	var detector detect.Detector
	for _, d := range detect.All(cfg.DetectFor()) {
		if d.Name() == args[0] {
			detector = d
			break
		}
	}
	if detector == nil {
		return eris.Errorf("detect: unknown domain %q", args[0])
	}

	loaded, err := ingest.LoadDir(dataDir)
	if err != nil {
		return eris.Wrap(err, "detect: load data")
	}
	if ingestErr, failed := loaded.Failures[detector.Name()]; failed {
		return ingestErr
	}

	thresholds, err := materiality.Resolve(engine.EntitySizes(loaded.Records), cfg.MaterialityFor())
	if err != nil {
		return err
	}

	result, err := detector.Detect(detect.Input{
		Records:    loaded.Records,
		Thresholds: thresholds,
		Period:     period,
		Scope:      model.EntityFilter(entity),
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
