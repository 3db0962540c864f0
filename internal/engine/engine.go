// Package engine orchestrates one close run: materiality resolution, the
// detector sweep, provenance recording, artifact writing, and the final
// gatekeeping decision. A run either completes with a full artifact set and
// a decision, or fails with an explicit error; no partial decision is ever
// returned.
package engine

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rvanraamsdonk/r2r-financial-close-blackline-light-sub000/internal/artifact"
	"github.com/rvanraamsdonk/r2r-financial-close-blackline-light-sub000/internal/detect"
	"github.com/rvanraamsdonk/r2r-financial-close-blackline-light-sub000/internal/evidence"
	"github.com/rvanraamsdonk/r2r-financial-close-blackline-light-sub000/internal/gate"
	"github.com/rvanraamsdonk/r2r-financial-close-blackline-light-sub000/internal/materiality"
	"github.com/rvanraamsdonk/r2r-financial-close-blackline-light-sub000/internal/model"
)

// Options configures one run. TBBalanced left nil is derived from the
// trial-balance detector outcome; FXCoverageOK left nil is treated by the
// gate as failed, which blocks rather than unblocks.
type Options struct {
	Period           model.Period
	Scope            model.EntityFilter
	Detect           detect.Config
	Materiality      materiality.Config
	Gate             gate.Config
	Parallel         bool
	TBBalanced       *bool
	FXCoverageOK     *bool
	AutoJournalTotal decimal.Decimal

	// Sources maps detector names to their data source URIs, for evidence
	// records. Failures carries per-domain ingestion errors; each one
	// surfaces as a detector_failure exception.
	Sources  map[string]string
	Failures map[string]error
}

// DetectorOutcome is one detector's slice of a RunResult.
type DetectorOutcome struct {
	Name         string        `json:"name"`
	Result       detect.Result `json:"result"`
	Failed       bool          `json:"failed"`
	ArtifactPath string        `json:"artifact_path"`
	OutputHash   string        `json:"output_hash"`
}

// RunResult is the complete outcome of one close run.
type RunResult struct {
	RunID        string                    `json:"run_id"`
	Period       string                    `json:"period"`
	Scope        string                    `json:"entity_scope"`
	Detectors    []DetectorOutcome         `json:"detectors"`
	Decision     model.GatekeepingDecision `json:"decision"`
	DecisionPath string                    `json:"decision_artifact_path"`
	DecisionHash string                    `json:"decision_output_hash"`
}

// Engine wires the run-wide collaborators. All fields are immutable for the
// engine's lifetime.
type Engine struct {
	recorder  *evidence.Recorder
	writer    *artifact.Writer
	detectors []detect.Detector
}

// New builds an Engine over the given recorder and artifact writer.
func New(recorder *evidence.Recorder, writer *artifact.Writer, detectors []detect.Detector) *Engine {
	return &Engine{recorder: recorder, writer: writer, detectors: detectors}
}

// Run executes the full close for one record set.
func (e *Engine) Run(ctx context.Context, rs *model.RecordSet, opts Options) (*RunResult, error) {
	runID := uuid.NewString()
	log := zap.L().With(zap.String("run_id", runID), zap.String("period", opts.Period.String()))

	thresholds, err := materiality.Resolve(EntitySizes(rs), opts.Materiality)
	if err != nil {
		return nil, err
	}

	in := detect.Input{
		Records:    rs,
		Thresholds: thresholds,
		Period:     opts.Period,
		Scope:      opts.Scope,
	}

	outcomes, err := e.sweep(ctx, in, opts, log)
	if err != nil {
		return nil, err
	}

	// Provenance and artifacts in canonical detector order, independent of
	// completion order.
	for i := range outcomes {
		if err := e.record(runID, rs, opts, &outcomes[i]); err != nil {
			return nil, err
		}
	}

	decision, path, hash, err := e.decide(runID, outcomes, opts)
	if err != nil {
		return nil, err
	}

	log.Info("close run complete",
		zap.String("risk_level", string(decision.RiskLevel)),
		zap.Bool("block_close", decision.BlockClose),
		zap.Int("detectors", len(outcomes)),
	)

	return &RunResult{
		RunID:        runID,
		Period:       opts.Period.String(),
		Scope:        opts.Scope.String(),
		Detectors:    outcomes,
		Decision:     decision,
		DecisionPath: path,
		DecisionHash: hash,
	}, nil
}

// sweep runs every detector. A data shape failure becomes a synthetic
// detector_failure exception; a config error aborts the run.
func (e *Engine) sweep(ctx context.Context, in detect.Input, opts Options, log *zap.Logger) ([]DetectorOutcome, error) {
	outcomes := make([]DetectorOutcome, len(e.detectors))

	runOne := func(i int) error {
		d := e.detectors[i]
		outcomes[i].Name = d.Name()

		if ingestErr, failed := opts.Failures[d.Name()]; failed {
			outcomes[i].Failed = true
			outcomes[i].Result = failureResult(d.Name(), ingestErr)
			log.Warn("detector skipped on ingest failure",
				zap.String("detector", d.Name()),
				zap.Error(ingestErr),
			)
			return nil
		}

		res, err := d.Detect(in)
		switch {
		case err == nil:
			outcomes[i].Result = res
		case eris.Is(err, model.ErrDataShape):
			outcomes[i].Failed = true
			outcomes[i].Result = failureResult(d.Name(), err)
			log.Warn("detector failed, recorded as risk signal",
				zap.String("detector", d.Name()),
				zap.Error(err),
			)
		default:
			return eris.Wrapf(err, "engine: detector %s", d.Name())
		}
		return nil
	}

	if opts.Parallel {
		g, _ := errgroup.WithContext(ctx)
		for i := range e.detectors {
			i := i
			g.Go(func() error { return runOne(i) })
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i := range e.detectors {
			if err := ctx.Err(); err != nil {
				return nil, eris.Wrap(err, "engine: run cancelled")
			}
			if err := runOne(i); err != nil {
				return nil, err
			}
		}
	}
	return outcomes, nil
}

// failureResult represents a failed detector as a single exception so the
// gate counts the category and errs toward blocking.
func failureResult(name string, err error) detect.Result {
	exc := model.Exception{
		Source:         name,
		RecordKeys:     []string{name},
		ReasonCode:     model.ReasonDetectorFailure,
		Classification: model.ClassDetectorFailure,
		Rationale:      "detector did not complete: " + eris.Cause(err).Error(),
	}
	return detect.Result{
		Exceptions: []model.Exception{exc},
		Summary: model.Summary{
			Source:   name,
			Count:    1,
			TotalAbs: decimal.Zero,
			ByEntity: []model.EntityTotal{},
		},
	}
}

// record writes the detector's artifact and appends its EvidenceRef and
// DeterministicRun, in that order.
func (e *Engine) record(runID string, rs *model.RecordSet, opts Options, out *DetectorOutcome) error {
	summary := out.Result.Summary
	path, hash, err := e.writer.Write(out.Name, artifact.Document{
		Period:      opts.Period.String(),
		EntityScope: opts.Scope.String(),
		Rows:        out.Result.Exceptions,
		Summary:     &summary,
	})
	if err != nil {
		return err
	}
	out.ArtifactPath = path
	out.OutputHash = hash

	ref, err := e.recorder.RecordEvidence(model.EvidenceRef{
		SourceURI: opts.Sources[out.Name],
		RowIDs:    rowIDs(rs, out.Name),
	})
	if err != nil {
		return err
	}
	return e.recorder.RecordRun(model.DeterministicRun{
		Function: out.Name + ".detect",
		Params: map[string]string{
			"run_id": runID,
			"period": opts.Period.String(),
			"entity": opts.Scope.String(),
		},
		OutputHash:   hash,
		EvidenceID:   ref.ID,
		ArtifactPath: path,
	})
}

// decide aggregates detector summaries into the gate inputs, writes the
// decision artifact, and records its provenance.
func (e *Engine) decide(runID string, outcomes []DetectorOutcome, opts Options) (model.GatekeepingDecision, string, string, error) {
	inputs := gate.Inputs{
		TBBalanced:       opts.TBBalanced,
		FXCoverageOK:     opts.FXCoverageOK,
		AutoJournalTotal: opts.AutoJournalTotal,
	}
	for _, out := range outcomes {
		inputs.Categories = append(inputs.Categories, gate.CategoryTotal{
			Source:   out.Name,
			Count:    out.Result.Summary.Count,
			AbsTotal: out.Result.Summary.TotalAbs,
		})
		if out.Name == model.SourceTrialBalance && inputs.TBBalanced == nil && !out.Failed {
			balanced := out.Result.Summary.Count == 0
			inputs.TBBalanced = &balanced
		}
	}

	decision := gate.Evaluate(inputs, opts.Gate)

	path, hash, err := e.writer.Write("gatekeeping", artifact.Document{
		Period:      opts.Period.String(),
		EntityScope: opts.Scope.String(),
		Decision:    &decision,
	})
	if err != nil {
		return model.GatekeepingDecision{}, "", "", err
	}

	sources := make([]string, 0, len(outcomes))
	for _, out := range outcomes {
		sources = append(sources, out.Name)
	}
	sort.Strings(sources)
	ref, err := e.recorder.RecordEvidence(model.EvidenceRef{
		SourceURI: "engine://detector-summaries",
		RowIDs:    sources,
	})
	if err != nil {
		return model.GatekeepingDecision{}, "", "", err
	}
	if err := e.recorder.RecordRun(model.DeterministicRun{
		Function: "gatekeeping.evaluate",
		Params: map[string]string{
			"run_id": runID,
			"period": opts.Period.String(),
			"entity": opts.Scope.String(),
		},
		OutputHash:   hash,
		EvidenceID:   ref.ID,
		ArtifactPath: path,
	}); err != nil {
		return model.GatekeepingDecision{}, "", "", err
	}
	return decision, path, hash, nil
}

// EntitySizes returns the explicit entity sizes, or derives them from the
// trial balance when none were supplied.
func EntitySizes(rs *model.RecordSet) []model.EntitySize {
	if len(rs.Sizes) > 0 {
		return rs.Sizes
	}
	sums := make(map[string]decimal.Decimal)
	for _, l := range rs.TrialBalance {
		sums[l.Entity] = sums[l.Entity].Add(l.Balance.Abs())
	}
	entities := make([]string, 0, len(sums))
	for e := range sums {
		entities = append(entities, e)
	}
	sort.Strings(entities)
	out := make([]model.EntitySize, 0, len(entities))
	for _, e := range entities {
		out = append(out, model.EntitySize{Entity: e, TBSum: sums[e]})
	}
	return out
}

// rowIDs returns the ordered record keys a detector consumed, for its
// EvidenceRef.
func rowIDs(rs *model.RecordSet, domain string) []string {
	var ids []string
	switch domain {
	case model.SourceBank:
		for _, r := range rs.Bank {
			ids = append(ids, r.TxnID)
		}
	case model.SourcePayables:
		for _, r := range rs.Payables {
			ids = append(ids, r.BillID)
		}
	case model.SourceReceivables:
		for _, r := range rs.Receivables {
			ids = append(ids, r.InvoiceID)
		}
	case model.SourceIntercompany:
		for _, r := range rs.Intercompany {
			ids = append(ids, r.DocID)
		}
	case model.SourceTrialBalance:
		for _, r := range rs.TrialBalance {
			ids = append(ids, r.Entity+"/"+r.Account)
		}
	case model.SourceJournals:
		for _, r := range rs.Journals {
			ids = append(ids, r.EntryID)
		}
	case model.SourceAccruals:
		for _, r := range rs.Accruals {
			ids = append(ids, r.AccrualID)
		}
	case model.SourceFlux:
		for _, r := range rs.Flux {
			ids = append(ids, r.Entity+"/"+r.Account)
		}
	}
	return ids
}
