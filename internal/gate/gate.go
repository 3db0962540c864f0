// Package gate computes the single close/no-close risk decision from every
// detector's exception counts and totals. Evaluate is pure and total: it
// never fails for well-typed input, and absent metrics default to the value
// that cannot falsely unblock the close.
package gate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/rvanraamsdonk/r2r-financial-close-blackline-light-sub000/internal/model"
)

// Config holds the risk policy thresholds.
type Config struct {
	HighRiskThreshold    decimal.Decimal
	MaterialityThreshold decimal.Decimal
}

// DefaultConfig returns the standard 250,000 / 50,000 USD policy.
func DefaultConfig() Config {
	return Config{
		HighRiskThreshold:    decimal.NewFromInt(250000),
		MaterialityThreshold: decimal.NewFromInt(50000),
	}
}

// CategoryTotal is one detector category's contribution to the gate.
type CategoryTotal struct {
	Source   string          `json:"source"`
	Count    int             `json:"count"`
	AbsTotal decimal.Decimal `json:"abs_total"`
}

// Inputs collects everything the gate reads. Nil control flags mean the
// upstream signal is missing and are treated as failed, never as passed.
type Inputs struct {
	Categories       []CategoryTotal `json:"categories"`
	TBBalanced       *bool           `json:"tb_balanced"`
	FXCoverageOK     *bool           `json:"fx_coverage_ok"`
	AutoJournalTotal decimal.Decimal `json:"auto_journal_total"`
}

// amountBearing lists the categories whose dollar totals enter the gross
// exception amount.
var amountBearing = map[string]bool{
	model.SourcePayables:     true,
	model.SourceReceivables:  true,
	model.SourceIntercompany: true,
	model.SourceAccruals:     true,
	model.SourceJournals:     true,
}

// Evaluate applies the risk policy in precedence order: high, then medium,
// then low.
func Evaluate(in Inputs, cfg Config) model.GatekeepingDecision {
	sources := 0
	gross := decimal.Zero
	var triggered []string
	cats := append([]CategoryTotal(nil), in.Categories...)
	sort.Slice(cats, func(i, j int) bool { return cats[i].Source < cats[j].Source })
	for _, c := range cats {
		if c.Source == model.SourceAutoJournal {
			continue
		}
		if c.Count > 0 {
			sources++
			triggered = append(triggered, fmt.Sprintf("%s (%d)", c.Source, c.Count))
		}
		if amountBearing[c.Source] {
			gross = gross.Add(c.AbsTotal.Abs())
		}
	}

	net := gross.Sub(in.AutoJournalTotal.Abs())
	if net.IsNegative() {
		net = decimal.Zero
	}

	tbBalanced := in.TBBalanced != nil && *in.TBBalanced
	fxOK := in.FXCoverageOK != nil && *in.FXCoverageOK

	var level model.RiskLevel
	var because string
	switch {
	case !fxOK:
		level = model.RiskHigh
		because = "FX coverage incomplete or unreported"
	case !tbBalanced:
		level = model.RiskHigh
		because = "trial balance not confirmed balanced"
	case net.GreaterThan(cfg.HighRiskThreshold):
		level = model.RiskHigh
		because = fmt.Sprintf("net exception amount %s exceeds the high-risk threshold %s", usd(net), usd(cfg.HighRiskThreshold))
	case sources >= 3:
		level = model.RiskMedium
		because = fmt.Sprintf("%d exception categories triggered", sources)
	case sources >= 2 && net.GreaterThan(cfg.MaterialityThreshold):
		level = model.RiskMedium
		because = fmt.Sprintf("%d exception categories triggered with net exception amount %s above materiality %s",
			sources, usd(net), usd(cfg.MaterialityThreshold))
	default:
		level = model.RiskLow
		because = "no blocking condition met"
	}

	autoClose := level == model.RiskLow ||
		(level == model.RiskMedium && !net.GreaterThan(cfg.MaterialityThreshold))

	d := model.GatekeepingDecision{
		RiskLevel:         level,
		BlockClose:        level == model.RiskHigh || !autoClose,
		AutoCloseEligible: autoClose,
		GrossException:    gross,
		NetException:      net,
		SourcesTriggered:  sources,
	}
	d.Rationale = rationale(d, because, triggered, in.AutoJournalTotal)
	return d
}

func rationale(d model.GatekeepingDecision, because string, triggered []string, autoTotal decimal.Decimal) string {
	var b strings.Builder
	fmt.Fprintf(&b, "risk %s: %s.", d.RiskLevel, because)
	fmt.Fprintf(&b, " Gross exceptions %s, auto-journal offset %s, net %s.",
		usd(d.GrossException), usd(autoTotal.Abs()), usd(d.NetException))
	if len(triggered) > 0 {
		fmt.Fprintf(&b, " Triggered categories: %s.", strings.Join(triggered, ", "))
	}
	if d.BlockClose {
		b.WriteString(" Close is blocked pending review.")
	} else {
		b.WriteString(" Close may proceed automatically.")
	}
	return b.String()
}

func usd(d decimal.Decimal) string {
	cents := d.Round(2).Mul(decimal.NewFromInt(100)).IntPart()
	return money.New(cents, money.USD).Display()
}
