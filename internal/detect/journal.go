package detect

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/rvanraamsdonk/r2r-financial-close-blackline-light-sub000/internal/model"
)

// Journals reviews journal entries for approval-workflow and
// segregation-of-duties breaches.
type Journals struct {
	cfg Config
}

// NewJournals returns the journal-entry detector.
func NewJournals(cfg Config) *Journals { return &Journals{cfg: cfg} }

func (d *Journals) Name() string { return model.SourceJournals }

func (d *Journals) Detect(in Input) (Result, error) {
	var excs []model.Exception
	for _, je := range in.Records.Journals {
		if je.EntryID == "" || je.Entity == "" {
			return Result{}, eris.Wrapf(model.ErrDataShape, "journal_entries: entry missing id or entity (id=%q)", je.EntryID)
		}
		if !in.Scope.Matches(je.Entity) {
			continue
		}

		approved := strings.EqualFold(je.ApprovalStatus, "Approved")
		rejected := strings.EqualFold(je.ApprovalStatus, "Rejected")

		switch {
		case rejected:
			excs = append(excs, model.Exception{
				Source:         model.SourceJournals,
				RecordKeys:     []string{je.EntryID},
				Entity:         je.Entity,
				ReasonCode:     model.ReasonJERejected,
				Classification: model.ClassControlGap,
				Amount:         je.Amount,
				Rationale:      fmt.Sprintf("journal entry %s was rejected in approval, amount %s", je.EntryID, usd(je.Amount)),
			})
		case !approved:
			excs = append(excs, model.Exception{
				Source:         model.SourceJournals,
				RecordKeys:     []string{je.EntryID},
				Entity:         je.Entity,
				ReasonCode:     model.ReasonJEPending,
				Classification: model.ClassControlGap,
				Amount:         je.Amount,
				Rationale: fmt.Sprintf("journal entry %s approval status %q is not approved, amount %s",
					je.EntryID, je.ApprovalStatus, usd(je.Amount)),
			})
		}

		if strings.Contains(strings.ToLower(je.Source), "manual") && je.SupportRef == "" {
			excs = append(excs, model.Exception{
				Source:         model.SourceJournals,
				RecordKeys:     []string{je.EntryID},
				Entity:         je.Entity,
				ReasonCode:     model.ReasonJEMissingSupport,
				Classification: model.ClassControlGap,
				Amount:         je.Amount,
				Rationale: fmt.Sprintf("manual journal entry %s has no supporting document reference, amount %s",
					je.EntryID, usd(je.Amount)),
			})
		}

		threshold, err := in.Thresholds.ForEntity(je.Entity)
		if err != nil {
			return Result{}, err
		}
		if je.Amount.Abs().GreaterThan(threshold) && (je.Approver == "" || !approved) {
			excs = append(excs, model.Exception{
				Source:         model.SourceJournals,
				RecordKeys:     []string{je.EntryID},
				Entity:         je.Entity,
				ReasonCode:     model.ReasonJESODBreach,
				Classification: model.ClassControlGap,
				Amount:         je.Amount,
				Threshold:      threshold,
				Rationale: fmt.Sprintf("journal entry %s amount %s exceeds entity threshold %s without an independent approval",
					je.EntryID, usd(je.Amount.Abs()), usd(threshold)),
			})
		}
	}
	return finish(model.SourceJournals, excs), nil
}
