package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rvanraamsdonk/r2r-financial-close-blackline-light-sub000/internal/model"
)

func TestJournalApprovalRules(t *testing.T) {
	rs := &model.RecordSet{Journals: []model.JournalEntry{
		{EntryID: "JE-001", Entity: "E1", Amount: dec("100.00"), ApprovalStatus: "Rejected", Approver: "cfo"},
		{EntryID: "JE-002", Entity: "E1", Amount: dec("100.00"), ApprovalStatus: "Pending", Approver: "cfo"},
		{EntryID: "JE-003", Entity: "E1", Amount: dec("100.00"), ApprovalStatus: "Approved", Approver: "cfo"},
	}}

	res, err := NewJournals(DefaultConfig()).Detect(testInput(rs))
	require.NoError(t, err)

	reasons := map[string]string{}
	for _, e := range res.Exceptions {
		reasons[e.RecordKeys[0]] = e.ReasonCode
	}
	assert.Equal(t, model.ReasonJERejected, reasons["JE-001"])
	assert.Equal(t, model.ReasonJEPending, reasons["JE-002"])
	assert.NotContains(t, reasons, "JE-003")
}

func TestJournalManualMissingSupport(t *testing.T) {
	rs := &model.RecordSet{Journals: []model.JournalEntry{
		{EntryID: "JE-001", Entity: "E1", Amount: dec("100.00"), ApprovalStatus: "Approved", Approver: "cfo", Source: "Manual"},
		{EntryID: "JE-002", Entity: "E1", Amount: dec("100.00"), ApprovalStatus: "Approved", Approver: "cfo", Source: "Manual", SupportRef: "DOC-9"},
		{EntryID: "JE-003", Entity: "E1", Amount: dec("100.00"), ApprovalStatus: "Approved", Approver: "cfo", Source: "System"},
	}}

	res, err := NewJournals(DefaultConfig()).Detect(testInput(rs))
	require.NoError(t, err)

	require.Len(t, res.Exceptions, 1)
	assert.Equal(t, model.ReasonJEMissingSupport, res.Exceptions[0].ReasonCode)
	assert.Equal(t, []string{"JE-001"}, res.Exceptions[0].RecordKeys)
}

func TestJournalSegregationOfDuties(t *testing.T) {
	// E1 threshold from the floor is 1,000 USD.
	tests := []struct {
		name     string
		amount   string
		status   string
		approver string
		fires    bool
	}{
		{"large approved with approver is fine", "5000.00", "Approved", "cfo", false},
		{"large approved without approver breaches", "5000.00", "Approved", "", true},
		{"large pending with approver breaches", "5000.00", "Pending", "cfo", true},
		{"small pending without approver does not breach", "999.99", "Pending", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := &model.RecordSet{Journals: []model.JournalEntry{
				{EntryID: "JE-001", Entity: "E1", Amount: dec(tt.amount), ApprovalStatus: tt.status, Approver: tt.approver},
			}}
			res, err := NewJournals(DefaultConfig()).Detect(testInput(rs))
			require.NoError(t, err)

			fired := false
			for _, e := range res.Exceptions {
				if e.ReasonCode == model.ReasonJESODBreach {
					fired = true
					assert.True(t, e.Threshold.Equal(dec("1000")))
				}
			}
			assert.Equal(t, tt.fires, fired)
		})
	}
}
