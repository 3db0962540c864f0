package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rvanraamsdonk/r2r-financial-close-blackline-light-sub000/internal/model"
)

func TestPayablesOverdueSingleException(t *testing.T) {
	// Entity E1, three bills, one overdue at 75 days: exactly one exception.
	rs := &model.RecordSet{Payables: []model.PayableBill{
		{BillID: "BILL-001", Entity: "E1", Vendor: "Alpha", Amount: dec("123.45"), Status: "Overdue", AgeDays: 75},
		{BillID: "BILL-002", Entity: "E1", Vendor: "Beta", Amount: dec("321.00"), Status: "Open", AgeDays: 10},
		{BillID: "BILL-003", Entity: "E1", Vendor: "Gamma", Amount: dec("77.10"), Status: "Open", AgeDays: 30},
	}}

	res, err := NewPayables(DefaultConfig()).Detect(testInput(rs))
	require.NoError(t, err)

	require.Len(t, res.Exceptions, 1)
	exc := res.Exceptions[0]
	assert.Equal(t, model.ReasonOverdue, exc.ReasonCode)
	assert.Equal(t, []string{"BILL-001"}, exc.RecordKeys)
	assert.True(t, exc.Amount.Equal(dec("123.45")))
	assert.Equal(t, 1, res.Summary.Count)
}

func TestPayablesAgedNotDoubleCountedWithOverdue(t *testing.T) {
	rs := &model.RecordSet{Payables: []model.PayableBill{
		{BillID: "BILL-001", Entity: "E1", Amount: dec("900.00"), Status: "Overdue", AgeDays: 90},
		{BillID: "BILL-002", Entity: "E1", Amount: dec("450.00"), Status: "Open", AgeDays: 61},
	}}

	res, err := NewPayables(DefaultConfig()).Detect(testInput(rs))
	require.NoError(t, err)

	require.Len(t, res.Exceptions, 2)
	assert.Equal(t, model.ReasonOverdue, res.Exceptions[0].ReasonCode)
	assert.Equal(t, model.ReasonAged, res.Exceptions[1].ReasonCode)
}

func TestPayablesDuplicateNoteNullSafe(t *testing.T) {
	rs := &model.RecordSet{Payables: []model.PayableBill{
		{BillID: "BILL-001", Entity: "E1", Amount: dec("100.00"), Status: "Open", Notes: "Possible DUPLICATE of April invoice"},
		{BillID: "BILL-002", Entity: "E1", Amount: dec("100.00"), Status: "Open", Notes: ""},
	}}

	res, err := NewPayables(DefaultConfig()).Detect(testInput(rs))
	require.NoError(t, err)

	require.Len(t, res.Exceptions, 1)
	assert.Equal(t, model.ReasonDuplicateNote, res.Exceptions[0].ReasonCode)
}

func TestPayablesRoundDollar(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		fires  bool
	}{
		{"multiple of 10000 above floor", "20000.00", true},
		{"multiple of 500 above floor", "7500.00", true},
		{"round but below floor", "4500.00", false},
		{"non-round above floor", "20001.37", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := &model.RecordSet{Payables: []model.PayableBill{
				{BillID: "BILL-001", Entity: "E1", Amount: dec(tt.amount), Status: "Open"},
			}}
			res, err := NewPayables(DefaultConfig()).Detect(testInput(rs))
			require.NoError(t, err)

			fired := false
			for _, e := range res.Exceptions {
				if e.ReasonCode == model.ReasonRoundDollar {
					fired = true
					assert.True(t, e.Threshold.Equal(dec("5000")))
				}
			}
			assert.Equal(t, tt.fires, fired)
		})
	}
}

func TestPayablesNewVendorUrgent(t *testing.T) {
	rs := &model.RecordSet{Payables: []model.PayableBill{
		{
			BillID: "BILL-001", Entity: "E1", Vendor: "Fresh Vendor Ltd",
			Amount: dec("30000.37"), Status: "Open",
			BillDate: day("2025-06-20"), VendorSince: day("2025-06-01"),
			Notes: "URGENT - wire today",
		},
		{
			// Established vendor: same urgency and size, no flag.
			BillID: "BILL-002", Entity: "E1", Vendor: "Old Vendor Ltd",
			Amount: dec("30000.37"), Status: "Open",
			BillDate: day("2025-06-20"), VendorSince: day("2022-01-01"),
			Notes: "urgent please",
		},
	}}

	res, err := NewPayables(DefaultConfig()).Detect(testInput(rs))
	require.NoError(t, err)

	var hits []model.Exception
	for _, e := range res.Exceptions {
		if e.ReasonCode == model.ReasonNewVendor {
			hits = append(hits, e)
		}
	}
	require.Len(t, hits, 1)
	assert.Equal(t, []string{"BILL-001"}, hits[0].RecordKeys)
}

func TestPayablesWeekendEntry(t *testing.T) {
	rs := &model.RecordSet{Payables: []model.PayableBill{
		{BillID: "BILL-001", Entity: "E1", Amount: dec("10.00"), Status: "Open", BillDate: day("2025-06-14")}, // Saturday
		{BillID: "BILL-002", Entity: "E1", Amount: dec("10.00"), Status: "Open", BillDate: day("2025-06-16")}, // Monday
	}}

	res, err := NewPayables(DefaultConfig()).Detect(testInput(rs))
	require.NoError(t, err)

	require.Len(t, res.Exceptions, 1)
	assert.Equal(t, model.ReasonWeekendEntry, res.Exceptions[0].ReasonCode)
	assert.Equal(t, []string{"BILL-001"}, res.Exceptions[0].RecordKeys)
}

func TestPayablesSplitTransaction(t *testing.T) {
	rs := &model.RecordSet{Payables: []model.PayableBill{
		{BillID: "BILL-001", Entity: "E1", Vendor: "Splitter Inc", Amount: dec("4999.11"), Status: "Open", BillDate: day("2025-06-10")},
		{BillID: "BILL-002", Entity: "E1", Vendor: "Splitter Inc", Amount: dec("4999.22"), Status: "Open", BillDate: day("2025-06-10")},
		{BillID: "BILL-003", Entity: "E1", Vendor: "Other Inc", Amount: dec("4999.33"), Status: "Open", BillDate: day("2025-06-10")},
	}}

	res, err := NewPayables(DefaultConfig()).Detect(testInput(rs))
	require.NoError(t, err)

	var hits []model.Exception
	for _, e := range res.Exceptions {
		if e.ReasonCode == model.ReasonSplitTxn {
			hits = append(hits, e)
		}
	}
	require.Len(t, hits, 1)
	assert.Equal(t, []string{"BILL-001", "BILL-002"}, hits[0].RecordKeys)
	assert.True(t, hits[0].Amount.Equal(dec("9998.33")))
}
