package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rvanraamsdonk/r2r-financial-close-blackline-light-sub000/internal/model"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadCSVTableNullCoercion(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "payables.csv",
		"bill_id,entity,amount,vendor_name,notes\n"+
			"BILL-001,E1,100.00,Acme,NULL\n"+
			"BILL-002,E1,200.00,nan, n/a \n"+
			"BILL-003,E1,300.00,None,real note\n")

	tbl, err := ReadCSVTable(path)
	require.NoError(t, err)
	bills, err := loadPayables(tbl)
	require.NoError(t, err)

	require.Len(t, bills, 3)
	assert.Equal(t, "", bills[0].Notes)
	assert.Equal(t, "", bills[1].Vendor)
	assert.Equal(t, "", bills[1].Notes)
	assert.Equal(t, "", bills[2].Vendor)
	assert.Equal(t, "real note", bills[2].Notes)
}

func TestLoadBankUnparsableDateCoercedToAbsent(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "bank.csv",
		"bank_txn_id,entity,amount,date\n"+
			"TXN-001,E1,10.00,2025-06-15\n"+
			"TXN-002,E1,20.00,junetember 15th\n"+
			"TXN-003,E1,30.00,\n")

	tbl, err := ReadCSVTable(path)
	require.NoError(t, err)
	txns, err := loadBank(tbl)
	require.NoError(t, err)

	require.Len(t, txns, 3)
	require.NotNil(t, txns[0].Date)
	assert.Equal(t, "2025-06-15", txns[0].Date.Format("2006-01-02"))
	assert.Nil(t, txns[1].Date)
	assert.Nil(t, txns[2].Date)
}

func TestLoadBankInvalidAmountIsError(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "bank.csv",
		"bank_txn_id,entity,amount\n"+
			"TXN-001,E1,not-a-number\n")

	tbl, err := ReadCSVTable(path)
	require.NoError(t, err)
	_, err = loadBank(tbl)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid amount")
}

func TestLoadBankAmountCommaStrip(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "bank.csv",
		"bank_txn_id,entity,amount\n"+
			"TXN-001,E1,\"1,234,567.89\"\n")

	tbl, err := ReadCSVTable(path)
	require.NoError(t, err)
	txns, err := loadBank(tbl)
	require.NoError(t, err)

	require.Len(t, txns, 1)
	assert.Equal(t, "1234567.89", txns[0].Amount.String())
}

func TestRequireMissingColumnIsDataShapeError(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "bank.csv",
		"entity,amount\nE1,10.00\n")

	tbl, err := ReadCSVTable(path)
	require.NoError(t, err)
	_, err = loadBank(tbl)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrDataShape)
	assert.Contains(t, err.Error(), "bank_txn_id")
}

func TestHeaderMatchingIsCaseInsensitive(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "trial_balance.csv",
		"Entity, Account ,BALANCE\nE1,1000,50.00\n")

	tbl, err := ReadCSVTable(path)
	require.NoError(t, err)
	lines, err := loadTrialBalance(tbl)
	require.NoError(t, err)

	require.Len(t, lines, 1)
	assert.Equal(t, "E1", lines[0].Entity)
	assert.Equal(t, "1000", lines[0].Account)
	assert.Equal(t, "50", lines[0].Balance.String())
}

func TestLoadDirMissingDomainsAreNotErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "payables.csv",
		"bill_id,entity,amount\nBILL-001,E1,100.00\n")

	res, err := LoadDir(dir)
	require.NoError(t, err)

	assert.Len(t, res.Records.Payables, 1)
	assert.Empty(t, res.Records.Bank)
	assert.Empty(t, res.Failures)
	assert.Contains(t, res.Sources, model.SourcePayables)
	assert.NotContains(t, res.Sources, model.SourceBank)
}

func TestLoadDirRecordsDomainFailures(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "payables.csv",
		"bill_id,entity,amount\nBILL-001,E1,100.00\n")
	writeFile(t, dir, "journal_entries.csv",
		"entry_id,entity\nJE-001,E1\n")

	res, err := LoadDir(dir)
	require.NoError(t, err)

	assert.Len(t, res.Records.Payables, 1)
	assert.Empty(t, res.Records.Journals)
	require.Contains(t, res.Failures, model.SourceJournals)
	assert.ErrorIs(t, res.Failures[model.SourceJournals], model.ErrDataShape)
}

func TestLoadDirEntitySizes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "entities.csv",
		"entity,tb_sum\nE1,10006808.00\nE2,2500000.00\n")

	res, err := LoadDir(dir)
	require.NoError(t, err)

	require.Len(t, res.Records.Sizes, 2)
	assert.Equal(t, "E1", res.Records.Sizes[0].Entity)
	assert.Equal(t, "10006808", res.Records.Sizes[0].TBSum.String())
}

func TestLoadDirMissingDirIsError(t *testing.T) {
	_, err := LoadDir(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}
