package ingest

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/rvanraamsdonk/r2r-financial-close-blackline-light-sub000/internal/model"
)

// LoadResult is the outcome of loading one data directory. A domain that
// failed to load (missing required columns, malformed amounts) appears in
// Failures and its record collection stays empty; the remaining detectors
// still run.
type LoadResult struct {
	Records  *model.RecordSet
	Sources  map[string]string
	Failures map[string]error
}

// domain file stems searched in the data directory, .csv first then .xlsx.
var domainFiles = map[string]string{
	model.SourceBank:         "bank",
	model.SourcePayables:     "payables",
	model.SourceReceivables:  "receivables",
	model.SourceIntercompany: "intercompany",
	model.SourceTrialBalance: "trial_balance",
	model.SourceJournals:     "journal_entries",
	model.SourceAccruals:     "accruals",
	model.SourceFlux:         "flux",
}

const entityFile = "entities"

// LoadDir loads every recognized data file under dir. Missing files leave
// the domain empty, which is not an error: a run may cover any subset of
// domains.
func LoadDir(dir string) (*LoadResult, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, eris.Wrapf(err, "ingest: data dir %s", dir)
	}

	res := &LoadResult{
		Records:  &model.RecordSet{},
		Sources:  make(map[string]string),
		Failures: make(map[string]error),
	}

	for domain, stem := range domainFiles {
		t, path, err := openTable(dir, stem)
		if err != nil {
			res.Failures[domain] = err
			continue
		}
		if t == nil {
			continue
		}
		res.Sources[domain] = path
		if err := loadDomain(domain, t, res.Records); err != nil {
			res.Failures[domain] = err
			zap.L().Warn("ingest: domain load failed",
				zap.String("domain", domain),
				zap.Error(err),
			)
		}
	}

	if t, path, err := openTable(dir, entityFile); err != nil {
		return nil, err
	} else if t != nil {
		res.Sources["entities"] = path
		sizes, err := loadEntitySizes(t)
		if err != nil {
			return nil, err
		}
		res.Records.Sizes = sizes
	}

	return res, nil
}

// openTable finds <stem>.csv or <stem>.xlsx under dir. Returns (nil, "",
// nil) when neither exists.
func openTable(dir, stem string) (*Table, string, error) {
	csvPath := filepath.Join(dir, stem+".csv")
	if _, err := os.Stat(csvPath); err == nil {
		t, err := ReadCSVTable(csvPath)
		return t, csvPath, err
	}
	xlsxPath := filepath.Join(dir, stem+".xlsx")
	if _, err := os.Stat(xlsxPath); err == nil {
		t, err := ReadXLSXTable(xlsxPath)
		return t, xlsxPath, err
	}
	return nil, "", nil
}

func loadDomain(domain string, t *Table, rs *model.RecordSet) error {
	switch domain {
	case model.SourceBank:
		recs, err := loadBank(t)
		rs.Bank = recs
		return err
	case model.SourcePayables:
		recs, err := loadPayables(t)
		rs.Payables = recs
		return err
	case model.SourceReceivables:
		recs, err := loadReceivables(t)
		rs.Receivables = recs
		return err
	case model.SourceIntercompany:
		recs, err := loadIntercompany(t)
		rs.Intercompany = recs
		return err
	case model.SourceTrialBalance:
		recs, err := loadTrialBalance(t)
		rs.TrialBalance = recs
		return err
	case model.SourceJournals:
		recs, err := loadJournals(t)
		rs.Journals = recs
		return err
	case model.SourceAccruals:
		recs, err := loadAccruals(t)
		rs.Accruals = recs
		return err
	case model.SourceFlux:
		recs, err := loadFlux(t)
		rs.Flux = recs
		return err
	}
	return nil
}

func loadBank(t *Table) ([]model.BankTransaction, error) {
	req, err := t.Require("bank_txn_id", "entity", "amount")
	if err != nil {
		return nil, err
	}
	dateIdx := t.Optional("date")
	curIdx := t.Optional("currency")
	cpIdx := t.Optional("counterparty")
	descIdx := t.Optional("description")
	typeIdx := t.Optional("transaction_type")

	out := make([]model.BankTransaction, 0, len(t.Rows))
	for _, row := range t.Rows {
		amt, err := amount(t.Source, row, req[2])
		if err != nil {
			return nil, err
		}
		out = append(out, model.BankTransaction{
			TxnID:        text(row, req[0]),
			Entity:       text(row, req[1]),
			Amount:       amt,
			Date:         date(t.Source, row, dateIdx),
			Currency:     text(row, curIdx),
			Counterparty: text(row, cpIdx),
			Description:  text(row, descIdx),
			TxnType:      text(row, typeIdx),
		})
	}
	return out, nil
}

func loadPayables(t *Table) ([]model.PayableBill, error) {
	req, err := t.Require("bill_id", "entity", "amount")
	if err != nil {
		return nil, err
	}
	vendorIdx := t.Optional("vendor_name")
	curIdx := t.Optional("currency")
	statusIdx := t.Optional("status")
	ageIdx := t.Optional("age_days")
	billDateIdx := t.Optional("bill_date")
	sinceIdx := t.Optional("vendor_since")
	notesIdx := t.Optional("notes")

	out := make([]model.PayableBill, 0, len(t.Rows))
	for _, row := range t.Rows {
		amt, err := amount(t.Source, row, req[2])
		if err != nil {
			return nil, err
		}
		age, err := integer(t.Source, row, ageIdx)
		if err != nil {
			return nil, err
		}
		out = append(out, model.PayableBill{
			BillID:      text(row, req[0]),
			Entity:      text(row, req[1]),
			Amount:      amt,
			Vendor:      text(row, vendorIdx),
			Currency:    text(row, curIdx),
			Status:      text(row, statusIdx),
			AgeDays:     age,
			BillDate:    date(t.Source, row, billDateIdx),
			VendorSince: date(t.Source, row, sinceIdx),
			Notes:       text(row, notesIdx),
		})
	}
	return out, nil
}

func loadReceivables(t *Table) ([]model.ReceivableInvoice, error) {
	req, err := t.Require("invoice_id", "entity", "amount")
	if err != nil {
		return nil, err
	}
	custIdx := t.Optional("customer_name")
	curIdx := t.Optional("currency")
	statusIdx := t.Optional("status")
	ageIdx := t.Optional("age_days")
	invDateIdx := t.Optional("invoice_date")
	termsIdx := t.Optional("payment_terms_days")
	docTypeIdx := t.Optional("doc_type")
	notesIdx := t.Optional("notes")

	out := make([]model.ReceivableInvoice, 0, len(t.Rows))
	for _, row := range t.Rows {
		amt, err := amount(t.Source, row, req[2])
		if err != nil {
			return nil, err
		}
		age, err := integer(t.Source, row, ageIdx)
		if err != nil {
			return nil, err
		}
		terms, err := integer(t.Source, row, termsIdx)
		if err != nil {
			return nil, err
		}
		out = append(out, model.ReceivableInvoice{
			InvoiceID:        text(row, req[0]),
			Entity:           text(row, req[1]),
			Amount:           amt,
			Customer:         text(row, custIdx),
			Currency:         text(row, curIdx),
			Status:           text(row, statusIdx),
			AgeDays:          age,
			InvoiceDate:      date(t.Source, row, invDateIdx),
			PaymentTermsDays: terms,
			DocType:          text(row, docTypeIdx),
			Notes:            text(row, notesIdx),
		})
	}
	return out, nil
}

func loadIntercompany(t *Table) ([]model.IntercompanyDoc, error) {
	req, err := t.Require("doc_id", "entity_src", "entity_dst", "amount_src", "amount_dst")
	if err != nil {
		return nil, err
	}
	curIdx := t.Optional("currency")
	dateIdx := t.Optional("date")
	descIdx := t.Optional("description")
	docTypeIdx := t.Optional("doc_type")

	out := make([]model.IntercompanyDoc, 0, len(t.Rows))
	for _, row := range t.Rows {
		src, err := amount(t.Source, row, req[3])
		if err != nil {
			return nil, err
		}
		dst, err := amount(t.Source, row, req[4])
		if err != nil {
			return nil, err
		}
		out = append(out, model.IntercompanyDoc{
			DocID:       text(row, req[0]),
			EntitySrc:   text(row, req[1]),
			EntityDst:   text(row, req[2]),
			AmountSrc:   src,
			AmountDst:   dst,
			Currency:    text(row, curIdx),
			Date:        date(t.Source, row, dateIdx),
			Description: text(row, descIdx),
			DocType:     text(row, docTypeIdx),
		})
	}
	return out, nil
}

func loadTrialBalance(t *Table) ([]model.TrialBalanceLine, error) {
	req, err := t.Require("entity", "account", "balance")
	if err != nil {
		return nil, err
	}
	nameIdx := t.Optional("account_name")
	curIdx := t.Optional("currency")

	out := make([]model.TrialBalanceLine, 0, len(t.Rows))
	for _, row := range t.Rows {
		bal, err := amount(t.Source, row, req[2])
		if err != nil {
			return nil, err
		}
		out = append(out, model.TrialBalanceLine{
			Entity:      text(row, req[0]),
			Account:     text(row, req[1]),
			Balance:     bal,
			AccountName: text(row, nameIdx),
			Currency:    text(row, curIdx),
		})
	}
	return out, nil
}

func loadJournals(t *Table) ([]model.JournalEntry, error) {
	req, err := t.Require("entry_id", "entity", "amount")
	if err != nil {
		return nil, err
	}
	curIdx := t.Optional("currency")
	dateIdx := t.Optional("date")
	descIdx := t.Optional("description")
	srcIdx := t.Optional("source")
	statusIdx := t.Optional("approval_status")
	approverIdx := t.Optional("approver")
	supportIdx := t.Optional("supporting_doc_ref")

	out := make([]model.JournalEntry, 0, len(t.Rows))
	for _, row := range t.Rows {
		amt, err := amount(t.Source, row, req[2])
		if err != nil {
			return nil, err
		}
		out = append(out, model.JournalEntry{
			EntryID:        text(row, req[0]),
			Entity:         text(row, req[1]),
			Amount:         amt,
			Currency:       text(row, curIdx),
			Date:           date(t.Source, row, dateIdx),
			Description:    text(row, descIdx),
			Source:         text(row, srcIdx),
			ApprovalStatus: text(row, statusIdx),
			Approver:       text(row, approverIdx),
			SupportRef:     text(row, supportIdx),
		})
	}
	return out, nil
}

func loadAccruals(t *Table) ([]model.Accrual, error) {
	req, err := t.Require("accrual_id", "entity", "amount")
	if err != nil {
		return nil, err
	}
	curIdx := t.Optional("currency")
	descIdx := t.Optional("description")
	statusIdx := t.Optional("status")
	revIdx := t.Optional("reversal_date")

	out := make([]model.Accrual, 0, len(t.Rows))
	for _, row := range t.Rows {
		amt, err := amount(t.Source, row, req[2])
		if err != nil {
			return nil, err
		}
		out = append(out, model.Accrual{
			AccrualID:    text(row, req[0]),
			Entity:       text(row, req[1]),
			Amount:       amt,
			Currency:     text(row, curIdx),
			Description:  text(row, descIdx),
			Status:       text(row, statusIdx),
			ReversalDate: date(t.Source, row, revIdx),
		})
	}
	return out, nil
}

func loadFlux(t *Table) ([]model.FluxRow, error) {
	req, err := t.Require("entity", "account", "actual", "budget", "prior")
	if err != nil {
		return nil, err
	}
	nameIdx := t.Optional("account_name")

	out := make([]model.FluxRow, 0, len(t.Rows))
	for _, row := range t.Rows {
		actual, err := amount(t.Source, row, req[2])
		if err != nil {
			return nil, err
		}
		budget, err := amount(t.Source, row, req[3])
		if err != nil {
			return nil, err
		}
		prior, err := amount(t.Source, row, req[4])
		if err != nil {
			return nil, err
		}
		out = append(out, model.FluxRow{
			Entity:      text(row, req[0]),
			Account:     text(row, req[1]),
			AccountName: text(row, nameIdx),
			Actual:      actual,
			Budget:      budget,
			Prior:       prior,
		})
	}
	return out, nil
}

func loadEntitySizes(t *Table) ([]model.EntitySize, error) {
	req, err := t.Require("entity", "tb_sum")
	if err != nil {
		return nil, err
	}
	out := make([]model.EntitySize, 0, len(t.Rows))
	for _, row := range t.Rows {
		sum, err := amount(t.Source, row, req[1])
		if err != nil {
			return nil, err
		}
		out = append(out, model.EntitySize{Entity: text(row, req[0]), TBSum: sum})
	}
	return out, nil
}
