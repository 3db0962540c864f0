package detect

import (
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// usd renders a decimal amount as a display dollar string ("$12,345.67").
// Formatting is deterministic, so rationale strings hash identically across
// runs.
func usd(d decimal.Decimal) string {
	cents := d.Round(2).Mul(decimal.NewFromInt(100)).IntPart()
	return money.New(cents, money.USD).Display()
}

// pct renders a percentage with two decimals, or "n/a" when the basis was
// zero.
func pct(d decimal.Decimal, ok bool) string {
	if !ok {
		return "n/a"
	}
	return d.StringFixed(2) + "%"
}

func rationaleDuplicate(txnID, primaryID string, amount decimal.Decimal) string {
	return fmt.Sprintf("bank txn %s duplicates %s on signature (entity, date, amount %s, currency, counterparty, type)",
		txnID, primaryID, usd(amount))
}

func rationaleTiming(firstID, secondID string, dayGap, window int) string {
	return fmt.Sprintf("bank txns %s and %s match on all signature fields with a %d-day date gap (window %d days)",
		firstID, secondID, dayGap, window)
}

func rationaleCounterparty(counterparty, keyword string, amount, floor decimal.Decimal) string {
	return fmt.Sprintf("large payment %s to counterparty %q matches keyword %q (floor %s)",
		usd(amount.Abs()), counterparty, keyword, usd(floor))
}

func rationaleVelocity(count int, counterparty, date string, total decimal.Decimal) string {
	return fmt.Sprintf("%d same-day transactions to %q on %s totalling %s", count, counterparty, date, usd(total))
}

func rationaleKiting(outID, inID string, outAmt, inAmt decimal.Decimal, lagDays int) string {
	return fmt.Sprintf("outbound transfer %s (%s) matched by near-equal inbound %s (%s) %d day(s) later, same counterparty",
		outID, usd(outAmt.Abs()), inID, usd(inAmt.Abs()), lagDays)
}

func rationaleOverdue(key, status string, ageDays int, amount decimal.Decimal) string {
	return fmt.Sprintf("%s is %s at %d days aged, open amount %s", key, strings.ToLower(status), ageDays, usd(amount))
}

func rationaleAged(key string, ageDays, limit int, amount decimal.Decimal) string {
	return fmt.Sprintf("%s aged %d days exceeds the %d-day limit, open amount %s", key, ageDays, limit, usd(amount))
}

func rationaleRoundDollar(key string, amount, base, floor decimal.Decimal) string {
	return fmt.Sprintf("%s amount %s is an exact multiple of %s above the %s floor",
		key, usd(amount.Abs()), usd(base), usd(floor))
}

func rationaleImbalance(entity string, imbalance decimal.Decimal, top []string) string {
	return fmt.Sprintf("entity %s trial balance sums to %s (expected 0.00); top contributors: %s",
		entity, usd(imbalance), strings.Join(top, "; "))
}

func rationaleMismatch(docID string, diff, threshold decimal.Decimal) string {
	return fmt.Sprintf("intercompany doc %s source/destination amounts differ by %s, above pair threshold %s",
		docID, usd(diff), usd(threshold))
}

func rationaleFlux(entity, account, basis string, variance decimal.Decimal, pctStr string, threshold decimal.Decimal) string {
	return fmt.Sprintf("entity %s account %s variance vs %s is %s (%s), above entity threshold %s",
		entity, account, basis, usd(variance), pctStr, usd(threshold))
}
