// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package cgtmatch implements HMRC share identification for disposals.
//
// Each ticker is matched independently in a single chronological pass. Every
// disposal runs the three-rule cascade in order: Same Day (TCGA92/S105(1)),
// Bed & Breakfast (the 30-day rule, TCGA92/S106A), then the Section 104
// holding (TCGA92/S104). The engine maintains one Section 104 pool per
// ticker, applies corporate actions before the trades of their day, and is
// fail-stop: the first calculation error aborts with no partial output.
package cgtmatch

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/velikodniy/cgt-tool/internal/cgt/cgtledger"
	"github.com/velikodniy/cgt-tool/internal/cgt/cgtprepare"
	"github.com/velikodniy/cgt-tool/internal/standard/xtime"
)

// bnbWindowDays is the Bed & Breakfast lookahead window in calendar days.
// A buy exactly bnbWindowDays after the sell is still eligible.
const bnbWindowDays = 30

// apportionScale is the number of decimal places kept for non-terminating
// apportionment divisions, rounded half away from zero.
const apportionScale = 10

// zeroTolerance snaps a pool to empty: a residual quantity below this after
// a disposal is rounding dust, not a holding.
var zeroTolerance = decimal.New(1, -10)

// MatchRule identifies which identification rule produced a match.
type MatchRule int

const (
	// MatchRuleSameDay is a same-day acquisition match.
	MatchRuleSameDay MatchRule = iota + 1
	// MatchRuleBedAndBreakfast is a 30-day forward acquisition match.
	MatchRuleBedAndBreakfast
	// MatchRuleSection104 is a match against the Section 104 pool.
	MatchRuleSection104
)

// String returns the stable name used in reports.
func (r MatchRule) String() string {
	switch r {
	case MatchRuleSameDay:
		return "same_day"
	case MatchRuleBedAndBreakfast:
		return "bed_and_breakfast"
	case MatchRuleSection104:
		return "section_104"
	default:
		return fmt.Sprintf("MatchRule(%d)", int(r))
	}
}

// MarshalText implements the encoding.TextMarshaler interface.
func (r MatchRule) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements the encoding.TextUnmarshaler interface.
func (r *MatchRule) UnmarshalText(data []byte) error {
	switch string(data) {
	case "same_day":
		*r = MatchRuleSameDay
	case "bed_and_breakfast":
		*r = MatchRuleBedAndBreakfast
	case "section_104":
		*r = MatchRuleSection104
	default:
		return fmt.Errorf("unknown match rule %q", string(data))
	}
	return nil
}

// Match is one identified slice of a disposal.
type Match struct {
	// Rule is the identification rule that produced the match.
	Rule MatchRule
	// Quantity is the matched quantity in the disposal's (pre-split) units.
	Quantity decimal.Decimal
	// AllowableCost is the GBP cost deductible for this slice, including
	// its proportional share of the sale-side fees.
	AllowableCost decimal.Decimal
	// GainOrLoss is the GBP gain (positive) or loss (negative) of the slice.
	GainOrLoss decimal.Decimal
	// AcquisitionDate is the matched buy's date. Set exactly when Rule is
	// MatchRuleBedAndBreakfast.
	AcquisitionDate *xtime.Date
}

// Disposal is a sell with its complete set of matches.
// The match quantities always sum to Quantity.
type Disposal struct {
	// Date is the disposal date.
	Date xtime.Date
	// Ticker is the security ticker.
	Ticker string
	// Quantity is the total disposed quantity.
	Quantity decimal.Decimal
	// GrossProceeds is the GBP proceeds before sale fees.
	GrossProceeds decimal.Decimal
	// NetProceeds is GrossProceeds minus SaleFees.
	NetProceeds decimal.Decimal
	// SaleFees is the GBP sale-side fees.
	SaleFees decimal.Decimal
	// Matches is the ordered match list (cascade order).
	Matches []Match
}

// GainOrLoss returns the disposal's total GBP gain or loss across matches.
func (d Disposal) GainOrLoss() decimal.Decimal {
	total := decimal.Zero
	for _, match := range d.Matches {
		total = total.Add(match.GainOrLoss)
	}
	return total
}

// Pool is a Section 104 holding snapshot.
type Pool struct {
	// Ticker is the security ticker.
	Ticker string
	// Quantity is the pooled share quantity, >= 0.
	Quantity decimal.Decimal
	// TotalCost is the pooled GBP cost basis, >= 0. Zero when Quantity is zero.
	TotalCost decimal.Decimal
}

// AverageCost returns the per-share cost, or zero for an empty pool.
func (p Pool) AverageCost() decimal.Decimal {
	if p.Quantity.IsZero() {
		return decimal.Zero
	}
	return p.TotalCost.DivRound(p.Quantity, apportionScale)
}

// DividendIncome is a dividend recorded against a tax year. Dividends have
// no pool effect; they are carried for the income side of the report.
type DividendIncome struct {
	// Date is the dividend date.
	Date xtime.Date
	// Ticker is the security ticker.
	Ticker string
	// Period is the tax year the dividend falls in.
	Period cgtledger.TaxPeriod
	// GrossGBP is the dividend value in GBP.
	GrossGBP decimal.Decimal
	// TaxWithheldGBP is the withheld tax in GBP.
	TaxWithheldGBP decimal.Decimal
}

// Result is the complete output of a matching run.
type Result struct {
	// Disposals is every disposal with its matches, sorted by (date, ticker).
	Disposals []Disposal
	// Holdings is the end-state pools with quantity > 0, sorted by ticker.
	Holdings []Pool
	// Dividends is the recorded dividend income, sorted by (date, ticker).
	Dividends []DividendIncome
}

// ErrorKind discriminates calculation failures.
type ErrorKind int

const (
	// ErrorKindHoldingUnderflow is a disposal exceeding all available matches
	// plus the pool.
	ErrorKindHoldingUnderflow ErrorKind = iota + 1
	// ErrorKindCapReturnExceedsBasis is a capital return larger than the
	// pool's remaining cost basis (TCGA92/S122 small-distribution treatment
	// is the only supported case).
	ErrorKindCapReturnExceedsBasis
)

// String returns a short name for the kind.
func (k ErrorKind) String() string {
	switch k {
	case ErrorKindHoldingUnderflow:
		return "holding_underflow"
	case ErrorKindCapReturnExceedsBasis:
		return "capital_return_exceeds_basis"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// CalculationError is a fail-stop matching failure.
type CalculationError struct {
	// Kind is the failure kind.
	Kind ErrorKind
	// Ticker is the ticker being matched.
	Ticker string
	// Date is the date of the failing entry.
	Date xtime.Date
}

// Error implements error.
func (e *CalculationError) Error() string {
	switch e.Kind {
	case ErrorKindHoldingUnderflow:
		return fmt.Sprintf("%s: disposal on %s exceeds the available holding", e.Ticker, e.Date)
	case ErrorKindCapReturnExceedsBasis:
		return fmt.Sprintf("%s: capital return on %s exceeds the pool cost basis", e.Ticker, e.Date)
	default:
		return fmt.Sprintf("%s: calculation error on %s", e.Ticker, e.Date)
	}
}

// MatchAll runs the matching engine over prepared entries for all tickers.
// Tickers are matched independently; the combined result is deterministic
// for a given input.
func MatchAll(entries []cgtprepare.Entry) (*Result, error) {
	// Group entries by ticker, preserving chronological order within each.
	tickerEntries := make(map[string][]cgtprepare.Entry)
	var tickers []string
	for _, entry := range entries {
		if _, ok := tickerEntries[entry.Ticker]; !ok {
			tickers = append(tickers, entry.Ticker)
		}
		tickerEntries[entry.Ticker] = append(tickerEntries[entry.Ticker], entry)
	}
	sort.Strings(tickers)

	result := &Result{}
	for _, ticker := range tickers {
		matcher := newTickerMatcher(ticker, tickerEntries[ticker])
		if err := matcher.run(); err != nil {
			return nil, err
		}
		result.Disposals = append(result.Disposals, matcher.disposals...)
		result.Dividends = append(result.Dividends, matcher.dividends...)
		if matcher.pool.Quantity.IsPositive() {
			result.Holdings = append(result.Holdings, matcher.pool)
		}
	}
	sort.SliceStable(result.Disposals, func(i, j int) bool {
		if c := result.Disposals[i].Date.Compare(result.Disposals[j].Date); c != 0 {
			return c < 0
		}
		return result.Disposals[i].Ticker < result.Disposals[j].Ticker
	})
	sort.SliceStable(result.Dividends, func(i, j int) bool {
		if c := result.Dividends[i].Date.Compare(result.Dividends[j].Date); c != 0 {
			return c < 0
		}
		return result.Dividends[i].Ticker < result.Dividends[j].Ticker
	})
	sort.SliceStable(result.Holdings, func(i, j int) bool {
		return result.Holdings[i].Ticker < result.Holdings[j].Ticker
	})
	return result, nil
}

// *** PRIVATE ***

// tickerMatcher holds the single-ticker matching state.
type tickerMatcher struct {
	ticker  string
	entries []cgtprepare.Entry

	pool      Pool
	disposals []Disposal
	dividends []DividendIncome

	// sameDayReserved maps a buy's entry index to the quantity a same-day
	// sell is entitled to claim from it. An earlier sell's 30-day lookahead
	// may only consume the remainder, so Same Day keeps absolute priority
	// (TCGA92/S106A(9)).
	sameDayReserved map[int]decimal.Decimal
	// bnbConsumed maps a buy's entry index to the quantity (in the buy's
	// post-split units) already consumed by earlier disposals' 30-day matches.
	bnbConsumed map[int]decimal.Decimal
	// sameDayUsed maps a buy's entry index to the quantity matched by the
	// same-day sell.
	sameDayUsed map[int]decimal.Decimal
}

func newTickerMatcher(ticker string, entries []cgtprepare.Entry) *tickerMatcher {
	m := &tickerMatcher{
		ticker:          ticker,
		entries:         entries,
		pool:            Pool{Ticker: ticker, Quantity: decimal.Zero, TotalCost: decimal.Zero},
		sameDayReserved: make(map[int]decimal.Decimal),
		bnbConsumed:     make(map[int]decimal.Decimal),
		sameDayUsed:     make(map[int]decimal.Decimal),
	}
	// Pre-scan: reserve each buy's same-day sell entitlement before any
	// lookahead runs.
	for i, entry := range entries {
		if entry.Kind != cgtledger.OperationKindBuy {
			continue
		}
		for j := i + 1; j < len(entries) && entries[j].Date == entry.Date; j++ {
			if entries[j].Kind == cgtledger.OperationKindSell {
				m.sameDayReserved[i] = decimal.Min(entry.Quantity, entries[j].Quantity)
				break
			}
		}
	}
	return m
}

// run processes the ticker's entries chronologically. Within a day:
// corporate actions first, then the sell cascade, then any unmatched buy
// residue enters the pool at end of day.
func (m *tickerMatcher) run() error {
	dayStart := 0
	for dayStart < len(m.entries) {
		dayEnd := dayStart
		for dayEnd < len(m.entries) && m.entries[dayEnd].Date == m.entries[dayStart].Date {
			dayEnd++
		}
		pendingBuy := -1
		for i := dayStart; i < dayEnd; i++ {
			entry := m.entries[i]
			switch entry.Kind {
			case cgtledger.OperationKindSplit:
				m.pool.Quantity = m.pool.Quantity.Mul(entry.Ratio)
			case cgtledger.OperationKindUnsplit:
				m.pool.Quantity = m.pool.Quantity.DivRound(entry.Ratio, apportionScale)
			case cgtledger.OperationKindCapReturn:
				m.pool.TotalCost = m.pool.TotalCost.Sub(entry.GrossGBP)
				if m.pool.TotalCost.IsNegative() {
					return &CalculationError{Kind: ErrorKindCapReturnExceedsBasis, Ticker: m.ticker, Date: entry.Date}
				}
			case cgtledger.OperationKindAccumulation:
				m.pool.TotalCost = m.pool.TotalCost.Add(entry.GrossGBP)
			case cgtledger.OperationKindDividend:
				m.dividends = append(m.dividends, DividendIncome{
					Date:           entry.Date,
					Ticker:         m.ticker,
					Period:         cgtledger.PeriodForDate(entry.Date),
					GrossGBP:       entry.GrossGBP,
					TaxWithheldGBP: entry.TaxWithheldGBP,
				})
			case cgtledger.OperationKindBuy:
				pendingBuy = i
			case cgtledger.OperationKindSell:
				if err := m.sell(i, pendingBuy); err != nil {
					return err
				}
			}
		}
		// End of day: the unmatched residue of the day's buy enters the pool.
		if pendingBuy >= 0 {
			m.enterPool(pendingBuy)
		}
		dayStart = dayEnd
	}
	return nil
}

// sell runs the three-rule cascade for the sell at entry index sellIndex.
// sameDayBuy is the index of the day's buy entry, or -1.
func (m *tickerMatcher) sell(sellIndex int, sameDayBuy int) error {
	sell := m.entries[sellIndex]
	// A zero-quantity aggregated sell produces nothing.
	if sell.Quantity.IsZero() {
		return nil
	}
	disposal := Disposal{
		Date:          sell.Date,
		Ticker:        m.ticker,
		Quantity:      sell.Quantity,
		GrossProceeds: sell.GrossGBP,
		NetProceeds:   sell.GrossGBP.Sub(sell.FeesGBP),
		SaleFees:      sell.FeesGBP,
	}
	residue := sell.Quantity

	// Same Day.
	if sameDayBuy >= 0 {
		buy := m.entries[sameDayBuy]
		if buy.Quantity.IsPositive() {
			matched := decimal.Min(residue, buy.Quantity)
			cost := apportion(buy.GrossGBP.Add(buy.FeesGBP), matched, buy.Quantity)
			disposal.Matches = append(disposal.Matches, m.newMatch(MatchRuleSameDay, sell, matched, cost, nil))
			m.sameDayUsed[sameDayBuy] = matched
			residue = residue.Sub(matched)
		}
	}

	// Bed & Breakfast: buys on days D+1 to D+30, earliest first. A split
	// between the sell and a candidate buy scales the claim so post-split
	// buy units cover pre-split sell units.
	splitRatio := decimal.NewFromInt(1)
	for j := sellIndex + 1; j < len(m.entries) && residue.IsPositive(); j++ {
		candidate := m.entries[j]
		daysAhead := candidate.Date.DaysSince(sell.Date)
		if daysAhead > bnbWindowDays {
			break
		}
		switch candidate.Kind {
		case cgtledger.OperationKindSplit:
			splitRatio = splitRatio.Mul(candidate.Ratio)
		case cgtledger.OperationKindUnsplit:
			splitRatio = splitRatio.DivRound(candidate.Ratio, apportionScale)
		case cgtledger.OperationKindBuy:
			if daysAhead < 1 || !candidate.Quantity.IsPositive() {
				continue
			}
			available := candidate.Quantity.
				Sub(m.sameDayReserved[j]).
				Sub(m.bnbConsumed[j])
			if !available.IsPositive() {
				continue
			}
			claim := decimal.Min(residue.Mul(splitRatio), available)
			matched := claim
			if !splitRatio.Equal(decimal.NewFromInt(1)) {
				matched = claim.DivRound(splitRatio, apportionScale)
			}
			cost := apportion(candidate.GrossGBP.Add(candidate.FeesGBP), claim, candidate.Quantity)
			acquisitionDate := candidate.Date
			disposal.Matches = append(disposal.Matches, m.newMatch(MatchRuleBedAndBreakfast, sell, matched, cost, &acquisitionDate))
			m.bnbConsumed[j] = m.bnbConsumed[j].Add(claim)
			residue = residue.Sub(matched)
		}
	}

	// Section 104.
	if residue.IsPositive() {
		if residue.GreaterThan(m.pool.Quantity) {
			return &CalculationError{Kind: ErrorKindHoldingUnderflow, Ticker: m.ticker, Date: sell.Date}
		}
		poolCost := apportion(m.pool.TotalCost, residue, m.pool.Quantity)
		disposal.Matches = append(disposal.Matches, m.newMatch(MatchRuleSection104, sell, residue, poolCost, nil))
		m.pool.Quantity = m.pool.Quantity.Sub(residue)
		m.pool.TotalCost = m.pool.TotalCost.Sub(poolCost)
		// Snap rounding dust to an exactly empty pool.
		if m.pool.Quantity.Abs().LessThan(zeroTolerance) {
			m.pool.Quantity = decimal.Zero
			m.pool.TotalCost = decimal.Zero
		}
	}

	m.disposals = append(m.disposals, disposal)
	return nil
}

// newMatch builds a match for a slice of the sell, adding the slice's share
// of the sale fees to the acquisition cost and computing the gain against
// the slice's share of the gross proceeds.
func (m *tickerMatcher) newMatch(rule MatchRule, sell cgtprepare.Entry, matched decimal.Decimal, acquisitionCost decimal.Decimal, acquisitionDate *xtime.Date) Match {
	allowableCost := acquisitionCost.Add(apportion(sell.FeesGBP, matched, sell.Quantity))
	proceeds := apportion(sell.GrossGBP, matched, sell.Quantity)
	return Match{
		Rule:            rule,
		Quantity:        matched,
		AllowableCost:   allowableCost,
		GainOrLoss:      proceeds.Sub(allowableCost),
		AcquisitionDate: acquisitionDate,
	}
}

// enterPool adds the buy's unmatched residue to the pool at its
// proportional cost.
func (m *tickerMatcher) enterPool(buyIndex int) {
	buy := m.entries[buyIndex]
	if !buy.Quantity.IsPositive() {
		return
	}
	residue := buy.Quantity.
		Sub(m.sameDayUsed[buyIndex]).
		Sub(m.bnbConsumed[buyIndex])
	if !residue.IsPositive() {
		return
	}
	m.pool.Quantity = m.pool.Quantity.Add(residue)
	m.pool.TotalCost = m.pool.TotalCost.Add(apportion(buy.GrossGBP.Add(buy.FeesGBP), residue, buy.Quantity))
}

// apportion returns total * part / whole, rounding non-terminating
// divisions half away from zero. Returns zero when the total or the whole
// is zero, so zero-proceeds and zero-quantity edges never divide.
func apportion(total decimal.Decimal, part decimal.Decimal, whole decimal.Decimal) decimal.Decimal {
	if total.IsZero() || whole.IsZero() {
		return decimal.Zero
	}
	if part.Equal(whole) {
		return total
	}
	return total.Mul(part).DivRound(whole, apportionScale)
}
