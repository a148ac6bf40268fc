// Copyright 2026 Peter Edge
//
// All rights reserved.

package cgtmatch

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/velikodniy/cgt-tool/internal/cgt/cgtledger"
	"github.com/velikodniy/cgt-tool/internal/cgt/cgtprepare"
	"github.com/velikodniy/cgt-tool/internal/standard/xtime"
)

func TestSameDayBasic(t *testing.T) {
	t.Parallel()
	result := mustMatch(t, `
2023-08-15 BUY FOO 100 @ 10 FEES 10
2023-08-15 SELL FOO 100 @ 12 FEES 10
`)
	require.Len(t, result.Disposals, 1)
	disposal := result.Disposals[0]
	requireDecimal(t, "100", disposal.Quantity)
	requireDecimal(t, "1200", disposal.GrossProceeds)
	requireDecimal(t, "1190", disposal.NetProceeds)
	require.Len(t, disposal.Matches, 1)
	match := disposal.Matches[0]
	require.Equal(t, MatchRuleSameDay, match.Rule)
	require.Nil(t, match.AcquisitionDate)
	requireDecimal(t, "100", match.Quantity)
	requireDecimal(t, "1020", match.AllowableCost)
	requireDecimal(t, "180", match.GainOrLoss)
	// The matched buy never entered the pool.
	require.Empty(t, result.Holdings)
}

func TestPartialSameDayResidueEntersPool(t *testing.T) {
	t.Parallel()
	result := mustMatch(t, `
2023-09-20 BUY BAR 200 @ 5 FEES 20
2023-09-20 SELL BAR 150 @ 6 FEES 15
`)
	require.Len(t, result.Disposals, 1)
	disposal := result.Disposals[0]
	require.Len(t, disposal.Matches, 1)
	match := disposal.Matches[0]
	require.Equal(t, MatchRuleSameDay, match.Rule)
	requireDecimal(t, "150", match.Quantity)
	// 1020 * 150/200 = 765, plus the full sell fees of 15.
	requireDecimal(t, "780", match.AllowableCost)
	requireDecimal(t, "120", match.GainOrLoss)
	// The unmatched 50 shares enter the pool at proportional cost.
	require.Len(t, result.Holdings, 1)
	pool := result.Holdings[0]
	require.Equal(t, "BAR", pool.Ticker)
	requireDecimal(t, "50", pool.Quantity)
	requireDecimal(t, "255", pool.TotalCost)
}

func TestBedAndBreakfastBeforePool(t *testing.T) {
	t.Parallel()
	result := mustMatch(t, `
2023-01-10 BUY BAZ 500 @ 4
2023-06-01 SELL BAZ 200 @ 6 FEES 20
2023-06-15 BUY BAZ 100 @ 5.50 FEES 10
`)
	require.Len(t, result.Disposals, 1)
	disposal := result.Disposals[0]
	require.Len(t, disposal.Matches, 2)

	bnb := disposal.Matches[0]
	require.Equal(t, MatchRuleBedAndBreakfast, bnb.Rule)
	require.NotNil(t, bnb.AcquisitionDate)
	require.Equal(t, xtime.Date{Year: 2023, Month: time.June, Day: 15}, *bnb.AcquisitionDate)
	requireDecimal(t, "100", bnb.Quantity)
	// Buy cost 560 plus half the sell fees.
	requireDecimal(t, "570", bnb.AllowableCost)
	requireDecimal(t, "30", bnb.GainOrLoss)

	pooled := disposal.Matches[1]
	require.Equal(t, MatchRuleSection104, pooled.Rule)
	require.Nil(t, pooled.AcquisitionDate)
	requireDecimal(t, "100", pooled.Quantity)
	requireDecimal(t, "410", pooled.AllowableCost)
	requireDecimal(t, "190", pooled.GainOrLoss)

	require.Len(t, result.Holdings, 1)
	requireDecimal(t, "400", result.Holdings[0].Quantity)
	requireDecimal(t, "1600", result.Holdings[0].TotalCost)
}

func TestSameDayPriorityOverEarlierBedAndBreakfast(t *testing.T) {
	t.Parallel()
	result := mustMatch(t, `
2024-01-02 BUY QUX 200 @ 1
2024-02-01 SELL QUX 100 @ 2
2024-02-02 BUY QUX 80 @ 2
2024-02-02 SELL QUX 50 @ 2
`)
	require.Len(t, result.Disposals, 2)

	// The 2024-02-01 sell may only take what the 2024-02-02 sell does not claim.
	first := result.Disposals[0]
	require.Equal(t, xtime.Date{Year: 2024, Month: time.February, Day: 1}, first.Date)
	require.Len(t, first.Matches, 2)
	require.Equal(t, MatchRuleBedAndBreakfast, first.Matches[0].Rule)
	requireDecimal(t, "30", first.Matches[0].Quantity)
	require.Equal(t, MatchRuleSection104, first.Matches[1].Rule)
	requireDecimal(t, "70", first.Matches[1].Quantity)

	// The same-day sell gets its full entitlement.
	second := result.Disposals[1]
	require.Equal(t, xtime.Date{Year: 2024, Month: time.February, Day: 2}, second.Date)
	require.Len(t, second.Matches, 1)
	require.Equal(t, MatchRuleSameDay, second.Matches[0].Rule)
	requireDecimal(t, "50", second.Matches[0].Quantity)

	// 200 pooled minus the 70 identified against the pool. The 2024-02-02
	// buy was fully consumed and never entered the pool.
	require.Len(t, result.Holdings, 1)
	requireDecimal(t, "130", result.Holdings[0].Quantity)
}

func TestHoldingUnderflow(t *testing.T) {
	t.Parallel()
	entries := mustPrepare(t, `
2024-02-01 SELL QUX 100 @ 2
2024-02-02 BUY QUX 80 @ 2
2024-02-02 SELL QUX 50 @ 2
`)
	_, err := MatchAll(entries)
	var calculationError *CalculationError
	require.ErrorAs(t, err, &calculationError)
	require.Equal(t, ErrorKindHoldingUnderflow, calculationError.Kind)
	require.Equal(t, "QUX", calculationError.Ticker)
	require.Equal(t, xtime.Date{Year: 2024, Month: time.February, Day: 1}, calculationError.Date)
}

func TestCapReturnExceedsBasis(t *testing.T) {
	t.Parallel()
	entries := mustPrepare(t, `
2024-01-10 BUY CAP 100 @ 5
2024-03-01 CAPRETURN CAP TOTAL 600
`)
	_, err := MatchAll(entries)
	var calculationError *CalculationError
	require.ErrorAs(t, err, &calculationError)
	require.Equal(t, ErrorKindCapReturnExceedsBasis, calculationError.Kind)
	require.Equal(t, "CAP", calculationError.Ticker)
	require.Equal(t, xtime.Date{Year: 2024, Month: time.March, Day: 1}, calculationError.Date)
}

func TestCapReturnReducesPoolCost(t *testing.T) {
	t.Parallel()
	result := mustMatch(t, `
2024-01-10 BUY CAP 100 @ 5
2024-03-01 CAPRETURN CAP TOTAL 200
`)
	require.Len(t, result.Holdings, 1)
	requireDecimal(t, "100", result.Holdings[0].Quantity)
	requireDecimal(t, "300", result.Holdings[0].TotalCost)
}

func TestAccumulationIncreasesPoolCost(t *testing.T) {
	t.Parallel()
	result := mustMatch(t, `
2024-01-10 BUY ACC 100 @ 5
2024-03-01 ACCUMULATION ACC 100 TOTAL 50
`)
	require.Len(t, result.Holdings, 1)
	requireDecimal(t, "100", result.Holdings[0].Quantity)
	requireDecimal(t, "550", result.Holdings[0].TotalCost)
}

func TestSplitInsideBedAndBreakfastWindow(t *testing.T) {
	t.Parallel()
	result := mustMatch(t, `
2024-04-01 BUY SPL 50 @ 10
2024-05-01 SELL SPL 50 @ 20
2024-05-10 SPLIT SPL RATIO 2
2024-05-20 BUY SPL 100 @ 6
`)
	require.Len(t, result.Disposals, 1)
	disposal := result.Disposals[0]
	require.Len(t, disposal.Matches, 1)
	match := disposal.Matches[0]
	require.Equal(t, MatchRuleBedAndBreakfast, match.Rule)
	// 50 pre-split sell shares matched by 100 post-split buy shares.
	requireDecimal(t, "50", match.Quantity)
	requireDecimal(t, "600", match.AllowableCost)
	requireDecimal(t, "400", match.GainOrLoss)
	// The original holding rode through the split untouched by the sell.
	require.Len(t, result.Holdings, 1)
	requireDecimal(t, "100", result.Holdings[0].Quantity)
	requireDecimal(t, "500", result.Holdings[0].TotalCost)
}

func TestUnsplitDividesPoolQuantity(t *testing.T) {
	t.Parallel()
	result := mustMatch(t, `
2024-01-10 BUY CON 100 @ 5
2024-02-01 UNSPLIT CON RATIO 4
`)
	require.Len(t, result.Holdings, 1)
	requireDecimal(t, "25", result.Holdings[0].Quantity)
	requireDecimal(t, "500", result.Holdings[0].TotalCost)
}

func TestThirtyDayBoundary(t *testing.T) {
	t.Parallel()
	result := mustMatch(t, `
2023-06-01 BUY WIN 100 @ 4
2024-01-01 SELL WIN 100 @ 5
2024-01-31 BUY WIN 50 @ 6
2024-02-01 BUY WIN 50 @ 7
`)
	require.Len(t, result.Disposals, 1)
	disposal := result.Disposals[0]
	require.Len(t, disposal.Matches, 2)
	// Day 30 is eligible.
	require.Equal(t, MatchRuleBedAndBreakfast, disposal.Matches[0].Rule)
	require.Equal(t, xtime.Date{Year: 2024, Month: time.January, Day: 31}, *disposal.Matches[0].AcquisitionDate)
	requireDecimal(t, "50", disposal.Matches[0].Quantity)
	// Day 31 is not: the residue identifies against the pool.
	require.Equal(t, MatchRuleSection104, disposal.Matches[1].Rule)
	requireDecimal(t, "50", disposal.Matches[1].Quantity)
	// The day-31 buy entered the pool in full: 50 left from the original
	// holding plus 50 at cost 350.
	require.Len(t, result.Holdings, 1)
	requireDecimal(t, "100", result.Holdings[0].Quantity)
	requireDecimal(t, "550", result.Holdings[0].TotalCost)
}

func TestMatchQuantitiesSumToDisposalQuantity(t *testing.T) {
	t.Parallel()
	result := mustMatch(t, `
2023-01-10 BUY SUM 500 @ 4
2023-06-01 SELL SUM 200 @ 6 FEES 20
2023-06-01 BUY SUM 40 @ 6
2023-06-15 BUY SUM 100 @ 5.50 FEES 10
`)
	for _, disposal := range result.Disposals {
		total := decimal.Zero
		for _, match := range disposal.Matches {
			total = total.Add(match.Quantity)
		}
		require.True(t, total.Equal(disposal.Quantity),
			"match quantities %s != disposal quantity %s", total, disposal.Quantity)
	}
}

func TestZeroGainDisposal(t *testing.T) {
	t.Parallel()
	result := mustMatch(t, `
2024-01-10 BUY FLAT 100 @ 5
2024-06-01 SELL FLAT 100 @ 5
`)
	require.Len(t, result.Disposals, 1)
	requireDecimal(t, "0", result.Disposals[0].GainOrLoss())
	require.Len(t, result.Disposals[0].Matches, 1)
	require.Empty(t, result.Holdings)
}

func TestPoolSnapsToZero(t *testing.T) {
	t.Parallel()
	// The three sells leave 0.00000000001 shares, rounding dust below the
	// 1e-10 tolerance that must snap to an exactly empty pool.
	result := mustMatch(t, `
2024-01-10 BUY DUST 1 @ 300
2024-02-01 SELL DUST 0.3333333333 @ 100
2024-03-01 SELL DUST 0.3333333333 @ 100
2024-04-01 SELL DUST 0.33333333339 @ 100
`)
	require.Len(t, result.Disposals, 3)
	require.Empty(t, result.Holdings)
}

func TestDividendRecordsIncome(t *testing.T) {
	t.Parallel()
	result := mustMatch(t, `
2024-01-10 BUY DIV 100 @ 5
2024-06-01 DIVIDEND DIV 100 TOTAL 30 TAX 3
`)
	require.Empty(t, result.Disposals)
	require.Len(t, result.Dividends, 1)
	dividend := result.Dividends[0]
	require.Equal(t, "DIV", dividend.Ticker)
	require.Equal(t, cgtledger.TaxPeriod{StartYear: 2024}, dividend.Period)
	requireDecimal(t, "30", dividend.GrossGBP)
	requireDecimal(t, "3", dividend.TaxWithheldGBP)
}

func TestDeterministicAcrossRuns(t *testing.T) {
	t.Parallel()
	ledger := `
2023-01-10 BUY AAA 500 @ 4
2023-01-10 BUY BBB 300 @ 2
2023-06-01 SELL AAA 200 @ 6 FEES 20
2023-06-01 SELL BBB 100 @ 3
2023-06-15 BUY AAA 100 @ 5.50 FEES 10
`
	first := mustMatch(t, ledger)
	second := mustMatch(t, ledger)
	require.Equal(t, first, second)
}

// *** HELPERS ***

func mustPrepare(t *testing.T, ledger string) []cgtprepare.Entry {
	transactions, err := cgtledger.Parse(strings.NewReader(ledger))
	require.NoError(t, err)
	entries, err := cgtprepare.Prepare(transactions, nil)
	require.NoError(t, err)
	return entries
}

func mustMatch(t *testing.T, ledger string) *Result {
	result, err := MatchAll(mustPrepare(t, ledger))
	require.NoError(t, err)
	return result
}

func requireDecimal(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()
	require.True(t, actual.Equal(decimal.RequireFromString(expected)),
		"expected %s, got %s", expected, actual)
}
