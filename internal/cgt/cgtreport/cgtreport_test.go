// Copyright 2026 Peter Edge
//
// All rights reserved.

package cgtreport

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/velikodniy/cgt-tool/internal/cgt/cgtledger"
	"github.com/velikodniy/cgt-tool/internal/cgt/cgtmatch"
	"github.com/velikodniy/cgt-tool/internal/standard/xtime"
)

func TestAggregateByTaxYear(t *testing.T) {
	t.Parallel()
	// One disposal on each side of the 6 April boundary, plus a zero-net
	// disposal that must count toward neither gains nor losses.
	result := &cgtmatch.Result{
		Disposals: []cgtmatch.Disposal{
			disposal(date(2024, time.April, 5), "AAA", "100", "150"),
			disposal(date(2024, time.April, 5), "BBB", "100", "-30"),
			disposal(date(2024, time.April, 5), "CCC", "100", "0"),
			disposal(date(2024, time.April, 6), "AAA", "50", "20"),
		},
		Holdings: []cgtmatch.Pool{
			{Ticker: "AAA", Quantity: decimal.RequireFromString("10"), TotalCost: decimal.RequireFromString("40")},
		},
	}
	report := Aggregate(result)

	require.Len(t, report.TaxYears, 2)
	first := report.TaxYears[0]
	require.Equal(t, cgtledger.TaxPeriod{StartYear: 2023}, first.Period)
	require.Len(t, first.Disposals, 3)
	requireDecimal(t, "150", first.TotalGain)
	requireDecimal(t, "30", first.TotalLoss)
	requireDecimal(t, "120", first.NetGain)
	// Gross proceeds are before sale fees: 3 disposals of 100 each.
	requireDecimal(t, "300", first.GrossProceeds)

	second := report.TaxYears[1]
	require.Equal(t, cgtledger.TaxPeriod{StartYear: 2024}, second.Period)
	requireDecimal(t, "20", second.TotalGain)
	requireDecimal(t, "0", second.TotalLoss)

	require.Len(t, report.Holdings, 1)
	require.Equal(t, "AAA", report.Holdings[0].Ticker)
}

func TestAggregateDividends(t *testing.T) {
	t.Parallel()
	result := &cgtmatch.Result{
		Dividends: []cgtmatch.DividendIncome{
			{
				Date:           date(2024, time.June, 1),
				Ticker:         "AAA",
				Period:         cgtledger.TaxPeriod{StartYear: 2024},
				GrossGBP:       decimal.RequireFromString("30"),
				TaxWithheldGBP: decimal.RequireFromString("3"),
			},
			{
				Date:           date(2024, time.July, 1),
				Ticker:         "BBB",
				Period:         cgtledger.TaxPeriod{StartYear: 2024},
				GrossGBP:       decimal.RequireFromString("12"),
				TaxWithheldGBP: decimal.Zero,
			},
		},
	}
	report := Aggregate(result)
	require.Len(t, report.TaxYears, 1)
	requireDecimal(t, "42", report.TaxYears[0].DividendIncome)
	requireDecimal(t, "3", report.TaxYears[0].DividendTaxWithheld)
}

func TestReportJSONRoundTrip(t *testing.T) {
	t.Parallel()
	acquisitionDate := date(2024, time.February, 2)
	report := &TaxReport{
		TaxYears: []TaxYearSummary{
			{
				Period: cgtledger.TaxPeriod{StartYear: 2023},
				Disposals: []Disposal{
					{
						Date:        date(2024, time.February, 1),
						Ticker:      "AAA",
						Quantity:    decimal.RequireFromString("100"),
						Proceeds:    decimal.RequireFromString("1200.50"),
						NetProceeds: decimal.RequireFromString("1190.50"),
						SaleFees:    decimal.RequireFromString("10"),
						GainOrLoss:  decimal.RequireFromString("-12.345"),
						Matches: []Match{
							{
								Rule:            cgtmatch.MatchRuleBedAndBreakfast,
								Quantity:        decimal.RequireFromString("100"),
								AllowableCost:   decimal.RequireFromString("1212.845"),
								GainOrLoss:      decimal.RequireFromString("-12.345"),
								AcquisitionDate: &acquisitionDate,
							},
						},
					},
				},
				TotalGain:           decimal.Zero,
				TotalLoss:           decimal.RequireFromString("12.345"),
				NetGain:             decimal.RequireFromString("-12.345"),
				GrossProceeds:       decimal.RequireFromString("1200.50"),
				DividendIncome:      decimal.Zero,
				DividendTaxWithheld: decimal.Zero,
			},
		},
		Holdings: []Holding{
			{Ticker: "BBB", Quantity: decimal.RequireFromString("10"), TotalCost: decimal.RequireFromString("40.10")},
		},
	}

	first, err := json.Marshal(report)
	require.NoError(t, err)
	var decoded TaxReport
	require.NoError(t, json.Unmarshal(first, &decoded))
	second, err := json.Marshal(&decoded)
	require.NoError(t, err)
	// The canonical serialization survives a round-trip unchanged.
	require.Empty(t, cmp.Diff(string(first), string(second)))
}

func TestReportJSONFieldNames(t *testing.T) {
	t.Parallel()
	report := Aggregate(&cgtmatch.Result{
		Disposals: []cgtmatch.Disposal{
			disposal(date(2024, time.April, 6), "AAA", "100", "20"),
		},
	})
	data, err := json.Marshal(report)
	require.NoError(t, err)
	// The field names are a stable contract, and decimals serialize as
	// strings, not JSON numbers.
	for _, want := range []string{
		`"tax_years"`,
		`"period":"2024/25"`,
		`"disposals"`,
		`"proceeds":"100"`,
		`"gain_or_loss":"20"`,
		`"rule":"section_104"`,
		`"holdings"`,
	} {
		require.Contains(t, string(data), want)
	}
	// Same-day and pool matches carry no acquisition date.
	require.NotContains(t, string(data), "acquisition_date")
}

// *** HELPERS ***

// disposal builds a single-match Section 104 disposal with the given gross
// proceeds and gain.
func disposal(d xtime.Date, ticker string, proceeds string, gain string) cgtmatch.Disposal {
	proceedsDecimal := decimal.RequireFromString(proceeds)
	gainDecimal := decimal.RequireFromString(gain)
	return cgtmatch.Disposal{
		Date:          d,
		Ticker:        ticker,
		Quantity:      decimal.RequireFromString("1"),
		GrossProceeds: proceedsDecimal,
		NetProceeds:   proceedsDecimal,
		SaleFees:      decimal.Zero,
		Matches: []cgtmatch.Match{
			{
				Rule:          cgtmatch.MatchRuleSection104,
				Quantity:      decimal.RequireFromString("1"),
				AllowableCost: proceedsDecimal.Sub(gainDecimal),
				GainOrLoss:    gainDecimal,
			},
		},
	}
}

func date(year int, month time.Month, day int) xtime.Date {
	return xtime.Date{Year: year, Month: month, Day: day}
}

func requireDecimal(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()
	require.True(t, actual.Equal(decimal.RequireFromString(expected)),
		"expected %s, got %s", expected, actual)
}
