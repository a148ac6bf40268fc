// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package cgtreport aggregates matching results into per-tax-year summaries
// and the machine-readable report.
//
// The JSON field names are a stable contract for downstream formatters.
// Decimal fields serialize as strings so values survive round-trips without
// binary-float drift.
package cgtreport

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/velikodniy/cgt-tool/internal/cgt/cgtledger"
	"github.com/velikodniy/cgt-tool/internal/cgt/cgtmatch"
	"github.com/velikodniy/cgt-tool/internal/standard/xtime"
)

// TaxReport is the complete calculation output.
type TaxReport struct {
	// TaxYears is the per-tax-year summaries, earliest first.
	TaxYears []TaxYearSummary `json:"tax_years"`
	// Holdings is the end-state Section 104 pools with quantity > 0,
	// sorted by ticker.
	Holdings []Holding `json:"holdings"`
}

// TaxYearSummary is the aggregated result for one tax year.
type TaxYearSummary struct {
	// Period is the tax year.
	Period cgtledger.TaxPeriod `json:"period"`
	// Disposals is the year's disposals, sorted by (date, ticker).
	Disposals []Disposal `json:"disposals"`
	// TotalGain is the sum of the positive disposal nets.
	TotalGain decimal.Decimal `json:"total_gain"`
	// TotalLoss is the sum of the negative disposal nets, as a positive value.
	TotalLoss decimal.Decimal `json:"total_loss"`
	// NetGain is TotalGain minus TotalLoss.
	NetGain decimal.Decimal `json:"net_gain"`
	// GrossProceeds is the sum of disposal proceeds before sale fees
	// (the SA108 box 21 figure).
	GrossProceeds decimal.Decimal `json:"gross_proceeds"`
	// DividendIncome is the year's dividend income in GBP.
	DividendIncome decimal.Decimal `json:"dividend_income"`
	// DividendTaxWithheld is the year's dividend tax withheld in GBP.
	DividendTaxWithheld decimal.Decimal `json:"dividend_tax_withheld"`
}

// Disposal is one disposal with its matches.
type Disposal struct {
	// Date is the disposal date.
	Date xtime.Date `json:"date"`
	// Ticker is the security ticker.
	Ticker string `json:"ticker"`
	// Quantity is the disposed quantity.
	Quantity decimal.Decimal `json:"quantity"`
	// Proceeds is the GBP gross proceeds before sale fees.
	Proceeds decimal.Decimal `json:"proceeds"`
	// NetProceeds is Proceeds minus SaleFees.
	NetProceeds decimal.Decimal `json:"net_proceeds"`
	// SaleFees is the GBP sale-side fees.
	SaleFees decimal.Decimal `json:"sale_fees"`
	// GainOrLoss is the disposal's total GBP gain or loss.
	GainOrLoss decimal.Decimal `json:"gain_or_loss"`
	// Matches is the ordered match list.
	Matches []Match `json:"matches"`
}

// Match is one identified slice of a disposal.
type Match struct {
	// Rule is the identification rule.
	Rule cgtmatch.MatchRule `json:"rule"`
	// Quantity is the matched quantity.
	Quantity decimal.Decimal `json:"quantity"`
	// AllowableCost is the deductible GBP cost including the sale-fee share.
	AllowableCost decimal.Decimal `json:"allowable_cost"`
	// GainOrLoss is the slice's GBP gain or loss.
	GainOrLoss decimal.Decimal `json:"gain_or_loss"`
	// AcquisitionDate is the matched buy's date, present exactly for
	// bed-and-breakfast matches.
	AcquisitionDate *xtime.Date `json:"acquisition_date,omitempty"`
}

// Holding is an end-state Section 104 pool snapshot.
type Holding struct {
	// Ticker is the security ticker.
	Ticker string `json:"ticker"`
	// Quantity is the pooled quantity.
	Quantity decimal.Decimal `json:"quantity"`
	// TotalCost is the pooled GBP cost basis.
	TotalCost decimal.Decimal `json:"total_cost"`
}

// Aggregate groups a matching result into the tax report: disposals by tax
// year with per-year totals, and the end-state holdings.
//
// A disposal contributes its net to exactly one of TotalGain or TotalLoss;
// a zero-net disposal contributes to neither.
func Aggregate(result *cgtmatch.Result) *TaxReport {
	yearSummaries := make(map[cgtledger.TaxPeriod]*TaxYearSummary)
	summaryFor := func(period cgtledger.TaxPeriod) *TaxYearSummary {
		summary, ok := yearSummaries[period]
		if !ok {
			summary = &TaxYearSummary{
				Period:              period,
				TotalGain:           decimal.Zero,
				TotalLoss:           decimal.Zero,
				NetGain:             decimal.Zero,
				GrossProceeds:       decimal.Zero,
				DividendIncome:      decimal.Zero,
				DividendTaxWithheld: decimal.Zero,
			}
			yearSummaries[period] = summary
		}
		return summary
	}

	for _, disposal := range result.Disposals {
		summary := summaryFor(cgtledger.PeriodForDate(disposal.Date))
		net := disposal.GainOrLoss()
		switch {
		case net.IsPositive():
			summary.TotalGain = summary.TotalGain.Add(net)
		case net.IsNegative():
			summary.TotalLoss = summary.TotalLoss.Add(net.Neg())
		}
		summary.GrossProceeds = summary.GrossProceeds.Add(disposal.GrossProceeds)
		summary.Disposals = append(summary.Disposals, toReportDisposal(disposal, net))
	}
	for _, dividend := range result.Dividends {
		summary := summaryFor(dividend.Period)
		summary.DividendIncome = summary.DividendIncome.Add(dividend.GrossGBP)
		summary.DividendTaxWithheld = summary.DividendTaxWithheld.Add(dividend.TaxWithheldGBP)
	}

	report := &TaxReport{}
	for _, summary := range yearSummaries {
		summary.NetGain = summary.TotalGain.Sub(summary.TotalLoss)
		// Disposals arrive in (date, ticker) order from the matcher and
		// grouping preserves it.
		report.TaxYears = append(report.TaxYears, *summary)
	}
	sort.SliceStable(report.TaxYears, func(i, j int) bool {
		return report.TaxYears[i].Period.Compare(report.TaxYears[j].Period) < 0
	})
	for _, pool := range result.Holdings {
		report.Holdings = append(report.Holdings, Holding{
			Ticker:    pool.Ticker,
			Quantity:  pool.Quantity,
			TotalCost: pool.TotalCost,
		})
	}
	return report
}

// *** PRIVATE ***

func toReportDisposal(disposal cgtmatch.Disposal, net decimal.Decimal) Disposal {
	matches := make([]Match, len(disposal.Matches))
	for i, match := range disposal.Matches {
		matches[i] = Match{
			Rule:            match.Rule,
			Quantity:        match.Quantity,
			AllowableCost:   match.AllowableCost,
			GainOrLoss:      match.GainOrLoss,
			AcquisitionDate: match.AcquisitionDate,
		}
	}
	return Disposal{
		Date:        disposal.Date,
		Ticker:      disposal.Ticker,
		Quantity:    disposal.Quantity,
		Proceeds:    disposal.GrossProceeds,
		NetProceeds: disposal.NetProceeds,
		SaleFees:    disposal.SaleFees,
		GainOrLoss:  net,
		Matches:     matches,
	}
}
