// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package cgtprepare normalizes a validated ledger into the flat entries
// the matching engine consumes.
//
// Preparation sorts transactions into the calculation order, resolves every
// currency amount to a GBP decimal through the FX cache, and merges same-day
// buys (and sells) per ticker into single synthetic lots. The original
// currency amounts stay on the ledger transactions; the matcher reads GBP
// only.
package cgtprepare

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/velikodniy/cgt-tool/internal/cgt/cgtledger"
	"github.com/velikodniy/cgt-tool/internal/pkg/money"
	"github.com/velikodniy/cgt-tool/internal/standard/xtime"
)

// Entry is a single prepared ledger entry with all values resolved to GBP.
// For buys and sells, a single Entry may aggregate several same-day
// transactions of the same side.
type Entry struct {
	// Date is the entry date.
	Date xtime.Date
	// Ticker is the normalized ticker.
	Ticker string
	// Kind is the operation kind.
	Kind cgtledger.OperationKind
	// Quantity is the (aggregated) share quantity. Unset for splits.
	Quantity decimal.Decimal
	// GrossGBP is the aggregated gross value in GBP: quantity times unit
	// price for trades, the total value for dividends, capital returns,
	// and accumulations. Unset for splits.
	GrossGBP decimal.Decimal
	// FeesGBP is the aggregated fees in GBP.
	FeesGBP decimal.Decimal
	// TaxWithheldGBP is the withheld tax in GBP for dividends.
	TaxWithheldGBP decimal.Decimal
	// Ratio is the split or unsplit ratio. Unset for other kinds.
	Ratio decimal.Decimal
	// Line is the source line of the first contributing transaction.
	Line int
}

// Prepare sorts, converts, and aggregates a ledger for matching.
//
// Transactions are sorted by (date, ticker, kind priority), every amount is
// resolved to GBP at the transaction's monthly rate, and buys and sells
// sharing a (date, ticker, side) are merged: quantities and fees sum, and
// the gross is the quantity-weighted sum of prices. Returns a
// *money.MissingRateError if a non-GBP amount has no rate for its month.
func Prepare(transactions []cgtledger.Transaction, rates money.RateSource) ([]Entry, error) {
	sorted := make([]cgtledger.Transaction, len(transactions))
	copy(sorted, transactions)
	for i := range sorted {
		ticker, err := cgtledger.NormalizeTicker(sorted[i].Ticker)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", sorted[i].Line, err)
		}
		sorted[i].Ticker = ticker
	}
	cgtledger.SortTransactions(sorted)

	var entries []Entry
	for _, transaction := range sorted {
		entry, err := toEntry(transaction, rates)
		if err != nil {
			return nil, err
		}
		// Merge same-day buys (and sells) per ticker into one synthetic lot.
		if len(entries) > 0 && mergeable(entries[len(entries)-1], entry) {
			last := &entries[len(entries)-1]
			last.Quantity = last.Quantity.Add(entry.Quantity)
			last.GrossGBP = last.GrossGBP.Add(entry.GrossGBP)
			last.FeesGBP = last.FeesGBP.Add(entry.FeesGBP)
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// *** PRIVATE ***

// mergeable reports whether two adjacent sorted entries form one same-day lot.
func mergeable(a Entry, b Entry) bool {
	if a.Kind != b.Kind || (a.Kind != cgtledger.OperationKindBuy && a.Kind != cgtledger.OperationKindSell) {
		return false
	}
	return a.Date == b.Date && a.Ticker == b.Ticker
}

// toEntry resolves a single transaction to a GBP entry.
func toEntry(transaction cgtledger.Transaction, rates money.RateSource) (Entry, error) {
	entry := Entry{
		Date:   transaction.Date,
		Ticker: transaction.Ticker,
		Kind:   transaction.Op.Kind(),
		Line:   transaction.Line,
	}
	inGBP := func(amount money.Amount) (decimal.Decimal, error) {
		return amount.InGBP(transaction.Date, rates)
	}
	switch op := transaction.Op.(type) {
	case cgtledger.Buy:
		unitPriceGBP, err := inGBP(op.UnitPrice)
		if err != nil {
			return Entry{}, err
		}
		feesGBP, err := inGBP(op.Fees)
		if err != nil {
			return Entry{}, err
		}
		entry.Quantity = op.Quantity
		entry.GrossGBP = op.Quantity.Mul(unitPriceGBP)
		entry.FeesGBP = feesGBP
	case cgtledger.Sell:
		unitPriceGBP, err := inGBP(op.UnitPrice)
		if err != nil {
			return Entry{}, err
		}
		feesGBP, err := inGBP(op.Fees)
		if err != nil {
			return Entry{}, err
		}
		entry.Quantity = op.Quantity
		entry.GrossGBP = op.Quantity.Mul(unitPriceGBP)
		entry.FeesGBP = feesGBP
	case cgtledger.Dividend:
		totalGBP, err := inGBP(op.TotalValue)
		if err != nil {
			return Entry{}, err
		}
		taxGBP, err := inGBP(op.TaxWithheld)
		if err != nil {
			return Entry{}, err
		}
		entry.Quantity = op.Quantity
		entry.GrossGBP = totalGBP
		entry.TaxWithheldGBP = taxGBP
	case cgtledger.CapReturn:
		totalGBP, err := inGBP(op.TotalValue)
		if err != nil {
			return Entry{}, err
		}
		feesGBP, err := inGBP(op.Fees)
		if err != nil {
			return Entry{}, err
		}
		entry.Quantity = op.Quantity
		entry.GrossGBP = totalGBP
		entry.FeesGBP = feesGBP
	case cgtledger.Accumulation:
		totalGBP, err := inGBP(op.TotalValue)
		if err != nil {
			return Entry{}, err
		}
		entry.Quantity = op.Quantity
		entry.GrossGBP = totalGBP
	case cgtledger.Split:
		entry.Ratio = op.Ratio
	case cgtledger.Unsplit:
		entry.Ratio = op.Ratio
	default:
		return Entry{}, fmt.Errorf("line %d: unsupported operation %T", transaction.Line, transaction.Op)
	}
	return entry, nil
}
