// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package cgtvalidate checks structural invariants of a transaction ledger
// before calculation. All violations are collected and returned together,
// not just the first.
package cgtvalidate

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/velikodniy/cgt-tool/internal/cgt/cgtfx"
	"github.com/velikodniy/cgt-tool/internal/cgt/cgtledger"
	"github.com/velikodniy/cgt-tool/internal/pkg/money"
)

// Kind discriminates validation error kinds.
type Kind int

const (
	// KindInvalidDate is a date outside the accepted range.
	KindInvalidDate Kind = iota + 1
	// KindNonPositiveQuantity is a quantity that must be strictly positive.
	KindNonPositiveQuantity
	// KindNegativeValue is a price, fee, or value below zero.
	KindNegativeValue
	// KindInvalidRatio is a split or unsplit ratio that is not strictly positive.
	KindInvalidRatio
	// KindInsufficientHolding is a sell exceeding the rolling holding at its date.
	KindInsufficientHolding
	// KindUnknownCurrency is a currency the FX cache has no rates for.
	KindUnknownCurrency
	// KindMissingRate is a missing monthly FX rate for a consumed amount.
	KindMissingRate
)

// String returns a short name for the kind.
func (k Kind) String() string {
	switch k {
	case KindInvalidDate:
		return "invalid_date"
	case KindNonPositiveQuantity:
		return "non_positive_quantity"
	case KindNegativeValue:
		return "negative_value"
	case KindInvalidRatio:
		return "invalid_ratio"
	case KindInsufficientHolding:
		return "insufficient_holding"
	case KindUnknownCurrency:
		return "unknown_currency"
	case KindMissingRate:
		return "missing_rate"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error is a single validation violation.
type Error struct {
	// Kind is the violation kind.
	Kind Kind
	// Line is the source line of the offending transaction, 0 if unknown.
	Line int
	// Ticker is the offending ticker, empty if not ticker-specific.
	Ticker string
	// Message is the human-readable description.
	Message string
}

// Error implements error.
func (e *Error) Error() string {
	prefix := ""
	if e.Line > 0 {
		prefix = fmt.Sprintf("line %d: ", e.Line)
	}
	if e.Ticker != "" {
		prefix += e.Ticker + ": "
	}
	return prefix + e.Message
}

// Validate checks all transactions against the pre-calculation invariants
// and returns every violation found. A nil result means the ledger is valid.
//
// Checks: dates within [1900, 2100]; strictly positive quantities on buys,
// sells, and explicit capital-return quantities; non-negative prices, fees,
// and values; strictly positive split ratios; per-ticker rolling holding
// coverage for every sell (split-adjusted, with same-day buys counted
// first); and FX cache coverage for every non-GBP amount on the month it
// is consumed.
func Validate(transactions []cgtledger.Transaction, fxCache cgtfx.Cache) []*Error {
	var errs []*Error
	add := func(kind Kind, transaction cgtledger.Transaction, format string, args ...any) {
		errs = append(errs, &Error{
			Kind:    kind,
			Line:    transaction.Line,
			Ticker:  transaction.Ticker,
			Message: fmt.Sprintf(format, args...),
		})
	}

	// Per-transaction structural checks.
	for _, transaction := range transactions {
		if !transaction.Date.IsValid() || transaction.Date.Year < cgtledger.MinYear || transaction.Date.Year > cgtledger.MaxYear {
			add(KindInvalidDate, transaction, "date %s outside [%d, %d]", transaction.Date, cgtledger.MinYear, cgtledger.MaxYear)
		}
		switch op := transaction.Op.(type) {
		case cgtledger.Buy:
			checkPositiveQuantity(op.Quantity, transaction, add)
			checkAmount(op.UnitPrice, "unit price", transaction, fxCache, add)
			checkAmount(op.Fees, "fees", transaction, fxCache, add)
		case cgtledger.Sell:
			checkPositiveQuantity(op.Quantity, transaction, add)
			checkAmount(op.UnitPrice, "unit price", transaction, fxCache, add)
			checkAmount(op.Fees, "fees", transaction, fxCache, add)
		case cgtledger.Dividend:
			if op.Quantity.IsNegative() {
				add(KindNonPositiveQuantity, transaction, "negative quantity %s", op.Quantity)
			}
			checkAmount(op.TotalValue, "total value", transaction, fxCache, add)
			checkAmount(op.TaxWithheld, "tax withheld", transaction, fxCache, add)
		case cgtledger.CapReturn:
			// The explicit quantity is optional; zero means absent.
			if op.Quantity.IsNegative() {
				add(KindNonPositiveQuantity, transaction, "capital return quantity %s must be positive", op.Quantity)
			}
			checkAmount(op.TotalValue, "total value", transaction, fxCache, add)
			checkAmount(op.Fees, "fees", transaction, fxCache, add)
		case cgtledger.Accumulation:
			if op.Quantity.IsNegative() {
				add(KindNonPositiveQuantity, transaction, "negative quantity %s", op.Quantity)
			}
			checkAmount(op.TotalValue, "total value", transaction, fxCache, add)
		case cgtledger.Split:
			checkRatio(op.Ratio, transaction, add)
		case cgtledger.Unsplit:
			checkRatio(op.Ratio, transaction, add)
		}
	}

	// Rolling holding coverage. Transactions are walked in calculation
	// order, so same-day buys are counted before the day's sell.
	sorted := make([]cgtledger.Transaction, len(transactions))
	copy(sorted, transactions)
	cgtledger.SortTransactions(sorted)
	holdings := make(map[string]decimal.Decimal)
	for _, transaction := range sorted {
		holding := holdings[transaction.Ticker]
		switch op := transaction.Op.(type) {
		case cgtledger.Buy:
			holdings[transaction.Ticker] = holding.Add(op.Quantity)
		case cgtledger.Sell:
			if op.Quantity.GreaterThan(holding) {
				add(KindInsufficientHolding, transaction,
					"sell of %s exceeds holding of %s at %s", op.Quantity, holding, transaction.Date)
			}
			holdings[transaction.Ticker] = holding.Sub(op.Quantity)
		case cgtledger.Split:
			if op.Ratio.IsPositive() {
				holdings[transaction.Ticker] = holding.Mul(op.Ratio)
			}
		case cgtledger.Unsplit:
			if op.Ratio.IsPositive() {
				holdings[transaction.Ticker] = holding.DivRound(op.Ratio, 10)
			}
		}
	}

	return errs
}

// *** PRIVATE ***

func checkPositiveQuantity(quantity decimal.Decimal, transaction cgtledger.Transaction, add func(Kind, cgtledger.Transaction, string, ...any)) {
	if !quantity.IsPositive() {
		add(KindNonPositiveQuantity, transaction, "quantity %s must be positive", quantity)
	}
}

func checkRatio(ratio decimal.Decimal, transaction cgtledger.Transaction, add func(Kind, cgtledger.Transaction, string, ...any)) {
	if !ratio.IsPositive() {
		add(KindInvalidRatio, transaction, "ratio %s must be positive", ratio)
	}
}

// checkAmount validates an amount's sign and, for non-GBP amounts, that the
// FX cache can convert it on the transaction's month.
func checkAmount(amount money.Amount, what string, transaction cgtledger.Transaction, fxCache cgtfx.Cache, add func(Kind, cgtledger.Transaction, string, ...any)) {
	if amount.Value.IsNegative() {
		add(KindNegativeValue, transaction, "negative %s %s", what, amount)
	}
	if amount.IsGBP() {
		return
	}
	if fxCache == nil || !fxCache.HasCurrency(amount.CurrencyCode) {
		add(KindUnknownCurrency, transaction, "no FX rates for currency %s", amount.CurrencyCode)
		return
	}
	if _, ok := fxCache.Rate(amount.CurrencyCode, transaction.Date.Year, transaction.Date.Month); !ok {
		add(KindMissingRate, transaction, "no %s FX rate for %04d-%02d",
			amount.CurrencyCode, transaction.Date.Year, int(transaction.Date.Month))
	}
}
