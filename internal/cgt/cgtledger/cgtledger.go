// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package cgtledger provides the transaction model for the CGT calculator.
//
// A ledger is an ordered list of transactions over (date, ticker). Each
// transaction carries one Operation: a trade (buy, sell), an income event
// (dividend), or a corporate action (capital return, accumulation, split,
// unsplit). Operations form a closed set so the matching engine can do
// exhaustive case analysis.
package cgtledger

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/velikodniy/cgt-tool/internal/pkg/money"
	"github.com/velikodniy/cgt-tool/internal/standard/xtime"
)

// MinYear is the earliest transaction year accepted by the calculator.
const MinYear = 1900

// MaxYear is the latest transaction year accepted by the calculator.
const MaxYear = 2100

// Transaction is a single ledger entry: an operation on a ticker at a date.
// Transactions are immutable once created.
type Transaction struct {
	// Date is the transaction date.
	Date xtime.Date
	// Ticker is the security ticker, uppercase after normalization.
	Ticker string
	// Op is the operation performed.
	Op Operation
	// Line is the 1-based source line the transaction was parsed from,
	// or 0 for synthetic transactions.
	Line int
}

// OperationKind discriminates the Operation variants.
type OperationKind int

const (
	// OperationKindBuy is an acquisition of shares.
	OperationKindBuy OperationKind = iota + 1
	// OperationKindSell is a disposal of shares.
	OperationKindSell
	// OperationKindDividend is a cash dividend (income only, no pool effect).
	OperationKindDividend
	// OperationKindCapReturn is a capital return reducing pool cost.
	OperationKindCapReturn
	// OperationKindAccumulation is an accumulation dividend increasing pool cost.
	OperationKindAccumulation
	// OperationKindSplit is a share split multiplying pool quantity.
	OperationKindSplit
	// OperationKindUnsplit is a share consolidation dividing pool quantity.
	OperationKindUnsplit
)

// String returns the uppercase ledger keyword for the kind.
func (k OperationKind) String() string {
	switch k {
	case OperationKindBuy:
		return "BUY"
	case OperationKindSell:
		return "SELL"
	case OperationKindDividend:
		return "DIVIDEND"
	case OperationKindCapReturn:
		return "CAPRETURN"
	case OperationKindAccumulation:
		return "ACCUMULATION"
	case OperationKindSplit:
		return "SPLIT"
	case OperationKindUnsplit:
		return "UNSPLIT"
	default:
		return fmt.Sprintf("OperationKind(%d)", int(k))
	}
}

// Operation is one of the closed set of ledger operations.
type Operation interface {
	// Kind returns the variant discriminator.
	Kind() OperationKind

	isOperation()
}

// Buy is an acquisition of shares.
type Buy struct {
	// Quantity is the number of shares acquired, > 0.
	Quantity decimal.Decimal
	// UnitPrice is the per-share price.
	UnitPrice money.Amount
	// Fees is the total acquisition fees (commission, stamp duty).
	Fees money.Amount
}

// Sell is a disposal of shares.
type Sell struct {
	// Quantity is the number of shares disposed, > 0.
	Quantity decimal.Decimal
	// UnitPrice is the per-share price.
	UnitPrice money.Amount
	// Fees is the total disposal fees.
	Fees money.Amount
}

// Dividend is a cash dividend. Income only; it has no pool effect.
type Dividend struct {
	// Quantity is the holding the dividend was paid on.
	Quantity decimal.Decimal
	// TotalValue is the total dividend value.
	TotalValue money.Amount
	// TaxWithheld is the tax withheld at source.
	TaxWithheld money.Amount
}

// CapReturn is a capital return (equalisation) payment reducing pool cost.
type CapReturn struct {
	// Quantity is the holding the return was paid on, or zero if not given.
	// Pooling ignores it: the whole pool's cost is reduced by TotalValue.
	Quantity decimal.Decimal
	// TotalValue is the total amount returned.
	TotalValue money.Amount
	// Fees is the fees charged on the return.
	Fees money.Amount
}

// Accumulation is a notionally reinvested accumulation-fund dividend
// increasing pool cost.
type Accumulation struct {
	// Quantity is the holding the dividend was accumulated on.
	Quantity decimal.Decimal
	// TotalValue is the total accumulated value.
	TotalValue money.Amount
}

// Split is a share split multiplying the pool quantity by Ratio.
type Split struct {
	// Ratio is the split ratio, > 0 (e.g., 2 for a 2-for-1 split).
	Ratio decimal.Decimal
}

// Unsplit is a share consolidation dividing the pool quantity by Ratio.
type Unsplit struct {
	// Ratio is the consolidation ratio, > 0.
	Ratio decimal.Decimal
}

// Kind implements Operation.
func (Buy) Kind() OperationKind { return OperationKindBuy }

// Kind implements Operation.
func (Sell) Kind() OperationKind { return OperationKindSell }

// Kind implements Operation.
func (Dividend) Kind() OperationKind { return OperationKindDividend }

// Kind implements Operation.
func (CapReturn) Kind() OperationKind { return OperationKindCapReturn }

// Kind implements Operation.
func (Accumulation) Kind() OperationKind { return OperationKindAccumulation }

// Kind implements Operation.
func (Split) Kind() OperationKind { return OperationKindSplit }

// Kind implements Operation.
func (Unsplit) Kind() OperationKind { return OperationKindUnsplit }

func (Buy) isOperation()          {}
func (Sell) isOperation()         {}
func (Dividend) isOperation()     {}
func (CapReturn) isOperation()    {}
func (Accumulation) isOperation() {}
func (Split) isOperation()        {}
func (Unsplit) isOperation()      {}

// NormalizeTicker uppercases and trims a ticker, returning an error if the
// result is empty. Ticker identity is exact after normalization.
func NormalizeTicker(ticker string) (string, error) {
	normalized := strings.ToUpper(strings.TrimSpace(ticker))
	if normalized == "" {
		return "", fmt.Errorf("empty ticker")
	}
	return normalized, nil
}

// SortTransactions sorts transactions into the calculator's total order:
// date ascending, ticker ascending, then kind priority (corporate actions
// before acquisitions before disposals on the same date), then source line.
func SortTransactions(transactions []Transaction) {
	sort.SliceStable(transactions, func(i, j int) bool {
		a, b := transactions[i], transactions[j]
		if c := a.Date.Compare(b.Date); c != 0 {
			return c < 0
		}
		if a.Ticker != b.Ticker {
			return a.Ticker < b.Ticker
		}
		if pa, pb := kindPriority(a.Op.Kind()), kindPriority(b.Op.Kind()); pa != pb {
			return pa < pb
		}
		// Tie break by the order read from file.
		return a.Line < b.Line
	})
}

// *** PRIVATE ***

// kindPriority returns the within-day processing priority for a kind.
// Splits and consolidations apply to the pool before any trade of the day,
// cost adjustments next, and acquisitions precede disposals so the same-day
// rule always sees the day's buy.
func kindPriority(kind OperationKind) int {
	switch kind {
	case OperationKindSplit, OperationKindUnsplit:
		return 1
	case OperationKindCapReturn, OperationKindAccumulation:
		return 2
	case OperationKindDividend:
		return 3
	case OperationKindBuy:
		return 4
	case OperationKindSell:
		return 5
	default:
		return 6
	}
}
