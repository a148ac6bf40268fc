// Copyright 2026 Peter Edge
//
// All rights reserved.

package cgtledger

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/velikodniy/cgt-tool/internal/pkg/money"
	"github.com/velikodniy/cgt-tool/internal/standard/xtime"
)

func TestParseBasic(t *testing.T) {
	t.Parallel()
	transactions, err := Parse(strings.NewReader(`
# A comment line.
2023-08-15 BUY foo 100 @ 10.50 FEES 9.99   # trailing comment
2023-08-16 SELL FOO 50 @ 12 USD FEES 10 USD
2023-09-01 DIVIDEND FOO 50 TOTAL 25 USD TAX 2.50 USD
2023-09-02 ACCUMULATION FND 10 TOTAL 42.42
2023-09-03 CAPRETURN FND TOTAL 12
2023-09-04 CAPRETURN FND 10 TOTAL 12 FEES 1
2023-09-05 SPLIT FOO RATIO 4
2023-09-06 UNSPLIT FOO RATIO 2.5
`))
	require.NoError(t, err)
	require.Len(t, transactions, 8)

	buy, ok := transactions[0].Op.(Buy)
	require.True(t, ok)
	// Tickers normalize to uppercase at parse time.
	require.Equal(t, "FOO", transactions[0].Ticker)
	require.Equal(t, xtime.Date{Year: 2023, Month: time.August, Day: 15}, transactions[0].Date)
	require.Equal(t, 3, transactions[0].Line)
	require.True(t, buy.Quantity.Equal(decimal.RequireFromString("100")))
	// Currency defaults to GBP.
	require.Equal(t, money.GBP, buy.UnitPrice.CurrencyCode)
	require.True(t, buy.UnitPrice.Value.Equal(decimal.RequireFromString("10.50")))
	require.True(t, buy.Fees.Value.Equal(decimal.RequireFromString("9.99")))

	sell, ok := transactions[1].Op.(Sell)
	require.True(t, ok)
	require.Equal(t, "USD", sell.UnitPrice.CurrencyCode)
	require.Equal(t, "USD", sell.Fees.CurrencyCode)

	dividend, ok := transactions[2].Op.(Dividend)
	require.True(t, ok)
	require.True(t, dividend.TotalValue.Value.Equal(decimal.RequireFromString("25")))
	require.True(t, dividend.TaxWithheld.Value.Equal(decimal.RequireFromString("2.50")))

	accumulation, ok := transactions[3].Op.(Accumulation)
	require.True(t, ok)
	require.True(t, accumulation.TotalValue.Value.Equal(decimal.RequireFromString("42.42")))

	// CAPRETURN without an explicit quantity.
	capReturnNoQty, ok := transactions[4].Op.(CapReturn)
	require.True(t, ok)
	require.True(t, capReturnNoQty.Quantity.IsZero())

	// CAPRETURN with an explicit quantity and fees.
	capReturn, ok := transactions[5].Op.(CapReturn)
	require.True(t, ok)
	require.True(t, capReturn.Quantity.Equal(decimal.RequireFromString("10")))
	require.True(t, capReturn.Fees.Value.Equal(decimal.RequireFromString("1")))

	split, ok := transactions[6].Op.(Split)
	require.True(t, ok)
	require.True(t, split.Ratio.Equal(decimal.RequireFromString("4")))

	unsplit, ok := transactions[7].Op.(Unsplit)
	require.True(t, ok)
	require.True(t, unsplit.Ratio.Equal(decimal.RequireFromString("2.5")))
}

func TestParseDividendWithoutTax(t *testing.T) {
	t.Parallel()
	transactions, err := Parse(strings.NewReader("2023-09-01 DIVIDEND FOO 50 TOTAL 25\n"))
	require.NoError(t, err)
	require.Len(t, transactions, 1)
	dividend, ok := transactions[0].Op.(Dividend)
	require.True(t, ok)
	require.True(t, dividend.TaxWithheld.IsZero())
	require.Equal(t, money.GBP, dividend.TaxWithheld.CurrencyCode)
}

func TestParseErrors(t *testing.T) {
	t.Parallel()
	for _, test := range []struct {
		desc         string
		line         string
		wantLine     int
		wantColumn   int
		wantExpected string
		wantFound    string
	}{
		{
			desc:         "bad date",
			line:         "2023-13-01 BUY FOO 1 @ 1",
			wantLine:     1,
			wantColumn:   1,
			wantExpected: "date (YYYY-MM-DD)",
			wantFound:    "2023-13-01",
		},
		{
			desc:         "unknown keyword",
			line:         "2023-01-01 TRANSFER FOO 1 @ 1",
			wantLine:     1,
			wantColumn:   12,
			wantExpected: "BUY, SELL, DIVIDEND, ACCUMULATION, CAPRETURN, SPLIT, or UNSPLIT",
			wantFound:    "TRANSFER",
		},
		{
			desc:         "missing at sign",
			line:         "2023-01-01 BUY FOO 1 1",
			wantLine:     1,
			wantColumn:   22,
			wantExpected: "@",
			wantFound:    "1",
		},
		{
			desc:         "bad quantity",
			line:         "2023-01-01 BUY FOO x @ 1",
			wantLine:     1,
			wantColumn:   20,
			wantExpected: "quantity",
			wantFound:    "x",
		},
		{
			desc:         "unknown currency",
			line:         "2023-01-01 BUY FOO 1 @ 1 ZZZ",
			wantLine:     1,
			wantColumn:   26,
			wantExpected: "ISO 4217 currency code",
			wantFound:    "ZZZ",
		},
		{
			desc:         "missing price",
			line:         "2023-01-01 BUY FOO 1 @",
			wantLine:     1,
			wantColumn:   23,
			wantExpected: "unit price",
			wantFound:    "",
		},
		{
			desc:         "trailing tokens",
			line:         "2023-01-01 SPLIT FOO RATIO 2 extra",
			wantLine:     1,
			wantColumn:   30,
			wantExpected: "end of line",
			wantFound:    "extra",
		},
	} {
		t.Run(test.desc, func(t *testing.T) {
			t.Parallel()
			_, err := Parse(strings.NewReader(test.line))
			var parseError *ParseError
			require.ErrorAs(t, err, &parseError)
			require.Equal(t, test.wantLine, parseError.Line)
			require.Equal(t, test.wantColumn, parseError.Column)
			require.Equal(t, test.wantExpected, parseError.Expected)
			require.Equal(t, test.wantFound, parseError.Found)
		})
	}
}

func TestSortTransactions(t *testing.T) {
	t.Parallel()
	transactions, err := Parse(strings.NewReader(`
2023-06-01 SELL BBB 10 @ 1
2023-06-01 SELL AAA 10 @ 1
2023-06-01 BUY AAA 10 @ 1
2023-06-01 SPLIT AAA RATIO 2
2023-05-01 SELL AAA 5 @ 1
`))
	require.NoError(t, err)
	SortTransactions(transactions)
	// Date first, then ticker, then corporate actions before buys before sells.
	require.Equal(t, xtime.Date{Year: 2023, Month: time.May, Day: 1}, transactions[0].Date)
	require.Equal(t, OperationKindSplit, transactions[1].Op.Kind())
	require.Equal(t, "AAA", transactions[1].Ticker)
	require.Equal(t, OperationKindBuy, transactions[2].Op.Kind())
	require.Equal(t, OperationKindSell, transactions[3].Op.Kind())
	require.Equal(t, "AAA", transactions[3].Ticker)
	require.Equal(t, "BBB", transactions[4].Ticker)
}

func TestNormalizeTicker(t *testing.T) {
	t.Parallel()
	normalized, err := NormalizeTicker(" vod.l ")
	require.NoError(t, err)
	require.Equal(t, "VOD.L", normalized)
	_, err = NormalizeTicker("   ")
	require.Error(t, err)
}
