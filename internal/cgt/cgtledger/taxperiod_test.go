// Copyright 2026 Peter Edge
//
// All rights reserved.

package cgtledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/velikodniy/cgt-tool/internal/standard/xtime"
)

func TestPeriodForDate(t *testing.T) {
	t.Parallel()
	for _, test := range []struct {
		date xtime.Date
		want int
	}{
		// The tax year turns on 6 April.
		{xtime.Date{Year: 2024, Month: time.April, Day: 5}, 2023},
		{xtime.Date{Year: 2024, Month: time.April, Day: 6}, 2024},
		{xtime.Date{Year: 2024, Month: time.January, Day: 1}, 2023},
		{xtime.Date{Year: 2024, Month: time.December, Day: 31}, 2024},
	} {
		require.Equal(t, TaxPeriod{StartYear: test.want}, PeriodForDate(test.date), "date %s", test.date)
	}
}

func TestTaxPeriodString(t *testing.T) {
	t.Parallel()
	require.Equal(t, "2023/24", TaxPeriod{StartYear: 2023}.String())
	// The end year wraps at a century boundary.
	require.Equal(t, "1999/00", TaxPeriod{StartYear: 1999}.String())
}

func TestParseTaxPeriod(t *testing.T) {
	t.Parallel()
	period, err := ParseTaxPeriod("2023/24")
	require.NoError(t, err)
	require.Equal(t, TaxPeriod{StartYear: 2023}, period)

	for _, bad := range []string{"", "2023", "2023/25", "23/24", "2023-24", "2200/01"} {
		_, err := ParseTaxPeriod(bad)
		require.Error(t, err, "input %q", bad)
	}
}

func TestTaxPeriodBounds(t *testing.T) {
	t.Parallel()
	period := TaxPeriod{StartYear: 2023}
	require.Equal(t, xtime.Date{Year: 2023, Month: time.April, Day: 6}, period.Start())
	require.Equal(t, xtime.Date{Year: 2024, Month: time.April, Day: 5}, period.End())
	require.True(t, period.Contains(period.Start()))
	require.True(t, period.Contains(period.End()))
	require.False(t, period.Contains(period.End().AddDays(1)))
}

func TestTaxPeriodTextRoundTrip(t *testing.T) {
	t.Parallel()
	period := TaxPeriod{StartYear: 2024}
	text, err := period.MarshalText()
	require.NoError(t, err)
	var parsed TaxPeriod
	require.NoError(t, parsed.UnmarshalText(text))
	require.Equal(t, period, parsed)
}
