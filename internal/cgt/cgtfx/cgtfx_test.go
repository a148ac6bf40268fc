// Copyright 2026 Peter Edge
//
// All rights reserved.

package cgtfx

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestStoreReadsMonthlyRateFiles(t *testing.T) {
	t.Parallel()
	dirPath := t.TempDir()
	writeFile(t, dirPath, "rates-2024-09.json", `{"USD": "1.25", "EUR": "1.18"}`)

	store := NewStore(dirPath)
	rate, ok := store.Rate("USD", 2024, time.September)
	require.True(t, ok)
	require.True(t, rate.Equal(decimal.RequireFromString("1.25")))

	_, ok = store.Rate("USD", 2024, time.October)
	require.False(t, ok)
	_, ok = store.Rate("JPY", 2024, time.September)
	require.False(t, ok)

	require.True(t, store.HasCurrency("EUR"))
	require.False(t, store.HasCurrency("JPY"))
}

func TestStoreMissingDirectory(t *testing.T) {
	t.Parallel()
	store := NewStore(filepath.Join(t.TempDir(), "does-not-exist"))
	_, ok := store.Rate("USD", 2024, time.September)
	require.False(t, ok)
	require.False(t, store.HasCurrency("USD"))
}

func TestStoreWriteRateFileRoundTrip(t *testing.T) {
	t.Parallel()
	store := NewStore(filepath.Join(t.TempDir(), "fx"))
	require.NoError(t, store.WriteRateFile(2024, time.September, map[string]decimal.Decimal{
		"USD": decimal.RequireFromString("1.2725"),
	}))
	rate, ok := store.Rate("USD", 2024, time.September)
	require.True(t, ok)
	require.True(t, rate.Equal(decimal.RequireFromString("1.2725")))
	require.True(t, store.HasCurrency("USD"))
}

func TestStoreWriteInvalidatesCachedMiss(t *testing.T) {
	t.Parallel()
	store := NewStore(filepath.Join(t.TempDir(), "fx"))
	// Prime the miss cache.
	_, ok := store.Rate("USD", 2024, time.September)
	require.False(t, ok)
	require.NoError(t, store.WriteRateFile(2024, time.September, map[string]decimal.Decimal{
		"USD": decimal.RequireFromString("1.25"),
	}))
	_, ok = store.Rate("USD", 2024, time.September)
	require.True(t, ok)
}

func TestLayeredPrefersPrimary(t *testing.T) {
	t.Parallel()
	primary := Static{
		"USD": {"2024-09": decimal.RequireFromString("1.30")},
	}
	fallback := Static{
		"USD": {
			"2024-09": decimal.RequireFromString("1.25"),
			"2024-10": decimal.RequireFromString("1.26"),
		},
		"EUR": {"2024-09": decimal.RequireFromString("1.18")},
	}
	layered := Layered(primary, fallback)

	// The override wins where both have a rate.
	rate, ok := layered.Rate("USD", 2024, time.September)
	require.True(t, ok)
	require.True(t, rate.Equal(decimal.RequireFromString("1.30")))
	// The fallback fills the gaps.
	rate, ok = layered.Rate("USD", 2024, time.October)
	require.True(t, ok)
	require.True(t, rate.Equal(decimal.RequireFromString("1.26")))
	require.True(t, layered.HasCurrency("EUR"))
	require.False(t, layered.HasCurrency("JPY"))
}

// *** HELPERS ***

func writeFile(t *testing.T, dirPath string, name string, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dirPath, name), []byte(content), 0o644))
}
