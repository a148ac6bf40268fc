// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package cgtfx provides monthly FX rate lookups for GBP conversion.
//
// Rates are stored in per-month JSON files under the FX data directory:
// fx/rates-YYYY-MM.json. Each file maps uppercase ISO 4217 currency codes to
// decimal rate strings. Rates are divisors: foreign amount / rate = GBP.
//
// The Store lazily loads month files on first access and caches them in
// memory, including misses, so a missing month is only stat'd once.
package cgtfx

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Cache is a read-only monthly FX rate lookup.
//
// Cache satisfies money.RateSource.
type Cache interface {
	// Rate returns the monthly divisor rate for the currency, and whether one exists.
	Rate(currencyCode string, year int, month time.Month) (decimal.Decimal, bool)
	// HasCurrency reports whether any rate exists for the currency.
	HasCurrency(currencyCode string) bool
}

// RateFileName returns the rate file name for a year and month (e.g., "rates-2024-09.json").
func RateFileName(year int, month time.Month) string {
	return fmt.Sprintf("rates-%04d-%02d.json", year, int(month))
}

// Store provides monthly FX rate lookups from per-month rate files on disk.
// Rate files are lazily loaded on first access and cached in memory.
type Store struct {
	// fxDirPath is the FX data directory containing rates-YYYY-MM.json files.
	fxDirPath string
	// mu protects months and currencies for concurrent lazy loading.
	mu sync.Mutex
	// months maps "YYYY-MM" to the loaded rates for that month.
	// Nil value means the month was attempted but no file was found.
	months map[string]map[string]decimal.Decimal
	// currencies is the set of currency codes seen across all rate files,
	// built on first HasCurrency call.
	currencies map[string]struct{}
}

// NewStore creates a Store that reads from the FX directory.
// Rate files are loaded lazily on first access per month.
func NewStore(fxDirPath string) *Store {
	return &Store{
		fxDirPath: fxDirPath,
		months:    make(map[string]map[string]decimal.Decimal),
	}
}

// Rate implements Cache.
func (s *Store) Rate(currencyCode string, year int, month time.Month) (decimal.Decimal, bool) {
	rates := s.loadMonth(year, month)
	if rates == nil {
		return decimal.Decimal{}, false
	}
	rate, ok := rates[currencyCode]
	return rate, ok
}

// HasCurrency implements Cache. A currency is known to the store if it
// appears in at least one rate file in the FX directory.
func (s *Store) HasCurrency(currencyCode string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.currencies == nil {
		s.currencies = make(map[string]struct{})
		// Read every rate file once to build the currency set.
		entries, err := os.ReadDir(s.fxDirPath)
		if err != nil {
			return false
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			rates, err := readRateFile(filepath.Join(s.fxDirPath, entry.Name()))
			if err != nil {
				continue
			}
			for code := range rates {
				s.currencies[code] = struct{}{}
			}
		}
	}
	_, ok := s.currencies[currencyCode]
	return ok
}

// WriteRateFile writes a month's rates to the store's directory, creating the
// directory if needed. Used by the FX download command.
func (s *Store) WriteRateFile(year int, month time.Month, rates map[string]decimal.Decimal) error {
	if err := os.MkdirAll(s.fxDirPath, 0o755); err != nil {
		return fmt.Errorf("creating FX directory: %w", err)
	}
	external := make(map[string]string, len(rates))
	for code, rate := range rates {
		external[code] = rate.String()
	}
	data, err := json.MarshalIndent(external, "", "  ")
	if err != nil {
		return err
	}
	// Append a trailing newline for clean file formatting.
	data = append(data, '\n')
	filePath := filepath.Join(s.fxDirPath, RateFileName(year, month))
	if err := os.WriteFile(filePath, data, 0o644); err != nil {
		return err
	}
	// Invalidate caches so subsequent lookups see the new file.
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.months, monthKey(year, month))
	s.currencies = nil
	return nil
}

// *** PRIVATE ***

// loadMonth lazily loads the rate file for a month, returning the cached
// rates. Returns nil if no file exists for this month.
func (s *Store) loadMonth(year int, month time.Month) map[string]decimal.Decimal {
	key := monthKey(year, month)
	s.mu.Lock()
	defer s.mu.Unlock()
	// Return cached data if already loaded (even if nil = no file found).
	if rates, loaded := s.months[key]; loaded {
		return rates
	}
	rates, err := readRateFile(filepath.Join(s.fxDirPath, RateFileName(year, month)))
	if err != nil {
		// Cache the miss so the file is only stat'd once.
		s.months[key] = nil
		return nil
	}
	s.months[key] = rates
	return rates
}

// monthKey returns the cache key for a year and month (e.g., "2024-09").
func monthKey(year int, month time.Month) string {
	return fmt.Sprintf("%04d-%02d", year, int(month))
}

// readRateFile reads and parses a single rate file.
func readRateFile(filePath string) (map[string]decimal.Decimal, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	var external map[string]string
	if err := json.Unmarshal(data, &external); err != nil {
		return nil, fmt.Errorf("parsing rate file %s: %w", filePath, err)
	}
	rates := make(map[string]decimal.Decimal, len(external))
	for code, value := range external {
		rate, err := decimal.NewFromString(value)
		if err != nil {
			return nil, fmt.Errorf("parsing rate for %s in %s: %w", code, filePath, err)
		}
		rates[code] = rate
	}
	return rates, nil
}
