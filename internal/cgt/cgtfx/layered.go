// Copyright 2026 Peter Edge
//
// All rights reserved.

package cgtfx

import (
	"time"

	"github.com/shopspring/decimal"
)

// Layered returns a Cache that consults primary first and falls back to
// fallback for rates the primary does not have. Used to layer user-supplied
// custom rates over the downloaded monthly rates.
func Layered(primary Cache, fallback Cache) Cache {
	return &layered{primary: primary, fallback: fallback}
}

type layered struct {
	primary  Cache
	fallback Cache
}

func (l *layered) Rate(currencyCode string, year int, month time.Month) (decimal.Decimal, bool) {
	if rate, ok := l.primary.Rate(currencyCode, year, month); ok {
		return rate, true
	}
	return l.fallback.Rate(currencyCode, year, month)
}

func (l *layered) HasCurrency(currencyCode string) bool {
	return l.primary.HasCurrency(currencyCode) || l.fallback.HasCurrency(currencyCode)
}

// Static is an in-memory Cache keyed by currency code and "YYYY-MM" month key.
// It is primarily useful in tests and for embedding callers that load rates
// through their own means.
type Static map[string]map[string]decimal.Decimal

// Rate implements Cache.
func (s Static) Rate(currencyCode string, year int, month time.Month) (decimal.Decimal, bool) {
	months, ok := s[currencyCode]
	if !ok {
		return decimal.Decimal{}, false
	}
	rate, ok := months[monthKey(year, month)]
	return rate, ok
}

// HasCurrency implements Cache.
func (s Static) HasCurrency(currencyCode string) bool {
	_, ok := s[currencyCode]
	return ok
}
