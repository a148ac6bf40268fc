// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package money provides currency-tagged exact-decimal amounts with
// on-demand conversion to GBP through a monthly rate source.
package money

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/velikodniy/cgt-tool/internal/standard/xtime"
)

// GBP is the neutral currency code. GBP amounts convert to themselves.
const GBP = "GBP"

// conversionScale is the number of decimal places kept when dividing by an
// FX rate. Divisions that do not terminate are rounded half away from zero.
const conversionScale = 10

// RateSource provides monthly FX rates. Rates are divisors: a foreign amount
// divided by the rate for its (currency, year, month) yields GBP.
type RateSource interface {
	// Rate returns the monthly rate for the currency, and whether one exists.
	Rate(currencyCode string, year int, month time.Month) (decimal.Decimal, bool)
}

// MissingRateError indicates that no rate exists for a currency and month.
type MissingRateError struct {
	// CurrencyCode is the ISO 4217 code the rate was requested for.
	CurrencyCode string
	// Year is the requested year.
	Year int
	// Month is the requested month.
	Month time.Month
}

// Error implements error.
func (e *MissingRateError) Error() string {
	return fmt.Sprintf("no FX rate for %s in %04d-%02d", e.CurrencyCode, e.Year, int(e.Month))
}

// Amount is an exact decimal value tagged with its ISO 4217 currency code.
// The original currency value is retained; GBP views are always computed,
// never stored alongside it.
type Amount struct {
	// Value is the exact decimal value in CurrencyCode units.
	Value decimal.Decimal
	// CurrencyCode is the uppercase ISO 4217 currency code.
	CurrencyCode string
}

// New creates an Amount, validating that the currency code is a known
// ISO 4217 code after uppercasing.
func New(value decimal.Decimal, currencyCode string) (Amount, error) {
	normalized := strings.ToUpper(currencyCode)
	if !IsKnownCurrency(normalized) {
		return Amount{}, fmt.Errorf("unknown currency code %q", currencyCode)
	}
	return Amount{Value: value, CurrencyCode: normalized}, nil
}

// NewGBP creates a GBP Amount.
func NewGBP(value decimal.Decimal) Amount {
	return Amount{Value: value, CurrencyCode: GBP}
}

// IsGBP reports whether the amount is denominated in GBP.
func (a Amount) IsGBP() bool {
	return a.CurrencyCode == GBP
}

// IsZero reports whether the amount's value is zero.
func (a Amount) IsZero() bool {
	return a.Value.IsZero()
}

// String returns the value followed by the currency code (e.g., "150.5 USD").
func (a Amount) String() string {
	return a.Value.String() + " " + a.CurrencyCode
}

// InGBP converts the amount to a GBP decimal using the monthly rate for the
// given date. GBP amounts are returned unchanged. Returns a *MissingRateError
// if the rate source has no rate for the amount's currency and the date's month.
func (a Amount) InGBP(date xtime.Date, rates RateSource) (decimal.Decimal, error) {
	if a.IsGBP() {
		return a.Value, nil
	}
	if rates == nil {
		return decimal.Decimal{}, &MissingRateError{CurrencyCode: a.CurrencyCode, Year: date.Year, Month: date.Month}
	}
	rate, ok := rates.Rate(a.CurrencyCode, date.Year, date.Month)
	if !ok || rate.IsZero() {
		return decimal.Decimal{}, &MissingRateError{CurrencyCode: a.CurrencyCode, Year: date.Year, Month: date.Month}
	}
	return a.Value.DivRound(rate, conversionScale), nil
}

// IsKnownCurrency reports whether the code is a known uppercase ISO 4217
// currency code.
func IsKnownCurrency(code string) bool {
	_, ok := knownCurrencies[code]
	return ok
}

// knownCurrencies is the set of accepted ISO 4217 currency codes.
var knownCurrencies = map[string]struct{}{
	"AED": {}, "AUD": {}, "BGN": {}, "BRL": {}, "CAD": {}, "CHF": {},
	"CNY": {}, "CZK": {}, "DKK": {}, "EUR": {}, "GBP": {}, "HKD": {},
	"HUF": {}, "IDR": {}, "ILS": {}, "INR": {}, "ISK": {}, "JPY": {},
	"KRW": {}, "MXN": {}, "MYR": {}, "NOK": {}, "NZD": {}, "PHP": {},
	"PLN": {}, "RON": {}, "RSD": {}, "RUB": {}, "SAR": {}, "SEK": {},
	"SGD": {}, "THB": {}, "TRY": {}, "TWD": {}, "USD": {}, "ZAR": {},
}
