// Copyright 2026 Peter Edge
//
// All rights reserved.

package cgtledger

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/velikodniy/cgt-tool/internal/standard/xtime"
)

// TaxPeriod is a UK tax year, identified by the calendar year it starts in.
// The year starting Y runs from 6 April Y to 5 April Y+1 inclusive.
type TaxPeriod struct {
	// StartYear is the calendar year the tax year starts in (1900-2100).
	StartYear int
}

// PeriodForDate returns the tax period a date falls in.
func PeriodForDate(date xtime.Date) TaxPeriod {
	boundary := xtime.Date{Year: date.Year, Month: time.April, Day: 6}
	if date.Before(boundary) {
		return TaxPeriod{StartYear: date.Year - 1}
	}
	return TaxPeriod{StartYear: date.Year}
}

// ParseTaxPeriod parses the canonical "YYYY/YY" display form.
func ParseTaxPeriod(s string) (TaxPeriod, error) {
	parts := strings.SplitN(s, "/", 2)
	if len(parts) != 2 || len(parts[0]) != 4 || len(parts[1]) != 2 {
		return TaxPeriod{}, fmt.Errorf("invalid tax period %q, expected YYYY/YY", s)
	}
	startYear, err := strconv.Atoi(parts[0])
	if err != nil {
		return TaxPeriod{}, fmt.Errorf("invalid tax period %q: %w", s, err)
	}
	endYY, err := strconv.Atoi(parts[1])
	if err != nil {
		return TaxPeriod{}, fmt.Errorf("invalid tax period %q: %w", s, err)
	}
	period := TaxPeriod{StartYear: startYear}
	if (startYear+1)%100 != endYY {
		return TaxPeriod{}, fmt.Errorf("invalid tax period %q: end year does not follow start year", s)
	}
	if !period.IsValid() {
		return TaxPeriod{}, fmt.Errorf("tax period start year %d out of range [%d, %d]", startYear, MinYear, MaxYear)
	}
	return period, nil
}

// IsValid reports whether the start year is within the accepted range.
func (p TaxPeriod) IsValid() bool {
	return p.StartYear >= MinYear && p.StartYear <= MaxYear
}

// Start returns the first day of the tax year (6 April).
func (p TaxPeriod) Start() xtime.Date {
	return xtime.Date{Year: p.StartYear, Month: time.April, Day: 6}
}

// End returns the last day of the tax year (5 April of the following year).
func (p TaxPeriod) End() xtime.Date {
	return xtime.Date{Year: p.StartYear + 1, Month: time.April, Day: 5}
}

// Contains reports whether the date falls within the tax year.
func (p TaxPeriod) Contains(date xtime.Date) bool {
	return PeriodForDate(date) == p
}

// String returns the canonical "YYYY/YY" display form (e.g., "2023/24").
func (p TaxPeriod) String() string {
	return fmt.Sprintf("%04d/%02d", p.StartYear, (p.StartYear+1)%100)
}

// Compare compares two tax periods chronologically.
func (p TaxPeriod) Compare(other TaxPeriod) int {
	switch {
	case p.StartYear < other.StartYear:
		return -1
	case p.StartYear > other.StartYear:
		return +1
	default:
		return 0
	}
}

// MarshalText implements the encoding.TextMarshaler interface.
func (p TaxPeriod) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements the encoding.TextUnmarshaler interface.
func (p *TaxPeriod) UnmarshalText(data []byte) error {
	parsed, err := ParseTaxPeriod(string(data))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
