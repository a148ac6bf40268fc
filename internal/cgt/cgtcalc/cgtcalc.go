// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package cgtcalc runs the full calculation pipeline:
// validate, prepare, match, aggregate.
package cgtcalc

import (
	"errors"

	"github.com/velikodniy/cgt-tool/internal/cgt/cgtfx"
	"github.com/velikodniy/cgt-tool/internal/cgt/cgtledger"
	"github.com/velikodniy/cgt-tool/internal/cgt/cgtmatch"
	"github.com/velikodniy/cgt-tool/internal/cgt/cgtprepare"
	"github.com/velikodniy/cgt-tool/internal/cgt/cgtreport"
	"github.com/velikodniy/cgt-tool/internal/cgt/cgtvalidate"
)

// Calculate validates and matches a transaction ledger and aggregates the
// result into a tax report. The fxCache may be nil for GBP-only ledgers.
//
// Calculation is deterministic: the same ledger and rates produce an
// identical report. On failure no partial report is returned.
func Calculate(transactions []cgtledger.Transaction, fxCache cgtfx.Cache) (*cgtreport.TaxReport, error) {
	result, err := Match(transactions, fxCache)
	if err != nil {
		return nil, err
	}
	return cgtreport.Aggregate(result), nil
}

// Match validates and matches a transaction ledger, returning the raw
// matching result (disposals, holdings, dividend income).
func Match(transactions []cgtledger.Transaction, fxCache cgtfx.Cache) (*cgtmatch.Result, error) {
	if validationErrors := cgtvalidate.Validate(transactions, fxCache); len(validationErrors) > 0 {
		errs := make([]error, len(validationErrors))
		for i, validationError := range validationErrors {
			errs[i] = validationError
		}
		return nil, errors.Join(errs...)
	}
	entries, err := cgtprepare.Prepare(transactions, fxCache)
	if err != nil {
		return nil, err
	}
	return cgtmatch.MatchAll(entries)
}
