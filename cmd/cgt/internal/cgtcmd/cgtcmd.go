// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package cgtcmd provides shared wiring for cgt commands that need the
// calculation pipeline (reading config, loading the ledger, constructing
// the FX cache).
package cgtcmd

import (
	"buf.build/go/app/appcmd"
	"github.com/velikodniy/cgt-tool/internal/cgt/cgtconfig"
	"github.com/velikodniy/cgt-tool/internal/cgt/cgtfx"
	"github.com/velikodniy/cgt-tool/internal/cgt/cgtledger"
	"github.com/velikodniy/cgt-tool/internal/cgt/cgtpath"
	"github.com/velikodniy/cgt-tool/internal/standard/xos"
)

// DirFlagName is the shared flag name for the base directory.
const DirFlagName = "dir"

// InputFlagName is the shared flag name for the ledger file.
const InputFlagName = "input"

// FormatFlagName is the shared flag name for the output format.
const FormatFlagName = "format"

// ResolveDir expands a leading ~ in the base directory flag value.
func ResolveDir(dirFlag string) (string, error) {
	return xos.ExpandHome(dirFlag)
}

// ReadLedger reads and parses the ledger file, falling back to the
// configured default when the --input flag is empty.
func ReadLedger(config *cgtconfig.Config, inputFlag string) ([]cgtledger.Transaction, error) {
	filePath := inputFlag
	if filePath == "" {
		filePath = config.LedgerPath
	}
	if filePath == "" {
		return nil, appcmd.NewInvalidArgumentErrorf("--%s is required when no ledger is configured", InputFlagName)
	}
	filePath, err := xos.ExpandHome(filePath)
	if err != nil {
		return nil, err
	}
	return cgtledger.ParseFile(filePath)
}

// NewFXCache constructs the layered FX cache for a base directory:
// user-managed overrides take precedence over downloaded HMRC rates.
func NewFXCache(dirPath string) cgtfx.Cache {
	return cgtfx.Layered(
		cgtfx.NewStore(cgtpath.FXOverridesDirPath(dirPath)),
		cgtfx.NewStore(cgtpath.FXDirPath(dirPath)),
	)
}
