// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package cgtpath derives file and directory paths from the cgt base
// directory. All subdirectory layout is defined here so callers don't
// duplicate path construction logic.
//
// The base directory (--dir flag) contains:
//
//	cgt.yaml          Config file
//	fx/               Downloaded HMRC monthly rate files
//	fx-overrides/     User-managed rate files layered over fx/
package cgtpath

import "path/filepath"

// ConfigFileName is the well-known config file name within the base directory.
const ConfigFileName = "cgt.yaml"

// ConfigFilePath returns the path to the config file within the base directory.
func ConfigFilePath(dirPath string) string {
	return filepath.Join(dirPath, ConfigFileName)
}

// FXDirPath returns the directory for downloaded monthly FX rate files.
func FXDirPath(dirPath string) string {
	return filepath.Join(dirPath, "fx")
}

// FXOverridesDirPath returns the directory for user-managed rate files that
// take precedence over downloaded rates.
func FXOverridesDirPath(dirPath string) string {
	return filepath.Join(dirPath, "fx-overrides")
}
