// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package fx implements the "fx" command group.
package fx

import (
	"buf.build/go/app/appcmd"
	"buf.build/go/app/appext"
	"github.com/velikodniy/cgt-tool/cmd/cgt/internal/command/fx/fxdownload"
)

// NewCommand returns a new fx command group with the download sub-command.
func NewCommand(name string, builder appext.SubCommandBuilder) *appcmd.Command {
	return &appcmd.Command{
		Use:   name,
		Short: "Manage FX rate data",
		SubCommands: []*appcmd.Command{
			fxdownload.NewCommand("download", builder),
		},
	}
}
