// Copyright 2026 Peter Edge
//
// All rights reserved.

package main

import (
	"context"

	"buf.build/go/app/appcmd"
	"buf.build/go/app/appext"
	"github.com/velikodniy/cgt-tool/cmd/cgt/internal/command/calculate"
	"github.com/velikodniy/cgt-tool/cmd/cgt/internal/command/config"
	"github.com/velikodniy/cgt-tool/cmd/cgt/internal/command/fx"
	"github.com/velikodniy/cgt-tool/cmd/cgt/internal/command/holdings"
	"github.com/velikodniy/cgt-tool/cmd/cgt/internal/command/validate"
)

func main() {
	appcmd.Main(context.Background(), newRootCommand("cgt"))
}

// newRootCommand creates the root cgt command with all sub-commands.
func newRootCommand(name string) *appcmd.Command {
	builder := appext.NewBuilder(name)
	return &appcmd.Command{
		Use:                 name,
		Short:               "Calculate UK Capital Gains Tax on share disposals",
		BindPersistentFlags: builder.BindRoot,
		SubCommands: []*appcmd.Command{
			calculate.NewCommand("calculate", builder),
			validate.NewCommand("validate", builder),
			holdings.NewCommand("holdings", builder),
			fx.NewCommand("fx", builder),
			config.NewCommand("config", builder),
		},
	}
}
