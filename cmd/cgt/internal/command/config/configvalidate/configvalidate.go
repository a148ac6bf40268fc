// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package configvalidate implements the "config validate" command.
package configvalidate

import (
	"context"

	"buf.build/go/app/appcmd"
	"buf.build/go/app/appext"
	"github.com/spf13/pflag"
	"github.com/velikodniy/cgt-tool/cmd/cgt/internal/cgtcmd"
	"github.com/velikodniy/cgt-tool/internal/cgt/cgtconfig"
)

// NewCommand returns a new config validate command that validates a configuration file.
func NewCommand(name string, builder appext.SubCommandBuilder) *appcmd.Command {
	flags := newFlags()
	return &appcmd.Command{
		Use:   name,
		Short: "Validate a configuration file",
		Args:  appcmd.NoArgs,
		Run: builder.NewRunFunc(
			func(ctx context.Context, container appext.Container) error {
				return run(ctx, container, flags)
			},
		),
		BindFlags: flags.Bind,
	}
}

type flags struct {
	// Dir is the base directory containing the configuration file.
	Dir string
}

func newFlags() *flags {
	return &flags{}
}

// Bind registers the flag definitions with the given flag set.
func (f *flags) Bind(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&f.Dir, cgtcmd.DirFlagName, ".", "The base directory containing cgt.yaml")
}

func run(_ context.Context, _ appext.Container, flags *flags) error {
	dirPath, err := cgtcmd.ResolveDir(flags.Dir)
	if err != nil {
		return err
	}
	return cgtconfig.ValidateConfig(dirPath)
}
