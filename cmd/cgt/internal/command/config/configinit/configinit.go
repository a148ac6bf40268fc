// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package configinit implements the "config init" command.
package configinit

import (
	"context"
	"fmt"

	"buf.build/go/app/appcmd"
	"buf.build/go/app/appext"
	"github.com/spf13/pflag"
	"github.com/velikodniy/cgt-tool/cmd/cgt/internal/cgtcmd"
	"github.com/velikodniy/cgt-tool/internal/cgt/cgtconfig"
)

// NewCommand returns a new config init command that creates a default configuration file.
func NewCommand(name string, builder appext.SubCommandBuilder) *appcmd.Command {
	flags := newFlags()
	return &appcmd.Command{
		Use:   name,
		Short: "Create a new configuration file",
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
	// Dir is the base directory to create the configuration file in.
	Dir string
}

func newFlags() *flags {
	return &flags{}
}

// Bind registers the flag definitions with the given flag set.
func (f *flags) Bind(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&f.Dir, cgtcmd.DirFlagName, ".", "The base directory to create cgt.yaml in")
}

func run(_ context.Context, container appext.Container, flags *flags) error {
	dirPath, err := cgtcmd.ResolveDir(flags.Dir)
	if err != nil {
		return err
	}
	// Create the configuration file in the base directory.
	filePath, err := cgtconfig.InitConfig(dirPath)
	if err != nil {
		return err
	}
	// Print the path of the created file so the user knows where to find it.
	_, err = fmt.Fprintf(container.Stdout(), "%s\n", filePath)
	return err
}
