// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package validate implements the "validate" command.
package validate

import (
	"context"
	"errors"
	"fmt"

	"buf.build/go/app/appcmd"
	"buf.build/go/app/appext"
	"github.com/spf13/pflag"
	"github.com/velikodniy/cgt-tool/cmd/cgt/internal/cgtcmd"
	"github.com/velikodniy/cgt-tool/internal/cgt/cgtconfig"
	"github.com/velikodniy/cgt-tool/internal/cgt/cgtvalidate"
)

// NewCommand returns a new validate command that parses and validates a
// ledger without calculating.
func NewCommand(name string, builder appext.SubCommandBuilder) *appcmd.Command {
	flags := newFlags()
	return &appcmd.Command{
		Use:   name,
		Short: "Parse and validate a ledger without calculating",
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
	// Dir is the base directory containing cgt.yaml and the FX data.
	Dir string
	// Input is the ledger file path.
	Input string
}

func newFlags() *flags {
	return &flags{}
}

// Bind registers the flag definitions with the given flag set.
func (f *flags) Bind(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&f.Dir, cgtcmd.DirFlagName, ".", "The base directory containing cgt.yaml and FX data")
	flagSet.StringVar(&f.Input, cgtcmd.InputFlagName, "", "The ledger file path")
}

func run(_ context.Context, container appext.Container, flags *flags) error {
	dirPath, err := cgtcmd.ResolveDir(flags.Dir)
	if err != nil {
		return err
	}
	config, err := cgtconfig.ReadConfig(dirPath)
	if err != nil {
		return err
	}
	transactions, err := cgtcmd.ReadLedger(config, flags.Input)
	if err != nil {
		return err
	}
	if validationErrors := cgtvalidate.Validate(transactions, cgtcmd.NewFXCache(dirPath)); len(validationErrors) > 0 {
		errs := make([]error, len(validationErrors))
		for i, validationError := range validationErrors {
			errs[i] = validationError
		}
		return errors.Join(errs...)
	}
	_, err = fmt.Fprintf(container.Stdout(), "%d transactions valid\n", len(transactions))
	return err
}
