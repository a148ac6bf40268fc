// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package fxdownload implements the "fx download" command.
package fxdownload

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"buf.build/go/app/appcmd"
	"buf.build/go/app/appext"
	"github.com/spf13/pflag"
	"github.com/velikodniy/cgt-tool/cmd/cgt/internal/cgtcmd"
	"github.com/velikodniy/cgt-tool/internal/cgt/cgtfx"
	"github.com/velikodniy/cgt-tool/internal/cgt/cgtpath"
	"github.com/velikodniy/cgt-tool/internal/pkg/hmrcfx"
)

// monthFlagName is the flag name for the month to download.
const monthFlagName = "month"

// NewCommand returns a new fx download command that fetches HMRC monthly
// exchange rates into the FX store.
func NewCommand(name string, builder appext.SubCommandBuilder) *appcmd.Command {
	flags := newFlags()
	return &appcmd.Command{
		Use:   name,
		Short: "Download HMRC monthly exchange rates",
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
	// Dir is the base directory the rates are stored under.
	Dir string
	// Month is the month to download in YYYY-MM format.
	Month string
}

func newFlags() *flags {
	return &flags{}
}

// Bind registers the flag definitions with the given flag set.
func (f *flags) Bind(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&f.Dir, cgtcmd.DirFlagName, ".", "The base directory to store FX data under")
	flagSet.StringVar(&f.Month, monthFlagName, "", "The month to download (YYYY-MM)")
}

func run(ctx context.Context, container appext.Container, flags *flags) error {
	if flags.Month == "" {
		return appcmd.NewInvalidArgumentErrorf("--%s is required", monthFlagName)
	}
	month, err := time.Parse("2006-01", flags.Month)
	if err != nil {
		return appcmd.NewInvalidArgumentErrorf("invalid --%s %q, expected YYYY-MM", monthFlagName, flags.Month)
	}
	dirPath, err := cgtcmd.ResolveDir(flags.Dir)
	if err != nil {
		return err
	}
	client := hmrcfx.NewClient()
	rates, err := client.GetMonthlyRates(ctx, month.Year(), month.Month())
	if err != nil {
		return err
	}
	fxDirPath := cgtpath.FXDirPath(dirPath)
	store := cgtfx.NewStore(fxDirPath)
	if err := store.WriteRateFile(month.Year(), month.Month(), rates); err != nil {
		return err
	}
	container.Logger().Info("downloaded FX rates",
		"month", flags.Month,
		"currencies", len(rates),
	)
	// Print the path of the written file so the user knows where to find it.
	_, err = fmt.Fprintf(container.Stdout(), "%s\n", filepath.Join(fxDirPath, cgtfx.RateFileName(month.Year(), month.Month())))
	return err
}
