// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package holdings implements the "holdings" command.
package holdings

import (
	"context"
	"fmt"
	"os"

	"buf.build/go/app/appcmd"
	"buf.build/go/app/appext"
	"github.com/spf13/pflag"
	"github.com/velikodniy/cgt-tool/cmd/cgt/internal/cgtcmd"
	"github.com/velikodniy/cgt-tool/internal/cgt/cgtcalc"
	"github.com/velikodniy/cgt-tool/internal/cgt/cgtconfig"
	"github.com/velikodniy/cgt-tool/internal/cgt/cgtmatch"
	"github.com/velikodniy/cgt-tool/internal/pkg/cliio"
)

// NewCommand returns a new holdings command that displays the end-state
// Section 104 pools.
func NewCommand(name string, builder appext.SubCommandBuilder) *appcmd.Command {
	flags := newFlags()
	return &appcmd.Command{
		Use:   name,
		Short: "Display the end-state Section 104 holdings",
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
	// Format is the output format (table, csv, json).
	Format string
}

func newFlags() *flags {
	return &flags{}
}

// Bind registers the flag definitions with the given flag set.
func (f *flags) Bind(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&f.Dir, cgtcmd.DirFlagName, ".", "The base directory containing cgt.yaml and FX data")
	flagSet.StringVar(&f.Input, cgtcmd.InputFlagName, "", "The ledger file path")
	flagSet.StringVar(&f.Format, cgtcmd.FormatFlagName, "table", "Output format (table, csv, json)")
}

func run(_ context.Context, _ appext.Container, flags *flags) error {
	format, err := cliio.ParseFormat(flags.Format)
	if err != nil {
		return appcmd.NewInvalidArgumentError(err.Error())
	}
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
	result, err := cgtcalc.Match(transactions, cgtcmd.NewFXCache(dirPath))
	if err != nil {
		return err
	}
	writer := os.Stdout
	switch format {
	case cliio.FormatTable:
		rows := make([][]string, len(result.Holdings))
		for i, pool := range result.Holdings {
			rows[i] = []string{
				pool.Ticker,
				pool.Quantity.String(),
				cliio.FormatGBP(pool.TotalCost),
				cliio.FormatGBP(pool.AverageCost()),
			}
		}
		return cliio.WriteTable(writer, []string{"TICKER", "QUANTITY", "TOTAL COST", "AVG COST"}, rows)
	case cliio.FormatCSV:
		records := [][]string{{"ticker", "quantity", "total_cost", "average_cost"}}
		for _, pool := range result.Holdings {
			records = append(records, []string{
				pool.Ticker,
				pool.Quantity.String(),
				pool.TotalCost.String(),
				pool.AverageCost().String(),
			})
		}
		return cliio.WriteCSVRecords(writer, records)
	case cliio.FormatJSON:
		return cliio.WriteJSON(writer, holdingsJSON(result.Holdings))
	default:
		return fmt.Errorf("unhandled format %q", format)
	}
}

// *** PRIVATE ***

// holdingJSON is the JSON shape of one pool in holdings output.
type holdingJSON struct {
	Ticker    string `json:"ticker"`
	Quantity  string `json:"quantity"`
	TotalCost string `json:"total_cost"`
}

func holdingsJSON(pools []cgtmatch.Pool) []holdingJSON {
	holdings := make([]holdingJSON, len(pools))
	for i, pool := range pools {
		holdings[i] = holdingJSON{
			Ticker:    pool.Ticker,
			Quantity:  pool.Quantity.String(),
			TotalCost: pool.TotalCost.String(),
		}
	}
	return holdings
}
