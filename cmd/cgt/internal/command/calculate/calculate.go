// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package calculate implements the "calculate" command.
package calculate

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"buf.build/go/app/appcmd"
	"buf.build/go/app/appext"
	"github.com/spf13/pflag"
	"github.com/velikodniy/cgt-tool/cmd/cgt/internal/cgtcmd"
	"github.com/velikodniy/cgt-tool/internal/cgt/cgtcalc"
	"github.com/velikodniy/cgt-tool/internal/cgt/cgtconfig"
	"github.com/velikodniy/cgt-tool/internal/cgt/cgtledger"
	"github.com/velikodniy/cgt-tool/internal/cgt/cgtreport"
	"github.com/velikodniy/cgt-tool/internal/pkg/cliio"
)

// taxYearFlagName is the flag name for restricting output to one tax year.
const taxYearFlagName = "tax-year"

// NewCommand returns a new calculate command.
func NewCommand(name string, builder appext.SubCommandBuilder) *appcmd.Command {
	flags := newFlags()
	return &appcmd.Command{
		Use:   name,
		Short: "Calculate capital gains and produce the tax report",
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
	// TaxYear restricts output to one tax year (e.g., "2023/24").
	TaxYear string
}

func newFlags() *flags {
	return &flags{}
}

// Bind registers the flag definitions with the given flag set.
func (f *flags) Bind(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&f.Dir, cgtcmd.DirFlagName, ".", "The base directory containing cgt.yaml and FX data")
	flagSet.StringVar(&f.Input, cgtcmd.InputFlagName, "", "The ledger file path")
	flagSet.StringVar(&f.Format, cgtcmd.FormatFlagName, "table", "Output format (table, csv, json)")
	flagSet.StringVar(&f.TaxYear, taxYearFlagName, "", "Restrict output to one tax year (e.g., 2023/24)")
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
	report, err := cgtcalc.Calculate(transactions, cgtcmd.NewFXCache(dirPath))
	if err != nil {
		return err
	}
	if flags.TaxYear != "" {
		period, err := parseTaxYearFlag(flags.TaxYear)
		if err != nil {
			return appcmd.NewInvalidArgumentError(err.Error())
		}
		report = filterReport(report, period)
	}
	writer := os.Stdout
	switch format {
	case cliio.FormatTable:
		return writeTable(writer, report)
	case cliio.FormatCSV:
		return writeCSV(writer, report)
	case cliio.FormatJSON:
		return cliio.WriteJSON(writer, report)
	default:
		return fmt.Errorf("unhandled format %q", format)
	}
}

// *** PRIVATE ***

// parseTaxYearFlag accepts the canonical "YYYY/YY" form or a plain start year.
func parseTaxYearFlag(value string) (cgtledger.TaxPeriod, error) {
	if strings.Contains(value, "/") {
		return cgtledger.ParseTaxPeriod(value)
	}
	startYear, err := strconv.Atoi(value)
	if err != nil {
		return cgtledger.TaxPeriod{}, fmt.Errorf("invalid tax year %q", value)
	}
	period := cgtledger.TaxPeriod{StartYear: startYear}
	if !period.IsValid() {
		return cgtledger.TaxPeriod{}, fmt.Errorf("tax year %q out of range", value)
	}
	return period, nil
}

// filterReport keeps only the requested tax year. Holdings are unaffected:
// they are the end state of the whole ledger.
func filterReport(report *cgtreport.TaxReport, period cgtledger.TaxPeriod) *cgtreport.TaxReport {
	filtered := &cgtreport.TaxReport{Holdings: report.Holdings}
	for _, year := range report.TaxYears {
		if year.Period == period {
			filtered.TaxYears = append(filtered.TaxYears, year)
		}
	}
	return filtered
}

func writeTable(writer io.Writer, report *cgtreport.TaxReport) error {
	headers := []string{"DATE", "TICKER", "QUANTITY", "PROCEEDS", "FEES", "GAIN/LOSS", "RULES"}
	for _, year := range report.TaxYears {
		if _, err := fmt.Fprintf(writer, "Tax year %s\n\n", year.Period); err != nil {
			return err
		}
		rows := make([][]string, 0, len(year.Disposals))
		for _, disposal := range year.Disposals {
			rows = append(rows, []string{
				disposal.Date.String(),
				disposal.Ticker,
				disposal.Quantity.String(),
				cliio.FormatGBP(disposal.Proceeds),
				cliio.FormatGBP(disposal.SaleFees),
				cliio.FormatGBP(disposal.GainOrLoss),
				rulesSummary(disposal),
			})
		}
		totalsRow := []string{
			"TOTAL",
			"",
			"",
			cliio.FormatGBP(year.GrossProceeds),
			"",
			cliio.FormatGBP(year.NetGain),
			"",
		}
		if err := cliio.WriteTableWithTotals(writer, headers, rows, totalsRow); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(
			writer,
			"\nTotal gain: %s  Total loss: %s  Net gain: %s\n",
			cliio.FormatGBP(year.TotalGain),
			cliio.FormatGBP(year.TotalLoss),
			cliio.FormatGBP(year.NetGain),
		); err != nil {
			return err
		}
		if !year.DividendIncome.IsZero() || !year.DividendTaxWithheld.IsZero() {
			if _, err := fmt.Fprintf(
				writer,
				"Dividend income: %s  Tax withheld: %s\n",
				cliio.FormatGBP(year.DividendIncome),
				cliio.FormatGBP(year.DividendTaxWithheld),
			); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(writer); err != nil {
			return err
		}
	}
	if len(report.Holdings) == 0 {
		return nil
	}
	if _, err := fmt.Fprintf(writer, "Holdings\n\n"); err != nil {
		return err
	}
	holdingRows := make([][]string, 0, len(report.Holdings))
	for _, holding := range report.Holdings {
		holdingRows = append(holdingRows, []string{
			holding.Ticker,
			holding.Quantity.String(),
			cliio.FormatGBP(holding.TotalCost),
		})
	}
	return cliio.WriteTable(writer, []string{"TICKER", "QUANTITY", "TOTAL COST"}, holdingRows)
}

func writeCSV(writer io.Writer, report *cgtreport.TaxReport) error {
	records := [][]string{{
		"tax_year", "date", "ticker", "quantity", "proceeds", "net_proceeds", "sale_fees", "gain_or_loss", "rules",
	}}
	for _, year := range report.TaxYears {
		for _, disposal := range year.Disposals {
			records = append(records, []string{
				year.Period.String(),
				disposal.Date.String(),
				disposal.Ticker,
				disposal.Quantity.String(),
				disposal.Proceeds.String(),
				disposal.NetProceeds.String(),
				disposal.SaleFees.String(),
				disposal.GainOrLoss.String(),
				rulesSummary(disposal),
			})
		}
	}
	return cliio.WriteCSVRecords(writer, records)
}

// rulesSummary lists a disposal's match rules with quantities,
// e.g. "same_day:100 section_104:50".
func rulesSummary(disposal cgtreport.Disposal) string {
	parts := make([]string, len(disposal.Matches))
	for i, match := range disposal.Matches {
		parts[i] = fmt.Sprintf("%s:%s", match.Rule, match.Quantity)
	}
	return strings.Join(parts, " ")
}
