package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/giygas/drugcost-api/outcome"
	"github.com/giygas/drugcost-api/pipeline"
	"github.com/giygas/drugcost-api/tools"
	"github.com/giygas/drugcost-api/validation"
)

// errToolFailed marks a tool result that was already printed
var errToolFailed = errors.New("lookup failed")

// withTools loads the catalogs once and runs fn against them
func (a *app) withTools(ctx context.Context, fn func(*tools.Tools) error) error {
	set, err := a.loader().Load(ctx)
	if err != nil {
		return err
	}
	defer set.Close() //nolint:errcheck

	return fn(tools.New(pipeline.Fixed{Set: set}, a.pipelineOptions(), validation.NewDataValidator()))
}

func newCompareCmd(a *app) *cobra.Command {
	var year, top int

	cmd := &cobra.Command{
		Use:   "compare <request>",
		Short: "Rank the Part D cost of a drug's therapeutic equivalents",
		Example: `  drugcost compare "Lipitor 20mg tablets"
  drugcost compare --year 2022 --top 3 zoloft 50mg`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withTools(cmd.Context(), func(t *tools.Tools) error {
				res := t.Compare(cmd.Context(), tools.CompareArgs{
					Text: strings.Join(args, " "),
					Year: year,
					Top:  top,
				})

				out := cmd.OutOrStdout()
				if a.output == "json" {
					if err := printJSON(out, res); err != nil {
						return err
					}
				} else if res.OK {
					fmt.Fprintln(out, res.Data.Report)
				} else {
					fmt.Fprintln(out, describeFailure(res.Kind, res.Stage, res.Error))
				}

				if !res.OK {
					return errToolFailed
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "Program year (default: latest available)")
	cmd.Flags().IntVar(&top, "top", 0, "Number of options to list (default 5)")
	return cmd
}

func newLatestYearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "latest-year",
		Short: "Print the most recent Part D program year in the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withTools(cmd.Context(), func(t *tools.Tools) error {
				res := t.LatestYear(cmd.Context())

				out := cmd.OutOrStdout()
				if a.output == "json" {
					if err := printJSON(out, res); err != nil {
						return err
					}
				} else if res.OK {
					fmt.Fprintln(out, res.Data.Year)
				} else {
					fmt.Fprintln(out, describeFailure(res.Kind, res.Stage, res.Error))
				}

				if !res.OK {
					return errToolFailed
				}
				return nil
			})
		},
	}
}

// describeFailure renders a failed tool result for a terminal
func describeFailure(kind outcome.Kind, stage outcome.Stage, msg string) string {
	switch kind {
	case outcome.KindNoMatch:
		return "No matching drug was found. Check the spelling or try the generic name."
	case outcome.KindNoEquivalents:
		return "The drug was found but has no therapeutically equivalent products on record."
	case outcome.KindNoDataForYear:
		return "No Medicare Part D cost data is available for this drug in that year."
	default:
		return fmt.Sprintf("%s failed (%s): %s", stage, kind, msg)
	}
}
