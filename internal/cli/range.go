package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vpp-platform/battery-service/internal/report"
	"github.com/vpp-platform/battery-service/pkg/client"
	"github.com/vpp-platform/battery-service/pkg/types"
)

func newRangeCommand(opts *globalOptions) *cobra.Command {
	var (
		q        client.RangeQuery
		xlsxPath string
		pdfPath  string
	)

	cmd := &cobra.Command{
		Use:   "range",
		Short: "Query batteries by postcode and capacity range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			result, err := c.QueryRange(cmd.Context(), q)
			if err != nil {
				return err
			}

			if xlsxPath != "" || pdfPath != "" {
				rep := rangeReport(q, result, time.Now())
				if err := writeReport(xlsxPath, rep, report.BuildRangeXLSX); err != nil {
					return err
				}
				if err := writeReport(pdfPath, rep, report.BuildRangePDF); err != nil {
					return err
				}
			}

			if opts.output == outputJSON {
				return writeJSON(cmd.OutOrStdout(), result)
			}
			return writeRangeTable(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVar(&q.StartPostcode, "start-postcode", "", "lowest postcode (inclusive)")
	cmd.Flags().StringVar(&q.EndPostcode, "end-postcode", "", "highest postcode (inclusive)")
	cmd.Flags().StringVar(&q.StartCapacity, "start-capacity", "", "lowest capacity (inclusive, optional)")
	cmd.Flags().StringVar(&q.EndCapacity, "end-capacity", "", "highest capacity (inclusive, optional)")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "also write the result to this .xlsx file")
	cmd.Flags().StringVar(&pdfPath, "pdf", "", "also write the result to this .pdf file")
	_ = cmd.MarkFlagRequired("start-postcode")
	_ = cmd.MarkFlagRequired("end-postcode")
	return cmd
}

func rangeReport(q client.RangeQuery, result *types.BatteryRangeResult, at time.Time) report.RangeReport {
	return report.RangeReport{
		StartPostcode:   q.StartPostcode,
		EndPostcode:     q.EndPostcode,
		StartCapacity:   q.StartCapacity,
		EndCapacity:     q.EndCapacity,
		Batteries:       result.Batteries,
		TotalCapacity:   result.TotalCapacity,
		AverageCapacity: result.AverageCapacity,
		GeneratedAt:     at,
	}
}

func writeReport(path string, rep report.RangeReport, build func(report.RangeReport) ([]byte, error)) error {
	if path == "" {
		return nil
	}
	data, err := build(rep)
	if err != nil {
		return fmt.Errorf("building report %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
