package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/vpp-platform/battery-service/pkg/types"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeBatteryTable(w io.Writer, items ...types.Resource[types.Battery]) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPOSTCODE\tCAPACITY\tCREATED")
	for _, item := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
			item.Metadata.ID,
			item.Spec.Name,
			item.Spec.Postcode,
			item.Spec.Capacity,
			item.Metadata.CreatedAt.UTC().Format(time.RFC3339),
		)
	}
	return tw.Flush()
}

func writeRangeTable(w io.Writer, result *types.BatteryRangeResult) error {
	if result.Empty() {
		_, err := fmt.Fprintln(w, result.Message)
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Batteries:\t%s\n", strings.Join(result.Batteries, ", "))
	fmt.Fprintf(tw, "Total capacity:\t%d\n", result.TotalCapacity)
	fmt.Fprintf(tw, "Average capacity:\t%.2f\n", result.AverageCapacity)
	return tw.Flush()
}
