package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/vpp-platform/battery-service/pkg/client"
	"github.com/vpp-platform/battery-service/pkg/types"
)

func newCreateCommand(opts *globalOptions) *cobra.Command {
	var req types.CreateBatteryRequest

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register a battery",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			created, err := c.CreateBattery(cmd.Context(), req)
			if err != nil {
				return err
			}
			if opts.output == outputJSON {
				return writeJSON(cmd.OutOrStdout(), created)
			}
			return writeBatteryTable(cmd.OutOrStdout(), *created)
		},
	}

	cmd.Flags().StringVar(&req.Name, "name", "", "battery name")
	cmd.Flags().StringVar(&req.Postcode, "postcode", "", "numeric postcode")
	cmd.Flags().Int64Var(&req.Capacity, "capacity", 0, "capacity in watt-hours")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("postcode")
	_ = cmd.MarkFlagRequired("capacity")
	return cmd
}

func newListCommand(opts *globalOptions) *cobra.Command {
	var list client.ListBatteriesOptions

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List batteries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			page, err := c.ListBatteries(cmd.Context(), list)
			if err != nil {
				return err
			}
			if opts.output == outputJSON {
				return writeJSON(cmd.OutOrStdout(), page)
			}
			if err := writeBatteryTable(cmd.OutOrStdout(), page.Items...); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "\n%d of %d (offset %d)\n",
				len(page.Items), page.Metadata.Total, page.Metadata.Offset)
			return err
		},
	}

	cmd.Flags().IntVar(&list.Limit, "limit", 0, "page size (server default when 0)")
	cmd.Flags().IntVar(&list.Offset, "offset", 0, "number of batteries to skip")
	cmd.Flags().StringVar(&list.Sort, "sort", "", "sort field: id, name, postcode or capacity")
	cmd.Flags().StringVar(&list.Direction, "direction", "", "sort direction: asc or desc")
	return cmd
}

func newGetCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one battery",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid battery id %q", args[0])
			}
			c, err := opts.client()
			if err != nil {
				return err
			}
			battery, err := c.GetBattery(cmd.Context(), id)
			if err != nil {
				return err
			}
			if opts.output == outputJSON {
				return writeJSON(cmd.OutOrStdout(), battery)
			}
			return writeBatteryTable(cmd.OutOrStdout(), *battery)
		},
	}
}
