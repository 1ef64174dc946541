// Package cli implements the batteryctl command tree.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vpp-platform/battery-service/pkg/client"
)

const (
	defaultServer = "http://localhost:8080"

	outputJSON  = "json"
	outputTable = "table"
)

type globalOptions struct {
	server  string
	token   string
	output  string
	timeout time.Duration
}

// NewRootCommand builds a fresh batteryctl command tree.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:           "batteryctl",
		Short:         "Manage batteries in the VPP battery service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch opts.output {
			case outputJSON, outputTable:
				return nil
			default:
				return fmt.Errorf("unsupported output %q (want %s or %s)", opts.output, outputJSON, outputTable)
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.server, "server", envOr("VPP_BATTERY_SERVER", defaultServer), "battery service base URL")
	flags.StringVar(&opts.token, "token", os.Getenv("VPP_BATTERY_TOKEN"), "bearer token")
	flags.StringVarP(&opts.output, "output", "o", outputTable, "output format: json or table")
	flags.DurationVar(&opts.timeout, "timeout", 30*time.Second, "per-request timeout")

	root.AddCommand(
		newCreateCommand(opts),
		newListCommand(opts),
		newGetCommand(opts),
		newRangeCommand(opts),
		newTokenCommand(opts),
	)
	return root
}

// Execute runs batteryctl until completion or SIGINT/SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCommand().ExecuteContext(ctx)
}

func (o *globalOptions) client() (*client.Client, error) {
	c, err := client.New(client.Config{
		BaseURL: o.server,
		Token:   o.token,
		Timeout: o.timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("creating client: %w", err)
	}
	return c, nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
