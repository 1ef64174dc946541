package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vpp-platform/battery-service/internal/auth"
)

func newTokenCommand(_ *globalOptions) *cobra.Command {
	var (
		secret  string
		subject string
		scopes  []string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an HS256 bearer token for local use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(secret) == "" {
				return fmt.Errorf("a signing secret is required (--secret or VPP_BATTERY_JWT_SECRET)")
			}
			token, err := auth.IssueToken([]byte(secret), subject, scopes, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}

	cmd.Flags().StringVar(&secret, "secret", os.Getenv("VPP_BATTERY_JWT_SECRET"), "HS256 signing secret")
	cmd.Flags().StringVar(&subject, "subject", "batteryctl", "token subject")
	cmd.Flags().StringSliceVar(&scopes, "scope", []string{"read:batteries", "write:batteries"}, "granted scopes")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	return cmd
}
