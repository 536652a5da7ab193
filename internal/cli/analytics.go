package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewAnalyticsCmd creates the 'analytics' command.
func NewAnalyticsCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "analytics",
		Short: "Print the interaction analytics summary as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			svc, stop, err := startService(ctx, cfg)
			if err != nil {
				return err
			}
			defer stop()

			sum, err := svc.Analytics(ctx)
			if err != nil {
				return fmt.Errorf("analytics: %w", err)
			}
			return printJSON(cmd, sum)
		},
	}
}
