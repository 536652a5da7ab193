package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/okian/askdesk/internal/adapters/http/api"
	"github.com/spf13/cobra"
)

// NewAskCmd creates the 'ask' command for one-shot questions.
func NewAskCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer one question against the configured store",
		Long: `Match a single question and print the answer as JSON, in the same
shape as POST /api/ask. The question is logged like any other.`,
		Example: `  askdesk ask "What is the tuition fee?"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			seedOpts, err := seedOption(cfg)
			if err != nil {
				return err
			}
			svc, stop, err := startService(ctx, cfg, seedOpts...)
			if err != nil {
				return err
			}
			defer stop()

			outcome, err := svc.Ask(ctx, strings.Join(args, " "))
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}
			return printJSON(cmd, api.NewAskResponse(outcome))
		},
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
