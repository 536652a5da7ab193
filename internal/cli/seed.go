package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewSeedCmd creates the 'seed' command.
func NewSeedCmd(load configLoader) *cobra.Command {
	var (
		file  string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load FAQ entries from a YAML seed into the store",
		Long: `Load entries into the configured store. Without --file the embedded
sample FAQs are used. Nothing is loaded when the store already holds
entries unless --force is given.`,
		Example: `  askdesk seed
  askdesk seed --file faqs.yaml --force`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			if file == "" {
				file = cfg.SeedFile
			}
			inputs, err := seedInputs(file)
			if err != nil {
				return err
			}

			svc, stop, err := startService(ctx, cfg)
			if err != nil {
				return err
			}
			defer stop()

			n, err := svc.Seed(ctx, inputs, force)
			if err != nil {
				return fmt.Errorf("seed: %w", err)
			}
			if n == 0 && !force {
				fmt.Fprintln(cmd.OutOrStdout(), "store already has entries; use --force to add the seed anyway")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d entries\n", n)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML seed file (default: seed_file or the embedded sample)")
	cmd.Flags().BoolVar(&force, "force", false, "Seed even when the store has entries")
	return cmd
}
