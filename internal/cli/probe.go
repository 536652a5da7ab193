package cli

import (
	"fmt"
	"runtime"

	"github.com/okian/askdesk/internal/probe"
	"github.com/okian/askdesk/pkg/logger"
	"github.com/spf13/cobra"
)

// NewProbeCmd creates the 'probe' command.
func NewProbeCmd() *cobra.Command {
	var (
		cfg        probe.Config
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Send concurrent questions to a running server",
		Long: `Post questions to /api/ask from several workers and report how many
were answered, fell through to suggestions or failed, with latency
percentiles.`,
		Example: `  askdesk probe --url http://localhost:9080 --questions 5000 --workers 16`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.Init(logger.WithOutput(cmd.ErrOrStderr())); err != nil {
				return fmt.Errorf("failed to initialize logging: %w", err)
			}
			rep, err := probe.Run(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd, rep)
			}
			fmt.Fprintf(cmd.OutOrStdout(),
				"sent %d  found %d  not found %d  failed %d\np50 %s  p90 %s  p99 %s  max %s\n%.1f req/s over %s\n",
				rep.Sent, rep.Found, rep.NotFound, rep.Failed,
				rep.P50, rep.P90, rep.P99, rep.Max,
				rep.Rate(), rep.Duration)
			return nil
		},
	}

	cmd.Flags().StringVar(&cfg.BaseURL, "url", probe.DefaultBaseURL, "Base URL of the service")
	cmd.Flags().IntVarP(&cfg.Questions, "questions", "n", probe.DefaultQuestions, "Number of questions to send")
	cmd.Flags().IntVarP(&cfg.Workers, "workers", "w", runtime.NumCPU()*2, "Number of concurrent workers")
	cmd.Flags().DurationVar(&cfg.Timeout, "timeout", probe.DefaultTimeout, "Per-request timeout")
	cmd.Flags().BoolVarP(&cfg.Verbose, "verbose", "v", false, "Log every failed request")
	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output the report as JSON")
	return cmd
}
