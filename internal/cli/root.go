// Package cli implements the askdesk command tree.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/okian/askdesk/internal/adapters/repository"
	service "github.com/okian/askdesk/internal/app"
	"github.com/okian/askdesk/internal/config"
	"github.com/okian/askdesk/internal/domain/model"
	"github.com/okian/askdesk/internal/seed"
	"github.com/okian/askdesk/pkg/logger"
	"github.com/spf13/cobra"
)

// NewRootCmd builds the askdesk root command with every subcommand attached.
func NewRootCmd(version string) *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "askdesk",
		Short: "Keyword-scored FAQ answering service",
		Long: `askdesk answers free-text questions from a small FAQ knowledge base.

Questions are tokenized and scored against every entry's question and
keywords; the best entry is returned when its score reaches the threshold,
otherwise a list of topics is suggested. Every question is logged for
analytics.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (default: $"+config.EnvFile+")")

	load := func(cmd *cobra.Command) (*config.Config, error) {
		return loadConfig(cmd.Context(), configPath, cmd.ErrOrStderr())
	}

	root.AddCommand(NewServeCmd(load))
	root.AddCommand(NewAskCmd(load))
	root.AddCommand(NewAnalyticsCmd(load))
	root.AddCommand(NewSeedCmd(load))
	root.AddCommand(NewProbeCmd())
	return root
}

// configLoader resolves the configuration for a command.
type configLoader func(cmd *cobra.Command) (*config.Config, error)

// loadConfig loads configuration and initializes the global logger from it.
func loadConfig(ctx context.Context, path string, logOut io.Writer) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFile(ctx, path)
	} else {
		cfg, err = config.Load(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat), logger.WithOutput(logOut)); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return cfg, nil
}

// seedInputs returns the configured seed: the file when set, else the
// embedded sample FAQs.
func seedInputs(path string) ([]model.EntryInput, error) {
	if path == "" {
		return seed.Default(), nil
	}
	return seed.LoadFile(path)
}

// serviceOptions maps configuration onto service options.
func serviceOptions(cfg *config.Config) []service.Option {
	return []service.Option{
		service.WithLogger(logger.Get().Named("service")),
		service.WithScoringWorkers(cfg.ScoringWorkers),
		service.WithParallelThreshold(cfg.ParallelThreshold),
		service.WithTokenCacheSize(cfg.TokenCacheSize),
		service.WithLogQueueSize(cfg.LogQueueSize),
		service.WithLogWorkers(cfg.LogWorkers),
		service.WithLogWriteTimeout(cfg.LogWriteTimeout()),
		service.WithMaxQuestionLength(cfg.MaxQuestionLength),
		service.WithAnalyticsLimits(cfg.RecentLimit, cfg.TopEntriesLimit),
	}
}

// startService opens the configured store and starts a service over it.
// The returned stop function drains the service and closes the store.
func startService(ctx context.Context, cfg *config.Config, extra ...service.Option) (*service.Service, func(), error) {
	store, err := repository.Open(ctx, cfg.StoreDriver, cfg.StorePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open store: %w", err)
	}

	svc := service.New(store, append(serviceOptions(cfg), extra...)...)
	if err := svc.Start(ctx); err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("failed to start service: %w", err)
	}

	stop := func() {
		svc.Stop()
		if err := store.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close store", logger.Error(err))
		}
	}
	return svc, stop, nil
}

// seedOption returns the start-up seed option when seed_on_empty is set.
func seedOption(cfg *config.Config) ([]service.Option, error) {
	if !cfg.SeedOnEmpty {
		return nil, nil
	}
	inputs, err := seedInputs(cfg.SeedFile)
	if err != nil {
		return nil, err
	}
	return []service.Option{service.WithSeed(inputs)}, nil
}
