package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"poolLedger/internal/chain"
	"poolLedger/internal/config"
	"poolLedger/internal/dex"
	"poolLedger/internal/indexer"
	"poolLedger/internal/sequencer"
	"poolLedger/internal/storage"
	"poolLedger/internal/storage/postgres"
	"poolLedger/internal/store"
)

func main() {
	root := &cobra.Command{
		Use:          "ledger",
		Short:        "Concentrated-liquidity pool ledger",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Index pool events from the chain",
		RunE:  runLedger,
	}
	addRunFlags(runCmd)
	root.AddCommand(runCmd)

	replayCmd := &cobra.Command{
		Use:   "replay",
		Short: "Re-apply journaled log records",
		RunE:  runReplay,
	}
	addRunFlags(replayCmd)
	root.AddCommand(replayCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().String("rpc", "", "RPC URL")
	cmd.Flags().String("pg-dsn", "", "Postgres DSN (empty disables persistence)")
	cmd.Flags().Uint64("from", 0, "start block (inclusive)")
	cmd.Flags().Uint64("to", 0, "end block (inclusive), 0 means latest")
	cmd.Flags().Uint64("batch-size", 2000, "blocks per batch")
	cmd.Flags().String("journal", "", "JSONL journal path (empty disables journaling)")
	cmd.Flags().String("checkpoint", "./data/checkpoint.json", "checkpoint file path")
	cmd.Flags().Bool("checkpoint-enabled", true, "enable checkpointing")
	cmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	cmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	cmd.Flags().String("factory", "", "factory contract address")
	cmd.Flags().String("native-asset", "", "wrapped native token address")
	cmd.Flags().String("stable-price-pool", "", "stablecoin reference pool address")
	cmd.Flags().String("minimum-native-locked", "0", "minimum reference-asset liquidity for price candidates")
	cmd.Flags().StringSlice("whitelist-tokens", nil, "tokens that anchor price derivation")
	cmd.Flags().StringSlice("stablecoins", nil, "tokens pinned to one USD")
	cmd.Flags().StringSlice("skip-pools", nil, "pool addresses excluded from creation")
	cmd.Flags().StringSlice("skip-swap-pools", nil, "pool addresses excluded from swap processing")
}

func runLedger(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	if _, err := indexer.ParseAddresses([]string{cfg.FactoryAddress}); err != nil || cfg.FactoryAddress == "" {
		return fmt.Errorf("valid factory address is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner, cleanup, err := buildRunner(ctx, &cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	logger.Info("ledger start",
		zap.String("rpc", cfg.RPCURL),
		zap.String("factory", cfg.FactoryAddress),
		zap.Uint64("from", cfg.FromBlock),
		zap.Uint64("to", cfg.ToBlock),
		zap.Uint64("batch_size", cfg.BatchSize),
		zap.Bool("persistence", cfg.PGDSN != ""),
		zap.String("journal", cfg.Journal),
		zap.Bool("checkpoint_enabled", cfg.CheckpointEnabled),
	)

	return runner.Run(ctx)
}

func runReplay(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Journal == "" {
		return fmt.Errorf("journal path is required for replay")
	}
	if cfg.RPCURL == "" {
		// Contract state reads during replay still need the chain.
		return fmt.Errorf("rpc url is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner, cleanup, err := buildRunner(ctx, &cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	records, err := storage.NewJsonlJournal(cfg.Journal).ReadAll()
	if err != nil {
		return err
	}

	logger.Info("replay start",
		zap.String("journal", cfg.Journal),
		zap.Int("records", len(records)),
	)

	return runner.Replay(ctx, records)
}

func buildRunner(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*indexer.Runner, func(), error) {
	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect rpc: %w", err)
	}
	cleanup := chainClient.Close

	var persister indexer.Persister
	if cfg.PGDSN != "" {
		pgStore, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			chainClient.Close()
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		persister = pgStore
		cleanup = func() {
			pgStore.Close()
			chainClient.Close()
		}
	}

	var journal storage.Journal
	if cfg.Journal != "" {
		journal = storage.NewJsonlJournal(cfg.Journal)
	}

	decoder, err := dex.NewDecoder()
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("build decoder: %w", err)
	}

	memory := store.NewMemory()
	seq := sequencer.New(
		memory,
		dex.NewTokenReader(chainClient, logger),
		dex.NewPoolStateReader(chainClient),
		cfg,
		logger,
	)

	runner := indexer.NewRunner(indexer.RunConfig{
		FromBlock:         cfg.FromBlock,
		ToBlock:           cfg.ToBlock,
		FactoryAddress:    cfg.FactoryAddress,
		BatchSize:         cfg.BatchSize,
		CheckpointPath:    cfg.Checkpoint,
		CheckpointEnabled: cfg.CheckpointEnabled,
		MaxRetries:        cfg.MaxRetries,
		RetryBackoff:      cfg.RetryBackoff,
	}, chainClient, decoder, seq, memory, persister, journal, logger)

	return runner, cleanup, nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
