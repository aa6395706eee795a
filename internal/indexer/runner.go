package indexer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"poolLedger/internal/chain"
	"poolLedger/internal/config"
	"poolLedger/internal/dex"
	"poolLedger/internal/event"
	"poolLedger/internal/sequencer"
	"poolLedger/internal/storage"
	"poolLedger/internal/store"
)

// Persister flushes dirty entities and the progress marker to durable
// storage after each batch.
type Persister interface {
	UpsertSnapshot(ctx context.Context, snap store.Snapshot) error
	SaveState(ctx context.Context, name string, block uint64) error
}

// stateName keys the progress row in the persister.
const stateName = "pool-ledger"

// RunConfig holds runtime settings for the indexing loop.
type RunConfig struct {
	FromBlock         uint64
	ToBlock           uint64
	FactoryAddress    string
	BatchSize         uint64
	CheckpointPath    string
	CheckpointEnabled bool
	MaxRetries        int
	RetryBackoff      time.Duration
}

// Runner streams logs from the chain, decodes them, and applies them to
// the entity store in block, transaction, log order. Changed entities are
// flushed to the persister batch by batch.
type Runner struct {
	cfg        RunConfig
	chain      *chain.Client
	decoder    *dex.Decoder
	sequencer  *sequencer.Sequencer
	memory     *store.Memory
	persister  Persister
	journal    storage.Journal
	logger     *zap.Logger
	seen       map[string]struct{}
	checkpoint *CheckpointStore
}

// NewRunner builds a Runner with its dependencies. The persister and
// journal are optional.
func NewRunner(cfg RunConfig, chainClient *chain.Client, decoder *dex.Decoder, seq *sequencer.Sequencer, memory *store.Memory, persister Persister, journal storage.Journal, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cfg:        cfg,
		chain:      chainClient,
		decoder:    decoder,
		sequencer:  seq,
		memory:     memory,
		persister:  persister,
		journal:    journal,
		logger:     logger,
		seen:       make(map[string]struct{}),
		checkpoint: NewCheckpointStore(cfg.CheckpointPath, cfg.CheckpointEnabled),
	}
}

// Run executes the indexing loop over the configured block range.
func (r *Runner) Run(ctx context.Context) error {
	if r.chain == nil {
		return fmt.Errorf("chain client is nil")
	}
	if r.decoder == nil || r.sequencer == nil || r.memory == nil {
		return fmt.Errorf("decoder, sequencer, and store are required")
	}
	if r.cfg.BatchSize == 0 {
		return fmt.Errorf("batch size must be greater than zero")
	}
	if r.cfg.FactoryAddress == "" {
		return fmt.Errorf("factory address is required")
	}

	chainID, err := r.chain.GetChainID(ctx)
	if err != nil {
		return fmt.Errorf("get chain id: %w", err)
	}
	if !chainID.IsUint64() {
		return fmt.Errorf("chain id does not fit in uint64: %s", chainID)
	}
	chainIDValue := chainID.Uint64()

	from := r.cfg.FromBlock
	to := r.cfg.ToBlock
	if to == 0 {
		latest, err := r.chain.LatestBlockNumber(ctx)
		if err != nil {
			return fmt.Errorf("get latest block: %w", err)
		}
		to = latest
	}

	if r.checkpoint != nil {
		cp, ok, err := r.checkpoint.Load()
		if err != nil {
			return err
		}
		if ok && cp.LastProcessedBlock >= from {
			from = cp.LastProcessedBlock + 1
			r.logger.Info("resume from checkpoint", zap.Uint64("last_processed", cp.LastProcessedBlock), zap.Uint64("from", from))
		}
	}

	if from > to {
		r.logger.Info("nothing to sync", zap.Uint64("from", from), zap.Uint64("to", to))
		return nil
	}

	r.sequencer.SeedPools(ctx)

	ranges, err := SplitRange(from, to, r.cfg.BatchSize)
	if err != nil {
		return err
	}

	topics := r.decoder.Topics()

	for _, blockRange := range ranges {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		r.logger.Info("fetch logs", zap.Uint64("from", blockRange.From), zap.Uint64("to", blockRange.To))

		logs, err := r.filterLogsWithRetry(ctx, blockRange.From, blockRange.To, topics)
		if err != nil {
			return fmt.Errorf("filter logs: %w", err)
		}

		ingestedAt := time.Now().UTC()
		records := make([]event.LogRecord, 0, len(logs))
		for _, log := range logs {
			if log.Removed || r.isDuplicate(log) {
				continue
			}

			ts, err := r.blockTimestampWithRetry(ctx, log.BlockNumber)
			if err != nil {
				return fmt.Errorf("block timestamp %d: %w", log.BlockNumber, err)
			}
			records = append(records, buildLogRecord(chainIDValue, log, ts, ingestedAt))
		}

		if r.journal != nil {
			if err := r.journal.PutLogBatch(records); err != nil {
				return fmt.Errorf("journal logs: %w", err)
			}
		}

		applied := r.applyRecords(ctx, records)

		if err := r.flush(ctx, blockRange.To); err != nil {
			return err
		}

		if r.checkpoint != nil {
			if err := r.checkpoint.Save(blockRange.To); err != nil {
				return err
			}
		}

		r.logger.Info("batch complete",
			zap.Int("logs", len(records)),
			zap.Int("applied", applied),
			zap.Uint64("from", blockRange.From),
			zap.Uint64("to", blockRange.To),
		)
	}

	return nil
}

// Replay re-applies journaled log records without touching the chain for
// log discovery. Contract state reads still go through the configured
// readers.
func (r *Runner) Replay(ctx context.Context, records []event.LogRecord) error {
	if r.decoder == nil || r.sequencer == nil || r.memory == nil {
		return fmt.Errorf("decoder, sequencer, and store are required")
	}

	r.sequencer.SeedPools(ctx)

	applied := r.applyRecords(ctx, records)

	var lastBlock uint64
	for _, record := range records {
		if record.BlockNumber > lastBlock {
			lastBlock = record.BlockNumber
		}
	}
	if err := r.flush(ctx, lastBlock); err != nil {
		return err
	}

	r.logger.Info("replay complete", zap.Int("records", len(records)), zap.Int("applied", applied))
	return nil
}

// applyRecords decodes and dispatches records in order. Pool events for
// addresses the store has never seen are dropped quietly; they belong to
// pools outside the tracked factory or created before the indexed range.
func (r *Runner) applyRecords(ctx context.Context, records []event.LogRecord) int {
	applied := 0
	for _, record := range records {
		if record.Removed || len(record.Topics) == 0 {
			continue
		}
		if !r.decoder.CanDecode(record.Topics[0]) {
			continue
		}
		if !r.relevant(record) {
			continue
		}

		decoded, err := r.decoder.Decode(record)
		if err != nil {
			r.logger.Warn("decode failed",
				zap.Uint64("block", record.BlockNumber),
				zap.String("tx", record.TxHash),
				zap.Uint64("log_index", record.LogIndex),
				zap.Error(err),
			)
			continue
		}

		if err := r.sequencer.Apply(ctx, decoded); err != nil {
			r.logger.Warn("apply failed",
				zap.Uint64("block", record.BlockNumber),
				zap.String("tx", record.TxHash),
				zap.Error(err),
			)
			continue
		}
		applied++
	}
	return applied
}

// relevant keeps factory events from the tracked factory and pool events
// from pools the store knows about.
func (r *Runner) relevant(record event.LogRecord) bool {
	address := config.Normalize(record.Address)
	if address == config.Normalize(r.cfg.FactoryAddress) {
		return true
	}
	if _, ok := r.memory.Pool(address); ok {
		return true
	}
	return false
}

func (r *Runner) flush(ctx context.Context, block uint64) error {
	snapshot := r.memory.Flush()
	if r.persister == nil || snapshot.Empty() {
		return nil
	}

	err := withRetry(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, func(ctx context.Context) error {
		if err := r.persister.UpsertSnapshot(ctx, snapshot); err != nil {
			r.logger.Warn("snapshot flush failed", zap.Error(err), zap.Uint64("block", block))
			return err
		}
		return r.persister.SaveState(ctx, stateName, block)
	})
	if err != nil {
		return fmt.Errorf("flush snapshot: %w", err)
	}

	r.logger.Debug("snapshot flushed",
		zap.Int("tokens", len(snapshot.Tokens)),
		zap.Int("pools", len(snapshot.Pools)),
		zap.Int("ticks", len(snapshot.Ticks)),
		zap.Uint64("block", block),
	)
	return nil
}

func (r *Runner) filterLogsWithRetry(ctx context.Context, fromBlock, toBlock uint64, topics []common.Hash) ([]types.Log, error) {
	var logs []types.Log
	err := withRetry(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		logs, err = r.chain.FilterLogs(ctx, fromBlock, toBlock, nil, topics)
		if err != nil {
			r.logger.Warn("filter logs failed", zap.Error(err), zap.Uint64("from", fromBlock), zap.Uint64("to", toBlock))
		}
		return err
	})
	return logs, err
}

func (r *Runner) blockTimestampWithRetry(ctx context.Context, blockNumber uint64) (uint64, error) {
	var ts uint64
	err := withRetry(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		ts, err = r.chain.BlockTimestamp(ctx, blockNumber)
		if err != nil {
			r.logger.Warn("block timestamp fetch failed", zap.Error(err), zap.Uint64("block_number", blockNumber))
		}
		return err
	})
	return ts, err
}

func (r *Runner) isDuplicate(log types.Log) bool {
	id := fmt.Sprintf("%d:%s:%d", log.BlockNumber, strings.ToLower(log.TxHash.Hex()), log.Index)
	if _, ok := r.seen[id]; ok {
		return true
	}
	r.seen[id] = struct{}{}
	return false
}
