package postgres

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"poolLedger/internal/entity"
	"poolLedger/internal/store"
)

// Store provides Postgres persistence for the entity graph.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// UpsertSnapshot persists every entity changed since the previous flush.
func (s *Store) UpsertSnapshot(ctx context.Context, snap store.Snapshot) error {
	if snap.Empty() {
		return nil
	}
	if err := s.UpsertTokens(ctx, snap.Tokens); err != nil {
		return fmt.Errorf("upsert tokens: %w", err)
	}
	if err := s.UpsertPools(ctx, snap.Pools); err != nil {
		return fmt.Errorf("upsert pools: %w", err)
	}
	if err := s.UpsertTicks(ctx, snap.Ticks); err != nil {
		return fmt.Errorf("upsert ticks: %w", err)
	}
	if err := s.UpsertBundle(ctx, snap.Bundle); err != nil {
		return fmt.Errorf("upsert bundle: %w", err)
	}
	if err := s.UpsertFactory(ctx, snap.Factory); err != nil {
		return fmt.Errorf("upsert factory: %w", err)
	}
	if err := s.UpsertPoolIntervals(ctx, snap.PoolIntervals); err != nil {
		return fmt.Errorf("upsert pool intervals: %w", err)
	}
	if err := s.UpsertTokenIntervals(ctx, snap.TokenIntervals); err != nil {
		return fmt.Errorf("upsert token intervals: %w", err)
	}
	if err := s.UpsertFactoryIntervals(ctx, snap.FactoryIntervals); err != nil {
		return fmt.Errorf("upsert factory intervals: %w", err)
	}
	return nil
}

// UpsertTokens inserts or updates token rows.
func (s *Store) UpsertTokens(ctx context.Context, tokens []*entity.Token) error {
	if len(tokens) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, token := range tokens {
		batch.Queue(`
			INSERT INTO tokens (
				address, symbol, name, decimals, total_supply, derived_native,
				tvl, tvl_usd, volume, volume_usd, untracked_volume_usd, fees_usd,
				tx_count, whitelist_pools, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,now(),now())
			ON CONFLICT (address)
			DO UPDATE SET
				symbol = EXCLUDED.symbol,
				name = EXCLUDED.name,
				decimals = EXCLUDED.decimals,
				total_supply = EXCLUDED.total_supply,
				derived_native = EXCLUDED.derived_native,
				tvl = EXCLUDED.tvl,
				tvl_usd = EXCLUDED.tvl_usd,
				volume = EXCLUDED.volume,
				volume_usd = EXCLUDED.volume_usd,
				untracked_volume_usd = EXCLUDED.untracked_volume_usd,
				fees_usd = EXCLUDED.fees_usd,
				tx_count = EXCLUDED.tx_count,
				whitelist_pools = EXCLUDED.whitelist_pools,
				updated_at = now()
		`,
			token.ID,
			token.Symbol,
			token.Name,
			int16(token.Decimals),
			bigString(token.TotalSupply),
			token.DerivedNative.String(),
			token.TotalValueLocked.String(),
			token.TotalValueLockedUSD.String(),
			token.Volume.String(),
			token.VolumeUSD.String(),
			token.UntrackedVolumeUSD.String(),
			token.FeesUSD.String(),
			int64(token.TxCount),
			token.WhitelistPools,
		)
	}
	return s.sendBatch(ctx, batch, len(tokens))
}

// UpsertPools inserts or updates pool rows.
func (s *Store) UpsertPools(ctx context.Context, pools []*entity.Pool) error {
	if len(pools) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, pool := range pools {
		batch.Queue(`
			INSERT INTO pools (
				address, token0, token1, fee_tier, created_at_block, created_at_ts,
				liquidity, sqrt_price, tick, token0_price, token1_price,
				tvl_token0, tvl_token1, tvl_native, tvl_usd, tvl_usd_untracked,
				volume_token0, volume_token1, volume_usd, untracked_volume_usd, fees_usd,
				collected_fees_token0, collected_fees_token1, collected_fees_usd,
				tx_count, fee_growth_global0, fee_growth_global1, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26,$27,now(),now())
			ON CONFLICT (address)
			DO UPDATE SET
				liquidity = EXCLUDED.liquidity,
				sqrt_price = EXCLUDED.sqrt_price,
				tick = EXCLUDED.tick,
				token0_price = EXCLUDED.token0_price,
				token1_price = EXCLUDED.token1_price,
				tvl_token0 = EXCLUDED.tvl_token0,
				tvl_token1 = EXCLUDED.tvl_token1,
				tvl_native = EXCLUDED.tvl_native,
				tvl_usd = EXCLUDED.tvl_usd,
				tvl_usd_untracked = EXCLUDED.tvl_usd_untracked,
				volume_token0 = EXCLUDED.volume_token0,
				volume_token1 = EXCLUDED.volume_token1,
				volume_usd = EXCLUDED.volume_usd,
				untracked_volume_usd = EXCLUDED.untracked_volume_usd,
				fees_usd = EXCLUDED.fees_usd,
				collected_fees_token0 = EXCLUDED.collected_fees_token0,
				collected_fees_token1 = EXCLUDED.collected_fees_token1,
				collected_fees_usd = EXCLUDED.collected_fees_usd,
				tx_count = EXCLUDED.tx_count,
				fee_growth_global0 = EXCLUDED.fee_growth_global0,
				fee_growth_global1 = EXCLUDED.fee_growth_global1,
				updated_at = now()
		`,
			pool.ID,
			pool.Token0,
			pool.Token1,
			int64(pool.FeeTier),
			int64(pool.CreatedAtBlock),
			int64(pool.CreatedAtTimestamp),
			bigString(pool.Liquidity),
			bigString(pool.SqrtPrice),
			nullableTick(pool.Tick),
			pool.Token0Price.String(),
			pool.Token1Price.String(),
			pool.TotalValueLockedToken0.String(),
			pool.TotalValueLockedToken1.String(),
			pool.TotalValueLockedNative.String(),
			pool.TotalValueLockedUSD.String(),
			pool.TotalValueLockedUSDUntracked.String(),
			pool.VolumeToken0.String(),
			pool.VolumeToken1.String(),
			pool.VolumeUSD.String(),
			pool.UntrackedVolumeUSD.String(),
			pool.FeesUSD.String(),
			pool.CollectedFeesToken0.String(),
			pool.CollectedFeesToken1.String(),
			pool.CollectedFeesUSD.String(),
			int64(pool.TxCount),
			bigString(pool.FeeGrowthGlobal0X128),
			bigString(pool.FeeGrowthGlobal1X128),
		)
	}
	return s.sendBatch(ctx, batch, len(pools))
}

// UpsertTicks inserts or updates tick rows.
func (s *Store) UpsertTicks(ctx context.Context, ticks []*entity.Tick) error {
	if len(ticks) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, tick := range ticks {
		batch.Queue(`
			INSERT INTO ticks (
				id, pool_address, tick_index, created_at_block, created_at_ts,
				price0, price1, liquidity_gross, liquidity_net,
				fee_growth_outside0, fee_growth_outside1, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,now(),now())
			ON CONFLICT (id)
			DO UPDATE SET
				liquidity_gross = EXCLUDED.liquidity_gross,
				liquidity_net = EXCLUDED.liquidity_net,
				fee_growth_outside0 = EXCLUDED.fee_growth_outside0,
				fee_growth_outside1 = EXCLUDED.fee_growth_outside1,
				updated_at = now()
		`,
			tick.ID,
			tick.PoolID,
			tick.Index,
			int64(tick.CreatedAtBlock),
			int64(tick.CreatedAtTimestamp),
			tick.Price0.String(),
			tick.Price1.String(),
			bigString(tick.LiquidityGross),
			bigString(tick.LiquidityNet),
			bigString(tick.FeeGrowthOutside0X128),
			bigString(tick.FeeGrowthOutside1X128),
		)
	}
	return s.sendBatch(ctx, batch, len(ticks))
}

// UpsertBundle stores the reference-asset USD price.
func (s *Store) UpsertBundle(ctx context.Context, bundle *entity.Bundle) error {
	if bundle == nil {
		return nil
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO bundles (id, native_price_usd, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (id) DO UPDATE
		SET native_price_usd = EXCLUDED.native_price_usd, updated_at = now()
	`, bundle.ID, bundle.NativePriceUSD.String())
	return err
}

// UpsertFactory stores the global roll-up.
func (s *Store) UpsertFactory(ctx context.Context, factory *entity.Factory) error {
	if factory == nil {
		return nil
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO factories (
			id, pool_count, tx_count, total_volume_usd, untracked_volume_usd,
			total_fees_usd, tvl_native, tvl_usd, tvl_usd_untracked, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,now())
		ON CONFLICT (id) DO UPDATE SET
			pool_count = EXCLUDED.pool_count,
			tx_count = EXCLUDED.tx_count,
			total_volume_usd = EXCLUDED.total_volume_usd,
			untracked_volume_usd = EXCLUDED.untracked_volume_usd,
			total_fees_usd = EXCLUDED.total_fees_usd,
			tvl_native = EXCLUDED.tvl_native,
			tvl_usd = EXCLUDED.tvl_usd,
			tvl_usd_untracked = EXCLUDED.tvl_usd_untracked,
			updated_at = now()
	`,
		factory.ID,
		int64(factory.PoolCount),
		int64(factory.TxCount),
		factory.TotalVolumeUSD.String(),
		factory.UntrackedVolumeUSD.String(),
		factory.TotalFeesUSD.String(),
		factory.TotalValueLockedNative.String(),
		factory.TotalValueLockedUSD.String(),
		factory.TotalValueLockedUSDUntracked.String(),
	)
	return err
}

// UpsertPoolIntervals inserts or updates pool bucket rows.
func (s *Store) UpsertPoolIntervals(ctx context.Context, intervals []*entity.PoolInterval) error {
	if len(intervals) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, interval := range intervals {
		batch.Queue(`
			INSERT INTO pool_intervals (
				id, pool_address, period_seconds, period_start,
				liquidity, sqrt_price, tick, token0_price, token1_price, tvl_usd,
				volume_token0, volume_token1, volume_usd, fees_usd, tx_count,
				open, high, low, close, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,now(),now())
			ON CONFLICT (id)
			DO UPDATE SET
				liquidity = EXCLUDED.liquidity,
				sqrt_price = EXCLUDED.sqrt_price,
				tick = EXCLUDED.tick,
				token0_price = EXCLUDED.token0_price,
				token1_price = EXCLUDED.token1_price,
				tvl_usd = EXCLUDED.tvl_usd,
				volume_token0 = EXCLUDED.volume_token0,
				volume_token1 = EXCLUDED.volume_token1,
				volume_usd = EXCLUDED.volume_usd,
				fees_usd = EXCLUDED.fees_usd,
				tx_count = EXCLUDED.tx_count,
				high = EXCLUDED.high,
				low = EXCLUDED.low,
				close = EXCLUDED.close,
				updated_at = now()
		`,
			interval.ID,
			interval.PoolID,
			int64(interval.PeriodSeconds),
			int64(interval.PeriodStart),
			bigString(interval.Liquidity),
			bigString(interval.SqrtPrice),
			nullableTick(interval.Tick),
			interval.Token0Price.String(),
			interval.Token1Price.String(),
			interval.TotalValueLockedUSD.String(),
			interval.VolumeToken0.String(),
			interval.VolumeToken1.String(),
			interval.VolumeUSD.String(),
			interval.FeesUSD.String(),
			int64(interval.TxCount),
			interval.Open.String(),
			interval.High.String(),
			interval.Low.String(),
			interval.Close.String(),
		)
	}
	return s.sendBatch(ctx, batch, len(intervals))
}

// UpsertTokenIntervals inserts or updates token bucket rows.
func (s *Store) UpsertTokenIntervals(ctx context.Context, intervals []*entity.TokenInterval) error {
	if len(intervals) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, interval := range intervals {
		batch.Queue(`
			INSERT INTO token_intervals (
				id, token_address, period_seconds, period_start,
				volume, volume_usd, untracked_volume_usd, fees_usd,
				tvl, tvl_usd, price_usd, open, high, low, close, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,now(),now())
			ON CONFLICT (id)
			DO UPDATE SET
				volume = EXCLUDED.volume,
				volume_usd = EXCLUDED.volume_usd,
				untracked_volume_usd = EXCLUDED.untracked_volume_usd,
				fees_usd = EXCLUDED.fees_usd,
				tvl = EXCLUDED.tvl,
				tvl_usd = EXCLUDED.tvl_usd,
				price_usd = EXCLUDED.price_usd,
				high = EXCLUDED.high,
				low = EXCLUDED.low,
				close = EXCLUDED.close,
				updated_at = now()
		`,
			interval.ID,
			interval.TokenID,
			int64(interval.PeriodSeconds),
			int64(interval.PeriodStart),
			interval.Volume.String(),
			interval.VolumeUSD.String(),
			interval.UntrackedVolumeUSD.String(),
			interval.FeesUSD.String(),
			interval.TotalValueLocked.String(),
			interval.TotalValueLockedUSD.String(),
			interval.PriceUSD.String(),
			interval.Open.String(),
			interval.High.String(),
			interval.Low.String(),
			interval.Close.String(),
		)
	}
	return s.sendBatch(ctx, batch, len(intervals))
}

// UpsertFactoryIntervals inserts or updates global bucket rows.
func (s *Store) UpsertFactoryIntervals(ctx context.Context, intervals []*entity.FactoryInterval) error {
	if len(intervals) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, interval := range intervals {
		batch.Queue(`
			INSERT INTO factory_intervals (
				id, period_seconds, period_start, volume_usd, fees_usd, tvl_usd, tx_count, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,now(),now())
			ON CONFLICT (id)
			DO UPDATE SET
				volume_usd = EXCLUDED.volume_usd,
				fees_usd = EXCLUDED.fees_usd,
				tvl_usd = EXCLUDED.tvl_usd,
				tx_count = EXCLUDED.tx_count,
				updated_at = now()
		`,
			interval.ID,
			int64(interval.PeriodSeconds),
			int64(interval.PeriodStart),
			interval.VolumeUSD.String(),
			interval.FeesUSD.String(),
			interval.TotalValueLockedUSD.String(),
			int64(interval.TxCount),
		)
	}
	return s.sendBatch(ctx, batch, len(intervals))
}

// LoadState returns the last processed block for a name.
func (s *Store) LoadState(ctx context.Context, name string) (uint64, bool, error) {
	if name == "" {
		return 0, false, fmt.Errorf("state name required")
	}
	var block uint64
	row := s.pool.QueryRow(ctx, `SELECT last_processed_block FROM ledger_state WHERE name=$1`, name)
	if err := row.Scan(&block); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return block, true, nil
}

// SaveState upserts the last processed block for a name.
func (s *Store) SaveState(ctx context.Context, name string, block uint64) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO ledger_state (name, last_processed_block, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET last_processed_block = EXCLUDED.last_processed_block, updated_at = now()
	`, name, block)
	return err
}

func (s *Store) sendBatch(ctx context.Context, batch *pgx.Batch, queued int) error {
	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < queued; i++ {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

func bigString(value *big.Int) string {
	if value == nil {
		return "0"
	}
	return value.String()
}

func nullableTick(tick *int32) interface{} {
	if tick == nil {
		return nil
	}
	return *tick
}
