package sequencer

import (
	"context"
	"math/big"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"poolLedger/internal/config"
	"poolLedger/internal/entity"
	"poolLedger/internal/event"
	"poolLedger/internal/ledger"
	"poolLedger/internal/pricing"
	"poolLedger/internal/ticksync"
)

var (
	two     = decimal.New(2, 0)
	million = decimal.New(1, 6)
)

// HandlePoolCreated materializes the pool and its tokens. The pool record
// is written even when a token's decimals cannot be read; the token stays
// deferred and is retried on the next event touching it.
func (q *Sequencer) HandlePoolCreated(ctx context.Context, ev *event.PoolCreated) {
	poolID := config.Normalize(ev.Pool)
	if q.cfg.SkipPool(poolID) {
		q.logger.Info("pool creation skipped", zap.String("pool", poolID))
		return
	}
	if _, ok := q.store.Pool(poolID); ok {
		return
	}

	pool := entity.NewPool(poolID, config.Normalize(ev.Token0), config.Normalize(ev.Token1), ev.FeeTier, ev.BlockNumber, ev.Timestamp)
	q.store.SavePool(pool)

	factory := q.factory()
	factory.PoolCount++
	q.store.SaveFactory(factory)

	token0, ok0 := q.ensureToken(ctx, pool.Token0)
	token1, ok1 := q.ensureToken(ctx, pool.Token1)
	if !ok0 || !ok1 {
		return
	}
	q.linkWhitelist(pool, token0, token1)
	q.store.SaveToken(token0)
	q.store.SaveToken(token1)
}

// HandleInitialize sets the pool's first price and tick, then refreshes
// the reference-asset price and both tokens' derived prices.
func (q *Sequencer) HandleInitialize(ctx context.Context, ev *event.Initialize) {
	pool, ok := q.store.Pool(ev.PoolAddress)
	if !ok {
		q.logger.Warn("initialize for unknown pool", zap.String("pool", ev.PoolAddress))
		return
	}
	token0, token1, ok := q.poolTokens(ctx, pool)
	if !ok {
		return
	}

	tick := ev.Tick
	pool.SqrtPrice = ev.SqrtPriceX96
	pool.Tick = &tick
	pool.Token0Price, pool.Token1Price = pricing.SqrtPriceX96ToTokenPrices(pool.SqrtPrice, token0.Decimals, token1.Decimals)
	q.store.SavePool(pool)

	bundle := q.bundle()
	bundle.NativePriceUSD = pricing.ReferencePriceUSD(q.store, q.cfg)
	q.store.SaveBundle(bundle)

	token0.DerivedNative = pricing.PriceOf(token0, q.store, q.cfg)
	token1.DerivedNative = pricing.PriceOf(token1, q.store, q.cfg)
	q.store.SaveToken(token0)
	q.store.SaveToken(token1)

	// Open the interval buckets so the first bucket's open price is the
	// initialization price, not the first later event's.
	q.updatePoolIntervals(pool, ev.Timestamp, decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero)
	q.updateTokenIntervals(token0, bundle, ev.Timestamp, decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero)
	q.updateTokenIntervals(token1, bundle, ev.Timestamp, decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero)
}

// HandleMint adds position liquidity between two boundaries and books the
// deposited amounts into the ledger.
func (q *Sequencer) HandleMint(ctx context.Context, ev *event.Mint) {
	pool, ok := q.store.Pool(ev.PoolAddress)
	if !ok {
		q.logger.Warn("mint for unknown pool", zap.String("pool", ev.PoolAddress))
		return
	}
	token0, token1, ok := q.poolTokens(ctx, pool)
	if !ok {
		return
	}
	factory := q.factory()
	bundle := q.bundle()

	amount0 := entity.ConvertTokenAmount(ev.Amount0, token0.Decimals)
	amount1 := entity.ConvertTokenAmount(ev.Amount1, token1.Decimals)
	ledger.ApplyAmountDelta(factory, pool, token0, token1, bundle, amount0, amount1)

	lower := q.loadOrCreateTick(pool, ev.TickLower, ev.BlockNumber, ev.Timestamp)
	upper := q.loadOrCreateTick(pool, ev.TickUpper, ev.BlockNumber, ev.Timestamp)
	ticksync.ApplyBoundary(pool, lower, upper, ev.Amount)
	q.refreshBoundaryFeeVars(ctx, lower, upper)
	q.store.SaveTick(lower)
	q.store.SaveTick(upper)

	pool.TxCount++
	token0.TxCount++
	token1.TxCount++
	factory.TxCount++

	q.store.SavePool(pool)
	q.store.SaveToken(token0)
	q.store.SaveToken(token1)
	q.store.SaveFactory(factory)

	q.updatePoolIntervals(pool, ev.Timestamp, decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero)
	q.updateTokenIntervals(token0, bundle, ev.Timestamp, decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero)
	q.updateTokenIntervals(token1, bundle, ev.Timestamp, decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero)
	q.updateFactoryInterval(factory, ev.Timestamp, decimal.Zero, decimal.Zero)
}

// HandleBurn removes position liquidity between two boundaries. The
// withdrawn amounts stay in locked value until the paired Collect.
func (q *Sequencer) HandleBurn(ctx context.Context, ev *event.Burn) {
	pool, ok := q.store.Pool(ev.PoolAddress)
	if !ok {
		q.logger.Warn("burn for unknown pool", zap.String("pool", ev.PoolAddress))
		return
	}
	token0, token1, ok := q.poolTokens(ctx, pool)
	if !ok {
		return
	}
	factory := q.factory()
	bundle := q.bundle()

	lower := q.loadOrCreateTick(pool, ev.TickLower, ev.BlockNumber, ev.Timestamp)
	upper := q.loadOrCreateTick(pool, ev.TickUpper, ev.BlockNumber, ev.Timestamp)
	delta := new(big.Int).Neg(ev.Amount)
	ticksync.ApplyBoundary(pool, lower, upper, delta)
	q.refreshBoundaryFeeVars(ctx, lower, upper)
	q.store.SaveTick(lower)
	q.store.SaveTick(upper)

	pool.TxCount++
	token0.TxCount++
	token1.TxCount++
	factory.TxCount++

	q.store.SavePool(pool)
	q.store.SaveToken(token0)
	q.store.SaveToken(token1)
	q.store.SaveFactory(factory)

	q.updatePoolIntervals(pool, ev.Timestamp, decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero)
	q.updateTokenIntervals(token0, bundle, ev.Timestamp, decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero)
	q.updateTokenIntervals(token1, bundle, ev.Timestamp, decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero)
	q.updateFactoryInterval(factory, ev.Timestamp, decimal.Zero, decimal.Zero)
}

// HandleSwap books volume and fees, moves the pool's price state, refreshes
// derived prices and locked value, and synchronizes crossed ticks.
func (q *Sequencer) HandleSwap(ctx context.Context, ev *event.Swap) {
	if q.cfg.SkipSwaps(ev.PoolAddress) {
		return
	}
	pool, ok := q.store.Pool(ev.PoolAddress)
	if !ok {
		q.logger.Warn("swap for unknown pool", zap.String("pool", ev.PoolAddress))
		return
	}
	token0, token1, ok := q.poolTokens(ctx, pool)
	if !ok {
		return
	}
	factory := q.factory()
	bundle := q.bundle()

	amount0 := entity.ConvertTokenAmount(ev.Amount0, token0.Decimals)
	amount1 := entity.ConvertTokenAmount(ev.Amount1, token1.Decimals)
	amount0Abs := amount0.Abs()
	amount1Abs := amount1.Abs()

	// Tracked and untracked valuations use the derived prices from before
	// this swap moved the pool.
	price0USD := token0.DerivedNative.Mul(bundle.NativePriceUSD)
	price1USD := token1.DerivedNative.Mul(bundle.NativePriceUSD)
	trackedUSD := ledger.TrackedAmountUSD(amount0Abs, token0, amount1Abs, token1, bundle, q.cfg).Div(two)
	untrackedUSD := amount0Abs.Mul(price0USD).Add(amount1Abs.Mul(price1USD)).Div(two)
	feesUSD := trackedUSD.Mul(decimal.NewFromInt(int64(pool.FeeTier))).Div(million)

	pool.VolumeToken0 = pool.VolumeToken0.Add(amount0Abs)
	pool.VolumeToken1 = pool.VolumeToken1.Add(amount1Abs)
	pool.VolumeUSD = pool.VolumeUSD.Add(trackedUSD)
	pool.UntrackedVolumeUSD = pool.UntrackedVolumeUSD.Add(untrackedUSD)
	pool.FeesUSD = pool.FeesUSD.Add(feesUSD)

	token0.Volume = token0.Volume.Add(amount0Abs)
	token0.VolumeUSD = token0.VolumeUSD.Add(trackedUSD)
	token0.UntrackedVolumeUSD = token0.UntrackedVolumeUSD.Add(untrackedUSD)
	token0.FeesUSD = token0.FeesUSD.Add(feesUSD)
	token1.Volume = token1.Volume.Add(amount1Abs)
	token1.VolumeUSD = token1.VolumeUSD.Add(trackedUSD)
	token1.UntrackedVolumeUSD = token1.UntrackedVolumeUSD.Add(untrackedUSD)
	token1.FeesUSD = token1.FeesUSD.Add(feesUSD)

	factory.TotalVolumeUSD = factory.TotalVolumeUSD.Add(trackedUSD)
	factory.UntrackedVolumeUSD = factory.UntrackedVolumeUSD.Add(untrackedUSD)
	factory.TotalFeesUSD = factory.TotalFeesUSD.Add(feesUSD)

	pool.TxCount++
	token0.TxCount++
	token1.TxCount++
	factory.TxCount++

	var oldTick *int32
	if pool.Tick != nil {
		prev := *pool.Tick
		oldTick = &prev
	}
	newTick := ev.Tick
	pool.Liquidity = ev.Liquidity
	pool.SqrtPrice = ev.SqrtPriceX96
	pool.Tick = &newTick
	pool.Token0Price, pool.Token1Price = pricing.SqrtPriceX96ToTokenPrices(pool.SqrtPrice, token0.Decimals, token1.Decimals)
	q.store.SavePool(pool)

	bundle.NativePriceUSD = pricing.ReferencePriceUSD(q.store, q.cfg)
	q.store.SaveBundle(bundle)

	token0.DerivedNative = pricing.PriceOf(token0, q.store, q.cfg)
	token1.DerivedNative = pricing.PriceOf(token1, q.store, q.cfg)

	ledger.ApplyAmountDelta(factory, pool, token0, token1, bundle, amount0, amount1)

	if growth0, growth1, err := q.state.FeeGrowthGlobals(ctx, pool.ID); err != nil {
		q.logger.Debug("fee growth read failed",
			zap.String("pool", pool.ID),
			zap.Error(err),
		)
	} else {
		pool.FeeGrowthGlobal0X128 = growth0
		pool.FeeGrowthGlobal1X128 = growth1
	}

	q.store.SavePool(pool)
	q.store.SaveToken(token0)
	q.store.SaveToken(token1)
	q.store.SaveFactory(factory)

	if oldTick != nil {
		ticksync.SyncCrossedTicks(ctx, q.store, q.state, pool, *oldTick, newTick, q.logger)
	}

	q.updatePoolIntervals(pool, ev.Timestamp, amount0Abs, amount1Abs, trackedUSD, feesUSD)
	q.updateTokenIntervals(token0, bundle, ev.Timestamp, amount0Abs, trackedUSD, untrackedUSD, feesUSD)
	q.updateTokenIntervals(token1, bundle, ev.Timestamp, amount1Abs, trackedUSD, untrackedUSD, feesUSD)
	q.updateFactoryInterval(factory, ev.Timestamp, trackedUSD, feesUSD)
}

// HandleCollect withdraws owed amounts from a position, reducing locked
// value and booking the collected-fee counters.
func (q *Sequencer) HandleCollect(ctx context.Context, ev *event.Collect) {
	pool, ok := q.store.Pool(ev.PoolAddress)
	if !ok {
		q.logger.Warn("collect for unknown pool", zap.String("pool", ev.PoolAddress))
		return
	}
	token0, token1, ok := q.poolTokens(ctx, pool)
	if !ok {
		return
	}
	factory := q.factory()
	bundle := q.bundle()

	amount0 := entity.ConvertTokenAmount(ev.Amount0, token0.Decimals)
	amount1 := entity.ConvertTokenAmount(ev.Amount1, token1.Decimals)
	collectedUSD := ledger.TrackedAmountUSD(amount0, token0, amount1, token1, bundle, q.cfg)

	pool.CollectedFeesToken0 = pool.CollectedFeesToken0.Add(amount0)
	pool.CollectedFeesToken1 = pool.CollectedFeesToken1.Add(amount1)
	pool.CollectedFeesUSD = pool.CollectedFeesUSD.Add(collectedUSD)

	ledger.ApplyAmountDelta(factory, pool, token0, token1, bundle, amount0.Neg(), amount1.Neg())

	pool.TxCount++
	token0.TxCount++
	token1.TxCount++
	factory.TxCount++

	q.store.SavePool(pool)
	q.store.SaveToken(token0)
	q.store.SaveToken(token1)
	q.store.SaveFactory(factory)

	q.updatePoolIntervals(pool, ev.Timestamp, decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero)
	q.updateTokenIntervals(token0, bundle, ev.Timestamp, decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero)
	q.updateTokenIntervals(token1, bundle, ev.Timestamp, decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero)
	q.updateFactoryInterval(factory, ev.Timestamp, decimal.Zero, decimal.Zero)
}

// HandleFlash only moves the pool's global fee-growth accumulators.
func (q *Sequencer) HandleFlash(ctx context.Context, ev *event.Flash) {
	pool, ok := q.store.Pool(ev.PoolAddress)
	if !ok {
		q.logger.Warn("flash for unknown pool", zap.String("pool", ev.PoolAddress))
		return
	}

	growth0, growth1, err := q.state.FeeGrowthGlobals(ctx, pool.ID)
	if err != nil {
		q.logger.Debug("fee growth read failed",
			zap.String("pool", pool.ID),
			zap.Error(err),
		)
		return
	}
	pool.FeeGrowthGlobal0X128 = growth0
	pool.FeeGrowthGlobal1X128 = growth1
	q.store.SavePool(pool)
}

// refreshBoundaryFeeVars re-reads fee-growth-outside for both boundary
// ticks of a position change. Read failures keep the prior snapshot.
func (q *Sequencer) refreshBoundaryFeeVars(ctx context.Context, lower, upper *entity.Tick) {
	for _, tick := range []*entity.Tick{lower, upper} {
		if err := ticksync.RefreshFeeVars(ctx, q.state, tick); err != nil {
			q.logger.Debug("tick fee vars read failed",
				zap.String("tick", tick.ID),
				zap.Error(err),
			)
		}
	}
}
