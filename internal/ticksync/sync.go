package ticksync

import (
	"context"
	"math/big"

	"go.uber.org/zap"

	"poolLedger/internal/entity"
	"poolLedger/internal/store"
)

// maxCrossedTicks caps per-swap tick refresh work. A swap crossing more
// aligned ticks than this skips the refresh entirely; catch-up happens on
// a later event. Unbounded per-event work has no external timeout to rely
// on, so the bound lives here.
const maxCrossedTicks = 100

// FeeVarsReader reads a tick's fee-growth-outside pair from the pool
// contract's tick table.
type FeeVarsReader interface {
	TickFeeVars(ctx context.Context, pool string, index int32) (*big.Int, *big.Int, error)
}

// SpacingForFeeTier maps a fee tier (parts per million) to its tick
// spacing.
func SpacingForFeeTier(feeTier uint32) int32 {
	switch feeTier {
	case 100:
		return 1
	case 500:
		return 10
	case 3000:
		return 60
	case 10000:
		return 200
	default:
		return int32(feeTier / 50)
	}
}

// ApplyBoundary records a signed liquidity change against its two boundary
// ticks, and against the pool's active liquidity when the current tick lies
// in [lower, upper). Boundary interest always changes; active liquidity
// only inside the range.
func ApplyBoundary(pool *entity.Pool, lower, upper *entity.Tick, liquidityDelta *big.Int) {
	lower.LiquidityGross.Add(lower.LiquidityGross, liquidityDelta)
	lower.LiquidityNet.Add(lower.LiquidityNet, liquidityDelta)
	upper.LiquidityGross.Add(upper.LiquidityGross, liquidityDelta)
	upper.LiquidityNet.Sub(upper.LiquidityNet, liquidityDelta)

	if pool.Tick != nil && lower.Index <= *pool.Tick && *pool.Tick < upper.Index {
		pool.Liquidity.Add(pool.Liquidity, liquidityDelta)
	}
}

// RefreshFeeVars re-reads a tick's fee-growth-outside snapshot from chain.
// The prior snapshot stays in place on a read failure.
func RefreshFeeVars(ctx context.Context, reader FeeVarsReader, tick *entity.Tick) error {
	outside0, outside1, err := reader.TickFeeVars(ctx, tick.PoolID, tick.Index)
	if err != nil {
		return err
	}
	tick.FeeGrowthOutside0X128 = outside0
	tick.FeeGrowthOutside1X128 = outside1
	return nil
}

// SyncCrossedTicks refreshes fee-growth snapshots for every materialized
// tick at an aligned index strictly between oldTick and newTick, including
// the new tick's own boundary when aligned. When the move spans more than
// maxCrossedTicks aligned indexes the refresh is skipped for this swap.
func SyncCrossedTicks(ctx context.Context, s store.Store, reader FeeVarsReader, pool *entity.Pool, oldTick, newTick int32, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if oldTick == newTick {
		return
	}

	spacing := SpacingForFeeTier(pool.FeeTier)
	if spacing <= 0 {
		return
	}

	span := oldTick - newTick
	if span < 0 {
		span = -span
	}
	if span/spacing > maxCrossedTicks {
		logger.Debug("tick sync skipped",
			zap.String("pool", pool.ID),
			zap.Int32("old_tick", oldTick),
			zap.Int32("new_tick", newTick),
			zap.Int32("spacing", spacing),
		)
		return
	}

	if newTick > oldTick {
		first := oldTick + spacing - floorMod(oldTick, spacing)
		for i := first; i <= newTick; i += spacing {
			refreshMaterialized(ctx, s, reader, pool.ID, i, logger)
		}
		return
	}

	first := oldTick - floorMod(oldTick, spacing)
	if first == oldTick {
		first -= spacing
	}
	for i := first; i >= newTick; i -= spacing {
		refreshMaterialized(ctx, s, reader, pool.ID, i, logger)
	}
}

func refreshMaterialized(ctx context.Context, s store.Store, reader FeeVarsReader, poolID string, index int32, logger *zap.Logger) {
	tick, ok := s.Tick(entity.TickID(poolID, index))
	if !ok {
		return
	}
	if err := RefreshFeeVars(ctx, reader, tick); err != nil {
		logger.Debug("tick fee vars read failed",
			zap.String("pool", poolID),
			zap.Int32("tick", index),
			zap.Error(err),
		)
		return
	}
	s.SaveTick(tick)
}

// floorMod returns the non-negative remainder of a by b.
func floorMod(a, b int32) int32 {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}
