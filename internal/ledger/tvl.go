package ledger

import (
	"github.com/shopspring/decimal"

	"poolLedger/internal/config"
	"poolLedger/internal/entity"
)

var two = decimal.New(2, 0)

// ApplyAmountDelta applies signed locked-amount changes (deposit positive,
// withdraw negative) to token and pool TVL and rolls the factory aggregate
// forward by subtract-old/add-new, so one event touches O(1) pools. Called
// with zero deltas it re-values the pool after a price refresh.
func ApplyAmountDelta(factory *entity.Factory, pool *entity.Pool, token0, token1 *entity.Token, bundle *entity.Bundle, amount0, amount1 decimal.Decimal) {
	oldPoolNative := pool.TotalValueLockedNative
	oldPoolUntracked := pool.TotalValueLockedUSDUntracked

	token0.TotalValueLocked = token0.TotalValueLocked.Add(amount0)
	token0.TotalValueLockedUSD = token0.TotalValueLocked.Mul(token0.DerivedNative).Mul(bundle.NativePriceUSD)
	token1.TotalValueLocked = token1.TotalValueLocked.Add(amount1)
	token1.TotalValueLockedUSD = token1.TotalValueLocked.Mul(token1.DerivedNative).Mul(bundle.NativePriceUSD)

	pool.TotalValueLockedToken0 = pool.TotalValueLockedToken0.Add(amount0)
	pool.TotalValueLockedToken1 = pool.TotalValueLockedToken1.Add(amount1)
	pool.TotalValueLockedNative = pool.TotalValueLockedToken0.Mul(token0.DerivedNative).
		Add(pool.TotalValueLockedToken1.Mul(token1.DerivedNative))
	pool.TotalValueLockedUSD = pool.TotalValueLockedNative.Mul(bundle.NativePriceUSD)

	// The untracked series skips the pricing gates: a leg whose token has
	// no derived price is still valued through the pool's own exchange
	// rate against the priced side.
	price0USD := token0.DerivedNative.Mul(bundle.NativePriceUSD)
	price1USD := token1.DerivedNative.Mul(bundle.NativePriceUSD)
	nominal0 := price0USD
	if nominal0.IsZero() {
		nominal0 = pool.Token1Price.Mul(price1USD)
	}
	nominal1 := price1USD
	if nominal1.IsZero() {
		nominal1 = pool.Token0Price.Mul(price0USD)
	}
	pool.TotalValueLockedUSDUntracked = pool.TotalValueLockedToken0.Mul(nominal0).
		Add(pool.TotalValueLockedToken1.Mul(nominal1))

	factory.TotalValueLockedNative = factory.TotalValueLockedNative.
		Add(pool.TotalValueLockedNative.Sub(oldPoolNative))
	factory.TotalValueLockedUSD = factory.TotalValueLockedNative.Mul(bundle.NativePriceUSD)
	factory.TotalValueLockedUSDUntracked = factory.TotalValueLockedUSDUntracked.
		Add(pool.TotalValueLockedUSDUntracked.Sub(oldPoolUntracked))
}

// TrackedAmountUSD classifies an amount pair for volume tracking: both
// tokens whitelisted, both legs count; one whitelisted, that leg counts
// doubled; neither, zero. Callers combining both sides of a swap halve the
// result to avoid double counting.
func TrackedAmountUSD(amount0 decimal.Decimal, token0 *entity.Token, amount1 decimal.Decimal, token1 *entity.Token, bundle *entity.Bundle, cfg *config.Config) decimal.Decimal {
	price0USD := token0.DerivedNative.Mul(bundle.NativePriceUSD)
	price1USD := token1.DerivedNative.Mul(bundle.NativePriceUSD)

	whitelisted0 := cfg.IsWhitelisted(token0.ID)
	whitelisted1 := cfg.IsWhitelisted(token1.ID)

	switch {
	case whitelisted0 && whitelisted1:
		return amount0.Mul(price0USD).Add(amount1.Mul(price1USD))
	case whitelisted0:
		return amount0.Mul(price0USD).Mul(two)
	case whitelisted1:
		return amount1.Mul(price1USD).Mul(two)
	default:
		return decimal.Zero
	}
}
