package pricing

import (
	"github.com/shopspring/decimal"

	"poolLedger/internal/config"
	"poolLedger/internal/entity"
	"poolLedger/internal/store"
)

// ReferencePriceUSD derives the reference asset's USD price from the
// configured stablecoin reference pool. Zero until that pool is
// initialized, which is a valid state during early history.
func ReferencePriceUSD(s store.Store, cfg *config.Config) decimal.Decimal {
	pool, ok := s.Pool(cfg.StablePricePool)
	if !ok {
		return decimal.Zero
	}
	if cfg.IsStablecoin(pool.Token0) {
		return pool.Token0Price
	}
	if cfg.IsStablecoin(pool.Token1) {
		return pool.Token1Price
	}
	return decimal.Zero
}

// PriceOf derives a token's price in the reference asset by scanning the
// pools pairing it with a whitelisted counter-token and taking the price
// from the candidate with the most reference-asset value locked. Counter
// prices are read as already materialized; staleness by one event is
// accepted. Zero is the expected result for illiquid or brand-new tokens.
func PriceOf(token *entity.Token, s store.Store, cfg *config.Config) decimal.Decimal {
	if config.Normalize(token.ID) == cfg.NativeAsset {
		return one
	}
	if cfg.IsStablecoin(token.ID) {
		bundle, ok := s.Bundle()
		if !ok {
			return decimal.Zero
		}
		// A stablecoin is defined to be worth exactly one USD.
		return entity.SafeDiv(one, bundle.NativePriceUSD)
	}

	bestLocked := decimal.Zero
	price := decimal.Zero

	for _, poolID := range token.WhitelistPools {
		pool, ok := s.Pool(poolID)
		if !ok {
			continue
		}
		if pool.Liquidity == nil || pool.Liquidity.Sign() <= 0 {
			continue
		}

		if config.Normalize(pool.Token0) == config.Normalize(token.ID) {
			counter, ok := s.Token(pool.Token1)
			if !ok {
				continue
			}
			locked := pool.TotalValueLockedToken1.Mul(counter.DerivedNative)
			// Strict comparison on both bounds: ties keep the earlier pool.
			if locked.GreaterThan(bestLocked) && locked.GreaterThan(cfg.MinimumNativeLocked) {
				bestLocked = locked
				price = pool.Token1Price.Mul(counter.DerivedNative)
			}
		} else {
			counter, ok := s.Token(pool.Token0)
			if !ok {
				continue
			}
			locked := pool.TotalValueLockedToken0.Mul(counter.DerivedNative)
			if locked.GreaterThan(bestLocked) && locked.GreaterThan(cfg.MinimumNativeLocked) {
				bestLocked = locked
				price = pool.Token0Price.Mul(counter.DerivedNative)
			}
		}
	}

	return price
}
