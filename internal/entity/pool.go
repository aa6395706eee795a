package entity

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// Pool is a concentrated-liquidity pool. Token order is fixed at creation.
type Pool struct {
	ID                 string `json:"id"`
	Token0             string `json:"token0"`
	Token1             string `json:"token1"`
	FeeTier            uint32 `json:"fee_tier"`
	CreatedAtBlock     uint64 `json:"created_at_block"`
	CreatedAtTimestamp uint64 `json:"created_at_timestamp"`

	// Liquidity is the active liquidity at the current tick only.
	Liquidity *big.Int
	SqrtPrice *big.Int

	// Tick is nil until the pool's Initialize event arrives.
	Tick *int32

	Token0Price decimal.Decimal
	Token1Price decimal.Decimal

	TotalValueLockedToken0       decimal.Decimal
	TotalValueLockedToken1       decimal.Decimal
	TotalValueLockedNative       decimal.Decimal
	TotalValueLockedUSD          decimal.Decimal
	TotalValueLockedUSDUntracked decimal.Decimal

	VolumeToken0       decimal.Decimal
	VolumeToken1       decimal.Decimal
	VolumeUSD          decimal.Decimal
	UntrackedVolumeUSD decimal.Decimal
	FeesUSD            decimal.Decimal

	CollectedFeesToken0 decimal.Decimal
	CollectedFeesToken1 decimal.Decimal
	CollectedFeesUSD    decimal.Decimal

	TxCount uint64

	FeeGrowthGlobal0X128 *big.Int
	FeeGrowthGlobal1X128 *big.Int
}

func NewPool(id, token0, token1 string, feeTier uint32, block, timestamp uint64) *Pool {
	return &Pool{
		ID:                           id,
		Token0:                       token0,
		Token1:                       token1,
		FeeTier:                      feeTier,
		CreatedAtBlock:               block,
		CreatedAtTimestamp:           timestamp,
		Liquidity:                    big.NewInt(0),
		SqrtPrice:                    big.NewInt(0),
		Token0Price:                  decimal.Zero,
		Token1Price:                  decimal.Zero,
		TotalValueLockedToken0:       decimal.Zero,
		TotalValueLockedToken1:       decimal.Zero,
		TotalValueLockedNative:       decimal.Zero,
		TotalValueLockedUSD:          decimal.Zero,
		TotalValueLockedUSDUntracked: decimal.Zero,
		VolumeToken0:                 decimal.Zero,
		VolumeToken1:                 decimal.Zero,
		VolumeUSD:                    decimal.Zero,
		UntrackedVolumeUSD:           decimal.Zero,
		FeesUSD:                      decimal.Zero,
		CollectedFeesToken0:          decimal.Zero,
		CollectedFeesToken1:          decimal.Zero,
		CollectedFeesUSD:             decimal.Zero,
		FeeGrowthGlobal0X128:         big.NewInt(0),
		FeeGrowthGlobal1X128:         big.NewInt(0),
	}
}

// Clone returns a deep copy safe to mutate independently.
func (p *Pool) Clone() *Pool {
	if p == nil {
		return nil
	}
	clone := *p
	if p.Liquidity != nil {
		clone.Liquidity = new(big.Int).Set(p.Liquidity)
	}
	if p.SqrtPrice != nil {
		clone.SqrtPrice = new(big.Int).Set(p.SqrtPrice)
	}
	if p.Tick != nil {
		tick := *p.Tick
		clone.Tick = &tick
	}
	if p.FeeGrowthGlobal0X128 != nil {
		clone.FeeGrowthGlobal0X128 = new(big.Int).Set(p.FeeGrowthGlobal0X128)
	}
	if p.FeeGrowthGlobal1X128 != nil {
		clone.FeeGrowthGlobal1X128 = new(big.Int).Set(p.FeeGrowthGlobal1X128)
	}
	return &clone
}
