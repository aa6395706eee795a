package entity

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// Tick is a price boundary in a pool. Created lazily the first time a
// position references the boundary; never deleted.
type Tick struct {
	ID                 string `json:"id"`
	PoolID             string `json:"pool_id"`
	Index              int32  `json:"index"`
	CreatedAtBlock     uint64 `json:"created_at_block"`
	CreatedAtTimestamp uint64 `json:"created_at_timestamp"`

	Price0 decimal.Decimal
	Price1 decimal.Decimal

	// LiquidityGross is the total liquidity referencing this boundary.
	// LiquidityNet is the liquidity added when price crosses upward.
	LiquidityGross *big.Int
	LiquidityNet   *big.Int

	FeeGrowthOutside0X128 *big.Int
	FeeGrowthOutside1X128 *big.Int
}

// TickID builds the store key for a (pool, tick index) pair.
func TickID(poolID string, index int32) string {
	return fmt.Sprintf("%s#%d", poolID, index)
}

func NewTick(poolID string, index int32, block, timestamp uint64) *Tick {
	price0 := TickPrice(index)
	return &Tick{
		ID:                    TickID(poolID, index),
		PoolID:                poolID,
		Index:                 index,
		CreatedAtBlock:        block,
		CreatedAtTimestamp:    timestamp,
		Price0:                price0,
		Price1:                SafeDiv(decimal.New(1, 0), price0),
		LiquidityGross:        big.NewInt(0),
		LiquidityNet:          big.NewInt(0),
		FeeGrowthOutside0X128: big.NewInt(0),
		FeeGrowthOutside1X128: big.NewInt(0),
	}
}

// Clone returns a deep copy safe to mutate independently.
func (t *Tick) Clone() *Tick {
	if t == nil {
		return nil
	}
	clone := *t
	if t.LiquidityGross != nil {
		clone.LiquidityGross = new(big.Int).Set(t.LiquidityGross)
	}
	if t.LiquidityNet != nil {
		clone.LiquidityNet = new(big.Int).Set(t.LiquidityNet)
	}
	if t.FeeGrowthOutside0X128 != nil {
		clone.FeeGrowthOutside0X128 = new(big.Int).Set(t.FeeGrowthOutside0X128)
	}
	if t.FeeGrowthOutside1X128 != nil {
		clone.FeeGrowthOutside1X128 = new(big.Int).Set(t.FeeGrowthOutside1X128)
	}
	return &clone
}
