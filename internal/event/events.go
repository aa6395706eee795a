package event

import "math/big"

// Meta carries the ordering metadata shared by every pool event.
type Meta struct {
	PoolAddress string
	BlockNumber uint64
	Timestamp   uint64
	TxHash      string
	TxOrigin    string
	LogIndex    uint64
}

// PoolCreated is emitted by the factory. PoolAddress in Meta is the
// factory address; Pool is the new pool's address.
type PoolCreated struct {
	Meta
	Token0  string
	Token1  string
	FeeTier uint32
	Pool    string
}

// Initialize sets a pool's first price and tick.
type Initialize struct {
	Meta
	SqrtPriceX96 *big.Int
	Tick         int32
}

// Mint adds liquidity between two tick boundaries.
type Mint struct {
	Meta
	Owner     string
	Sender    string
	TickLower int32
	TickUpper int32
	Amount    *big.Int
	Amount0   *big.Int
	Amount1   *big.Int
}

// Burn removes liquidity between two tick boundaries. The withdrawn
// amounts stay owed to the position until the paired Collect.
type Burn struct {
	Meta
	Owner     string
	TickLower int32
	TickUpper int32
	Amount    *big.Int
	Amount0   *big.Int
	Amount1   *big.Int
}

// Swap trades through a pool, moving its tick and sqrt price.
type Swap struct {
	Meta
	Sender       string
	Recipient    string
	Amount0      *big.Int
	Amount1      *big.Int
	SqrtPriceX96 *big.Int
	Liquidity    *big.Int
	Tick         int32
}

// Collect withdraws owed amounts from a position.
type Collect struct {
	Meta
	Owner     string
	Recipient string
	TickLower int32
	TickUpper int32
	Amount0   *big.Int
	Amount1   *big.Int
}

// Flash is a flash loan; only the pool's global fee-growth accumulators
// change as a result.
type Flash struct {
	Meta
}
