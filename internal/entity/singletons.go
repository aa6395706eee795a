package entity

import "github.com/shopspring/decimal"

// Well-known store keys for the two singleton entities.
const (
	BundleID  = "1"
	FactoryID = "factory"
)

// Bundle holds the current reference-asset price in USD. Exactly one
// instance exists, stored under BundleID.
type Bundle struct {
	ID             string `json:"id"`
	NativePriceUSD decimal.Decimal
}

func NewBundle() *Bundle {
	return &Bundle{ID: BundleID, NativePriceUSD: decimal.Zero}
}

func (b *Bundle) Clone() *Bundle {
	if b == nil {
		return nil
	}
	clone := *b
	return &clone
}

// Factory is the global roll-up mirroring the sum of all pool-level
// figures, stored under FactoryID.
type Factory struct {
	ID        string `json:"id"`
	PoolCount uint64 `json:"pool_count"`
	TxCount   uint64 `json:"tx_count"`

	TotalVolumeUSD               decimal.Decimal
	UntrackedVolumeUSD           decimal.Decimal
	TotalFeesUSD                 decimal.Decimal
	TotalValueLockedNative       decimal.Decimal
	TotalValueLockedUSD          decimal.Decimal
	TotalValueLockedUSDUntracked decimal.Decimal
}

func NewFactory() *Factory {
	return &Factory{
		ID:                           FactoryID,
		TotalVolumeUSD:               decimal.Zero,
		UntrackedVolumeUSD:           decimal.Zero,
		TotalFeesUSD:                 decimal.Zero,
		TotalValueLockedNative:       decimal.Zero,
		TotalValueLockedUSD:          decimal.Zero,
		TotalValueLockedUSDUntracked: decimal.Zero,
	}
}

func (f *Factory) Clone() *Factory {
	if f == nil {
		return nil
	}
	clone := *f
	return &clone
}
