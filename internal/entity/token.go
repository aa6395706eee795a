package entity

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// Token is an ERC20 token participating in at least one pool.
type Token struct {
	ID          string `json:"id"`
	Symbol      string `json:"symbol"`
	Name        string `json:"name"`
	Decimals    uint8  `json:"decimals"`
	TotalSupply *big.Int

	// DerivedNative is the price of one token expressed in the reference asset.
	DerivedNative decimal.Decimal

	TotalValueLocked    decimal.Decimal
	TotalValueLockedUSD decimal.Decimal
	Volume              decimal.Decimal
	VolumeUSD           decimal.Decimal
	UntrackedVolumeUSD  decimal.Decimal
	FeesUSD             decimal.Decimal
	TxCount             uint64

	// WhitelistPools lists pools pairing this token with a whitelisted
	// token, in discovery order. Append-only.
	WhitelistPools []string
}

func NewToken(id string) *Token {
	return &Token{
		ID:                  id,
		TotalSupply:         big.NewInt(0),
		DerivedNative:       decimal.Zero,
		TotalValueLocked:    decimal.Zero,
		TotalValueLockedUSD: decimal.Zero,
		Volume:              decimal.Zero,
		VolumeUSD:           decimal.Zero,
		UntrackedVolumeUSD:  decimal.Zero,
		FeesUSD:             decimal.Zero,
	}
}

// Clone returns a deep copy safe to mutate independently.
func (t *Token) Clone() *Token {
	if t == nil {
		return nil
	}
	clone := *t
	if t.TotalSupply != nil {
		clone.TotalSupply = new(big.Int).Set(t.TotalSupply)
	}
	clone.WhitelistPools = append([]string(nil), t.WhitelistPools...)
	return &clone
}
