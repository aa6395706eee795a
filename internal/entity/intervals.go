package entity

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// Interval bucket widths maintained on every swap.
const (
	PeriodFiveMinutes uint64 = 300
	PeriodHour        uint64 = 3600
	PeriodDay         uint64 = 86400
)

// PeriodStart truncates a timestamp to its bucket boundary.
func PeriodStart(timestamp, periodSeconds uint64) uint64 {
	return timestamp - timestamp%periodSeconds
}

// IntervalID builds the store key for an owner's bucket.
func IntervalID(ownerID string, periodSeconds, periodStart uint64) string {
	return fmt.Sprintf("%s-%d-%d", ownerID, periodSeconds, periodStart)
}

// PoolInterval is an OHLC-style snapshot of one pool over one bucket.
// Open/High/Low/Close track token0Price.
type PoolInterval struct {
	ID            string `json:"id"`
	PoolID        string `json:"pool_id"`
	PeriodSeconds uint64 `json:"period_seconds"`
	PeriodStart   uint64 `json:"period_start"`

	Liquidity   *big.Int
	SqrtPrice   *big.Int
	Tick        *int32
	Token0Price decimal.Decimal
	Token1Price decimal.Decimal

	TotalValueLockedUSD decimal.Decimal
	VolumeToken0        decimal.Decimal
	VolumeToken1        decimal.Decimal
	VolumeUSD           decimal.Decimal
	FeesUSD             decimal.Decimal
	TxCount             uint64

	Open  decimal.Decimal
	High  decimal.Decimal
	Low   decimal.Decimal
	Close decimal.Decimal
}

func NewPoolInterval(pool *Pool, periodSeconds, timestamp uint64) *PoolInterval {
	start := PeriodStart(timestamp, periodSeconds)
	return &PoolInterval{
		ID:            IntervalID(pool.ID, periodSeconds, start),
		PoolID:        pool.ID,
		PeriodSeconds: periodSeconds,
		PeriodStart:   start,
		VolumeToken0:  decimal.Zero,
		VolumeToken1:  decimal.Zero,
		VolumeUSD:     decimal.Zero,
		FeesUSD:       decimal.Zero,
		Open:          pool.Token0Price,
		High:          pool.Token0Price,
		Low:           pool.Token0Price,
		Close:         pool.Token0Price,
	}
}

func (pi *PoolInterval) Clone() *PoolInterval {
	if pi == nil {
		return nil
	}
	clone := *pi
	if pi.Liquidity != nil {
		clone.Liquidity = new(big.Int).Set(pi.Liquidity)
	}
	if pi.SqrtPrice != nil {
		clone.SqrtPrice = new(big.Int).Set(pi.SqrtPrice)
	}
	if pi.Tick != nil {
		tick := *pi.Tick
		clone.Tick = &tick
	}
	return &clone
}

// TokenInterval is an OHLC-style snapshot of one token over one bucket.
// Open/High/Low/Close track the token's USD price.
type TokenInterval struct {
	ID            string `json:"id"`
	TokenID       string `json:"token_id"`
	PeriodSeconds uint64 `json:"period_seconds"`
	PeriodStart   uint64 `json:"period_start"`

	Volume              decimal.Decimal
	VolumeUSD           decimal.Decimal
	UntrackedVolumeUSD  decimal.Decimal
	FeesUSD             decimal.Decimal
	TotalValueLocked    decimal.Decimal
	TotalValueLockedUSD decimal.Decimal
	PriceUSD            decimal.Decimal

	Open  decimal.Decimal
	High  decimal.Decimal
	Low   decimal.Decimal
	Close decimal.Decimal
}

func NewTokenInterval(token *Token, priceUSD decimal.Decimal, periodSeconds, timestamp uint64) *TokenInterval {
	start := PeriodStart(timestamp, periodSeconds)
	return &TokenInterval{
		ID:                 IntervalID(token.ID, periodSeconds, start),
		TokenID:            token.ID,
		PeriodSeconds:      periodSeconds,
		PeriodStart:        start,
		Volume:             decimal.Zero,
		VolumeUSD:          decimal.Zero,
		UntrackedVolumeUSD: decimal.Zero,
		FeesUSD:            decimal.Zero,
		PriceUSD:           priceUSD,
		Open:               priceUSD,
		High:               priceUSD,
		Low:                priceUSD,
		Close:              priceUSD,
	}
}

func (ti *TokenInterval) Clone() *TokenInterval {
	if ti == nil {
		return nil
	}
	clone := *ti
	return &clone
}

// FactoryInterval is a daily roll-up of global activity.
type FactoryInterval struct {
	ID            string `json:"id"`
	PeriodSeconds uint64 `json:"period_seconds"`
	PeriodStart   uint64 `json:"period_start"`

	VolumeUSD           decimal.Decimal
	FeesUSD             decimal.Decimal
	TotalValueLockedUSD decimal.Decimal
	TxCount             uint64
}

func NewFactoryInterval(periodSeconds, timestamp uint64) *FactoryInterval {
	start := PeriodStart(timestamp, periodSeconds)
	return &FactoryInterval{
		ID:            IntervalID(FactoryID, periodSeconds, start),
		PeriodSeconds: periodSeconds,
		PeriodStart:   start,
		VolumeUSD:     decimal.Zero,
		FeesUSD:       decimal.Zero,
	}
}

func (fi *FactoryInterval) Clone() *FactoryInterval {
	if fi == nil {
		return nil
	}
	clone := *fi
	return &clone
}
