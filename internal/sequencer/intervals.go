package sequencer

import (
	"math/big"

	"github.com/shopspring/decimal"

	"poolLedger/internal/entity"
)

var (
	poolPeriods  = []uint64{entity.PeriodFiveMinutes, entity.PeriodHour, entity.PeriodDay}
	tokenPeriods = []uint64{entity.PeriodHour, entity.PeriodDay}
)

// updatePoolIntervals rolls the event into the pool's open buckets. Volume
// arguments are zero for non-swap events; the state snapshot and OHLC close
// still refresh.
func (q *Sequencer) updatePoolIntervals(pool *entity.Pool, timestamp uint64, volume0, volume1, volumeUSD, feesUSD decimal.Decimal) {
	for _, period := range poolPeriods {
		id := entity.IntervalID(pool.ID, period, entity.PeriodStart(timestamp, period))
		interval, ok := q.store.PoolInterval(id)
		if !ok {
			interval = entity.NewPoolInterval(pool, period, timestamp)
		}

		if pool.Liquidity != nil {
			interval.Liquidity = new(big.Int).Set(pool.Liquidity)
		}
		if pool.SqrtPrice != nil {
			interval.SqrtPrice = new(big.Int).Set(pool.SqrtPrice)
		}
		if pool.Tick != nil {
			tick := *pool.Tick
			interval.Tick = &tick
		}
		interval.Token0Price = pool.Token0Price
		interval.Token1Price = pool.Token1Price
		interval.TotalValueLockedUSD = pool.TotalValueLockedUSD

		if pool.Token0Price.GreaterThan(interval.High) {
			interval.High = pool.Token0Price
		}
		// A zero price means the pool is not priced yet, not a market
		// low; the bucket's Low tracks real prices only, seeded from the
		// first one observed.
		if !pool.Token0Price.IsZero() && (interval.Low.IsZero() || pool.Token0Price.LessThan(interval.Low)) {
			interval.Low = pool.Token0Price
		}
		interval.Close = pool.Token0Price

		interval.VolumeToken0 = interval.VolumeToken0.Add(volume0)
		interval.VolumeToken1 = interval.VolumeToken1.Add(volume1)
		interval.VolumeUSD = interval.VolumeUSD.Add(volumeUSD)
		interval.FeesUSD = interval.FeesUSD.Add(feesUSD)
		interval.TxCount++

		q.store.SavePoolInterval(interval)
	}
}

// updateTokenIntervals rolls the event into the token's hour and day
// buckets, tracking the USD price OHLC.
func (q *Sequencer) updateTokenIntervals(token *entity.Token, bundle *entity.Bundle, timestamp uint64, volume, volumeUSD, untrackedUSD, feesUSD decimal.Decimal) {
	priceUSD := token.DerivedNative.Mul(bundle.NativePriceUSD)

	for _, period := range tokenPeriods {
		id := entity.IntervalID(token.ID, period, entity.PeriodStart(timestamp, period))
		interval, ok := q.store.TokenInterval(id)
		if !ok {
			interval = entity.NewTokenInterval(token, priceUSD, period, timestamp)
		}

		interval.TotalValueLocked = token.TotalValueLocked
		interval.TotalValueLockedUSD = token.TotalValueLockedUSD
		interval.PriceUSD = priceUSD

		if priceUSD.GreaterThan(interval.High) {
			interval.High = priceUSD
		}
		if !priceUSD.IsZero() && (interval.Low.IsZero() || priceUSD.LessThan(interval.Low)) {
			interval.Low = priceUSD
		}
		interval.Close = priceUSD

		interval.Volume = interval.Volume.Add(volume)
		interval.VolumeUSD = interval.VolumeUSD.Add(volumeUSD)
		interval.UntrackedVolumeUSD = interval.UntrackedVolumeUSD.Add(untrackedUSD)
		interval.FeesUSD = interval.FeesUSD.Add(feesUSD)

		q.store.SaveTokenInterval(interval)
	}
}

// updateFactoryInterval rolls the event into the global daily bucket.
func (q *Sequencer) updateFactoryInterval(factory *entity.Factory, timestamp uint64, volumeUSD, feesUSD decimal.Decimal) {
	id := entity.IntervalID(entity.FactoryID, entity.PeriodDay, entity.PeriodStart(timestamp, entity.PeriodDay))
	interval, ok := q.store.FactoryInterval(id)
	if !ok {
		interval = entity.NewFactoryInterval(entity.PeriodDay, timestamp)
	}

	interval.VolumeUSD = interval.VolumeUSD.Add(volumeUSD)
	interval.FeesUSD = interval.FeesUSD.Add(feesUSD)
	interval.TotalValueLockedUSD = factory.TotalValueLockedUSD
	interval.TxCount++

	q.store.SaveFactoryInterval(interval)
}
