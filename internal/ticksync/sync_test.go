package ticksync

import (
	"context"
	"fmt"
	"math/big"
	"testing"

	"poolLedger/internal/entity"
	"poolLedger/internal/store"
)

type countingReader struct {
	reads []int32
	fail  bool
}

func (r *countingReader) TickFeeVars(_ context.Context, _ string, index int32) (*big.Int, *big.Int, error) {
	r.reads = append(r.reads, index)
	if r.fail {
		return nil, nil, fmt.Errorf("read reverted")
	}
	return big.NewInt(int64(index) + 1), big.NewInt(int64(index) + 2), nil
}

func TestSpacingForFeeTier(t *testing.T) {
	cases := map[uint32]int32{
		100:   1,
		500:   10,
		3000:  60,
		10000: 200,
		2500:  50,
	}
	for feeTier, want := range cases {
		if got := SpacingForFeeTier(feeTier); got != want {
			t.Fatalf("spacing(%d) = %d, want %d", feeTier, got, want)
		}
	}
}

func TestApplyBoundary(t *testing.T) {
	pool := entity.NewPool("0x1", "0xa", "0xb", 3000, 1, 1)
	current := int32(0)
	pool.Tick = &current
	lower := entity.NewTick(pool.ID, -60, 1, 1)
	upper := entity.NewTick(pool.ID, 60, 1, 1)

	ApplyBoundary(pool, lower, upper, big.NewInt(1000))

	if lower.LiquidityGross.Cmp(big.NewInt(1000)) != 0 || lower.LiquidityNet.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("lower: gross=%s net=%s", lower.LiquidityGross, lower.LiquidityNet)
	}
	if upper.LiquidityGross.Cmp(big.NewInt(1000)) != 0 || upper.LiquidityNet.Cmp(big.NewInt(-1000)) != 0 {
		t.Fatalf("upper: gross=%s net=%s", upper.LiquidityGross, upper.LiquidityNet)
	}
	if pool.Liquidity.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("in-range delta must move active liquidity: %s", pool.Liquidity)
	}

	// Out of range: the current tick sits below the lower boundary.
	outLower := entity.NewTick(pool.ID, 120, 1, 1)
	outUpper := entity.NewTick(pool.ID, 180, 1, 1)
	ApplyBoundary(pool, outLower, outUpper, big.NewInt(500))
	if pool.Liquidity.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("out-of-range delta must not move active liquidity: %s", pool.Liquidity)
	}

	// The upper boundary itself is exclusive.
	atUpper := int32(180)
	pool.Tick = &atUpper
	ApplyBoundary(pool, outLower, outUpper, big.NewInt(500))
	if pool.Liquidity.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("delta at the upper boundary must not move active liquidity: %s", pool.Liquidity)
	}

	// An uninitialized pool only tracks boundary interest.
	pool.Tick = nil
	ApplyBoundary(pool, lower, upper, big.NewInt(1))
	if pool.Liquidity.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("nil tick must not move active liquidity: %s", pool.Liquidity)
	}
}

func TestSyncCrossedTicksUpward(t *testing.T) {
	s := store.NewMemory()
	pool := entity.NewPool("0x1", "0xa", "0xb", 500, 1, 1)

	// Materialize ticks at 10 and 30; 20 stays unmaterialized.
	s.SaveTick(entity.NewTick(pool.ID, 10, 1, 1))
	s.SaveTick(entity.NewTick(pool.ID, 30, 1, 1))

	reader := &countingReader{}
	SyncCrossedTicks(context.Background(), s, reader, pool, 5, 35, nil)

	if len(reader.reads) != 2 || reader.reads[0] != 10 || reader.reads[1] != 30 {
		t.Fatalf("reads = %v", reader.reads)
	}

	tick, _ := s.Tick(entity.TickID(pool.ID, 10))
	if tick.FeeGrowthOutside0X128.Cmp(big.NewInt(11)) != 0 {
		t.Fatalf("fee growth outside = %s", tick.FeeGrowthOutside0X128)
	}
}

func TestSyncCrossedTicksDownward(t *testing.T) {
	s := store.NewMemory()
	pool := entity.NewPool("0x1", "0xa", "0xb", 500, 1, 1)

	for _, index := range []int32{0, 10, 20, 30} {
		s.SaveTick(entity.NewTick(pool.ID, index, 1, 1))
	}

	// An aligned old tick is not re-read on the way down.
	reader := &countingReader{}
	SyncCrossedTicks(context.Background(), s, reader, pool, 30, 5, nil)

	if len(reader.reads) != 2 || reader.reads[0] != 20 || reader.reads[1] != 10 {
		t.Fatalf("reads = %v", reader.reads)
	}
}

func TestSyncCrossedTicksInclusiveAlignedTarget(t *testing.T) {
	s := store.NewMemory()
	pool := entity.NewPool("0x1", "0xa", "0xb", 500, 1, 1)
	s.SaveTick(entity.NewTick(pool.ID, 40, 1, 1))

	reader := &countingReader{}
	SyncCrossedTicks(context.Background(), s, reader, pool, 35, 40, nil)

	if len(reader.reads) != 1 || reader.reads[0] != 40 {
		t.Fatalf("aligned new tick must be included: %v", reader.reads)
	}
}

func TestSyncCrossedTicksSkipsWideMoves(t *testing.T) {
	s := store.NewMemory()
	pool := entity.NewPool("0x1", "0xa", "0xb", 500, 1, 1)
	s.SaveTick(entity.NewTick(pool.ID, 10, 1, 1))

	// 101 aligned indexes crossed: skipped entirely.
	reader := &countingReader{}
	SyncCrossedTicks(context.Background(), s, reader, pool, 0, 1010, nil)
	if len(reader.reads) != 0 {
		t.Fatalf("wide move must skip refresh: %v", reader.reads)
	}

	// Exactly at the cap: processed.
	SyncCrossedTicks(context.Background(), s, reader, pool, 0, 1000, nil)
	if len(reader.reads) != 1 || reader.reads[0] != 10 {
		t.Fatalf("cap-width move must refresh: %v", reader.reads)
	}
}

func TestSyncCrossedTicksKeepsSnapshotOnReadFailure(t *testing.T) {
	s := store.NewMemory()
	pool := entity.NewPool("0x1", "0xa", "0xb", 500, 1, 1)
	tick := entity.NewTick(pool.ID, 10, 1, 1)
	tick.FeeGrowthOutside0X128 = big.NewInt(77)
	s.SaveTick(tick)

	reader := &countingReader{fail: true}
	SyncCrossedTicks(context.Background(), s, reader, pool, 5, 15, nil)

	stored, _ := s.Tick(entity.TickID(pool.ID, 10))
	if stored.FeeGrowthOutside0X128.Cmp(big.NewInt(77)) != 0 {
		t.Fatalf("failed read must keep the prior snapshot: %s", stored.FeeGrowthOutside0X128)
	}
}
