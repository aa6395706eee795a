package ledger

import (
	"testing"

	"github.com/shopspring/decimal"

	"poolLedger/internal/config"
	"poolLedger/internal/entity"
)

const (
	whitelistedA = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	whitelistedB = "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	obscure      = "0xcccccccccccccccccccccccccccccccccccccccc"
)

func trackedConfig() *config.Config {
	cfg := &config.Config{WhitelistTokens: []string{whitelistedA, whitelistedB}}
	cfg.BuildIndexes()
	return cfg
}

func pricedToken(id string, derivedNative string) *entity.Token {
	token := entity.NewToken(id)
	token.DerivedNative = decimal.RequireFromString(derivedNative)
	return token
}

func usdBundle(price int64) *entity.Bundle {
	bundle := entity.NewBundle()
	bundle.NativePriceUSD = decimal.NewFromInt(price)
	return bundle
}

func TestTrackedAmountUSD(t *testing.T) {
	cfg := trackedConfig()
	bundle := usdBundle(10)

	cases := []struct {
		name   string
		token0 *entity.Token
		token1 *entity.Token
		want   string
	}{
		{"both whitelisted", pricedToken(whitelistedA, "2"), pricedToken(whitelistedB, "1"), "150"},
		{"only token0 whitelisted", pricedToken(whitelistedA, "2"), pricedToken(obscure, "1"), "200"},
		{"only token1 whitelisted", pricedToken(obscure, "2"), pricedToken(whitelistedB, "1"), "100"},
		{"neither whitelisted", pricedToken(obscure, "2"), pricedToken("0xdddddddddddddddddddddddddddddddddddddddd", "1"), "0"},
	}

	amount0 := decimal.NewFromInt(5)
	amount1 := decimal.NewFromInt(5)

	for _, tc := range cases {
		got := TrackedAmountUSD(amount0, tc.token0, amount1, tc.token1, bundle, cfg)
		if !got.Equal(decimal.RequireFromString(tc.want)) {
			t.Fatalf("%s: tracked = %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestApplyAmountDeltaRollsUpFactory(t *testing.T) {
	factory := entity.NewFactory()
	bundle := usdBundle(10)
	token0 := pricedToken(whitelistedA, "2")
	token1 := pricedToken(whitelistedB, "1")
	pool := entity.NewPool("0x1111111111111111111111111111111111111111", token0.ID, token1.ID, 3000, 1, 1)

	ApplyAmountDelta(factory, pool, token0, token1, bundle, decimal.NewFromInt(100), decimal.NewFromInt(50))

	if !pool.TotalValueLockedToken0.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("pool tvl0 = %s", pool.TotalValueLockedToken0)
	}
	// 100*2 + 50*1 native, times ten USD.
	if !pool.TotalValueLockedNative.Equal(decimal.NewFromInt(250)) {
		t.Fatalf("pool tvl native = %s", pool.TotalValueLockedNative)
	}
	if !pool.TotalValueLockedUSD.Equal(decimal.NewFromInt(2500)) {
		t.Fatalf("pool tvl usd = %s", pool.TotalValueLockedUSD)
	}
	if !token0.TotalValueLockedUSD.Equal(decimal.NewFromInt(2000)) {
		t.Fatalf("token0 tvl usd = %s", token0.TotalValueLockedUSD)
	}
	if !factory.TotalValueLockedNative.Equal(decimal.NewFromInt(250)) {
		t.Fatalf("factory tvl native = %s", factory.TotalValueLockedNative)
	}

	// A second pool contributes on top; the roll-up stays the sum of pools.
	other := entity.NewPool("0x2222222222222222222222222222222222222222", token0.ID, token1.ID, 500, 1, 1)
	ApplyAmountDelta(factory, other, token0, token1, bundle, decimal.NewFromInt(10), decimal.NewFromInt(10))
	if !factory.TotalValueLockedNative.Equal(decimal.NewFromInt(280)) {
		t.Fatalf("factory tvl native after second pool = %s", factory.TotalValueLockedNative)
	}

	// A withdrawal nets back out.
	ApplyAmountDelta(factory, pool, token0, token1, bundle, decimal.NewFromInt(-100), decimal.NewFromInt(-50))
	if !pool.TotalValueLockedNative.IsZero() {
		t.Fatalf("pool tvl native after withdraw = %s", pool.TotalValueLockedNative)
	}
	if !factory.TotalValueLockedNative.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("factory tvl native after withdraw = %s", factory.TotalValueLockedNative)
	}
}

func TestApplyAmountDeltaMaintainsUntrackedSeries(t *testing.T) {
	factory := entity.NewFactory()
	bundle := usdBundle(10)
	token0 := pricedToken(whitelistedA, "2")
	token1 := pricedToken(whitelistedB, "1")
	pool := entity.NewPool("0x1111111111111111111111111111111111111111", token0.ID, token1.ID, 3000, 1, 1)

	// Both legs priced: the untracked series matches the tracked one.
	ApplyAmountDelta(factory, pool, token0, token1, bundle, decimal.NewFromInt(100), decimal.NewFromInt(50))
	if !pool.TotalValueLockedUSDUntracked.Equal(pool.TotalValueLockedUSD) {
		t.Fatalf("untracked = %s, tracked = %s", pool.TotalValueLockedUSDUntracked, pool.TotalValueLockedUSD)
	}
	if !factory.TotalValueLockedUSDUntracked.Equal(decimal.NewFromInt(2500)) {
		t.Fatalf("factory untracked = %s", factory.TotalValueLockedUSDUntracked)
	}
}

func TestApplyAmountDeltaValuesUnpricedLegUntracked(t *testing.T) {
	factory := entity.NewFactory()
	bundle := usdBundle(10)
	// token0 failed the pricing gates; token1 trades at 2 native.
	token0 := pricedToken(obscure, "0")
	token1 := pricedToken(whitelistedB, "2")
	pool := entity.NewPool("0x1111111111111111111111111111111111111111", token0.ID, token1.ID, 3000, 1, 1)
	// One token1 buys four token0.
	pool.Token0Price = decimal.NewFromInt(4)
	pool.Token1Price = decimal.RequireFromString("0.25")

	ApplyAmountDelta(factory, pool, token0, token1, bundle, decimal.NewFromInt(100), decimal.NewFromInt(50))

	// Tracked counts only the priced leg: 50*2 native = 100, USD 1000.
	if !pool.TotalValueLockedUSD.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("pool tvl usd = %s", pool.TotalValueLockedUSD)
	}
	// Untracked values token0 through the pool rate: 0.25 * 20 USD each,
	// so 100*5 + 50*20 = 1500.
	if !pool.TotalValueLockedUSDUntracked.Equal(decimal.NewFromInt(1500)) {
		t.Fatalf("pool untracked = %s", pool.TotalValueLockedUSDUntracked)
	}
	if !factory.TotalValueLockedUSDUntracked.Equal(decimal.NewFromInt(1500)) {
		t.Fatalf("factory untracked = %s", factory.TotalValueLockedUSDUntracked)
	}

	// Withdrawal nets the series back out.
	ApplyAmountDelta(factory, pool, token0, token1, bundle, decimal.NewFromInt(-100), decimal.NewFromInt(-50))
	if !pool.TotalValueLockedUSDUntracked.IsZero() {
		t.Fatalf("pool untracked after withdraw = %s", pool.TotalValueLockedUSDUntracked)
	}
	if !factory.TotalValueLockedUSDUntracked.IsZero() {
		t.Fatalf("factory untracked after withdraw = %s", factory.TotalValueLockedUSDUntracked)
	}
}

func TestApplyAmountDeltaRevaluesOnZeroDelta(t *testing.T) {
	factory := entity.NewFactory()
	bundle := usdBundle(10)
	token0 := pricedToken(whitelistedA, "2")
	token1 := pricedToken(whitelistedB, "1")
	pool := entity.NewPool("0x1111111111111111111111111111111111111111", token0.ID, token1.ID, 3000, 1, 1)

	ApplyAmountDelta(factory, pool, token0, token1, bundle, decimal.NewFromInt(100), decimal.NewFromInt(50))

	// Price moves; a zero-delta call re-values pool and factory.
	token0.DerivedNative = decimal.NewFromInt(4)
	ApplyAmountDelta(factory, pool, token0, token1, bundle, decimal.Zero, decimal.Zero)

	if !pool.TotalValueLockedNative.Equal(decimal.NewFromInt(450)) {
		t.Fatalf("pool tvl native after revalue = %s", pool.TotalValueLockedNative)
	}
	if !factory.TotalValueLockedNative.Equal(decimal.NewFromInt(450)) {
		t.Fatalf("factory tvl native after revalue = %s", factory.TotalValueLockedNative)
	}
}
