package config

import "testing"

func TestNormalize(t *testing.T) {
	if got := Normalize("  0xABCdef  "); got != "0xabcdef" {
		t.Fatalf("normalize = %q", got)
	}
	if got := Normalize(""); got != "" {
		t.Fatalf("normalize empty = %q", got)
	}
}

func TestConfigPredicates(t *testing.T) {
	cfg := Config{
		FactoryAddress:  "0xFACE",
		NativeAsset:     "0xBBBB",
		StablePricePool: "0x1111",
		WhitelistTokens: []string{"0xAAAA", "0xBBBB", " "},
		Stablecoins:     []string{"0xAAAA"},
		SkipPools:       []string{"0xDEAD"},
		SkipSwapPools:   []string{"0xBEEF"},
		TokenOverrides: []TokenOverride{
			{Address: "0xCCCC", Symbol: "FIX", Name: "Fixed", Decimals: 8},
		},
	}
	cfg.BuildIndexes()

	if cfg.FactoryAddress != "0xface" || cfg.NativeAsset != "0xbbbb" {
		t.Fatalf("addresses not normalized: %+v", cfg)
	}

	if !cfg.IsWhitelisted("0xaaaa") || !cfg.IsWhitelisted("0xAAAA") {
		t.Fatalf("whitelist lookup must be case-insensitive")
	}
	if cfg.IsWhitelisted("0xcccc") {
		t.Fatalf("unexpected whitelist hit")
	}
	if !cfg.IsStablecoin("0xaaaa") || cfg.IsStablecoin("0xbbbb") {
		t.Fatalf("stablecoin lookup wrong")
	}
	if !cfg.SkipPool("0xdead") || cfg.SkipPool("0xbeef") {
		t.Fatalf("skip-pool lookup wrong")
	}
	if !cfg.SkipSwaps("0xbeef") || cfg.SkipSwaps("0xdead") {
		t.Fatalf("skip-swaps lookup wrong")
	}

	override, ok := cfg.Override("0xcccc")
	if !ok || override.Symbol != "FIX" || override.Decimals != 8 {
		t.Fatalf("override lookup: %+v ok=%v", override, ok)
	}
	if _, ok := cfg.Override("0xaaaa"); ok {
		t.Fatalf("unexpected override")
	}
}
