package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// TokenOverride pins static metadata for tokens whose contracts report
// broken or missing values.
type TokenOverride struct {
	Address  string `mapstructure:"address"`
	Symbol   string `mapstructure:"symbol"`
	Name     string `mapstructure:"name"`
	Decimals uint8  `mapstructure:"decimals"`
}

// PoolSeed pre-populates a pool known before the first indexed block.
type PoolSeed struct {
	Pool   string `mapstructure:"pool"`
	Token0 string `mapstructure:"token0"`
	Token1 string `mapstructure:"token1"`
}

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	RPCURL            string
	PGDSN             string
	FromBlock         uint64
	ToBlock           uint64
	BatchSize         uint64
	Journal           string
	Checkpoint        string
	CheckpointEnabled bool
	MaxRetries        int
	RetryBackoff      time.Duration
	LogLevel          string

	FactoryAddress      string
	NativeAsset         string
	StablePricePool     string
	MinimumNativeLocked decimal.Decimal
	WhitelistTokens     []string
	Stablecoins         []string
	SkipPools           []string
	SkipSwapPools       []string
	TokenOverrides      []TokenOverride
	PrepopulatedPools   []PoolSeed

	whitelist   map[string]struct{}
	stablecoins map[string]struct{}
	skip        map[string]struct{}
	skipSwap    map[string]struct{}
	overrides   map[string]TokenOverride
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("LEDGER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("batch-size", uint64(2000))
	v.SetDefault("journal", "")
	v.SetDefault("checkpoint", "./data/checkpoint.json")
	v.SetDefault("checkpoint-enabled", true)
	v.SetDefault("max-retries", 5)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("log-level", "info")
	v.SetDefault("minimum-native-locked", "0")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	minLocked, err := decimal.NewFromString(v.GetString("minimum-native-locked"))
	if err != nil {
		return Config{}, fmt.Errorf("parse minimum-native-locked: %w", err)
	}

	cfg := Config{
		RPCURL:              v.GetString("rpc"),
		PGDSN:               v.GetString("pg-dsn"),
		FromBlock:           v.GetUint64("from"),
		ToBlock:             v.GetUint64("to"),
		BatchSize:           v.GetUint64("batch-size"),
		Journal:             v.GetString("journal"),
		Checkpoint:          v.GetString("checkpoint"),
		CheckpointEnabled:   v.GetBool("checkpoint-enabled"),
		MaxRetries:          v.GetInt("max-retries"),
		RetryBackoff:        v.GetDuration("retry-backoff"),
		LogLevel:            v.GetString("log-level"),
		FactoryAddress:      v.GetString("factory"),
		NativeAsset:         v.GetString("native-asset"),
		StablePricePool:     v.GetString("stable-price-pool"),
		MinimumNativeLocked: minLocked,
		WhitelistTokens:     getStringSlice(v, "whitelist-tokens"),
		Stablecoins:         getStringSlice(v, "stablecoins"),
		SkipPools:           getStringSlice(v, "skip-pools"),
		SkipSwapPools:       getStringSlice(v, "skip-swap-pools"),
	}

	if err := v.UnmarshalKey("token-overrides", &cfg.TokenOverrides); err != nil {
		return Config{}, fmt.Errorf("parse token-overrides: %w", err)
	}
	if err := v.UnmarshalKey("prepopulated-pools", &cfg.PrepopulatedPools); err != nil {
		return Config{}, fmt.Errorf("parse prepopulated-pools: %w", err)
	}

	cfg.BuildIndexes()
	return cfg, nil
}

// Normalize lowercases an address for map and store keys.
func Normalize(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// BuildIndexes prepares the lookup sets. Load calls it; tests building a
// Config literal must call it themselves.
func (c *Config) BuildIndexes() {
	c.FactoryAddress = Normalize(c.FactoryAddress)
	c.NativeAsset = Normalize(c.NativeAsset)
	c.StablePricePool = Normalize(c.StablePricePool)

	c.whitelist = toSet(c.WhitelistTokens)
	c.stablecoins = toSet(c.Stablecoins)
	c.skip = toSet(c.SkipPools)
	c.skipSwap = toSet(c.SkipSwapPools)

	c.overrides = make(map[string]TokenOverride, len(c.TokenOverrides))
	for _, override := range c.TokenOverrides {
		c.overrides[Normalize(override.Address)] = override
	}
}

// IsWhitelisted reports whether the token anchors price/volume derivation.
func (c *Config) IsWhitelisted(token string) bool {
	_, ok := c.whitelist[Normalize(token)]
	return ok
}

// IsStablecoin reports whether the token is pinned to one USD.
func (c *Config) IsStablecoin(token string) bool {
	_, ok := c.stablecoins[Normalize(token)]
	return ok
}

// SkipPool reports whether pool creation is hard-excluded for the address.
func (c *Config) SkipPool(pool string) bool {
	_, ok := c.skip[Normalize(pool)]
	return ok
}

// SkipSwaps reports whether the pool is excluded from swap processing.
func (c *Config) SkipSwaps(pool string) bool {
	_, ok := c.skipSwap[Normalize(pool)]
	return ok
}

// Override returns static token metadata, if configured.
func (c *Config) Override(token string) (TokenOverride, bool) {
	override, ok := c.overrides[Normalize(token)]
	return override, ok
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		item = Normalize(item)
		if item == "" {
			continue
		}
		set[item] = struct{}{}
	}
	return set
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
