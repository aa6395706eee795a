package sequencer

import (
	"context"
	"fmt"
	"math/big"

	"go.uber.org/zap"

	"poolLedger/internal/config"
	"poolLedger/internal/dex"
	"poolLedger/internal/entity"
	"poolLedger/internal/event"
	"poolLedger/internal/store"
	"poolLedger/internal/ticksync"
)

// MetadataReader materializes ERC20 token metadata. The error return is
// reserved for an undeterminable decimals value.
type MetadataReader interface {
	TokenMetadata(ctx context.Context, token string) (dex.TokenMetadata, error)
}

// StateReader reads live pool contract state.
type StateReader interface {
	ticksync.FeeVarsReader
	FeeGrowthGlobals(ctx context.Context, pool string) (*big.Int, *big.Int, error)
	FeeTier(ctx context.Context, pool string) (uint32, error)
}

// Sequencer applies decoded pool events to the entity store, one at a
// time, in chain order. It is the store's single writer.
type Sequencer struct {
	store    store.Store
	metadata MetadataReader
	state    StateReader
	cfg      *config.Config
	logger   *zap.Logger
}

func New(s store.Store, metadata MetadataReader, state StateReader, cfg *config.Config, logger *zap.Logger) *Sequencer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sequencer{
		store:    s,
		metadata: metadata,
		state:    state,
		cfg:      cfg,
		logger:   logger,
	}
}

// Apply dispatches one decoded event to its handler. Missing entities and
// failed external reads are absorbed inside the handlers; an error here
// means the event type itself is unknown.
func (q *Sequencer) Apply(ctx context.Context, decoded interface{}) error {
	switch ev := decoded.(type) {
	case *event.PoolCreated:
		q.HandlePoolCreated(ctx, ev)
	case *event.Initialize:
		q.HandleInitialize(ctx, ev)
	case *event.Mint:
		q.HandleMint(ctx, ev)
	case *event.Burn:
		q.HandleBurn(ctx, ev)
	case *event.Swap:
		q.HandleSwap(ctx, ev)
	case *event.Collect:
		q.HandleCollect(ctx, ev)
	case *event.Flash:
		q.HandleFlash(ctx, ev)
	default:
		return fmt.Errorf("unsupported event type %T", decoded)
	}
	return nil
}

// SeedPools materializes pools known before the first indexed block, so
// their Initialize and Swap events resolve against existing entities.
func (q *Sequencer) SeedPools(ctx context.Context) {
	for _, seed := range q.cfg.PrepopulatedPools {
		poolID := config.Normalize(seed.Pool)
		if poolID == "" {
			continue
		}
		if _, ok := q.store.Pool(poolID); ok {
			continue
		}

		feeTier, err := q.state.FeeTier(ctx, poolID)
		if err != nil {
			q.logger.Warn("seed pool fee read failed",
				zap.String("pool", poolID),
				zap.Error(err),
			)
			continue
		}

		pool := entity.NewPool(poolID, config.Normalize(seed.Token0), config.Normalize(seed.Token1), feeTier, 0, 0)
		q.store.SavePool(pool)

		factory := q.factory()
		factory.PoolCount++
		q.store.SaveFactory(factory)

		token0, ok0 := q.ensureToken(ctx, pool.Token0)
		token1, ok1 := q.ensureToken(ctx, pool.Token1)
		if ok0 && ok1 {
			q.linkWhitelist(pool, token0, token1)
			q.store.SaveToken(token0)
			q.store.SaveToken(token1)
		}

		q.logger.Info("seeded pool",
			zap.String("pool", poolID),
			zap.Uint32("fee_tier", feeTier),
		)
	}
}

// ensureToken loads a token, materializing it on first sight. A static
// override wins over the contract read. Returns false when decimals cannot
// be determined; the next event referencing the token retries.
func (q *Sequencer) ensureToken(ctx context.Context, id string) (*entity.Token, bool) {
	id = config.Normalize(id)
	if token, ok := q.store.Token(id); ok {
		return token, true
	}

	token := entity.NewToken(id)
	if override, ok := q.cfg.Override(id); ok {
		token.Symbol = override.Symbol
		token.Name = override.Name
		token.Decimals = override.Decimals
	} else {
		meta, err := q.metadata.TokenMetadata(ctx, id)
		if err != nil {
			q.logger.Warn("token materialization deferred",
				zap.String("token", id),
				zap.Error(err),
			)
			return nil, false
		}
		token.Symbol = meta.Symbol
		token.Name = meta.Name
		token.Decimals = meta.Decimals
		if meta.TotalSupply != nil {
			token.TotalSupply = meta.TotalSupply
		}
	}

	q.store.SaveToken(token)
	return token, true
}

// poolTokens resolves both of a pool's tokens, retrying materialization
// for any token deferred earlier. False means at least one token is still
// unavailable and the caller must skip the event.
func (q *Sequencer) poolTokens(ctx context.Context, pool *entity.Pool) (*entity.Token, *entity.Token, bool) {
	token0, ok := q.ensureToken(ctx, pool.Token0)
	if !ok {
		return nil, nil, false
	}
	token1, ok := q.ensureToken(ctx, pool.Token1)
	if !ok {
		return nil, nil, false
	}
	q.linkWhitelist(pool, token0, token1)
	return token0, token1, true
}

// linkWhitelist registers the pool as a pricing candidate for each token
// whose counterparty is whitelisted. Idempotent.
func (q *Sequencer) linkWhitelist(pool *entity.Pool, token0, token1 *entity.Token) {
	if q.cfg.IsWhitelisted(token1.ID) && !containsPool(token0.WhitelistPools, pool.ID) {
		token0.WhitelistPools = append(token0.WhitelistPools, pool.ID)
	}
	if q.cfg.IsWhitelisted(token0.ID) && !containsPool(token1.WhitelistPools, pool.ID) {
		token1.WhitelistPools = append(token1.WhitelistPools, pool.ID)
	}
}

func containsPool(pools []string, id string) bool {
	for _, pool := range pools {
		if pool == id {
			return true
		}
	}
	return false
}

func (q *Sequencer) factory() *entity.Factory {
	factory, ok := q.store.Factory()
	if !ok {
		factory = entity.NewFactory()
	}
	return factory
}

func (q *Sequencer) bundle() *entity.Bundle {
	bundle, ok := q.store.Bundle()
	if !ok {
		bundle = entity.NewBundle()
	}
	return bundle
}

// loadOrCreateTick returns the boundary tick, materializing it lazily on
// first reference.
func (q *Sequencer) loadOrCreateTick(pool *entity.Pool, index int32, block, timestamp uint64) *entity.Tick {
	if tick, ok := q.store.Tick(entity.TickID(pool.ID, index)); ok {
		return tick
	}
	return entity.NewTick(pool.ID, index, block, timestamp)
}
