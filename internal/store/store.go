package store

import "poolLedger/internal/entity"

// Store is the entity store the event sequencer works against. Loads
// return a private copy; a mutation is visible only after the matching
// Save. The sequencer is the single writer.
type Store interface {
	Token(id string) (*entity.Token, bool)
	SaveToken(token *entity.Token)

	Pool(id string) (*entity.Pool, bool)
	SavePool(pool *entity.Pool)

	Tick(id string) (*entity.Tick, bool)
	SaveTick(tick *entity.Tick)

	Bundle() (*entity.Bundle, bool)
	SaveBundle(bundle *entity.Bundle)

	Factory() (*entity.Factory, bool)
	SaveFactory(factory *entity.Factory)

	PoolInterval(id string) (*entity.PoolInterval, bool)
	SavePoolInterval(interval *entity.PoolInterval)

	TokenInterval(id string) (*entity.TokenInterval, bool)
	SaveTokenInterval(interval *entity.TokenInterval)

	FactoryInterval(id string) (*entity.FactoryInterval, bool)
	SaveFactoryInterval(interval *entity.FactoryInterval)
}

// Snapshot collects entities changed since the previous flush, for batch
// persistence.
type Snapshot struct {
	Tokens           []*entity.Token
	Pools            []*entity.Pool
	Ticks            []*entity.Tick
	Bundle           *entity.Bundle
	Factory          *entity.Factory
	PoolIntervals    []*entity.PoolInterval
	TokenIntervals   []*entity.TokenInterval
	FactoryIntervals []*entity.FactoryInterval
}

// Empty reports whether the snapshot carries no changes.
func (s Snapshot) Empty() bool {
	return len(s.Tokens) == 0 && len(s.Pools) == 0 && len(s.Ticks) == 0 &&
		s.Bundle == nil && s.Factory == nil &&
		len(s.PoolIntervals) == 0 && len(s.TokenIntervals) == 0 && len(s.FactoryIntervals) == 0
}
