package store

import (
	"sort"

	"poolLedger/internal/entity"
)

// Memory is the in-process entity store. Event handlers mutate copies and
// save them back; Flush drains everything changed since the last Flush so
// a persistence layer can batch-upsert it.
type Memory struct {
	tokens           map[string]*entity.Token
	pools            map[string]*entity.Pool
	ticks            map[string]*entity.Tick
	bundle           *entity.Bundle
	factory          *entity.Factory
	poolIntervals    map[string]*entity.PoolInterval
	tokenIntervals   map[string]*entity.TokenInterval
	factoryIntervals map[string]*entity.FactoryInterval

	dirty dirtySet
}

type dirtySet struct {
	tokens           map[string]struct{}
	pools            map[string]struct{}
	ticks            map[string]struct{}
	bundle           bool
	factory          bool
	poolIntervals    map[string]struct{}
	tokenIntervals   map[string]struct{}
	factoryIntervals map[string]struct{}
}

func newDirtySet() dirtySet {
	return dirtySet{
		tokens:           make(map[string]struct{}),
		pools:            make(map[string]struct{}),
		ticks:            make(map[string]struct{}),
		poolIntervals:    make(map[string]struct{}),
		tokenIntervals:   make(map[string]struct{}),
		factoryIntervals: make(map[string]struct{}),
	}
}

func NewMemory() *Memory {
	return &Memory{
		tokens:           make(map[string]*entity.Token),
		pools:            make(map[string]*entity.Pool),
		ticks:            make(map[string]*entity.Tick),
		poolIntervals:    make(map[string]*entity.PoolInterval),
		tokenIntervals:   make(map[string]*entity.TokenInterval),
		factoryIntervals: make(map[string]*entity.FactoryInterval),
		dirty:            newDirtySet(),
	}
}

func (m *Memory) Token(id string) (*entity.Token, bool) {
	token, ok := m.tokens[id]
	return token.Clone(), ok
}

func (m *Memory) SaveToken(token *entity.Token) {
	m.tokens[token.ID] = token.Clone()
	m.dirty.tokens[token.ID] = struct{}{}
}

func (m *Memory) Pool(id string) (*entity.Pool, bool) {
	pool, ok := m.pools[id]
	return pool.Clone(), ok
}

func (m *Memory) SavePool(pool *entity.Pool) {
	m.pools[pool.ID] = pool.Clone()
	m.dirty.pools[pool.ID] = struct{}{}
}

func (m *Memory) Tick(id string) (*entity.Tick, bool) {
	tick, ok := m.ticks[id]
	return tick.Clone(), ok
}

func (m *Memory) SaveTick(tick *entity.Tick) {
	m.ticks[tick.ID] = tick.Clone()
	m.dirty.ticks[tick.ID] = struct{}{}
}

func (m *Memory) Bundle() (*entity.Bundle, bool) {
	return m.bundle.Clone(), m.bundle != nil
}

func (m *Memory) SaveBundle(bundle *entity.Bundle) {
	m.bundle = bundle.Clone()
	m.dirty.bundle = true
}

func (m *Memory) Factory() (*entity.Factory, bool) {
	return m.factory.Clone(), m.factory != nil
}

func (m *Memory) SaveFactory(factory *entity.Factory) {
	m.factory = factory.Clone()
	m.dirty.factory = true
}

func (m *Memory) PoolInterval(id string) (*entity.PoolInterval, bool) {
	interval, ok := m.poolIntervals[id]
	return interval.Clone(), ok
}

func (m *Memory) SavePoolInterval(interval *entity.PoolInterval) {
	m.poolIntervals[interval.ID] = interval.Clone()
	m.dirty.poolIntervals[interval.ID] = struct{}{}
}

func (m *Memory) TokenInterval(id string) (*entity.TokenInterval, bool) {
	interval, ok := m.tokenIntervals[id]
	return interval.Clone(), ok
}

func (m *Memory) SaveTokenInterval(interval *entity.TokenInterval) {
	m.tokenIntervals[interval.ID] = interval.Clone()
	m.dirty.tokenIntervals[interval.ID] = struct{}{}
}

func (m *Memory) FactoryInterval(id string) (*entity.FactoryInterval, bool) {
	interval, ok := m.factoryIntervals[id]
	return interval.Clone(), ok
}

func (m *Memory) SaveFactoryInterval(interval *entity.FactoryInterval) {
	m.factoryIntervals[interval.ID] = interval.Clone()
	m.dirty.factoryIntervals[interval.ID] = struct{}{}
}

// Flush returns every entity changed since the previous Flush and resets
// the dirty tracking. Order is deterministic (sorted by id).
func (m *Memory) Flush() Snapshot {
	snap := Snapshot{}

	for _, id := range sortedKeys(m.dirty.tokens) {
		snap.Tokens = append(snap.Tokens, m.tokens[id].Clone())
	}
	for _, id := range sortedKeys(m.dirty.pools) {
		snap.Pools = append(snap.Pools, m.pools[id].Clone())
	}
	for _, id := range sortedKeys(m.dirty.ticks) {
		snap.Ticks = append(snap.Ticks, m.ticks[id].Clone())
	}
	if m.dirty.bundle {
		snap.Bundle = m.bundle.Clone()
	}
	if m.dirty.factory {
		snap.Factory = m.factory.Clone()
	}
	for _, id := range sortedKeys(m.dirty.poolIntervals) {
		snap.PoolIntervals = append(snap.PoolIntervals, m.poolIntervals[id].Clone())
	}
	for _, id := range sortedKeys(m.dirty.tokenIntervals) {
		snap.TokenIntervals = append(snap.TokenIntervals, m.tokenIntervals[id].Clone())
	}
	for _, id := range sortedKeys(m.dirty.factoryIntervals) {
		snap.FactoryIntervals = append(snap.FactoryIntervals, m.factoryIntervals[id].Clone())
	}

	m.dirty = newDirtySet()
	return snap
}

// Pools returns all pool ids currently materialized.
func (m *Memory) Pools() []string {
	ids := make([]string, 0, len(m.pools))
	for id := range m.pools {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
