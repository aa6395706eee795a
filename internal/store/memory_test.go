package store

import (
	"math/big"
	"testing"

	"poolLedger/internal/entity"
)

func TestMemoryIsolatesLoadedCopies(t *testing.T) {
	m := NewMemory()

	pool := entity.NewPool("0x1", "0xa", "0xb", 3000, 1, 1)
	pool.Liquidity = big.NewInt(100)
	m.SavePool(pool)

	// Mutating the saved original must not leak into the store.
	pool.Liquidity.SetInt64(999)
	stored, ok := m.Pool("0x1")
	if !ok {
		t.Fatalf("pool missing")
	}
	if stored.Liquidity.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("stored liquidity = %s", stored.Liquidity)
	}

	// Mutating a loaded copy without saving must not be visible either.
	stored.Liquidity.SetInt64(7)
	stored.TxCount = 42
	again, _ := m.Pool("0x1")
	if again.Liquidity.Cmp(big.NewInt(100)) != 0 || again.TxCount != 0 {
		t.Fatalf("unsaved mutation leaked: %+v", again)
	}
}

func TestMemoryMissingEntities(t *testing.T) {
	m := NewMemory()

	if _, ok := m.Pool("0x1"); ok {
		t.Fatalf("unexpected pool")
	}
	if _, ok := m.Token("0xa"); ok {
		t.Fatalf("unexpected token")
	}
	if _, ok := m.Bundle(); ok {
		t.Fatalf("unexpected bundle")
	}
	if _, ok := m.Factory(); ok {
		t.Fatalf("unexpected factory")
	}
	if _, ok := m.Tick(entity.TickID("0x1", 60)); ok {
		t.Fatalf("unexpected tick")
	}
}

func TestMemoryFlushDrainsDirtyEntities(t *testing.T) {
	m := NewMemory()

	m.SaveToken(entity.NewToken("0xb"))
	m.SaveToken(entity.NewToken("0xa"))
	m.SavePool(entity.NewPool("0x1", "0xa", "0xb", 3000, 1, 1))
	m.SaveBundle(entity.NewBundle())

	snap := m.Flush()
	if len(snap.Tokens) != 2 || len(snap.Pools) != 1 {
		t.Fatalf("snapshot sizes: tokens=%d pools=%d", len(snap.Tokens), len(snap.Pools))
	}
	if snap.Tokens[0].ID != "0xa" || snap.Tokens[1].ID != "0xb" {
		t.Fatalf("snapshot order: %s, %s", snap.Tokens[0].ID, snap.Tokens[1].ID)
	}
	if snap.Bundle == nil {
		t.Fatalf("bundle missing from snapshot")
	}
	if snap.Factory != nil {
		t.Fatalf("untouched factory must not flush")
	}

	// A second flush with no writes is empty.
	if !m.Flush().Empty() {
		t.Fatalf("flush must reset dirty tracking")
	}

	// Only re-saved entities show up again.
	token, _ := m.Token("0xa")
	token.TxCount = 1
	m.SaveToken(token)
	snap = m.Flush()
	if len(snap.Tokens) != 1 || snap.Tokens[0].ID != "0xa" || len(snap.Pools) != 0 {
		t.Fatalf("incremental snapshot: %+v", snap)
	}
}

func TestMemoryPools(t *testing.T) {
	m := NewMemory()
	m.SavePool(entity.NewPool("0x2", "0xa", "0xb", 3000, 1, 1))
	m.SavePool(entity.NewPool("0x1", "0xa", "0xb", 500, 1, 1))

	ids := m.Pools()
	if len(ids) != 2 || ids[0] != "0x1" || ids[1] != "0x2" {
		t.Fatalf("pool ids = %v", ids)
	}
}
