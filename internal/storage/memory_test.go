package storage

import (
	"context"
	"testing"
)

func TestMemoryStore_GetSetRemoveClear(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	if _, ok, err := m.Get(ctx, "items"); err != nil || ok {
		t.Fatalf("expected absent key, got ok=%v err=%v", ok, err)
	}

	if err := m.Set(ctx, "items", "[]"); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	v, ok, err := m.Get(ctx, "items")
	if err != nil || !ok || v != "[]" {
		t.Fatalf("unexpected get: %q %v %v", v, ok, err)
	}

	if err := m.Remove(ctx, "items"); err != nil {
		t.Fatalf("Remove error: %v", err)
	}
	if _, ok, _ := m.Get(ctx, "items"); ok {
		t.Fatalf("expected key removed")
	}

	_ = m.Set(ctx, "a", "1")
	_ = m.Set(ctx, "b", "2")
	if err := m.Clear(ctx); err != nil {
		t.Fatalf("Clear error: %v", err)
	}
	if _, ok, _ := m.Get(ctx, "a"); ok {
		t.Fatalf("expected store cleared")
	}
}
