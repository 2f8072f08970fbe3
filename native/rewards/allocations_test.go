package rewards

import (
	"errors"
	"testing"
)

type mockState struct {
	allocations []PoolAllocation
}

func (m *mockState) RewardAllocationsGet() ([]PoolAllocation, error) {
	out := make([]PoolAllocation, len(m.allocations))
	copy(out, m.allocations)
	return out, nil
}

func (m *mockState) RewardAllocationsPut(allocations []PoolAllocation) error {
	m.allocations = make([]PoolAllocation, len(allocations))
	copy(m.allocations, allocations)
	return nil
}

func TestRegisterPoolEnforcesAggregateCap(t *testing.T) {
	registry := NewRegistry()
	registry.SetState(&mockState{})

	if err := registry.RegisterPool("curve-buyers", 6_000); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := registry.RegisterPool("agent-holders", 3_000); err != nil {
		t.Fatalf("second register failed: %v", err)
	}
	if err := registry.RegisterPool("creators", 2_000); !errors.Is(err, ErrTotalAllocationExceeds100) {
		t.Fatalf("expected ErrTotalAllocationExceeds100, got %v", err)
	}

	// Updating an existing pool replaces its share rather than stacking it.
	if err := registry.RegisterPool("curve-buyers", 7_000); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	allocations, err := registry.Allocations()
	if err != nil {
		t.Fatalf("allocations failed: %v", err)
	}
	if len(allocations) != 2 {
		t.Fatalf("unexpected pool count: %d", len(allocations))
	}
}

func TestRegisterPoolValidatesInput(t *testing.T) {
	registry := NewRegistry()
	registry.SetState(&mockState{})

	if err := registry.RegisterPool("  ", 100); !errors.Is(err, ErrInvalidPool) {
		t.Fatalf("expected ErrInvalidPool, got %v", err)
	}
	if err := registry.RegisterPool("over", BpsDenominator+1); !errors.Is(err, ErrInvalidShare) {
		t.Fatalf("expected ErrInvalidShare, got %v", err)
	}
}
