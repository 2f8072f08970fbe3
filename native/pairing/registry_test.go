package pairing

import (
	"errors"
	"math/big"
	"testing"
)

type mockState struct {
	configs map[string]*Config
}

func newMockState() *mockState {
	return &mockState{configs: make(map[string]*Config)}
}

func (m *mockState) PairingGet(asset string) (*Config, bool, error) {
	cfg, ok := m.configs[asset]
	if !ok {
		return nil, false, nil
	}
	return cfg.Clone(), true, nil
}

func (m *mockState) PairingPut(cfg *Config) error {
	if cfg == nil {
		return nil
	}
	m.configs[cfg.Asset] = cfg.Clone()
	return nil
}

func newRegistry(t *testing.T) (*Registry, *mockState) {
	t.Helper()
	state := newMockState()
	registry := NewRegistry()
	registry.SetState(state)
	return registry, state
}

func TestConfigureValidatesInput(t *testing.T) {
	registry, _ := newRegistry(t)

	if _, err := registry.Configure("  ", big.NewInt(1), big.NewInt(1)); !errors.Is(err, ErrInvalidAsset) {
		t.Fatalf("expected ErrInvalidAsset, got %v", err)
	}
	if _, err := registry.Configure("USDQ", big.NewInt(0), big.NewInt(1)); !errors.Is(err, ErrInvalidMintCost) {
		t.Fatalf("expected ErrInvalidMintCost, got %v", err)
	}
	if _, err := registry.Configure("USDQ", big.NewInt(1), big.NewInt(0)); !errors.Is(err, ErrInvalidThreshold) {
		t.Fatalf("expected ErrInvalidThreshold, got %v", err)
	}
}

func TestConfigureOverwritesAndReenables(t *testing.T) {
	registry, _ := newRegistry(t)

	if _, err := registry.Configure("USDQ", big.NewInt(100), big.NewInt(1_000_000)); err != nil {
		t.Fatalf("configure failed: %v", err)
	}
	if err := registry.Disable("USDQ"); err != nil {
		t.Fatalf("disable failed: %v", err)
	}
	if _, err := registry.Get("USDQ"); !errors.Is(err, ErrPairingNotEnabled) {
		t.Fatalf("expected disabled pairing to fail lookup, got %v", err)
	}

	if _, err := registry.Configure("USDQ", big.NewInt(200), big.NewInt(2_000_000)); err != nil {
		t.Fatalf("reconfigure failed: %v", err)
	}
	cfg, err := registry.Get("USDQ")
	if err != nil {
		t.Fatalf("lookup after reconfigure failed: %v", err)
	}
	if !cfg.Enabled || cfg.MintCost.Cmp(big.NewInt(200)) != 0 {
		t.Fatalf("reconfigure did not overwrite: %+v", cfg)
	}
}

func TestLookupMissingPairing(t *testing.T) {
	registry, _ := newRegistry(t)

	if _, err := registry.Get("UNKNOWN"); !errors.Is(err, ErrPairingNotEnabled) {
		t.Fatalf("expected ErrPairingNotEnabled for missing pairing, got %v", err)
	}
	if err := registry.Disable("UNKNOWN"); !errors.Is(err, ErrPairingNotEnabled) {
		t.Fatalf("expected ErrPairingNotEnabled disabling missing pairing, got %v", err)
	}
}
