package config

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadCreatesDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load missing config: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config not written: %v", err)
	}
	if cfg.RPCAddress != "127.0.0.1:8645" || cfg.BaseAsset != "unhb" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.LockDurationSeconds != 86_400 || cfg.FeeBps != 100 {
		t.Fatalf("unexpected launchpad defaults: %+v", cfg)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload written config: %v", err)
	}
	if reloaded.RPCAddress != cfg.RPCAddress || reloaded.NetworkName != cfg.NetworkName {
		t.Fatalf("reloaded config diverged: %+v", reloaded)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
RPCAddress = "0.0.0.0:9000"
NetworkName = "persona-test"
LoyaltyAsset = "amica"
LockDurationSeconds = 3600
FeeBps = 250
CurveReserve = "250000000000000000000000"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.RPCAddress != "0.0.0.0:9000" || cfg.LoyaltyAsset != "amica" || cfg.FeeBps != 250 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	reserve, err := cfg.CurveReserveAmount()
	if err != nil {
		t.Fatalf("curve reserve: %v", err)
	}
	want, _ := new(big.Int).SetString("250000000000000000000000", 10)
	if reserve.Cmp(want) != 0 {
		t.Fatalf("curve reserve: got %s want %s", reserve, want)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("FeeBps = 5000\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected fee cap violation")
	}

	if err := os.WriteFile(path, []byte("CurveReserve = \"banana\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected curve reserve parse failure")
	}
}
