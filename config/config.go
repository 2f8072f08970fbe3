package config

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config carries the node's launchpad settings. Big integer amounts are
// decimal strings so they survive TOML's integer range.
type Config struct {
	RPCAddress          string `toml:"RPCAddress"`
	DataDir             string `toml:"DataDir"`
	NetworkName         string `toml:"NetworkName"`
	BaseAsset           string `toml:"BaseAsset"`
	LoyaltyAsset        string `toml:"LoyaltyAsset"`
	LockDurationSeconds int64  `toml:"LockDurationSeconds"`
	FeeBps              uint32 `toml:"FeeBps"`
	CreatorShareBps     uint32 `toml:"CreatorShareBps"`
	CurveReserve        string `toml:"CurveReserve"`
	CustodyAddress      string `toml:"CustodyAddress"`
	TreasuryAddress     string `toml:"TreasuryAddress"`
	VaultAddress        string `toml:"VaultAddress"`
	RPCRateLimit        int    `toml:"RPCRateLimit"`
}

// Load loads the configuration from the given path, creating a default file
// when none exists.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.RPCAddress) == "" {
		c.RPCAddress = "127.0.0.1:8645"
	}
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = "./persona-data"
	}
	if strings.TrimSpace(c.NetworkName) == "" {
		c.NetworkName = "persona-local"
	}
	if strings.TrimSpace(c.BaseAsset) == "" {
		c.BaseAsset = "unhb"
	}
	if c.LockDurationSeconds <= 0 {
		c.LockDurationSeconds = 86_400
	}
	if c.FeeBps == 0 {
		c.FeeBps = 100
	}
	if c.CreatorShareBps == 0 {
		c.CreatorShareBps = 5_000
	}
	if c.RPCRateLimit <= 0 {
		c.RPCRateLimit = 50
	}
}

// Validate rejects settings the node cannot run with.
func (c *Config) Validate() error {
	if c.FeeBps > 1_000 {
		return fmt.Errorf("config: FeeBps %d exceeds the 10%% cap", c.FeeBps)
	}
	if c.CreatorShareBps > 10_000 {
		return fmt.Errorf("config: CreatorShareBps %d exceeds 10000", c.CreatorShareBps)
	}
	if _, err := c.CurveReserveAmount(); err != nil {
		return err
	}
	return nil
}

// CurveReserveAmount parses the configured virtual pairing reserve. A blank
// value selects the engine default.
func (c *Config) CurveReserveAmount() (*big.Int, error) {
	trimmed := strings.TrimSpace(c.CurveReserve)
	if trimmed == "" {
		return nil, nil
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok || amount.Sign() <= 0 {
		return nil, fmt.Errorf("config: CurveReserve %q is not a positive decimal", c.CurveReserve)
	}
	return amount, nil
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return nil, err
	}
	fmt.Printf("Created default config file at %s\n", path)
	return cfg, nil
}
