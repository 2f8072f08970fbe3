package pairing

import (
	"errors"
	"math/big"
	"strings"

	"personachain/core/events"
	"personachain/core/types"
)

var (
	// ErrNilState reports a registry used before wiring its state backend.
	ErrNilState = errors.New("pairing registry: state not configured")
	// ErrInvalidAsset reports a blank pairing asset identifier.
	ErrInvalidAsset = errors.New("pairing registry: asset identifier required")
	// ErrInvalidMintCost reports a non-positive persona creation cost.
	ErrInvalidMintCost = errors.New("pairing registry: mint cost must be positive")
	// ErrInvalidThreshold reports a non-positive graduation threshold.
	ErrInvalidThreshold = errors.New("pairing registry: graduation threshold must be positive")
	// ErrPairingNotEnabled reports lookups for absent or disabled pairings.
	ErrPairingNotEnabled = errors.New("pairing registry: pairing not enabled")
)

const (
	// EventTypeConfigured is emitted when a pairing asset is configured.
	EventTypeConfigured = "pairing.configured"
	// EventTypeDisabled is emitted when a pairing asset is disabled.
	EventTypeDisabled = "pairing.disabled"
)

// Config captures the launch parameters scoped to one pairing asset. All
// amounts are denominated in that asset's smallest unit; the registry never
// converts across assets of differing precision.
type Config struct {
	Asset               string   `json:"asset"`
	Enabled             bool     `json:"enabled"`
	MintCost            *big.Int `json:"mintCost"`
	GraduationThreshold *big.Int `json:"graduationThreshold"`
}

// Clone returns a deep copy of the config.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	if c.MintCost != nil {
		clone.MintCost = new(big.Int).Set(c.MintCost)
	}
	if c.GraduationThreshold != nil {
		clone.GraduationThreshold = new(big.Int).Set(c.GraduationThreshold)
	}
	return &clone
}

type registryState interface {
	PairingGet(asset string) (*Config, bool, error)
	PairingPut(cfg *Config) error
}

// Registry owns per-asset pairing configuration.
type Registry struct {
	state   registryState
	emitter events.Emitter
}

// NewRegistry constructs a registry with default dependencies.
func NewRegistry() *Registry {
	return &Registry{emitter: events.NoopEmitter{}}
}

// SetState configures the state backend used by the registry.
func (r *Registry) SetState(state registryState) { r.state = state }

// SetEmitter configures the event emitter used by the registry.
func (r *Registry) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		r.emitter = events.NoopEmitter{}
		return
	}
	r.emitter = emitter
}

func (r *Registry) emit(evt *types.Event) {
	if r == nil || evt == nil || r.emitter == nil {
		return
	}
	r.emitter.Emit(wrapEvent(evt))
}

// NormalizeAsset canonicalises asset identifiers for consistent lookups.
func NormalizeAsset(asset string) string {
	return strings.TrimSpace(asset)
}

// Configure inserts or overwrites the pairing config for the supplied asset
// and re-enables it.
func (r *Registry) Configure(asset string, mintCost, graduationThreshold *big.Int) (*Config, error) {
	if r == nil || r.state == nil {
		return nil, ErrNilState
	}
	normalized := NormalizeAsset(asset)
	if normalized == "" {
		return nil, ErrInvalidAsset
	}
	if mintCost == nil || mintCost.Sign() <= 0 {
		return nil, ErrInvalidMintCost
	}
	if graduationThreshold == nil || graduationThreshold.Sign() <= 0 {
		return nil, ErrInvalidThreshold
	}
	cfg := &Config{
		Asset:               normalized,
		Enabled:             true,
		MintCost:            new(big.Int).Set(mintCost),
		GraduationThreshold: new(big.Int).Set(graduationThreshold),
	}
	if err := r.state.PairingPut(cfg); err != nil {
		return nil, err
	}
	r.emit(configuredEvent(cfg))
	return cfg.Clone(), nil
}

// Disable flags the pairing as closed for new persona creation without
// deleting its record. Personas already created against it keep trading.
func (r *Registry) Disable(asset string) error {
	if r == nil || r.state == nil {
		return ErrNilState
	}
	normalized := NormalizeAsset(asset)
	if normalized == "" {
		return ErrInvalidAsset
	}
	cfg, ok, err := r.state.PairingGet(normalized)
	if err != nil {
		return err
	}
	if !ok || cfg == nil {
		return ErrPairingNotEnabled
	}
	cfg.Enabled = false
	if err := r.state.PairingPut(cfg); err != nil {
		return err
	}
	r.emit(disabledEvent(cfg))
	return nil
}

// Get resolves the active config for the supplied asset, failing when the
// pairing is absent or disabled.
func (r *Registry) Get(asset string) (*Config, error) {
	if r == nil || r.state == nil {
		return nil, ErrNilState
	}
	cfg, ok, err := r.state.PairingGet(NormalizeAsset(asset))
	if err != nil {
		return nil, err
	}
	if !ok || cfg == nil || !cfg.Enabled {
		return nil, ErrPairingNotEnabled
	}
	return cfg.Clone(), nil
}

type eventEnvelope struct {
	evt *types.Event
}

func (e eventEnvelope) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e eventEnvelope) Event() *types.Event { return e.evt }

func wrapEvent(evt *types.Event) events.Event { return eventEnvelope{evt: evt} }

func configuredEvent(cfg *Config) *types.Event {
	return &types.Event{
		Type: EventTypeConfigured,
		Attributes: map[string]string{
			"asset":               cfg.Asset,
			"mintCost":            cfg.MintCost.String(),
			"graduationThreshold": cfg.GraduationThreshold.String(),
		},
	}
}

func disabledEvent(cfg *Config) *types.Event {
	return &types.Event{
		Type: EventTypeDisabled,
		Attributes: map[string]string{
			"asset": cfg.Asset,
		},
	}
}
