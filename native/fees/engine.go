package fees

import (
	"errors"
	"math/big"
)

// BpsDenominator is the basis-point scale shared by every fee parameter.
const BpsDenominator = 10_000

// MaxFeeBps caps the trading fee at 10%.
const MaxFeeBps = 1_000

var (
	// ErrInvalidAmount reports a non-positive trade amount.
	ErrInvalidAmount = errors.New("fees: amount must be positive")
	// ErrFeeTooHigh reports a trading fee above the protocol cap.
	ErrFeeTooHigh = errors.New("fees: fee exceeds maximum basis points")
	// ErrInvalidFeeRange reports an inconsistent creator share or holding range.
	ErrInvalidFeeRange = errors.New("fees: invalid fee range")
	// ErrInvalidMultiplier reports discount multipliers outside basis-point bounds.
	ErrInvalidMultiplier = errors.New("fees: invalid discount multiplier")
)

// Config carries the trading fee parameters applied to every curve purchase.
type Config struct {
	FeeBps          uint32
	CreatorShareBps uint32
}

// Validate checks the config against protocol bounds.
func (c Config) Validate() error {
	if c.FeeBps > MaxFeeBps {
		return ErrFeeTooHigh
	}
	if c.CreatorShareBps > BpsDenominator {
		return ErrInvalidFeeRange
	}
	return nil
}

// ReductionConfig describes the loyalty-holding discount curve: the discount
// grows linearly from MinMultiplierBps at MinHolding to MaxMultiplierBps at
// MaxHolding and clamps to the nearer bound outside that range.
type ReductionConfig struct {
	MinHolding       *big.Int
	MaxHolding       *big.Int
	MinMultiplierBps uint32
	MaxMultiplierBps uint32
}

// Validate checks the reduction curve parameters.
func (c ReductionConfig) Validate() error {
	if c.MinHolding == nil || c.MaxHolding == nil || c.MinHolding.Sign() < 0 {
		return ErrInvalidFeeRange
	}
	if c.MinHolding.Cmp(c.MaxHolding) >= 0 {
		return ErrInvalidFeeRange
	}
	if c.MaxMultiplierBps > BpsDenominator || c.MinMultiplierBps > c.MaxMultiplierBps {
		return ErrInvalidMultiplier
	}
	return nil
}

// Clone returns a deep copy of the reduction config.
func (c *ReductionConfig) Clone() *ReductionConfig {
	if c == nil {
		return nil
	}
	clone := *c
	if c.MinHolding != nil {
		clone.MinHolding = new(big.Int).Set(c.MinHolding)
	}
	if c.MaxHolding != nil {
		clone.MaxHolding = new(big.Int).Set(c.MaxHolding)
	}
	return &clone
}

// Breakdown splits a computed fee between the persona creator and protocol.
type Breakdown struct {
	Total    *big.Int
	Creator  *big.Int
	Protocol *big.Int
}

// Engine computes trading fee deductions and their creator/protocol split.
type Engine struct {
	config    Config
	reduction *ReductionConfig
}

// NewEngine constructs a fee engine with the supplied base config.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{config: cfg}, nil
}

// SetConfig replaces the trading fee parameters.
func (e *Engine) SetConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	e.config = cfg
	return nil
}

// Config returns the active trading fee parameters.
func (e *Engine) Config() Config { return e.config }

// SetReduction installs or replaces the loyalty discount curve. A nil config
// removes the discount entirely.
func (e *Engine) SetReduction(cfg *ReductionConfig) error {
	if cfg == nil {
		e.reduction = nil
		return nil
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	e.reduction = cfg.Clone()
	return nil
}

// Reduction returns the active discount curve, or nil when none is set.
func (e *Engine) Reduction() *ReductionConfig { return e.reduction.Clone() }

// discountBps interpolates the discount earned by the supplied loyalty
// balance, clamped to the curve bounds.
func (e *Engine) discountBps(loyaltyBalance *big.Int) uint32 {
	cfg := e.reduction
	if cfg == nil {
		return 0
	}
	balance := loyaltyBalance
	if balance == nil {
		balance = big.NewInt(0)
	}
	if balance.Cmp(cfg.MinHolding) <= 0 {
		return cfg.MinMultiplierBps
	}
	if balance.Cmp(cfg.MaxHolding) >= 0 {
		return cfg.MaxMultiplierBps
	}
	span := new(big.Int).Sub(cfg.MaxHolding, cfg.MinHolding)
	position := new(big.Int).Sub(balance, cfg.MinHolding)
	width := uint64(cfg.MaxMultiplierBps - cfg.MinMultiplierBps)
	extra := new(big.Int).Mul(position, new(big.Int).SetUint64(width))
	extra = extra.Quo(extra, span)
	return cfg.MinMultiplierBps + uint32(extra.Uint64())
}

// Compute applies the trading fee to amountIn and splits it between creator
// and protocol. The split is exact: Creator + Protocol == Total for every
// input.
func (e *Engine) Compute(amountIn, loyaltyBalance *big.Int) (Breakdown, error) {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return Breakdown{}, ErrInvalidAmount
	}
	total := new(big.Int).Mul(amountIn, new(big.Int).SetUint64(uint64(e.config.FeeBps)))
	total = total.Quo(total, big.NewInt(BpsDenominator))

	if discount := e.discountBps(loyaltyBalance); discount > 0 {
		retained := uint64(BpsDenominator - discount)
		total = total.Mul(total, new(big.Int).SetUint64(retained))
		total = total.Quo(total, big.NewInt(BpsDenominator))
	}

	creator := new(big.Int).Mul(total, new(big.Int).SetUint64(uint64(e.config.CreatorShareBps)))
	creator = creator.Quo(creator, big.NewInt(BpsDenominator))
	protocol := new(big.Int).Sub(total, creator)
	return Breakdown{Total: total, Creator: creator, Protocol: protocol}, nil
}
