package treasury

import (
	"encoding/hex"
	"errors"
	"math/big"
	"strings"

	"personachain/core/events"
	"personachain/core/types"
)

var (
	// ErrNilState reports an engine used before wiring its state backend.
	ErrNilState = errors.New("treasury engine: state not configured")
	// ErrVaultNotSet reports an engine without a configured vault account.
	ErrVaultNotSet = errors.New("treasury engine: vault not configured")
	// ErrInvalidAmount reports a non-positive deposit or burn amount.
	ErrInvalidAmount = errors.New("treasury engine: amount must be positive")
	// ErrInvalidAsset reports a blank asset identifier.
	ErrInvalidAsset = errors.New("treasury engine: asset identifier required")
	// ErrInsufficientBalance reports a claimant without enough of the base asset.
	ErrInsufficientBalance = errors.New("treasury engine: insufficient balance")
	// ErrInvalidSelection reports a claim list that is empty, unsorted, or
	// contains duplicates.
	ErrInvalidSelection = errors.New("treasury engine: claim selection must be sorted and unique")
	// ErrNothingToClaim reports a claim whose every share truncates to zero.
	ErrNothingToClaim = errors.New("treasury engine: nothing to claim")
	// ErrSupplyExhausted reports burn bookkeeping past the base supply.
	ErrSupplyExhausted = errors.New("treasury engine: circulating supply exhausted")
)

const (
	// EventTypeDeposited is emitted when assets enter the treasury.
	EventTypeDeposited = "treasury.deposited"
	// EventTypeClaimed is emitted when a burn-and-claim settles.
	EventTypeClaimed = "treasury.claimed"
)

type engineState interface {
	GetAccount(addr [20]byte) (*types.Account, error)
	PutAccount(addr [20]byte, account *types.Account) error
	TreasuryDepositGet(asset string) (*big.Int, error)
	TreasuryDepositPut(asset string, amount *big.Int) error
	TreasuryBurnedTotal() (*big.Int, error)
	SetTreasuryBurnedTotal(amount *big.Int) error
}

// Engine accumulates treasury deposits per asset and settles proportional
// burn-and-claim redemptions against the base asset's circulating supply.
type Engine struct {
	state      engineState
	emitter    events.Emitter
	vault      [20]byte
	baseAsset  string
	baseSupply *big.Int
}

// NewEngine constructs a treasury engine for the supplied base asset and its
// fixed total supply.
func NewEngine(baseAsset string, baseSupply *big.Int) *Engine {
	supply := big.NewInt(0)
	if baseSupply != nil {
		supply = new(big.Int).Set(baseSupply)
	}
	return &Engine{
		emitter:    events.NoopEmitter{},
		baseAsset:  strings.TrimSpace(baseAsset),
		baseSupply: supply,
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetEmitter configures the event emitter used by the engine.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetVault configures the account that custodies deposited assets.
func (e *Engine) SetVault(addr [20]byte) { e.vault = addr }

// VaultAddress returns the treasury custody account.
func (e *Engine) VaultAddress() [20]byte { return e.vault }

func (e *Engine) emit(evt *types.Event) {
	if e == nil || evt == nil || e.emitter == nil {
		return
	}
	e.emitter.Emit(eventEnvelope{evt: evt})
}

func isZeroAddress(addr [20]byte) bool {
	var zero [20]byte
	return addr == zero
}

func hexAddr(addr [20]byte) string {
	return "0x" + hex.EncodeToString(addr[:])
}

// RecordDeposit bumps the per-asset deposit meter for funds that were already
// transferred into the vault by the caller. The issuance engine uses this
// path so its balance moves stay atomic with the rest of a graduation.
func (e *Engine) RecordDeposit(asset string, amount *big.Int) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	normalized := strings.TrimSpace(asset)
	if normalized == "" {
		return ErrInvalidAsset
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	deposited, err := e.state.TreasuryDepositGet(normalized)
	if err != nil {
		return err
	}
	if err := e.state.TreasuryDepositPut(normalized, new(big.Int).Add(deposited, amount)); err != nil {
		return err
	}
	e.emit(depositedEvent(normalized, amount))
	return nil
}

// Deposit moves assets from the supplied account into the vault and records
// them as treasury holdings.
func (e *Engine) Deposit(asset string, from [20]byte, amount *big.Int) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if isZeroAddress(e.vault) {
		return ErrVaultNotSet
	}
	normalized := strings.TrimSpace(asset)
	if normalized == "" {
		return ErrInvalidAsset
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	fromAccount, err := e.state.GetAccount(from)
	if err != nil {
		return err
	}
	balance := fromAccount.BalanceOf(normalized)
	if balance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	vaultAccount, err := e.state.GetAccount(e.vault)
	if err != nil {
		return err
	}
	fromAccount.SetBalance(normalized, balance.Sub(balance, amount))
	vaultAccount.SetBalance(normalized, new(big.Int).Add(vaultAccount.BalanceOf(normalized), amount))
	if err := e.state.PutAccount(from, fromAccount); err != nil {
		return err
	}
	if err := e.state.PutAccount(e.vault, vaultAccount); err != nil {
		return err
	}
	return e.RecordDeposit(normalized, amount)
}

// DepositedBalance returns the treasury's recorded holdings for an asset.
func (e *Engine) DepositedBalance(asset string) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	return e.state.TreasuryDepositGet(strings.TrimSpace(asset))
}

// ClaimPortion reports the amount settled for one asset in a claim.
type ClaimPortion struct {
	Asset  string   `json:"asset"`
	Amount *big.Int `json:"amount"`
}

func validSelection(assets []string) bool {
	if len(assets) == 0 {
		return false
	}
	for i, asset := range assets {
		if strings.TrimSpace(asset) == "" {
			return false
		}
		if i > 0 && assets[i-1] >= asset {
			return false
		}
	}
	return true
}

// Claim burns the holder's base-asset amount and settles a proportional share
// of each selected treasury asset. The asset list must be strictly ascending
// and unique; shares truncate toward zero in the treasury's favour.
func (e *Engine) Claim(holder [20]byte, burnAmount *big.Int, assets []string) ([]ClaimPortion, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if isZeroAddress(e.vault) {
		return nil, ErrVaultNotSet
	}
	if burnAmount == nil || burnAmount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if !validSelection(assets) {
		return nil, ErrInvalidSelection
	}

	holderAccount, err := e.state.GetAccount(holder)
	if err != nil {
		return nil, err
	}
	baseBalance := holderAccount.BalanceOf(e.baseAsset)
	if baseBalance.Cmp(burnAmount) < 0 {
		return nil, ErrInsufficientBalance
	}
	burned, err := e.state.TreasuryBurnedTotal()
	if err != nil {
		return nil, err
	}
	circulating := new(big.Int).Sub(e.baseSupply, burned)
	if circulating.Sign() <= 0 {
		return nil, ErrSupplyExhausted
	}

	vaultAccount, err := e.state.GetAccount(e.vault)
	if err != nil {
		return nil, err
	}

	portions := make([]ClaimPortion, 0, len(assets))
	deposits := make(map[string]*big.Int, len(assets))
	anyPositive := false
	for _, asset := range assets {
		deposited, err := e.state.TreasuryDepositGet(asset)
		if err != nil {
			return nil, err
		}
		share := new(big.Int).Mul(deposited, burnAmount)
		share = share.Quo(share, circulating)
		if share.Sign() > 0 {
			anyPositive = true
		}
		portions = append(portions, ClaimPortion{Asset: asset, Amount: share})
		deposits[asset] = new(big.Int).Sub(deposited, share)
	}
	if !anyPositive {
		return nil, ErrNothingToClaim
	}

	holderAccount.SetBalance(e.baseAsset, baseBalance.Sub(baseBalance, burnAmount))
	for _, portion := range portions {
		if portion.Amount.Sign() == 0 {
			continue
		}
		holderAccount.SetBalance(portion.Asset, new(big.Int).Add(holderAccount.BalanceOf(portion.Asset), portion.Amount))
		vaultAccount.SetBalance(portion.Asset, new(big.Int).Sub(vaultAccount.BalanceOf(portion.Asset), portion.Amount))
	}
	if err := e.state.PutAccount(holder, holderAccount); err != nil {
		return nil, err
	}
	if err := e.state.PutAccount(e.vault, vaultAccount); err != nil {
		return nil, err
	}
	for asset, remaining := range deposits {
		if err := e.state.TreasuryDepositPut(asset, remaining); err != nil {
			return nil, err
		}
	}
	if err := e.state.SetTreasuryBurnedTotal(new(big.Int).Add(burned, burnAmount)); err != nil {
		return nil, err
	}
	e.emit(claimedEvent(holder, burnAmount, portions))
	return portions, nil
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

func depositedEvent(asset string, amount *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeDeposited,
		Attributes: map[string]string{
			"asset":  asset,
			"amount": amount.String(),
		},
	}
}

func claimedEvent(holder [20]byte, burned *big.Int, portions []ClaimPortion) *types.Event {
	attrs := map[string]string{
		"holder": hexAddr(holder),
		"burned": burned.String(),
	}
	for _, portion := range portions {
		attrs["claimed:"+portion.Asset] = portion.Amount.String()
	}
	return &types.Event{Type: EventTypeClaimed, Attributes: attrs}
}
