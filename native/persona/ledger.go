package persona

import (
	"math/big"
	"strings"
	"time"

	"personachain/core/events"
	"personachain/core/types"
	"personachain/native/pairing"
)

// DefaultLockDuration gates withdrawal of curve purchases until a persona
// graduates or the lock matures.
const DefaultLockDuration = 24 * 60 * 60

type engineState interface {
	PersonaGet(id uint64) (*Persona, bool, error)
	PersonaPut(p *Persona) error
	PersonaLockGet(personaID uint64, buyer [20]byte) (*LockLedger, bool, error)
	PersonaLockPut(personaID uint64, buyer [20]byte, ledger *LockLedger) error
	GetAccount(addr [20]byte) (*types.Account, error)
	PutAccount(addr [20]byte, account *types.Account) error
}

// IdentityRegistry is the ownership collaborator consumed by the ledger. The
// launchpad only mints ids and reads owners; transfer mechanics live in the
// registry itself.
type IdentityRegistry interface {
	MintIdentity(owner [20]byte) (uint64, error)
	OwnerOf(id uint64) ([20]byte, error)
}

// PairingSource resolves launch parameters for enabled pairing assets.
type PairingSource interface {
	Get(asset string) (*pairing.Config, error)
}

// Ledger owns persona records and per-buyer purchase locks.
type Ledger struct {
	state            engineState
	emitter          events.Emitter
	nowFn            func() int64
	identity         IdentityRegistry
	pairings         PairingSource
	custody          [20]byte
	protocolTreasury [20]byte
	lockDuration     int64
}

// NewLedger constructs a persona ledger with default dependencies.
func NewLedger() *Ledger {
	return &Ledger{
		emitter:      events.NoopEmitter{},
		nowFn:        func() int64 { return time.Now().Unix() },
		lockDuration: DefaultLockDuration,
	}
}

// SetState configures the state backend used by the ledger.
func (l *Ledger) SetState(state engineState) { l.state = state }

// SetEmitter configures the event emitter used by the ledger.
func (l *Ledger) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		l.emitter = events.NoopEmitter{}
		return
	}
	l.emitter = emitter
}

// SetNowFunc overrides the time source for deterministic testing.
func (l *Ledger) SetNowFunc(now func() int64) {
	if now == nil {
		l.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	l.nowFn = now
}

// SetIdentity wires the ownership registry collaborator.
func (l *Ledger) SetIdentity(registry IdentityRegistry) { l.identity = registry }

// SetPairings wires the pairing-asset registry.
func (l *Ledger) SetPairings(source PairingSource) { l.pairings = source }

// SetCustody configures the account holding minted supply and curve deposits.
func (l *Ledger) SetCustody(addr [20]byte) { l.custody = addr }

// SetProtocolTreasury configures the account receiving mint costs and the
// protocol's fee share.
func (l *Ledger) SetProtocolTreasury(addr [20]byte) { l.protocolTreasury = addr }

// SetLockDuration overrides the purchase lock window, in seconds.
func (l *Ledger) SetLockDuration(seconds int64) {
	if seconds <= 0 {
		l.lockDuration = DefaultLockDuration
		return
	}
	l.lockDuration = seconds
}

// LockDuration returns the active lock window in seconds.
func (l *Ledger) LockDuration() int64 { return l.lockDuration }

func (l *Ledger) emit(evt *types.Event) {
	if l == nil || evt == nil || l.emitter == nil {
		return
	}
	l.emitter.Emit(WrapEvent(evt))
}

func (l *Ledger) now() int64 {
	if l == nil || l.nowFn == nil {
		return time.Now().Unix()
	}
	return l.nowFn()
}

func isZeroAddress(addr [20]byte) bool {
	var zero [20]byte
	return addr == zero
}

func (l *Ledger) ready() error {
	if l == nil || l.state == nil {
		return ErrNilState
	}
	if isZeroAddress(l.custody) {
		return ErrCustodyNotSet
	}
	if isZeroAddress(l.protocolTreasury) {
		return ErrTreasuryNotSet
	}
	return nil
}

func validMetadata(keys, values []string) bool {
	return len(keys) == len(values)
}

func buildMetadata(keys, values []string) []MetadataPair {
	if len(keys) == 0 {
		return nil
	}
	out := make([]MetadataPair, 0, len(keys))
	for i := range keys {
		out = append(out, MetadataPair{Key: keys[i], Value: values[i]})
	}
	return out
}

// CreatePersona validates inputs, charges the pairing asset's mint cost,
// assigns the next identity id and mints the persona token supply into
// custody. A non-empty agentToken selects the co-funded allocation variant.
// The treasury-pool share stays in custody until graduation.
func (l *Ledger) CreatePersona(creator [20]byte, name, symbol, pairingAsset, agentToken string, metadataKeys, metadataValues []string) (*Persona, error) {
	if err := l.ready(); err != nil {
		return nil, err
	}
	if l.identity == nil {
		return nil, ErrIdentityNotSet
	}
	if l.pairings == nil {
		return nil, ErrNilState
	}
	trimmedName := strings.TrimSpace(name)
	if len(trimmedName) < MinNameLength || len(trimmedName) > MaxNameLength {
		return nil, ErrInvalidName
	}
	trimmedSymbol := strings.TrimSpace(symbol)
	if len(trimmedSymbol) < MinSymbolLength || len(trimmedSymbol) > MaxSymbolLength {
		return nil, ErrInvalidSymbol
	}
	if !validMetadata(metadataKeys, metadataValues) {
		return nil, ErrMetadataMismatch
	}
	cfg, err := l.pairings.Get(pairingAsset)
	if err != nil {
		return nil, err
	}

	creatorAccount, err := l.state.GetAccount(creator)
	if err != nil {
		return nil, err
	}
	balance := creatorAccount.BalanceOf(cfg.Asset)
	if balance.Cmp(cfg.MintCost) < 0 {
		return nil, ErrInsufficientBalance
	}

	id, err := l.identity.MintIdentity(creator)
	if err != nil {
		return nil, err
	}

	allocation := StandardAllocation()
	if strings.TrimSpace(agentToken) != "" {
		allocation = AgentAllocation()
	}
	record := &Persona{
		ID:                  id,
		Name:                trimmedName,
		Symbol:              trimmedSymbol,
		Creator:             creator,
		FeeRecipient:        creator,
		PairingAsset:        cfg.Asset,
		IssuedToken:         TokenAssetID(id, trimmedSymbol),
		AgentToken:          strings.TrimSpace(agentToken),
		Allocation:          allocation,
		GraduationThreshold: new(big.Int).Set(cfg.GraduationThreshold),
		TotalDeposited:      big.NewInt(0),
		TokensSold:          big.NewInt(0),
		Metadata:            buildMetadata(metadataKeys, metadataValues),
		CreatedAt:           l.now(),
	}

	treasuryAccount, err := l.state.GetAccount(l.protocolTreasury)
	if err != nil {
		return nil, err
	}
	custodyAccount, err := l.state.GetAccount(l.custody)
	if err != nil {
		return nil, err
	}
	creatorAccount.SetBalance(cfg.Asset, balance.Sub(balance, cfg.MintCost))
	treasuryAccount.SetBalance(cfg.Asset, new(big.Int).Add(treasuryAccount.BalanceOf(cfg.Asset), cfg.MintCost))
	custodyAccount.SetBalance(record.IssuedToken, new(big.Int).Set(TokenTotalSupply))

	if err := l.state.PutAccount(creator, creatorAccount); err != nil {
		return nil, err
	}
	if err := l.state.PutAccount(l.protocolTreasury, treasuryAccount); err != nil {
		return nil, err
	}
	if err := l.state.PutAccount(l.custody, custodyAccount); err != nil {
		return nil, err
	}
	if err := l.state.PersonaPut(record); err != nil {
		return nil, err
	}
	l.emit(createdEvent(record))
	return record.Clone(), nil
}

// Get returns the persona record for the supplied id.
func (l *Ledger) Get(id uint64) (*Persona, error) {
	if l == nil || l.state == nil {
		return nil, ErrNilState
	}
	record, ok, err := l.state.PersonaGet(id)
	if err != nil {
		return nil, err
	}
	if !ok || record == nil {
		return nil, ErrPersonaNotFound
	}
	return record.Clone(), nil
}

// UpdateMetadata upserts metadata pairs on an existing persona. Only the
// current identity owner may update; insertion order of new keys is kept.
func (l *Ledger) UpdateMetadata(id uint64, caller [20]byte, keys, values []string) (*Persona, error) {
	if l == nil || l.state == nil {
		return nil, ErrNilState
	}
	if l.identity == nil {
		return nil, ErrIdentityNotSet
	}
	if !validMetadata(keys, values) || len(keys) == 0 {
		return nil, ErrMetadataMismatch
	}
	record, ok, err := l.state.PersonaGet(id)
	if err != nil {
		return nil, err
	}
	if !ok || record == nil {
		return nil, ErrPersonaNotFound
	}
	owner, err := l.identity.OwnerOf(id)
	if err != nil {
		return nil, err
	}
	if owner != caller {
		return nil, ErrUnauthorized
	}
	for i := range keys {
		replaced := false
		for j := range record.Metadata {
			if record.Metadata[j].Key == keys[i] {
				record.Metadata[j].Value = values[i]
				replaced = true
				break
			}
		}
		if !replaced {
			record.Metadata = append(record.Metadata, MetadataPair{Key: keys[i], Value: values[i]})
		}
	}
	if err := l.state.PersonaPut(record); err != nil {
		return nil, err
	}
	l.emit(metadataUpdatedEvent(id, caller, keys))
	return record.Clone(), nil
}

// RecordPurchase appends a locked purchase to the buyer's lock ledger. Token
// balances are settled by the issuance engine; this method only maintains the
// withdrawal-gating ledger.
func (l *Ledger) RecordPurchase(personaID uint64, buyer [20]byte, amount *big.Int, now int64) error {
	if l == nil || l.state == nil {
		return ErrNilState
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	locks, ok, err := l.state.PersonaLockGet(personaID, buyer)
	if err != nil {
		return err
	}
	if !ok || locks == nil {
		locks = &LockLedger{}
	}
	locks.Append(amount, now)
	return l.state.PersonaLockPut(personaID, buyer, locks)
}

// Withdrawable returns the indices and total amount currently releasable for
// the buyer.
func (l *Ledger) Withdrawable(personaID uint64, buyer [20]byte) ([]uint32, *big.Int, error) {
	if l == nil || l.state == nil {
		return nil, nil, ErrNilState
	}
	record, ok, err := l.state.PersonaGet(personaID)
	if err != nil {
		return nil, nil, err
	}
	if !ok || record == nil {
		return nil, nil, ErrPersonaNotFound
	}
	locks, ok, err := l.state.PersonaLockGet(personaID, buyer)
	if err != nil {
		return nil, nil, err
	}
	if !ok || locks == nil {
		return nil, big.NewInt(0), nil
	}
	indices := locks.eligible(l.now(), l.lockDuration, record.Graduated)
	total := big.NewInt(0)
	for _, idx := range indices {
		total = total.Add(total, locks.Records[idx].Amount)
	}
	return indices, total, nil
}

// Withdraw releases every matured lock for the buyer and transfers the
// persona token from custody. Fails with ErrNothingToWithdraw when the buyer
// has no unwithdrawn history and ErrStillLocked when locks exist but none
// have matured.
func (l *Ledger) Withdraw(personaID uint64, buyer [20]byte) (*big.Int, error) {
	if err := l.ready(); err != nil {
		return nil, err
	}
	record, ok, err := l.state.PersonaGet(personaID)
	if err != nil {
		return nil, err
	}
	if !ok || record == nil {
		return nil, ErrPersonaNotFound
	}
	locks, ok, err := l.state.PersonaLockGet(personaID, buyer)
	if err != nil {
		return nil, err
	}
	if !ok || locks == nil || len(locks.Unwithdrawn) == 0 {
		return nil, ErrNothingToWithdraw
	}
	indices := locks.eligible(l.now(), l.lockDuration, record.Graduated)
	if len(indices) == 0 {
		return nil, ErrStillLocked
	}
	return l.settleWithdrawal(record, buyer, locks, indices)
}

// WithdrawLock releases one specific lock by index.
func (l *Ledger) WithdrawLock(personaID uint64, buyer [20]byte, index uint32) (*big.Int, error) {
	if err := l.ready(); err != nil {
		return nil, err
	}
	record, ok, err := l.state.PersonaGet(personaID)
	if err != nil {
		return nil, err
	}
	if !ok || record == nil {
		return nil, ErrPersonaNotFound
	}
	locks, ok, err := l.state.PersonaLockGet(personaID, buyer)
	if err != nil {
		return nil, err
	}
	if !ok || locks == nil || int(index) >= len(locks.Records) {
		return nil, ErrLockNotFound
	}
	target := locks.Records[index]
	if target == nil || target.Withdrawn {
		return nil, ErrNothingToWithdraw
	}
	if !record.Graduated && l.now()-target.CreatedAt < l.lockDuration {
		return nil, ErrStillLocked
	}
	return l.settleWithdrawal(record, buyer, locks, []uint32{index})
}

func (l *Ledger) settleWithdrawal(record *Persona, buyer [20]byte, locks *LockLedger, indices []uint32) (*big.Int, error) {
	total := locks.release(indices)
	if total.Sign() <= 0 {
		return nil, ErrNothingToWithdraw
	}
	custodyAccount, err := l.state.GetAccount(l.custody)
	if err != nil {
		return nil, err
	}
	buyerAccount, err := l.state.GetAccount(buyer)
	if err != nil {
		return nil, err
	}
	custodyBalance := custodyAccount.BalanceOf(record.IssuedToken)
	if custodyBalance.Cmp(total) < 0 {
		return nil, ErrInsufficientBalance
	}
	custodyAccount.SetBalance(record.IssuedToken, custodyBalance.Sub(custodyBalance, total))
	buyerAccount.SetBalance(record.IssuedToken, new(big.Int).Add(buyerAccount.BalanceOf(record.IssuedToken), total))
	if err := l.state.PutAccount(l.custody, custodyAccount); err != nil {
		return nil, err
	}
	if err := l.state.PutAccount(buyer, buyerAccount); err != nil {
		return nil, err
	}
	if err := l.state.PersonaLockPut(record.ID, buyer, locks); err != nil {
		return nil, err
	}
	l.emit(withdrawnEvent(record.ID, buyer, total, len(indices)))
	return total, nil
}
