package state

import (
	"encoding/binary"
	"math/big"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/rlp"

	"personachain/core/types"
	"personachain/native/pairing"
	"personachain/native/persona"
	"personachain/native/rewards"
	"personachain/native/venue"
	"personachain/storage"
)

// Key prefixes partition the flat key-value store per concern.
var (
	accountPrefix         = []byte("accounts/")
	personaRecordPrefix   = []byte("persona/record/")
	personaLockPrefix     = []byte("persona/lock/")
	pairingPrefix         = []byte("pairing/")
	identityCounterKey    = []byte("identity/counter")
	identityOwnerPrefix   = []byte("identity/owner/")
	treasuryDepositPrefix = []byte("treasury/deposit/")
	treasuryBurnedKey     = []byte("treasury/burned")
	rewardAllocationsKey  = []byte("rewards/allocations")
	venuePoolPrefix       = []byte("venue/pool/")
)

// Manager persists launchpad state in a key-value store using RLP encoding.
// It implements the state interfaces of every native engine so one instance
// backs the whole node.
type Manager struct {
	mu sync.RWMutex
	db storage.Database
}

// NewManager wraps the supplied database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

func (m *Manager) load(key []byte, out interface{}) (bool, error) {
	ok, err := m.db.Has(key)
	if err != nil || !ok {
		return false, err
	}
	raw, err := m.db.Get(key)
	if err != nil {
		return false, err
	}
	if err := rlp.DecodeBytes(raw, out); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Manager) store(key []byte, value interface{}) error {
	raw, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	return m.db.Put(key, raw)
}

func idKey(prefix []byte, id uint64) []byte {
	key := make([]byte, len(prefix)+8)
	copy(key, prefix)
	binary.BigEndian.PutUint64(key[len(prefix):], id)
	return key
}

func stringKey(prefix []byte, suffix string) []byte {
	return append(append([]byte{}, prefix...), suffix...)
}

func lockKey(personaID uint64, buyer [20]byte) []byte {
	key := idKey(personaLockPrefix, personaID)
	return append(key, buyer[:]...)
}

func bigOrZero(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return v
}

// RLP has no map type, so balances are flattened into an asset-sorted slice
// for a deterministic encoding.

type storedBalance struct {
	Asset  string
	Amount *big.Int
}

type storedAccount struct {
	Nonce    uint64
	Balances []storedBalance
}

func encodeAccount(account *types.Account) storedAccount {
	stored := storedAccount{Nonce: account.Nonce}
	assets := make([]string, 0, len(account.Balances))
	for asset := range account.Balances {
		assets = append(assets, asset)
	}
	sort.Strings(assets)
	for _, asset := range assets {
		stored.Balances = append(stored.Balances, storedBalance{Asset: asset, Amount: account.Balances[asset]})
	}
	return stored
}

func decodeAccount(stored storedAccount) *types.Account {
	account := types.NewAccount()
	account.Nonce = stored.Nonce
	for _, balance := range stored.Balances {
		account.SetBalance(balance.Asset, bigOrZero(balance.Amount))
	}
	return account
}

// GetAccount returns the stored account or a fresh empty one.
func (m *Manager) GetAccount(addr [20]byte) (*types.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var stored storedAccount
	ok, err := m.load(append(append([]byte{}, accountPrefix...), addr[:]...), &stored)
	if err != nil {
		return nil, err
	}
	if !ok {
		return types.NewAccount(), nil
	}
	return decodeAccount(stored), nil
}

// PutAccount persists the account under its address.
func (m *Manager) PutAccount(addr [20]byte, account *types.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store(append(append([]byte{}, accountPrefix...), addr[:]...), encodeAccount(account))
}

// RLP rejects signed integers, so timestamps are widened to uint64.

type storedAllocation struct {
	BondingCurve     *big.Int
	LiquidityReserve *big.Int
	TreasuryDeposit  *big.Int
	AgentRewards     *big.Int
}

type storedMetadata struct {
	Key   string
	Value string
}

type storedPersona struct {
	ID                  uint64
	Name                string
	Symbol              string
	Creator             [20]byte
	FeeRecipient        [20]byte
	PairingAsset        string
	IssuedToken         string
	AgentToken          string
	Allocation          storedAllocation
	GraduationThreshold *big.Int
	TotalDeposited      *big.Int
	TokensSold          *big.Int
	Graduated           bool
	LiquidityReceiptID  string
	Metadata            []storedMetadata
	CreatedAt           uint64
}

func encodePersona(p *persona.Persona) storedPersona {
	stored := storedPersona{
		ID:           p.ID,
		Name:         p.Name,
		Symbol:       p.Symbol,
		Creator:      p.Creator,
		FeeRecipient: p.FeeRecipient,
		PairingAsset: p.PairingAsset,
		IssuedToken:  p.IssuedToken,
		AgentToken:   p.AgentToken,
		Allocation: storedAllocation{
			BondingCurve:     bigOrZero(p.Allocation.BondingCurve),
			LiquidityReserve: bigOrZero(p.Allocation.LiquidityReserve),
			TreasuryDeposit:  bigOrZero(p.Allocation.TreasuryDeposit),
			AgentRewards:     bigOrZero(p.Allocation.AgentRewards),
		},
		GraduationThreshold: bigOrZero(p.GraduationThreshold),
		TotalDeposited:      bigOrZero(p.TotalDeposited),
		TokensSold:          bigOrZero(p.TokensSold),
		Graduated:           p.Graduated,
		LiquidityReceiptID:  p.LiquidityReceiptID,
		CreatedAt:           uint64(p.CreatedAt),
	}
	for _, pair := range p.Metadata {
		stored.Metadata = append(stored.Metadata, storedMetadata{Key: pair.Key, Value: pair.Value})
	}
	return stored
}

func decodePersona(stored storedPersona) *persona.Persona {
	record := &persona.Persona{
		ID:           stored.ID,
		Name:         stored.Name,
		Symbol:       stored.Symbol,
		Creator:      stored.Creator,
		FeeRecipient: stored.FeeRecipient,
		PairingAsset: stored.PairingAsset,
		IssuedToken:  stored.IssuedToken,
		AgentToken:   stored.AgentToken,
		Allocation: persona.PoolAllocation{
			BondingCurve:     bigOrZero(stored.Allocation.BondingCurve),
			LiquidityReserve: bigOrZero(stored.Allocation.LiquidityReserve),
			TreasuryDeposit:  bigOrZero(stored.Allocation.TreasuryDeposit),
			AgentRewards:     bigOrZero(stored.Allocation.AgentRewards),
		},
		GraduationThreshold: bigOrZero(stored.GraduationThreshold),
		TotalDeposited:      bigOrZero(stored.TotalDeposited),
		TokensSold:          bigOrZero(stored.TokensSold),
		Graduated:           stored.Graduated,
		LiquidityReceiptID:  stored.LiquidityReceiptID,
		CreatedAt:           int64(stored.CreatedAt),
	}
	for _, pair := range stored.Metadata {
		record.Metadata = append(record.Metadata, persona.MetadataPair{Key: pair.Key, Value: pair.Value})
	}
	return record
}

// PersonaGet loads a persona record by id.
func (m *Manager) PersonaGet(id uint64) (*persona.Persona, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var stored storedPersona
	ok, err := m.load(idKey(personaRecordPrefix, id), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return decodePersona(stored), true, nil
}

// PersonaPut persists a persona record under its id.
func (m *Manager) PersonaPut(p *persona.Persona) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store(idKey(personaRecordPrefix, p.ID), encodePersona(p))
}

type storedPurchase struct {
	Amount    *big.Int
	CreatedAt uint64
	Withdrawn bool
}

type storedLockLedger struct {
	Records     []storedPurchase
	Unwithdrawn []uint32
}

// PersonaLockGet loads the lock ledger for a (persona, buyer) pair.
func (m *Manager) PersonaLockGet(personaID uint64, buyer [20]byte) (*persona.LockLedger, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var stored storedLockLedger
	ok, err := m.load(lockKey(personaID, buyer), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	ledger := &persona.LockLedger{Unwithdrawn: stored.Unwithdrawn}
	for _, rec := range stored.Records {
		ledger.Records = append(ledger.Records, &persona.PurchaseRecord{
			Amount:    bigOrZero(rec.Amount),
			CreatedAt: int64(rec.CreatedAt),
			Withdrawn: rec.Withdrawn,
		})
	}
	return ledger, true, nil
}

// PersonaLockPut persists the lock ledger for a (persona, buyer) pair.
func (m *Manager) PersonaLockPut(personaID uint64, buyer [20]byte, ledger *persona.LockLedger) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := storedLockLedger{Unwithdrawn: ledger.Unwithdrawn}
	for _, rec := range ledger.Records {
		stored.Records = append(stored.Records, storedPurchase{
			Amount:    bigOrZero(rec.Amount),
			CreatedAt: uint64(rec.CreatedAt),
			Withdrawn: rec.Withdrawn,
		})
	}
	return m.store(lockKey(personaID, buyer), stored)
}

type storedPairing struct {
	Asset               string
	Enabled             bool
	MintCost            *big.Int
	GraduationThreshold *big.Int
}

// PairingGet loads the configuration for a pairing asset.
func (m *Manager) PairingGet(asset string) (*pairing.Config, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var stored storedPairing
	ok, err := m.load(stringKey(pairingPrefix, asset), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return &pairing.Config{
		Asset:               stored.Asset,
		Enabled:             stored.Enabled,
		MintCost:            bigOrZero(stored.MintCost),
		GraduationThreshold: bigOrZero(stored.GraduationThreshold),
	}, true, nil
}

// PairingPut persists a pairing configuration under its asset id.
func (m *Manager) PairingPut(cfg *pairing.Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store(stringKey(pairingPrefix, cfg.Asset), storedPairing{
		Asset:               cfg.Asset,
		Enabled:             cfg.Enabled,
		MintCost:            bigOrZero(cfg.MintCost),
		GraduationThreshold: bigOrZero(cfg.GraduationThreshold),
	})
}

// IdentityCounter returns the highest assigned identity id, zero when none.
func (m *Manager) IdentityCounter() (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var counter uint64
	if _, err := m.load(identityCounterKey, &counter); err != nil {
		return 0, err
	}
	return counter, nil
}

// SetIdentityCounter persists the identity id watermark.
func (m *Manager) SetIdentityCounter(next uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store(identityCounterKey, next)
}

// IdentityOwnerGet loads the owner of an identity.
func (m *Manager) IdentityOwnerGet(id uint64) ([20]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var owner [20]byte
	ok, err := m.load(idKey(identityOwnerPrefix, id), &owner)
	if err != nil || !ok {
		return [20]byte{}, false, err
	}
	return owner, true, nil
}

// IdentityOwnerPut persists the owner of an identity.
func (m *Manager) IdentityOwnerPut(id uint64, owner [20]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store(idKey(identityOwnerPrefix, id), owner)
}

// TreasuryDepositGet returns the metered deposit for an asset, zero when
// absent.
func (m *Manager) TreasuryDepositGet(asset string) (*big.Int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	amount := new(big.Int)
	if _, err := m.load(stringKey(treasuryDepositPrefix, asset), amount); err != nil {
		return nil, err
	}
	return amount, nil
}

// TreasuryDepositPut persists the metered deposit for an asset.
func (m *Manager) TreasuryDepositPut(asset string, amount *big.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store(stringKey(treasuryDepositPrefix, asset), bigOrZero(amount))
}

// TreasuryBurnedTotal returns the cumulative base-asset burn.
func (m *Manager) TreasuryBurnedTotal() (*big.Int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	amount := new(big.Int)
	if _, err := m.load(treasuryBurnedKey, amount); err != nil {
		return nil, err
	}
	return amount, nil
}

// SetTreasuryBurnedTotal persists the cumulative base-asset burn.
func (m *Manager) SetTreasuryBurnedTotal(amount *big.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store(treasuryBurnedKey, bigOrZero(amount))
}

type storedRewardPool struct {
	Name     string
	ShareBps uint32
}

// RewardAllocationsGet loads the registered reward pool allocations.
func (m *Manager) RewardAllocationsGet() ([]rewards.PoolAllocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var stored []storedRewardPool
	if _, err := m.load(rewardAllocationsKey, &stored); err != nil {
		return nil, err
	}
	out := make([]rewards.PoolAllocation, 0, len(stored))
	for _, pool := range stored {
		out = append(out, rewards.PoolAllocation{Name: pool.Name, ShareBps: pool.ShareBps})
	}
	return out, nil
}

// RewardAllocationsPut persists the reward pool allocations.
func (m *Manager) RewardAllocationsPut(allocations []rewards.PoolAllocation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := make([]storedRewardPool, 0, len(allocations))
	for _, pool := range allocations {
		stored = append(stored, storedRewardPool{Name: pool.Name, ShareBps: pool.ShareBps})
	}
	return m.store(rewardAllocationsKey, stored)
}

type storedPool struct {
	ID        string
	TokenA    string
	TokenB    string
	ReserveA  *big.Int
	ReserveB  *big.Int
	Account   [20]byte
	CreatedAt uint64
}

// PoolGet loads a liquidity pool by its pair key.
func (m *Manager) PoolGet(pairKey string) (*venue.Pool, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var stored storedPool
	ok, err := m.load(stringKey(venuePoolPrefix, pairKey), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return &venue.Pool{
		ID:        stored.ID,
		TokenA:    stored.TokenA,
		TokenB:    stored.TokenB,
		ReserveA:  bigOrZero(stored.ReserveA),
		ReserveB:  bigOrZero(stored.ReserveB),
		Account:   stored.Account,
		CreatedAt: int64(stored.CreatedAt),
	}, true, nil
}

// PoolPut persists a liquidity pool under its pair key.
func (m *Manager) PoolPut(pairKey string, pool *venue.Pool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store(stringKey(venuePoolPrefix, pairKey), storedPool{
		ID:        pool.ID,
		TokenA:    pool.TokenA,
		TokenB:    pool.TokenB,
		ReserveA:  bigOrZero(pool.ReserveA),
		ReserveB:  bigOrZero(pool.ReserveB),
		Account:   pool.Account,
		CreatedAt: uint64(pool.CreatedAt),
	})
}
