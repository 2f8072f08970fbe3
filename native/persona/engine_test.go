package persona

import (
	"errors"
	"math/big"
	"testing"

	"personachain/core/events"
	"personachain/core/types"
	"personachain/native/fees"
	"personachain/native/pairing"
)

type lockKey struct {
	personaID uint64
	buyer     [20]byte
}

type mockState struct {
	personas map[uint64]*Persona
	locks    map[lockKey]*LockLedger
	accounts map[[20]byte]*types.Account
}

func newMockState() *mockState {
	return &mockState{
		personas: make(map[uint64]*Persona),
		locks:    make(map[lockKey]*LockLedger),
		accounts: make(map[[20]byte]*types.Account),
	}
}

func (m *mockState) PersonaGet(id uint64) (*Persona, bool, error) {
	record, ok := m.personas[id]
	if !ok {
		return nil, false, nil
	}
	return record.Clone(), true, nil
}

func (m *mockState) PersonaPut(p *Persona) error {
	m.personas[p.ID] = p.Clone()
	return nil
}

func (m *mockState) PersonaLockGet(personaID uint64, buyer [20]byte) (*LockLedger, bool, error) {
	ledger, ok := m.locks[lockKey{personaID, buyer}]
	if !ok {
		return nil, false, nil
	}
	return ledger.Clone(), true, nil
}

func (m *mockState) PersonaLockPut(personaID uint64, buyer [20]byte, ledger *LockLedger) error {
	m.locks[lockKey{personaID, buyer}] = ledger.Clone()
	return nil
}

func (m *mockState) GetAccount(addr [20]byte) (*types.Account, error) {
	account, ok := m.accounts[addr]
	if !ok {
		return types.NewAccount(), nil
	}
	return account.Clone(), nil
}

func (m *mockState) PutAccount(addr [20]byte, account *types.Account) error {
	m.accounts[addr] = account.Clone()
	return nil
}

func (m *mockState) balance(addr [20]byte, asset string) *big.Int {
	account, ok := m.accounts[addr]
	if !ok {
		return big.NewInt(0)
	}
	return account.BalanceOf(asset)
}

func (m *mockState) fund(addr [20]byte, asset string, amount *big.Int) {
	account, ok := m.accounts[addr]
	if !ok {
		account = types.NewAccount()
		m.accounts[addr] = account
	}
	account.SetBalance(asset, new(big.Int).Set(amount))
}

type mockIdentity struct {
	next   uint64
	owners map[uint64][20]byte
}

func newMockIdentity() *mockIdentity {
	return &mockIdentity{owners: make(map[uint64][20]byte)}
}

func (m *mockIdentity) MintIdentity(owner [20]byte) (uint64, error) {
	m.next++
	m.owners[m.next] = owner
	return m.next, nil
}

func (m *mockIdentity) OwnerOf(id uint64) ([20]byte, error) {
	owner, ok := m.owners[id]
	if !ok {
		return [20]byte{}, errors.New("identity: not found")
	}
	return owner, nil
}

type mockPairing struct {
	configs map[string]*pairing.Config
}

func (m *mockPairing) Get(asset string) (*pairing.Config, error) {
	cfg, ok := m.configs[asset]
	if !ok {
		return nil, pairing.ErrPairingNotEnabled
	}
	return cfg.Clone(), nil
}

type mockVenue struct {
	fail     error
	calls    int
	lastA    *big.Int
	lastB    *big.Int
	poolAddr [20]byte
}

func (m *mockVenue) CreatePoolAndSeed(tokenA string, amountA *big.Int, tokenB string, amountB *big.Int) (*LiquidityReceipt, error) {
	m.calls++
	if m.fail != nil {
		return nil, m.fail
	}
	m.lastA = new(big.Int).Set(amountA)
	m.lastB = new(big.Int).Set(amountB)
	return &LiquidityReceipt{ID: "pool-1", PoolAccount: m.poolAddr}, nil
}

type mockTreasury struct {
	vault    [20]byte
	deposits map[string]*big.Int
}

func (m *mockTreasury) VaultAddress() [20]byte { return m.vault }

func (m *mockTreasury) RecordDeposit(asset string, amount *big.Int) error {
	if m.deposits == nil {
		m.deposits = make(map[string]*big.Int)
	}
	m.deposits[asset] = new(big.Int).Set(amount)
	return nil
}

var (
	custodyAddr  = [20]byte{0xc0}
	treasuryAddr = [20]byte{0xc1}
	vaultAddr    = [20]byte{0xc2}
	poolAddr     = [20]byte{0xc3}
	creatorAddr  = [20]byte{0x01}
	buyerAddr    = [20]byte{0x02}
)

const pairingAsset = "unhb"

func tokens(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1e18))
}

type fixture struct {
	state    *mockState
	ledger   *Ledger
	engine   *IssuanceEngine
	identity *mockIdentity
	venue    *mockVenue
	treasury *mockTreasury
	recorder *events.Recorder
	now      int64
}

func newFixture(t *testing.T, threshold *big.Int) *fixture {
	t.Helper()
	state := newMockState()
	identity := newMockIdentity()
	recorder := &events.Recorder{}

	ledger := NewLedger()
	ledger.SetState(state)
	ledger.SetEmitter(recorder)
	ledger.SetIdentity(identity)
	ledger.SetCustody(custodyAddr)
	ledger.SetProtocolTreasury(treasuryAddr)
	ledger.SetPairings(&mockPairing{configs: map[string]*pairing.Config{
		pairingAsset: {
			Asset:               pairingAsset,
			Enabled:             true,
			MintCost:            tokens(10),
			GraduationThreshold: new(big.Int).Set(threshold),
		},
	}})

	f := &fixture{state: state, ledger: ledger, identity: identity, recorder: recorder, now: 1_000}
	ledger.SetNowFunc(func() int64 { return f.now })

	feeEngine, err := fees.NewEngine(fees.Config{FeeBps: 100, CreatorShareBps: 5000})
	if err != nil {
		t.Fatalf("new fee engine: %v", err)
	}
	f.venue = &mockVenue{poolAddr: poolAddr}
	f.treasury = &mockTreasury{vault: vaultAddr}
	f.engine = NewIssuanceEngine(ledger, feeEngine)
	f.engine.SetVenue(f.venue)
	f.engine.SetTreasury(f.treasury)
	return f
}

func (f *fixture) create(t *testing.T, agentToken string) *Persona {
	t.Helper()
	f.state.fund(creatorAddr, pairingAsset, tokens(100))
	record, err := f.ledger.CreatePersona(creatorAddr, "Aiko", "AIKO", pairingAsset, agentToken, nil, nil)
	if err != nil {
		t.Fatalf("create persona: %v", err)
	}
	return record
}

func TestCreatePersonaChargesMintCostAndMintsSupply(t *testing.T) {
	f := newFixture(t, tokens(1_000_000))
	record := f.create(t, "")

	if record.ID != 1 {
		t.Fatalf("expected first identity id 1, got %d", record.ID)
	}
	if got := f.state.balance(creatorAddr, pairingAsset); got.Cmp(tokens(90)) != 0 {
		t.Fatalf("creator balance after mint cost: got %s want %s", got, tokens(90))
	}
	if got := f.state.balance(treasuryAddr, pairingAsset); got.Cmp(tokens(10)) != 0 {
		t.Fatalf("treasury did not receive mint cost: got %s", got)
	}
	if got := f.state.balance(custodyAddr, record.IssuedToken); got.Cmp(TokenTotalSupply) != 0 {
		t.Fatalf("custody supply: got %s want %s", got, TokenTotalSupply)
	}
	if record.Allocation.AgentRewards.Sign() != 0 {
		t.Fatalf("standard allocation must not fund agent rewards")
	}
	third := new(big.Int).Div(TokenTotalSupply, big.NewInt(3))
	if record.Allocation.BondingCurve.Cmp(third) != 0 {
		t.Fatalf("bonding allocation: got %s want %s", record.Allocation.BondingCurve, third)
	}
}

func TestCreatePersonaAgentVariant(t *testing.T) {
	f := newFixture(t, tokens(1_000_000))
	record := f.create(t, "token/agent")

	ninth := new(big.Int).Div(TokenTotalSupply, big.NewInt(9))
	twoNinths := new(big.Int).Mul(ninth, big.NewInt(2))
	if record.Allocation.AgentRewards.Cmp(twoNinths) != 0 {
		t.Fatalf("agent rewards allocation: got %s want %s", record.Allocation.AgentRewards, twoNinths)
	}
	if record.Allocation.LiquidityReserve.Cmp(new(big.Int).Mul(ninth, big.NewInt(3))) != 0 {
		t.Fatalf("liquidity allocation must stay at a third of supply")
	}
	if record.AgentToken != "token/agent" {
		t.Fatalf("agent token not recorded: %q", record.AgentToken)
	}
}

func TestCreatePersonaValidation(t *testing.T) {
	f := newFixture(t, tokens(1_000_000))
	f.state.fund(creatorAddr, pairingAsset, tokens(100))

	if _, err := f.ledger.CreatePersona(creatorAddr, "  ", "AIKO", pairingAsset, "", nil, nil); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("blank name: got %v", err)
	}
	if _, err := f.ledger.CreatePersona(creatorAddr, "Aiko", "MUCHTOOLONGSYM", pairingAsset, "", nil, nil); !errors.Is(err, ErrInvalidSymbol) {
		t.Fatalf("oversize symbol: got %v", err)
	}
	if _, err := f.ledger.CreatePersona(creatorAddr, "Aiko", "AIKO", pairingAsset, "", []string{"k"}, nil); !errors.Is(err, ErrMetadataMismatch) {
		t.Fatalf("metadata mismatch: got %v", err)
	}
	if _, err := f.ledger.CreatePersona(creatorAddr, "Aiko", "AIKO", "unknown", "", nil, nil); !errors.Is(err, pairing.ErrPairingNotEnabled) {
		t.Fatalf("unknown pairing: got %v", err)
	}
	broke := [20]byte{0x99}
	if _, err := f.ledger.CreatePersona(broke, "Aiko", "AIKO", pairingAsset, "", nil, nil); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("unfunded creator: got %v", err)
	}
}

func TestPurchaseConservesPairingAsset(t *testing.T) {
	f := newFixture(t, tokens(1_000_000))
	record := f.create(t, "")
	f.state.fund(buyerAddr, pairingAsset, tokens(500))

	amountIn := tokens(200)
	out, err := f.engine.Purchase(record.ID, buyerAddr, buyerAddr, amountIn, nil, 0)
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if out.Sign() <= 0 {
		t.Fatalf("expected positive token output")
	}

	fee := new(big.Int).Div(amountIn, big.NewInt(100))
	creatorShare := new(big.Int).Div(fee, big.NewInt(2))
	net := new(big.Int).Sub(amountIn, fee)

	if got := f.state.balance(buyerAddr, pairingAsset); got.Cmp(tokens(300)) != 0 {
		t.Fatalf("buyer balance: got %s want %s", got, tokens(300))
	}
	if got := f.state.balance(custodyAddr, pairingAsset); got.Cmp(net) != 0 {
		t.Fatalf("custody deposit: got %s want %s", got, net)
	}
	if got := f.state.balance(creatorAddr, pairingAsset); got.Cmp(new(big.Int).Add(tokens(90), creatorShare)) != 0 {
		t.Fatalf("creator fee share: got %s", got)
	}
	wantTreasury := new(big.Int).Add(tokens(10), new(big.Int).Sub(fee, creatorShare))
	if got := f.state.balance(treasuryAddr, pairingAsset); got.Cmp(wantTreasury) != 0 {
		t.Fatalf("protocol fee share: got %s want %s", got, wantTreasury)
	}

	updated, err := f.ledger.Get(record.ID)
	if err != nil {
		t.Fatalf("get persona: %v", err)
	}
	if updated.TokensSold.Cmp(out) != 0 {
		t.Fatalf("tokens sold: got %s want %s", updated.TokensSold, out)
	}
	if updated.TotalDeposited.Cmp(net) != 0 {
		t.Fatalf("total deposited: got %s want %s", updated.TotalDeposited, net)
	}

	locks, ok, err := f.state.PersonaLockGet(record.ID, buyerAddr)
	if err != nil || !ok {
		t.Fatalf("lock ledger missing: %v", err)
	}
	if len(locks.Records) != 1 || locks.Records[0].Amount.Cmp(out) != 0 {
		t.Fatalf("lock not recorded for purchase output")
	}
}

func TestPurchaseRejectsBadInput(t *testing.T) {
	f := newFixture(t, tokens(1_000_000))
	record := f.create(t, "")
	f.state.fund(buyerAddr, pairingAsset, tokens(500))

	if _, err := f.engine.Purchase(record.ID, buyerAddr, [20]byte{}, tokens(1), nil, 0); !errors.Is(err, ErrInvalidRecipient) {
		t.Fatalf("zero recipient: got %v", err)
	}
	if _, err := f.engine.Purchase(record.ID, buyerAddr, buyerAddr, big.NewInt(0), nil, 0); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("zero amount: got %v", err)
	}
	if _, err := f.engine.Purchase(record.ID, buyerAddr, buyerAddr, tokens(1), nil, f.now-1); !errors.Is(err, ErrExpiredDeadline) {
		t.Fatalf("expired deadline: got %v", err)
	}
	if _, err := f.engine.Purchase(77, buyerAddr, buyerAddr, tokens(1), nil, 0); !errors.Is(err, ErrPersonaNotFound) {
		t.Fatalf("unknown persona: got %v", err)
	}
	huge := tokens(1)
	if _, err := f.engine.Purchase(record.ID, buyerAddr, buyerAddr, tokens(1), new(big.Int).Mul(huge, TokenTotalSupply), 0); !errors.Is(err, ErrInsufficientOutput) {
		t.Fatalf("minOut above output: got %v", err)
	}
	broke := [20]byte{0x98}
	if _, err := f.engine.Purchase(record.ID, broke, broke, tokens(1), nil, 0); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("unfunded buyer: got %v", err)
	}
}

func TestPurchaseCappedAtCurveAllocation(t *testing.T) {
	f := newFixture(t, tokens(1_000_000_000))
	record := f.create(t, "")
	deposit := tokens(10_000_000)
	f.state.fund(buyerAddr, pairingAsset, deposit)

	// The virtual reserve would quote more tokens than the curve pool
	// holds for an input this large.
	if _, err := f.engine.Purchase(record.ID, buyerAddr, buyerAddr, deposit, nil, 0); !errors.Is(err, ErrInsufficientLiquidity) {
		t.Fatalf("oversized purchase: got %v", err)
	}
	if _, _, err := f.engine.Quote(record.ID, buyerAddr, deposit); !errors.Is(err, ErrInsufficientLiquidity) {
		t.Fatalf("oversized quote: got %v", err)
	}

	stored, _, err := f.state.PersonaGet(record.ID)
	if err != nil {
		t.Fatalf("persona get: %v", err)
	}
	if stored.TokensSold.Sign() != 0 {
		t.Fatalf("tokens sold mutated: %s", stored.TokensSold)
	}
	if got := f.state.balance(buyerAddr, pairingAsset); got.Cmp(deposit) != 0 {
		t.Fatalf("buyer balance mutated: %s", got)
	}

	// A sane purchase on the same persona still goes through.
	out, err := f.engine.Purchase(record.ID, buyerAddr, buyerAddr, tokens(100), nil, 0)
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if out.Cmp(curveAllocation(stored)) > 0 {
		t.Fatalf("output %s exceeds curve allocation", out)
	}
}

func TestPurchaseGraduatesAtThreshold(t *testing.T) {
	f := newFixture(t, tokens(50))
	record := f.create(t, "")
	f.state.fund(buyerAddr, pairingAsset, tokens(500))

	out, err := f.engine.Purchase(record.ID, buyerAddr, buyerAddr, tokens(100), nil, 0)
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	updated, err := f.ledger.Get(record.ID)
	if err != nil {
		t.Fatalf("get persona: %v", err)
	}
	if !updated.Graduated {
		t.Fatalf("deposit crossed threshold but persona did not graduate")
	}
	if updated.LiquidityReceiptID != "pool-1" {
		t.Fatalf("liquidity receipt not recorded: %q", updated.LiquidityReceiptID)
	}
	if f.venue.calls != 1 {
		t.Fatalf("venue calls: got %d want 1", f.venue.calls)
	}

	net := new(big.Int).Sub(tokens(100), new(big.Int).Div(tokens(100), big.NewInt(100)))
	third := new(big.Int).Div(TokenTotalSupply, big.NewInt(3))
	if f.venue.lastA.Cmp(third) != 0 || f.venue.lastB.Cmp(net) != 0 {
		t.Fatalf("pool seeded with %s/%s, want %s/%s", f.venue.lastA, f.venue.lastB, third, net)
	}
	if got := f.state.balance(poolAddr, updated.IssuedToken); got.Cmp(third) != 0 {
		t.Fatalf("pool token reserve: got %s", got)
	}
	if got := f.state.balance(poolAddr, pairingAsset); got.Cmp(net) != 0 {
		t.Fatalf("pool pairing reserve: got %s", got)
	}
	if got := f.state.balance(vaultAddr, updated.IssuedToken); got.Cmp(third) != 0 {
		t.Fatalf("vault treasury share: got %s", got)
	}
	if got := f.treasury.deposits[updated.IssuedToken]; got == nil || got.Cmp(third) != 0 {
		t.Fatalf("treasury deposit not metered: %v", got)
	}
	if got := f.state.balance(custodyAddr, pairingAsset); got.Sign() != 0 {
		t.Fatalf("custody retained pairing asset after graduation: %s", got)
	}

	// Trading moves to the venue once graduated.
	if _, err := f.engine.Purchase(record.ID, buyerAddr, buyerAddr, tokens(1), nil, 0); !errors.Is(err, ErrTradingOnLiquidityVenue) {
		t.Fatalf("post-graduation purchase: got %v", err)
	}

	// Locks release immediately after graduation.
	released, err := f.ledger.Withdraw(record.ID, buyerAddr)
	if err != nil {
		t.Fatalf("withdraw after graduation: %v", err)
	}
	if released.Cmp(out) != 0 {
		t.Fatalf("released amount: got %s want %s", released, out)
	}
	if got := f.state.balance(buyerAddr, updated.IssuedToken); got.Cmp(out) != 0 {
		t.Fatalf("buyer token balance: got %s want %s", got, out)
	}
}

func TestPurchaseVenueFailureLeavesStateUntouched(t *testing.T) {
	f := newFixture(t, tokens(50))
	record := f.create(t, "")
	f.state.fund(buyerAddr, pairingAsset, tokens(500))
	f.venue.fail = errors.New("venue: downstream unavailable")

	if _, err := f.engine.Purchase(record.ID, buyerAddr, buyerAddr, tokens(100), nil, 0); err == nil {
		t.Fatalf("expected venue failure to surface")
	}
	if got := f.state.balance(buyerAddr, pairingAsset); got.Cmp(tokens(500)) != 0 {
		t.Fatalf("buyer balance mutated on failed graduation: %s", got)
	}
	updated, err := f.ledger.Get(record.ID)
	if err != nil {
		t.Fatalf("get persona: %v", err)
	}
	if updated.Graduated || updated.TokensSold.Sign() != 0 || updated.TotalDeposited.Sign() != 0 {
		t.Fatalf("persona mutated on failed graduation: %+v", updated)
	}
	if _, ok, _ := f.state.PersonaLockGet(record.ID, buyerAddr); ok {
		t.Fatalf("lock recorded despite failed purchase")
	}
}

func TestWithdrawLockGating(t *testing.T) {
	f := newFixture(t, tokens(1_000_000))
	record := f.create(t, "")
	f.state.fund(buyerAddr, pairingAsset, tokens(500))

	out, err := f.engine.Purchase(record.ID, buyerAddr, buyerAddr, tokens(100), nil, 0)
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}

	if _, err := f.ledger.Withdraw(record.ID, buyerAddr); !errors.Is(err, ErrStillLocked) {
		t.Fatalf("withdraw inside lock window: got %v", err)
	}
	stranger := [20]byte{0x55}
	if _, err := f.ledger.Withdraw(record.ID, stranger); !errors.Is(err, ErrNothingToWithdraw) {
		t.Fatalf("withdraw without history: got %v", err)
	}

	f.now += DefaultLockDuration
	indices, total, err := f.ledger.Withdrawable(record.ID, buyerAddr)
	if err != nil {
		t.Fatalf("withdrawable: %v", err)
	}
	if len(indices) != 1 || total.Cmp(out) != 0 {
		t.Fatalf("withdrawable after maturity: indices=%v total=%s", indices, total)
	}

	released, err := f.ledger.Withdraw(record.ID, buyerAddr)
	if err != nil {
		t.Fatalf("withdraw after maturity: %v", err)
	}
	if released.Cmp(out) != 0 {
		t.Fatalf("released: got %s want %s", released, out)
	}
	if _, err := f.ledger.Withdraw(record.ID, buyerAddr); !errors.Is(err, ErrNothingToWithdraw) {
		t.Fatalf("double withdraw: got %v", err)
	}
}

func TestWithdrawLockByIndex(t *testing.T) {
	f := newFixture(t, tokens(1_000_000))
	record := f.create(t, "")
	f.state.fund(buyerAddr, pairingAsset, tokens(500))

	first, err := f.engine.Purchase(record.ID, buyerAddr, buyerAddr, tokens(50), nil, 0)
	if err != nil {
		t.Fatalf("first purchase: %v", err)
	}
	f.now += DefaultLockDuration / 2
	if _, err := f.engine.Purchase(record.ID, buyerAddr, buyerAddr, tokens(50), nil, 0); err != nil {
		t.Fatalf("second purchase: %v", err)
	}

	f.now += DefaultLockDuration / 2
	released, err := f.ledger.WithdrawLock(record.ID, buyerAddr, 0)
	if err != nil {
		t.Fatalf("withdraw first lock: %v", err)
	}
	if released.Cmp(first) != 0 {
		t.Fatalf("first lock amount: got %s want %s", released, first)
	}
	if _, err := f.ledger.WithdrawLock(record.ID, buyerAddr, 1); !errors.Is(err, ErrStillLocked) {
		t.Fatalf("immature second lock: got %v", err)
	}
	if _, err := f.ledger.WithdrawLock(record.ID, buyerAddr, 0); !errors.Is(err, ErrNothingToWithdraw) {
		t.Fatalf("re-withdraw settled lock: got %v", err)
	}
	if _, err := f.ledger.WithdrawLock(record.ID, buyerAddr, 9); !errors.Is(err, ErrLockNotFound) {
		t.Fatalf("out-of-range lock: got %v", err)
	}
}

func TestQuoteMatchesPurchaseOutput(t *testing.T) {
	f := newFixture(t, tokens(1_000_000))
	record := f.create(t, "")
	f.state.fund(buyerAddr, pairingAsset, tokens(500))

	quoted, breakdown, err := f.engine.Quote(record.ID, buyerAddr, tokens(100))
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if breakdown.Total.Cmp(new(big.Int).Div(tokens(100), big.NewInt(100))) != 0 {
		t.Fatalf("quoted fee: got %s", breakdown.Total)
	}
	out, err := f.engine.Purchase(record.ID, buyerAddr, buyerAddr, tokens(100), nil, 0)
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if out.Cmp(quoted) != 0 {
		t.Fatalf("purchase output diverged from quote: got %s want %s", out, quoted)
	}
}

func TestUpdateMetadataAuthorization(t *testing.T) {
	f := newFixture(t, tokens(1_000_000))
	record := f.create(t, "")

	updated, err := f.ledger.UpdateMetadata(record.ID, creatorAddr, []string{"bio", "avatar"}, []string{"synthetic idol", "ipfs://a"})
	if err != nil {
		t.Fatalf("update metadata: %v", err)
	}
	if len(updated.Metadata) != 2 || updated.Metadata[0].Key != "bio" {
		t.Fatalf("metadata not upserted in order: %+v", updated.Metadata)
	}

	updated, err = f.ledger.UpdateMetadata(record.ID, creatorAddr, []string{"bio"}, []string{"idol"})
	if err != nil {
		t.Fatalf("metadata overwrite: %v", err)
	}
	if len(updated.Metadata) != 2 || updated.Metadata[0].Value != "idol" {
		t.Fatalf("metadata overwrite kept stale value: %+v", updated.Metadata)
	}

	if _, err := f.ledger.UpdateMetadata(record.ID, buyerAddr, []string{"bio"}, []string{"x"}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("non-owner update: got %v", err)
	}
	if _, err := f.ledger.UpdateMetadata(record.ID, creatorAddr, nil, nil); !errors.Is(err, ErrMetadataMismatch) {
		t.Fatalf("empty update: got %v", err)
	}

	// Ownership transfer moves update rights with the identity.
	f.identity.owners[record.ID] = buyerAddr
	if _, err := f.ledger.UpdateMetadata(record.ID, buyerAddr, []string{"bio"}, []string{"new owner"}); err != nil {
		t.Fatalf("new owner update: %v", err)
	}
}

func TestPurchaseEventsEmitted(t *testing.T) {
	f := newFixture(t, tokens(50))
	record := f.create(t, "")
	f.state.fund(buyerAddr, pairingAsset, tokens(500))

	if _, err := f.engine.Purchase(record.ID, buyerAddr, buyerAddr, tokens(100), nil, 0); err != nil {
		t.Fatalf("purchase: %v", err)
	}
	var sawPurchase, sawGraduation bool
	for _, evt := range f.recorder.Events() {
		switch evt.EventType() {
		case "persona.purchased":
			sawPurchase = true
		case "persona.graduated":
			sawGraduation = true
		}
	}
	if !sawPurchase || !sawGraduation {
		t.Fatalf("expected purchase and graduation events, got purchase=%v graduation=%v", sawPurchase, sawGraduation)
	}
}
