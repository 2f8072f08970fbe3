package treasury

import (
	"errors"
	"math/big"
	"testing"

	"personachain/core/types"
)

const baseAsset = "AMICA"

type mockState struct {
	accounts map[[20]byte]*types.Account
	deposits map[string]*big.Int
	burned   *big.Int
}

func newMockState() *mockState {
	return &mockState{
		accounts: make(map[[20]byte]*types.Account),
		deposits: make(map[string]*big.Int),
		burned:   big.NewInt(0),
	}
}

func (m *mockState) GetAccount(addr [20]byte) (*types.Account, error) {
	if acc, ok := m.accounts[addr]; ok {
		return acc.Clone(), nil
	}
	return types.NewAccount(), nil
}

func (m *mockState) PutAccount(addr [20]byte, account *types.Account) error {
	m.accounts[addr] = account.Clone()
	return nil
}

func (m *mockState) TreasuryDepositGet(asset string) (*big.Int, error) {
	if amount, ok := m.deposits[asset]; ok {
		return new(big.Int).Set(amount), nil
	}
	return big.NewInt(0), nil
}

func (m *mockState) TreasuryDepositPut(asset string, amount *big.Int) error {
	m.deposits[asset] = new(big.Int).Set(amount)
	return nil
}

func (m *mockState) TreasuryBurnedTotal() (*big.Int, error) {
	return new(big.Int).Set(m.burned), nil
}

func (m *mockState) SetTreasuryBurnedTotal(amount *big.Int) error {
	m.burned = new(big.Int).Set(amount)
	return nil
}

func (m *mockState) setBalance(addr [20]byte, asset string, amount int64) {
	acc, _ := m.GetAccount(addr)
	acc.SetBalance(asset, big.NewInt(amount))
	m.accounts[addr] = acc
}

func (m *mockState) balance(addr [20]byte, asset string) *big.Int {
	acc, _ := m.GetAccount(addr)
	return acc.BalanceOf(asset)
}

func addr(last byte) [20]byte {
	var out [20]byte
	out[19] = last
	return out
}

func newEngine(t *testing.T) (*Engine, *mockState) {
	t.Helper()
	state := newMockState()
	engine := NewEngine(baseAsset, big.NewInt(1_000_000))
	engine.SetState(state)
	engine.SetVault(addr(0xAA))
	return engine, state
}

func TestDepositMovesFundsAndMeters(t *testing.T) {
	engine, state := newEngine(t)
	depositor := addr(0x01)
	state.setBalance(depositor, "persona/alpha", 10_000)

	if err := engine.Deposit("persona/alpha", depositor, big.NewInt(4_000)); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}
	if got := state.balance(depositor, "persona/alpha"); got.Cmp(big.NewInt(6_000)) != 0 {
		t.Fatalf("depositor balance wrong: %s", got)
	}
	if got := state.balance(addr(0xAA), "persona/alpha"); got.Cmp(big.NewInt(4_000)) != 0 {
		t.Fatalf("vault balance wrong: %s", got)
	}
	deposited, err := engine.DepositedBalance("persona/alpha")
	if err != nil {
		t.Fatalf("deposited balance failed: %v", err)
	}
	if deposited.Cmp(big.NewInt(4_000)) != 0 {
		t.Fatalf("deposit meter wrong: %s", deposited)
	}

	if err := engine.Deposit("persona/alpha", depositor, big.NewInt(7_000)); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
}

func TestClaimRejectsDuplicateAndUnsortedSelections(t *testing.T) {
	engine, state := newEngine(t)
	holder := addr(0x02)
	state.setBalance(holder, baseAsset, 100_000)

	cases := [][]string{
		nil,
		{},
		{"persona/alpha", "persona/alpha"},
		{"persona/beta", "persona/alpha"},
		{"persona/alpha", ""},
	}
	for _, selection := range cases {
		if _, err := engine.Claim(holder, big.NewInt(1_000), selection); !errors.Is(err, ErrInvalidSelection) {
			t.Fatalf("selection %v: expected ErrInvalidSelection, got %v", selection, err)
		}
	}
}

func TestClaimSettlesProportionally(t *testing.T) {
	engine, state := newEngine(t)
	holder := addr(0x03)
	state.setBalance(holder, baseAsset, 200_000)

	// Seed the vault with two persona token deposits.
	funder := addr(0x04)
	state.setBalance(funder, "persona/alpha", 500_000)
	state.setBalance(funder, "persona/beta", 300_000)
	if err := engine.Deposit("persona/alpha", funder, big.NewInt(500_000)); err != nil {
		t.Fatalf("seed alpha: %v", err)
	}
	if err := engine.Deposit("persona/beta", funder, big.NewInt(300_000)); err != nil {
		t.Fatalf("seed beta: %v", err)
	}

	// Burning 10% of the 1,000,000 circulating supply claims 10% of each pool.
	portions, err := engine.Claim(holder, big.NewInt(100_000), []string{"persona/alpha", "persona/beta"})
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if len(portions) != 2 {
		t.Fatalf("expected two portions, got %d", len(portions))
	}
	if portions[0].Amount.Cmp(big.NewInt(50_000)) != 0 {
		t.Fatalf("alpha portion wrong: %s", portions[0].Amount)
	}
	if portions[1].Amount.Cmp(big.NewInt(30_000)) != 0 {
		t.Fatalf("beta portion wrong: %s", portions[1].Amount)
	}
	if got := state.balance(holder, baseAsset); got.Cmp(big.NewInt(100_000)) != 0 {
		t.Fatalf("burn not applied: %s", got)
	}
	if got := state.balance(holder, "persona/alpha"); got.Cmp(big.NewInt(50_000)) != 0 {
		t.Fatalf("alpha not credited: %s", got)
	}

	// The second claim prices against the reduced circulating supply.
	deposited, err := engine.DepositedBalance("persona/alpha")
	if err != nil {
		t.Fatalf("deposited balance failed: %v", err)
	}
	if deposited.Cmp(big.NewInt(450_000)) != 0 {
		t.Fatalf("deposit meter not reduced: %s", deposited)
	}
	portions, err = engine.Claim(holder, big.NewInt(90_000), []string{"persona/alpha"})
	if err != nil {
		t.Fatalf("second claim failed: %v", err)
	}
	// 90,000 / 900,000 circulating = 10% of the remaining 450,000.
	if portions[0].Amount.Cmp(big.NewInt(45_000)) != 0 {
		t.Fatalf("second alpha portion wrong: %s", portions[0].Amount)
	}
}

func TestClaimRequiresBaseBalance(t *testing.T) {
	engine, state := newEngine(t)
	holder := addr(0x05)
	state.setBalance(holder, baseAsset, 10)

	if _, err := engine.Claim(holder, big.NewInt(100), []string{"persona/alpha"}); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	state.setBalance(holder, baseAsset, 10_000)
	if _, err := engine.Claim(holder, big.NewInt(1_000), []string{"persona/empty"}); !errors.Is(err, ErrNothingToClaim) {
		t.Fatalf("expected ErrNothingToClaim, got %v", err)
	}
}
