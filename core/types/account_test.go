package types

import (
	"math/big"
	"testing"
)

func TestBalanceOfReturnsCopy(t *testing.T) {
	account := NewAccount()
	account.SetBalance("unhb", big.NewInt(100))

	balance := account.BalanceOf("unhb")
	balance.SetInt64(0)

	if account.BalanceOf("unhb").Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("caller mutation leaked into the account")
	}
}

func TestSetBalancePrunesZeroEntries(t *testing.T) {
	account := NewAccount()
	account.SetBalance("unhb", big.NewInt(5))
	account.SetBalance("unhb", big.NewInt(0))

	if _, ok := account.Balances["unhb"]; ok {
		t.Fatalf("zero balance must be pruned")
	}
	if account.BalanceOf("unhb").Sign() != 0 {
		t.Fatalf("pruned balance must read as zero")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	account := NewAccount()
	account.Nonce = 3
	account.SetBalance("unhb", big.NewInt(7))

	clone := account.Clone()
	clone.SetBalance("unhb", big.NewInt(99))
	clone.Nonce = 9

	if account.BalanceOf("unhb").Cmp(big.NewInt(7)) != 0 || account.Nonce != 3 {
		t.Fatalf("clone mutation leaked into the original")
	}
}
