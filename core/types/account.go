package types

import "math/big"

// Account is the balance book for one address. Balances are keyed by asset
// identifier so a single account can hold the base asset, loyalty asset and
// any number of persona tokens.
type Account struct {
	Nonce    uint64
	Balances map[string]*big.Int
}

// NewAccount returns an empty account.
func NewAccount() *Account {
	return &Account{Balances: make(map[string]*big.Int)}
}

// BalanceOf returns a copy of the balance held for the asset, zero when the
// account holds nothing.
func (a *Account) BalanceOf(asset string) *big.Int {
	if a == nil || a.Balances == nil {
		return big.NewInt(0)
	}
	balance, ok := a.Balances[asset]
	if !ok || balance == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(balance)
}

// SetBalance stores a copy of the amount under the asset. Zero balances are
// removed so accounts stay compact.
func (a *Account) SetBalance(asset string, amount *big.Int) {
	if a.Balances == nil {
		a.Balances = make(map[string]*big.Int)
	}
	if amount == nil || amount.Sign() == 0 {
		delete(a.Balances, asset)
		return
	}
	a.Balances[asset] = new(big.Int).Set(amount)
}

// Clone returns a deep copy of the account.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	clone := NewAccount()
	clone.Nonce = a.Nonce
	for asset, balance := range a.Balances {
		if balance != nil {
			clone.Balances[asset] = new(big.Int).Set(balance)
		}
	}
	return clone
}
