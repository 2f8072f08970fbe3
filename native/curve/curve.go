package curve

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"
)

var (
	// ErrInvalidAmount reports a non-positive input amount.
	ErrInvalidAmount = errors.New("curve: amount must be positive")
	// ErrInvalidReserve reports a non-positive virtual pairing reserve.
	ErrInvalidReserve = errors.New("curve: virtual reserve must be positive")
	// ErrInvalidSupply reports a non-positive total pool size.
	ErrInvalidSupply = errors.New("curve: total available must be positive")
	// ErrSoldExceedsPool reports an inconsistent reserve snapshot.
	ErrSoldExceedsPool = errors.New("curve: sold exceeds total available")
	// ErrZeroOutput reports an input that truncates to zero output tokens.
	ErrZeroOutput = errors.New("curve: input too small for non-zero output")
	// ErrOverflow reports values outside the 256-bit arithmetic range.
	ErrOverflow = errors.New("curve: arithmetic overflow")
)

// DefaultVirtualPairingReserve anchors the starting price of every curve.
// Expressed in the pairing asset's smallest unit; callers quoting against
// low-precision assets supply their own reserve.
var DefaultVirtualPairingReserve = new(big.Int).Mul(big.NewInt(100_000), big.NewInt(1e18))

// virtualTokenDivisor sizes the virtual token buffer relative to the pool.
const virtualTokenDivisor = 10

// Quote prices a curve purchase against a constant product over virtual
// reserves. The virtual token reserve is the unsold pool plus a buffer of
// totalAvailable/10; the virtual pairing reserve stays fixed at
// virtualPairingReserve so the price path depends only on sold. Division
// rounds the retained reserve up, so the buyer never receives more than the
// exact real-valued quote.
func Quote(amountIn, sold, totalAvailable, virtualPairingReserve *big.Int) (*big.Int, error) {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if totalAvailable == nil || totalAvailable.Sign() <= 0 {
		return nil, ErrInvalidSupply
	}
	if virtualPairingReserve == nil || virtualPairingReserve.Sign() <= 0 {
		return nil, ErrInvalidReserve
	}
	if sold == nil || sold.Sign() < 0 || sold.Cmp(totalAvailable) > 0 {
		return nil, ErrSoldExceedsPool
	}

	x, overflow := uint256.FromBig(amountIn)
	if overflow {
		return nil, ErrOverflow
	}
	pool, overflow := uint256.FromBig(totalAvailable)
	if overflow {
		return nil, ErrOverflow
	}
	soldU, overflow := uint256.FromBig(sold)
	if overflow {
		return nil, ErrOverflow
	}
	reserve, overflow := uint256.FromBig(virtualPairingReserve)
	if overflow {
		return nil, ErrOverflow
	}

	// T = totalAvailable/10 + (totalAvailable - sold)
	buffer := new(uint256.Int).Div(pool, uint256.NewInt(virtualTokenDivisor))
	tokenReserve := new(uint256.Int).Sub(pool, soldU)
	tokenReserve = tokenReserve.Add(tokenReserve, buffer)

	// k = T * P, P' = P + x, T' = ceil(k / P'), out = T - T'
	k, carry := new(uint256.Int).MulOverflow(tokenReserve, reserve)
	if carry {
		return nil, ErrOverflow
	}
	newReserve, carry := new(uint256.Int).AddOverflow(reserve, x)
	if carry {
		return nil, ErrOverflow
	}
	retained, rem := new(uint256.Int).DivMod(k, newReserve, new(uint256.Int))
	if !rem.IsZero() {
		retained = retained.AddUint64(retained, 1)
	}
	if retained.Cmp(tokenReserve) >= 0 {
		return nil, ErrZeroOutput
	}
	out := new(uint256.Int).Sub(tokenReserve, retained)
	return out.ToBig(), nil
}
