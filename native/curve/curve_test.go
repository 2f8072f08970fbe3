package curve

import (
	"errors"
	"math/big"
	"testing"
)

func ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1e18))
}

func TestQuoteMonotonicPricing(t *testing.T) {
	total := ether(111_111_111)
	reserve := new(big.Int).Set(DefaultVirtualPairingReserve)
	amountIn := ether(1_000)

	step := new(big.Int).Div(total, big.NewInt(100))
	prev := new(big.Int)
	for i := 0; i < 100; i++ {
		sold := new(big.Int).Mul(step, big.NewInt(int64(i)))
		out, err := Quote(amountIn, sold, total, reserve)
		if err != nil {
			t.Fatalf("quote at step %d failed: %v", i, err)
		}
		if out.Sign() <= 0 {
			t.Fatalf("quote at step %d not positive: %s", i, out)
		}
		if i > 0 && out.Cmp(prev) >= 0 {
			t.Fatalf("output did not strictly decrease at step %d: prev %s cur %s", i, prev, out)
		}
		prev = out
	}
}

func TestQuoteNeverFavoursBuyer(t *testing.T) {
	total := ether(111_111_111)
	reserve := new(big.Int).Set(DefaultVirtualPairingReserve)

	inputs := []*big.Int{
		big.NewInt(1_000),
		ether(1),
		ether(12_345),
		ether(999_999),
	}
	soldPoints := []*big.Int{
		big.NewInt(0),
		ether(1),
		ether(50_000_000),
		ether(111_111_110),
	}
	for _, amountIn := range inputs {
		for _, sold := range soldPoints {
			out, err := Quote(amountIn, sold, total, reserve)
			if errors.Is(err, ErrZeroOutput) {
				continue
			}
			if err != nil {
				t.Fatalf("quote(%s, %s) failed: %v", amountIn, sold, err)
			}
			// Effective token reserve at this point on the curve.
			tokenReserve := new(big.Int).Div(total, big.NewInt(virtualTokenDivisor))
			tokenReserve.Add(tokenReserve, new(big.Int).Sub(total, sold))
			newReserve := new(big.Int).Add(reserve, amountIn)

			// out * (P + x) <= T * x, i.e. out <= the exact real-valued quote.
			lhs := new(big.Int).Mul(out, newReserve)
			rhs := new(big.Int).Mul(tokenReserve, amountIn)
			if lhs.Cmp(rhs) > 0 {
				t.Fatalf("quote(%s, %s) favours buyer: out=%s", amountIn, sold, out)
			}

			// The retained constant product never shrinks.
			before := new(big.Int).Mul(tokenReserve, reserve)
			after := new(big.Int).Mul(new(big.Int).Sub(tokenReserve, out), newReserve)
			if after.Cmp(before) < 0 {
				t.Fatalf("constant product shrank: before=%s after=%s", before, after)
			}
		}
	}
}

func TestQuoteLowPrecisionAsset(t *testing.T) {
	// A pairing asset with six decimals uses its own reserve magnitude.
	total := ether(111_111_111)
	reserve := new(big.Int).Mul(big.NewInt(100_000), big.NewInt(1_000_000))
	amountIn := big.NewInt(25_000_000) // 25 units

	prev := new(big.Int)
	for i := 0; i < 10; i++ {
		sold := new(big.Int).Mul(ether(10_000_000), big.NewInt(int64(i)))
		out, err := Quote(amountIn, sold, total, reserve)
		if err != nil {
			t.Fatalf("six decimal quote failed at %d: %v", i, err)
		}
		if i > 0 && out.Cmp(prev) >= 0 {
			t.Fatalf("six decimal output did not decrease at %d", i)
		}
		prev = out
	}
}

func TestQuoteRejectsInvalidInput(t *testing.T) {
	total := ether(100)
	reserve := ether(10)

	if _, err := Quote(big.NewInt(0), big.NewInt(0), total, reserve); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := Quote(big.NewInt(-5), big.NewInt(0), total, reserve); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for negative input, got %v", err)
	}
	if _, err := Quote(ether(1), new(big.Int).Add(total, big.NewInt(1)), total, reserve); !errors.Is(err, ErrSoldExceedsPool) {
		t.Fatalf("expected ErrSoldExceedsPool, got %v", err)
	}
	if _, err := Quote(ether(1), big.NewInt(0), big.NewInt(0), reserve); !errors.Is(err, ErrInvalidSupply) {
		t.Fatalf("expected ErrInvalidSupply, got %v", err)
	}
	if _, err := Quote(ether(1), big.NewInt(0), total, big.NewInt(0)); !errors.Is(err, ErrInvalidReserve) {
		t.Fatalf("expected ErrInvalidReserve, got %v", err)
	}
	if _, err := Quote(big.NewInt(1), big.NewInt(0), total, ether(1_000_000_000)); !errors.Is(err, ErrZeroOutput) {
		t.Fatalf("expected ErrZeroOutput for dust input, got %v", err)
	}
}
