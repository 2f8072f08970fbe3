package persona

import (
	"encoding/binary"
	"encoding/hex"
	"math/big"

	"lukechampine.com/blake3"
)

// Name and symbol bounds enforced at persona creation.
const (
	MinNameLength   = 1
	MaxNameLength   = 32
	MinSymbolLength = 1
	MaxSymbolLength = 10
)

// TokenTotalSupply is the fixed supply minted for every persona token:
// 333,333,333 tokens at 18 decimals.
var TokenTotalSupply = new(big.Int).Mul(big.NewInt(333_333_333), big.NewInt(1e18))

// PoolAllocation partitions a persona's minted supply. The three standard
// pools each hold a third of the supply; the agent co-funding variant keeps a
// third for liquidity and splits the rest into three 2/9 pools.
type PoolAllocation struct {
	BondingCurve     *big.Int `json:"bondingCurve"`
	LiquidityReserve *big.Int `json:"liquidityReserve"`
	TreasuryDeposit  *big.Int `json:"treasuryDeposit"`
	AgentRewards     *big.Int `json:"agentRewards"`
}

// StandardAllocation splits the supply a third each across bonding curve,
// liquidity reserve and treasury deposit.
func StandardAllocation() PoolAllocation {
	third := new(big.Int).Div(TokenTotalSupply, big.NewInt(3))
	return PoolAllocation{
		BondingCurve:     third,
		LiquidityReserve: new(big.Int).Set(third),
		TreasuryDeposit:  new(big.Int).Set(third),
		AgentRewards:     big.NewInt(0),
	}
}

// AgentAllocation reserves a third for liquidity and 2/9 each for bonding
// curve, treasury deposit and the agent reward pool.
func AgentAllocation() PoolAllocation {
	ninth := new(big.Int).Div(TokenTotalSupply, big.NewInt(9))
	twoNinths := new(big.Int).Mul(ninth, big.NewInt(2))
	return PoolAllocation{
		BondingCurve:     new(big.Int).Set(twoNinths),
		LiquidityReserve: new(big.Int).Mul(ninth, big.NewInt(3)),
		TreasuryDeposit:  new(big.Int).Set(twoNinths),
		AgentRewards:     new(big.Int).Set(twoNinths),
	}
}

// Clone returns a deep copy of the allocation.
func (p PoolAllocation) Clone() PoolAllocation {
	clone := PoolAllocation{}
	if p.BondingCurve != nil {
		clone.BondingCurve = new(big.Int).Set(p.BondingCurve)
	}
	if p.LiquidityReserve != nil {
		clone.LiquidityReserve = new(big.Int).Set(p.LiquidityReserve)
	}
	if p.TreasuryDeposit != nil {
		clone.TreasuryDeposit = new(big.Int).Set(p.TreasuryDeposit)
	}
	if p.AgentRewards != nil {
		clone.AgentRewards = new(big.Int).Set(p.AgentRewards)
	}
	return clone
}

// MetadataPair is one key/value entry of a persona's ordered metadata.
type MetadataPair struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Persona is the canonical on-ledger record for one minted identity and its
// issued token.
type Persona struct {
	ID                  uint64         `json:"id"`
	Name                string         `json:"name"`
	Symbol              string         `json:"symbol"`
	Creator             [20]byte       `json:"creator"`
	FeeRecipient        [20]byte       `json:"feeRecipient"`
	PairingAsset        string         `json:"pairingAsset"`
	IssuedToken         string         `json:"issuedToken"`
	AgentToken          string         `json:"agentToken,omitempty"`
	Allocation          PoolAllocation `json:"allocation"`
	GraduationThreshold *big.Int       `json:"graduationThreshold"`
	TotalDeposited      *big.Int       `json:"totalDeposited"`
	TokensSold          *big.Int       `json:"tokensSold"`
	Graduated           bool           `json:"graduated"`
	LiquidityReceiptID  string         `json:"liquidityReceiptId,omitempty"`
	Metadata            []MetadataPair `json:"metadata,omitempty"`
	CreatedAt           int64          `json:"createdAt"`
}

// Clone returns a deep copy of the persona.
func (p *Persona) Clone() *Persona {
	if p == nil {
		return nil
	}
	clone := *p
	clone.Allocation = p.Allocation.Clone()
	if p.GraduationThreshold != nil {
		clone.GraduationThreshold = new(big.Int).Set(p.GraduationThreshold)
	}
	if p.TotalDeposited != nil {
		clone.TotalDeposited = new(big.Int).Set(p.TotalDeposited)
	}
	if p.TokensSold != nil {
		clone.TokensSold = new(big.Int).Set(p.TokensSold)
	}
	if len(p.Metadata) > 0 {
		clone.Metadata = make([]MetadataPair, len(p.Metadata))
		copy(clone.Metadata, p.Metadata)
	}
	return &clone
}

// TokenAssetID derives the asset identifier for a persona's issued token from
// its id and symbol. The derivation is deterministic so restarts and replicas
// agree without extra state.
func TokenAssetID(id uint64, symbol string) string {
	var seed [8]byte
	binary.BigEndian.PutUint64(seed[:], id)
	sum := blake3.Sum256(append(seed[:], symbol...))
	return "persona/" + hex.EncodeToString(sum[:8])
}

// PurchaseRecord is one locked curve purchase for a buyer.
type PurchaseRecord struct {
	Amount    *big.Int `json:"amount"`
	CreatedAt int64    `json:"createdAt"`
	Withdrawn bool     `json:"withdrawn"`
}

// Clone returns a deep copy of the record.
func (r *PurchaseRecord) Clone() *PurchaseRecord {
	if r == nil {
		return nil
	}
	clone := *r
	if r.Amount != nil {
		clone.Amount = new(big.Int).Set(r.Amount)
	}
	return &clone
}

// LockLedger holds the append-only purchase history for one (persona, buyer)
// pair. Unwithdrawn carries the indices still awaiting release so withdrawal
// checks avoid scanning settled history.
type LockLedger struct {
	Records     []*PurchaseRecord `json:"records"`
	Unwithdrawn []uint32          `json:"unwithdrawn"`
}

// Clone returns a deep copy of the lock ledger.
func (l *LockLedger) Clone() *LockLedger {
	if l == nil {
		return nil
	}
	clone := &LockLedger{}
	if len(l.Records) > 0 {
		clone.Records = make([]*PurchaseRecord, len(l.Records))
		for i, rec := range l.Records {
			clone.Records[i] = rec.Clone()
		}
	}
	if len(l.Unwithdrawn) > 0 {
		clone.Unwithdrawn = make([]uint32, len(l.Unwithdrawn))
		copy(clone.Unwithdrawn, l.Unwithdrawn)
	}
	return clone
}

// Append records a new locked purchase and indexes it as unwithdrawn.
func (l *LockLedger) Append(amount *big.Int, now int64) {
	record := &PurchaseRecord{Amount: new(big.Int).Set(amount), CreatedAt: now}
	l.Records = append(l.Records, record)
	l.Unwithdrawn = append(l.Unwithdrawn, uint32(len(l.Records)-1))
}

// eligible returns the unwithdrawn indices that may be released at now.
func (l *LockLedger) eligible(now int64, lockDuration int64, graduated bool) []uint32 {
	if l == nil {
		return nil
	}
	out := make([]uint32, 0, len(l.Unwithdrawn))
	for _, idx := range l.Unwithdrawn {
		if int(idx) >= len(l.Records) {
			continue
		}
		record := l.Records[idx]
		if record == nil || record.Withdrawn {
			continue
		}
		if graduated || now-record.CreatedAt >= lockDuration {
			out = append(out, idx)
		}
	}
	return out
}

// release marks the supplied indices withdrawn and returns the total amount
// freed.
func (l *LockLedger) release(indices []uint32) *big.Int {
	total := big.NewInt(0)
	released := make(map[uint32]struct{}, len(indices))
	for _, idx := range indices {
		if int(idx) >= len(l.Records) {
			continue
		}
		record := l.Records[idx]
		if record == nil || record.Withdrawn {
			continue
		}
		record.Withdrawn = true
		total = total.Add(total, record.Amount)
		released[idx] = struct{}{}
	}
	if len(released) > 0 {
		remaining := l.Unwithdrawn[:0]
		for _, idx := range l.Unwithdrawn {
			if _, ok := released[idx]; !ok {
				remaining = append(remaining, idx)
			}
		}
		l.Unwithdrawn = remaining
	}
	return total
}
