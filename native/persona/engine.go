package persona

import (
	"math/big"

	"personachain/core/types"
	"personachain/native/curve"
	"personachain/native/fees"
)

// LiquidityReceipt records the pooled-liquidity position created at
// graduation.
type LiquidityReceipt struct {
	ID          string
	PoolAccount [20]byte
}

// LiquidityVenue seeds a trading pool with both sides of the graduated
// reserve. The engine treats the call as fallible and persists nothing when
// it errors.
type LiquidityVenue interface {
	CreatePoolAndSeed(tokenA string, amountA *big.Int, tokenB string, amountB *big.Int) (*LiquidityReceipt, error)
}

// TreasuryMeter accounts the protocol-treasury share moved at graduation.
type TreasuryMeter interface {
	VaultAddress() [20]byte
	RecordDeposit(asset string, amount *big.Int) error
}

// IssuanceEngine drives curve purchases and graduation on top of the
// persona ledger.
type IssuanceEngine struct {
	ledger       *Ledger
	fees         *fees.Engine
	venue        LiquidityVenue
	treasury     TreasuryMeter
	loyaltyAsset string
	curveReserve *big.Int
}

// NewIssuanceEngine constructs an engine bound to the supplied ledger and fee
// engine, with the default virtual pairing reserve.
func NewIssuanceEngine(ledger *Ledger, feeEngine *fees.Engine) *IssuanceEngine {
	return &IssuanceEngine{
		ledger:       ledger,
		fees:         feeEngine,
		curveReserve: new(big.Int).Set(curve.DefaultVirtualPairingReserve),
	}
}

// SetVenue wires the pooled-liquidity venue used at graduation.
func (e *IssuanceEngine) SetVenue(venue LiquidityVenue) { e.venue = venue }

// SetTreasury wires the treasury meter credited at graduation.
func (e *IssuanceEngine) SetTreasury(meter TreasuryMeter) { e.treasury = meter }

// SetLoyaltyAsset configures the holding asset consulted for fee discounts.
func (e *IssuanceEngine) SetLoyaltyAsset(asset string) { e.loyaltyAsset = asset }

// SetCurveReserve overrides the virtual pairing-side reserve used for
// pricing.
func (e *IssuanceEngine) SetCurveReserve(reserve *big.Int) {
	if reserve == nil || reserve.Sign() <= 0 {
		e.curveReserve = new(big.Int).Set(curve.DefaultVirtualPairingReserve)
		return
	}
	e.curveReserve = new(big.Int).Set(reserve)
}

func (e *IssuanceEngine) ready() error {
	if e == nil || e.ledger == nil {
		return ErrNilState
	}
	return e.ledger.ready()
}

func curveAllocation(p *Persona) *big.Int {
	return new(big.Int).Set(p.Allocation.BondingCurve)
}

func liquidityAllocation(p *Persona) *big.Int {
	return new(big.Int).Set(p.Allocation.LiquidityReserve)
}

func treasuryAllocation(p *Persona) *big.Int {
	return new(big.Int).Set(p.Allocation.TreasuryDeposit)
}

// Quote prices a prospective purchase without mutating state. The returned
// amount nets out the buyer's current fee discount.
func (e *IssuanceEngine) Quote(personaID uint64, buyer [20]byte, amountIn *big.Int) (*big.Int, fees.Breakdown, error) {
	if err := e.ready(); err != nil {
		return nil, fees.Breakdown{}, err
	}
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, fees.Breakdown{}, ErrInvalidAmount
	}
	record, ok, err := e.ledger.state.PersonaGet(personaID)
	if err != nil {
		return nil, fees.Breakdown{}, err
	}
	if !ok || record == nil {
		return nil, fees.Breakdown{}, ErrPersonaNotFound
	}
	if record.Graduated {
		return nil, fees.Breakdown{}, ErrTradingOnLiquidityVenue
	}
	breakdown, err := e.feeFor(buyer, amountIn)
	if err != nil {
		return nil, fees.Breakdown{}, err
	}
	net := new(big.Int).Sub(amountIn, breakdown.Total)
	if net.Sign() <= 0 {
		return nil, fees.Breakdown{}, ErrInsufficientInput
	}
	available := curveAllocation(record)
	out, err := curve.Quote(net, record.TokensSold, available, e.curveReserve)
	if err != nil {
		if err == curve.ErrZeroOutput {
			return nil, fees.Breakdown{}, ErrInsufficientInput
		}
		return nil, fees.Breakdown{}, err
	}
	if new(big.Int).Add(record.TokensSold, out).Cmp(available) > 0 {
		return nil, fees.Breakdown{}, ErrInsufficientLiquidity
	}
	return out, breakdown, nil
}

func (e *IssuanceEngine) feeFor(buyer [20]byte, amountIn *big.Int) (fees.Breakdown, error) {
	if e.fees == nil {
		return fees.Breakdown{Total: big.NewInt(0), Creator: big.NewInt(0), Protocol: big.NewInt(0)}, nil
	}
	holding := big.NewInt(0)
	if e.loyaltyAsset != "" {
		account, err := e.ledger.state.GetAccount(buyer)
		if err != nil {
			return fees.Breakdown{}, err
		}
		holding = account.BalanceOf(e.loyaltyAsset)
	}
	return e.fees.Compute(amountIn, holding)
}

type accountCache struct {
	state    engineState
	accounts map[[20]byte]*types.Account
	order    [][20]byte
}

func newAccountCache(state engineState) *accountCache {
	return &accountCache{state: state, accounts: make(map[[20]byte]*types.Account)}
}

func (c *accountCache) get(addr [20]byte) (*types.Account, error) {
	if account, ok := c.accounts[addr]; ok {
		return account, nil
	}
	account, err := c.state.GetAccount(addr)
	if err != nil {
		return nil, err
	}
	c.accounts[addr] = account
	c.order = append(c.order, addr)
	return account, nil
}

func (c *accountCache) credit(addr [20]byte, asset string, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	account, err := c.get(addr)
	if err != nil {
		return err
	}
	account.SetBalance(asset, new(big.Int).Add(account.BalanceOf(asset), amount))
	return nil
}

func (c *accountCache) debit(addr [20]byte, asset string, amount *big.Int) error {
	account, err := c.get(addr)
	if err != nil {
		return err
	}
	balance := account.BalanceOf(asset)
	if balance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	account.SetBalance(asset, balance.Sub(balance, amount))
	return nil
}

func (c *accountCache) flush() error {
	for _, addr := range c.order {
		if err := c.state.PutAccount(addr, c.accounts[addr]); err != nil {
			return err
		}
	}
	return nil
}

// Purchase spends amountIn of the persona's pairing asset on the bonding
// curve. Tokens are locked in custody and released through the ledger's
// withdrawal path. Crossing the graduation threshold seeds the liquidity
// venue and settles the treasury share before any state is persisted, so a
// venue failure leaves the purchase unapplied. A zero deadline disables the
// staleness check; any positive deadline in the past fails ErrExpiredDeadline.
func (e *IssuanceEngine) Purchase(personaID uint64, buyer, recipient [20]byte, amountIn, minOut *big.Int, deadline int64) (*big.Int, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if isZeroAddress(recipient) {
		return nil, ErrInvalidRecipient
	}
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	now := e.ledger.now()
	if deadline > 0 && now > deadline {
		return nil, ErrExpiredDeadline
	}
	record, ok, err := e.ledger.state.PersonaGet(personaID)
	if err != nil {
		return nil, err
	}
	if !ok || record == nil {
		return nil, ErrPersonaNotFound
	}
	if record.Graduated {
		return nil, ErrTradingOnLiquidityVenue
	}
	record = record.Clone()

	breakdown, err := e.feeFor(buyer, amountIn)
	if err != nil {
		return nil, err
	}
	net := new(big.Int).Sub(amountIn, breakdown.Total)
	if net.Sign() <= 0 {
		return nil, ErrInsufficientInput
	}
	available := curveAllocation(record)
	out, err := curve.Quote(net, record.TokensSold, available, e.curveReserve)
	if err != nil {
		if err == curve.ErrZeroOutput {
			return nil, ErrInsufficientInput
		}
		return nil, err
	}
	if minOut != nil && out.Cmp(minOut) < 0 {
		return nil, ErrInsufficientOutput
	}
	// The virtual reserve lets the curve quote past the tokens actually
	// held for the curve, so cap sales at the bonding allocation.
	if new(big.Int).Add(record.TokensSold, out).Cmp(available) > 0 {
		return nil, ErrInsufficientLiquidity
	}

	cache := newAccountCache(e.ledger.state)
	if err := cache.debit(buyer, record.PairingAsset, amountIn); err != nil {
		return nil, err
	}
	if err := cache.credit(e.ledger.custody, record.PairingAsset, net); err != nil {
		return nil, err
	}
	if err := cache.credit(record.FeeRecipient, record.PairingAsset, breakdown.Creator); err != nil {
		return nil, err
	}
	if err := cache.credit(e.ledger.protocolTreasury, record.PairingAsset, breakdown.Protocol); err != nil {
		return nil, err
	}

	record.TokensSold = new(big.Int).Add(record.TokensSold, out)
	record.TotalDeposited = new(big.Int).Add(record.TotalDeposited, net)

	locks, ok, err := e.ledger.state.PersonaLockGet(personaID, recipient)
	if err != nil {
		return nil, err
	}
	if !ok || locks == nil {
		locks = &LockLedger{}
	} else {
		locks = locks.Clone()
	}
	locks.Append(out, now)

	var receiptID string
	if record.TotalDeposited.Cmp(record.GraduationThreshold) >= 0 {
		receiptID, err = e.graduate(record, cache)
		if err != nil {
			return nil, err
		}
	}

	if err := cache.flush(); err != nil {
		return nil, err
	}
	if err := e.ledger.state.PersonaLockPut(personaID, recipient, locks); err != nil {
		return nil, err
	}
	if err := e.ledger.state.PersonaPut(record); err != nil {
		return nil, err
	}
	e.ledger.emit(purchasedEvent(record, buyer, recipient, amountIn, breakdown.Total, out))
	if record.Graduated {
		e.ledger.emit(graduatedEvent(record, receiptID))
	}
	return new(big.Int).Set(out), nil
}

// graduate moves the deposited pairing reserve plus the liquidity token
// allocation into the venue pool, forwards the treasury token share to the
// vault and marks the persona graduated. All balance moves happen on the
// staged cache.
func (e *IssuanceEngine) graduate(record *Persona, cache *accountCache) (string, error) {
	if e.venue == nil {
		return "", ErrVenueNotSet
	}
	if e.treasury == nil {
		return "", ErrTreasuryNotSet
	}
	tokenSide := liquidityAllocation(record)
	pairingSide := new(big.Int).Set(record.TotalDeposited)
	if tokenSide.Sign() <= 0 || pairingSide.Sign() <= 0 {
		return "", ErrInsufficientLiquidity
	}

	receipt, err := e.venue.CreatePoolAndSeed(record.IssuedToken, tokenSide, record.PairingAsset, pairingSide)
	if err != nil {
		return "", err
	}
	vault := e.treasury.VaultAddress()
	if isZeroAddress(vault) {
		return "", ErrTreasuryNotSet
	}
	treasurySide := treasuryAllocation(record)

	if err := cache.debit(e.ledger.custody, record.IssuedToken, tokenSide); err != nil {
		return "", err
	}
	if err := cache.debit(e.ledger.custody, record.PairingAsset, pairingSide); err != nil {
		return "", err
	}
	if err := cache.credit(receipt.PoolAccount, record.IssuedToken, tokenSide); err != nil {
		return "", err
	}
	if err := cache.credit(receipt.PoolAccount, record.PairingAsset, pairingSide); err != nil {
		return "", err
	}
	if treasurySide.Sign() > 0 {
		if err := cache.debit(e.ledger.custody, record.IssuedToken, treasurySide); err != nil {
			return "", err
		}
		if err := cache.credit(vault, record.IssuedToken, treasurySide); err != nil {
			return "", err
		}
		if err := e.treasury.RecordDeposit(record.IssuedToken, treasurySide); err != nil {
			return "", err
		}
	}

	record.Graduated = true
	record.LiquidityReceiptID = receipt.ID
	return receipt.ID, nil
}
