package venue

import (
	"errors"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"lukechampine.com/blake3"

	"personachain/core/events"
	"personachain/core/types"
	"personachain/native/persona"
)

var (
	ErrNilState          = errors.New("venue: state not configured")
	ErrInvalidPair       = errors.New("venue: invalid token pair")
	ErrInvalidAmount     = errors.New("venue: seed amounts must be positive")
	ErrPoolAlreadyExists = errors.New("venue: pool already exists for pair")
	ErrPoolNotFound      = errors.New("venue: pool not found")
)

// Pool is the persisted record of a seeded liquidity pool.
type Pool struct {
	ID        string
	TokenA    string
	TokenB    string
	ReserveA  *big.Int
	ReserveB  *big.Int
	Account   [20]byte
	CreatedAt int64
}

// Clone returns a deep copy of the pool record.
func (p *Pool) Clone() *Pool {
	if p == nil {
		return nil
	}
	clone := *p
	if p.ReserveA != nil {
		clone.ReserveA = new(big.Int).Set(p.ReserveA)
	}
	if p.ReserveB != nil {
		clone.ReserveB = new(big.Int).Set(p.ReserveB)
	}
	return &clone
}

type venueState interface {
	PoolGet(pairKey string) (*Pool, bool, error)
	PoolPut(pairKey string, pool *Pool) error
}

// Registry provisions one pool per token pair and acts as the graduation
// venue for the persona launchpad.
type Registry struct {
	state   venueState
	emitter events.Emitter
	nowFn   func() int64
	newID   func() string
}

// NewRegistry constructs a venue registry with default dependencies.
func NewRegistry() *Registry {
	return &Registry{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
		newID:   func() string { return uuid.NewString() },
	}
}

// SetState configures the state backend used by the registry.
func (r *Registry) SetState(state venueState) { r.state = state }

// SetEmitter configures the event emitter used by the registry.
func (r *Registry) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		r.emitter = events.NoopEmitter{}
		return
	}
	r.emitter = emitter
}

// SetNowFunc overrides the time source for deterministic testing.
func (r *Registry) SetNowFunc(now func() int64) {
	if now == nil {
		r.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	r.nowFn = now
}

// SetIDFunc overrides receipt id generation for deterministic testing.
func (r *Registry) SetIDFunc(gen func() string) {
	if gen == nil {
		r.newID = func() string { return uuid.NewString() }
		return
	}
	r.newID = gen
}

// pairKey orders the pair so A/B and B/A map to the same pool.
func pairKey(tokenA, tokenB string) string {
	if tokenA > tokenB {
		tokenA, tokenB = tokenB, tokenA
	}
	return tokenA + "|" + tokenB
}

// poolAccount derives a deterministic account for the pool's reserves.
func poolAccount(key string) [20]byte {
	sum := blake3.Sum256([]byte("venue/pool/" + key))
	var addr [20]byte
	copy(addr[:], sum[:20])
	return addr
}

// CreatePoolAndSeed provisions the pool for the supplied pair and records
// the seeded reserves. The caller moves the underlying balances; the
// registry only tracks the position and hands back the pool account.
func (r *Registry) CreatePoolAndSeed(tokenA string, amountA *big.Int, tokenB string, amountB *big.Int) (*persona.LiquidityReceipt, error) {
	if r == nil || r.state == nil {
		return nil, ErrNilState
	}
	tokenA = strings.TrimSpace(tokenA)
	tokenB = strings.TrimSpace(tokenB)
	if tokenA == "" || tokenB == "" || tokenA == tokenB {
		return nil, ErrInvalidPair
	}
	if amountA == nil || amountA.Sign() <= 0 || amountB == nil || amountB.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	key := pairKey(tokenA, tokenB)
	if _, ok, err := r.state.PoolGet(key); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrPoolAlreadyExists
	}
	pool := &Pool{
		ID:        r.newID(),
		TokenA:    tokenA,
		TokenB:    tokenB,
		ReserveA:  new(big.Int).Set(amountA),
		ReserveB:  new(big.Int).Set(amountB),
		Account:   poolAccount(key),
		CreatedAt: r.nowFn(),
	}
	if err := r.state.PoolPut(key, pool); err != nil {
		return nil, err
	}
	r.emitter.Emit(createdEvent(pool))
	return &persona.LiquidityReceipt{ID: pool.ID, PoolAccount: pool.Account}, nil
}

// Get returns the pool for the supplied pair.
func (r *Registry) Get(tokenA, tokenB string) (*Pool, error) {
	if r == nil || r.state == nil {
		return nil, ErrNilState
	}
	pool, ok, err := r.state.PoolGet(pairKey(tokenA, tokenB))
	if err != nil {
		return nil, err
	}
	if !ok || pool == nil {
		return nil, ErrPoolNotFound
	}
	return pool.Clone(), nil
}

type eventEnvelope struct{ evt *types.Event }

func (e eventEnvelope) EventType() string { return e.evt.Type }

func createdEvent(pool *Pool) events.Event {
	return eventEnvelope{evt: &types.Event{
		Type: "venue.pool.created",
		Attributes: map[string]string{
			"id":       pool.ID,
			"tokenA":   pool.TokenA,
			"tokenB":   pool.TokenB,
			"reserveA": pool.ReserveA.String(),
			"reserveB": pool.ReserveB.String(),
		},
	}}
}
