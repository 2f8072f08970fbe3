package rewards

import (
	"errors"
	"strconv"
	"strings"

	"personachain/core/events"
	"personachain/core/types"
)

// BpsDenominator is the basis-point scale used for pool shares.
const BpsDenominator = 10_000

var (
	// ErrNilState reports a registry used before wiring its state backend.
	ErrNilState = errors.New("rewards registry: state not configured")
	// ErrInvalidPool reports a blank pool name.
	ErrInvalidPool = errors.New("rewards registry: pool name required")
	// ErrInvalidShare reports a share outside basis-point bounds.
	ErrInvalidShare = errors.New("rewards registry: share must be within basis points")
	// ErrTotalAllocationExceeds100 reports shares summing past 100%.
	ErrTotalAllocationExceeds100 = errors.New("rewards registry: total allocation exceeds 100%")
)

// EventTypePoolRegistered is emitted when a staking pool allocation changes.
const EventTypePoolRegistered = "rewards.pool.registered"

// PoolAllocation reserves a basis-point share of staking emissions for a
// named pool. Accrual itself runs in the external staking collaborator; the
// launchpad only guards the aggregate bookkeeping.
type PoolAllocation struct {
	Name     string `json:"name"`
	ShareBps uint32 `json:"shareBps"`
}

type allocationState interface {
	RewardAllocationsGet() ([]PoolAllocation, error)
	RewardAllocationsPut(allocations []PoolAllocation) error
}

// Registry tracks the staking collaborator's pool allocations.
type Registry struct {
	state   allocationState
	emitter events.Emitter
}

// NewRegistry constructs a registry with default dependencies.
func NewRegistry() *Registry {
	return &Registry{emitter: events.NoopEmitter{}}
}

// SetState configures the state backend used by the registry.
func (r *Registry) SetState(state allocationState) { r.state = state }

// SetEmitter configures the event emitter used by the registry.
func (r *Registry) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		r.emitter = events.NoopEmitter{}
		return
	}
	r.emitter = emitter
}

// RegisterPool inserts or updates a pool allocation. The aggregate share
// across all pools may never exceed 100%.
func (r *Registry) RegisterPool(name string, shareBps uint32) error {
	if r == nil || r.state == nil {
		return ErrNilState
	}
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return ErrInvalidPool
	}
	if shareBps > BpsDenominator {
		return ErrInvalidShare
	}
	allocations, err := r.state.RewardAllocationsGet()
	if err != nil {
		return err
	}
	total := uint64(shareBps)
	replaced := false
	for i := range allocations {
		if allocations[i].Name == trimmed {
			allocations[i].ShareBps = shareBps
			replaced = true
			continue
		}
		total += uint64(allocations[i].ShareBps)
	}
	if total > BpsDenominator {
		return ErrTotalAllocationExceeds100
	}
	if !replaced {
		allocations = append(allocations, PoolAllocation{Name: trimmed, ShareBps: shareBps})
	}
	if err := r.state.RewardAllocationsPut(allocations); err != nil {
		return err
	}
	r.emitter.Emit(poolRegisteredEvent(trimmed, shareBps))
	return nil
}

// Allocations returns the registered pool allocations.
func (r *Registry) Allocations() ([]PoolAllocation, error) {
	if r == nil || r.state == nil {
		return nil, ErrNilState
	}
	allocations, err := r.state.RewardAllocationsGet()
	if err != nil {
		return nil, err
	}
	out := make([]PoolAllocation, len(allocations))
	copy(out, allocations)
	return out, nil
}

type eventEnvelope struct {
	evt *types.Event
}

func (e eventEnvelope) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e eventEnvelope) Event() *types.Event { return e.evt }

func poolRegisteredEvent(name string, shareBps uint32) events.Event {
	return eventEnvelope{evt: &types.Event{
		Type: EventTypePoolRegistered,
		Attributes: map[string]string{
			"pool":     name,
			"shareBps": strconv.FormatUint(uint64(shareBps), 10),
		},
	}}
}
