package identity

import (
	"errors"

	"personachain/core/events"
	"personachain/core/types"
)

var (
	// ErrNilState reports a registry used before wiring its state backend.
	ErrNilState = errors.New("identity registry: state not configured")
	// ErrNotFound reports lookups for an identity that was never minted.
	ErrNotFound = errors.New("identity registry: identity not found")
	// ErrInvalidOwner reports the zero address where an owner is required.
	ErrInvalidOwner = errors.New("identity registry: invalid owner")
	// ErrUnauthorized reports a transfer attempted by a non-owner.
	ErrUnauthorized = errors.New("identity registry: caller does not own identity")
)

const (
	// EventTypeMinted is emitted when a new identity is assigned.
	EventTypeMinted = "identity.minted"
	// EventTypeTransferred is emitted when an identity changes owner.
	EventTypeTransferred = "identity.transferred"
)

type registryState interface {
	IdentityCounter() (uint64, error)
	SetIdentityCounter(next uint64) error
	IdentityOwnerGet(id uint64) ([20]byte, bool, error)
	IdentityOwnerPut(id uint64, owner [20]byte) error
}

// Registry maps persona identities to their owners. Identifiers are assigned
// monotonically starting from one and are never reused.
type Registry struct {
	state   registryState
	emitter events.Emitter
}

// NewRegistry constructs a registry with default dependencies.
func NewRegistry() *Registry {
	return &Registry{emitter: events.NoopEmitter{}}
}

// SetState configures the state backend used by the registry.
func (r *Registry) SetState(state registryState) { r.state = state }

// SetEmitter configures the event emitter used by the registry.
func (r *Registry) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		r.emitter = events.NoopEmitter{}
		return
	}
	r.emitter = emitter
}

func isZeroAddress(addr [20]byte) bool {
	var zero [20]byte
	return addr == zero
}

// MintIdentity assigns the next identity id to the supplied owner.
func (r *Registry) MintIdentity(owner [20]byte) (uint64, error) {
	if r == nil || r.state == nil {
		return 0, ErrNilState
	}
	if isZeroAddress(owner) {
		return 0, ErrInvalidOwner
	}
	counter, err := r.state.IdentityCounter()
	if err != nil {
		return 0, err
	}
	id := counter + 1
	if err := r.state.IdentityOwnerPut(id, owner); err != nil {
		return 0, err
	}
	if err := r.state.SetIdentityCounter(id); err != nil {
		return 0, err
	}
	r.emitter.Emit(mintedEvent(id, owner))
	return id, nil
}

// OwnerOf resolves the current owner of the supplied identity.
func (r *Registry) OwnerOf(id uint64) ([20]byte, error) {
	var zero [20]byte
	if r == nil || r.state == nil {
		return zero, ErrNilState
	}
	owner, ok, err := r.state.IdentityOwnerGet(id)
	if err != nil {
		return zero, err
	}
	if !ok {
		return zero, ErrNotFound
	}
	return owner, nil
}

// Transfer reassigns an identity to a new owner. Only the current owner may
// initiate the transfer.
func (r *Registry) Transfer(id uint64, caller, newOwner [20]byte) error {
	if r == nil || r.state == nil {
		return ErrNilState
	}
	if isZeroAddress(newOwner) {
		return ErrInvalidOwner
	}
	owner, ok, err := r.state.IdentityOwnerGet(id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	if owner != caller {
		return ErrUnauthorized
	}
	if err := r.state.IdentityOwnerPut(id, newOwner); err != nil {
		return err
	}
	r.emitter.Emit(transferredEvent(id, owner, newOwner))
	return nil
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

func mintedEvent(id uint64, owner [20]byte) events.Event {
	return eventEnvelope{evt: &types.Event{
		Type: EventTypeMinted,
		Attributes: map[string]string{
			"id":    formatID(id),
			"owner": formatAddr(owner),
		},
	}}
}

func transferredEvent(id uint64, from, to [20]byte) events.Event {
	return eventEnvelope{evt: &types.Event{
		Type: EventTypeTransferred,
		Attributes: map[string]string{
			"id":   formatID(id),
			"from": formatAddr(from),
			"to":   formatAddr(to),
		},
	}}
}
