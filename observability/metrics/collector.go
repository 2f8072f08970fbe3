package metrics

import (
	"strconv"

	"personachain/core/events"
	"personachain/core/types"
	"personachain/native/persona"
)

// payloadEvent is satisfied by emitter envelopes that expose the full
// attribute set alongside the event type.
type payloadEvent interface {
	Event() *types.Event
}

// Collector is an events.Emitter that folds launchpad state transitions into
// the Prometheus counters. Set Next to keep forwarding events downstream.
type Collector struct {
	Next events.Emitter
}

// Emit records the event against the launchpad counters and forwards it.
func (c *Collector) Emit(evt events.Event) {
	if evt != nil {
		observe(evt)
	}
	if c.Next != nil {
		c.Next.Emit(evt)
	}
}

func observe(evt events.Event) {
	reg := Launchpad()
	var attrs map[string]string
	if p, ok := evt.(payloadEvent); ok {
		if raw := p.Event(); raw != nil {
			attrs = raw.Attributes
		}
	}
	switch evt.EventType() {
	case persona.EventTypeCreated:
		reg.PersonasCreated.WithLabelValues(attrs["pairingAsset"]).Inc()
	case persona.EventTypePurchased:
		reg.Purchases.WithLabelValues(attrs["pairingAsset"]).Inc()
		if fee, err := strconv.ParseFloat(attrs["fee"], 64); err == nil {
			reg.FeeVolume.WithLabelValues(attrs["pairingAsset"]).Add(fee)
		}
	case persona.EventTypeGraduated:
		reg.Graduations.Inc()
	case persona.EventTypeWithdrawn:
		reg.Withdrawals.Inc()
	}
}
