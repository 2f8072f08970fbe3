package persona

import (
	"encoding/hex"
	"math/big"
	"strconv"

	"personachain/core/events"
	"personachain/core/types"
)

const (
	// EventTypeCreated is emitted when a persona and its token are minted.
	EventTypeCreated = "persona.created"
	// EventTypePurchased is emitted for every settled curve purchase.
	EventTypePurchased = "persona.purchased"
	// EventTypeGraduated is emitted exactly once per persona at graduation.
	EventTypeGraduated = "persona.graduated"
	// EventTypeWithdrawn is emitted when locked purchases are released.
	EventTypeWithdrawn = "persona.withdrawn"
	// EventTypeMetadataUpdated is emitted when persona metadata changes.
	EventTypeMetadataUpdated = "persona.metadata.updated"
)

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

// WrapEvent converts a raw event payload into the emitter-friendly envelope.
func WrapEvent(evt *types.Event) events.Event { return eventEnvelope{evt: evt} }

func hexAddr(addr [20]byte) string {
	return "0x" + hex.EncodeToString(addr[:])
}

func formatID(id uint64) string {
	return strconv.FormatUint(id, 10)
}

func createdEvent(p *Persona) *types.Event {
	return &types.Event{
		Type: EventTypeCreated,
		Attributes: map[string]string{
			"id":           formatID(p.ID),
			"name":         p.Name,
			"symbol":       p.Symbol,
			"creator":      hexAddr(p.Creator),
			"pairingAsset": p.PairingAsset,
			"issuedToken":  p.IssuedToken,
		},
	}
}

func purchasedEvent(p *Persona, buyer, recipient [20]byte, amountIn, fee, amountOut *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypePurchased,
		Attributes: map[string]string{
			"id":           formatID(p.ID),
			"pairingAsset": p.PairingAsset,
			"buyer":        hexAddr(buyer),
			"recipient":    hexAddr(recipient),
			"amountIn":     amountIn.String(),
			"fee":          fee.String(),
			"amountOut":    amountOut.String(),
			"sold":         p.TokensSold.String(),
			"deposited":    p.TotalDeposited.String(),
		},
	}
}

func graduatedEvent(p *Persona, receiptID string) *types.Event {
	return &types.Event{
		Type: EventTypeGraduated,
		Attributes: map[string]string{
			"id":          formatID(p.ID),
			"issuedToken": p.IssuedToken,
			"deposited":   p.TotalDeposited.String(),
			"receipt":     receiptID,
		},
	}
}

func withdrawnEvent(id uint64, buyer [20]byte, amount *big.Int, records int) *types.Event {
	return &types.Event{
		Type: EventTypeWithdrawn,
		Attributes: map[string]string{
			"id":      formatID(id),
			"buyer":   hexAddr(buyer),
			"amount":  amount.String(),
			"records": strconv.Itoa(records),
		},
	}
}

func metadataUpdatedEvent(id uint64, caller [20]byte, keys []string) *types.Event {
	attrs := map[string]string{
		"id":     formatID(id),
		"caller": hexAddr(caller),
		"keys":   strconv.Itoa(len(keys)),
	}
	return &types.Event{Type: EventTypeMetadataUpdated, Attributes: attrs}
}
