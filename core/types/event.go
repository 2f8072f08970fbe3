package types

// Event is a structured record of a state change. Attributes hold the
// emitting module's key-value payload.
type Event struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}
