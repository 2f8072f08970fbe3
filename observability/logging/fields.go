package logging

import (
	"log/slog"
	"strings"
)

// shortAddrKeep is how many characters survive on each side when an address
// is shortened for logging.
const shortAddrKeep = 6

var addressKeys = map[string]struct{}{
	"buyer":        {},
	"recipient":    {},
	"creator":      {},
	"owner":        {},
	"holder":       {},
	"custody":      {},
	"vault":        {},
	"feerecipient": {},
}

// IsAddressKey reports whether the key names an account address in launchpad
// log lines.
func IsAddressKey(key string) bool {
	_, ok := addressKeys[strings.ToLower(strings.TrimSpace(key))]
	return ok
}

// ShortenAddress collapses the middle of a bech32 or hex account address so
// log lines stay grep-able without carrying the full address. Values too
// short to shorten are returned unchanged.
func ShortenAddress(value string) string {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) <= 2*shortAddrKeep+1 {
		return value
	}
	return trimmed[:shortAddrKeep] + ".." + trimmed[len(trimmed)-shortAddrKeep:]
}

// Addr returns a slog.Attr with the address shortened for emission.
func Addr(key, value string) slog.Attr {
	return slog.String(key, ShortenAddress(value))
}
