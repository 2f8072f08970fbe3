package crypto

import (
	"bytes"
	"strings"
	"testing"
)

func TestAddressRoundTrip(t *testing.T) {
	raw := bytes.Repeat([]byte{0xab}, AddressLength)
	addr, err := NewAddress(PersonaPrefix, raw)
	if err != nil {
		t.Fatalf("new address: %v", err)
	}
	encoded := addr.String()
	if !strings.HasPrefix(encoded, string(PersonaPrefix)+"1") {
		t.Fatalf("encoded address missing prefix: %s", encoded)
	}

	decoded, err := DecodeAddress(encoded)
	if err != nil {
		t.Fatalf("decode address: %v", err)
	}
	if decoded.Bytes() != addr.Bytes() {
		t.Fatalf("round trip diverged: %x vs %x", decoded.Bytes(), addr.Bytes())
	}
	if decoded.Prefix() != PersonaPrefix {
		t.Fatalf("prefix diverged: %s", decoded.Prefix())
	}
}

func TestNewAddressRejectsBadLength(t *testing.T) {
	if _, err := NewAddress(PersonaPrefix, []byte{0x01}); err == nil {
		t.Fatalf("short payload must fail")
	}
	if _, err := NewAddress(PersonaPrefix, bytes.Repeat([]byte{0x01}, 32)); err == nil {
		t.Fatalf("long payload must fail")
	}
}

func TestDecodeAddressRejectsGarbage(t *testing.T) {
	cases := []string{"", "psn1", "not-bech32", "psn1qqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqxx"}
	for _, tc := range cases {
		if _, err := DecodeAddress(tc); err == nil {
			t.Fatalf("decode %q must fail", tc)
		}
	}
}
