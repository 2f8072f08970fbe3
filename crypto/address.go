package crypto

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcutil/bech32"
)

// AddressPrefix is the human-readable part of a bech32 launchpad address.
type AddressPrefix string

// PersonaPrefix is the prefix carried by every account address.
const PersonaPrefix AddressPrefix = "psn"

// AddressLength is the raw byte length of an account address.
const AddressLength = 20

var errAddressLength = errors.New("crypto: address must be 20 bytes long")

// Address represents a 20-byte account address with its bech32 prefix.
type Address struct {
	prefix AddressPrefix
	bytes  [AddressLength]byte
}

// NewAddress wraps the supplied raw bytes in an Address.
func NewAddress(prefix AddressPrefix, b []byte) (Address, error) {
	if len(b) != AddressLength {
		return Address{}, errAddressLength
	}
	addr := Address{prefix: prefix}
	copy(addr.bytes[:], b)
	return addr, nil
}

// MustNewAddress wraps raw bytes and panics on malformed input. Reserved for
// tests and static wiring where the length is known.
func MustNewAddress(prefix AddressPrefix, b []byte) Address {
	addr, err := NewAddress(prefix, b)
	if err != nil {
		panic(err)
	}
	return addr
}

func (a Address) String() string {
	conv, err := bech32.ConvertBits(a.bytes[:], 8, 5, true)
	if err != nil {
		panic(err)
	}
	encoded, err := bech32.Encode(string(a.prefix), conv)
	if err != nil {
		panic(err)
	}
	return encoded
}

// Bytes returns the raw 20-byte address.
func (a Address) Bytes() [AddressLength]byte {
	return a.bytes
}

// Prefix returns the human-readable prefix associated with the address.
func (a Address) Prefix() AddressPrefix {
	return a.prefix
}

// DecodeAddress parses a bech32 account address.
func DecodeAddress(addrStr string) (Address, error) {
	prefix, decoded, err := bech32.Decode(addrStr)
	if err != nil {
		return Address{}, fmt.Errorf("invalid bech32 string: %w", err)
	}
	conv, err := bech32.ConvertBits(decoded, 5, 8, false)
	if err != nil {
		return Address{}, fmt.Errorf("error converting bits: %w", err)
	}
	return NewAddress(AddressPrefix(prefix), conv)
}
