package identity

import (
	"encoding/hex"
	"strconv"
)

func formatID(id uint64) string {
	return strconv.FormatUint(id, 10)
}

func formatAddr(addr [20]byte) string {
	return "0x" + hex.EncodeToString(addr[:])
}
