package entity

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ErrInvalidAddress is returned when a wallet address fails format validation.
// Requests carrying an invalid address are rejected before any upstream or
// cache work happens.
var ErrInvalidAddress = fmt.Errorf("invalid wallet address")

// AddressLength is the length of a canonical wallet address ("0x" + 40 hex chars).
const AddressLength = 42

// NormalizeAddress validates a wallet address and returns its canonical
// lowercase form. Input is case-insensitive; all lookups and storage keys
// use the normalized form.
func NormalizeAddress(raw string) (string, error) {
	addr := strings.TrimSpace(raw)
	if len(addr) != AddressLength || !strings.HasPrefix(addr, "0x") {
		return "", fmt.Errorf("%w: expected 0x followed by 40 hexadecimal characters", ErrInvalidAddress)
	}
	if !common.IsHexAddress(addr) {
		return "", fmt.Errorf("%w: expected 0x followed by 40 hexadecimal characters", ErrInvalidAddress)
	}
	return strings.ToLower(addr), nil
}

// IsNormalizedAddress reports whether addr is already in canonical form.
func IsNormalizedAddress(addr string) bool {
	normalized, err := NormalizeAddress(addr)
	return err == nil && normalized == addr
}
