package core

import (
	"fmt"
	"strings"

	"github.com/gaze-network/uint128"
)

// Quantity is a 128-bit unsigned token amount. Balances and the total
// supply are stored as quantities; arithmetic must go through the
// checked helpers below so overflow and underflow surface as errors
// instead of panics.
type Quantity = uint128.Uint128

var (
	ZeroQuantity = uint128.Zero
	MaxQuantity  = uint128.Max
)

// Q64 lifts a uint64 into a Quantity.
func Q64(v uint64) Quantity {
	return uint128.From64(v)
}

// AddQuantity returns a+b and reports whether the sum is representable.
func AddQuantity(a, b Quantity) (Quantity, bool) {
	if a.Cmp(uint128.Max.Sub(b)) > 0 {
		return uint128.Zero, false
	}
	return a.Add(b), true
}

// SubQuantity returns a-b and reports whether the difference is
// non-negative.
func SubQuantity(a, b Quantity) (Quantity, bool) {
	if a.Cmp(b) < 0 {
		return uint128.Zero, false
	}
	return a.Sub(b), true
}

func MinQuantity(a, b Quantity) Quantity {
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}

// ParseQuantity parses a decimal string quantity.
func ParseQuantity(value string) (Quantity, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return uint128.Zero, fmt.Errorf("core: quantity is required")
	}
	parsed, err := uint128.FromString(value)
	if err != nil {
		return uint128.Zero, fmt.Errorf("core: invalid quantity %q: %w", value, err)
	}
	return parsed, nil
}
