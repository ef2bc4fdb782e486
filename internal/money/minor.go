// Package money converts major-unit order prices to the integer minor units
// the gateway expects. The gateway re-checks the amount during order
// confirmation, so the conversion here must match its own exactly.
package money

import (
	"fmt"
	"strconv"
	"strings"
)

// ToMinorUnits converts a major-unit amount to minor units (x100), truncating
// anything below one minor unit. The conversion goes through the shortest
// decimal representation of the float so 123.45 yields 12345 exactly instead
// of drifting through binary rounding.
func ToMinorUnits(major float64) (int64, error) {
	if major < 0 {
		return 0, fmt.Errorf("negative amount: %v", major)
	}

	s := strconv.FormatFloat(major, 'f', -1, 64)

	intPart := s
	fracPart := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i+1:]
	}

	// Keep at most two fractional digits; the rest is sub-cent and truncated.
	if len(fracPart) > 2 {
		fracPart = fracPart[:2]
	}
	for len(fracPart) < 2 {
		fracPart += "0"
	}

	n, err := strconv.ParseInt(intPart+fracPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("amount out of range: %v", major)
	}
	return n, nil
}
