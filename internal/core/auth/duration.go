package auth

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var expiryPattern = regexp.MustCompile(`^(\d+)([smhdw]?)$`)

var expiryUnits = map[string]time.Duration{
	"":  time.Second,
	"s": time.Second,
	"m": time.Minute,
	"h": time.Hour,
	"d": 24 * time.Hour,
	"w": 7 * 24 * time.Hour,
}

// ParseExpiry parses a token lifetime such as "15m", "1h", "30d" or "2w".
// A bare integer is a number of seconds.
func ParseExpiry(s string) (time.Duration, error) {
	m := expiryPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid expiry %q: expected a number with an optional s, m, h, d or w suffix", s)
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid expiry %q: %w", s, err)
	}
	if n == 0 {
		return 0, errors.New("expiry must be greater than zero")
	}
	unit := expiryUnits[m[2]]
	if n > int64((1<<63-1)/unit) {
		return 0, fmt.Errorf("invalid expiry %q: out of range", s)
	}
	return time.Duration(n) * unit, nil
}
