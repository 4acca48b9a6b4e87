package econ

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseAmount resolves a user-supplied amount expression against a known
// balance. Recognized forms:
//
//	"1500"  absolute amount
//	"50%"   floor(balance * 50 / 100)
//	"all"   the full balance
//	"!100"  everything except 100 (balance - 100)
//
// The result is never negative; callers reject zero separately.
func ParseAmount(raw string, balance int64) (int64, error) {
	expr := strings.ToLower(strings.TrimSpace(raw))
	if expr == "" {
		return 0, fmt.Errorf("%w: empty expression", ErrInvalidAmount)
	}

	if expr == "all" {
		return balance, nil
	}

	if strings.HasSuffix(expr, "%") {
		pct, err := strconv.ParseFloat(strings.TrimSuffix(expr, "%"), 64)
		if err != nil || math.IsNaN(pct) || math.IsInf(pct, 0) {
			return 0, fmt.Errorf("%w: bad percentage %q", ErrInvalidAmount, raw)
		}
		if pct < 0 {
			return 0, fmt.Errorf("%w: negative percentage", ErrInvalidAmount)
		}
		return int64(math.Floor(float64(balance) * pct / 100)), nil
	}

	if strings.HasPrefix(expr, "!") {
		keep, err := strconv.ParseInt(strings.TrimPrefix(expr, "!"), 10, 64)
		if err != nil || keep < 0 {
			return 0, fmt.Errorf("%w: bad complement %q", ErrInvalidAmount, raw)
		}
		if keep > balance {
			return 0, fmt.Errorf("%w: cannot leave %d behind with balance %d", ErrInvalidAmount, keep, balance)
		}
		return balance - keep, nil
	}

	n, err := strconv.ParseInt(expr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: negative amount", ErrInvalidAmount)
	}
	return n, nil
}
