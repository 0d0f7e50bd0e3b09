package verify

import (
	"fmt"
	"time"
)

// MaxSkew is the allowed absolute difference between a request's timestamp
// and now (spec.md §4.7 step 5, P7).
const MaxSkew = 15 * time.Minute

const basicISO8601 = "20060102T150405Z"

// ParseTimestamp accepts either the basic ISO-8601 form AWS uses in
// x-amz-date (20060102T150405Z) or the extended RFC3339 form from a plain
// Date header.
func ParseTimestamp(raw string) (time.Time, error) {
	if t, err := time.Parse(basicISO8601, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("verify: unparseable timestamp %q", raw)
}

// CheckSkew implements spec.md §4.7 step 5 / P7.
func CheckSkew(ts, now time.Time) error {
	skew := now.Sub(ts)
	if skew < 0 {
		skew = -skew
	}
	if skew > MaxSkew {
		return fmt.Errorf("%w: %s from now", ErrClockSkew, skew)
	}
	return nil
}
