package padding

import (
	"fmt"
	"strings"
)

// Policy decides what happens when an event holds more particles than slots.
type Policy int

// Truncation policies. PolicySilent keeps the first capacity particles and
// reports nothing; PolicyCount does the same but asks the caller to surface
// the dropped counts; PolicyStrict fails the conversion instead.
const (
	PolicySilent Policy = iota
	PolicyCount
	PolicyStrict
)

// String returns the configuration spelling of p.
func (p Policy) String() string {
	switch p {
	case PolicySilent:
		return "silent"
	case PolicyCount:
		return "count"
	case PolicyStrict:
		return "strict"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParsePolicy parses silent, count or strict (case-insensitive). Empty means silent.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "silent":
		return PolicySilent, nil
	case "count":
		return PolicyCount, nil
	case "strict":
		return PolicyStrict, nil
	default:
		return PolicySilent, fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}

// Option applies a configuration option to the Converter.
type Option func(*Converter)

// WithPolicy sets the truncation policy.
func WithPolicy(p Policy) Option {
	return func(c *Converter) {
		c.policy = p
	}
}

// WithAlignmentCheck toggles validation of per-event list lengths across the
// features of a species. Enabled by default.
func WithAlignmentCheck(enabled bool) Option {
	return func(c *Converter) {
		c.checkAlignment = enabled
	}
}
