package padding

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrInvalidCapacity  = errors.New("capacity must be positive")
	ErrMissingFeature   = errors.New("feature missing from ragged set")
	ErrAlignment        = errors.New("ragged features are not aligned")
	ErrCapacityExceeded = errors.New("particle count exceeds capacity")
	ErrUnknownPolicy    = errors.New("unknown truncation policy")
)
