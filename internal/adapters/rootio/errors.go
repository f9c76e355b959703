package rootio

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrOpen            = errors.New("open input failed")
	ErrTreeNotFound    = errors.New("tree not found")
	ErrMissingBranch   = errors.New("branch not found")
	ErrUnsupportedType = errors.New("unsupported branch type")
	ErrClosed          = errors.New("input closed")
)
