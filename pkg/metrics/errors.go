package metrics

import (
	"errors"
)

// Sentinel kinds for metrics errors.
var (
	ErrTextfileWrite = errors.New("metrics textfile write failed")
)
