// Package naming derives output dataset ids and paths from input identifiers.
package naming

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Naming defaults.
const (
	DefaultPrefix = "user.ewoodwar."
	SuffixLen     = len(".root")
	outputStem    = "data_"
	outputExt     = ".h5"
)

// ErrInvalidIdentifier is returned when no dataset id can be derived.
var ErrInvalidIdentifier = errors.New("invalid input identifier")

// DatasetID derives the output id of an input identifier: take the final
// "/"-separated segment, strip prefix from its start, then drop the trailing
// 5-character ".root" suffix. Identifiers may be local paths or URLs.
func DatasetID(identifier, prefix string) (string, error) {
	id := strings.TrimSpace(identifier)
	if i := strings.LastIndex(id, "/"); i >= 0 {
		id = id[i+1:]
	}
	id = strings.TrimPrefix(id, prefix)
	if len(id) <= SuffixLen {
		return "", fmt.Errorf("%w: %q has no name before its suffix", ErrInvalidIdentifier, identifier)
	}
	return id[:len(id)-SuffixLen], nil
}

// OutputPath returns <dir>/data_<id>.h5.
func OutputPath(dir, id string) string {
	return filepath.Join(dir, outputStem+id+outputExt)
}
