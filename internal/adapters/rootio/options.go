package rootio

import (
	"github.com/okian/root2hdf5/pkg/logger"
)

// Option configures a Reader.
type Option func(*Reader)

// WithLogger sets the logger used for open and read diagnostics.
func WithLogger(l logger.Logger) Option {
	return func(r *Reader) {
		if l != nil {
			r.logger = l
		}
	}
}
