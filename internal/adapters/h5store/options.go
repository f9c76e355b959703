package h5store

import (
	"github.com/okian/root2hdf5/pkg/logger"
)

// Option configures a Writer.
type Option func(*Writer)

// WithAtomic toggles writing to a temporary file that is renamed on success.
func WithAtomic(atomic bool) Option {
	return func(w *Writer) {
		w.atomic = atomic
	}
}

// WithLogger sets the logger used for write diagnostics.
func WithLogger(l logger.Logger) Option {
	return func(w *Writer) {
		if l != nil {
			w.logger = l
		}
	}
}
