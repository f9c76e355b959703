// Package rootio reads event and particle features out of ROOT ntuples.
//
// Remote identifiers (root:// and http(s)://) are handled by the groot
// riofs plugins registered below; plain paths are opened from disk.
package rootio

import (
	"context"
	"fmt"

	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/riofs"
	_ "go-hep.org/x/hep/groot/riofs/plugin/http"
	_ "go-hep.org/x/hep/groot/riofs/plugin/xrootd"
	"go-hep.org/x/hep/groot/rtree"

	"github.com/okian/root2hdf5/pkg/logger"
)

// Reader opens ROOT files and binds one of their trees.
type Reader struct {
	logger logger.Logger
}

// NewReader creates a Reader.
func NewReader(opts ...Option) *Reader {
	r := &Reader{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Open opens path and looks up the named tree. The returned Tree owns the
// file handle; callers must Close it.
func (r *Reader) Open(ctx context.Context, path, tree string) (*Tree, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := groot.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrOpen, path, err)
	}

	obj, err := riofs.Dir(f).Get(tree)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %q in %s: %w", ErrTreeNotFound, tree, path, err)
	}
	t, ok := obj.(rtree.Tree)
	if !ok {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %q in %s is a %s", ErrTreeNotFound, tree, path, obj.Class())
	}

	if r.logger != nil {
		r.logger.Debug(ctx, "opened input",
			logger.String("path", path),
			logger.String("tree", tree),
			logger.Int64("entries", t.Entries()),
		)
	}

	return &Tree{path: path, file: f, tree: t}, nil
}
