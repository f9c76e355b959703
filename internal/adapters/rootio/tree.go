package rootio

import (
	"context"
	"fmt"
	"sync"

	"go-hep.org/x/hep/groot/riofs"
	"go-hep.org/x/hep/groot/rtree"

	"github.com/okian/root2hdf5/internal/domain/model"
)

// Tree is an opened input file bound to one tree.
type Tree struct {
	path string

	mu     sync.Mutex
	file   *riofs.File
	tree   rtree.Tree
	closed bool
}

// Path returns the identifier the tree was opened from.
func (t *Tree) Path() string { return t.path }

// NumEvents returns the number of entries in the tree.
func (t *Tree) NumEvents() int {
	return int(t.tree.Entries())
}

// Events reads one scalar value per event for each name, in order.
func (t *Tree) Events(ctx context.Context, names []string) (*model.EventBatch, error) {
	n := t.NumEvents()
	batch := model.NewEventBatch(n, names)
	err := t.scan(ctx, names, func(entry int64, name string, v any) error {
		x, err := scalar(v)
		if err != nil {
			return fmt.Errorf("%s: event variable %q: %w", t.path, name, err)
		}
		batch.Features[name][entry] = x
		return nil
	})
	if err != nil {
		return nil, err
	}
	return batch, nil
}

// Particles reads one variable-length list per event for each feature of a species.
func (t *Tree) Particles(ctx context.Context, species string, names []string) (*model.RaggedFeatureSet, error) {
	n := t.NumEvents()
	set := model.NewRaggedFeatureSet(species, n, names)
	err := t.scan(ctx, names, func(entry int64, name string, v any) error {
		xs, err := list(v)
		if err != nil {
			return fmt.Errorf("%s: %s feature %q: %w", t.path, species, name, err)
		}
		set.Features[name][entry] = xs
		return nil
	})
	if err != nil {
		return nil, err
	}
	return set, nil
}

// Close releases the underlying file. It is safe to call more than once.
func (t *Tree) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	return t.file.Close()
}

// scan walks every entry once, handing the requested branch values to fn.
func (t *Tree) scan(ctx context.Context, names []string, fn func(entry int64, name string, v any) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return fmt.Errorf("%w: %s", ErrClosed, t.path)
	}
	if len(names) == 0 {
		return ctx.Err()
	}

	rvars, err := t.bind(names)
	if err != nil {
		return err
	}
	if t.tree.Entries() == 0 {
		return ctx.Err()
	}

	r, err := rtree.NewReader(t.tree, rvars)
	if err != nil {
		return fmt.Errorf("%s: create tree reader: %w", t.path, err)
	}
	defer r.Close()

	byName := make(map[string]any, len(rvars))
	for _, rv := range rvars {
		byName[rv.Name] = rv.Value
	}

	return r.Read(func(rctx rtree.RCtx) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, name := range names {
			if err := fn(rctx.Entry, name, byName[name]); err != nil {
				return err
			}
		}
		return nil
	})
}

// bind selects the read variables for names plus any count leaves they depend on.
func (t *Tree) bind(names []string) ([]rtree.ReadVar, error) {
	want := make(map[string]bool, len(names))
	for _, name := range names {
		b := t.tree.Branch(name)
		if b == nil {
			return nil, fmt.Errorf("%w: %q in %s", ErrMissingBranch, name, t.path)
		}
		want[name] = true
		for _, leaf := range b.Leaves() {
			if lc := leaf.LeafCount(); lc != nil {
				want[lc.Name()] = true
			}
		}
	}

	var out []rtree.ReadVar
	for _, rv := range rtree.NewReadVars(t.tree) {
		if want[rv.Name] {
			out = append(out, rv)
		}
	}
	for _, name := range names {
		if !hasVar(out, name) {
			return nil, fmt.Errorf("%w: %q in %s has no readable leaf", ErrUnsupportedType, name, t.path)
		}
	}
	return out, nil
}

func hasVar(vars []rtree.ReadVar, name string) bool {
	for _, rv := range vars {
		if rv.Name == name {
			return true
		}
	}
	return false
}
