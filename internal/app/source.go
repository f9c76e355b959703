package service

import (
	"context"

	"github.com/okian/root2hdf5/internal/adapters/rootio"
	"github.com/okian/root2hdf5/internal/domain/model"
)

// Source is an opened input file bound to its tree.
type Source interface {
	NumEvents() int
	Events(ctx context.Context, names []string) (*model.EventBatch, error)
	Particles(ctx context.Context, species string, names []string) (*model.RaggedFeatureSet, error)
	Close() error
}

// Reader opens inputs.
type Reader interface {
	Open(ctx context.Context, path, tree string) (Source, error)
}

// Writer persists a converted file at dest.
type Writer interface {
	Write(ctx context.Context, dest string, file *model.ConvertedFile) error
}

// Converter pads one species to a fixed capacity.
type Converter interface {
	Convert(ctx context.Context, ragged *model.RaggedFeatureSet, capacity int) (*model.FixedParticleArray, error)
}

// rootReader adapts rootio.Reader to Reader.
type rootReader struct {
	r *rootio.Reader
}

// NewRootReader returns a Reader backed by groot.
func NewRootReader(r *rootio.Reader) Reader {
	return &rootReader{r: r}
}

func (a *rootReader) Open(ctx context.Context, path, tree string) (Source, error) {
	t, err := a.r.Open(ctx, path, tree)
	if err != nil {
		return nil, err
	}
	return t, nil
}
