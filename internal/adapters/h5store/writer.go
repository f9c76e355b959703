// Package h5store writes converted events as HDF5 files and reads them back.
//
// Layout of every file:
//
//	/events/<event_feature>        float32 (n_events)
//	/events/<species>/<feature>    float32 (n_events, capacity)
//
// libhdf5 is not built thread-safe by default, so every call into it from
// this package holds libMu.
package h5store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"gonum.org/v1/hdf5"

	"github.com/okian/root2hdf5/internal/domain/model"
	"github.com/okian/root2hdf5/pkg/logger"
)

// EventsGroup is the top-level group holding every dataset.
const EventsGroup = "events"

var libMu sync.Mutex //nolint:gochecknoglobals // guards the process-wide libhdf5 state

// Writer persists ConvertedFiles.
type Writer struct {
	atomic bool
	logger logger.Logger
}

// NewWriter creates a Writer. Atomic writes are on by default.
func NewWriter(opts ...Option) *Writer {
	w := &Writer{atomic: true}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write stores file at dest, replacing any existing file. On failure no
// file is left at dest.
func (w *Writer) Write(ctx context.Context, dest string, file *model.ConvertedFile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if file == nil || file.Events == nil {
		return fmt.Errorf("%w: %s: nothing to write", ErrWrite, dest)
	}

	target := dest
	if w.atomic {
		target = filepath.Join(filepath.Dir(dest), ".tmp-"+uuid.NewString()+".h5")
	}

	if err := w.writeFile(ctx, target, file); err != nil {
		_ = os.Remove(target)
		return err
	}

	if w.atomic {
		if err := os.Rename(target, dest); err != nil {
			_ = os.Remove(target)
			return fmt.Errorf("%w: %s: %w", ErrCommit, dest, err)
		}
	}

	if w.logger != nil {
		w.logger.Debug(ctx, "wrote hdf5 output",
			logger.String("path", dest),
			logger.Int("events", file.Events.NEvents),
			logger.Int("species", len(file.Species)),
		)
	}
	return nil
}

func (w *Writer) writeFile(ctx context.Context, path string, file *model.ConvertedFile) (err error) {
	libMu.Lock()
	defer libMu.Unlock()

	f, err := hdf5.CreateFile(path, hdf5.F_ACC_TRUNC)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrCreate, path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: close %s: %w", ErrWrite, path, cerr)
		}
	}()

	events, err := f.CreateGroup(EventsGroup)
	if err != nil {
		return fmt.Errorf("%w: %s: group /%s: %w", ErrCreate, path, EventsGroup, err)
	}
	defer events.Close()

	n := uint(file.Events.NEvents)
	for _, name := range file.Events.Order {
		if err := writeDataset(events, name, []uint{n}, file.Events.Features[name]); err != nil {
			return fmt.Errorf("%s: /%s/%s: %w", path, EventsGroup, name, err)
		}
	}

	for _, sp := range file.Species {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writeSpecies(events, sp); err != nil {
			return fmt.Errorf("%s: /%s/%s: %w", path, EventsGroup, sp.Species, err)
		}
	}
	return nil
}

func writeSpecies(parent *hdf5.Group, sp *model.FixedParticleArray) error {
	g, err := parent.CreateGroup(sp.Species)
	if err != nil {
		return fmt.Errorf("%w: group: %w", ErrCreate, err)
	}
	defer g.Close()

	for _, name := range sp.Order {
		arr := sp.Features[name]
		if arr == nil {
			return fmt.Errorf("%w: %s: no array", ErrWrite, name)
		}
		rows, cols := arr.Shape()
		if err := writeDataset(g, name, []uint{uint(rows), uint(cols)}, arr.Data); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

func writeDataset(g *hdf5.Group, name string, dims []uint, data []float32) error {
	want := uint(1)
	for _, d := range dims {
		want *= d
	}
	if uint(len(data)) != want {
		return fmt.Errorf("%w: %d values for shape %v", ErrWrite, len(data), dims)
	}

	space, err := hdf5.CreateSimpleDataspace(dims, nil)
	if err != nil {
		return fmt.Errorf("%w: dataspace: %w", ErrWrite, err)
	}
	defer space.Close()

	ds, err := g.CreateDataset(name, hdf5.T_NATIVE_FLOAT, space)
	if err != nil {
		return fmt.Errorf("%w: create: %w", ErrWrite, err)
	}
	defer ds.Close()

	if len(data) == 0 {
		return nil
	}
	if err := ds.Write(&data); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}
