package h5store

import (
	"fmt"
	"path"
	"reflect"
	"sort"

	"gonum.org/v1/hdf5"

	"github.com/okian/root2hdf5/internal/domain/model"
)

// Dataset is one float32 dataset read back from a file.
type Dataset struct {
	Path string
	Dims []uint
	Data []float32
}

// Layout is the full content of an output file, keyed by dataset path
// ("/events/PV_x", "/events/electrons/electron_pt").
type Layout struct {
	Groups   []string
	Datasets map[string]Dataset
}

// Paths returns the dataset paths in lexical order.
func (l *Layout) Paths() []string {
	out := make([]string, 0, len(l.Datasets))
	for p := range l.Datasets {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

type container interface {
	NumObjects() (uint, error)
	ObjectNameByIndex(idx uint) (string, error)
	ObjectTypeByIndex(idx uint) (hdf5.GType, error)
	OpenGroup(name string) (*hdf5.Group, error)
	OpenDataset(name string) (*hdf5.Dataset, error)
}

// Inspect reads every group and dataset of an HDF5 file.
func Inspect(file string) (*Layout, error) {
	libMu.Lock()
	defer libMu.Unlock()

	f, err := hdf5.OpenFile(file, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrRead, file, err)
	}
	defer f.Close()

	l := &Layout{Datasets: make(map[string]Dataset)}
	if err := walk(f, "/", l); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrRead, file, err)
	}
	sort.Strings(l.Groups)
	return l, nil
}

func walk(c container, prefix string, l *Layout) error {
	n, err := c.NumObjects()
	if err != nil {
		return err
	}
	for i := uint(0); i < n; i++ {
		name, err := c.ObjectNameByIndex(i)
		if err != nil {
			return err
		}
		typ, err := c.ObjectTypeByIndex(i)
		if err != nil {
			return err
		}
		full := path.Join(prefix, name)
		switch typ {
		case hdf5.H5G_GROUP:
			g, err := c.OpenGroup(name)
			if err != nil {
				return err
			}
			l.Groups = append(l.Groups, full)
			err = walk(g, full, l)
			_ = g.Close()
			if err != nil {
				return err
			}
		case hdf5.H5G_DATASET:
			ds, err := readDataset(c, name)
			if err != nil {
				return fmt.Errorf("%s: %w", full, err)
			}
			ds.Path = full
			l.Datasets[full] = ds
		}
	}
	return nil
}

func readDataset(c container, name string) (Dataset, error) {
	ds, err := c.OpenDataset(name)
	if err != nil {
		return Dataset{}, err
	}
	defer ds.Close()

	space := ds.Space()
	defer space.Close()
	dims, _, err := space.SimpleExtentDims()
	if err != nil {
		return Dataset{}, err
	}

	total := uint(1)
	for _, d := range dims {
		total *= d
	}
	data := make([]float32, total)
	if total > 0 {
		if err := ds.Read(&data); err != nil {
			return Dataset{}, err
		}
	}
	return Dataset{Dims: dims, Data: data}, nil
}

// Expected returns the layout a ConvertedFile must produce.
func Expected(file *model.ConvertedFile) *Layout {
	root := "/" + EventsGroup
	l := &Layout{Groups: []string{root}, Datasets: make(map[string]Dataset)}
	n := uint(file.Events.NEvents)
	for _, name := range file.Events.Order {
		p := path.Join(root, name)
		l.Datasets[p] = Dataset{Path: p, Dims: []uint{n}, Data: file.Events.Features[name]}
	}
	for _, sp := range file.Species {
		g := path.Join(root, sp.Species)
		l.Groups = append(l.Groups, g)
		for _, name := range sp.Order {
			p := path.Join(g, name)
			rows, cols := sp.Features[name].Shape()
			l.Datasets[p] = Dataset{Path: p, Dims: []uint{uint(rows), uint(cols)}, Data: sp.Features[name].Data}
		}
	}
	sort.Strings(l.Groups)
	return l
}

// VerifyLayout compares got against the layout expected for want, including values.
func VerifyLayout(got *Layout, want *model.ConvertedFile) error {
	exp := Expected(want)
	if !reflect.DeepEqual(got.Groups, exp.Groups) {
		return fmt.Errorf("%w: groups %v, want %v", ErrLayout, got.Groups, exp.Groups)
	}
	if len(got.Datasets) != len(exp.Datasets) {
		return fmt.Errorf("%w: %d datasets, want %d", ErrLayout, len(got.Datasets), len(exp.Datasets))
	}
	for _, p := range exp.Paths() {
		g, ok := got.Datasets[p]
		if !ok {
			return fmt.Errorf("%w: missing %s", ErrLayout, p)
		}
		e := exp.Datasets[p]
		if !reflect.DeepEqual(g.Dims, e.Dims) {
			return fmt.Errorf("%w: %s has shape %v, want %v", ErrLayout, p, g.Dims, e.Dims)
		}
		if len(g.Data) != len(e.Data) {
			return fmt.Errorf("%w: %s has %d values, want %d", ErrLayout, p, len(g.Data), len(e.Data))
		}
		for i := range e.Data {
			if g.Data[i] != e.Data[i] {
				return fmt.Errorf("%w: %s[%d] = %v, want %v", ErrLayout, p, i, g.Data[i], e.Data[i])
			}
		}
	}
	return nil
}

// Verify reads the file at path back and checks it against want.
func Verify(path string, want *model.ConvertedFile) error {
	l, err := Inspect(path)
	if err != nil {
		return err
	}
	return VerifyLayout(l, want)
}
