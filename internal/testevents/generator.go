package testevents

import (
	"fmt"
	"math"
	"math/rand/v2"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/rtree"
	"gonum.org/v1/gonum/stat/distuv"
)

// fileCounts is what one generated file contributed.
type fileCounts struct {
	events, electrons, photons int
}

// species holds the per-event buffers bound to the writer for one species.
type species struct {
	prefix string
	count  int32
	floats map[string]*[]float32
	ints   map[string]*[]int32
	order  []string
}

func newSpecies(prefix string, features []string) *species {
	s := &species{
		prefix: prefix,
		floats: make(map[string]*[]float32),
		ints:   make(map[string]*[]int32),
		order:  features,
	}
	for _, name := range features {
		if isCounter(prefix, name) {
			s.ints[name] = new([]int32)
		} else {
			s.floats[name] = new([]float32)
		}
	}
	return s
}

// isCounter reports features such as electron_nPIX that hold integer counts.
func isCounter(prefix, name string) bool {
	rest := strings.TrimPrefix(name, prefix)
	return (len(rest) > 1 && rest[0] == 'n' && rest[1] >= 'A' && rest[1] <= 'Z') || strings.HasPrefix(rest, "number")
}

func (s *species) vars(countBranch string) []rtree.WriteVar {
	out := make([]rtree.WriteVar, 0, len(s.order))
	for _, name := range s.order {
		if p, ok := s.ints[name]; ok {
			out = append(out, rtree.WriteVar{Name: name, Value: p, Count: countBranch})
			continue
		}
		out = append(out, rtree.WriteVar{Name: name, Value: s.floats[name], Count: countBranch})
	}
	return out
}

// fill draws n particles with pt-ordered, feature-plausible values.
func (s *species) fill(rng *rand.Rand, n int) {
	s.count = int32(n)
	for _, name := range s.order {
		if p, ok := s.ints[name]; ok {
			vals := make([]int32, n)
			for j := range vals {
				vals[j] = int32(rng.IntN(8))
			}
			*p = vals
			continue
		}
		vals := make([]float32, n)
		for j := range vals {
			vals[j] = featureValue(rng, strings.TrimPrefix(name, s.prefix), j)
		}
		*s.floats[name] = vals
	}
}

func featureValue(rng *rand.Rand, feature string, slot int) float32 {
	switch {
	case feature == "pt" || feature == "E":
		// Leading particles first.
		return float32(200/float64(slot+1) + rng.ExpFloat64()*10)
	case feature == "eta":
		return float32(rng.NormFloat64() * 1.2)
	case feature == "phi":
		return float32((rng.Float64()*2 - 1) * math.Pi)
	case strings.HasPrefix(feature, "isIsolated"):
		return float32(rng.IntN(2))
	default:
		return float32(rng.NormFloat64())
	}
}

// multiplicity returns a Poisson sampler over src; a non-positive mean always yields 0.
func multiplicity(src rand.Source, mean float64) func() int {
	if mean <= 0 {
		return func() int { return 0 }
	}
	d := distuv.Poisson{Lambda: mean, Src: src}
	return func() int { return int(d.Rand()) }
}

// generateFile writes one ROOT file and returns its path and counts.
func generateFile(cfg *Config, index int) (string, fileCounts, error) {
	var counts fileCounts
	path := filepath.Join(cfg.Dir, cfg.Prefix+uuid.NewString()+".root")
	src := rand.NewPCG(cfg.Seed, uint64(index))
	rng := rand.New(src)
	electrons := multiplicity(src, cfg.MeanElectrons)
	photons := multiplicity(src, cfg.MeanPhotons)

	el := newSpecies("electron_", cfg.ElectronFeatures)
	ph := newSpecies("photon_", cfg.PhotonFeatures)

	var scalars []*float32
	var baseline int32
	wvars := []rtree.WriteVar{
		{Name: ElectronCountBranch, Value: &el.count},
		{Name: PhotonCountBranch, Value: &ph.count},
	}
	for _, name := range cfg.EventVariables {
		switch name {
		case ElectronCountBranch, PhotonCountBranch:
			// Already written as count branches.
		case electronBaseline:
			wvars = append(wvars, rtree.WriteVar{Name: name, Value: &baseline})
		default:
			v := new(float32)
			scalars = append(scalars, v)
			wvars = append(wvars, rtree.WriteVar{Name: name, Value: v})
		}
	}
	wvars = append(wvars, el.vars(ElectronCountBranch)...)
	wvars = append(wvars, ph.vars(PhotonCountBranch)...)

	f, err := groot.Create(path)
	if err != nil {
		return "", counts, fmt.Errorf("create %s: %w", path, err)
	}
	closed := false
	defer func() {
		if !closed {
			_ = f.Close()
		}
	}()

	w, err := rtree.NewWriter(f, cfg.TreeName, wvars)
	if err != nil {
		return "", counts, fmt.Errorf("create tree %s in %s: %w", cfg.TreeName, path, err)
	}

	for e := 0; e < cfg.Events; e++ {
		ne := electrons()
		np := photons()
		el.fill(rng, ne)
		ph.fill(rng, np)
		baseline = int32(ne)
		for _, v := range scalars {
			*v = float32(rng.NormFloat64())
		}
		if _, err := w.Write(); err != nil {
			_ = w.Close()
			return "", counts, fmt.Errorf("write event %d to %s: %w", e, path, err)
		}
		counts.events++
		counts.electrons += ne
		counts.photons += np
	}

	if err := w.Close(); err != nil {
		return "", counts, fmt.Errorf("close tree in %s: %w", path, err)
	}
	closed = true
	if err := f.Close(); err != nil {
		return "", counts, fmt.Errorf("close %s: %w", path, err)
	}
	return path, counts, nil
}
