// Package config defines converter configuration structures and loading hooks.
//
// Conventions:
// - Defaults live in New(); Load layers a YAML file and ROOT2HDF5_* env vars on top.
// - The resulting Config is passed explicitly to constructors; nothing reads it globally.
// - Validation failures wrap ErrInvalidConfig, load failures wrap ErrLoadConfig.
package config

import (
	"fmt"
	"strings"

	"github.com/okian/root2hdf5/internal/domain/model"
	"github.com/okian/root2hdf5/internal/domain/naming"
	"github.com/okian/root2hdf5/internal/domain/padding"
)

// Species names used as HDF5 subgroup names under /events.
const (
	SpeciesElectrons = "electrons"
	SpeciesPhotons   = "photons"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// TreeName selects the record collection inside each input file.
	TreeName string `koanf:"tree_name"`

	// MaxParticles is the slot capacity shared by all species.
	MaxParticles int `koanf:"max_particles"`

	// ElectronCapacity and PhotonCapacity override MaxParticles per species when > 0.
	ElectronCapacity int `koanf:"electron_capacity"`
	PhotonCapacity   int `koanf:"photon_capacity"`

	// EventVariables are copied as one value per event.
	EventVariables []string `koanf:"event_variables"`

	// ElectronFeatures and PhotonFeatures are padded to the species capacity.
	ElectronFeatures []string `koanf:"electron_features"`
	PhotonFeatures   []string `koanf:"photon_features"`

	// FileList is the text file listing one input identifier per line.
	FileList string `koanf:"file_list"`

	// NamePrefix is stripped from input file names when deriving output ids.
	NamePrefix string `koanf:"name_prefix"`

	// OutputDir receives data_<id>.h5 files.
	OutputDir string `koanf:"output_dir"`

	// WorkerCount sets how many files are converted concurrently.
	WorkerCount int `koanf:"worker_count"`

	// TruncationPolicy is silent, count or strict.
	TruncationPolicy string `koanf:"truncation_policy"`

	// ValidateAlignment checks that all features of a species agree per event.
	ValidateAlignment bool `koanf:"validate_alignment"`

	// CreateOutputDir creates OutputDir before the batch starts.
	CreateOutputDir bool `koanf:"create_output_dir"`

	// AtomicWrite writes to a temporary file and renames it on success.
	AtomicWrite bool `koanf:"atomic_write"`

	// VerifyOutput re-reads each written file and checks its layout.
	VerifyOutput bool `koanf:"verify_output"`

	// FailFast stops the batch after the first failed file.
	FailFast bool `koanf:"fail_fast"`

	// MetricsAddr enables the status server (healthz, stats, metrics) when set, e.g. ":9108".
	MetricsAddr string `koanf:"metrics_addr"`

	// MetricsTextfile, when set, receives the metrics registry after the batch.
	MetricsTextfile string `koanf:"metrics_textfile"`
}

// DefaultEventVariables are the event-level features copied as-is.
func DefaultEventVariables() []string {
	return []string{
		"PV_x", "PV_y", "PV_z",
		"electron_n_baseline", "photon_n",
	}
}

// DefaultElectronFeatures are the per-electron features.
func DefaultElectronFeatures() []string {
	return []string{
		"electron_E", "electron_pt", "electron_eta", "electron_phi",
		"electron_time",
		"electron_d0", "electron_z0", "electron_dpt",
		"electron_nPIX", "electron_nMissingLayers",
		"electron_chi2", "electron_numberDoF",
		"electron_f1", "electron_f3",
		"electron_z",
		"electron_LHValue",
		"electron_isIsolated_Loose_VarRad",
	}
}

// DefaultPhotonFeatures are the per-photon features.
func DefaultPhotonFeatures() []string {
	return []string{
		"photon_E", "photon_pt", "photon_eta", "photon_phi",
		"photon_time",
		"photon_maxEcell_E", "photon_maxEcell_t",
		"photon_maxEcell_x", "photon_maxEcell_y", "photon_maxEcell_z",
		"photon_f1", "photon_f3", "photon_r1", "photon_r2",
		"photon_etas1", "photon_phis1",
		"photon_z",
		"photon_isIsolated_FixedCutLoose",
	}
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		TreeName:          "trees_SR_highd0",
		MaxParticles:      4,
		EventVariables:    DefaultEventVariables(),
		ElectronFeatures:  DefaultElectronFeatures(),
		PhotonFeatures:    DefaultPhotonFeatures(),
		FileList:          "../file_data.txt",
		NamePrefix:        naming.DefaultPrefix,
		OutputDir:         "hdf5_output",
		WorkerCount:       1,
		TruncationPolicy:  padding.PolicySilent.String(),
		ValidateAlignment: true,
		CreateOutputDir:   true,
		AtomicWrite:       true,
	}
}

// Species returns the ordered species specs: electrons, then photons.
func (c *Config) Species() []model.SpeciesSpec {
	return []model.SpeciesSpec{
		{Name: SpeciesElectrons, Features: append([]string(nil), c.ElectronFeatures...), Capacity: capacityOr(c.ElectronCapacity, c.MaxParticles)},
		{Name: SpeciesPhotons, Features: append([]string(nil), c.PhotonFeatures...), Capacity: capacityOr(c.PhotonCapacity, c.MaxParticles)},
	}
}

// Policy returns the parsed truncation policy.
func (c *Config) Policy() (padding.Policy, error) {
	return padding.ParsePolicy(c.TruncationPolicy)
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.TreeName) == "":
		return fmt.Errorf("%w: tree_name must not be empty", ErrInvalidConfig)
	case c.MaxParticles <= 0:
		return fmt.Errorf("%w: max_particles must be positive, got %d", ErrInvalidConfig, c.MaxParticles)
	case c.ElectronCapacity < 0 || c.PhotonCapacity < 0:
		return fmt.Errorf("%w: species capacities must not be negative", ErrInvalidConfig)
	case c.WorkerCount < 1:
		return fmt.Errorf("%w: worker_count must be at least 1, got %d", ErrInvalidConfig, c.WorkerCount)
	case strings.TrimSpace(c.OutputDir) == "":
		return fmt.Errorf("%w: output_dir must not be empty", ErrInvalidConfig)
	}
	if _, err := c.Policy(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	lists := []struct {
		key   string
		names []string
	}{
		{"event_variables", c.EventVariables},
		{"electron_features", c.ElectronFeatures},
		{"photon_features", c.PhotonFeatures},
	}
	for _, l := range lists {
		if err := checkNames(l.key, l.names); err != nil {
			return err
		}
	}
	return nil
}

func checkNames(key string, names []string) error {
	if len(names) == 0 {
		return fmt.Errorf("%w: %s must not be empty", ErrInvalidConfig, key)
	}
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			return fmt.Errorf("%w: %s contains an empty name", ErrInvalidConfig, key)
		}
		if _, dup := seen[n]; dup {
			return fmt.Errorf("%w: %s lists %q twice", ErrInvalidConfig, key, n)
		}
		seen[n] = struct{}{}
	}
	return nil
}

func capacityOr(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}
