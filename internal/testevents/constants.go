package testevents

// File permission constants.
const (
	directoryPermission = 0o750
	listFilePermission  = 0o600
	logFilePermission   = 0o600
)

// Count branches written for each species.
const (
	ElectronCountBranch = "electron_n"
	PhotonCountBranch   = "photon_n"
	electronBaseline    = "electron_n_baseline"
)
