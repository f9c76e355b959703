package h5store

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrCreate = errors.New("create hdf5 output failed")
	ErrWrite  = errors.New("write hdf5 dataset failed")
	ErrCommit = errors.New("commit hdf5 output failed")
	ErrRead   = errors.New("read hdf5 output failed")
	ErrLayout = errors.New("unexpected hdf5 layout")
)
