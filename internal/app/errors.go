package service

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for batch outcomes.
var (
	ErrDuplicateOutput = errors.New("output id already claimed")
	ErrSkipped         = errors.New("skipped after batch abort")
)

// Stages at which a single file conversion can fail. Also used as metric labels.
const (
	StageName    = "name"
	StageOpen    = "open"
	StageRead    = "read"
	StageConvert = "convert"
	StageWrite   = "write"
	StageVerify  = "verify"
	StageSkipped = "skipped"
)

// FileError is the single error reported for a failed input file.
type FileError struct {
	Input string
	Stage string
	Err   error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Input, e.Stage, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// StageOf returns the failure stage recorded in err, or "" when err carries none.
func StageOf(err error) string {
	var fe *FileError
	if errors.As(err, &fe) {
		return fe.Stage
	}
	return ""
}
