// Package filelist reads the newline-separated list of input identifiers.
package filelist

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrRead wraps failures to open or scan a path list.
var ErrRead = errors.New("read path list failed")

// maxLine bounds a single identifier; long xrootd URLs stay well below it.
const maxLine = 1 << 20

// Read returns the identifiers listed in the file at path, in file order.
// Surrounding whitespace is trimmed and blank lines are skipped.
func Read(ctx context.Context, path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	defer f.Close()

	out, err := Parse(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return out, nil
}

// Parse reads identifiers from r with the same rules as Read.
func Parse(ctx context.Context, r io.Reader) ([]string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), maxLine)

	var out []string
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := strings.TrimSpace(strings.TrimPrefix(sc.Text(), "﻿"))
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	return out, nil
}
