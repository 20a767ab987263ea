package merge

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/dnswlt/stixmerge/internal/stix"
	"github.com/dnswlt/stixmerge/internal/store"
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
)

// Input identifies one of the two input bundles.
type Input int

const (
	Baseline Input = iota
	Extension
)

func (in Input) String() string {
	switch in {
	case Baseline:
		return "baseline"
	case Extension:
		return "extension"
	}
	return fmt.Sprintf("Input(%d)", int(in))
}

// MissingFileError is returned if an input bundle does not exist.
type MissingFileError struct {
	Input Input
	Path  string
}

func (e *MissingFileError) Error() string {
	return fmt.Sprintf("%s bundle not found: %s", e.Input, e.Path)
}

func (e *MissingFileError) Unwrap() error {
	return store.ErrNotFound
}

// Paths are the three positional paths of a merge run.
type Paths struct {
	Baseline  string
	Extension string
	Output    string
}

// ParsePaths expects exactly three non-empty arguments:
// baseline, extension and output path, in that order.
func ParsePaths(args []string) (Paths, error) {
	if len(args) != 3 {
		return Paths{}, fmt.Errorf("%w: want 3 paths, got %d", ErrInvalidArgument, len(args))
	}
	for i, a := range args {
		if a == "" {
			return Paths{}, fmt.Errorf("%w: path #%d is empty", ErrInvalidArgument, i+1)
		}
	}
	return Paths{
		Baseline:  args[0],
		Extension: args[1],
		Output:    args[2],
	}, nil
}

// Location is a path in a store.
type Location struct {
	Store store.Store
	Path  string
}

func (l Location) String() string {
	if gs, ok := l.Store.(*store.GitStore); ok {
		return l.Path + "@" + gs.Ref()
	}
	return l.Path
}

// Job is a complete merge run: it reads both inputs, merges them
// and writes the output bundle.
type Job struct {
	Baseline  Location
	Extension Location
	Output    Location
	Merger    *Merger
}

// Run executes the job. Both inputs are checked for existence before either
// is read, so a missing baseline is reported even if the extension is missing, too.
func (j *Job) Run() (*Result, error) {
	inputs := []struct {
		in  Input
		loc Location
	}{
		{Baseline, j.Baseline},
		{Extension, j.Extension},
	}
	for _, i := range inputs {
		ok, err := i.loc.Store.Exists(i.loc.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to check %s bundle %s: %w", i.in, i.loc, err)
		}
		if !ok {
			return nil, &MissingFileError{Input: i.in, Path: i.loc.String()}
		}
	}

	baseline, err := readBundle(j.Baseline, Baseline)
	if err != nil {
		return nil, err
	}
	extension, err := readBundle(j.Extension, Extension)
	if err != nil {
		return nil, err
	}

	res := j.Merger.Merge(baseline, extension)

	var buf bytes.Buffer
	if err := stix.WriteBundle(&buf, res.Bundle); err != nil {
		return nil, err
	}
	if err := j.Output.Store.WriteFile(j.Output.Path, buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to write merged bundle to %s: %w", j.Output, err)
	}
	return res, nil
}

func readBundle(loc Location, in Input) (*stix.Bundle, error) {
	bs, err := loc.Store.ReadFile(loc.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s bundle %s: %w", in, loc, err)
	}
	b, err := stix.ReadBundle(bytes.NewReader(bs))
	if err != nil {
		return nil, fmt.Errorf("invalid %s bundle %s: %w", in, loc, err)
	}
	return b, nil
}
