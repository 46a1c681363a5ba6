package dataroot

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/roach88/surveykn/internal/engine"
	"github.com/roach88/surveykn/internal/ir"
)

// CSVSnapshots serves snapshots from Surveys/<id>.csv, the bound survey every
// run leaves behind. It covers surveys generated before the archive existed.
type CSVSnapshots struct {
	Root Root
}

func (s CSVSnapshots) Snapshot(ctx context.Context, id string) (*ir.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d, err := ReadCSV(s.Root.Survey(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w: %s", DirSurveys, engine.ErrUnknownSnapshot, id)
	}
	return d, err
}

// Chain asks each source in order and returns the first snapshot found.
// Only engine.ErrUnknownSnapshot moves on to the next source.
type Chain []engine.SnapshotSource

func (c Chain) Snapshot(ctx context.Context, id string) (*ir.Dataset, error) {
	err := fmt.Errorf("%w: %s", engine.ErrUnknownSnapshot, id)
	for _, src := range c {
		var d *ir.Dataset
		d, err = src.Snapshot(ctx, id)
		if err == nil {
			return d, nil
		}
		if !errors.Is(err, engine.ErrUnknownSnapshot) {
			return nil, err
		}
	}
	return nil, err
}
