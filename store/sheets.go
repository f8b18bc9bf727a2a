package store

import (
	"context"
	"fmt"

	"github.com/vortexion256/caremax/core"
)

// StaticSheetSource serves the configured sheet registry from fixed in-memory
// data keyed by label. It stands in for a spreadsheet API client; the
// orchestration layer only consumes label resolution and raw cells.
type StaticSheetSource struct {
	entries []core.SheetEntry
	data    map[string][][]string
}

// NewStaticSheetSource builds a source over the given registry entries.
func NewStaticSheetSource(entries []core.SheetEntry) *StaticSheetSource {
	return &StaticSheetSource{
		entries: append([]core.SheetEntry(nil), entries...),
		data:    map[string][][]string{},
	}
}

// SetData registers cell data for a label.
func (s *StaticSheetSource) SetData(label string, cells [][]string) {
	s.data[label] = cells
}

// Entries returns the configured registry.
func (s *StaticSheetSource) Entries() []core.SheetEntry {
	return append([]core.SheetEntry(nil), s.entries...)
}

// Fetch returns the registered cells for the entry. The range override is
// accepted but not interpreted; static data has no sub-ranges.
func (s *StaticSheetSource) Fetch(ctx context.Context, entry core.SheetEntry, rng string) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cells, ok := s.data[entry.Label]
	if !ok {
		return nil, fmt.Errorf("no data registered for sheet %q", entry.Label)
	}
	out := make([][]string, len(cells))
	for i, row := range cells {
		out[i] = append([]string(nil), row...)
	}
	return out, nil
}
