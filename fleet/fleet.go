// Package fleet resolves driver names to vehicle plates from an external,
// read-only fleet snapshot.
package fleet

import (
	"context"
	"iter"
	"strings"

	"go.uber.org/zap"

	"cargas/libs/logging"
)

// Record is one fleet row. The application never mutates it.
type Record struct {
	DriverName   string            `json:"driverName"`
	TruckPlate   string            `json:"truckPlate"`
	TrailerPlate string            `json:"trailerPlate"`
	Description  string            `json:"truncatedDescription,omitempty"`
	Extra        map[string]string `json:"extra,omitempty"`
}

// Source returns the complete current fleet snapshot.
type Source interface {
	Fetch(ctx context.Context) ([]Record, error)
}

// Lookup queries the source on every call; it keeps no cache of its own.
// A failing source is logged and treated as an empty fleet.
type Lookup struct {
	source Source
	logger *zap.Logger
}

func NewLookup(source Source, logger *zap.Logger) *Lookup {
	if source == nil {
		source = StaticSource(nil)
	}
	return &Lookup{source: source, logger: logging.OrNop(logger)}
}

// Snapshot fetches the whole fleet, degrading to nil on failure.
func (l *Lookup) Snapshot(ctx context.Context) []Record {
	records, err := l.source.Fetch(ctx)
	if err != nil {
		l.logger.Warn("fleet source unavailable, continuing without fleet data", zap.Error(err))
		return nil
	}
	return records
}

// Search yields records whose driver name or truck plate contains term,
// ignoring case. An empty term yields every record. The source is queried
// when iteration starts.
func (l *Lookup) Search(ctx context.Context, term string) iter.Seq[Record] {
	needle := strings.ToLower(strings.TrimSpace(term))
	return func(yield func(Record) bool) {
		for _, r := range l.Snapshot(ctx) {
			if needle != "" &&
				!strings.Contains(strings.ToLower(r.DriverName), needle) &&
				!strings.Contains(strings.ToLower(r.TruckPlate), needle) {
				continue
			}
			if !yield(r) {
				return
			}
		}
	}
}

// FindByName returns the first record whose driver name equals name,
// ignoring case and surrounding blanks.
func (l *Lookup) FindByName(ctx context.Context, name string) (Record, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Record{}, false
	}
	for _, r := range l.Snapshot(ctx) {
		if strings.EqualFold(strings.TrimSpace(r.DriverName), name) {
			return r, true
		}
	}
	return Record{}, false
}

// StaticSource serves a fixed snapshot; used when no fleet source is
// configured and in tests.
type StaticSource []Record

func (s StaticSource) Fetch(ctx context.Context) ([]Record, error) {
	out := make([]Record, len(s))
	copy(out, s)
	return out, nil
}
