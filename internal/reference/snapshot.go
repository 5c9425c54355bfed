// Package reference holds the neighborhood and cuisine lists the UI offers
// as filter choices.
//
// The lists are read from the store once at startup into a Snapshot. The
// Snapshot is never written after construction, so handlers share it across
// goroutines without locking. A failed load leaves the corresponding list
// empty and the server still starts.
package reference

import (
	"context"
	"log/slog"
	"slices"
	"strings"
)

// Source is the store side of the reference data.
type Source interface {
	NeighborhoodNames(ctx context.Context) ([]string, error)
	DistinctCuisines(ctx context.Context) ([]string, error)
}

// Snapshot is an immutable copy of the reference lists.
type Snapshot struct {
	neighborhoods []string
	cuisines      []string
}

// New builds a Snapshot from raw lists: blank entries are dropped, the rest
// sorted and deduplicated.
func New(neighborhoods, cuisines []string) *Snapshot {
	return &Snapshot{
		neighborhoods: normalize(neighborhoods),
		cuisines:      normalize(cuisines),
	}
}

// Load reads both lists from src.
func Load(ctx context.Context, src Source, logger *slog.Logger) *Snapshot {
	return &Snapshot{
		neighborhoods: LoadNeighborhoods(ctx, src, logger),
		cuisines:      LoadCuisines(ctx, src, logger),
	}
}

// LoadNeighborhoods returns the sorted neighborhood names, or an empty list
// when the store fails.
func LoadNeighborhoods(ctx context.Context, src Source, logger *slog.Logger) []string {
	names, err := src.NeighborhoodNames(ctx)
	if err != nil {
		logger.Error("failed to load neighborhoods", "error", err)
		return []string{}
	}
	out := normalize(names)
	logger.Info("neighborhoods loaded", "count", len(out))
	return out
}

// LoadCuisines returns the sorted distinct cuisines, or an empty list when
// the store fails.
func LoadCuisines(ctx context.Context, src Source, logger *slog.Logger) []string {
	cuisines, err := src.DistinctCuisines(ctx)
	if err != nil {
		logger.Error("failed to load cuisines", "error", err)
		return []string{}
	}
	out := normalize(cuisines)
	logger.Info("cuisines loaded", "count", len(out))
	return out
}

// Neighborhoods returns a copy of the neighborhood names.
func (s *Snapshot) Neighborhoods() []string {
	return slices.Clone(s.neighborhoods)
}

// Cuisines returns a copy of the cuisine list.
func (s *Snapshot) Cuisines() []string {
	return slices.Clone(s.cuisines)
}

func normalize(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if strings.TrimSpace(v) == "" {
			continue
		}
		out = append(out, v)
	}
	slices.Sort(out)
	return slices.Compact(out)
}
