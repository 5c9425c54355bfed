// Package query holds the storage-neutral description of a restaurant search
// and the pagination arithmetic shared by every listing.
//
// KEY CONCEPTS:
//
// A Filter is a plain value. Each backend translates it into its own query
// language: bson.D with an $and clause list for Mongo, goqu expressions for
// SQLite. Every constraint is a separate clause, so a name filter can never
// overwrite the "name must exist" constraint or the other way round.
//
// Filters are only built through the constructors below, one per supported
// combination, so a caller cannot produce a half-specified search.
package query

import (
	"strings"

	"github.com/sakif/restaurant-guide/internal/model"
)

// Filter describes which restaurants a listing includes. Zero-valued fields
// are unconstrained. Every filter implicitly requires a non-empty name.
type Filter struct {
	// Cuisine matches exactly.
	Cuisine string
	// Borough matches exactly.
	Borough string
	// NameContains is a case-insensitive literal substring of the name.
	// Regex metacharacters in it carry no special meaning.
	NameContains string
	// Area restricts results to restaurants whose coordinate lies inside
	// the neighborhood's geometry.
	Area *model.Neighborhood
	// ExcludeID drops one restaurant from the results.
	ExcludeID string
}

// All lists every restaurant, optionally narrowed by cuisine and name.
func All(cuisine, name string) Filter {
	return Filter{
		Cuisine:      strings.TrimSpace(cuisine),
		NameContains: strings.TrimSpace(name),
	}
}

// InNeighborhood restricts All to one neighborhood's geometry.
func InNeighborhood(area *model.Neighborhood, cuisine, name string) Filter {
	f := All(cuisine, name)
	f.Area = area
	return f
}

// NameSearch is the free-text search: only the name constraint.
func NameSearch(term string) Filter {
	return Filter{NameContains: strings.TrimSpace(term)}
}

// SimilarTo finds restaurants sharing r's cuisine and borough, excluding r.
func SimilarTo(r *model.Restaurant) Filter {
	return Filter{
		Cuisine:   r.Cuisine,
		Borough:   r.Borough,
		ExcludeID: r.ID,
	}
}
