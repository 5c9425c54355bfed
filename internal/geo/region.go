// Package geo decodes GeoJSON neighborhood geometries and answers
// point-in-region questions for stores without a native geo index.
//
// Containment is planar on (lng, lat). For city-neighborhood sized polygons
// the difference from spherical containment is far below coordinate noise.
package geo

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

var ErrUnsupportedGeometry = errors.New("geo: geometry must be a Polygon or MultiPolygon")

// Region is a decoded neighborhood area. It is immutable and safe for
// concurrent use.
type Region struct {
	polygons orb.MultiPolygon
	bound    orb.Bound
}

// ParseRegion decodes a GeoJSON Polygon or MultiPolygon geometry object.
func ParseRegion(data []byte) (*Region, error) {
	g, err := geojson.UnmarshalGeometry(data)
	if err != nil {
		return nil, fmt.Errorf("geo: decode geometry: %w", err)
	}

	var mp orb.MultiPolygon
	switch geom := g.Geometry().(type) {
	case orb.Polygon:
		mp = orb.MultiPolygon{geom}
	case orb.MultiPolygon:
		mp = geom
	default:
		return nil, ErrUnsupportedGeometry
	}
	if len(mp) == 0 {
		return nil, ErrUnsupportedGeometry
	}

	return &Region{polygons: mp, bound: mp.Bound()}, nil
}

// Contains reports whether the point (lng, lat) lies inside the region.
// Points inside a polygon hole are outside.
func (r *Region) Contains(lng, lat float64) bool {
	pt := orb.Point{lng, lat}
	if !r.bound.Contains(pt) {
		return false
	}
	return planar.MultiPolygonContains(r.polygons, pt)
}
