package model

import "encoding/json"

// Neighborhood is a named area with a GeoJSON Polygon or MultiPolygon.
// Geometry is kept as raw GeoJSON so each store can hand it to its own
// containment test without re-encoding.
type Neighborhood struct {
	Name     string          `json:"name"`
	Geometry json.RawMessage `json:"geometry"`
}
