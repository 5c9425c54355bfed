package sqlite

import (
	"database/sql/driver"
	"fmt"
	"sync"

	msqlite "modernc.org/sqlite"

	"github.com/sakif/restaurant-guide/internal/geo"
)

// geo_within(lng, lat, geometry) is 1 when the point lies inside the GeoJSON
// geometry and 0 otherwise, including when the row has no coordinate.
//
// Functions are registered process-wide with the driver, before the first
// connection opens, so registration runs once however many DBs are opened.
var (
	registerOnce sync.Once
	registerErr  error

	// Parsed regions keyed by their GeoJSON text. The neighborhood set is
	// small and fixed, so the cache is never evicted.
	regions sync.Map
)

func registerFunctions() error {
	registerOnce.Do(func() {
		registerErr = msqlite.RegisterDeterministicScalarFunction("geo_within", 3, geoWithin)
	})
	return registerErr
}

func geoWithin(_ *msqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	lng, ok := toFloat(args[0])
	if !ok {
		return int64(0), nil
	}
	lat, ok := toFloat(args[1])
	if !ok {
		return int64(0), nil
	}

	var text string
	switch v := args[2].(type) {
	case string:
		text = v
	case []byte:
		text = string(v)
	default:
		return nil, fmt.Errorf("geo_within: geometry must be text, got %T", args[2])
	}

	region, err := loadRegion(text)
	if err != nil {
		return nil, err
	}
	if region.Contains(lng, lat) {
		return int64(1), nil
	}
	return int64(0), nil
}

func loadRegion(text string) (*geo.Region, error) {
	if cached, ok := regions.Load(text); ok {
		return cached.(*geo.Region), nil
	}
	region, err := geo.ParseRegion([]byte(text))
	if err != nil {
		return nil, err
	}
	actual, _ := regions.LoadOrStore(text, region)
	return actual.(*geo.Region), nil
}

func toFloat(v driver.Value) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
