package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sakif/restaurant-guide/internal/apperror"
	"github.com/sakif/restaurant-guide/internal/geo"
	"github.com/sakif/restaurant-guide/internal/model"
)

// NeighborhoodNames lists every neighborhood name, sorted.
func (db *DB) NeighborhoodNames(ctx context.Context) ([]string, error) {
	return db.queryStrings(ctx, `SELECT name FROM neighborhoods ORDER BY name`)
}

// DistinctCuisines lists the cuisines present on restaurants, sorted.
func (db *DB) DistinctCuisines(ctx context.Context) ([]string, error) {
	return db.queryStrings(ctx,
		`SELECT DISTINCT cuisine FROM restaurants WHERE cuisine <> '' ORDER BY cuisine`)
}

// FindNeighborhood returns the named neighborhood with its geometry.
func (db *DB) FindNeighborhood(ctx context.Context, name string) (*model.Neighborhood, error) {
	var geometry string
	err := db.conn.QueryRowContext(ctx,
		`SELECT geometry FROM neighborhoods WHERE name = ?`, name,
	).Scan(&geometry)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("neighborhood", name)
		}
		return nil, fmt.Errorf("sqlite: getting neighborhood %q: %w", name, err)
	}
	return &model.Neighborhood{Name: name, Geometry: []byte(geometry)}, nil
}

// InsertNeighborhood stores n, replacing a neighborhood of the same name.
// The geometry is decoded first so geo_within never sees invalid GeoJSON.
func (db *DB) InsertNeighborhood(ctx context.Context, n *model.Neighborhood) error {
	if _, err := geo.ParseRegion(n.Geometry); err != nil {
		return apperror.ValidationFailed("geometry", fmt.Sprintf("neighborhood %q: %v", n.Name, err))
	}
	_, err := db.conn.ExecContext(ctx,
		`INSERT OR REPLACE INTO neighborhoods (name, geometry) VALUES (?, ?)`,
		n.Name, string(n.Geometry),
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting neighborhood %q: %w", n.Name, err)
	}
	return nil
}

func (db *DB) queryStrings(ctx context.Context, q string, args ...any) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: querying %q: %w", q, err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("sqlite: scanning: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
