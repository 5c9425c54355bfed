package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/rs/xid"

	"github.com/sakif/restaurant-guide/internal/apperror"
	"github.com/sakif/restaurant-guide/internal/model"
	"github.com/sakif/restaurant-guide/internal/query"
)

// whereClauses translates a query.Filter into one goqu expression per
// constraint. goqu ANDs them, so no constraint can replace another.
//
//   - name must contain a character other than ASCII whitespace (always)
//   - cuisine / borough: exact match
//   - name substring: instr() is a literal search, LIKE would treat % and _
//     as wildcards
//   - area: geo_within() on the denormalized coordinate columns
func whereClauses(f query.Filter) []exp.Expression {
	where := []exp.Expression{goqu.L("trim(name, char(32, 9, 10, 11, 12, 13)) != ''")}

	if f.Cuisine != "" {
		where = append(where, goqu.C("cuisine").Eq(f.Cuisine))
	}
	if f.Borough != "" {
		where = append(where, goqu.C("borough").Eq(f.Borough))
	}
	if f.NameContains != "" {
		where = append(where, goqu.L("instr(lower(name), lower(?)) > 0", f.NameContains))
	}
	if f.ExcludeID != "" {
		where = append(where, goqu.C("id").Neq(f.ExcludeID))
	}
	if f.Area != nil {
		where = append(where, goqu.L("geo_within(lng, lat, ?) = 1", string(f.Area.Geometry)))
	}

	return where
}

// FindRestaurants returns one page of restaurants matching f.
//
// Listings never need the embedded comments, so json_remove drops them from
// the selected document before it leaves SQLite.
func (db *DB) FindRestaurants(ctx context.Context, f query.Filter, p query.Page) ([]model.Restaurant, error) {
	sqlStr, args, err := dialect.From("restaurants").Prepared(true).
		Select(goqu.C("id"), goqu.L("json_remove(doc, '$.comments')")).
		Where(whereClauses(f)...).
		Order(goqu.C("name").Asc(), goqu.C("id").Asc()).
		Limit(uint(p.Size)).
		Offset(uint(p.Skip())).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("sqlite: building restaurant query: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing restaurants: %w", err)
	}
	defer rows.Close()

	restaurants := []model.Restaurant{}
	for rows.Next() {
		var id, doc string
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, fmt.Errorf("sqlite: scanning restaurant row: %w", err)
		}
		r, err := decodeRestaurant(id, doc)
		if err != nil {
			return nil, err
		}
		restaurants = append(restaurants, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating restaurant rows: %w", err)
	}

	return restaurants, nil
}

// CountRestaurants counts every restaurant matching f.
func (db *DB) CountRestaurants(ctx context.Context, f query.Filter) (int64, error) {
	sqlStr, args, err := dialect.From("restaurants").Prepared(true).
		Select(goqu.COUNT(goqu.Star())).
		Where(whereClauses(f)...).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("sqlite: building count query: %w", err)
	}

	var n int64
	if err := db.conn.QueryRowContext(ctx, sqlStr, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: counting restaurants: %w", err)
	}
	return n, nil
}

// FindRestaurantByID loads the full document, comments included.
// Ids that are not valid xids cannot exist and are reported as not found
// without a query.
func (db *DB) FindRestaurantByID(ctx context.Context, id string) (*model.Restaurant, error) {
	if _, err := xid.FromString(id); err != nil {
		return nil, apperror.NotFound("restaurant", id)
	}

	var doc string
	err := db.conn.QueryRowContext(ctx,
		`SELECT doc FROM restaurants WHERE id = ?`, id,
	).Scan(&doc)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("restaurant", id)
		}
		return nil, fmt.Errorf("sqlite: getting restaurant %s: %w", id, err)
	}

	return decodeRestaurant(id, doc)
}

// InsertRestaurant stores a new document. An id that is not a valid xid
// (for example a Mongo ObjectID from an export) is replaced.
func (db *DB) InsertRestaurant(ctx context.Context, r *model.Restaurant) error {
	if _, err := xid.FromString(r.ID); err != nil {
		r.ID = xid.New().String()
	}
	now := time.Now().UTC()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = r.CreatedAt
	}

	doc, err := encodeRestaurant(r)
	if err != nil {
		return err
	}

	record := goqu.Record{
		"id":         r.ID,
		"name":       r.Name,
		"cuisine":    r.Cuisine,
		"borough":    r.Borough,
		"lng":        nil,
		"lat":        nil,
		"doc":        doc,
		"created_at": r.CreatedAt.Format(time.RFC3339Nano),
		"updated_at": r.UpdatedAt.Format(time.RFC3339Nano),
	}
	if lng, lat, ok := r.Address.Point(); ok {
		record["lng"] = lng
		record["lat"] = lat
	}

	sqlStr, args, err := dialect.Insert("restaurants").Prepared(true).Rows(record).ToSQL()
	if err != nil {
		return fmt.Errorf("sqlite: building restaurant insert: %w", err)
	}
	if _, err := db.conn.ExecContext(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("sqlite: inserting restaurant %s: %w", r.ID, err)
	}
	return nil
}

// updateDocument loads one restaurant inside an immediate transaction, lets
// fn change it and writes it back when fn returns true. found is false when
// no such restaurant exists; written is false when fn declined the change.
func (db *DB) updateDocument(ctx context.Context, id string, fn func(r *model.Restaurant) bool) (found, written bool, err error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return false, false, fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var doc string
	err = tx.QueryRowContext(ctx, `SELECT doc FROM restaurants WHERE id = ?`, id).Scan(&doc)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, false, nil
		}
		return false, false, fmt.Errorf("sqlite: loading restaurant %s: %w", id, err)
	}

	r, err := decodeRestaurant(id, doc)
	if err != nil {
		return true, false, err
	}
	if !fn(r) {
		return true, false, nil
	}

	updated, err := encodeRestaurant(r)
	if err != nil {
		return true, false, err
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE restaurants SET doc = ?, updated_at = ? WHERE id = ?`,
		updated, r.UpdatedAt.Format(time.RFC3339Nano), id,
	)
	if err != nil {
		return true, false, fmt.Errorf("sqlite: writing restaurant %s: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return true, false, fmt.Errorf("sqlite: committing restaurant %s: %w", id, err)
	}
	return true, true, nil
}

func decodeRestaurant(id, doc string) (*model.Restaurant, error) {
	var r model.Restaurant
	if err := json.Unmarshal([]byte(doc), &r); err != nil {
		return nil, fmt.Errorf("sqlite: decoding restaurant %s: %w", id, err)
	}
	r.ID = id
	return &r, nil
}

func encodeRestaurant(r *model.Restaurant) (string, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("sqlite: encoding restaurant %s: %w", r.ID, err)
	}
	return string(b), nil
}
