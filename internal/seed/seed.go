// Package seed imports restaurant and neighborhood exports into a store.
//
// INPUT FORMATS:
// Both importers accept either a JSON array of documents or one document per
// line (the mongoexport default). Restaurant documents may use MongoDB
// extended JSON ({"$oid": ...}, {"$date": ...}) or plain JSON with RFC 3339
// dates; both decode through the bson extended JSON reader.
//
// A document that does not decode, or that the store rejects as invalid, is
// logged and skipped. Any other store error aborts the import.
package seed

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"unicode"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sakif/restaurant-guide/internal/apperror"
	"github.com/sakif/restaurant-guide/internal/model"
)

// Target is the part of a store the importer writes to.
type Target interface {
	InsertRestaurant(ctx context.Context, r *model.Restaurant) error
	InsertNeighborhood(ctx context.Context, n *model.Neighborhood) error
}

// Result counts the outcome of one import.
type Result struct {
	Imported int
	Skipped  int
}

// Importer loads exports into a Target.
type Importer struct {
	target Target
	logger *slog.Logger
}

// NewImporter creates an Importer.
func NewImporter(target Target, logger *slog.Logger) *Importer {
	return &Importer{target: target, logger: logger}
}

// restaurantRecord is an exported restaurant. The export's _id may be an
// ObjectID or a string; the stores keep it when it suits them.
type restaurantRecord struct {
	ID               any `bson:"_id,omitempty"`
	model.Restaurant `bson:",inline"`
}

// ImportRestaurants reads restaurants from r.
func (im *Importer) ImportRestaurants(ctx context.Context, r io.Reader) (Result, error) {
	return im.each(ctx, r, "restaurant", func(raw []byte) error {
		var rec restaurantRecord
		if err := bson.UnmarshalExtJSON(raw, false, &rec); err != nil {
			return apperror.ValidationFailed("document", err.Error())
		}
		rest := rec.Restaurant
		switch id := rec.ID.(type) {
		case primitive.ObjectID:
			rest.ID = id.Hex()
		case string:
			rest.ID = id
		}
		return im.target.InsertRestaurant(ctx, &rest)
	})
}

// ImportNeighborhoods reads neighborhoods from r. Only name and geometry are
// kept.
func (im *Importer) ImportNeighborhoods(ctx context.Context, r io.Reader) (Result, error) {
	return im.each(ctx, r, "neighborhood", func(raw []byte) error {
		var n model.Neighborhood
		if err := json.Unmarshal(raw, &n); err != nil {
			return apperror.ValidationFailed("document", err.Error())
		}
		if n.Name == "" {
			return apperror.ValidationFailed("name", "neighborhood has no name")
		}
		return im.target.InsertNeighborhood(ctx, &n)
	})
}

// each decodes the documents in r one at a time and hands each to insert.
func (im *Importer) each(ctx context.Context, r io.Reader, kind string, insert func(raw []byte) error) (Result, error) {
	var res Result

	br := bufio.NewReader(r)
	isArray, err := startsWithArray(br)
	if err != nil {
		return res, err
	}

	dec := json.NewDecoder(br)
	if isArray {
		if _, err := dec.Token(); err != nil {
			return res, fmt.Errorf("seed: reading %s array: %w", kind, err)
		}
	}

	for index := 0; ; index++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if isArray && !dec.More() {
			break
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			// The stream is unusable past a syntax error.
			return res, fmt.Errorf("seed: reading %s %d: %w", kind, index, err)
		}

		if err := insert(raw); err != nil {
			if !errors.Is(err, apperror.ErrValidation) {
				return res, fmt.Errorf("seed: inserting %s %d: %w", kind, index, err)
			}
			im.logger.Warn("skipping invalid document",
				slog.String("kind", kind),
				slog.Int("index", index),
				slog.String("error", err.Error()),
			)
			res.Skipped++
			continue
		}
		res.Imported++
	}

	im.logger.Info("import finished",
		slog.String("kind", kind),
		slog.Int("imported", res.Imported),
		slog.Int("skipped", res.Skipped),
	)
	return res, nil
}

// startsWithArray peeks past leading whitespace without consuming the first
// significant byte. Empty input counts as an empty stream.
func startsWithArray(br *bufio.Reader) (bool, error) {
	for {
		r, _, err := br.ReadRune()
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("seed: reading input: %w", err)
		}
		if unicode.IsSpace(r) || r == '\uFEFF' {
			continue
		}
		if err := br.UnreadRune(); err != nil {
			return false, err
		}
		return r == '[', nil
	}
}
