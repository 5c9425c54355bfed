package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sakif/restaurant-guide/internal/apperror"
	"github.com/sakif/restaurant-guide/internal/geo"
	"github.com/sakif/restaurant-guide/internal/model"
)

type neighborhoodDoc struct {
	Name     string   `bson:"name"`
	Geometry bson.Raw `bson:"geometry"`
}

// NeighborhoodNames lists every neighborhood name.
func (s *Store) NeighborhoodNames(ctx context.Context) ([]string, error) {
	cur, err := s.neighborhoods.Find(ctx, bson.D{},
		options.Find().
			SetProjection(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 0}}).
			SetSort(bson.D{{Key: "name", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("mongo: listing neighborhoods: %w", err)
	}

	var docs []struct {
		Name string `bson:"name"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo: decoding neighborhoods: %w", err)
	}

	names := make([]string, len(docs))
	for i, d := range docs {
		names[i] = d.Name
	}
	return names, nil
}

// DistinctCuisines returns the distinct cuisine values. Non-string values
// in a hand-edited collection are skipped.
func (s *Store) DistinctCuisines(ctx context.Context) ([]string, error) {
	values, err := s.restaurants.Distinct(ctx, "cuisine", bson.D{})
	if err != nil {
		return nil, fmt.Errorf("mongo: distinct cuisines: %w", err)
	}

	out := make([]string, 0, len(values))
	for _, v := range values {
		if c, ok := v.(string); ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// FindNeighborhood returns the named neighborhood with its geometry as GeoJSON.
func (s *Store) FindNeighborhood(ctx context.Context, name string) (*model.Neighborhood, error) {
	var doc neighborhoodDoc
	err := s.neighborhoods.FindOne(ctx, bson.D{{Key: "name", Value: name}}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NotFound("neighborhood", name)
		}
		return nil, fmt.Errorf("mongo: getting neighborhood %q: %w", name, err)
	}

	geometry, err := geometryJSON(doc.Geometry)
	if err != nil {
		return nil, fmt.Errorf("mongo: neighborhood %q: %w", name, err)
	}
	return &model.Neighborhood{Name: doc.Name, Geometry: geometry}, nil
}

// InsertNeighborhood upserts n by name after checking its geometry decodes.
func (s *Store) InsertNeighborhood(ctx context.Context, n *model.Neighborhood) error {
	if _, err := geo.ParseRegion(n.Geometry); err != nil {
		return apperror.ValidationFailed("geometry", fmt.Sprintf("neighborhood %q: %v", n.Name, err))
	}
	geometry, err := geometryDocument(n.Geometry)
	if err != nil {
		return apperror.ValidationFailed("geometry", fmt.Sprintf("neighborhood %q: %v", n.Name, err))
	}

	_, err = s.neighborhoods.ReplaceOne(ctx,
		bson.D{{Key: "name", Value: n.Name}},
		bson.D{{Key: "name", Value: n.Name}, {Key: "geometry", Value: geometry}},
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("mongo: inserting neighborhood %q: %w", n.Name, err)
	}
	return nil
}
