package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sakif/restaurant-guide/internal/apperror"
	"github.com/sakif/restaurant-guide/internal/model"
	"github.com/sakif/restaurant-guide/internal/query"
)

// restaurantDoc is the stored shape: the model plus the ObjectID.
type restaurantDoc struct {
	ID               primitive.ObjectID `bson:"_id,omitempty"`
	model.Restaurant `bson:",inline"`
}

func (d *restaurantDoc) toModel() model.Restaurant {
	r := d.Restaurant
	r.ID = d.ID.Hex()
	return r
}

// listingSort orders by name with _id as the tiebreak, so equal names keep a
// stable position across pages.
var listingSort = bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}

// FindRestaurants returns one page of restaurants matching f, without their
// comments.
func (s *Store) FindRestaurants(ctx context.Context, f query.Filter, p query.Page) ([]model.Restaurant, error) {
	filter, err := restaurantFilter(f)
	if err != nil {
		return nil, err
	}

	opts := options.Find().
		SetSort(listingSort).
		SetSkip(int64(p.Skip())).
		SetLimit(int64(p.Size)).
		SetProjection(bson.D{{Key: "comments", Value: 0}})

	cur, err := s.restaurants.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: listing restaurants: %w", err)
	}

	var docs []restaurantDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo: decoding restaurants: %w", err)
	}

	out := make([]model.Restaurant, len(docs))
	for i := range docs {
		out[i] = docs[i].toModel()
	}
	return out, nil
}

// CountRestaurants counts every restaurant matching f.
func (s *Store) CountRestaurants(ctx context.Context, f query.Filter) (int64, error) {
	filter, err := restaurantFilter(f)
	if err != nil {
		return 0, err
	}
	n, err := s.restaurants.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("mongo: counting restaurants: %w", err)
	}
	return n, nil
}

// FindRestaurantByID loads the full document. A malformed ObjectID is
// reported as not found.
func (s *Store) FindRestaurantByID(ctx context.Context, id string) (*model.Restaurant, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperror.NotFound("restaurant", id)
	}

	var doc restaurantDoc
	err = s.restaurants.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NotFound("restaurant", id)
		}
		return nil, fmt.Errorf("mongo: getting restaurant %s: %w", id, err)
	}

	r := doc.toModel()
	return &r, nil
}

// InsertRestaurant stores r, keeping its id when it is a valid ObjectID.
func (s *Store) InsertRestaurant(ctx context.Context, r *model.Restaurant) error {
	oid, err := primitive.ObjectIDFromHex(r.ID)
	if err != nil {
		oid = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = r.CreatedAt
	}
	if r.Comments == nil {
		// $push needs an array to push onto.
		r.Comments = []model.Comment{}
	}

	if _, err := s.restaurants.InsertOne(ctx, restaurantDoc{ID: oid, Restaurant: *r}); err != nil {
		return fmt.Errorf("mongo: inserting restaurant %q: %w", r.Name, err)
	}
	r.ID = oid.Hex()
	return nil
}
