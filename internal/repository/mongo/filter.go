package mongo

import (
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sakif/restaurant-guide/internal/query"
)

// restaurantFilter translates f into {$and: [...]} with one clause per
// constraint. Two constraints on the same field (the name must exist AND
// contain a term) would collide as keys of a single document; as separate
// $and clauses they cannot.
func restaurantFilter(f query.Filter) (bson.D, error) {
	clauses := bson.A{
		bson.D{{Key: "name", Value: bson.D{
			{Key: "$exists", Value: true},
			{Key: "$nin", Value: bson.A{nil, ""}},
		}}},
	}

	if f.Cuisine != "" {
		clauses = append(clauses, bson.D{{Key: "cuisine", Value: f.Cuisine}})
	}
	if f.Borough != "" {
		clauses = append(clauses, bson.D{{Key: "borough", Value: f.Borough}})
	}
	if f.NameContains != "" {
		clauses = append(clauses, bson.D{{Key: "name", Value: primitive.Regex{
			Pattern: regexp.QuoteMeta(f.NameContains),
			Options: "i",
		}}})
	}
	if f.ExcludeID != "" {
		if oid, err := primitive.ObjectIDFromHex(f.ExcludeID); err == nil {
			clauses = append(clauses, bson.D{{Key: "_id", Value: bson.D{{Key: "$ne", Value: oid}}}})
		}
	}
	if f.Area != nil {
		geometry, err := geometryDocument(f.Area.Geometry)
		if err != nil {
			return nil, fmt.Errorf("mongo: neighborhood %q: %w", f.Area.Name, err)
		}
		clauses = append(clauses, bson.D{{Key: "address.coord", Value: bson.D{
			{Key: "$geoWithin", Value: bson.D{{Key: "$geometry", Value: geometry}}},
		}}})
	}

	return bson.D{{Key: "$and", Value: clauses}}, nil
}

// ownedCommentFilter matches the restaurant only while it holds a comment
// with both the given id and owner. $elemMatch makes both conditions apply
// to the same array element.
func ownedCommentFilter(restaurantID primitive.ObjectID, commentID, userID string) bson.D {
	return bson.D{
		{Key: "_id", Value: restaurantID},
		{Key: "comments", Value: bson.D{{Key: "$elemMatch", Value: bson.D{
			{Key: "_id", Value: commentID},
			{Key: "user_id", Value: userID},
		}}}},
	}
}

// geometryDocument converts GeoJSON text into a BSON document. Relaxed
// extended JSON is plain JSON for GeoJSON's numbers and arrays.
func geometryDocument(geojson []byte) (bson.D, error) {
	var doc bson.D
	if err := bson.UnmarshalExtJSON(geojson, false, &doc); err != nil {
		return nil, fmt.Errorf("decoding geometry: %w", err)
	}
	return doc, nil
}

// geometryJSON converts a stored BSON geometry back into GeoJSON text.
func geometryJSON(raw bson.Raw) ([]byte, error) {
	b, err := bson.MarshalExtJSON(raw, false, false)
	if err != nil {
		return nil, fmt.Errorf("encoding geometry: %w", err)
	}
	return b, nil
}
