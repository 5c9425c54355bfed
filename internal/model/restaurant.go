// Package model defines the data structures used throughout the application.
package model

import (
	"strings"
	"time"
)

// DefaultThumbnail is served when a restaurant has no images at all.
const DefaultThumbnail = "/images/restaurant-default.png"

// Restaurant is the stored document. Comments are embedded in the document
// itself so that appending a comment and bumping UpdatedAt is one write.
//
// WHY both json and bson tags?
// The SQLite backend stores the document as JSON text, the Mongo backend as
// BSON. Keeping one struct with both tag sets means the two stores agree on
// field names ("address.coord", "comments._id", ...) without a mapping layer.
// The id is handled by each backend separately, hence bson:"-".
type Restaurant struct {
	ID          string    `json:"_id"         bson:"-"`
	Name        string    `json:"name"        bson:"name"`
	Cuisine     string    `json:"cuisine"     bson:"cuisine"`
	Borough     string    `json:"borough"     bson:"borough"`
	Address     Address   `json:"address"     bson:"address"`
	Grades      []Grade   `json:"grades"      bson:"grades"`
	Images      []Image   `json:"images"      bson:"images"`
	Comments    []Comment `json:"comments"    bson:"comments"`
	Description string    `json:"description" bson:"description,omitempty"`
	Website     string    `json:"website"     bson:"website,omitempty"`
	Phone       string    `json:"phone"       bson:"phone,omitempty"`
	CreatedAt   time.Time `json:"created_at"  bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"  bson:"updated_at"`
}

// Address holds the street address and the [lng, lat] coordinate pair.
type Address struct {
	Building string    `json:"building" bson:"building"`
	Street   string    `json:"street"   bson:"street"`
	Zipcode  string    `json:"zipcode"  bson:"zipcode"`
	Coord    []float64 `json:"coord"    bson:"coord"`
}

// Point returns the coordinate as (lng, lat). ok is false when the address
// has no usable coordinate.
func (a Address) Point() (lng, lat float64, ok bool) {
	if len(a.Coord) < 2 {
		return 0, 0, false
	}
	return a.Coord[0], a.Coord[1], true
}

// Grade is one inspection result.
type Grade struct {
	Date  time.Time `json:"date"  bson:"date"`
	Grade string    `json:"grade" bson:"grade"`
	Score int       `json:"score" bson:"score"`
}

type Image struct {
	URL    string `json:"url"     bson:"url"`
	IsMain bool   `json:"is_main" bson:"is_main"`
}

// HasValidName reports whether the record may appear in any result set.
// Records without a name, or with a whitespace-only name, are never shown.
func (r *Restaurant) HasValidName() bool {
	return strings.TrimSpace(r.Name) != ""
}
