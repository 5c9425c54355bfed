package model

import (
	"math"
	"slices"
)

// RestaurantView is the listing shape: the stored fields a client needs plus
// the derived latest grade, latest score and thumbnail.
type RestaurantView struct {
	ID          string  `json:"_id"`
	Name        string  `json:"name"`
	Cuisine     string  `json:"cuisine"`
	Borough     string  `json:"borough"`
	Address     Address `json:"address"`
	LatestGrade string  `json:"latestGrade"`
	LatestScore int     `json:"latestScore"`
	Thumbnail   string  `json:"thumbnail"`
	Description string  `json:"description,omitempty"`
	Website     string  `json:"website,omitempty"`
	Phone       string  `json:"phone,omitempty"`
}

// RestaurantDetail extends the listing view with the full grade history,
// images and comment statistics.
type RestaurantDetail struct {
	RestaurantView
	Grades        []Grade  `json:"grades"`
	Images        []Image  `json:"images"`
	AverageRating *float64 `json:"averageRating,omitempty"`
	TotalComments int      `json:"totalComments"`
}

// LatestGrade returns the grade and score of the most recent inspection.
// Grades are stable-sorted by date descending, so on equal dates the one that
// came first in the stored list wins. A missing date is the zero time and
// sorts last. With no grades the result is ("N/A", 0).
func (r *Restaurant) LatestGrade() (string, int) {
	if len(r.Grades) == 0 {
		return "N/A", 0
	}
	sorted := slices.Clone(r.Grades)
	slices.SortStableFunc(sorted, func(a, b Grade) int {
		return b.Date.Compare(a.Date)
	})
	latest := sorted[0]
	grade := latest.Grade
	if grade == "" {
		grade = "N/A"
	}
	return grade, latest.Score
}

// Thumbnail picks the main image, falling back to the first image and then
// to DefaultThumbnail.
func (r *Restaurant) Thumbnail() string {
	for _, img := range r.Images {
		if img.IsMain && img.URL != "" {
			return img.URL
		}
	}
	if len(r.Images) > 0 && r.Images[0].URL != "" {
		return r.Images[0].URL
	}
	return DefaultThumbnail
}

// View maps a stored record to its listing view. ok is false for records with
// an invalid name, which callers must drop.
func (r *Restaurant) View() (RestaurantView, bool) {
	if !r.HasValidName() {
		return RestaurantView{}, false
	}
	grade, score := r.LatestGrade()
	return RestaurantView{
		ID:          r.ID,
		Name:        r.Name,
		Cuisine:     r.Cuisine,
		Borough:     r.Borough,
		Address:     r.Address,
		LatestGrade: grade,
		LatestScore: score,
		Thumbnail:   r.Thumbnail(),
		Description: r.Description,
		Website:     r.Website,
		Phone:       r.Phone,
	}, true
}

// Detail maps a stored record to the detail view.
func (r *Restaurant) Detail() (RestaurantDetail, bool) {
	view, ok := r.View()
	if !ok {
		return RestaurantDetail{}, false
	}
	d := RestaurantDetail{
		RestaurantView: view,
		Grades:         nonNil(r.Grades),
		Images:         nonNil(r.Images),
		TotalComments:  len(r.Comments),
	}
	if avg, ok := AverageRating(r.Comments); ok {
		d.AverageRating = &avg
	}
	return d, true
}

// Views maps records in order and drops the ones with invalid names.
func Views(restaurants []Restaurant) []RestaurantView {
	out := make([]RestaurantView, 0, len(restaurants))
	for i := range restaurants {
		if v, ok := restaurants[i].View(); ok {
			out = append(out, v)
		}
	}
	return out
}

func roundOneDecimal(v float64) float64 {
	return math.Round(v*10) / 10
}

// nonNil keeps JSON output as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
