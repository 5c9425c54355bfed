package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2024, time.January, d, 0, 0, 0, 0, time.UTC)
}

func intPtr(v int) *int { return &v }

// ===== LATEST GRADE TESTS =====

func TestLatestGrade(t *testing.T) {
	tests := []struct {
		name      string
		grades    []Grade
		wantGrade string
		wantScore int
	}{
		{
			name:      "no grades",
			wantGrade: "N/A",
			wantScore: 0,
		},
		{
			name: "picks max date regardless of order",
			grades: []Grade{
				{Date: day(1), Grade: "C", Score: 30},
				{Date: day(20), Grade: "A", Score: 9},
				{Date: day(5), Grade: "B", Score: 18},
			},
			wantGrade: "A",
			wantScore: 9,
		},
		{
			name: "equal dates keep input order",
			grades: []Grade{
				{Date: day(3), Grade: "B", Score: 15},
				{Date: day(3), Grade: "A", Score: 7},
			},
			wantGrade: "B",
			wantScore: 15,
		},
		{
			name: "missing date sorts last",
			grades: []Grade{
				{Grade: "Z", Score: 99},
				{Date: day(2), Grade: "A", Score: 4},
			},
			wantGrade: "A",
			wantScore: 4,
		},
		{
			name:      "empty letter becomes N/A",
			grades:    []Grade{{Date: day(2), Score: 12}},
			wantGrade: "N/A",
			wantScore: 12,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Restaurant{Name: "Katz's", Grades: tt.grades}
			grade, score := r.LatestGrade()
			assert.Equal(t, tt.wantGrade, grade)
			assert.Equal(t, tt.wantScore, score)
		})
	}
}

func TestLatestGrade_DoesNotReorderStoredGrades(t *testing.T) {
	grades := []Grade{{Date: day(1), Grade: "B"}, {Date: day(9), Grade: "A"}}
	r := Restaurant{Name: "x", Grades: grades}

	r.LatestGrade()

	assert.Equal(t, "B", r.Grades[0].Grade)
}

// ===== THUMBNAIL TESTS =====

func TestThumbnail(t *testing.T) {
	tests := []struct {
		name   string
		images []Image
		want   string
	}{
		{"no images", nil, DefaultThumbnail},
		{"main image wins", []Image{{URL: "/a.jpg"}, {URL: "/b.jpg", IsMain: true}}, "/b.jpg"},
		{"first image fallback", []Image{{URL: "/a.jpg"}, {URL: "/b.jpg"}}, "/a.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Restaurant{Name: "x", Images: tt.images}
			assert.Equal(t, tt.want, r.Thumbnail())
		})
	}
}

// ===== VIEW MAPPING TESTS =====

func TestViews_DropsInvalidNames(t *testing.T) {
	in := []Restaurant{
		{ID: "1", Name: "Alpha"},
		{ID: "2", Name: ""},
		{ID: "3", Name: "   "},
		{ID: "4", Name: "Delta"},
	}

	got := Views(in)

	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "4", got[1].ID)
}

func TestView_FillsDerivedFields(t *testing.T) {
	r := Restaurant{
		ID:      "abc",
		Name:    "Morris Park Bake Shop",
		Cuisine: "Bakery",
		Borough: "Bronx",
		Grades:  []Grade{{Date: day(4), Grade: "A", Score: 2}},
	}

	v, ok := r.View()

	require.True(t, ok)
	assert.Equal(t, "A", v.LatestGrade)
	assert.Equal(t, 2, v.LatestScore)
	assert.Equal(t, DefaultThumbnail, v.Thumbnail)
	assert.Equal(t, "Bakery", v.Cuisine)
}

func TestDetail_AverageRating(t *testing.T) {
	r := Restaurant{
		Name: "x",
		Comments: []Comment{
			{Rating: intPtr(4)},
			{Rating: nil},
			{Rating: intPtr(5)},
			{Rating: intPtr(4)},
		},
	}

	d, ok := r.Detail()

	require.True(t, ok)
	require.NotNil(t, d.AverageRating)
	assert.Equal(t, 4.3, *d.AverageRating)
	assert.Equal(t, 4, d.TotalComments)
	assert.NotNil(t, d.Grades)
	assert.NotNil(t, d.Images)
}

func TestDetail_NoRatingsOmitsAverage(t *testing.T) {
	r := Restaurant{Name: "x", Comments: []Comment{{Text: "unrated comment"}}}

	d, ok := r.Detail()

	require.True(t, ok)
	assert.Nil(t, d.AverageRating)
}

// ===== COMMENT ORDER TESTS =====

func TestNewestFirst(t *testing.T) {
	comments := []Comment{
		{ID: "a", CreatedAt: day(1)},
		{ID: "b", CreatedAt: day(3)},
		{ID: "c", CreatedAt: day(3)},
		{ID: "d", CreatedAt: day(2)},
	}

	got := NewestFirst(comments)

	ids := make([]string, len(got))
	for i, c := range got {
		ids[i] = c.ID
	}
	assert.Equal(t, []string{"c", "b", "d", "a"}, ids)
	assert.Equal(t, "a", comments[0].ID, "input must not be reordered")
}

func TestCommentEditApply(t *testing.T) {
	c := Comment{Text: "old text here", Rating: intPtr(2)}

	CommentEdit{Text: "new text here", Rating: nil, UpdatedAt: day(9)}.Apply(&c)

	assert.Equal(t, "new text here", c.Text)
	assert.Nil(t, c.Rating)
	assert.True(t, c.IsEdited)
	assert.Equal(t, day(9), c.UpdatedAt)
}
