package models

import (
	"net/url"
	"strconv"
)

// Filter is the spatial/status/category selection sent with every refresh.
// It is captured fresh at call time and never versioned.
type Filter struct {
	Center   Point
	RadiusKm float64
	Status   string
	Category IssueCategory
}

// Query renders the filter as the query string of GET /api/issues.
func (f Filter) Query() url.Values {
	q := url.Values{}
	q.Set("lat", formatFloat(f.Center.Lat))
	q.Set("lng", formatFloat(f.Center.Lng))
	q.Set("radius", formatFloat(f.RadiusKm))
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	if f.Category != "" {
		q.Set("category", string(f.Category))
	}
	return q
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
