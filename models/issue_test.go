package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueDecodeTolerantFields(t *testing.T) {
	payload := `[
		{"id": 7, "title": "Pothole", "category": "roads", "status": "reported",
		 "latitude": 12.97, "longitude": "77.59", "created_at": "2024-03-01T10:20:30.123456+00:00"},
		{"id": "65f1c0ffee", "title": "Dark street", "category": "lighting",
		 "latitude": "north", "longitude": null, "created_at": null}
	]`

	var issues []Issue
	require.NoError(t, json.Unmarshal([]byte(payload), &issues))
	require.Len(t, issues, 2)

	assert.Equal(t, ID("7"), issues[0].ID)
	pos, ok := issues[0].Position()
	assert.True(t, ok)
	assert.Equal(t, Point{Lat: 12.97, Lng: 77.59}, pos)
	assert.Equal(t, 2024, issues[0].CreatedAt.Year())
	assert.Equal(t, time.March, issues[0].CreatedAt.Month())

	assert.Equal(t, ID("65f1c0ffee"), issues[1].ID)
	_, ok = issues[1].Position()
	assert.False(t, ok)
	assert.True(t, issues[1].CreatedAt.IsZero())
}

func TestIssuePositionRejectsOutOfRange(t *testing.T) {
	testCases := []struct {
		name  string
		lat   Coordinate
		lng   Coordinate
		valid bool
	}{
		{name: "inside", lat: Degrees(12.9716), lng: Degrees(77.5946), valid: true},
		{name: "edges", lat: Degrees(-90), lng: Degrees(180), valid: true},
		{name: "latitude too large", lat: Degrees(91), lng: Degrees(0), valid: false},
		{name: "longitude too large", lat: Degrees(0), lng: Degrees(181), valid: false},
		{name: "missing longitude", lat: Degrees(1), lng: Coordinate{}, valid: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, ok := Issue{Latitude: tc.lat, Longitude: tc.lng}.Position()
			assert.Equal(t, tc.valid, ok)
		})
	}
}

func TestCoordinateRejectsNaNString(t *testing.T) {
	var c Coordinate
	require.NoError(t, json.Unmarshal([]byte(`"NaN"`), &c))
	assert.False(t, c.Valid)
}

func TestIssueEncodeInvalidCoordinateAsNull(t *testing.T) {
	data, err := json.Marshal(Issue{ID: "1", Latitude: Degrees(1.5)})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"latitude":1.5`)
	assert.Contains(t, string(data), `"longitude":null`)
	assert.Contains(t, string(data), `"created_at":null`)
}

func TestCategoryValid(t *testing.T) {
	assert.True(t, Obstructions.Valid())
	assert.False(t, IssueCategory("Road").Valid())
	assert.False(t, IssueCategory("").Valid())
}
