package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// IssueCategory enum
type IssueCategory string

const (
	Roads        IssueCategory = "roads"
	Water        IssueCategory = "water"
	Garbage      IssueCategory = "garbage"
	Lighting     IssueCategory = "lighting"
	Safety       IssueCategory = "safety"
	Obstructions IssueCategory = "obstructions"
)

// Categories lists every category the form and the filters accept.
var Categories = []IssueCategory{Roads, Water, Garbage, Lighting, Safety, Obstructions}

// Valid reports whether c is one of the known categories.
func (c IssueCategory) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// StatusReported is the status every new issue is created with.
const StatusReported = "reported"

// DescriptionSoftLimit is the length the description counter counts up to.
const DescriptionSoftLimit = 300

// ID is a backend-assigned identity. The backend may encode it as a JSON
// number or string; both decode to the same textual form.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

// Coordinate is one axis of an issue position. Values that are not numeric
// decode as invalid instead of failing the surrounding payload.
type Coordinate struct {
	Value float64
	Valid bool
}

// Degrees returns a valid coordinate holding v.
func Degrees(v float64) Coordinate {
	return Coordinate{Value: v, Valid: !math.IsNaN(v) && !math.IsInf(v, 0)}
}

func (c *Coordinate) UnmarshalJSON(data []byte) error {
	*c = Coordinate{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	raw := string(data)
	if data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil
		}
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return nil
	}
	*c = Degrees(v)
	return nil
}

func (c Coordinate) MarshalJSON() ([]byte, error) {
	if !c.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(c.Value)
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Timestamp is an optional backend time. Unparsable values decode as zero,
// which callers treat as absent.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	t.Time = time.Time{}
	var s string
	if err := json.Unmarshal(data, &s); err != nil || s == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}

// Issue represents a civic issue as echoed by the backend
type Issue struct {
	ID          ID            `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Category    IssueCategory `json:"category"`
	Status      string        `json:"status"`
	Latitude    Coordinate    `json:"latitude"`
	Longitude   Coordinate    `json:"longitude"`
	Address     string        `json:"address,omitempty"`
	CreatedAt   Timestamp     `json:"created_at"`
	UpdatedAt   Timestamp     `json:"updated_at"`
	UserID      ID            `json:"user_id,omitempty"`
}

// Position returns the issue location and whether it can be drawn. Both axes
// must be numeric and inside the WGS84 range.
func (i Issue) Position() (Point, bool) {
	if !i.Latitude.Valid || !i.Longitude.Valid {
		return Point{}, false
	}
	p := Point{Lat: i.Latitude.Value, Lng: i.Longitude.Value}
	return p, p.Valid()
}

// NewIssue is the body of POST /api/issues.
type NewIssue struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Category    IssueCategory `json:"category"`
	Latitude    float64       `json:"latitude"`
	Longitude   float64       `json:"longitude"`
	Status      string        `json:"status"`
	Address     string        `json:"address"`
}
