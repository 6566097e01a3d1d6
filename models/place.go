package models

import (
	"strconv"
	"strings"
)

// Address holds the structured parts the geocoding provider returns
type Address struct {
	HouseNumber   string `json:"house_number,omitempty"`
	Road          string `json:"road,omitempty"`
	Neighbourhood string `json:"neighbourhood,omitempty"`
	Suburb        string `json:"suburb,omitempty"`
	City          string `json:"city,omitempty"`
	Town          string `json:"town,omitempty"`
	Village       string `json:"village,omitempty"`
	State         string `json:"state,omitempty"`
	Postcode      string `json:"postcode,omitempty"`
	Country       string `json:"country,omitempty"`
	CountryCode   string `json:"country_code,omitempty"`
}

// Place is a single geocoding match. Coordinates arrive as strings.
type Place struct {
	DisplayName string            `json:"display_name"`
	Lat         string            `json:"lat"`
	Lon         string            `json:"lon"`
	Type        string            `json:"type"`
	Class       string            `json:"class"`
	Address     Address           `json:"address"`
	NameDetails map[string]string `json:"namedetails,omitempty"`
}

// Position parses the place coordinates.
func (p Place) Position() (Point, bool) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(p.Lat), 64)
	if err != nil {
		return Point{}, false
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(p.Lon), 64)
	if err != nil {
		return Point{}, false
	}
	pt := Point{Lat: lat, Lng: lon}
	return pt, pt.Valid()
}

// ZoomLevel is the map zoom used when recentring on this place
func (p Place) ZoomLevel() int {
	switch p.Type {
	case "country":
		return 6
	case "state":
		return 8
	case "city", "town":
		return 12
	case "suburb":
		return 14
	case "village":
		return 15
	default:
		return 16
	}
}
