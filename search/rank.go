package search

import (
	"civicsync-client/models"
	"civicsync-client/utils"
)

const (
	// DisplayLimit is how many matches the list shows.
	DisplayLimit = 10

	// NoResultsText is the informational row shown for an empty result.
	NoResultsText = "No results found. Try different keywords."

	// InformationalStyle marks rows that cannot be selected.
	InformationalStyle = "informational"

	conciseLimit   = 60
	secondaryLimit = 80
)

// Kind is the category a match is presented under.
type Kind struct {
	Label string `json:"label"`
	Icon  string `json:"icon"`
}

var (
	KindCity         = Kind{Label: "City/Town", Icon: "🏙️"}
	KindStreet       = Kind{Label: "Street", Icon: "🛣️"}
	KindNeighborhood = Kind{Label: "Neighborhood", Icon: "🏘️"}
	KindState        = Kind{Label: "State", Icon: "🗺️"}
	KindAmenity      = Kind{Label: "Amenity", Icon: "🏢"}
	KindBuilding     = Kind{Label: "Building", Icon: "🏠"}
	KindLocation     = Kind{Label: "Location", Icon: "📍"}
)

// Classify picks the presentation kind of p. The provider type wins over
// its class.
func Classify(p models.Place) Kind {
	switch p.Type {
	case "city", "town", "village":
		return KindCity
	case "road", "street":
		return KindStreet
	case "suburb", "neighborhood":
		return KindNeighborhood
	case "state":
		return KindState
	}
	switch p.Class {
	case "amenity":
		return KindAmenity
	case "building":
		return KindBuilding
	}
	return KindLocation
}

// ConciseAddress is the short first line of a suggestion.
func ConciseAddress(p models.Place) string {
	a := p.Address
	if a.Road != "" {
		switch {
		case a.Suburb != "":
			return a.Road + ", " + a.Suburb
		case a.City != "":
			return a.Road + ", " + a.City
		}
		return a.Road
	}
	if place := utils.FirstNonEmpty(a.City, a.Town, a.Village); place != "" {
		if a.State != "" {
			return place + ", " + a.State
		}
		return place
	}
	if a.State != "" {
		if a.Country != "" {
			return a.State + ", " + a.Country
		}
		return a.State
	}
	return utils.Truncate(p.DisplayName, conciseLimit)
}

// Row is one rendered suggestion.
type Row struct {
	Index      int    `json:"index"`
	Icon       string `json:"icon,omitempty"`
	Title      string `json:"title"`
	Subtitle   string `json:"subtitle,omitempty"`
	Style      string `json:"style,omitempty"`
	Selectable bool   `json:"selectable"`
}

// Rows renders places, at most DisplayLimit of them. An empty input yields
// the single informational row.
func Rows(places []models.Place) []Row {
	if len(places) == 0 {
		return []Row{{Index: 0, Title: NoResultsText, Style: InformationalStyle}}
	}
	if len(places) > DisplayLimit {
		places = places[:DisplayLimit]
	}

	rows := make([]Row, len(places))
	for i, p := range places {
		kind := Classify(p)
		rows[i] = Row{
			Index:      i,
			Icon:       kind.Icon,
			Title:      ConciseAddress(p),
			Subtitle:   kind.Label + " • " + utils.Truncate(p.DisplayName, secondaryLimit),
			Selectable: true,
		}
	}
	return rows
}
