package geocode

import (
	"civicsync-client/models"
	"civicsync-client/utils"
)

// ShortAddress builds the one-line address shown after a map click. It
// reports false when the parts carry nothing usable, in which case callers
// fall back to coordinates.
func ShortAddress(addr models.Address) (string, bool) {
	area := utils.FirstNonEmpty(addr.Suburb, addr.Neighbourhood)

	if addr.Road != "" {
		s := addr.Road
		if addr.HouseNumber != "" {
			s = addr.HouseNumber + ", " + s
		}
		if area != "" {
			s += ", " + area
		}
		return s, true
	}
	if area != "" {
		if addr.City != "" {
			return area + ", " + addr.City, true
		}
		return area, true
	}
	if place := utils.FirstNonEmpty(addr.City, addr.Town, addr.Village); place != "" {
		return place, true
	}
	return "", false
}
