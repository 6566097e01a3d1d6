// Package location turns map clicks and device positions into a chosen
// location.
package location

import (
	"context"
	"errors"
	"time"

	"civicsync-client/executor"
	"civicsync-client/geocode"
	"civicsync-client/models"
	"civicsync-client/utils"

	"github.com/apex/log"
)

const (
	LookingUpText    = "🔄 Getting address details..."
	LookingUpTimeout = 5 * time.Second

	SelectedPrefix  = "📍 Location selected: "
	SelectedTimeout = 4 * time.Second

	CoordinatesOnlyText    = "📍 Location selected (coordinates only)"
	CoordinatesOnlyTimeout = 3 * time.Second

	// SelectionTTL is how long the temporary selection marker stays.
	SelectionTTL = 10 * time.Second

	LocatedText     = "Location found"
	LocatedTimeout  = 2 * time.Second
	LocatedZoom     = 16
	DeniedText      = "Location access denied or failed"
	UnsupportedText = "Geolocation not supported by your browser"
)

// ErrInvalidPosition is returned for positions outside the WGS84 range.
var ErrInvalidPosition = errors.New("location: invalid position")

// ReverseGeocoder resolves a position to a place.
type ReverseGeocoder interface {
	Reverse(ctx context.Context, lat, lng float64) (models.Place, error)
}

// Surface is the part of the map the picker drives.
type Surface interface {
	SetView(center models.Point, zoom int)
	ShowSelection(p models.Point, ttl time.Duration)
}

// AddressSink receives the address to submit with the next issue.
type AddressSink interface {
	SetAddress(address string)
}

// Geolocator reports the device position.
type Geolocator interface {
	CurrentPosition(ctx context.Context) (models.Point, error)
}

// Fix is a position already obtained by the front-end.
type Fix struct {
	Position models.Point
	Err      error
}

func (f Fix) CurrentPosition(context.Context) (models.Point, error) {
	return f.Position, f.Err
}

// Picker handles map clicks and "locate me".
type Picker struct {
	exec    *executor.Executor
	geo     ReverseGeocoder
	surface Surface
	address AddressSink
}

// NewPicker wires a picker.
func NewPicker(exec *executor.Executor, geo ReverseGeocoder, surface Surface, address AddressSink) *Picker {
	return &Picker{exec: exec, geo: geo, surface: surface, address: address}
}

// Pick resolves the clicked position to an address for the next submit.
// Without a usable address the coordinates are used instead.
func (p *Picker) Pick(ctx context.Context, lat, lng float64) error {
	pt := models.Point{Lat: lat, Lng: lng}
	if !pt.Valid() {
		return ErrInvalidPosition
	}

	p.exec.Messages().Show(LookingUpText, LookingUpTimeout)
	_, err := executor.Run(ctx, p.exec, executor.Request[models.Place]{
		Name: "Reverse geocode",
		Call: func(ctx context.Context) (models.Place, error) {
			return p.geo.Reverse(ctx, lat, lng)
		},
		OnSuccess: func(place models.Place) executor.Notice {
			p.address.SetAddress(place.DisplayName)
			formatted, ok := geocode.ShortAddress(place.Address)
			if !ok {
				formatted = utils.FormatCoordinates(lat, lng)
			}
			p.surface.ShowSelection(pt, SelectionTTL)
			return executor.Notice{Text: SelectedPrefix + formatted, Timeout: SelectedTimeout}
		},
		OnFailure: func(err error) executor.Notice {
			if !errors.Is(err, geocode.ErrNoAddress) {
				log.WithError(err).Info("reverse geocoding failed, using coordinates")
			}
			p.address.SetAddress(utils.FormatCoordinates(lat, lng))
			return executor.Notice{Text: CoordinatesOnlyText, Timeout: CoordinatesOnlyTimeout}
		},
	})
	return err
}

// Locate recentres the map on the device position. A nil geolocator means
// the device cannot report one.
func (p *Picker) Locate(ctx context.Context, g Geolocator) error {
	if g == nil {
		p.exec.Messages().Show(UnsupportedText, 0)
		return errors.New("location: geolocation unsupported")
	}
	pos, err := g.CurrentPosition(ctx)
	if err == nil && !pos.Valid() {
		err = ErrInvalidPosition
	}
	if err != nil {
		log.WithError(err).Info("geolocation failed")
		p.exec.Messages().Show(DeniedText, 0)
		return err
	}
	p.surface.SetView(pos, LocatedZoom)
	p.exec.Messages().Show(LocatedText, LocatedTimeout)
	return nil
}
