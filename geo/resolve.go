package geo

import (
	"context"
	"errors"
	"net/url"

	"chinampa/models"
)

// Navigation is where the entry page sends the user once a location is known.
type Navigation struct {
	Coordinate models.Coordinate `json:"coordinate"`
	Place      models.Place      `json:"place"`
	Route      string            `json:"route"`
}

// ReportRoute builds /report/{city}/{state}/{country}.
func ReportRoute(p models.Place) string {
	return "/report/" + url.PathEscape(p.City) + "/" + url.PathEscape(p.State) + "/" + url.PathEscape(p.Country)
}

// Resolve runs the entry page flow: locate, reverse-geocode, build the route.
// Any failure is returned as *Error and no route is produced.
func Resolve(ctx context.Context, loc Locator, rg ReverseGeocoder) (Navigation, error) {
	if loc == nil {
		return Navigation{}, newError(Unsupported, nil)
	}
	c, err := loc.RequestLocation(ctx)
	if err != nil {
		return Navigation{}, asGeoError(err, PositionUnavailable)
	}
	if rg == nil {
		return Navigation{}, newError(GeocodeFailed, errors.New("no reverse geocoder configured"))
	}
	p, err := rg.Reverse(ctx, c)
	if err != nil {
		return Navigation{}, asGeoError(err, GeocodeFailed)
	}
	return Navigation{Coordinate: c, Place: p, Route: ReportRoute(p)}, nil
}

func asGeoError(err error, fallback Kind) *Error {
	var ge *Error
	if errors.As(err, &ge) {
		return ge
	}
	return newError(fallback, err)
}
