package geo

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"chinampa/models"
)

// Locator produces the coordinate a report is requested for.
type Locator interface {
	RequestLocation(ctx context.Context) (models.Coordinate, error)
}

// LocatorFunc adapts a function to Locator.
type LocatorFunc func(ctx context.Context) (models.Coordinate, error)

func (f LocatorFunc) RequestLocation(ctx context.Context) (models.Coordinate, error) { return f(ctx) }

// UnsupportedLocator is used when no position source is available at all.
type UnsupportedLocator struct{}

func (UnsupportedLocator) RequestLocation(context.Context) (models.Coordinate, error) {
	return models.Coordinate{}, newError(Unsupported, nil)
}

// ManualLocator parses "lat,lon" typed by the user.
type ManualLocator struct {
	Input string
}

func (m ManualLocator) RequestLocation(ctx context.Context) (models.Coordinate, error) {
	if err := ctx.Err(); err != nil {
		return models.Coordinate{}, newError(PositionUnavailable, err)
	}
	c, err := ParseCoordinate(m.Input)
	if err != nil {
		return models.Coordinate{}, newError(PositionUnavailable, err)
	}
	return c, nil
}

// ParseCoordinate accepts "19.4326,-99.1332" or "19.4326 -99.1332".
func ParseCoordinate(s string) (models.Coordinate, error) {
	fields := strings.FieldsFunc(strings.TrimSpace(s), func(r rune) bool {
		return r == ',' || r == ' ' || r == ';'
	})
	if len(fields) != 2 {
		return models.Coordinate{}, fmt.Errorf("expected \"lat,lon\", got %q", s)
	}
	lat, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return models.Coordinate{}, fmt.Errorf("latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return models.Coordinate{}, fmt.Errorf("longitude: %w", err)
	}
	c := models.Coordinate{Latitude: lat, Longitude: lon}
	if !c.Valid() {
		return models.Coordinate{}, fmt.Errorf("coordinate out of range: %s", c)
	}
	return c, nil
}

// AddressLocator resolves a free-text address through a forward geocoder.
type AddressLocator struct {
	Query    string
	Geocoder Searcher
}

func (a AddressLocator) RequestLocation(ctx context.Context) (models.Coordinate, error) {
	q := strings.TrimSpace(a.Query)
	if q == "" {
		return models.Coordinate{}, newError(PositionUnavailable, errors.New("empty address"))
	}
	if a.Geocoder == nil {
		return models.Coordinate{}, newError(Unsupported, errors.New("no geocoder configured"))
	}
	c, err := a.Geocoder.Search(ctx, q)
	if err != nil {
		return models.Coordinate{}, newError(PositionUnavailable, err)
	}
	return c, nil
}

// ConsentLocator asks for permission before delegating to Source,
// the same way a browser prompts before sharing the position.
type ConsentLocator struct {
	Source Locator
	In     io.Reader
	Out    io.Writer
	Prompt string
}

func (c ConsentLocator) RequestLocation(ctx context.Context) (models.Coordinate, error) {
	if c.Source == nil {
		return models.Coordinate{}, newError(Unsupported, nil)
	}
	if c.In == nil {
		return models.Coordinate{}, newError(PermissionDenied, errors.New("no consent input"))
	}
	prompt := c.Prompt
	if prompt == "" {
		prompt = "¿Permitir acceso a tu ubicación? [s/N]: "
	}
	if c.Out != nil {
		fmt.Fprint(c.Out, prompt)
	}
	answer, err := bufio.NewReader(c.In).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return models.Coordinate{}, newError(PermissionDenied, err)
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "s", "si", "sí", "y", "yes":
		return c.Source.RequestLocation(ctx)
	default:
		return models.Coordinate{}, newError(PermissionDenied, nil)
	}
}
