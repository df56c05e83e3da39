package geo

import "fmt"

// Kind classifies why a location could not be obtained.
type Kind string

const (
	PermissionDenied    Kind = "permission_denied"
	PositionUnavailable Kind = "position_unavailable"
	Unsupported         Kind = "unsupported"
	GeocodeFailed       Kind = "geocode_failed"
)

// Sentinels for errors.Is; they match any *Error of the same Kind.
var (
	ErrPermissionDenied    = &Error{Kind: PermissionDenied}
	ErrPositionUnavailable = &Error{Kind: PositionUnavailable}
	ErrUnsupported         = &Error{Kind: Unsupported}
	ErrGeocodeFailed       = &Error{Kind: GeocodeFailed}
)

// Error is returned by locators and geocoders.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("geolocation: %s", e.Kind)
	}
	return fmt.Sprintf("geolocation: %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Err == nil && t.Kind == e.Kind
}

// Message is the text shown to the user on the entry page.
func (e *Error) Message() string {
	switch e.Kind {
	case Unsupported:
		return "La geolocalización no es soportada por este navegador."
	case GeocodeFailed:
		return "No se pudo determinar la ciudad para esta ubicación."
	default:
		return "No se pudo obtener la ubicación."
	}
}

func newError(kind Kind, err error) *Error { return &Error{Kind: kind, Err: err} }
