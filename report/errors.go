package report

import (
	"errors"
	"fmt"
)

// Kind classifies a failed report fetch.
type Kind string

const (
	Transport Kind = "transport"
	Status    Kind = "status_code"
	Decode    Kind = "decode"
	NoData    Kind = "no_data"
)

// ErrNoData is returned when a 2xx response carries none of the metrics.
var ErrNoData = errors.New("report carries no metrics")

// FetchError is the only error FetchReport returns.
type FetchError struct {
	Kind   Kind
	Status int    // for Kind == Status
	Body   string // for Kind == Status
	Err    error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case Status:
		return fmt.Sprintf("report fetch: status %d: %s", e.Status, e.Body)
	default:
		return fmt.Sprintf("report fetch: %s: %v", e.Kind, e.Err)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

// Message is the inline text shown in place of the summary.
func (e *FetchError) Message() string {
	switch e.Kind {
	case Transport:
		return "No se pudo conectar con el servidor de reportes."
	case NoData:
		return "No hay datos disponibles para esta ubicación."
	default:
		return "No se pudo obtener el reporte."
	}
}
