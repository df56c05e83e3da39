package report

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"chinampa/models"

	"go.uber.org/zap"
)

// View is what the report page renders at any instant.
type View struct {
	Title   string              `json:"title"`
	Status  models.ReportStatus `json:"state"`
	Report  *models.ReportModel `json:"report,omitempty"`
	Error   string              `json:"error,omitempty"`
	Missing []string            `json:"missing,omitempty"` // metrics absent from a successful report
	Actions []models.ActionItem `json:"actions"`
}

// Page drives loading -> success | error for one place. There is no retry edge:
// once settled, further Load calls return the settled view.
type Page struct {
	src    Source
	place  models.Place
	coord  models.Coordinate
	logger *zap.Logger

	mu      sync.Mutex
	started bool
	status  models.ReportStatus
	model   models.ReportModel
	errMsg  string
}

func NewPage(src Source, place models.Place, c models.Coordinate, logger *zap.Logger) *Page {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Page{src: src, place: place, coord: c, logger: logger, status: models.ReportStatusLoading}
}

// Load performs the single fetch and returns the resulting view.
func (p *Page) Load(ctx context.Context) View {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return p.View()
	}
	p.started = true
	p.mu.Unlock()

	m, err := p.src.FetchReport(ctx, p.coord)

	p.mu.Lock()
	if err != nil {
		p.status = models.ReportStatusError
		p.errMsg = userMessage(err)
		p.logger.Error("report fetch failed",
			zap.Float64("lat", p.coord.Latitude),
			zap.Float64("lon", p.coord.Longitude),
			zap.Error(err))
	} else {
		p.status = models.ReportStatusSuccess
		p.model = m
		if missing := m.Missing(); len(missing) > 0 {
			p.logger.Warn("partial report",
				zap.Float64("lat", p.coord.Latitude),
				zap.Float64("lon", p.coord.Longitude),
				zap.Strings("missing", missing))
		} else {
			p.logger.Debug("report loaded", zap.Float64("lat", p.coord.Latitude), zap.Float64("lon", p.coord.Longitude))
		}
	}
	p.mu.Unlock()
	return p.View()
}

// View snapshots the current state.
func (p *Page) View() View {
	p.mu.Lock()
	defer p.mu.Unlock()
	v := View{
		Title:   Title(p.place),
		Status:  p.status,
		Actions: DefaultActions(),
	}
	switch p.status {
	case models.ReportStatusSuccess:
		m := p.model
		v.Report = &m
		v.Missing = m.Missing()
	case models.ReportStatusError:
		v.Error = p.errMsg
	}
	return v
}

// Title is the page header.
func Title(p models.Place) string {
	return fmt.Sprintf("Reporte para %s, %s", p.State, p.Country)
}

func userMessage(err error) string {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Message()
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "La solicitud del reporte fue cancelada."
	}
	return "No se pudo obtener el reporte."
}
