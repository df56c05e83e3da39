package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"chinampa/models"
	"chinampa/report"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const reportTimeout = 60 * time.Second

// handleGetReport aggregates every data source for one coordinate.
// Failing sources show up as error sections, never as a failed request.
func (a *App) handleGetReport(w http.ResponseWriter, r *http.Request) {
	var req models.LocationReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "bad json")
		return
	}
	c := models.Coordinate{Latitude: req.Latitude, Longitude: req.Longitude}
	if !c.Valid() {
		writeDetail(w, http.StatusUnprocessableEntity, "latitude/longitude out of range")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), reportTimeout)
	defer cancel()
	raw, err := a.reports.Build(ctx, c)
	if err != nil {
		a.reqLogger(r).Error("report build failed", zap.Stringer("coord", c), zap.Error(err))
		if errors.Is(err, context.DeadlineExceeded) {
			writeDetail(w, http.StatusGatewayTimeout, "report timed out")
			return
		}
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, raw)
}

// handleReportPage returns the report page view for a place. The coordinate
// travels in the query so the page does not geocode again.
func (a *App) handleReportPage(w http.ResponseWriter, r *http.Request) {
	place := models.Place{
		City:    pathParam(r, "city"),
		State:   pathParam(r, "state"),
		Country: pathParam(r, "country"),
	}
	c, ok := queryCoordinate(r)
	if !ok {
		writeDetail(w, http.StatusBadRequest, "lat and lon query parameters are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), reportTimeout)
	defer cancel()
	page := report.NewPage(localSource{reports: a.reports}, place, c, a.reqLogger(r))
	writeJSON(w, http.StatusOK, page.Load(ctx))
}

func pathParam(r *http.Request, name string) string {
	v := chi.URLParam(r, name)
	if u, err := url.PathUnescape(v); err == nil {
		return u
	}
	return v
}

func queryCoordinate(r *http.Request) (models.Coordinate, bool) {
	lat, err1 := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lon, err2 := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if err1 != nil || err2 != nil {
		return models.Coordinate{}, false
	}
	c := models.Coordinate{Latitude: lat, Longitude: lon}
	return c, c.Valid()
}
