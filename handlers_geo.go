package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"chinampa/geo"

	"go.uber.org/zap"
)

// handleReverseGeocode turns ?lat&lon into a place and its report route.
func (a *App) handleReverseGeocode(w http.ResponseWriter, r *http.Request) {
	c, ok := queryCoordinate(r)
	if !ok {
		writeDetail(w, http.StatusBadRequest, "lat and lon query parameters are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()
	place, err := a.geocoder.Reverse(ctx, c)
	if err != nil {
		a.reqLogger(r).Warn("reverse geocode failed", zap.Stringer("coord", c), zap.Error(err))
		msg := err.Error()
		var ge *geo.Error
		if errors.As(err, &ge) {
			msg = ge.Message()
		}
		writeDetail(w, http.StatusBadGateway, msg)
		return
	}
	writeJSON(w, http.StatusOK, geocodeResp{Place: place, Route: geo.ReportRoute(place)})
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResp{Status: "ok"})
}
