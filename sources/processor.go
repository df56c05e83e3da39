package sources

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"chinampa/models"
)

// Processor is the remote-sensing service that reduces satellite collections
// (SMAP soil moisture, MODIS NDVI) over a region and date window.
type Processor struct {
	BaseURL string
	Client  *http.Client
}

type soilMoistureReq struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	StartDate string  `json:"start_date"`
	EndDate   string  `json:"end_date"`
	BufferDeg float64 `json:"buffer_deg"`
}

type soilMoistureResp struct {
	MeanSoilMoisture *float64 `json:"mean_soil_moisture"`
}

type ndviReq struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	StartDate string  `json:"start_date"`
	EndDate   string  `json:"end_date"`
}

type ndviResp struct {
	MeanNDVI *float64 `json:"mean_ndvi"`
}

func (p *Processor) url(path string) (string, error) {
	base := strings.TrimRight(p.BaseURL, "/")
	if base == "" {
		return "", errors.New("processor URL not configured")
	}
	return base + path, nil
}

// MeanSoilMoisture averages surface soil moisture over a square of
// ±bufferDeg degrees around c. A nil value means the window had no pixels.
func (p *Processor) MeanSoilMoisture(ctx context.Context, c models.Coordinate, start, end time.Time, bufferDeg float64) (*float64, error) {
	u, err := p.url("/soil_moisture")
	if err != nil {
		return nil, err
	}
	var out soilMoistureResp
	err = doJSON(ctx, p.Client, http.MethodPost, u, soilMoistureReq{
		Latitude:  c.Latitude,
		Longitude: c.Longitude,
		StartDate: start.Format(dateLayout),
		EndDate:   end.Format(dateLayout),
		BufferDeg: bufferDeg,
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("processor soil moisture: %w", err)
	}
	return out.MeanSoilMoisture, nil
}

// MeanNDVI averages NDVI at c over the window. A nil value means no scene.
func (p *Processor) MeanNDVI(ctx context.Context, c models.Coordinate, start, end time.Time) (*float64, error) {
	u, err := p.url("/ndvi")
	if err != nil {
		return nil, err
	}
	var out ndviResp
	err = doJSON(ctx, p.Client, http.MethodPost, u, ndviReq{
		Latitude:  c.Latitude,
		Longitude: c.Longitude,
		StartDate: start.Format(dateLayout),
		EndDate:   end.Format(dateLayout),
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("processor ndvi: %w", err)
	}
	return out.MeanNDVI, nil
}
