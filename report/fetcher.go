package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"chinampa/models"
)

// Source is anything that can produce a ReportModel for a coordinate.
type Source interface {
	FetchReport(ctx context.Context, c models.Coordinate) (models.ReportModel, error)
}

// Fetcher calls POST {BaseURL}/get_report. Single attempt, no retry.
type Fetcher struct {
	BaseURL string
	Client  *http.Client
}

func NewFetcher(baseURL string) *Fetcher {
	return &Fetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: 60 * time.Second},
	}
}

// wireReport mirrors models.RawReport but tolerates a non-numeric
// average_evapotranspiration (older servers put an error object there).
type wireReport struct {
	WeatherData               *models.WeatherData      `json:"weather_data"`
	SoilMoistureData          *models.SoilMoistureData `json:"soil_moisture_data"`
	NDVIData                  *models.NDVIData         `json:"ndvi_data"`
	AverageEvapotranspiration json.RawMessage          `json:"average_evapotranspiration"`
}

// FetchReport returns a model or a *FetchError, never both. A model with
// some metrics nil is partial; ReportModel.Missing names what is absent.
func (f *Fetcher) FetchReport(ctx context.Context, c models.Coordinate) (models.ReportModel, error) {
	body, err := json.Marshal(models.LocationReq{Latitude: c.Latitude, Longitude: c.Longitude})
	if err != nil {
		return models.ReportModel{}, &FetchError{Kind: Decode, Err: fmt.Errorf("marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.BaseURL+"/get_report", bytes.NewReader(body))
	if err != nil {
		return models.ReportModel{}, &FetchError{Kind: Transport, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return models.ReportModel{}, &FetchError{Kind: Transport, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.ReportModel{}, &FetchError{Kind: Transport, Err: fmt.Errorf("read body: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return models.ReportModel{}, &FetchError{Kind: Status, Status: resp.StatusCode, Body: string(data)}
	}

	var raw wireReport
	if err := json.Unmarshal(data, &raw); err != nil {
		return models.ReportModel{}, &FetchError{Kind: Decode, Err: err}
	}
	m := ToModel(models.RawReport{
		WeatherData:               raw.WeatherData,
		SoilMoistureData:          raw.SoilMoistureData,
		NDVIData:                  raw.NDVIData,
		AverageEvapotranspiration: numberOrNil(raw.AverageEvapotranspiration),
	})
	if m.Empty() {
		return models.ReportModel{}, &FetchError{Kind: NoData, Err: ErrNoData}
	}
	return m, nil
}

// ToModel applies the display mapping:
//
//	weather_data.average_temperature_last_5days_centigrades -> Temperature
//	weather_data.total_precipitation_last_5days_mm          -> Precipitation
//	soil_moisture_data.mean_soil_moisture * 100             -> Humidity
//	ndvi_data.mean_ndvi                                     -> NDVI
//	average_evapotranspiration                              -> Evapotranspiration
func ToModel(r models.RawReport) models.ReportModel {
	var m models.ReportModel
	if w := r.WeatherData; w != nil {
		m.Temperature = w.AverageTemperature5Days
		m.Precipitation = w.TotalPrecipitation5Days
	}
	if s := r.SoilMoistureData; s != nil && s.MeanSoilMoisture != nil {
		h := *s.MeanSoilMoisture * 100
		m.Humidity = &h
	}
	if n := r.NDVIData; n != nil {
		m.NDVI = n.MeanNDVI
	}
	m.Evapotranspiration = r.AverageEvapotranspiration
	return m
}

func numberOrNil(raw json.RawMessage) *float64 {
	if len(raw) == 0 {
		return nil
	}
	var v *float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v
}
