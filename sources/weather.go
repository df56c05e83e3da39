package sources

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"chinampa/models"
)

const (
	defaultArchiveURL     = "https://archive-api.open-meteo.com/v1/archive"
	defaultOpenWeatherURL = "https://api.openweathermap.org/data/2.5/weather"
)

// OpenMeteoArchive reads daily history from the Open-Meteo archive API.
type OpenMeteoArchive struct {
	BaseURL string
	Client  *http.Client
}

// DailyHistory holds the daily series for a date window; entries may be null.
type DailyHistory struct {
	Time             []string   `json:"time"`
	TemperatureMax   []*float64 `json:"temperature_2m_max"`
	TemperatureMin   []*float64 `json:"temperature_2m_min"`
	PrecipitationSum []*float64 `json:"precipitation_sum"`
}

type archiveResp struct {
	Daily  *DailyHistory `json:"daily"`
	Reason string        `json:"reason"`
}

func (a *OpenMeteoArchive) Daily(ctx context.Context, c models.Coordinate, start, end time.Time) (*DailyHistory, error) {
	base := a.BaseURL
	if base == "" {
		base = defaultArchiveURL
	}
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(c.Latitude, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(c.Longitude, 'f', -1, 64))
	q.Set("start_date", start.Format(dateLayout))
	q.Set("end_date", end.Format(dateLayout))
	q.Set("daily", "temperature_2m_max,temperature_2m_min,precipitation_sum")
	q.Set("timezone", "UTC")

	var out archiveResp
	if err := doJSON(ctx, a.Client, http.MethodGet, base+"?"+q.Encode(), nil, &out); err != nil {
		return nil, fmt.Errorf("open-meteo archive: %w", err)
	}
	if out.Daily == nil {
		return nil, fmt.Errorf("open-meteo archive: no daily data %s", out.Reason)
	}
	return out.Daily, nil
}

// OpenWeatherCurrent reads current conditions from OpenWeatherMap.
type OpenWeatherCurrent struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// Current is the subset of the OpenWeatherMap payload the report uses.
type Current struct {
	Main struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
	Rain struct {
		OneHour float64 `json:"1h"`
	} `json:"rain"`
}

func (o *OpenWeatherCurrent) Current(ctx context.Context, c models.Coordinate) (*Current, error) {
	if o.APIKey == "" {
		return nil, errors.New("openweather: API key not configured")
	}
	base := o.BaseURL
	if base == "" {
		base = defaultOpenWeatherURL
	}
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(c.Latitude, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(c.Longitude, 'f', -1, 64))
	q.Set("units", "metric")
	q.Set("appid", o.APIKey)

	var out Current
	if err := doJSON(ctx, o.Client, http.MethodGet, base+"?"+q.Encode(), nil, &out); err != nil {
		return nil, errors.New("openweather: " + strings.ReplaceAll(err.Error(), o.APIKey, "***"))
	}
	return &out, nil
}

// Weather combines the archive window with current conditions.
type Weather struct {
	Archive *OpenMeteoArchive
	Current *OpenWeatherCurrent
}

// Weather builds the weather_data section for [start, end].
func (w *Weather) Weather(ctx context.Context, c models.Coordinate, start, end time.Time) (*models.WeatherData, error) {
	hist, err := w.Archive.Daily(ctx, c, start, end)
	if err != nil {
		return nil, err
	}
	cur, err := w.Current.Current(ctx, c)
	if err != nil {
		return nil, err
	}

	out := &models.WeatherData{
		CurrentTemperature:   round2(cur.Main.Temp),
		CurrentPrecipitation: round2(cur.Rain.OneHour),
	}
	if avg, ok := meanDailyTemperature(hist); ok {
		out.AverageTemperature5Days = round2(avg)
	}
	if total, ok := totalPrecipitation(hist); ok {
		out.TotalPrecipitation5Days = round2(total)
	}
	return out, nil
}

// meanDailyTemperature averages (max+min)/2 over the days where both are present.
func meanDailyTemperature(h *DailyHistory) (float64, bool) {
	sum, n := 0.0, 0
	for i := 0; i < len(h.TemperatureMax) && i < len(h.TemperatureMin); i++ {
		hi, lo := h.TemperatureMax[i], h.TemperatureMin[i]
		if hi == nil || lo == nil {
			continue
		}
		sum += (*hi + *lo) / 2
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

func totalPrecipitation(h *DailyHistory) (float64, bool) {
	sum, n := 0.0, 0
	for _, p := range h.PrecipitationSum {
		if p == nil {
			continue
		}
		sum += *p
		n++
	}
	return sum, n > 0
}

func round2(v float64) *float64 {
	r := math.Round(v*100) / 100
	return &r
}
