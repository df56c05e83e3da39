package models

// ReportStatus mirrors the report page states.
type ReportStatus string

const (
	ReportStatusLoading ReportStatus = "loading"
	ReportStatusSuccess ReportStatus = "success"
	ReportStatusError   ReportStatus = "error"
)

// ReportModel is the flat display model for one location.
// A nil metric means the upstream section did not carry it.
type ReportModel struct {
	Temperature        *float64 `json:"temperature"`        // °C, 5-day average
	Precipitation      *float64 `json:"precipitation"`      // mm, 5-day total
	Humidity           *float64 `json:"humidity"`           // soil moisture, percent
	NDVI               *float64 `json:"ndvi"`               // as delivered by the report endpoint
	Evapotranspiration *float64 `json:"evapotranspiration"` // mm
}

// Empty reports whether no metric is populated.
func (m ReportModel) Empty() bool {
	return m.Temperature == nil && m.Precipitation == nil && m.Humidity == nil &&
		m.NDVI == nil && m.Evapotranspiration == nil
}

// Missing lists, by JSON name and in display order, the metrics that are nil.
// A non-empty result marks a partial report.
func (m ReportModel) Missing() []string {
	var out []string
	for _, f := range []struct {
		name string
		v    *float64
	}{
		{"temperature", m.Temperature},
		{"precipitation", m.Precipitation},
		{"humidity", m.Humidity},
		{"ndvi", m.NDVI},
		{"evapotranspiration", m.Evapotranspiration},
	} {
		if f.v == nil {
			out = append(out, f.name)
		}
	}
	return out
}

// ActionItem is one recommended action shown under the summary.
type ActionItem struct {
	Description string `json:"description"`
}

// ---- /get_report wire payload ----

// RawReport is the body returned by POST /get_report.
type RawReport struct {
	WeatherData               *WeatherData      `json:"weather_data"`
	SoilMoistureData          *SoilMoistureData `json:"soil_moisture_data"`
	NDVIData                  *NDVIData         `json:"ndvi_data"`
	AverageEvapotranspiration *float64          `json:"average_evapotranspiration"`
}

// WeatherData holds current conditions plus the trailing five-day window.
type WeatherData struct {
	CurrentTemperature      *float64 `json:"current_temperature_centigrades"`
	CurrentPrecipitation    *float64 `json:"current_precipitation_mm"`
	AverageTemperature5Days *float64 `json:"average_temperature_last_5days_centigrades"`
	TotalPrecipitation5Days *float64 `json:"total_precipitation_last_5days_mm"`
	Error                   string   `json:"error,omitempty"`
}

// SoilMoistureData is fractional volumetric soil moisture (0..1).
type SoilMoistureData struct {
	MeanSoilMoisture *float64 `json:"mean_soil_moisture"`
	Error            string   `json:"error,omitempty"`
}

// NDVIData carries mean NDVI. Retries counts the windows skipped before a value was found.
type NDVIData struct {
	MeanNDVI *float64 `json:"mean_ndvi"`
	Retries  int      `json:"retries"`
	Error    string   `json:"error,omitempty"`
}

// LocationReq is the body of POST /get_report.
type LocationReq struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}
