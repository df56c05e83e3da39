package main

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port              string
	APIURL            string // where the CLI pages reach the API
	OpenWeatherAPIKey string
	OpenWeatherURL    string
	ArchiveURL        string
	ProcessorURI      string
	ETForecastCSV     string
	GeminiAPIKey      string
	GeminiModel       string
	KnowledgeFile     string
	NominatimURL      string
	CORSOrigins       []string
	LogLevel          string
}

// mustConfig reads .env (when present) and the process environment.
func mustConfig() Config {
	_ = godotenv.Load()

	cfg := Config{
		Port:              getenv("PORT", "8080"),
		APIURL:            getenv("CHINAMPA_API_URL", "http://127.0.0.1:8080"),
		OpenWeatherAPIKey: getenv("OPENWEATHER_API_KEY", ""),
		OpenWeatherURL:    getenv("OPENWEATHER_URL", ""),
		ArchiveURL:        getenv("OPENMETEO_ARCHIVE_URL", ""),
		ProcessorURI:      getenv("PROCESSOR_URL", "http://127.0.0.1:8000"),
		ETForecastCSV:     getenv("ET_FORECAST_CSV", "data/evapotranspiration_forecast.csv"),
		GeminiAPIKey:      getenv("GEMINI_API_KEY", ""),
		GeminiModel:       getenv("GEMINI_MODEL", ""),
		KnowledgeFile:     getenv("ASSISTANT_KNOWLEDGE", ""),
		NominatimURL:      getenv("NOMINATIM_URL", ""),
		CORSOrigins:       splitList(getenv("CORS_ORIGINS", "*")),
		LogLevel:          getenv("LOG_LEVEL", "info"),
	}

	return cfg
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
