package sources

import (
	"context"
	"time"

	"chinampa/models"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// WeatherSource produces the weather_data section.
type WeatherSource interface {
	Weather(ctx context.Context, c models.Coordinate, start, end time.Time) (*models.WeatherData, error)
}

// SatelliteSource reduces remote-sensing collections for a point.
type SatelliteSource interface {
	MeanSoilMoisture(ctx context.Context, c models.Coordinate, start, end time.Time, bufferDeg float64) (*float64, error)
	MeanNDVI(ctx context.Context, c models.Coordinate, start, end time.Time) (*float64, error)
}

// ETSource averages evapotranspiration over a window.
type ETSource interface {
	Average(start, end time.Time) (float64, error)
}

const (
	soilBufferDeg = 1.0
	ndviLookups   = 3
	ndviStepDays  = 5
)

// Aggregator builds the /get_report payload from every source concurrently.
// A failing source degrades to an error section; it never fails the report.
type Aggregator struct {
	Weather   WeatherSource
	Satellite SatelliteSource
	ET        ETSource
	Now       func() time.Time
	Logger    *zap.Logger
}

// Build gathers all sections for c. It only errors when ctx is done.
func (a *Aggregator) Build(ctx context.Context, c models.Coordinate) (models.RawReport, error) {
	logger := a.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := time.Now
	if a.Now != nil {
		now = a.Now
	}
	today := day(now())
	start := today.AddDate(0, 0, -5)
	end := today.AddDate(0, 0, -1)

	var out models.RawReport
	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		out.WeatherData = a.weather(egCtx, logger, c, start, end)
		return nil
	})
	eg.Go(func() error {
		out.SoilMoistureData = a.soilMoisture(egCtx, logger, c, today)
		return nil
	})
	eg.Go(func() error {
		out.NDVIData = a.closestNDVI(egCtx, logger, c, start, end)
		return nil
	})
	eg.Go(func() error {
		out.AverageEvapotranspiration = a.evapotranspiration(logger, start, end)
		return nil
	})

	_ = eg.Wait()
	if err := ctx.Err(); err != nil {
		return models.RawReport{}, err
	}
	return out, nil
}

func (a *Aggregator) weather(ctx context.Context, logger *zap.Logger, c models.Coordinate, start, end time.Time) *models.WeatherData {
	if a.Weather == nil {
		return &models.WeatherData{Error: "Error al obtener datos meteorológicos: fuente no configurada"}
	}
	w, err := a.Weather.Weather(ctx, c, start, end)
	if err != nil {
		logger.Warn("weather source failed", zap.Error(err))
		return &models.WeatherData{Error: "Error al obtener datos meteorológicos: " + err.Error()}
	}
	return w
}

// soilMoisture averages the window date-6d..date-2d; the most recent days
// are not yet published.
func (a *Aggregator) soilMoisture(ctx context.Context, logger *zap.Logger, c models.Coordinate, date time.Time) *models.SoilMoistureData {
	if a.Satellite == nil {
		return &models.SoilMoistureData{Error: "Error al obtener datos de humedad del suelo: fuente no configurada"}
	}
	v, err := a.Satellite.MeanSoilMoisture(ctx, c, date.AddDate(0, 0, -6), date.AddDate(0, 0, -2), soilBufferDeg)
	if err != nil {
		logger.Warn("soil moisture source failed", zap.Error(err))
		return &models.SoilMoistureData{Error: "Error al obtener datos de humedad del suelo: " + err.Error()}
	}
	return &models.SoilMoistureData{MeanSoilMoisture: v}
}

// closestNDVI looks one year back (the current season is not yet
// available), stepping the window 5 days earlier while no scene is found.
func (a *Aggregator) closestNDVI(ctx context.Context, logger *zap.Logger, c models.Coordinate, start, end time.Time) *models.NDVIData {
	if a.Satellite == nil {
		return &models.NDVIData{Error: "Error al obtener datos de NDVI: fuente no configurada"}
	}
	s, e := start.AddDate(-1, 0, 0), end.AddDate(-1, 0, 0)
	for i := 0; i < ndviLookups; i++ {
		v, err := a.Satellite.MeanNDVI(ctx, c, s, e)
		if err != nil {
			logger.Warn("ndvi source failed", zap.Error(err))
			return &models.NDVIData{Error: "Error al obtener datos de NDVI: " + err.Error()}
		}
		if v != nil {
			return &models.NDVIData{MeanNDVI: v, Retries: i}
		}
		logger.Debug("no ndvi in window, stepping back",
			zap.String("start", s.Format(dateLayout)), zap.String("end", e.Format(dateLayout)))
		s, e = s.AddDate(0, 0, -ndviStepDays), e.AddDate(0, 0, -ndviStepDays)
	}
	return &models.NDVIData{Retries: ndviLookups, Error: "No se encontró NDVI en los rangos especificados"}
}

func (a *Aggregator) evapotranspiration(logger *zap.Logger, start, end time.Time) *float64 {
	if a.ET == nil {
		return nil
	}
	v, err := a.ET.Average(start, end)
	if err != nil {
		logger.Warn("evapotranspiration lookup failed", zap.Error(err))
		return nil
	}
	return &v
}
