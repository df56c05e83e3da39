package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"chinampa/models"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrNoModel is returned when no language model is configured.
var ErrNoModel = errors.New("assistant: no language model configured")

// NoResponse replaces an answer the model failed to produce.
const NoResponse = "No response due to error."

// Advisor answers farmer questions grounded on the knowledge base and,
// when given, the report for the farmer's location.
type Advisor struct {
	model  Model
	kb     *Knowledge
	logger *zap.Logger
}

func NewAdvisor(m Model, kb *Knowledge, logger *zap.Logger) *Advisor {
	if kb == nil {
		kb = DefaultKnowledge()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Advisor{model: m, kb: kb, logger: logger}
}

// Ask answers one chat message.
func (a *Advisor) Ask(ctx context.Context, message string, report *models.RawReport) (string, error) {
	if a.model == nil {
		return "", ErrNoModel
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return "", errors.New("assistant: empty message")
	}
	var rc string
	if report != nil {
		rc = ReportContext(*report)
	}
	return a.model.Generate(ctx, a.kb.System(rc), message)
}

// Recommend answers every configured question for a report, in order.
// A question the model fails on yields NoResponse.
func (a *Advisor) Recommend(ctx context.Context, report models.RawReport) ([]string, error) {
	if a.model == nil {
		return nil, ErrNoModel
	}
	system := a.kb.System(ReportContext(report))
	out := make([]string, len(a.kb.Questions))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(2)
	for i, q := range a.kb.Questions {
		eg.Go(func() error {
			ans, err := a.model.Generate(egCtx, system, q)
			if err != nil {
				a.logger.Warn("recommendation failed", zap.Int("question", i), zap.Error(err))
				ans = NoResponse
			}
			out[i] = ans
			return nil
		})
	}
	_ = eg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ReportContext renders a report as plain text for the model.
func ReportContext(r models.RawReport) string {
	var b strings.Builder
	if w := r.WeatherData; w != nil && w.Error == "" {
		fmt.Fprintf(&b, "The current temperature is %s°C.\n", num(w.CurrentTemperature, "%.2f"))
		fmt.Fprintf(&b, "The current precipitation is %s mm.\n", num(w.CurrentPrecipitation, "%.2f"))
		fmt.Fprintf(&b, "The average temperature over the last 5 days is %s°C.\n", num(w.AverageTemperature5Days, "%.2f"))
		fmt.Fprintf(&b, "The total precipitation over the last 5 days is %s mm.\n", num(w.TotalPrecipitation5Days, "%.2f"))
	} else {
		b.WriteString("Weather data is not available.\n")
	}

	if s := r.SoilMoistureData; s != nil && s.MeanSoilMoisture != nil {
		pct := *s.MeanSoilMoisture * 100
		rng := "within"
		if pct < 30 {
			rng = "slightly below"
		}
		fmt.Fprintf(&b, "\nSoil moisture conditions: the mean soil moisture is %.2f%%, which is %s the optimal range.\n", pct, rng)
	} else {
		b.WriteString("\nSoil moisture data is not available.\n")
	}

	if r.AverageEvapotranspiration != nil {
		fmt.Fprintf(&b, "\nThe average evapotranspiration is %.2f.\n", *r.AverageEvapotranspiration)
	}

	if n := r.NDVIData; n != nil && n.MeanNDVI != nil {
		// MODIS NDVI is delivered scaled by 10000.
		v := *n.MeanNDVI * 0.0001
		health := "stress in the vegetation"
		if v > 0 {
			health = "healthy vegetation"
		}
		fmt.Fprintf(&b, "\nNDVI data shows a mean value of %.4f, indicating %s.\n", v, health)
	}
	return strings.TrimRight(b.String(), "\n")
}

func num(v *float64, format string) string {
	if v == nil {
		return "unknown"
	}
	return fmt.Sprintf(format, *v)
}
