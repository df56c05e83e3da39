package report

import (
	"fmt"
	"strings"

	"chinampa/models"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cardStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	labelStyle = lipgloss.NewStyle().Faint(true)
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

var metricLabels = map[string]string{
	"temperature":        "temperatura",
	"precipitation":      "precipitación",
	"humidity":           "humedad",
	"ndvi":               "NDVI",
	"evapotranspiration": "evapotranspiración",
}

func metricLabel(name string) string {
	if l, ok := metricLabels[name]; ok {
		return l
	}
	return name
}

// Metric is one summary card.
type Metric struct {
	Label string
	Value string
}

// Metrics lists the summary cards in display order.
func Metrics(m models.ReportModel) []Metric {
	return []Metric{
		{"Temperatura", formatValue(m.Temperature, "%.1f °C")},
		{"Precipitación", formatValue(m.Precipitation, "%.1f mm")},
		{"Humedad", formatValue(m.Humidity, "%.0f %%")},
		{"NDVI", formatValue(m.NDVI, "%.2f")},
		{"Evapotranspiración", formatValue(m.Evapotranspiration, "%.1f mm")},
	}
}

func formatValue(v *float64, format string) string {
	if v == nil {
		return "N/D"
	}
	return fmt.Sprintf(format, *v)
}

// Render draws the page for a terminal.
func Render(v View) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(v.Title))
	b.WriteString("\n")

	switch v.Status {
	case models.ReportStatusLoading:
		b.WriteString("Cargando reporte...\n")
		return b.String()
	case models.ReportStatusError:
		b.WriteString(errStyle.Render(v.Error))
		b.WriteString("\n")
		return b.String()
	}

	if v.Report != nil {
		cards := make([]string, 0, 5)
		for _, mt := range Metrics(*v.Report) {
			cards = append(cards, cardStyle.Render(labelStyle.Render(mt.Label)+"\n"+mt.Value))
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cards...))
		b.WriteString("\n")
	}
	if len(v.Missing) > 0 {
		labels := make([]string, len(v.Missing))
		for i, name := range v.Missing {
			labels[i] = metricLabel(name)
		}
		b.WriteString(warnStyle.Render("Reporte parcial, sin datos de: " + strings.Join(labels, ", ")))
		b.WriteString("\n")
	}

	b.WriteString(titleStyle.Render("Acciones recomendadas"))
	b.WriteString("\n")
	for i, a := range v.Actions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, a.Description)
	}
	return b.String()
}
