package report

import "chinampa/models"

// The recommended actions are fixed text; they are not derived from the
// fetched metrics.
var defaultActions = []models.ActionItem{
	{Description: "Regar los cultivos en las próximas 24 horas debido a la baja humedad del suelo."},
	{Description: "Aplicar fertilizante nitrogenado para aprovechar condiciones de humedad actuales."},
	{Description: "Monitorear la aparición de plagas debido a las altas temperaturas."},
	{Description: "Considerar la instalación de sistema de riego por goteo para optimizar el uso del agua."},
}

// DefaultActions returns a fresh copy of the action list.
func DefaultActions() []models.ActionItem {
	out := make([]models.ActionItem, len(defaultActions))
	copy(out, defaultActions)
	return out
}
