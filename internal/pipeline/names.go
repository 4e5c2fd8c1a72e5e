package pipeline

import "github.com/BeeKIS/honeybee-migrations/internal/config"

// Fixed sheet names of the input and intermediate workbooks.
const (
	SheetSurvey      = "transportation"
	SheetHoneyPrices = "honey_prices"
	SheetDiesel      = "diesel"
	SheetToll        = "toll"
	SheetCalibration = "fuel_calibration"
)

func gap(km float64) string { return config.ThresholdLabel(km) }

// ChainSheet names the reconstructed chains for a distance threshold.
func ChainSheet(km float64) string { return "CBZ back migrations appended_" + gap(km) }

// ChainFailureSheet names the integrity failures for a distance threshold.
func ChainFailureSheet(km float64) string { return "Chain failures_" + gap(km) }

// DistanceSheet names the routed chains for a distance threshold.
func DistanceSheet(km float64) string { return "migrations distances_" + gap(km) + " cutoff" }

// FailedRouteSheet names the movements no route was found for.
func FailedRouteSheet(km float64) string { return "Failed_" + gap(km) }

// CostSheet names the costed migrations for a distance threshold.
func CostSheet(km float64) string { return "fuel prices included " + gap(km) + "km" }
