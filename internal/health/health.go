// Package health maps complexity scores to health categories and colors.
package health

import "github.com/phobologic/archmap/internal/model"

// Display colors.
const (
	ColorHealthy  = "#00FFA3"
	ColorWarning  = "#FFD700"
	ColorCritical = "#FF4B4B"
	ColorUnknown  = "#9CA3AF"
	ColorClass    = "#1C83E1"
)

// Upper bounds (inclusive) of the healthy and warning bands.
const (
	HealthyMax = 5
	WarningMax = 10
)

// Classify maps an optional score to its category and color. A nil score,
// or one below 1, is Unknown.
func Classify(score *int) (model.Health, string) {
	if score == nil || *score < 1 {
		return model.Unknown, ColorUnknown
	}
	switch s := *score; {
	case s <= HealthyMax:
		return model.Healthy, ColorHealthy
	case s <= WarningMax:
		return model.Warning, ColorWarning
	default:
		return model.Critical, ColorCritical
	}
}

// Color returns the display color for a category.
func Color(h model.Health) string {
	switch h {
	case model.Healthy:
		return ColorHealthy
	case model.Warning:
		return ColorWarning
	case model.Critical:
		return ColorCritical
	default:
		return ColorUnknown
	}
}
