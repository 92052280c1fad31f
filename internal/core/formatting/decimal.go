package formatting

import (
	"github.com/shopspring/decimal"

	"github.com/samirrijal/coords/internal/core/domain"
	"github.com/samirrijal/coords/internal/pkg/geospatial"
)

// DecimalPlaces is the fixed fractional precision of decimal-degree output.
const DecimalPlaces = 6

// Hemisphere designators.
const (
	North = "N"
	South = "S"
	East  = "E"
	West  = "W"
)

func latitudeDesignator(d decimal.Decimal) string {
	if d.IsNegative() {
		return South
	}
	return North
}

func longitudeDesignator(d decimal.Decimal) string {
	if d.IsNegative() {
		return West
	}
	return East
}

// DecimalAxis renders |d| truncated to six fractional digits.
func DecimalAxis(d decimal.Decimal) string {
	return geospatial.TruncateFixed(d.Abs(), DecimalPlaces)
}

// DecimalDegrees formats a point as WGS 84 decimal degrees with hemisphere
// designators, e.g. "52.520008 N" and "13.404954 E".
func DecimalDegrees(p domain.GeodeticPoint) []domain.LabelledDatum {
	return []domain.LabelledDatum{
		{
			Label:    domain.LabelLatitude,
			Value:    DecimalAxis(p.Latitude()) + " " + latitudeDesignator(p.Latitude()),
			Priority: 1,
		},
		{
			Label:    domain.LabelLongitude,
			Value:    DecimalAxis(p.Longitude()) + " " + longitudeDesignator(p.Longitude()),
			Priority: 2,
		},
	}
}
