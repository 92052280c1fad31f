package formatting

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/samirrijal/coords/internal/core/domain"
	"github.com/samirrijal/coords/internal/pkg/geospatial"
)

// SecondsPlaces is the fixed fractional precision of DMS seconds.
const SecondsPlaces = 3

var sixty = decimal.NewFromInt(60)

// DMS is an unsigned sexagesimal angle.
type DMS struct {
	Degrees int64
	Minutes int64
	Seconds decimal.Decimal
}

// ToDMS splits |d| into degrees, minutes and seconds using exact decimal
// arithmetic.
func ToDMS(d decimal.Decimal) DMS {
	abs := d.Abs()
	whole := abs.Floor()
	minutePart := abs.Sub(whole).Mul(sixty)
	minutes := minutePart.Floor()
	seconds := minutePart.Sub(minutes).Mul(sixty)

	return DMS{
		Degrees: whole.IntPart(),
		Minutes: minutes.IntPart(),
		Seconds: seconds,
	}
}

// String renders the angle as `50° 30′ 0.000″`. Seconds are truncated, so
// the display never reaches 60.000.
func (a DMS) String() string {
	return fmt.Sprintf("%d° %d′ %s″", a.Degrees, a.Minutes, geospatial.TruncateFixed(a.Seconds, SecondsPlaces))
}

// Sexagesimal formats a point in degrees, minutes and seconds.
func Sexagesimal(p domain.GeodeticPoint) []domain.LabelledDatum {
	return []domain.LabelledDatum{
		{
			Label:    domain.LabelLatitude,
			Value:    ToDMS(p.Latitude()).String() + " " + latitudeDesignator(p.Latitude()),
			Priority: 1,
		},
		{
			Label:    domain.LabelLongitude,
			Value:    ToDMS(p.Longitude()).String() + " " + longitudeDesignator(p.Longitude()),
			Priority: 2,
		},
	}
}
