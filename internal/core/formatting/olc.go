package formatting

import (
	olc "github.com/google/open-location-code/go"

	"github.com/samirrijal/coords/internal/core/domain"
)

const (
	// preciseAccuracyMeters is the accuracy at or below which a fix earns
	// the longer code.
	preciseAccuracyMeters = 5.0

	preciseCodeLength = 11
	defaultCodeLength = 10
)

// CodeLength picks the Plus Code digit count for a point.
func CodeLength(p domain.GeodeticPoint) int {
	if acc, ok := p.Accuracy(); ok && acc <= preciseAccuracyMeters {
		return preciseCodeLength
	}
	return defaultCodeLength
}

// OpenLocationCode encodes a point as a Plus Code.
func OpenLocationCode(p domain.GeodeticPoint) []domain.LabelledDatum {
	code := olc.Encode(p.Latitude().InexactFloat64(), p.Longitude().InexactFloat64(), CodeLength(p))
	return []domain.LabelledDatum{
		{Label: domain.LabelOLCCode, Value: code, Priority: 1},
	}
}
