package formatting

import (
	"fmt"
	"math"

	"github.com/samirrijal/coords/internal/core/domain"
)

// Priorities of the projection-independent items; they sort after every
// projection-specific item.
const (
	PriorityAccuracy = 50
	PriorityAltitude = 51
	PriorityBearing  = 52
)

// CommonElements returns one datum for each optional field present on the
// point: accuracy, altitude and bearing.
func CommonElements(p domain.GeodeticPoint) []domain.LabelledDatum {
	var data []domain.LabelledDatum

	if acc, ok := p.Accuracy(); ok {
		data = append(data, domain.LabelledDatum{
			Label:    domain.LabelAccuracy,
			Value:    fmt.Sprintf("±%.1f m", acc),
			Priority: PriorityAccuracy,
		})
	}
	if alt, ok := p.Altitude(); ok {
		data = append(data, domain.LabelledDatum{
			Label:    domain.LabelAltitude,
			Value:    fmt.Sprintf("%.1f m", alt),
			Priority: PriorityAltitude,
		})
	}
	if bearing, ok := p.Bearing(); ok {
		data = append(data, domain.LabelledDatum{
			Label:    domain.LabelBearing,
			Value:    fmt.Sprintf("%d°", roundBearing(bearing)),
			Priority: PriorityBearing,
		})
	}

	return data
}

// roundBearing rounds to whole degrees in [0, 360).
func roundBearing(b float64) int {
	deg := int(math.Round(b)) % 360
	if deg < 0 {
		deg += 360
	}
	return deg
}
