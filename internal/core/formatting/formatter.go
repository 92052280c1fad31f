// Package formatting converts geodetic points into labelled readouts for each
// supported projection.
package formatting

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samirrijal/coords/internal/core/domain"
	"github.com/samirrijal/coords/internal/pkg/metrics"
)

// Formatter dispatches a point to the formatter of a projection and appends
// the common elements.
type Formatter struct {
	words *ThreeWordCache
}

// New creates a Formatter. words may be nil when no three-word resolver is
// configured; the three-word projection then renders its error placeholder.
func New(words *ThreeWordCache) *Formatter {
	return &Formatter{words: words}
}

// Format returns the readout items for p in proj, sorted by priority.
// A projection-specific failure (e.g. UTM near the poles) is reported as a
// single datum with Error set; the common elements still render. Consent
// for network projections is the caller's responsibility.
func (f *Formatter) Format(ctx context.Context, p domain.GeodeticPoint, proj domain.Projection) ([]domain.LabelledDatum, error) {
	var (
		data []domain.LabelledDatum
		err  error
	)

	switch proj {
	case domain.ProjectionWGS84Decimal:
		data = DecimalDegrees(p)
	case domain.ProjectionWGS84DMS:
		data = Sexagesimal(p)
	case domain.ProjectionUTM:
		data, err = UTM(p)
		if err != nil {
			data = []domain.LabelledDatum{formatFailure(ctx, proj, domain.LabelUTMZone, err)}
		}
	case domain.ProjectionOpenLocationCode:
		data = OpenLocationCode(p)
	case domain.ProjectionWhat3Words:
		if f.words == nil {
			data = []domain.LabelledDatum{threeWordPlaceholder()}
			break
		}
		data, err = f.words.Format(ctx, p)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %d", domain.ErrUnknownProjection, int(proj))
	}

	data = append(data, CommonElements(p)...)
	domain.SortByPriority(data)
	return data, nil
}

func formatFailure(ctx context.Context, proj domain.Projection, label string, err error) domain.LabelledDatum {
	metrics.FormatFailures.WithLabelValues(proj.String()).Inc()
	slog.WarnContext(ctx, "format failed", "projection", proj.String(), "error", err)
	return domain.LabelledDatum{
		Label:    label,
		Priority: 1,
		Error:    err.Error(),
	}
}
