package formatting

import (
	"fmt"
	"math"
	"strconv"

	utm "github.com/im7mortal/UTM"

	"github.com/samirrijal/coords/internal/core/domain"
)

// UTMRef is a position in the Universal Transverse Mercator grid.
type UTMRef struct {
	Zone     int
	Band     string
	Easting  float64
	Northing float64
}

// ZoneLabel joins the zone number and latitude band, e.g. "30U".
func (r UTMRef) ZoneLabel() string {
	return strconv.Itoa(r.Zone) + r.Band
}

// ToUTM projects a WGS 84 coordinate. Latitudes outside the UTM bands
// (80°S to 84°N) return an error.
//
// The library replaces the band letter with a hemisphere letter when asked
// for a northern result, so the flag stays false; the southern false
// northing is applied from the latitude sign either way.
func ToUTM(lat, lon float64) (UTMRef, error) {
	easting, northing, zone, band, err := utm.FromLatLon(lat, lon, false)
	if err != nil {
		return UTMRef{}, fmt.Errorf("utm projection of %f,%f: %w", lat, lon, err)
	}
	return UTMRef{Zone: zone, Band: band, Easting: easting, Northing: northing}, nil
}

// UTM formats a point as zone, easting and northing, rounded to whole meters.
func UTM(p domain.GeodeticPoint) ([]domain.LabelledDatum, error) {
	ref, err := ToUTM(p.Latitude().InexactFloat64(), p.Longitude().InexactFloat64())
	if err != nil {
		return nil, err
	}

	return []domain.LabelledDatum{
		{Label: domain.LabelUTMZone, Value: ref.ZoneLabel(), Priority: 1},
		{Label: domain.LabelEasting, Value: roundMeters(ref.Easting), Priority: 2},
		{Label: domain.LabelNorthing, Value: roundMeters(ref.Northing), Priority: 2},
	}, nil
}

func roundMeters(v float64) string {
	return strconv.FormatInt(int64(math.Round(v)), 10)
}
