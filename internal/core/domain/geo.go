package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// sameLocationChars is how many characters of each axis' decimal string must
// agree for two fixes to count as the same observed location.
const sameLocationChars = 8

var (
	minLatitude  = decimal.NewFromInt(-90)
	maxLatitude  = decimal.NewFromInt(90)
	minLongitude = decimal.NewFromInt(-180)
	maxLongitude = decimal.NewFromInt(180)
)

// RawFix is one location sample as reported by the positioning subsystem.
// Optional fields are nil when the platform did not report them.
type RawFix struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  *float64  `json:"accuracy,omitempty"`
	Altitude  *float64  `json:"altitude,omitempty"`
	Bearing   *float64  `json:"bearing,omitempty"`
	Time      time.Time `json:"time,omitempty"`
}

// GeodeticPoint is an immutable WGS 84 location sample at full decimal precision.
type GeodeticPoint struct {
	lat      decimal.Decimal
	lon      decimal.Decimal
	accuracy *float64
	altitude *float64
	bearing  *float64
}

// NewGeodeticPoint builds a point from a raw fix. Coordinates outside
// [-90, 90] / [-180, 180] are rejected with ErrCoordinateOutOfRange.
func NewGeodeticPoint(fix RawFix) (GeodeticPoint, error) {
	lat := decimal.NewFromFloat(fix.Latitude)
	lon := decimal.NewFromFloat(fix.Longitude)

	if lat.LessThan(minLatitude) || lat.GreaterThan(maxLatitude) {
		return GeodeticPoint{}, fmt.Errorf("%w: latitude %s", ErrCoordinateOutOfRange, lat)
	}
	if lon.LessThan(minLongitude) || lon.GreaterThan(maxLongitude) {
		return GeodeticPoint{}, fmt.Errorf("%w: longitude %s", ErrCoordinateOutOfRange, lon)
	}

	return GeodeticPoint{
		lat:      lat,
		lon:      lon,
		accuracy: copyOptional(fix.Accuracy),
		altitude: copyOptional(fix.Altitude),
		bearing:  copyOptional(fix.Bearing),
	}, nil
}

func copyOptional(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func optional(v *float64) (float64, bool) {
	if v == nil {
		return 0, false
	}
	return *v, true
}

func (p GeodeticPoint) Latitude() decimal.Decimal  { return p.lat }
func (p GeodeticPoint) Longitude() decimal.Decimal { return p.lon }

// Accuracy returns the horizontal accuracy radius in meters, if reported.
func (p GeodeticPoint) Accuracy() (float64, bool) { return optional(p.accuracy) }

// Altitude returns the altitude in meters, if reported.
func (p GeodeticPoint) Altitude() (float64, bool) { return optional(p.altitude) }

// Bearing returns the bearing in degrees, if reported.
func (p GeodeticPoint) Bearing() (float64, bool) { return optional(p.bearing) }

// Key identifies the coordinate pair at full precision ("lat|lon").
func (p GeodeticPoint) Key() string {
	return p.lat.String() + "|" + p.lon.String()
}

// SameLocation reports whether both axes agree to the first eight
// characters of their decimal string representation.
func (p GeodeticPoint) SameLocation(other GeodeticPoint) bool {
	return prefix(p.lat.String()) == prefix(other.lat.String()) &&
		prefix(p.lon.String()) == prefix(other.lon.String())
}

func prefix(s string) string {
	if len(s) > sameLocationChars {
		return s[:sameLocationChars]
	}
	return s
}

// MarshalJSON renders coordinates as decimal strings so no precision is lost.
func (p GeodeticPoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Latitude  string   `json:"latitude"`
		Longitude string   `json:"longitude"`
		Accuracy  *float64 `json:"accuracy,omitempty"`
		Altitude  *float64 `json:"altitude,omitempty"`
		Bearing   *float64 `json:"bearing,omitempty"`
	}{p.lat.String(), p.lon.String(), p.accuracy, p.altitude, p.bearing})
}
