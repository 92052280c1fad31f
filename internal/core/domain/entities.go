package domain

import (
	"fmt"
	"sort"
	"time"
)

// Label keys for labelled data.
const (
	LabelLatitude   = "latitude"
	LabelLongitude  = "longitude"
	LabelUTMZone    = "utm_zone"
	LabelEasting    = "easting"
	LabelNorthing   = "northing"
	LabelOLCCode    = "olc_code"
	LabelW3WAddress = "w3w_address"
	LabelAccuracy   = "accuracy"
	LabelAltitude   = "altitude"
	LabelBearing    = "bearing"
)

// Alignment controls how a datum's value is laid out.
type Alignment int

const (
	AlignCenter Alignment = iota
	AlignLeft
)

func (a Alignment) String() string {
	if a == AlignLeft {
		return "left"
	}
	return "center"
}

func (a Alignment) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

func (a *Alignment) UnmarshalText(text []byte) error {
	switch string(text) {
	case "left":
		*a = AlignLeft
	case "center", "":
		*a = AlignCenter
	default:
		return fmt.Errorf("unknown alignment %q", text)
	}
	return nil
}

// LabelledDatum is one line of a readout. Lower Priority renders first and
// more prominently. When ValueIsKey is set, Value is a string-table key
// rather than display text. Error is set when this item alone failed to format.
type LabelledDatum struct {
	Label      string    `json:"label"`
	Value      string    `json:"value"`
	ValueIsKey bool      `json:"value_is_key,omitempty"`
	Priority   int       `json:"priority"`
	Alignment  Alignment `json:"alignment"`
	Error      string    `json:"error,omitempty"`
}

// SortByPriority orders data by ascending priority, keeping the relative
// order of equal priorities.
func SortByPriority(data []LabelledDatum) {
	sort.SliceStable(data, func(i, j int) bool {
		return data[i].Priority < data[j].Priority
	})
}

// Readout is the rendered form of one point in one projection.
type Readout struct {
	Projection Projection      `json:"projection"`
	Point      GeodeticPoint   `json:"point"`
	Data       []LabelledDatum `json:"data"`
	UpdatedAt  time.Time       `json:"updated_at"`
}
