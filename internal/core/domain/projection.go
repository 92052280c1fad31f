package domain

import (
	"fmt"
	"strings"
)

// Projection is a supported coordinate representation.
type Projection int

const (
	ProjectionWGS84Decimal Projection = iota
	ProjectionWGS84DMS
	ProjectionUTM
	ProjectionOpenLocationCode
	ProjectionWhat3Words
)

// ProjectionInfo is the static metadata of a projection. All text fields are
// keys into the presentation layer's string table.
type ProjectionInfo struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	ShortNameKey     string `json:"short_name_key"`
	LongNameKey      string `json:"long_name_key"`
	ExplanationKey   string `json:"explanation_key,omitempty"`
	PrivacyPolicyKey string `json:"privacy_policy_key,omitempty"`
	RequiresNetwork  bool   `json:"requires_network"`
}

var projections = [...]ProjectionInfo{
	ProjectionWGS84Decimal: {
		ID:           "wgs84_decimal",
		Name:         "WGS84Decimal",
		ShortNameKey: "wgs84_dec_short",
		LongNameKey:  "wgs84_dec_long",
	},
	ProjectionWGS84DMS: {
		ID:           "wgs84_dms",
		Name:         "WGS84DMS",
		ShortNameKey: "wgs84_dms_short",
		LongNameKey:  "wgs84_dms_long",
	},
	ProjectionUTM: {
		ID:           "utm",
		Name:         "UTM",
		ShortNameKey: "utm_short",
		LongNameKey:  "utm_long",
	},
	ProjectionOpenLocationCode: {
		ID:             "open_location_code",
		Name:           "OpenLocationCode",
		ShortNameKey:   "olc_code",
		LongNameKey:    "olc_code",
		ExplanationKey: "olc_code_explanation",
	},
	ProjectionWhat3Words: {
		ID:               "what3words",
		Name:             "What3Words",
		ShortNameKey:     "w3w_short",
		LongNameKey:      "w3w_long",
		ExplanationKey:   "w3w_explanation",
		PrivacyPolicyKey: "w3w_privacy_link",
		RequiresNetwork:  true,
	},
}

// AllProjections lists every projection in display order.
func AllProjections() []Projection {
	all := make([]Projection, len(projections))
	for i := range projections {
		all[i] = Projection(i)
	}
	return all
}

// ParseProjection resolves an identifier ("utm") or name ("UTM"), case-insensitively.
func ParseProjection(s string) (Projection, error) {
	s = strings.TrimSpace(s)
	for i, info := range projections {
		if strings.EqualFold(s, info.ID) || strings.EqualFold(s, info.Name) {
			return Projection(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownProjection, s)
}

func (p Projection) Valid() bool {
	return p >= 0 && int(p) < len(projections)
}

func (p Projection) Info() ProjectionInfo {
	if !p.Valid() {
		return ProjectionInfo{}
	}
	return projections[p]
}

func (p Projection) RequiresNetwork() bool { return p.Info().RequiresNetwork }

// ConsentKey is the preference key holding the user's network-access grant.
func (p Projection) ConsentKey() string {
	return "allow_internet_" + p.Info().Name
}

func (p Projection) String() string {
	if !p.Valid() {
		return fmt.Sprintf("Projection(%d)", int(p))
	}
	return projections[p].ID
}

func (p Projection) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownProjection, int(p))
	}
	return []byte(p.String()), nil
}

func (p *Projection) UnmarshalText(text []byte) error {
	parsed, err := ParseProjection(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
