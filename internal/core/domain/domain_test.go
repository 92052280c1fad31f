package domain_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/samirrijal/coords/internal/core/domain"
)

func mustPoint(t *testing.T, lat, lon float64) domain.GeodeticPoint {
	t.Helper()
	p, err := domain.NewGeodeticPoint(domain.RawFix{Latitude: lat, Longitude: lon})
	if err != nil {
		t.Fatalf("NewGeodeticPoint(%v, %v): %v", lat, lon, err)
	}
	return p
}

func TestNewGeodeticPoint_Range(t *testing.T) {
	tests := []struct {
		lat, lon float64
		wantErr  bool
	}{
		{0, 0, false},
		{90, 180, false},
		{-90, -180, false},
		{90.000001, 0, true},
		{-91, 0, true},
		{0, 180.5, true},
		{0, -181, true},
	}

	for _, tt := range tests {
		_, err := domain.NewGeodeticPoint(domain.RawFix{Latitude: tt.lat, Longitude: tt.lon})
		if tt.wantErr != (err != nil) {
			t.Errorf("(%v, %v): err = %v, wantErr %v", tt.lat, tt.lon, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, domain.ErrCoordinateOutOfRange) {
			t.Errorf("(%v, %v): expected ErrCoordinateOutOfRange, got %v", tt.lat, tt.lon, err)
		}
	}
}

func TestGeodeticPoint_OptionalFields(t *testing.T) {
	acc := 4.5
	fix := domain.RawFix{Latitude: 1, Longitude: 2, Accuracy: &acc}
	p, err := domain.NewGeodeticPoint(fix)
	if err != nil {
		t.Fatal(err)
	}

	// The point must not alias the fix.
	acc = 100
	if got, ok := p.Accuracy(); !ok || got != 4.5 {
		t.Errorf("Accuracy() = %v, %v; want 4.5, true", got, ok)
	}
	if _, ok := p.Altitude(); ok {
		t.Error("Altitude() reported present")
	}
	if _, ok := p.Bearing(); ok {
		t.Error("Bearing() reported present")
	}
}

func TestGeodeticPoint_Key(t *testing.T) {
	p := mustPoint(t, 52.520008, -13.404954)
	if got, want := p.Key(), "52.520008|-13.404954"; got != want {
		t.Errorf("Key() = %q, want %q", got, want)
	}
}

func TestGeodeticPoint_SameLocation(t *testing.T) {
	tests := []struct {
		name string
		a, b [2]float64
		want bool
	}{
		{"identical", [2]float64{52.520008, 13.404954}, [2]float64{52.520008, 13.404954}, true},
		{"differs after 8 chars", [2]float64{52.520008, 13.404954}, [2]float64{52.5200089, 13.4049541}, true},
		{"latitude moved", [2]float64{52.520008, 13.404954}, [2]float64{52.520108, 13.404954}, false},
		{"longitude moved", [2]float64{52.520008, 13.404954}, [2]float64{52.520008, 13.405954}, false},
		{"short strings", [2]float64{1.5, 2}, [2]float64{1.5, 2}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := mustPoint(t, tt.a[0], tt.a[1])
			b := mustPoint(t, tt.b[0], tt.b[1])
			if got := a.SameLocation(b); got != tt.want {
				t.Errorf("SameLocation = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGeodeticPoint_MarshalJSON(t *testing.T) {
	p := mustPoint(t, -33.867, 151.2093)
	data, err := json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(data), `{"latitude":"-33.867","longitude":"151.2093"}`; got != want {
		t.Errorf("json = %s, want %s", got, want)
	}
}

func TestParseProjection(t *testing.T) {
	tests := []struct {
		in   string
		want domain.Projection
	}{
		{"utm", domain.ProjectionUTM},
		{"UTM", domain.ProjectionUTM},
		{"wgs84_decimal", domain.ProjectionWGS84Decimal},
		{"WGS84DMS", domain.ProjectionWGS84DMS},
		{"open_location_code", domain.ProjectionOpenLocationCode},
		{" what3words ", domain.ProjectionWhat3Words},
	}
	for _, tt := range tests {
		got, err := domain.ParseProjection(tt.in)
		if err != nil {
			t.Errorf("ParseProjection(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseProjection(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if _, err := domain.ParseProjection("mgrs"); !errors.Is(err, domain.ErrUnknownProjection) {
		t.Errorf("expected ErrUnknownProjection, got %v", err)
	}
}

func TestProjectionRegistry(t *testing.T) {
	all := domain.AllProjections()
	if len(all) != 5 {
		t.Fatalf("expected 5 projections, got %d", len(all))
	}

	seen := map[string]bool{}
	for _, p := range all {
		info := p.Info()
		if info.ID == "" || info.Name == "" || info.ShortNameKey == "" || info.LongNameKey == "" {
			t.Errorf("%v: incomplete metadata %+v", p, info)
		}
		if seen[info.ID] {
			t.Errorf("duplicate id %q", info.ID)
		}
		seen[info.ID] = true

		if p.RequiresNetwork() != (p == domain.ProjectionWhat3Words) {
			t.Errorf("%v: RequiresNetwork = %v", p, p.RequiresNetwork())
		}
	}

	if got := domain.ProjectionWhat3Words.ConsentKey(); got != "allow_internet_What3Words" {
		t.Errorf("ConsentKey() = %q", got)
	}
	if domain.ProjectionWhat3Words.Info().PrivacyPolicyKey == "" {
		t.Error("network projection lacks a privacy policy key")
	}
}

func TestProjection_TextRoundTrip(t *testing.T) {
	var payload struct {
		Projection domain.Projection `json:"projection"`
	}
	if err := json.Unmarshal([]byte(`{"projection":"open_location_code"}`), &payload); err != nil {
		t.Fatal(err)
	}
	if payload.Projection != domain.ProjectionOpenLocationCode {
		t.Errorf("got %v", payload.Projection)
	}
	if err := json.Unmarshal([]byte(`{"projection":"nope"}`), &payload); err == nil {
		t.Error("expected error for unknown projection")
	}
}

func TestSortByPriority_Stable(t *testing.T) {
	data := []domain.LabelledDatum{
		{Label: "c", Priority: 50},
		{Label: "zone", Priority: 1},
		{Label: "easting", Priority: 2},
		{Label: "northing", Priority: 2},
	}
	domain.SortByPriority(data)

	want := []string{"zone", "easting", "northing", "c"}
	for i, d := range data {
		if d.Label != want[i] {
			t.Errorf("position %d: got %s, want %s", i, d.Label, want[i])
		}
	}
}
