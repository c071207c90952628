package geo

import (
	"errors"
	"math"
	"testing"

	"github.com/scavengerhunt/huntclient/internal/hunt"
)

func TestBearingDueNorth(t *testing.T) {
	a := hunt.LatLng{Lat: 51.8940, Lng: -8.4902}
	b := hunt.LatLng{Lat: 51.8943, Lng: -8.4902}

	got := Bearing(a, b)
	if math.Abs(got) > 1e-9 {
		t.Fatalf("expected bearing 0 for due-north displacement, got %v", got)
	}
}

func TestBearingQuadrants(t *testing.T) {
	origin := hunt.LatLng{Lat: 50, Lng: 10}

	cases := []struct {
		name string
		to   hunt.LatLng
		want float64
	}{
		{"east", hunt.LatLng{Lat: 50, Lng: 10.001}, 90},
		{"south", hunt.LatLng{Lat: 49.999, Lng: 10}, 180},
		{"west", hunt.LatLng{Lat: 50, Lng: 9.999}, 270},
		{"northeast", hunt.LatLng{Lat: 50.001, Lng: 10.001}, 45},
	}
	for _, c := range cases {
		got := Bearing(origin, c.to)
		if math.Abs(got-c.want) > 1e-6 {
			t.Errorf("%s: expected %v, got %v", c.name, c.want, got)
		}
	}
}

func TestBearingAlwaysInRange(t *testing.T) {
	origin := hunt.LatLng{Lat: 52, Lng: -8}
	for deg := 0; deg < 360; deg += 15 {
		rad := float64(deg) * math.Pi / 180
		to := hunt.LatLng{
			Lat: origin.Lat + 0.001*math.Cos(rad),
			Lng: origin.Lng + 0.001*math.Sin(rad),
		}
		got := Bearing(origin, to)
		if got < 0 || got >= 360 {
			t.Fatalf("bearing out of range for %d°: %v", deg, got)
		}
	}
}

func TestDistanceM(t *testing.T) {
	// One degree of latitude is roughly 111 km.
	a := hunt.LatLng{Lat: 51, Lng: -8}
	b := hunt.LatLng{Lat: 52, Lng: -8}

	d := DistanceM(a, b)
	if d < 110_000 || d > 112_000 {
		t.Fatalf("unexpected distance: %v", d)
	}
}

func TestDistanceMShortWalk(t *testing.T) {
	// ~33 m of latitude at Cork, well inside the calibration scale.
	a := hunt.LatLng{Lat: 51.8940, Lng: -8.4902}
	b := hunt.LatLng{Lat: 51.8943, Lng: -8.4902}

	d := DistanceM(a, b)
	if d < 30 || d > 36 {
		t.Fatalf("unexpected distance: %v", d)
	}
}

func TestBuildCone(t *testing.T) {
	center := hunt.LatLng{Lat: 0, Lng: 0}

	polygon, err := BuildCone(center, 90, 60, 50, 2)
	if err != nil {
		t.Fatalf("build cone: %v", err)
	}

	// Apex plus resolution+1 arc points.
	if len(polygon) != 4 {
		t.Fatalf("expected 4 vertices, got %d", len(polygon))
	}
	if polygon[0] != center {
		t.Fatalf("expected apex first, got %+v", polygon[0])
	}

	// Arc samples sweep 60°, 90°, 120°; all 50 m from the apex.
	wantAngles := []float64{60, 90, 120}
	for i, want := range wantAngles {
		p := polygon[i+1]
		d := DistanceM(center, p)
		if math.Abs(d-50) > 0.1 {
			t.Errorf("vertex %d: expected ~50m from apex, got %vm", i+1, d)
		}
		got := Bearing(center, p)
		if math.Abs(got-want) > 0.5 {
			t.Errorf("vertex %d: expected bearing ~%v, got %v", i+1, want, got)
		}
	}
}

func TestBuildConeRejectsLowResolution(t *testing.T) {
	_, err := BuildCone(hunt.LatLng{}, 0, 60, 50, 1)
	if !errors.Is(err, ErrConeResolution) {
		t.Fatalf("expected ErrConeResolution, got %v", err)
	}
}

func TestBuildConeLongitudeScaling(t *testing.T) {
	// At 60°N a degree of longitude is half a degree of latitude, so an
	// eastward cone sample must compensate in degrees to stay 50 m out.
	center := hunt.LatLng{Lat: 60, Lng: 0}

	polygon, err := BuildCone(center, 90, 0.0001, 50, 2)
	if err != nil {
		t.Fatalf("build cone: %v", err)
	}
	for _, p := range polygon[1:] {
		d := DistanceM(center, p)
		if math.Abs(d-50) > 0.2 {
			t.Fatalf("expected ~50m at high latitude, got %vm", d)
		}
	}
}

func TestCentroid(t *testing.T) {
	c := Centroid([]hunt.LatLng{
		{Lat: 0, Lng: 0},
		{Lat: 2, Lng: 0},
		{Lat: 2, Lng: 2},
		{Lat: 0, Lng: 2},
	})
	if c == nil {
		t.Fatal("expected centroid, got nil")
	}
	if c.Lat != 1 || c.Lng != 1 {
		t.Fatalf("expected (1,1), got %+v", *c)
	}

	if Centroid(nil) != nil {
		t.Fatal("expected nil centroid for empty outline")
	}
}

func TestNearestLandmarks(t *testing.T) {
	from := hunt.LatLng{Lat: 52, Lng: -8}
	near := func(id string, dLat float64) hunt.Landmark {
		return hunt.Landmark{
			ID:       id,
			Centroid: &hunt.LatLng{Lat: 52 + dLat, Lng: -8},
		}
	}

	landmarks := []hunt.Landmark{
		near("far", 0.01),      // ~1.1 km, filtered out
		near("close", 0.001),   // ~111 m
		near("closer", 0.0005), // ~55 m
		{ID: "no-centroid"},
	}

	got := NearestLandmarks(from, landmarks, 500, 10)
	if len(got) != 2 {
		t.Fatalf("expected 2 landmarks, got %d", len(got))
	}
	if got[0].ID != "closer" || got[1].ID != "close" {
		t.Fatalf("expected closest-first order, got %s, %s", got[0].ID, got[1].ID)
	}

	capped := NearestLandmarks(from, landmarks, 500, 1)
	if len(capped) != 1 || capped[0].ID != "closer" {
		t.Fatalf("expected cap to keep the closest landmark, got %+v", capped)
	}
}
