// Package geo holds the flat-earth local geometry used by calibration
// and the view cone. The approximations here are intentional: cone
// radii and calibration walks are tens of meters, where treating a
// degree of latitude as a fixed 111,320 m is well within GPS noise.
package geo

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/scavengerhunt/huntclient/internal/hunt"
)

// MetersPerDegLat approximates the length of one degree of latitude.
// Longitude shrinks by cos(latitude) toward the poles.
const MetersPerDegLat = 111_320

const earthRadiusM = 6_371_000

var ErrConeResolution = errors.New("cone resolution must be at least 2")

// Bearing returns the direction from a to b, in degrees clockwise from
// north, normalized into [0,360). Undefined for a == b; callers must
// not invoke it with identical points.
func Bearing(a, b hunt.LatLng) float64 {
	dy := b.Lat - a.Lat
	dx := b.Lng - a.Lng

	deg := math.Atan2(dx, dy) * 180 / math.Pi
	if deg < 0 {
		deg += 360
	}
	return deg
}

// DistanceM returns the great-circle distance between two points in
// meters (haversine).
func DistanceM(a, b hunt.LatLng) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusM * math.Asin(math.Sqrt(h))
}

// BuildCone converts a heading, span and radius into the view-cone
// polygon: the apex (player position) followed by resolution+1 arc
// samples swept from heading-span/2 to heading+span/2.
//
// Valid for radii up to a few hundred meters; not geodesically exact.
func BuildCone(center hunt.LatLng, headingDeg, spanDeg, radiusM float64, resolution int) ([]hunt.LatLng, error) {
	if resolution < 2 {
		return nil, fmt.Errorf("building cone: %w", ErrConeResolution)
	}

	polygon := make([]hunt.LatLng, 0, resolution+2)
	polygon = append(polygon, center)

	start := headingDeg - spanDeg/2
	step := spanDeg / float64(resolution)
	metersPerDegLng := MetersPerDegLat * math.Cos(center.Lat*math.Pi/180)

	for i := 0; i <= resolution; i++ {
		theta := (start + float64(i)*step) * math.Pi / 180
		dLat := radiusM * math.Cos(theta) / MetersPerDegLat
		dLng := radiusM * math.Sin(theta) / metersPerDegLng

		polygon = append(polygon, hunt.LatLng{
			Lat: center.Lat + dLat,
			Lng: center.Lng + dLng,
		})
	}
	return polygon, nil
}

// Centroid returns the arithmetic mean of the polygon vertices, or nil
// for an empty outline. Good enough for picking which landmarks to
// draw; this is not a proper polygon centroid.
func Centroid(outline []hunt.LatLng) *hunt.LatLng {
	if len(outline) == 0 {
		return nil
	}
	var lat, lng float64
	for _, p := range outline {
		lat += p.Lat
		lng += p.Lng
	}
	n := float64(len(outline))
	return &hunt.LatLng{Lat: lat / n, Lng: lng / n}
}

// NearestLandmarks returns the landmarks whose centroid lies within
// maxDistanceM of from, closest first, capped at maxCount. Landmarks
// without a centroid are skipped.
func NearestLandmarks(from hunt.LatLng, landmarks []hunt.Landmark, maxDistanceM float64, maxCount int) []hunt.Landmark {
	type scored struct {
		landmark hunt.Landmark
		distance float64
	}

	within := make([]scored, 0, len(landmarks))
	for _, lm := range landmarks {
		if lm.Centroid == nil {
			continue
		}
		d := DistanceM(from, *lm.Centroid)
		if d <= maxDistanceM {
			within = append(within, scored{landmark: lm, distance: d})
		}
	}

	sort.Slice(within, func(i, j int) bool { return within[i].distance < within[j].distance })

	if len(within) > maxCount {
		within = within[:maxCount]
	}
	out := make([]hunt.Landmark, len(within))
	for i, s := range within {
		out[i] = s.landmark
	}
	return out
}
