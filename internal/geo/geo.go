// Package geo holds the coordinate and time normalization primitives shared
// by the GPX and FIT decoders and the metrics engine.
package geo

import (
	"math"
	"time"
)

// EarthRadiusKm is the mean Earth radius used for great-circle distances.
const EarthRadiusKm = 6371.0

// semicircleToDeg converts FIT semicircle units to degrees: 180 / 2^31.
const semicircleToDeg = 180.0 / 2147483648.0

// SemicirclesToDegrees converts a raw FIT semicircle coordinate to WGS-84
// degrees. Callers are expected to filter the FIT invalid sentinel
// (0x7FFFFFFF) before converting.
func SemicirclesToDegrees(raw int32) float64 {
	return float64(raw) * semicircleToDeg
}

// HaversineKm returns the great-circle distance in kilometres between two
// WGS-84 coordinates.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// timestampLayouts covers the encodings seen in Strava exports: RFC 3339 with
// a literal Z or numeric offset, and the space-separated variant with and
// without an offset. Timezone-naive values are interpreted as UTC.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
}

// ParseTimestamp parses a sample timestamp. It reports ok=false instead of an
// error on failure so that a single bad sample never aborts a decode.
func ParseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
