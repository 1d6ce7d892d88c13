// Package activity decodes per-sample telemetry from Strava activity files
// (GPX and FIT) into a common track point shape.
package activity

import "time"

// TrackPoint is one GPS/sensor sample extracted from an activity file.
// Lat/Lon are nil when the source sample carried no usable coordinates; such
// points are kept for heart-rate aggregation but never contribute to
// distance.
type TrackPoint struct {
	Time         *time.Time `json:"time"`
	Lat          *float64   `json:"lat"`
	Lon          *float64   `json:"lon"`
	Elevation    *float64   `json:"ele"`
	HeartRate    *int       `json:"hr"`
	ActivityType string     `json:"activity_type"`
	RunID        string     `json:"run"`
}

// HasCoordinates reports whether the point can participate in distance
// calculations.
func (p TrackPoint) HasCoordinates() bool {
	return p.Lat != nil && p.Lon != nil
}

// Decoded is the result of decoding a single activity file: the file-level
// activity type (empty when the file declares none) and its samples.
type Decoded struct {
	ActivityType string
	Points       []TrackPoint
}

// Tag stamps every point with the owning run identity and the file-level
// activity type.
func (d *Decoded) Tag(runID string) {
	for i := range d.Points {
		d.Points[i].RunID = runID
		d.Points[i].ActivityType = d.ActivityType
	}
}

func ptrFloat(v float64) *float64 { return &v }

func ptrInt(v int) *int { return &v }

func ptrTime(v time.Time) *time.Time { return &v }
