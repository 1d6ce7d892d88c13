// Package analysis groups track points into runs and derives per-run and
// aggregate running metrics.
//
// Timestamp policy: points whose timestamps are absent are excluded from
// every time-ordered computation (ordering, duration, zone time deltas) but
// still contribute to the heart-rate aggregates (avg_hr, aerobic_pct).
// A run's reported date is the calendar date of its latest valid timestamp.
package analysis

import (
	"math"
	"sort"

	"github.com/striderun/strider/internal/activity"
	"github.com/striderun/strider/internal/geo"
)

const (
	// runningType is the activity classification the engine analyzes.
	runningType = "running"
	// aerobicThresholdBPM is the cutoff below which a sample counts as
	// aerobic.
	aerobicThresholdBPM = 150
	// marathonDistanceKm qualifies a run as a marathon.
	marathonDistanceKm = 42.195
)

// RunSummary is one aggregated row per run.
type RunSummary struct {
	RunID        string   `json:"run_id"`
	Date         string   `json:"date"`
	DistanceKm   float64  `json:"distance_km"`
	DurationSec  float64  `json:"duration_sec"`
	PaceSecPerKm *float64 `json:"pace_sec_per_km"`
	AvgHR        *float64 `json:"avg_hr"`
	AerobicPct   *float64 `json:"aerobic_pct"`
	PaceMinKm    *float64 `json:"pace_min_km"`
}

// Metric is one named aggregate value. Ratios without a valid denominator
// carry the explicit unavailable marker instead of a number.
type Metric struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// Unavailable marks an aggregate ratio that has no valid denominator.
const Unavailable = "—"

// Result is the sole output of one pipeline invocation.
type Result struct {
	Runs    []RunSummary       `json:"runs"`
	Metrics []Metric           `json:"metrics"`
	ZonePct map[string]float64 `json:"zone_pct"`
}

// Analyze derives run summaries, aggregate metrics, and the heart-rate zone
// distribution from a unified record set. Only "running" records are
// considered. The computation never produces NaN: any undefined ratio or
// empty mean surfaces as a nil field or the Unavailable metric marker.
func Analyze(points []activity.TrackPoint) *Result {
	running := make([]activity.TrackPoint, 0, len(points))
	for _, pt := range points {
		if pt.ActivityType == runningType {
			running = append(running, pt)
		}
	}

	groups := groupByRun(running)

	runIDs := make([]string, 0, len(groups))
	for id := range groups {
		runIDs = append(runIDs, id)
	}
	sort.Strings(runIDs)

	runs := make([]RunSummary, 0, len(groups))
	for _, id := range runIDs {
		runs = append(runs, summarizeRun(id, groups[id]))
	}

	return &Result{
		Runs:    runs,
		Metrics: aggregateMetrics(runs),
		ZonePct: zoneDistribution(running),
	}
}

// groupByRun buckets points by run identity with each bucket sorted by
// timestamp; points without timestamps sort to the front and are handled by
// the per-run policies.
func groupByRun(points []activity.TrackPoint) map[string][]activity.TrackPoint {
	groups := make(map[string][]activity.TrackPoint)
	for _, pt := range points {
		groups[pt.RunID] = append(groups[pt.RunID], pt)
	}
	for _, group := range groups {
		sort.SliceStable(group, func(i, j int) bool {
			ti, tj := group[i].Time, group[j].Time
			switch {
			case ti == nil:
				return tj != nil
			case tj == nil:
				return false
			default:
				return ti.Before(*tj)
			}
		})
	}
	return groups
}

func summarizeRun(id string, group []activity.TrackPoint) RunSummary {
	row := RunSummary{RunID: id}

	// Distance: filter to valid-coordinate points in time order, then walk
	// consecutive pairs of the filtered sequence.
	var prev *activity.TrackPoint
	for i := range group {
		pt := &group[i]
		if !pt.HasCoordinates() {
			continue
		}
		if prev != nil {
			row.DistanceKm += geo.HaversineKm(*prev.Lat, *prev.Lon, *pt.Lat, *pt.Lon)
		}
		prev = pt
	}

	// Duration and date from the timestamped subset.
	var first, last *activity.TrackPoint
	for i := range group {
		if group[i].Time == nil {
			continue
		}
		if first == nil {
			first = &group[i]
		}
		last = &group[i]
	}
	if first != nil && last != nil {
		row.DurationSec = last.Time.Sub(*first.Time).Seconds()
		row.Date = last.Time.Format("2006-01-02")
	}

	if row.DistanceKm > 0 {
		pace := row.DurationSec / row.DistanceKm
		row.PaceSecPerKm = &pace
		paceMin := pace / 60
		row.PaceMinKm = &paceMin
	}

	// Heart rate aggregates include every sample with a value, timestamped
	// or not.
	var hrSum, aerobic, hrCount float64
	for _, pt := range group {
		if pt.HeartRate == nil {
			continue
		}
		hrCount++
		hrSum += float64(*pt.HeartRate)
		if *pt.HeartRate < aerobicThresholdBPM {
			aerobic++
		}
	}
	if hrCount > 0 {
		avg := hrSum / hrCount
		row.AvgHR = &avg
		pct := aerobic / hrCount * 100
		row.AerobicPct = &pct
	}

	return row
}

func aggregateMetrics(runs []RunSummary) []Metric {
	var totalDistance, totalDuration float64
	var paceSum, paceCount float64
	var marathonPaceSum, marathonCount float64

	for _, r := range runs {
		totalDistance += r.DistanceKm
		totalDuration += r.DurationSec
		if r.PaceSecPerKm != nil {
			paceSum += *r.PaceSecPerKm
			paceCount++
		}
		if r.DistanceKm >= marathonDistanceKm {
			marathonCount++
			if r.PaceSecPerKm != nil {
				marathonPaceSum += *r.PaceSecPerKm
			}
		}
	}

	overallPace := ratioMinutes(totalDuration/60, totalDistance)
	avgRunPace := ratioMinutes(paceSum/60, paceCount)
	avgMarathonPace := ratioMinutes(marathonPaceSum/60, marathonCount)

	return []Metric{
		{Name: "Total runs", Value: len(runs)},
		{Name: "Total distance (km)", Value: round1(totalDistance)},
		{Name: "Total duration (h)", Value: round2(totalDuration / 3600)},
		{Name: "Overall average pace (min/km)", Value: overallPace},
		{Name: "Avg. pace per run (min/km)", Value: avgRunPace},
		{Name: "Marathons completed", Value: int(marathonCount)},
		{Name: "Avg. marathon pace (min/km)", Value: avgMarathonPace},
	}
}

// ratioMinutes returns num/denom rounded to two decimals, or the Unavailable
// marker when the denominator is zero.
func ratioMinutes(num, denom float64) any {
	if denom == 0 {
		return Unavailable
	}
	return round2(num / denom)
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

func round2(v float64) float64 { return math.Round(v*100) / 100 }
