package analysis

import (
	"sort"
	"time"

	"github.com/striderun/strider/internal/activity"
)

// zoneNames index the distribution map. Zone bands are ratios of the maximum
// observed heart rate: [0,0.6), [0.6,0.7), [0.7,0.8), [0.8,0.9), [0.9,1.0].
// The top band is inclusive so the maximum sample itself lands in zone 5.
var zoneNames = [5]string{"zone_1", "zone_2", "zone_3", "zone_4", "zone_5"}

var zoneLowerBounds = [5]float64{0, 0.6, 0.7, 0.8, 0.9}

func zoneIndex(ratio float64) int {
	for i := len(zoneLowerBounds) - 1; i > 0; i-- {
		if ratio >= zoneLowerBounds[i] {
			return i
		}
	}
	return 0
}

// hrSample is one heart-rate reading with the duration it represents.
type hrSample struct {
	hr     int
	weight float64
}

// zoneDistribution computes the time-weighted share of each heart-rate zone
// across all running points. Timestamped samples form one chronological
// sequence regardless of run, and each is weighted by the gap since the
// previous sample; the first carries zero weight. When no positive time
// deltas exist at all, every sample counts equally so the distribution still
// sums to 100 whenever at least one heart-rate sample is present. Without any
// samples every zone is zero.
func zoneDistribution(points []activity.TrackPoint) map[string]float64 {
	dist := make(map[string]float64, len(zoneNames))
	for _, name := range zoneNames {
		dist[name] = 0
	}

	samples, maxHR := collectHRSamples(points)
	if len(samples) == 0 || maxHR == 0 {
		return dist
	}

	var totalWeight float64
	for _, s := range samples {
		totalWeight += s.weight
	}
	if totalWeight == 0 {
		for i := range samples {
			samples[i].weight = 1
		}
		totalWeight = float64(len(samples))
	}

	for _, s := range samples {
		ratio := float64(s.hr) / float64(maxHR)
		dist[zoneNames[zoneIndex(ratio)]] += s.weight / totalWeight * 100
	}
	return dist
}

// collectHRSamples gathers heart-rate readings into one time-ordered sequence
// spanning all runs, pairing each timestamped reading with the gap since the
// one before it. The first reading, and readings without timestamps, carry
// zero weight.
func collectHRSamples(points []activity.TrackPoint) ([]hrSample, int) {
	var timed []activity.TrackPoint
	var samples []hrSample
	maxHR := 0

	for _, pt := range points {
		if pt.HeartRate == nil {
			continue
		}
		if *pt.HeartRate > maxHR {
			maxHR = *pt.HeartRate
		}
		if pt.Time == nil {
			samples = append(samples, hrSample{hr: *pt.HeartRate})
			continue
		}
		timed = append(timed, pt)
	}

	sort.SliceStable(timed, func(i, j int) bool {
		return timed[i].Time.Before(*timed[j].Time)
	})
	for i, pt := range timed {
		var weight time.Duration
		if i > 0 {
			weight = pt.Time.Sub(*timed[i-1].Time)
		}
		samples = append(samples, hrSample{hr: *pt.HeartRate, weight: weight.Seconds()})
	}

	return samples, maxHR
}
