// Package export writes the unified track point set to tabular formats for
// downstream analysis, and reads previously exported CSV back in.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/striderun/strider/internal/activity"
	"github.com/striderun/strider/internal/geo"
)

var csvHeader = []string{
	"time", "lat", "lon", "ele", "hr",
	"run", "activity_type", "seg_distance_m", "cum_distance_km",
}

// WriteCSV emits one row per track point, ordered by run then time, with
// per-run segment and cumulative distances. Missing fields are written as
// empty cells.
func WriteCSV(w io.Writer, points []activity.TrackPoint) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, run := range orderedRuns(points) {
		var prev *activity.TrackPoint
		var cumKm float64

		for i := range run {
			pt := &run[i]
			var segM float64
			if pt.HasCoordinates() {
				if prev != nil {
					segM = geo.HaversineKm(*prev.Lat, *prev.Lon, *pt.Lat, *pt.Lon) * 1000
					cumKm += segM / 1000
				}
				prev = pt
			}

			row := []string{
				formatTime(pt.Time),
				formatFloat(pt.Lat),
				formatFloat(pt.Lon),
				formatFloat(pt.Elevation),
				formatInt(pt.HeartRate),
				pt.RunID,
				pt.ActivityType,
				strconv.FormatFloat(segM, 'f', 3, 64),
				strconv.FormatFloat(cumKm, 'f', 6, 64),
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("writing row: %w", err)
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadCSV parses rows previously produced by WriteCSV back into track points.
// The derived distance columns are ignored; they are recomputed downstream.
func ReadCSV(r io.Reader) ([]activity.TrackPoint, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	for _, required := range []string{"run", "activity_type"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("missing column %q", required)
		}
	}

	var points []activity.TrackPoint
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row: %w", err)
		}

		pt := activity.TrackPoint{
			RunID:        field(record, col, "run"),
			ActivityType: field(record, col, "activity_type"),
		}
		if ts, ok := geo.ParseTimestamp(field(record, col, "time")); ok {
			pt.Time = &ts
		}
		if v, err := strconv.ParseFloat(field(record, col, "lat"), 64); err == nil {
			pt.Lat = &v
		}
		if v, err := strconv.ParseFloat(field(record, col, "lon"), 64); err == nil {
			pt.Lon = &v
		}
		if v, err := strconv.ParseFloat(field(record, col, "ele"), 64); err == nil {
			pt.Elevation = &v
		}
		if v, err := strconv.Atoi(field(record, col, "hr")); err == nil {
			pt.HeartRate = &v
		}
		points = append(points, pt)
	}
	return points, nil
}

// orderedRuns buckets points by run and sorts each bucket by timestamp, with
// runs emitted in identifier order.
func orderedRuns(points []activity.TrackPoint) [][]activity.TrackPoint {
	byRun := make(map[string][]activity.TrackPoint)
	for _, pt := range points {
		byRun[pt.RunID] = append(byRun[pt.RunID], pt)
	}

	ids := make([]string, 0, len(byRun))
	for id := range byRun {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	runs := make([][]activity.TrackPoint, 0, len(byRun))
	for _, id := range ids {
		group := byRun[id]
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
		runs = append(runs, group)
	}
	return runs
}

func field(record []string, col map[string]int, name string) string {
	i, ok := col[name]
	if !ok || i >= len(record) {
		return ""
	}
	return record[i]
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
