package export

import (
	"fmt"
	"io"
	"math"
	"time"

	parquetbuffer "github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/striderun/strider/internal/activity"
	"github.com/striderun/strider/internal/geo"
)

type pointParquetRow struct {
	TimeUTCISO    string  `parquet:"name=time_utc_iso, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Lat           float64 `parquet:"name=lat, type=DOUBLE"`
	Lon           float64 `parquet:"name=lon, type=DOUBLE"`
	EleM          float64 `parquet:"name=ele_m, type=DOUBLE"`
	HRBPM         float64 `parquet:"name=hr_bpm, type=DOUBLE"`
	Run           string  `parquet:"name=run, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	ActivityType  string  `parquet:"name=activity_type, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	SegDistanceM  float64 `parquet:"name=seg_distance_m, type=DOUBLE"`
	CumDistanceKm float64 `parquet:"name=cum_distance_km, type=DOUBLE"`
}

// WriteParquet emits the same rows as WriteCSV in parquet form. Missing
// numeric fields are written as NaN.
func WriteParquet(w io.Writer, points []activity.TrackPoint) error {
	fw := parquetbuffer.NewBufferFile()
	pw, err := writer.NewParquetWriter(fw, new(pointParquetRow), 4)
	if err != nil {
		return fmt.Errorf("creating parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

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

			row := pointParquetRow{
				Lat:           valueOrNaN(pt.Lat),
				Lon:           valueOrNaN(pt.Lon),
				EleM:          valueOrNaN(pt.Elevation),
				HRBPM:         intOrNaN(pt.HeartRate),
				Run:           pt.RunID,
				ActivityType:  pt.ActivityType,
				SegDistanceM:  segM,
				CumDistanceKm: cumKm,
			}
			if pt.Time != nil {
				row.TimeUTCISO = pt.Time.UTC().Format(time.RFC3339)
			}
			if err := pw.Write(row); err != nil {
				_ = pw.WriteStop()
				return fmt.Errorf("writing parquet row: %w", err)
			}
		}
	}

	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("finalizing parquet: %w", err)
	}
	if err := fw.Close(); err != nil {
		return fmt.Errorf("closing parquet buffer: %w", err)
	}

	if _, err := w.Write(fw.Bytes()); err != nil {
		return fmt.Errorf("writing parquet output: %w", err)
	}
	return nil
}

func valueOrNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

func intOrNaN(v *int) float64 {
	if v == nil {
		return math.NaN()
	}
	return float64(*v)
}
