// Package archive turns an uploaded Strava export (zip) into the unified
// track point set consumed by the metrics engine.
package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/striderun/strider/internal/activity"
	"github.com/striderun/strider/internal/logging"
)

// The two caller-visible failure modes. Per-file decode failures are absorbed
// and only surface as ErrNoParseablePoints when nothing else contributed.
var (
	// ErrNoActivityFiles indicates the archive had no entries under an
	// "activities" path with a recognized suffix.
	ErrNoActivityFiles = errors.New("no activity files found in archive")
	// ErrNoParseablePoints indicates activity files were present but none of
	// them produced any track points.
	ErrNoParseablePoints = errors.New("activity files found but none were parseable")
)

// decodeFunc adapts one file format to the common decode shape.
type decodeFunc func(data []byte) (activity.Decoded, error)

// decoders maps activity-file suffixes to their decoder. Dispatch is strictly
// by filename suffix; anything else in the archive is ignored.
var decoders = map[string]decodeFunc{
	".gpx": activity.DecodeGPX,
	".fit": func(data []byte) (activity.Decoded, error) {
		return activity.DecodeFIT(data, false)
	},
	".fit.gz": func(data []byte) (activity.Decoded, error) {
		return activity.DecodeFIT(data, true)
	},
}

// matchSuffix returns the registered suffix for name, longest match first so
// ".fit.gz" wins over ".gz".
func matchSuffix(name string) (string, bool) {
	lower := strings.ToLower(name)
	for _, suffix := range []string{".fit.gz", ".fit", ".gpx"} {
		if strings.HasSuffix(lower, suffix) {
			return suffix, true
		}
	}
	return "", false
}

// runID derives the run identity from an archive entry path: the base
// filename with the activity suffix stripped, so "activities/123.fit.gz"
// becomes "123".
func runID(name, suffix string) string {
	base := path.Base(name)
	return base[:len(base)-len(suffix)]
}

// underActivities reports whether the entry path contains an "activities"
// segment. Strava exports nest activity files under export_<id>/activities/.
func underActivities(name string) bool {
	for _, seg := range strings.Split(path.Clean(name), "/") {
		if seg == "activities" {
			return true
		}
	}
	return false
}

// Extract opens the archive bytes and decodes every activity file under an
// "activities" path, concatenating all extracted points tagged by run
// identity. A single corrupt entry never aborts extraction; the whole
// operation fails only when no entry contributed any points.
func Extract(data []byte) ([]activity.TrackPoint, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}

	var points []activity.TrackPoint
	candidates := 0

	for _, entry := range zr.File {
		if entry.FileInfo().IsDir() || !underActivities(entry.Name) {
			continue
		}
		suffix, ok := matchSuffix(entry.Name)
		if !ok {
			continue
		}
		candidates++

		decoded, err := decodeEntry(entry, suffix)
		if err != nil {
			logging.Warn("skipping unparseable activity file", "entry", entry.Name, "error", err.Error())
			continue
		}

		decoded.Tag(runID(entry.Name, suffix))
		logging.Debug("decoded activity file",
			"entry", entry.Name,
			"activity_type", decoded.ActivityType,
			"points", len(decoded.Points))
		points = append(points, decoded.Points...)
	}

	if candidates == 0 {
		return nil, ErrNoActivityFiles
	}
	if len(points) == 0 {
		return nil, ErrNoParseablePoints
	}

	logging.Info("archive extracted", "files", candidates, "points", len(points))
	return points, nil
}

// decodeEntry reads one zip entry fully and dispatches it to the matching
// decoder. The entry reader is always closed, including on read failure.
func decodeEntry(entry *zip.File, suffix string) (activity.Decoded, error) {
	rc, err := entry.Open()
	if err != nil {
		return activity.Decoded{}, fmt.Errorf("opening entry: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return activity.Decoded{}, fmt.Errorf("reading entry: %w", err)
	}

	return decoders[suffix](data)
}
