package archive

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/striderun/strider/internal/activity"
	"github.com/striderun/strider/internal/logging"
)

// FromDir builds the unified record set from activity files on disk, for the
// offline analyze/export commands. Unlike Extract it takes every matching
// file under root, without requiring an "activities" path segment. Failure
// semantics mirror Extract.
func FromDir(root string) ([]activity.TrackPoint, error) {
	var points []activity.TrackPoint
	candidates := 0

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		suffix, ok := matchSuffix(d.Name())
		if !ok {
			return nil
		}
		candidates++

		data, err := os.ReadFile(p)
		if err != nil {
			logging.Warn("skipping unreadable activity file", "path", p, "error", err.Error())
			return nil
		}
		decoded, err := decoders[suffix](data)
		if err != nil {
			logging.Warn("skipping unparseable activity file", "path", p, "error", err.Error())
			return nil
		}

		decoded.Tag(runID(d.Name(), suffix))
		points = append(points, decoded.Points...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}

	if candidates == 0 {
		return nil, ErrNoActivityFiles
	}
	if len(points) == 0 {
		return nil, ErrNoParseablePoints
	}
	return points, nil
}
