package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const runningGPX = `<?xml version="1.0"?>
<gpx xmlns="http://www.topografix.com/GPX/1/1"
  xmlns:gpxtpx="http://www.garmin.com/xmlschemas/TrackPointExtension/v1">
 <trk>
  <type>running</type>
  <trkseg>
   <trkpt lat="52.5200" lon="13.4050">
    <time>2024-03-10T08:00:00Z</time>
    <extensions><gpxtpx:TrackPointExtension><gpxtpx:hr>140</gpxtpx:hr></gpxtpx:TrackPointExtension></extensions>
   </trkpt>
   <trkpt lat="52.5210" lon="13.4060">
    <time>2024-03-10T08:01:00Z</time>
    <extensions><gpxtpx:TrackPointExtension><gpxtpx:hr>145</gpxtpx:hr></gpxtpx:TrackPointExtension></extensions>
   </trkpt>
  </trkseg>
 </trk>
</gpx>`

func buildZip(t *testing.T, entries map[string][]byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, data := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("creating zip entry %s: %v", name, err)
		}
		if _, err := w.Write(data); err != nil {
			t.Fatalf("writing zip entry %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("closing zip: %v", err)
	}
	return buf.Bytes()
}

func TestExtract(t *testing.T) {
	t.Parallel()

	data := buildZip(t, map[string][]byte{
		"export_12345/activities/456.gpx": []byte(runningGPX),
		"export_12345/profile.json":       []byte(`{}`),
		"export_12345/media/photo.jpg":    []byte("not an activity"),
	})

	points, err := Extract(data)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("point count = %d, want 2", len(points))
	}
	for i, pt := range points {
		if pt.RunID != "456" {
			t.Errorf("point %d run id = %q, want %q", i, pt.RunID, "456")
		}
		if pt.ActivityType != "running" {
			t.Errorf("point %d activity type = %q, want %q", i, pt.ActivityType, "running")
		}
	}
}

func TestExtractNoActivityEntries(t *testing.T) {
	t.Parallel()

	data := buildZip(t, map[string][]byte{
		"export_12345/profile.json": []byte(`{}`),
		"readme.txt":                []byte("hello"),
	})

	_, err := Extract(data)
	if !errors.Is(err, ErrNoActivityFiles) {
		t.Errorf("error = %v, want ErrNoActivityFiles", err)
	}
}

func TestExtractIgnoresUnknownSuffixes(t *testing.T) {
	t.Parallel()

	data := buildZip(t, map[string][]byte{
		"activities/notes.txt": []byte("not a track"),
	})

	_, err := Extract(data)
	if !errors.Is(err, ErrNoActivityFiles) {
		t.Errorf("error = %v, want ErrNoActivityFiles for unmatched suffixes", err)
	}
}

func TestExtractSkipsCorruptEntry(t *testing.T) {
	t.Parallel()

	// 123.fit.gz is corrupt; 456.gpx is valid. The archive still succeeds
	// with only run 456.
	data := buildZip(t, map[string][]byte{
		"export_1/activities/123.fit.gz": []byte("not gzip at all"),
		"export_1/activities/456.gpx":    []byte(runningGPX),
	})

	points, err := Extract(data)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	for _, pt := range points {
		if pt.RunID != "456" {
			t.Errorf("unexpected run id %q, corrupt entry should be skipped", pt.RunID)
		}
	}
	if len(points) != 2 {
		t.Errorf("point count = %d, want 2", len(points))
	}
}

func TestExtractAllEntriesCorrupt(t *testing.T) {
	t.Parallel()

	data := buildZip(t, map[string][]byte{
		"activities/123.fit":    []byte("garbage"),
		"activities/456.fit.gz": []byte("more garbage"),
	})

	_, err := Extract(data)
	if !errors.Is(err, ErrNoParseablePoints) {
		t.Errorf("error = %v, want ErrNoParseablePoints", err)
	}
}

func TestExtractNotAZip(t *testing.T) {
	t.Parallel()

	if _, err := Extract([]byte("this is not a zip archive")); err == nil {
		t.Error("expected error for non-zip input")
	}
}

func TestMatchSuffix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		suffix string
		ok     bool
	}{
		{"activities/123.fit.gz", ".fit.gz", true},
		{"activities/123.fit", ".fit", true},
		{"activities/456.gpx", ".gpx", true},
		{"activities/456.GPX", ".gpx", true},
		{"activities/notes.txt", "", false},
		{"activities/123.gz", "", false},
	}
	for _, tt := range tests {
		suffix, ok := matchSuffix(tt.name)
		if ok != tt.ok || suffix != tt.suffix {
			t.Errorf("matchSuffix(%q) = (%q, %v), want (%q, %v)", tt.name, suffix, ok, tt.suffix, tt.ok)
		}
	}
}

func TestRunID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		suffix   string
		expected string
	}{
		{"export_1/activities/123.fit.gz", ".fit.gz", "123"},
		{"activities/456.gpx", ".gpx", "456"},
		{"activities/789.fit", ".fit", "789"},
	}
	for _, tt := range tests {
		if got := runID(tt.name, tt.suffix); got != tt.expected {
			t.Errorf("runID(%q) = %q, want %q", tt.name, got, tt.expected)
		}
	}
}

func TestFromDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "activities"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "activities", "456.gpx"), []byte(runningGPX), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip me"), 0o644); err != nil {
		t.Fatal(err)
	}

	points, err := FromDir(dir)
	if err != nil {
		t.Fatalf("FromDir failed: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("point count = %d, want 2", len(points))
	}
	if points[0].RunID != "456" {
		t.Errorf("run id = %q, want %q", points[0].RunID, "456")
	}
}

func TestFromDirEmpty(t *testing.T) {
	t.Parallel()

	_, err := FromDir(t.TempDir())
	if !errors.Is(err, ErrNoActivityFiles) {
		t.Errorf("error = %v, want ErrNoActivityFiles", err)
	}
}
