package activity

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/striderun/strider/internal/geo"
	"github.com/striderun/strider/internal/logging"
)

// gpxFile models the subset of the GPX 1.1 schema the decoder cares about.
// Field matching is by local element name, so both plain and
// namespace-prefixed documents (gpxtpx extensions included) unmarshal.
type gpxFile struct {
	XMLName xml.Name `xml:"gpx"`
	Tracks  []gpxTrk `xml:"trk"`
}

type gpxTrk struct {
	Type     string      `xml:"type"`
	Segments []gpxTrkSeg `xml:"trkseg"`
}

type gpxTrkSeg struct {
	Points []gpxTrkPt `xml:"trkpt"`
}

type gpxTrkPt struct {
	Lat        string        `xml:"lat,attr"`
	Lon        string        `xml:"lon,attr"`
	Ele        string        `xml:"ele"`
	Time       string        `xml:"time"`
	Extensions gpxExtensions `xml:"extensions"`
}

type gpxExtensions struct {
	TrackPointExtension gpxTrackPointExtension `xml:"TrackPointExtension"`
}

type gpxTrackPointExtension struct {
	HR string `xml:"hr"`
}

// DecodeGPX extracts track points from a GPX document. The activity type is
// read from the first track's type element. Latitude and longitude are
// required per point: a point with a missing or malformed value for either is
// dropped and decoding continues. Elevation, time, and the heart-rate
// extension are best-effort.
func DecodeGPX(data []byte) (Decoded, error) {
	var doc gpxFile
	if err := xml.Unmarshal(data, &doc); err != nil {
		return Decoded{}, fmt.Errorf("parsing GPX document: %w", err)
	}

	var out Decoded
	if len(doc.Tracks) > 0 {
		out.ActivityType = strings.TrimSpace(doc.Tracks[0].Type)
	}

	dropped := 0
	for _, trk := range doc.Tracks {
		for _, seg := range trk.Segments {
			for _, raw := range seg.Points {
				pt, ok := decodeGPXPoint(raw)
				if !ok {
					dropped++
					continue
				}
				out.Points = append(out.Points, pt)
			}
		}
	}

	if dropped > 0 {
		logging.Debug("dropped GPX points with bad coordinates", "count", dropped)
	}
	return out, nil
}

func decodeGPXPoint(raw gpxTrkPt) (TrackPoint, bool) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(raw.Lat), 64)
	if err != nil {
		return TrackPoint{}, false
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(raw.Lon), 64)
	if err != nil {
		return TrackPoint{}, false
	}

	pt := TrackPoint{Lat: ptrFloat(lat), Lon: ptrFloat(lon)}

	if s := strings.TrimSpace(raw.Ele); s != "" {
		if ele, err := strconv.ParseFloat(s, 64); err == nil {
			pt.Elevation = ptrFloat(ele)
		}
	}
	if s := strings.TrimSpace(raw.Time); s != "" {
		if t, ok := geo.ParseTimestamp(s); ok {
			pt.Time = ptrTime(t)
		}
	}
	if s := strings.TrimSpace(raw.Extensions.TrackPointExtension.HR); s != "" {
		if hr, err := strconv.Atoi(s); err == nil && hr >= 0 {
			pt.HeartRate = ptrInt(hr)
		}
	}

	return pt, true
}
