package activity

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"

	"github.com/muktihari/fit/decoder"
	"github.com/muktihari/fit/profile/mesgdef"
	"github.com/muktihari/fit/profile/typedef"

	"github.com/striderun/strider/internal/geo"
)

// FIT invalid-value sentinels for the fields the decoder reads.
const (
	fitInvalidSemicircles = 0x7FFFFFFF
	fitInvalidAltitude    = 0xFFFF
	fitInvalidHeartRate   = 0xFF
)

// DecodeFIT extracts track points from a FIT activity file. When gzipped is
// true the payload is transparently decompressed first (Strava archives ship
// FIT files as .fit.gz).
//
// Unlike the GPX path, a record message lacking either coordinate is skipped
// entirely and contributes nothing, heart rate included. The activity type is
// resolved from sport messages first, then session messages, defaulting to
// "unknown".
func DecodeFIT(data []byte, gzipped bool) (Decoded, error) {
	var r io.Reader = bytes.NewReader(data)
	if gzipped {
		gz, err := gzip.NewReader(r)
		if err != nil {
			return Decoded{}, fmt.Errorf("opening gzip stream: %w", err)
		}
		defer gz.Close()
		r = gz
	}

	out := Decoded{ActivityType: "unknown"}
	var sportType, sessionType string
	sequences := 0

	dec := decoder.New(r)
	for dec.Next() {
		f, err := dec.Decode()
		if err != nil {
			return Decoded{}, fmt.Errorf("decoding FIT stream: %w", err)
		}
		sequences++

		for i := range f.Messages {
			msg := f.Messages[i]
			switch msg.Num {
			case typedef.MesgNumRecord:
				if pt, ok := decodeFITRecord(mesgdef.NewRecord(&msg)); ok {
					out.Points = append(out.Points, pt)
				}
			case typedef.MesgNumSport:
				if sportType == "" {
					sportType = sportMessageType(mesgdef.NewSport(&msg))
				}
			case typedef.MesgNumSession:
				if sessionType == "" {
					sessionType = sessionMessageType(mesgdef.NewSession(&msg))
				}
			}
		}
	}

	if sequences == 0 {
		return Decoded{}, fmt.Errorf("no FIT sequences in input")
	}

	// Sport messages take priority over session messages.
	if sportType != "" {
		out.ActivityType = sportType
	} else if sessionType != "" {
		out.ActivityType = sessionType
	}

	return out, nil
}

// decodeFITRecord converts one record message to a TrackPoint. Records
// missing either coordinate yield nothing.
func decodeFITRecord(rec *mesgdef.Record) (TrackPoint, bool) {
	if rec.PositionLat == fitInvalidSemicircles || rec.PositionLong == fitInvalidSemicircles {
		return TrackPoint{}, false
	}

	pt := TrackPoint{
		Lat: ptrFloat(geo.SemicirclesToDegrees(rec.PositionLat)),
		Lon: ptrFloat(geo.SemicirclesToDegrees(rec.PositionLong)),
	}

	if !rec.Timestamp.IsZero() {
		pt.Time = ptrTime(rec.Timestamp.UTC())
	}
	if rec.Altitude != fitInvalidAltitude {
		// FIT altitude is stored as 5 * (metres + 500).
		pt.Elevation = ptrFloat(float64(rec.Altitude)/5 - 500)
	}
	if rec.HeartRate != fitInvalidHeartRate {
		pt.HeartRate = ptrInt(int(rec.HeartRate))
	}

	return pt, true
}

// sportMessageType resolves an activity type from a sport message, trying
// sport, sub_sport, then the free-form name.
func sportMessageType(m *mesgdef.Sport) string {
	if m.Sport != typedef.SportInvalid {
		return m.Sport.String()
	}
	if m.SubSport != typedef.SubSportInvalid {
		return m.SubSport.String()
	}
	return m.Name
}

// sessionMessageType resolves an activity type from a session message, trying
// sport, sub_sport, then the sport profile name.
func sessionMessageType(m *mesgdef.Session) string {
	if m.Sport != typedef.SportInvalid {
		return m.Sport.String()
	}
	if m.SubSport != typedef.SubSportInvalid {
		return m.SubSport.String()
	}
	return m.SportProfileName
}
