package activity

import (
	"bytes"
	"compress/gzip"
	"testing"
	"time"

	"github.com/muktihari/fit/encoder"
	"github.com/muktihari/fit/profile/mesgdef"
	"github.com/muktihari/fit/profile/typedef"
	"github.com/muktihari/fit/proto"
)

// degreesToSemicircles inverts the decoder's coordinate conversion for
// building fixtures.
func degreesToSemicircles(deg float64) int32 {
	return int32(deg * 2147483648.0 / 180.0)
}

type fitRecordFixture struct {
	offsetSec   int
	lat, lon    float64
	noPosition  bool
	heartRate   uint8
	noHeartRate bool
}

// buildFITFile encodes a minimal activity FIT file for decoder tests.
func buildFITFile(t *testing.T, sport typedef.Sport, withSportMesg bool, records []fitRecordFixture) []byte {
	t.Helper()

	start := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)

	fitFile := &proto.FIT{}

	fileID := mesgdef.NewFileId(nil).
		SetType(typedef.FileActivity).
		SetManufacturer(typedef.ManufacturerDevelopment).
		SetProduct(1).
		SetTimeCreated(start)
	fitFile.Messages = append(fitFile.Messages, fileID.ToMesg(nil))

	if withSportMesg {
		sportMesg := mesgdef.NewSport(nil).SetSport(sport)
		fitFile.Messages = append(fitFile.Messages, sportMesg.ToMesg(nil))
	}

	for _, r := range records {
		rec := mesgdef.NewRecord(nil).
			SetTimestamp(start.Add(time.Duration(r.offsetSec) * time.Second))
		if !r.noPosition {
			rec.SetPositionLat(degreesToSemicircles(r.lat)).
				SetPositionLong(degreesToSemicircles(r.lon))
		}
		if !r.noHeartRate {
			rec.SetHeartRate(r.heartRate)
		}
		fitFile.Messages = append(fitFile.Messages, rec.ToMesg(nil))
	}

	sessionMesg := mesgdef.NewSession(nil).
		SetTimestamp(start).
		SetStartTime(start).
		SetSport(sport)
	fitFile.Messages = append(fitFile.Messages, sessionMesg.ToMesg(nil))

	var buf bytes.Buffer
	if err := encoder.New(&buf).Encode(fitFile); err != nil {
		t.Fatalf("encoding fixture FIT file: %v", err)
	}
	return buf.Bytes()
}

func TestDecodeFIT(t *testing.T) {
	t.Parallel()

	data := buildFITFile(t, typedef.SportRunning, true, []fitRecordFixture{
		{offsetSec: 0, lat: 52.5200, lon: 13.4050, heartRate: 140},
		{offsetSec: 5, lat: 52.5201, lon: 13.4052, heartRate: 145},
		{offsetSec: 10, lat: 52.5202, lon: 13.4054, noHeartRate: true},
	})

	decoded, err := DecodeFIT(data, false)
	if err != nil {
		t.Fatalf("DecodeFIT failed: %v", err)
	}

	if decoded.ActivityType != "running" {
		t.Errorf("activity type = %q, want %q", decoded.ActivityType, "running")
	}
	if len(decoded.Points) != 3 {
		t.Fatalf("point count = %d, want 3", len(decoded.Points))
	}

	first := decoded.Points[0]
	if first.Lat == nil || *first.Lat < 52.51 || *first.Lat > 52.53 {
		t.Errorf("first point lat = %v, want ~52.52", first.Lat)
	}
	if first.HeartRate == nil || *first.HeartRate != 140 {
		t.Errorf("first point heart rate = %v, want 140", first.HeartRate)
	}
	if first.Time == nil || !first.Time.Equal(time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)) {
		t.Errorf("first point time = %v, want 2024-03-10T08:00:00Z", first.Time)
	}

	if decoded.Points[2].HeartRate != nil {
		t.Errorf("third point heart rate = %v, want nil", *decoded.Points[2].HeartRate)
	}
}

func TestDecodeFITSkipsRecordsWithoutPosition(t *testing.T) {
	t.Parallel()

	data := buildFITFile(t, typedef.SportRunning, true, []fitRecordFixture{
		{offsetSec: 0, lat: 52.5200, lon: 13.4050, heartRate: 140},
		{offsetSec: 5, noPosition: true, heartRate: 190},
		{offsetSec: 10, lat: 52.5202, lon: 13.4054, heartRate: 141},
	})

	decoded, err := DecodeFIT(data, false)
	if err != nil {
		t.Fatalf("DecodeFIT failed: %v", err)
	}

	// The positionless record contributes nothing, not even its heart rate.
	if len(decoded.Points) != 2 {
		t.Fatalf("point count = %d, want 2", len(decoded.Points))
	}
	for i, pt := range decoded.Points {
		if pt.HeartRate == nil || *pt.HeartRate == 190 {
			t.Errorf("point %d heart rate = %v, skipped record leaked through", i, pt.HeartRate)
		}
	}
}

func TestDecodeFITSessionSportFallback(t *testing.T) {
	t.Parallel()

	data := buildFITFile(t, typedef.SportCycling, false, []fitRecordFixture{
		{offsetSec: 0, lat: 52.5200, lon: 13.4050, heartRate: 120},
	})

	decoded, err := DecodeFIT(data, false)
	if err != nil {
		t.Fatalf("DecodeFIT failed: %v", err)
	}
	if decoded.ActivityType != "cycling" {
		t.Errorf("activity type = %q, want %q (from session message)", decoded.ActivityType, "cycling")
	}
}

func TestDecodeFITGzip(t *testing.T) {
	t.Parallel()

	raw := buildFITFile(t, typedef.SportRunning, true, []fitRecordFixture{
		{offsetSec: 0, lat: 52.5200, lon: 13.4050, heartRate: 140},
	})

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(raw); err != nil {
		t.Fatalf("compressing fixture: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("closing gzip writer: %v", err)
	}

	decoded, err := DecodeFIT(buf.Bytes(), true)
	if err != nil {
		t.Fatalf("DecodeFIT failed on gzip input: %v", err)
	}
	if len(decoded.Points) != 1 {
		t.Fatalf("point count = %d, want 1", len(decoded.Points))
	}
	if decoded.ActivityType != "running" {
		t.Errorf("activity type = %q, want %q", decoded.ActivityType, "running")
	}
}

func TestDecodeFITCorruptInput(t *testing.T) {
	t.Parallel()

	if _, err := DecodeFIT([]byte("definitely not a fit file"), false); err == nil {
		t.Error("expected error for corrupt FIT input")
	}

	// Corrupt gzip header fails at stream open, not decode.
	if _, err := DecodeFIT([]byte("also not gzip"), true); err == nil {
		t.Error("expected error for corrupt gzip input")
	}
}
