package geofence

import (
	"strings"
	"testing"
)

func TestValidate_JobSiteScenario(t *testing.T) {
	t.Parallel()

	job := Point{Latitude: 38.5816, Longitude: -121.4944}
	res := Validate(&Reading{Point: Point{Latitude: 38.5820, Longitude: -121.4950}, AccuracyMeters: 20}, &job)
	if !res.Valid {
		t.Fatalf("expected valid, got %+v", res)
	}
	if res.DistanceMeters < 55 || res.DistanceMeters > 80 {
		t.Fatalf("distance = %.1f, want roughly 65m", res.DistanceMeters)
	}
	if res.PoorAccuracy || res.Reason != ReasonWithinRadius {
		t.Fatalf("unexpected flags %+v", res)
	}
}

func TestDistance_Symmetric(t *testing.T) {
	t.Parallel()

	pairs := [][2]Point{
		{{38.5816, -121.4944}, {38.5820, -121.4950}},
		{{51.5007, -0.1246}, {40.6892, -74.0445}},
		{{-33.8568, 151.2153}, {35.6586, 139.7454}},
	}
	for _, p := range pairs {
		ab := Distance(p[0], p[1])
		ba := Distance(p[1], p[0])
		if ab != ba {
			t.Fatalf("distance not symmetric: %v vs %v", ab, ba)
		}
	}
}

func TestValidate_SamePoint(t *testing.T) {
	t.Parallel()

	origin := Point{}
	res := Validate(&Reading{Point: origin}, &origin)
	if res.DistanceMeters != 0 || !res.Valid {
		t.Fatalf("expected zero valid distance, got %+v", res)
	}
}

func TestValidate_RadiusBoundary(t *testing.T) {
	t.Parallel()

	// One degree of latitude is ~111.195 km on a 6371 km sphere.
	job := Point{Latitude: 0, Longitude: 0}
	inside := Validate(&Reading{Point: Point{Latitude: 0.0022, Longitude: 0}}, &job)
	if !inside.Valid {
		t.Fatalf("~244m should be valid: %+v", inside)
	}
	outside := Validate(&Reading{Point: Point{Latitude: 0.0023, Longitude: 0}}, &job)
	if outside.Valid || outside.Reason != ReasonTooFar {
		t.Fatalf("~256m should be too far: %+v", outside)
	}
}

func TestValidate_PoorAccuracyStillValid(t *testing.T) {
	t.Parallel()

	job := Point{Latitude: 38.5816, Longitude: -121.4944}
	res := Validate(&Reading{Point: job, AccuracyMeters: 120}, &job)
	if !res.Valid || !res.PoorAccuracy {
		t.Fatalf("expected valid reading with poor accuracy flag, got %+v", res)
	}
	if !strings.Contains(res.Message, "accuracy") {
		t.Fatalf("message should warn about accuracy: %q", res.Message)
	}
}

func TestValidate_MissingCoordinates(t *testing.T) {
	t.Parallel()

	job := Point{Latitude: 1, Longitude: 1}
	cases := []struct {
		name    string
		reading *Reading
		job     *Point
	}{
		{"nil reading", nil, &job},
		{"nil job", &Reading{Point: job}, nil},
		{"out of range latitude", &Reading{Point: Point{Latitude: 120}}, &job},
	}
	for _, tc := range cases {
		res := Validate(tc.reading, tc.job)
		if res.Valid || res.Reason != ReasonMissingCoordinates {
			t.Fatalf("%s: unexpected result %+v", tc.name, res)
		}
	}
}
