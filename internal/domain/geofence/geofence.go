// Package geofence decides whether a device reading is close enough to a job
// address to count as a genuine check-in or check-out.
package geofence

import (
	"fmt"
	"math"
)

const (
	// EarthRadiusMeters is the spherical-Earth radius used by Haversine.
	EarthRadiusMeters = 6_371_000.0
	// RadiusMeters is the platform-wide check-in radius.
	RadiusMeters = 250.0
	// PoorAccuracyMeters is the accuracy above which callers should prompt a retry.
	PoorAccuracyMeters = 50.0
)

// Reason classifies a validation outcome.
type Reason string

const (
	ReasonWithinRadius       Reason = "within_radius"
	ReasonTooFar             Reason = "too_far"
	ReasonMissingCoordinates Reason = "missing_coordinates"
)

// Point is a latitude/longitude pair in degrees.
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether p lies within the latitude and longitude ranges.
func (p Point) Valid() bool {
	if math.IsNaN(p.Latitude) || math.IsNaN(p.Longitude) {
		return false
	}
	return p.Latitude >= -90 && p.Latitude <= 90 && p.Longitude >= -180 && p.Longitude <= 180
}

// Reading is a device sensor sample supplied by the caller.
type Reading struct {
	Point
	AccuracyMeters float64 `json:"accuracy_meters"`
}

// Result is the outcome of Validate.
type Result struct {
	Valid          bool    `json:"valid"`
	DistanceMeters float64 `json:"distance_m"`
	Reason         Reason  `json:"reason"`
	PoorAccuracy   bool    `json:"poor_accuracy"`
	Message        string  `json:"message"`
}

// Distance returns the Haversine great-circle distance in meters, rounded to 0.1 m.
func Distance(a, b Point) float64 {
	lat1 := radians(a.Latitude)
	lat2 := radians(b.Latitude)
	dLat := radians(b.Latitude - a.Latitude)
	dLon := radians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return math.Round(EarthRadiusMeters*c*10) / 10
}

// Validate judges a reading against the job location. A nil reading or job
// location, or out-of-range coordinates, yields ReasonMissingCoordinates.
func Validate(reading *Reading, job *Point) Result {
	if reading == nil || job == nil || !reading.Valid() || !job.Valid() {
		return Result{
			Valid:   false,
			Reason:  ReasonMissingCoordinates,
			Message: "Location unavailable. Enable location services and try again.",
		}
	}
	distance := Distance(reading.Point, *job)
	res := Result{
		Valid:          distance <= RadiusMeters,
		DistanceMeters: distance,
		PoorAccuracy:   reading.AccuracyMeters > PoorAccuracyMeters,
	}
	if res.Valid {
		res.Reason = ReasonWithinRadius
		res.Message = fmt.Sprintf("Location verified (%.0fm from job site).", distance)
	} else {
		res.Reason = ReasonTooFar
		res.Message = fmt.Sprintf("You are %.0fm from the job site. Move within %.0fm to continue.", distance, RadiusMeters)
	}
	if res.PoorAccuracy {
		res.Message += fmt.Sprintf(" GPS accuracy is poor (±%.0fm); consider retrying.", reading.AccuracyMeters)
	}
	return res
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
