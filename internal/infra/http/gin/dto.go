package ginserver

import (
	"time"

	domainbooking "cleanmarket/internal/domain/booking"
	"cleanmarket/internal/domain/escrow"
	"cleanmarket/internal/domain/geofence"
	"cleanmarket/internal/domain/shared/calendar"
	"cleanmarket/internal/domain/shared/credits"
)

type createBookingRequest struct {
	WorkerID       string             `json:"worker_id" binding:"required"`
	Date           calendar.Date      `json:"date"`
	StartTime      calendar.TimeOfDay `json:"start_time"`
	EstimatedHours float64            `json:"estimated_hours"`
	Address        string             `json:"address"`
	Latitude       *float64           `json:"latitude"`
	Longitude      *float64           `json:"longitude"`
	CleaningType   string             `json:"cleaning_type"`
	Addons         []escrow.Selection `json:"addons"`
}

func (r createBookingRequest) jobLocation() (geofence.Point, bool) {
	if r.Latitude == nil || r.Longitude == nil {
		return geofence.Point{}, false
	}
	return geofence.Point{Latitude: *r.Latitude, Longitude: *r.Longitude}, true
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

type rescheduleRequest struct {
	Date      calendar.Date      `json:"date"`
	StartTime calendar.TimeOfDay `json:"start_time"`
	AllowPaid bool               `json:"allow_paid"`
}

type disputeRequest struct {
	Category    string `json:"category" binding:"required"`
	Description string `json:"description"`
}

type reviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// readingRequest is a device location. Pointers distinguish a missing
// coordinate from the equator.
type readingRequest struct {
	Latitude       *float64 `json:"latitude"`
	Longitude      *float64 `json:"longitude"`
	AccuracyMeters float64  `json:"accuracy_meters"`
}

func (r readingRequest) reading() *geofence.Reading {
	if r.Latitude == nil || r.Longitude == nil {
		return nil
	}
	return &geofence.Reading{Point: geofence.Point{Latitude: *r.Latitude, Longitude: *r.Longitude}, AccuracyMeters: r.AccuracyMeters}
}

type geofenceRequest struct {
	Reading readingRequest  `json:"reading"`
	Job     *geofence.Point `json:"job"`
}

type presenceResponse struct {
	At             time.Time `json:"at"`
	DistanceMeters float64   `json:"distance_m"`
	PoorAccuracy   bool      `json:"poor_accuracy"`
}

type bookingResponse struct {
	ID                     string               `json:"id"`
	ClientID               string               `json:"client_id"`
	WorkerID               string               `json:"worker_id"`
	Status                 domainbooking.Status `json:"status"`
	Date                   calendar.Date        `json:"date"`
	StartTime              calendar.TimeOfDay   `json:"start_time"`
	EstimatedHours         float64              `json:"estimated_hours"`
	ActualHours            *float64             `json:"actual_hours,omitempty"`
	Address                string               `json:"address"`
	JobLocation            geofence.Point       `json:"job_location"`
	TotalCredits           credits.Credits      `json:"total_credits"`
	TotalUSD               string               `json:"total_usd"`
	EscrowCreditsReserved  credits.Credits      `json:"escrow_credits_reserved"`
	Hold                   escrow.Hold          `json:"hold"`
	Settlement             *escrow.Settlement   `json:"settlement,omitempty"`
	CancellationFeeCredits *credits.Credits     `json:"cancellation_fee_credits,omitempty"`
	RescheduleCount        int                  `json:"reschedule_count"`
	DisputeID              string               `json:"dispute_id,omitempty"`
	CheckIn                *presenceResponse    `json:"check_in,omitempty"`
	CheckOut               *presenceResponse    `json:"check_out,omitempty"`
	CreatedAt              time.Time            `json:"created_at"`
	UpdatedAt              time.Time            `json:"updated_at"`
	Version                int64                `json:"version"`
}

func newBookingResponse(b *domainbooking.Booking) bookingResponse {
	return bookingResponse{
		ID:                     string(b.ID),
		ClientID:               b.ClientID,
		WorkerID:               b.WorkerID,
		Status:                 b.Status,
		Date:                   b.Date,
		StartTime:              b.StartTime,
		EstimatedHours:         float64(b.EstimatedMinutes) / 60,
		ActualHours:            b.ActualHours,
		Address:                b.Address,
		JobLocation:            b.JobLocation,
		TotalCredits:           b.TotalCredits,
		TotalUSD:               b.TotalCredits.FormatUSD(),
		EscrowCreditsReserved:  b.EscrowCreditsReserved,
		Hold:                   b.Hold,
		Settlement:             b.Settlement,
		CancellationFeeCredits: b.CancellationFeeCredits,
		RescheduleCount:        b.RescheduleCount,
		DisputeID:              b.DisputeID,
		CheckIn:                newPresenceResponse(b.CheckIn),
		CheckOut:               newPresenceResponse(b.CheckOut),
		CreatedAt:              b.CreatedAt,
		UpdatedAt:              b.UpdatedAt,
		Version:                b.Version,
	}
}

func newPresenceResponse(p *domainbooking.Presence) *presenceResponse {
	if p == nil {
		return nil
	}
	return &presenceResponse{At: p.At, DistanceMeters: p.DistanceMeters, PoorAccuracy: p.PoorAccuracy}
}

type presenceResultResponse struct {
	Booking  bookingResponse `json:"booking"`
	Geofence geofence.Result `json:"geofence"`
}

type checkOutResponse struct {
	presenceResultResponse
	Settlement escrow.Settlement `json:"settlement"`
}

type cancelResponse struct {
	Booking bookingResponse                 `json:"booking"`
	Quote   domainbooking.CancellationQuote `json:"quote"`
}

type rescheduleResponse struct {
	Booking bookingResponse                 `json:"booking"`
	Outcome domainbooking.RescheduleOutcome `json:"outcome"`
}
