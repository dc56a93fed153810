package ginserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"cleanmarket/internal/app/lifecycle"
	domainbooking "cleanmarket/internal/domain/booking"
	domaindisputes "cleanmarket/internal/domain/disputes"
	"cleanmarket/internal/domain/escrow"
	"cleanmarket/internal/domain/geofence"
	domainreviews "cleanmarket/internal/domain/reviews"
)

// BookingService is the lifecycle surface the controllers drive.
type BookingService interface {
	CreateBooking(ctx context.Context, in lifecycle.CreateBookingInput) (*domainbooking.Booking, error)
	Booking(ctx context.Context, id domainbooking.ID) (*domainbooking.Booking, error)
	Accept(ctx context.Context, id domainbooking.ID, actorID string) (*domainbooking.Booking, error)
	Decline(ctx context.Context, id domainbooking.ID, actorID, reason string) (*domainbooking.Booking, error)
	Schedule(ctx context.Context, id domainbooking.ID, actorID string) (*domainbooking.Booking, error)
	StartTrip(ctx context.Context, id domainbooking.ID, actorID string) (*domainbooking.Booking, error)
	CheckIn(ctx context.Context, id domainbooking.ID, actorID string, reading *geofence.Reading) (lifecycle.PresenceResult, error)
	CheckOut(ctx context.Context, id domainbooking.ID, actorID string, reading *geofence.Reading) (lifecycle.CheckOutResult, error)
	Approve(ctx context.Context, id domainbooking.ID, actorID string) (*domainbooking.Booking, error)
	Cancel(ctx context.Context, id domainbooking.ID, actorID, reason string) (domainbooking.CancellationQuote, error)
	QuoteCancellation(ctx context.Context, id domainbooking.ID) (domainbooking.CancellationQuote, error)
	DisputeWindow(ctx context.Context, id domainbooking.ID) (domainbooking.DisputeWindow, error)
	Reschedule(ctx context.Context, in lifecycle.RescheduleInput) (domainbooking.RescheduleOutcome, error)
	FileDispute(ctx context.Context, in lifecycle.FileDisputeInput) (*domaindisputes.Dispute, error)
	SubmitReview(ctx context.Context, in lifecycle.SubmitReviewInput) (*domainreviews.Review, error)
}

type BookingHandler struct {
	Service BookingService
	Logger  *slog.Logger
}

func (h BookingHandler) Create(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "body", err)
		return
	}
	location, ok := req.jobLocation()
	if !ok {
		badRequest(c, "job_location", errors.New("latitude and longitude are required"))
		return
	}
	cleaningType := escrow.CleaningType(req.CleaningType)
	if cleaningType == "" {
		cleaningType = escrow.CleaningStandard
	}
	b, err := h.Service.CreateBooking(c.Request.Context(), lifecycle.CreateBookingInput{
		ClientID:       actor,
		WorkerID:       req.WorkerID,
		Date:           req.Date,
		StartTime:      req.StartTime,
		EstimatedHours: req.EstimatedHours,
		Address:        req.Address,
		JobLocation:    location,
		CleaningType:   cleaningType,
		Addons:         req.Addons,
	})
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, newBookingResponse(b))
}

func (h BookingHandler) Get(c *gin.Context) {
	b, err := h.Service.Booking(c.Request.Context(), bookingID(c))
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, newBookingResponse(b))
}

func (h BookingHandler) Accept(c *gin.Context) {
	h.transition(c, h.Service.Accept)
}

func (h BookingHandler) Schedule(c *gin.Context) {
	h.transition(c, h.Service.Schedule)
}

func (h BookingHandler) OnTheWay(c *gin.Context) {
	h.transition(c, h.Service.StartTrip)
}

func (h BookingHandler) Approve(c *gin.Context) {
	h.transition(c, h.Service.Approve)
}

func (h BookingHandler) Decline(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req reasonRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	b, err := h.Service.Decline(c.Request.Context(), bookingID(c), actor, req.Reason)
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, newBookingResponse(b))
}

func (h BookingHandler) CheckIn(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req readingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "body", err)
		return
	}
	res, err := h.Service.CheckIn(c.Request.Context(), bookingID(c), actor, req.reading())
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, presenceResultResponse{Booking: newBookingResponse(res.Booking), Geofence: res.Geofence})
}

func (h BookingHandler) CheckOut(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req readingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "body", err)
		return
	}
	res, err := h.Service.CheckOut(c.Request.Context(), bookingID(c), actor, req.reading())
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, checkOutResponse{
		presenceResultResponse: presenceResultResponse{Booking: newBookingResponse(res.Booking), Geofence: res.Geofence},
		Settlement:             res.Settlement,
	})
}

func (h BookingHandler) Cancel(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req reasonRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()
	quote, err := h.Service.Cancel(ctx, bookingID(c), actor, req.Reason)
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	b, err := h.Service.Booking(ctx, bookingID(c))
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, cancelResponse{Booking: newBookingResponse(b), Quote: quote})
}

func (h BookingHandler) CancellationQuote(c *gin.Context) {
	quote, err := h.Service.QuoteCancellation(c.Request.Context(), bookingID(c))
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

func (h BookingHandler) Reschedule(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req rescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "body", err)
		return
	}
	ctx := c.Request.Context()
	outcome, err := h.Service.Reschedule(ctx, lifecycle.RescheduleInput{
		BookingID: bookingID(c),
		ActorID:   actor,
		Date:      req.Date,
		StartTime: req.StartTime,
		AllowPaid: req.AllowPaid,
	})
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	b, err := h.Service.Booking(ctx, bookingID(c))
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, rescheduleResponse{Booking: newBookingResponse(b), Outcome: outcome})
}

func (h BookingHandler) FileDispute(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req disputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "body", err)
		return
	}
	category, err := domaindisputes.ParseCategory(req.Category)
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	d, err := h.Service.FileDispute(c.Request.Context(), lifecycle.FileDisputeInput{
		BookingID:   bookingID(c),
		ActorID:     actor,
		Category:    category,
		Description: req.Description,
	})
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

func (h BookingHandler) SubmitReview(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "body", err)
		return
	}
	r, err := h.Service.SubmitReview(c.Request.Context(), lifecycle.SubmitReviewInput{
		BookingID: bookingID(c),
		ActorID:   actor,
		Rating:    req.Rating,
		Comment:   req.Comment,
	})
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

func (h BookingHandler) DisputeWindow(c *gin.Context) {
	w, err := h.Service.DisputeWindow(c.Request.Context(), bookingID(c))
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"open":              w.Open,
		"closes_at":         w.ClosesAt,
		"remaining_seconds": int64(w.Remaining.Seconds()),
		"reason":            w.Reason,
	})
}

func (h BookingHandler) transition(c *gin.Context, op func(ctx context.Context, id domainbooking.ID, actorID string) (*domainbooking.Booking, error)) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	b, err := op(c.Request.Context(), bookingID(c), actor)
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, newBookingResponse(b))
}

func bookingID(c *gin.Context) domainbooking.ID {
	return domainbooking.ID(c.Param("id"))
}

// bindOptionalJSON accepts an empty body.
func bindOptionalJSON(c *gin.Context, out any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(out); err != nil {
		badRequest(c, "body", err)
		return false
	}
	return true
}
