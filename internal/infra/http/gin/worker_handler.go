package ginserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	gin "github.com/gin-gonic/gin"

	appavailability "cleanmarket/internal/app/availability"
	appreliability "cleanmarket/internal/app/reliability"
	domainavailability "cleanmarket/internal/domain/availability"
	domainreliability "cleanmarket/internal/domain/reliability"
	"cleanmarket/internal/domain/shared/calendar"
)

type AvailabilityService interface {
	CheckAvailability(ctx context.Context, q appavailability.Query) (domainavailability.Result, error)
	GetAvailableSlots(ctx context.Context, workerID string, date calendar.Date, durationHours float64) ([]domainavailability.Slot, error)
}

type ReliabilityService interface {
	Score(ctx context.Context, workerID string) (domainreliability.Assessment, error)
	Recompute(ctx context.Context, workerID string) (appreliability.Change, error)
	RecomputeAll(ctx context.Context) (appreliability.BatchReport, error)
}

type WorkerHandler struct {
	Availability AvailabilityService
	Reliability  ReliabilityService
	Logger       *slog.Logger
}

func (h WorkerHandler) CheckAvailability(c *gin.Context) {
	date, ok := queryDate(c)
	if !ok {
		return
	}
	start, err := calendar.ParseTimeOfDay(c.Query("start"))
	if err != nil {
		badRequest(c, "start", err)
		return
	}
	hours, ok := queryHours(c)
	if !ok {
		return
	}
	res, err := h.Availability.CheckAvailability(c.Request.Context(), appavailability.Query{
		WorkerID:         c.Param("id"),
		Date:             date,
		StartTime:        start,
		DurationHours:    hours,
		ExcludeBookingID: c.Query("exclude"),
	})
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h WorkerHandler) Slots(c *gin.Context) {
	date, ok := queryDate(c)
	if !ok {
		return
	}
	hours, ok := queryHours(c)
	if !ok {
		return
	}
	slots, err := h.Availability.GetAvailableSlots(c.Request.Context(), c.Param("id"), date, hours)
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"worker_id": c.Param("id"), "date": date, "slots": slots})
}

func (h WorkerHandler) Score(c *gin.Context) {
	a, err := h.Reliability.Score(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h WorkerHandler) Recompute(c *gin.Context) {
	change, err := h.Reliability.Recompute(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, change)
}

func (h WorkerHandler) RecomputeAll(c *gin.Context) {
	report, err := h.Reliability.RecomputeAll(c.Request.Context())
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func queryDate(c *gin.Context) (calendar.Date, bool) {
	date, err := calendar.ParseDate(c.Query("date"))
	if err != nil {
		badRequest(c, "date", err)
		return calendar.Date{}, false
	}
	return date, true
}

func queryHours(c *gin.Context) (float64, bool) {
	raw := c.Query("hours")
	if raw == "" {
		badRequest(c, "hours", errors.New("hours is required"))
		return 0, false
	}
	hours, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		badRequest(c, "hours", err)
		return 0, false
	}
	return hours, true
}
