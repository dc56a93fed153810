package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"cleanmarket/internal/domain/geofence"
)

// GeofenceHandler lets clients pre-check a location before check-in.
type GeofenceHandler struct{}

func (GeofenceHandler) Validate(c *gin.Context) {
	var req geofenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "body", err)
		return
	}
	c.JSON(http.StatusOK, geofence.Validate(req.Reading.reading(), req.Job))
}
