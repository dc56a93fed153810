package ginserver

import (
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"
)

// HeaderActorID carries the caller's user id. Authentication happens upstream.
const HeaderActorID = "X-Actor-ID"

func requireActor(c *gin.Context) (string, bool) {
	actor := strings.TrimSpace(c.GetHeader(HeaderActorID))
	if actor == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "X-Actor-ID header required"})
		return "", false
	}
	return actor, true
}
