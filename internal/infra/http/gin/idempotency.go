package ginserver

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"

	"cleanmarket/internal/app/idempotency"
	"cleanmarket/internal/domain/shared/faults"
	"cleanmarket/internal/infra/obs"
)

const (
	HeaderIdempotencyKey = "Idempotency-Key"
	HeaderReplayed       = "Idempotent-Replayed"
)

// Idempotency replays the stored response for a repeated Idempotency-Key.
// Server errors are not stored so the caller can retry them.
func Idempotency(store idempotency.Store, logger *slog.Logger) gin.HandlerFunc {
	if store == nil {
		panic("ginserver: idempotency store required")
	}
	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			badRequest(c, "body", err)
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		fingerprint := requestFingerprint(c, body)
		ctx := c.Request.Context()

		rec, found, err := store.Get(ctx, key)
		if err != nil {
			respondWithError(c, logger, err)
			c.Abort()
			return
		}
		if found {
			if rec.Fingerprint != fingerprint {
				c.Set(obs.CtxErrorKind, faults.KindConflict)
				c.AbortWithStatusJSON(http.StatusConflict, errorResponse{
					Error: "Idempotency-Key was already used for a different request",
					Kind:  faults.KindConflict,
				})
				return
			}
			c.Header(HeaderReplayed, "true")
			c.Data(rec.StatusCode, "application/json; charset=utf-8", rec.Payload)
			c.Abort()
			return
		}

		recorder := &responseRecorder{ResponseWriter: c.Writer}
		c.Writer = recorder
		c.Next()

		status := recorder.Status()
		if status >= http.StatusInternalServerError {
			return
		}
		err = store.Save(ctx, idempotency.Record{
			Key:         key,
			Fingerprint: fingerprint,
			StatusCode:  status,
			Payload:     recorder.body.Bytes(),
			OccurredAt:  time.Now().UTC(),
		})
		if err != nil && logger != nil {
			logger.Error("idempotency record not saved", "key", key, "error", err)
		}
	}
}

func requestFingerprint(c *gin.Context, body []byte) string {
	h := sha256.New()
	h.Write([]byte(c.Request.Method))
	h.Write([]byte{0})
	h.Write([]byte(c.Request.URL.Path))
	h.Write([]byte{0})
	h.Write([]byte(c.GetHeader(HeaderActorID)))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

type responseRecorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *responseRecorder) WriteString(s string) (int, error) {
	r.body.WriteString(s)
	return r.ResponseWriter.WriteString(s)
}
