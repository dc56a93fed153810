package ginserver

import (
	"errors"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"cleanmarket/internal/app/uow"
	domainavailability "cleanmarket/internal/domain/availability"
	"cleanmarket/internal/domain/shared/faults"
	"cleanmarket/internal/infra/obs"
)

type errorResponse struct {
	Error     string                           `json:"error"`
	Kind      string                           `json:"kind"`
	Field     string                           `json:"field,omitempty"`
	Rule      string                           `json:"rule,omitempty"`
	Conflicts []domainavailability.ConflictRef `json:"conflicts,omitempty"`
}

func statusFor(err error) int {
	switch faults.Kind(err) {
	case faults.KindValidation:
		return http.StatusBadRequest
	case faults.KindNotFound:
		return http.StatusNotFound
	case faults.KindConflict:
		return http.StatusConflict
	case faults.KindPolicy:
		return http.StatusUnprocessableEntity
	}
	if errors.Is(err, uow.ErrLockTimeout) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// respondWithError maps the error taxonomy onto HTTP statuses. Unexpected
// errors are logged and never echoed to the caller.
func respondWithError(c *gin.Context, logger *slog.Logger, err error) {
	status := statusFor(err)
	kind := faults.Kind(err)
	c.Set(obs.CtxErrorKind, kind)
	body := errorResponse{Error: err.Error(), Kind: kind}

	var validation *faults.ValidationError
	var policy *faults.PolicyViolation
	var conflict *domainavailability.ConflictError
	switch {
	case errors.As(err, &validation):
		body.Field = validation.Field
	case errors.As(err, &policy):
		body.Rule = policy.Rule
	case errors.As(err, &conflict):
		body.Conflicts = conflict.Conflicts
	}
	if status >= http.StatusInternalServerError {
		if logger != nil {
			logger.Error("request failed", "status", status, "error", err, "path", c.FullPath())
		}
		body.Error = http.StatusText(status)
		_ = c.Error(err)
	}
	c.JSON(status, body)
}

func badRequest(c *gin.Context, field string, err error) {
	c.Set(obs.CtxErrorKind, faults.KindValidation)
	c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error(), Kind: faults.KindValidation, Field: field})
}
