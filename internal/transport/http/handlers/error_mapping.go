package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/savoria/orderdesk/internal/transport/http/middleware"
	"github.com/savoria/orderdesk/internal/usecase"
)

// ErrorCase maps a sentinel error to an HTTP status code and response message.
type ErrorCase struct {
	Err     error
	Status  int
	Message string
}

// RespondWithMappedError resolves the provided error against known cases or
// falls back to a generic response. Password policy failures always map to a
// 400 carrying the full violation list, regardless of the case table.
func RespondWithMappedError(c *gin.Context, err error, cases []ErrorCase, fallbackStatus int, fallbackMessage string) {
	if err == nil {
		c.Status(http.StatusOK)
		return
	}

	if policyErr, ok := usecase.AsPolicyViolation(err); ok {
		c.JSON(http.StatusBadRequest, PolicyViolationResponse{
			Error:      "password does not meet requirements",
			Violations: violationMessages(policyErr),
			TraceID:    middleware.GetTraceID(c),
		})
		return
	}

	for _, cs := range cases {
		if cs.Err == nil {
			continue
		}
		if errors.Is(err, cs.Err) {
			c.JSON(cs.Status, NewErrorResponse(c, cs.Message))
			return
		}
	}

	c.JSON(fallbackStatus, NewErrorResponse(c, fallbackMessage))
}

// reauthErrorCases covers the step-up verification outcomes shared by every
// endpoint that demands a fresh re-authentication token.
func reauthErrorCases() []ErrorCase {
	return []ErrorCase{
		{Err: usecase.ErrReauthRequired, Status: http.StatusUnauthorized, Message: "re-authentication required"},
		{Err: usecase.ErrReauthExpired, Status: http.StatusForbidden, Message: "re-authentication expired"},
	}
}
