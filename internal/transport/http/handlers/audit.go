package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/savoria/orderdesk/internal/core/domain"
	"github.com/savoria/orderdesk/internal/core/port"
	"github.com/savoria/orderdesk/internal/usecase"
)

const (
	auditDefaultLimit = 50
	auditMaxLimit     = 500
)

// AuditHandler exposes the administrator-only audit log query endpoint.
type AuditHandler struct {
	audit *usecase.AuditService
}

// NewAuditHandler constructs AuditHandler.
func NewAuditHandler(audit *usecase.AuditService) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// List returns a filtered, paginated window of the audit log, newest first.
// Supported query parameters: actor_id, action, outcome, since, until
// (RFC 3339), limit, offset.
func (h *AuditHandler) List(c *gin.Context) {
	filter := port.AuditFilter{
		ActorID: c.Query("actor_id"),
		Action:  c.Query("action"),
	}

	if outcome := c.Query("outcome"); outcome != "" {
		switch domain.AuditOutcome(outcome) {
		case domain.AuditSuccess, domain.AuditFailure, domain.AuditDenied:
			filter.Outcome = domain.AuditOutcome(outcome)
		default:
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "unknown outcome filter"))
			return
		}
	}

	if since := c.Query("since"); since != "" {
		ts, err := time.Parse(time.RFC3339, since)
		if err != nil {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "since must be RFC 3339"))
			return
		}
		filter.Since = ts
	}

	if until := c.Query("until"); until != "" {
		ts, err := time.Parse(time.RFC3339, until)
		if err != nil {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "until must be RFC 3339"))
			return
		}
		filter.Until = ts
	}

	page := port.AuditPage{Limit: auditDefaultLimit}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "limit must be a positive integer"))
			return
		}
		if limit > auditMaxLimit {
			limit = auditMaxLimit
		}
		page.Limit = limit
	}
	if raw := c.Query("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "offset must be a non-negative integer"))
			return
		}
		page.Offset = offset
	}

	records, total, err := h.audit.Query(c.Request.Context(), filter, page)
	if err != nil {
		RespondWithMappedError(c, err, nil, http.StatusInternalServerError, "failed to query audit log")
		return
	}

	resp := AuditListResponse{
		Records: make([]AuditRecordPayload, 0, len(records)),
		Total:   total,
		Limit:   page.Limit,
		Offset:  page.Offset,
	}
	for _, record := range records {
		resp.Records = append(resp.Records, newAuditRecordPayload(record))
	}

	c.JSON(http.StatusOK, resp)
}
