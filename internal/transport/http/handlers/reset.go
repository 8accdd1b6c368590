package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/savoria/orderdesk/internal/transport/http/middleware"
	"github.com/savoria/orderdesk/internal/usecase"
)

// ResetHandler exposes the three-step security-question password reset.
// All three endpoints are unauthenticated and respond identically for
// real and decoy flows.
type ResetHandler struct {
	reset *usecase.ResetService
}

// NewResetHandler constructs ResetHandler.
func NewResetHandler(reset *usecase.ResetService) *ResetHandler {
	return &ResetHandler{reset: reset}
}

func requestMeta(c *gin.Context) (string, string) {
	if reqCtx := middleware.GetRequestContext(c); reqCtx != nil {
		return reqCtx.IP, reqCtx.UserAgent
	}
	return "", ""
}

// Request opens a reset flow for the supplied username and returns the
// security question challenge.
func (h *ResetHandler) Request(c *gin.Context) {
	var req ResetRequestPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid reset request payload"))
		return
	}

	sourceIP, userAgent := requestMeta(c)

	challenge, err := h.reset.Request(c.Request.Context(), strings.TrimSpace(req.Username), sourceIP, userAgent)
	if err != nil {
		RespondWithMappedError(c, err, nil, http.StatusInternalServerError, "failed to start password reset")
		return
	}

	c.JSON(http.StatusOK, ResetChallengeResponse{
		FlowID:       challenge.FlowID,
		QuestionID:   challenge.QuestionID,
		QuestionText: challenge.QuestionText,
		ExpiresAt:    challenge.ExpiresAt,
	})
}

// Answer submits the security answer for a pending flow.
func (h *ResetHandler) Answer(c *gin.Context) {
	var req ResetAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid reset answer payload"))
		return
	}

	sourceIP, userAgent := requestMeta(c)

	err := h.reset.Answer(c.Request.Context(), req.FlowID, req.Answer, sourceIP, userAgent)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrResetFlowInvalid, Status: http.StatusGone, Message: "reset flow is no longer valid"},
			{Err: usecase.ErrAnswerRejected, Status: http.StatusForbidden, Message: "answer rejected"},
		}, http.StatusInternalServerError, "failed to verify answer")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "answer accepted"})
}

// Complete sets the new password for an answered flow.
func (h *ResetHandler) Complete(c *gin.Context) {
	var req ResetCompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid reset completion payload"))
		return
	}

	sourceIP, userAgent := requestMeta(c)

	err := h.reset.Complete(c.Request.Context(), req.FlowID, req.NewPassword, sourceIP, userAgent)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrResetFlowInvalid, Status: http.StatusGone, Message: "reset flow is no longer valid"},
			{Err: usecase.ErrAuditUnavailable, Status: http.StatusServiceUnavailable, Message: "audit log unavailable"},
		}, http.StatusInternalServerError, "failed to complete password reset")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "password reset complete"})
}
