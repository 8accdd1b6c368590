package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/savoria/orderdesk/internal/transport/http/middleware"
	"github.com/savoria/orderdesk/internal/usecase"
)

// PasswordHandler exposes password management and step-up endpoints for
// the authenticated caller.
type PasswordHandler struct {
	passwords *usecase.PasswordService
	reauth    *usecase.ReauthService
}

// NewPasswordHandler constructs PasswordHandler.
func NewPasswordHandler(passwords *usecase.PasswordService, reauth *usecase.ReauthService) *PasswordHandler {
	return &PasswordHandler{passwords: passwords, reauth: reauth}
}

// Reauth verifies the caller's password and issues a short-lived step-up
// token required by sensitive operations.
func (h *PasswordHandler) Reauth(c *gin.Context) {
	accountID, _, ok := middleware.CurrentAccount(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	var req ReauthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid re-authentication payload"))
		return
	}

	var sourceIP, userAgent string
	if reqCtx := middleware.GetRequestContext(c); reqCtx != nil {
		sourceIP = reqCtx.IP
		userAgent = reqCtx.UserAgent
	}

	token, expiresAt, err := h.reauth.Issue(c.Request.Context(), accountID, req.Password, sourceIP, userAgent)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidCredentials, Status: http.StatusUnauthorized, Message: "invalid credentials"},
		}, http.StatusInternalServerError, "re-authentication failed")
		return
	}

	c.JSON(http.StatusOK, ReauthResponse{ReauthToken: token, ExpiresAt: expiresAt})
}

// ChangePassword rotates the caller's password after verifying the current
// one and a fresh step-up token.
func (h *PasswordHandler) ChangePassword(c *gin.Context) {
	accountID, _, ok := middleware.CurrentAccount(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	var req PasswordChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid password change payload"))
		return
	}

	var sourceIP, userAgent string
	if reqCtx := middleware.GetRequestContext(c); reqCtx != nil {
		sourceIP = reqCtx.IP
		userAgent = reqCtx.UserAgent
	}

	err := h.passwords.ChangePassword(c.Request.Context(), accountID, req.CurrentPassword, req.NewPassword, req.ReauthToken, sourceIP, userAgent)
	if err != nil {
		cases := append(reauthErrorCases(),
			ErrorCase{Err: usecase.ErrInvalidCredentials, Status: http.StatusUnauthorized, Message: "invalid credentials"},
			ErrorCase{Err: usecase.ErrAuditUnavailable, Status: http.StatusServiceUnavailable, Message: "audit log unavailable"},
		)
		RespondWithMappedError(c, err, cases, http.StatusInternalServerError, "failed to change password")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "password changed"})
}

// Questions returns the fixed security question catalog.
func (h *PasswordHandler) Questions(c *gin.Context) {
	options := h.passwords.Questions()

	resp := QuestionListResponse{Questions: make([]QuestionOption, 0, len(options))}
	for _, option := range options {
		resp.Questions = append(resp.Questions, QuestionOption{ID: option.ID, Text: option.Text})
	}

	c.JSON(http.StatusOK, resp)
}

// SetupQuestion configures or replaces the caller's security question.
// Requires a fresh step-up token.
func (h *PasswordHandler) SetupQuestion(c *gin.Context) {
	accountID, _, ok := middleware.CurrentAccount(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	var req QuestionSetupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid security question payload"))
		return
	}

	var sourceIP, userAgent string
	if reqCtx := middleware.GetRequestContext(c); reqCtx != nil {
		sourceIP = reqCtx.IP
		userAgent = reqCtx.UserAgent
	}

	err := h.passwords.SetupSecurityQuestion(c.Request.Context(), accountID, req.QuestionID, req.Answer, req.ReauthToken, sourceIP, userAgent)
	if err != nil {
		cases := append(reauthErrorCases(),
			ErrorCase{Err: usecase.ErrInvalidInput, Status: http.StatusBadRequest, Message: "unknown question or unsuitable answer"},
		)
		RespondWithMappedError(c, err, cases, http.StatusInternalServerError, "failed to set security question")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "security question configured"})
}
